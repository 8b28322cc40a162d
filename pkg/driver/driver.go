package driver

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/nooga/hiddenclass/pkg/builtins"
	"github.com/nooga/hiddenclass/pkg/vm"
)

// Option configures a Session.
type Option func(*config)

type config struct {
	opts         vm.Options
	initializers []builtins.BuiltinInitializer
}

// WithLogger routes VM and builtin logging to l.
func WithLogger(l *zap.Logger) Option {
	return func(c *config) { c.opts.Logger = l }
}

// WithStackTraceLimit sets the default number of frames kept per capture.
func WithStackTraceLimit(n int) Option {
	return func(c *config) { c.opts.StackTraceLimit = n }
}

// WithHideFrames hides frames whose function name matches pattern.
func WithHideFrames(pattern string) Option {
	return func(c *config) { c.opts.HideFrames = pattern }
}

// WithInitializers replaces the standard builtin set.
func WithInitializers(inits ...builtins.BuiltinInitializer) Option {
	return func(c *config) { c.initializers = inits }
}

// Session is a VM with its builtins installed. It is not safe for
// concurrent use.
type Session struct {
	vmInstance *vm.VM
	logger     *zap.Logger
}

// NewSession creates a VM and runs the builtin initializers.
func NewSession(options ...Option) (*Session, error) {
	c := config{opts: vm.DefaultOptions()}
	for _, o := range options {
		o(&c)
	}
	if c.initializers == nil {
		c.initializers = builtins.GetStandardInitializers()
	}

	vmInstance, err := vm.New(c.opts)
	if err != nil {
		return nil, err
	}
	l := vmInstance.Logger()
	if err := builtins.InitializeRuntime(vmInstance, c.initializers); err != nil {
		return nil, fmt.Errorf("initialize builtins: %w", err)
	}

	stats := vmInstance.Shapes().Stats()
	l.Debug("session ready",
		zap.Int("builtins", len(c.initializers)),
		zap.Int64("shapes", stats.Shapes),
		zap.Int("stack_trace_limit", vmInstance.StackTraceLimit()))
	return &Session{vmInstance: vmInstance, logger: l}, nil
}

func (s *Session) VM() *vm.VM { return s.vmInstance }

// Global returns a global binding or an error naming the missing binding.
func (s *Session) Global(name string) (vm.Value, error) {
	v, ok := s.vmInstance.GetGlobal(name)
	if !ok {
		return vm.Undefined, fmt.Errorf("%s is not defined", name)
	}
	return v, nil
}

// WithFrames runs fn with frames on the call stack. Frames are given
// innermost first, the way a trace prints them.
func (s *Session) WithFrames(frames []vm.StackFrame, fn func() error) error {
	pushed := 0
	defer func() {
		for ; pushed > 0; pushed-- {
			s.vmInstance.PopFrame()
		}
	}()
	for i := len(frames) - 1; i >= 0; i-- {
		if err := s.vmInstance.PushFrame(frames[i]); err != nil {
			return err
		}
		pushed++
	}
	return fn()
}

// NewError constructs an instance of the named error constructor.
func (s *Session) NewError(ctorName string, args ...vm.Value) (vm.Value, error) {
	ctor, err := s.Global(ctorName)
	if err != nil {
		return vm.Undefined, err
	}
	return s.vmInstance.Construct(ctor, vm.Undefined, args)
}

// CaptureStackTrace calls Error.captureStackTrace on target. A non-empty
// boundary runs the capture inside a native function of that name passed as
// the caller, so the trace starts below it.
func (s *Session) CaptureStackTrace(target vm.Value, boundary string) error {
	errorCtor, err := s.Global("Error")
	if err != nil {
		return err
	}
	capture, err := s.vmInstance.Get(errorCtor, "captureStackTrace")
	if err != nil {
		return err
	}
	if boundary == "" {
		_, err = s.vmInstance.Call(capture, errorCtor, []vm.Value{target})
		return err
	}

	var caller vm.Value
	caller = s.vmInstance.NewNativeFunction(0, false, boundary, func(args []vm.Value) (vm.Value, error) {
		return s.vmInstance.Call(capture, errorCtor, []vm.Value{target, caller})
	})
	_, err = s.vmInstance.Call(caller, vm.Undefined, nil)
	return err
}

// ErrorString applies Error.prototype.toString to v.
func (s *Session) ErrorString(v vm.Value) (string, error) {
	errorCtor, err := s.Global("Error")
	if err != nil {
		return "", err
	}
	proto, err := s.vmInstance.Get(errorCtor, "prototype")
	if err != nil {
		return "", err
	}
	toString, err := s.vmInstance.Get(proto, "toString")
	if err != nil {
		return "", err
	}
	res, err := s.vmInstance.Call(toString, v, nil)
	if err != nil {
		return "", err
	}
	return s.vmInstance.ToText(res)
}

// Stack reads v.stack as text. A missing stack reads as "".
func (s *Session) Stack(v vm.Value) (string, error) {
	st, err := s.vmInstance.Get(v, "stack")
	if err != nil {
		return "", err
	}
	if st.IsUndefined() {
		return "", nil
	}
	return s.vmInstance.ToText(st)
}

// ShapeStats reports the growth of the session's shape tree.
func (s *Session) ShapeStats() vm.ShapeStats {
	return s.vmInstance.Shapes().Stats()
}
