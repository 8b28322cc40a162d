package vm

import (
	"math"

	"go.uber.org/zap"
)

var (
	stackKey   = NewStringKey("stack")
	nameKey    = NewStringKey("name")
	messageKey = NewStringKey("message")
)

type traceState uint8

const (
	traceCaptured traceState = iota
	traceFormatted
)

// DetailedTrace holds frames captured eagerly and formatted on first read.
// Once formatted, the text is fixed: later reads never re-format.
type DetailedTrace struct {
	state  traceState
	frames []StackFrame
	text   string
}

// Frames returns a copy of the captured frames (nil after Clear).
func (t *DetailedTrace) Frames() []StackFrame {
	if t.frames == nil {
		return nil
	}
	out := make([]StackFrame, len(t.frames))
	copy(out, t.frames)
	return out
}

// IsFormatted reports whether the trace has been read through the accessor.
func (t *DetailedTrace) IsFormatted() bool { return t.state == traceFormatted }

// Clear drops the captured frames. A formatted trace keeps its text.
func (t *DetailedTrace) Clear() { t.frames = nil }

// resolve formats the trace exactly once. A failed format leaves the trace
// in the captured state.
func (t *DetailedTrace) resolve(format func([]StackFrame) (string, error)) (string, error) {
	if t.state == traceFormatted {
		return t.text, nil
	}
	text, err := format(t.frames)
	if err != nil {
		return "", err
	}
	t.text = text
	t.state = traceFormatted
	return text, nil
}

// StackTraceState is the per-object record of both captures.
type StackTraceState struct {
	detailed     *DetailedTrace
	simple       string
	simpleFrames []StackFrame
	hasSimple    bool
}

// Detailed returns the lazily formatted trace, or nil if none was captured.
func (s *StackTraceState) Detailed() *DetailedTrace { return s.detailed }

// Simple returns the eagerly formatted trace.
func (s *StackTraceState) Simple() (string, bool) { return s.simple, s.hasSimple }

// SimpleFrames returns the frames that went into the simple trace.
func (s *StackTraceState) SimpleFrames() []StackFrame {
	out := make([]StackFrame, len(s.simpleFrames))
	copy(out, s.simpleFrames)
	return out
}

func (o *PlainObject) stackState() *StackTraceState {
	if o.stack == nil {
		o.stack = &StackTraceState{}
	}
	return o.stack
}

// StackTraceLimit returns the number of frames a capture keeps: the numeric
// value of Error.stackTraceLimit if present, else the configured default.
func (vm *VM) StackTraceLimit() int {
	if ctor := vm.realm.ErrorConstructor; ctor.IsObject() {
		if v, ok := ctor.AsPlainObject().GetOwn("stackTraceLimit"); ok {
			if !v.IsNumber() {
				return 0
			}
			f := v.ToFloat()
			if math.IsNaN(f) || f <= 0 {
				return 0
			}
			if f > MaxFrames {
				return MaxFrames
			}
			return int(f)
		}
	}
	return vm.opts.StackTraceLimit
}

// captureFrames snapshots the call stack innermost first. Without a boundary
// the native builtin running the capture is skipped. With one, frames are
// dropped up to and including the boundary's innermost frame; a boundary
// that is not on the stack leaves nothing.
func (vm *VM) captureFrames(boundary *NativeFunctionObject) []StackFrame {
	limit := vm.StackTraceLimit()
	if limit == 0 {
		return nil
	}
	top := len(vm.frames) - 1
	if boundary == nil && top >= 0 && vm.frames[top].native {
		top--
	}
	seen := boundary == nil
	var frames []StackFrame
	for i := top; i >= 0 && len(frames) < limit; i-- {
		f := vm.frames[i].frame
		if !seen {
			seen = f.Function == boundary
			continue
		}
		frames = append(frames, f)
	}
	return frames
}

// callerBoundary returns the native function a callable caller names, or nil.
func callerBoundary(caller Value) *NativeFunctionObject {
	if caller.IsCallable() {
		return caller.AsNativeFunction()
	}
	return nil
}

// CaptureDetailedStackTrace records the current frames on obj for lazy
// formatting. A callable caller marks the boundary as in CaptureSimpleStackTrace.
func (vm *VM) CaptureDetailedStackTrace(obj *PlainObject, caller Value) {
	obj.stackState().detailed = &DetailedTrace{frames: vm.captureFrames(callerBoundary(caller))}
}

// CaptureSimpleStackTrace records and immediately formats the current frames
// on obj. A callable caller marks the boundary: it and everything called
// from it are left out.
func (vm *VM) CaptureSimpleStackTrace(obj *PlainObject, caller Value) error {
	frames := vm.captureFrames(callerBoundary(caller))
	header, err := vm.ToDisplayString(NewValueFromPlainObject(obj))
	if err != nil {
		return err
	}
	st := obj.stackState()
	st.simple = vm.formatter.Format(header, frames)
	st.simpleFrames = frames
	st.hasSimple = true
	return nil
}

// ForceInstallStackCapture installs the "stack" accessor on obj and captures
// both traces. A global proxy is redirected to its global object first.
// Calling it again on an object that already carries the accessor reuses it
// and re-captures.
func (vm *VM) ForceInstallStackCapture(obj Value, caller Value) error {
	if !obj.IsObject() {
		return &ArgumentTypeError{Op: "Error.captureStackTrace", Value: obj}
	}
	target := ResolveReceiver(obj.AsPlainObject())
	if err := vm.InstallStackAccessor(target); err != nil {
		return err
	}
	vm.CaptureDetailedStackTrace(target, caller)
	return vm.CaptureSimpleStackTrace(target, caller)
}

// InstallStackAccessor adds the non-enumerable "stack" accessor to target
// through a single shape transition, after the extensibility guard.
func (vm *VM) InstallStackAccessor(target *PlainObject) error {
	getter, setter := vm.stackAccessors()
	entry := vm.propSite("stack.install", stackKey).resolve(target.shape, &vm.cacheStats)
	exists := entry.offset >= 0
	if exists && entry.kind == AccessorKind && vm.isStackAccessor(target.properties[entry.offset]) {
		if !target.extensible {
			return vm.denyStack(target)
		}
		return nil
	}
	if !CanInsertNonConfigurable(target, stackKey) {
		return vm.denyStack(target)
	}
	if exists {
		// writable, configurable data property: swap it for the accessor
		return target.DefineAccessorPropertyByKey(stackKey, getter, setter, Configurable)
	}
	next, err := InsertDescriptor(target.shape, AccessorDescriptor(stackKey, Configurable))
	if err != nil {
		return err
	}
	MigrateObject(target, next)
	target.properties[next.Len()-1] = NewAccessor(getter, setter)
	return nil
}

func (vm *VM) denyStack(target *PlainObject) error {
	vm.logger.Debug("stack accessor rejected",
		zap.Stringer("key", stackKey),
		zap.Bool("extensible", target.extensible),
		zap.Uint64("shape", target.shape.id))
	return &RedefinitionDeniedError{Key: stackKey, Object: target}
}

func (vm *VM) isStackAccessor(slot Value) bool {
	return slot.IsAccessor() && slot.AsAccessor().Getter.Is(vm.stackGetter)
}

// stackAccessors returns the shared getter/setter pair, creating it on first use.
func (vm *VM) stackAccessors() (Value, Value) {
	if vm.stackGetter.IsUndefined() {
		vm.stackGetter = vm.NewNativeFunction(0, false, "stack", vm.errorStackGetter)
		vm.stackSetter = vm.NewNativeFunction(1, false, "stack", vm.errorStackSetter)
	}
	return vm.stackGetter, vm.stackSetter
}

// errorStackGetter formats the detailed trace of the nearest object on the
// receiver's prototype chain that has one.
func (vm *VM) errorStackGetter(args []Value) (Value, error) {
	this := vm.GetThis()
	if !this.IsObject() {
		return Undefined, nil
	}
	holder := ResolveReceiver(this.AsPlainObject())
	for holder.stack == nil || holder.stack.detailed == nil {
		if !holder.prototype.IsObject() {
			return Undefined, nil
		}
		holder = holder.prototype.AsPlainObject()
	}
	text, err := holder.stack.detailed.resolve(func(frames []StackFrame) (string, error) {
		header, err := vm.ToDisplayString(NewValueFromPlainObject(holder))
		if err != nil {
			return "", err
		}
		return vm.formatter.Format(header, frames), nil
	})
	if err != nil {
		return Undefined, vm.Throwable(err)
	}
	return NewString(text), nil
}

// errorStackSetter replaces the accessor with a plain data property on the receiver.
func (vm *VM) errorStackSetter(args []Value) (Value, error) {
	this := vm.GetThis()
	if !this.IsObject() {
		return Undefined, nil
	}
	v := Undefined
	if len(args) > 0 {
		v = args[0]
	}
	target := ResolveReceiver(this.AsPlainObject())
	if err := target.DefineOwnPropertyByKey(stackKey, v, AttrsDontEnum); err != nil {
		return Undefined, vm.Throwable(err)
	}
	return Undefined, nil
}
