package vm

import (
	"fmt"

	"go.uber.org/zap"
)

const (
	MaxFrames              = 1024 // Max call stack depth
	DefaultStackTraceLimit = 10   // Frames kept per capture unless Error.stackTraceLimit says otherwise
)

// Options configures a VM.
type Options struct {
	// StackTraceLimit caps captured frames when Error.stackTraceLimit is not set.
	StackTraceLimit int
	// HideFrames is a regular expression (.NET syntax); frames whose function
	// name matches are left out of formatted traces.
	HideFrames string
	// Formatter overrides the default V8-style frame formatter.
	Formatter FrameFormatter
	// Logger overrides the package logger for this VM.
	Logger *zap.Logger
}

func DefaultOptions() Options {
	return Options{StackTraceLimit: DefaultStackTraceLimit}
}

type callFrame struct {
	frame     StackFrame
	this      Value
	newTarget Value
	native    bool // pushed by Call/Construct for a native function
}

// VM is the object runtime: shape tree, realm, frame stack and stack capture.
// A VM is used from one goroutine at a time.
type VM struct {
	opts          Options
	shapes        *ShapeTree
	realm         *Realm
	frames        []callFrame
	bootstrapping bool
	formatter     FrameFormatter
	logger        *zap.Logger

	stackGetter Value
	stackSetter Value
	overflowing bool

	propCache  map[string]*PropInlineCache
	cacheStats ICacheStats
}

// New creates a VM with an empty realm. Builtins are installed separately.
func New(opts Options) (*VM, error) {
	l := opts.Logger
	if l == nil {
		l = Logger()
	}
	formatter := opts.Formatter
	if formatter == nil {
		f, err := NewV8Formatter(opts.HideFrames)
		if err != nil {
			return nil, fmt.Errorf("vm: compile hide-frames pattern: %w", err)
		}
		formatter = f
	}
	if opts.StackTraceLimit < 0 {
		opts.StackTraceLimit = 0
	}
	vm := &VM{
		opts:        opts,
		formatter:   formatter,
		logger:      l,
		stackGetter: Undefined,
		stackSetter: Undefined,
		propCache:   make(map[string]*PropInlineCache),
	}
	vm.shapes = NewShapeTree(l)
	vm.realm = newRealm(vm.shapes)
	return vm, nil
}

// NewVM creates a VM with DefaultOptions.
func NewVM() *VM {
	vm, err := New(DefaultOptions())
	if err != nil {
		panic(err)
	}
	return vm
}

func (vm *VM) Realm() *Realm             { return vm.realm }
func (vm *VM) Shapes() *ShapeTree        { return vm.shapes }
func (vm *VM) Logger() *zap.Logger       { return vm.logger }
func (vm *VM) Options() Options          { return vm.opts }
func (vm *VM) Formatter() FrameFormatter { return vm.formatter }

// BeginBootstrap enters the setup phase during which errors skip stack capture.
func (vm *VM) BeginBootstrap() { vm.bootstrapping = true }

// EndBootstrap leaves the setup phase.
func (vm *VM) EndBootstrap() { vm.bootstrapping = false }

func (vm *VM) IsBootstrapping() bool { return vm.bootstrapping }

// NewObject creates an ordinary object. A non-object proto selects Object.prototype.
func (vm *VM) NewObject(proto Value) Value {
	if !proto.IsObject() {
		proto = vm.realm.ObjectPrototype
	}
	return NewValueFromPlainObject(NewPlainObject(vm.shapes.root, proto))
}

// PushFrame records a script frame on the call stack.
func (vm *VM) PushFrame(f StackFrame) error {
	return vm.pushFrame(callFrame{frame: f, this: Undefined, newTarget: Undefined})
}

func (vm *VM) pushFrame(cf callFrame) error {
	if len(vm.frames) >= MaxFrames {
		return vm.stackOverflowError()
	}
	vm.frames = append(vm.frames, cf)
	return nil
}

// PopFrame removes the innermost frame.
func (vm *VM) PopFrame() {
	if len(vm.frames) > 0 {
		vm.frames = vm.frames[:len(vm.frames)-1]
	}
}

// FrameDepth returns the number of active frames.
func (vm *VM) FrameDepth() int { return len(vm.frames) }

// Frames returns the active frames, innermost first.
func (vm *VM) Frames() []StackFrame {
	out := make([]StackFrame, 0, len(vm.frames))
	for i := len(vm.frames) - 1; i >= 0; i-- {
		out = append(out, vm.frames[i].frame)
	}
	return out
}

// GetThis returns the receiver of the innermost call.
func (vm *VM) GetThis() Value {
	if len(vm.frames) == 0 {
		return Undefined
	}
	return vm.frames[len(vm.frames)-1].this
}

// GetNewTarget returns new.target of the innermost call; Undefined for plain calls.
func (vm *VM) GetNewTarget() Value {
	if len(vm.frames) == 0 {
		return Undefined
	}
	return vm.frames[len(vm.frames)-1].newTarget
}

// Call invokes fn with the given receiver.
func (vm *VM) Call(fn Value, this Value, args []Value) (Value, error) {
	if !fn.IsCallable() {
		return Undefined, vm.NewTypeError(fmt.Sprintf("%s is not a function", fn.ToString()))
	}
	return vm.invoke(fn.AsNativeFunction(), this, Undefined, args)
}

// Construct invokes ctor as a constructor. An undefined newTarget means ctor itself.
func (vm *VM) Construct(ctor Value, newTarget Value, args []Value) (Value, error) {
	if !ctor.IsCallable() || !ctor.AsNativeFunction().IsConstructor {
		return Undefined, vm.NewTypeError(fmt.Sprintf("%s is not a constructor", ctor.ToString()))
	}
	if newTarget.IsUndefined() {
		newTarget = ctor
	}
	return vm.invoke(ctor.AsNativeFunction(), Undefined, newTarget, args)
}

func (vm *VM) invoke(nf *NativeFunctionObject, this, newTarget Value, args []Value) (Value, error) {
	cf := callFrame{
		frame:     StackFrame{FunctionName: nf.Name, Function: nf},
		this:      this,
		newTarget: newTarget,
		native:    true,
	}
	if err := vm.pushFrame(cf); err != nil {
		return Undefined, err
	}
	defer vm.PopFrame()
	return nf.Fn(args)
}

// GetProperty reads key from obj, walking the prototype chain and running
// getters with obj as receiver. Primitives have no properties here.
func (vm *VM) GetProperty(obj Value, key PropertyKey) (Value, error) {
	if !obj.IsObject() {
		return Undefined, nil
	}
	cur := obj.AsPlainObject()
	for {
		if i, d, ok := cur.shape.Lookup(key); ok {
			if !d.IsAccessor() {
				return cur.properties[i], nil
			}
			getter := cur.properties[i].AsAccessor().Getter
			if !getter.IsCallable() {
				return Undefined, nil
			}
			return vm.Call(getter, obj, nil)
		}
		if !cur.prototype.IsObject() {
			return Undefined, nil
		}
		cur = cur.prototype.AsPlainObject()
	}
}

// Get is GetProperty for string keys.
func (vm *VM) Get(obj Value, name string) (Value, error) {
	return vm.GetProperty(obj, NewStringKey(name))
}

// SetProperty assigns key on obj with sloppy-mode semantics: setters run,
// read-only and non-extensible failures are silent.
func (vm *VM) SetProperty(obj Value, key PropertyKey, v Value) error {
	if !obj.IsObject() {
		return nil
	}
	receiver := ResolveReceiver(obj.AsPlainObject())
	for cur := receiver; ; {
		if i, d, ok := cur.shape.Lookup(key); ok {
			if d.IsAccessor() {
				setter := cur.properties[i].AsAccessor().Setter
				if !setter.IsCallable() {
					return nil
				}
				_, err := vm.Call(setter, obj, []Value{v})
				return err
			}
			if !d.Attrs.IsWritable() {
				return nil
			}
			if cur == receiver {
				cur.properties[i] = v
				return nil
			}
			break
		}
		if !cur.prototype.IsObject() {
			break
		}
		cur = cur.prototype.AsPlainObject()
	}
	receiver.setOwn(key, v, AttrsDefault)
	return nil
}

// GetGlobal reads a global binding from the global object.
func (vm *VM) GetGlobal(name string) (Value, bool) {
	return vm.realm.GlobalObject.GetOwn(name)
}

// SetGlobal defines or overwrites a global binding (writable, non-enumerable).
func (vm *VM) SetGlobal(name string, v Value) {
	vm.realm.GlobalObject.SetOwnNonEnumerable(name, v)
}

// OrdinaryCreateFromConstructor creates an object whose prototype is
// newTarget.prototype, or fallback when that is not an object.
func (vm *VM) OrdinaryCreateFromConstructor(newTarget Value, fallback Value) (*PlainObject, error) {
	proto, err := vm.Get(newTarget, "prototype")
	if err != nil {
		return nil, err
	}
	if !proto.IsObject() {
		proto = fallback
	}
	return NewPlainObject(vm.shapes.root, proto), nil
}
