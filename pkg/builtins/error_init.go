package builtins

import (
	"github.com/nooga/hiddenclass/pkg/vm"
)

type ErrorInitializer struct{}

func (e *ErrorInitializer) Name() string {
	return "Error"
}

func (e *ErrorInitializer) Priority() int {
	return PriorityError
}

func (e *ErrorInitializer) InitRuntime(ctx *RuntimeContext) error {
	vmInstance := ctx.VM
	realm := vmInstance.Realm()

	// Create Error.prototype inheriting from Object.prototype
	errorPrototypeValue := vmInstance.NewObject(ctx.ObjectPrototype)
	errorPrototype := errorPrototypeValue.AsPlainObject()

	// Set up Error.prototype properties
	errorPrototype.SetOwnNonEnumerable("name", vm.NewString("Error"))
	errorPrototype.SetOwnNonEnumerable("message", vm.NewString(""))

	// Error.prototype.toString works on any object receiver
	errorPrototype.SetOwnNonEnumerable("toString", vmInstance.NewNativeFunction(0, false, "toString", func(args []vm.Value) (vm.Value, error) {
		s, err := vmInstance.ToDisplayString(vmInstance.GetThis())
		if err != nil {
			return vm.Undefined, vmInstance.Throwable(err)
		}
		return vm.NewString(s), nil
	}))

	var errorConstructor vm.Value
	errorConstructor = vmInstance.NewConstructor(1, false, "Error", func(args []vm.Value) (vm.Value, error) {
		obj, err := ConstructError(vmInstance, errorConstructor, vmInstance.GetNewTarget(), argOrUndefined(args, 0))
		if err != nil {
			return vm.Undefined, vmInstance.Throwable(err)
		}
		return obj, nil
	})
	ctorObj := errorConstructor.AsPlainObject()
	if err := ctorObj.DefineOwnProperty("prototype", errorPrototypeValue, vm.AttrsNone); err != nil {
		return err
	}
	errorPrototype.SetOwnNonEnumerable("constructor", errorConstructor)

	// Error.captureStackTrace(targetObject, constructorOpt)
	ctorObj.SetOwnNonEnumerable("captureStackTrace", vmInstance.NewNativeFunction(2, false, "captureStackTrace", func(args []vm.Value) (vm.Value, error) {
		if err := vmInstance.ForceInstallStackCapture(argOrUndefined(args, 0), argOrUndefined(args, 1)); err != nil {
			return vm.Undefined, vmInstance.Throwable(err)
		}
		return vm.Undefined, nil
	}))

	// Error.stackTraceLimit is an ordinary data property scripts may overwrite
	ctorObj.SetOwn("stackTraceLimit", vm.IntegerValue(int32(vmInstance.Options().StackTraceLimit)))

	ctorObj.SetOwnNonEnumerable("isError", vmInstance.NewNativeFunction(1, false, "isError", func(args []vm.Value) (vm.Value, error) {
		return vm.BooleanValue(isErrorValue(argOrUndefined(args, 0))), nil
	}))

	realm.ErrorPrototype = errorPrototypeValue
	realm.ErrorConstructor = errorConstructor

	return ctx.DefineGlobal("Error", errorConstructor)
}

// ConstructError runs the Error constructor algorithm for target (Error or
// one of its subclasses):
//
//  1. an undefined newTarget means target itself;
//  2. the object's prototype comes from newTarget.prototype, falling back to
//     target's own prototype property;
//  3. a defined message is converted to text and stored as a non-enumerable
//     own "message" property;
//  4. the object is branded as an error instance;
//  5. outside bootstrap, the stack accessor is installed and both traces
//     are captured.
//
// Errors from reading newTarget.prototype or converting message propagate
// unchanged.
func ConstructError(vmInstance *vm.VM, target, newTarget, message vm.Value) (vm.Value, error) {
	if !newTarget.IsObject() {
		newTarget = target
	}

	fallback := vmInstance.Realm().ErrorPrototype
	if target.IsObject() {
		if proto, ok := target.AsPlainObject().GetOwn("prototype"); ok && proto.IsObject() {
			fallback = proto
		}
	}
	obj, err := vmInstance.OrdinaryCreateFromConstructor(newTarget, fallback)
	if err != nil {
		return vm.Undefined, err
	}

	if !message.IsUndefined() {
		text, err := vmInstance.ToText(message)
		if err != nil {
			return vm.Undefined, err
		}
		if err := obj.DefineOwnProperty("message", vm.NewString(text), vm.AttrsDontEnum); err != nil {
			return vm.Undefined, err
		}
	}

	obj.MarkError()

	if !vmInstance.IsBootstrapping() {
		if err := vmInstance.InstallStackAccessor(obj); err != nil {
			return vm.Undefined, err
		}
		vmInstance.CaptureDetailedStackTrace(obj, vm.Undefined)
		if err := vmInstance.CaptureSimpleStackTrace(obj, vm.Undefined); err != nil {
			return vm.Undefined, err
		}
	}

	return vm.NewValueFromPlainObject(obj), nil
}

// InitError creates and returns an ErrorInitializer
func InitError() BuiltinInitializer {
	return &ErrorInitializer{}
}

// EvalError
type EvalErrorInitializer struct{}

func (e *EvalErrorInitializer) Name() string  { return "EvalError" }
func (e *EvalErrorInitializer) Priority() int { return PriorityNativeError }
func (e *EvalErrorInitializer) InitRuntime(ctx *RuntimeContext) error {
	return initErrorSubclass(ctx, "EvalError")
}

// RangeError
type RangeErrorInitializer struct{}

func (e *RangeErrorInitializer) Name() string  { return "RangeError" }
func (e *RangeErrorInitializer) Priority() int { return PriorityNativeError }
func (e *RangeErrorInitializer) InitRuntime(ctx *RuntimeContext) error {
	return initErrorSubclass(ctx, "RangeError")
}

// URIError
type URIErrorInitializer struct{}

func (e *URIErrorInitializer) Name() string  { return "URIError" }
func (e *URIErrorInitializer) Priority() int { return PriorityNativeError }
func (e *URIErrorInitializer) InitRuntime(ctx *RuntimeContext) error {
	return initErrorSubclass(ctx, "URIError")
}

// helper to initialize simple Error subclasses inheriting Error.prototype
func initErrorSubclass(ctx *RuntimeContext, name string) error {
	vmInstance := ctx.VM
	realm := vmInstance.Realm()
	if !ctx.ErrorPrototype.IsObject() {
		return vmInstance.NewTypeError(name + " requires Error to be initialized first")
	}

	protoValue := vmInstance.NewObject(ctx.ErrorPrototype)
	proto := protoValue.AsPlainObject()
	proto.SetOwnNonEnumerable("name", vm.NewString(name))
	proto.SetOwnNonEnumerable("message", vm.NewString(""))

	var ctor vm.Value
	ctor = vmInstance.NewConstructor(1, false, name, func(args []vm.Value) (vm.Value, error) {
		obj, err := ConstructError(vmInstance, ctor, vmInstance.GetNewTarget(), argOrUndefined(args, 0))
		if err != nil {
			return vm.Undefined, vmInstance.Throwable(err)
		}
		return obj, nil
	})
	ctorObj := ctor.AsPlainObject()
	// TypeError.__proto__ === Error
	ctorObj.SetPrototype(realm.ErrorConstructor)
	if err := ctorObj.DefineOwnProperty("prototype", protoValue, vm.AttrsNone); err != nil {
		return err
	}
	proto.SetOwnNonEnumerable("constructor", ctor)

	realm.NativeErrors[name] = ctor
	return ctx.DefineGlobal(name, ctor)
}

// isErrorValue reports whether val was built by an error constructor.
// Objects that merely inherit from Error.prototype do not count.
func isErrorValue(val vm.Value) bool {
	return val.IsObject() && val.AsPlainObject().IsError()
}
