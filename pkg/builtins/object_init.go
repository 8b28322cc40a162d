package builtins

import (
	"github.com/nooga/hiddenclass/pkg/vm"
)

// ObjectInitializer implements the Object builtin
type ObjectInitializer struct{}

func (o *ObjectInitializer) Name() string {
	return "Object"
}

func (o *ObjectInitializer) Priority() int {
	return PriorityObject
}

func (o *ObjectInitializer) InitRuntime(ctx *RuntimeContext) error {
	vmInstance := ctx.VM

	// Object.prototype is created with the realm; only its methods are added here
	objectProto := ctx.ObjectPrototype.AsPlainObject()

	objectProto.SetOwnNonEnumerable("hasOwnProperty", vmInstance.NewNativeFunction(1, false, "hasOwnProperty", func(args []vm.Value) (vm.Value, error) {
		thisValue := vmInstance.GetThis()
		if !thisValue.IsObject() {
			return vm.False, nil
		}
		key, err := toPropertyKey(vmInstance, argOrUndefined(args, 0))
		if err != nil {
			return vm.Undefined, vmInstance.Throwable(err)
		}
		return vm.BooleanValue(vm.ResolveReceiver(thisValue.AsPlainObject()).HasOwnByKey(key)), nil
	}))

	objectProto.SetOwnNonEnumerable("isPrototypeOf", vmInstance.NewNativeFunction(1, false, "isPrototypeOf", func(args []vm.Value) (vm.Value, error) {
		thisValue := vmInstance.GetThis()
		v := argOrUndefined(args, 0)
		if !v.IsObject() || !thisValue.IsObject() {
			return vm.False, nil
		}
		for proto := v.AsPlainObject().GetPrototype(); proto.IsObject(); proto = proto.AsPlainObject().GetPrototype() {
			if proto.Is(thisValue) {
				return vm.True, nil
			}
		}
		return vm.False, nil
	}))

	objectProto.SetOwnNonEnumerable("toString", vmInstance.NewNativeFunction(0, false, "toString", func(args []vm.Value) (vm.Value, error) {
		thisValue := vmInstance.GetThis()
		switch {
		case thisValue.IsUndefined():
			return vm.NewString("[object Undefined]"), nil
		case thisValue.IsNull():
			return vm.NewString("[object Null]"), nil
		case thisValue.IsCallable():
			return vm.NewString("[object Function]"), nil
		case isErrorValue(thisValue):
			return vm.NewString("[object Error]"), nil
		}
		return vm.NewString("[object Object]"), nil
	}))

	objectProto.SetOwnNonEnumerable("valueOf", vmInstance.NewNativeFunction(0, false, "valueOf", func(args []vm.Value) (vm.Value, error) {
		return vmInstance.GetThis(), nil
	}))

	// Object constructor
	objectCtor := vmInstance.NewConstructor(1, false, "Object", func(args []vm.Value) (vm.Value, error) {
		if v := argOrUndefined(args, 0); v.IsObject() {
			return v, nil
		}
		return vmInstance.NewObject(ctx.ObjectPrototype), nil
	})
	ctorObj := objectCtor.AsPlainObject()
	if err := ctorObj.DefineOwnProperty("prototype", ctx.ObjectPrototype, vm.AttrsNone); err != nil {
		return err
	}
	objectProto.SetOwnNonEnumerable("constructor", objectCtor)

	ctorObj.SetOwnNonEnumerable("getPrototypeOf", vmInstance.NewNativeFunction(1, false, "getPrototypeOf", func(args []vm.Value) (vm.Value, error) {
		v := argOrUndefined(args, 0)
		if !v.IsObject() {
			return vm.Null, nil
		}
		return v.AsPlainObject().GetPrototype(), nil
	}))

	ctorObj.SetOwnNonEnumerable("preventExtensions", vmInstance.NewNativeFunction(1, false, "preventExtensions", func(args []vm.Value) (vm.Value, error) {
		v := argOrUndefined(args, 0)
		if v.IsObject() {
			vm.ResolveReceiver(v.AsPlainObject()).PreventExtensions()
		}
		return v, nil
	}))

	ctorObj.SetOwnNonEnumerable("isExtensible", vmInstance.NewNativeFunction(1, false, "isExtensible", func(args []vm.Value) (vm.Value, error) {
		v := argOrUndefined(args, 0)
		if !v.IsObject() {
			return vm.False, nil
		}
		return vm.BooleanValue(vm.ResolveReceiver(v.AsPlainObject()).IsExtensible()), nil
	}))

	ctorObj.SetOwnNonEnumerable("freeze", vmInstance.NewNativeFunction(1, false, "freeze", func(args []vm.Value) (vm.Value, error) {
		v := argOrUndefined(args, 0)
		if v.IsObject() {
			vm.ResolveReceiver(v.AsPlainObject()).Freeze()
		}
		return v, nil
	}))

	ctorObj.SetOwnNonEnumerable("defineProperty", vmInstance.NewNativeFunction(3, false, "defineProperty", func(args []vm.Value) (vm.Value, error) {
		target := argOrUndefined(args, 0)
		if !target.IsObject() {
			return vm.Undefined, vmInstance.NewTypeError("Object.defineProperty called on non-object")
		}
		key, err := toPropertyKey(vmInstance, argOrUndefined(args, 1))
		if err != nil {
			return vm.Undefined, vmInstance.Throwable(err)
		}
		if err := definePropertyFromDescriptor(vmInstance, vm.ResolveReceiver(target.AsPlainObject()), key, argOrUndefined(args, 2)); err != nil {
			return vm.Undefined, vmInstance.Throwable(err)
		}
		return target, nil
	}))

	return ctx.DefineGlobal("Object", objectCtor)
}

// toPropertyKey converts a script value to a property key.
func toPropertyKey(vmInstance *vm.VM, v vm.Value) (vm.PropertyKey, error) {
	if v.IsSymbol() {
		return vm.NewSymbolKey(v), nil
	}
	name, err := vmInstance.ToText(v)
	if err != nil {
		return vm.PropertyKey{}, err
	}
	return vm.NewStringKey(name), nil
}

// definePropertyFromDescriptor applies a descriptor object the way
// Object.defineProperty does. Absent attribute fields default to false.
func definePropertyFromDescriptor(vmInstance *vm.VM, target *vm.PlainObject, key vm.PropertyKey, desc vm.Value) error {
	if !desc.IsObject() {
		return vmInstance.NewTypeError("Property description must be an object")
	}
	d := desc.AsPlainObject()
	flag := func(name string, bit vm.Attrs) (vm.Attrs, error) {
		v, err := vmInstance.Get(desc, name)
		if err != nil {
			return 0, err
		}
		if v.IsBoolean() && v.AsBoolean() {
			return bit, nil
		}
		return 0, nil
	}
	var attrs vm.Attrs
	for _, f := range []struct {
		name string
		bit  vm.Attrs
	}{{"enumerable", vm.Enumerable}, {"configurable", vm.Configurable}} {
		bit, err := flag(f.name, f.bit)
		if err != nil {
			return err
		}
		attrs |= bit
	}

	if d.HasOwn("get") || d.HasOwn("set") {
		getter, err := vmInstance.Get(desc, "get")
		if err != nil {
			return err
		}
		setter, err := vmInstance.Get(desc, "set")
		if err != nil {
			return err
		}
		return target.DefineAccessorPropertyByKey(key, getter, setter, attrs)
	}

	writable, err := flag("writable", vm.Writable)
	if err != nil {
		return err
	}
	value, err := vmInstance.Get(desc, "value")
	if err != nil {
		return err
	}
	return target.DefineOwnPropertyByKey(key, value, attrs|writable)
}
