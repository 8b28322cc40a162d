package builtins

import (
	"fmt"

	"github.com/nooga/hiddenclass/pkg/vm"
)

// FunctionInitializer implements Function.prototype
type FunctionInitializer struct{}

func (f *FunctionInitializer) Name() string {
	return "Function"
}

func (f *FunctionInitializer) Priority() int {
	return PriorityFunction
}

func (f *FunctionInitializer) InitRuntime(ctx *RuntimeContext) error {
	vmInstance := ctx.VM
	realm := vmInstance.Realm()

	// Function.prototype is itself callable and returns undefined
	functionProtoValue := vmInstance.NewNativeFunction(0, false, "", func(args []vm.Value) (vm.Value, error) {
		return vm.Undefined, nil
	})
	functionProto := functionProtoValue.AsPlainObject()
	functionProto.SetPrototype(ctx.ObjectPrototype)
	realm.FunctionPrototype = functionProtoValue

	// Function.prototype.call
	functionProto.SetOwnNonEnumerable("call", vmInstance.NewNativeFunction(1, true, "call", func(args []vm.Value) (vm.Value, error) {
		fn := vmInstance.GetThis()
		if !fn.IsCallable() {
			return vm.Undefined, vmInstance.NewTypeError("Function.prototype.call called on non-function")
		}
		var rest []vm.Value
		if len(args) > 1 {
			rest = args[1:]
		}
		return vmInstance.Call(fn, argOrUndefined(args, 0), rest)
	}))

	// Function.prototype.toString
	functionProto.SetOwnNonEnumerable("toString", vmInstance.NewNativeFunction(0, false, "toString", func(args []vm.Value) (vm.Value, error) {
		fn := vmInstance.GetThis()
		if !fn.IsCallable() {
			return vm.Undefined, vmInstance.NewTypeError("Function.prototype.toString requires that 'this' be a Function")
		}
		return vm.NewString(fmt.Sprintf("function %s() { [native code] }", fn.AsNativeFunction().Name)), nil
	}))

	return nil
}
