package builtins

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nooga/hiddenclass/pkg/vm"
)

func TestObjectInitializer(t *testing.T) {
	// Test that ObjectInitializer implements the interface correctly
	var initializer BuiltinInitializer = &ObjectInitializer{}

	assert.Equal(t, "Object", initializer.Name())
	assert.Equal(t, PriorityObject, initializer.Priority())
}

func callStatic(t *testing.T, vmInstance *vm.VM, ctorName, method string, args ...vm.Value) (vm.Value, error) {
	t.Helper()
	ctor := mustGlobal(t, vmInstance, ctorName)
	fn, err := vmInstance.Get(ctor, method)
	require.NoError(t, err)
	require.True(t, fn.IsCallable(), "%s.%s", ctorName, method)
	return vmInstance.Call(fn, ctor, args)
}

func TestObjectPrototypeMethods(t *testing.T) {
	vmInstance := newRuntime(t)
	obj := vmInstance.NewObject(vm.Undefined)
	obj.AsPlainObject().SetOwn("a", vm.IntegerValue(1))

	hasOwn, err := vmInstance.Get(obj, "hasOwnProperty")
	require.NoError(t, err)
	res, err := vmInstance.Call(hasOwn, obj, []vm.Value{vm.NewString("a")})
	require.NoError(t, err)
	assert.True(t, res.AsBoolean())
	res, err = vmInstance.Call(hasOwn, obj, []vm.Value{vm.NewString("toString")})
	require.NoError(t, err)
	assert.False(t, res.AsBoolean())

	s, err := vmInstance.ToText(obj)
	require.NoError(t, err)
	assert.Equal(t, "[object Object]", s)

	errObj := construct(t, vmInstance, "Error", vm.NewString("x"))
	toString, err := vmInstance.Get(vmInstance.Realm().ObjectPrototype, "toString")
	require.NoError(t, err)
	res, err = vmInstance.Call(toString, errObj, nil)
	require.NoError(t, err)
	assert.Equal(t, "[object Error]", res.AsString())

	// Error.prototype.toString shadows Object.prototype.toString
	s, err = vmInstance.ToText(errObj)
	require.NoError(t, err)
	assert.Equal(t, "Error: x", s)
}

func TestObjectExtensibility(t *testing.T) {
	vmInstance := newRuntime(t)
	obj := vmInstance.NewObject(vm.Undefined)

	res, err := callStatic(t, vmInstance, "Object", "isExtensible", obj)
	require.NoError(t, err)
	assert.True(t, res.AsBoolean())

	_, err = callStatic(t, vmInstance, "Object", "preventExtensions", obj)
	require.NoError(t, err)
	res, err = callStatic(t, vmInstance, "Object", "isExtensible", obj)
	require.NoError(t, err)
	assert.False(t, res.AsBoolean())

	obj.AsPlainObject().SetOwn("late", vm.True)
	assert.False(t, obj.AsPlainObject().HasOwn("late"))
}

func TestObjectFreeze(t *testing.T) {
	vmInstance := newRuntime(t)
	obj := vmInstance.NewObject(vm.Undefined)
	obj.AsPlainObject().SetOwn("a", vm.IntegerValue(1))

	_, err := callStatic(t, vmInstance, "Object", "freeze", obj)
	require.NoError(t, err)

	pd, ok := obj.AsPlainObject().GetOwnProperty(vm.NewStringKey("a"))
	require.True(t, ok)
	assert.False(t, pd.Writable())
	assert.False(t, pd.Configurable())
	assert.True(t, pd.Enumerable())
	assert.False(t, obj.AsPlainObject().IsExtensible())
}

func TestObjectDefineProperty(t *testing.T) {
	vmInstance := newRuntime(t)
	obj := vmInstance.NewObject(vm.Undefined)

	desc := vmInstance.NewObject(vm.Undefined)
	desc.AsPlainObject().SetOwn("value", vm.NewString("v"))
	desc.AsPlainObject().SetOwn("writable", vm.True)

	_, err := callStatic(t, vmInstance, "Object", "defineProperty", obj, vm.NewString("p"), desc)
	require.NoError(t, err)
	pd, ok := obj.AsPlainObject().GetOwnProperty(vm.NewStringKey("p"))
	require.True(t, ok)
	assert.Equal(t, vm.Writable, pd.Attrs)

	// p is now non-configurable: switching it to an accessor is rejected
	getterDesc := vmInstance.NewObject(vm.Undefined)
	getterDesc.AsPlainObject().SetOwn("get", vmInstance.NewNativeFunction(0, false, "get", func(args []vm.Value) (vm.Value, error) {
		return vm.Undefined, nil
	}))
	_, err = callStatic(t, vmInstance, "Object", "defineProperty", obj, vm.NewString("p"), getterDesc)
	var denied *vm.RedefinitionDeniedError
	require.ErrorAs(t, err, &denied)

	_, err = callStatic(t, vmInstance, "Object", "defineProperty", vm.IntegerValue(1), vm.NewString("p"), desc)
	assert.Error(t, err)
}

func TestFunctionPrototypeCall(t *testing.T) {
	vmInstance := newRuntime(t)
	toString, err := vmInstance.Get(vmInstance.Realm().ErrorPrototype, "toString")
	require.NoError(t, err)
	call, err := vmInstance.Get(toString, "call")
	require.NoError(t, err)

	receiver := vmInstance.NewObject(vm.Undefined)
	receiver.AsPlainObject().SetOwn("name", vm.NewString("Custom"))
	res, err := vmInstance.Call(call, toString, []vm.Value{receiver})
	require.NoError(t, err)
	assert.Equal(t, "Custom", res.AsString())

	s, err := vmInstance.ToText(toString)
	require.NoError(t, err)
	assert.Equal(t, "function toString() { [native code] }", s)
}
