package vm

import "unsafe"

// NativeFn is the Go implementation behind a native function. The receiver
// and new.target of the active call are available through VM.GetThis and
// VM.GetNewTarget.
type NativeFn func(args []Value) (Value, error)

// NativeFunctionObject represents a native Go function callable from scripts.
// It embeds the PlainObject holding its own properties.
type NativeFunctionObject struct {
	PlainObject
	Arity         int
	Variadic      bool
	Name          string
	Fn            NativeFn
	IsConstructor bool
}

// NewNativeFunction creates a callable with Function.prototype as prototype
// and the standard "length" and "name" own properties.
func (vm *VM) NewNativeFunction(arity int, variadic bool, name string, fn NativeFn) Value {
	return vm.newNativeFunction(arity, variadic, name, fn, false)
}

// NewConstructor is NewNativeFunction for functions that accept `new`.
func (vm *VM) NewConstructor(arity int, variadic bool, name string, fn NativeFn) Value {
	return vm.newNativeFunction(arity, variadic, name, fn, true)
}

func (vm *VM) newNativeFunction(arity int, variadic bool, name string, fn NativeFn, ctor bool) Value {
	nf := &NativeFunctionObject{
		Arity:         arity,
		Variadic:      variadic,
		Name:          name,
		Fn:            fn,
		IsConstructor: ctor,
	}
	proto := vm.realm.FunctionPrototype
	if !proto.IsObject() {
		proto = Null
	}
	nf.PlainObject = PlainObject{shape: vm.shapes.root, prototype: proto, extensible: true}
	length := int32(arity)
	if length < 0 {
		length = 0
	}
	nf.PlainObject.insert(DataDescriptor(NewStringKey("length"), Configurable), IntegerValue(length))
	nf.PlainObject.insert(DataDescriptor(NewStringKey("name"), Configurable), NewString(name))
	return Value{typ: TypeNativeFunction, obj: unsafe.Pointer(nf)}
}
