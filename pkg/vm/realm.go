package vm

// Realm holds the global object and the intrinsics builtins register.
type Realm struct {
	// Global environment. Scripts see GlobalProxy; properties live on GlobalObject.
	GlobalObject *PlainObject
	GlobalProxy  *PlainObject

	// Built-in prototypes
	ObjectPrototype   Value
	FunctionPrototype Value
	ErrorPrototype    Value

	// Constructors (cached for error creation)
	ErrorConstructor Value
	NativeErrors     map[string]Value // TypeError, RangeError, ... by name
}

func newRealm(tree *ShapeTree) *Realm {
	objectProto := NewPlainObject(tree.root, Null)
	global := NewPlainObject(tree.root, NewValueFromPlainObject(objectProto))
	return &Realm{
		GlobalObject:      global,
		GlobalProxy:       NewGlobalProxy(global),
		ObjectPrototype:   NewValueFromPlainObject(objectProto),
		FunctionPrototype: Null,
		ErrorPrototype:    Null,
		ErrorConstructor:  Undefined,
		NativeErrors:      make(map[string]Value),
	}
}
