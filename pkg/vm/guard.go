package vm

// ResolveReceiver follows a global proxy's hidden-prototype link to the global
// object that owns the properties. Any other object is returned as is.
func ResolveReceiver(o *PlainObject) *PlainObject {
	if o.class == ClassGlobalProxy && o.hiddenPrototype && o.prototype.IsObject() {
		return o.prototype.AsPlainObject()
	}
	return o
}

// CanInsertNonConfigurable reports whether key may be forcibly (re)defined on o.
// It fails when o is not extensible, or when o owns key with a descriptor that is
// not both configurable and writable. Accessors have no writable attribute and so
// always block. The check runs against the resolved receiver.
func CanInsertNonConfigurable(o *PlainObject, key PropertyKey) bool {
	o = ResolveReceiver(o)
	if !o.extensible {
		return false
	}
	if _, d, ok := o.shape.Lookup(key); ok {
		if !d.Attrs.IsConfigurable() || !d.Attrs.IsWritable() {
			return false
		}
	}
	return true
}
