package vm

import (
	"fmt"
	"sort"
	"strconv"

	"go.uber.org/zap"
)

type ObjectClass uint8

const (
	ClassOrdinary ObjectClass = iota
	ClassGlobalObject
	ClassGlobalProxy
)

type PlainObject struct {
	shape      *Shape
	prototype  Value
	properties []Value // laid out by shape; accessor slots hold an AccessorPair
	// Extensible flag - when false, no new properties can be added
	extensible bool
	class      ObjectClass
	// Set on a global proxy whose prototype is the global object that
	// actually stores the properties.
	hiddenPrototype bool
	// Set on objects built by an error constructor; Error.isError checks it.
	errorData bool
	stack     *StackTraceState
}

// NewPlainObject creates an empty, extensible object at root.
// A non-object proto yields a null prototype.
func NewPlainObject(root *Shape, proto Value) *PlainObject {
	if !proto.IsObject() {
		proto = Null
	}
	return &PlainObject{shape: root, prototype: proto, extensible: true}
}

// NewGlobalProxy marks target as a global object and returns the proxy
// clients hold on to. The proxy owns no properties of its own.
func NewGlobalProxy(target *PlainObject) *PlainObject {
	target.class = ClassGlobalObject
	return &PlainObject{
		shape:           target.shape.tree.root,
		prototype:       NewValueFromPlainObject(target),
		extensible:      true,
		class:           ClassGlobalProxy,
		hiddenPrototype: true,
	}
}

func (o *PlainObject) Shape() *Shape            { return o.shape }
func (o *PlainObject) Class() ObjectClass       { return o.class }
func (o *PlainObject) IsGlobalProxy() bool      { return o.class == ClassGlobalProxy }
func (o *PlainObject) HasHiddenPrototype() bool { return o.hiddenPrototype }

// MarkError brands o as an error instance.
func (o *PlainObject) MarkError() { o.errorData = true }

// IsError reports whether o was created by an error constructor. The
// prototype chain plays no part.
func (o *PlainObject) IsError() bool { return o.errorData }

// StackTrace returns the captured stack state, or nil if nothing was captured.
func (o *PlainObject) StackTrace() *StackTraceState { return o.stack }

// MigrateObject moves o onto next, which must extend o's current shape.
// Existing slot values keep their positions; new slots start undefined.
// The old shape is left untouched for every other object using it.
func MigrateObject(o *PlainObject, next *Shape) {
	if next.Len() < o.shape.Len() {
		panic(fmt.Sprintf("vm: cannot migrate from shape #%d to smaller shape #%d", o.shape.id, next.id))
	}
	props := make([]Value, next.Len())
	n := copy(props, o.properties)
	for i := n; i < len(props); i++ {
		props[i] = Undefined
	}
	if debugShapes {
		debugf("migrate object %p: shape #%d -> #%d", o, o.shape.id, next.id)
	}
	o.properties = props
	o.shape = next
}

// GetOwnProperty returns the full descriptor of an own property.
func (o *PlainObject) GetOwnProperty(key PropertyKey) (PropertyDescriptor, bool) {
	i, d, ok := o.shape.Lookup(key)
	if !ok {
		return PropertyDescriptor{}, false
	}
	pd := PropertyDescriptor{Kind: d.Kind, Attrs: d.Attrs, Value: Undefined, Getter: Undefined, Setter: Undefined}
	if d.IsAccessor() {
		pair := o.properties[i].AsAccessor()
		pd.Getter, pd.Setter = pair.Getter, pair.Setter
	} else {
		pd.Value = o.properties[i]
	}
	return pd, true
}

// GetOwn looks up a direct (own) property by name. Returns (value, true) if present.
// Accessor properties report Undefined; use VM.GetProperty to run getters.
func (o *PlainObject) GetOwn(name string) (Value, bool) {
	return o.GetOwnByKey(NewStringKey(name))
}

// GetOwnByKey looks up a direct (own) property by key.
func (o *PlainObject) GetOwnByKey(key PropertyKey) (Value, bool) {
	i, d, ok := o.shape.Lookup(key)
	if !ok {
		return Undefined, false
	}
	if d.IsAccessor() {
		return Undefined, true
	}
	return o.properties[i], true
}

// HasOwn reports whether an own property with the given name exists.
func (o *PlainObject) HasOwn(name string) bool {
	return o.HasOwnByKey(NewStringKey(name))
}

func (o *PlainObject) HasOwnByKey(key PropertyKey) bool {
	_, _, ok := o.shape.Lookup(key)
	return ok
}

// GetPrototype returns the object's prototype.
func (o *PlainObject) GetPrototype() Value {
	return o.prototype
}

// SetPrototype sets the object's prototype.
// Returns false if the object is non-extensible and the prototype would change.
func (o *PlainObject) SetPrototype(proto Value) bool {
	if proto.Is(o.prototype) {
		return true
	}
	if !o.extensible {
		return false
	}
	if !proto.IsObject() {
		proto = Null
	}
	o.prototype = proto
	return true
}

// IsExtensible returns whether new properties can be added to this object
func (o *PlainObject) IsExtensible() bool {
	return o.extensible
}

// PreventExtensions clears the extensible flag. It cannot be set back.
func (o *PlainObject) PreventExtensions() {
	o.extensible = false
}

// Freeze makes every own property non-configurable (and data properties
// non-writable), then prevents extensions.
func (o *PlainObject) Freeze() {
	descs := o.shape.Descriptors()
	changed := false
	for i, d := range descs {
		locked := d.Attrs &^ Configurable
		if !d.IsAccessor() {
			locked &^= Writable
		}
		if locked != d.Attrs {
			descs[i].Attrs = locked
			changed = true
		}
	}
	if changed {
		o.replay(descs, o.properties)
	}
	o.extensible = false
}

// SetOwn performs a plain data assignment of an own property.
// Non-writable properties, accessors and additions to a non-extensible
// object are silently ignored; VM.SetProperty runs setters.
func (o *PlainObject) SetOwn(name string, v Value) {
	o.setOwn(NewStringKey(name), v, AttrsDefault)
}

// SetOwnNonEnumerable is SetOwn for builtin members: a new property is
// created writable, non-enumerable and configurable.
func (o *PlainObject) SetOwnNonEnumerable(name string, v Value) {
	o.setOwn(NewStringKey(name), v, AttrsDontEnum)
}

func (o *PlainObject) setOwn(key PropertyKey, v Value, attrs Attrs) {
	if i, d, ok := o.shape.Lookup(key); ok {
		if !d.IsAccessor() && d.Attrs.IsWritable() {
			o.properties[i] = v
		}
		return
	}
	if !o.extensible {
		return
	}
	o.insert(DataDescriptor(key, attrs), v)
}

// DefineOwnProperty defines or updates a data property with explicit attributes.
func (o *PlainObject) DefineOwnProperty(name string, value Value, attrs Attrs) error {
	return o.DefineOwnPropertyByKey(NewStringKey(name), value, attrs)
}

// DefineOwnPropertyByKey defines or updates a data property. A locked
// existing property only accepts a same-or-narrower redefinition.
func (o *PlainObject) DefineOwnPropertyByKey(key PropertyKey, value Value, attrs Attrs) error {
	i, d, ok := o.shape.Lookup(key)
	if !ok {
		if !o.extensible {
			return &RedefinitionDeniedError{Key: key, Object: o}
		}
		o.insert(DataDescriptor(key, attrs), value)
		return nil
	}
	if !d.Attrs.IsConfigurable() {
		if d.IsAccessor() ||
			attrs&^Writable != d.Attrs&^Writable ||
			(attrs.IsWritable() && !d.Attrs.IsWritable()) ||
			(!d.Attrs.IsWritable() && !o.properties[i].Is(value)) {
			return &RedefinitionDeniedError{Key: key, Object: o}
		}
	}
	if nd := DataDescriptor(key, attrs); nd != d {
		o.reconfigure(i, nd)
	}
	o.properties[i] = value
	return nil
}

// DefineAccessorProperty defines or updates an accessor property.
func (o *PlainObject) DefineAccessorProperty(name string, getter, setter Value, attrs Attrs) error {
	return o.DefineAccessorPropertyByKey(NewStringKey(name), getter, setter, attrs)
}

// DefineAccessorPropertyByKey defines or updates an accessor property for arbitrary key kinds.
func (o *PlainObject) DefineAccessorPropertyByKey(key PropertyKey, getter, setter Value, attrs Attrs) error {
	pair := NewAccessor(getter, setter)
	i, d, ok := o.shape.Lookup(key)
	if !ok {
		if !o.extensible {
			return &RedefinitionDeniedError{Key: key, Object: o}
		}
		o.insert(AccessorDescriptor(key, attrs), pair)
		return nil
	}
	nd := AccessorDescriptor(key, attrs)
	if !d.Attrs.IsConfigurable() {
		if nd != d {
			return &RedefinitionDeniedError{Key: key, Object: o}
		}
		cur := o.properties[i].AsAccessor()
		if !cur.Getter.Is(getter) || !cur.Setter.Is(setter) {
			return &RedefinitionDeniedError{Key: key, Object: o}
		}
		return nil
	}
	if nd != d {
		o.reconfigure(i, nd)
	}
	o.properties[i] = pair
	return nil
}

// DeleteOwn removes an own property if present and configurable.
// Returns true if the property is gone afterwards.
func (o *PlainObject) DeleteOwn(name string) bool {
	return o.DeleteOwnByKey(NewStringKey(name))
}

func (o *PlainObject) DeleteOwnByKey(key PropertyKey) bool {
	i, d, ok := o.shape.Lookup(key)
	if !ok {
		return true
	}
	if !d.Attrs.IsConfigurable() {
		return false
	}
	descs := o.shape.Descriptors()
	descs = append(descs[:i], descs[i+1:]...)
	values := make([]Value, 0, len(o.properties)-1)
	values = append(values, o.properties[:i]...)
	values = append(values, o.properties[i+1:]...)
	o.replay(descs, values)
	return true
}

// OwnKeys returns the enumerable string keys in insertion order.
func (o *PlainObject) OwnKeys() []string {
	keys := make([]string, 0, o.shape.Len())
	for _, f := range o.shape.fields {
		if f.Key.IsString() && f.Attrs.IsEnumerable() {
			keys = append(keys, f.Key.name)
		}
	}
	return keys
}

// OwnPropertyNames returns all own string keys: integer indices in ascending
// order first, then the rest in insertion order.
func (o *PlainObject) OwnPropertyNames() []string {
	var indices []int
	var names []string
	for _, f := range o.shape.fields {
		if !f.Key.IsString() {
			continue
		}
		if idx, ok := tryParseArrayIndex(f.Key.name); ok {
			indices = append(indices, idx)
		} else {
			names = append(names, f.Key.name)
		}
	}
	sort.Ints(indices)
	result := make([]string, 0, len(indices)+len(names))
	for _, idx := range indices {
		result = append(result, strconv.Itoa(idx))
	}
	return append(result, names...)
}

// tryParseArrayIndex checks if a string represents a valid array index.
// Valid array indices are non-negative integers in range [0, 2^32-1) without leading zeros.
func tryParseArrayIndex(key string) (int, bool) {
	if key == "" || (len(key) > 1 && key[0] == '0') {
		return 0, false
	}
	idx := 0
	for _, ch := range key {
		if ch < '0' || ch > '9' {
			return 0, false
		}
		idx = idx*10 + int(ch-'0')
		if idx > 4294967294 {
			return 0, false
		}
	}
	return idx, true
}

// insert appends d through the transition engine and stores v in its slot.
func (o *PlainObject) insert(d Descriptor, v Value) {
	next, err := InsertDescriptor(o.shape, d)
	if err != nil {
		panic(err) // callers look the key up first
	}
	MigrateObject(o, next)
	o.properties[next.Len()-1] = v
}

// reconfigure swaps the descriptor at slot i. Published shapes are never
// edited: the layout is rebuilt from the root with the replacement in place.
func (o *PlainObject) reconfigure(i int, nd Descriptor) {
	descs := o.shape.Descriptors()
	descs[i] = nd
	o.replay(descs, o.properties)
}

// replay rebuilds o's shape by inserting descs one by one from the root, so
// objects that end up with the same layout share the same shape.
func (o *PlainObject) replay(descs []Descriptor, values []Value) {
	tree := o.shape.tree
	cur := tree.root
	for _, d := range descs {
		next, err := InsertDescriptor(cur, d)
		if err != nil {
			panic(err)
		}
		cur = next
	}
	tree.logger.Debug("object relaid out",
		zap.Uint64("from", o.shape.id),
		zap.Uint64("to", cur.id))
	o.shape = cur
	o.properties = values
}
