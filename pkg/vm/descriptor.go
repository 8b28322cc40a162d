package vm

import (
	"fmt"
	"strings"
)

type KeyKind uint8

const (
	KeyKindString KeyKind = iota
	KeyKindSymbol
)

// PropertyKey represents a property key which can be a string or a symbol.
// Keys are comparable; symbol keys compare by identity.
type PropertyKey struct {
	kind   KeyKind
	name   string        // for string keys
	symbol *SymbolObject // for symbol keys
}

// NewStringKey constructs a PropertyKey for string-named properties.
func NewStringKey(name string) PropertyKey {
	return PropertyKey{kind: KeyKindString, name: name}
}

// NewSymbolKey constructs a PropertyKey for symbol-named properties.
func NewSymbolKey(sym Value) PropertyKey {
	return PropertyKey{kind: KeyKindSymbol, symbol: (*SymbolObject)(sym.obj)}
}

func (k PropertyKey) IsString() bool { return k.kind == KeyKindString }
func (k PropertyKey) IsSymbol() bool { return k.kind == KeyKindSymbol }

// Name returns the string name of a string key, or "" for symbols.
func (k PropertyKey) Name() string { return k.name }

func (k PropertyKey) String() string {
	if k.kind == KeyKindSymbol {
		return fmt.Sprintf("Symbol(%s)", k.symbol.value)
	}
	return k.name
}

// Attrs is the attribute set of a property.
type Attrs uint8

const (
	Writable Attrs = 1 << iota
	Enumerable
	Configurable
)

const (
	AttrsNone     Attrs = 0
	AttrsDefault        = Writable | Enumerable | Configurable
	// AttrsDontEnum matches builtin methods and Error message properties.
	AttrsDontEnum = Writable | Configurable
)

func (a Attrs) IsWritable() bool     { return a&Writable != 0 }
func (a Attrs) IsEnumerable() bool   { return a&Enumerable != 0 }
func (a Attrs) IsConfigurable() bool { return a&Configurable != 0 }

// String renders attributes V8-style, e.g. "w_c" for writable, non-enumerable, configurable.
func (a Attrs) String() string {
	var b strings.Builder
	flag := func(set bool, c byte) {
		if set {
			b.WriteByte(c)
		} else {
			b.WriteByte('_')
		}
	}
	flag(a.IsWritable(), 'w')
	flag(a.IsEnumerable(), 'e')
	flag(a.IsConfigurable(), 'c')
	return b.String()
}

type DescriptorKind uint8

const (
	DataKind DescriptorKind = iota
	AccessorKind
)

func (k DescriptorKind) String() string {
	if k == AccessorKind {
		return "accessor"
	}
	return "data"
}

// Descriptor is the layout metadata of one property as recorded in a Shape.
// It is comparable and doubles as the transition key.
type Descriptor struct {
	Key   PropertyKey
	Kind  DescriptorKind
	Attrs Attrs
}

func DataDescriptor(key PropertyKey, attrs Attrs) Descriptor {
	return Descriptor{Key: key, Kind: DataKind, Attrs: attrs}
}

// AccessorDescriptor builds an accessor descriptor. Writable has no meaning for
// accessors and is dropped so equal accessors share transitions.
func AccessorDescriptor(key PropertyKey, attrs Attrs) Descriptor {
	return Descriptor{Key: key, Kind: AccessorKind, Attrs: attrs &^ Writable}
}

func (d Descriptor) IsAccessor() bool { return d.Kind == AccessorKind }

func (d Descriptor) String() string {
	if d.Kind == AccessorKind {
		return fmt.Sprintf("%s:accessor(%s)", d.Key, d.Attrs)
	}
	return fmt.Sprintf("%s:%s", d.Key, d.Attrs)
}

// AccessorPair is stored in the property slot of an accessor property.
type AccessorPair struct {
	Getter Value
	Setter Value
}

// PropertyDescriptor is the resolved view of one own property: its layout
// descriptor plus whatever the object stores for it.
type PropertyDescriptor struct {
	Kind   DescriptorKind
	Attrs  Attrs
	Value  Value
	Getter Value
	Setter Value
}

func (p PropertyDescriptor) Writable() bool     { return p.Attrs.IsWritable() }
func (p PropertyDescriptor) Enumerable() bool   { return p.Attrs.IsEnumerable() }
func (p PropertyDescriptor) Configurable() bool { return p.Attrs.IsConfigurable() }
