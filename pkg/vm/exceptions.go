package vm

import (
	"errors"
	"fmt"

	"go.uber.org/zap"
)

// ArgumentTypeError reports a value that is not object-like where an
// object receiver is required.
type ArgumentTypeError struct {
	Op    string
	Value Value
}

func (e *ArgumentTypeError) Error() string {
	return fmt.Sprintf("%s: invalid argument %s", e.Op, describeValue(e.Value))
}

// RedefinitionDeniedError reports a rejected property definition: the object
// is not extensible, or the existing property is locked.
type RedefinitionDeniedError struct {
	Key    PropertyKey
	Object *PlainObject
}

func (e *RedefinitionDeniedError) Error() string {
	return fmt.Sprintf("Cannot define property %s, object is not extensible", e.Key)
}

// CoercionError reports a failed conversion of Value to text. Err holds the
// failure raised while converting, if any.
type CoercionError struct {
	Value Value
	Err   error
}

func (e *CoercionError) Error() string {
	if e.Value.IsSymbol() {
		return "Cannot convert a Symbol value to a string"
	}
	if e.Err != nil {
		return fmt.Sprintf("Cannot convert %s to a string: %v", e.Value.Type(), e.Err)
	}
	return fmt.Sprintf("Cannot convert %s to a string", e.Value.Type())
}

func (e *CoercionError) Unwrap() error { return e.Err }

var errNoPrimitive = errors.New("Cannot convert object to primitive value")

// Exception carries a thrown script value out of native code.
type Exception struct {
	value Value
	cause error
}

// NewException wraps a thrown value.
func NewException(value Value) *Exception {
	return &Exception{value: value}
}

func (e *Exception) Value() Value { return e.value }

func (e *Exception) Unwrap() error { return e.cause }

func (e *Exception) Error() string {
	if !e.value.IsObject() {
		return e.value.ToString()
	}
	o := e.value.AsPlainObject()
	return joinNameMessage(inheritedString(o, "name", "Error"), inheritedString(o, "message", ""))
}

// inheritedString reads a string data property through the prototype chain
// without running getters. Used where no VM is at hand.
func inheritedString(o *PlainObject, name, def string) string {
	key := NewStringKey(name)
	for o != nil {
		if v, ok := o.GetOwnByKey(key); ok {
			if v.IsString() {
				return v.AsString()
			}
			return def
		}
		if !o.prototype.IsObject() {
			break
		}
		o = o.prototype.AsPlainObject()
	}
	return def
}

func describeValue(v Value) string {
	switch v.typ {
	case TypeString:
		return fmt.Sprintf("%q", v.AsString())
	case TypeUndefined, TypeNull:
		return v.ToString()
	default:
		return fmt.Sprintf("%s (%s)", v.ToString(), v.Type())
	}
}

// NewTypeError constructs a TypeError exception error for builtin helpers to return
func (vm *VM) NewTypeError(message string) error {
	return vm.newNativeError("TypeError", message, nil)
}

func (vm *VM) newNativeError(name, message string, cause error) error {
	if ctor, ok := vm.realm.NativeErrors[name]; ok {
		errObj, err := vm.Construct(ctor, Undefined, []Value{NewString(message)})
		if err == nil {
			return &Exception{value: errObj, cause: cause}
		}
	}
	// Fallback generic error object
	obj := NewPlainObject(vm.shapes.root, vm.realm.ErrorPrototype)
	obj.SetOwnNonEnumerable("name", NewString(name))
	obj.SetOwnNonEnumerable("message", NewString(message))
	obj.MarkError()
	return &Exception{value: NewValueFromPlainObject(obj), cause: cause}
}

// stackOverflowError builds the RangeError for a full frame stack. Running
// the RangeError constructor would need a frame itself, so the object is
// assembled here from RangeError.prototype.
func (vm *VM) stackOverflowError() error {
	proto := vm.realm.ErrorPrototype
	if ctor, ok := vm.realm.NativeErrors["RangeError"]; ok {
		if p, ok := ctor.AsPlainObject().GetOwn("prototype"); ok && p.IsObject() {
			proto = p
		}
	}
	obj := NewPlainObject(vm.shapes.root, proto)
	if !proto.IsObject() {
		obj.SetOwnNonEnumerable("name", NewString("RangeError"))
	}
	obj.SetOwnNonEnumerable("message", NewString("Maximum call stack size exceeded"))
	obj.MarkError()

	// a getter run while formatting the header would overflow again
	if !vm.bootstrapping && !vm.overflowing {
		vm.overflowing = true
		if err := vm.InstallStackAccessor(obj); err == nil {
			vm.CaptureDetailedStackTrace(obj, Undefined)
			if err := vm.CaptureSimpleStackTrace(obj, Undefined); err != nil {
				vm.logger.Debug("stack overflow trace not formatted", zap.Error(err))
			}
		}
		vm.overflowing = false
	}
	return &Exception{value: NewValueFromPlainObject(obj)}
}

// Throwable converts an engine error into the exception a script observes.
// Exceptions pass through unchanged, including ones wrapped by a
// CoercionError; engine error kinds become TypeErrors that unwrap to them.
func (vm *VM) Throwable(err error) error {
	if err == nil {
		return nil
	}
	var exc *Exception
	if errors.As(err, &exc) {
		return exc
	}
	return vm.newNativeError("TypeError", err.Error(), err)
}
