package vm

import "strconv"

// ToText implements ECMAScript ToString. Symbols and objects that cannot be
// converted to a primitive fail with a *CoercionError.
func (vm *VM) ToText(v Value) (string, error) {
	switch v.typ {
	case TypeString:
		return v.AsString(), nil
	case TypeSymbol:
		return "", &CoercionError{Value: v}
	case TypeIntegerNumber:
		return strconv.FormatInt(int64(v.AsInteger()), 10), nil
	case TypeFloatNumber, TypeBoolean, TypeUndefined, TypeNull:
		return v.ToString(), nil
	case TypeObject, TypeNativeFunction:
		prim, err := vm.ToPrimitive(v)
		if err != nil {
			return "", &CoercionError{Value: v, Err: err}
		}
		return vm.ToText(prim)
	default:
		return "", &CoercionError{Value: v}
	}
}

// ToPrimitive converts an object with hint "string": toString first, then valueOf.
func (vm *VM) ToPrimitive(v Value) (Value, error) {
	if !v.IsObject() {
		return v, nil
	}
	for _, name := range [...]string{"toString", "valueOf"} {
		method, err := vm.Get(v, name)
		if err != nil {
			return Undefined, err
		}
		if !method.IsCallable() {
			continue
		}
		result, err := vm.Call(method, v, nil)
		if err != nil {
			return Undefined, err
		}
		if !result.IsObject() {
			return result, nil
		}
	}
	return Undefined, errNoPrimitive
}

// GetPropertyOrDefault reads key from receiver and converts it to text;
// an undefined result yields def.
func (vm *VM) GetPropertyOrDefault(receiver Value, key PropertyKey, def string) (string, error) {
	v, err := vm.GetProperty(receiver, key)
	if err != nil {
		return "", err
	}
	return vm.textOrDefault(v, def)
}

func (vm *VM) textOrDefault(v Value, def string) (string, error) {
	if v.IsUndefined() {
		return def, nil
	}
	return vm.ToText(v)
}

// ToDisplayString renders an error-like object the way Error.prototype.toString does.
func (vm *VM) ToDisplayString(receiver Value) (string, error) {
	if !receiver.IsObject() {
		return "", &ArgumentTypeError{Op: "Error.prototype.toString", Value: receiver}
	}
	nameVal, err := vm.getPropertyCached(vm.propSite("display.name", nameKey), receiver)
	if err != nil {
		return "", err
	}
	name, err := vm.textOrDefault(nameVal, "Error")
	if err != nil {
		return "", err
	}
	msgVal, err := vm.getPropertyCached(vm.propSite("display.message", messageKey), receiver)
	if err != nil {
		return "", err
	}
	msg, err := vm.textOrDefault(msgVal, "")
	if err != nil {
		return "", err
	}
	return joinNameMessage(name, msg), nil
}

func joinNameMessage(name, msg string) string {
	if name == "" {
		return msg
	}
	if msg == "" {
		return name
	}
	return name + ": " + msg
}
