package vm

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pushScriptFrames(t *testing.T, vm *VM, frames ...StackFrame) {
	t.Helper()
	for _, f := range frames {
		require.NoError(t, vm.PushFrame(f))
	}
	t.Cleanup(func() {
		for range frames {
			vm.PopFrame()
		}
	})
}

func readStack(t *testing.T, vm *VM, obj Value) string {
	t.Helper()
	v, err := vm.Get(obj, "stack")
	require.NoError(t, err)
	require.True(t, v.IsString(), "stack is %v", v)
	return v.AsString()
}

func errorLike(vm *VM, name, message string) Value {
	obj := vm.NewObject(Undefined)
	obj.AsPlainObject().SetOwnNonEnumerable("name", NewString(name))
	obj.AsPlainObject().SetOwnNonEnumerable("message", NewString(message))
	return obj
}

var scriptFrames = []StackFrame{
	{FunctionName: "main", FileName: "app.js", Line: 1, Column: 1},
	{FunctionName: "load", FileName: "lib.js", Line: 20, Column: 3},
	{FunctionName: "parse", FileName: "lib.js", Line: 42, Column: 9},
}

func TestStackFrameWrite(t *testing.T) {
	tests := []struct {
		frame StackFrame
		want  string
	}{
		{StackFrame{FunctionName: "f", FileName: "a.js", Line: 1, Column: 2}, "f (a.js:1:2)"},
		{StackFrame{FileName: "a.js", Line: 3, Column: 4}, "a.js:3:4"},
		{StackFrame{FunctionName: "push"}, "push (native)"},
		{StackFrame{}, "native"},
	}
	for _, tt := range tests {
		var b bytes.Buffer
		tt.frame.Write(&b)
		assert.Equal(t, tt.want, b.String())
		assert.Equal(t, tt.want, tt.frame.String())
	}
}

func TestV8FormatterHidesFrames(t *testing.T) {
	f, err := NewV8Formatter(`^(load|internal\.)`)
	require.NoError(t, err)
	frames := []StackFrame{
		{FunctionName: "parse", FileName: "lib.js", Line: 42, Column: 9},
		{FunctionName: "internal.tick", FileName: "rt.js", Line: 1, Column: 1},
		{FunctionName: "load", FileName: "lib.js", Line: 20, Column: 3},
		{FunctionName: "main", FileName: "app.js", Line: 1, Column: 1},
	}
	assert.Equal(t, "Error: x\n    at parse (lib.js:42:9)\n    at main (app.js:1:1)", f.Format("Error: x", frames))

	_, err = NewV8Formatter(`(unclosed`)
	assert.Error(t, err)

	_, err = New(Options{HideFrames: `(unclosed`})
	assert.Error(t, err)
}

func TestCaptureFramesWithoutBoundary(t *testing.T) {
	vm := NewVM()
	pushScriptFrames(t, vm, scriptFrames...)

	// script frames on top are all kept
	frames := vm.captureFrames(nil)
	require.Len(t, frames, 3)
	assert.Equal(t, "parse", frames[0].FunctionName)
	assert.Equal(t, "main", frames[2].FunctionName)

	// the native builtin running the capture is skipped
	var captured []StackFrame
	capture := vm.NewNativeFunction(0, false, "capture", func(args []Value) (Value, error) {
		captured = vm.captureFrames(nil)
		return Undefined, nil
	})
	_, err := vm.Call(capture, Undefined, nil)
	require.NoError(t, err)
	assert.Equal(t, frames, captured)
}

func TestCaptureFramesWithBoundary(t *testing.T) {
	vm := NewVM()
	pushScriptFrames(t, vm, scriptFrames[:2]...)

	var captured []StackFrame
	var outer, inner, unrelated Value
	unrelated = vm.NewNativeFunction(0, false, "unrelated", nil)
	inner = vm.NewNativeFunction(0, false, "inner", func(args []Value) (Value, error) {
		boundary := args[0].AsNativeFunction()
		captured = vm.captureFrames(boundary)
		return Undefined, nil
	})
	outer = vm.NewNativeFunction(1, false, "outer", func(args []Value) (Value, error) {
		require.NoError(t, vm.PushFrame(StackFrame{FunctionName: "callback", FileName: "cb.js", Line: 7, Column: 1}))
		defer vm.PopFrame()
		return vm.Call(inner, Undefined, args)
	})

	_, err := vm.Call(outer, Undefined, []Value{outer})
	require.NoError(t, err)
	require.Len(t, captured, 2)
	assert.Equal(t, "load", captured[0].FunctionName)
	assert.Equal(t, "main", captured[1].FunctionName)

	_, err = vm.Call(outer, Undefined, []Value{inner})
	require.NoError(t, err)
	require.Len(t, captured, 4)
	assert.Equal(t, "callback", captured[0].FunctionName)
	assert.Equal(t, "outer", captured[1].FunctionName)

	// a boundary that is not on the stack leaves nothing
	_, err = vm.Call(outer, Undefined, []Value{unrelated})
	require.NoError(t, err)
	assert.Empty(t, captured)
}

func TestStackTraceLimit(t *testing.T) {
	vm, err := New(Options{StackTraceLimit: 2})
	require.NoError(t, err)
	assert.Equal(t, 2, vm.StackTraceLimit())
	pushScriptFrames(t, vm, scriptFrames...)
	assert.Len(t, vm.captureFrames(nil), 2)

	ctor := vm.NewConstructor(1, false, "Error", nil)
	vm.Realm().ErrorConstructor = ctor
	limits := []struct {
		value Value
		want  int
	}{
		{IntegerValue(1), 1},
		{NumberValue(2.7), 2},
		{IntegerValue(-3), 0},
		{NaN, 0},
		{NewString("5"), 0},
		{NumberValue(1e9), MaxFrames},
	}
	for _, l := range limits {
		ctor.AsPlainObject().SetOwn("stackTraceLimit", l.value)
		assert.Equal(t, l.want, vm.StackTraceLimit(), "limit %v", l.value)
	}

	require.True(t, ctor.AsPlainObject().DeleteOwn("stackTraceLimit"))
	assert.Equal(t, 2, vm.StackTraceLimit())

	ctor.AsPlainObject().SetOwn("stackTraceLimit", IntegerValue(0))
	assert.Empty(t, vm.captureFrames(nil))
}

func TestForceInstallStackCapture(t *testing.T) {
	vm := NewVM()
	pushScriptFrames(t, vm, scriptFrames...)
	obj := errorLike(vm, "Error", "boom")
	before := obj.AsPlainObject().Shape()

	require.NoError(t, vm.ForceInstallStackCapture(obj, Undefined))

	po := obj.AsPlainObject()
	assert.Same(t, before, po.Shape().Parent())
	pd, ok := po.GetOwnProperty(stackKey)
	require.True(t, ok)
	assert.Equal(t, AccessorKind, pd.Kind)
	assert.Equal(t, Configurable, pd.Attrs)

	want := "Error: boom\n    at parse (lib.js:42:9)\n    at load (lib.js:20:3)\n    at main (app.js:1:1)"
	simple, ok := po.StackTrace().Simple()
	require.True(t, ok)
	assert.Equal(t, want, simple)
	assert.Len(t, po.StackTrace().SimpleFrames(), 3)
	assert.Equal(t, want, readStack(t, vm, obj))
}

func TestForceInstallStackCaptureTwiceReusesAccessor(t *testing.T) {
	vm := NewVM()
	obj := errorLike(vm, "Error", "again")
	require.NoError(t, vm.ForceInstallStackCapture(obj, Undefined))
	shape := obj.AsPlainObject().Shape()
	created := vm.Shapes().Stats().Created
	first := obj.AsPlainObject().StackTrace().Detailed()

	pushScriptFrames(t, vm, scriptFrames[0])
	require.NoError(t, vm.ForceInstallStackCapture(obj, Undefined))

	assert.Same(t, shape, obj.AsPlainObject().Shape())
	assert.Equal(t, created, vm.Shapes().Stats().Created)
	assert.NotSame(t, first, obj.AsPlainObject().StackTrace().Detailed())
	assert.Equal(t, "Error: again\n    at main (app.js:1:1)", readStack(t, vm, obj))
}

func TestForceInstallStackCaptureCallerHidesFrames(t *testing.T) {
	vm := NewVM()
	pushScriptFrames(t, vm, scriptFrames[0])

	obj := errorLike(vm, "Error", "")
	var helper Value
	helper = vm.NewNativeFunction(0, false, "helper", func(args []Value) (Value, error) {
		return Undefined, vm.ForceInstallStackCapture(obj, helper)
	})
	_, err := vm.Call(helper, Undefined, nil)
	require.NoError(t, err)

	want := "Error\n    at main (app.js:1:1)"
	simple, ok := obj.AsPlainObject().StackTrace().Simple()
	require.True(t, ok)
	assert.Equal(t, want, simple)
	assert.Equal(t, want, readStack(t, vm, obj))

	// a caller that is not on the stack hides every frame
	other := errorLike(vm, "Error", "")
	unrelated := vm.NewNativeFunction(0, false, "unrelated", nil)
	require.NoError(t, vm.ForceInstallStackCapture(other, unrelated))
	simple, ok = other.AsPlainObject().StackTrace().Simple()
	require.True(t, ok)
	assert.Equal(t, "Error", simple)
	assert.Equal(t, "Error", readStack(t, vm, other))
	assert.Empty(t, other.AsPlainObject().StackTrace().Detailed().Frames())
}

func TestForceInstallStackCaptureDenied(t *testing.T) {
	vm := NewVM()

	t.Run("not an object", func(t *testing.T) {
		for _, v := range []Value{Undefined, Null, IntegerValue(1), NewString("s"), NewSymbol("s")} {
			err := vm.ForceInstallStackCapture(v, Undefined)
			var argErr *ArgumentTypeError
			require.ErrorAs(t, err, &argErr)
			assert.Equal(t, "Error.captureStackTrace", argErr.Op)
		}
	})

	t.Run("not extensible", func(t *testing.T) {
		obj := errorLike(vm, "Error", "x")
		obj.AsPlainObject().PreventExtensions()
		shape := obj.AsPlainObject().Shape()

		err := vm.ForceInstallStackCapture(obj, Undefined)
		var denied *RedefinitionDeniedError
		require.ErrorAs(t, err, &denied)
		assert.Equal(t, stackKey, denied.Key)
		assert.Same(t, shape, obj.AsPlainObject().Shape())
		assert.Nil(t, obj.AsPlainObject().StackTrace())
	})

	t.Run("installed then sealed", func(t *testing.T) {
		obj := errorLike(vm, "Error", "x")
		require.NoError(t, vm.ForceInstallStackCapture(obj, Undefined))
		obj.AsPlainObject().PreventExtensions()

		err := vm.ForceInstallStackCapture(obj, Undefined)
		var denied *RedefinitionDeniedError
		assert.ErrorAs(t, err, &denied)
	})

	t.Run("foreign accessor", func(t *testing.T) {
		obj := errorLike(vm, "Error", "x")
		getter := vm.NewNativeFunction(0, false, "stack", func(args []Value) (Value, error) {
			return NewString("mine"), nil
		})
		require.NoError(t, obj.AsPlainObject().DefineAccessorProperty("stack", getter, Undefined, Configurable))

		err := vm.ForceInstallStackCapture(obj, Undefined)
		var denied *RedefinitionDeniedError
		require.ErrorAs(t, err, &denied)
		assert.Equal(t, "mine", readStack(t, vm, obj))
	})
}

func TestForceInstallStackCaptureReplacesDataProperty(t *testing.T) {
	vm := NewVM()
	obj := errorLike(vm, "Error", "x")
	require.NoError(t, obj.AsPlainObject().DefineOwnProperty("stack", NewString("old"), AttrsDontEnum))

	require.NoError(t, vm.ForceInstallStackCapture(obj, Undefined))
	pd, ok := obj.AsPlainObject().GetOwnProperty(stackKey)
	require.True(t, ok)
	assert.Equal(t, AccessorKind, pd.Kind)
	assert.Equal(t, "Error: x", readStack(t, vm, obj))
}

func TestForceInstallStackCaptureGlobalProxy(t *testing.T) {
	vm := NewVM()
	proxy := NewValueFromPlainObject(vm.Realm().GlobalProxy)

	require.NoError(t, vm.ForceInstallStackCapture(proxy, Undefined))
	assert.False(t, vm.Realm().GlobalProxy.HasOwnByKey(stackKey))
	assert.True(t, vm.Realm().GlobalObject.HasOwnByKey(stackKey))
	assert.NotNil(t, vm.Realm().GlobalObject.StackTrace())
	assert.Equal(t, "Error", readStack(t, vm, proxy))
}

func TestDetailedTraceFormatsOnce(t *testing.T) {
	vm := NewVM()
	pushScriptFrames(t, vm, scriptFrames[0])
	obj := errorLike(vm, "Error", "first")
	require.NoError(t, vm.ForceInstallStackCapture(obj, Undefined))

	detailed := obj.AsPlainObject().StackTrace().Detailed()
	require.False(t, detailed.IsFormatted())
	require.Len(t, detailed.Frames(), 1)

	assert.Equal(t, "Error: first\n    at main (app.js:1:1)", readStack(t, vm, obj))
	assert.True(t, detailed.IsFormatted())

	obj.AsPlainObject().SetOwn("message", NewString("second"))
	detailed.Clear()
	assert.Nil(t, detailed.Frames())
	assert.Equal(t, "Error: first\n    at main (app.js:1:1)", readStack(t, vm, obj))
}

func TestDetailedTraceFormatFailureRetries(t *testing.T) {
	vm := NewVM()
	obj := errorLike(vm, "Error", "x")
	require.NoError(t, vm.ForceInstallStackCapture(obj, Undefined))

	// a throwing name getter fails the read and leaves the trace unformatted
	fail := true
	thrown := NewString("name exploded")
	getter := vm.NewNativeFunction(0, false, "name", func(args []Value) (Value, error) {
		if fail {
			return Undefined, NewException(thrown)
		}
		return NewString("Late"), nil
	})
	require.NoError(t, obj.AsPlainObject().DefineAccessorProperty("name", getter, Undefined, Configurable))

	_, err := vm.Get(obj, "stack")
	var exc *Exception
	require.ErrorAs(t, err, &exc)
	assert.True(t, exc.Value().Is(thrown))
	assert.False(t, obj.AsPlainObject().StackTrace().Detailed().IsFormatted())

	fail = false
	assert.Equal(t, "Late: x", readStack(t, vm, obj))
}

func TestStackGetterUsesPrototypeChain(t *testing.T) {
	vm := NewVM()
	parent := errorLike(vm, "Error", "parent")
	require.NoError(t, vm.ForceInstallStackCapture(parent, Undefined))

	child := vm.NewObject(parent)
	assert.Equal(t, "Error: parent", readStack(t, vm, child))

	plain := vm.NewObject(Undefined)
	getter, _ := vm.stackAccessors()
	v, err := vm.Call(getter, plain, nil)
	require.NoError(t, err)
	assert.True(t, v.IsUndefined())
	v, err = vm.Call(getter, IntegerValue(1), nil)
	require.NoError(t, err)
	assert.True(t, v.IsUndefined())
}

func TestStackSetterDefinesDataProperty(t *testing.T) {
	vm := NewVM()
	obj := errorLike(vm, "Error", "x")
	require.NoError(t, vm.ForceInstallStackCapture(obj, Undefined))

	require.NoError(t, vm.SetProperty(obj, stackKey, IntegerValue(7)))
	pd, ok := obj.AsPlainObject().GetOwnProperty(stackKey)
	require.True(t, ok)
	assert.Equal(t, DataKind, pd.Kind)
	assert.Equal(t, AttrsDontEnum, pd.Attrs)
	assert.EqualValues(t, 7, pd.Value.AsInteger())

	// a child assigning through the inherited accessor gets its own property
	parent := errorLike(vm, "Error", "p")
	require.NoError(t, vm.ForceInstallStackCapture(parent, Undefined))
	child := vm.NewObject(parent)
	require.NoError(t, vm.SetProperty(child, stackKey, NewString("own")))
	assert.True(t, child.AsPlainObject().HasOwnByKey(stackKey))
	assert.Equal(t, "Error: p", readStack(t, vm, parent))
}

func TestCaptureSimpleStackTraceCoercionFailure(t *testing.T) {
	vm := NewVM()
	obj := vm.NewObject(Undefined)
	obj.AsPlainObject().SetOwn("name", NewSymbol("bad"))

	err := vm.CaptureSimpleStackTrace(obj.AsPlainObject(), Undefined)
	var coerceErr *CoercionError
	require.True(t, errors.As(err, &coerceErr))
	assert.Nil(t, obj.AsPlainObject().StackTrace())
}
