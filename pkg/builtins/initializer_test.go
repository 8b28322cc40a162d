package builtins

import (
	"errors"
	"testing"

	"github.com/hashicorp/go-multierror"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nooga/hiddenclass/pkg/vm"
)

func newRuntime(t *testing.T) *vm.VM {
	t.Helper()
	vmInstance := vm.NewVM()
	require.NoError(t, InitializeRuntime(vmInstance, GetStandardInitializers()))
	return vmInstance
}

func mustGlobal(t *testing.T, vmInstance *vm.VM, name string) vm.Value {
	t.Helper()
	v, ok := vmInstance.GetGlobal(name)
	require.True(t, ok, "global %s", name)
	return v
}

type failingInitializer struct {
	name string
	err  error
}

func (f *failingInitializer) Name() string                        { return f.name }
func (f *failingInitializer) Priority() int                       { return 50 }
func (f *failingInitializer) InitRuntime(ctx *RuntimeContext) error { return f.err }

func TestStandardInitializersSorted(t *testing.T) {
	inits := GetStandardInitializers()
	require.NotEmpty(t, inits)
	assert.Equal(t, "Function", inits[0].Name())
	for i := 1; i < len(inits); i++ {
		assert.LessOrEqual(t, inits[i-1].Priority(), inits[i].Priority())
	}
}

func TestInitializeRuntimeCollectsErrors(t *testing.T) {
	vmInstance := vm.NewVM()
	errA := errors.New("a failed")
	errB := errors.New("b failed")
	inits := append(GetStandardInitializers(),
		&failingInitializer{name: "A", err: errA},
		&failingInitializer{name: "B", err: errB},
	)

	err := InitializeRuntime(vmInstance, inits)
	require.Error(t, err)

	var merr *multierror.Error
	require.ErrorAs(t, err, &merr)
	assert.Len(t, merr.Errors, 2)
	assert.ErrorIs(t, err, errA)
	assert.ErrorIs(t, err, errB)
	assert.False(t, vmInstance.IsBootstrapping())
}

func TestDefineGlobalRejectsDuplicates(t *testing.T) {
	vmInstance := vm.NewVM()
	inits := []BuiltinInitializer{&FunctionInitializer{}, &ObjectInitializer{}, &ObjectInitializer{}}

	err := InitializeRuntime(vmInstance, inits)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `global "Object" already defined`)
}

func TestRealmIntrinsicsRegistered(t *testing.T) {
	vmInstance := newRuntime(t)
	realm := vmInstance.Realm()

	assert.True(t, realm.FunctionPrototype.IsCallable())
	assert.True(t, realm.ErrorPrototype.IsObject())
	assert.True(t, realm.ErrorConstructor.Is(mustGlobal(t, vmInstance, "Error")))
	for _, name := range []string{"TypeError", "RangeError", "ReferenceError", "SyntaxError", "EvalError", "URIError"} {
		ctor, ok := realm.NativeErrors[name]
		require.True(t, ok, name)
		assert.True(t, ctor.Is(mustGlobal(t, vmInstance, name)), name)
	}

	globalThis := mustGlobal(t, vmInstance, "globalThis")
	assert.True(t, globalThis.AsPlainObject().IsGlobalProxy())
}

func TestGlobalConstantsLocked(t *testing.T) {
	vmInstance := newRuntime(t)

	pd, ok := vmInstance.Realm().GlobalObject.GetOwnProperty(vm.NewStringKey("undefined"))
	require.True(t, ok)
	assert.False(t, pd.Writable())
	assert.False(t, pd.Configurable())
	assert.False(t, vmInstance.Realm().GlobalObject.DeleteOwn("NaN"))
}
