package builtins

import (
	"fmt"
	"sort"

	"github.com/hashicorp/go-multierror"
	"go.uber.org/zap"

	"github.com/nooga/hiddenclass/pkg/vm"
)

// BuiltinInitializer is implemented by each builtin module
type BuiltinInitializer interface {
	// Name returns the module name (e.g., "Object", "Error", "TypeError")
	Name() string

	// Priority returns initialization order (lower = earlier)
	Priority() int

	// InitRuntime creates runtime values for the VM
	InitRuntime(ctx *RuntimeContext) error
}

// RuntimeContext provides everything needed for runtime initialization
type RuntimeContext struct {
	// The VM instance
	VM *vm.VM

	// Define a global value
	DefineGlobal func(name string, value vm.Value) error

	// Get built-in prototypes (set as initializers run)
	ObjectPrototype   vm.Value
	FunctionPrototype vm.Value
	ErrorPrototype    vm.Value
}

// Priority constants for initialization order
const (
	PriorityFunction    = 0   // Function.prototype first: every native function inherits from it
	PriorityObject      = 1   // Object constructor and Object.prototype methods
	PriorityError       = 20  // Error constructor and Error.prototype
	PriorityNativeError = 22  // TypeError, RangeError, ... (inherit from Error)
	PriorityGlobals     = 100 // globalThis and global constants
)

// InitializeRuntime runs the initializers in priority order inside the VM's
// bootstrap phase. Every failure is collected; the VM is unusable if any
// initializer fails.
func InitializeRuntime(vmInstance *vm.VM, initializers []BuiltinInitializer) error {
	sorted := make([]BuiltinInitializer, len(initializers))
	copy(sorted, initializers)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Priority() < sorted[j].Priority()
	})

	vmInstance.BeginBootstrap()
	defer vmInstance.EndBootstrap()

	l := vmInstance.Logger()
	realm := vmInstance.Realm()
	ctx := &RuntimeContext{
		VM: vmInstance,
		DefineGlobal: func(name string, value vm.Value) error {
			if _, exists := vmInstance.GetGlobal(name); exists {
				return fmt.Errorf("global %q already defined", name)
			}
			vmInstance.SetGlobal(name, value)
			return nil
		},
	}

	var result *multierror.Error
	for _, init := range sorted {
		ctx.ObjectPrototype = realm.ObjectPrototype
		ctx.FunctionPrototype = realm.FunctionPrototype
		ctx.ErrorPrototype = realm.ErrorPrototype
		if err := init.InitRuntime(ctx); err != nil {
			l.Error("builtin initialization failed", zap.String("builtin", init.Name()), zap.Error(err))
			result = multierror.Append(result, fmt.Errorf("%s: %w", init.Name(), err))
			continue
		}
		l.Debug("builtin initialized", zap.String("builtin", init.Name()), zap.Int("priority", init.Priority()))
	}
	return result.ErrorOrNil()
}

// argOrUndefined returns args[i], or undefined when the call passed fewer arguments.
func argOrUndefined(args []vm.Value, i int) vm.Value {
	if i < len(args) {
		return args[i]
	}
	return vm.Undefined
}
