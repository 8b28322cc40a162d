package builtins

import (
	"math"

	"github.com/nooga/hiddenclass/pkg/vm"
)

type GlobalsInitializer struct{}

func (g *GlobalsInitializer) Name() string {
	return "Globals"
}

func (g *GlobalsInitializer) Priority() int {
	return PriorityGlobals
}

func (g *GlobalsInitializer) InitRuntime(ctx *RuntimeContext) error {
	realm := ctx.VM.Realm()
	global := realm.GlobalObject

	// Value properties of the global object are read-only and locked
	constants := []struct {
		name  string
		value vm.Value
	}{
		{"undefined", vm.Undefined},
		{"NaN", vm.NaN},
		{"Infinity", vm.NumberValue(math.Inf(1))},
	}
	for _, c := range constants {
		if err := global.DefineOwnProperty(c.name, c.value, vm.AttrsNone); err != nil {
			return err
		}
	}

	// Scripts reach the global object through its proxy
	return ctx.DefineGlobal("globalThis", vm.NewValueFromPlainObject(realm.GlobalProxy))
}
