package builtins

// TypeErrorInitializer implements the TypeError constructor
type TypeErrorInitializer struct{}

func (e *TypeErrorInitializer) Name() string {
	return "TypeError"
}

func (e *TypeErrorInitializer) Priority() int {
	return PriorityNativeError
}

func (e *TypeErrorInitializer) InitRuntime(ctx *RuntimeContext) error {
	return initErrorSubclass(ctx, "TypeError")
}
