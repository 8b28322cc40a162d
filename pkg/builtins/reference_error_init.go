package builtins

// ReferenceErrorInitializer implements the ReferenceError constructor
type ReferenceErrorInitializer struct{}

func (e *ReferenceErrorInitializer) Name() string {
	return "ReferenceError"
}

func (e *ReferenceErrorInitializer) Priority() int {
	return PriorityNativeError
}

func (e *ReferenceErrorInitializer) InitRuntime(ctx *RuntimeContext) error {
	return initErrorSubclass(ctx, "ReferenceError")
}
