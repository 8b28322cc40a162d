package builtins

// SyntaxErrorInitializer implements the SyntaxError constructor
type SyntaxErrorInitializer struct{}

func (e *SyntaxErrorInitializer) Name() string {
	return "SyntaxError"
}

func (e *SyntaxErrorInitializer) Priority() int {
	return PriorityNativeError
}

func (e *SyntaxErrorInitializer) InitRuntime(ctx *RuntimeContext) error {
	return initErrorSubclass(ctx, "SyntaxError")
}
