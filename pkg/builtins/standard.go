package builtins

import "sort"

// GetStandardInitializers returns all built-in initializers sorted by priority
func GetStandardInitializers() []BuiltinInitializer {
	var initializers []BuiltinInitializer

	// Core builtins
	initializers = append(initializers, &FunctionInitializer{})
	initializers = append(initializers, &ObjectInitializer{})

	// Errors
	initializers = append(initializers, &ErrorInitializer{})
	initializers = append(initializers, &TypeErrorInitializer{})
	initializers = append(initializers, &RangeErrorInitializer{})
	initializers = append(initializers, &ReferenceErrorInitializer{})
	initializers = append(initializers, &SyntaxErrorInitializer{})
	initializers = append(initializers, &EvalErrorInitializer{})
	initializers = append(initializers, &URIErrorInitializer{})

	// Global constants and globalThis
	initializers = append(initializers, &GlobalsInitializer{})

	// Sort by priority (lower numbers first)
	sort.SliceStable(initializers, func(i, j int) bool {
		return initializers[i].Priority() < initializers[j].Priority()
	})

	return initializers
}
