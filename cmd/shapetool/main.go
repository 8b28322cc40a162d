package main

import (
	"errors"
	"fmt"
	"os"
)

// errUsage marks command line mistakes; they exit with 64 like other usage errors.
var errUsage = errors.New("usage error")

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "%s\n", red(err.Error()))
		if errors.Is(err, errUsage) {
			os.Exit(64) // Exit code 64: command line usage error
		}
		os.Exit(70) // Exit code 70: internal software error
	}
}
