package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/hashicorp/go-multierror"

	"github.com/nooga/hiddenclass/pkg/vm"
)

// parseFrame reads "fn@file:line:col". The function name may be empty
// ("@file:1:1"); text without "@" is a function name with no location.
func parseFrame(spec string) (vm.StackFrame, error) {
	at := strings.LastIndex(spec, "@")
	if at < 0 {
		if spec == "" {
			return vm.StackFrame{}, fmt.Errorf("empty frame")
		}
		return vm.StackFrame{FunctionName: spec}, nil
	}
	frame := vm.StackFrame{FunctionName: spec[:at]}
	loc := spec[at+1:]

	parts := strings.Split(loc, ":")
	if len(parts) < 3 {
		return vm.StackFrame{}, fmt.Errorf("frame %q: want fn@file:line:col", spec)
	}
	n := len(parts)
	line, err := strconv.Atoi(parts[n-2])
	if err != nil || line < 1 {
		return vm.StackFrame{}, fmt.Errorf("frame %q: bad line %q", spec, parts[n-2])
	}
	col, err := strconv.Atoi(parts[n-1])
	if err != nil || col < 1 {
		return vm.StackFrame{}, fmt.Errorf("frame %q: bad column %q", spec, parts[n-1])
	}
	frame.FileName = strings.Join(parts[:n-2], ":")
	if frame.FileName == "" {
		return vm.StackFrame{}, fmt.Errorf("frame %q: missing file", spec)
	}
	frame.Line = line
	frame.Column = col
	return frame, nil
}

// parseFrames parses every frame and reports all malformed ones at once.
func parseFrames(specs []string) ([]vm.StackFrame, error) {
	var result *multierror.Error
	frames := make([]vm.StackFrame, 0, len(specs))
	for _, spec := range specs {
		f, err := parseFrame(spec)
		if err != nil {
			result = multierror.Append(result, err)
			continue
		}
		frames = append(frames, f)
	}
	if err := result.ErrorOrNil(); err != nil {
		return nil, fmt.Errorf("%w: %v", errUsage, err)
	}
	return frames, nil
}
