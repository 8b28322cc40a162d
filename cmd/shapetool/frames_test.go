package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nooga/hiddenclass/pkg/vm"
)

func TestParseFrame(t *testing.T) {
	tests := []struct {
		spec string
		want vm.StackFrame
	}{
		{"main@app.js:1:2", vm.StackFrame{FunctionName: "main", FileName: "app.js", Line: 1, Column: 2}},
		{"@app.js:3:4", vm.StackFrame{FileName: "app.js", Line: 3, Column: 4}},
		{"load@C:/src/lib.js:10:5", vm.StackFrame{FunctionName: "load", FileName: "C:/src/lib.js", Line: 10, Column: 5}},
		{"a@b@x.js:7:8", vm.StackFrame{FunctionName: "a@b", FileName: "x.js", Line: 7, Column: 8}},
		{"JSON.parse", vm.StackFrame{FunctionName: "JSON.parse"}},
	}
	for _, tt := range tests {
		t.Run(tt.spec, func(t *testing.T) {
			got, err := parseFrame(tt.spec)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseFrameErrors(t *testing.T) {
	for _, spec := range []string{"", "f@app.js", "f@app.js:x:1", "f@app.js:1:0", "f@:1:1"} {
		_, err := parseFrame(spec)
		assert.Error(t, err, spec)
	}
}

func TestParseFramesCollectsAllErrors(t *testing.T) {
	_, err := parseFrames([]string{"f@a.js:1", "ok@a.js:1:1", "g@b.js:0:1"})
	require.ErrorIs(t, err, errUsage)
	assert.Contains(t, err.Error(), `"f@a.js:1"`)
	assert.Contains(t, err.Error(), `"g@b.js:0:1"`)

	frames, err := parseFrames([]string{"inner@a.js:1:1", "outer@b.js:2:2"})
	require.NoError(t, err)
	require.Len(t, frames, 2)
	assert.Equal(t, "inner", frames[0].FunctionName)
}
