package vm

import (
	"bytes"
	"strconv"
	"time"

	"github.com/dlclark/regexp2"
)

// StackFrame is one captured activation.
type StackFrame struct {
	FunctionName string
	FileName     string
	Line         int
	Column       int
	// Function identifies native frames; caller boundaries match against it.
	Function *NativeFunctionObject
}

// Write renders the frame without the leading "at ".
func (f *StackFrame) Write(b *bytes.Buffer) {
	if f.FileName == "" {
		if f.FunctionName != "" {
			b.WriteString(f.FunctionName)
			b.WriteString(" (native)")
		} else {
			b.WriteString("native")
		}
		return
	}
	if f.FunctionName != "" {
		b.WriteString(f.FunctionName)
		b.WriteString(" (")
	}
	b.WriteString(f.FileName)
	b.WriteByte(':')
	b.WriteString(strconv.Itoa(f.Line))
	b.WriteByte(':')
	b.WriteString(strconv.Itoa(f.Column))
	if f.FunctionName != "" {
		b.WriteByte(')')
	}
}

func (f StackFrame) String() string {
	var b bytes.Buffer
	f.Write(&b)
	return b.String()
}

// FrameFormatter turns captured frames into the text of a stack trace.
type FrameFormatter interface {
	Format(header string, frames []StackFrame) string
}

// hideMatchTimeout bounds a single frame-name match.
const hideMatchTimeout = 100 * time.Millisecond

// V8Formatter renders "header\n    at fn (file:line:col)..." and can hide
// frames by function name.
type V8Formatter struct {
	hide *regexp2.Regexp
}

// NewV8Formatter compiles hidePattern; an empty pattern hides nothing.
func NewV8Formatter(hidePattern string) (*V8Formatter, error) {
	f := &V8Formatter{}
	if hidePattern == "" {
		return f, nil
	}
	re, err := regexp2.Compile(hidePattern, regexp2.None)
	if err != nil {
		return nil, err
	}
	re.MatchTimeout = hideMatchTimeout
	f.hide = re
	return f, nil
}

func (f *V8Formatter) Format(header string, frames []StackFrame) string {
	var b bytes.Buffer
	b.WriteString(header)
	for i := range frames {
		if f.hidden(&frames[i]) {
			continue
		}
		b.WriteString("\n    at ")
		frames[i].Write(&b)
	}
	return b.String()
}

func (f *V8Formatter) hidden(frame *StackFrame) bool {
	if f.hide == nil {
		return false
	}
	ok, err := f.hide.MatchString(frame.FunctionName)
	return err == nil && ok
}
