package typesafe

import (
	"errors"
	"fmt"
	"io"
	"reflect"
	"runtime"
	"strings"
)

const maxStackDepth = 32

var internalFramePrefix = reflect.TypeOf(CallSite{}).PkgPath() + "."

// CallSite is a snapshot of the goroutine stack, without frames of this package.
type CallSite struct {
	pcs []uintptr
}

func captureCallSite() *CallSite {
	pcs := make([]uintptr, maxStackDepth)
	n := runtime.Callers(2, pcs)

	return &CallSite{pcs: pcs[:n]}
}

// Frames resolves the captured program counters.
func (c *CallSite) Frames() []runtime.Frame {
	if c == nil || len(c.pcs) == 0 {
		return nil
	}

	var out []runtime.Frame
	frames := runtime.CallersFrames(c.pcs)
	for {
		frame, more := frames.Next()
		if !strings.HasPrefix(frame.Function, internalFramePrefix) && frame.Function != "" {
			out = append(out, frame)
		}
		if !more {
			break
		}
	}

	return out
}

// String renders the stack one frame per two lines, like a panic trace.
func (c *CallSite) String() string {
	var b strings.Builder
	for _, frame := range c.Frames() {
		fmt.Fprintf(&b, "%s\n\t%s:%d\n", frame.Function, frame.File, frame.Line)
	}

	return b.String()
}

// AnnotatedError is the error a guarded call returns.
// It keeps the original error reachable through Unwrap and adds where the guarded function was
// defined (Created) and where the failing call happened (Occurred).
type AnnotatedError struct {
	err      error
	fnName   string
	created  *CallSite
	occurred *CallSite
}

// annotate returns err enriched with both call sites.
// An error already annotated by the same wrapper is returned unchanged.
func annotate(err error, fnName string, created *CallSite) *AnnotatedError {
	var annotated *AnnotatedError
	if errors.As(err, &annotated) && annotated.created == created {
		return annotated
	}

	return &AnnotatedError{
		err:      err,
		fnName:   fnName,
		created:  created,
		occurred: captureCallSite(),
	}
}

func (e *AnnotatedError) Error() string {
	return e.err.Error()
}

func (e *AnnotatedError) Unwrap() error {
	return e.err
}

// Function returns the name of the guarded function that failed.
func (e *AnnotatedError) Function() string {
	return e.fnName
}

// Created returns the stack captured when the guarded function was built.
func (e *AnnotatedError) Created() *CallSite {
	return e.created
}

// Occurred returns the stack captured when the call failed.
func (e *AnnotatedError) Occurred() *CallSite {
	return e.occurred
}

// TraceValidatorResult returns the validation result of a rejected input or output, or nil.
func (e *AnnotatedError) TraceValidatorResult() *ValidationResult {
	var validationErr *ValidationError
	if errors.As(e.err, &validationErr) {
		return validationErr.Result
	}

	return nil
}

// Format implements fmt.Formatter. %+v prints both stacks.
func (e *AnnotatedError) Format(s fmt.State, verb rune) {
	switch verb {
	case 'v':
		if s.Flag('+') {
			_, _ = io.WriteString(s, e.err.Error())
			_, _ = io.WriteString(s, "\nstacktrace on occurred:\n")
			_, _ = io.WriteString(s, e.occurred.String())
			_, _ = io.WriteString(s, "stacktrace on created:\n")
			_, _ = io.WriteString(s, e.created.String())
			return
		}
		_, _ = io.WriteString(s, e.Error())
	case 's':
		_, _ = io.WriteString(s, e.Error())
	case 'q':
		_, _ = fmt.Fprintf(s, "%q", e.Error())
	default:
		_, _ = io.WriteString(s, e.Error())
	}
}
