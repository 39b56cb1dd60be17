package typesafe

import (
	"fmt"
	"strings"
	"sync"

	jsoniter "github.com/json-iterator/go"

	"github.com/kombucha-js/runtime-typesafety/typesafe/schema"
)

// Interface aliases so callers of this package rarely need to import schema directly.

// Validator checks a single value.
type Validator = schema.Validator

// Tracer explains a rejection.
type Tracer = schema.Tracer

// Issue is one reason of a rejection.
type Issue = schema.Issue

// ValidatorFactory produces the Validator used for one call.
// Factories are called once per invocation, never at wrap time.
type ValidatorFactory func() Validator

// AlwaysPass is the factory used when no validator factory is configured.
// It yields no validator, so the call skips both validation and sanitization for that side.
func AlwaysPass() Validator {
	return nil
}

// ValidationResult is the outcome of applying a Validator to a value.
// The report is computed lazily on first access and rendering never panics,
// even for validators that panic while tracing.
type ValidationResult struct {
	validator Validator
	value     any
	passed    bool
	panicked  any

	once   sync.Once
	issues []Issue
	name   string
}

// Trace applies v to value in single-value mode.
func Trace(v Validator, value any) *ValidationResult {
	result := &ValidationResult{validator: v, value: value}
	result.passed, result.panicked = safeValidate(v, value)

	return result
}

// TraceArguments applies v to a call's argument list.
// The list passes if v accepts it as a whole or if every argument satisfies v, so validators may be
// written either per argument or for the full list.
func TraceArguments(v Validator, args []any) *ValidationResult {
	if args == nil {
		args = []any{}
	}

	return Trace(argumentList(v), args)
}

func argumentList(v Validator) Validator {
	return schema.Either(v, schema.ArrayOf(v))
}

func safeValidate(v Validator, value any) (passed bool, panicked any) {
	if v == nil {
		return true, nil
	}

	defer func() {
		if r := recover(); r != nil {
			passed, panicked = false, r
		}
	}()

	return v.Validate(value), nil
}

// Passed reports whether the validator accepted the value.
func (r *ValidationResult) Passed() bool {
	return r.passed
}

// Value returns the validated value.
func (r *ValidationResult) Value() any {
	return r.value
}

// Validator returns the validator that produced this result.
func (r *ValidationResult) Validator() Validator {
	return r.validator
}

// Issues returns the reasons for the rejection, or nil if the value passed.
func (r *ValidationResult) Issues() []Issue {
	r.render()

	return append([]Issue(nil), r.issues...)
}

// Report renders a human-readable description of the failure.
// It is empty when the value passed.
func (r *ValidationResult) Report() string {
	if r.passed {
		return ""
	}

	r.render()

	var b strings.Builder
	fmt.Fprintf(&b, "%s does not satisfy %s", schema.Render(r.value), r.name)
	for _, issue := range r.issues {
		b.WriteString("\n  - ")
		b.WriteString(issue.String())
	}

	return b.String()
}

func (r *ValidationResult) render() {
	r.once.Do(func() {
		r.name = safeName(r.validator)

		if r.passed {
			return
		}

		if r.panicked != nil {
			r.issues = []Issue{{Message: fmt.Sprintf("validator panicked: %v", r.panicked)}}
			return
		}

		r.issues = safeTrace(r.validator, r.value)
	})
}

func safeName(v Validator) (name string) {
	defer func() {
		if rec := recover(); rec != nil {
			name = fmt.Sprintf("%T", v)
		}
	}()

	return schema.Name(v)
}

func safeTrace(v Validator, value any) (issues []Issue) {
	defer func() {
		if rec := recover(); rec != nil {
			issues = []Issue{{Message: fmt.Sprintf("validator panicked while tracing: %v", rec)}}
		}
	}()

	return schema.TraceOf(v, value)
}

// MarshalJSON renders the result for structured logs and transport.
func (r *ValidationResult) MarshalJSON() ([]byte, error) {
	r.render()

	return jsoniter.ConfigCompatibleWithStandardLibrary.Marshal(struct {
		Pass      bool    `json:"pass"`
		Validator string  `json:"validator"`
		Issues    []Issue `json:"issues,omitempty"`
	}{
		Pass:      r.passed,
		Validator: r.name,
		Issues:    r.issues,
	})
}

// ValidationError is returned when a guarded call's arguments or result are rejected.
// errors.Is matches ErrInputValidation or ErrOutputValidation, and ErrTypeMismatch for both.
type ValidationError struct {
	Stage  Stage
	Result *ValidationResult
}

func (e *ValidationError) Error() string {
	return e.Unwrap().Error() + "\n" + e.Result.Report()
}

func (e *ValidationError) Unwrap() error {
	if e.Stage == StageOutput {
		return ErrOutputValidation
	}

	return ErrInputValidation
}
