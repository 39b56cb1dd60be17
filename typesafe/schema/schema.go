package schema

import (
	"fmt"
	"reflect"
	"strings"
)

// Validator is the contract every schema engine has to satisfy to guard a function.
type Validator interface {
	Validate(value any) bool
}

// Tracer is implemented by validators which can explain a rejection.
// It is only consulted after Validate returned false.
type Tracer interface {
	Trace(value any) []Issue
}

// Issue describes one reason a value was rejected.
// Path is empty for the value itself, "[i]" for the i-th element of a list, or a JSON pointer
// for validators built on JSON documents.
type Issue struct {
	Path    string `json:"path"`
	Message string `json:"message"`
}

// String renders the Issue as "path: message".
func (i Issue) String() string {
	if i.Path == "" {
		return i.Message
	}

	return i.Path + ": " + i.Message
}

// ValidatorFunc adapts a plain predicate to a Validator.
type ValidatorFunc func(value any) bool

// Validate implements Validator.
func (f ValidatorFunc) Validate(value any) bool {
	return f(value)
}

// TraceOf explains why v rejects value.
// It returns nil if v accepts value. Validators without a Tracer, or with a Tracer that returns
// nothing, yield a single generic Issue at the root.
func TraceOf(v Validator, value any) []Issue {
	if v == nil || v.Validate(value) {
		return nil
	}

	if tracer, ok := v.(Tracer); ok {
		if issues := tracer.Trace(value); len(issues) > 0 {
			return issues
		}
	}

	return []Issue{{Message: Mismatch(value, v)}}
}

// Name returns a human-readable name of v.
func Name(v Validator) string {
	if v == nil {
		return "<nil>"
	}

	if s, ok := v.(fmt.Stringer); ok {
		return s.String()
	}

	return fmt.Sprintf("%T", v)
}

// Mismatch renders the generic "value does not satisfy validator" message.
func Mismatch(value any, v Validator) string {
	return fmt.Sprintf("%s does not satisfy %s", Render(value), Name(v))
}

// Render formats a value together with its dynamic type for diagnostics.
func Render(value any) string {
	switch x := value.(type) {
	case nil:
		return "nil"
	case string:
		return fmt.Sprintf("%q (string)", x)
	default:
		return fmt.Sprintf("%v (%T)", x, x)
	}
}

func prefixIssues(prefix string, issues []Issue) []Issue {
	out := make([]Issue, 0, len(issues))
	for _, issue := range issues {
		out = append(out, Issue{Path: prefix + issue.Path, Message: issue.Message})
	}

	return out
}

func isList(value any) bool {
	if value == nil {
		return false
	}

	kind := reflect.TypeOf(value).Kind()

	return kind == reflect.Slice || kind == reflect.Array
}

func listElements(value any) []any {
	if list, ok := value.([]any); ok {
		return list
	}

	rv := reflect.ValueOf(value)
	out := make([]any, rv.Len())
	for i := range out {
		out[i] = rv.Index(i).Interface()
	}

	return out
}

func joinNames(vs []Validator) string {
	names := make([]string, 0, len(vs))
	for _, v := range vs {
		names = append(names, Name(v))
	}

	return strings.Join(names, ", ")
}
