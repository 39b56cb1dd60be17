// Package sanitize provides the default undefined-value sanitizer for guarded functions.
//
// Go has no "undefined"; the closest equivalent in dynamically shaped values is a nil entry in a
// map[string]any. Guarded functions sanitize only values their validator already accepted, so
// StripUndefined normalizes nil map entries to absent keys (recursively through maps and []any)
// when the validator still accepts the stripped value, and reports each removal as a Violation.
// It only runs for a side that declares a validator. Typed structs are left untouched.
package sanitize

import (
	"fmt"
	"sort"
)

// ReasonStripped is the Violation reason for a removed nil map entry.
const ReasonStripped = "undefined value stripped"

// Validator is the subset of schema.Validator the sanitizer relies on.
type Validator interface {
	Validate(value any) bool
}

// Violation describes one undefined value found while sanitizing.
type Violation struct {
	Path   string
	Reason string
}

func (v Violation) String() string {
	return fmt.Sprintf("%s: %s", v.Path, v.Reason)
}

// StripUndefined is the default sanitizer.
type StripUndefined struct{}

// Sanitize returns value with nil map entries removed.
// A nil validator means no sanitization. If the validator rejects the stripped value, the original is
// returned unchanged and nothing is reported.
func (StripUndefined) Sanitize(value any, validator Validator, onViolation func(Violation)) any {
	if validator == nil {
		return value
	}

	var violations []Violation
	stripped := strip(value, "", &violations)
	if len(violations) == 0 {
		return value
	}

	if !validator.Validate(stripped) {
		return value
	}

	if onViolation != nil {
		for _, violation := range violations {
			onViolation(violation)
		}
	}

	return stripped
}

func strip(value any, path string, violations *[]Violation) any {
	switch x := value.(type) {
	case map[string]any:
		keys := make([]string, 0, len(x))
		for k := range x {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		out := make(map[string]any, len(x))
		for _, k := range keys {
			childPath := path + "/" + k
			if x[k] == nil {
				*violations = append(*violations, Violation{Path: childPath, Reason: ReasonStripped})
				continue
			}
			out[k] = strip(x[k], childPath, violations)
		}

		return out

	case []any:
		out := make([]any, len(x))
		for i, elem := range x {
			out[i] = strip(elem, fmt.Sprintf("%s[%d]", path, i), violations)
		}

		return out

	default:
		return value
	}
}

// Func adapts a function to the sanitizer contract of guarded functions.
type Func func(value any, validator Validator, onViolation func(Violation)) any

// Sanitize calls f.
func (f Func) Sanitize(value any, validator Validator, onViolation func(Violation)) any {
	return f(value, validator, onViolation)
}

// None never changes a value.
var None = Func(func(value any, _ Validator, _ func(Violation)) any { return value })
