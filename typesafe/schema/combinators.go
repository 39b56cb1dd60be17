package schema

import (
	"fmt"
	"reflect"
)

type described struct {
	name  string
	check func(value any) bool
	trace func(value any) []Issue
}

func (d described) Validate(value any) bool { return d.check(value) }

func (d described) String() string { return d.name }

func (d described) Trace(value any) []Issue {
	if d.trace == nil {
		return nil
	}

	return d.trace(value)
}

// Func builds a named Validator from a predicate.
func Func(name string, check func(value any) bool) Validator {
	return described{name: name, check: check}
}

// Describe renames v in reports while keeping its checks and traces.
func Describe(name string, v Validator) Validator {
	return described{
		name:  name,
		check: v.Validate,
		trace: func(value any) []Issue { return TraceOf(v, value) },
	}
}

// Any accepts every value. It is the default for absent input and output validators.
func Any() Validator {
	return described{name: "any()", check: func(any) bool { return true }}
}

// Nil accepts only nil.
func Nil() Validator {
	return described{name: "nil()", check: func(value any) bool { return value == nil }}
}

// Optional accepts nil or whatever v accepts.
func Optional(v Validator) Validator {
	return Describe(fmt.Sprintf("optional(%s)", Name(v)), Either(Nil(), v))
}

// Number accepts all Go integer and floating point kinds.
func Number() Validator {
	return described{name: "number()", check: func(value any) bool {
		if value == nil {
			return false
		}

		switch reflect.TypeOf(value).Kind() {
		case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
			reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
			reflect.Float32, reflect.Float64:
			return true
		default:
			return false
		}
	}}
}

// String accepts values of string kind.
func String() Validator {
	return described{name: "string()", check: func(value any) bool {
		return value != nil && reflect.TypeOf(value).Kind() == reflect.String
	}}
}

// Bool accepts values of bool kind.
func Bool() Validator {
	return described{name: "bool()", check: func(value any) bool {
		return value != nil && reflect.TypeOf(value).Kind() == reflect.Bool
	}}
}

// Type accepts values whose dynamic type is assignable to T.
func Type[T any]() Validator {
	var zero *T

	return described{
		name: fmt.Sprintf("type(%s)", reflect.TypeOf(zero).Elem()),
		check: func(value any) bool {
			_, ok := value.(T)
			return ok
		},
	}
}

// Array accepts any slice or array regardless of its elements.
func Array() Validator {
	return described{name: "array()", check: isList, trace: func(value any) []Issue {
		return []Issue{{Message: fmt.Sprintf("expected a list, got %s", Render(value))}}
	}}
}

// ArrayOf accepts slices and arrays whose every element satisfies v.
func ArrayOf(v Validator) Validator {
	return described{
		name: fmt.Sprintf("array(%s)", Name(v)),
		check: func(value any) bool {
			if !isList(value) {
				return false
			}

			for _, elem := range listElements(value) {
				if !v.Validate(elem) {
					return false
				}
			}

			return true
		},
		trace: func(value any) []Issue {
			if !isList(value) {
				return []Issue{{Message: fmt.Sprintf("expected a list, got %s", Render(value))}}
			}

			var issues []Issue
			for i, elem := range listElements(value) {
				issues = append(issues, prefixIssues(fmt.Sprintf("[%d]", i), TraceOf(v, elem))...)
			}

			return issues
		},
	}
}

// Tuple accepts lists with exactly len(vs) elements where element i satisfies vs[i].
func Tuple(vs ...Validator) Validator {
	return described{
		name: fmt.Sprintf("tuple(%s)", joinNames(vs)),
		check: func(value any) bool {
			if !isList(value) {
				return false
			}

			elems := listElements(value)
			if len(elems) != len(vs) {
				return false
			}

			for i, elem := range elems {
				if !vs[i].Validate(elem) {
					return false
				}
			}

			return true
		},
		trace: func(value any) []Issue {
			if !isList(value) {
				return []Issue{{Message: fmt.Sprintf("expected a list, got %s", Render(value))}}
			}

			elems := listElements(value)
			if len(elems) != len(vs) {
				return []Issue{{Message: fmt.Sprintf("expected %d elements, got %d", len(vs), len(elems))}}
			}

			var issues []Issue
			for i, elem := range elems {
				issues = append(issues, prefixIssues(fmt.Sprintf("[%d]", i), TraceOf(vs[i], elem))...)
			}

			return issues
		},
	}
}

// Either accepts a value if at least one of vs accepts it.
// A rejection is traced with the issues of every alternative.
func Either(vs ...Validator) Validator {
	return described{
		name: fmt.Sprintf("or(%s)", joinNames(vs)),
		check: func(value any) bool {
			for _, v := range vs {
				if v.Validate(value) {
					return true
				}
			}

			return false
		},
		trace: func(value any) []Issue {
			var issues []Issue
			for _, v := range vs {
				issues = append(issues, TraceOf(v, value)...)
			}

			return issues
		},
	}
}
