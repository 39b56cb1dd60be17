// Package celvalidator builds validators from CEL expressions.
//
// The expression sees the checked value as the variable "value" and must evaluate to a bool:
//
//	v, err := celvalidator.Compile(`value > 0 && value < 100`)
//
// Structs and pointers to structs are converted to maps through their json tags before evaluation,
// so their fields are addressed by JSON name. Numbers of different types compare as numbers.
package celvalidator

import (
	"errors"
	"fmt"
	"reflect"
	"sync"

	"github.com/google/cel-go/cel"
	jsoniter "github.com/json-iterator/go"

	"github.com/kombucha-js/runtime-typesafety/typesafe"
	"github.com/kombucha-js/runtime-typesafety/typesafe/schema"
)

// Variable is the name under which an expression sees the value being checked.
const Variable = "value"

const (
	costLimit              = 10000
	interruptCheckInterval = 100
)

// ErrNotBoolean is returned by Compile for expressions that cannot evaluate to a bool.
var ErrNotBoolean = errors.New("celvalidator: expression must evaluate to bool")

var environment = sync.OnceValues(func() (*cel.Env, error) {
	return cel.NewEnv(
		cel.Variable(Variable, cel.DynType),
		cel.CrossTypeNumericComparisons(true),
	)
})

// Validator accepts the values for which its expression evaluates to true.
type Validator struct {
	expr    string
	program cel.Program
}

// Compile parses and type-checks expr.
func Compile(expr string) (*Validator, error) {
	env, err := environment()
	if err != nil {
		return nil, fmt.Errorf("celvalidator: failed to create CEL environment: %w", err)
	}

	ast, issues := env.Compile(expr)
	if issues != nil && issues.Err() != nil {
		return nil, fmt.Errorf("celvalidator: compile %q: %w", expr, issues.Err())
	}

	if out := ast.OutputType(); !out.IsExactType(cel.BoolType) && !out.IsExactType(cel.DynType) {
		return nil, fmt.Errorf("%w: %q has type %s", ErrNotBoolean, expr, out)
	}

	program, err := env.Program(ast,
		cel.InterruptCheckFrequency(interruptCheckInterval),
		cel.CostLimit(costLimit),
	)
	if err != nil {
		return nil, fmt.Errorf("celvalidator: program %q: %w", expr, err)
	}

	return &Validator{expr: expr, program: program}, nil
}

// MustCompile is like Compile but panics on error.
func MustCompile(expr string) *Validator {
	v, err := Compile(expr)
	if err != nil {
		panic(err)
	}

	return v
}

// Factory returns a ValidatorFactory yielding v.
func Factory(v *Validator) typesafe.ValidatorFactory {
	return func() typesafe.Validator {
		return v
	}
}

// Validate implements schema.Validator. Evaluation errors count as a rejection.
func (v *Validator) Validate(value any) bool {
	ok, err := v.eval(value)

	return err == nil && ok
}

// Trace implements schema.Tracer. Only evaluation errors are traced in detail.
func (v *Validator) Trace(value any) []schema.Issue {
	if _, err := v.eval(value); err != nil {
		return []schema.Issue{{Message: fmt.Sprintf("evaluation failed: %v", err)}}
	}

	return nil
}

func (v *Validator) String() string {
	return "cel(" + v.expr + ")"
}

func (v *Validator) eval(value any) (bool, error) {
	activation, err := normalize(value)
	if err != nil {
		return false, err
	}

	out, _, err := v.program.Eval(map[string]any{Variable: activation})
	if err != nil {
		return false, err
	}

	b, ok := out.Value().(bool)
	if !ok {
		return false, fmt.Errorf("%w: got %T", ErrNotBoolean, out.Value())
	}

	return b, nil
}

func normalize(value any) (any, error) {
	if value == nil {
		return nil, nil
	}

	t := reflect.TypeOf(value)
	if t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t.Kind() != reflect.Struct {
		return value, nil
	}

	raw, err := jsoniter.ConfigCompatibleWithStandardLibrary.Marshal(value)
	if err != nil {
		return nil, fmt.Errorf("value cannot be converted to a map: %w", err)
	}

	var doc any
	if err := jsoniter.ConfigCompatibleWithStandardLibrary.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("value cannot be converted to a map: %w", err)
	}

	return doc, nil
}
