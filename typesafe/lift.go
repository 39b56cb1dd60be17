package typesafe

import (
	"context"
	"fmt"
	"reflect"
)

// Lift0 adapts a typed function without arguments to a Func.
func Lift0[R any](fn func(ctx context.Context) (R, error)) Func {
	return func(ctx context.Context, _ any, args ...any) (any, error) {
		if err := checkArity(args, 0); err != nil {
			return nil, err
		}

		r, err := fn(ctx)

		return r, err
	}
}

// Lift1 adapts a typed function of one argument to a Func.
// A call with the wrong number or Go type of arguments fails with ErrArgumentMismatch.
func Lift1[A, R any](fn func(ctx context.Context, a A) (R, error)) Func {
	return func(ctx context.Context, _ any, args ...any) (any, error) {
		if err := checkArity(args, 1); err != nil {
			return nil, err
		}

		a, err := argAt[A](args, 0)
		if err != nil {
			return nil, err
		}

		r, err := fn(ctx, a)

		return r, err
	}
}

// Lift2 adapts a typed function of two arguments to a Func.
func Lift2[A, B, R any](fn func(ctx context.Context, a A, b B) (R, error)) Func {
	return func(ctx context.Context, _ any, args ...any) (any, error) {
		if err := checkArity(args, 2); err != nil {
			return nil, err
		}

		a, err := argAt[A](args, 0)
		if err != nil {
			return nil, err
		}

		b, err := argAt[B](args, 1)
		if err != nil {
			return nil, err
		}

		r, err := fn(ctx, a, b)

		return r, err
	}
}

// LiftAsync1 adapts a typed function of one argument to an AsyncFunc running in its own goroutine.
func LiftAsync1[A, R any](fn func(ctx context.Context, a A) (R, error)) AsyncFunc {
	lifted := Lift1(fn)

	return func(ctx context.Context, recv any, args ...any) *Promise {
		return Async(func() (any, error) {
			return lifted(ctx, recv, args...)
		})
	}
}

// Invoke calls f and asserts the Go type of its result.
func Invoke[R any](ctx context.Context, f *Function, args ...any) (R, error) {
	var zero R

	result, err := f.Call(ctx, args...)
	if err != nil {
		return zero, err
	}

	if result == nil && nilable(reflect.TypeFor[R]()) {
		return zero, nil
	}

	r, ok := result.(R)
	if !ok {
		return zero, fmt.Errorf("%w: result: expected %s, got %T", ErrArgumentMismatch, reflect.TypeFor[R](), result)
	}

	return r, nil
}

func checkArity(args []any, n int) error {
	if len(args) != n {
		return fmt.Errorf("%w: expected %d arguments, got %d", ErrArgumentMismatch, n, len(args))
	}

	return nil
}

func argAt[A any](args []any, i int) (A, error) {
	var zero A

	if args[i] == nil && nilable(reflect.TypeFor[A]()) {
		return zero, nil
	}

	a, ok := args[i].(A)
	if !ok {
		return zero, fmt.Errorf("%w: [%d]: expected %s, got %T", ErrArgumentMismatch, i, reflect.TypeFor[A](), args[i])
	}

	return a, nil
}

func nilable(t reflect.Type) bool {
	switch t.Kind() {
	case reflect.Pointer, reflect.Interface, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan:
		return true
	default:
		return false
	}
}
