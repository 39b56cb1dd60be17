// Package typesafe wraps functions into guarded functions that enforce a contract at runtime.
//
// A guarded call validates its arguments, invokes the target, validates the result and notifies
// lifecycle hooks along the way:
//
//	ENTER -> VALIDATE_INPUT -> INVOKE -> VALIDATE_OUTPUT -> LEAVE
//
// Any failure moves the call to ERROR, which annotates the error with the stack where the guarded
// function was built and the stack where the call failed, notifies on_leave_with_error and returns
// exactly one error to the caller.
//
// Key types:
//   - Function: the guarded function, built by Wrap
//   - Func, AsyncFunc: synchronous and asynchronous targets
//   - Config, Options, Option: configuration classified from Wrap's arguments
//   - ValidationResult, ValidationError: outcome of a validator and the error of a rejected call
//   - AnnotatedError: the error every failed guarded call returns
//
// Configuration goes through Options, the named option object, or the functional Option
// constructors (WithFn, WithInput, WithOutput, OnEnter, WithName, ...). Both can be mixed in one
// Wrap call. Bare strings, string slices and callables are accepted as shorthands for tags and the
// target; Classify documents the merge rules.
//
// Common usage pattern:
//
//	double, err := typesafe.Wrap(typesafe.Options{
//		TypesafeInput:  func() typesafe.Validator { return schema.Number() },
//		TypesafeOutput: func() typesafe.Validator { return schema.Number() },
//		Fn: typesafe.Lift1(func(_ context.Context, x int) (int, error) {
//			return x * 2, nil
//		}),
//		Tags: []string{"math"},
//	})
//	if err != nil {
//		// handle construction error
//	}
//
//	// or, with functional options
//	double, err = typesafe.Wrap(
//		typesafe.WithFn(typesafe.Lift1(func(_ context.Context, x int) (int, error) { return x * 2, nil })),
//		typesafe.WithInput(func() typesafe.Validator { return schema.Number() }),
//		typesafe.WithTags("math"),
//	)
//
//	result, err := double.Call(ctx, 5)
//	if errors.Is(err, typesafe.ErrInputValidation) {
//		// the report lists every rejected argument
//	}
//
// Observability is optional. Loggers, metrics and tracing collectors are dependency-free interfaces,
// see packages oteladapters and promadapters for implementations.
package typesafe
