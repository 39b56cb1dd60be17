package typesafe

import (
	"errors"
	"fmt"
)

// ErrReference is the root of all construction-time and accessor errors.
var ErrReference = errors.New("typesafe: reference error")

var (
	ErrMissingTarget        = fmt.Errorf("%w: fn cannot be nil", ErrReference)
	ErrMultipleTargets      = fmt.Errorf("%w: exactly one fn must be supplied", ErrReference)
	ErrTargetNotCallable    = fmt.Errorf("%w: fn must be a function", ErrReference)
	ErrUnrecognizedArgument = fmt.Errorf("%w: unrecognized argument", ErrReference)
	ErrNilValue             = fmt.Errorf("%w: argument was not specified", ErrReference)
	ErrNotCallable          = fmt.Errorf("%w: argument must be a function", ErrReference)
	ErrNotObject            = fmt.Errorf("%w: argument must be either an object, an array or a function", ErrReference)
	ErrNotTaggable          = fmt.Errorf("%w: argument cannot carry tags", ErrReference)
	ErrNilHook              = fmt.Errorf("%w: hook cannot be nil", ErrReference)
	ErrNilValidatorFactory  = fmt.Errorf("%w: validator factory cannot be nil", ErrReference)
)

// ErrTypeMismatch is the root of input and output validation failures.
var ErrTypeMismatch = errors.New("typesafe: type mismatch")

var (
	ErrInputValidation  = fmt.Errorf("%w: failure of input validation", ErrTypeMismatch)
	ErrOutputValidation = fmt.Errorf("%w: failure of output validation", ErrTypeMismatch)

	// ErrArgumentMismatch is returned by lifted targets whose arguments or result have the wrong Go type.
	ErrArgumentMismatch = fmt.Errorf("%w: argument mismatch", ErrTypeMismatch)
)

// ErrHookPanicked is logged when a lifecycle hook panics. It never reaches the caller.
var ErrHookPanicked = errors.New("typesafe: hook panicked")

// ErrTargetPanicked is wrapped around a panic raised by a guarded target.
var ErrTargetPanicked = errors.New("typesafe: target panicked")

// PanicError carries the value a target panicked with.
type PanicError struct {
	Value any
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("%s: %v", ErrTargetPanicked.Error(), e.Value)
}

func (e *PanicError) Unwrap() error {
	if err, ok := e.Value.(error); ok {
		return err
	}

	return nil
}

// Is lets errors.Is match ErrTargetPanicked.
func (e *PanicError) Is(target error) bool {
	return target == ErrTargetPanicked
}
