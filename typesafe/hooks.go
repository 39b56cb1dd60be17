package typesafe

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/kombucha-js/runtime-typesafety/typesafe/sanitize"
)

// Stage identifies the step of a guarded call an Event was emitted from.
type Stage string

// Stages of a guarded call.
const (
	StageEnter  Stage = "enter"
	StageInput  Stage = "input"
	StageInvoke Stage = "invoke"
	StageOutput Stage = "output"
	StageLeave  Stage = "leave"
)

// Hook names, as they appear in logs and metric labels.
const (
	HookOnEnter          = "on_enter"
	HookOnLeave          = "on_leave"
	HookOnLeaveWithError = "on_leave_with_error"
	HookOnInputError     = "on_input_error"
	HookOnOutputError    = "on_output_error"
)

// Hook is a lifecycle callback of a guarded function.
// Hooks are instrumentation: a returned error or a panic is logged as a warning and discarded,
// it never changes the outcome of the guarded call.
type Hook func(ctx context.Context, e Event) error

// Event is the argument passed to every Hook.
// Fn, FnName, TypesafeInput, TypesafeOutput, Receiver, CallID and Stage are always set;
// the remaining fields depend on the hook:
//
//	on_enter             Args
//	on_leave             Result
//	on_input_error       TraceValidatorResult, or Violation when the sanitizer reports
//	on_output_error      TraceValidatorResult, or Violation when the sanitizer reports
//	on_leave_with_error  Err, and TraceValidatorResult when the failure was a validation error
type Event struct {
	// Fn is the guarded function the hook belongs to; Fn.Target() is the wrapped target.
	Fn             *Function
	FnName         string
	TypesafeInput  ValidatorFactory
	TypesafeOutput ValidatorFactory
	Receiver       any
	CallID         uuid.UUID
	Stage          Stage

	Args                 []any
	Result               any
	Err                  error
	TraceValidatorResult *ValidationResult
	Violation            *sanitize.Violation
}

type hooks struct {
	onEnter          Hook
	onLeave          Hook
	onLeaveWithError Hook
	onInputError     Hook
	onOutputError    Hook
}

// invokeHook runs hook inside an isolation boundary.
// Failures go to the observer, the caller never sees them.
func (o *observer) invokeHook(ctx context.Context, name string, hook Hook, e Event) {
	if hook == nil {
		return
	}

	if err := runHook(ctx, hook, e); err != nil {
		o.hookFailed(ctx, name, e, err)
	}
}

func runHook(ctx context.Context, hook Hook, e Event) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", ErrHookPanicked, r)
		}
	}()

	return hook(ctx, e)
}
