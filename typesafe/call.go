package typesafe

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/kombucha-js/runtime-typesafety/typesafe/sanitize"
)

// call is the per-invocation state of a guarded function.
// One call walks ENTER, VALIDATE_INPUT, INVOKE, VALIDATE_OUTPUT and LEAVE,
// leaving for ERROR at most once from any of the first four.
type call struct {
	f       *Function
	ctx     context.Context
	recv    any
	args    []any
	id      uuid.UUID
	span    SpanContext
	started time.Time
	stage   Stage
}

// Call invokes f without a receiver and blocks until the result is available.
func (f *Function) Call(ctx context.Context, args ...any) (any, error) {
	return f.CallOn(ctx, nil, args...)
}

// CallOn invokes f on recv and blocks until the result is available.
// Synchronous targets run entirely in the calling goroutine. For asynchronous targets
// the wait ends early when ctx is done, with ctx.Err() as the call's error.
func (f *Function) CallOn(ctx context.Context, recv any, args ...any) (any, error) {
	if !f.guarded {
		return f.passThrough(ctx, recv, args).Await(ctx)
	}

	c := f.newCall(ctx, recv, args)

	input, err := c.preprocess()
	if err != nil {
		return c.fail(err)
	}

	var result any
	if f.kind == KindAsync {
		result, err = c.invokeAsync(input).Await(c.ctx)
	} else {
		result, err = c.invokeSync(input)
	}
	if err != nil {
		return c.fail(err)
	}

	return c.complete(result)
}

// Go invokes f without a receiver and returns its eventual result.
func (f *Function) Go(ctx context.Context, args ...any) *Promise {
	return f.GoOn(ctx, nil, args...)
}

// GoOn invokes f on recv and returns its eventual result.
// Synchronous targets run to completion before GoOn returns a settled Promise.
// For asynchronous targets ENTER and VALIDATE_INPUT run in the calling goroutine,
// a single goroutine then awaits the target and validates its output.
func (f *Function) GoOn(ctx context.Context, recv any, args ...any) *Promise {
	if f.kind == KindSync {
		return settled(f.CallOn(ctx, recv, args...))
	}

	if !f.guarded {
		return f.passThrough(ctx, recv, args)
	}

	c := f.newCall(ctx, recv, args)

	input, err := c.preprocess()
	if err != nil {
		return settled(c.fail(err))
	}

	target := c.invokeAsync(input)
	p, settle := NewPromise()

	go func() {
		result, err := target.Await(c.ctx)
		if err != nil {
			settle(c.fail(err))
			return
		}
		settle(c.complete(result))
	}()

	return p
}

// AsFunc returns f as a plain Func, so guarded functions can be passed where a Func is expected.
// The Func blocks like CallOn.
func (f *Function) AsFunc() Func {
	return f.CallOn
}

func (f *Function) passThrough(ctx context.Context, recv any, args []any) *Promise {
	if f.kind == KindSync {
		return settled(f.fn(ctx, recv, args...))
	}

	if p := f.asyncFn(ctx, recv, args...); p != nil {
		return p
	}

	return Resolved(nil)
}

func settled(value any, err error) *Promise {
	if err != nil {
		return Rejected(err)
	}

	return Resolved(value)
}

func (f *Function) newCall(ctx context.Context, recv any, args []any) *call {
	c := &call{
		f:       f,
		recv:    recv,
		args:    args,
		id:      newCallID(),
		started: time.Now(),
		stage:   StageEnter,
	}
	c.ctx, c.span = f.obs.startCall(ctx, c)

	return c
}

func newCallID() uuid.UUID {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.New()
	}

	return id
}

func (c *call) event() Event {
	return Event{
		Fn:             c.f,
		FnName:         c.f.name,
		TypesafeInput:  c.f.input,
		TypesafeOutput: c.f.output,
		Receiver:       c.recv,
		CallID:         c.id,
		Stage:          c.stage,
	}
}

// preprocess runs ENTER and VALIDATE_INPUT and returns the arguments to invoke the target with.
func (c *call) preprocess() ([]any, error) {
	enter := c.event()
	enter.Args = c.args
	c.f.obs.invokeHook(c.ctx, HookOnEnter, c.f.hooks.onEnter, enter)

	c.stage = StageInput

	v, err := buildValidator(c.f.input)
	if err != nil || v == nil {
		return c.args, err
	}

	result := TraceArguments(v, c.args)
	if !result.Passed() {
		c.f.obs.validationFailed(c.ctx, StageInput)

		e := c.event()
		e.TraceValidatorResult = result
		c.f.obs.invokeHook(c.ctx, HookOnInputError, c.f.hooks.onInputError, e)

		return nil, &ValidationError{Stage: StageInput, Result: result}
	}

	if c.f.unprotectedInput {
		return c.args, nil
	}

	sanitized := c.f.sanitizer.Sanitize(
		listOrEmpty(c.args),
		argumentList(v),
		c.onViolation(HookOnInputError, c.f.hooks.onInputError),
	)
	if list, ok := sanitized.([]any); ok {
		return list, nil
	}

	return c.args, nil
}

func (c *call) invokeSync(args []any) (any, error) {
	c.stage = StageInvoke

	return protect(func() (any, error) {
		return c.f.fn(c.ctx, c.recv, args...)
	})
}

func (c *call) invokeAsync(args []any) *Promise {
	c.stage = StageInvoke

	var p *Promise
	if _, err := protect(func() (any, error) {
		p = c.f.asyncFn(c.ctx, c.recv, args...)
		return nil, nil
	}); err != nil {
		return Rejected(err)
	}

	if p == nil {
		return Resolved(nil)
	}

	return p
}

// complete runs VALIDATE_OUTPUT and LEAVE.
func (c *call) complete(result any) (any, error) {
	output, err := c.postprocess(result)
	if err != nil {
		return c.fail(err)
	}

	c.f.obs.finishCall(c.ctx, c, nil)

	return output, nil
}

func (c *call) postprocess(result any) (any, error) {
	c.stage = StageOutput

	v, err := buildValidator(c.f.output)
	if err != nil {
		return nil, err
	}

	output := result
	if v != nil {
		traced := Trace(v, result)
		if !traced.Passed() {
			c.f.obs.validationFailed(c.ctx, StageOutput)

			e := c.event()
			e.TraceValidatorResult = traced
			c.f.obs.invokeHook(c.ctx, HookOnOutputError, c.f.hooks.onOutputError, e)

			return nil, &ValidationError{Stage: StageOutput, Result: traced}
		}

		if !c.f.unprotectedOutput {
			output = c.f.sanitizer.Sanitize(result, v, c.onViolation(HookOnOutputError, c.f.hooks.onOutputError))
		}
	}

	c.stage = StageLeave

	leave := c.event()
	leave.Result = output
	c.f.obs.invokeHook(c.ctx, HookOnLeave, c.f.hooks.onLeave, leave)

	return output, nil
}

// fail is the ERROR state: annotate, notify on_leave_with_error and record the outcome.
func (c *call) fail(err error) (any, error) {
	annotated := annotate(err, c.f.name, c.f.created)

	e := c.event()
	e.Err = annotated
	e.TraceValidatorResult = annotated.TraceValidatorResult()
	c.f.obs.invokeHook(c.ctx, HookOnLeaveWithError, c.f.hooks.onLeaveWithError, e)

	c.f.obs.finishCall(c.ctx, c, annotated)

	return nil, annotated
}

func (c *call) onViolation(hookName string, hook Hook) func(sanitize.Violation) {
	stage := c.stage

	return func(v sanitize.Violation) {
		c.f.obs.sanitizerViolation(c.ctx, stage)

		e := c.event()
		e.Stage = stage
		e.Violation = &v
		c.f.obs.invokeHook(c.ctx, hookName, hook, e)
	}
}

// buildValidator calls a validator factory. A panicking factory fails the call.
func buildValidator(factory ValidatorFactory) (v Validator, err error) {
	if factory == nil {
		return nil, nil
	}

	defer func() {
		if r := recover(); r != nil {
			v, err = nil, &PanicError{Value: r}
		}
	}()

	return factory(), nil
}

func listOrEmpty(args []any) []any {
	if args == nil {
		return []any{}
	}

	return args
}
