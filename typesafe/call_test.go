package typesafe_test

import (
	"context"
	"errors"
	"reflect"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kombucha-js/runtime-typesafety/typesafe"
	"github.com/kombucha-js/runtime-typesafety/typesafe/schema"
)

var errBoom = errors.New("boom")

func numberValidator() typesafe.Validator { return schema.Number() }

func stringValidator() typesafe.Validator { return schema.String() }

func anyValidator() typesafe.Validator { return schema.Any() }

func double(_ context.Context, _ any, args ...any) (any, error) {
	return args[0].(int) * 2, nil
}

func echo(_ context.Context, _ any, args ...any) (any, error) {
	return args, nil
}

// hookRecorder collects the stages hooks were called for, in order.
type hookRecorder struct {
	calls  []string
	events map[string]typesafe.Event
}

func newHookRecorder() *hookRecorder {
	return &hookRecorder{events: map[string]typesafe.Event{}}
}

func (r *hookRecorder) hook(name string) typesafe.Hook {
	return func(_ context.Context, e typesafe.Event) error {
		r.calls = append(r.calls, name)
		r.events[name] = e
		return nil
	}
}

func (r *hookRecorder) options() typesafe.Options {
	return typesafe.Options{
		OnEnter:          r.hook(typesafe.HookOnEnter),
		OnLeave:          r.hook(typesafe.HookOnLeave),
		OnLeaveWithError: r.hook(typesafe.HookOnLeaveWithError),
		OnInputError:     r.hook(typesafe.HookOnInputError),
		OnOutputError:    r.hook(typesafe.HookOnOutputError),
	}
}

func Test_Function_Call_NumberScenario_ValidInput(t *testing.T) {
	// arrange
	f, err := typesafe.Wrap(typesafe.Options{TypesafeInput: numberValidator, Fn: double})
	require.NoError(t, err)

	// act
	result, err := f.Call(context.Background(), 5)

	// assert
	require.NoError(t, err)
	assert.Equal(t, 10, result)
}

func Test_Function_Call_NumberScenario_InvalidInputReportsPosition(t *testing.T) {
	// arrange
	f, err := typesafe.Wrap(typesafe.Options{TypesafeInput: numberValidator, Fn: double})
	require.NoError(t, err)

	// act
	result, err := f.Call(context.Background(), "5")

	// assert
	require.Error(t, err)
	assert.Nil(t, result)
	assert.ErrorIs(t, err, typesafe.ErrInputValidation)
	assert.ErrorIs(t, err, typesafe.ErrTypeMismatch)
	assert.Contains(t, err.Error(), `[0]: "5" (string) does not satisfy number()`)

	var annotated *typesafe.AnnotatedError
	require.ErrorAs(t, err, &annotated)
	require.NotNil(t, annotated.TraceValidatorResult())
	assert.False(t, annotated.TraceValidatorResult().Passed())
}

func Test_Function_Call_InvalidInput_NeverInvokesTarget(t *testing.T) {
	// arrange
	var invoked atomic.Int32
	recorder := newHookRecorder()
	opts := recorder.options()
	opts.TypesafeInput = numberValidator
	opts.Fn = typesafe.Func(func(_ context.Context, _ any, _ ...any) (any, error) {
		invoked.Add(1)
		return nil, nil
	})
	f := typesafe.MustWrap(opts)

	// act
	_, err := f.Call(context.Background(), "not a number")

	// assert
	require.ErrorIs(t, err, typesafe.ErrInputValidation)
	assert.Equal(t, int32(0), invoked.Load())
	assert.Equal(t,
		[]string{typesafe.HookOnEnter, typesafe.HookOnInputError, typesafe.HookOnLeaveWithError},
		recorder.calls)

	inputErr := recorder.events[typesafe.HookOnInputError]
	require.NotNil(t, inputErr.TraceValidatorResult)
	assert.False(t, inputErr.TraceValidatorResult.Passed())
	assert.Equal(t, typesafe.StageInput, inputErr.Stage)

	leaveErr := recorder.events[typesafe.HookOnLeaveWithError]
	assert.Same(t, inputErr.TraceValidatorResult, leaveErr.TraceValidatorResult)
	assert.Equal(t, err, leaveErr.Err)
}

func Test_Function_Call_InvalidOutput_TargetRanExactlyOnce(t *testing.T) {
	// arrange
	var invoked atomic.Int32
	recorder := newHookRecorder()
	opts := recorder.options()
	opts.TypesafeOutput = stringValidator
	opts.Fn = typesafe.Func(func(_ context.Context, _ any, _ ...any) (any, error) {
		invoked.Add(1)
		return 42, nil
	})
	f := typesafe.MustWrap(opts)

	// act
	_, err := f.Call(context.Background())

	// assert
	require.ErrorIs(t, err, typesafe.ErrOutputValidation)
	assert.NotErrorIs(t, err, typesafe.ErrInputValidation)
	assert.Equal(t, int32(1), invoked.Load())
	assert.Equal(t,
		[]string{typesafe.HookOnEnter, typesafe.HookOnOutputError, typesafe.HookOnLeaveWithError},
		recorder.calls)
	assert.Contains(t, err.Error(), "42 (int) does not satisfy string()")
}

func Test_Function_Call_Success_RunsEnterAndLeave(t *testing.T) {
	// arrange
	recorder := newHookRecorder()
	opts := recorder.options()
	opts.Fn = double
	f := typesafe.MustWrap(opts)

	// act
	result, err := f.Call(context.Background(), 21)

	// assert
	require.NoError(t, err)
	assert.Equal(t, 42, result)
	assert.Equal(t, []string{typesafe.HookOnEnter, typesafe.HookOnLeave}, recorder.calls)
	assert.Equal(t, []any{21}, recorder.events[typesafe.HookOnEnter].Args)
	assert.Equal(t, 42, recorder.events[typesafe.HookOnLeave].Result)
	assert.Equal(t, typesafe.StageLeave, recorder.events[typesafe.HookOnLeave].Stage)
	assert.Same(t, f, recorder.events[typesafe.HookOnEnter].Fn)
	assert.Equal(t,
		recorder.events[typesafe.HookOnEnter].CallID,
		recorder.events[typesafe.HookOnLeave].CallID)
}

func Test_Function_CallOn_PreservesReceiverAndArguments(t *testing.T) {
	// arrange
	type receiver struct{ name string }
	recv := &receiver{name: "self"}

	var gotRecv any
	var gotArgs []any
	var hookRecv any
	f := typesafe.MustWrap(
		typesafe.Func(func(_ context.Context, r any, args ...any) (any, error) {
			gotRecv, gotArgs = r, args
			return nil, nil
		}),
		typesafe.OnEnter(func(_ context.Context, e typesafe.Event) error {
			hookRecv = e.Receiver
			return nil
		}),
	)

	// act
	_, err := f.CallOn(context.Background(), recv, 1, "two", 3.0, nil)

	// assert
	require.NoError(t, err)
	assert.Same(t, recv, gotRecv)
	assert.Same(t, recv, hookRecv)
	assert.Equal(t, []any{1, "two", 3.0, nil}, gotArgs)
}

func Test_Function_Call_TargetError_IsAnnotated(t *testing.T) {
	// arrange
	recorder := newHookRecorder()
	opts := recorder.options()
	opts.Fn = typesafe.Func(func(_ context.Context, _ any, _ ...any) (any, error) {
		return nil, errBoom
	})
	opts.Name = "explode"
	f := typesafe.MustWrap(opts)

	// act
	_, err := f.Call(context.Background())

	// assert
	require.ErrorIs(t, err, errBoom)
	assert.Equal(t, "boom", err.Error())

	var annotated *typesafe.AnnotatedError
	require.ErrorAs(t, err, &annotated)
	assert.Equal(t, "explode", annotated.Function())
	assert.Nil(t, annotated.TraceValidatorResult())

	assert.Equal(t, []string{typesafe.HookOnEnter, typesafe.HookOnLeaveWithError}, recorder.calls)
	leave := recorder.events[typesafe.HookOnLeaveWithError]
	assert.Equal(t, err, leave.Err)
	assert.Nil(t, leave.TraceValidatorResult)
	assert.Equal(t, typesafe.StageInvoke, leave.Stage)
}

func Test_Function_Call_TargetPanic_BecomesError(t *testing.T) {
	// arrange
	f := typesafe.MustWrap(typesafe.Func(func(_ context.Context, _ any, _ ...any) (any, error) {
		panic("kaputt")
	}))

	// act
	_, err := f.Call(context.Background())

	// assert
	require.ErrorIs(t, err, typesafe.ErrTargetPanicked)
	assert.Contains(t, err.Error(), "kaputt")
}

func Test_Function_Call_PanickingValidatorFactory_FailsCall(t *testing.T) {
	// arrange
	f := typesafe.MustWrap(double, typesafe.WithInput(func() typesafe.Validator {
		panic("no validator today")
	}))

	// act
	_, err := f.Call(context.Background(), 1)

	// assert
	require.ErrorIs(t, err, typesafe.ErrTargetPanicked)
}

func Test_Function_Call_FailingHooks_DoNotChangeOutcome(t *testing.T) {
	// arrange
	failing := func(_ context.Context, _ typesafe.Event) error { return errBoom }
	panicking := func(_ context.Context, _ typesafe.Event) error { panic("hook down") }

	f := typesafe.MustWrap(typesafe.Options{
		Fn:               double,
		OnEnter:          panicking,
		OnLeave:          failing,
		OnLeaveWithError: panicking,
		OnInputError:     failing,
		OnOutputError:    panicking,
	}, typesafe.WithLogger(discardLogger()))

	// act
	result, err := f.Call(context.Background(), 4)

	// assert
	require.NoError(t, err)
	assert.Equal(t, 8, result)
}

func Test_Function_Call_FailingHooks_DoNotChangeError(t *testing.T) {
	// arrange
	panicking := func(_ context.Context, _ typesafe.Event) error { panic("hook down") }
	f := typesafe.MustWrap(typesafe.Options{
		Fn:               double,
		TypesafeInput:    numberValidator,
		OnEnter:          panicking,
		OnInputError:     panicking,
		OnLeaveWithError: panicking,
	}, typesafe.WithLogger(discardLogger()))

	// act
	_, err := f.Call(context.Background(), "x")

	// assert
	require.ErrorIs(t, err, typesafe.ErrInputValidation)
	assert.NotErrorIs(t, err, typesafe.ErrHookPanicked)
}

func Test_Function_Call_SanitizesInput(t *testing.T) {
	// arrange
	var got []any
	recorder := newHookRecorder()
	opts := recorder.options()
	opts.TypesafeInput = anyValidator
	opts.Fn = typesafe.Func(func(_ context.Context, _ any, args ...any) (any, error) {
		got = args
		return "ok", nil
	})
	f := typesafe.MustWrap(opts)

	// act
	_, err := f.Call(context.Background(), map[string]any{"a": 1, "b": nil})

	// assert
	require.NoError(t, err)
	assert.Equal(t, []any{map[string]any{"a": 1}}, got)

	violation := recorder.events[typesafe.HookOnInputError].Violation
	require.NotNil(t, violation)
	assert.Equal(t, "[0]/b", violation.Path)
	assert.Equal(t, typesafe.StageInput, recorder.events[typesafe.HookOnInputError].Stage)
}

func Test_Function_Call_UnprotectedInput_SkipsSanitizer(t *testing.T) {
	// arrange
	input := map[string]any{"a": 1, "b": nil}
	var got []any
	f := typesafe.MustWrap(typesafe.Options{
		Fn: typesafe.Func(func(_ context.Context, _ any, args ...any) (any, error) {
			got = args
			return nil, nil
		}),
		TypesafeInput:    anyValidator,
		UnprotectedInput: true,
	})

	// act
	_, err := f.Call(context.Background(), input)

	// assert
	require.NoError(t, err)
	assert.Equal(t, []any{input}, got)
}

func Test_Function_Call_SanitizesOutput(t *testing.T) {
	// arrange
	recorder := newHookRecorder()
	opts := recorder.options()
	opts.TypesafeOutput = anyValidator
	opts.Fn = typesafe.Func(func(_ context.Context, _ any, _ ...any) (any, error) {
		return map[string]any{"x": nil, "y": 2}, nil
	})
	f := typesafe.MustWrap(opts)

	// act
	result, err := f.Call(context.Background())

	// assert
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"y": 2}, result)
	assert.Equal(t, map[string]any{"y": 2}, recorder.events[typesafe.HookOnLeave].Result)
	require.NotNil(t, recorder.events[typesafe.HookOnOutputError].Violation)
	assert.Equal(t, "/x", recorder.events[typesafe.HookOnOutputError].Violation.Path)
}

func Test_Function_Call_UnprotectedOutput_SkipsSanitizer(t *testing.T) {
	// arrange
	output := map[string]any{"x": nil}
	f := typesafe.MustWrap(typesafe.Func(func(_ context.Context, _ any, _ ...any) (any, error) {
		return output, nil
	}), typesafe.WithOutput(anyValidator), typesafe.UnprotectedOutput(true))

	// act
	result, err := f.Call(context.Background())

	// assert
	require.NoError(t, err)
	assert.Equal(t, output, result)
}

func Test_Function_Call_WithoutValidators_PassesValuesThrough(t *testing.T) {
	// arrange
	input := map[string]any{"a": 1, "b": nil}
	output := map[string]any{"x": nil, "y": 2}
	var got []any
	recorder := newHookRecorder()
	opts := recorder.options()
	opts.Fn = typesafe.Func(func(_ context.Context, _ any, args ...any) (any, error) {
		got = args
		return output, nil
	})
	f := typesafe.MustWrap(opts)

	// act
	result, err := f.Call(context.Background(), input)

	// assert
	require.NoError(t, err)
	assert.Equal(t, []any{map[string]any{"a": 1, "b": nil}}, got)
	assert.Equal(t, map[string]any{"x": nil, "y": 2}, result)
	assert.NotContains(t, recorder.events, typesafe.HookOnInputError)
	assert.NotContains(t, recorder.events, typesafe.HookOnOutputError)
	assert.Contains(t, recorder.events, typesafe.HookOnLeave)
}

func Test_Function_Go_SyncTarget_ReturnsSettledPromise(t *testing.T) {
	// arrange
	f := typesafe.MustWrap(double)

	// act
	p := f.Go(context.Background(), 3)

	// assert
	select {
	case <-p.Done():
	default:
		t.Fatal("promise of a sync target must be settled when Go returns")
	}

	result, err := p.Await(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 6, result)
}

func asyncDouble(_ context.Context, _ any, args ...any) *typesafe.Promise {
	return typesafe.Async(func() (any, error) {
		time.Sleep(time.Millisecond)
		return args[0].(int) * 2, nil
	})
}

func Test_Function_Go_AsyncTarget_Resolves(t *testing.T) {
	// arrange
	f := typesafe.MustWrap(asyncDouble, typesafe.WithOutput(numberValidator))
	require.Equal(t, typesafe.KindAsync, f.Kind())

	// act
	result, err := f.Go(context.Background(), 21).Await(context.Background())

	// assert
	require.NoError(t, err)
	assert.Equal(t, 42, result)
}

func Test_Function_Go_AsyncTarget_InvalidOutputRejects(t *testing.T) {
	// arrange
	recorder := newHookRecorder()
	opts := recorder.options()
	opts.Fn = typesafe.AsyncFunc(asyncDouble)
	opts.TypesafeOutput = stringValidator
	f := typesafe.MustWrap(opts)

	// act
	result, err := f.Go(context.Background(), 21).Await(context.Background())

	// assert
	require.ErrorIs(t, err, typesafe.ErrOutputValidation)
	assert.Nil(t, result)
	assert.Equal(t,
		[]string{typesafe.HookOnEnter, typesafe.HookOnOutputError, typesafe.HookOnLeaveWithError},
		recorder.calls)
}

func Test_Function_Go_AsyncTarget_InvalidInputRejectsBeforeInvoking(t *testing.T) {
	// arrange
	var invoked atomic.Int32
	f := typesafe.MustWrap(
		typesafe.AsyncFunc(func(_ context.Context, _ any, _ ...any) *typesafe.Promise {
			invoked.Add(1)
			return typesafe.Resolved(nil)
		}),
		typesafe.WithInput(numberValidator),
	)

	// act
	p := f.Go(context.Background(), "x")

	// assert
	select {
	case <-p.Done():
	default:
		t.Fatal("input rejection must settle the promise before Go returns")
	}
	_, err := p.Await(context.Background())
	require.ErrorIs(t, err, typesafe.ErrInputValidation)
	assert.Equal(t, int32(0), invoked.Load())
}

func Test_Function_Call_AsyncTarget_Blocks(t *testing.T) {
	// arrange
	f := typesafe.MustWrap(asyncDouble)

	// act
	result, err := f.Call(context.Background(), 5)

	// assert
	require.NoError(t, err)
	assert.Equal(t, 10, result)
}

func Test_Function_Call_AsyncTarget_ContextCanceled(t *testing.T) {
	// arrange
	pending, _ := typesafe.NewPromise()
	f := typesafe.MustWrap(typesafe.AsyncFunc(func(_ context.Context, _ any, _ ...any) *typesafe.Promise {
		return pending
	}))
	ctx, cancel := context.WithCancel(context.Background())

	// act
	time.AfterFunc(5*time.Millisecond, cancel)
	_, err := f.Call(ctx)

	// assert
	require.ErrorIs(t, err, context.Canceled)
	var annotated *typesafe.AnnotatedError
	assert.ErrorAs(t, err, &annotated)
}

func Test_Function_Call_AsyncTarget_RejectionIsAnnotated(t *testing.T) {
	// arrange
	f := typesafe.MustWrap(typesafe.AsyncFunc(func(_ context.Context, _ any, _ ...any) *typesafe.Promise {
		return typesafe.Rejected(errBoom)
	}))

	// act
	_, err := f.Go(context.Background()).Await(context.Background())

	// assert
	require.ErrorIs(t, err, errBoom)
	var annotated *typesafe.AnnotatedError
	assert.ErrorAs(t, err, &annotated)
}

func Test_Function_Call_ConcurrentCallsAreIndependent(t *testing.T) {
	// arrange
	f := typesafe.MustWrap(double, typesafe.WithInput(numberValidator))
	results := make(chan any, 50)

	// act
	for i := 0; i < 50; i++ {
		go func(i int) {
			result, err := f.Call(context.Background(), i)
			if err != nil {
				results <- err
				return
			}
			results <- result
		}(i)
	}

	// assert
	sum := 0
	for i := 0; i < 50; i++ {
		v := <-results
		n, ok := v.(int)
		require.True(t, ok, "unexpected %v", v)
		sum += n
	}
	assert.Equal(t, 2*(49*50/2), sum)
}

func Test_Function_AsFunc_ComposesGuardedFunctions(t *testing.T) {
	// arrange
	inner := typesafe.MustWrap(double, typesafe.WithInput(numberValidator), typesafe.WithName("inner"))
	outer := typesafe.MustWrap(inner.AsFunc(), typesafe.WithName("outer"))

	// act
	_, err := outer.Call(context.Background(), "x")

	// assert
	require.ErrorIs(t, err, typesafe.ErrInputValidation)
	var annotated *typesafe.AnnotatedError
	require.ErrorAs(t, err, &annotated)
	assert.Equal(t, "outer", annotated.Function())
	assert.True(t, strings.HasPrefix(err.Error(), typesafe.ErrInputValidation.Error()))
}

func Test_Function_Call_HookEventExposesTarget(t *testing.T) {
	// arrange
	recorder := newHookRecorder()
	opts := recorder.options()
	opts.Fn = double
	f := typesafe.MustWrap(opts)

	// act
	_, err := f.Call(context.Background(), 2)

	// assert
	require.NoError(t, err)
	event := recorder.events[typesafe.HookOnEnter]
	require.NotNil(t, event.Fn)
	assert.Same(t, f, event.Fn)
	assert.Equal(t, reflect.ValueOf(double).Pointer(), reflect.ValueOf(event.Fn.Target()).Pointer())
}
