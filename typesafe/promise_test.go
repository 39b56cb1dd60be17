package typesafe_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kombucha-js/runtime-typesafety/typesafe"
)

func Test_Promise_ResolvedAndRejected(t *testing.T) {
	ctx := context.Background()

	value, err := typesafe.Resolved(7).Await(ctx)
	require.NoError(t, err)
	assert.Equal(t, 7, value)

	value, err = typesafe.Rejected(errBoom).Await(ctx)
	assert.Nil(t, value)
	assert.Equal(t, errBoom, err)
}

func Test_Promise_SettlesOnce(t *testing.T) {
	// arrange
	p, settle := typesafe.NewPromise()

	// act
	var wg sync.WaitGroup
	for i := range 10 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			settle(i, nil)
		}()
	}
	wg.Wait()
	first, _ := p.Await(context.Background())
	settle("late", errBoom)

	// assert
	again, err := p.Await(context.Background())
	require.NoError(t, err)
	assert.Equal(t, first, again)
	assert.IsType(t, 0, again)
}

func Test_Promise_Done(t *testing.T) {
	p, settle := typesafe.NewPromise()

	select {
	case <-p.Done():
		t.Fatal("promise settled before settle was called")
	default:
	}

	settle(nil, nil)

	select {
	case <-p.Done():
	case <-time.After(time.Second):
		t.Fatal("promise did not settle")
	}
}

func Test_Promise_AwaitRespectsContext(t *testing.T) {
	// arrange
	p, settle := typesafe.NewPromise()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	// act
	_, err := p.Await(ctx)

	// assert
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	settle("later", nil)
	value, err := p.Await(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "later", value, "giving up on a context leaves the promise usable")
}

func Test_Promise_AwaitPrefersSettledValueOverCanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	value, err := typesafe.Resolved("ready").Await(ctx)

	require.NoError(t, err)
	assert.Equal(t, "ready", value)
}

func Test_Async_RecoversPanics(t *testing.T) {
	// act
	_, err := typesafe.Async(func() (any, error) {
		panic("kaboom")
	}).Await(context.Background())

	// assert
	assert.ErrorIs(t, err, typesafe.ErrTargetPanicked)
	var panicErr *typesafe.PanicError
	require.ErrorAs(t, err, &panicErr)
	assert.Equal(t, "kaboom", panicErr.Value)
	assert.Equal(t, "typesafe: target panicked: kaboom", panicErr.Error())
}

func Test_PanicError_UnwrapsErrorValues(t *testing.T) {
	err := &typesafe.PanicError{Value: errBoom}

	assert.ErrorIs(t, err, errBoom)
	assert.ErrorIs(t, err, typesafe.ErrTargetPanicked)
}
