package sanitize_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kombucha-js/runtime-typesafety/typesafe/sanitize"
)

type acceptAll struct{}

func (acceptAll) Validate(any) bool { return true }

type rejectAll struct{}

func (rejectAll) Validate(any) bool { return false }

func Test_StripUndefined_RemovesNilEntriesAndReports(t *testing.T) {
	// arrange
	input := []any{
		map[string]any{"a": 1, "b": nil, "nested": map[string]any{"c": nil, "d": "x"}},
		nil,
	}
	var violations []sanitize.Violation

	// act
	out := sanitize.StripUndefined{}.Sanitize(input, acceptAll{}, func(v sanitize.Violation) {
		violations = append(violations, v)
	})

	// assert
	expected := []any{
		map[string]any{"a": 1, "nested": map[string]any{"d": "x"}},
		nil,
	}
	assert.Equal(t, expected, out)
	require.Len(t, violations, 2)
	assert.Equal(t, "[0]/b", violations[0].Path)
	assert.Equal(t, "[0]/nested/c", violations[1].Path)
	assert.Equal(t, sanitize.ReasonStripped, violations[0].Reason)
	assert.Equal(t, "[0]/b: undefined value stripped", violations[0].String())
}

func Test_StripUndefined_DoesNotMutateInput(t *testing.T) {
	input := map[string]any{"a": nil}

	_ = sanitize.StripUndefined{}.Sanitize(input, acceptAll{}, nil)

	_, ok := input["a"]
	assert.True(t, ok, "input map must not be modified")
}

func Test_StripUndefined_NilValidatorIsNoOp(t *testing.T) {
	input := map[string]any{"a": nil}
	called := false

	out := sanitize.StripUndefined{}.Sanitize(input, nil, func(sanitize.Violation) { called = true })

	assert.Equal(t, input, out)
	assert.False(t, called)
}

func Test_StripUndefined_KeepsValueWhenValidatorRejectsStripped(t *testing.T) {
	input := map[string]any{"a": nil}
	called := false

	out := sanitize.StripUndefined{}.Sanitize(input, rejectAll{}, func(sanitize.Violation) { called = true })

	assert.Equal(t, input, out)
	assert.False(t, called)
}

func Test_StripUndefined_LeavesScalarsAndStructsAlone(t *testing.T) {
	type point struct{ X *int }

	assert.Equal(t, 5, sanitize.StripUndefined{}.Sanitize(5, acceptAll{}, nil))
	assert.Equal(t, point{}, sanitize.StripUndefined{}.Sanitize(point{}, acceptAll{}, nil))
}

func Test_None(t *testing.T) {
	input := map[string]any{"a": nil}

	assert.Equal(t, input, sanitize.None.Sanitize(input, acceptAll{}, nil))
}
