package typesafe_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kombucha-js/runtime-typesafety/typesafe"
)

type catalogEntry struct {
	typesafe.TagSet
	Title string
}

func Test_Tags_Scenario(t *testing.T) {
	// arrange
	w := typesafe.MustWrap(typesafe.Options{Tags: []string{"a", "b"}}, double)

	// act
	before, err := typesafe.GetTags(w)
	require.NoError(t, err)

	returned, setErr := typesafe.SetTags(w, "c")
	require.NoError(t, setErr)

	after, err := typesafe.GetTags(w)
	require.NoError(t, err)

	// assert
	assert.Equal(t, []string{"a", "b"}, before)
	assert.Same(t, w, returned)
	assert.Equal(t, []string{"c"}, after)
}

func Test_GetTags_ReturnsCopy(t *testing.T) {
	w := typesafe.MustWrap(double, "a")

	tags, err := typesafe.GetTags(w)
	require.NoError(t, err)
	tags[0] = "mutated"

	assert.Equal(t, []string{"a"}, w.Tags())
}

func Test_SetTags_OnTaggedStruct(t *testing.T) {
	// arrange
	entry := &catalogEntry{Title: "x"}

	// act
	returned, err := typesafe.SetTags(entry, "books", "fiction")

	// assert
	require.NoError(t, err)
	assert.Same(t, entry, returned)
	tags, err := typesafe.GetTags(entry)
	require.NoError(t, err)
	assert.Equal(t, []string{"books", "fiction"}, tags)
}

func Test_GetTags_UntaggedObjectsYieldEmpty(t *testing.T) {
	for _, v := range []any{double, map[string]any{}, []int{1}, struct{}{}, &struct{}{}} {
		tags, err := typesafe.GetTags(v)
		require.NoError(t, err)
		assert.Empty(t, tags)
		assert.NotNil(t, tags)
	}
}

func Test_Metadata_Errors(t *testing.T) {
	var nilFunction *typesafe.Function
	var nilMap map[string]any

	tests := []struct {
		name     string
		call     func() (any, error)
		expected error
	}{
		{
			name:     "get_tags_nil",
			call:     func() (any, error) { return typesafe.GetTags(nil) },
			expected: typesafe.ErrNilValue,
		},
		{
			name:     "get_tags_nil_map",
			call:     func() (any, error) { return typesafe.GetTags(nilMap) },
			expected: typesafe.ErrNilValue,
		},
		{
			name:     "get_tags_scalar",
			call:     func() (any, error) { return typesafe.GetTags(42) },
			expected: typesafe.ErrNotObject,
		},
		{
			name:     "set_tags_nil_function",
			call:     func() (any, error) { return typesafe.SetTags(nilFunction, "x") },
			expected: typesafe.ErrNilValue,
		},
		{
			name:     "set_tags_string",
			call:     func() (any, error) { return typesafe.SetTags("value", "x") },
			expected: typesafe.ErrNotObject,
		},
		{
			name:     "set_tags_untaggable",
			call:     func() (any, error) { return typesafe.SetTags(map[string]any{}, "x") },
			expected: typesafe.ErrNotTaggable,
		},
		{
			name:     "input_factory_nil",
			call:     func() (any, error) { return typesafe.GetInputValidatorFactory(nil) },
			expected: typesafe.ErrNilValue,
		},
		{
			name:     "output_factory_not_callable",
			call:     func() (any, error) { return typesafe.GetOutputValidatorFactory(struct{}{}) },
			expected: typesafe.ErrNotCallable,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := tc.call()
			assert.ErrorIs(t, err, tc.expected)
			assert.ErrorIs(t, err, typesafe.ErrReference)
		})
	}
}

func Test_GetValidatorFactories(t *testing.T) {
	// arrange
	w := typesafe.MustWrap(double, typesafe.WithInput(numberValidator))
	plain, err := typesafe.Unguarded(double, typesafe.WithInput(numberValidator))
	require.NoError(t, err)

	// act
	input, inErr := typesafe.GetInputValidatorFactory(w)
	output, outErr := typesafe.GetOutputValidatorFactory(w)
	rawInput, rawErr := typesafe.GetInputValidatorFactory(double)
	plainInput, plainErr := typesafe.GetInputValidatorFactory(plain)

	// assert
	require.NoError(t, inErr)
	require.NoError(t, outErr)
	require.NoError(t, rawErr)
	require.NoError(t, plainErr)

	require.NotNil(t, input)
	assert.True(t, input().Validate(1))
	assert.False(t, input().Validate("1"))

	require.NotNil(t, output)
	assert.Nil(t, output(), "absent output validator means no validation and no sanitization")

	assert.Nil(t, rawInput)
	assert.Nil(t, plainInput)
}
