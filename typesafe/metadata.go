package typesafe

import (
	"fmt"
	"reflect"
	"sync"
)

// Tagged is implemented by values that carry typesafe tags.
// *Function implements it, and so does every struct embedding TagSet.
type Tagged interface {
	TypesafeTags() []string
	SetTypesafeTags(tags []string)
}

// TagSet is an embeddable, concurrency-safe tag list.
type TagSet struct {
	mu   sync.RWMutex
	tags []string
}

// TypesafeTags returns a copy of the tags.
func (s *TagSet) TypesafeTags() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return append([]string{}, s.tags...)
}

// SetTypesafeTags replaces the tags wholesale.
func (s *TagSet) SetTypesafeTags(tags []string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.tags = append([]string{}, tags...)
}

// GetInputValidatorFactory returns the input validator factory of a guarded function.
// Plain funcs and unguarded functions have none and yield nil.
func GetInputValidatorFactory(v any) (ValidatorFactory, error) {
	f, err := checkCallable(v)
	if err != nil || f == nil {
		return nil, err
	}

	return f.input, nil
}

// GetOutputValidatorFactory returns the output validator factory of a guarded function.
// Plain funcs and unguarded functions have none and yield nil.
func GetOutputValidatorFactory(v any) (ValidatorFactory, error) {
	f, err := checkCallable(v)
	if err != nil || f == nil {
		return nil, err
	}

	return f.output, nil
}

// GetTags returns the tags carried by v, or an empty list when v carries none.
// v must be a func, pointer, map, slice, array or struct.
func GetTags(v any) ([]string, error) {
	if err := checkObject(v); err != nil {
		return nil, err
	}

	if tagged, ok := v.(Tagged); ok {
		return tagged.TypesafeTags(), nil
	}

	return []string{}, nil
}

// SetTags replaces the tags carried by v and returns v itself.
func SetTags(v any, tags ...string) (any, error) {
	if err := checkObject(v); err != nil {
		return nil, err
	}

	tagged, ok := v.(Tagged)
	if !ok {
		return nil, fmt.Errorf("%w: %T", ErrNotTaggable, v)
	}

	tagged.SetTypesafeTags(tags)

	return v, nil
}

func checkCallable(v any) (*Function, error) {
	if isNil(v) {
		return nil, ErrNilValue
	}

	if f, ok := v.(*Function); ok {
		return f, nil
	}

	if reflect.TypeOf(v).Kind() != reflect.Func {
		return nil, fmt.Errorf("%w: got %T", ErrNotCallable, v)
	}

	return nil, nil
}

func checkObject(v any) error {
	if isNil(v) {
		return ErrNilValue
	}

	switch reflect.TypeOf(v).Kind() {
	case reflect.Func, reflect.Pointer, reflect.Map, reflect.Slice, reflect.Array, reflect.Struct:
		return nil
	default:
		return fmt.Errorf("%w: got %T", ErrNotObject, v)
	}
}

func isNil(v any) bool {
	if v == nil {
		return true
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Func, reflect.Pointer, reflect.Map, reflect.Interface:
		return rv.IsNil()
	default:
		return false
	}
}
