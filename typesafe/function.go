package typesafe

import (
	"context"
	"reflect"
	"runtime"
	"strings"

	"github.com/kombucha-js/runtime-typesafety/typesafe/sanitize"
)

const (
	nameSuffix    = "(typesafe-function)"
	anonymousName = "anonymous function"
)

// Kind tells whether a target is synchronous or asynchronous. It is fixed when the target is wrapped.
type Kind int

const (
	KindSync Kind = iota
	KindAsync
)

func (k Kind) String() string {
	if k == KindAsync {
		return "async"
	}

	return "sync"
}

// Function is a guarded function: a target together with its contract and metadata.
// It is safe for concurrent calls. Everything but the tags is immutable after Wrap.
type Function struct {
	name    string
	kind    Kind
	fn      Func
	asyncFn AsyncFunc
	guarded bool

	input             ValidatorFactory
	output            ValidatorFactory
	hooks             hooks
	unprotectedInput  bool
	unprotectedOutput bool
	sanitizer         Sanitizer
	properties        Properties

	created *CallSite
	obs     *observer
	tags    TagSet
}

// Wrap builds a guarded function from arguments classified by Classify.
// Wrapping a guarded *Function returns it unchanged; an unguarded one has its target wrapped.
func Wrap(args ...any) (*Function, error) {
	cfg, err := Classify(args...)
	if err != nil {
		return nil, err
	}

	if f, ok := cfg.target.(*Function); ok {
		if f.guarded {
			return f, nil
		}
		cfg.target = f.Target()
		if cfg.Name == "" {
			cfg.Name = f.name
		}
	}

	return newFunction(cfg, true, captureCallSite()), nil
}

// MustWrap is like Wrap but panics on a construction error.
func MustWrap(args ...any) *Function {
	f, err := Wrap(args...)
	if err != nil {
		panic(err)
	}

	return f
}

// Unguarded accepts the same arguments as Wrap but returns a pass-through Function:
// no validation, no sanitization, no hooks and no error annotation.
// It lets call sites switch contracts off without changing their shape.
// A *Function target is returned as is, so Unguarded on a guarded function keeps its contract.
func Unguarded(args ...any) (*Function, error) {
	cfg, err := Classify(args...)
	if err != nil {
		return nil, err
	}

	if f, ok := cfg.target.(*Function); ok {
		return f, nil
	}

	return newFunction(cfg, false, nil), nil
}

func newFunction(cfg Config, guarded bool, created *CallSite) *Function {
	f := &Function{
		guarded:           guarded,
		unprotectedInput:  cfg.UnprotectedInput,
		unprotectedOutput: cfg.UnprotectedOutput,
		sanitizer:         cfg.Sanitizer,
		properties:        cfg.Properties,
		created:           created,
		hooks: hooks{
			onEnter:          cfg.OnEnter,
			onLeave:          cfg.OnLeave,
			onLeaveWithError: cfg.OnLeaveWithError,
			onInputError:     cfg.OnInputError,
			onOutputError:    cfg.OnOutputError,
		},
	}

	switch t := cfg.target.(type) {
	case Func:
		f.fn = t
	case func(context.Context, any, ...any) (any, error):
		f.fn = t
	case AsyncFunc:
		f.asyncFn, f.kind = t, KindAsync
	case func(context.Context, any, ...any) *Promise:
		f.asyncFn, f.kind = t, KindAsync
	}

	if guarded {
		f.input, f.output = cfg.TypesafeInput, cfg.TypesafeOutput
	}

	if f.sanitizer == nil {
		f.sanitizer = sanitize.StripUndefined{}
	}

	f.name = cfg.Name
	if f.name == "" {
		f.name = targetName(cfg.target)
	}

	f.obs = newObserver(f.name, cfg)
	f.tags.SetTypesafeTags(cfg.Tags)

	return f
}

func targetName(target any) string {
	v := reflect.ValueOf(target)
	if v.Kind() != reflect.Func || v.IsNil() {
		return anonymousName
	}

	rf := runtime.FuncForPC(v.Pointer())
	if rf == nil {
		return anonymousName
	}

	name := rf.Name()
	if i := strings.LastIndex(name, "/"); i >= 0 {
		name = name[i+1:]
	}
	if name == "" {
		return anonymousName
	}

	return name
}

// Name returns the target name followed by "(typesafe-function)" for guarded functions.
func (f *Function) Name() string {
	if !f.guarded {
		return f.name
	}

	return f.name + nameSuffix
}

// String implements fmt.Stringer.
func (f *Function) String() string {
	return f.Name()
}

// Kind returns the kind of the target.
func (f *Function) Kind() Kind {
	return f.kind
}

// Guarded reports whether calls enforce the contract. It is false for functions built by Unguarded.
func (f *Function) Guarded() bool {
	return f.guarded
}

// Target returns the wrapped callable, a Func or an AsyncFunc.
func (f *Function) Target() any {
	if f.kind == KindAsync {
		return f.asyncFn
	}

	return f.fn
}

// Property returns the value of a merged property.
func (f *Function) Property(key string) (any, bool) {
	v, ok := f.properties[key]
	return v, ok
}

// Properties returns a copy of the merged properties.
func (f *Function) Properties() Properties {
	out := make(Properties, len(f.properties))
	for k, v := range f.properties {
		out[k] = v
	}

	return out
}

// Tags returns a copy of the current tags.
func (f *Function) Tags() []string {
	return f.tags.TypesafeTags()
}

// SetTags replaces all tags and returns f.
func (f *Function) SetTags(tags ...string) *Function {
	f.tags.SetTypesafeTags(tags)
	return f
}

// TypesafeTags implements Tagged.
func (f *Function) TypesafeTags() []string {
	return f.tags.TypesafeTags()
}

// SetTypesafeTags implements Tagged.
func (f *Function) SetTypesafeTags(tags []string) {
	f.tags.SetTypesafeTags(tags)
}

// IsContract reports whether v is a guarded function.
func IsContract(v any) bool {
	f, ok := v.(*Function)
	return ok && f != nil && f.guarded
}
