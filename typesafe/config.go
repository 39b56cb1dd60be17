package typesafe

import (
	"context"
	"fmt"
	"reflect"

	"github.com/kombucha-js/runtime-typesafety/typesafe/sanitize"
)

// Func is a synchronous target. recv is the receiver the guarded call was made on, nil for Call.
type Func func(ctx context.Context, recv any, args ...any) (any, error)

// AsyncFunc is an asynchronous target. The guarded call suspends once, until the Promise settles.
type AsyncFunc func(ctx context.Context, recv any, args ...any) *Promise

// Properties is a bag of extra values attached to a guarded function.
type Properties map[string]any

// Sanitizer strips or flags undefined values against a validator.
// A nil validator must leave the value unchanged.
type Sanitizer interface {
	Sanitize(value any, validator sanitize.Validator, onViolation func(sanitize.Violation)) any
}

// Options is the named form of the configuration.
// Zero-valued fields count as not supplied.
type Options struct {
	Fn                any
	Tags              []string
	TypesafeInput     ValidatorFactory
	TypesafeOutput    ValidatorFactory
	Property          Properties
	OnEnter           Hook
	OnLeave           Hook
	OnLeaveWithError  Hook
	OnInputError      Hook
	OnOutputError     Hook
	UnprotectedInput  bool
	UnprotectedOutput bool
	Name              string
}

// Option defines a functional option for configuring a guarded function.
type Option func(*Config) error

// Config is the normalized configuration of a guarded function, see Classify.
type Config struct {
	TypesafeInput     ValidatorFactory
	TypesafeOutput    ValidatorFactory
	Tags              []string
	Properties        Properties
	OnEnter           Hook
	OnLeave           Hook
	OnLeaveWithError  Hook
	OnInputError      Hook
	OnOutputError     Hook
	UnprotectedInput  bool
	UnprotectedOutput bool
	Name              string

	Logger           Logger
	ContextualLogger ContextualLogger
	MetricsCollector MetricsCollector
	TracingCollector TracingCollector
	Sanitizer        Sanitizer

	target   any
	namedFns []any
	bareFns  []any
	bareTags []string
	bags     []Properties
}

// Target returns the single classified target: a Func, an AsyncFunc or a *Function.
func (c Config) Target() any {
	return c.target
}

// Classify sorts a heterogeneous argument list into a Config.
//
// Accepted values, in any order:
//
//	Func, AsyncFunc, *Function or a func literal of either signature   target candidate
//	string                                                            tag
//	[]string                                                          tags
//	Options, *Options                                                 named options
//	Option                                                            functional option
//	Properties, map[string]any                                        property bag
//
// Singleton fields take the last supplied value. Property bags are all kept and merged in order,
// the last one wins per key. Named tags come first, followed by bare strings. Named Fn values come
// first, followed by bare callables, and exactly one target must result.
func Classify(args ...any) (Config, error) {
	var cfg Config

	for i, arg := range args {
		if err := cfg.classify(arg); err != nil {
			return Config{}, fmt.Errorf("argument %d: %w", i, err)
		}
	}

	if err := cfg.finalize(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func (c *Config) classify(arg any) error {
	if isTarget(arg) {
		c.bareFns = append(c.bareFns, arg)
		return nil
	}

	switch v := arg.(type) {
	case string:
		c.bareTags = append(c.bareTags, v)

	case []string:
		c.Tags = append(c.Tags, v...)

	case Options:
		return c.merge(v)

	case *Options:
		if v == nil {
			return fmt.Errorf("%w: nil *Options", ErrUnrecognizedArgument)
		}
		return c.merge(*v)

	case Option:
		if v == nil {
			return fmt.Errorf("%w: nil Option", ErrUnrecognizedArgument)
		}
		return v(c)

	case func(*Config) error:
		return Option(v)(c)

	case Properties:
		c.bags = append(c.bags, v)

	case map[string]any:
		c.bags = append(c.bags, v)

	default:
		if arg != nil && reflect.TypeOf(arg).Kind() == reflect.Func {
			return fmt.Errorf("%w: unsupported signature %T", ErrTargetNotCallable, arg)
		}
		return fmt.Errorf("%w: %T", ErrUnrecognizedArgument, arg)
	}

	return nil
}

func (c *Config) merge(o Options) error {
	if o.Fn != nil {
		if !isTarget(o.Fn) {
			return fmt.Errorf("%w: got %T", ErrTargetNotCallable, o.Fn)
		}
		c.namedFns = append(c.namedFns, o.Fn)
	}

	c.Tags = append(c.Tags, o.Tags...)

	if o.Property != nil {
		c.bags = append(c.bags, o.Property)
	}

	if o.TypesafeInput != nil {
		c.TypesafeInput = o.TypesafeInput
	}
	if o.TypesafeOutput != nil {
		c.TypesafeOutput = o.TypesafeOutput
	}
	if o.OnEnter != nil {
		c.OnEnter = o.OnEnter
	}
	if o.OnLeave != nil {
		c.OnLeave = o.OnLeave
	}
	if o.OnLeaveWithError != nil {
		c.OnLeaveWithError = o.OnLeaveWithError
	}
	if o.OnInputError != nil {
		c.OnInputError = o.OnInputError
	}
	if o.OnOutputError != nil {
		c.OnOutputError = o.OnOutputError
	}
	if o.UnprotectedInput {
		c.UnprotectedInput = true
	}
	if o.UnprotectedOutput {
		c.UnprotectedOutput = true
	}
	if o.Name != "" {
		c.Name = o.Name
	}

	return nil
}

func (c *Config) finalize() error {
	fns := append(append([]any{}, c.namedFns...), c.bareFns...)
	switch {
	case len(fns) == 0:
		return ErrMissingTarget
	case len(fns) > 1:
		return fmt.Errorf("%w: got %d", ErrMultipleTargets, len(fns))
	}

	if isNilTarget(fns[0]) {
		return ErrMissingTarget
	}
	c.target = fns[0]

	c.Tags = append(append([]string{}, c.Tags...), c.bareTags...)

	c.Properties = Properties{}
	for _, bag := range c.bags {
		for k, v := range bag {
			c.Properties[k] = v
		}
	}

	if c.TypesafeInput == nil {
		c.TypesafeInput = AlwaysPass
	}
	if c.TypesafeOutput == nil {
		c.TypesafeOutput = AlwaysPass
	}

	c.namedFns, c.bareFns, c.bareTags, c.bags = nil, nil, nil, nil

	return nil
}

func isTarget(v any) bool {
	switch v.(type) {
	case Func, AsyncFunc, *Function,
		func(context.Context, any, ...any) (any, error),
		func(context.Context, any, ...any) *Promise:
		return true
	default:
		return false
	}
}

func isNilTarget(v any) bool {
	switch t := v.(type) {
	case Func:
		return t == nil
	case AsyncFunc:
		return t == nil
	case *Function:
		return t == nil
	case func(context.Context, any, ...any) (any, error):
		return t == nil
	case func(context.Context, any, ...any) *Promise:
		return t == nil
	default:
		return true
	}
}

// WithFn sets a synchronous target.
func WithFn(fn Func) Option {
	return func(c *Config) error {
		if fn == nil {
			return ErrMissingTarget
		}
		c.namedFns = append(c.namedFns, fn)

		return nil
	}
}

// WithAsyncFn sets an asynchronous target.
func WithAsyncFn(fn AsyncFunc) Option {
	return func(c *Config) error {
		if fn == nil {
			return ErrMissingTarget
		}
		c.namedFns = append(c.namedFns, fn)

		return nil
	}
}

// WithTags appends named tags.
func WithTags(tags ...string) Option {
	return func(c *Config) error {
		c.Tags = append(c.Tags, tags...)
		return nil
	}
}

// WithInput sets the input validator factory.
func WithInput(factory ValidatorFactory) Option {
	return func(c *Config) error {
		if factory == nil {
			return fmt.Errorf("%w: typesafe_input", ErrNilValidatorFactory)
		}
		c.TypesafeInput = factory

		return nil
	}
}

// WithOutput sets the output validator factory.
func WithOutput(factory ValidatorFactory) Option {
	return func(c *Config) error {
		if factory == nil {
			return fmt.Errorf("%w: typesafe_output", ErrNilValidatorFactory)
		}
		c.TypesafeOutput = factory

		return nil
	}
}

// WithProperty adds a single property.
func WithProperty(key string, value any) Option {
	return func(c *Config) error {
		c.bags = append(c.bags, Properties{key: value})
		return nil
	}
}

// WithProperties adds a property bag.
func WithProperties(p Properties) Option {
	return func(c *Config) error {
		c.bags = append(c.bags, p)
		return nil
	}
}

func hookOption(name string, h Hook, set func(*Config)) Option {
	return func(c *Config) error {
		if h == nil {
			return fmt.Errorf("%w: %s", ErrNilHook, name)
		}
		set(c)

		return nil
	}
}

// OnEnter sets the hook called with the raw arguments before input validation.
func OnEnter(h Hook) Option {
	return hookOption(HookOnEnter, h, func(c *Config) { c.OnEnter = h })
}

// OnLeave sets the hook called with the result after output validation.
func OnLeave(h Hook) Option {
	return hookOption(HookOnLeave, h, func(c *Config) { c.OnLeave = h })
}

// OnLeaveWithError sets the hook called with the annotated error of a failed call.
func OnLeaveWithError(h Hook) Option {
	return hookOption(HookOnLeaveWithError, h, func(c *Config) { c.OnLeaveWithError = h })
}

// OnInputError sets the hook called on rejected input and on input sanitizer violations.
func OnInputError(h Hook) Option {
	return hookOption(HookOnInputError, h, func(c *Config) { c.OnInputError = h })
}

// OnOutputError sets the hook called on rejected output and on output sanitizer violations.
func OnOutputError(h Hook) Option {
	return hookOption(HookOnOutputError, h, func(c *Config) { c.OnOutputError = h })
}

// UnprotectedInput disables sanitization of arguments.
func UnprotectedInput(on bool) Option {
	return func(c *Config) error {
		c.UnprotectedInput = on
		return nil
	}
}

// UnprotectedOutput disables sanitization of results.
func UnprotectedOutput(on bool) Option {
	return func(c *Config) error {
		c.UnprotectedOutput = on
		return nil
	}
}

// WithName overrides the name derived from the target.
func WithName(name string) Option {
	return func(c *Config) error {
		c.Name = name
		return nil
	}
}

// WithLogger sets the logger for the guarded function.
// The logger will receive messages at different levels based on the logger's configured level:
//
// Debug level: call start and completion with timing
// Info level: failed calls with the failing stage
// Warn level: lifecycle hooks that failed and were ignored.
func WithLogger(logger Logger) Option {
	return func(c *Config) error {
		c.Logger = logger
		return nil
	}
}

// WithContextualLogger sets the contextual logger for the guarded function.
// It takes precedence over the logger set by WithLogger.
func WithContextualLogger(logger ContextualLogger) Option {
	return func(c *Config) error {
		c.ContextualLogger = logger
		return nil
	}
}

// WithMetrics sets the metrics collector for the guarded function.
func WithMetrics(collector MetricsCollector) Option {
	return func(c *Config) error {
		c.MetricsCollector = collector
		return nil
	}
}

// WithTracing sets the tracing collector for the guarded function.
func WithTracing(collector TracingCollector) Option {
	return func(c *Config) error {
		c.TracingCollector = collector
		return nil
	}
}

// WithSanitizer replaces the default sanitizer, sanitize.StripUndefined.
func WithSanitizer(s Sanitizer) Option {
	return func(c *Config) error {
		c.Sanitizer = s
		return nil
	}
}
