// Package jsonschemavalidator adapts JSON Schema (draft 2020-12) documents to the validator contract of
// guarded functions.
//
// Values are normalized to their JSON representation before validation, so typed structs are checked
// through their json tags. Rejections are traced per failing keyword, with JSON pointers as issue paths.
package jsonschemavalidator

import (
	"errors"
	"fmt"
	"strings"

	jsoniter "github.com/json-iterator/go"
	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/kombucha-js/runtime-typesafety/typesafe"
	"github.com/kombucha-js/runtime-typesafety/typesafe/schema"
)

const resourceBase = "https://typesafe.local/schemas/"

var json = jsoniter.Config{
	EscapeHTML:             true,
	SortMapKeys:            true,
	ValidateJsonRawMessage: true,
	UseNumber:              true,
}.Froze()

// Validator checks values against a compiled JSON Schema.
type Validator struct {
	name   string
	schema *jsonschema.Schema
}

// Compile compiles src as a draft 2020-12 JSON Schema. The name identifies the schema in reports.
func Compile(name, src string) (*Validator, error) {
	c := jsonschema.NewCompiler()
	c.Draft = jsonschema.Draft2020

	url := resourceBase + name + ".schema.json"
	if err := c.AddResource(url, strings.NewReader(src)); err != nil {
		return nil, fmt.Errorf("jsonschemavalidator: load %s: %w", name, err)
	}

	compiled, err := c.Compile(url)
	if err != nil {
		return nil, fmt.Errorf("jsonschemavalidator: compile %s: %w", name, err)
	}

	return &Validator{name: name, schema: compiled}, nil
}

// MustCompile is like Compile but panics if the schema does not compile.
func MustCompile(name, src string) *Validator {
	v, err := Compile(name, src)
	if err != nil {
		panic(err)
	}

	return v
}

// Factory returns a ValidatorFactory yielding v.
func Factory(v *Validator) typesafe.ValidatorFactory {
	return func() typesafe.Validator {
		return v
	}
}

// Validate implements schema.Validator.
func (v *Validator) Validate(value any) bool {
	return v.validate(value) == nil
}

// Trace implements schema.Tracer. Every failing leaf keyword yields one Issue.
func (v *Validator) Trace(value any) []schema.Issue {
	err := v.validate(value)
	if err == nil {
		return nil
	}

	var validationErr *jsonschema.ValidationError
	if !errors.As(err, &validationErr) {
		return []schema.Issue{{Message: err.Error()}}
	}

	return leaves(validationErr)
}

func (v *Validator) String() string {
	return "jsonschema(" + v.name + ")"
}

func (v *Validator) validate(value any) error {
	doc, err := normalize(value)
	if err != nil {
		return err
	}

	return v.schema.Validate(doc)
}

func normalize(value any) (any, error) {
	raw, err := json.Marshal(value)
	if err != nil {
		return nil, fmt.Errorf("value cannot be represented as JSON: %w", err)
	}

	var doc any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("value cannot be represented as JSON: %w", err)
	}

	return doc, nil
}

func leaves(e *jsonschema.ValidationError) []schema.Issue {
	if len(e.Causes) == 0 {
		return []schema.Issue{{Path: e.InstanceLocation, Message: e.Message}}
	}

	var issues []schema.Issue
	for _, cause := range e.Causes {
		issues = append(issues, leaves(cause)...)
	}

	return issues
}
