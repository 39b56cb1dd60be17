// Package schema defines the validator contract used by guarded functions and the handful of
// combinators the validation bridge composes.
//
// It is deliberately not a schema language. Richer engines plug in through the same contract:
//   - jsonschemavalidator: JSON Schema documents
//   - celvalidator: CEL boolean expressions
//
// Key types:
//   - Validator: Validate(value) bool, the only required method
//   - Tracer: optional Trace(value) []Issue for rich reports
//   - Issue: a path plus a message
//
// Combinators:
//
//	schema.Either(v, schema.ArrayOf(v))       // whole list or every element
//	schema.Tuple(schema.Number(), schema.String())
//	schema.Describe("positive", schema.Func("n>0", isPositive))
package schema
