// Package schema validates artifact documents against the JSON Schema
// registered for their (type, schema_version) pair. Schemas are
// embedded in the binary and are permissive by default: unknown fields
// never fail validation, only missing required fields, wrong types, and
// wrong enum values do.
package schema
