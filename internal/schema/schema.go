// Package schema declares the static field schemas for each entity kind
// and validates request bodies against them. Schemas are fixed tables,
// not reflection over model types, so what the API accepts is explicit.
package schema

import (
	"github.com/onichmath/Tarpaulin/internal/apperr"
)

type Field struct {
	Name     string
	Required bool
}

// Schema is an ordered field declaration; validation reports the first
// missing required field in declaration order.
type Schema []Field

var (
	User = Schema{
		{Name: "name", Required: true},
		{Name: "email", Required: true},
		{Name: "password", Required: true},
		{Name: "role", Required: false},
	}

	Course = Schema{
		{Name: "subject", Required: true},
		{Name: "number", Required: true},
		{Name: "title", Required: true},
		{Name: "term", Required: true},
		{Name: "instructorId", Required: true},
	}

	Assignment = Schema{
		{Name: "courseId", Required: true},
		{Name: "title", Required: true},
		{Name: "points", Required: true},
		{Name: "due", Required: true},
	}

	Submission = Schema{
		{Name: "assignmentId", Required: false},
		{Name: "studentId", Required: false},
		{Name: "file", Required: true},
	}
)

// Validate fails with a ValidationError naming the first declared
// required field that is absent or empty on obj.
func Validate(obj map[string]interface{}, s Schema) error {
	if obj == nil {
		return apperr.Validation("The request body was either not present or did not contain all the required fields.")
	}
	for _, field := range s {
		if !field.Required {
			continue
		}
		if isEmpty(obj[field.Name]) {
			return apperr.Validation("Missing required field: " + field.Name)
		}
	}
	return nil
}

// Extract returns a new map containing only schema-declared keys present
// in obj. Unknown keys are dropped silently, which keeps client-supplied
// extras (ids, roles, grades) out of writes.
func Extract(obj map[string]interface{}, s Schema) map[string]interface{} {
	out := make(map[string]interface{}, len(s))
	for _, field := range s {
		if val, ok := obj[field.Name]; ok {
			out[field.Name] = val
		}
	}
	return out
}

func isEmpty(val interface{}) bool {
	switch v := val.(type) {
	case nil:
		return true
	case string:
		return v == ""
	case bool:
		return !v
	case float64:
		// JSON numbers decode as float64.
		return v == 0
	case int:
		return v == 0
	case []interface{}:
		return len(v) == 0
	case map[string]interface{}:
		return len(v) == 0
	default:
		return false
	}
}
