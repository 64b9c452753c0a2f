package schema

import (
	"encoding/json"
	"fmt"
	"strings"
)

// FieldError describes one invalid field.
type FieldError struct {
	Path    string
	Message string
}

func (e *FieldError) Error() string {
	if e.Path == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Path, e.Message)
}

// FieldErrors collects all invalid fields found during validation.
type FieldErrors []*FieldError

func (e FieldErrors) Error() string {
	if len(e) == 1 {
		return e[0].Error()
	}
	msgs := make([]string, len(e))
	for i, err := range e {
		msgs[i] = err.Error()
	}
	return "validation failed: " + strings.Join(msgs, "; ")
}

// Validate checks raw JSON against the schema. It returns nil when the
// data conforms, or FieldErrors listing every violation.
func (s *Schema) Validate(data json.RawMessage) error {
	var value any
	if err := json.Unmarshal(data, &value); err != nil {
		return &FieldError{Message: fmt.Sprintf("invalid JSON: %s", err)}
	}

	var errs FieldErrors
	s.check("", value, &errs)
	if len(errs) > 0 {
		return errs
	}
	return nil
}

func (s *Schema) check(path string, value any, errs *FieldErrors) {
	if value == nil {
		// Absence of required fields is reported at the object level.
		return
	}

	switch s.Type {
	case typeObject:
		s.checkObject(path, value, errs)
	case typeArray:
		s.checkArray(path, value, errs)
	case typeString:
		s.checkString(path, value, errs)
	case typeInteger:
		if num, ok := asNumber(value); !ok || num != float64(int64(num)) {
			appendErr(errs, path, fmt.Sprintf("expected integer, got %v", value))
		}
	case typeNumber:
		if _, ok := asNumber(value); !ok {
			appendErr(errs, path, fmt.Sprintf("expected number, got %T", value))
		}
	case typeBoolean:
		if _, ok := value.(bool); !ok {
			appendErr(errs, path, fmt.Sprintf("expected boolean, got %T", value))
		}
	}
}

func (s *Schema) checkObject(path string, value any, errs *FieldErrors) {
	obj, ok := value.(map[string]any)
	if !ok {
		appendErr(errs, path, fmt.Sprintf("expected object, got %T", value))
		return
	}

	for _, req := range s.Required {
		if _, exists := obj[req]; !exists {
			appendErr(errs, joinPath(path, req), "required field is missing")
		}
	}

	for name, prop := range s.Properties {
		if v, exists := obj[name]; exists {
			prop.check(joinPath(path, name), v, errs)
		}
	}
}

func (s *Schema) checkArray(path string, value any, errs *FieldErrors) {
	arr, ok := value.([]any)
	if !ok {
		appendErr(errs, path, fmt.Sprintf("expected array, got %T", value))
		return
	}
	if s.Items == nil {
		return
	}
	for i, item := range arr {
		s.Items.check(fmt.Sprintf("%s[%d]", path, i), item, errs)
	}
}

func (s *Schema) checkString(path string, value any, errs *FieldErrors) {
	str, ok := value.(string)
	if !ok {
		appendErr(errs, path, fmt.Sprintf("expected string, got %T", value))
		return
	}
	if len(s.Enum) == 0 {
		return
	}
	for _, e := range s.Enum {
		if e == str {
			return
		}
	}
	appendErr(errs, path, fmt.Sprintf("value must be one of: %v", s.Enum))
}

func asNumber(value any) (float64, bool) {
	switch v := value.(type) {
	case float64:
		return v, true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	default:
		return 0, false
	}
}

func appendErr(errs *FieldErrors, path, msg string) {
	*errs = append(*errs, &FieldError{Path: path, Message: msg})
}

func joinPath(base, field string) string {
	if base == "" {
		return field
	}
	return base + "." + field
}
