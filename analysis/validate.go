package analysis

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// ErrMalformedResponse is matched by every error returned from Validate.
var ErrMalformedResponse = errors.New("malformed analysis response")

// ValidationError describes why a raw model answer was rejected.
type ValidationError struct {
	Field  string // empty when the whole payload is rejected
	Reason string
	Err    error
}

func (e *ValidationError) Error() string {
	msg := "analysis validation failed: " + e.Reason
	if e.Field != "" {
		msg = fmt.Sprintf("analysis validation failed: %s: %s", e.Field, e.Reason)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

// Is lets callers match any validation failure with ErrMalformedResponse.
func (e *ValidationError) Is(target error) bool {
	return target == ErrMalformedResponse
}

func fieldError(field, reason string) *ValidationError {
	return &ValidationError{Field: field, Reason: reason}
}

// Validate parses raw model output into a Result. It fails when raw is not
// JSON, is not a JSON object, or when any field breaks its rule. Field values
// are returned trimmed. Validate does no I/O.
func Validate(raw string) (Result, error) {
	var parsed interface{}
	if err := json.Unmarshal([]byte(raw), &parsed); err != nil {
		return Result{}, &ValidationError{Reason: "malformed JSON", Err: err}
	}

	obj, ok := parsed.(map[string]interface{})
	if !ok {
		return Result{}, &ValidationError{Reason: fmt.Sprintf("invalid response shape: expected object, got %s", jsonKind(parsed))}
	}

	timeValue, err := stringField(obj, "time")
	if err != nil {
		return Result{}, err
	}
	spaceValue, err := stringField(obj, "space")
	if err != nil {
		return Result{}, err
	}
	explanation, err := stringField(obj, "explanation")
	if err != nil {
		return Result{}, err
	}

	result := Result{
		Time:        strings.TrimSpace(timeValue),
		Space:       strings.TrimSpace(spaceValue),
		Explanation: strings.TrimSpace(explanation),
	}
	if err := result.Check(); err != nil {
		return Result{}, err
	}
	return result, nil
}

func stringField(obj map[string]interface{}, name string) (string, error) {
	value, ok := obj[name]
	if !ok {
		return "", fieldError(name, "missing")
	}
	s, ok := value.(string)
	if !ok {
		return "", fieldError(name, "expected string, got "+jsonKind(value))
	}
	return s, nil
}

func jsonKind(v interface{}) string {
	switch v.(type) {
	case nil:
		return "null"
	case bool:
		return "boolean"
	case float64:
		return "number"
	case string:
		return "string"
	case []interface{}:
		return "array"
	case map[string]interface{}:
		return "object"
	default:
		return fmt.Sprintf("%T", v)
	}
}
