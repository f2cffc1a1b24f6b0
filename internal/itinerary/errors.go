package itinerary

import "fmt"

// ValidationError reports input or model output that failed a structural or
// domain check. Payload carries the offending value for diagnostics.
type ValidationError struct {
	Message string
	Payload any
	Err     error
}

func (e *ValidationError) Error() string {
	return e.Message
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

func invalidInput(message string, payload any) *ValidationError {
	return &ValidationError{Message: message, Payload: payload, Err: ErrInvalidInput}
}

// ResponseParseError reports a model response that is not valid JSON.
type ResponseParseError struct {
	Message string
	Raw     string
	Err     error
}

func (e *ResponseParseError) Error() string {
	if e.Err == nil {
		return e.Message
	}
	return fmt.Sprintf("%s: %v", e.Message, e.Err)
}

func (e *ResponseParseError) Unwrap() error {
	return e.Err
}

// ServiceError is the pipeline-level failure returned to callers of Generate
// and GenerateSingleActivity.
type ServiceError struct {
	Message string
	Err     error
}

func (e *ServiceError) Error() string {
	if e.Err == nil {
		return e.Message
	}
	return fmt.Sprintf("%s: %v", e.Message, e.Err)
}

func (e *ServiceError) Unwrap() error {
	return e.Err
}
