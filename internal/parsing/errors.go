// Package parsing recovers a structured DecisionResult from the lead
// partner's raw output, tolerating malformed model text.
package parsing

import "fmt"

// ParseError reports a recoverable failure of one extraction strategy.
type ParseError struct {
	Strategy string
	Message  string
	Cause    error
}

func (e *ParseError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Strategy, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Strategy, e.Message)
}

func (e *ParseError) Unwrap() error {
	return e.Cause
}
