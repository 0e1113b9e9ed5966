package fcc

import "fmt"

// ParseError reports a single malformed record. The batch continues; the
// caller counts these.
type ParseError struct {
	Line   int
	Record string
	Reason string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse line %d: %s", e.Line, e.Reason)
}

// ValidationError reports a parsed record whose normalized value falls
// outside the schema's domain constraints.
type ValidationError struct {
	CallSign string
	Field    string
	Reason   string
}

func (e *ValidationError) Error() string {
	if e.CallSign != "" {
		return fmt.Sprintf("validate %s: %s: %s", e.CallSign, e.Field, e.Reason)
	}
	return fmt.Sprintf("validate: %s: %s", e.Field, e.Reason)
}
