package mango

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrNotFound is returned when a document is not found.
	ErrNotFound = errors.New("mango: document not found")

	// ErrNoDatabase is returned when no database connection is available.
	ErrNoDatabase = errors.New("mango: no database connection (call Setup or Connect first)")

	// ErrAlreadySetup is returned by Setup when a database handle is
	// already bound for the process.
	ErrAlreadySetup = errors.New("mango: already configured")

	// ErrNoID is returned by Delete when the model has a zero identifier.
	ErrNoID = errors.New("mango: document has no identifier")
)

// DriftError indicates a field exists in the database but not in the schema.
type DriftError struct {
	Collection string
	Field      string
	Message    string
}

func (e *DriftError) Error() string {
	return fmt.Sprintf("drift in %s.%s: %s", e.Collection, e.Field, e.Message)
}

// EnforcementError indicates a schema enforcement failure (e.g., missing index).
type EnforcementError struct {
	Collection string
	Message    string
}

func (e *EnforcementError) Error() string {
	return fmt.Sprintf("enforcement error on %s: %s", e.Collection, e.Message)
}

// ValidationError indicates a field was given a value its declaration rejects.
// Model is the owning model name, Field the dotted field path, Value the
// rejected value.
type ValidationError struct {
	Model  string
	Field  string
	Value  interface{}
	Reason string
}

func (e ValidationError) Error() string {
	if e.Reason == "" {
		return fmt.Sprintf("%s: cannot set %s <- %v", e.Model, e.Field, e.Value)
	}
	return fmt.Sprintf("%s: cannot set %s <- %v (%s)", e.Model, e.Field, e.Value, e.Reason)
}

// ValidationErrors is a slice of ValidationError that implements error.
type ValidationErrors []ValidationError

func (ve ValidationErrors) Error() string {
	msgs := make([]string, len(ve))
	for i, e := range ve {
		msgs[i] = e.Error()
	}
	return strings.Join(msgs, "; ")
}
