package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidInput marks a missing or malformed required field.
	ErrInvalidInput = errors.New("invalid input")
	// ErrNoNewsFound is the domain condition of an empty news fetch.
	ErrNoNewsFound = errors.New("no news found")
)

// Condition codes reported to API callers.
const (
	CodeInvalidInput        = "invalid_input"
	CodeNoNewsFound         = "no_news_found"
	CodeCollaboratorFailure = "collaborator_failure"
	CodeInternal            = "internal"
)

// InputError describes why a request was rejected before any collaborator call.
type InputError struct {
	Field  string
	Reason string
}

// InvalidInput builds an InputError.
func InvalidInput(field, reason string) error {
	return &InputError{Field: field, Reason: reason}
}

func (e *InputError) Error() string {
	return e.Reason
}

func (e *InputError) Is(target error) bool {
	return target == ErrInvalidInput
}

// NoNewsError reports that the news provider returned nothing for a city.
type NoNewsError struct {
	City string
}

// NoNewsFound builds a NoNewsError.
func NoNewsFound(city string) error {
	return &NoNewsError{City: city}
}

func (e *NoNewsError) Error() string {
	return fmt.Sprintf("No local news found for %s", e.City)
}

func (e *NoNewsError) Is(target error) bool {
	return target == ErrNoNewsFound
}

// CollaboratorError wraps a failure of the news, script or speech provider.
type CollaboratorError struct {
	Stage string
	Err   error
}

// CollaboratorFailure wraps err with the pipeline stage it happened in.
func CollaboratorFailure(stage string, err error) error {
	return &CollaboratorError{Stage: stage, Err: err}
}

func (e *CollaboratorError) Error() string {
	return fmt.Sprintf("%s: %v", e.Stage, e.Err)
}

func (e *CollaboratorError) Unwrap() error {
	return e.Err
}

// Code classifies err into one of the condition codes.
func Code(err error) string {
	var collab *CollaboratorError
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrInvalidInput):
		return CodeInvalidInput
	case errors.Is(err, ErrNoNewsFound):
		return CodeNoNewsFound
	case errors.As(err, &collab):
		return CodeCollaboratorFailure
	default:
		return CodeInternal
	}
}
