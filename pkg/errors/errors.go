// Copyright 2026 © The Kairos Authors
// SPDX-License-Identifier: Apache-2.0

// Package errors provides typed error handling with rich context for the rover
// planner and simulation loop.
package errors

import (
	"encoding/json"
	stderrors "errors"
	"fmt"
)

// ErrorCode classifies rover errors for logging and metrics.
type ErrorCode string

const (
	// CodeInternal indicates an internal system error.
	CodeInternal ErrorCode = "INTERNAL_ERROR"

	// CodeInvalidInput indicates the input was invalid (config, plan documents).
	CodeInvalidInput ErrorCode = "INVALID_INPUT"

	// CodeNotFound indicates a resource was not found.
	CodeNotFound ErrorCode = "NOT_FOUND"

	// CodeMissingPerception indicates a condition or decision read a key
	// absent from the perception snapshot.
	CodeMissingPerception ErrorCode = "MISSING_PERCEPTION"

	// CodeInvalidRuleCount indicates a negative rule count for a random plan.
	CodeInvalidRuleCount ErrorCode = "INVALID_RULE_COUNT"

	// CodeUnknownCondition indicates a rule names a condition nobody registered.
	CodeUnknownCondition ErrorCode = "UNKNOWN_CONDITION"

	// CodeUnknownDecision indicates a rule names a decision nobody registered.
	CodeUnknownDecision ErrorCode = "UNKNOWN_DECISION"

	// CodePlanCycle indicates goal delegation exceeded the resolver depth limit.
	CodePlanCycle ErrorCode = "PLAN_CYCLE"
)

// RoverError is a typed error with rich context for observability.
// It implements the error interface and can be unwrapped with errors.As().
type RoverError struct {
	Code        ErrorCode
	Message     string
	Err         error
	Context     map[string]interface{}
	Attributes  map[string]string
	Recoverable bool
}

// Error implements the error interface.
func (e *RoverError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap implements errors.Unwrap for error chain traversal.
func (e *RoverError) Unwrap() error {
	return e.Err
}

// Is reports whether target is a RoverError carrying the same code.
// This lets callers match on a sentinel such as ErrMissingPerception.
func (e *RoverError) Is(target error) bool {
	t, ok := target.(*RoverError)
	if !ok {
		return false
	}
	return t.Code == e.Code && t.Message == ""
}

// MarshalJSON implements json.Marshaler for structured logging.
func (e *RoverError) MarshalJSON() ([]byte, error) {
	cause := ""
	if e.Err != nil {
		cause = e.Err.Error()
	}
	return json.Marshal(&struct {
		Code        string                 `json:"code"`
		Message     string                 `json:"message"`
		Err         string                 `json:"error,omitempty"`
		Context     map[string]interface{} `json:"context,omitempty"`
		Recoverable bool                   `json:"recoverable"`
	}{
		Code:        string(e.Code),
		Message:     e.Error(),
		Err:         cause,
		Context:     e.Context,
		Recoverable: e.Recoverable,
	})
}

// Sentinels for errors.Is matching by code.
var (
	ErrMissingPerception = &RoverError{Code: CodeMissingPerception}
	ErrInvalidRuleCount  = &RoverError{Code: CodeInvalidRuleCount}
	ErrUnknownCondition  = &RoverError{Code: CodeUnknownCondition}
	ErrUnknownDecision   = &RoverError{Code: CodeUnknownDecision}
	ErrPlanCycle         = &RoverError{Code: CodePlanCycle}
)

// New creates a new RoverError with the given code, message, and cause.
func New(code ErrorCode, msg string, cause error) *RoverError {
	return &RoverError{
		Code:       code,
		Message:    msg,
		Err:        cause,
		Context:    make(map[string]interface{}),
		Attributes: make(map[string]string),
	}
}

// MissingPerception reports that key is absent from the snapshot.
func MissingPerception(key string) *RoverError {
	return New(CodeMissingPerception, fmt.Sprintf("perception %q not in snapshot", key), nil).
		WithContext("key", key).
		WithAttribute("perception.key", key)
}

// WithContext adds a key-value pair to the error context.
// Returns the error for method chaining.
func (e *RoverError) WithContext(key string, value interface{}) *RoverError {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value
	return e
}

// WithAttribute adds a string attribute for OTEL traces.
// Returns the error for method chaining.
func (e *RoverError) WithAttribute(key, value string) *RoverError {
	if e.Attributes == nil {
		e.Attributes = make(map[string]string)
	}
	e.Attributes[key] = value
	return e
}

// WithRecoverable sets whether the error can be recovered from.
// Returns the error for method chaining.
func (e *RoverError) WithRecoverable(recoverable bool) *RoverError {
	e.Recoverable = recoverable
	return e
}

// AsRoverError attempts to convert an error to a RoverError.
// Returns the error as RoverError if one is in the chain, or wraps it otherwise.
func AsRoverError(err error) *RoverError {
	if err == nil {
		return nil
	}
	var re *RoverError
	if stderrors.As(err, &re) {
		return re
	}
	return New(CodeInternal, "wrapped error", err)
}

// CodeOf returns the code of the first RoverError in the chain, or CodeInternal.
func CodeOf(err error) ErrorCode {
	var re *RoverError
	if stderrors.As(err, &re) {
		return re.Code
	}
	return CodeInternal
}

// RecoverableString returns "true" or "false" as a string for observability.
func (e *RoverError) RecoverableString() string {
	if e.Recoverable {
		return "true"
	}
	return "false"
}
