// Copyright 2026 © The Kairos Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/jllopis/rover/pkg/errors"
)

// CLIError wraps RoverError with CLI-specific formatting and hints.
type CLIError struct {
	*errors.RoverError
	Hint string
}

// NewCLIError creates a new CLI error.
func NewCLIError(re *errors.RoverError, hint string) *CLIError {
	return &CLIError{
		RoverError: re,
		Hint:       hint,
	}
}

// Error returns the formatted error message with hints.
func (e *CLIError) Error() string {
	if e.RoverError == nil {
		return "unknown error"
	}

	msg := e.RoverError.Error()
	if e.Hint != "" {
		msg += "\n  Hint: " + e.Hint
	}
	return msg
}

// Unwrap exposes the RoverError for errors.Is and errors.As.
func (e *CLIError) Unwrap() error {
	if e.RoverError == nil {
		return nil
	}
	return e.RoverError
}

// PrintError prints the error to stderr.
func (e *CLIError) PrintError(asJSON bool) {
	e.writeTo(os.Stderr, asJSON)
}

func (e *CLIError) writeTo(w io.Writer, asJSON bool) {
	if asJSON {
		payload := map[string]map[string]string{
			"error": {
				"code":    string(e.RoverError.Code),
				"message": e.RoverError.Error(),
				"hint":    e.Hint,
			},
		}
		_ = json.NewEncoder(w).Encode(payload)
		return
	}

	fmt.Fprintf(w, "Error [%s]: %s\n", FormatErrorCode(e.RoverError.Code), e.RoverError.Error())
	if e.Hint != "" {
		fmt.Fprintf(w, "  Hint: %s\n", e.Hint)
	}
}

// NewInvalidArgumentError creates an invalid argument error with CLI hints.
func NewInvalidArgumentError(arg, reason string) *CLIError {
	re := errors.New(errors.CodeInvalidInput, fmt.Sprintf("invalid argument: %s", reason), nil).
		WithContext("argument", arg).
		WithContext("reason", reason).
		WithRecoverable(false)
	return NewCLIError(re, "run 'rover help' for usage information")
}

// NewConfigError creates a configuration error with CLI hints.
func NewConfigError(err error, configPath string) *CLIError {
	re := errors.New(errors.CodeInvalidInput, "configuration error", err).
		WithContext("config_path", configPath).
		WithRecoverable(false)

	hint := "check the values passed with --set and ROVER_ environment variables"
	if configPath != "" {
		hint = fmt.Sprintf("check %s for syntax errors", configPath)
	}
	return NewCLIError(re, hint)
}

// NewPlanError creates a plan document error with CLI hints.
func NewPlanError(err error, path string) *CLIError {
	re := errors.AsRoverError(err).WithContext("plans_path", path)
	return NewCLIError(re, "a plan document needs plans: {goal: [{when, then, kind}]}")
}

// NewRunError wraps a failed simulation with a hint matching its cause.
func NewRunError(err error) *CLIError {
	re := errors.New(errors.CodeOf(err), "simulation failed", err)
	hint := ""
	switch re.Code {
	case errors.CodeMissingPerception:
		hint = "a condition or decision reads a perception the rover does not produce"
	case errors.CodeUnknownCondition, errors.CodeUnknownDecision:
		hint = "check the condition and decision names in the plan document"
	case errors.CodePlanCycle:
		hint = "a goal delegates to itself; raise sim.max_depth only for very deep libraries"
	}
	return NewCLIError(re, hint)
}

// PrintSimpleError prints a simple error message (for non-RoverError cases).
func PrintSimpleError(err error, asJSON bool) {
	if asJSON {
		_ = json.NewEncoder(os.Stderr).Encode(map[string]map[string]string{
			"error": {"code": "UNKNOWN", "message": err.Error()},
		})
		return
	}
	fmt.Fprintf(os.Stderr, "Error: %s\n", err.Error())
}

// FormatErrorCode returns a user-friendly name for error codes.
func FormatErrorCode(code errors.ErrorCode) string {
	switch code {
	case errors.CodeInternal:
		return "Internal Error"
	case errors.CodeInvalidInput:
		return "Invalid Input"
	case errors.CodeNotFound:
		return "Not Found"
	case errors.CodeMissingPerception:
		return "Missing Perception"
	case errors.CodeInvalidRuleCount:
		return "Invalid Rule Count"
	case errors.CodeUnknownCondition:
		return "Unknown Condition"
	case errors.CodeUnknownDecision:
		return "Unknown Decision"
	case errors.CodePlanCycle:
		return "Plan Cycle"
	default:
		return string(code)
	}
}
