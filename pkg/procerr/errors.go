// Unified error handling for the FGF post-processor
//
// Copyright (C) 2026 FGF Postproc Authors
//
// This file may be distributed under the terms of the GNU GPLv3 license.

package procerr

import (
	"errors"
	"fmt"
)

// Code represents the category of error
type Code string

const (
	// Configuration errors
	ErrConfigOption Code = "CONFIG_OPTION"
	ErrConfigValue  Code = "CONFIG_VALUE"

	// G-code parsing errors
	ErrGCodeParse Code = "GCODE_PARSE"
	ErrGCodeParam Code = "GCODE_PARAM"

	// Validation errors
	ErrValidateVolume Code = "VALIDATE_VOLUME"
	ErrValidateIO     Code = "VALIDATE_IO"

	// Watch daemon errors
	ErrWatchIO Code = "WATCH_IO"
)

// Error is the unified error type for the post-processor
type Error struct {
	// Code is the error category
	Code Code

	// Message is a human-readable error description
	Message string

	// Line is the input line number (0 when not line-bound)
	Line int

	// Section is the profile or config section (if applicable)
	Section string

	// Option is the config option name (if applicable)
	Option string

	// Err wraps the underlying error
	Err error
}

// Error implements the error interface
func (e *Error) Error() string {
	switch {
	case e.Line > 0:
		return fmt.Sprintf("[%s] line %d: %s", e.Code, e.Line, e.Message)
	case e.Option != "" && e.Section != "":
		return fmt.Sprintf("[%s] %s.%s: %s", e.Code, e.Section, e.Option, e.Message)
	case e.Option != "":
		return fmt.Sprintf("[%s] option '%s': %s", e.Code, e.Option, e.Message)
	default:
		return fmt.Sprintf("[%s] %s", e.Code, e.Message)
	}
}

// Unwrap returns the underlying error
func (e *Error) Unwrap() error {
	return e.Err
}

// SetLine sets the input line number
func (e *Error) SetLine(line int) *Error {
	e.Line = line
	return e
}

// SetSection sets the config section
func (e *Error) SetSection(section string) *Error {
	e.Section = section
	return e
}

// SetOption sets the config option
func (e *Error) SetOption(option string) *Error {
	e.Option = option
	return e
}

// New creates a new Error
func New(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

// Wrap wraps an existing error with a category and message
func Wrap(err error, code Code, message string) *Error {
	return &Error{Code: code, Message: message, Err: err}
}

// Config errors

// ConfigOptionError creates an error for a missing config option
func ConfigOptionError(section, option string) *Error {
	return New(ErrConfigOption, fmt.Sprintf("option '%s' not found in '%s'", option, section)).
		SetSection(section).
		SetOption(option)
}

// ConfigValueError creates an error for a config value violating its constraint
func ConfigValueError(option string, value, constraint string) *Error {
	return New(ErrConfigValue, fmt.Sprintf("value %s: must be %s", value, constraint)).
		SetOption(option)
}

// ConfigChoiceError creates an error for a config value outside a closed choice set
func ConfigChoiceError(option, value string, valid []string) *Error {
	return New(ErrConfigValue, fmt.Sprintf("'%s' is not a valid choice (valid: %v)", value, valid)).
		SetOption(option)
}

// G-code errors

// ParseError creates an error for a G-code line that cannot be tokenized
func ParseError(line int, text, reason string) *Error {
	return New(ErrGCodeParse, fmt.Sprintf("cannot parse %q: %s", text, reason)).
		SetLine(line)
}

// ParamError creates an error for an invalid G-code parameter
func ParamError(line int, command, param, value string) *Error {
	return New(ErrGCodeParam, fmt.Sprintf("command '%s': invalid parameter %s%s", command, param, value)).
		SetLine(line)
}

// Validation errors

// VolumeError creates an error for a volume conservation failure
func VolumeError(message string) *Error {
	return New(ErrValidateVolume, message)
}

// Is checks if an error (or anything it wraps) matches the given code
func Is(err error, code Code) bool {
	var pe *Error
	if errors.As(err, &pe) {
		return pe.Code == code
	}
	return false
}

// IsConfig checks if an error is a configuration error
func IsConfig(err error) bool {
	return Is(err, ErrConfigOption) || Is(err, ErrConfigValue)
}

// IsParse checks if an error is a G-code parse error
func IsParse(err error) bool {
	return Is(err, ErrGCodeParse) || Is(err, ErrGCodeParam)
}

// LineOf returns the input line number carried by an error chain, or 0
func LineOf(err error) int {
	var pe *Error
	if errors.As(err, &pe) {
		return pe.Line
	}
	return 0
}
