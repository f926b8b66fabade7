/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package command

import (
	"github.com/hyperledger/aries-framework-go/component/anoncreds/pkg/common/anonerr"
)

// Type is command error type.
type Type int32

const (
	// ValidationError is error type for command validation errors.
	ValidationError Type = iota

	// ExecuteError is error type for command execution failure.
	ExecuteError

	// NotFoundError is error type for commands reading something that does not exist.
	NotFoundError

	// ConflictError is error type for commands that conflict with already published state.
	ConflictError
)

// Code is the error code of command errors.
type Code int32

const (
	// UnknownStatus default error code for unknown errors.
	UnknownStatus Code = iota
)

// Group is the error groups.
// Note: recommended to use [0-9]*000 pattern for any new entries
// Example: 2000, 3000, 4000 ...... 25000.
type Group int32

const (
	// Common error group for general command errors.
	Common Group = 1000

	// Registry error group for anoncreds registry command errors.
	Registry Group = 2000
)

// Error is the  interface for representing an command error condition, with the nil value representing no error.
type Error interface {
	error
	// Code returns error code for this command error.
	Code() Code
	// Type returns error type for this command error.
	Type() Type
}

// NewValidationError returns new command validation error.
func NewValidationError(code Code, err error) Error {
	return &commandError{err, code, ValidationError}
}

// NewExecuteError returns new command execute error.
func NewExecuteError(code Code, err error) Error {
	return &commandError{err, code, ExecuteError}
}

// FromAnoncreds converts an anoncreds error into a command error of group. The command code is the group plus
// the anoncreds code, the type follows the anoncreds kind.
func FromAnoncreds(group Group, err error) Error {
	code := anonerr.CodeOf(err)

	errType := ExecuteError

	switch {
	case code == anonerr.NotFound, code == anonerr.MissingTailsData, code == anonerr.TimestampOutOfRange:
		errType = NotFoundError
	case code.Kind() == anonerr.ValidationError:
		errType = ValidationError
	case code.Kind() == anonerr.ConsistencyError:
		errType = ConflictError
	}

	return &commandError{err, Code(group) + Code(code), errType}
}

// commandError implements basic command Error.
type commandError struct {
	error
	code    Code
	errType Type
}

func (c *commandError) Code() Code {
	return c.code
}

func (c *commandError) Type() Type {
	return c.errType
}

func (c *commandError) Unwrap() error {
	return c.error
}
