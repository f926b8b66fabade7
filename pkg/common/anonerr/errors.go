/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package anonerr defines the tagged error taxonomy shared by the anoncreds issuer, prover and verifier
// services, the revocation accumulator engine and the tails store.
//
// Every error surfaced by those components carries a Kind (what class of failure it is) and a Code (why it
// happened). Callers inspect them with errors.Is against the sentinel values below or with KindOf/CodeOf.
package anonerr

import (
	"errors"
	"fmt"
)

// Kind is the class of an anoncreds error.
type Kind int32

const (
	// UnknownKind is reported for errors that did not originate from this module.
	UnknownKind Kind = iota

	// ValidationError is a malformed identifier, restriction or request. The caller can fix it.
	ValidationError

	// ConsistencyError indicates protocol misuse: index reuse, non-monotonic timestamps, partial batches.
	ConsistencyError

	// CryptoError is an opaque failure from the crypto capability.
	CryptoError

	// StorageError is missing or corrupt tails data, or a failing store. It is never retried.
	StorageError

	// ProtocolError is a nonce mismatch, an unsatisfied request or a timestamp out of range.
	ProtocolError
)

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case ValidationError:
		return "ValidationError"
	case ConsistencyError:
		return "ConsistencyError"
	case CryptoError:
		return "CryptoError"
	case StorageError:
		return "StorageError"
	case ProtocolError:
		return "ProtocolError"
	default:
		return "UnknownError"
	}
}

// Code is the reason code of an anoncreds error.
// Note: codes are grouped per kind using the [0-9]*00 pattern.
type Code int32

// UnknownStatus default code for unknown errors.
const UnknownStatus Code = 0

// Validation codes.
// nolint:gomnd
const (
	InvalidIdentifier Code = 100 + iota
	InvalidRestriction
	InvalidRequest
	InvalidAttribute
)

// Consistency codes.
// nolint:gomnd
const (
	IndexExhausted Code = 200 + iota
	InvalidIndex
	InvalidTimestamp
	BatchApplicationError
	CredentialDefinitionMismatch
	CredentialRevoked
)

// Crypto codes.
// nolint:gomnd
const (
	CryptoFailure Code = 300 + iota
	InvalidProof
)

// Storage codes.
// nolint:gomnd
const (
	MissingTailsData Code = 400 + iota
	CorruptTailsData
	NotFound
	StorageFailure
)

// Protocol codes.
// nolint:gomnd
const (
	NonceMismatch Code = 500 + iota
	UnsatisfiedRequest
	TimestampOutOfRange
	NoMatchingCredential
)

// nolint:gochecknoglobals
var codeNames = map[Code]string{
	UnknownStatus:                "UnknownStatus",
	InvalidIdentifier:            "InvalidIdentifier",
	InvalidRestriction:           "InvalidRestriction",
	InvalidRequest:               "InvalidRequest",
	InvalidAttribute:             "InvalidAttribute",
	IndexExhausted:               "IndexExhausted",
	InvalidIndex:                 "InvalidIndex",
	InvalidTimestamp:             "InvalidTimestamp",
	BatchApplicationError:        "BatchApplicationError",
	CredentialDefinitionMismatch: "CredentialDefinitionMismatch",
	CredentialRevoked:            "CredentialRevoked",
	CryptoFailure:                "CryptoFailure",
	InvalidProof:                 "InvalidProof",
	MissingTailsData:             "MissingTailsData",
	CorruptTailsData:             "CorruptTailsData",
	NotFound:                     "NotFound",
	StorageFailure:               "StorageFailure",
	NonceMismatch:                "NonceMismatch",
	UnsatisfiedRequest:           "UnsatisfiedRequest",
	TimestampOutOfRange:          "TimestampOutOfRange",
	NoMatchingCredential:         "NoMatchingCredential",
}

// String returns the code name.
func (c Code) String() string {
	if name, ok := codeNames[c]; ok {
		return name
	}

	return fmt.Sprintf("Code(%d)", int32(c))
}

// Kind returns the kind a code belongs to.
func (c Code) Kind() Kind {
	switch c / 100 { // nolint:gomnd
	case 1:
		return ValidationError
	case 2: // nolint:gomnd
		return ConsistencyError
	case 3: // nolint:gomnd
		return CryptoError
	case 4: // nolint:gomnd
		return StorageError
	case 5: // nolint:gomnd
		return ProtocolError
	default:
		return UnknownKind
	}
}

// Sentinel errors, one per code. Match them with errors.Is.
// nolint:gochecknoglobals
var (
	ErrInvalidIdentifier            = &Error{code: InvalidIdentifier}
	ErrInvalidRestriction           = &Error{code: InvalidRestriction}
	ErrInvalidRequest               = &Error{code: InvalidRequest}
	ErrInvalidAttribute             = &Error{code: InvalidAttribute}
	ErrIndexExhausted               = &Error{code: IndexExhausted}
	ErrInvalidIndex                 = &Error{code: InvalidIndex}
	ErrInvalidTimestamp             = &Error{code: InvalidTimestamp}
	ErrBatchApplication             = &Error{code: BatchApplicationError}
	ErrCredentialDefinitionMismatch = &Error{code: CredentialDefinitionMismatch}
	ErrCredentialRevoked            = &Error{code: CredentialRevoked}
	ErrCryptoFailure                = &Error{code: CryptoFailure}
	ErrInvalidProof                 = &Error{code: InvalidProof}
	ErrMissingTailsData             = &Error{code: MissingTailsData}
	ErrCorruptTailsData             = &Error{code: CorruptTailsData}
	ErrNotFound                     = &Error{code: NotFound}
	ErrStorageFailure               = &Error{code: StorageFailure}
	ErrNonceMismatch                = &Error{code: NonceMismatch}
	ErrUnsatisfiedRequest           = &Error{code: UnsatisfiedRequest}
	ErrTimestampOutOfRange          = &Error{code: TimestampOutOfRange}
	ErrNoMatchingCredential         = &Error{code: NoMatchingCredential}
)

// Error is a tagged anoncreds error. It wraps the underlying cause, if any.
type Error struct {
	code Code
	msg  string
	err  error
}

// New returns an error with the given code and a formatted message.
func New(code Code, format string, args ...interface{}) *Error {
	return &Error{code: code, msg: fmt.Sprintf(format, args...)}
}

// Wrap tags err with the given code. Wrapping an error that already carries the same code returns it unchanged.
func Wrap(code Code, err error, format string, args ...interface{}) *Error {
	var e *Error
	if errors.As(err, &e) && e.code == code && format == "" {
		return e
	}

	return &Error{code: code, msg: fmt.Sprintf(format, args...), err: err}
}

// Code returns the reason code.
func (e *Error) Code() Code {
	return e.code
}

// Kind returns the error class.
func (e *Error) Kind() Kind {
	return e.code.Kind()
}

func (e *Error) Error() string {
	prefix := e.code.Kind().String() + "(" + e.code.String() + ")"

	switch {
	case e.msg != "" && e.err != nil:
		return prefix + ": " + e.msg + ": " + e.err.Error()
	case e.msg != "":
		return prefix + ": " + e.msg
	case e.err != nil:
		return prefix + ": " + e.err.Error()
	default:
		return prefix
	}
}

// Unwrap returns the cause.
func (e *Error) Unwrap() error {
	return e.err
}

// Is reports whether target is an anoncreds error with the same code.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}

	return t.code == e.code
}

// CodeOf returns the code of the outermost anoncreds error in err's chain.
func CodeOf(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.code
	}

	return UnknownStatus
}

// KindOf returns the kind of the outermost anoncreds error in err's chain.
func KindOf(err error) Kind {
	return CodeOf(err).Kind()
}

// Guard runs fn and converts a panic raised inside it into a CryptoFailure error.
func Guard(fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = New(CryptoFailure, "unexpected fault: %v", r)
		}
	}()

	return fn()
}
