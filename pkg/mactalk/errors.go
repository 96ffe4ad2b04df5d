// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package mactalk

import (
	"errors"
	"fmt"
)

// ErrorKind classifies every failure the driver can report.
type ErrorKind int

const (
	KindUnknown ErrorKind = iota
	KindInvalidParameter
	KindOddPayload
	KindPayloadTooLarge
	KindUnknownRegister
	KindMalformedTable
	KindInvalidFrame
	KindInvalidAddress
	KindInvalidRegisterEcho
	KindInvalidComplement
	KindInvalidResponse
	KindValueOutOfRange
	KindSizeMismatch
	KindUnknownMode
	KindPositionOutOfBounds
	KindWrongMode
)

var kindNames = map[ErrorKind]string{
	KindUnknown:             "unknown",
	KindInvalidParameter:    "invalid parameter",
	KindOddPayload:          "odd payload",
	KindPayloadTooLarge:     "payload too large",
	KindUnknownRegister:     "unknown register",
	KindMalformedTable:      "malformed register table",
	KindInvalidFrame:        "invalid frame",
	KindInvalidAddress:      "invalid address",
	KindInvalidRegisterEcho: "invalid register echo",
	KindInvalidComplement:   "invalid complement",
	KindInvalidResponse:     "invalid response",
	KindValueOutOfRange:     "value out of range",
	KindSizeMismatch:        "size mismatch",
	KindUnknownMode:         "unknown mode",
	KindPositionOutOfBounds: "position out of bounds",
	KindWrongMode:           "wrong mode",
}

// String returns the human-readable kind name
func (k ErrorKind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Error is a typed driver failure. Two errors match under errors.Is when their
// kinds are equal, so the sentinels below can be used for classification.
type Error struct {
	Kind    ErrorKind
	Message string
	Details map[string]interface{}
}

// Error implements the error interface
func (e *Error) Error() string {
	if e.Message == "" {
		return "mactalk: " + e.Kind.String()
	}
	return "mactalk: " + e.Kind.String() + ": " + e.Message
}

// Is reports whether target is an *Error of the same kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

// Sentinels, one per kind
var (
	ErrInvalidParameter    = &Error{Kind: KindInvalidParameter}
	ErrOddPayload          = &Error{Kind: KindOddPayload}
	ErrPayloadTooLarge     = &Error{Kind: KindPayloadTooLarge}
	ErrUnknownRegister     = &Error{Kind: KindUnknownRegister}
	ErrMalformedTable      = &Error{Kind: KindMalformedTable}
	ErrInvalidFrame        = &Error{Kind: KindInvalidFrame}
	ErrInvalidAddress      = &Error{Kind: KindInvalidAddress}
	ErrInvalidRegisterEcho = &Error{Kind: KindInvalidRegisterEcho}
	ErrInvalidComplement   = &Error{Kind: KindInvalidComplement}
	ErrInvalidResponse     = &Error{Kind: KindInvalidResponse}
	ErrValueOutOfRange     = &Error{Kind: KindValueOutOfRange}
	ErrSizeMismatch        = &Error{Kind: KindSizeMismatch}
	ErrUnknownMode         = &Error{Kind: KindUnknownMode}
	ErrPositionOutOfBounds = &Error{Kind: KindPositionOutOfBounds}
	ErrWrongMode           = &Error{Kind: KindWrongMode}
)

// Errorf builds an *Error of the given kind with a formatted message.
func Errorf(kind ErrorKind, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// WithDetails attaches structured context to the error and returns it.
func (e *Error) WithDetails(details map[string]interface{}) *Error {
	e.Details = details
	return e
}

// KindOf returns the kind of the first *Error in err's chain, or KindUnknown.
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}
