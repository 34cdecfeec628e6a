// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package program

import (
	"errors"
	"fmt"
)

// Status is the code a host reports for the outcome of an instruction.
//
//	Code                    | Number | Description
//	------------------------|--------|------------------------------------------
//	OK                      |  0     | The instruction succeeded.
//	Unknown                 |  1     | The error is not a program error.
//	MissingAccount          |  2     | Fewer accounts than the program requires.
//	Unauthorized            |  3     | The account is not owned by the program.
//	MalformedRecord         |  4     | The account data could not be decoded.
//	EncodingFailure         |  5     | The account data could not be written back.
//	InvalidInstructionData  |  6     | The instruction payload could not be decoded.
//	MissingSignature        |  7     | A required signer did not sign.
//	AccountAlreadyInUse     |  8     | The account to create already exists.
//	InvalidSeeds            |  9     | The derived address does not match.
//	InvalidAccountDataSize  |  10    | The requested account size is out of bounds.
type Status uint8

const (
	StatusOK Status = iota
	StatusUnknown
	StatusMissingAccount
	StatusUnauthorized
	StatusMalformedRecord
	StatusEncodingFailure
	StatusInvalidInstructionData
	StatusMissingSignature
	StatusAccountAlreadyInUse
	StatusInvalidSeeds
	StatusInvalidAccountDataSize
)

var statusErrors = []struct {
	err    error
	status Status
}{
	{ErrMissingAccount, StatusMissingAccount},
	{ErrUnauthorized, StatusUnauthorized},
	{ErrMalformedRecord, StatusMalformedRecord},
	{ErrEncodingFailure, StatusEncodingFailure},
	{ErrInvalidInstructionData, StatusInvalidInstructionData},
	{ErrMissingRequiredSignature, StatusMissingSignature},
	{ErrAccountAlreadyInUse, StatusAccountAlreadyInUse},
	{ErrInvalidSeeds, StatusInvalidSeeds},
	{ErrInvalidAccountDataSize, StatusInvalidAccountDataSize},
}

// StatusOf maps the result of an [Entrypoint] to its [Status].
func StatusOf(err error) Status {
	if err == nil {
		return StatusOK
	}
	for _, se := range statusErrors {
		if errors.Is(err, se.err) {
			return se.status
		}
	}
	return StatusUnknown
}

// String returns a string representation of the status code.
func (s Status) String() string {
	switch s {
	case StatusOK:
		return "OK"
	case StatusUnknown:
		return "Unknown"
	case StatusMissingAccount:
		return "MissingAccount"
	case StatusUnauthorized:
		return "Unauthorized"
	case StatusMalformedRecord:
		return "MalformedRecord"
	case StatusEncodingFailure:
		return "EncodingFailure"
	case StatusInvalidInstructionData:
		return "InvalidInstructionData"
	case StatusMissingSignature:
		return "MissingSignature"
	case StatusAccountAlreadyInUse:
		return "AccountAlreadyInUse"
	case StatusInvalidSeeds:
		return "InvalidSeeds"
	case StatusInvalidAccountDataSize:
		return "InvalidAccountDataSize"
	default:
		return fmt.Sprintf("Status(%d)", s)
	}
}
