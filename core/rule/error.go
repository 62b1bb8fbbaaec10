// Copyright (c) 2017-2020 The qitmeer developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package rule

import (
	"errors"
	"fmt"
)

// ErrorCode identifies a kind of error.
type ErrorCode int

// These constants are used to identify a specific RuleError.
const (
	// ErrLogIndexOutOfRange indicates the log index list was empty or one of
	// the indices points past the logs of the proven receipt.
	ErrLogIndexOutOfRange ErrorCode = iota

	// ErrInvalidAmount indicates a zero mint, burn or send amount.
	ErrInvalidAmount

	// ErrIndexOutOfRange indicates a positional read past the end of a set.
	ErrIndexOutOfRange

	// ErrInvalidAdmins indicates an admin list that is empty, shorter than
	// the threshold or contains the zero address.
	ErrInvalidAdmins

	// ErrInvalidAdminThreshold indicates a zero admin threshold.
	ErrInvalidAdminThreshold

	// ErrCertNotPresent indicates no stored certificate matches the id or
	// receipt root.
	ErrCertNotPresent

	// ErrTokenDoesNotExist indicates the symbol or address is not registered.
	ErrTokenDoesNotExist

	// ErrNotAdmin indicates the caller lacks the admin capability.
	ErrNotAdmin

	// ErrDuplicateKey indicates an identifier already present in a set.
	ErrDuplicateKey

	// ErrKeyNotFound indicates an identifier missing from a set.
	ErrKeyNotFound

	// ErrDuplicateAdmin indicates the same admin was listed twice.
	ErrDuplicateAdmin

	// ErrAlreadyInitialized indicates admins were already configured.
	ErrAlreadyInitialized

	// ErrTokenAlreadyExists indicates a symbol that is already registered.
	ErrTokenAlreadyExists

	// ErrInvalidMerkleProof indicates the proof does not hash to the
	// receipt root or the proven receipt cannot be decoded.
	ErrInvalidMerkleProof

	// ErrInvalidTransactionStatus indicates the proven source transaction
	// failed.
	ErrInvalidTransactionStatus

	// ErrInvalidOriginAddress indicates the proven event was not emitted by
	// the paired sending contract.
	ErrInvalidOriginAddress

	// ErrInvalidEventLog indicates the selected log is not a token sent
	// event or its payload is malformed.
	ErrInvalidEventLog

	// ErrInvalidSubnetId indicates the proven message targets another
	// subnet.
	ErrInvalidSubnetId

	// ErrTransactionAlreadyExecuted indicates the replay marker is set.
	ErrTransactionAlreadyExecuted

	// ErrMintToZeroAddress indicates a mint with the null recipient.
	ErrMintToZeroAddress

	// ErrExceedDailyMintLimit indicates the mint would push the current
	// day window past the token's daily limit.
	ErrExceedDailyMintLimit

	// ErrCapExceeded indicates the mint would push total supply past the
	// token's cap.
	ErrCapExceeded

	// ErrBurnFailed indicates the holder balance or the allowance is too
	// small.
	ErrBurnFailed

	// ErrTransferFailed indicates a plain transfer could not be applied.
	ErrTransferFailed

	// numErrorCodes is the maximum error code number used in tests.
	numErrorCodes
)

// Category groups error codes by the way callers should react to them.
type Category int

const (
	Structural Category = iota
	NotFound
	Authorization
	Integrity
	Policy
)

func (c Category) String() string {
	switch c {
	case Structural:
		return "structural"
	case NotFound:
		return "not-found"
	case Authorization:
		return "authorization"
	case Integrity:
		return "integrity"
	case Policy:
		return "policy"
	}
	return fmt.Sprintf("Unknown Category (%d)", int(c))
}

// Map of ErrorCode values back to their constant names for pretty printing.
var errorCodeStrings = map[ErrorCode]string{
	ErrLogIndexOutOfRange:         "ErrLogIndexOutOfRange",
	ErrInvalidAmount:              "ErrInvalidAmount",
	ErrIndexOutOfRange:            "ErrIndexOutOfRange",
	ErrInvalidAdmins:              "ErrInvalidAdmins",
	ErrInvalidAdminThreshold:      "ErrInvalidAdminThreshold",
	ErrCertNotPresent:             "ErrCertNotPresent",
	ErrTokenDoesNotExist:          "ErrTokenDoesNotExist",
	ErrNotAdmin:                   "ErrNotAdmin",
	ErrDuplicateKey:               "ErrDuplicateKey",
	ErrKeyNotFound:                "ErrKeyNotFound",
	ErrDuplicateAdmin:             "ErrDuplicateAdmin",
	ErrAlreadyInitialized:         "ErrAlreadyInitialized",
	ErrTokenAlreadyExists:         "ErrTokenAlreadyExists",
	ErrInvalidMerkleProof:         "ErrInvalidMerkleProof",
	ErrInvalidTransactionStatus:   "ErrInvalidTransactionStatus",
	ErrInvalidOriginAddress:       "ErrInvalidOriginAddress",
	ErrInvalidEventLog:            "ErrInvalidEventLog",
	ErrInvalidSubnetId:            "ErrInvalidSubnetId",
	ErrTransactionAlreadyExecuted: "ErrTransactionAlreadyExecuted",
	ErrMintToZeroAddress:          "ErrMintToZeroAddress",
	ErrExceedDailyMintLimit:       "ErrExceedDailyMintLimit",
	ErrCapExceeded:                "ErrCapExceeded",
	ErrBurnFailed:                 "ErrBurnFailed",
	ErrTransferFailed:             "ErrTransferFailed",
}

// String returns the ErrorCode as a human-readable name.
func (e ErrorCode) String() string {
	if s := errorCodeStrings[e]; s != "" {
		return s
	}
	return fmt.Sprintf("Unknown ErrorCode (%d)", int(e))
}

// Error makes an ErrorCode usable as an errors.Is target.
func (e ErrorCode) Error() string {
	return e.String()
}

// Category reports which class of failure the code belongs to.
func (e ErrorCode) Category() Category {
	switch e {
	case ErrLogIndexOutOfRange, ErrInvalidAmount, ErrIndexOutOfRange,
		ErrInvalidAdmins, ErrInvalidAdminThreshold:
		return Structural
	case ErrCertNotPresent, ErrTokenDoesNotExist:
		return NotFound
	case ErrNotAdmin:
		return Authorization
	case ErrExceedDailyMintLimit, ErrCapExceeded, ErrBurnFailed, ErrTransferFailed:
		return Policy
	}
	return Integrity
}

// RuleError identifies a rule violation.  The caller can use type assertions
// to determine if a failure was specifically due to a rule violation and
// access the ErrorCode field to ascertain the specific reason.
type RuleError struct {
	ErrorCode   ErrorCode // Describes the kind of error
	Description string    // Human readable description of the issue
}

// Error satisfies the error interface and prints human-readable errors.
func (e RuleError) Error() string {
	return e.Description
}

// Is matches both another RuleError with the same code and a bare ErrorCode.
func (e RuleError) Is(target error) bool {
	switch t := target.(type) {
	case ErrorCode:
		return e.ErrorCode == t
	case RuleError:
		return e.ErrorCode == t.ErrorCode
	}
	return false
}

// Error creates a RuleError given a set of arguments.
func Error(c ErrorCode, desc string) RuleError {
	return RuleError{ErrorCode: c, Description: desc}
}

// Errorf creates a RuleError with a formatted description.
func Errorf(c ErrorCode, format string, args ...interface{}) RuleError {
	return RuleError{ErrorCode: c, Description: fmt.Sprintf(format, args...)}
}

// Code extracts the ErrorCode from err, looking through wrapping.
func Code(err error) (ErrorCode, bool) {
	var rerr RuleError
	if errors.As(err, &rerr) {
		return rerr.ErrorCode, true
	}
	var code ErrorCode
	if errors.As(err, &code) {
		return code, true
	}
	return 0, false
}
