package database

import (
	"errors"
	"fmt"

	"github.com/koustreak/dbpool/internal/errs"
)

// Severity says whether a driver error leaves the connection usable.
type Severity int

const (
	SeverityNone Severity = iota
	SeverityNormal
	SeverityCritical // the link behind the handle is unusable
)

func (s Severity) String() string {
	switch s {
	case SeverityNormal:
		return "normal"
	case SeverityCritical:
		return "critical"
	default:
		return "none"
	}
}

// SQLSTATE codes produced or inspected by the engine and the dialects.
// Only the first three are critical.
const (
	StateLinkFailure      = "08S01" // communication link failure
	StateLinkUnusable     = "08S02" // physical connection is not usable
	StateGeneralError     = "HY000"
	StateConnectFailed    = "08001"
	StateTimeout          = "HYT00"
	StateInvalidCursor    = "24000"
	StateInvalidIndex     = "07009"
	StateRestrictedType   = "07006"
	StateInvalidCast      = "22018"
	StateOutOfRange       = "22003"
	StateNotImplemented   = "HYC00"
	StateIntegrity        = "23000"
	StateSyntaxOrAccess   = "42000"
	StateFunctionSequence = "HY010"
)

var criticalStates = map[string]struct{}{
	StateLinkFailure:  {},
	StateLinkUnusable: {},
	StateGeneralError: {},
}

// Classify returns the severity of a SQLSTATE code.
func Classify(state string) Severity {
	if _, ok := criticalStates[state]; ok {
		return SeverityCritical
	}
	return SeverityNormal
}

// Error is a driver error parsed from a diagnostic record.
type Error struct {
	State    string
	Message  string
	Severity Severity
}

// ParseError builds an Error from a native diagnostic record. A record
// without a state is treated as a general error.
func ParseError(d Diagnostic) *Error {
	state := d.State
	if state == "" {
		state = StateGeneralError
	}
	return &Error{
		State:    state,
		Message:  d.Message,
		Severity: Classify(state),
	}
}

func (e *Error) Error() string {
	return fmt.Sprintf("SQLState:%s, MessageText:%s", e.State, e.Message)
}

// IsCritical reports whether the connection that produced e is unusable.
func (e *Error) IsCritical() bool {
	return e.Severity == SeverityCritical
}

// Fault is a failed column read. It carries the driver error and the column
// that could not be read.
type Fault struct {
	Column int
	Err    *Error
}

func (f *Fault) Error() string {
	return fmt.Sprintf("read column %d: %v", f.Column, f.Err)
}

func (f *Fault) Unwrap() error {
	return f.Err
}

// IsCritical reports whether the fault came from an unusable connection.
func (f *Fault) IsCritical() bool {
	return f.Err != nil && f.Err.IsCritical()
}

// AsDriverError extracts the *Error from err's chain.
func AsDriverError(err error) (*Error, bool) {
	var de *Error
	if errors.As(err, &de) {
		return de, true
	}
	return nil, false
}

// status turns a driver error into the status handed back to callers.
func status(msg string, de *Error) *errs.Error {
	if de.IsCritical() {
		return errs.Wrap(errs.ErrKindLinkFailure, msg, de)
	}
	return errs.Wrap(errs.ErrKindQueryFailed, msg, de)
}
