package domain

import (
	"errors"
	"fmt"
)

// ─── Sentinel Errors ────────────────────────────────────────────────────────
// Domain errors are pure — no infrastructure dependency.

var (
	ErrFreezeNotFound  = errors.New("freeze not found")
	ErrFreezeUsed      = errors.New("freeze already used")
	ErrEventNotFound   = errors.New("event not found")
	ErrSummaryNotFound = errors.New("summary not found")
	ErrUnknownZone     = errors.New("unrecognized IANA timezone")
)

// ─── Structured Faults (§7 error taxonomy) ─────────────────────────────────

// FaultCode is the §7 error taxonomy the orchestrators surface.
type FaultCode string

const (
	CodeInvalidArgument  FaultCode = "invalid_argument"
	CodeUnauthenticated  FaultCode = "unauthenticated"
	CodeStoreUnavailable FaultCode = "store_unavailable"
	CodeConflict         FaultCode = "conflict"
	CodeInternal         FaultCode = "internal"
)

// Fault is a structured failure an orchestrator or callable entry point
// returns to its caller. It wraps an optional underlying error so %w chains
// still work with errors.Is/errors.As.
type Fault struct {
	Code    FaultCode
	Message string
	Err     error
}

func (f *Fault) Error() string {
	if f.Err != nil {
		return fmt.Sprintf("%s: %s: %v", f.Code, f.Message, f.Err)
	}
	return fmt.Sprintf("%s: %s", f.Code, f.Message)
}

func (f *Fault) Unwrap() error { return f.Err }

// NewFault builds a Fault with no wrapped cause.
func NewFault(code FaultCode, message string) *Fault {
	return &Fault{Code: code, Message: message}
}

// WrapFault builds a Fault wrapping an underlying error.
func WrapFault(code FaultCode, message string, err error) *Fault {
	return &Fault{Code: code, Message: message, Err: err}
}

// IsConflict reports whether err is a Fault with CodeConflict — the
// orchestrator treats this as benign and proceeds (idempotent retry).
func IsConflict(err error) bool {
	var f *Fault
	if errors.As(err, &f) {
		return f.Code == CodeConflict
	}
	return false
}
