// Package errors provides the failure types of a harvesting run.
//
// The types follow the two isolation tiers of the pipeline. SessionError and
// StoreError are raised while the run is being constructed and abort it.
// Everything else is scoped to a single outlet or a single complaint: the
// orchestrator logs it, counts it and moves on.
package errors

import (
	stderrors "errors"
	"fmt"
)

// SessionError indicates that the browser session or the portal could not be
// brought up.
//
// This error is returned when:
//   - The Chrome allocator or browser context fails to start
//   - The persisted login file is configured but unreadable
//   - The portal inbox page cannot be opened
//
// Recovery strategy: none, the run aborts
type SessionError struct {
	Message string
	Err     error
}

func (e *SessionError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("session error: %s: %v", e.Message, e.Err)
	}
	return fmt.Sprintf("session error: %s", e.Message)
}

// Unwrap returns the wrapped error for error chain inspection
func (e *SessionError) Unwrap() error {
	return e.Err
}

// NewSessionError creates a new session error with context
func NewSessionError(msg string, err error) *SessionError {
	return &SessionError{Message: msg, Err: err}
}

// StoreError indicates that the spreadsheet could not be opened or its
// existing rows could not be read.
//
// Recovery strategy: none, the run aborts
type StoreError struct {
	Message string
	Err     error
}

func (e *StoreError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("store error: %s: %v", e.Message, e.Err)
	}
	return fmt.Sprintf("store error: %s", e.Message)
}

// Unwrap returns the wrapped error for error chain inspection
func (e *StoreError) Unwrap() error {
	return e.Err
}

// NewStoreError creates a new store error with context
func NewStoreError(msg string, err error) *StoreError {
	return &StoreError{Message: msg, Err: err}
}

// OutletError indicates that an outlet could not be selected or its
// complaint list could not be read. The outlet is skipped.
type OutletError struct {
	OutletID string
	Message  string
	Err      error
}

func (e *OutletError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("outlet %s: %s: %v", e.OutletID, e.Message, e.Err)
	}
	return fmt.Sprintf("outlet %s: %s", e.OutletID, e.Message)
}

// Unwrap returns the wrapped error for error chain inspection
func (e *OutletError) Unwrap() error {
	return e.Err
}

// NewOutletError creates a new outlet-level error
func NewOutletError(outletID, msg string, err error) *OutletError {
	return &OutletError{OutletID: outletID, Message: msg, Err: err}
}

// ComplaintError indicates that a single complaint could not be opened or
// read. The complaint is skipped.
type ComplaintError struct {
	OutletID string
	Index    int
	Message  string
	Err      error
}

func (e *ComplaintError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("complaint %s#%d: %s: %v", e.OutletID, e.Index, e.Message, e.Err)
	}
	return fmt.Sprintf("complaint %s#%d: %s", e.OutletID, e.Index, e.Message)
}

// Unwrap returns the wrapped error for error chain inspection
func (e *ComplaintError) Unwrap() error {
	return e.Err
}

// NewComplaintError creates a new complaint-level error
func NewComplaintError(outletID string, index int, msg string, err error) *ComplaintError {
	return &ComplaintError{OutletID: outletID, Index: index, Message: msg, Err: err}
}

// InterpretError indicates that the text-understanding service failed or
// returned something that is not a JSON object. Never retried.
type InterpretError struct {
	Message string
	Err     error
}

func (e *InterpretError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("interpret error: %s: %v", e.Message, e.Err)
	}
	return fmt.Sprintf("interpret error: %s", e.Message)
}

// Unwrap returns the wrapped error for error chain inspection
func (e *InterpretError) Unwrap() error {
	return e.Err
}

// NewInterpretError creates a new interpret error with context
func NewInterpretError(msg string, err error) *InterpretError {
	return &InterpretError{Message: msg, Err: err}
}

// WriteError indicates that a row append was rejected. The record stays
// unseen so a later run picks it up again.
type WriteError struct {
	ComplaintID string
	Err         error
}

func (e *WriteError) Error() string {
	if e.ComplaintID != "" {
		return fmt.Sprintf("write error: complaint %s: %v", e.ComplaintID, e.Err)
	}
	return fmt.Sprintf("write error: %v", e.Err)
}

// Unwrap returns the wrapped error for error chain inspection
func (e *WriteError) Unwrap() error {
	return e.Err
}

// NewWriteError creates a new write error
func NewWriteError(complaintID string, err error) *WriteError {
	return &WriteError{ComplaintID: complaintID, Err: err}
}

// IsSession checks if the error chain contains a session error
func IsSession(err error) bool {
	var target *SessionError
	return stderrors.As(err, &target)
}

// IsStore checks if the error chain contains a store error
func IsStore(err error) bool {
	var target *StoreError
	return stderrors.As(err, &target)
}

// IsOutlet checks if the error chain contains an outlet error
func IsOutlet(err error) bool {
	var target *OutletError
	return stderrors.As(err, &target)
}

// IsComplaint checks if the error chain contains a complaint error
func IsComplaint(err error) bool {
	var target *ComplaintError
	return stderrors.As(err, &target)
}

// IsInterpret checks if the error chain contains an interpret error
func IsInterpret(err error) bool {
	var target *InterpretError
	return stderrors.As(err, &target)
}

// IsWrite checks if the error chain contains a write error
func IsWrite(err error) bool {
	var target *WriteError
	return stderrors.As(err, &target)
}

// IsFatal reports whether the error should abort the whole run.
func IsFatal(err error) bool {
	return IsSession(err) || IsStore(err)
}
