// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package turn

import (
	"errors"
	"fmt"
)

// =============================================================================
// Error Types
// =============================================================================

// InvalidRequestError indicates the client request failed validation before
// any collaborator was called. Maps to HTTP 400.
type InvalidRequestError struct {
	Reason string
}

// Error implements the error interface.
func (e *InvalidRequestError) Error() string {
	return fmt.Sprintf("invalid request: %s", e.Reason)
}

// UnauthorizedError indicates the shared-secret credential did not match.
// Maps to HTTP 401.
type UnauthorizedError struct{}

// Error implements the error interface.
func (e *UnauthorizedError) Error() string {
	return "unauthorized"
}

// StoreReadError wraps a row-store read failure. A failed history load
// aborts the request rather than proceeding with partial data. Maps to 500.
type StoreReadError struct {
	Op  string
	Err error
}

// Error implements the error interface.
func (e *StoreReadError) Error() string {
	return fmt.Sprintf("store read failed (%s): %v", e.Op, e.Err)
}

// Unwrap returns the underlying store error.
func (e *StoreReadError) Unwrap() error { return e.Err }

// StoreWriteError wraps a row-store write failure. On failure the caller
// must not be told the answer was persisted. Maps to 500.
type StoreWriteError struct {
	Op  string
	Err error
}

// Error implements the error interface.
func (e *StoreWriteError) Error() string {
	return fmt.Sprintf("store write failed (%s): %v", e.Op, e.Err)
}

// Unwrap returns the underlying store error.
func (e *StoreWriteError) Unwrap() error { return e.Err }

// UpstreamError wraps a reasoning/embedding/index provider failure,
// including unparseable reasoning output after the retry budget. Maps to 500.
type UpstreamError struct {
	Op  string
	Err error
}

// Error implements the error interface.
func (e *UpstreamError) Error() string {
	return fmt.Sprintf("upstream failure (%s): %v", e.Op, e.Err)
}

// Unwrap returns the underlying provider error.
func (e *UpstreamError) Unwrap() error { return e.Err }

// UpstreamTimeoutError indicates the per-request wall-clock budget expired
// while waiting on an external service. Maps to 500.
type UpstreamTimeoutError struct {
	Op  string
	Err error
}

// Error implements the error interface.
func (e *UpstreamTimeoutError) Error() string {
	return fmt.Sprintf("upstream timeout (%s): %v", e.Op, e.Err)
}

// Unwrap returns the underlying context error.
func (e *UpstreamTimeoutError) Unwrap() error { return e.Err }

// ReasoningLoopExceededError indicates the loop safety cap was hit before
// the model produced a final answer. Maps to 500.
type ReasoningLoopExceededError struct {
	Steps int
}

// Error implements the error interface.
func (e *ReasoningLoopExceededError) Error() string {
	return fmt.Sprintf("reasoning loop exceeded %d steps without a final answer", e.Steps)
}

// =============================================================================
// Classification Helpers
// =============================================================================

// IsInvalidRequest reports whether err is an InvalidRequestError.
func IsInvalidRequest(err error) bool {
	var target *InvalidRequestError
	return errors.As(err, &target)
}

// IsUnauthorized reports whether err is an UnauthorizedError.
func IsUnauthorized(err error) bool {
	var target *UnauthorizedError
	return errors.As(err, &target)
}

// IsStoreRead reports whether err is a StoreReadError.
func IsStoreRead(err error) bool {
	var target *StoreReadError
	return errors.As(err, &target)
}

// IsStoreWrite reports whether err is a StoreWriteError.
func IsStoreWrite(err error) bool {
	var target *StoreWriteError
	return errors.As(err, &target)
}

// IsUpstreamTimeout reports whether err is an UpstreamTimeoutError.
func IsUpstreamTimeout(err error) bool {
	var target *UpstreamTimeoutError
	return errors.As(err, &target)
}

// IsLoopExceeded reports whether err is a ReasoningLoopExceededError.
func IsLoopExceeded(err error) bool {
	var target *ReasoningLoopExceededError
	return errors.As(err, &target)
}
