// Copyright 2024 The Datacloud Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
//
// SPDX-License-Identifier: Apache-2.0

// Package errs declares the typed error taxonomy of spec.md §7. Core
// components return one of these (wrapped with github.com/pkg/errors
// where a stack trace is useful) for the failures they detect
// themselves, so callers can discriminate with errors.As. Transport
// and decoder errors raised on an open stream once a query id is
// known are passed through unchanged, not converted to these types.
package errs

import "fmt"

// SubmissionError is returned when query submission fails before a
// query id is known (spec.md §7, EXEC_OPENING).
type SubmissionError struct {
	SQL   string
	Cause error
}

func (e *SubmissionError) Error() string {
	return fmt.Sprintf("failed to execute query: %v\nQUERY: %s", e.Cause, truncateQuery(e.SQL))
}

func (e *SubmissionError) Unwrap() error { return e.Cause }

// StreamCancelledError represents a gRPC CANCELLED status observed on
// one of the core's streams. Expected is true when the site allows a
// CANCELLED at this point (a QueryStatus has already been stored, or
// the info-stream retry budget has not been exhausted); such errors
// are absorbed locally and never reach the caller of pull/next.
type StreamCancelledError struct {
	Expected bool
	Cause    error
}

func (e *StreamCancelledError) Error() string {
	return fmt.Sprintf("stream cancelled (expected=%v): %v", e.Expected, e.Cause)
}

func (e *StreamCancelledError) Unwrap() error { return e.Cause }

// TransientStreamEndError indicates a stream ended normally without
// reaching a terminal state. Callers retry per the site-specific
// budget in spec.md §4.1/§4.5; once that budget is exhausted the error
// is surfaced wrapped in this type.
type TransientStreamEndError struct {
	Attempts int
}

func (e *TransientStreamEndError) Error() string {
	return fmt.Sprintf("stream ended without a terminal status after %d attempt(s)", e.Attempts)
}

// ProtocolViolationError indicates a core invariant was broken by the
// server (e.g. DONE reached with chunks still pending).
type ProtocolViolationError struct {
	Msg string
}

func (e *ProtocolViolationError) Error() string {
	return "protocol violation: " + e.Msg
}

// TimeoutError indicates a local deadline elapsed.
type TimeoutError struct {
	QueryID string
	Reason  string
	Cause   error
}

func (e *TimeoutError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s queryId=%s: %v", e.Reason, e.QueryID, e.Cause)
	}
	return fmt.Sprintf("%s queryId=%s", e.Reason, e.QueryID)
}

func (e *TimeoutError) Unwrap() error { return e.Cause }

// ServerError is a structured diagnostic returned by the server
// (spec.md §4.7).
type ServerError struct {
	SQLState       string
	QueryID        string
	PrimaryMessage string
	CustomerDetail string
	CustomerHint   string
	SystemDetail   string
	Query          string

	// IncludeCustomerDetailInReason controls whether Error() (the
	// `reason` rendering) includes DETAIL/HINT/QUERY.
	IncludeCustomerDetailInReason bool
}

func (e *ServerError) Error() string {
	return e.Reason()
}

// Reason is the minimal rendering: always SQLSTATE and QUERY-ID, plus
// DETAIL/HINT/QUERY only when configured to do so.
func (e *ServerError) Reason() string {
	s := fmt.Sprintf("Failed to execute query: %s\nSQLSTATE: %s\nQUERY-ID: %s",
		e.PrimaryMessage, e.SQLState, e.QueryID)
	if e.IncludeCustomerDetailInReason {
		s += e.customerSuffix()
	}
	return s
}

func (e *ServerError) customerSuffix() string {
	var s string
	if e.CustomerDetail != "" {
		s += "\nDETAIL: " + e.CustomerDetail
	}
	if e.CustomerHint != "" {
		s += "\nHINT: " + e.CustomerHint
	}
	if e.Query != "" {
		s += "\nQUERY: " + truncateQuery(e.Query)
	}
	return s
}

// FullCustomerMessage always appends DETAIL/HINT/QUERY regardless of
// IncludeCustomerDetailInReason.
func (e *ServerError) FullCustomerMessage() string {
	base := fmt.Sprintf("Failed to execute query: %s\nSQLSTATE: %s\nQUERY-ID: %s",
		e.PrimaryMessage, e.SQLState, e.QueryID)
	return base + e.customerSuffix()
}

// FullSystemMessage is FullCustomerMessage with SYSTEM-DETAIL appended.
func (e *ServerError) FullSystemMessage() string {
	s := e.FullCustomerMessage()
	if e.SystemDetail != "" {
		s += "\nSYSTEM-DETAIL: " + e.SystemDetail
	}
	return s
}

// UnsupportedError indicates a requested feature is not available
// (array type maps, ResultSet-returning array methods, an unknown
// timestamp unit, a type-mismatched accessor call).
type UnsupportedError struct {
	Feature  string
	SQLState string
}

func (e *UnsupportedError) Error() string {
	return fmt.Sprintf("unsupported: %s", e.Feature)
}

// RangeError indicates a 1-based index/count pair is out of bounds.
type RangeError struct {
	Index  int
	Count  int
	Length int
}

func (e *RangeError) Error() string {
	return fmt.Sprintf("index %d count %d out of range for length %d", e.Index, e.Count, e.Length)
}

// PredicateNotSatisfiedError is returned by QueryPolling.WaitFor
// (spec.md §4.6) when the query finishes without the predicate ever
// being satisfied, or when the local deadline elapses first.
type PredicateNotSatisfiedError struct {
	QueryID string
	Timeout bool
	Cause   error
}

func (e *PredicateNotSatisfiedError) Error() string {
	reason := "Predicate was not satisfied when execution finished."
	if e.Timeout {
		reason = "Predicate was not satisfied before timeout."
	}
	msg := fmt.Sprintf("%s queryId=%s", reason, e.QueryID)
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

func (e *PredicateNotSatisfiedError) Unwrap() error { return e.Cause }

// NotFoundError indicates a named entity (typically a column) could
// not be located; SQLSTATE "42703" for columns.
type NotFoundError struct {
	Name     string
	SQLState string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("not found: %s", e.Name)
}

const queryTruncateBytes = 16 * 1024

// truncateQuery truncates query text to 16 KiB with a trailing marker,
// per spec.md §4.7/§6.
func truncateQuery(q string) string {
	if len(q) <= queryTruncateBytes {
		return q
	}
	return q[:queryTruncateBytes] + "<truncated>"
}

// TruncateQuery is exported for use by packages constructing
// ServerError/SubmissionError instances outside this package.
func TruncateQuery(q string) string { return truncateQuery(q) }
