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

// Package errorclassifier maps transport errors carrying a
// status-details payload onto the typed error taxonomy of spec.md §7
// (internal/errs), per spec.md §4.7.
package errorclassifier

import (
	"github.com/pkg/errors"
	"google.golang.org/genproto/googleapis/rpc/errdetails"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/praveen2450/datacloud-go-driver/internal/errs"
)

const fallbackSQLState = "HY000"

// IsCancelled reports whether err is a gRPC CANCELLED status. QESM and
// QueryInfoStream use this to decide whether a stream termination is a
// candidate for the "expected cancellation" treatment of spec.md §4.1
// and §4.5.
func IsCancelled(err error) bool {
	if err == nil {
		return false
	}
	st, ok := status.FromError(err)
	return ok && st.Code() == codes.Canceled
}

// Classify converts a transport error on the execute/info/result
// streams into a *errs.ServerError when a structured payload is
// present, otherwise it falls back to SQLSTATE "HY000" and the wire
// message.
func Classify(err error, queryID, query string, includeCustomerDetail bool) *errs.ServerError {
	ret := &errs.ServerError{
		QueryID:                       queryID,
		Query:                         query,
		SQLState:                      fallbackSQLState,
		IncludeCustomerDetailInReason: includeCustomerDetail,
	}

	st, ok := status.FromError(err)
	if !ok {
		ret.PrimaryMessage = err.Error()
		return ret
	}
	ret.PrimaryMessage = st.Message()

	for _, d := range st.Details() {
		info, ok := d.(*errdetails.ErrorInfo)
		if !ok {
			continue
		}
		if v, ok := info.Metadata["sqlstate"]; ok && v != "" {
			ret.SQLState = v
		}
		if v, ok := info.Metadata["primary_message"]; ok && v != "" {
			ret.PrimaryMessage = v
		}
		ret.CustomerDetail = info.Metadata["customer_detail"]
		ret.CustomerHint = info.Metadata["customer_hint"]
		ret.SystemDetail = info.Metadata["system_detail"]
		return ret
	}

	return ret
}

// ClassifySubmission wraps a submission-time failure (spec.md §7,
// EXEC_OPENING / no QueryStatus ever stored) as a *errs.SubmissionError.
func ClassifySubmission(err error, query string) error {
	return &errs.SubmissionError{SQL: query, Cause: errors.WithStack(err)}
}
