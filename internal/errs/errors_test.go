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

package errs

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestServerErrorReasonOmitsCustomerDetailByDefault(t *testing.T) {
	e := &ServerError{
		SQLState:       "42601",
		QueryID:        "q1",
		PrimaryMessage: "syntax error",
		CustomerDetail: "near WHERE",
		CustomerHint:   "add a column",
		Query:          "SELECT",
	}
	require.NotContains(t, e.Reason(), "DETAIL")
	require.Contains(t, e.Reason(), "42601")
	require.Contains(t, e.Reason(), "q1")
}

func TestServerErrorReasonIncludesCustomerDetailWhenConfigured(t *testing.T) {
	e := &ServerError{
		SQLState:                      "42601",
		QueryID:                       "q1",
		PrimaryMessage:                "syntax error",
		CustomerDetail:                "near WHERE",
		IncludeCustomerDetailInReason: true,
	}
	require.Contains(t, e.Reason(), "DETAIL: near WHERE")
}

func TestServerErrorFullSystemMessageAlwaysIncludesEverything(t *testing.T) {
	e := &ServerError{
		SQLState:       "42601",
		QueryID:        "q1",
		PrimaryMessage: "syntax error",
		CustomerDetail: "near WHERE",
		CustomerHint:   "add a column",
		SystemDetail:   "stack trace...",
		Query:          "SELECT 1",
	}
	full := e.FullSystemMessage()
	require.Contains(t, full, "DETAIL: near WHERE")
	require.Contains(t, full, "HINT: add a column")
	require.Contains(t, full, "SYSTEM-DETAIL: stack trace...")
	require.NotContains(t, e.FullCustomerMessage(), "SYSTEM-DETAIL")
}

func TestTruncateQueryAt16KiB(t *testing.T) {
	short := "SELECT 1"
	require.Equal(t, short, TruncateQuery(short))

	long := strings.Repeat("x", 16*1024+10)
	got := TruncateQuery(long)
	require.True(t, strings.HasSuffix(got, "<truncated>"))
	require.Equal(t, 16*1024, len(got)-len("<truncated>"))
}

func TestPredicateNotSatisfiedErrorDistinguishesTimeout(t *testing.T) {
	finished := &PredicateNotSatisfiedError{QueryID: "q1"}
	require.Contains(t, finished.Error(), "finished")

	timedOut := &PredicateNotSatisfiedError{QueryID: "q1", Timeout: true}
	require.Contains(t, timedOut.Error(), "timeout")
}
