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

package errorclassifier

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
	"google.golang.org/genproto/googleapis/rpc/errdetails"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

func TestIsCancelled(t *testing.T) {
	require.False(t, IsCancelled(nil))
	require.False(t, IsCancelled(errors.New("boom")))
	require.True(t, IsCancelled(status.New(codes.Canceled, "client went away").Err()))
	require.False(t, IsCancelled(status.New(codes.Internal, "oops").Err()))
}

func TestClassifyFallsBackWithoutStructuredDetails(t *testing.T) {
	err := status.New(codes.Internal, "boom").Err()
	got := Classify(err, "q1", "SELECT 1", false)
	require.Equal(t, "HY000", got.SQLState)
	require.Equal(t, "boom", got.PrimaryMessage)
	require.Equal(t, "q1", got.QueryID)
}

func TestClassifyExtractsErrorInfoMetadata(t *testing.T) {
	st := status.New(codes.InvalidArgument, "wire message")
	withDetails, err := st.WithDetails(&errdetails.ErrorInfo{
		Metadata: map[string]string{
			"sqlstate":        "42601",
			"primary_message": "syntax error at or near \"FROM\"",
			"customer_detail": "near FROM",
			"customer_hint":   "check your grammar",
			"system_detail":   "parser stack ...",
		},
	})
	require.NoError(t, err)

	got := Classify(withDetails.Err(), "q2", "SELECT FROM", true)
	require.Equal(t, "42601", got.SQLState)
	require.Equal(t, "syntax error at or near \"FROM\"", got.PrimaryMessage)
	require.Equal(t, "near FROM", got.CustomerDetail)
	require.Equal(t, "check your grammar", got.CustomerHint)
	require.Equal(t, "parser stack ...", got.SystemDetail)
	require.Contains(t, got.Reason(), "DETAIL: near FROM")
}

func TestClassifySubmissionWrapsCauseWithQuery(t *testing.T) {
	err := ClassifySubmission(errors.New("dial tcp: connection refused"), "SELECT 1")
	require.Error(t, err)
	require.Contains(t, err.Error(), "SELECT 1")
}
