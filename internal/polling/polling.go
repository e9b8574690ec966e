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

// Package polling implements QueryPolling (spec.md §4.6): a
// bounded-deadline wait for a predicate over a query's status.
package polling

import (
	"context"

	"github.com/praveen2450/datacloud-go-driver/internal/deadline"
	"github.com/praveen2450/datacloud-go-driver/internal/errs"
	"github.com/praveen2450/datacloud-go-driver/internal/queryinfo"
	"github.com/praveen2450/datacloud-go-driver/internal/stub"
)

// Predicate reports whether a QueryStatus satisfies a caller's wait
// condition.
type Predicate func(*stub.QueryStatus) bool

// WaitFor opens a QueryInfoStream for queryID and returns the first
// status for which predicate returns true. If the query reaches a
// terminal-producing status without ever satisfying the predicate, or
// the deadline elapses first, it returns a
// *errs.PredicateNotSatisfiedError.
func WaitFor(
	ctx context.Context, client stub.Stub, queryID string, dl deadline.Deadline, predicate Predicate,
) (*stub.QueryStatus, error) {
	ctx, cancel := context.WithDeadline(ctx, dl.At())
	defer cancel()

	stream, err := queryinfo.Open(ctx, client, queryID)
	if err != nil {
		return nil, err
	}
	defer stream.Close()

	type outcome struct {
		status *stub.QueryStatus
		err    error
	}
	ch := make(chan outcome, 1)

	go func() {
		for {
			status, err := stream.Next()
			if err != nil {
				ch <- outcome{err: err}
				return
			}
			if predicate(status) {
				ch <- outcome{status: status}
				return
			}
			if status.Completion.TerminalProducing() {
				ch <- outcome{err: &errs.PredicateNotSatisfiedError{QueryID: queryID}}
				return
			}
		}
	}()

	select {
	case o := <-ch:
		if o.err != nil {
			return nil, o.err
		}
		return o.status, nil
	case <-ctx.Done():
		return nil, &errs.PredicateNotSatisfiedError{QueryID: queryID, Timeout: true, Cause: ctx.Err()}
	}
}
