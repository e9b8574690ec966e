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

package testutil

import (
	"context"
	"io"

	"github.com/praveen2450/datacloud-go-driver/internal/stub"
)

// QueueStream is a canned Recv() sequence: items in order, then err
// (io.EOF by default) forever after.
type QueueStream[T any] struct {
	items []*T
	err   error
	idx   int
}

// NewQueueStream builds a QueueStream yielding items in order and then
// err (io.EOF if err is nil).
func NewQueueStream[T any](err error, items ...*T) *QueueStream[T] {
	if err == nil {
		err = io.EOF
	}
	return &QueueStream[T]{items: items, err: err}
}

func (s *QueueStream[T]) Recv() (*T, error) {
	if s.idx < len(s.items) {
		v := s.items[s.idx]
		s.idx++
		return v, nil
	}
	return nil, s.err
}

// NopCancel is a stub.CancelFunc that does nothing, recording nothing.
func NopCancel() stub.CancelFunc { return func(string) {} }

// RecordingCancel returns a CancelFunc and a pointer to the reason of
// its most recent call (empty until first called).
func RecordingCancel() (stub.CancelFunc, *string) {
	reason := new(string)
	return func(r string) { *reason = r }, reason
}

// FakeStub implements stub.Stub by delegating to the function fields
// that are set; nil fields panic if called, matching "this test never
// expected that call" rather than silently returning zero values.
type FakeStub struct {
	ExecuteQueryFunc   func(ctx context.Context, p *stub.QueryParam) (stub.ExecuteStream, stub.CancelFunc, error)
	GetQueryInfoFunc   func(ctx context.Context, p *stub.QueryInfoParam) (stub.QueryInfoStreamClient, stub.CancelFunc, error)
	GetQueryResultFunc func(ctx context.Context, p *stub.QueryResultParam) (stub.QueryResultStream, stub.CancelFunc, error)
}

func (f *FakeStub) ExecuteQuery(ctx context.Context, p *stub.QueryParam) (stub.ExecuteStream, stub.CancelFunc, error) {
	return f.ExecuteQueryFunc(ctx, p)
}

func (f *FakeStub) GetQueryInfo(ctx context.Context, p *stub.QueryInfoParam) (stub.QueryInfoStreamClient, stub.CancelFunc, error) {
	return f.GetQueryInfoFunc(ctx, p)
}

func (f *FakeStub) GetQueryResult(ctx context.Context, p *stub.QueryResultParam) (stub.QueryResultStream, stub.CancelFunc, error) {
	return f.GetQueryResultFunc(ctx, p)
}
