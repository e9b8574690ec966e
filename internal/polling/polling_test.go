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

package polling

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/praveen2450/datacloud-go-driver/internal/deadline"
	"github.com/praveen2450/datacloud-go-driver/internal/errs"
	"github.com/praveen2450/datacloud-go-driver/internal/stub"
	"github.com/praveen2450/datacloud-go-driver/internal/testutil"
)

func TestWaitForReturnsFirstSatisfyingStatus(t *testing.T) {
	running := &stub.QueryStatus{QueryID: "q1", Completion: stub.Running, ChunkCount: 0}
	finished := &stub.QueryStatus{QueryID: "q1", Completion: stub.Finished, ChunkCount: 1}

	fake := &testutil.FakeStub{
		GetQueryInfoFunc: func(ctx context.Context, p *stub.QueryInfoParam) (stub.QueryInfoStreamClient, stub.CancelFunc, error) {
			return testutil.NewQueueStream[stub.QueryInfoResponse](nil,
				&stub.QueryInfoResponse{Status: running},
				&stub.QueryInfoResponse{Status: finished},
			), testutil.NopCancel(), nil
		},
	}

	got, err := WaitFor(context.Background(), fake, "q1", deadline.New(time.Minute), func(s *stub.QueryStatus) bool {
		return s.Completion == stub.Finished
	})
	require.NoError(t, err)
	require.Equal(t, finished, got)
}

func TestWaitForFailsWhenQueryFinishesWithoutSatisfyingPredicate(t *testing.T) {
	finished := &stub.QueryStatus{QueryID: "q1", Completion: stub.Finished, ChunkCount: 0}
	fake := &testutil.FakeStub{
		GetQueryInfoFunc: func(ctx context.Context, p *stub.QueryInfoParam) (stub.QueryInfoStreamClient, stub.CancelFunc, error) {
			return testutil.NewQueueStream[stub.QueryInfoResponse](nil, &stub.QueryInfoResponse{Status: finished}), testutil.NopCancel(), nil
		},
	}

	_, err := WaitFor(context.Background(), fake, "q1", deadline.New(time.Minute), func(s *stub.QueryStatus) bool {
		return s.ChunkCount > 10
	})
	require.Error(t, err)
	require.IsType(t, &errs.PredicateNotSatisfiedError{}, err)
}

// blockingStream never returns from Recv until done is closed, standing
// in for a server that simply never sends another status before the
// caller's deadline elapses.
type blockingStream struct{ done <-chan struct{} }

func (b blockingStream) Recv() (*stub.QueryInfoResponse, error) {
	<-b.done
	return nil, io.EOF
}

func TestWaitForTimesOutWhenNoStatusArrives(t *testing.T) {
	done := make(chan struct{})
	defer close(done)

	fake := &testutil.FakeStub{
		GetQueryInfoFunc: func(ctx context.Context, p *stub.QueryInfoParam) (stub.QueryInfoStreamClient, stub.CancelFunc, error) {
			return blockingStream{done: done}, testutil.NopCancel(), nil
		},
	}

	_, err := WaitFor(context.Background(), fake, "q1", deadline.New(10*time.Millisecond), func(*stub.QueryStatus) bool { return true })
	require.Error(t, err)
	var predErr *errs.PredicateNotSatisfiedError
	require.ErrorAs(t, err, &predErr)
	require.True(t, predErr.Timeout)
}
