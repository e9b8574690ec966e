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

package rangestream

import (
	"context"

	"github.com/praveen2450/datacloud-go-driver/internal/columnar"
	"github.com/praveen2450/datacloud-go-driver/internal/stub"
)

// chunkKind fetches chunks [next, end) by index, one chunk's request
// at a time, advancing next as each chunk is consumed.
type chunkKind struct {
	queryID string
	next    stub.ChunkRef
	end     stub.ChunkRef

	firstRequestChunk stub.ChunkRef
	emptyRetryUsed    bool
}

func (k *chunkKind) hasMoreToFetch() bool {
	return k.next < k.end
}

func (k *chunkKind) buildRequest(omitSchema bool) *stub.QueryResultParam {
	return &stub.QueryResultParam{
		QueryID:    k.queryID,
		ChunkID:    k.next,
		OmitSchema: omitSchema,
	}
}

func (k *chunkKind) onResultReceived(*stub.QueryResult) {}

// onStreamClosed implements the edge case of spec.md §4.4/§4.1: an
// empty first response at the range's first requested chunk, with
// more chunks remaining, is silently retried once by skipping ahead
// to the next chunk id. Any other close (empty or not) simply
// advances past the chunk that was just requested.
func (k *chunkKind) onStreamClosed(receivedAnything bool) bool {
	if !receivedAnything && !k.emptyRetryUsed && k.next == k.firstRequestChunk && k.next+1 < k.end {
		k.emptyRetryUsed = true
		k.next++
		return true
	}
	k.next++
	return false
}

// ChunkRangeStream lazily fetches a half-open range of chunks
// [firstChunk, firstChunk+chunkCount) in index order (spec.md §4.4).
type ChunkRangeStream struct {
	*Stream
}

// OpenChunkRange opens a ChunkRangeStream for the given query.
func OpenChunkRange(
	ctx context.Context, client stub.Stub, queryID string, decoder columnar.BatchDecoder,
	firstChunk stub.ChunkRef, chunkCount uint64,
) *ChunkRangeStream {
	k := &chunkKind{
		queryID:           queryID,
		next:              firstChunk,
		end:               firstChunk + chunkCount,
		firstRequestChunk: firstChunk,
	}
	return &ChunkRangeStream{Stream: newStream(ctx, client, queryID, decoder, k)}
}
