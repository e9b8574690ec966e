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

// rowKind fetches rows [start, start+remaining) by offset and count,
// advancing the offset by each fragment's reported row count.
type rowKind struct {
	queryID   string
	current   uint64
	remaining uint64
	byteLimit uint32
}

func (k *rowKind) hasMoreToFetch() bool {
	return k.remaining > 0
}

func (k *rowKind) buildRequest(omitSchema bool) *stub.QueryResultParam {
	return &stub.QueryResultParam{
		QueryID: k.queryID,
		RowRange: &stub.RowRange{
			RowOffset: k.current,
			RowLimit:  k.remaining,
			ByteLimit: k.byteLimit,
		},
		OmitSchema: omitSchema,
	}
}

// onResultReceived advances current_offset by result_part_row_count,
// monotonically (spec.md §5 Ordering).
func (k *rowKind) onResultReceived(r *stub.QueryResult) {
	if r.ResultPartRowCount == 0 {
		return
	}
	k.current += r.ResultPartRowCount
	if r.ResultPartRowCount >= k.remaining {
		k.remaining = 0
	} else {
		k.remaining -= r.ResultPartRowCount
	}
}

// onStreamClosed has no row-specific empty-retry behavior; the outer
// Stream simply re-checks hasMoreToFetch and re-opens if rows remain.
func (*rowKind) onStreamClosed(bool) bool { return false }

// RowRangeStream lazily fetches rows [rowOffset, rowOffset+count) by
// offset and count (spec.md §4.4).
type RowRangeStream struct {
	*Stream
}

// OpenRowRange opens a RowRangeStream for the given query. byteLimit
// is clamped to [stub.MinByteLimit, stub.MaxByteLimit].
func OpenRowRange(
	ctx context.Context, client stub.Stub, queryID string, decoder columnar.BatchDecoder,
	rowOffset, count uint64, byteLimit uint32,
) *RowRangeStream {
	k := &rowKind{
		queryID:   queryID,
		current:   rowOffset,
		remaining: count,
		byteLimit: stub.ClampByteLimit(byteLimit),
	}
	return &RowRangeStream{Stream: newStream(ctx, client, queryID, decoder, k)}
}
