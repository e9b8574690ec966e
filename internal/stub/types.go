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

// Package stub declares the wire-level data model (spec.md §3) and the
// server-stub contract (spec.md §6) that the core consumes. The actual
// gRPC code generation, channel pooling, and authentication that sit
// behind this interface are external collaborators and are not
// implemented here.
package stub

import (
	"context"

	"github.com/praveen2450/datacloud-go-driver/internal/columnar"
)

// TransferMode selects how chunks are delivered.
type TransferMode int

const (
	// TransferAdaptive allows the server to return the first chunk
	// inline on the execute stream.
	TransferAdaptive TransferMode = iota
	// TransferAsync forces every chunk to be fetched out of band.
	TransferAsync
)

// CompletionStatus is the lifecycle stage of a submitted query.
type CompletionStatus int

const (
	// Running means the query is still executing; more chunks may
	// still be produced.
	Running CompletionStatus = iota
	// ResultsProduced means all chunks have been produced, though the
	// server may still be doing bookkeeping.
	ResultsProduced
	// Finished means the query is fully done.
	Finished
)

// TerminalProducing reports whether no new chunks will ever be
// produced for a query in this completion state.
func (c CompletionStatus) TerminalProducing() bool {
	return c == ResultsProduced || c == Finished
}

// QueryStatus is the latest known state of a submitted query.
type QueryStatus struct {
	QueryID    string
	Completion CompletionStatus
	ChunkCount uint64
	RowCount   uint64
}

// ExecuteResponse is one message on the execute stream: either an
// inline result batch, a status update, or a skippable marker.
type ExecuteResponse struct {
	InlineResult columnar.Batch
	QueryInfo    *QueryStatus
	// OptionalMarker, when true and the other two fields are zero,
	// indicates a message that callers may silently skip.
	OptionalMarker bool
}

// QueryInfoResponse is one message on the query-info stream.
type QueryInfoResponse struct {
	Status         *QueryStatus
	BinarySchema   []byte
	OptionalMarker bool
}

// QueryResult is one message on the chunk/row fetch stream.
type QueryResult struct {
	BinaryPart        []byte
	StringPart        []byte
	ResultPartRowCount uint64
}

// ChunkRef identifies a server-addressable chunk of query output.
// Chunks are produced in strictly increasing index order.
type ChunkRef = uint64

const (
	// MinByteLimit is the smallest accepted byte_limit, guarding
	// against callers that pass megabytes where bytes are expected.
	MinByteLimit = 1024
	// MaxByteLimit is the largest accepted byte_limit: 20 MiB.
	MaxByteLimit = 20 * 1024 * 1024
)

// RowRange requests a contiguous range of rows by offset and count.
type RowRange struct {
	RowOffset uint64
	RowLimit  uint64
	ByteLimit uint32
}

// ClampByteLimit clamps b into [MinByteLimit, MaxByteLimit].
func ClampByteLimit(b uint32) uint32 {
	switch {
	case b < MinByteLimit:
		return MinByteLimit
	case b > MaxByteLimit:
		return MaxByteLimit
	default:
		return b
	}
}

// QueryParam is the request to submit a new query.
type QueryParam struct {
	SQL          string
	TransferMode TransferMode
	QueryTimeout uint32 // milliseconds, 0 = infinite
	Options      map[string]string
}

// QueryInfoParam requests status updates for an existing query.
type QueryInfoParam struct {
	QueryID   string
	Streaming bool
}

// QueryResultParam requests a range of chunks or rows for a query.
type QueryResultParam struct {
	QueryID    string
	ChunkID    ChunkRef
	RowRange   *RowRange
	OmitSchema bool
}

// ExecuteStream is the pull side of the execute call.
type ExecuteStream interface {
	Recv() (*ExecuteResponse, error)
}

// QueryInfoStreamClient is the pull side of the query-info call.
type QueryInfoStreamClient interface {
	Recv() (*QueryInfoResponse, error)
}

// QueryResultStream is the pull side of the chunk/row fetch call.
type QueryResultStream interface {
	Recv() (*QueryResult, error)
}

// CancelFunc cancels an in-flight call with a reason string; it is
// safe to call more than once.
type CancelFunc func(reason string)

// Stub is the server contract the core is built against. A concrete
// implementation wires these methods to generated gRPC client code;
// that plumbing lives outside the core (spec.md §6).
type Stub interface {
	ExecuteQuery(ctx context.Context, param *QueryParam) (ExecuteStream, CancelFunc, error)
	GetQueryInfo(ctx context.Context, param *QueryInfoParam) (QueryInfoStreamClient, CancelFunc, error)
	GetQueryResult(ctx context.Context, param *QueryResultParam) (QueryResultStream, CancelFunc, error)
}

// SessionConfig carries the recognized session options (spec.md §3).
type SessionConfig struct {
	// SessionTimezone is an IANA zone name, or empty for "unset".
	SessionTimezone string
	// IncludeCustomerDetailInReason controls whether ErrorClassifier's
	// `reason` rendering includes DETAIL/HINT/QUERY.
	IncludeCustomerDetailInReason bool
	// ServerQueryTimeoutMS is the server-enforced query timeout; 0
	// means infinite.
	ServerQueryTimeoutMS uint32
	// LocalEnforcementSlackMS is added to ServerQueryTimeoutMS to
	// compute the driver's local deadline (spec.md §5).
	LocalEnforcementSlackMS uint32
}

// FromOptions reads the recognized options from a raw key/value
// session config provider (spec.md §6), applying the documented
// defaults.
func FromOptions(opts map[string]string) SessionConfig {
	cfg := SessionConfig{}
	if v, ok := opts["session_timezone"]; ok {
		cfg.SessionTimezone = v
	}
	if v, ok := opts["include_customer_detail_in_reason"]; ok {
		cfg.IncludeCustomerDetailInReason = v == "true"
	}
	if v, ok := opts["server_query_timeout_ms"]; ok {
		cfg.ServerQueryTimeoutMS = parseUint32(v)
	}
	if v, ok := opts["local_enforcement_slack_ms"]; ok {
		cfg.LocalEnforcementSlackMS = parseUint32(v)
	}
	return cfg
}

func parseUint32(s string) uint32 {
	var n uint32
	for _, r := range s {
		if r < '0' || r > '9' {
			return n
		}
		n = n*10 + uint32(r-'0')
	}
	return n
}
