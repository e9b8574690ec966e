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

// Package rangestream implements the shared "result-range" template
// that ChunkRangeStream and RowRangeStream both specialize (spec.md
// §4.4): lazily fetch a contiguous range of query output, re-opening
// the inner gRPC call as needed, and assemble the raw fragments it
// delivers into ColumnBatches via a BatchDecoder.
package rangestream

import (
	"context"

	log "github.com/sirupsen/logrus"

	"github.com/praveen2450/datacloud-go-driver/internal/columnar"
	"github.com/praveen2450/datacloud-go-driver/internal/grpcstream"
	"github.com/praveen2450/datacloud-go-driver/internal/metrics"
	"github.com/praveen2450/datacloud-go-driver/internal/stub"
)

// kind is implemented by ChunkRangeStream and RowRangeStream to supply
// the subclass-specific halves of the template.
type kind interface {
	hasMoreToFetch() bool
	buildRequest(omitSchema bool) *stub.QueryResultParam
	onResultReceived(*stub.QueryResult)
	// onStreamClosed is called when the current inner stream drains.
	// receivedAnything reports whether any fragment arrived before it
	// closed. It returns true if the close was absorbed as a retry
	// under the (now updated) subclass state; either way the Stream
	// re-checks hasMoreToFetch before opening the next inner call.
	onStreamClosed(receivedAnything bool) (retryNow bool)
}

// Stream is the common pull iterator shared by ChunkRangeStream and
// RowRangeStream.
type Stream struct {
	client  stub.Stub
	ctx     context.Context
	queryID string
	decoder columnar.BatchDecoder
	kind    kind

	it               *grpcstream.Iterator[stub.QueryResult]
	omitSchema       bool
	receivedAnything bool
}

func newStream(ctx context.Context, client stub.Stub, queryID string, decoder columnar.BatchDecoder, k kind) *Stream {
	return &Stream{client: client, ctx: ctx, queryID: queryID, decoder: decoder, kind: k}
}

// Next returns the next assembled ColumnBatch, or (nil, nil) once the
// requested range has been fully delivered.
func (s *Stream) Next() (columnar.Batch, error) {
	for {
		if s.it == nil {
			if !s.kind.hasMoreToFetch() {
				return nil, nil
			}
			if err := s.open(); err != nil {
				return nil, err
			}
		}

		msg, err := s.it.Next()
		if err != nil {
			s.it.Close()
			s.it = nil
			return nil, err
		}

		if msg == nil {
			receivedAnything := s.receivedAnything
			s.it.Close()
			s.it = nil
			s.receivedAnything = false

			if s.kind.onStreamClosed(receivedAnything) {
				log.WithField("queryId", s.queryID).Debug("range response empty, retrying once")
				continue
			}
			if !s.kind.hasMoreToFetch() {
				return nil, nil
			}
			continue
		}

		s.receivedAnything = true
		s.kind.onResultReceived(msg)

		batch, complete, decErr := s.decoder.Feed(msg.BinaryPart, msg.StringPart)
		if decErr != nil {
			return nil, decErr
		}
		if complete {
			s.omitSchema = true
			return batch, nil
		}
	}
}

func (s *Stream) open() error {
	it := grpcstream.New[stub.QueryResult]()
	stream, cancel, err := s.client.GetQueryResult(s.ctx, s.kind.buildRequest(s.omitSchema))
	if err != nil {
		return err
	}
	it.Start(stream, cancel)
	s.it = it
	metrics.ChunkFetches.WithLabelValues(s.queryID).Inc()
	return nil
}

// Close releases the active inner stream. Idempotent.
func (s *Stream) Close() {
	if s.it != nil {
		s.it.Close()
		s.it = nil
	}
}
