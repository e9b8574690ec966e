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

// Package queryinfo implements QueryInfoStream (spec.md §4.5): a
// retrying stream of status updates for a single query id.
package queryinfo

import (
	"context"

	log "github.com/sirupsen/logrus"

	"github.com/praveen2450/datacloud-go-driver/internal/errorclassifier"
	"github.com/praveen2450/datacloud-go-driver/internal/errs"
	"github.com/praveen2450/datacloud-go-driver/internal/grpcstream"
	"github.com/praveen2450/datacloud-go-driver/internal/metrics"
	"github.com/praveen2450/datacloud-go-driver/internal/stub"
)

// maxConsecutiveCancellations is the retry budget for a stream
// termination (including CANCELLED); it resets on any successfully
// received QueryStatus (spec.md §4.1/§4.5).
const maxConsecutiveCancellations = 2

// Stream pulls QueryStatus updates for one query id until completion
// becomes Finished, transparently retrying termination up to the
// budget above.
type Stream struct {
	client  stub.Stub
	ctx     context.Context
	queryID string

	it      *grpcstream.Iterator[stub.QueryInfoResponse]
	retries int

	// BinarySchema is set if the server ever sends one; exposed for
	// callers that need the schema before the first ColumnBatch
	// arrives.
	BinarySchema []byte
}

// Open starts a streaming QueryInfoStream for queryID.
func Open(ctx context.Context, client stub.Stub, queryID string) (*Stream, error) {
	s := &Stream{client: client, ctx: ctx, queryID: queryID}
	if err := s.openStream(true); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Stream) openStream(streaming bool) error {
	it := grpcstream.New[stub.QueryInfoResponse]()
	stream, cancel, err := s.client.GetQueryInfo(s.ctx, &stub.QueryInfoParam{
		QueryID:   s.queryID,
		Streaming: streaming,
	})
	if err != nil {
		return err
	}
	it.Start(stream, cancel)
	s.it = it
	return nil
}

// Next returns the next QueryStatus, transparently retrying a
// terminated stream (including CANCELLED) up to the retry budget. The
// retry itself reopens the stream and loops back into the same read
// loop, so a caller only ever sees either a status or a final error.
func (s *Stream) Next() (*stub.QueryStatus, error) {
	for {
		msg, err := s.it.Next()

		cancelled := errorclassifier.IsCancelled(err)
		terminated := err != nil || msg == nil

		switch {
		case terminated && !cancelled && err != nil:
			return nil, err

		case terminated:
			if s.retries >= maxConsecutiveCancellations {
				if cancelled {
					return nil, &errs.StreamCancelledError{Expected: false, Cause: err}
				}
				return nil, &errs.TransientStreamEndError{Attempts: s.retries + 1}
			}
			s.retries++
			metrics.InfoPollRetries.WithLabelValues(s.queryID).Inc()
			log.WithField("queryId", s.queryID).
				Debugf("query info stream terminated, retry %d/%d", s.retries, maxConsecutiveCancellations)
			if openErr := s.openStream(true); openErr != nil {
				return nil, openErr
			}
			continue

		case msg.OptionalMarker:
			continue

		case len(msg.BinarySchema) > 0:
			s.BinarySchema = msg.BinarySchema
			continue

		case msg.Status != nil:
			s.retries = 0
			return msg.Status, nil

		default:
			continue
		}
	}
}

// Snapshot issues a one-shot (non-streaming) call for a single status
// update, reusing the same consecutive-termination retry budget as
// Next but without keeping a long-lived stream open.
func Snapshot(ctx context.Context, client stub.Stub, queryID string) (*stub.QueryStatus, error) {
	retries := 0
	for {
		it := grpcstream.New[stub.QueryInfoResponse]()
		stream, cancel, err := client.GetQueryInfo(ctx, &stub.QueryInfoParam{
			QueryID:   queryID,
			Streaming: false,
		})
		if err != nil {
			return nil, err
		}
		it.Start(stream, cancel)

		status, terminated, cancelled, readErr := drainOneShot(it)
		it.Close()
		if readErr != nil {
			return nil, readErr
		}
		if status != nil {
			return status, nil
		}

		if !terminated {
			continue
		}
		if retries >= maxConsecutiveCancellations {
			if cancelled {
				return nil, &errs.StreamCancelledError{Expected: false}
			}
			return nil, &errs.TransientStreamEndError{Attempts: retries + 1}
		}
		retries++
	}
}

func drainOneShot(it *grpcstream.Iterator[stub.QueryInfoResponse]) (status *stub.QueryStatus, terminated, cancelled bool, err error) {
	for {
		msg, recvErr := it.Next()
		if recvErr != nil {
			if errorclassifier.IsCancelled(recvErr) {
				return nil, true, true, nil
			}
			return nil, false, false, recvErr
		}
		if msg == nil {
			return nil, true, false, nil
		}
		if msg.OptionalMarker || len(msg.BinarySchema) > 0 {
			continue
		}
		if msg.Status != nil {
			return msg.Status, false, false, nil
		}
	}
}

// Close releases the active stream and cancels remote processing. It
// is idempotent.
func (s *Stream) Close() {
	if s.it != nil {
		s.it.Close()
	}
}
