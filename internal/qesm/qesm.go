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

// Package qesm implements the Query Execution State Machine (spec.md
// §4.1): a pull-based iterator over ColumnBatches that hides the
// dual-channel protocol (inline execute stream, out-of-band chunk
// fetch, separate status poll) behind a single `Pull` method.
//
// The state diagram in spec.md §4.1 names EXEC_OPENING and
// EXEC_DRAINING as distinct states; they share identical transition
// logic here (the distinction is about when the *first* message has
// to carry a QueryStatus, not about how messages are processed) and
// are collapsed into a single stateExecuting internally. Every
// observable transition and invariant from the spec still holds.
package qesm

import (
	"context"
	"sync"
	"time"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/praveen2450/datacloud-go-driver/internal/columnar"
	"github.com/praveen2450/datacloud-go-driver/internal/errorclassifier"
	"github.com/praveen2450/datacloud-go-driver/internal/errs"
	"github.com/praveen2450/datacloud-go-driver/internal/grpcstream"
	"github.com/praveen2450/datacloud-go-driver/internal/metrics"
	"github.com/praveen2450/datacloud-go-driver/internal/notify"
	"github.com/praveen2450/datacloud-go-driver/internal/queryinfo"
	"github.com/praveen2450/datacloud-go-driver/internal/rangestream"
	"github.com/praveen2450/datacloud-go-driver/internal/stub"
)

type state int

const (
	stateNew state = iota
	stateExecuting
	stateChunkFetching
	stateInfoPolling
	stateDone
	stateFailed
)

// Machine is a single-ownership pull iterator over a query's result
// batches (spec.md §5: exactly one task may drive it at a time).
type Machine struct {
	ctx     context.Context
	client  stub.Stub
	param   *stub.QueryParam
	decoder columnar.BatchDecoder

	state state

	execIt      *grpcstream.Iterator[stub.ExecuteResponse]
	infoStream  *queryinfo.Stream
	chunkStream *rangestream.ChunkRangeStream

	nextChunk stub.ChunkRef
	queryID   string

	statusMu sync.Mutex
	status   *stub.QueryStatus
	// statusVar lets external observers (e.g. the transfer mode's
	// consumer, diagnostics) wake up on status changes without polling.
	statusVar notify.Var[*stub.QueryStatus]

	err error

	closeOnce sync.Once
}

// New constructs a Machine for a single query submission. Nothing is
// sent to the server until the first Pull call.
func New(ctx context.Context, client stub.Stub, param *stub.QueryParam, decoder columnar.BatchDecoder) *Machine {
	nextChunk := stub.ChunkRef(0)
	if param.TransferMode == stub.TransferAdaptive {
		nextChunk = 1
	}
	return &Machine{
		ctx:       ctx,
		client:    client,
		param:     param,
		decoder:   decoder,
		state:     stateNew,
		nextChunk: nextChunk,
	}
}

// LatestStatus returns the last observed QueryStatus, or nil if none
// has been observed yet.
func (m *Machine) LatestStatus() *stub.QueryStatus {
	m.statusMu.Lock()
	defer m.statusMu.Unlock()
	return m.status
}

// WaitForStatusChange blocks until a QueryStatus other than current has
// been observed, or ctx is done. Pass the value last returned by
// LatestStatus (nil if none yet) as current. Unlike LatestStatus it
// never polls: it parks on the notify.Var's version channel.
func (m *Machine) WaitForStatusChange(ctx context.Context, current *stub.QueryStatus) (*stub.QueryStatus, error) {
	for {
		s, changed := m.statusVar.Get()
		if s != current {
			return s, nil
		}
		select {
		case <-changed:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
}

func (m *Machine) setStatus(s *stub.QueryStatus) error {
	m.statusMu.Lock()
	defer m.statusMu.Unlock()
	if m.status != nil && m.status.QueryID != s.QueryID {
		return &errs.ProtocolViolationError{Msg: "query id changed mid-query: " + m.status.QueryID + " -> " + s.QueryID}
	}
	m.status = s
	m.queryID = s.QueryID
	m.statusVar.Set(s)
	return nil
}

// Pull advances the state machine and returns the next batch, (nil,
// nil) at normal end-of-iteration, or an error (see internal/errs for
// which failures are typed).
func (m *Machine) Pull() (columnar.Batch, error) {
	start := time.Now()
	defer func() { metrics.PullDurations.Observe(time.Since(start).Seconds()) }()
	for {
		switch m.state {
		case stateDone:
			return nil, nil
		case stateFailed:
			return nil, m.err

		case stateNew:
			if err := m.openExecute(); err != nil {
				return nil, m.fail(errorclassifier.ClassifySubmission(err, m.param.SQL))
			}
			metrics.QueriesSubmitted.Inc()
			m.state = stateExecuting

		case stateExecuting:
			batch, ended, err := m.stepExecute()
			if err != nil {
				return nil, m.fail(err)
			}
			if batch != nil {
				metrics.BatchesYielded.WithLabelValues("inline").Inc()
				return batch, nil
			}
			if ended {
				m.releaseExecute()
				m.state = stateChunkFetching
			}

		case stateChunkFetching:
			batch, err := m.stepChunkFetching()
			if err != nil {
				return nil, m.fail(err)
			}
			if batch != nil {
				metrics.BatchesYielded.WithLabelValues("chunk").Inc()
				return batch, nil
			}
			// stepChunkFetching updates m.state itself when it has no
			// batch to return (to stateInfoPolling or stateDone).

		case stateInfoPolling:
			status, err := m.stepInfoPolling()
			if err != nil {
				return nil, m.fail(err)
			}
			if err := m.setStatus(status); err != nil {
				return nil, m.fail(err)
			}
			m.state = stateChunkFetching
		}
	}
}

func (m *Machine) openExecute() error {
	it := grpcstream.New[stub.ExecuteResponse]()
	stream, cancel, err := m.client.ExecuteQuery(m.ctx, m.param)
	if err != nil {
		return err
	}
	it.Start(stream, cancel)
	m.execIt = it
	return nil
}

func (m *Machine) releaseExecute() {
	if m.execIt != nil {
		m.execIt.Close()
		m.execIt = nil
	}
}

// stepExecute drains the execute stream until there is a batch to
// yield, the substream ends (normally or via an expected CANCELLED),
// or a fatal error occurs.
func (m *Machine) stepExecute() (batch columnar.Batch, ended bool, err error) {
	for {
		msg, recvErr := m.execIt.Next()

		statusKnown := m.LatestStatus() != nil

		if recvErr != nil {
			if errorclassifier.IsCancelled(recvErr) && statusKnown {
				return nil, true, nil
			}
			if !statusKnown {
				return nil, false, &errs.SubmissionError{SQL: m.param.SQL, Cause: errors.WithStack(recvErr)}
			}
			return nil, false, recvErr
		}

		if msg == nil {
			if !statusKnown {
				return nil, false, &errs.SubmissionError{
					SQL:   m.param.SQL,
					Cause: errors.New("execute stream ended without ever producing a query status"),
				}
			}
			return nil, true, nil
		}

		if msg.OptionalMarker {
			continue
		}
		if msg.QueryInfo != nil {
			if err := m.setStatus(msg.QueryInfo); err != nil {
				return nil, false, err
			}
			log.WithField("queryId", m.queryID).Trace("observed query status on execute stream")
			continue
		}
		if msg.InlineResult != nil {
			return msg.InlineResult, false, nil
		}
	}
}

// stepChunkFetching implements the CHUNK_FETCHING state: open a
// ChunkRangeStream for any pending chunks, yield its batches, and once
// it is drained either return to INFO_POLLING or finish at DONE.
func (m *Machine) stepChunkFetching() (columnar.Batch, error) {
	status := m.LatestStatus()
	if status == nil {
		return nil, &errs.ProtocolViolationError{Msg: "reached chunk fetching without a query status"}
	}

	if m.chunkStream == nil && status.ChunkCount > m.nextChunk {
		count := status.ChunkCount - m.nextChunk
		m.chunkStream = rangestream.OpenChunkRange(m.ctx, m.client, m.queryID, m.decoder, m.nextChunk, count)
		m.nextChunk = status.ChunkCount
	}

	if m.chunkStream != nil {
		batch, err := m.chunkStream.Next()
		if err != nil {
			m.chunkStream.Close()
			m.chunkStream = nil
			return nil, err
		}
		if batch != nil {
			return batch, nil
		}
		m.chunkStream.Close()
		m.chunkStream = nil
		return nil, nil // re-evaluate on next Pull loop iteration
	}

	if status.Completion.TerminalProducing() {
		m.state = stateDone
		return nil, nil
	}
	m.state = stateInfoPolling
	return nil, nil
}

func (m *Machine) stepInfoPolling() (*stub.QueryStatus, error) {
	if m.infoStream == nil {
		s, err := queryinfo.Open(m.ctx, m.client, m.queryID)
		if err != nil {
			return nil, err
		}
		m.infoStream = s
	}
	return m.infoStream.Next()
}

func (m *Machine) fail(err error) error {
	m.err = err
	m.state = stateFailed
	metrics.QueriesFailed.WithLabelValues(errorKind(err)).Inc()
	m.Close()
	return err
}

// errorKind names the taxonomy member of err (internal/errs) for
// metric labeling.
func errorKind(err error) string {
	switch err.(type) {
	case *errs.SubmissionError:
		return "submission"
	case *errs.ProtocolViolationError:
		return "protocol_violation"
	case *errs.TransientStreamEndError:
		return "transient_stream_end"
	case *errs.StreamCancelledError:
		return "stream_cancelled"
	case *errs.ServerError:
		return "server"
	case *errs.UnsupportedError:
		return "unsupported"
	default:
		return "other"
	}
}

// Close releases any active streams and cancels remote processing. It
// is idempotent.
func (m *Machine) Close() {
	m.closeOnce.Do(func() {
		m.releaseExecute()
		if m.infoStream != nil {
			m.infoStream.Close()
		}
		if m.chunkStream != nil {
			m.chunkStream.Close()
		}
	})
}
