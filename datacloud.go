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

// Package datacloud is the driver's consumer-facing surface (spec.md
// §6): submit, wait_for, result_set_view, get_row_range and
// get_chunk_range, assembled on top of the query execution core in
// the internal packages.
package datacloud

import (
	"context"
	"time"

	"github.com/praveen2450/datacloud-go-driver/internal/columnar"
	"github.com/praveen2450/datacloud-go-driver/internal/deadline"
	"github.com/praveen2450/datacloud-go-driver/internal/polling"
	"github.com/praveen2450/datacloud-go-driver/internal/qesm"
	"github.com/praveen2450/datacloud-go-driver/internal/rangestream"
	"github.com/praveen2450/datacloud-go-driver/internal/resultset"
	"github.com/praveen2450/datacloud-go-driver/internal/stopper"
	"github.com/praveen2450/datacloud-go-driver/internal/stub"
	"github.com/praveen2450/datacloud-go-driver/internal/util/diag"
	"github.com/praveen2450/datacloud-go-driver/internal/wiring"
)

// Connector binds a server stub and a resolved session configuration
// to every operation this package exposes. Its lifetime is tracked by
// a stopper.Context, so closing it tears down every outstanding
// QueryHandle's underlying streams rather than leaking them (spec.md
// §5).
type Connector struct {
	client  stub.Stub
	decoder columnar.BatchDecoder
	session stub.SessionConfig
	tz      *time.Location
	diags   *diag.Diagnostics

	lifetime *stopper.Context
}

// NewConnector assembles a Connector, following the same
// Provide-function wiring the rest of the driver uses (see
// internal/wiring). The returned cleanup releases the diagnostics
// registry and should be called once the Connector is no longer
// needed; prefer Close if the caller also wants outstanding queries
// torn down.
func NewConnector(
	ctx context.Context, client stub.Stub, decoder columnar.BatchDecoder, options map[string]string,
) (*Connector, func(), error) {
	diagnostics, cleanup := wiring.ProvideDiagnostics(ctx)

	session := wiring.ProvideSessionConfig(options)
	tz := wiring.ProvideSessionTimezone(session)

	if err := wiring.ProvideConnectorDiagnostic(diagnostics, session); err != nil {
		cleanup()
		return nil, nil, err
	}

	return &Connector{
		client:   client,
		decoder:  decoder,
		session:  session,
		tz:       tz,
		diags:    diagnostics,
		lifetime: stopper.WithContext(ctx),
	}, cleanup, nil
}

// Close requests a graceful shutdown of every operation still running
// against this Connector, waiting up to grace before forcing
// cancellation. It does not release the diagnostics registry; the
// cleanup returned by NewConnector does that.
func (c *Connector) Close(grace time.Duration) error {
	return c.lifetime.Stop(grace)
}

// QueryHandle is the result of Submit: a query id becomes available
// once the first QueryStatus is observed, and Pull yields the
// query's ColumnBatches in order (spec.md §6).
type QueryHandle struct {
	machine *qesm.Machine
	cancel  context.CancelFunc
}

// Pull implements resultset.BatchSource: it advances the underlying
// query execution state machine.
func (h *QueryHandle) Pull() (columnar.Batch, error) { return h.machine.Pull() }

// LatestStatus returns the last observed QueryStatus, or nil before
// the first one arrives.
func (h *QueryHandle) LatestStatus() *stub.QueryStatus { return h.machine.LatestStatus() }

// QueryID returns the query id once known, or the empty string
// before the first QueryStatus arrives.
func (h *QueryHandle) QueryID() string {
	if s := h.machine.LatestStatus(); s != nil {
		return s.QueryID
	}
	return ""
}

// Close releases the handle's active streams and cancels remote
// processing. Idempotent.
func (h *QueryHandle) Close() {
	h.machine.Close()
	h.cancel()
}

// WaitForStatusChange blocks until a QueryStatus other than current is
// observed, or ctx is done. Pass the result of a prior LatestStatus
// call as current; useful for a caller that wants to observe progress
// without driving Pull itself.
func (h *QueryHandle) WaitForStatusChange(ctx context.Context, current *stub.QueryStatus) (*stub.QueryStatus, error) {
	return h.machine.WaitForStatusChange(ctx, current)
}

// Submit implements submit(sql, transfer_mode, query_timeout,
// options): it returns a QueryHandle immediately without issuing any
// transport call; the call is issued lazily by the handle's first
// Pull.
//
// The Machine driving the handle runs against a context derived from
// both ctx and the Connector's own lifetime, so a Connector.Close
// tears down every outstanding handle's underlying stream instead of
// leaking it.
func (c *Connector) Submit(
	ctx context.Context, sql string, transferMode stub.TransferMode, queryTimeoutMS uint32, options map[string]string,
) *QueryHandle {
	param := &stub.QueryParam{
		SQL:          sql,
		TransferMode: transferMode,
		QueryTimeout: queryTimeoutMS,
		Options:      options,
	}

	qctx, cancel := context.WithCancel(c.lifetime)
	c.lifetime.Go(func() error {
		select {
		case <-ctx.Done():
			cancel()
		case <-qctx.Done():
		}
		return nil
	})

	return &QueryHandle{machine: qesm.New(qctx, c.client, param, c.decoder), cancel: cancel}
}

// ResultSetView implements result_set_view(handle_or_pull_iter,
// session_config): it binds a CVAL cursor to any pull iterator of
// ColumnBatch, whether that is a QueryHandle or a raw range stream
// (see GetChunkRange/GetRowRange, wrapped with resultset.Adapt).
func (c *Connector) ResultSetView(source resultset.BatchSource) *resultset.View {
	return resultset.New(source, c.tz)
}

// WaitFor implements wait_for(query_id, deadline, predicate).
func (c *Connector) WaitFor(
	ctx context.Context, queryID string, dl deadline.Deadline, predicate polling.Predicate,
) (*stub.QueryStatus, error) {
	return polling.WaitFor(ctx, c.client, queryID, dl, predicate)
}

// GetRowRange implements get_row_range(query_id, offset, count).
func (c *Connector) GetRowRange(
	ctx context.Context, queryID string, rowOffset, count uint64, byteLimit uint32,
) *rangestream.RowRangeStream {
	return rangestream.OpenRowRange(ctx, c.client, queryID, c.decoder, rowOffset, count, byteLimit)
}

// GetChunkRange implements get_chunk_range(query_id, first_chunk,
// chunk_count).
func (c *Connector) GetChunkRange(
	ctx context.Context, queryID string, firstChunk stub.ChunkRef, chunkCount uint64,
) *rangestream.ChunkRangeStream {
	return rangestream.OpenChunkRange(ctx, c.client, queryID, c.decoder, firstChunk, chunkCount)
}

// NewDeadline builds a Deadline d in the future, per spec.md §4.8
// (zero maps to "10 days ahead").
func (c *Connector) NewDeadline(d time.Duration) deadline.Deadline {
	return deadline.New(d)
}

// Diagnostics exposes the health-check registry every long-lived
// component of this Connector is registered with.
func (c *Connector) Diagnostics() *diag.Diagnostics { return c.diags }
