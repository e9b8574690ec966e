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

// Package metrics declares the Prometheus metric vectors emitted by
// the query execution core (QESM, the range streams, and polling).
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/praveen2450/datacloud-go-driver/internal/util/metrics"
)

var (
	// QueriesSubmitted counts every call to QESM that reaches
	// EXEC_OPENING, whether or not it later succeeds.
	QueriesSubmitted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "datacloud_queries_submitted_total",
		Help: "the number of queries submitted to the server",
	})
	// QueriesFailed counts terminal QESM failures, labeled by the
	// failing error kind (submission, protocol_violation,
	// transient_stream_end, stream_cancelled, server, unsupported, or
	// other).
	QueriesFailed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "datacloud_queries_failed_total",
		Help: "the number of queries that ended in a classified error",
	}, []string{"kind"})
	// BatchesYielded counts ColumnBatches returned to a caller of
	// QESM.Pull, labeled by source (inline or chunk).
	BatchesYielded = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "datacloud_batches_yielded_total",
		Help: "the number of column batches yielded to callers",
	}, []string{"source"})
	// PullDurations times a single QESM.Pull call.
	PullDurations = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "datacloud_pull_duration_seconds",
		Help:    "the time spent in a single QESM.Pull call",
		Buckets: metrics.LatencyBuckets,
	})
	// ChunkFetches counts GetQueryResult calls issued by a
	// ChunkRangeStream or RowRangeStream, labeled by query id.
	ChunkFetches = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "datacloud_chunk_fetches_total",
		Help: "the number of GetQueryResult calls issued for chunk or row ranges",
	}, metrics.QueryLabels)
	// InfoPollRetries counts a QueryInfoStream stream termination that
	// was transparently retried rather than surfaced.
	InfoPollRetries = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "datacloud_info_poll_retries_total",
		Help: "the number of query-info stream terminations absorbed by the retry budget",
	}, metrics.QueryLabels)
)
