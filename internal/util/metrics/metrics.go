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

// Package metrics holds small shared Prometheus building blocks so
// each component's metric vectors stay consistent with one another.
package metrics

// LatencyBuckets are the histogram buckets (in seconds) used by every
// latency metric in this driver, spanning sub-millisecond round trips
// up to a multi-minute long-running query poll.
var LatencyBuckets = []float64{
	.0005, .001, .0025, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10, 30, 60, 120, 300,
}

// QueryLabels tags a metric by the query id it belongs to.
var QueryLabels = []string{"query_id"}
