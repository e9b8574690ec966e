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

// Package resultset implements ResultSetView (spec.md §4/§6): it binds
// a CVAL accessor to a pull iterator of ColumnBatches and presents a
// single forward-only row cursor to external consumers.
package resultset

import (
	"time"

	"github.com/praveen2450/datacloud-go-driver/internal/columnar"
	"github.com/praveen2450/datacloud-go-driver/internal/cval"
)

// BatchSource is the pull side this view advances over: QESM.Pull, or
// any range-stream Next, share this shape.
type BatchSource interface {
	Pull() (columnar.Batch, error)
}

// rangeStream is satisfied by *rangestream.ChunkRangeStream and
// *rangestream.RowRangeStream, which name their pull operation Next
// rather than Pull.
type rangeStream interface {
	Next() (columnar.Batch, error)
	Close()
}

// rangeAdapter lets a range-stream's Next stand in for BatchSource's
// Pull so both QESM and the range streams can back a View.
type rangeAdapter struct{ rangeStream }

func (a rangeAdapter) Pull() (columnar.Batch, error) { return a.Next() }

// Adapt wraps a range stream (ChunkRangeStream or RowRangeStream) as a
// BatchSource.
func Adapt(s rangeStream) BatchSource { return rangeAdapter{s} }

// View presents a cursor over a BatchSource: Next advances to the
// next row (fetching further batches as needed), and the embedded
// Accessor reads typed values at the current row.
type View struct {
	*cval.Accessor

	source BatchSource
	batch  columnar.Batch
	row    int // index of the current row within batch; -1 before the first Next

	lastWasNull bool
}

// New binds a CVAL accessor to source. sessionTZ is the resolved
// session timezone (cval.ResolveSessionTimezone).
func New(source BatchSource, sessionTZ *time.Location) *View {
	v := &View{source: source, row: -1}
	v.Accessor = cval.New(v.cursor, v.observeNull, sessionTZ)
	return v
}

func (v *View) cursor() (columnar.Batch, int) {
	return v.batch, v.row
}

func (v *View) observeNull(wasNull bool) {
	v.lastWasNull = wasNull
}

// Next advances to the next row, pulling further batches from source
// as needed. It returns false once the underlying source is
// exhausted.
func (v *View) Next() (bool, error) {
	for {
		if v.batch != nil && v.row+1 < v.batch.NumRows() {
			v.row++
			return true, nil
		}

		batch, err := v.source.Pull()
		if err != nil {
			return false, err
		}
		if batch == nil {
			v.batch = nil
			v.row = -1
			return false, nil
		}
		v.batch = batch
		v.row = -1
	}
}

// IsNull reports whether the value read by the most recent get_*
// call was SQL NULL.
func (v *View) IsNull() bool { return v.lastWasNull }

// Close releases the underlying batch source if it supports it.
func (v *View) Close() {
	if c, ok := v.source.(interface{ Close() }); ok {
		c.Close()
	}
}
