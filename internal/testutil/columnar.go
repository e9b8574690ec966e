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

// Package testutil provides small fakes of the columnar.Batch/Column
// contract and a trivial BatchDecoder, shared by the test suites of
// cval, resultset, qesm and rangestream.
package testutil

import (
	"math/big"

	"github.com/praveen2450/datacloud-go-driver/internal/columnar"
)

// Col is one column of a FakeBatch: a type tag plus a parallel slice of
// values (nil meaning SQL NULL) and list ranges for KindList columns.
type Col struct {
	Name   string
	Type   columnar.Type
	Values []any // element type depends on Type.Kind; see FakeColumn accessors

	// Child is the element column backing a KindList column;
	// Values[row] for a list column is a [2]int{start, count} into it.
	Child *Col
}

// FakeColumn adapts a Col to columnar.Column.
type FakeColumn struct{ col *Col }

func (c FakeColumn) Type() columnar.Type { return c.col.Type }
func (c FakeColumn) Len() int            { return len(c.col.Values) }
func (c FakeColumn) IsNull(row int) bool { return c.col.Values[row] == nil }

func (c FakeColumn) Bool(row int) bool       { return c.col.Values[row].(bool) }
func (c FakeColumn) Int8(row int) int8       { return c.col.Values[row].(int8) }
func (c FakeColumn) Int16(row int) int16     { return c.col.Values[row].(int16) }
func (c FakeColumn) Int32(row int) int32     { return c.col.Values[row].(int32) }
func (c FakeColumn) Int64(row int) int64     { return c.col.Values[row].(int64) }
func (c FakeColumn) Float32(row int) float32 { return c.col.Values[row].(float32) }
func (c FakeColumn) Float64(row int) float64 { return c.col.Values[row].(float64) }

func (c FakeColumn) DecimalUnscaled(row int) *big.Int { return c.col.Values[row].(*big.Int) }
func (c FakeColumn) DateDayValue(row int) int32       { return c.col.Values[row].(int32) }
func (c FakeColumn) RawValue(row int) int64           { return c.col.Values[row].(int64) }

func (c FakeColumn) Bytes(row int) []byte { return c.col.Values[row].([]byte) }
func (c FakeColumn) String(row int) string {
	switch v := c.col.Values[row].(type) {
	case string:
		return v
	case []byte:
		return string(v)
	default:
		return ""
	}
}

func (c FakeColumn) ListRange(row int) (int, int) {
	r := c.col.Values[row].([2]int)
	return r[0], r[1]
}
func (c FakeColumn) ListChild() columnar.Column { return FakeColumn{c.col.Child} }

// FakeBatch adapts a slice of Col to columnar.Batch.
type FakeBatch struct {
	Cols []*Col
	Rows int
}

// NewFakeBatch builds a FakeBatch from columns whose Values all share
// the given row count.
func NewFakeBatch(rows int, cols ...*Col) *FakeBatch {
	return &FakeBatch{Cols: cols, Rows: rows}
}

func (b *FakeBatch) Schema() columnar.Schema {
	cols := make([]columnar.ColumnMeta, len(b.Cols))
	for i, c := range b.Cols {
		cols[i] = columnar.ColumnMeta{Name: c.Name, Type: c.Type}
	}
	return columnar.Schema{Columns: cols}
}

func (b *FakeBatch) NumRows() int { return b.Rows }

func (b *FakeBatch) Column(i int) columnar.Column { return FakeColumn{b.Cols[i]} }

// FakeDecoder hands back one queued Batch per Feed call, ignoring the
// bytes it is given; tests arrange for exactly one QueryResult message
// to correspond to each queued Batch.
type FakeDecoder struct {
	Pending []columnar.Batch
}

func (d *FakeDecoder) Feed([]byte, []byte) (columnar.Batch, bool, error) {
	if len(d.Pending) == 0 {
		return nil, false, nil
	}
	b := d.Pending[0]
	d.Pending = d.Pending[1:]
	return b, true, nil
}
