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

package cval

import (
	"github.com/praveen2450/datacloud-go-driver/internal/columnar"
	"github.com/praveen2450/datacloud-go-driver/internal/errs"
)

// Array is a materialized, self-contained list value: it copies its
// element range out of the originating column at construction time so
// it survives the owning batch's and stream's closure (spec.md §4.2).
type Array struct {
	elemType columnar.Type
	values   []any
}

// GetArray implements get_array(column, type_map): materialize the
// entire list found at the current row. A non-nil typeMap customizes
// the SQL-to-Go type mapping for UDT array elements, which this driver
// does not implement; passing one fails as unsupported (spec.md §4.2,
// §7).
func (a *Accessor) GetArray(col int, typeMap map[string]string) (*Array, error) {
	if typeMap != nil {
		return nil, &errs.UnsupportedError{Feature: "get_array with a caller-supplied type map"}
	}
	_, c, row := a.column(col)
	null := c.IsNull(row)
	a.observe(null)
	if null {
		return nil, nil
	}
	if c.Type().Kind != columnar.KindList {
		return nil, unsupported(c.Type().Kind, "array")
	}
	start, count := c.ListRange(row)
	return materializeArray(c, start, count), nil
}

func materializeArray(c columnar.Column, start, count int) *Array {
	elemType := *c.Type().Element
	child := c.ListChild()
	values := make([]any, count)
	for i := 0; i < count; i++ {
		values[i] = extractElement(child, start+i, elemType)
	}
	return &Array{elemType: elemType, values: values}
}

// extractElement reads one scalar or nested-list element out of a
// child column, returning nil for a null element.
func extractElement(c columnar.Column, row int, t columnar.Type) any {
	if c.IsNull(row) {
		return nil
	}
	switch t.Kind {
	case columnar.KindBool:
		return c.Bool(row)
	case columnar.KindInt8:
		return c.Int8(row)
	case columnar.KindInt16:
		return c.Int16(row)
	case columnar.KindInt32:
		return c.Int32(row)
	case columnar.KindInt64:
		return c.Int64(row)
	case columnar.KindFloat32:
		return c.Float32(row)
	case columnar.KindFloat64:
		return c.Float64(row)
	case columnar.KindDecimal:
		dec, err := decimalFromUnscaled(c.DecimalUnscaled(row), t.Scale)
		if err != nil {
			return nil
		}
		return dec
	case columnar.KindDateDay:
		return c.DateDayValue(row)
	case columnar.KindTime, columnar.KindTimestamp:
		return c.RawValue(row)
	case columnar.KindUTF8:
		return c.String(row)
	case columnar.KindBinary:
		return c.Bytes(row)
	case columnar.KindList:
		start, count := c.ListRange(row)
		return materializeArray(c, start, count)
	default:
		return nil
	}
}

// Length is the array's element count.
func (ar *Array) Length() int { return len(ar.values) }

// Get returns every element, 1-based semantics applied trivially (the
// whole array).
func (ar *Array) Get() ([]any, error) {
	return ar.GetRange(1, len(ar.values))
}

// GetRange returns count elements starting at the 1-based index1.
// GetRange(1, 0) on an empty array is valid; index1 < 1, or
// index1+count-1 exceeding the array length, fails with a RangeError.
func (ar *Array) GetRange(index1, count int) ([]any, error) {
	if index1 < 1 {
		return nil, &errs.RangeError{Index: index1, Count: count, Length: len(ar.values)}
	}
	start := index1 - 1
	if start+count > len(ar.values) {
		return nil, &errs.RangeError{Index: index1, Count: count, Length: len(ar.values)}
	}
	out := make([]any, count)
	copy(out, ar.values[start:start+count])
	return out, nil
}

// Free is a no-op: the array's data is already materialized and owned
// independently of any batch or stream.
func (ar *Array) Free() {}

// ElementType reports the array's element type.
func (ar *Array) ElementType() columnar.Type { return ar.elemType }
