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
	"math/big"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/praveen2450/datacloud-go-driver/internal/columnar"
	"github.com/praveen2450/datacloud-go-driver/internal/errs"
	"github.com/praveen2450/datacloud-go-driver/internal/testutil"
)

func oneRowAccessor(t *testing.T, col *testutil.Col, sessionTZ *time.Location) (*Accessor, *bool) {
	t.Helper()
	batch := testutil.NewFakeBatch(1, col)
	var observed bool
	var observedCalled int
	cursor := func() (columnar.Batch, int) { return batch, 0 }
	onNull := func(wasNull bool) { observed = wasNull; observedCalled++ }
	return New(cursor, onNull, sessionTZ), &observed
}

func TestGetIntWidensFromNarrowerColumns(t *testing.T) {
	a, null := oneRowAccessor(t, &testutil.Col{Type: columnar.Type{Kind: columnar.KindInt16}, Values: []any{int16(42)}}, time.UTC)
	v, err := a.GetInt(0)
	require.NoError(t, err)
	require.Equal(t, int32(42), v)
	require.False(t, *null)
}

func TestGetIntOnMismatchedKindIsUnsupported(t *testing.T) {
	a, _ := oneRowAccessor(t, &testutil.Col{Type: columnar.Type{Kind: columnar.KindUTF8}, Values: []any{"x"}}, time.UTC)
	_, err := a.GetInt(0)
	require.Error(t, err)
	require.IsType(t, &errs.UnsupportedError{}, err)
}

func TestNullObservationFiresExactlyOnceAndReportsTrue(t *testing.T) {
	batch := testutil.NewFakeBatch(1, &testutil.Col{Type: columnar.Type{Kind: columnar.KindInt32}, Values: []any{nil}})
	var null bool
	calls := 0
	cursor := func() (columnar.Batch, int) { return batch, 0 }
	onNull := func(wasNull bool) { null = wasNull; calls++ }
	a := New(cursor, onNull, time.UTC)
	v, err := a.GetInt(0)
	require.NoError(t, err)
	require.Zero(t, v)
	require.True(t, null)
	require.Equal(t, 1, calls)
}

func TestGetDecimalRoutesThroughUnscaledAndScale(t *testing.T) {
	a, _ := oneRowAccessor(t, &testutil.Col{
		Type:   columnar.Type{Kind: columnar.KindDecimal, Scale: 2},
		Values: []any{big.NewInt(12345)},
	}, time.UTC)
	dec, err := a.GetDecimal(0)
	require.NoError(t, err)
	require.Equal(t, "123.45", dec.String())
}

func TestGetArrayOneBasedRangeSemantics(t *testing.T) {
	child := &testutil.Col{Type: columnar.Type{Kind: columnar.KindInt32}, Values: []any{int32(10), int32(20), int32(30)}}
	listCol := &testutil.Col{
		Type:   columnar.Type{Kind: columnar.KindList, Element: &columnar.Type{Kind: columnar.KindInt32}},
		Values: []any{[2]int{0, 3}},
		Child:  child,
	}
	a, _ := oneRowAccessor(t, listCol, time.UTC)
	arr, err := a.GetArray(0, nil)
	require.NoError(t, err)
	require.Equal(t, 3, arr.Length())

	empty, err := arr.GetRange(1, 0)
	require.NoError(t, err)
	require.Empty(t, empty)

	full, err := arr.Get()
	require.NoError(t, err)
	require.Equal(t, []any{int32(10), int32(20), int32(30)}, full)

	_, err = arr.GetRange(0, 1)
	require.Error(t, err)
	require.IsType(t, &errs.RangeError{}, err)

	_, err = arr.GetRange(2, 5)
	require.Error(t, err)
	require.IsType(t, &errs.RangeError{}, err)
}

// timestampColumn builds a single-row KindTimestamp column at Milli
// precision for the wall-clock digits given, tagged with tzName (empty
// means naive).
func timestampColumn(t *testing.T, wall time.Time, tzName string) *testutil.Col {
	t.Helper()
	typ := columnar.Type{Kind: columnar.KindTimestamp, Unit: columnar.Milli}
	if tzName != "" {
		typ.TZ = &tzName
	}
	return &testutil.Col{Type: typ, Values: []any{wall.UnixMilli()}}
}

func TestTimestampTzAwareWithCalendarUsesCalendar(t *testing.T) {
	wall := time.Date(2024, 1, 15, 10, 0, 0, 0, time.UTC)
	col := timestampColumn(t, wall, "UTC")
	a, _ := oneRowAccessor(t, col, time.UTC)

	cal := time.FixedZone("cal+1", 3600)
	got, err := a.GetTimestamp(0, cal)
	require.NoError(t, err)
	require.Equal(t, time.Date(2024, 1, 15, 11, 0, 0, 0, time.UTC), got)
}

func TestTimestampTzAwareWithoutCalendarUsesColumnTag(t *testing.T) {
	wall := time.Date(2024, 1, 15, 10, 0, 0, 0, time.UTC)
	col := timestampColumn(t, wall, "UTC")
	a, _ := oneRowAccessor(t, col, time.UTC)

	got, err := a.GetTimestamp(0, nil)
	require.NoError(t, err)
	require.Equal(t, time.Date(2024, 1, 15, 10, 0, 0, 0, time.UTC), got)
}

func TestTimestampNaiveWithCalendarDifferentFromSessionShiftsByOffset(t *testing.T) {
	wall := time.Date(2024, 1, 15, 10, 0, 0, 0, time.UTC)
	col := timestampColumn(t, wall, "")
	a, _ := oneRowAccessor(t, col, time.UTC)

	cal := time.FixedZone("cal+2", 2*3600)
	got, err := a.GetTimestamp(0, cal)
	require.NoError(t, err)
	require.Equal(t, time.Date(2024, 1, 15, 12, 0, 0, 0, time.UTC), got)
}

func TestTimestampNaiveWithoutCalendarIsUnchanged(t *testing.T) {
	wall := time.Date(2024, 1, 15, 10, 0, 0, 0, time.UTC)
	col := timestampColumn(t, wall, "")
	a, _ := oneRowAccessor(t, col, time.UTC)

	got, err := a.GetTimestamp(0, nil)
	require.NoError(t, err)
	require.Equal(t, wall, got)
}

// TestGetStringNeverAppliesCalendar is the load-bearing regression:
// get_string has no calendar parameter at all, so a column that would
// render differently under GetTimestamp(col, cal) must render the same
// way from GetString regardless of what any caller elsewhere in the
// same query does with a calendar.
func TestGetStringNeverAppliesCalendar(t *testing.T) {
	wall := time.Date(2024, 1, 15, 10, 0, 0, 0, time.UTC)
	col := timestampColumn(t, wall, "UTC")
	a, _ := oneRowAccessor(t, col, time.UTC)

	cal := time.FixedZone("cal+1", 3600)
	withCal, err := a.GetTimestamp(0, cal)
	require.NoError(t, err)
	require.NotEqual(t, wall, withCal, "sanity: the calendar must actually shift get_timestamp's result")

	s, err := a.GetString(0)
	require.NoError(t, err)
	require.Equal(t, "2024-01-15T10:00:00.000Z", s)
}

func TestResolveSessionTimezoneFallsBackOnUnknownZone(t *testing.T) {
	require.Equal(t, time.Local, ResolveSessionTimezone(""))
	require.Equal(t, time.Local, ResolveSessionTimezone("Not/AZone"))
}
