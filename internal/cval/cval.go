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

// Package cval implements the Columnar Value Accessor Layer (spec.md
// §4.2): one typed get_* operation per JDBC-like access, driven by an
// ambient row cursor and a null-observation callback.
package cval

import (
	"fmt"
	"math/big"
	"time"

	"github.com/cockroachdb/apd/v3"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/praveen2450/datacloud-go-driver/internal/columnar"
	"github.com/praveen2450/datacloud-go-driver/internal/errs"
)

// RowCursor supplies the batch and row index the next accessor call
// should read from; ResultSetView owns advancing it.
type RowCursor func() (columnar.Batch, int)

// NullObserver is invoked exactly once per accessor call, reporting
// whether the value read was SQL NULL.
type NullObserver func(wasNull bool)

// Accessor is the stateless get_* surface bound to a row cursor.
type Accessor struct {
	cursor    RowCursor
	onNull    NullObserver
	sessionTZ *time.Location
}

// New builds an Accessor. sessionTZ is the resolved session timezone
// used by the naive-timestamp/calendar disambiguation of §4.2.
func New(cursor RowCursor, onNull NullObserver, sessionTZ *time.Location) *Accessor {
	return &Accessor{cursor: cursor, onNull: onNull, sessionTZ: sessionTZ}
}

func (a *Accessor) observe(isNull bool) {
	if a.onNull != nil {
		a.onNull(isNull)
	}
}

func (a *Accessor) column(colIndex int) (columnar.Batch, columnar.Column, int) {
	batch, row := a.cursor()
	return batch, batch.Column(colIndex), row
}

func unsupported(got columnar.Kind, want string) error {
	return &errs.UnsupportedError{Feature: fmt.Sprintf("cannot read %s column as %s", got, want)}
}

func unsupportedUnit(got columnar.Kind, want string) error {
	return &errs.UnsupportedError{Feature: fmt.Sprintf("cannot read %s column as %s", got, want), SQLState: "22007"}
}

// GetBool implements get_bool.
func (a *Accessor) GetBool(col int) (bool, error) {
	_, c, row := a.column(col)
	null := c.IsNull(row)
	a.observe(null)
	if null {
		return false, nil
	}
	if c.Type().Kind != columnar.KindBool {
		return false, unsupported(c.Type().Kind, "bool")
	}
	return c.Bool(row), nil
}

// GetInt implements get_int with JDBC-style widening from any integer
// column narrower than or equal to int32.
func (a *Accessor) GetInt(col int) (int32, error) {
	_, c, row := a.column(col)
	null := c.IsNull(row)
	a.observe(null)
	if null {
		return 0, nil
	}
	switch c.Type().Kind {
	case columnar.KindInt8:
		return int32(c.Int8(row)), nil
	case columnar.KindInt16:
		return int32(c.Int16(row)), nil
	case columnar.KindInt32:
		return c.Int32(row), nil
	default:
		return 0, unsupported(c.Type().Kind, "int")
	}
}

// GetLong implements get_long, widening from any integer column.
func (a *Accessor) GetLong(col int) (int64, error) {
	_, c, row := a.column(col)
	null := c.IsNull(row)
	a.observe(null)
	if null {
		return 0, nil
	}
	switch c.Type().Kind {
	case columnar.KindInt8:
		return int64(c.Int8(row)), nil
	case columnar.KindInt16:
		return int64(c.Int16(row)), nil
	case columnar.KindInt32:
		return int64(c.Int32(row)), nil
	case columnar.KindInt64:
		return c.Int64(row), nil
	default:
		return 0, unsupported(c.Type().Kind, "long")
	}
}

// GetDouble implements get_double, widening from any floating column.
func (a *Accessor) GetDouble(col int) (float64, error) {
	_, c, row := a.column(col)
	null := c.IsNull(row)
	a.observe(null)
	if null {
		return 0, nil
	}
	switch c.Type().Kind {
	case columnar.KindFloat32:
		return float64(c.Float32(row)), nil
	case columnar.KindFloat64:
		return c.Float64(row), nil
	default:
		return 0, unsupported(c.Type().Kind, "double")
	}
}

// GetDecimal implements get_decimal, rendering the column's unscaled
// coefficient and scale as a cockroachdb/apd decimal.
func (a *Accessor) GetDecimal(col int) (*apd.Decimal, error) {
	_, c, row := a.column(col)
	null := c.IsNull(row)
	a.observe(null)
	if null {
		return nil, nil
	}
	t := c.Type()
	if t.Kind != columnar.KindDecimal {
		return nil, unsupported(t.Kind, "decimal")
	}
	return decimalFromUnscaled(c.DecimalUnscaled(row), t.Scale)
}

// decimalFromUnscaled routes a column's raw coefficient/scale pair
// through pgtype.Numeric (the Postgres-family wire shape this driver's
// decimal columns are modeled on) before handing back the
// cockroachdb/apd value callers actually consume.
func decimalFromUnscaled(unscaled *big.Int, scale int32) (*apd.Decimal, error) {
	num := pgtype.Numeric{Int: new(big.Int).Set(unscaled), Exp: -scale, Valid: true}
	v, err := num.Value()
	if err != nil {
		return nil, err
	}
	text, ok := v.(string)
	if !ok {
		return nil, &errs.UnsupportedError{Feature: "decimal column did not yield a numeric text value"}
	}
	dec, _, err := apd.NewFromString(text)
	if err != nil {
		return nil, err
	}
	return dec, nil
}

// GetBytes implements get_bytes and get_object_class's underlying
// representation.
func (a *Accessor) GetBytes(col int) ([]byte, error) {
	_, c, row := a.column(col)
	null := c.IsNull(row)
	a.observe(null)
	if null {
		return nil, nil
	}
	switch c.Type().Kind {
	case columnar.KindBinary, columnar.KindUTF8:
		return c.Bytes(row), nil
	default:
		return nil, unsupported(c.Type().Kind, "bytes")
	}
}

// GetString implements get_string: UTF8/Binary decode as-is; Timestamp
// columns render per the ISO-8601 rules of §4.2; everything else,
// Time columns included, falls back to the column's String() extractor.
func (a *Accessor) GetString(col int) (string, error) {
	_, c, row := a.column(col)
	null := c.IsNull(row)
	a.observe(null)
	if null {
		return "", nil
	}
	t := c.Type()
	switch t.Kind {
	case columnar.KindTimestamp:
		ts, err := a.timestampValue(c, row, t, nil)
		if err != nil {
			return "", err
		}
		return formatTimestamp(ts, t), nil
	default:
		return c.String(row), nil
	}
}

// GetDate implements get_date: the number of days since the Unix
// epoch for a date-only column, returned as a UTC midnight time.Time.
func (a *Accessor) GetDate(col int) (time.Time, error) {
	_, c, row := a.column(col)
	null := c.IsNull(row)
	a.observe(null)
	if null {
		return time.Time{}, nil
	}
	if c.Type().Kind != columnar.KindDateDay {
		return time.Time{}, unsupported(c.Type().Kind, "date")
	}
	days := c.DateDayValue(row)
	return time.Unix(0, 0).UTC().AddDate(0, 0, int(days)), nil
}

// GetTime implements get_time: a time-of-day column rendered as a
// duration since midnight.
func (a *Accessor) GetTime(col int) (time.Duration, error) {
	_, c, row := a.column(col)
	null := c.IsNull(row)
	a.observe(null)
	if null {
		return 0, nil
	}
	t := c.Type()
	if t.Kind != columnar.KindTime {
		return 0, unsupportedUnit(t.Kind, "time")
	}
	return unitDuration(c.RawValue(row), t.Unit), nil
}

// GetTimestamp implements get_timestamp(cal?): see the three-case
// table in §4.2. cal is nil when the caller supplies no calendar.
func (a *Accessor) GetTimestamp(col int, cal *time.Location) (time.Time, error) {
	_, c, row := a.column(col)
	null := c.IsNull(row)
	a.observe(null)
	if null {
		return time.Time{}, nil
	}
	t := c.Type()
	if t.Kind != columnar.KindTimestamp {
		return time.Time{}, unsupportedUnit(t.Kind, "timestamp")
	}
	return a.timestampValue(c, row, t, cal)
}

// timestampValue applies the three-case disambiguation table of §4.2
// and returns a naive local-date-time, represented as a time.Time
// pinned to time.UTC purely as a "no zone attached" marker (the tag
// that decides whether a rendering gets a Z suffix lives in Type, not
// in the returned value's location).
func (a *Accessor) timestampValue(c columnar.Column, row int, t columnar.Type, cal *time.Location) (time.Time, error) {
	digits := unitToUTCDigits(c.RawValue(row), t.Unit)

	var source time.Time
	if t.TZ != nil {
		tagZone, err := time.LoadLocation(*t.TZ)
		if err != nil {
			return time.Time{}, &errs.UnsupportedError{Feature: "unknown column timezone tag: " + *t.TZ, SQLState: "22007"}
		}
		source = asLocation(digits, tagZone)
	} else {
		source = asLocation(digits, time.UTC)
	}

	displayZone := time.UTC
	switch {
	case t.TZ != nil && cal != nil:
		displayZone = cal
	case t.TZ != nil && cal == nil:
		displayZone, _ = time.LoadLocation(*t.TZ)
	case t.TZ == nil && cal != nil && cal.String() != a.sessionTZ.String():
		displayZone = cal
	}

	return stripZone(source.In(displayZone)), nil
}

// asLocation reinterprets the given wall-clock digits (already in
// time.UTC) as occurring in loc.
func asLocation(digits time.Time, loc *time.Location) time.Time {
	return time.Date(digits.Year(), digits.Month(), digits.Day(),
		digits.Hour(), digits.Minute(), digits.Second(), digits.Nanosecond(), loc)
}

func stripZone(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), time.UTC)
}

func unitToUTCDigits(raw int64, unit columnar.TimeUnit) time.Time {
	return time.Unix(0, unitDuration(raw, unit).Nanoseconds()).UTC()
}

func unitDuration(raw int64, unit columnar.TimeUnit) time.Duration {
	switch unit {
	case columnar.Second:
		return time.Duration(raw) * time.Second
	case columnar.Milli:
		return time.Duration(raw) * time.Millisecond
	case columnar.Micro:
		return time.Duration(raw) * time.Microsecond
	default:
		return time.Duration(raw)
	}
}

// formatTimestamp renders ISO-8601 with the Z suffix iff the column
// carries a timezone tag, seconds precision for Type.Unit == Second
// and millisecond precision otherwise.
func formatTimestamp(t time.Time, typ columnar.Type) string {
	layout := "2006-01-02T15:04:05"
	if typ.Unit != columnar.Second {
		layout = "2006-01-02T15:04:05.000"
	}
	s := t.Format(layout)
	if typ.TZ != nil {
		s += "Z"
	}
	return s
}

// ResolveSessionTimezone resolves the session_timezone option of
// spec.md §4.2/§6. An empty or unrecognized zone name falls back to
// the platform default; Go's time.LoadLocation already surfaces an
// explicit error for an unknown IANA name, so (unlike the GMT-fallback
// quirk of java.util.TimeZone) no special-case detection is needed
// here to recognize an invalid zone.
func ResolveSessionTimezone(raw string) *time.Location {
	if raw == "" {
		return time.Local
	}
	loc, err := time.LoadLocation(raw)
	if err != nil {
		return time.Local
	}
	return loc
}
