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
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/praveen2450/datacloud-go-driver/internal/columnar"
	"github.com/praveen2450/datacloud-go-driver/internal/errs"
	"github.com/praveen2450/datacloud-go-driver/internal/testutil"
)

func TestArrayFreeIsNoopAndElementTypeIsPreserved(t *testing.T) {
	child := &testutil.Col{Type: columnar.Type{Kind: columnar.KindUTF8}, Values: []any{"a", "b"}}
	listCol := &testutil.Col{
		Type:   columnar.Type{Kind: columnar.KindList, Element: &columnar.Type{Kind: columnar.KindUTF8}},
		Values: []any{[2]int{0, 2}},
		Child:  child,
	}
	a, _ := oneRowAccessor(t, listCol, time.UTC)
	arr, err := a.GetArray(0, nil)
	require.NoError(t, err)

	require.Equal(t, columnar.KindUTF8, arr.ElementType().Kind)
	arr.Free()
	got, err := arr.Get()
	require.NoError(t, err)
	require.Equal(t, []any{"a", "b"}, got)
}

func TestGetArrayOnNullColumnReturnsNilWithoutError(t *testing.T) {
	listCol := &testutil.Col{
		Type:   columnar.Type{Kind: columnar.KindList, Element: &columnar.Type{Kind: columnar.KindInt32}},
		Values: []any{nil},
	}
	a, null := oneRowAccessor(t, listCol, time.UTC)
	arr, err := a.GetArray(0, nil)
	require.NoError(t, err)
	require.Nil(t, arr)
	require.True(t, *null)
}

func TestGetArrayWithTypeMapIsUnsupported(t *testing.T) {
	listCol := &testutil.Col{
		Type:   columnar.Type{Kind: columnar.KindList, Element: &columnar.Type{Kind: columnar.KindInt32}},
		Values: []any{[2]int{0, 0}},
		Child:  &testutil.Col{Type: columnar.Type{Kind: columnar.KindInt32}},
	}
	a, _ := oneRowAccessor(t, listCol, time.UTC)

	arr, err := a.GetArray(0, map[string]string{"SQL_UDT": "MyType"})
	require.Nil(t, arr)
	require.Error(t, err)
	var unsupportedErr *errs.UnsupportedError
	require.ErrorAs(t, err, &unsupportedErr)
}

func TestExtractElementHandlesNestedLists(t *testing.T) {
	innerChild := &testutil.Col{Type: columnar.Type{Kind: columnar.KindInt32}, Values: []any{int32(1), int32(2), int32(3), int32(4)}}
	outerChild := &testutil.Col{
		Type: columnar.Type{Kind: columnar.KindList, Element: &columnar.Type{Kind: columnar.KindInt32}},
		// two nested lists: [1,2] and [3,4]
		Values: []any{[2]int{0, 2}, [2]int{2, 2}},
		Child:  innerChild,
	}
	listCol := &testutil.Col{
		Type:   columnar.Type{Kind: columnar.KindList, Element: &columnar.Type{Kind: columnar.KindList, Element: &columnar.Type{Kind: columnar.KindInt32}}},
		Values: []any{[2]int{0, 2}},
		Child:  outerChild,
	}
	a, _ := oneRowAccessor(t, listCol, time.UTC)
	arr, err := a.GetArray(0, nil)
	require.NoError(t, err)
	require.Equal(t, 2, arr.Length())

	got, err := arr.Get()
	require.NoError(t, err)
	first, ok := got[0].(*Array)
	require.True(t, ok)
	firstVals, err := first.Get()
	require.NoError(t, err)
	require.Equal(t, []any{int32(1), int32(2)}, firstVals)
}
