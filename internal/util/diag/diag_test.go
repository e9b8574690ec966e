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

package diag

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

type fakeDiagnostic struct{ err error }

func (f fakeDiagnostic) Check(context.Context) error { return f.err }

func TestRegisterRejectsDuplicateNames(t *testing.T) {
	d, _ := New(context.Background())
	require.NoError(t, d.Register("a", fakeDiagnostic{}))
	err := d.Register("a", fakeDiagnostic{})
	require.Error(t, err)
}

func TestCheckReportsOnlyFailingComponents(t *testing.T) {
	d, _ := New(context.Background())
	require.NoError(t, d.Register("healthy", fakeDiagnostic{}))
	boom := errors.New("boom")
	require.NoError(t, d.Register("sick", fakeDiagnostic{err: boom}))

	failures := d.Check(context.Background())
	require.Len(t, failures, 1)
	require.ErrorIs(t, failures["sick"], boom)
}
