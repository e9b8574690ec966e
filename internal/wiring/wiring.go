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

// Package wiring holds the Provide functions the root NewConnector
// calls to build a Connector's session config, session timezone and
// diagnostics registry from a raw session-option map.
package wiring

import (
	"context"
	"time"

	"github.com/google/wire"

	"github.com/praveen2450/datacloud-go-driver/internal/cval"
	"github.com/praveen2450/datacloud-go-driver/internal/stub"
	"github.com/praveen2450/datacloud-go-driver/internal/util/diag"
)

// Set is used by Wire.
var Set = wire.NewSet(
	ProvideSessionConfig,
	ProvideSessionTimezone,
	ProvideDiagnostics,
)

// ProvideSessionConfig parses the recognized session options out of a
// raw key/value map (spec.md §3/§6).
func ProvideSessionConfig(opts map[string]string) stub.SessionConfig {
	return stub.FromOptions(opts)
}

// ProvideSessionTimezone resolves the session timezone CVAL uses for
// the naive-timestamp/calendar disambiguation of spec.md §4.2.
func ProvideSessionTimezone(cfg stub.SessionConfig) *time.Location {
	return cval.ResolveSessionTimezone(cfg.SessionTimezone)
}

// ProvideDiagnostics is called by Wire to build the health-check
// registry threaded through every long-lived component.
func ProvideDiagnostics(ctx context.Context) (*diag.Diagnostics, func()) {
	return diag.New(ctx)
}

// sessionConfigDiagnostic reports healthy unconditionally: session
// config has no external resource to probe, but registering it keeps
// it visible alongside components that do.
type sessionConfigDiagnostic struct{ cfg stub.SessionConfig }

func (sessionConfigDiagnostic) Check(context.Context) error { return nil }

// ProvideConnectorDiagnostic registers the resolved SessionConfig with
// diags under name "session".
func ProvideConnectorDiagnostic(diags *diag.Diagnostics, cfg stub.SessionConfig) error {
	return diags.Register("session", sessionConfigDiagnostic{cfg})
}
