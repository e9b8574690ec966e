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

// Package diag is a small health-check registry that components can
// register themselves with at construction time, so a single call can
// report the status of every live piece of the driver (connector,
// session config, ...).
package diag

import (
	"context"
	"sort"
	"sync"
)

// Diagnostic reports its own health. Check returns a non-nil error if
// the component is unhealthy.
type Diagnostic interface {
	Check(ctx context.Context) error
}

// Diagnostics is a named registry of Diagnostic implementations.
type Diagnostics struct {
	mu    sync.Mutex
	items map[string]Diagnostic
}

// New constructs an empty registry. The returned cleanup is a no-op;
// it exists so callers can thread it into the same cleanup chain as
// other Wire providers that do hold resources.
func New(_ context.Context) (*Diagnostics, func()) {
	return &Diagnostics{items: make(map[string]Diagnostic)}, func() {}
}

// Register adds item under name. It is an error to register the same
// name twice.
func (d *Diagnostics) Register(name string, item Diagnostic) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, exists := d.items[name]; exists {
		return &alreadyRegisteredError{name}
	}
	d.items[name] = item
	return nil
}

// Check runs every registered Diagnostic and returns the errors,
// keyed by name, for any that failed.
func (d *Diagnostics) Check(ctx context.Context) map[string]error {
	d.mu.Lock()
	names := make([]string, 0, len(d.items))
	items := make(map[string]Diagnostic, len(d.items))
	for name, item := range d.items {
		names = append(names, name)
		items[name] = item
	}
	d.mu.Unlock()

	sort.Strings(names)
	failures := make(map[string]error)
	for _, name := range names {
		if err := items[name].Check(ctx); err != nil {
			failures[name] = err
		}
	}
	return failures
}

type alreadyRegisteredError struct{ name string }

func (e *alreadyRegisteredError) Error() string {
	return "diagnostic already registered: " + e.name
}
