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

// Package stopper provides a cancellable, waitable context that owns a
// group of goroutines. The root Connector holds one and derives every
// submitted query's context from it, so stopping it tears down every
// goroutine and stream started under it without leaking.
package stopper

import (
	"context"
	"sync"
	"time"

	"github.com/pkg/errors"
)

// A Context wraps a context.Context with the ability to track
// goroutines it has spawned and to request that they stop.
type Context struct {
	context.Context

	cancel context.CancelFunc

	mu struct {
		sync.Mutex
		stopping bool
		stopCh   chan struct{}
	}

	wg sync.WaitGroup

	errOnce sync.Once
	err     error
}

// WithContext creates a new Context whose lifetime is bound to the
// parent. Calling Stop or canceling the parent both terminate it.
func WithContext(parent context.Context) *Context {
	ctx, cancel := context.WithCancel(parent)
	ret := &Context{Context: ctx, cancel: cancel}
	ret.mu.stopCh = make(chan struct{})
	return ret
}

// Go starts fn in a new goroutine tracked by the Context. The first
// non-nil error returned by any tracked goroutine is retained and can
// be retrieved with Err after Stop.
func (s *Context) Go(fn func() error) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		if err := fn(); err != nil {
			s.errOnce.Do(func() { s.err = err })
		}
	}()
}

// Stopping returns a channel that is closed once Stop has been called.
// Goroutines started via Go should select on this channel to begin a
// graceful shutdown, as distinct from Done, which fires when the
// context is actually canceled.
func (s *Context) Stopping() <-chan struct{} {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.mu.stopCh
}

// Stop requests a graceful shutdown: Stopping's channel closes
// immediately, and the underlying context is canceled after grace
// elapses or once every tracked goroutine has returned, whichever
// comes first.
func (s *Context) Stop(grace time.Duration) error {
	s.mu.Lock()
	if !s.mu.stopping {
		s.mu.stopping = true
		close(s.mu.stopCh)
	}
	s.mu.Unlock()

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	timer := time.NewTimer(grace)
	defer timer.Stop()
	select {
	case <-done:
	case <-timer.C:
	}
	s.cancel()
	<-done
	return s.err
}

// Err returns the first error reported by a tracked goroutine, if any;
// otherwise, once the context has been canceled, it returns the
// context's own error.
func (s *Context) Err() error {
	if err := s.Context.Err(); err != nil && s.err == nil {
		return errors.WithStack(err)
	}
	return s.err
}
