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

// Package grpcstream adapts a server-streaming gRPC call into a lazy,
// pull-based iterator with manual flow control (spec.md §4.3). Go's
// gRPC client has no per-message request(n) API the way grpc-java
// does; we reproduce the same "never let more than N messages sit
// unconsumed" behavior with a bounded channel fed by a single pump
// goroutine, which is the idiomatic Go equivalent.
package grpcstream

import (
	"io"
	"sync"

	log "github.com/sirupsen/logrus"

	"github.com/praveen2450/datacloud-go-driver/internal/stub"
)

// initialQuota mirrors the Java driver's pre-requested quota of 16
// messages, used to hide first-response latency.
const initialQuota = 16

// closeReason is the fixed reason passed to CancelFunc on Close.
const closeReason = "Call got closed by the client."

// Recvable is satisfied by any generated streaming client method.
type Recvable[T any] interface {
	Recv() (*T, error)
}

type item[T any] struct {
	val *T
	err error
}

// Iterator is a pull adapter over a Recvable stream of T.
type Iterator[T any] struct {
	mu             sync.Mutex
	cancel         stub.CancelFunc
	started        bool
	closeRequested bool
	closed         bool

	ch       chan item[T]
	done     chan struct{}
	doneOnce sync.Once
}

// New constructs an Iterator not yet bound to a stream. Start must be
// called once the underlying call has actually been issued; this
// split exists so that a Close racing with call setup is handled the
// same way the Java driver handles it: the cancel intent is recorded
// and honored as soon as the call starts (spec.md §4.3).
func New[T any]() *Iterator[T] {
	return &Iterator[T]{
		ch:   make(chan item[T], initialQuota),
		done: make(chan struct{}),
	}
}

// Start binds the iterator to a live stream and its cancel function,
// and begins pumping messages. If Close was already called, the call
// is cancelled immediately instead of being pumped.
func (it *Iterator[T]) Start(stream Recvable[T], cancel stub.CancelFunc) {
	it.mu.Lock()
	it.started = true
	it.cancel = cancel
	requested := it.closeRequested
	it.mu.Unlock()

	if requested {
		if cancel != nil {
			cancel(closeReason)
		}
		close(it.ch)
		return
	}

	go it.pump(stream)
}

// pump drains the stream into the channel. Flow control is implicit:
// once the channel (capacity initialQuota) is full, pump blocks until
// the consumer requests another message by reading one out, which is
// exactly "request one more after every delivered message."
func (it *Iterator[T]) pump(stream Recvable[T]) {
	defer close(it.ch)
	for {
		v, err := stream.Recv()
		if err == io.EOF {
			v, err = nil, nil
		}

		// Terminal callbacks may still fire after Close; suppress them
		// by dropping the delivery instead of blocking forever trying
		// to hand it to a consumer who has already walked away.
		select {
		case it.ch <- item[T]{val: v, err: err}:
		case <-it.done:
			return
		}
		if err != nil || v == nil {
			return
		}
	}
}

// Next returns the next value, (nil, nil) at a clean end of stream, or
// the terminal error.
func (it *Iterator[T]) Next() (*T, error) {
	i, ok := <-it.ch
	if !ok {
		return nil, nil
	}
	return i.val, i.err
}

// Close cancels the in-flight call with a fixed reason and is
// idempotent; calling it twice (or calling it before Start) never
// surfaces an error.
func (it *Iterator[T]) Close() {
	it.mu.Lock()
	if it.closed {
		it.mu.Unlock()
		return
	}
	it.closed = true
	started := it.started
	cancel := it.cancel
	if !started {
		it.closeRequested = true
	}
	it.mu.Unlock()

	it.doneOnce.Do(func() { close(it.done) })

	if started && cancel != nil {
		cancel(closeReason)
	}
	log.Trace("grpcstream: iterator closed")
}
