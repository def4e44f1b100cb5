// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

// Package pool provides typed object pooling for the buffers used to encode
// SSE frames and push notification bodies.
package pool

import (
	"bytes"
	"sync"
)

// Reseter is implemented by pooled values that can be cleared before reuse.
type Reseter interface {
	Reset()
}

// Pool is a generics wrapper around [sync.Pool] to provide strongly-typed object pooling.
type Pool[T any] struct {
	p    sync.Pool
	keep func(T) bool
}

// New returns a new [Pool] for T, and will use fn to construct new T's when the pool is empty.
func New[T any](fn func() T) *Pool[T] {
	return &Pool[T]{
		p: sync.Pool{
			New: func() any {
				return fn()
			},
		},
	}
}

// Get gets a T from the pool, or creates a new one if the pool is empty.
func (p *Pool[T]) Get() T {
	return p.p.Get().(T)
}

// Put returns x into the pool. Values rejected by the keep predicate are dropped.
func (p *Pool[T]) Put(x T) {
	if p.keep != nil && !p.keep(x) {
		return
	}
	if xx, ok := any(x).(Reseter); ok {
		xx.Reset()
	}
	p.p.Put(x)
}

// maxBufferSize bounds the buffers kept for reuse so one large task snapshot
// does not pin memory.
const maxBufferSize = 64 << 10

// Bytes provides the [*bytes.Buffer] pooling objects.
var Bytes = &Pool[*bytes.Buffer]{
	p: sync.Pool{
		New: func() any { return new(bytes.Buffer) },
	},
	keep: func(b *bytes.Buffer) bool { return b.Cap() <= maxBufferSize },
}
