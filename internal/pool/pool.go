// Copyright 2025 The Go A2A Authors.
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

// Package pool provides typed object pooling for the encode buffers of the
// JSON-RPC server, client and SSE writer.
package pool

import (
	"bytes"
	"sync"
)

// maxPooledBuffer caps the capacity of buffers returned to [Bytes] so one
// large response does not pin memory for the life of the process.
const maxPooledBuffer = 64 << 10

// Pool is a generics wrapper around [sync.Pool] to provide strongly-typed object pooling.
type Pool[T any] struct {
	p sync.Pool
}

// Reseter is implemented by pooled values that can be cleared before reuse.
type Reseter interface {
	Reset()
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

// Put returns x into the pool.
func (p *Pool[T]) Put(x T) {
	if xx, ok := any(x).(Reseter); ok {
		xx.Reset()
	}
	p.p.Put(x)
}

// Bytes provides the [*bytes.Buffer] pooling objects.
var Bytes = New(func() *bytes.Buffer {
	return &bytes.Buffer{}
})

// PutBuffer returns buf to [Bytes] unless it grew past the pooling cap.
func PutBuffer(buf *bytes.Buffer) {
	if buf.Cap() > maxPooledBuffer {
		return
	}
	Bytes.Put(buf)
}
