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

package pool

import (
	"testing"
)

type counter struct{ n int }

func (c *counter) Reset() { c.n = 0 }

func TestPutResets(t *testing.T) {
	p := New(func() *counter { return &counter{} })
	c := p.Get()
	c.n = 42
	p.Put(c)

	if c.n != 0 {
		t.Errorf("Put did not reset value: n = %d", c.n)
	}
}

func TestBytesReset(t *testing.T) {
	buf := Bytes.Get()
	buf.WriteString("hello")
	PutBuffer(buf)

	if buf.Len() != 0 {
		t.Errorf("PutBuffer left %d bytes in the buffer", buf.Len())
	}
}
