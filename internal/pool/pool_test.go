// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

package pool

import (
	"bytes"
	"testing"
)

func TestBytesReset(t *testing.T) {
	buf := Bytes.Get()
	buf.WriteString("data: {}\n\n")
	Bytes.Put(buf)

	got := Bytes.Get()
	defer Bytes.Put(got)
	if got.Len() != 0 {
		t.Errorf("pooled buffer not reset: %q", got.String())
	}
}

func TestBytesDropsLargeBuffers(t *testing.T) {
	big := bytes.NewBuffer(make([]byte, 0, maxBufferSize*2))
	if Bytes.keep(big) {
		t.Errorf("keep(%d) = true, want false", big.Cap())
	}
	small := new(bytes.Buffer)
	if !Bytes.keep(small) {
		t.Error("keep(empty) = false, want true")
	}
}

func TestNew(t *testing.T) {
	calls := 0
	p := New(func() []int {
		calls++
		return make([]int, 0, 4)
	})
	s := p.Get()
	if cap(s) != 4 {
		t.Errorf("cap = %d, want 4", cap(s))
	}
	if calls != 1 {
		t.Errorf("constructor calls = %d, want 1", calls)
	}
}
