// Copyright 2026 The Kdbxinspect Authors
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

// Package fakerand provides a deterministic PRNG, suitable for testing.
package fakerand // import "zombiezen.com/go/kdbxinspect/pkg/fakerand"

import (
	"encoding/binary"
	"io"
	"sync"
)

// New returns a new reader that returns the same sequence of bytes
// every time for the same seed.  The reader can be used from multiple
// goroutines.
func New(seed uint64) io.Reader {
	return &reader{state: seed}
}

// Bytes returns the first n bytes of the sequence for seed.
func Bytes(seed uint64, n int) []byte {
	b := make([]byte, n)
	New(seed).Read(b)
	return b
}

type reader struct {
	mu    sync.Mutex
	state uint64
	buf   [8]byte
	nbuf  int // unread bytes at the end of buf
}

func (r *reader) Read(p []byte) (n int, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for n < len(p) {
		if r.nbuf == 0 {
			binary.LittleEndian.PutUint64(r.buf[:], r.next())
			r.nbuf = len(r.buf)
		}
		nn := copy(p[n:], r.buf[len(r.buf)-r.nbuf:])
		r.nbuf -= nn
		n += nn
	}
	return n, nil
}

// next advances the splitmix64 generator.
func (r *reader) next() uint64 {
	r.state += 0x9e3779b97f4a7c15
	z := r.state
	z = (z ^ z>>30) * 0xbf58476d1ce4e5b9
	z = (z ^ z>>27) * 0x94d049bb133111eb
	return z ^ z>>31
}
