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

package kdbx

import (
	"encoding/binary"
	"hash"
	"io"
)

// stream reads from an io.Reader without buffering ahead, so the
// underlying reader is never advanced past the bytes actually consumed.
// The first error is sticky.  When h is set, every byte read is also
// written to h.
type stream struct {
	r   io.Reader
	off int64
	err error
	h   hash.Hash
}

func (s *stream) Read(p []byte) (n int, err error) {
	if s.err != nil {
		return 0, s.err
	}
	n, err = s.r.Read(p)
	s.consumed(p[:n])
	return n, err
}

func (s *stream) consumed(p []byte) {
	s.off += int64(len(p))
	if s.h != nil {
		s.h.Write(p)
	}
}

func (s *stream) readFull(p []byte) {
	if s.err != nil {
		return
	}
	n, err := io.ReadFull(s.r, p)
	s.consumed(p[:n])
	s.err = err
}

func (s *stream) readUint8() uint8 {
	var buf [1]byte
	s.readFull(buf[:])
	return buf[0]
}

func (s *stream) readUint16() uint16 {
	var buf [2]byte
	s.readFull(buf[:])
	if s.err != nil {
		return 0
	}
	return binary.LittleEndian.Uint16(buf[:])
}

func (s *stream) readUint32() uint32 {
	var buf [4]byte
	s.readFull(buf[:])
	if s.err != nil {
		return 0
	}
	return binary.LittleEndian.Uint32(buf[:])
}

type writer struct {
	w   io.Writer
	h   hash.Hash
	err error
}

func (w *writer) write(p []byte) {
	if w.err != nil {
		return
	}
	_, w.err = w.w.Write(p)
	if w.err == nil && w.h != nil {
		w.h.Write(p)
	}
}

func (w *writer) writeUint8(i uint8) {
	w.write([]byte{i})
}

func (w *writer) writeUint16(i uint16) {
	var buf [2]byte
	binary.LittleEndian.PutUint16(buf[:], i)
	w.write(buf[:])
}

func (w *writer) writeUint32(i uint32) {
	var buf [4]byte
	binary.LittleEndian.PutUint32(buf[:], i)
	w.write(buf[:])
}
