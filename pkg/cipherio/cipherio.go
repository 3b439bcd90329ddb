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

// Package cipherio provides I/O interfaces for block cipher streams.
package cipherio // import "zombiezen.com/go/kdbxinspect/pkg/cipherio"

import (
	"crypto/cipher"
	"errors"
	"io"
)

// ErrTruncated is returned by a reader when the ciphertext does not end
// on a block boundary, or when a padded stream has no blocks at all.
var ErrTruncated = errors.New("cipherio: ciphertext is not a whole number of blocks")

const defaultBufSize = 1024

type reader struct {
	r    io.Reader
	mode cipher.BlockMode
	pad  Padding

	buf   []byte
	off   int    // start of undecrypted bytes in buf
	nraw  int    // number of undecrypted bytes in buf
	plain []byte // decrypted bytes not yet returned, aliases buf
	err   error
}

// NewReader creates a new reader that decrypts r with mode and strips
// padding from the final block.  If pad is nil, no padding is stripped
// and the ciphertext may be empty.
func NewReader(r io.Reader, mode cipher.BlockMode, pad Padding) io.Reader {
	return newReader(r, mode, pad, defaultBufSize)
}

func newReader(r io.Reader, mode cipher.BlockMode, pad Padding, bufSize int) io.Reader {
	bs := mode.BlockSize()
	if bufSize < 4*bs {
		bufSize = 4 * bs
	}
	bufSize -= bufSize % bs
	return &reader{
		r:    r,
		mode: mode,
		pad:  pad,
		buf:  make([]byte, bufSize),
	}
}

func (r *reader) Read(p []byte) (n int, err error) {
	for len(r.plain) == 0 {
		if r.err != nil {
			return 0, r.err
		}
		r.fill()
	}
	n = copy(p, r.plain)
	r.plain = r.plain[n:]
	return n, nil
}

// fill reads more ciphertext and decrypts every block except the last
// full one, which is held back until EOF so its padding can be removed.
func (r *reader) fill() {
	bs := r.mode.BlockSize()
	if r.off > 0 {
		copy(r.buf, r.buf[r.off:r.off+r.nraw])
		r.off = 0
	}
	min := bs + 1 - r.nraw
	if min < 1 {
		min = 1
	}
	nn, err := io.ReadAtLeast(r.r, r.buf[r.nraw:], min)
	r.nraw += nn
	switch {
	case err == io.EOF || err == io.ErrUnexpectedEOF:
		r.finish()
		return
	case err != nil:
		r.err = err
		return
	}
	keep := bs + r.nraw%bs
	n := r.nraw - keep
	if n <= 0 {
		return
	}
	r.mode.CryptBlocks(r.buf[:n], r.buf[:n])
	r.plain = r.buf[:n]
	r.off = n
	r.nraw = keep
}

func (r *reader) finish() {
	bs := r.mode.BlockSize()
	if r.nraw%bs != 0 || r.pad != nil && r.nraw == 0 {
		r.err = ErrTruncated
		return
	}
	b := r.buf[:r.nraw]
	r.mode.CryptBlocks(b, b)
	if r.pad != nil {
		var err error
		b, err = r.pad.Strip(b, bs)
		if err != nil {
			r.err = err
			return
		}
	}
	r.plain = b
	r.nraw = 0
	r.err = io.EOF
}

type writer struct {
	w    io.Writer
	mode cipher.BlockMode
	pad  Padding

	buf []byte
	n   int // number of plaintext bytes in buf
	err error
}

// NewWriter creates a new writer that encrypts its input and writes to w.
// Closing the writer adds the final padding but does not close w.
// If pad is nil, the total input must be a whole number of blocks.
func NewWriter(w io.Writer, mode cipher.BlockMode, pad Padding) io.WriteCloser {
	return newWriter(w, mode, pad, defaultBufSize)
}

func newWriter(w io.Writer, mode cipher.BlockMode, pad Padding, bufSize int) io.WriteCloser {
	bs := mode.BlockSize()
	if bufSize < bs {
		bufSize = bs
	}
	bufSize -= bufSize % bs
	return &writer{
		w:    w,
		mode: mode,
		pad:  pad,
		buf:  make([]byte, bufSize),
	}
}

func (w *writer) Write(p []byte) (n int, err error) {
	if w.err != nil {
		return 0, w.err
	}
	for len(p) > 0 {
		nn := copy(w.buf[w.n:], p)
		w.n += nn
		n += nn
		p = p[nn:]
		if w.n < len(w.buf) {
			break
		}
		w.mode.CryptBlocks(w.buf, w.buf)
		w.n = 0
		if _, err := w.w.Write(w.buf); err != nil {
			w.err = err
			return n, err
		}
	}
	return n, nil
}

func (w *writer) Close() error {
	if w.err == errClosed {
		return nil
	} else if w.err != nil {
		return w.err
	}
	last := append([]byte(nil), w.buf[:w.n]...)
	if w.pad != nil {
		last = w.pad.Pad(last, w.mode.BlockSize())
	} else if len(last)%w.mode.BlockSize() != 0 {
		w.err = ErrTruncated
		return w.err
	}
	w.mode.CryptBlocks(last, last)
	_, err := w.w.Write(last)
	w.err = errClosed
	return err
}

var errClosed = errors.New("cipherio: write on closed writer")
