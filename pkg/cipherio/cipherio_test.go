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

package cipherio

import (
	"bytes"
	"fmt"
	"io"
	"testing"
	"testing/iotest"
)

// A cipherTest is a single test case of a reader or writer.
// The block cipher mode is assumed to encrypt by adding one to all bytes.
// Each test case may be used multiple times to test different reader/writer conditions.
type cipherTest struct {
	plain     []byte
	cipher    []byte
	blockSize int
	readErr   error
}

var tests = []cipherTest{
	{
		plain:     []byte{},
		cipher:    []byte{},
		blockSize: 4,
		readErr:   ErrTruncated,
	},
	{
		plain:     []byte{},
		cipher:    []byte{1},
		blockSize: 4,
		readErr:   ErrTruncated,
	},
	{
		plain:     []byte{},
		cipher:    []byte{5, 5, 5, 5, 5, 5},
		blockSize: 4,
		readErr:   ErrTruncated,
	},
	{
		plain:     []byte{},
		cipher:    []byte{5, 5, 5, 5},
		blockSize: 4,
	},
	{
		plain:     []byte{42},
		cipher:    []byte{43, 4, 4, 4},
		blockSize: 4,
	},
	{
		plain:     []byte{0, 1, 2, 3},
		cipher:    []byte{1, 2, 3, 4, 5, 5, 5, 5},
		blockSize: 4,
	},
	{
		plain:     []byte{0, 1, 2, 3, 42},
		cipher:    []byte{1, 2, 3, 4, 43, 4, 4, 4},
		blockSize: 4,
	},
	{
		plain:     []byte{0, 1, 2, 3, 4, 5, 6, 7, 42},
		cipher:    []byte{1, 2, 3, 4, 5, 6, 7, 8, 43, 4, 4, 4},
		blockSize: 4,
	},
	{
		plain:     []byte{},
		cipher:    []byte{1, 2, 3, 4, 43, 9, 9, 9},
		blockSize: 4,
		readErr:   ErrWrongPadding,
	},
}

func TestReader(t *testing.T) {
	for _, test := range tests {
		mode := fakeBlockMode{size: test.blockSize, delta: 255}
		wrappers := []struct {
			name string
			open func() io.Reader
		}{
			{"NewReader(bytes.NewReader(%v))", func() io.Reader {
				return NewReader(bytes.NewReader(test.cipher), mode, PKCS7)
			}},
			{"NewReader(iotest.OneByteReader(bytes.NewReader(%v)))", func() io.Reader {
				return NewReader(iotest.OneByteReader(bytes.NewReader(test.cipher)), mode, PKCS7)
			}},
			{"iotest.OneByteReader(NewReader(bytes.NewReader(%v)))", func() io.Reader {
				return iotest.OneByteReader(NewReader(bytes.NewReader(test.cipher), mode, PKCS7))
			}},
			{"newReader(bytes.NewReader(%v), tight buffer)", func() io.Reader {
				return newReader(bytes.NewReader(test.cipher), mode, PKCS7, 0)
			}},
		}
		for _, w := range wrappers {
			plain := new(bytes.Buffer)
			_, err := io.Copy(plain, w.open())

			subject := fmt.Sprintf("io.Copy(..., "+w.name+")", test.cipher)
			if err != test.readErr {
				t.Errorf("%s error = %v; want %v", subject, err, test.readErr)
			}
			if test.readErr == nil && !bytes.Equal(plain.Bytes(), test.plain) {
				t.Errorf("%s data = %v; want %v", subject, plain.Bytes(), test.plain)
			}
		}
	}
}

func TestReader_LongInput(t *testing.T) {
	const blockSize = 4
	plain := make([]byte, 5000)
	for i := range plain {
		plain[i] = byte(i % 251)
	}
	ciphertext := new(bytes.Buffer)
	w := NewWriter(ciphertext, fakeBlockMode{size: blockSize, delta: 1}, PKCS7)
	if _, err := w.Write(plain); err != nil {
		t.Fatal("Write:", err)
	}
	if err := w.Close(); err != nil {
		t.Fatal("Close:", err)
	}

	got := new(bytes.Buffer)
	r := NewReader(iotest.HalfReader(ciphertext), fakeBlockMode{size: blockSize, delta: 255}, PKCS7)
	if _, err := io.Copy(got, r); err != nil {
		t.Fatal("io.Copy:", err)
	}
	if !bytes.Equal(got.Bytes(), plain) {
		t.Errorf("round trip of %d bytes produced %d different bytes", len(plain), got.Len())
	}
}

func TestReader_NoPadding(t *testing.T) {
	mode := fakeBlockMode{size: 4, delta: 255}
	r := NewReader(bytes.NewReader([]byte{1, 2, 3, 4, 5, 6, 7, 8}), mode, nil)
	got := new(bytes.Buffer)
	if _, err := io.Copy(got, r); err != nil {
		t.Fatal("io.Copy:", err)
	}
	if want := []byte{0, 1, 2, 3, 4, 5, 6, 7}; !bytes.Equal(got.Bytes(), want) {
		t.Errorf("data = %v; want %v", got.Bytes(), want)
	}

	r = NewReader(bytes.NewReader(nil), mode, nil)
	if n, err := io.Copy(new(bytes.Buffer), r); n != 0 || err != nil {
		t.Errorf("io.Copy(..., empty) = %d, %v; want 0, <nil>", n, err)
	}
}

func TestWriter(t *testing.T) {
	for _, test := range tests {
		if test.readErr != nil {
			continue
		}
		mode := fakeBlockMode{size: test.blockSize, delta: 1}
		writers := []struct {
			name string
			new  func(io.Writer) io.WriteCloser
			src  func() io.Reader
		}{
			{
				"io.Copy(NewWriter(...), bytes.NewReader(%v))",
				func(w io.Writer) io.WriteCloser { return NewWriter(w, mode, PKCS7) },
				func() io.Reader { return bytes.NewReader(test.plain) },
			},
			{
				"io.Copy(NewWriter(...), iotest.OneByteReader(bytes.NewReader(%v)))",
				func(w io.Writer) io.WriteCloser { return NewWriter(w, mode, PKCS7) },
				func() io.Reader { return iotest.OneByteReader(bytes.NewReader(test.plain)) },
			},
			{
				"io.Copy(newWriter(..., tight buffer), bytes.NewReader(%v))",
				func(w io.Writer) io.WriteCloser { return newWriter(w, mode, PKCS7, test.blockSize) },
				func() io.Reader { return bytes.NewReader(test.plain) },
			},
		}
		for _, ww := range writers {
			ciphertext := new(bytes.Buffer)
			w := ww.new(ciphertext)
			_, err := io.Copy(w, ww.src())
			cerr := w.Close()

			subject := fmt.Sprintf(ww.name, test.plain)
			if err != nil {
				t.Errorf("%s error: %v", subject, err)
			}
			if cerr != nil {
				t.Errorf("%s Close() error: %v", subject, cerr)
			}
			if !bytes.Equal(ciphertext.Bytes(), test.cipher) {
				t.Errorf("%s data = %v; want %v", subject, ciphertext.Bytes(), test.cipher)
			}
		}
	}
}

func TestWriter_NoPaddingPartialBlock(t *testing.T) {
	w := NewWriter(new(bytes.Buffer), fakeBlockMode{size: 4, delta: 1}, nil)
	if _, err := w.Write([]byte{1, 2, 3}); err != nil {
		t.Fatal("Write:", err)
	}
	if err := w.Close(); err != ErrTruncated {
		t.Errorf("Close() = %v; want %v", err, ErrTruncated)
	}
}

type fakeBlockMode struct {
	delta byte
	size  int
}

func (mode fakeBlockMode) BlockSize() int {
	return mode.size
}

func (mode fakeBlockMode) CryptBlocks(dst, src []byte) {
	for i := range src {
		dst[i] = src[i] + mode.delta
	}
}
