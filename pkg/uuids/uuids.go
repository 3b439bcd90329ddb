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

// Package uuids provides a value type for the 128-bit identifiers that
// KeePass stores in binary headers, formatted as defined by RFC 4122.
package uuids // import "zombiezen.com/go/kdbxinspect/pkg/uuids"

import (
	"encoding/hex"
	"errors"
	"strconv"
)

// A UUID is a universally unique identifier: a 128-bit value.
// KeePass writes the bytes in the same order they appear in the
// dash-separated string form.
type UUID [16]byte

// Parse parses a hex-encoded UUID string (that may contain dashes) into a UUID.
func Parse(s string) (UUID, error) {
	b := []byte(s)
	n := 0
	for i := 0; i < len(b); i++ {
		if b[i] != '-' {
			b[n] = b[i]
			n++
		}
	}
	b = b[:n]
	var u UUID
	if len(b) != hex.EncodedLen(len(u)) {
		return UUID{}, parseError{s, errSize}
	}
	if _, err := hex.Decode(u[:], b); err != nil {
		return UUID{}, parseError{s, err}
	}
	return u, nil
}

// MustParse is like Parse but panics if s cannot be parsed.
// It is intended for package-level identifier tables.
func MustParse(s string) UUID {
	u, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return u
}

// FromBytes converts a raw 16-byte header value into a UUID.
func FromBytes(b []byte) (UUID, error) {
	var u UUID
	if len(b) != len(u) {
		return UUID{}, errSize
	}
	copy(u[:], b)
	return u, nil
}

var errSize = errors.New("uuid: wrong size")

type parseError struct {
	s   string
	err error
}

func (e parseError) Error() string {
	return "uuid: failed to parse " + strconv.Quote(e.s) + ": " + e.err.Error()
}

func (e parseError) Unwrap() error {
	return e.err
}

// AppendHex appends the dash-separated hex representation of u to b
// and returns the extended buffer.
func (u UUID) AppendHex(b []byte) []byte {
	b = appendHex(b, u[:4])
	b = append(b, '-')
	b = appendHex(b, u[4:6])
	b = append(b, '-')
	b = appendHex(b, u[6:8])
	b = append(b, '-')
	b = appendHex(b, u[8:10])
	b = append(b, '-')
	b = appendHex(b, u[10:])
	return b
}

func appendHex(b, src []byte) []byte {
	i := len(b)
	n := hex.EncodedLen(len(src))
	for j := 0; j < n; j++ {
		b = append(b, 0)
	}
	hex.Encode(b[i:], src)
	return b
}

// IsZero reports whether this is the zero UUID.
func (u UUID) IsZero() bool {
	return u == UUID{}
}

// String returns the dash-separated hex representation of u as a string.
func (u UUID) String() string {
	b := make([]byte, 0, 36)
	b = u.AppendHex(b)
	return string(b)
}
