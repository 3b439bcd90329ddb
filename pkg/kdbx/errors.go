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
	"errors"
	"fmt"
	"io"
)

// Errors
var (
	// ErrIncompleteInput is returned when the stream ends before a
	// fixed-size read completes.
	ErrIncompleteInput = errors.New("kdbx: incomplete input")

	// ErrMalformedHeader matches every *FieldError.
	ErrMalformedHeader = errors.New("kdbx: malformed header")

	// ErrMissingField is wrapped in a *FieldError when a field required
	// for decryption is absent or empty.
	ErrMissingField = errors.New("required field missing")

	// ErrNotParseable is returned when headers are requested from a file
	// whose format does not permit reading them.
	ErrNotParseable = errors.New("kdbx: headers not readable for this format")

	// ErrKeyVerificationFailed is returned when the decrypted body does
	// not start with the header's stream start bytes.  The key material
	// is wrong and the body must not be used.
	ErrKeyVerificationFailed = errors.New("kdbx: key verification failed")
)

// FieldError describes a header field that could not be read.
type FieldError struct {
	Offset int64 // stream offset of the field's kind byte
	Kind   FieldKind
	Err    error
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("kdbx: %v field at offset %d: %v", e.Kind, e.Offset, e.Err)
}

func (e *FieldError) Unwrap() error {
	return e.Err
}

// Is reports whether target is ErrMalformedHeader.
func (e *FieldError) Is(target error) bool {
	return target == ErrMalformedHeader
}

type sizeError struct {
	size int
	want int
}

func (e sizeError) Error() string {
	return fmt.Sprintf("size is %d, should be %d", e.size, e.want)
}

func verifyFieldSize(val []byte, want int) error {
	if n := len(val); n != want {
		return sizeError{n, want}
	}
	return nil
}

// incomplete converts a short read into ErrIncompleteInput.  Other I/O
// errors are returned unchanged.
func incomplete(err error, off int64) error {
	if err == io.EOF || err == io.ErrUnexpectedEOF {
		return fmt.Errorf("%w: stream ended at offset %d", ErrIncompleteInput, off)
	}
	return err
}
