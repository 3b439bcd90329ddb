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
	"crypto/subtle"
	"errors"
	"fmt"
	"io"

	"zombiezen.com/go/kdbxinspect/pkg/cipherio"
	"zombiezen.com/go/kdbxinspect/pkg/kdbxcrypt"
)

// Body is a decrypted file body.
type Body struct {
	// Offset is the stream position where the ciphertext began.
	Offset int64

	data      []byte
	blockSize int
}

// Bytes returns the decrypted body, including the final block's padding.
// The bytes must not be interpreted until Verify succeeds.
func (b *Body) Bytes() []byte {
	return b.data
}

// Verify checks that the body starts with marker, the header's stream
// start bytes.  It returns ErrKeyVerificationFailed on a mismatch, which
// means the key material was wrong.  Verify does not detect tampering.
func (b *Body) Verify(marker []byte) error {
	if !hasMarker(b.data, marker) {
		return ErrKeyVerificationFailed
	}
	return nil
}

// Payload verifies the body against marker and returns the bytes that
// follow it, with the block padding removed.
func (b *Body) Payload(marker []byte) ([]byte, error) {
	if err := b.Verify(marker); err != nil {
		return nil, err
	}
	p, err := cipherio.PKCS7.Strip(b.data, b.blockSize)
	if err != nil {
		return nil, fmt.Errorf("kdbx: decrypted body: %w", err)
	}
	if len(p) < len(marker) {
		return nil, fmt.Errorf("kdbx: decrypted body: %w", cipherio.ErrWrongPadding)
	}
	return p[len(marker):], nil
}

func hasMarker(data, marker []byte) bool {
	return len(marker) > 0 && len(data) >= len(marker) &&
		subtle.ConstantTimeCompare(data[:len(marker)], marker) == 1
}

// DecryptBody decrypts the rest of r with AES-256 in CBC mode, keyed by
// the SHA-256 digest of masterSeed followed by masterKey.  r should be
// positioned just after the header fields.  If r is an io.Seeker, the
// returned body's Offset is r's position on entry; otherwise it is zero.
func DecryptBody(r io.Reader, masterSeed, masterKey, encryptionIV []byte) (*Body, error) {
	var off int64
	if sk, ok := r.(io.Seeker); ok {
		pos, err := sk.Seek(0, io.SeekCurrent)
		if err != nil {
			return nil, err
		}
		off = pos
	}
	s := &stream{r: r, off: off}
	return decryptBody(s, &kdbxcrypt.Params{
		Cipher:     kdbxcrypt.AES,
		MasterSeed: masterSeed,
		MasterKey:  masterKey,
		IV:         encryptionIV,
	})
}

func decryptBody(s *stream, params *kdbxcrypt.Params) (*Body, error) {
	start := s.off
	ciphertext, err := io.ReadAll(s)
	if err != nil {
		return nil, err
	}
	if len(ciphertext) == 0 {
		return nil, fmt.Errorf("%w: no ciphertext after offset %d", ErrIncompleteInput, start)
	}
	plain, err := kdbxcrypt.DecryptBlocks(ciphertext, params)
	if errors.Is(err, kdbxcrypt.ErrSize) {
		return nil, fmt.Errorf("%w: ciphertext of %d bytes is not whole blocks", ErrIncompleteInput, len(ciphertext))
	}
	if err != nil {
		return nil, err
	}
	return &Body{
		Offset:    start,
		data:      plain,
		blockSize: len(params.IV),
	}, nil
}

// NewBodyReader returns a reader of the decrypted body of r that yields
// the bytes after marker, without the block padding.  The marker is
// checked before NewBodyReader returns, so a wrong key is reported as
// ErrKeyVerificationFailed without reading the whole body.
func NewBodyReader(r io.Reader, params *kdbxcrypt.Params, marker []byte) (io.Reader, error) {
	if len(marker) == 0 {
		return nil, &FieldError{Offset: -1, Kind: StreamStartBytes, Err: ErrMissingField}
	}
	d, err := kdbxcrypt.NewDecrypter(r, params)
	if err != nil {
		return nil, err
	}
	got := make([]byte, len(marker))
	switch _, err := io.ReadFull(d, got); {
	case err == cipherio.ErrTruncated:
		return nil, fmt.Errorf("%w: %v", ErrIncompleteInput, err)
	case err == io.EOF || err == io.ErrUnexpectedEOF || err == cipherio.ErrWrongPadding:
		// Too short to hold the marker or garbage padding: either way
		// the key did not produce the expected plaintext.
		return nil, ErrKeyVerificationFailed
	case err != nil:
		return nil, err
	}
	if !hasMarker(got, marker) {
		return nil, ErrKeyVerificationFailed
	}
	return d, nil
}
