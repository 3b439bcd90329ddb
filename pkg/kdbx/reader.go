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
	"fmt"
	"io"

	"zombiezen.com/go/kdbxinspect/pkg/kdbxcrypt"
)

// A Reader reads one file in order: signature, headers, then body.
// It never reads further ahead in the underlying reader than the step
// being performed needs.  A Reader must not be used concurrently.
type Reader struct {
	s       stream
	sniffed bool
	format  Format
	version Version
	err     error

	headers *Headers
	fp      Fingerprint
}

// NewReader returns a Reader that reads from r.  r should be positioned
// at the start of the file.
func NewReader(r io.Reader) *Reader {
	return &Reader{s: stream{r: r}}
}

// Offset returns the number of bytes consumed from the underlying reader.
func (r *Reader) Offset() int64 {
	return r.s.off
}

// Version returns the file's version.  It is zero unless Sniff found a
// header-field generation signature.
func (r *Reader) Version() Version {
	return r.version
}

// Sniff classifies the file from its signature and version.  After
// Sniff returns PartiallySupported or FullySupported, the reader is
// positioned at the first header field.  A stream too short to classify
// is reported as ErrIncompleteInput.  Calling Sniff again returns the
// first result.
func (r *Reader) Sniff() (Format, error) {
	if r.sniffed {
		return r.format, r.err
	}
	r.sniffed = true
	r.format, r.version, r.err = sniff(&r.s)
	return r.format, r.err
}

func sniff(s *stream) (Format, Version, error) {
	if sig := s.readUint32(); s.err != nil {
		return NotRecognized, Version{}, incomplete(s.err, s.off)
	} else if sig != baseSignature {
		return NotRecognized, Version{}, nil
	}
	switch sig := s.readUint32(); {
	case s.err != nil:
		return NotRecognized, Version{}, incomplete(s.err, s.off)
	case sig == legacySignature:
		return KeePass1x, Version{}, nil
	case sig == preReleaseSignature:
		return TooOld, Version{}, nil
	case sig != signature:
		return NotRecognized, Version{}, nil
	}
	var v Version
	v.Minor = s.readUint16()
	v.Major = s.readUint16()
	if s.err != nil {
		return NotRecognized, Version{}, incomplete(s.err, s.off)
	}
	return classify(v), v, nil
}

// ReadHeaders reads the header fields, sniffing the file first if
// needed.  It returns ErrNotParseable if the file's format does not
// permit reading headers.  The returned fingerprint covers the raw
// field bytes.  Calling ReadHeaders again returns the first result.
func (r *Reader) ReadHeaders() (*Headers, Fingerprint, error) {
	if r.headers != nil {
		return r.headers, r.fp, nil
	}
	f, err := r.Sniff()
	if err != nil {
		return nil, Fingerprint{}, err
	}
	if !f.Parseable() {
		return nil, Fingerprint{}, fmt.Errorf("%w: %v", ErrNotParseable, f)
	}
	if r.err != nil {
		return nil, Fingerprint{}, r.err
	}
	h, fp, err := readHeaders(&r.s)
	if err != nil {
		r.err = err
		return nil, Fingerprint{}, err
	}
	r.headers, r.fp = h, fp
	return h, fp, nil
}

// DecryptBody reads the headers if needed, then decrypts the rest of
// the stream with the header's cipher, master seed and IV.  masterKey
// is the output of the key transformation, for example
// kdbxcrypt.CompositeKey.MasterKey.  Call Verify on the result before
// trusting it.
func (r *Reader) DecryptBody(masterKey []byte) (*Body, error) {
	params, err := r.bodyParams(masterKey)
	if err != nil {
		return nil, err
	}
	return decryptBody(&r.s, params)
}

// BodyReader is like DecryptBody, but returns a streaming reader from
// NewBodyReader that has already verified the stream start bytes.
func (r *Reader) BodyReader(masterKey []byte) (io.Reader, error) {
	params, err := r.bodyParams(masterKey)
	if err != nil {
		return nil, err
	}
	return NewBodyReader(&r.s, params, r.headers.StreamStartBytes)
}

func (r *Reader) bodyParams(masterKey []byte) (*kdbxcrypt.Params, error) {
	h, _, err := r.ReadHeaders()
	if err != nil {
		return nil, err
	}
	c, err := h.Cipher()
	if err != nil {
		return nil, err
	}
	return &kdbxcrypt.Params{
		Cipher:     c,
		MasterSeed: h.MasterSeed,
		MasterKey:  masterKey,
		IV:         h.EncryptionIV,
	}, nil
}

// Result is the outcome of classifying a file and, when its format
// permits, reading its headers.
type Result struct {
	Format  Format
	Version Version

	// Offset is the stream position after the signature, or after the
	// headers when they were read.
	Offset int64

	headers *Headers
	fp      Fingerprint
}

// Headers returns the file's headers and their fingerprint.  ok is true
// if and only if r.Format.Parseable().
func (res *Result) Headers() (h *Headers, fp Fingerprint, ok bool) {
	return res.headers, res.fp, res.headers != nil
}

// ReadHeaders classifies the file read from r and reads its headers if
// the format permits.  An unrecognized or unsupported file is not an
// error: the Result carries the Format and no headers.
func ReadHeaders(r io.Reader) (*Result, error) {
	kr := NewReader(r)
	f, err := kr.Sniff()
	if err != nil {
		return nil, err
	}
	res := &Result{Format: f, Version: kr.Version()}
	if f.Parseable() {
		res.headers, res.fp, err = kr.ReadHeaders()
		if err != nil {
			return nil, err
		}
	}
	res.Offset = kr.Offset()
	return res, nil
}
