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
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"strconv"

	"zombiezen.com/go/kdbxinspect/pkg/kdbxcrypt"
)

// FieldKind is the tag byte of a header field.
type FieldKind uint8

// Header field kinds
const (
	EndOfHeader         FieldKind = 0
	Comment             FieldKind = 1
	CipherID            FieldKind = 2
	CompressionFlags    FieldKind = 3
	MasterSeed          FieldKind = 4
	TransformSeed       FieldKind = 5
	TransformRounds     FieldKind = 6
	EncryptionIV        FieldKind = 7
	ProtectedStreamKey  FieldKind = 8
	StreamStartBytes    FieldKind = 9
	InnerRandomStreamID FieldKind = 10
)

var fieldKindNames = [...]string{
	EndOfHeader:         "EndOfHeader",
	Comment:             "Comment",
	CipherID:            "CipherID",
	CompressionFlags:    "CompressionFlags",
	MasterSeed:          "MasterSeed",
	TransformSeed:       "TransformSeed",
	TransformRounds:     "TransformRounds",
	EncryptionIV:        "EncryptionIV",
	ProtectedStreamKey:  "ProtectedStreamKey",
	StreamStartBytes:    "StreamStartBytes",
	InnerRandomStreamID: "InnerRandomStreamID",
}

func (k FieldKind) String() string {
	if int(k) < len(fieldKindNames) {
		return fieldKindNames[k]
	}
	return "FieldKind(" + strconv.Itoa(int(k)) + ")"
}

// Compression is the body compression algorithm.
type Compression uint32

// Compression algorithms
const (
	NoCompression Compression = 0
	GZip          Compression = 1
)

const masterSeedSize = 32

// defaultEndOfHeader is the terminator payload KeePass writes.
var defaultEndOfHeader = []byte("\r\n\r\n")

// Headers holds the decoded header fields of a file.  Byte slices are
// copies of the field payloads.
type Headers struct {
	Comment             []byte
	CipherID            []byte
	Compression         Compression
	MasterSeed          []byte
	TransformSeed       []byte
	TransformRounds     uint64
	EncryptionIV        []byte
	ProtectedStreamKey  []byte
	StreamStartBytes    []byte
	InnerRandomStreamID uint32

	// Unknown holds fields of kinds this package does not interpret,
	// in the order they were read.
	Unknown []Field

	// EndOfHeader is the payload of the terminating field.
	EndOfHeader []byte
}

// A Field is a raw header field.
type Field struct {
	Kind  FieldKind
	Value []byte
}

// UseGZip reports whether the decrypted body is gzip-compressed.
func (h *Headers) UseGZip() bool {
	return h.Compression == GZip
}

// Cipher returns the body cipher named by the CipherID field.  A header
// without a CipherID field uses AES.
func (h *Headers) Cipher() (kdbxcrypt.Cipher, error) {
	if len(h.CipherID) == 0 {
		return kdbxcrypt.AES, nil
	}
	return kdbxcrypt.LookupCipher(h.CipherID)
}

// Fingerprint is the SHA-256 digest of the raw header fields, from the
// first field's kind byte through the end of the terminating field.
// It is not checked against anything in this package.
type Fingerprint [sha256.Size]byte

func (fp Fingerprint) String() string {
	return hex.EncodeToString(fp[:])
}

// readHeaders scans fields until the terminator.  s must be positioned
// at the first field.
func readHeaders(s *stream) (*Headers, Fingerprint, error) {
	h := new(Headers)
	digest := sha256.New()
	s.h = digest
	defer func() { s.h = nil }()
	for {
		start := s.off
		kind := FieldKind(s.readUint8())
		n := int(s.readUint16())
		if s.err != nil {
			return nil, Fingerprint{}, headerReadError(s, start, kind)
		}
		val := make([]byte, n)
		s.readFull(val)
		if s.err != nil {
			return nil, Fingerprint{}, headerReadError(s, start, kind)
		}
		if kind == EndOfHeader {
			h.EndOfHeader = val
			break
		}
		if err := h.setField(kind, val); err != nil {
			return nil, Fingerprint{}, &FieldError{Offset: start, Kind: kind, Err: err}
		}
	}
	if err := h.checkRequired(); err != nil {
		return nil, Fingerprint{}, err
	}
	var fp Fingerprint
	digest.Sum(fp[:0])
	return h, fp, nil
}

// headerReadError reports a short read inside the header as a malformed
// field.  Other I/O errors are returned unchanged.
func headerReadError(s *stream, start int64, kind FieldKind) error {
	if s.err != io.EOF && s.err != io.ErrUnexpectedEOF {
		return s.err
	}
	return &FieldError{
		Offset: start,
		Kind:   kind,
		Err:    fmt.Errorf("stream ended at offset %d before end of header: %w", s.off, io.ErrUnexpectedEOF),
	}
}

func (h *Headers) setField(kind FieldKind, val []byte) error {
	switch kind {
	case Comment:
		h.Comment = val
	case CipherID:
		h.CipherID = val
	case CompressionFlags:
		if err := verifyFieldSize(val, 4); err != nil {
			return err
		}
		h.Compression = Compression(binary.LittleEndian.Uint32(val))
	case MasterSeed:
		if err := verifyFieldSize(val, masterSeedSize); err != nil {
			return err
		}
		h.MasterSeed = val
	case TransformSeed:
		h.TransformSeed = val
	case TransformRounds:
		if err := verifyFieldSize(val, 8); err != nil {
			return err
		}
		h.TransformRounds = binary.LittleEndian.Uint64(val)
	case EncryptionIV:
		h.EncryptionIV = val
	case ProtectedStreamKey:
		h.ProtectedStreamKey = val
	case StreamStartBytes:
		h.StreamStartBytes = val
	case InnerRandomStreamID:
		if err := verifyFieldSize(val, 4); err != nil {
			return err
		}
		h.InnerRandomStreamID = binary.LittleEndian.Uint32(val)
	default:
		h.Unknown = append(h.Unknown, Field{Kind: kind, Value: val})
	}
	return nil
}

// checkRequired verifies that the fields needed to decrypt the body
// are present.
func (h *Headers) checkRequired() error {
	required := []struct {
		kind FieldKind
		val  []byte
	}{
		{MasterSeed, h.MasterSeed},
		{EncryptionIV, h.EncryptionIV},
		{StreamStartBytes, h.StreamStartBytes},
	}
	for _, r := range required {
		if len(r.val) == 0 {
			return &FieldError{Offset: -1, Kind: r.kind, Err: ErrMissingField}
		}
	}
	return nil
}

var errFieldTooLong = errors.New("kdbx: field longer than 65535 bytes")

// WriteHeaders writes the file signature, version and header fields of
// h to w.  It returns the fingerprint of the fields written, which
// matches the one ReadHeaders computes when reading them back.
func WriteHeaders(w io.Writer, v Version, h *Headers) (Fingerprint, error) {
	ww := &writer{w: w}
	ww.writeUint32(baseSignature)
	ww.writeUint32(signature)
	ww.writeUint16(v.Minor)
	ww.writeUint16(v.Major)
	if ww.err != nil {
		return Fingerprint{}, ww.err
	}

	digest := sha256.New()
	ww.h = digest
	var u32 [4]byte
	var u64 [8]byte
	writeBytesField(ww, Comment, h.Comment)
	writeBytesField(ww, CipherID, h.CipherID)
	binary.LittleEndian.PutUint32(u32[:], uint32(h.Compression))
	writeField(ww, CompressionFlags, u32[:])
	writeBytesField(ww, MasterSeed, h.MasterSeed)
	writeBytesField(ww, TransformSeed, h.TransformSeed)
	binary.LittleEndian.PutUint64(u64[:], h.TransformRounds)
	writeField(ww, TransformRounds, u64[:])
	writeBytesField(ww, EncryptionIV, h.EncryptionIV)
	writeBytesField(ww, ProtectedStreamKey, h.ProtectedStreamKey)
	writeBytesField(ww, StreamStartBytes, h.StreamStartBytes)
	binary.LittleEndian.PutUint32(u32[:], h.InnerRandomStreamID)
	writeField(ww, InnerRandomStreamID, u32[:])
	for _, f := range h.Unknown {
		writeField(ww, f.Kind, f.Value)
	}
	end := h.EndOfHeader
	if end == nil {
		end = defaultEndOfHeader
	}
	writeField(ww, EndOfHeader, end)
	if ww.err != nil {
		return Fingerprint{}, ww.err
	}
	var fp Fingerprint
	digest.Sum(fp[:0])
	return fp, nil
}

// writeBytesField writes a field only if val is non-empty.
func writeBytesField(w *writer, kind FieldKind, val []byte) {
	if len(val) > 0 {
		writeField(w, kind, val)
	}
}

func writeField(w *writer, kind FieldKind, val []byte) {
	if len(val) > 0xffff {
		if w.err == nil {
			w.err = errFieldTooLong
		}
		return
	}
	w.writeUint8(uint8(kind))
	w.writeUint16(uint16(len(val)))
	w.write(val)
}
