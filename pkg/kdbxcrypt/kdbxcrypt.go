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

// Package kdbxcrypt encrypts and decrypts KeePass 2 database bodies.
//
// The body key is the SHA-256 digest of the file's master seed followed
// by the master key.  The master key itself comes from a CompositeKey run
// through the AES key transformation named in the file header.
package kdbxcrypt // import "zombiezen.com/go/kdbxinspect/pkg/kdbxcrypt"

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/sha256"
	"errors"
	"fmt"
	"io"

	"golang.org/x/crypto/twofish"
	"zombiezen.com/go/kdbxinspect/pkg/cipherio"
	"zombiezen.com/go/kdbxinspect/pkg/uuids"
)

// Errors
var (
	ErrUnknownCipher = errors.New("kdbxcrypt: unknown cipher")
	ErrSize          = errors.New("kdbxcrypt: data size not a multiple of the block size")
)

// Cipher is a block cipher algorithm used in CBC mode for the body.
type Cipher int

// Available ciphers
const (
	AES Cipher = iota
	Twofish
)

var cipherIDs = [...]uuids.UUID{
	AES:     uuids.MustParse("31c1f2e6-bf71-4350-be58-05216afc5aff"),
	Twofish: uuids.MustParse("ad68f29f-576f-4bb9-a36a-d47af965346c"),
}

// LookupCipher returns the cipher identified by a header's raw
// 16-byte cipher ID.
func LookupCipher(id []byte) (Cipher, error) {
	u, err := uuids.FromBytes(id)
	if err != nil {
		return 0, fmt.Errorf("%w %x", ErrUnknownCipher, id)
	}
	for c, cid := range cipherIDs {
		if cid == u {
			return Cipher(c), nil
		}
	}
	return 0, fmt.Errorf("%w %v", ErrUnknownCipher, u)
}

// ID returns the identifier written in file headers for c.
func (c Cipher) ID() uuids.UUID {
	if c < 0 || int(c) >= len(cipherIDs) {
		return uuids.UUID{}
	}
	return cipherIDs[c]
}

func (c Cipher) String() string {
	switch c {
	case AES:
		return "AES-256"
	case Twofish:
		return "Twofish"
	default:
		return fmt.Sprintf("Cipher(%d)", int(c))
	}
}

func (c Cipher) cipher(key []byte) (cipher.Block, error) {
	switch c {
	case AES:
		return aes.NewCipher(key)
	case Twofish:
		return twofish.NewCipher(key)
	default:
		return nil, ErrUnknownCipher
	}
}

// WorkingKey combines a file's master seed with a master key into the
// key handed to the block cipher.
func WorkingKey(masterSeed, masterKey []byte) []byte {
	h := sha256.New()
	h.Write(masterSeed)
	h.Write(masterKey)
	return h.Sum(nil)
}

// Params specifies the encryption/decryption values.
type Params struct {
	Cipher     Cipher
	MasterSeed []byte
	MasterKey  []byte
	IV         []byte
}

func (p *Params) block() (cipher.Block, error) {
	b, err := p.Cipher.cipher(WorkingKey(p.MasterSeed, p.MasterKey))
	if err != nil {
		return nil, err
	}
	if len(p.IV) != b.BlockSize() {
		return nil, fmt.Errorf("kdbxcrypt: IV is %d bytes, %v needs %d", len(p.IV), p.Cipher, b.BlockSize())
	}
	return b, nil
}

// NewEncrypter creates a new writer that encrypts to w.  Closing the
// new writer writes the final, padded block but does not close w.
func NewEncrypter(w io.Writer, params *Params) (io.WriteCloser, error) {
	b, err := params.block()
	if err != nil {
		return nil, err
	}
	return cipherio.NewWriter(w, cipher.NewCBCEncrypter(b, params.IV), cipherio.PKCS7), nil
}

// NewDecrypter creates a new reader that decrypts and strips padding from r.
func NewDecrypter(r io.Reader, params *Params) (io.Reader, error) {
	b, err := params.block()
	if err != nil {
		return nil, err
	}
	return cipherio.NewReader(r, cipher.NewCBCDecrypter(b, params.IV), cipherio.PKCS7), nil
}

// DecryptBlocks decrypts ciphertext in place and returns it.  Padding is
// left untouched, so a wrong key still yields a full-length result.
func DecryptBlocks(ciphertext []byte, params *Params) ([]byte, error) {
	b, err := params.block()
	if err != nil {
		return nil, err
	}
	if len(ciphertext)%b.BlockSize() != 0 {
		return nil, ErrSize
	}
	cipher.NewCBCDecrypter(b, params.IV).CryptBlocks(ciphertext, ciphertext)
	return ciphertext, nil
}
