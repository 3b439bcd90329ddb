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

package kdbxcrypt

import (
	"bytes"
	"context"
	"crypto/aes"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"encoding/xml"
	"errors"
	"io"
	"sync"
)

// ErrEmptyKey is returned when a CompositeKey has neither a password nor
// a key file.
var ErrEmptyKey = errors.New("kdbxcrypt: composite key has no components")

// A CompositeKey is the set of user secrets that unlock a database.
type CompositeKey struct {
	Password    []byte // optional
	KeyFileHash []byte // optional, from ReadKeyFile
}

// hash returns the key's hash prior to the transform rounds.
func (k *CompositeKey) hash() ([sha256.Size]byte, error) {
	if len(k.Password) == 0 && len(k.KeyFileHash) == 0 {
		return [sha256.Size]byte{}, ErrEmptyKey
	}
	h := sha256.New()
	if len(k.Password) > 0 {
		p := sha256.Sum256(k.Password)
		h.Write(p[:])
	}
	h.Write(k.KeyFileHash)
	var a [sha256.Size]byte
	h.Sum(a[:0])
	return a, nil
}

// checkInterval is how many rounds run between context checks.
const checkInterval = 1 << 16

// MasterKey applies the AES key transformation with the header's
// transform seed and round count and returns the master key.  Both
// 16-byte halves are transformed concurrently.  If ctx is done before
// the rounds finish, ctx.Err() is returned.
func (k *CompositeKey) MasterKey(ctx context.Context, seed []byte, rounds uint64) ([]byte, error) {
	base, err := k.hash()
	if err != nil {
		return nil, err
	}
	c, err := aes.NewCipher(seed)
	if err != nil {
		return nil, err
	}
	var (
		wg   sync.WaitGroup
		tk   [sha256.Size]byte
		errs [2]error
	)
	wg.Add(2)
	go func() {
		defer wg.Done()
		errs[0] = transformKeyBlock(ctx, c, tk[:aes.BlockSize], base[:aes.BlockSize], rounds)
	}()
	go func() {
		defer wg.Done()
		errs[1] = transformKeyBlock(ctx, c, tk[aes.BlockSize:], base[aes.BlockSize:], rounds)
	}()
	wg.Wait()
	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}
	mk := sha256.Sum256(tk[:])
	return mk[:], nil
}

// transformKeyBlock applies rounds of AES encryption to src and stores
// the result in dst.
func transformKeyBlock(ctx context.Context, c interface{ Encrypt(dst, src []byte) }, dst, src []byte, rounds uint64) error {
	dst = dst[:aes.BlockSize]
	copy(dst, src)
	for i := uint64(0); i < rounds; i++ {
		if i%checkInterval == 0 {
			if err := ctx.Err(); err != nil {
				return err
			}
		}
		c.Encrypt(dst, dst)
	}
	return nil
}

// maxKeyFileParse is the largest key file that is inspected for a
// structured format before falling back to hashing.
const maxKeyFileParse = 1 << 20

// ReadKeyFile reads a key file and returns its hash for use in a
// CompositeKey.  XML key files, 32-byte binary files and 64-character
// hex files are used directly; anything else is hashed with SHA-256.
func ReadKeyFile(r io.Reader) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(r, maxKeyFileParse+1))
	if err != nil {
		return nil, err
	}
	if len(data) <= maxKeyFileParse {
		if key, ok := parseXMLKeyFile(data); ok {
			return key, nil
		}
		switch len(data) {
		case 32:
			return data, nil
		case 64:
			h := make([]byte, hex.DecodedLen(len(data)))
			if _, err := hex.Decode(h, data); err == nil {
				return h, nil
			}
		}
	}
	s := sha256.New()
	s.Write(data)
	if _, err := io.Copy(s, r); err != nil {
		return nil, err
	}
	return s.Sum(nil), nil
}

type xmlKeyFile struct {
	XMLName xml.Name `xml:"KeyFile"`
	Version string   `xml:"Meta>Version"`
	Data    struct {
		Hash  string `xml:"Hash,attr"`
		Value string `xml:",chardata"`
	} `xml:"Key>Data"`
}

// parseXMLKeyFile decodes the version 1.0 (base64) and 2.0 (hex with
// checksum) XML key file formats.
func parseXMLKeyFile(data []byte) ([]byte, bool) {
	if !bytes.Contains(data, []byte("<KeyFile")) {
		return nil, false
	}
	var kf xmlKeyFile
	if err := xml.Unmarshal(data, &kf); err != nil {
		return nil, false
	}
	switch kf.Version {
	case "1.0", "1.00":
		key, err := base64.StdEncoding.DecodeString(string(bytes.TrimSpace([]byte(kf.Data.Value))))
		if err != nil || len(key) == 0 {
			return nil, false
		}
		return key, true
	case "2.0":
		key, err := hex.DecodeString(string(bytes.Join(bytes.Fields([]byte(kf.Data.Value)), nil)))
		if err != nil || len(key) != 32 {
			return nil, false
		}
		if kf.Data.Hash != "" {
			sum := sha256.Sum256(key)
			want, err := hex.DecodeString(kf.Data.Hash)
			if err != nil || len(want) > len(sum) || !bytes.Equal(want, sum[:len(want)]) {
				return nil, false
			}
		}
		return key, true
	}
	return nil, false
}
