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

// Package kdbx identifies and decrypts KeePass 2 (KDBX) database files.
//
// Reading a file is a pipeline over one stream: Sniff classifies the
// signature and version, ReadHeaders scans the typed header fields while
// fingerprinting them, and DecryptBody decrypts the rest of the stream.
// The only check made on the decrypted body is Body.Verify, which
// compares its first bytes with the header's stream start bytes.  That
// is a known-plaintext test for a wrong key, not an integrity check: it
// says nothing about whether the rest of the body has been altered.
package kdbx // import "zombiezen.com/go/kdbxinspect/pkg/kdbx"

import "strconv"

// File signatures, as little-endian 32-bit integers.
const (
	baseSignature       = 0x9aa2d903
	legacySignature     = 0xb54bfb65 // KeePass 1.x
	preReleaseSignature = 0xb54bfb66 // KeePass 2.x pre-release, no header fields
	signature           = 0xb54bfb67
)

// Supported header-field generations.
const (
	minMajorVersion = 3
	maxMajorVersion = 3
)

// maxMinorVersion is the highest minor version that is fully understood
// for each supported major version.
var maxMinorVersion = map[uint16]uint16{
	3: 1,
}

// Format is the classification of a file by its signature and version.
type Format int

// Formats
const (
	NotRecognized Format = iota
	KeePass1x
	TooOld
	TooNew
	PartiallySupported
	FullySupported
)

var formatNames = [...]string{
	NotRecognized:      "not recognized",
	KeePass1x:          "KeePass 1.x",
	TooOld:             "too old",
	TooNew:             "too new",
	PartiallySupported: "partially supported",
	FullySupported:     "supported",
}

func (f Format) String() string {
	if f < 0 || int(f) >= len(formatNames) {
		return "Format(" + strconv.Itoa(int(f)) + ")"
	}
	return formatNames[f]
}

// Parseable reports whether files of this format have headers that can
// be read.  Headers of a partially supported file may contain fields
// that this package does not know how to interpret.
func (f Format) Parseable() bool {
	return f == FullySupported || f == PartiallySupported
}

// Version is a file format version.
type Version struct {
	Major uint16
	Minor uint16
}

func (v Version) String() string {
	return strconv.Itoa(int(v.Major)) + "." + strconv.Itoa(int(v.Minor))
}

// classify maps a header-field generation version to a format.
func classify(v Version) Format {
	switch {
	case v.Major < minMajorVersion:
		return TooOld
	case v.Major > maxMajorVersion:
		return TooNew
	case v.Minor > maxMinorVersion[v.Major]:
		return PartiallySupported
	default:
		return FullySupported
	}
}
