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

package uuids

import (
	"bytes"
	"testing"
)

var hexTests = []struct {
	u UUID
	s string
}{
	{
		UUID{},
		"00000000-0000-0000-0000-000000000000",
	},
	{
		UUID{0x31, 0xc1, 0xf2, 0xe6, 0xbf, 0x71, 0x43, 0x50, 0xbe, 0x58, 0x05, 0x21, 0x6a, 0xfc, 0x5a, 0xff},
		"31c1f2e6-bf71-4350-be58-05216afc5aff",
	},
}

func TestParse(t *testing.T) {
	for _, test := range hexTests {
		u, err := Parse(test.s)
		if err != nil {
			t.Errorf("Parse(%q) unexpected error: %v", test.s, err)
		}
		if u != test.u {
			t.Errorf("Parse(%q) = %v; want %v", test.s, u, test.u)
		}
	}

	parseTests := []struct {
		s    string
		u    UUID
		fail bool
	}{
		{
			s: "ad68f29f576f4bb9a36ad47af965346c",
			u: UUID{0xad, 0x68, 0xf2, 0x9f, 0x57, 0x6f, 0x4b, 0xb9, 0xa3, 0x6a, 0xd4, 0x7a, 0xf9, 0x65, 0x34, 0x6c},
		},
		{
			s:    "",
			fail: true,
		},
		{
			s:    "XXXXXXXXXXXXXXXXXXXXXXXXXXXXXXXX",
			fail: true,
		},
		{
			s:    "ad68f29f576f4bb9a36ad47af965346",
			fail: true,
		},
		{
			s:    "ad68f29f576f4bb9a36ad47af965346c6c",
			fail: true,
		},
	}
	for _, test := range parseTests {
		u, err := Parse(test.s)
		if (err != nil) != test.fail {
			if test.fail {
				t.Errorf("Parse(%q) should return an error", test.s)
			} else {
				t.Errorf("Parse(%q) unexpected error: %v", test.s, err)
			}
		}
		if u != test.u {
			t.Errorf("Parse(%q) = %v; want %v", test.s, u, test.u)
		}
	}
}

func TestMustParse_Panics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("MustParse(\"bogus\") did not panic")
		}
	}()
	MustParse("bogus")
}

func TestFromBytes(t *testing.T) {
	want := hexTests[1].u
	u, err := FromBytes(want[:])
	if err != nil {
		t.Fatalf("FromBytes(%v) error: %v", want[:], err)
	}
	if u != want {
		t.Errorf("FromBytes(%v) = %v; want %v", want[:], u, want)
	}
	if _, err := FromBytes(want[:15]); err == nil {
		t.Errorf("FromBytes(%v) should return an error", want[:15])
	}
}

func TestAppendHex(t *testing.T) {
	for _, test := range hexTests {
		s := test.u.AppendHex(make([]byte, 0, 36))
		if !bytes.Equal(s, []byte(test.s)) {
			t.Errorf("UUID(%v).AppendHex(make([]byte, 0, 36)) = %q; want %q", [16]byte(test.u), s, test.s)
		}

		b := make([]byte, 0, 39)
		b = append(b, "foo"...)
		s = test.u.AppendHex(b)
		if !bytes.Equal(s, []byte("foo"+test.s)) {
			t.Errorf("UUID(%v).AppendHex(\"foo\") = %q; want %q", [16]byte(test.u), s, "foo"+test.s)
		}
	}
}

func TestString(t *testing.T) {
	for _, test := range hexTests {
		if s := test.u.String(); s != test.s {
			t.Errorf("UUID(%v).String() = %q; want %q", [16]byte(test.u), s, test.s)
		}
	}
}

func TestIsZero(t *testing.T) {
	if !(UUID{}).IsZero() {
		t.Error("UUID{}.IsZero() = false; want true")
	}
	if hexTests[1].u.IsZero() {
		t.Errorf("UUID(%v).IsZero() = true; want false", hexTests[1].u)
	}
}
