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

package main

import (
	"bytes"
	"fmt"
	"io"

	"github.com/dustin/go-humanize"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"gopkg.in/yaml.v2"
	"zombiezen.com/go/kdbxinspect/pkg/kdbx"
	"zombiezen.com/go/kdbxinspect/pkg/uuids"
)

type report struct {
	Path      string        `yaml:"path"`
	Size      int64         `yaml:"size"`
	Format    string        `yaml:"format"`
	Version   string        `yaml:"version,omitempty"`
	HeaderEnd int64         `yaml:"header_end,omitempty"`
	Headers   *headerReport `yaml:"headers,omitempty"`
	Body      *bodyReport   `yaml:"body,omitempty"`
}

type headerReport struct {
	Fingerprint         string   `yaml:"fingerprint"`
	Cipher              string   `yaml:"cipher"`
	Compression         string   `yaml:"compression"`
	TransformRounds     uint64   `yaml:"transform_rounds"`
	InnerRandomStreamID uint32   `yaml:"inner_random_stream_id"`
	Comment             string   `yaml:"comment,omitempty"`
	UnknownFields       []string `yaml:"unknown_fields,omitempty"`
}

type bodyReport struct {
	Offset      int64 `yaml:"offset"`
	Verified    bool  `yaml:"verified"`
	PayloadSize int64 `yaml:"payload_size"`
}

func newHeaderReport(h *kdbx.Headers, fp kdbx.Fingerprint) *headerReport {
	hr := &headerReport{
		Fingerprint:         fp.String(),
		Compression:         "none",
		TransformRounds:     h.TransformRounds,
		InnerRandomStreamID: h.InnerRandomStreamID,
		Comment:             string(h.Comment),
	}
	if c, err := h.Cipher(); err == nil {
		hr.Cipher = c.String()
	} else if u, err := uuids.FromBytes(h.CipherID); err == nil {
		hr.Cipher = "unknown " + u.String()
	} else {
		hr.Cipher = fmt.Sprintf("unknown %x", h.CipherID)
	}
	if h.UseGZip() {
		hr.Compression = "gzip"
	}
	for _, f := range h.Unknown {
		hr.UnknownFields = append(hr.UnknownFields, fmt.Sprintf("%v (%d bytes)", f.Kind, len(f.Value)))
	}
	return hr
}

func validOutput(format string) bool {
	return format == "" || format == "text" || format == "yaml"
}

func writeReport(w io.Writer, rep *report, format string) error {
	if format == "yaml" {
		out, err := yaml.Marshal(rep)
		if err != nil {
			return err
		}
		_, err = w.Write(out)
		return err
	}
	_, err := w.Write(formatText(rep, message.NewPrinter(language.English)))
	return err
}

func formatText(rep *report, p *message.Printer) []byte {
	buf := new(bytes.Buffer)
	line := func(label, format string, args ...interface{}) {
		p.Fprintf(buf, "%-18s", label+":")
		p.Fprintf(buf, format, args...)
		buf.WriteByte('\n')
	}
	line("Path", "%s", rep.Path)
	line("Size", "%s (%d bytes)", humanize.Bytes(uint64(rep.Size)), rep.Size)
	if rep.Version != "" {
		line("Format", "%s (version %s)", rep.Format, rep.Version)
	} else {
		line("Format", "%s", rep.Format)
	}
	if h := rep.Headers; h != nil {
		line("Header size", "%d bytes", rep.HeaderEnd)
		line("Fingerprint", "%s", h.Fingerprint)
		line("Cipher", "%s", h.Cipher)
		line("Compression", "%s", h.Compression)
		line("Transform rounds", "%d", h.TransformRounds)
		line("Inner stream", "%d", h.InnerRandomStreamID)
		if h.Comment != "" {
			line("Comment", "%q", h.Comment)
		}
		for _, f := range h.UnknownFields {
			line("Unknown field", "%s", f)
		}
	}
	if b := rep.Body; b != nil {
		line("Key", "verified")
		line("Payload", "%d bytes at offset %d", b.PayloadSize, b.Offset)
	}
	return buf.Bytes()
}
