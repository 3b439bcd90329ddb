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
	"bufio"
	"context"
	"fmt"
	"io"
	"os"

	"github.com/sirupsen/logrus"
	"zombiezen.com/go/kdbxinspect/pkg/kdbx"
	"zombiezen.com/go/kdbxinspect/pkg/kdbxcrypt"
)

// run inspects the database named in opts and writes a report to w.
func run(ctx context.Context, log logrus.FieldLogger, w io.Writer, opts *options) error {
	if !validOutput(opts.output) {
		return userError{
			msg: fmt.Sprintf("unknown output format %q", opts.output),
			err: fmt.Errorf("output format %q", opts.output),
		}
	}
	rep, err := inspect(ctx, log, opts)
	if err != nil {
		return explain(err)
	}
	return writeReport(w, rep, opts.output)
}

func inspect(ctx context.Context, log logrus.FieldLogger, opts *options) (*report, error) {
	st, err := openStorage(opts.dbPath)
	if err != nil {
		return nil, err
	}
	defer st.Close()
	r, err := st.reader()
	if err != nil {
		return nil, err
	}
	kr := kdbx.NewReader(bufio.NewReader(r))
	f, err := kr.Sniff()
	if err != nil {
		return nil, fmt.Errorf("sniff %s: %w", st.path, err)
	}
	rep := &report{Path: st.path, Size: st.size, Format: f.String()}
	if v := kr.Version(); v != (kdbx.Version{}) {
		rep.Version = v.String()
	}
	entry := log.WithFields(logrus.Fields{"path": st.path, "format": f.String()})
	entry.Debug("sniffed database")
	if !f.Parseable() {
		if opts.verify {
			entry.Warn("format has no readable headers; skipping key verification")
		}
		return rep, nil
	}
	if f == kdbx.PartiallySupported {
		entry.WithField("version", rep.Version).Warn("newer minor version; some header fields may be uninterpreted")
	}

	h, fp, err := kr.ReadHeaders()
	if err != nil {
		return nil, fmt.Errorf("read headers of %s: %w", st.path, err)
	}
	rep.HeaderEnd = kr.Offset()
	rep.Headers = newHeaderReport(h, fp)
	entry.WithField("fingerprint", rep.Headers.Fingerprint).Debug("read headers")
	if !opts.verify {
		return rep, nil
	}

	key, err := compositeKey(opts)
	if err != nil {
		return nil, err
	}
	defer zeroBytes(key.Password)
	entry.WithField("rounds", h.TransformRounds).Debug("transforming key")
	mk, err := key.MasterKey(ctx, h.TransformSeed, h.TransformRounds)
	if err != nil {
		return nil, fmt.Errorf("transform key: %w", err)
	}
	defer zeroBytes(mk)
	body, err := kr.BodyReader(mk)
	if err != nil {
		return nil, fmt.Errorf("decrypt %s: %w", st.path, err)
	}
	n, err := io.Copy(io.Discard, body)
	if err != nil {
		return nil, fmt.Errorf("decrypt %s: %w", st.path, err)
	}
	rep.Body = &bodyReport{Offset: rep.HeaderEnd, Verified: true, PayloadSize: n}
	entry.Info("key verified")
	return rep, nil
}

// compositeKey gathers the user's secrets.  The password is prompted for
// only if neither a password nor a key file was configured.
func compositeKey(opts *options) (*kdbxcrypt.CompositeKey, error) {
	key := new(kdbxcrypt.CompositeKey)
	if opts.keyFile != "" {
		f, err := os.Open(opts.keyFile)
		if err != nil {
			return nil, err
		}
		key.KeyFileHash, err = kdbxcrypt.ReadKeyFile(f)
		f.Close()
		if err != nil {
			return nil, fmt.Errorf("read key file %s: %w", opts.keyFile, err)
		}
	}
	switch {
	case opts.password != nil:
		key.Password = append([]byte(nil), opts.password...)
	case opts.keyFile == "" && opts.prompt != nil:
		pw, err := opts.prompt()
		if err != nil {
			return nil, err
		}
		key.Password = pw
	}
	return key, nil
}
