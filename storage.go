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
	"errors"
	"io"
	"os"
)

var errIsDir = errors.New("is a directory")

// storage is a read-only handle to a single database file.
type storage struct {
	f    *os.File
	path string
	size int64
}

// openStorage opens the database file at path.
func openStorage(path string) (*storage, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, err
	}
	if info.IsDir() {
		f.Close()
		return nil, &os.PathError{Op: "open", Path: path, Err: errIsDir}
	}
	return &storage{f: f, path: path, size: info.Size()}, nil
}

// reader returns a reader positioned at the start of the file.
func (st *storage) reader() (io.Reader, error) {
	if _, err := st.f.Seek(0, io.SeekStart); err != nil {
		return nil, err
	}
	return st.f, nil
}

func (st *storage) Close() error {
	return st.f.Close()
}
