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
	"context"
	"errors"
	"os"

	"zombiezen.com/go/kdbxinspect/pkg/kdbx"
	"zombiezen.com/go/kdbxinspect/pkg/kdbxcrypt"
)

func isUserError(e error) bool {
	return userErrorMessage(e) != ""
}

func userErrorMessage(e error) string {
	var ue interface {
		UserError() string
	}
	if !errors.As(e, &ue) {
		return ""
	}
	return ue.UserError()
}

type userError struct {
	msg string
	err error
}

func (ue userError) Error() string {
	return ue.err.Error()
}

func (ue userError) UserError() string {
	return ue.msg
}

func (ue userError) Unwrap() error {
	return ue.err
}

var userMessages = []struct {
	target error
	msg    string
}{
	{kdbx.ErrKeyVerificationFailed, "wrong password or key file"},
	{kdbx.ErrIncompleteInput, "database file is truncated"},
	{kdbx.ErrMissingField, "database header is missing a required field"},
	{kdbx.ErrMalformedHeader, "database header is damaged"},
	{kdbxcrypt.ErrUnknownCipher, "database uses an unsupported cipher"},
	{kdbxcrypt.ErrEmptyKey, "no password or key file given"},
	{os.ErrNotExist, "database or key file not found"},
	{context.Canceled, "interrupted"},
}

// explain wraps errors that have a known cause in a userError.
func explain(err error) error {
	if err == nil || isUserError(err) {
		return err
	}
	for _, m := range userMessages {
		if errors.Is(err, m.target) {
			return userError{msg: m.msg, err: err}
		}
	}
	return err
}
