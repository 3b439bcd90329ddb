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

// kdbxinspect identifies KeePass database files, prints their headers,
// and optionally checks a password or key file against the encrypted body.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"

	"github.com/sirupsen/logrus"
)

var (
	dbPath      = flag.String("db", "", "path to database")
	keyFilePath = flag.String("keyfile", "", "path to key file (default $KDBXINSPECT_KEYFILE)")
	verify      = flag.Bool("verify", false, "derive the master key and check it against the encrypted body")
	outputFmt   = flag.String("output", "", "report format: text or yaml (default $KDBXINSPECT_OUTPUT)")
)

func main() {
	flag.Parse()
	cfg, err := loadSettings()
	if err != nil {
		fmt.Fprintln(os.Stderr, "kdbxinspect: load settings:", err)
		os.Exit(2)
	}
	log, err := newLogger(os.Stderr, cfg)
	if err != nil {
		fmt.Fprintln(os.Stderr, "kdbxinspect:", err)
		os.Exit(2)
	}
	if *dbPath == "" {
		log.Error("must specify -db")
		os.Exit(2)
	}

	opts := &options{
		dbPath:  *dbPath,
		keyFile: cfg.KeyFile,
		verify:  *verify,
		output:  cfg.Output,
		prompt:  readPassword,
	}
	if *keyFilePath != "" {
		opts.keyFile = *keyFilePath
	}
	if *outputFmt != "" {
		opts.output = *outputFmt
	}
	if cfg.Password != "" {
		opts.password = []byte(cfg.Password)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err = run(ctx, log, os.Stdout, opts)
	stop()
	if err != nil {
		if msg := userErrorMessage(err); msg != "" {
			log.WithError(err).Error(msg)
		} else {
			log.Error(err)
		}
		os.Exit(1)
	}
}

// options are the inputs to a single inspection.
type options struct {
	dbPath   string
	keyFile  string
	verify   bool
	output   string
	password []byte

	// prompt asks for a password when verify is set and neither a
	// password nor a key file was given.
	prompt func() ([]byte, error)
}

// newLogger returns a logger writing to w at the configured level and
// format.
func newLogger(w io.Writer, cfg *settings) (*logrus.Logger, error) {
	level, err := logrus.ParseLevel(cfg.LogLevel)
	if err != nil {
		return nil, err
	}
	log := logrus.New()
	log.SetOutput(w)
	log.SetLevel(level)
	switch cfg.LogFormat {
	case "text", "":
		log.SetFormatter(&logrus.TextFormatter{DisableTimestamp: true})
	case "json":
		log.SetFormatter(&logrus.JSONFormatter{})
	default:
		return nil, fmt.Errorf("unknown log format %q", cfg.LogFormat)
	}
	return log, nil
}
