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
	"github.com/gobeaver/beaver-kit/config"
)

const envPrefix = "KDBXINSPECT_"

// settings is the environment configuration.  Flags take precedence.
type settings struct {
	Password  string `env:"PASSWORD"`
	KeyFile   string `env:"KEYFILE"`
	Output    string `env:"OUTPUT,default:text"`
	LogLevel  string `env:"LOG_LEVEL,default:info"`
	LogFormat string `env:"LOG_FORMAT,default:text"`
}

func loadSettings() (*settings, error) {
	cfg := new(settings)
	if err := config.Load(cfg, config.LoadOptions{Prefix: envPrefix}); err != nil {
		return nil, err
	}
	return cfg, nil
}
