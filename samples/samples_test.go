// Copyright 2026 The Cockroach Authors
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
//
// SPDX-License-Identifier: Apache-2.0

package samples

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"testing/fstest"
	"time"

	"github.com/cockroachdb/field-eng-contention/config"
	"github.com/cockroachdb/field-eng-contention/sim"
	"github.com/stretchr/testify/require"
)

func TestSubstitutingFS(t *testing.T) {
	r := require.New(t)

	sub := &SubstitutingFS{
		FS: &fstest.MapFS{
			"test.txt": &fstest.MapFile{
				Data: []byte("Hello __FOO__"),
			},
		},
		Replacer: strings.NewReplacer("__FOO__", "world!"),
	}

	data, err := fs.ReadFile(sub, "test.txt")
	r.NoError(err)
	r.Equal("Hello world!", string(data))

	info, err := fs.Stat(sub, "test.txt")
	r.NoError(err)
	r.Equal(int64(len("Hello world!")), info.Size())

	_, err = sub.Open("missing.txt")
	r.ErrorIs(err, fs.ErrNotExist)
}

func TestNames(t *testing.T) {
	r := require.New(t)
	names, err := Names()
	r.NoError(err)
	r.Equal([]string{"mixed.txt", "philosophers.txt", "scenario.txt", "scenario.yaml"}, names)
}

// Every sample loads and, given run parameters, validates.
func TestSamplesValid(t *testing.T) {
	names, err := Names()
	require.NoError(t, err)
	for _, name := range names {
		t.Run(name, func(t *testing.T) {
			r := require.New(t)
			cfg, err := config.LoadFS(FS(), name)
			r.NoError(err)
			r.Equal(config.FormatVersion, cfg.Format)
			if cfg.Iterations == 0 {
				cfg.Iterations = 1
			}
			if cfg.MonitorInterval == 0 {
				cfg.MonitorInterval = 10 * time.Millisecond
			}
			r.NoError(cfg.Validate())
		})
	}
}

func TestScenarioRuns(t *testing.T) {
	r := require.New(t)
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	cfg, err := config.LoadFS(FS(), "scenario.yaml")
	r.NoError(err)
	s, err := sim.New(cfg, sim.Options{})
	r.NoError(err)
	result, err := s.Run(ctx)
	r.NoError(err)
	r.Equal(6, result.Completed())
	r.Empty(result.Leaks())
}

func TestCopy(t *testing.T) {
	r := require.New(t)
	dir := filepath.Join(t.TempDir(), "out")
	r.NoError(Copy(FS(), dir))

	data, err := os.ReadFile(filepath.Join(dir, "scenario.txt"))
	r.NoError(err)
	r.Contains(string(data), "format "+config.FormatVersion)
	r.NotContains(string(data), FormatPlaceholder)

	// Copying again overwrites.
	r.NoError(os.WriteFile(filepath.Join(dir, "scenario.txt"), []byte("garbage garbage garbage garbage garbage garbage garbage garbage garbage"), 0644))
	r.NoError(Copy(FS(), dir))
	again, err := os.ReadFile(filepath.Join(dir, "scenario.txt"))
	r.NoError(err)
	r.Equal(data, again)

	// The copies load from disk.
	cfg, err := config.Load(filepath.Join(dir, "philosophers.txt"))
	r.NoError(err)
	r.Len(cfg.Tasks, 5)
	r.Equal(5, cfg.Iterations)
}
