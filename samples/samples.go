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

// Package samples contains example simulation inputs.
package samples

import (
	"embed"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/cockroachdb/field-eng-contention/config"
)

//go:embed inputs
var inputs embed.FS

// FormatPlaceholder is replaced by [config.FormatVersion] in every
// sample.
const FormatPlaceholder = "__FORMAT__"

// FS returns the sample inputs.
func FS() fs.FS {
	sub, err := fs.Sub(inputs, "inputs")
	if err != nil {
		panic(err) // The directory is embedded above.
	}
	return &SubstitutingFS{
		FS:       sub,
		Replacer: strings.NewReplacer(FormatPlaceholder, config.FormatVersion),
	}
}

// Names returns the file names of the samples, in lexical order.
func Names() ([]string, error) {
	return fs.Glob(FS(), "*")
}

// Copy writes the contents of the given FS to files within the given
// output path in the OS filesystem. Existing files are overwritten.
func Copy(from fs.FS, toPath string) error {
	absPath, err := filepath.Abs(toPath)
	if err != nil {
		return fmt.Errorf("%s: %w", toPath, err)
	}
	return fs.WalkDir(from, ".",
		func(walkPath string, d fs.DirEntry, walkErr error) (err error) {
			outPath := filepath.Join(absPath, walkPath)
			defer func() {
				if err != nil {
					err = fmt.Errorf("%s -> %s: %w", walkPath, outPath, err)
				}
			}()
			// WalkDir could not read the directory.
			if walkErr != nil {
				return walkErr
			}
			if d.IsDir() {
				return os.MkdirAll(outPath, 0755)
			}
			if !d.Type().IsRegular() {
				return nil
			}
			in, err := from.Open(walkPath)
			if err != nil {
				return err
			}
			defer func() { _ = in.Close() }()
			out, err := os.OpenFile(outPath, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0644)
			if err != nil {
				return err
			}
			if _, err := io.Copy(out, in); err != nil {
				_ = out.Close()
				return err
			}
			return out.Close()
		})
}
