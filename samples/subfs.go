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
	"bytes"
	"io"
	"io/fs"
	"strings"
)

// SubstitutingFS applies a Replacer to the contents of every regular
// file in the wrapped FS. Directories are passed through unchanged.
type SubstitutingFS struct {
	fs.FS
	Replacer *strings.Replacer
}

// Open implements [fs.FS].
func (s *SubstitutingFS) Open(name string) (fs.File, error) {
	f, err := s.FS.Open(name)
	if err != nil {
		return nil, err
	}
	info, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, err
	}
	if !info.Mode().IsRegular() {
		return f, nil
	}
	data, err := io.ReadAll(f)
	_ = f.Close()
	if err != nil {
		return nil, &fs.PathError{Op: "read", Path: name, Err: err}
	}
	replaced := s.Replacer.Replace(string(data))
	return &substitutedFile{
		Reader: bytes.NewReader([]byte(replaced)),
		info:   sizedInfo{FileInfo: info, size: int64(len(replaced))},
	}, nil
}

type substitutedFile struct {
	*bytes.Reader
	info fs.FileInfo
}

func (f *substitutedFile) Close() error               { return nil }
func (f *substitutedFile) Stat() (fs.FileInfo, error) { return f.info, nil }

// sizedInfo reports the length of the substituted contents.
type sizedInfo struct {
	fs.FileInfo
	size int64
}

func (i sizedInfo) Size() int64 { return i.size }
