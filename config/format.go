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

package config

import (
	"fmt"

	"golang.org/x/mod/semver"
)

// FormatVersion is the newest input format understood by this package.
const FormatVersion = "v1.1.0"

// CheckFormat returns an error if an input declaring the given format
// version cannot be read. Inputs must share the major version of
// [FormatVersion] and must not be newer than it.
//
// For example:
//
//	format v1.0.0
func CheckFormat(version string) error {
	if !semver.IsValid(version) {
		return fmt.Errorf("%w: not a semver: %q", ErrInvalid, version)
	}
	if semver.Major(version) != semver.Major(FormatVersion) {
		return fmt.Errorf("%w: format %s is not compatible with %s", ErrInvalid, version, FormatVersion)
	}
	if semver.Compare(version, FormatVersion) > 0 {
		return fmt.Errorf("%w: format %s is newer than %s", ErrInvalid, version, FormatVersion)
	}
	return nil
}
