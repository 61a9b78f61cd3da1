// Copyright 2025 The Cockroach Authors
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

package retry

import (
	"errors"
	"fmt"
	"time"

	gr "github.com/sethvargo/go-retry"
)

// ErrInvalidArg is raised if an invalid argument is passed to a backoff strategy.
var ErrInvalidArg = errors.New("invalid argument")

// NewExpBackoff builds an exponential backoff strategy that doubles
// from baseDelay until it reaches maxDelay, then keeps waiting maxDelay.
// Valid maxDelay must be within a millisecond and one hour. Use limit=0
// for unlimited retries.
func NewExpBackoff(baseDelay time.Duration, maxDelay time.Duration, limit int) (Backoff, error) {
	if err := CheckExp(baseDelay, maxDelay); err != nil {
		return nil, err
	}
	if limit < 0 {
		return nil, fmt.Errorf("%w: negative limit %d", ErrInvalidArg, limit)
	}
	b := gr.WithCappedDuration(maxDelay, gr.NewExponential(baseDelay))
	if limit > 0 {
		b = gr.WithMaxRetries(uint64(limit), b)
	}
	return b, nil
}

// CheckExp reports whether the delays are acceptable to [NewExpBackoff].
func CheckExp(baseDelay, maxDelay time.Duration) error {
	switch {
	case maxDelay > time.Hour:
		return fmt.Errorf("%w: max delay %s above one hour", ErrInvalidArg, maxDelay)
	case maxDelay < time.Millisecond:
		return fmt.Errorf("%w: max delay %s below one millisecond", ErrInvalidArg, maxDelay)
	case baseDelay <= 0:
		return fmt.Errorf("%w: base delay %s must be positive", ErrInvalidArg, baseDelay)
	case baseDelay > maxDelay:
		return fmt.Errorf("%w: base delay %s above max delay %s", ErrInvalidArg, baseDelay, maxDelay)
	}
	return nil
}
