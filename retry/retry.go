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

// Package retry provides a utility to retry operations that
// fail with a transient error, based on a supplied backoff strategy.
package retry

import (
	"context"
	"errors"
	"time"

	gr "github.com/sethvargo/go-retry"
)

var (
	// ErrMaxRetries is raised when the backoff strategy gives up.
	ErrMaxRetries = errors.New("too many retries")
	// ErrRetriable tags errors from operation that can be retried.
	ErrRetriable = errors.New("retriable error")
)

// Operation to be retried. The attempt number starts at zero.
type Operation func(ctx context.Context, attempt int) error

// Backoff strategy. Next returns the delay before the following attempt
// and true if no further attempts should be made. Strategies from
// github.com/sethvargo/go-retry satisfy this interface.
type Backoff = gr.Backoff

// Constant returns a strategy that always waits for the same delay and
// never gives up.
func Constant(delay time.Duration) Backoff {
	return gr.NewConstant(delay)
}

// Retry the operation, using the given backoff strategy, as long as it
// returns a retriable error. The wait between attempts is abandoned if
// the context is canceled, in which case the context's error is
// returned. The number of attempts made is also returned.
func Retry(ctx context.Context, strategy Backoff, op Operation) (attempts int, err error) {
	for {
		err := op(ctx, attempts)
		attempts++
		if err == nil || !errors.Is(err, ErrRetriable) {
			return attempts, err
		}
		backoff, stop := strategy.Next()
		if stop {
			return attempts, ErrMaxRetries
		}
		timer := time.NewTimer(backoff)
		select {
		case <-timer.C:
			// try again
		case <-ctx.Done():
			timer.Stop()
			return attempts, ctx.Err()
		}
	}
}
