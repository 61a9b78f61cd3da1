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
	"context"
	"errors"
	"testing"
	"time"

	gr "github.com/sethvargo/go-retry"
	"github.com/stretchr/testify/assert"
)

func TestPlugin(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	counter := 0
	retries := 4
	op := func(context.Context, int) error {
		counter++
		if counter <= retries {
			return ErrRetriable
		}
		return nil
	}
	a := assert.New(t)
	attempts, err := Retry(ctx, gr.NewConstant(time.Millisecond), op)
	a.NoError(err)
	a.Equal(retries, counter-1)
	a.Equal(counter, attempts)
}

func TestRetry(t *testing.T) {
	tests := []struct {
		name           string
		base, max      time.Duration
		limit, retries int
		opErr          string
		wantErr        string
	}{
		{"ok", time.Millisecond, 4 * time.Millisecond, 10, 6, "", ""},
		{"non_retriable", time.Millisecond, 4 * time.Millisecond, 10, 6, "permanent failure", "permanent failure"},
		{"too many retries", time.Millisecond, 4 * time.Millisecond, 5, 6, "", "too many retries"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			counter := 0
			op := func(_ context.Context, attempt int) error {
				if tt.opErr != "" {
					return errors.New(tt.opErr)
				}
				if attempt != counter {
					return errors.New("attempt out of sequence")
				}
				counter++
				if counter <= tt.retries {
					return ErrRetriable
				}
				return nil
			}
			a := assert.New(t)
			backoff, err := NewExpBackoff(tt.base, tt.max, tt.limit)
			a.NoError(err)
			_, err = Retry(ctx, backoff, op)
			if tt.wantErr != "" {
				a.ErrorContains(err, tt.wantErr)
				return
			}
			a.NoError(err)
			a.Equal(tt.retries, counter-1)
		})
	}
}

func TestRetryCanceled(t *testing.T) {
	a := assert.New(t)
	ctx, cancel := context.WithCancel(context.Background())

	attempts, err := Retry(ctx, Constant(time.Hour), func(context.Context, int) error {
		cancel()
		return ErrRetriable
	})
	a.ErrorIs(err, context.Canceled)
	a.Equal(1, attempts)
}

func TestRetryWrapped(t *testing.T) {
	a := assert.New(t)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// Wrapped sentinels are still retried.
	_, err := Retry(ctx, Constant(time.Millisecond), func(_ context.Context, attempt int) error {
		if attempt < 2 {
			return errors.Join(errors.New("busy"), ErrRetriable)
		}
		return nil
	})
	a.NoError(err)
}
