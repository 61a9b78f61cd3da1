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

// Package config describes a simulation: the resources, the tasks that
// compete for them and the timing of the run.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/cockroachdb/field-eng-contention/resource"
	"github.com/cockroachdb/field-eng-contention/retry"
)

// ErrInvalid is wrapped by every configuration problem.
var ErrInvalid = errors.New("invalid configuration")

// A ValidationError collects every problem found in a configuration.
// Each problem wraps [ErrInvalid].
type ValidationError struct {
	Problems []error
}

func (e *ValidationError) Error() string {
	if len(e.Problems) == 1 {
		return e.Problems[0].Error()
	}
	msgs := make([]string, len(e.Problems))
	for i, p := range e.Problems {
		msgs[i] = p.Error()
	}
	return fmt.Sprintf("%d configuration problems:\n%s", len(e.Problems), strings.Join(msgs, "\n"))
}

// Unwrap returns the individual problems.
func (e *ValidationError) Unwrap() []error { return e.Problems }

// problems accumulates errors for a ValidationError.
type problems []error

func (p *problems) addf(format string, args ...any) {
	*p = append(*p, fmt.Errorf("%w: "+format, append([]any{ErrInvalid}, args...)...))
}

func (p problems) err() error {
	if len(p) == 0 {
		return nil
	}
	return &ValidationError{Problems: p}
}

// Resource declares a resource type and its capacity.
type Resource struct {
	Name     string
	Capacity int
}

// Task declares a task and the resources it holds while running.
type Task struct {
	Name   string
	Busy   time.Duration
	Idle   time.Duration
	Demand []resource.Demand
}

// BackoffKind selects the delay between failed reservation attempts.
type BackoffKind string

// Supported backoff kinds.
const (
	BackoffConstant    BackoffKind = "constant"
	BackoffExponential BackoffKind = "exponential"
)

// Backoff configures how tasks poll for resources.
type Backoff struct {
	Kind BackoffKind
	Base time.Duration // The constant delay, or the first exponential delay.
	Max  time.Duration // Only used for exponential backoff.
}

// DefaultBackoff polls every 10ms.
var DefaultBackoff = Backoff{Kind: BackoffConstant, Base: 10 * time.Millisecond}

// Strategy returns a factory for the configured backoff. The factory is
// called once per acquisition, so that exponential delays start over.
func (b Backoff) Strategy() (func() retry.Backoff, error) {
	switch b.Kind {
	case BackoffConstant, "":
		base := b.Base
		if base <= 0 {
			base = DefaultBackoff.Base
		}
		return func() retry.Backoff { return retry.Constant(base) }, nil
	case BackoffExponential:
		if err := retry.CheckExp(b.Base, b.Max); err != nil {
			return nil, err
		}
		return func() retry.Backoff {
			// The arguments were checked above.
			ret, _ := retry.NewExpBackoff(b.Base, b.Max, 0)
			return ret
		}, nil
	default:
		return nil, fmt.Errorf("%w: unknown backoff kind %q", ErrInvalid, b.Kind)
	}
}

// Simulation is a complete run description. It is not modified once
// loaded.
type Simulation struct {
	// Format is the input format version that the source declared. The
	// empty string means the current version.
	Format          string
	Resources       []Resource
	Tasks           []Task
	Iterations      int
	MonitorInterval time.Duration
	Backoff         Backoff
}

// Specs returns the resources in the form expected by
// [resource.NewPool].
func (s *Simulation) Specs() []resource.Spec {
	ret := make([]resource.Spec, len(s.Resources))
	for i, r := range s.Resources {
		ret[i] = resource.Spec{Name: r.Name, Capacity: r.Capacity}
	}
	return ret
}

// Validate returns a [*ValidationError] describing every problem with
// the configuration, or nil if the configuration can be run.
func (s *Simulation) Validate() error {
	var p problems

	if s.Format != "" {
		if err := CheckFormat(s.Format); err != nil {
			p = append(p, err)
		}
	}
	if s.Iterations <= 0 {
		p.addf("iterations must be positive, got %d", s.Iterations)
	}
	if s.MonitorInterval <= 0 {
		p.addf("monitor interval must be positive, got %s", s.MonitorInterval)
	}
	if _, err := s.Backoff.Strategy(); err != nil {
		p.addf("backoff: %v", err)
	}

	capacities := make(map[string]int, len(s.Resources))
	for i, r := range s.Resources {
		switch {
		case r.Name == "":
			p.addf("resource %d: empty name", i)
			continue
		case r.Capacity <= 0:
			p.addf("resource %s: capacity must be positive, got %d", r.Name, r.Capacity)
		}
		if _, dup := capacities[r.Name]; dup {
			p.addf("resource %s: declared more than once", r.Name)
			continue
		}
		capacities[r.Name] = r.Capacity
	}

	if len(s.Tasks) == 0 {
		p.addf("no tasks")
	}
	names := make(map[string]struct{}, len(s.Tasks))
	for i, t := range s.Tasks {
		name := t.Name
		if name == "" {
			name = fmt.Sprintf("#%d", i)
			p.addf("task %s: empty name", name)
		} else if _, dup := names[name]; dup {
			p.addf("task %s: declared more than once", name)
		}
		names[name] = struct{}{}

		if t.Busy <= 0 {
			p.addf("task %s: busy time must be positive, got %s", name, t.Busy)
		}
		if t.Idle < 0 {
			p.addf("task %s: idle time must not be negative, got %s", name, t.Idle)
		}
		for _, d := range t.Demand {
			if d.Units <= 0 {
				p.addf("task %s: resource %s: units must be positive, got %d", name, d.Resource, d.Units)
			}
		}
		for _, d := range resource.Normalize(t.Demand) {
			capacity, ok := capacities[d.Resource]
			switch {
			case !ok:
				p.addf("task %s: unknown resource %s", name, d.Resource)
			case d.Units > capacity && capacity > 0:
				p.addf("task %s: needs %d of %s, which has a capacity of %d",
					name, d.Units, d.Resource, capacity)
			}
		}
	}

	return p.err()
}
