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
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"testing/fstest"
	"time"

	"github.com/cockroachdb/field-eng-contention/resource"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleText = `
# Two tasks sharing a pair of CPUs.
format v1.0.0
resources cpu:2

task A 50 0 cpu:2
task B 10 0 cpu:1
`

func valid() *Simulation {
	return &Simulation{
		Resources:       []Resource{{Name: "cpu", Capacity: 2}, {Name: "disk", Capacity: 1}},
		Tasks:           []Task{{Name: "a", Busy: time.Millisecond, Demand: []resource.Demand{{Resource: "cpu", Units: 2}}}},
		Iterations:      1,
		MonitorInterval: time.Millisecond,
		Backoff:         DefaultBackoff,
	}
}

func TestParse(t *testing.T) {
	r := require.New(t)
	s, err := Parse(strings.NewReader(sampleText))
	r.NoError(err)
	r.Equal("v1.0.0", s.Format)
	r.Equal([]Resource{{Name: "cpu", Capacity: 2}}, s.Resources)
	r.Equal([]Task{
		{Name: "A", Busy: 50 * time.Millisecond, Idle: 0, Demand: []resource.Demand{{Resource: "cpu", Units: 2}}},
		{Name: "B", Busy: 10 * time.Millisecond, Idle: 0, Demand: []resource.Demand{{Resource: "cpu", Units: 1}}},
	}, s.Tasks)
	r.Equal(DefaultBackoff, s.Backoff)
	r.Equal([]resource.Spec{{Name: "cpu", Capacity: 2}}, s.Specs())

	// The caller still has to supply the run parameters.
	r.ErrorIs(s.Validate(), ErrInvalid)
	s.Iterations = 3
	s.MonitorInterval = 100 * time.Millisecond
	r.NoError(s.Validate())
}

func TestParseDirectives(t *testing.T) {
	r := require.New(t)
	s, err := Parse(strings.NewReader("resources a:1 b:2\nresources c:3\ntask t 1 2 a:1 b:1 a:0\niterations 4\nmonitor 25\n"))
	r.NoError(err)
	r.Equal("", s.Format)
	r.Len(s.Resources, 3)
	r.Equal(4, s.Iterations)
	r.Equal(25*time.Millisecond, s.MonitorInterval)
	r.Equal(2*time.Millisecond, s.Tasks[0].Idle)
	r.Len(s.Tasks[0].Demand, 3)

	// A zero-unit entry is a validation problem, not a syntax problem.
	err = s.Validate()
	r.ErrorIs(err, ErrInvalid)
	r.ErrorContains(err, "units must be positive")
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []string
	}{
		{"unknown_keyword", "bogus line", []string{`line 1: unknown keyword "bogus"`}},
		{"bad_pair", "resources cpu", []string{`expecting name:capacity, got "cpu"`}},
		{"bad_capacity", "resources cpu:x", []string{`expecting name:capacity, got "cpu:x"`}},
		{"empty_resources", "resources", []string{"declares nothing"}},
		{"short_task", "task a 1", []string{"expecting task name busyTime idleTime"}},
		{"bad_times", "task a x y", []string{`bad busy time "x"`, `bad idle time "y"`}},
		{"bad_demand", "task a 1 1 cpu", []string{`expecting resource:units, got "cpu"`}},
		{"format_late", "resources a:1\nformat v1.0.0", []string{"line 2: format must be the first directive"}},
		{"format_bad", "format 1.0", []string{`not a semver: "1.0"`}},
		{"format_major", "format v2.0.0", []string{"not compatible"}},
		{"format_newer", "format v1.9.0", []string{"newer than"}},
		{"format_args", "format", []string{"format takes one version"}},
		{"keyword_too_new", "format v1.0.0\niterations 3", []string{"line 2: iterations requires format v1.1.0"}},
		{"bad_iterations", "iterations many", []string{`bad iteration count "many"`}},
		{"bad_monitor", "monitor soon", []string{`bad monitor interval "soon"`}},
		{"huge_busy", "task a 9223372036855 0", []string{`bad busy time "9223372036855"`}},
		{"huge_monitor", "monitor -9223372036855", []string{`bad monitor interval "-9223372036855"`}},
		{"multiple", "x\ny", []string{"2 configuration problems", "line 1", "line 2"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := assert.New(t)
			_, err := Parse(strings.NewReader(tt.input))
			a.ErrorIs(err, ErrInvalid)
			for _, want := range tt.want {
				a.ErrorContains(err, want)
			}
			var verr *ValidationError
			a.True(errors.As(err, &verr))
		})
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(s *Simulation)
		want   string
	}{
		{"ok", func(*Simulation) {}, ""},
		{"idle_zero_ok", func(s *Simulation) { s.Tasks[0].Idle = 0 }, ""},
		{"iterations", func(s *Simulation) { s.Iterations = 0 }, "iterations must be positive"},
		{"monitor", func(s *Simulation) { s.MonitorInterval = 0 }, "monitor interval must be positive"},
		{"no_tasks", func(s *Simulation) { s.Tasks = nil }, "no tasks"},
		{"busy", func(s *Simulation) { s.Tasks[0].Busy = 0 }, "busy time must be positive"},
		{"idle", func(s *Simulation) { s.Tasks[0].Idle = -time.Millisecond }, "idle time must not be negative"},
		{"capacity", func(s *Simulation) { s.Resources[1].Capacity = 0 }, "capacity must be positive"},
		{"dup_resource", func(s *Simulation) { s.Resources[1].Name = "cpu" }, "resource cpu: declared more than once"},
		{"empty_resource", func(s *Simulation) { s.Resources[1].Name = "" }, "resource 1: empty name"},
		{"dup_task", func(s *Simulation) { s.Tasks = append(s.Tasks, s.Tasks[0]) }, "task a: declared more than once"},
		{"empty_task", func(s *Simulation) { s.Tasks[0].Name = "" }, "task #0: empty name"},
		{"unknown", func(s *Simulation) {
			s.Tasks[0].Demand = []resource.Demand{{Resource: "gpu", Units: 1}}
		}, "task a: unknown resource gpu"},
		{"exceeds", func(s *Simulation) {
			s.Tasks[0].Demand = []resource.Demand{{Resource: "cpu", Units: 3}}
		}, "task a: needs 3 of cpu, which has a capacity of 2"},
		{"exceeds_merged", func(s *Simulation) {
			s.Tasks[0].Demand = []resource.Demand{{Resource: "disk", Units: 1}, {Resource: "disk", Units: 1}}
		}, "needs 2 of disk"},
		{"format", func(s *Simulation) { s.Format = "v0.1.0" }, "not compatible"},
		{"backoff_kind", func(s *Simulation) { s.Backoff.Kind = "linear" }, `unknown backoff kind "linear"`},
		{"backoff_exp", func(s *Simulation) {
			s.Backoff = Backoff{Kind: BackoffExponential, Base: time.Second, Max: time.Millisecond}
		}, "base delay 1s above max delay 1ms"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := assert.New(t)
			s := valid()
			tt.modify(s)
			err := s.Validate()
			if tt.want == "" {
				a.NoError(err)
				return
			}
			a.ErrorIs(err, ErrInvalid)
			a.ErrorContains(err, tt.want)
		})
	}
}

func TestValidateCollectsAll(t *testing.T) {
	r := require.New(t)
	s := valid()
	s.Iterations = 0
	s.MonitorInterval = 0
	s.Tasks[0].Busy = 0

	var verr *ValidationError
	r.True(errors.As(s.Validate(), &verr))
	r.Len(verr.Problems, 3)
	for _, p := range verr.Problems {
		r.ErrorIs(p, ErrInvalid)
	}
}

func TestBackoffStrategy(t *testing.T) {
	r := require.New(t)

	factory, err := Backoff{}.Strategy()
	r.NoError(err)
	delay, stop := factory().Next()
	r.False(stop)
	r.Equal(DefaultBackoff.Base, delay)

	factory, err = Backoff{Kind: BackoffExponential, Base: time.Millisecond, Max: 4 * time.Millisecond}.Strategy()
	r.NoError(err)
	b := factory()
	for _, want := range []time.Duration{time.Millisecond, 2 * time.Millisecond, 4 * time.Millisecond, 4 * time.Millisecond} {
		delay, stop := b.Next()
		r.False(stop)
		r.Equal(want, delay)
	}
	// Each acquisition starts over.
	delay, _ = factory().Next()
	r.Equal(time.Millisecond, delay)
}

const sampleYAML = `
format: v1.1.0
iterations: 3
monitorInterval: 100ms
backoff:
  kind: exponential
  base: 1ms
  max: 20
resources:
  - name: cpu
    capacity: 2
tasks:
  - name: A
    busy: 50
    idle: 0
    demand: [cpu:2]
  - name: B
    busy: 10ms
    idle: 1s
    demand:
      - cpu:1
`

func TestParseYAML(t *testing.T) {
	r := require.New(t)
	s, err := ParseYAML(strings.NewReader(sampleYAML))
	r.NoError(err)
	r.NoError(s.Validate())
	r.Equal("v1.1.0", s.Format)
	r.Equal(3, s.Iterations)
	r.Equal(100*time.Millisecond, s.MonitorInterval)
	r.Equal(Backoff{Kind: BackoffExponential, Base: time.Millisecond, Max: 20 * time.Millisecond}, s.Backoff)
	r.Equal([]Resource{{Name: "cpu", Capacity: 2}}, s.Resources)
	r.Equal([]Task{
		{Name: "A", Busy: 50 * time.Millisecond, Demand: []resource.Demand{{Resource: "cpu", Units: 2}}},
		{Name: "B", Busy: 10 * time.Millisecond, Idle: time.Second, Demand: []resource.Demand{{Resource: "cpu", Units: 1}}},
	}, s.Tasks)
}

func TestParseYAMLErrors(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"empty", "", "empty document"},
		{"unknown_field", "bogus: 1\n", "bogus"},
		{"bad_duration", "monitorInterval: soon\n", "soon"},
		{"not_scalar", "monitorInterval: [1]\n", "expecting a duration"},
		{"huge_duration", "monitorInterval: 9223372036855\n", "out of range"},
		{"bad_demand", "tasks:\n  - name: a\n    demand: [cpu]\n", `expecting resource:units, got "cpu"`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := assert.New(t)
			_, err := ParseYAML(strings.NewReader(tt.input))
			a.ErrorIs(err, ErrInvalid)
			a.ErrorContains(err, tt.want)
		})
	}

	// Without a backoff section, the default is used.
	s, err := ParseYAML(strings.NewReader("iterations: 1\n"))
	require.NoError(t, err)
	require.Equal(t, DefaultBackoff, s.Backoff)
}

func TestParseMillis(t *testing.T) {
	r := require.New(t)
	d, err := ParseMillis("250")
	r.NoError(err)
	r.Equal(250*time.Millisecond, d)

	// The largest count that fits in a time.Duration.
	d, err = ParseMillis("9223372036854")
	r.NoError(err)
	r.Equal(9223372036854*time.Millisecond, d)
	r.Positive(d)

	_, err = ParseMillis("9223372036855")
	r.ErrorContains(err, "out of range")
	_, err = ParseMillis("-9223372036855")
	r.ErrorContains(err, "out of range")
	_, err = ParseMillis("99999999999999999999")
	r.Error(err)
	_, err = ParseMillis("1s")
	r.Error(err)
}

func TestLoad(t *testing.T) {
	r := require.New(t)
	dir := t.TempDir()
	textPath := filepath.Join(dir, "input.txt")
	yamlPath := filepath.Join(dir, "input.YAML")
	r.NoError(os.WriteFile(textPath, []byte(sampleText), 0644))
	r.NoError(os.WriteFile(yamlPath, []byte(sampleYAML), 0644))

	s, err := Load(textPath)
	r.NoError(err)
	r.Len(s.Tasks, 2)

	s, err = Load(yamlPath)
	r.NoError(err)
	r.Equal(3, s.Iterations)

	_, err = Load(filepath.Join(dir, "missing.txt"))
	r.ErrorIs(err, os.ErrNotExist)

	r.NoError(os.WriteFile(textPath, []byte("nonsense"), 0644))
	_, err = Load(textPath)
	r.ErrorIs(err, ErrInvalid)
	r.ErrorContains(err, textPath)

	s, err = LoadFS(fstest.MapFS{"in.yml": {Data: []byte(sampleYAML)}}, "in.yml")
	r.NoError(err)
	r.Len(s.Tasks, 2)
}
