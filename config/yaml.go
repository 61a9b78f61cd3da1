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
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/cockroachdb/field-eng-contention/resource"
	"gopkg.in/yaml.v3"
)

// duration accepts either an integer number of milliseconds or a Go
// duration string such as "1.5s".
type duration time.Duration

func (d *duration) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind != yaml.ScalarNode {
		return fmt.Errorf("line %d: expecting a duration", value.Line)
	}
	if ms, err := strconv.ParseInt(value.Value, 10, 64); err == nil {
		parsed, err := Millis(ms)
		if err != nil {
			return fmt.Errorf("line %d: %w", value.Line, err)
		}
		*d = duration(parsed)
		return nil
	}
	parsed, err := time.ParseDuration(value.Value)
	if err != nil {
		return fmt.Errorf("line %d: %w", value.Line, err)
	}
	*d = duration(parsed)
	return nil
}

type yamlDocument struct {
	Format          string   `yaml:"format"`
	Iterations      int      `yaml:"iterations"`
	MonitorInterval duration `yaml:"monitorInterval"`
	Backoff         struct {
		Kind string   `yaml:"kind"`
		Base duration `yaml:"base"`
		Max  duration `yaml:"max"`
	} `yaml:"backoff"`
	Resources []struct {
		Name     string `yaml:"name"`
		Capacity int    `yaml:"capacity"`
	} `yaml:"resources"`
	Tasks []struct {
		Name   string   `yaml:"name"`
		Busy   duration `yaml:"busy"`
		Idle   duration `yaml:"idle"`
		Demand []string `yaml:"demand"`
	} `yaml:"tasks"`
}

// ParseYAML reads a YAML document:
//
//	format: v1.1.0
//	iterations: 3
//	monitorInterval: 100ms
//	backoff:
//	  kind: exponential
//	  base: 1ms
//	  max: 20ms
//	resources:
//	  - name: cpu
//	    capacity: 2
//	tasks:
//	  - name: A
//	    busy: 50      # milliseconds
//	    idle: 0
//	    demand: [cpu:2]
//
// Unknown fields are rejected. As with [Parse], the contents are not
// validated.
func ParseYAML(r io.Reader) (*Simulation, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	var doc yamlDocument
	if err := dec.Decode(&doc); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%w: empty document", ErrInvalid)
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalid, err)
	}

	s := &Simulation{
		Format:          doc.Format,
		Iterations:      doc.Iterations,
		MonitorInterval: time.Duration(doc.MonitorInterval),
		Backoff:         DefaultBackoff,
	}
	if doc.Backoff.Kind != "" || doc.Backoff.Base != 0 {
		s.Backoff = Backoff{
			Kind: BackoffKind(doc.Backoff.Kind),
			Base: time.Duration(doc.Backoff.Base),
			Max:  time.Duration(doc.Backoff.Max),
		}
	}
	for _, r := range doc.Resources {
		s.Resources = append(s.Resources, Resource{Name: r.Name, Capacity: r.Capacity})
	}

	var p problems
	for _, t := range doc.Tasks {
		task := Task{Name: t.Name, Busy: time.Duration(t.Busy), Idle: time.Duration(t.Idle)}
		for _, pair := range t.Demand {
			name, units, ok := parsePair(pair)
			if !ok {
				p.addf("task %s: expecting resource:units, got %q", t.Name, pair)
				continue
			}
			task.Demand = append(task.Demand, resource.Demand{Resource: name, Units: units})
		}
		s.Tasks = append(s.Tasks, task)
	}
	if err := p.err(); err != nil {
		return nil, err
	}
	return s, nil
}
