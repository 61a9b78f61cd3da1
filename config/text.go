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
	"bufio"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/cockroachdb/field-eng-contention/resource"
	"golang.org/x/mod/semver"
)

// Keywords which were added after the first format version.
var keywordSince = map[string]string{
	"iterations": "v1.1.0",
	"monitor":    "v1.1.0",
}

// Parse reads the line-oriented text format:
//
//	# Comments and blank lines are ignored.
//	format v1.1.0
//	resources cpu:2 disk:1
//	task A 50 0 cpu:2
//	task B 10 0 cpu:1 disk:1
//	iterations 3
//	monitor 100
//
// Times are in milliseconds. A task line gives the name, busy time,
// idle time and then any number of resource:units pairs. The format
// line is optional but must come first if present. The iterations and
// monitor lines are optional; the values are usually supplied by the
// caller.
//
// Parse only reports syntax problems. Call [Simulation.Validate] to
// check the contents.
func Parse(r io.Reader) (*Simulation, error) {
	s := &Simulation{Backoff: DefaultBackoff}
	var p problems
	format := FormatVersion

	scanner := bufio.NewScanner(r)
	lineNo := 0
	sawDirective := false
	for scanner.Scan() {
		lineNo++
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 || strings.HasPrefix(fields[0], "#") {
			continue
		}
		keyword, args := fields[0], fields[1:]
		if since, ok := keywordSince[keyword]; ok && semver.Compare(format, since) < 0 {
			p.addf("line %d: %s requires format %s, input declares %s", lineNo, keyword, since, format)
			continue
		}

		switch keyword {
		case "format":
			if sawDirective {
				p.addf("line %d: format must be the first directive", lineNo)
				continue
			}
			if len(args) != 1 {
				p.addf("line %d: format takes one version", lineNo)
				continue
			}
			if err := CheckFormat(args[0]); err != nil {
				p.addf("line %d: %v", lineNo, err)
				continue
			}
			format = args[0]
			s.Format = format

		case "resources":
			if len(args) == 0 {
				p.addf("line %d: resources line declares nothing", lineNo)
			}
			for _, arg := range args {
				name, capacity, ok := parsePair(arg)
				if !ok {
					p.addf("line %d: expecting name:capacity, got %q", lineNo, arg)
					continue
				}
				s.Resources = append(s.Resources, Resource{Name: name, Capacity: capacity})
			}

		case "task":
			if len(args) < 3 {
				p.addf("line %d: expecting task name busyTime idleTime [resource:units ...]", lineNo)
				continue
			}
			t := Task{Name: args[0]}
			var err error
			if t.Busy, err = ParseMillis(args[1]); err != nil {
				p.addf("line %d: task %s: bad busy time %q", lineNo, t.Name, args[1])
			}
			if t.Idle, err = ParseMillis(args[2]); err != nil {
				p.addf("line %d: task %s: bad idle time %q", lineNo, t.Name, args[2])
			}
			for _, arg := range args[3:] {
				name, units, ok := parsePair(arg)
				if !ok {
					p.addf("line %d: task %s: expecting resource:units, got %q", lineNo, t.Name, arg)
					continue
				}
				t.Demand = append(t.Demand, resource.Demand{Resource: name, Units: units})
			}
			s.Tasks = append(s.Tasks, t)

		case "iterations":
			if len(args) != 1 {
				p.addf("line %d: iterations takes one count", lineNo)
				continue
			}
			n, err := strconv.Atoi(args[0])
			if err != nil {
				p.addf("line %d: bad iteration count %q", lineNo, args[0])
				continue
			}
			s.Iterations = n

		case "monitor":
			if len(args) != 1 {
				p.addf("line %d: monitor takes one interval", lineNo)
				continue
			}
			d, err := ParseMillis(args[0])
			if err != nil {
				p.addf("line %d: bad monitor interval %q", lineNo, args[0])
				continue
			}
			s.MonitorInterval = d

		default:
			p.addf("line %d: unknown keyword %q", lineNo, keyword)
		}
		sawDirective = true
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	if err := p.err(); err != nil {
		return nil, err
	}
	return s, nil
}

// parsePair splits "name:value" with a non-empty name and an integer
// value.
func parsePair(s string) (string, int, bool) {
	name, value, ok := strings.Cut(s, ":")
	if !ok || name == "" {
		return "", 0, false
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return "", 0, false
	}
	return name, n, true
}

// maxMillis is the largest millisecond count a time.Duration can hold.
const maxMillis = math.MaxInt64 / int64(time.Millisecond)

// Millis converts a count of milliseconds to a duration, rejecting
// counts that do not fit.
func Millis(n int64) (time.Duration, error) {
	if n > maxMillis || n < -maxMillis {
		return 0, fmt.Errorf("%d milliseconds is out of range", n)
	}
	return time.Duration(n) * time.Millisecond, nil
}

// ParseMillis parses a decimal count of milliseconds.
func ParseMillis(s string) (time.Duration, error) {
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, err
	}
	return Millis(n)
}
