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

// Package metrics exports the activity of a simulation as Prometheus
// collectors.
package metrics

import (
	"errors"
	"fmt"

	"github.com/cockroachdb/field-eng-contention/monitor"
	"github.com/cockroachdb/field-eng-contention/resource"
	"github.com/cockroachdb/field-eng-contention/sim"
	"github.com/cockroachdb/field-eng-contention/task"
	prom "github.com/prometheus/client_golang/prometheus"
)

// DefaultNamespace is used if no namespace is given to [NewExporter].
const DefaultNamespace = "contention"

// WaitBuckets are the default histogram buckets for wait times, in
// seconds. Polling happens every 10ms.
var WaitBuckets = []float64{.001, .005, .01, .02, .05, .1, .25, .5, 1, 2.5, 5, 10}

// Exporter records pool changes, iteration events and monitor reports.
// All methods are safe for concurrent use and are no-ops on a nil
// Exporter.
type Exporter struct {
	capacity   *prom.GaugeVec
	held       *prom.GaugeVec
	units      *prom.CounterVec
	rejects    *prom.CounterVec
	iterations *prom.CounterVec
	wait       *prom.HistogramVec
	phase      *prom.GaugeVec
}

var _ sim.Observer = (*Exporter)(nil)

// NewExporter creates the collectors and registers them. If reg is nil,
// the default registerer is used. Collectors that are already
// registered with reg are reused, so multiple Exporters may share a
// registry.
func NewExporter(namespace string, reg prom.Registerer) (*Exporter, error) {
	if namespace == "" {
		namespace = DefaultNamespace
	}
	if reg == nil {
		reg = prom.DefaultRegisterer
	}

	capacity := prom.NewGaugeVec(prom.GaugeOpts{
		Namespace: namespace,
		Name:      "resource_capacity",
		Help:      "Declared capacity of each resource.",
	}, []string{"resource"})
	held := prom.NewGaugeVec(prom.GaugeOpts{
		Namespace: namespace,
		Name:      "resource_held",
		Help:      "Units of each resource currently reserved.",
	}, []string{"resource"})
	units := prom.NewCounterVec(prom.CounterOpts{
		Namespace: namespace,
		Name:      "resource_units_total",
		Help:      "Units of each resource reserved or released.",
	}, []string{"resource", "kind"})
	rejects := prom.NewCounterVec(prom.CounterOpts{
		Namespace: namespace,
		Name:      "reservation_rejects_total",
		Help:      "Failed reservation attempts, by the first resource that lacked room.",
	}, []string{"resource"})
	iterations := prom.NewCounterVec(prom.CounterOpts{
		Namespace: namespace,
		Name:      "task_iterations_total",
		Help:      "Completed iterations of each task.",
	}, []string{"task"})
	wait := prom.NewHistogramVec(prom.HistogramOpts{
		Namespace: namespace,
		Name:      "task_wait_seconds",
		Help:      "Time spent waiting for resources in each iteration.",
		Buckets:   WaitBuckets,
	}, []string{"task"})
	phase := prom.NewGaugeVec(prom.GaugeOpts{
		Namespace: namespace,
		Name:      "tasks_in_phase",
		Help:      "Number of tasks in each phase as of the most recent monitor report.",
	}, []string{"phase"})

	var err error
	if capacity, err = registerCollector(reg, capacity); err != nil {
		return nil, err
	}
	if held, err = registerCollector(reg, held); err != nil {
		return nil, err
	}
	if units, err = registerCollector(reg, units); err != nil {
		return nil, err
	}
	if rejects, err = registerCollector(reg, rejects); err != nil {
		return nil, err
	}
	if iterations, err = registerCollector(reg, iterations); err != nil {
		return nil, err
	}
	if wait, err = registerCollector(reg, wait); err != nil {
		return nil, err
	}
	if phase, err = registerCollector(reg, phase); err != nil {
		return nil, err
	}

	return &Exporter{
		capacity:   capacity,
		held:       held,
		units:      units,
		rejects:    rejects,
		iterations: iterations,
		wait:       wait,
		phase:      phase,
	}, nil
}

// Declare records the current level of every resource in the pool.
func (e *Exporter) Declare(pool *resource.Pool) {
	if e == nil {
		return
	}
	for _, level := range pool.Levels() {
		e.capacity.WithLabelValues(level.Name).Set(float64(level.Capacity))
		e.held.WithLabelValues(level.Name).Set(float64(level.Held))
	}
}

// PoolEvents returns callbacks to be installed on a [resource.Pool].
func (e *Exporter) PoolEvents() *resource.Events {
	if e == nil {
		return nil
	}
	return &resource.Events{
		OnChange: func(change resource.Change) {
			kind := change.Kind.String()
			for i, d := range change.Bundle.Demands() {
				e.units.WithLabelValues(d.Resource, kind).Add(float64(d.Units))
				e.held.WithLabelValues(d.Resource).Set(float64(change.Levels[i].Held))
			}
		},
		OnReject: func(_ resource.Bundle, short resource.Level) {
			e.rejects.WithLabelValues(short.Name).Inc()
		},
	}
}

// OnIteration implements [sim.Observer].
func (e *Exporter) OnIteration(evt task.Event) {
	if e == nil {
		return
	}
	e.iterations.WithLabelValues(evt.Task).Inc()
	e.wait.WithLabelValues(evt.Task).Observe(evt.Wait.Seconds())
}

// OnReport implements [sim.Observer].
func (e *Exporter) OnReport(report monitor.Report) {
	if e == nil {
		return
	}
	for _, phase := range task.Phases {
		e.phase.WithLabelValues(phase.String()).Set(float64(len(report.Names(phase))))
	}
}

func registerCollector[T prom.Collector](reg prom.Registerer, collector T) (T, error) {
	err := reg.Register(collector)
	if err == nil {
		return collector, nil
	}

	var alreadyRegisteredErr prom.AlreadyRegisteredError
	if errors.As(err, &alreadyRegisteredErr) {
		existing, ok := alreadyRegisteredErr.ExistingCollector.(T)
		if !ok {
			return collector, fmt.Errorf("collector type mismatch for %T", collector)
		}
		return existing, nil
	}

	return collector, err
}
