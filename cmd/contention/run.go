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

package main

import (
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/cockroachdb/field-eng-contention/config"
	"github.com/cockroachdb/field-eng-contention/metrics"
	"github.com/cockroachdb/field-eng-contention/report"
	"github.com/cockroachdb/field-eng-contention/resource"
	"github.com/cockroachdb/field-eng-contention/sim"
	"github.com/cockroachdb/field-eng-powertools/stopper"
	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

type runFlags struct {
	backoff     string
	backoffBase time.Duration
	backoffMax  time.Duration
	metricsAddr string
	quiet       bool
	verify      bool
}

func newRunCommand() *cobra.Command {
	var flags runFlags
	cmd := &cobra.Command{
		Use:   "run INPUT [MONITOR_MS NITER]",
		Short: "Run a simulation and print its activity and summary",
		Long: `Run loads INPUT, runs every task for NITER iterations while a monitor
reports task phases every MONITOR_MS milliseconds, then prints a summary.
MONITOR_MS and NITER may be omitted if the input declares them.`,
		Args: cobra.RangeArgs(1, 3),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(args[0])
			if err != nil {
				return err
			}
			if err := applyArgs(cfg, args[1:]); err != nil {
				return err
			}
			if cmd.Flags().Changed("backoff") {
				cfg.Backoff = config.Backoff{
					Kind: config.BackoffKind(flags.backoff),
					Base: flags.backoffBase,
					Max:  flags.backoffMax,
				}
			}
			return runSimulation(cmd, cfg, &flags)
		},
	}
	f := cmd.Flags()
	f.StringVar(&flags.backoff, "backoff", string(config.DefaultBackoff.Kind),
		"delay between reservation attempts: constant or exponential")
	f.DurationVar(&flags.backoffBase, "backoffBase", config.DefaultBackoff.Base,
		"the constant delay, or the first exponential delay")
	f.DurationVar(&flags.backoffMax, "backoffMax", 250*time.Millisecond,
		"the largest exponential delay")
	f.StringVar(&flags.metricsAddr, "metricsAddr", "",
		"serve Prometheus metrics at this address during the run, e.g. 127.0.0.1:9090")
	f.BoolVarP(&flags.quiet, "quiet", "q", false, "only print the summary")
	f.BoolVar(&flags.verify, "verify", false,
		"record every reservation and check the history against each resource's capacity")
	return cmd
}

// applyArgs overrides the run parameters from the positional arguments.
func applyArgs(cfg *config.Simulation, args []string) error {
	switch len(args) {
	case 0:
		return nil
	case 2:
	default:
		return fmt.Errorf("%w: MONITOR_MS and NITER must be given together", config.ErrInvalid)
	}
	interval, err := config.ParseMillis(args[0])
	if err != nil {
		return fmt.Errorf("%w: bad monitor time %q", config.ErrInvalid, args[0])
	}
	cfg.MonitorInterval = interval
	n, err := strconv.Atoi(args[1])
	if err != nil {
		return fmt.Errorf("%w: bad iteration count %q", config.ErrInvalid, args[1])
	}
	cfg.Iterations = n
	return nil
}

func runSimulation(cmd *cobra.Command, cfg *config.Simulation, flags *runFlags) error {
	out := cmd.OutOrStdout()
	var observers sim.Observers
	if !flags.quiet {
		observers = append(observers, report.NewWriter(out))
	}

	var opts sim.Options
	var events []*resource.Events
	var exporter *metrics.Exporter
	var ledger *resource.Ledger
	if flags.verify {
		ledger = resource.NewLedger()
		events = append(events, ledger.Events())
	}
	var server *stopper.Context
	if flags.metricsAddr != "" {
		reg := prom.NewRegistry()
		var err error
		exporter, err = metrics.NewExporter("", reg)
		if err != nil {
			return err
		}
		observers = append(observers, exporter)
		events = append(events, exporter.PoolEvents())

		server, err = serveMetrics(cmd, flags.metricsAddr, reg)
		if err != nil {
			return err
		}
		defer func() {
			server.Stop(time.Second)
			if err := server.Wait(); err != nil {
				log.WithError(err).Warn("metrics server")
			}
		}()
	}
	opts.Observer = observers
	if len(events) > 0 {
		opts.Events = resource.Chain(events...)
	}

	s, err := sim.New(cfg, opts)
	if err != nil {
		return err
	}
	exporter.Declare(s.Pool())

	result, runErr := s.Run(cmd.Context())
	if result == nil {
		return runErr
	}
	if err := report.WriteSummary(out, result); err != nil {
		return errors.Join(runErr, err)
	}
	if ledger != nil {
		if err := writeVerification(out, ledger); err != nil {
			return errors.Join(runErr, err)
		}
	}
	return runErr
}

// writeVerification replays the recorded history and prints a line per
// resource.
func writeVerification(out io.Writer, ledger *resource.Ledger) error {
	tallies, err := ledger.Replay()
	if err != nil {
		return fmt.Errorf("verification failed: %w", err)
	}
	if _, err := fmt.Fprintf(out, "\nVerified %d changes, %d rejected attempts:\n",
		len(ledger.Changes()), ledger.Rejects()); err != nil {
		return err
	}
	for _, t := range tallies {
		if t.Reserved != t.Released || t.Final != 0 {
			return fmt.Errorf("verification failed: %s reserved %d, released %d", t.Name, t.Reserved, t.Released)
		}
		if _, err := fmt.Fprintf(out, "%s: (peak= %d of %d, reserved= %d, released= %d)\n",
			t.Name, t.Peak, t.Capacity, t.Reserved, t.Released); err != nil {
			return err
		}
	}
	return nil
}

// serveMetrics starts an HTTP server for the registry. The server is
// shut down when the returned context is stopped.
func serveMetrics(cmd *cobra.Command, addr string, reg *prom.Registry) (*stopper.Context, error) {
	l, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, err
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))
	srv := &http.Server{Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	ctx := stopper.WithContext(cmd.Context())
	ctx.Go(func(ctx *stopper.Context) error {
		if err := srv.Serve(l); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	ctx.Go(func(ctx *stopper.Context) error {
		<-ctx.Stopping()
		return srv.Close()
	})
	log.WithField("addr", l.Addr().String()).Info("serving metrics")
	return ctx, nil
}
