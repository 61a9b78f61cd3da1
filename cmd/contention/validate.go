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
	"fmt"

	"github.com/cockroachdb/field-eng-contention/config"
	"github.com/spf13/cobra"
)

func newValidateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "validate INPUT [MONITOR_MS NITER]",
		Short: "Check an input without running it",
		Long: `Validate loads INPUT and reports every configuration problem. If the
input does not declare the run parameters, placeholder values are
assumed unless MONITOR_MS and NITER are given.`,
		Args: cobra.RangeArgs(1, 3),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(args[0])
			if err != nil {
				return err
			}
			if err := applyArgs(cfg, args[1:]); err != nil {
				return err
			}
			if len(args) == 1 {
				if cfg.Iterations == 0 {
					cfg.Iterations = 1
				}
				if cfg.MonitorInterval == 0 {
					cfg.MonitorInterval = config.DefaultBackoff.Base
				}
			}
			if err := cfg.Validate(); err != nil {
				return err
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "%s: %d resources, %d tasks\n",
				args[0], len(cfg.Resources), len(cfg.Tasks))
			return err
		},
	}
}
