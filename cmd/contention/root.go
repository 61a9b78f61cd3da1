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
	"io"
	"os"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

func newRootCommand(out io.Writer) *cobra.Command {
	var logFormat, logLevel string
	root := &cobra.Command{
		Use:           "contention",
		Short:         "Simulate tasks contending for shared resources",
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			level, err := log.ParseLevel(logLevel)
			if err != nil {
				return err
			}
			log.SetLevel(level)
			switch logFormat {
			case "text":
				log.SetFormatter(&log.TextFormatter{})
			case "json":
				log.SetFormatter(&log.JSONFormatter{})
			default:
				return fmt.Errorf("unknown log format %q", logFormat)
			}
			log.SetOutput(os.Stderr)
			return nil
		},
	}
	root.SetOut(out)
	root.PersistentFlags().StringVar(&logFormat, "logFormat", "text", "log output format: text or json")
	root.PersistentFlags().StringVar(&logLevel, "logLevel", "warn",
		"minimum log level: trace, debug, info, warn or error")

	root.AddCommand(
		newRunCommand(),
		newSamplesCommand(),
		newValidateCommand(),
	)
	return root
}
