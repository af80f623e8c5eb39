// Copyright 2026 The Chronon Authors
// SPDX-License-Identifier: Apache-2.0

// Package commands builds the complete chronon CLI command tree. The
// chronon binary imports this package; keeping the tree in its own
// package keeps main.go down to dispatch and exit-code handling.
package commands

import (
	"fmt"

	"github.com/spf13/pflag"

	"github.com/chronon-foundation/chronon/cmd/chronon/cli"
	"github.com/chronon-foundation/chronon/lib/version"
)

// Root builds and returns the complete chronon CLI command tree.
func Root() *cli.Command {
	return &cli.Command{
		Name: "chronon",
		Description: `Chronon: deterministic virtual clock toolkit.

Run timer scenarios against a simulated clock, record their traces,
verify reproducibility by digest, and inspect or hand off trace
archives.`,
		Subcommands: []*cli.Command{
			RunCommand(),
			VerifyCommand(),
			ScenarioCommand(),
			TraceCommand(),
			RunsCommand(),
			versionCommand(),
		},
		Examples: []cli.Example{
			{
				Description: "Run a scenario and print the summary",
				Command:     "chronon run staggered.jsonc",
			},
			{
				Description: "Keep the full trace as an archive",
				Command:     "chronon run staggered.jsonc --trace staggered.trace",
			},
			{
				Description: "Check that a scenario still reproduces a recorded trace",
				Command:     "chronon verify staggered.jsonc --against staggered.trace",
			},
			{
				Description: "Browse a trace interactively",
				Command:     "chronon trace view staggered.trace",
			},
			{
				Description: "List recorded runs",
				Command:     "chronon runs list --store runs.db",
			},
		},
	}
}

func versionCommand() *cli.Command {
	var full bool

	return &cli.Command{
		Name:    "version",
		Summary: "Print version information",
		Flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet("version", pflag.ContinueOnError)
			flagSet.BoolVar(&full, "full", false, "include the build commit")
			return flagSet
		},
		Run: func(args []string) error {
			if full {
				fmt.Printf("chronon %s\n", version.Full())
			} else {
				fmt.Printf("chronon %s\n", version.Info())
			}
			return nil
		},
	}
}
