// Copyright 2026 The Chronon Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/pflag"

	"github.com/chronon-foundation/chronon/cmd/chronon/cli"
	"github.com/chronon-foundation/chronon/lib/clock"
	"github.com/chronon-foundation/chronon/lib/config"
	"github.com/chronon-foundation/chronon/lib/runstore"
	"github.com/chronon-foundation/chronon/lib/trace"
)

// RunsCommand returns the "runs" subcommand group for browsing the
// run history database.
func RunsCommand() *cli.Command {
	return &cli.Command{
		Name:    "runs",
		Summary: "Browse the run history database",
		Description: `Browse the run history database.

Runs recorded by "chronon run --store" or by the trace service are
listed newest first. "show" prints one run in full; "delete" removes
it.`,
		Subcommands: []*cli.Command{
			runsListCommand(),
			runsShowCommand(),
			runsDeleteCommand(),
		},
	}
}

type runsListParams struct {
	cli.JSONOutput
	Store string `flag:"store" desc:"run database path (default: the development store)"`
	Limit int    `flag:"limit" desc:"maximum rows" default:"50"`
}

func runsListCommand() *cli.Command {
	var params runsListParams

	return &cli.Command{
		Name:    "list",
		Summary: "List recorded runs, newest first",
		Usage:   "chronon runs list [flags]",
		Flags: func() *pflag.FlagSet {
			return cli.FlagsFromParams("list", &params)
		},
		Run: func(args []string) error {
			store, err := openStore(params.Store)
			if err != nil {
				return err
			}
			defer store.Close()

			runs, err := store.List(context.Background(), params.Limit)
			if err != nil {
				return fmt.Errorf("listing runs: %w", err)
			}

			if done, err := params.EmitJSON(runs); done {
				return err
			}

			tw := tabwriter.NewWriter(os.Stdout, 2, 0, 3, ' ', 0)
			fmt.Fprintf(tw, "ID\tSCENARIO\tSTARTED\tWAKES\tELAPSED\tDIGEST\n")
			for _, run := range runs {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%s\t%s\n",
					run.ID,
					run.Scenario,
					run.StartedAt.Format(time.RFC3339),
					run.Wakes,
					run.Elapsed,
					trace.FormatRef(run.Digest))
			}
			return tw.Flush()
		},
	}
}

type runsShowParams struct {
	cli.JSONOutput
	Store string `flag:"store" desc:"run database path (default: the development store)"`
}

func runsShowCommand() *cli.Command {
	var params runsShowParams

	return &cli.Command{
		Name:    "show",
		Summary: "Show one recorded run",
		Usage:   "chronon runs show <id> [flags]",
		Flags: func() *pflag.FlagSet {
			return cli.FlagsFromParams("show", &params)
		},
		Run: func(args []string) error {
			if len(args) != 1 {
				return fmt.Errorf("expected exactly one run id, got %d arguments", len(args))
			}

			store, err := openStore(params.Store)
			if err != nil {
				return err
			}
			defer store.Close()

			run, err := store.Get(context.Background(), args[0])
			if err != nil {
				return fmt.Errorf("loading run %s: %w", args[0], err)
			}

			if done, err := params.EmitJSON(run); done {
				return err
			}

			tw := tabwriter.NewWriter(os.Stdout, 2, 0, 3, ' ', 0)
			fmt.Fprintf(tw, "id\t%s\n", run.ID)
			fmt.Fprintf(tw, "scenario\t%s\n", run.Scenario)
			fmt.Fprintf(tw, "started\t%s\n", run.StartedAt.Format(time.RFC3339Nano))
			fmt.Fprintf(tw, "entries\t%d\n", run.Entries)
			fmt.Fprintf(tw, "wakes\t%d\n", run.Wakes)
			fmt.Fprintf(tw, "elapsed\t%s\n", run.Elapsed)
			fmt.Fprintf(tw, "digest\t%s\n", trace.FormatDigest(run.Digest))
			fmt.Fprintf(tw, "archive\t%d bytes\n", len(run.Archive))
			return tw.Flush()
		},
	}
}

type runsDeleteParams struct {
	Store string `flag:"store" desc:"run database path (default: the development store)"`
}

func runsDeleteCommand() *cli.Command {
	var params runsDeleteParams

	return &cli.Command{
		Name:    "delete",
		Summary: "Delete a recorded run",
		Usage:   "chronon runs delete <id> [flags]",
		Flags: func() *pflag.FlagSet {
			return cli.FlagsFromParams("delete", &params)
		},
		Run: func(args []string) error {
			if len(args) != 1 {
				return fmt.Errorf("expected exactly one run id, got %d arguments", len(args))
			}

			store, err := openStore(params.Store)
			if err != nil {
				return err
			}
			defer store.Close()

			if err := store.Delete(context.Background(), args[0]); err != nil {
				return fmt.Errorf("deleting run %s: %w", args[0], err)
			}
			fmt.Printf("deleted %s\n", args[0])
			return nil
		},
	}
}

// openStore opens the run database at path, falling back to the
// default development store location when path is empty.
func openStore(path string) (*runstore.Store, error) {
	if path == "" {
		path = config.Default().Store.Path
	}
	store, err := runstore.Open(runstore.Config{
		Path:   path,
		Clock:  clock.Real(),
		Logger: cli.NewCommandLogger(),
	})
	if err != nil {
		return nil, fmt.Errorf("opening run store %s: %w", path, err)
	}
	return store, nil
}
