// Copyright 2026 The Chronon Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"fmt"
	"os"
	"text/tabwriter"

	"golang.org/x/term"

	"github.com/chronon-foundation/chronon/cmd/chronon/cli"
	"github.com/chronon-foundation/chronon/lib/scenario"
	"github.com/chronon-foundation/chronon/lib/tui"
)

// ScenarioCommand returns the "scenario" subcommand group.
func ScenarioCommand() *cli.Command {
	return &cli.Command{
		Name:    "scenario",
		Summary: "Inspect and validate scenario files",
		Description: `Inspect and validate scenario files.

Scenarios are JSONC files declaring timers against the virtual clock.
"show" renders a scenario's description and timer table; "validate"
checks one or more files and reports problems.`,
		Subcommands: []*cli.Command{
			scenarioShowCommand(),
			scenarioValidateCommand(),
		},
	}
}

func scenarioShowCommand() *cli.Command {
	return &cli.Command{
		Name:    "show",
		Summary: "Render a scenario's description and timer table",
		Usage:   "chronon scenario show <file>",
		Run: func(args []string) error {
			if len(args) != 1 {
				return fmt.Errorf("expected exactly one scenario file, got %d arguments", len(args))
			}

			spec, err := scenario.ReadFile(args[0])
			if err != nil {
				return err
			}

			fmt.Printf("%s\n", spec.Name)
			if spec.Description != "" {
				fmt.Printf("\n%s\n", tui.RenderMarkdown(spec.Description, tui.DefaultTheme, renderWidth()))
			}

			fmt.Printf("\n")
			tw := tabwriter.NewWriter(os.Stdout, 2, 0, 3, ' ', 0)
			fmt.Fprintf(tw, "TIMER\tPERIOD\tREPEAT\tCANCEL AFTER\n")
			for _, timer := range spec.Timers {
				cancel := "-"
				if timer.CancelAfter > 0 {
					cancel = timer.CancelAfter.Std().String()
				}
				fmt.Fprintf(tw, "%s\t%s\t%d\t%s\n",
					timer.ID, timer.Period.Std(), timer.Repeat, cancel)
			}
			tw.Flush()
			return nil
		},
	}
}

func scenarioValidateCommand() *cli.Command {
	return &cli.Command{
		Name:    "validate",
		Summary: "Validate one or more scenario files",
		Usage:   "chronon scenario validate <file...>",
		Run: func(args []string) error {
			if len(args) == 0 {
				return fmt.Errorf("expected at least one scenario file")
			}

			failed := 0
			for _, path := range args {
				if _, err := scenario.ReadFile(path); err != nil {
					fmt.Printf("%s: %v\n", path, err)
					failed++
					continue
				}
				fmt.Printf("%s: ok\n", path)
			}

			if failed > 0 {
				return &cli.ExitError{Code: 1}
			}
			return nil
		},
	}
}

// renderWidth returns the terminal width for markdown rendering,
// capped at 100 columns for readability. Falls back to 80 when stdout
// is not a terminal.
func renderWidth() int {
	width, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || width <= 0 {
		return 80
	}
	if width > 100 {
		return 100
	}
	return width
}
