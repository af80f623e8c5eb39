// Copyright 2026 The Chronon Authors
// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"bytes"
	"strings"
	"testing"

	"github.com/spf13/pflag"
)

func TestCommand_Execute_DispatchesToSubcommand(t *testing.T) {
	var called string

	root := &Command{
		Name: "chronon",
		Subcommands: []*Command{
			{
				Name: "version",
				Run: func(args []string) error {
					called = "version"
					return nil
				},
			},
			{
				Name: "run",
				Run: func(args []string) error {
					called = "run"
					return nil
				},
			},
		},
	}

	if err := root.Execute([]string{"run"}); err != nil {
		t.Fatalf("Execute() error: %v", err)
	}
	if called != "run" {
		t.Errorf("dispatched to %q, want %q", called, "run")
	}
}

func TestCommand_Execute_NestedSubcommands(t *testing.T) {
	var called string
	var receivedArgs []string

	root := &Command{
		Name: "chronon",
		Subcommands: []*Command{
			{
				Name: "trace",
				Subcommands: []*Command{
					{
						Name: "show",
						Run: func(args []string) error {
							called = "trace show"
							receivedArgs = args
							return nil
						},
					},
				},
			},
		},
	}

	if err := root.Execute([]string{"trace", "show", "run.trace"}); err != nil {
		t.Fatalf("Execute() error: %v", err)
	}
	if called != "trace show" {
		t.Errorf("dispatched to %q, want %q", called, "trace show")
	}
	if len(receivedArgs) != 1 || receivedArgs[0] != "run.trace" {
		t.Errorf("args = %v, want [run.trace]", receivedArgs)
	}
}

func TestCommand_Execute_FlagParsing(t *testing.T) {
	var tracePath string
	var target string

	command := &Command{
		Name: "run",
		Flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet("run", pflag.ContinueOnError)
			flagSet.StringVar(&tracePath, "trace", "", "trace output path")
			return flagSet
		},
		Run: func(args []string) error {
			if len(args) > 0 {
				target = args[0]
			}
			return nil
		},
	}

	if err := command.Execute([]string{"--trace", "out.trace", "staggered.jsonc"}); err != nil {
		t.Fatalf("Execute() error: %v", err)
	}
	if tracePath != "out.trace" {
		t.Errorf("tracePath = %q, want %q", tracePath, "out.trace")
	}
	if target != "staggered.jsonc" {
		t.Errorf("target = %q, want %q", target, "staggered.jsonc")
	}
}

func TestCommand_Execute_UnknownFlagSuggestion(t *testing.T) {
	command := &Command{
		Name: "run",
		Flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet("run", pflag.ContinueOnError)
			flagSet.Bool("quiet", false, "suppress summary output")
			flagSet.String("trace", "", "trace output path")
			return flagSet
		},
		Run: func(args []string) error { return nil },
	}

	err := command.Execute([]string{"--trce", "out.trace"})
	if err == nil {
		t.Fatal("expected error for unknown flag")
	}
	if !strings.Contains(err.Error(), "--trace") {
		t.Errorf("error should suggest --trace, got: %v", err)
	}
}

func TestCommand_Execute_UnknownSubcommandSuggestion(t *testing.T) {
	root := &Command{
		Name: "chronon",
		Subcommands: []*Command{
			{Name: "verify", Run: func(args []string) error { return nil }},
			{Name: "version", Run: func(args []string) error { return nil }},
		},
	}

	err := root.Execute([]string{"verfy"})
	if err == nil {
		t.Fatal("expected error for unknown subcommand")
	}
	if !strings.Contains(err.Error(), `"verify"`) {
		t.Errorf("error should suggest verify, got: %v", err)
	}
}

func TestCommand_Execute_SubcommandRequired(t *testing.T) {
	root := &Command{
		Name: "chronon",
		Subcommands: []*Command{
			{Name: "run", Run: func(args []string) error { return nil }},
		},
	}

	err := root.Execute(nil)
	if err == nil {
		t.Fatal("expected error when no subcommand given")
	}
	if !strings.Contains(err.Error(), "subcommand required") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestCommand_PrintHelp_ListsSubcommands(t *testing.T) {
	root := &Command{
		Name:    "chronon",
		Summary: "deterministic virtual clock toolkit",
		Subcommands: []*Command{
			{Name: "run", Summary: "execute a scenario"},
			{Name: "verify", Summary: "replay and compare digests"},
		},
	}

	var buffer bytes.Buffer
	root.PrintHelp(&buffer)
	help := buffer.String()

	if !strings.Contains(help, "run") || !strings.Contains(help, "execute a scenario") {
		t.Errorf("help missing run subcommand:\n%s", help)
	}
	if !strings.Contains(help, "verify") {
		t.Errorf("help missing verify subcommand:\n%s", help)
	}
	if !strings.Contains(help, "chronon <command> --help") {
		t.Errorf("help missing footer hint:\n%s", help)
	}
}

func TestCommand_Execute_HelpFlag(t *testing.T) {
	root := &Command{
		Name:    "chronon",
		Summary: "deterministic virtual clock toolkit",
		Subcommands: []*Command{
			{Name: "run", Summary: "execute a scenario"},
		},
	}

	// --help is not an error.
	if err := root.Execute([]string{"--help"}); err != nil {
		t.Errorf("Execute(--help) error: %v", err)
	}
	if err := root.Execute([]string{"help"}); err != nil {
		t.Errorf("Execute(help) error: %v", err)
	}
}
