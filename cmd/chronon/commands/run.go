// Copyright 2026 The Chronon Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/pflag"

	"github.com/chronon-foundation/chronon/cmd/chronon/cli"
	"github.com/chronon-foundation/chronon/lib/clock"
	"github.com/chronon-foundation/chronon/lib/runstore"
	"github.com/chronon-foundation/chronon/lib/scenario"
	"github.com/chronon-foundation/chronon/lib/secret"
	"github.com/chronon-foundation/chronon/lib/trace"
	"github.com/chronon-foundation/chronon/lib/tracestore"
)

type runParams struct {
	Trace          string `flag:"trace" desc:"write a trace archive to this path"`
	JSONL          bool   `flag:"jsonl" desc:"write the trace to stdout as JSON lines"`
	Store          string `flag:"store" desc:"record the run in this SQLite database"`
	Quiet          bool   `flag:"quiet,q" desc:"suppress the summary table"`
	PassphraseFile string `flag:"passphrase-file" desc:"encrypt the archive with a key derived from this passphrase file"`
}

// RunCommand returns the "run" command: execute a scenario and report
// its trace.
func RunCommand() *cli.Command {
	var params runParams

	return &cli.Command{
		Name:    "run",
		Summary: "Execute a scenario against the virtual clock",
		Usage:   "chronon run <scenario.jsonc> [flags]",
		Examples: []cli.Example{
			{
				Description: "Run a scenario and print the summary",
				Command:     "chronon run staggered.jsonc",
			},
			{
				Description: "Run and keep the full trace as an archive",
				Command:     "chronon run staggered.jsonc --trace staggered.trace",
			},
			{
				Description: "Record the run in the local run database",
				Command:     "chronon run staggered.jsonc --store runs.db",
			},
		},
		Flags: func() *pflag.FlagSet {
			return cli.FlagsFromParams("run", &params)
		},
		Run: func(args []string) error {
			if len(args) != 1 {
				return fmt.Errorf("expected exactly one scenario file, got %d arguments", len(args))
			}
			return executeRun(args[0], &params)
		},
	}
}

func executeRun(scenarioPath string, params *runParams) error {
	spec, err := scenario.ReadFile(scenarioPath)
	if err != nil {
		return err
	}

	runner := scenario.NewRunner(spec)
	result, err := runner.Run()
	if err != nil {
		return fmt.Errorf("running scenario %q: %w", spec.Name, err)
	}

	digest, err := result.Digest()
	if err != nil {
		return fmt.Errorf("computing trace digest: %w", err)
	}

	if params.JSONL {
		if err := trace.WriteJSONL(os.Stdout, result); err != nil {
			return fmt.Errorf("writing JSONL trace: %w", err)
		}
	}

	if params.Trace != "" {
		options, cleanup, err := archiveOptions(params.PassphraseFile)
		if err != nil {
			return err
		}
		defer cleanup()
		if err := tracestore.Write(params.Trace, result, options); err != nil {
			return fmt.Errorf("writing trace archive: %w", err)
		}
	}

	if params.Store != "" {
		if err := recordRun(params.Store, result, digest); err != nil {
			return err
		}
	}

	if !params.Quiet {
		printSummary(os.Stdout, result, digest)
	}
	return nil
}

// archiveOptions builds tracestore options, deriving an encryption key
// from a passphrase file when one is given. The returned cleanup
// closes the key (a no-op when no passphrase was used).
func archiveOptions(passphraseFile string) (tracestore.Options, func(), error) {
	if passphraseFile == "" {
		return tracestore.Options{}, func() {}, nil
	}

	passphrase, err := secret.ReadFromPath(passphraseFile)
	if err != nil {
		return tracestore.Options{}, nil, fmt.Errorf("reading passphrase file: %w", err)
	}
	defer passphrase.Close()

	key, err := tracestore.NewKeyFromPassphrase(passphrase.Bytes())
	if err != nil {
		return tracestore.Options{}, nil, fmt.Errorf("deriving archive key: %w", err)
	}
	return tracestore.Options{Key: key}, func() { key.Close() }, nil
}

func recordRun(storePath string, result *trace.Trace, digest trace.Digest) error {
	archive, err := result.CanonicalBytes()
	if err != nil {
		return fmt.Errorf("encoding trace for storage: %w", err)
	}

	store, err := runstore.Open(runstore.Config{
		Path:   storePath,
		Clock:  clock.Real(),
		Logger: cli.NewCommandLogger(),
	})
	if err != nil {
		return fmt.Errorf("opening run store: %w", err)
	}
	defer store.Close()

	id, err := store.Put(context.Background(), &runstore.Run{
		Scenario: result.Scenario,
		Entries:  len(result.Entries),
		Wakes:    result.Summary.Wakes,
		Elapsed:  result.Summary.Elapsed,
		Digest:   digest,
		Archive:  archive,
	})
	if err != nil {
		return fmt.Errorf("recording run: %w", err)
	}
	fmt.Printf("recorded run %s\n", id)
	return nil
}

func printSummary(w *os.File, result *trace.Trace, digest trace.Digest) {
	tw := tabwriter.NewWriter(w, 2, 0, 3, ' ', 0)
	fmt.Fprintf(tw, "scenario\t%s\n", result.Scenario)
	fmt.Fprintf(tw, "entries\t%d\n", len(result.Entries))
	fmt.Fprintf(tw, "timers\t%d\n", result.Summary.Timers)
	fmt.Fprintf(tw, "wakes\t%d\n", result.Summary.Wakes)
	fmt.Fprintf(tw, "removes\t%d\n", result.Summary.Removes)
	fmt.Fprintf(tw, "cancels\t%d\n", result.Summary.Cancels)
	fmt.Fprintf(tw, "advances\t%d\n", result.Summary.Advances)
	fmt.Fprintf(tw, "elapsed\t%s\n", result.Summary.Elapsed)
	fmt.Fprintf(tw, "digest\t%s\n", trace.FormatDigest(digest))
	tw.Flush()
}

type verifyParams struct {
	Against string `flag:"against" desc:"trace archive to compare the re-run against"`
}

// VerifyCommand returns the "verify" command: re-run a scenario and
// compare its digest against a stored archive.
func VerifyCommand() *cli.Command {
	var params verifyParams

	return &cli.Command{
		Name:    "verify",
		Summary: "Re-run a scenario and compare digests against an archive",
		Usage:   "chronon verify <scenario.jsonc> --against <archive>",
		Examples: []cli.Example{
			{
				Description: "Check that a scenario still reproduces a recorded trace",
				Command:     "chronon verify staggered.jsonc --against staggered.trace",
			},
		},
		Flags: func() *pflag.FlagSet {
			return cli.FlagsFromParams("verify", &params)
		},
		Run: func(args []string) error {
			if len(args) != 1 {
				return fmt.Errorf("expected exactly one scenario file, got %d arguments", len(args))
			}
			if params.Against == "" {
				return fmt.Errorf("--against is required")
			}
			return executeVerify(args[0], params.Against)
		},
	}
}

func executeVerify(scenarioPath, archivePath string) error {
	spec, err := scenario.ReadFile(scenarioPath)
	if err != nil {
		return err
	}

	runner := scenario.NewRunner(spec)
	result, err := runner.Run()
	if err != nil {
		return fmt.Errorf("running scenario %q: %w", spec.Name, err)
	}
	rerunDigest, err := result.Digest()
	if err != nil {
		return fmt.Errorf("computing trace digest: %w", err)
	}

	// The archive header carries the recorded digest; no decryption
	// key is needed for comparison.
	info, err := tracestore.ReadInfo(archivePath)
	if err != nil {
		return fmt.Errorf("reading archive %s: %w", archivePath, err)
	}

	if rerunDigest == info.Digest {
		fmt.Printf("match: %s\n", trace.FormatDigest(rerunDigest))
		return nil
	}

	fmt.Fprintf(os.Stderr, "divergence detected\n")
	fmt.Fprintf(os.Stderr, "  archive: %s\n", trace.FormatDigest(info.Digest))
	fmt.Fprintf(os.Stderr, "  re-run:  %s\n", trace.FormatDigest(rerunDigest))
	return &cli.ExitError{Code: 1}
}
