// Copyright 2026 The Chronon Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/pflag"

	"github.com/chronon-foundation/chronon/cmd/chronon/cli"
	"github.com/chronon-foundation/chronon/cmd/chronon/traceview"
	"github.com/chronon-foundation/chronon/lib/codec"
	"github.com/chronon-foundation/chronon/lib/sealed"
	"github.com/chronon-foundation/chronon/lib/secret"
	"github.com/chronon-foundation/chronon/lib/trace"
	"github.com/chronon-foundation/chronon/lib/tracestore"
)

// TraceCommand returns the "trace" subcommand group.
func TraceCommand() *cli.Command {
	return &cli.Command{
		Name:    "trace",
		Summary: "Inspect, view, and seal trace archives",
		Description: `Inspect, view, and seal trace archives.

A trace archive is the chunked, compressed (and optionally encrypted)
container written by "chronon run --trace". These commands decode
archives back into readable form, open the interactive viewer, and
wrap archives for hand-off with age public-key encryption.`,
		Subcommands: []*cli.Command{
			traceShowCommand(),
			traceDiagCommand(),
			traceViewCommand(),
			traceSealCommand(),
			traceUnsealCommand(),
		},
	}
}

type traceShowParams struct {
	Compact        bool   `flag:"compact" desc:"single-line JSON output"`
	PassphraseFile string `flag:"passphrase-file" desc:"decrypt the archive with a key derived from this passphrase file"`
}

func traceShowCommand() *cli.Command {
	var params traceShowParams

	return &cli.Command{
		Name:    "show",
		Summary: "Decode a trace archive to JSON",
		Usage:   "chronon trace show <archive> [flags]",
		Flags: func() *pflag.FlagSet {
			return cli.FlagsFromParams("show", &params)
		},
		Run: func(args []string) error {
			if len(args) != 1 {
				return fmt.Errorf("expected exactly one archive, got %d arguments", len(args))
			}

			decoded, err := readArchive(args[0], params.PassphraseFile)
			if err != nil {
				return err
			}

			encoder := json.NewEncoder(os.Stdout)
			if !params.Compact {
				encoder.SetIndent("", "  ")
			}
			return encoder.Encode(decoded)
		},
	}
}

type traceDiagParams struct {
	PassphraseFile string `flag:"passphrase-file" desc:"decrypt the archive with a key derived from this passphrase file"`
}

func traceDiagCommand() *cli.Command {
	var params traceDiagParams

	return &cli.Command{
		Name:    "diag",
		Summary: "Print the archive payload in CBOR diagnostic notation",
		Usage:   "chronon trace diag <archive>",
		Flags: func() *pflag.FlagSet {
			return cli.FlagsFromParams("diag", &params)
		},
		Run: func(args []string) error {
			if len(args) != 1 {
				return fmt.Errorf("expected exactly one archive, got %d arguments", len(args))
			}

			decoded, err := readArchive(args[0], params.PassphraseFile)
			if err != nil {
				return err
			}
			canonical, err := decoded.CanonicalBytes()
			if err != nil {
				return fmt.Errorf("encoding trace: %w", err)
			}
			diagnostic, err := codec.Diagnose(canonical)
			if err != nil {
				return fmt.Errorf("diagnosing trace payload: %w", err)
			}
			fmt.Println(diagnostic)
			return nil
		},
	}
}

type traceViewParams struct {
	PassphraseFile string `flag:"passphrase-file" desc:"decrypt the archive with a key derived from this passphrase file"`
}

func traceViewCommand() *cli.Command {
	var params traceViewParams

	return &cli.Command{
		Name:    "view",
		Summary: "Open a trace archive in the interactive viewer",
		Usage:   "chronon trace view <archive>",
		Examples: []cli.Example{
			{
				Description: "Browse a trace: / filters, enter opens the detail pane",
				Command:     "chronon trace view staggered.trace",
			},
		},
		Flags: func() *pflag.FlagSet {
			return cli.FlagsFromParams("view", &params)
		},
		Run: func(args []string) error {
			if len(args) != 1 {
				return fmt.Errorf("expected exactly one archive, got %d arguments", len(args))
			}

			decoded, err := readArchive(args[0], params.PassphraseFile)
			if err != nil {
				return err
			}
			return traceview.Run(decoded)
		},
	}
}

type traceSealParams struct {
	Recipients []string `flag:"recipient" desc:"age recipient public key (repeatable)"`
	Out        string   `flag:"out" desc:"output path (default: <archive>.sealed)"`
}

func traceSealCommand() *cli.Command {
	var params traceSealParams

	return &cli.Command{
		Name:    "seal",
		Summary: "Encrypt a trace archive to age recipients",
		Usage:   "chronon trace seal <archive> --recipient <age1...> [flags]",
		Examples: []cli.Example{
			{
				Description: "Seal an archive for a reviewer",
				Command:     "chronon trace seal staggered.trace --recipient age1ql3z7hjy54pw3hyww5ayyfg7zqgvc7w3j2elw8zmrj2kg5sfn9aqmcac8p",
			},
		},
		Flags: func() *pflag.FlagSet {
			return cli.FlagsFromParams("seal", &params)
		},
		Run: func(args []string) error {
			if len(args) != 1 {
				return fmt.Errorf("expected exactly one archive, got %d arguments", len(args))
			}
			if len(params.Recipients) == 0 {
				return fmt.Errorf("at least one --recipient is required")
			}

			archivePath := args[0]
			data, err := os.ReadFile(archivePath)
			if err != nil {
				return fmt.Errorf("reading archive: %w", err)
			}

			sealedText, err := sealed.Encrypt(data, params.Recipients)
			if err != nil {
				return fmt.Errorf("sealing archive: %w", err)
			}

			outPath := params.Out
			if outPath == "" {
				outPath = archivePath + ".sealed"
			}
			if err := os.WriteFile(outPath, []byte(sealedText), 0o600); err != nil {
				return fmt.Errorf("writing sealed archive: %w", err)
			}
			fmt.Printf("sealed %s for %d recipient(s): %s\n", archivePath, len(params.Recipients), outPath)
			return nil
		},
	}
}

type traceUnsealParams struct {
	Identity string `flag:"identity" desc:"path to the age identity (private key) file"`
	Out      string `flag:"out" desc:"output path (default: input without .sealed suffix)"`
}

func traceUnsealCommand() *cli.Command {
	var params traceUnsealParams

	return &cli.Command{
		Name:    "unseal",
		Summary: "Decrypt a sealed trace archive",
		Usage:   "chronon trace unseal <sealed> --identity <file> [flags]",
		Flags: func() *pflag.FlagSet {
			return cli.FlagsFromParams("unseal", &params)
		},
		Run: func(args []string) error {
			if len(args) != 1 {
				return fmt.Errorf("expected exactly one sealed file, got %d arguments", len(args))
			}
			if params.Identity == "" {
				return fmt.Errorf("--identity is required")
			}

			sealedPath := args[0]
			sealedText, err := os.ReadFile(sealedPath)
			if err != nil {
				return fmt.Errorf("reading sealed archive: %w", err)
			}

			identity, err := secret.ReadFromPath(params.Identity)
			if err != nil {
				return fmt.Errorf("reading identity file: %w", err)
			}
			defer identity.Close()

			plaintext, err := sealed.Decrypt(string(sealedText), identity)
			if err != nil {
				return fmt.Errorf("unsealing archive: %w", err)
			}
			defer plaintext.Close()

			outPath := params.Out
			if outPath == "" {
				outPath = strings.TrimSuffix(sealedPath, ".sealed")
				if outPath == sealedPath {
					outPath = sealedPath + ".unsealed"
				}
			}
			if err := os.WriteFile(outPath, plaintext.Bytes(), 0o600); err != nil {
				return fmt.Errorf("writing archive: %w", err)
			}
			fmt.Printf("unsealed %s: %s\n", sealedPath, outPath)
			return nil
		},
	}
}

// readArchive opens a trace archive, deriving a decryption key from a
// passphrase file when one is given.
func readArchive(path, passphraseFile string) (*trace.Trace, error) {
	options, cleanup, err := archiveOptions(passphraseFile)
	if err != nil {
		return nil, err
	}
	defer cleanup()

	result, err := tracestore.Read(path, options)
	if err != nil {
		return nil, fmt.Errorf("reading archive %s: %w", path, err)
	}
	return result, nil
}
