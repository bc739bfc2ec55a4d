// Copyright 2025 walteh LLC
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

package main

import (
	"context"
	"fmt"
	"io"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"gitlab.com/tozd/go/errors"

	"github.com/walteh/verifycp/pkg/config"
	"github.com/walteh/verifycp/pkg/log"
	"github.com/walteh/verifycp/pkg/operation"
	"github.com/walteh/verifycp/pkg/progress"
	"github.com/walteh/verifycp/pkg/unit"
)

// newRootCmd builds the command tree. The exit code of a run is stored in code.
func newRootCmd(stdout, stderr io.Writer, code *int) *cobra.Command {
	cfg := &config.Options{}

	cmd := &cobra.Command{
		Use:   "verifycp",
		Short: "Copy files or extract archives with SHA-256 verification",
		Long: `verifycp copies a file or directory tree, or extracts a ZIP or RAR archive,
and checks every written file by comparing the SHA-256 of the bytes read with
the SHA-256 of the file read back from disk.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			zlog := log.Setup(stderr, cfg.Debug)
			ctx := zlog.WithContext(cmd.Context())

			console := log.New(stdout, zlog)
			reporter := progress.New(console, progress.Options{
				Verbose:   cfg.Verbose,
				ShowBar:   !cfg.NoProgress,
				BarWriter: stderr,
			})

			op, err := operation.New(operation.Options{Config: cfg, Reporter: reporter})
			if err != nil {
				return err
			}

			zlog.Debug().Str("run", cfg.String()).Msg("starting")
			outcome, err := op.Run(ctx)
			*code = operation.ExitCode(outcome, err)
			return err
		},
	}

	addRootFlags(cmd, cfg)
	cmd.AddCommand(newVersionCmd(stdout))

	return cmd
}

// addRootFlags binds the run flags to cfg
func addRootFlags(cmd *cobra.Command, cfg *config.Options) {
	flags := cmd.Flags()
	flags.StringVarP(&cfg.Origin, "origin", "o", "", "file, directory, or .zip/.rar archive to copy")
	flags.StringVarP(&cfg.Destination, "destination", "d", "", "destination directory")
	flags.BoolVarP(&cfg.Verbose, "verbose", "v", false, "print every unit with its checksum result")
	flags.BoolVarP(&cfg.SingleFolder, "single-folder", "s", false, "extract all archive entries into one folder")
	flags.StringArrayVarP(&cfg.Excludes, "exclude", "x", nil, "glob of paths to skip, relative to the origin (repeatable)")
	flags.IntVarP(&cfg.Jobs, "jobs", "j", 1, "parallel transfers for plain files")
	flags.BoolVar(&cfg.Nested, "nested", false, "also extract .rar files found inside the extracted archive")
	flags.StringVar(&cfg.ReportPath, "report", "", "write a run report (.json, otherwise YAML)")
	flags.BoolVar(&cfg.NoProgress, "no-progress", false, "do not draw the progress bar")
	flags.BoolVar(&cfg.Debug, "debug", false, "enable debug logging")

	_ = cmd.MarkFlagRequired("origin")
	_ = cmd.MarkFlagRequired("destination")
}

// execute runs the CLI and returns the process exit code
func execute(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	code := operation.ExitOK

	cmd := newRootCmd(stdout, stderr, &code)
	cmd.SetArgs(args)
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)

	if err := cmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(stderr, "❌ %s\n", color.RedString(describe(err)))
		if code == operation.ExitOK {
			code = operation.ExitFatal
		}
	}

	return code
}

// describe prefixes known failures with their kind
func describe(err error) string {
	var re *unit.ResolutionError
	if errors.As(err, &re) {
		return fmt.Sprintf("%s: %v", unit.ErrorKind(err), re)
	}
	return err.Error()
}
