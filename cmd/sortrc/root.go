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
	"io"
	"os"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
	"github.com/pterm/pterm"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/walteh/sortrc/pkg/config"
	"github.com/walteh/sortrc/pkg/lock"
	"github.com/walteh/sortrc/pkg/report"
	"gitlab.com/tozd/go/errors"
)

// 🔧 rootOpts holds the flags shared by every command
type rootOpts struct {
	configFile  string
	debug       bool
	workers     int
	dryRun      bool
	skipExtract bool
	keepEmpty   bool
	output      string
	strict      bool
	ignore      []string
}

// 🏗️ newRootCmd builds the sortrc command tree
func newRootCmd() *cobra.Command {
	opts := &rootOpts{}

	cmd := &cobra.Command{
		Use:   "sortrc ROOT",
		Short: "Sort a directory into category folders",
		Long: `sortrc moves every file under ROOT into a category folder (Images, Video,
Documents, Music, Archives, Unknown) directly beneath ROOT.

File names are transliterated to ASCII and made filesystem safe. A name
that is already taken gets a unique suffix, so nothing is ever overwritten.
Afterwards empty folders are removed, zip archives are unpacked next to
themselves, and a report of the sorted tree is printed.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSort(cmd, opts, args[0])
		},
	}

	addRootFlags(cmd, opts)

	cmd.AddCommand(
		newCleanCmd(opts),
		newVersionCmd(),
	)

	return cmd
}

// addRootFlags adds shared flags to the root command
func addRootFlags(cmd *cobra.Command, opts *rootOpts) {
	cmd.PersistentFlags().StringVarP(&opts.configFile, "config", "c", "", "config file path (.yaml, .hcl, .json, .toml or .ini)")
	cmd.PersistentFlags().BoolVarP(&opts.debug, "debug", "d", false, "enable debug logging")
	cmd.PersistentFlags().BoolVar(&opts.dryRun, "dry-run", false, "show what would be moved without touching anything")

	cmd.Flags().IntVarP(&opts.workers, "workers", "w", 0, "subdirectories sorted at once (default: config value, else one per CPU)")
	cmd.Flags().BoolVar(&opts.skipExtract, "skip-extract", false, "do not unpack archives after sorting")
	cmd.Flags().BoolVar(&opts.keepEmpty, "keep-empty", false, "do not remove empty directories after sorting")
	cmd.Flags().StringVarP(&opts.output, "output", "o", string(report.FormatText), "report format: text, json or yaml")
	cmd.Flags().BoolVar(&opts.strict, "strict", false, "exit non-zero when any file or archive fails")
	cmd.Flags().StringSliceVar(&opts.ignore, "ignore", nil, "doublestar pattern, relative to ROOT, of files to leave alone (repeatable)")
}

// setupLogging builds the structured logger and switches off color when out is not a terminal
func setupLogging(ctx context.Context, out, errOut io.Writer, debug bool) (context.Context, zerolog.Logger) {
	level := zerolog.WarnLevel
	if debug {
		level = zerolog.DebugLevel
	}

	tty := isTerminal(out)
	color.NoColor = !tty
	if !tty {
		pterm.DisableStyling()
	}

	logger := zerolog.New(zerolog.ConsoleWriter{Out: errOut, NoColor: !isTerminal(errOut)}).
		Level(level).
		With().
		Timestamp().
		Logger()

	return logger.WithContext(ctx), logger
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	fd := f.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

// 📚 loadConfig reads the config file when given and applies flag overrides
func loadConfig(ctx context.Context, cmd *cobra.Command, opts *rootOpts) (*config.Config, error) {
	cfg := config.Default()
	if opts.configFile != "" {
		loaded, err := config.Load(ctx, opts.configFile)
		if err != nil {
			return nil, errors.Errorf("loading config: %w", err)
		}
		cfg = loaded
	}

	if cmd.Flags().Changed("workers") {
		cfg.Workers = opts.workers
	}
	if opts.skipExtract {
		cfg.SkipExtract = true
	}
	if opts.keepEmpty {
		cfg.KeepEmptyDirs = true
	}
	cfg.Ignore = append(cfg.Ignore, opts.ignore...)

	if err := cfg.Validate(); err != nil {
		return nil, errors.Errorf("validating flags: %w", err)
	}

	zerolog.Ctx(ctx).Debug().Str("config", cfg.String()).Msg("configuration loaded")
	return cfg, nil
}

// releaseLock releases the run lock, logging any failure
func releaseLock(ctx context.Context, lk *lock.Lock) {
	if err := lk.Release(ctx); err != nil {
		zerolog.Ctx(ctx).Debug().Err(err).Str("lock", lk.Path()).Msg("failed to release run lock")
	}
}
