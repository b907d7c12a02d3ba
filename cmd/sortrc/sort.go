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
	"time"

	"github.com/spf13/cobra"
	"github.com/walteh/sortrc/pkg/lock"
	"github.com/walteh/sortrc/pkg/log"
	"github.com/walteh/sortrc/pkg/operation"
	"github.com/walteh/sortrc/pkg/relocate"
	"github.com/walteh/sortrc/pkg/report"
	"gitlab.com/tozd/go/errors"
)

// 🗂️ runSort sorts root and renders the report
func runSort(cmd *cobra.Command, opts *rootOpts, root string) error {
	format, err := report.ParseFormat(opts.output)
	if err != nil {
		return err
	}

	ctx, logger := setupLogging(cmd.Context(), cmd.OutOrStdout(), cmd.ErrOrStderr(), opts.debug)

	cfg, err := loadConfig(ctx, cmd, opts)
	if err != nil {
		return err
	}

	lk, err := lock.Acquire(ctx, root)
	if err != nil {
		return errors.Errorf("locking %s: %w", root, err)
	}
	defer releaseLock(ctx, lk)

	// per-file lines share stdout with the text report only
	var consoleOut io.Writer = cmd.OutOrStdout()
	if format != report.FormatText {
		consoleOut = cmd.ErrOrStderr()
	}
	console := log.NewWithZerolog(consoleOut, logger)
	ctx = log.NewContext(ctx, console)

	op, err := operation.NewSortOperation(operation.Options{
		Root:     root,
		Config:   cfg,
		Logger:   &logger,
		Observer: console,
		DryRun:   opts.dryRun,
	})
	if err != nil {
		return errors.Errorf("creating sort operation: %w", err)
	}

	if opts.dryRun {
		console.Header("planning " + root)
	} else {
		console.Header("sorting " + root)
	}
	console.StartRun(ctx, log.RunOperation{Root: root, Workers: cfg.Workers, DryRun: opts.dryRun})

	result, err := op.Execute(ctx)
	stats := console.EndRun(ctx)
	if err != nil {
		console.Errorf("sort failed: %v", err)
		return err
	}

	badArchives := printOutcome(ctx, result)

	console.LogNewline()
	if err := report.Render(cmd.OutOrStdout(), result.Report, format); err != nil {
		return err
	}

	summary := "sorted %d files (%d renamed, %d skipped, %d failed) in %s"
	if opts.dryRun {
		summary = "would sort %d files (%d renamed, %d skipped, %d failed), planned in %s"
	}
	elapsed := stats.Elapsed.Round(time.Millisecond)
	if result.Failed() {
		console.Warningf(summary, stats.Moved, stats.Renamed, stats.Skipped, len(result.Failures), elapsed)
	} else {
		console.Successf(summary, stats.Moved, stats.Renamed, stats.Skipped, len(result.Failures), elapsed)
	}

	if opts.strict && result.Failed() {
		return errors.Errorf("%d files failed to sort, %d archives failed to expand", len(result.Failures), badArchives)
	}
	return nil
}

// 📋 printOutcome prints what the observer could not: non-relocation failures,
// archive problems and pruning. It returns the number of archives that failed.
func printOutcome(ctx context.Context, result *operation.Result) int {
	console := log.FromContext(ctx)

	for _, f := range result.Failures {
		// relocation failures were already printed by the observer
		var relErr *relocate.Error
		if !errors.As(f.Err, &relErr) {
			console.Errorf("%s: %v", f.Path, f.Err)
		}
	}

	badArchives := 0
	for _, a := range result.Archives {
		if a.Err != nil {
			badArchives++
			console.Warningf("could not expand %s: %v", a.Archive, a.Err)
		}
	}

	if len(result.Pruned) > 0 {
		console.Infof("removed %d empty directories", len(result.Pruned))
	}
	return badArchives
}
