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
	"github.com/spf13/cobra"
	"github.com/walteh/sortrc/pkg/lock"
	"github.com/walteh/sortrc/pkg/log"
	"github.com/walteh/sortrc/pkg/operation"
	"gitlab.com/tozd/go/errors"
)

// newCleanCmd creates the clean command
func newCleanCmd(opts *rootOpts) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "clean ROOT",
		Short: "Remove empty directories under ROOT",
		Long: `Clean removes every empty directory beneath ROOT, deepest first, so a
directory holding nothing but empty directories goes too. ROOT itself is
always kept.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			root := args[0]
			ctx, logger := setupLogging(cmd.Context(), cmd.OutOrStdout(), cmd.ErrOrStderr(), opts.debug)
			console := log.NewWithZerolog(cmd.OutOrStdout(), logger)

			if opts.dryRun {
				console.Info("clean has nothing to plan in a dry run")
				return nil
			}

			lk, err := lock.Acquire(ctx, root)
			if err != nil {
				return errors.Errorf("locking %s: %w", root, err)
			}
			defer releaseLock(ctx, lk)

			op, err := operation.NewCleanOperation(operation.Options{
				Root:   root,
				Logger: &logger,
			})
			if err != nil {
				return errors.Errorf("creating clean operation: %w", err)
			}

			result, err := op.Execute(ctx)
			if err != nil {
				return errors.Errorf("cleaning %s: %w", root, err)
			}

			for _, dir := range result.Pruned {
				console.Infof("removed %s", dir)
			}
			console.Successf("removed %d empty directories", len(result.Pruned))
			return nil
		},
	}

	return cmd
}
