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

package operation

import (
	"context"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"
)

// 🧹 NewCleanOperation creates an operation that only prunes empty directories
func NewCleanOperation(opts Options) (Operation, error) {
	base, err := NewBaseOperation(opts)
	if err != nil {
		return nil, err
	}
	return &cleanOperation{BaseOperation: base}, nil
}

// 🧹 cleanOperation implements the prune pass
type cleanOperation struct {
	BaseOperation
}

// 🏃 Execute runs the clean operation
func (op *cleanOperation) Execute(ctx context.Context) (*Result, error) {
	logger := op.logger(ctx)
	ctx = logger.WithContext(ctx)

	if _, err := op.checkRoot(); err != nil {
		return nil, err
	}

	pruned, err := Prune(ctx, op.Root)
	if err != nil {
		return nil, err
	}

	logger.Debug().Str("root", op.Root).Int("pruned", len(pruned)).Msg("pruned empty directories")
	return &Result{Root: op.Root, Pruned: pruned}, nil
}

// 🗑️ Prune removes every empty directory under root, children first, so a
// directory holding only empty directories goes too. root itself is kept.
// Unreadable directories are left alone.
func Prune(ctx context.Context, root string) ([]string, error) {
	if _, err := os.ReadDir(root); err != nil {
		return nil, errors.Errorf("reading %s: %w", root, err)
	}

	var pruned []string
	prune(ctx, root, root, &pruned)
	return pruned, nil
}

// prune returns whether dir is empty once its children have been pruned
func prune(ctx context.Context, root, dir string, pruned *[]string) bool {
	logger := zerolog.Ctx(ctx)

	entries, err := os.ReadDir(dir)
	if err != nil {
		logger.Warn().Str("dir", dir).Err(err).Msg("cannot read directory, leaving it")
		return false
	}

	remaining := len(entries)
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		child := filepath.Join(dir, entry.Name())
		if prune(ctx, root, child, pruned) {
			remaining--
		}
	}

	if dir == root || remaining > 0 {
		return false
	}

	if err := os.Remove(dir); err != nil {
		logger.Warn().Str("dir", dir).Err(err).Msg("cannot remove empty directory")
		return false
	}

	logger.Debug().Str("dir", dir).Msg("removed empty directory")
	*pruned = append(*pruned, dir)
	return true
}
