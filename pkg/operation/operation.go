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
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/rs/zerolog"
	"github.com/walteh/sortrc/pkg/archive"
	"github.com/walteh/sortrc/pkg/category"
	"github.com/walteh/sortrc/pkg/config"
	"github.com/walteh/sortrc/pkg/relocate"
	"github.com/walteh/sortrc/pkg/report"
	"github.com/walteh/sortrc/pkg/walk"
	"gitlab.com/tozd/go/errors"
)

// ErrRootInvalid means the root is missing, unreadable, or not a directory
var ErrRootInvalid = errors.Base("root is not a readable directory")

// 🎯 Operation is one pass over a root directory
type Operation interface {
	Execute(ctx context.Context) (*Result, error)
}

// 🔧 Options contains configuration for an operation
type Options struct {
	// Root is the directory to sort
	Root string
	// Config is the validated sortrc configuration; config.Default() when nil
	Config *config.Config
	// Logger is used for debug logging; zerolog.Ctx(ctx) when nil
	Logger *zerolog.Logger
	// Observer is told about every file, optional
	Observer relocate.Observer
	// DryRun plans every move without touching the filesystem
	DryRun bool
}

// 📊 Result collects everything a run did
type Result struct {
	Root     string
	Moves    []relocate.Move
	Skipped  []string
	Ignored  []string
	Failures []walk.Failure
	Pruned   []string
	Archives []archive.Result
	Report   *report.Report
}

// Failed reports whether any file or archive could not be processed
func (r *Result) Failed() bool {
	if len(r.Failures) > 0 {
		return true
	}
	for _, a := range r.Archives {
		if a.Err != nil {
			return true
		}
	}
	return false
}

// 🧱 BaseOperation holds what every operation shares
type BaseOperation struct {
	Root     string
	Config   *config.Config
	Logger   *zerolog.Logger
	Observer relocate.Observer
	DryRun   bool
	Resolver *category.Resolver
}

// 🏭 NewBaseOperation validates opts and fills in defaults
func NewBaseOperation(opts Options) (BaseOperation, error) {
	if opts.Root == "" {
		return BaseOperation{}, errors.Errorf("root is required")
	}

	root, err := filepath.Abs(opts.Root)
	if err != nil {
		return BaseOperation{}, errors.Errorf("resolving root %s: %w", opts.Root, err)
	}

	cfg := opts.Config
	if cfg == nil {
		cfg = config.Default()
	}

	return BaseOperation{
		Root:     root,
		Config:   cfg,
		Logger:   opts.Logger,
		Observer: opts.Observer,
		DryRun:   opts.DryRun,
		Resolver: cfg.Resolver(),
	}, nil
}

// logger returns the configured logger, falling back to the one on ctx
func (op *BaseOperation) logger(ctx context.Context) *zerolog.Logger {
	if op.Logger != nil {
		return op.Logger
	}
	return zerolog.Ctx(ctx)
}

// 📁 checkRoot verifies the root is a directory before anything is dispatched
func (op *BaseOperation) checkRoot() ([]fs.DirEntry, error) {
	info, err := os.Stat(op.Root)
	if err != nil {
		return nil, errors.WithDetails(errors.WrapWith(err, ErrRootInvalid), "root", op.Root)
	}
	if !info.IsDir() {
		return nil, errors.WithDetails(ErrRootInvalid, "root", op.Root)
	}

	entries, err := os.ReadDir(op.Root)
	if err != nil {
		return nil, errors.WithDetails(errors.WrapWith(err, ErrRootInvalid), "root", op.Root)
	}
	return entries, nil
}

// 🗂️ NewSortOperation creates the full sort pass: relocate, prune, expand, report
func NewSortOperation(opts Options) (Operation, error) {
	base, err := NewBaseOperation(opts)
	if err != nil {
		return nil, err
	}
	return &sortOperation{BaseOperation: base}, nil
}

// 🗂️ sortOperation implements the sort pass
type sortOperation struct {
	BaseOperation
}

// collector merges walk results coming from several workers
type collector struct {
	mu     sync.Mutex
	result walk.Result
}

func (c *collector) add(r walk.Result) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.result.Merge(r)
}

// 🏃 Execute runs the sort pass
func (op *sortOperation) Execute(ctx context.Context) (*Result, error) {
	logger := op.logger(ctx)
	ctx = logger.WithContext(ctx)

	entries, err := op.checkRoot()
	if err != nil {
		return nil, err
	}

	relocator := relocate.New(op.Root, relocate.WithDryRun(op.DryRun))
	walker, err := walk.New(walk.Options{
		Resolver:  op.Resolver,
		Relocator: relocator,
		Base:      op.Root,
		Ignore:    op.Config.Ignore,
		Observer:  op.Observer,
	})
	if err != nil {
		return nil, errors.Errorf("creating walker: %w", err)
	}

	logger.Debug().
		Str("root", op.Root).
		Int("entries", len(entries)).
		Int("workers", op.Config.Workers).
		Bool("dry_run", op.DryRun).
		Msg("starting sort")

	var col collector

	// category directories receive files while the run is in progress, so
	// they are listed before anything moves
	listed := map[string][]string{}
	for _, entry := range entries {
		if !entry.IsDir() || !op.Resolver.IsCategory(entry.Name()) {
			continue
		}
		files, ignored, failures := walker.Collect(ctx, filepath.Join(op.Root, entry.Name()))
		col.add(walk.Result{Ignored: ignored, Failures: failures})
		listed[entry.Name()] = files
	}

	runner := NewRunner(ctx, logger, op.Config.Workers)

	for _, entry := range entries {
		path := filepath.Join(op.Root, entry.Name())

		switch {
		case entry.IsDir():
			files, ok := listed[entry.Name()]
			if !runner.Go(entry.Name(), func(ctx context.Context) error {
				if ok {
					col.add(walker.Sort(ctx, files))
				} else {
					col.add(walker.Walk(ctx, path))
				}
				return nil
			}) {
				logger.Debug().Str("dir", entry.Name()).Msg("context done, not dispatching")
			}
		case entry.Type().IsRegular():
			col.add(walker.File(ctx, path))
		default:
			logger.Debug().Str("path", path).Str("type", entry.Type().String()).Msg("skipping non-regular entry")
		}
	}

	if err := runner.Wait(); err != nil {
		return nil, errors.Errorf("sorting %s: %w", op.Root, err)
	}
	if err := ctx.Err(); err != nil {
		return nil, errors.Errorf("sorting %s: %w", op.Root, err)
	}

	result := &Result{
		Root:     op.Root,
		Moves:    col.result.Moves,
		Skipped:  col.result.Skipped,
		Ignored:  col.result.Ignored,
		Failures: col.result.Failures,
	}
	sort.Slice(result.Moves, func(i, j int) bool { return result.Moves[i].Source < result.Moves[j].Source })
	sort.Slice(result.Failures, func(i, j int) bool { return result.Failures[i].Path < result.Failures[j].Path })

	if op.DryRun {
		result.Report = report.FromMoves(result.Moves)
		return result, nil
	}

	if !op.Config.KeepEmptyDirs {
		pruned, err := op.clean().Execute(ctx)
		if err != nil {
			return result, errors.Errorf("pruning %s: %w", op.Root, err)
		}
		result.Pruned = pruned.Pruned
	}

	if !op.Config.SkipExtract {
		result.Archives, err = archive.New(category.Archives.String()).Expand(ctx, op.Root)
		if err != nil {
			return result, errors.Errorf("expanding archives: %w", err)
		}
	}

	result.Report, err = report.Build(ctx, op.Root, op.Resolver)
	if err != nil {
		return result, errors.Errorf("building report: %w", err)
	}

	logger.Debug().
		Int("moved", len(result.Moves)).
		Int("skipped", len(result.Skipped)).
		Int("ignored", len(result.Ignored)).
		Int("failed", len(result.Failures)).
		Int("pruned", len(result.Pruned)).
		Int("archives", len(result.Archives)).
		Msg("sort complete")

	return result, nil
}

func (op *sortOperation) clean() Operation {
	return &cleanOperation{BaseOperation: op.BaseOperation}
}
