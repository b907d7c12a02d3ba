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

// Package walk enumerates a subtree and hands every file to a relocator.
package walk

import (
	"context"
	"io/fs"
	"path/filepath"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/rs/zerolog"
	"github.com/walteh/sortrc/pkg/category"
	"github.com/walteh/sortrc/pkg/relocate"
	"github.com/walteh/sortrc/pkg/text"
	"gitlab.com/tozd/go/errors"
)

// 🚚 Relocator moves one file into a category
type Relocator interface {
	Relocate(ctx context.Context, src string, cat category.Category) (relocate.Move, error)
}

// 🔧 Options configures a Walker
type Options struct {
	// Resolver maps extensions to categories
	Resolver *category.Resolver
	// Relocator performs the moves; shared by every walker of a run
	Relocator Relocator
	// Base is the directory ignore patterns are matched relative to
	Base string
	// Ignore holds doublestar patterns; matching files stay where they are
	Ignore []string
	// Observer is told about every file, optional
	Observer relocate.Observer
}

// ❌ Failure is a file or directory that could not be processed
type Failure struct {
	Path string
	Err  error
}

// 📊 Result collects what a walk did
type Result struct {
	Moves    []relocate.Move
	Skipped  []string // vanished before they could be moved
	Ignored  []string
	Failures []Failure
}

// Merge appends other into r
func (r *Result) Merge(other Result) {
	r.Moves = append(r.Moves, other.Moves...)
	r.Skipped = append(r.Skipped, other.Skipped...)
	r.Ignored = append(r.Ignored, other.Ignored...)
	r.Failures = append(r.Failures, other.Failures...)
}

// 🚶 Walker sorts the files of a subtree
type Walker struct {
	resolver  *category.Resolver
	relocator Relocator
	base      string
	ignore    []string
	observer  relocate.Observer
}

// 🏭 New creates a walker
func New(opts Options) (*Walker, error) {
	if opts.Resolver == nil {
		return nil, errors.Errorf("resolver is required")
	}
	if opts.Relocator == nil {
		return nil, errors.Errorf("relocator is required")
	}
	for _, p := range opts.Ignore {
		if !doublestar.ValidatePattern(p) {
			return nil, errors.Errorf("invalid ignore pattern %q", p)
		}
	}
	return &Walker{
		resolver:  opts.Resolver,
		relocator: opts.Relocator,
		base:      filepath.Clean(opts.Base),
		ignore:    opts.Ignore,
		observer:  opts.Observer,
	}, nil
}

// 🔍 Collect lists every regular file under dir before anything is moved,
// so the walk never sees its own output. Ignored paths are returned apart.
func (w *Walker) Collect(ctx context.Context, dir string) (files, ignored []string, failures []Failure) {
	logger := zerolog.Ctx(ctx)

	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			failures = append(failures, Failure{Path: path, Err: errors.Errorf("reading %s: %w", path, err)})
			if d != nil && d.IsDir() && path != dir {
				return filepath.SkipDir
			}
			return nil
		}

		if w.shouldIgnore(ctx, path) {
			ignored = append(ignored, path)
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		if d.IsDir() {
			return nil
		}
		if !d.Type().IsRegular() {
			logger.Debug().Str("path", path).Str("type", d.Type().String()).Msg("skipping non-regular file")
			return nil
		}

		files = append(files, path)
		return nil
	})
	if err != nil {
		failures = append(failures, Failure{Path: dir, Err: errors.Errorf("walking %s: %w", dir, err)})
	}

	return files, ignored, failures
}

// 🏃 Walk collects the files under dir and relocates each of them.
// Failures are recorded per file; a walk never stops early.
func (w *Walker) Walk(ctx context.Context, dir string) Result {
	logger := zerolog.Ctx(ctx)

	files, ignored, failures := w.Collect(ctx, dir)
	result := Result{Ignored: ignored, Failures: failures}

	logger.Debug().Str("dir", dir).Int("files", len(files)).Int("ignored", len(ignored)).Msg("walking subtree")

	result.Merge(w.Sort(ctx, files))
	return result
}

// 📦 Sort relocates files listed earlier by Collect
func (w *Walker) Sort(ctx context.Context, files []string) Result {
	var result Result
	for _, path := range files {
		w.apply(ctx, &result, path)
	}
	return result
}

// 📄 File relocates a single file, honoring ignore patterns
func (w *Walker) File(ctx context.Context, path string) Result {
	var result Result
	if w.shouldIgnore(ctx, path) {
		result.Ignored = append(result.Ignored, path)
		return result
	}
	w.apply(ctx, &result, path)
	return result
}

func (w *Walker) apply(ctx context.Context, result *Result, path string) {
	_, ext := text.SplitExt(filepath.Base(path))
	cat := w.resolver.Resolve(ext)

	move, err := w.relocator.Relocate(ctx, path, cat)
	if w.observer != nil {
		w.observer.Observe(ctx, relocate.Event{Move: move, Err: err})
	}

	switch {
	case err == nil:
		result.Moves = append(result.Moves, move)
	case relocate.IsBenign(err):
		zerolog.Ctx(ctx).Debug().Str("path", path).Msg("file vanished before it was moved")
		result.Skipped = append(result.Skipped, path)
	default:
		result.Failures = append(result.Failures, Failure{Path: path, Err: err})
	}
}

// 🔍 shouldIgnore checks path against the ignore patterns
func (w *Walker) shouldIgnore(ctx context.Context, path string) bool {
	if len(w.ignore) == 0 {
		return false
	}

	rel, err := filepath.Rel(w.base, path)
	if err != nil {
		return false
	}
	rel = filepath.ToSlash(rel)

	for _, pattern := range w.ignore {
		matched, err := doublestar.Match(pattern, rel)
		if err != nil {
			zerolog.Ctx(ctx).Debug().Str("pattern", pattern).Str("path", rel).Err(err).Msg("error matching pattern")
			continue
		}
		if matched {
			zerolog.Ctx(ctx).Debug().Str("file", rel).Str("pattern", pattern).Msg("file ignored by pattern")
			return true
		}
	}

	return false
}
