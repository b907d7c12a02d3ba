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

// Package relocate moves files into category directories under unique names.
//
// A single Relocator is shared by every goroutine sorting the same root.
// Creating a category directory and claiming a name inside it both happen
// under that directory's mutex, so two files can never be given the same
// destination and the check and the rename are never separated by another
// claim.
package relocate

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"syscall"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/walteh/sortrc/pkg/category"
	"github.com/walteh/sortrc/pkg/text"
	"gitlab.com/tozd/go/errors"
)

// DefaultMaxAttempts bounds how many candidate names are tried per file
const DefaultMaxAttempts = 64

// 🚚 Move is the outcome of relocating one file
type Move struct {
	Source      string            // path the file was found at
	Destination string            // path it was (or in a dry run, would be) moved to
	Category    category.Category // category it was sorted into
	Renamed     bool              // a disambiguation token was appended
	DryRun      bool              // nothing was touched on disk
}

// 📣 Event reports a single relocation attempt
type Event struct {
	Move Move
	Err  error
}

// 👀 Observer receives an Event for every file handed to the relocator.
// Implementations must be safe for concurrent use.
type Observer interface {
	Observe(ctx context.Context, ev Event)
}

// Option configures a Relocator
type Option func(*Relocator)

// WithTokenFunc replaces the disambiguation token generator (uuid v4 by default)
func WithTokenFunc(fn func() string) Option {
	return func(r *Relocator) {
		r.token = fn
	}
}

// WithMaxAttempts sets how many candidate names are tried before giving up
func WithMaxAttempts(n int) Option {
	return func(r *Relocator) {
		if n < 1 {
			n = 1
		}
		r.maxAttempts = n
	}
}

// WithDryRun makes the relocator plan moves without touching the filesystem.
// Planned names are reserved in memory so the plan itself is collision-free.
func WithDryRun(dry bool) Option {
	return func(r *Relocator) {
		r.dryRun = dry
	}
}

// 🏗️ Relocator moves files under root/<category>/
type Relocator struct {
	root        string
	token       func() string
	maxAttempts int
	dryRun      bool

	mu   sync.Mutex
	dirs map[category.Category]*categoryDir
}

// categoryDir serializes creation of and name claims inside one category directory
type categoryDir struct {
	path     string
	mu       sync.Mutex
	ready    bool
	err      error
	reserved map[string]struct{}
}

// 🏭 New creates a relocator writing under root
func New(root string, opts ...Option) *Relocator {
	r := &Relocator{
		root:        filepath.Clean(root),
		token:       uuid.NewString,
		maxAttempts: DefaultMaxAttempts,
		dirs:        make(map[category.Category]*categoryDir),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Root returns the destination root
func (r *Relocator) Root() string {
	return r.root
}

// DryRun reports whether the relocator only plans moves
func (r *Relocator) DryRun() bool {
	return r.dryRun
}

// 🎯 Relocate moves src into its category directory and returns where it went.
// The returned Move always carries Source and Category, even on error.
func (r *Relocator) Relocate(ctx context.Context, src string, cat category.Category) (Move, error) {
	logger := zerolog.Ctx(ctx)
	src = filepath.Clean(src)
	move := Move{Source: src, Category: cat, DryRun: r.dryRun}

	dir := r.dir(cat)
	dir.mu.Lock()
	defer dir.mu.Unlock()

	if err := r.ensureDir(dir); err != nil {
		return move, newError(ErrCategoryDirUncreatable, src, err)
	}

	if r.dryRun {
		if _, err := os.Lstat(src); err != nil {
			return move, classifyRename(src, err)
		}
	}

	stem, ext := text.SplitExt(filepath.Base(src))
	dst, renamed, err := r.claim(dir, src, text.Normalize(stem), ext)
	if err != nil {
		return move, err
	}
	move.Destination = dst
	move.Renamed = renamed

	if r.dryRun {
		dir.reserved[filepath.Base(dst)] = struct{}{}
		return move, nil
	}

	if dst != src {
		if err := os.Rename(src, dst); err != nil {
			return move, classifyRename(src, err)
		}
	}

	logger.Debug().
		Str("source", src).
		Str("destination", dst).
		Str("category", cat.String()).
		Bool("renamed", renamed).
		Msg("relocated file")

	return move, nil
}

// dir returns the shared state for a category, creating it on first use
func (r *Relocator) dir(cat category.Category) *categoryDir {
	r.mu.Lock()
	defer r.mu.Unlock()

	d, ok := r.dirs[cat]
	if !ok {
		d = &categoryDir{
			path:     filepath.Join(r.root, cat.String()),
			reserved: make(map[string]struct{}),
		}
		r.dirs[cat] = d
	}
	return d
}

// 📁 ensureDir creates the category directory once. "Already exists" is success;
// any other failure is remembered for the rest of the run. Caller holds dir.mu.
func (r *Relocator) ensureDir(dir *categoryDir) error {
	if dir.ready {
		return nil
	}
	if dir.err != nil {
		return dir.err
	}

	var err error
	if r.dryRun {
		if info, statErr := os.Stat(dir.path); statErr == nil && !info.IsDir() {
			err = errors.Errorf("%s exists and is not a directory", dir.path)
		}
	} else if mkErr := os.Mkdir(dir.path, 0o755); mkErr != nil {
		err = mkErr
		if errors.Is(mkErr, fs.ErrExist) {
			if info, statErr := os.Stat(dir.path); statErr == nil && info.IsDir() {
				err = nil
			} else {
				err = errors.Errorf("%s exists and is not a directory", dir.path)
			}
		}
	}

	if err != nil {
		dir.err = err
		return err
	}
	dir.ready = true
	return nil
}

// 🔑 claim picks the first free name: stem+ext, then stem-<token>+ext until
// one is unused. Caller holds dir.mu, which is what makes the choice stick.
func (r *Relocator) claim(dir *categoryDir, src, stem, ext string) (string, bool, error) {
	candidate := filepath.Join(dir.path, stem+ext)
	for attempt := 0; attempt < r.maxAttempts; attempt++ {
		if attempt > 0 {
			candidate = filepath.Join(dir.path, stem+"-"+r.token()+ext)
		}

		// already sitting at its own destination
		if candidate == src {
			return candidate, attempt > 0, nil
		}

		taken, err := r.taken(dir, candidate)
		if err != nil {
			return "", false, newError(ErrDestinationUnwritable, src, err)
		}
		if !taken {
			return candidate, attempt > 0, nil
		}
	}

	return "", false, newError(ErrNameClaimFailed, src, errors.Errorf("%d candidate names already taken", r.maxAttempts))
}

func (r *Relocator) taken(dir *categoryDir, path string) (bool, error) {
	if r.dryRun {
		if _, ok := dir.reserved[filepath.Base(path)]; ok {
			return true, nil
		}
	}

	_, err := os.Lstat(path)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, fs.ErrNotExist):
		return false, nil
	default:
		return false, errors.Errorf("checking %s: %w", path, err)
	}
}

func classifyRename(src string, err error) error {
	if errors.Is(err, syscall.EXDEV) {
		return newError(ErrCrossDevice, src, err)
	}
	if errors.Is(err, fs.ErrNotExist) {
		if _, statErr := os.Lstat(src); errors.Is(statErr, fs.ErrNotExist) {
			return newError(ErrSourceMissing, src, err)
		}
	}
	return newError(ErrDestinationUnwritable, src, err)
}
