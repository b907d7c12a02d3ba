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

// Package report describes a sorted tree: the files in each category directory
// and every extension found anywhere under the root.
package report

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"sort"

	"github.com/rs/zerolog"
	"github.com/walteh/sortrc/pkg/relocate"
	"github.com/walteh/sortrc/pkg/text"
	"gitlab.com/tozd/go/errors"
)

// 🏷️ CategorySet tells category directories apart from other directories
type CategorySet interface {
	IsCategory(name string) bool
}

// 📊 Report is the read-only summary of a sorted tree
type Report struct {
	// Categories maps a category directory to its immediate file names, sorted
	Categories map[string][]string `json:"categories" yaml:"categories"`
	// Extensions is every distinct non-empty extension in the tree, sorted
	Extensions []string `json:"extensions" yaml:"extensions"`
}

// 📁 CategoryNames returns the category names in sorted order
func (r *Report) CategoryNames() []string {
	names := make([]string, 0, len(r.Categories))
	for name := range r.Categories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// 🔍 Build reads the tree under root. Only immediate subdirectories known to
// cats are listed as categories; extensions are collected from the whole tree.
func Build(ctx context.Context, root string, cats CategorySet) (*Report, error) {
	logger := zerolog.Ctx(ctx)

	entries, err := os.ReadDir(root)
	if err != nil {
		return nil, errors.Errorf("reading %s: %w", root, err)
	}

	r := &Report{Categories: map[string][]string{}, Extensions: []string{}}

	for _, entry := range entries {
		if !entry.IsDir() || !cats.IsCategory(entry.Name()) {
			continue
		}

		dir := filepath.Join(root, entry.Name())
		children, err := os.ReadDir(dir)
		if err != nil {
			logger.Warn().Str("dir", dir).Err(err).Msg("skipping unreadable category directory")
			continue
		}

		names := []string{}
		for _, child := range children {
			if !child.IsDir() {
				names = append(names, child.Name())
			}
		}
		sort.Strings(names)
		r.Categories[entry.Name()] = names
	}

	exts := map[string]struct{}{}
	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			logger.Debug().Str("path", path).Err(err).Msg("skipping unreadable path")
			if d != nil && d.IsDir() && path != root {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			return nil
		}
		if _, ext := text.SplitExt(d.Name()); ext != "" {
			exts[ext] = struct{}{}
		}
		return nil
	})
	if err != nil {
		return nil, errors.Errorf("walking %s: %w", root, err)
	}

	r.Extensions = sortedKeys(exts)
	return r, nil
}

// 📋 FromMoves builds the report a run would produce, from planned moves.
// Used for dry runs, where the tree itself is left untouched.
func FromMoves(moves []relocate.Move) *Report {
	r := &Report{Categories: map[string][]string{}, Extensions: []string{}}
	exts := map[string]struct{}{}

	for _, m := range moves {
		if m.Destination == "" {
			continue
		}
		name := filepath.Base(m.Destination)
		cat := m.Category.String()
		r.Categories[cat] = append(r.Categories[cat], name)
		if _, ext := text.SplitExt(name); ext != "" {
			exts[ext] = struct{}{}
		}
	}

	for _, names := range r.Categories {
		sort.Strings(names)
	}
	r.Extensions = sortedKeys(exts)
	return r
}

func sortedKeys(set map[string]struct{}) []string {
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
