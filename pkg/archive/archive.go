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

// Package archive unpacks the zip files a sort run collected under Archives/.
package archive

import (
	"archive/zip"
	"context"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/rs/zerolog"
	"github.com/walteh/sortrc/pkg/category"
	"github.com/walteh/sortrc/pkg/text"
	"gitlab.com/tozd/go/errors"
)

// ErrArchiveCorrupt means an archive could not be opened or fully extracted
var ErrArchiveCorrupt = errors.Base("archive is corrupt or unreadable")

// ErrExtractUnwritable means the extraction directory or an extracted file could not be written
var ErrExtractUnwritable = errors.Base("extraction target is not writable")

// ErrUnsafeEntry means an archive entry would land outside its extraction directory
var ErrUnsafeEntry = errors.Base("archive entry escapes extraction directory")

// 📦 Result describes one expanded archive
type Result struct {
	Archive string   // path of the archive file
	Dir     string   // extraction directory
	Files   []string // extracted files, relative to Dir, slash separated
	Err     error    // wraps ErrArchiveCorrupt or ErrExtractUnwritable on failure
}

// 🗜️ Expander extracts archives in place
type Expander struct {
	dirName string
}

// 🏭 New creates an expander for the given category directory name
func New(dirName string) *Expander {
	if dirName == "" {
		dirName = category.Archives.String()
	}
	return &Expander{dirName: dirName}
}

// 🎯 Expand extracts every regular file under root/<Archives> into a sibling
// directory named after its stem. A missing Archives directory is not an error.
// One bad archive never stops the others.
func (e *Expander) Expand(ctx context.Context, root string) ([]Result, error) {
	logger := zerolog.Ctx(ctx)
	dir := filepath.Join(root, e.dirName)

	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			logger.Debug().Str("dir", dir).Msg("no archives to expand")
			return nil, nil
		}
		return nil, errors.Errorf("listing %s: %w", dir, err)
	}

	var results []Result
	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return results, errors.WithStack(err)
		}
		if !entry.Type().IsRegular() {
			continue
		}

		stem, _ := text.SplitExt(entry.Name())
		res := Result{
			Archive: filepath.Join(dir, entry.Name()),
			Dir:     filepath.Join(dir, stem),
		}
		res.Files, res.Err = extract(res.Archive, res.Dir)

		if res.Err != nil {
			logger.Warn().Str("archive", res.Archive).Err(res.Err).Msg("failed to expand archive")
		} else {
			logger.Debug().Str("archive", res.Archive).Str("dir", res.Dir).Int("files", len(res.Files)).Msg("expanded archive")
		}
		results = append(results, res)
	}

	return results, nil
}

// extract unpacks a zip into dir. The archive is opened before dir is created,
// so an unreadable archive leaves nothing behind.
func extract(archive, dir string) ([]string, error) {
	reader, err := zip.OpenReader(archive)
	if err != nil {
		return nil, errors.WrapWith(err, ErrArchiveCorrupt)
	}
	defer reader.Close()

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, errors.WithDetails(errors.WrapWith(err, ErrExtractUnwritable), "path", dir)
	}

	var files []string
	for _, file := range reader.File {
		target, err := entryPath(dir, file.Name)
		if err != nil {
			return files, errors.WrapWith(err, ErrArchiveCorrupt)
		}

		if file.FileInfo().IsDir() {
			if err := os.MkdirAll(target, 0o755); err != nil {
				return files, errors.WithDetails(errors.WrapWith(err, ErrExtractUnwritable), "path", target)
			}
			continue
		}

		if err := writeEntry(file, target); err != nil {
			return files, err
		}
		rel, _ := filepath.Rel(dir, target)
		files = append(files, filepath.ToSlash(rel))
	}

	sort.Strings(files)
	return files, nil
}

// entryPath resolves an entry name inside dir, rejecting absolute names and ".." escapes
func entryPath(dir, name string) (string, error) {
	clean := filepath.FromSlash(strings.ReplaceAll(name, `\`, "/"))
	if filepath.IsAbs(clean) || filepath.VolumeName(clean) != "" {
		return "", errors.WithDetails(ErrUnsafeEntry, "entry", name)
	}

	target := filepath.Join(dir, clean)
	rel, err := filepath.Rel(dir, target)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", errors.WithDetails(ErrUnsafeEntry, "entry", name)
	}
	return target, nil
}

func writeEntry(file *zip.File, target string) error {
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return errors.WithDetails(errors.WrapWith(err, ErrExtractUnwritable), "path", filepath.Dir(target))
	}

	rc, err := file.Open()
	if err != nil {
		return errors.WrapWith(err, ErrArchiveCorrupt)
	}
	defer rc.Close()

	out, err := os.OpenFile(target, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return errors.WithDetails(errors.WrapWith(err, ErrExtractUnwritable), "path", target)
	}

	if _, err := io.Copy(out, rc); err != nil {
		out.Close()
		os.Remove(target)
		return errors.WrapWith(err, ErrArchiveCorrupt)
	}

	if err := out.Close(); err != nil {
		return errors.WithDetails(errors.WrapWith(err, ErrExtractUnwritable), "path", target)
	}
	return nil
}
