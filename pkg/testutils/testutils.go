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

// Package testutils holds helpers for building and inspecting directory trees in tests.
package testutils

import (
	"archive/zip"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

// DirMarker is the Snapshot value recorded for directories
const DirMarker = "dir"

// Context returns a context carrying a logger that writes to t
func Context(t testing.TB) context.Context {
	logger := zerolog.New(zerolog.NewTestWriter(t)).With().Timestamp().Logger()
	return logger.WithContext(context.Background())
}

// WriteFile creates path, and any missing parents, holding content
func WriteFile(t testing.TB, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755), "creating parent of %s", path)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644), "writing %s", path)
}

// WriteZip creates a zip archive at path; entry names ending in "/" become directories
func WriteZip(t testing.TB, path string, entries map[string]string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755), "creating parent of %s", path)

	f, err := os.Create(path)
	require.NoError(t, err, "creating %s", path)

	w := zip.NewWriter(f)
	names := make([]string, 0, len(entries))
	for name := range entries {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		ew, err := w.Create(name)
		require.NoError(t, err, "adding %s", name)
		if content := entries[name]; content != "" {
			_, err = ew.Write([]byte(content))
			require.NoError(t, err, "writing %s", name)
		}
	}
	require.NoError(t, w.Close(), "closing zip writer")
	require.NoError(t, f.Close(), "closing %s", path)
}

// Snapshot maps every path under root, relative and slash separated, to the
// sha256 of its content, or DirMarker for directories
func Snapshot(t testing.TB, root string) map[string]string {
	t.Helper()
	out := map[string]string{}
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		if d.IsDir() {
			out[filepath.ToSlash(rel)] = DirMarker
			return nil
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		sum := sha256.Sum256(data)
		out[filepath.ToSlash(rel)] = hex.EncodeToString(sum[:])
		return nil
	})
	require.NoError(t, err, "snapshotting %s", root)
	return out
}

// Hashes returns the sorted file hashes of a snapshot, ignoring paths
func Hashes(snap map[string]string) []string {
	var out []string
	for _, h := range snap {
		if h != DirMarker {
			out = append(out, h)
		}
	}
	sort.Strings(out)
	return out
}
