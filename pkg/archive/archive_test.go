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

package archive

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/walteh/sortrc/pkg/testutils"
)

func TestExpand(t *testing.T) {
	ctx := testutils.Context(t)
	root := t.TempDir()
	testutils.WriteZip(t, filepath.Join(root, "Archives", "archive.zip"), map[string]string{
		"note.txt":       "hello",
		"nested/":        "",
		"nested/deep.md": "deep",
	})

	results, err := New("").Expand(ctx, root)
	require.NoError(t, err)
	require.Len(t, results, 1)

	res := results[0]
	require.NoError(t, res.Err)
	assert.Equal(t, filepath.Join(root, "Archives", "archive"), res.Dir)
	assert.Equal(t, []string{"nested/deep.md", "note.txt"}, res.Files)

	data, err := os.ReadFile(filepath.Join(root, "Archives", "archive", "note.txt"))
	require.NoError(t, err)
	assert.Equal(t, "hello", string(data))
	assert.FileExists(t, filepath.Join(root, "Archives", "archive", "nested", "deep.md"))
	assert.FileExists(t, filepath.Join(root, "Archives", "archive.zip"), "the archive itself stays")
}

func TestExpandNoArchivesDir(t *testing.T) {
	results, err := New("").Expand(testutils.Context(t), t.TempDir())
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestExpandCorruptArchiveIsIsolated(t *testing.T) {
	ctx := testutils.Context(t)
	root := t.TempDir()
	archives := filepath.Join(root, "Archives")
	require.NoError(t, os.MkdirAll(archives, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(archives, "broken.zip"), []byte("not a zip"), 0o644))
	testutils.WriteZip(t, filepath.Join(archives, "good.zip"), map[string]string{"a.txt": "a"})

	results, err := New("").Expand(ctx, root)
	require.NoError(t, err)
	require.Len(t, results, 2)

	byName := map[string]Result{}
	for _, r := range results {
		byName[filepath.Base(r.Archive)] = r
	}

	assert.ErrorIs(t, byName["broken.zip"].Err, ErrArchiveCorrupt)
	assert.NoDirExists(t, filepath.Join(archives, "broken"), "nothing is created for an unreadable archive")

	assert.NoError(t, byName["good.zip"].Err)
	assert.FileExists(t, filepath.Join(archives, "good", "a.txt"))
}

func TestExpandUnwritableTargetIsNotCorrupt(t *testing.T) {
	ctx := testutils.Context(t)
	root := t.TempDir()
	testutils.WriteZip(t, filepath.Join(root, "Archives", "bundle.zip"), map[string]string{"a.txt": "a"})
	// a file already sits where the extraction directory should go
	testutils.WriteFile(t, filepath.Join(root, "Archives", "bundle"), "blocker")

	results, err := New("").Expand(ctx, root)
	require.NoError(t, err)
	require.Len(t, results, 2)

	byName := map[string]Result{}
	for _, r := range results {
		byName[filepath.Base(r.Archive)] = r
	}

	zipped := byName["bundle.zip"]
	require.Error(t, zipped.Err)
	assert.ErrorIs(t, zipped.Err, ErrExtractUnwritable)
	assert.NotErrorIs(t, zipped.Err, ErrArchiveCorrupt, "the archive itself is fine")

	assert.ErrorIs(t, byName["bundle"].Err, ErrArchiveCorrupt, "the blocker is not a zip")
}

func TestExpandRejectsEscapingEntries(t *testing.T) {
	ctx := testutils.Context(t)
	root := t.TempDir()
	testutils.WriteZip(t, filepath.Join(root, "Archives", "evil.zip"), map[string]string{
		"../../escaped.txt": "gotcha",
	})

	results, err := New("").Expand(ctx, root)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.ErrorIs(t, results[0].Err, ErrArchiveCorrupt)
	assert.NoFileExists(t, filepath.Join(root, "escaped.txt"))
	assert.NoFileExists(t, filepath.Join(filepath.Dir(root), "escaped.txt"))
}

func TestExpandSkipsDirectories(t *testing.T) {
	ctx := testutils.Context(t)
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "Archives", "already"), 0o755))

	results, err := New("").Expand(ctx, root)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestEntryPath(t *testing.T) {
	dir := t.TempDir()

	tests := []struct {
		name    string
		entry   string
		wantErr bool
	}{
		{name: "plain", entry: "a.txt"},
		{name: "nested", entry: "x/y/z.txt"},
		{name: "dot_segments_inside", entry: "x/../a.txt"},
		{name: "parent", entry: "../a.txt", wantErr: true},
		{name: "deep_parent", entry: "x/../../a.txt", wantErr: true},
		{name: "backslash_parent", entry: `..\a.txt`, wantErr: true},
		{name: "absolute", entry: "/etc/passwd", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := entryPath(dir, tt.entry)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrUnsafeEntry)
				return
			}
			require.NoError(t, err)
			rel, err := filepath.Rel(dir, got)
			require.NoError(t, err)
			assert.NotContains(t, rel, "..")
		})
	}
}
