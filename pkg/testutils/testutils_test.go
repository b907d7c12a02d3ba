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

package testutils

import (
	"archive/zip"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSnapshot(t *testing.T) {
	root := t.TempDir()
	WriteFile(t, filepath.Join(root, "a", "one.txt"), "same")
	WriteFile(t, filepath.Join(root, "b", "two.txt"), "same")
	require.NoError(t, os.Mkdir(filepath.Join(root, "empty"), 0o755))

	snap := Snapshot(t, root)
	assert.Equal(t, DirMarker, snap["."])
	assert.Equal(t, DirMarker, snap["empty"])
	assert.Equal(t, snap["a/one.txt"], snap["b/two.txt"], "equal content hashes equally")
	assert.Len(t, Hashes(snap), 2)
}

func TestHashesIgnorePaths(t *testing.T) {
	root := t.TempDir()
	WriteFile(t, filepath.Join(root, "x.txt"), "x")
	before := Hashes(Snapshot(t, root))

	require.NoError(t, os.Rename(filepath.Join(root, "x.txt"), filepath.Join(root, "y.txt")))
	assert.Equal(t, before, Hashes(Snapshot(t, root)))
}

func TestWriteZip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "a.zip")
	WriteZip(t, path, map[string]string{"dir/": "", "dir/f.txt": "f", "top.txt": "t"})

	r, err := zip.OpenReader(path)
	require.NoError(t, err)
	defer r.Close()

	var names []string
	for _, f := range r.File {
		names = append(names, f.Name)
	}
	assert.Equal(t, []string{"dir/", "dir/f.txt", "top.txt"}, names)
}
