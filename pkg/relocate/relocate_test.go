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

package relocate

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/walteh/sortrc/pkg/category"
	"gitlab.com/tozd/go/errors"
)

var uuidName = regexp.MustCompile(`^a_-[0-9a-f]{8}-[0-9a-f]{4}-4[0-9a-f]{3}-[89ab][0-9a-f]{3}-[0-9a-f]{12}\.txt$`)

// 🧪 testContext returns a context carrying a test logger
func testContext(t *testing.T) context.Context {
	logger := zerolog.New(zerolog.NewTestWriter(t))
	return logger.WithContext(context.Background())
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755), "creating parent dir")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644), "writing %s", path)
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err, "reading %s", path)
	return string(data)
}

func TestRelocate(t *testing.T) {
	ctx := testContext(t)
	root := t.TempDir()
	src := filepath.Join(root, "holiday", "фото.png")
	writeFile(t, src, "png bytes")

	r := New(root)
	move, err := r.Relocate(ctx, src, category.Images)
	require.NoError(t, err)

	want := filepath.Join(root, "Images", "foto.png")
	assert.Equal(t, want, move.Destination, "destination should use the normalized stem")
	assert.Equal(t, src, move.Source)
	assert.Equal(t, category.Images, move.Category)
	assert.False(t, move.Renamed)
	assert.Equal(t, "png bytes", readFile(t, want), "content should be preserved")
	assert.NoFileExists(t, src)
}

func TestRelocateCollisionAppendsToken(t *testing.T) {
	ctx := testContext(t)
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "Documents", "a_.txt"), "first")
	src := filepath.Join(root, "x", "a!.txt")
	writeFile(t, src, "second")

	move, err := New(root).Relocate(ctx, src, category.Documents)
	require.NoError(t, err)

	assert.True(t, move.Renamed, "move should be marked as renamed")
	assert.Regexp(t, uuidName, filepath.Base(move.Destination))
	assert.Equal(t, "first", readFile(t, filepath.Join(root, "Documents", "a_.txt")), "existing file must not be overwritten")
	assert.Equal(t, "second", readFile(t, move.Destination))
}

func TestRelocateConcurrentCollisions(t *testing.T) {
	const n = 50

	ctx := testContext(t)
	root := t.TempDir()

	sources := make([]string, n)
	for i := range sources {
		name := "a?.txt"
		if i%2 == 1 {
			name = "a!.txt"
		}
		sources[i] = filepath.Join(root, fmt.Sprintf("dir%02d", i), name)
		writeFile(t, sources[i], fmt.Sprintf("content-%02d", i))
	}

	r := New(root)
	start := make(chan struct{})
	errs := make([]error, n)
	var wg sync.WaitGroup
	for i, src := range sources {
		wg.Add(1)
		go func(i int, src string) {
			defer wg.Done()
			<-start
			_, errs[i] = r.Relocate(ctx, src, category.Documents)
		}(i, src)
	}
	close(start)
	wg.Wait()

	for i, err := range errs {
		require.NoError(t, err, "relocation %d should succeed", i)
	}

	entries, err := os.ReadDir(filepath.Join(root, "Documents"))
	require.NoError(t, err)
	require.Len(t, entries, n, "every file should land under its own name")

	contents := map[string]bool{}
	for _, e := range entries {
		contents[readFile(t, filepath.Join(root, "Documents", e.Name()))] = true
	}
	for i := 0; i < n; i++ {
		assert.True(t, contents[fmt.Sprintf("content-%02d", i)], "content-%02d should survive", i)
	}
}

func TestRelocateErrors(t *testing.T) {
	tests := []struct {
		name    string
		setup   func(t *testing.T, root string) (src string, opts []Option)
		cat     category.Category
		wantErr error
	}{
		{
			name: "source_missing",
			setup: func(t *testing.T, root string) (string, []Option) {
				return filepath.Join(root, "gone.txt"), nil
			},
			cat:     category.Documents,
			wantErr: ErrSourceMissing,
		},
		{
			name: "category_path_is_a_file",
			setup: func(t *testing.T, root string) (string, []Option) {
				writeFile(t, filepath.Join(root, "Images"), "not a dir")
				src := filepath.Join(root, "sub", "p.jpg")
				writeFile(t, src, "jpg")
				return src, nil
			},
			cat:     category.Images,
			wantErr: ErrCategoryDirUncreatable,
		},
		{
			name: "name_claim_exhausted",
			setup: func(t *testing.T, root string) (string, []Option) {
				writeFile(t, filepath.Join(root, "Documents", "a.txt"), "1")
				writeFile(t, filepath.Join(root, "Documents", "a-x.txt"), "2")
				src := filepath.Join(root, "sub", "a.txt")
				writeFile(t, src, "3")
				return src, []Option{WithTokenFunc(func() string { return "x" }), WithMaxAttempts(3)}
			},
			cat:     category.Documents,
			wantErr: ErrNameClaimFailed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := testContext(t)
			root := t.TempDir()
			src, opts := tt.setup(t, root)

			move, err := New(root, opts...).Relocate(ctx, src, tt.cat)
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.Equal(t, src, move.Source, "failed move should still carry its source")

			var relErr *Error
			require.True(t, errors.As(err, &relErr), "error should be a *relocate.Error")
			assert.Equal(t, src, relErr.Path)
		})
	}
}

func TestSourceMissingIsBenign(t *testing.T) {
	ctx := testContext(t)
	root := t.TempDir()

	_, err := New(root).Relocate(ctx, filepath.Join(root, "nope.mp3"), category.Music)
	require.Error(t, err)
	assert.True(t, IsBenign(err))
	assert.False(t, IsBenign(newError(ErrDestinationUnwritable, "x", nil)))
}

func TestCategoryDirFailureIsSticky(t *testing.T) {
	ctx := testContext(t)
	root := t.TempDir()
	blocker := filepath.Join(root, "Images")
	writeFile(t, blocker, "not a dir")
	first := filepath.Join(root, "a", "one.jpg")
	second := filepath.Join(root, "b", "two.jpg")
	writeFile(t, first, "1")
	writeFile(t, second, "2")

	r := New(root)
	_, err := r.Relocate(ctx, first, category.Images)
	require.ErrorIs(t, err, ErrCategoryDirUncreatable)

	// the failure is remembered for the run even if the obstacle goes away
	require.NoError(t, os.Remove(blocker))
	_, err = r.Relocate(ctx, second, category.Images)
	require.ErrorIs(t, err, ErrCategoryDirUncreatable)
	assert.FileExists(t, second, "file should stay where it was")

	// other categories are unaffected
	doc := filepath.Join(root, "c", "three.txt")
	writeFile(t, doc, "3")
	_, err = r.Relocate(ctx, doc, category.Documents)
	require.NoError(t, err)
}

func TestRelocateExistingCategoryDir(t *testing.T) {
	ctx := testContext(t)
	root := t.TempDir()
	require.NoError(t, os.Mkdir(filepath.Join(root, "Music"), 0o755))
	src := filepath.Join(root, "song.mp3")
	writeFile(t, src, "mp3")

	move, err := New(root).Relocate(ctx, src, category.Music)
	require.NoError(t, err, "an existing category directory is not an error")
	assert.Equal(t, filepath.Join(root, "Music", "song.mp3"), move.Destination)
}

func TestRelocateAlreadyInPlace(t *testing.T) {
	ctx := testContext(t)
	root := t.TempDir()
	src := filepath.Join(root, "Documents", "a.txt")
	writeFile(t, src, "a")

	move, err := New(root).Relocate(ctx, src, category.Documents)
	require.NoError(t, err)
	assert.Equal(t, src, move.Destination)
	assert.False(t, move.Renamed)
	assert.Equal(t, "a", readFile(t, src))
}

func TestRelocateDryRun(t *testing.T) {
	ctx := testContext(t)
	root := t.TempDir()
	first := filepath.Join(root, "x", "a?.txt")
	second := filepath.Join(root, "y", "a!.txt")
	writeFile(t, first, "1")
	writeFile(t, second, "2")

	r := New(root, WithDryRun(true))
	m1, err := r.Relocate(ctx, first, category.Documents)
	require.NoError(t, err)
	m2, err := r.Relocate(ctx, second, category.Documents)
	require.NoError(t, err)

	assert.True(t, m1.DryRun)
	assert.Equal(t, filepath.Join(root, "Documents", "a_.txt"), m1.Destination)
	assert.NotEqual(t, m1.Destination, m2.Destination, "planned names must not collide")
	assert.True(t, m2.Renamed)

	assert.FileExists(t, first, "dry run must not move files")
	assert.FileExists(t, second, "dry run must not move files")
	assert.NoDirExists(t, filepath.Join(root, "Documents"), "dry run must not create directories")

	_, err = r.Relocate(ctx, filepath.Join(root, "missing.txt"), category.Documents)
	assert.ErrorIs(t, err, ErrSourceMissing)
}
