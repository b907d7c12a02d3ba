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

package main

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/fatih/color"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/walteh/sortrc/pkg/archive"
	"github.com/walteh/sortrc/pkg/lock"
	"github.com/walteh/sortrc/pkg/log"
	"github.com/walteh/sortrc/pkg/operation"
	"github.com/walteh/sortrc/pkg/relocate"
	"github.com/walteh/sortrc/pkg/report"
	"github.com/walteh/sortrc/pkg/testutils"
	"github.com/walteh/sortrc/pkg/walk"
	"gitlab.com/tozd/go/errors"
	"gopkg.in/yaml.v3"
)

// execute runs the root command and returns stdout
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(io.Discard)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func scenario(t *testing.T) string {
	root := t.TempDir()
	testutils.WriteFile(t, filepath.Join(root, "photo.jpg"), "jpg")
	testutils.WriteFile(t, filepath.Join(root, "фото.png"), "png")
	testutils.WriteZip(t, filepath.Join(root, "archive.zip"), map[string]string{"note.txt": "note"})
	require.NoError(t, os.Mkdir(filepath.Join(root, "empty"), 0o755))
	return root
}

func TestSortJSON(t *testing.T) {
	root := scenario(t)

	out, err := execute(t, root, "--output", "json", "--workers", "2")
	require.NoError(t, err)

	var got report.Report
	require.NoError(t, json.Unmarshal([]byte(out), &got), "stdout should hold only the JSON report: %s", out)
	assert.Equal(t, []string{"foto.png", "photo.jpg"}, got.Categories["Images"])
	assert.Equal(t, []string{"archive.zip"}, got.Categories["Archives"])
	assert.Equal(t, []string{".jpg", ".png", ".txt", ".zip"}, got.Extensions)

	assert.FileExists(t, filepath.Join(root, "Archives", "archive", "note.txt"))
	assert.NoDirExists(t, filepath.Join(root, "empty"))
}

func TestSortText(t *testing.T) {
	root := scenario(t)

	out, err := execute(t, root)
	require.NoError(t, err)
	assert.Contains(t, out, "sortrc • sorting")
	assert.Contains(t, out, "photo.jpg")
	assert.Contains(t, out, "Extensions: .jpg .png .txt .zip")
	assert.Regexp(t, `sorted 3 files \(0 renamed, 0 skipped, 0 failed\) in [0-9.]+[mµn]?s`, out, "summary should carry the run time")
}

func TestSortFlags(t *testing.T) {
	root := scenario(t)

	out, err := execute(t, root, "-o", "yaml", "--skip-extract", "--keep-empty", "--ignore", "*.png")
	require.NoError(t, err)

	var got report.Report
	require.NoError(t, yaml.Unmarshal([]byte(out), &got))
	assert.Equal(t, []string{"photo.jpg"}, got.Categories["Images"])

	assert.FileExists(t, filepath.Join(root, "фото.png"), "ignored file stays")
	assert.DirExists(t, filepath.Join(root, "empty"), "--keep-empty keeps empty directories")
	assert.NoDirExists(t, filepath.Join(root, "Archives", "archive"), "--skip-extract leaves archives packed")
}

func TestSortDryRun(t *testing.T) {
	root := scenario(t)

	out, err := execute(t, root, "--dry-run", "-o", "json")
	require.NoError(t, err)

	var got report.Report
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Equal(t, []string{"foto.png", "photo.jpg"}, got.Categories["Images"])

	assert.FileExists(t, filepath.Join(root, "photo.jpg"))
	assert.NoDirExists(t, filepath.Join(root, "Images"))
	assert.DirExists(t, filepath.Join(root, "empty"))
}

func TestSortConfigFile(t *testing.T) {
	root := t.TempDir()
	testutils.WriteFile(t, filepath.Join(root, "sub", "song.flac"), "flac")

	cfgPath := filepath.Join(t.TempDir(), "sortrc.toml")
	testutils.WriteFile(t, cfgPath, `
[categories]
Lossless = [".flac"]
`)

	out, err := execute(t, root, "-c", cfgPath, "-o", "json")
	require.NoError(t, err)

	var got report.Report
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Equal(t, []string{"song.flac"}, got.Categories["Lossless"])
	assert.FileExists(t, filepath.Join(root, "Lossless", "song.flac"))
}

func TestSortStrict(t *testing.T) {
	root := t.TempDir()
	testutils.WriteFile(t, filepath.Join(root, "broken.zip"), "not a zip")

	_, err := execute(t, root, "-o", "json")
	require.NoError(t, err, "archive failures are reported, not fatal")

	root = t.TempDir()
	testutils.WriteFile(t, filepath.Join(root, "broken.zip"), "not a zip")

	_, err = execute(t, root, "-o", "json", "--strict")
	require.Error(t, err)
	assert.ErrorContains(t, err, "1 archives failed")
}

func TestSortErrors(t *testing.T) {
	root := t.TempDir()
	testutils.WriteFile(t, filepath.Join(root, "file.txt"), "x")

	tests := []struct {
		name        string
		args        []string
		errIs       error
		errContains string
	}{
		{name: "missing_root", args: []string{filepath.Join(t.TempDir(), "nope")}, errIs: operation.ErrRootInvalid},
		{name: "root_is_file", args: []string{filepath.Join(root, "file.txt")}, errIs: operation.ErrRootInvalid},
		{name: "bad_output", args: []string{t.TempDir(), "-o", "xml"}, errContains: "unknown output format"},
		{name: "bad_config", args: []string{t.TempDir(), "-c", "missing.yaml"}, errContains: "loading config"},
		{name: "negative_workers", args: []string{t.TempDir(), "-w=-2"}, errContains: "must not be negative"},
		{name: "bad_ignore", args: []string{t.TempDir(), "--ignore", "[oops"}, errContains: "invalid ignore pattern"},
		{name: "no_args", args: []string{}, errContains: "accepts 1 arg"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := execute(t, tt.args...)
			require.Error(t, err)
			if tt.errIs != nil {
				assert.ErrorIs(t, err, tt.errIs)
				return
			}
			assert.ErrorContains(t, err, tt.errContains)
		})
	}
}

func TestCleanCommand(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "a", "b"), 0o755))
	testutils.WriteFile(t, filepath.Join(root, "keep", "f.txt"), "x")

	out, err := execute(t, "clean", root)
	require.NoError(t, err)
	assert.Contains(t, out, "removed 2 empty directories")
	assert.NoDirExists(t, filepath.Join(root, "a"))
	assert.FileExists(t, filepath.Join(root, "keep", "f.txt"))
}

func TestVersionCommand(t *testing.T) {
	out, err := execute(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "sortrc version info")

	out, err = execute(t, "version", "--json")
	require.NoError(t, err)
	var info VersionInfo
	require.NoError(t, json.Unmarshal([]byte(out), &info))
	assert.NotEmpty(t, info.GoVersion)
}

func TestSortLocked(t *testing.T) {
	root := scenario(t)
	ctx := context.Background()

	held, err := lock.Acquire(ctx, root)
	require.NoError(t, err)
	defer held.Release(ctx)

	_, err = execute(t, root)
	require.Error(t, err)
	assert.ErrorIs(t, err, lock.ErrLocked)
	assert.FileExists(t, filepath.Join(root, "photo.jpg"), "nothing moves while another run holds the lock")
}

func TestSortReleasesLock(t *testing.T) {
	root := scenario(t)
	ctx := context.Background()

	_, err := execute(t, root)
	require.NoError(t, err)

	again, err := lock.Acquire(ctx, root)
	require.NoError(t, err, "a finished run must release its lock")
	require.NoError(t, again.Release(ctx))
}

func TestPrintOutcome(t *testing.T) {
	color.NoColor = true
	defer func() { color.NoColor = false }()

	var buf bytes.Buffer
	ctx := log.NewContext(context.Background(), log.NewWithZerolog(&buf, zerolog.Nop()))

	result := &operation.Result{
		Failures: []walk.Failure{
			{Path: "/r/sub", Err: errors.New("permission denied")},
			{Path: "/r/a.jpg", Err: &relocate.Error{Kind: relocate.ErrDestinationUnwritable, Path: "/r/a.jpg"}},
		},
		Archives: []archive.Result{
			{Archive: "/r/Archives/ok.zip"},
			{Archive: "/r/Archives/bad.zip", Err: archive.ErrArchiveCorrupt},
		},
		Pruned: []string{"/r/sub"},
	}

	assert.Equal(t, 1, printOutcome(ctx, result))

	out := buf.String()
	assert.Contains(t, out, "/r/sub: permission denied")
	assert.NotContains(t, out, "/r/a.jpg", "relocation failures are printed by the observer")
	assert.Contains(t, out, "could not expand /r/Archives/bad.zip")
	assert.NotContains(t, out, "ok.zip")
	assert.Contains(t, out, "removed 1 empty directories")
}
