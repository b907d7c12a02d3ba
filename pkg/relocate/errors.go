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
	"gitlab.com/tozd/go/errors"
)

// Per-file failure kinds. Every error returned by Relocate wraps exactly one of these.
var (
	// ErrSourceMissing means the file vanished before it could be moved. Benign.
	ErrSourceMissing = errors.Base("source file no longer exists")

	// ErrDestinationUnwritable means the rename into the category directory failed.
	ErrDestinationUnwritable = errors.Base("destination is not writable")

	// ErrCategoryDirUncreatable means the category directory could not be created.
	// Once seen, every later file for that category fails with it for the rest of the run.
	ErrCategoryDirUncreatable = errors.Base("category directory cannot be created")

	// ErrNameClaimFailed means no free destination name was found within the attempt budget.
	ErrNameClaimFailed = errors.Base("no free destination name")

	// ErrCrossDevice means source and destination live on different filesystems.
	ErrCrossDevice = errors.Base("cross-device move is not supported")
)

// IsBenign reports whether err only means there was nothing left to move
func IsBenign(err error) bool {
	return errors.Is(err, ErrSourceMissing)
}

// 📦 Error describes one failed relocation
type Error struct {
	Kind error  // one of the Err* sentinels above
	Path string // source path
	Err  error  // underlying cause, may be nil
}

func (e *Error) Error() string {
	if e.Err == nil {
		return e.Kind.Error() + ": " + e.Path
	}
	return e.Kind.Error() + ": " + e.Path + ": " + e.Err.Error()
}

// Unwrap exposes both the kind and the cause to errors.Is and errors.As
func (e *Error) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

func newError(kind error, path string, cause error) error {
	return errors.WithStack(&Error{Kind: kind, Path: path, Err: cause})
}
