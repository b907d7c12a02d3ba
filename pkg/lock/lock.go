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

// Package lock keeps two sortrc runs from sorting the same root at once.
package lock

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"
	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"
)

// ErrLocked means another run already holds the lock for this root
var ErrLocked = errors.Base("root is being sorted by another run")

// 🔒 Lock is a held run lock
type Lock struct {
	root  string
	flock *flock.Flock
}

// PathFor returns the lock file used for root inside dir (os.TempDir() when empty)
func PathFor(dir, root string) (string, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return "", errors.Errorf("resolving %s: %w", root, err)
	}
	if dir == "" {
		dir = os.TempDir()
	}
	sum := sha256.Sum256([]byte(filepath.Clean(abs)))
	return filepath.Join(dir, "sortrc-"+hex.EncodeToString(sum[:])[:16]+".lock"), nil
}

// 🎯 Acquire takes the lock for root without blocking
func Acquire(ctx context.Context, root string) (*Lock, error) {
	return AcquireIn(ctx, "", root)
}

// 🎯 AcquireIn is Acquire with the lock file kept in dir
func AcquireIn(ctx context.Context, dir, root string) (*Lock, error) {
	logger := zerolog.Ctx(ctx)

	path, err := PathFor(dir, root)
	if err != nil {
		return nil, err
	}

	fl := flock.New(path)
	ok, err := fl.TryLock()
	if err != nil {
		return nil, errors.Errorf("acquiring lock %s: %w", path, err)
	}
	if !ok {
		return nil, errors.WithDetails(ErrLocked, "root", root, "lock", path)
	}

	logger.Debug().Str("root", root).Str("lock", path).Msg("acquired run lock")
	return &Lock{root: root, flock: fl}, nil
}

// Path returns the lock file path
func (l *Lock) Path() string {
	return l.flock.Path()
}

// 🔓 Release unlocks the lock. The lock file is never removed, so every run
// for a root contends on the same inode.
func (l *Lock) Release(ctx context.Context) error {
	if !l.flock.Locked() {
		return nil
	}
	path := l.flock.Path()
	if err := l.flock.Unlock(); err != nil {
		return errors.Errorf("releasing lock %s: %w", path, err)
	}
	zerolog.Ctx(ctx).Debug().Str("root", l.root).Str("lock", path).Msg("released run lock")
	return nil
}
