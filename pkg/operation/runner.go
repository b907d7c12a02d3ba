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

package operation

import (
	"context"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// 🏃 OperationRunner runs tasks on a bounded pool
type OperationRunner struct {
	logger *zerolog.Logger
	group  *errgroup.Group
	ctx    context.Context
}

// 🏗️ NewRunner creates a runner allowing at most limit tasks at once (unbounded when limit < 1)
func NewRunner(ctx context.Context, logger *zerolog.Logger, limit int) *OperationRunner {
	group, gctx := errgroup.WithContext(ctx)
	if limit > 0 {
		group.SetLimit(limit)
	}
	return &OperationRunner{
		logger: logger,
		group:  group,
		ctx:    gctx,
	}
}

// ⚡ Go queues fn, blocking while the pool is full. It returns false without
// running fn once the context is done.
func (r *OperationRunner) Go(name string, fn func(ctx context.Context) error) bool {
	if r.ctx.Err() != nil {
		return false
	}

	r.group.Go(func() error {
		r.logger.Debug().Str("task", name).Msg("task started")
		err := fn(r.ctx)
		if err != nil {
			r.logger.Debug().Str("task", name).Err(err).Msg("task failed")
			return err
		}
		r.logger.Debug().Str("task", name).Msg("task finished")
		return nil
	})
	return true
}

// ⏳ Wait blocks until every queued task has finished and returns the first error
func (r *OperationRunner) Wait() error {
	return r.group.Wait()
}
