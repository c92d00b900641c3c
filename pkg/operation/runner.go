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
	"time"

	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"

	"github.com/walteh/synthrc/pkg/tree"
)

// 🏃 Runner executes operations in order against one tree
type Runner struct {
	ops []Operation

	// OnStep, when set, is called before each operation runs.
	OnStep func(ctx context.Context, index, total int, op Operation)
}

// 🏗️ NewRunner creates a new runner
func NewRunner(ops []Operation) *Runner {
	return &Runner{ops: ops}
}

// Operations returns the operations in execution order.
func (r *Runner) Operations() []Operation {
	return r.ops
}

// 🏃 Run executes every operation top to bottom and stops at the first
// error. Writes made before the failure stay in t; callers that need an
// all-or-nothing run pass a tree.Overlay.
func (r *Runner) Run(ctx context.Context, t tree.Tree) error {
	logger := zerolog.Ctx(ctx)
	total := len(r.ops)

	for i, op := range r.ops {
		if err := ctx.Err(); err != nil {
			return errors.Errorf("run cancelled before step %d: %w", i+1, err)
		}
		if r.OnStep != nil {
			r.OnStep(ctx, i, total, op)
		}

		start := time.Now()
		if err := op.Execute(ctx, t); err != nil {
			return errors.Errorf("step %d/%d (%s): %w", i+1, total, op.Describe(), err)
		}
		logger.Debug().
			Int("step", i+1).
			Str("op", op.Describe()).
			Dur("took", time.Since(start)).
			Msg("step complete")
	}
	return nil
}
