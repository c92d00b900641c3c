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

	"github.com/walteh/synthrc/pkg/tree"
)

// 🔧 Operation is one manifest step applied to a working tree
type Operation interface {
	// Execute applies the step. Later operations see its writes.
	Execute(ctx context.Context, t tree.Tree) error
	// Describe returns a one line label for logs
	Describe() string
}
