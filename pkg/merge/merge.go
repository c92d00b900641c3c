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

// Package merge reconciles hand-edited destination files with freshly
// generated content during a copy.
package merge

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"gitlab.com/tozd/go/errors"
)

// 🔀 Func combines the existing destination content with the generated
// content for path and returns what should be written.
type Func func(ctx context.Context, path string, existing, generated []byte) ([]byte, error)

// ConflictError is returned by a Func that cannot reconcile the two inputs.
type ConflictError struct {
	Reason string
}

func (e *ConflictError) Error() string {
	return "merge conflict: " + e.Reason
}

// Conflictf builds a ConflictError.
func Conflictf(format string, args ...any) error {
	return errors.WithStack(&ConflictError{Reason: fmt.Sprintf(format, args...)})
}

var (
	mu    sync.RWMutex
	funcs = map[string]Func{
		"gemspec": Gemspec,
		"keep":    Keep,
	}
)

// 📝 Register registers a merge function
func Register(name string, fn Func) {
	mu.Lock()
	defer mu.Unlock()
	funcs[name] = fn
}

// 🎯 Get returns the merge function registered under name
func Get(name string) (Func, bool) {
	mu.RLock()
	defer mu.RUnlock()
	fn, ok := funcs[name]
	return fn, ok
}

// Names lists registered merge functions in sorted order.
func Names() []string {
	mu.RLock()
	defer mu.RUnlock()
	names := make([]string, 0, len(funcs))
	for name := range funcs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Keep leaves an existing destination untouched.
func Keep(ctx context.Context, path string, existing, generated []byte) ([]byte, error) {
	return existing, nil
}
