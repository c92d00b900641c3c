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
	"fmt"
)

// NotFoundError is returned by a copy whose source path does not exist or
// whose glob matched nothing.
type NotFoundError struct {
	Source string
	Path   string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s: %s not found", e.Source, e.Path)
}

// MergeConflictError is returned when a merge function cannot reconcile an
// existing destination with the generated file.
type MergeConflictError struct {
	Path   string
	Reason string
}

func (e *MergeConflictError) Error() string {
	return fmt.Sprintf("merging %s: %s", e.Path, e.Reason)
}

// PatternError is returned for a malformed match pattern or file glob.
type PatternError struct {
	Pattern string
	Err     error
}

func (e *PatternError) Error() string {
	return fmt.Sprintf("bad pattern %q: %v", e.Pattern, e.Err)
}

func (e *PatternError) Unwrap() error {
	return e.Err
}
