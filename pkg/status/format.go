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

package status

import (
	"fmt"
	"strings"
)

// FileFormatter formats status messages
type FileFormatter interface {
	// FormatFileOperation formats a single file's status
	FormatFileOperation(info FileInfo) string
	// FormatSummary formats counts by status
	FormatSummary(counts map[FileStatus]int) string
	// FormatError formats an error message
	FormatError(err error) string
}

// DefaultFileFormatter provides a default implementation of FileFormatter
type DefaultFileFormatter struct{}

// NewDefaultFileFormatter creates a new DefaultFileFormatter
func NewDefaultFileFormatter() *DefaultFileFormatter {
	return &DefaultFileFormatter{}
}

// FormatFileOperation formats a file operation status message with emojis
func (f *DefaultFileFormatter) FormatFileOperation(info FileInfo) string {
	switch info.Status {
	case StatusNew:
		return fmt.Sprintf("✨ Created %s", info.Path)
	case StatusModified:
		return fmt.Sprintf("📝 Modified %s", info.Path)
	case StatusDeleted:
		return fmt.Sprintf("🗑️  Removed %s", info.Path)
	case StatusUnchanged:
		return fmt.Sprintf("👍 Unchanged %s", info.Path)
	default:
		return fmt.Sprintf("❓ Unknown %s", info.Path)
	}
}

// FormatSummary lists non-zero counts in a fixed order
func (f *DefaultFileFormatter) FormatSummary(counts map[FileStatus]int) string {
	var parts []string
	for _, st := range []FileStatus{StatusNew, StatusModified, StatusUnchanged, StatusDeleted} {
		if n := counts[st]; n > 0 {
			parts = append(parts, fmt.Sprintf("%d %s", n, st))
		}
	}
	if len(parts) == 0 {
		return "✅ No files touched"
	}
	return "✅ " + strings.Join(parts, ", ")
}

// FormatError formats an error message with emoji
func (f *DefaultFileFormatter) FormatError(err error) string {
	if err == nil {
		return ""
	}
	return fmt.Sprintf("❌ Error: %v", err)
}
