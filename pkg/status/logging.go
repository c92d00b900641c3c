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
	"io"
	"strings"

	"github.com/fatih/color"
)

// 🎨 Display configuration
const (
	fileIndent  = 4  // spaces to indent file entries
	nameWidth   = 60 // Base width for filename
	statusWidth = 10 // Width for status text
)

// 🎯 FormatFileLine formats one tracked file for terminal display
func FormatFileLine(info FileInfo) string {
	var prefix string
	switch info.Status {
	case StatusNew:
		prefix = color.GreenString("✓")
	case StatusModified:
		prefix = color.YellowString("⟳")
	case StatusDeleted:
		prefix = color.RedString("✗")
	default:
		prefix = color.HiBlackString("-")
	}

	namePart := fmt.Sprintf("%-*s", nameWidth, info.Path)
	statusPart := fmt.Sprintf("%-*s", statusWidth, info.Status)

	return strings.TrimRight(fmt.Sprintf("%s%s %s %s",
		strings.Repeat(" ", fileIndent),
		prefix,
		namePart,
		statusPart,
	), " ")
}

// Print writes one line per tracked file to w. Unchanged files are skipped
// unless verbose is set.
func (t *Tracker) Print(w io.Writer, verbose bool) {
	for _, info := range t.List() {
		if info.Status == StatusUnchanged && !verbose {
			continue
		}
		fmt.Fprintln(w, FormatFileLine(info))
	}
}
