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

package text

import (
	"regexp"
	"sort"
	"sync"
)

// bracePlaceholder finds the last `{name}` that sits outside a backtick code
// span and is not preceded by a backtick, `#`, `$` or a backslash.
// Group 1 is everything before the preceding character, group 3 is that
// character and group 4 is the placeholder name.
var bracePlaceholder = regexp.MustCompile("^([^`]*(`[^`]*`[^`]*)*)([^`#$\\\\])\\{([\\w,]+)\\}")

const escapedBrace = "${1}${3}\\\\{${4}}"

// 🛡️ EscapeBraces escapes documentation placeholders so YARD does not read
// them as links. It rewrites one placeholder per pass until nothing matches.
func EscapeBraces(s string) string {
	for {
		next := bracePlaceholder.ReplaceAllString(s, escapedBrace)
		if next == s {
			return s
		}
		s = next
	}
}

var (
	transformsMu sync.RWMutex
	transforms   = map[string]func(string) string{
		"escape_braces": EscapeBraces,
	}
)

// RegisterTransform makes fn available to manifests under name.
func RegisterTransform(name string, fn func(string) string) {
	transformsMu.Lock()
	defer transformsMu.Unlock()
	transforms[name] = fn
}

// LookupTransform returns the named transform.
func LookupTransform(name string) (Transform, bool) {
	transformsMu.RLock()
	defer transformsMu.RUnlock()
	fn, ok := transforms[name]
	if !ok {
		return Transform{}, false
	}
	return Transform{Name: name, Fn: fn}, true
}

// TransformNames lists registered transforms in sorted order.
func TransformNames() []string {
	transformsMu.RLock()
	defer transformsMu.RUnlock()
	names := make([]string, 0, len(transforms))
	for name := range transforms {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
