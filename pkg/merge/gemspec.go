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

package merge

import (
	"context"
	"regexp"
	"strings"

	"github.com/rs/zerolog"
)

// fields whose hand-set values survive regeneration
var gemspecFields = []string{"version", "homepage"}

var gemspecDependency = regexp.MustCompile(`(?m)^[ \t]*\w+\.add_(?:development_|runtime_)?dependency[ \t(]+["']([^"']+)["'].*$`)

func gemspecField(name string) *regexp.Regexp {
	return regexp.MustCompile(`(?m)^[ \t]*\w+\.` + name + `[ \t]*=.*$`)
}

// 💎 Gemspec merges a regenerated gemspec into the hand-maintained one. The
// generated file wins, except that:
//   - the existing version and homepage lines are kept;
//   - dependency lines for gems the generator no longer emits are appended
//     after the generated dependency block.
func Gemspec(ctx context.Context, path string, existing, generated []byte) ([]byte, error) {
	logger := zerolog.Ctx(ctx)
	old := string(existing)
	out := string(generated)

	for _, name := range gemspecFields {
		re := gemspecField(name)
		keep := re.FindString(old)
		if keep == "" {
			continue
		}
		loc := re.FindStringIndex(out)
		if loc == nil {
			return nil, Conflictf("%s: generated gemspec has no %s line to carry %q into", path, name, strings.TrimSpace(keep))
		}
		out = out[:loc[0]] + keep + out[loc[1]:]
		logger.Debug().Str("path", path).Str("field", name).Msg("kept gemspec field")
	}

	generatedGems := make(map[string]bool)
	for _, m := range gemspecDependency.FindAllStringSubmatch(out, -1) {
		generatedGems[m[1]] = true
	}

	var carried []string
	for _, m := range gemspecDependency.FindAllStringSubmatch(old, -1) {
		if generatedGems[m[1]] {
			continue
		}
		generatedGems[m[1]] = true
		carried = append(carried, m[0])
		logger.Debug().Str("path", path).Str("gem", m[1]).Msg("kept hand-added dependency")
	}
	if len(carried) == 0 {
		return []byte(out), nil
	}

	deps := gemspecDependency.FindAllStringIndex(out, -1)
	if len(deps) == 0 {
		return nil, Conflictf("%s: generated gemspec has no dependencies to place %d hand-added ones after", path, len(carried))
	}
	end := deps[len(deps)-1][1]

	var b strings.Builder
	b.WriteString(out[:end])
	for _, line := range carried {
		b.WriteString("\n")
		b.WriteString(line)
	}
	b.WriteString(out[end:])
	return []byte(b.String()), nil
}
