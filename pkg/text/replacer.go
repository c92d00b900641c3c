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

	"gitlab.com/tozd/go/errors"
)

// 🔍 Pattern is a compiled match specification
type Pattern struct {
	re      *regexp.Regexp
	source  string
	literal bool
}

// 🏗️ Compile compiles match as a regular expression, or as an exact string
// when literal is set.
func Compile(match string, literal bool) (*Pattern, error) {
	if match == "" {
		return nil, errors.New("empty pattern")
	}
	expr := match
	if literal {
		expr = regexp.QuoteMeta(match)
	}
	re, err := regexp.Compile(expr)
	if err != nil {
		return nil, errors.Errorf("compiling %q: %w", match, err)
	}
	return &Pattern{re: re, source: match, literal: literal}, nil
}

// MustCompile is like Compile but panics on error.
func MustCompile(match string, literal bool) *Pattern {
	p, err := Compile(match, literal)
	if err != nil {
		panic(err)
	}
	return p
}

func (p *Pattern) String() string {
	return p.source
}

// Literal reports whether the pattern matches an exact string.
func (p *Pattern) Literal() bool {
	return p.literal
}

// Count returns the number of non-overlapping matches in content.
func (p *Pattern) Count(content string) int {
	return len(p.re.FindAllStringIndex(content, -1))
}

// 🔄 Replacement is the right-hand side of a substitution. It is one of
// Literal, Template or Transform.
type Replacement interface {
	apply(re *regexp.Regexp, content string) string
	Kind() string
}

// Literal is inserted as-is; `$` carries no meaning.
type Literal string

func (l Literal) apply(re *regexp.Regexp, content string) string {
	return re.ReplaceAllLiteralString(content, string(l))
}

func (Literal) Kind() string { return "literal" }

// Template is expanded per match, `${1}` and `${name}` refer to capture groups.
type Template string

func (t Template) apply(re *regexp.Regexp, content string) string {
	return re.ReplaceAllString(content, string(t))
}

func (Template) Kind() string { return "template" }

// Transform computes the replacement from the matched text. Fn is called once
// per match.
type Transform struct {
	Name string
	Fn   func(match string) string
}

func (t Transform) apply(re *regexp.Regexp, content string) string {
	return re.ReplaceAllStringFunc(content, t.Fn)
}

func (t Transform) Kind() string { return "transform:" + t.Name }

// 📝 ReplacementRule pairs a pattern with its replacement
type ReplacementRule struct {
	Pattern     *Pattern
	Replacement Replacement
}

// 📊 ReplacementResult describes the outcome of applying rules to content
type ReplacementResult struct {
	OriginalContent  []byte
	ModifiedContent  []byte
	ReplacementCount int
	WasModified      bool
}

// Replacer applies ordered replacement rules to text content.
type Replacer struct{}

// 🏭 NewReplacer creates a new Replacer
func NewReplacer() *Replacer {
	return &Replacer{}
}

// ReplaceBytes applies every rule to content in order. Each rule sees the
// output of the previous one.
func (r *Replacer) ReplaceBytes(originalContent []byte, rules []ReplacementRule) (*ReplacementResult, error) {
	result := &ReplacementResult{
		OriginalContent: originalContent,
		ModifiedContent: originalContent,
	}

	currentContent := string(originalContent)
	for i, rule := range rules {
		if rule.Pattern == nil || rule.Replacement == nil {
			return nil, errors.Errorf("rule %d: pattern and replacement are required", i)
		}

		matches := rule.Pattern.Count(currentContent)
		if matches == 0 {
			continue
		}

		newContent := rule.Replacement.apply(rule.Pattern.re, currentContent)
		if newContent != currentContent {
			result.WasModified = true
		}
		result.ReplacementCount += matches
		currentContent = newContent
	}

	result.ModifiedContent = []byte(currentContent)
	return result, nil
}
