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

package provider

import (
	"context"
	"os"
	"path/filepath"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"

	"github.com/walteh/synthrc/pkg/config"
)

func init() {
	Register("git", func(ctx context.Context) (Provider, error) { return &Git{}, nil })
}

// 🌿 Git clones a repository holding generator output
type Git struct{}

func (g *Git) Fetch(ctx context.Context, src config.Source, opts Options) (*Resolved, error) {
	url := src.Git.URL
	local := false
	if _, err := os.Stat(opts.abs(url)); err == nil {
		url = opts.abs(url)
		local = true
	}

	dir, err := CachePath(opts, "git", src.Name, url+"@"+src.Git.Ref)
	if err != nil {
		return nil, err
	}

	repo, err := clone(ctx, dir, url, src.Git.Ref, !local)
	if err != nil {
		return nil, errors.Errorf("cloning %s: %w", url, err)
	}

	head, err := repo.Head()
	if err != nil {
		return nil, errors.Errorf("reading HEAD of %s: %w", url, err)
	}
	zerolog.Ctx(ctx).Debug().Str("url", url).Str("commit", head.Hash().String()).Msg("cloned source")

	root := dir
	if src.Git.Dir != "" {
		root = filepath.Join(dir, filepath.FromSlash(src.Git.Dir))
	}
	return NewResolved(src, url, head.Hash().String(), root)
}

// clone tries ref as a branch and then as a tag. An empty ref clones HEAD.
func clone(ctx context.Context, dir, url, ref string, shallow bool) (*git.Repository, error) {
	refs := []plumbing.ReferenceName{plumbing.HEAD}
	if ref != "" {
		refs = []plumbing.ReferenceName{plumbing.NewBranchReferenceName(ref), plumbing.NewTagReferenceName(ref)}
	}

	var lastErr error
	for _, name := range refs {
		options := &git.CloneOptions{
			URL:           url,
			ReferenceName: name,
			SingleBranch:  true,
		}
		if shallow {
			options.Depth = 1
		}

		repo, err := git.PlainCloneContext(ctx, dir, false, options)
		if err == nil {
			return repo, nil
		}
		lastErr = err

		if err := os.RemoveAll(dir); err != nil {
			return nil, errors.Errorf("clearing %s: %w", dir, err)
		}
	}
	return nil, errors.WithStack(lastErr)
}
