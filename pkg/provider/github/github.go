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

package github

import (
	"context"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/google/go-github/v60/github"
	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"
	"golang.org/x/sync/errgroup"

	"github.com/walteh/synthrc/pkg/config"
	"github.com/walteh/synthrc/pkg/provider"
)

func init() {
	provider.Register("github", New)
}

// 🎯 Provider downloads a directory of a GitHub repository through the git
// data API
type Provider struct {
	client *github.Client
}

// 🏭 New creates a GitHub provider, authenticated when GITHUB_TOKEN is set
func New(ctx context.Context) (provider.Provider, error) {
	client := github.NewClient(nil)
	if token := os.Getenv("GITHUB_TOKEN"); token != "" {
		client = client.WithAuthToken(token)
	} else {
		zerolog.Ctx(ctx).Debug().Msg("GITHUB_TOKEN not set, using unauthenticated client")
	}
	return NewWithClient(client), nil
}

// NewWithClient wraps an existing client
func NewWithClient(client *github.Client) *Provider {
	return &Provider{client: client}
}

// 🔍 parseRepo splits owner/name, also accepting a github.com URL
func parseRepo(repo string) (owner, name string, err error) {
	repo = strings.TrimSuffix(repo, ".git")
	repo = strings.TrimPrefix(repo, "https://")
	repo = strings.TrimPrefix(repo, "github.com/")

	parts := strings.Split(strings.Trim(repo, "/"), "/")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", errors.Errorf("invalid GitHub repository %q", repo)
	}
	return parts[0], parts[1], nil
}

func (p *Provider) Fetch(ctx context.Context, src config.Source, opts provider.Options) (*provider.Resolved, error) {
	logger := zerolog.Ctx(ctx)
	gh := src.GitHub

	owner, name, err := parseRepo(gh.Repo)
	if err != nil {
		return nil, err
	}

	ref := gh.Ref
	if ref == "" {
		repo, _, err := p.client.Repositories.Get(ctx, owner, name)
		if err != nil {
			return nil, errors.Errorf("getting repository %s/%s: %w", owner, name, err)
		}
		ref = repo.GetDefaultBranch()
	}

	tree, _, err := p.client.Git.GetTree(ctx, owner, name, ref, true)
	if err != nil {
		return nil, errors.Errorf("getting tree %s/%s@%s: %w", owner, name, ref, err)
	}
	if tree.GetTruncated() {
		return nil, errors.Errorf("tree %s/%s@%s is too large to list", owner, name, ref)
	}

	prefix := strings.Trim(gh.Path, "/")
	var entries []*github.TreeEntry
	for _, entry := range tree.Entries {
		if entry.GetType() != "blob" {
			continue
		}
		if prefix != "" && !strings.HasPrefix(entry.GetPath(), prefix+"/") {
			continue
		}
		entries = append(entries, entry)
	}
	if len(entries) == 0 {
		return nil, errors.Errorf("no files under %q in %s/%s@%s", prefix, owner, name, ref)
	}

	dir, err := provider.CachePath(opts, "github", src.Name, gh.Repo+"@"+ref+":"+prefix)
	if err != nil {
		return nil, err
	}

	logger.Debug().Str("repo", gh.Repo).Str("ref", ref).Int("files", len(entries)).Msg("downloading files")

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(8)
	for _, entry := range entries {
		entry := entry
		g.Go(func() error {
			content, _, err := p.client.Git.GetBlobRaw(gctx, owner, name, entry.GetSHA())
			if err != nil {
				return errors.Errorf("getting blob %s: %w", entry.GetPath(), err)
			}

			rel := entry.GetPath()
			if prefix != "" {
				rel = strings.TrimPrefix(rel, prefix+"/")
			}
			target := filepath.Join(dir, filepath.FromSlash(path.Clean(rel)))
			if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
				return errors.Errorf("creating directory: %w", err)
			}

			mode := os.FileMode(0o644)
			if entry.GetMode() == "100755" {
				mode = 0o755
			}
			if err := os.WriteFile(target, content, mode); err != nil {
				return errors.Errorf("writing %s: %w", rel, err)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return provider.NewResolved(src, gh.Repo, tree.GetSHA(), dir)
}
