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

package provider_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/walle/targz"

	"github.com/walteh/synthrc/pkg/config"
	"github.com/walteh/synthrc/pkg/operation"
	"github.com/walteh/synthrc/pkg/provider"
	"github.com/walteh/synthrc/pkg/tree"
)

func testContext(t *testing.T) context.Context {
	return zerolog.New(zerolog.NewTestWriter(t)).WithContext(context.Background())
}

func writeFiles(t *testing.T, dir string, files map[string]string) {
	t.Helper()
	for name, content := range files {
		p := filepath.Join(dir, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
		require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
	}
}

func readResolved(t *testing.T, r *provider.Resolved, name string) string {
	t.Helper()
	content, err := r.Tree.ReadFile(context.Background(), name)
	require.NoError(t, err)
	return string(content)
}

var generated = map[string]string{
	"lib/google/cloud/dataproc.rb": "module Dataproc\nend\n",
	"README.md":                    "# Dataproc\n",
}

func TestPath(t *testing.T) {
	ctx := testContext(t)
	base := t.TempDir()
	writeFiles(t, filepath.Join(base, "gen"), generated)

	p, err := provider.Get(ctx, "path")
	require.NoError(t, err)

	r, err := p.Fetch(ctx, config.Source{Name: "gapic", Path: "gen"}, provider.Options{BaseDir: base})
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(base, "gen"), r.Dir)
	assert.Equal(t, "path", r.Kind)
	assert.Equal(t, "# Dataproc\n", readResolved(t, r, "README.md"))

	_, err = p.Fetch(ctx, config.Source{Name: "gapic", Path: "missing"}, provider.Options{BaseDir: base})
	require.Error(t, err)
}

func TestArchive(t *testing.T) {
	ctx := testContext(t)
	base := t.TempDir()
	writeFiles(t, filepath.Join(base, "dataproc-gen"), generated)
	require.NoError(t, targz.Compress(filepath.Join(base, "dataproc-gen"), filepath.Join(base, "gen.tar.gz")))

	p, err := provider.Get(ctx, "archive")
	require.NoError(t, err)

	r, err := p.Fetch(ctx, config.Source{Name: "gapic", Archive: "gen.tar.gz"}, provider.Options{BaseDir: base, CacheDir: t.TempDir()})
	require.NoError(t, err)
	assert.Equal(t, "module Dataproc\nend\n", readResolved(t, r, "lib/google/cloud/dataproc.rb"))

	files, err := r.Tree.Glob(ctx, "**")
	require.NoError(t, err)
	assert.Equal(t, []string{"README.md", "lib/google/cloud/dataproc.rb"}, files)
}

func TestGit(t *testing.T) {
	ctx := testContext(t)
	origin := t.TempDir()
	writeFiles(t, origin, map[string]string{
		"google/cloud/dataproc/v1/lib/google/cloud/dataproc.rb": "module Dataproc\nend\n",
		"google/cloud/dataproc/v1/README.md":                    "# Dataproc\n",
	})

	repo, err := git.PlainInit(origin, false)
	require.NoError(t, err)
	wt, err := repo.Worktree()
	require.NoError(t, err)
	require.NoError(t, wt.AddWithOptions(&git.AddOptions{All: true}))
	commit, err := wt.Commit("generate", &git.CommitOptions{
		Author: &object.Signature{Name: "synthrc", Email: "synthrc@example.com", When: time.Unix(0, 0)},
	})
	require.NoError(t, err)

	p, err := provider.Get(ctx, "git")
	require.NoError(t, err)

	src := config.Source{Name: "v1", Git: &config.GitSource{URL: origin, Dir: "google/cloud/dataproc/v1"}}
	r, err := p.Fetch(ctx, src, provider.Options{CacheDir: t.TempDir()})
	require.NoError(t, err)
	assert.Equal(t, commit.String(), r.Ref)
	assert.Equal(t, "# Dataproc\n", readResolved(t, r, "README.md"))

	_, err = p.Fetch(ctx, config.Source{Name: "v1", Git: &config.GitSource{URL: origin, Ref: "no-such-branch"}}, provider.Options{CacheDir: t.TempDir()})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cloning")
}

// 🧪 TestGitWholeCloneSkipsRepositoryInternals tests copying the clone root
func TestGitWholeCloneSkipsRepositoryInternals(t *testing.T) {
	ctx := testContext(t)
	origin := t.TempDir()
	writeFiles(t, origin, generated)

	repo, err := git.PlainInit(origin, false)
	require.NoError(t, err)
	wt, err := repo.Worktree()
	require.NoError(t, err)
	require.NoError(t, wt.AddWithOptions(&git.AddOptions{All: true}))
	_, err = wt.Commit("generate", &git.CommitOptions{
		Author: &object.Signature{Name: "synthrc", Email: "synthrc@example.com", When: time.Unix(0, 0)},
	})
	require.NoError(t, err)

	p, err := provider.Get(ctx, "git")
	require.NoError(t, err)
	r, err := p.Fetch(ctx, config.Source{Name: "gapic", Git: &config.GitSource{URL: origin}}, provider.Options{CacheDir: t.TempDir()})
	require.NoError(t, err)

	_, err = os.Stat(filepath.Join(r.Dir, ".git", "HEAD"))
	require.NoError(t, err, "the clone keeps its repository on disk")

	checkout, err := tree.NewDisk(t.TempDir())
	require.NoError(t, err)
	overlay := tree.NewOverlay(checkout)

	op := &operation.Copy{SourceName: "gapic", Source: r.Tree, Path: "."}
	require.NoError(t, op.Execute(ctx, overlay))
	assert.Equal(t, []string{"README.md", "lib/google/cloud/dataproc.rb"}, overlay.Written())
}

func TestResolve(t *testing.T) {
	ctx := testContext(t)
	base := t.TempDir()
	writeFiles(t, filepath.Join(base, "v1"), generated)
	writeFiles(t, filepath.Join(base, "v1beta2"), map[string]string{"README.md": "# Beta\n"})
	writeFiles(t, filepath.Join(base, "local-v1beta2"), map[string]string{"README.md": "# Local beta\n"})

	m := &config.Manifest{Sources: []config.Source{
		{Name: "v1", Path: "v1"},
		{Name: "v1beta2", Path: "v1beta2"},
	}}

	t.Run("all_sources", func(t *testing.T) {
		resolved, err := provider.Resolve(ctx, m, nil, provider.Options{BaseDir: base})
		require.NoError(t, err)
		require.Len(t, resolved, 2)
		assert.Equal(t, "# Beta\n", readResolved(t, resolved["v1beta2"], "README.md"))

		trees := provider.Trees(resolved)
		assert.Len(t, trees, 2)
	})

	t.Run("override", func(t *testing.T) {
		resolved, err := provider.Resolve(ctx, m, map[string]string{"v1beta2": filepath.Join(base, "local-v1beta2")}, provider.Options{BaseDir: base})
		require.NoError(t, err)
		assert.Equal(t, "# Local beta\n", readResolved(t, resolved["v1beta2"], "README.md"))
	})

	t.Run("unknown_override", func(t *testing.T) {
		_, err := provider.Resolve(ctx, m, map[string]string{"v2": base}, provider.Options{BaseDir: base})
		require.Error(t, err)
		assert.Contains(t, err.Error(), `undeclared source "v2"`)
	})

	t.Run("missing_source_dir", func(t *testing.T) {
		bad := &config.Manifest{Sources: []config.Source{{Name: "gone", Path: "gone"}}}
		_, err := provider.Resolve(ctx, bad, nil, provider.Options{BaseDir: base})
		require.Error(t, err)
		assert.Contains(t, err.Error(), `source "gone"`)
	})
}

func TestKinds(t *testing.T) {
	assert.Subset(t, provider.Kinds(), []string{"archive", "git", "path"})

	_, err := provider.Get(testContext(t), "ftp")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown source kind "ftp"`)
}
