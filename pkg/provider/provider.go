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
	"sort"
	"sync"

	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"
	"golang.org/x/sync/errgroup"

	"github.com/walteh/synthrc/pkg/config"
	"github.com/walteh/synthrc/pkg/tree"
)

// 🔌 Provider materializes a source into a local directory
type Provider interface {
	// 📦 Fetch returns the directory holding the source's files
	Fetch(ctx context.Context, src config.Source, opts Options) (*Resolved, error)
}

// Options are shared by every provider during one resolution
type Options struct {
	// BaseDir anchors relative source paths, usually the manifest directory.
	BaseDir string
	// CacheDir holds clones, downloads and extracted archives.
	CacheDir string
}

func (o Options) abs(p string) string {
	if filepath.IsAbs(p) || o.BaseDir == "" {
		return p
	}
	return filepath.Join(o.BaseDir, p)
}

// 🎯 Resolved is a source ready to be copied from
type Resolved struct {
	Name     string
	Kind     string
	Location string
	Ref      string
	Dir      string
	Tree     *tree.Disk
}

// 🏭 Factory creates a new provider
type Factory func(ctx context.Context) (Provider, error)

var (
	mu sync.RWMutex
	// 🗺️ providers is a map of source kinds to factories
	providers = make(map[string]Factory)
)

// 📝 Register registers a provider factory for a source kind
func Register(kind string, factory Factory) {
	mu.Lock()
	defer mu.Unlock()
	providers[kind] = factory
}

// 🎯 Get returns a provider by kind
func Get(ctx context.Context, kind string) (Provider, error) {
	mu.RLock()
	factory, ok := providers[kind]
	mu.RUnlock()
	if !ok {
		return nil, errors.Errorf("unknown source kind %q (have %v)", kind, Kinds())
	}
	return factory(ctx)
}

// Kinds lists the registered source kinds
func Kinds() []string {
	mu.RLock()
	defer mu.RUnlock()
	kinds := make([]string, 0, len(providers))
	for k := range providers {
		kinds = append(kinds, k)
	}
	sort.Strings(kinds)
	return kinds
}

// Resolve fetches every source in m concurrently. An override maps a source
// name to a local directory used in place of the declared source.
func Resolve(ctx context.Context, m *config.Manifest, overrides map[string]string, opts Options) (map[string]*Resolved, error) {
	for name := range overrides {
		if _, ok := m.Source(name); !ok {
			return nil, errors.Errorf("override for undeclared source %q", name)
		}
	}

	var (
		resultsMu sync.Mutex
		results   = make(map[string]*Resolved, len(m.Sources))
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(4)
	for _, src := range m.Sources {
		src := src
		if dir, ok := overrides[src.Name]; ok {
			src = config.Source{Name: src.Name, Path: dir}
		}

		g.Go(func() error {
			zerolog.Ctx(gctx).Debug().Str("source", src.Name).Str("kind", src.Kind()).Msg("resolving source")

			p, err := Get(gctx, src.Kind())
			if err != nil {
				return errors.Errorf("source %q: %w", src.Name, err)
			}
			r, err := p.Fetch(gctx, src, opts)
			if err != nil {
				return errors.Errorf("source %q: %w", src.Name, err)
			}

			resultsMu.Lock()
			results[src.Name] = r
			resultsMu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// Trees returns the working trees of resolved sources keyed by name
func Trees(resolved map[string]*Resolved) map[string]tree.Tree {
	out := make(map[string]tree.Tree, len(resolved))
	for name, r := range resolved {
		out[name] = r.Tree
	}
	return out
}

// NewResolved opens dir as a tree, failing if it is not a directory
func NewResolved(src config.Source, location, ref, dir string) (*Resolved, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, errors.Errorf("opening %s: %w", dir, err)
	}
	if !info.IsDir() {
		return nil, errors.Errorf("%s is not a directory", dir)
	}
	d, err := tree.NewDisk(dir)
	if err != nil {
		return nil, err
	}
	return &Resolved{
		Name:     src.Name,
		Kind:     src.Kind(),
		Location: location,
		Ref:      ref,
		Dir:      d.Root(),
		Tree:     d,
	}, nil
}

// CachePath returns a fresh, empty directory under the cache for key
func CachePath(opts Options, kind, name, key string) (string, error) {
	base := opts.CacheDir
	if base == "" {
		base = filepath.Join(os.TempDir(), "synthrc")
	}
	dir := filepath.Join(base, kind, name+"-"+tree.Checksum([]byte(key))[:12])
	if err := os.RemoveAll(dir); err != nil {
		return "", errors.Errorf("clearing %s: %w", dir, err)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", errors.Errorf("creating %s: %w", dir, err)
	}
	return dir, nil
}
