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

	"github.com/rs/zerolog"
	"github.com/walle/targz"
	"gitlab.com/tozd/go/errors"

	"github.com/walteh/synthrc/pkg/config"
)

func init() {
	Register("path", func(ctx context.Context) (Provider, error) { return &Path{}, nil })
	Register("archive", func(ctx context.Context) (Provider, error) { return &Archive{}, nil })
}

// 📂 Path serves generator output already on disk
type Path struct{}

func (p *Path) Fetch(ctx context.Context, src config.Source, opts Options) (*Resolved, error) {
	dir := opts.abs(src.Path)
	return NewResolved(src, dir, "", dir)
}

// 📦 Archive extracts a generator output tarball into the cache
type Archive struct{}

func (a *Archive) Fetch(ctx context.Context, src config.Source, opts Options) (*Resolved, error) {
	archive := opts.abs(src.Archive)
	if _, err := os.Stat(archive); err != nil {
		return nil, errors.Errorf("opening archive: %w", err)
	}

	dir, err := CachePath(opts, "archive", src.Name, archive)
	if err != nil {
		return nil, err
	}

	zerolog.Ctx(ctx).Debug().Str("archive", archive).Str("dir", dir).Msg("extracting archive")
	if err := targz.Extract(archive, dir); err != nil {
		return nil, errors.Errorf("extracting %s: %w", archive, err)
	}

	root, err := singleRoot(dir)
	if err != nil {
		return nil, err
	}
	return NewResolved(src, archive, "", root)
}

// singleRoot descends into dir when its only entry is a directory, which is
// how tarballs of a generator output directory are laid out.
func singleRoot(dir string) (string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", errors.Errorf("reading %s: %w", dir, err)
	}
	if len(entries) == 1 && entries[0].IsDir() {
		return filepath.Join(dir, entries[0].Name()), nil
	}
	return dir, nil
}
