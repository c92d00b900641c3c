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

package tree

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"gitlab.com/tozd/go/errors"
)

// 🌳 Tree is a mutable set of text files addressed by slash-separated paths
// relative to its root.
type Tree interface {
	// Root returns the directory the tree is rooted at.
	Root() string

	ReadFile(ctx context.Context, name string) ([]byte, error)
	WriteFile(ctx context.Context, name string, content []byte) error
	Exists(ctx context.Context, name string) (bool, error)

	// Glob returns the sorted files matching a doublestar pattern.
	Glob(ctx context.Context, pattern string) ([]string, error)
}

// Checksum returns the hex sha256 of content.
func Checksum(content []byte) string {
	hash := sha256.Sum256(content)
	return hex.EncodeToString(hash[:])
}

// Clean validates name and returns it in canonical slash form.
func Clean(name string) (string, error) {
	name = filepath.ToSlash(name)
	cleaned := path.Clean(name)
	if !filepath.IsLocal(filepath.FromSlash(cleaned)) {
		return "", errors.Errorf("path %q escapes the tree", name)
	}
	return cleaned, nil
}

// 💾 Disk is a Tree backed by a directory.
type Disk struct {
	root string
	fsys fs.FS
}

var _ Tree = (*Disk)(nil)

// 🏭 NewDisk creates a tree rooted at dir
func NewDisk(dir string) (*Disk, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, errors.Errorf("resolving %s: %w", dir, err)
	}
	return &Disk{root: abs, fsys: os.DirFS(abs)}, nil
}

func (d *Disk) Root() string {
	return d.root
}

func (d *Disk) abs(name string) (string, error) {
	cleaned, err := Clean(name)
	if err != nil {
		return "", err
	}
	return filepath.Join(d.root, filepath.FromSlash(cleaned)), nil
}

func (d *Disk) ReadFile(ctx context.Context, name string) ([]byte, error) {
	p, err := d.abs(name)
	if err != nil {
		return nil, err
	}
	content, err := os.ReadFile(p)
	if err != nil {
		return nil, errors.Errorf("reading file: %w", err)
	}
	return content, nil
}

// WriteFile writes content atomically, creating parent directories. An
// existing file keeps its permissions.
func (d *Disk) WriteFile(ctx context.Context, name string, content []byte) error {
	p, err := d.abs(name)
	if err != nil {
		return err
	}

	mode := os.FileMode(0o644)
	if info, err := os.Stat(p); err == nil {
		if info.IsDir() {
			return errors.Errorf("%s is a directory", name)
		}
		mode = info.Mode().Perm()
	}

	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return errors.Errorf("creating parent directories: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(p), "."+filepath.Base(p)+".*.tmp")
	if err != nil {
		return errors.Errorf("creating temp file: %w", err)
	}
	tempPath := tmp.Name()

	if _, err := tmp.Write(content); err != nil {
		tmp.Close()
		os.Remove(tempPath)
		return errors.Errorf("writing temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tempPath)
		return errors.Errorf("closing temp file: %w", err)
	}
	if err := os.Chmod(tempPath, mode); err != nil {
		os.Remove(tempPath)
		return errors.Errorf("setting file mode: %w", err)
	}

	if err := os.Rename(tempPath, p); err != nil {
		os.Remove(tempPath)
		return errors.Errorf("renaming temp file: %w", err)
	}

	return nil
}

func (d *Disk) Exists(ctx context.Context, name string) (bool, error) {
	p, err := d.abs(name)
	if err != nil {
		return false, err
	}
	info, err := os.Stat(p)
	if err == nil {
		return !info.IsDir(), nil
	}
	if os.IsNotExist(err) {
		return false, nil
	}
	return false, errors.Errorf("checking file existence: %w", err)
}

func (d *Disk) Glob(ctx context.Context, pattern string) ([]string, error) {
	if !doublestar.ValidatePattern(pattern) {
		return nil, errors.Errorf("invalid glob %q: %w", pattern, doublestar.ErrBadPattern)
	}
	matches, err := doublestar.Glob(d.fsys, pattern, doublestar.WithFilesOnly())
	if err != nil {
		return nil, errors.Errorf("globbing %q: %w", pattern, err)
	}
	files := matches[:0]
	for _, m := range matches {
		if !inGitDir(m) {
			files = append(files, m)
		}
	}
	sort.Strings(files)
	return files, nil
}

// inGitDir reports whether name lies inside a .git directory. Repository
// internals never take part in copies or replacements.
func inGitDir(name string) bool {
	for _, part := range strings.Split(name, "/") {
		if part == ".git" {
			return true
		}
	}
	return false
}
