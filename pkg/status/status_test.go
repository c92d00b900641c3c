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
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/fatih/color"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gitlab.com/tozd/go/errors"

	"github.com/walteh/synthrc/pkg/tree"
)

// 🧪 TestFromOverlay tests classification of overlay writes
func TestFromOverlay(t *testing.T) {
	ctx := zerolog.New(zerolog.NewTestWriter(t)).WithContext(context.Background())
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "README.md"), []byte("# Dataproc\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "LICENSE"), []byte("Apache\n"), 0o644))

	base, err := tree.NewDisk(dir)
	require.NoError(t, err)
	o := tree.NewOverlay(base)
	require.NoError(t, o.WriteFile(ctx, "README.md", []byte("# Google Cloud Dataproc\n")))
	require.NoError(t, o.WriteFile(ctx, "LICENSE", []byte("Apache\n")))
	require.NoError(t, o.WriteFile(ctx, "lib/google/cloud/dataproc.rb", []byte("module Dataproc\n")))

	tr, err := FromOverlay(ctx, o)
	require.NoError(t, err)

	files := tr.List()
	require.Len(t, files, 3)
	assert.Equal(t, "LICENSE", files[0].Path)
	assert.Equal(t, StatusUnchanged, files[0].Status)
	assert.Equal(t, "README.md", files[1].Path)
	assert.Equal(t, StatusModified, files[1].Status)
	assert.Equal(t, "lib/google/cloud/dataproc.rb", files[2].Path)
	assert.Equal(t, StatusNew, files[2].Status)
	assert.Equal(t, tree.Checksum([]byte("module Dataproc\n")), files[2].Checksum)
	assert.Equal(t, int64(len("module Dataproc\n")), files[2].Size)

	assert.True(t, tr.Changed())
	assert.Equal(t, map[FileStatus]int{StatusNew: 1, StatusModified: 1, StatusUnchanged: 1}, tr.Counts())
	assert.Equal(t, "✅ 1 new, 1 modified, 1 unchanged", tr.Summary())

	info, ok := tr.Get("README.md")
	require.True(t, ok)
	assert.Equal(t, StatusModified, info.Status)
	_, ok = tr.Get("missing")
	assert.False(t, ok)
}

func TestTrackerEmpty(t *testing.T) {
	tr := NewTracker()
	assert.False(t, tr.Changed())
	assert.Empty(t, tr.List())
	assert.Equal(t, "✅ No files touched", tr.Summary())
}

func TestFileStatusString(t *testing.T) {
	tests := []struct {
		status FileStatus
		want   string
	}{
		{StatusNew, "new"},
		{StatusModified, "modified"},
		{StatusUnchanged, "unchanged"},
		{StatusDeleted, "deleted"},
		{StatusUnknown, "unknown"},
		{FileStatus(42), "unknown"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.status.String())
	}
}

// 🧪 TestDefaultFileFormatter tests the default file formatter implementation
func TestDefaultFileFormatter(t *testing.T) {
	f := NewDefaultFileFormatter()

	tests := []struct {
		name string
		info FileInfo
		want string
	}{
		{name: "new_file", info: FileInfo{Path: "test.rb", Status: StatusNew}, want: "✨ Created test.rb"},
		{name: "modified_file", info: FileInfo{Path: "a.gemspec", Status: StatusModified}, want: "📝 Modified a.gemspec"},
		{name: "removed_file", info: FileInfo{Path: "old.rb", Status: StatusDeleted}, want: "🗑️  Removed old.rb"},
		{name: "unchanged_file", info: FileInfo{Path: "stable.rb", Status: StatusUnchanged}, want: "👍 Unchanged stable.rb"},
		{name: "unknown_file", info: FileInfo{Path: "x"}, want: "❓ Unknown x"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, f.FormatFileOperation(tt.info))
		})
	}

	assert.Equal(t, "", f.FormatError(nil))
	assert.Equal(t, "❌ Error: boom", f.FormatError(errors.New("boom")))
}

func TestPrint(t *testing.T) {
	color.NoColor = true
	defer func() { color.NoColor = false }()

	ctx := context.Background()
	tr := NewTracker()
	tr.Track(ctx, FileInfo{Path: "a.rb", Status: StatusNew})
	tr.Track(ctx, FileInfo{Path: "b.rb", Status: StatusUnchanged})
	tr.Track(ctx, FileInfo{Path: "c.rb", Status: StatusDeleted})

	var buf bytes.Buffer
	tr.Print(&buf, false)
	assert.Equal(t, FormatFileLine(FileInfo{Path: "a.rb", Status: StatusNew})+"\n"+
		FormatFileLine(FileInfo{Path: "c.rb", Status: StatusDeleted})+"\n", buf.String())
	assert.Contains(t, buf.String(), "    ✓ a.rb")
	assert.Contains(t, buf.String(), "    ✗ c.rb")
	assert.NotContains(t, buf.String(), "b.rb")

	buf.Reset()
	tr.Print(&buf, true)
	assert.Contains(t, buf.String(), "    - b.rb")
}
