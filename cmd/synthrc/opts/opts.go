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

package opts

import (
	"github.com/walteh/synthrc/pkg/log"
	"github.com/walteh/synthrc/pkg/synth"
)

// RootOpts contains shared options used by all commands
type RootOpts struct {
	ManifestPath string
	Dir          string
	CacheDir     string
	Debug        bool

	Logger *log.Logger
}

// SynthOptions converts the shared flags into run options
func (o *RootOpts) SynthOptions() synth.Options {
	return synth.Options{
		ManifestPath: o.ManifestPath,
		Dir:          o.Dir,
		CacheDir:     o.CacheDir,
		Log:          o.Logger,
	}
}
