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

package synth_test

import (
	"os"
	"path/filepath"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/walteh/synthrc/pkg/config"
	"github.com/walteh/synthrc/pkg/operation"
	"github.com/walteh/synthrc/pkg/provider"
	"github.com/walteh/synthrc/pkg/status"
	"github.com/walteh/synthrc/pkg/synth"
)

const dataprocManifest = "../../examples/google-cloud-dataproc/.synthrc.hcl"

func dataprocOverrides(t *testing.T) map[string]string {
	t.Helper()
	out := map[string]string{}
	for _, name := range []string{"v1", "v1beta2", "templates"} {
		abs, err := filepath.Abs(filepath.Join("testdata", "dataproc", name))
		require.NoError(t, err)
		out[name] = abs
	}
	return out
}

// runDataproc patches a fresh tree holding the hand-maintained gemspec.
func runDataproc(t *testing.T) (string, *synth.Result) {
	t.Helper()
	ctx := testContext(t)
	dir := t.TempDir()

	existing, err := os.ReadFile(filepath.Join("testdata", "dataproc", "existing", "google-cloud-dataproc.gemspec"))
	require.NoError(t, err)
	writeFiles(t, dir, map[string]string{"google-cloud-dataproc.gemspec": string(existing)})

	result, err := synth.Run(ctx, synth.Options{
		ManifestPath: dataprocManifest,
		Dir:          dir,
		Overrides:    dataprocOverrides(t),
		CacheDir:     t.TempDir(),
	})
	require.NoError(t, err)
	return dir, result
}

func TestDataprocManifestBuilds(t *testing.T) {
	ctx := testContext(t)
	m, err := config.Load(ctx, dataprocManifest)
	require.NoError(t, err)
	assert.Len(t, m.Sources, 3)

	resolved, err := provider.Resolve(ctx, m, dataprocOverrides(t), provider.Options{BaseDir: m.Dir()})
	require.NoError(t, err)

	ops, err := operation.Build(ctx, m, provider.Trees(resolved))
	require.NoError(t, err)
	assert.Equal(t, "copy v1:acceptance [acceptance]", ops[0].Describe())
	assert.Equal(t, "require version in v1beta2 clients [v1beta2]", ops[len(ops)-3].Describe())
}

func TestDataproc(t *testing.T) {
	dir, result := runDataproc(t)
	files := snapshot(t, dir)

	var names []string
	for name := range files {
		names = append(names, name)
	}
	sort.Strings(names)
	assert.Equal(t, []string{
		".gitignore",
		".rubocop.yml",
		".yardopts",
		"AUTHENTICATION.md",
		"LICENSE",
		"README.md",
		"Rakefile",
		"acceptance/google/cloud/dataproc/v1/cluster_controller_smoke_test.rb",
		"acceptance/google/cloud/dataproc/v1beta2/cluster_controller_smoke_test.rb",
		"google-cloud-dataproc.gemspec",
		"lib/google/cloud/dataproc.rb",
		"lib/google/cloud/dataproc/v1.rb",
		"lib/google/cloud/dataproc/v1/cluster_controller_client.rb",
		"lib/google/cloud/dataproc/v1/doc/google/cloud/dataproc/v1/clusters.rb",
		"lib/google/cloud/dataproc/v1/workflow_template_service_client.rb",
		"lib/google/cloud/dataproc/v1beta2.rb",
		"lib/google/cloud/dataproc/v1beta2/autoscaling_policy_service_client.rb",
		"test/google/cloud/dataproc/v1/workflow_template_service_client_test.rb",
		"test/google/cloud/dataproc/v1beta2/autoscaling_policy_service_client_test.rb",
	}, names)
	assert.Equal(t, 18, result.Tracker.Counts()[status.StatusNew], "every file but the gemspec is new")

	t.Run("gemspec", func(t *testing.T) {
		assert.Equal(t, `# -*- ruby -*-
# encoding: utf-8
require File.expand_path("../lib/google/cloud/dataproc/version", __FILE__)

Gem::Specification.new do |gem|
  gem.name          = "google-cloud-dataproc"
  gem.version       = Google::Cloud::Dataproc::VERSION

  gem.authors       = ["Google LLC"]
  gem.homepage      = "https://github.com/googleapis/google-cloud-ruby/tree/master/google-cloud-dataproc"
  gem.files         = Dir.glob("lib/**/*.rb") +
    Dir.glob("*.md") +
    ["README.md", "AUTHENTICATION.md", "LICENSE", ".yardopts"]

  gem.add_dependency "google-gax", "~> 1.7"
  gem.add_dependency "googleapis-common-protos", ">= 1.3.9", "< 2.0"

  gem.add_development_dependency "minitest", "~> 5.10"
  gem.add_development_dependency "rubocop", "~> 0.64.0"
  gem.add_dependency "grpc-google-iam-v1", "~> 0.6.9"
end
`, files["google-cloud-dataproc.gemspec"])
	})

	t.Run("entrypoint", func(t *testing.T) {
		got := files["lib/google/cloud/dataproc.rb"]
		assert.NotContains(t, got, ":v1beta2")
		assert.Contains(t, got, "version: :v1, **kwargs")
		assert.Contains(t, got, "      module WorkflowTemplateService\n")
		assert.Contains(t, got, "WorkflowTemplateService.new(*args, **kwargs)")
		assert.Contains(t, got, "      module AutoscalingPolicyService\n")
		assert.Contains(t, got, "AutoscalingPolicyService.new(*args, **kwargs)")
		assert.Contains(t, got, "        # @param service_address [String]\n")
		assert.Contains(t, got, "https://googleapis.github.io/google-cloud-ruby")
		assert.Contains(t, got, `Dir["#{FILE_DIR}/*"]`)
		assert.Contains(t, got, "with the License.\n\n\nrequire \"google/gax\"", "license header gets a second blank line")
	})

	t.Run("client", func(t *testing.T) {
		got := files["lib/google/cloud/dataproc/v1/cluster_controller_client.rb"]
		for _, want := range []string{
			"require \"google/cloud/dataproc/v1/credentials\"\nrequire \"google/cloud/dataproc/version\"\n\nmodule Google",
			"        class ClusterControllerClient\n          # @private\n          attr_reader :cluster_controller_stub",
			"\n\n          # @private\n          class OperationsClient < Google::Longrunning::OperationsClient",
			"          # @param service_address [String]\n          #   Override for the service hostname, or `nil` to leave as the default.\n",
			"          # @param service_port [Integer]\n          #   Override for the service port, or `nil` to leave as the default.\n          # @param exception_transformer [Proc]",
			"              metadata: nil,\n              service_address: nil,\n              service_port: nil,\n              exception_transformer: nil,\n",
			"              lib_name: lib_name,\n              service_address: service_address,\n              service_port: service_port,\n              lib_version: lib_version,",
			"package_version = Google::Cloud::Dataproc::VERSION",
			"service_path = service_address || self.class::SERVICE_ADDRESS",
			"port = service_port || self.class::DEFAULT_SERVICE_PORT",
		} {
			assert.Contains(t, got, want)
		}
	})

	t.Run("renames", func(t *testing.T) {
		assert.Contains(t, files["lib/google/cloud/dataproc/v1.rb"], "        module WorkflowTemplateService\n")
		assert.Contains(t, files["lib/google/cloud/dataproc/v1.rb"], "              service_address: nil,\n")
		assert.Contains(t, files["lib/google/cloud/dataproc/v1/workflow_template_service_client.rb"], "WorkflowTemplateService.new(version: :v1)")
		assert.Contains(t, files["lib/google/cloud/dataproc/v1/workflow_template_service_client.rb"],
			"template = Google::Cloud::Dataproc::V1::WorkflowTemplate.new(template)", "message constructors keep the message class")
		assert.Contains(t, files["lib/google/cloud/dataproc/v1beta2/autoscaling_policy_service_client.rb"], "AutoscalingPolicyService.new(version: :v1beta2)")
		assert.Contains(t, files["lib/google/cloud/dataproc/v1beta2/autoscaling_policy_service_client.rb"], "package_version = Google::Cloud::Dataproc::VERSION")
		assert.Equal(t, "client = Google::Cloud::Dataproc::WorkflowTemplateService.new(version: :v1)\n", files["test/google/cloud/dataproc/v1/workflow_template_service_client_test.rb"])
		assert.Equal(t, "client = Google::Cloud::Dataproc::AutoscalingPolicyService.new(version: :v1beta2)\n", files["test/google/cloud/dataproc/v1beta2/autoscaling_policy_service_client_test.rb"])
	})

	t.Run("escaped_braces", func(t *testing.T) {
		got := files["lib/google/cloud/dataproc/v1/doc/google/cloud/dataproc/v1/clusters.rb"]
		assert.Contains(t, got, `# Format: projects/\\{project}/regions/\\{region}/clusters/\\{cluster}`)
		assert.Contains(t, got, "# Use `{name}` in templates and #{value} in ruby.")
	})

	t.Run("docs", func(t *testing.T) {
		assert.Equal(t, "--no-private\n--title=Cloud Dataproc API\n--markup markdown\n\n./lib/**/*.rb\n-\nREADME.md\nAUTHENTICATION.md\nLICENSE\n", files[".yardopts"])
		assert.Contains(t, files["README.md"], "https://github.com/googleapis/google-cloud-ruby")
	})
}

func TestDataprocIsDeterministic(t *testing.T) {
	first, _ := runDataproc(t)
	second, _ := runDataproc(t)
	assert.Equal(t, snapshot(t, first), snapshot(t, second))
}

func TestDataprocRerunIsStable(t *testing.T) {
	ctx := testContext(t)
	dir, _ := runDataproc(t)
	before := snapshot(t, dir)

	result, err := synth.Run(ctx, synth.Options{
		ManifestPath: dataprocManifest,
		Dir:          dir,
		Overrides:    dataprocOverrides(t),
		CacheDir:     t.TempDir(),
	})
	require.NoError(t, err)
	assert.False(t, result.Tracker.Changed(), "second run should not change any file")
	assert.Equal(t, before, snapshot(t, dir))
}
