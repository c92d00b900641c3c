/*
Package config loads synthrc manifests.

	            +-------------+
	            |  Manifest   |
	            | vars/source |
	            |    /step    |
	            +------+------+
	                   |
	   +--------+------+------+--------+
	   |        |             |        |
	+--+--+  +--+--+      +---+--+  +--+--+
	| HCL |  | YAML|      | JSON |  | TOML|
	+-----+  +-----+      +------+  +-----+

🎯 Purpose:
- Parses a manifest in whichever format its extension names
- Validates sources and steps before anything runs
- Remembers where the manifest lives so relative paths resolve against it

🔄 Flow:
1. Load reads the file and picks a Parser from the registry
2. The parser decodes into Manifest
3. Validate checks sources and per-kind step fields
4. Dir and Hash are recorded for source resolution and the lock file

📝 Steps keep their raw strings. Mustache rendering and for_each expansion
happen when operations are built, not here.

🔍 Example:

	source "gapic" {
	  path = "./out/google-cloud-dataproc"
	}

	step "copy" {
	  from = "gapic"
	  path = "lib"
	}

	step "replace" {
	  files = ["lib/google/cloud/dataproc/v1/*_client.rb"]
	  match = "Google::Cloud::Dataproc::V1::WorkflowTemplate\\b"
	  with  = "Google::Cloud::Dataproc::V1::WorkflowTemplateService"
	}
*/
package config
