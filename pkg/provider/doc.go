/*
Package provider resolves manifest sources into local directories.

	source "v1" { git { ... } }      source "gapic" { path = "..." }
	            |                                 |
	      +-----+------+                    +-----+-----+
	      | git/github |                    |   path    |
	      |  archive   | -> cache dir       |           |
	      +-----+------+                    +-----+-----+
	            |                                 |
	            +---------------+-----------------+
	                            |
	                   map[name]*Resolved

Providers are registered per source kind. The path, archive and git kinds
live here; the github kind registers itself from the github subpackage.

Every resolved source is an ordinary directory by the time operations run,
so copy steps never touch the network.

🔍 Example:

	resolved, err := provider.Resolve(ctx, manifest, overrides, provider.Options{
		BaseDir:  manifest.Dir(),
		CacheDir: cacheDir,
	})
	trees := provider.Trees(resolved)
*/
package provider
