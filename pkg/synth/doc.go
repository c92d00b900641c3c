/*
Package synth runs a manifest end to end.

	config.Load -> provider.Resolve -> operation.Build
	                                         |
	                 tree.Overlay <- operation.Runner
	                      |
	           dry run: Diff | otherwise: Commit + state.Save

A failing step discards the overlay, so the tree on disk is either fully
patched or untouched.
*/
package synth
