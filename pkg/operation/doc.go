/*
Package operation implements the steps a manifest is made of and the runner
that applies them to a working tree.

	+-------------+      +-------------+
	|  Manifest   | ---> |    Build    |
	|   (steps)   |      | (templating)|
	+-------------+      +------+------+
	                            |
	                     +------+------+
	                     |   Runner    |
	                     | (in order)  |
	                     +------+------+
	                            |
	         +------------------+------------------+
	         |                  |                  |
	   +-----+-----+      +-----+-----+      +-----+-----+
	   |   Copy    |      |  Replace  |      |  Rename   |
	   | (+merge)  |      | (rules)   |      | (Replace) |
	   +-----------+      +-----------+      +-----------+

🎯 Purpose:
- Copy moves generated files from a source tree into the working tree
- Replace patches files in place with regex, literal or transform rules
- Rename renames a generated module consistently

🔄 Flow:
1. Build renders templates, expands for_each and compiles every pattern
2. Runner executes operations top to bottom
3. Each operation reads what earlier ones wrote

⚠️ Errors:
- NotFoundError: a copy source is missing
- MergeConflictError: a merge function refused the destination
- PatternError: a match pattern or glob is malformed

All of them abort the run. Match them with errors.As.

🔍 Example:

	ops, err := operation.Build(ctx, manifest, sources)
	if err != nil {
		return err
	}
	overlay := tree.NewOverlay(disk)
	if err := operation.NewRunner(ops).Run(ctx, overlay); err != nil {
		return err
	}
	_, err = overlay.Commit(ctx)
*/
package operation
