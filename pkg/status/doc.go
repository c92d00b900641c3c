/*
Package status tracks what a run did to each file of the working tree.

🎯 Purpose:
- Classifies written files as new, modified or unchanged
- Reports drift (modified or deleted) against the lock file
- Formats per-file lines and run summaries for the terminal

🔄 Flow:
1. Operations write through a tree.Overlay
2. FromOverlay classifies every written path before commit
3. The CLI prints the tracker and its summary
*/
package status
