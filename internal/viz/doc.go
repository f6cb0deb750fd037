// Package viz draws a running ball pit in the terminal.
//
// The live view is a Bubble Tea program over a braille [Canvas]: the
// container outline and every ball are rasterised each frame, next to a
// kinetic energy graph.
//
// # Key Bindings
//
//	Space - Pause/Resume simulation
//	R     - Reset to the initial scene
//	+/-   - Double/halve substeps
//	G     - Toggle GIF recording
//	?     - Show help overlay
package viz
