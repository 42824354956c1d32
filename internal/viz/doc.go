// Package viz renders a running simulation in the terminal.
//
// The live view is a Bubble Tea program that owns a [sim.Simulator], steps it
// once per tick and draws the snapshots it receives as an observer:
//
//   - [Model]: live view with trails, energy graph and run progress
//   - [Launcher]: preset picker that starts a live view
//   - [Canvas]: Braille pixel canvas with per-cell body colors
//   - [Camera]: perspective projection of world positions onto the canvas
//
// # Key Bindings
//
//	Space      - Pause/Resume simulation
//	Arrows/hjkl - Rotate the camera
//	+/-        - Zoom
//	0          - Reset camera
//	C          - Clear trails
//	T          - Cycle color themes
//	?          - Show help overlay
//
// The view never writes to the universe; everything it draws comes from
// [dynamo.Snapshot] copies.
package viz
