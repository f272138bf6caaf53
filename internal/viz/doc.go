// Package viz provides terminal-based visualization for coastal runs.
//
// The package implements an interactive TUI using the Bubble Tea framework:
//
//   - [Model]: live view stepping a simulator, with a gauge chart and replay
//   - [NewApp]: scenario picker that opens a live view
//   - [Canvas]: Braille-based pixel canvas for profiles and plan views
//   - Theme selection (harbour, chart, storm, reef, sonar), cycled with t
//
// One-dimensional fields are drawn as a surface profile. Two-dimensional
// fields are drawn in plan, or as a rotatable wireframe surface.
//
// # Key Bindings
//
//	Space - Pause/Resume
//	R     - Restart the run
//	F     - Cycle displayed field
//	S     - Toggle 3D surface
//	T     - Cycle color themes
//	G     - Toggle GIF recording
//	?     - Show help overlay
//	[ ]   - Replay (rewind/forward)
//
// # Recording
//
// Recordings are saved to the current directory as GIF animations named
// after the run.
package viz
