package engine

import (
	"time"

	"github.com/Carmen-Shannon/meshtree/engine/camera"
	"github.com/Carmen-Shannon/meshtree/engine/loader"
	"github.com/Carmen-Shannon/meshtree/engine/window"
)

// EngineBuilderOption is a functional option for configuring an Engine.
// Use the With* functions to create options that are applied directly to the engine instance.
type EngineBuilderOption func(*engine)

// WithProfiling enables or disables performance profiling output.
//
// Parameters:
//   - enabled: if true, enables performance profiling
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithProfiling(enabled bool) EngineBuilderOption {
	return func(e *engine) {
		e.profilingEnabled = enabled
	}
}

// WithWindow sets the window the engine reads input from and runs its loop on.
// The window also becomes the camera's input source.
//
// Parameters:
//   - w: an opened Window instance
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithWindow(w window.Window) EngineBuilderOption {
	return func(e *engine) {
		e.window = w
	}
}

// WithInput sets the camera's input source, overriding the window's.
//
// Parameters:
//   - in: the input state polled each frame
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithInput(in camera.InputSource) EngineBuilderOption {
	return func(e *engine) {
		e.input = in
	}
}

// WithLoader sets the loader scene meshes are read with. Defaults to a glTF loader.
//
// Parameters:
//   - l: the loader
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithLoader(l loader.Loader) EngineBuilderOption {
	return func(e *engine) {
		e.loader = l
	}
}

// WithMoveStep sets the distance an arrow key moves the selected mesh.
//
// Parameters:
//   - step: world units per key press
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithMoveStep(step float32) EngineBuilderOption {
	return func(e *engine) {
		e.moveStep = step
	}
}

// WithRenderFrameLimit sets an optional render frame rate cap in frames per second.
// Pass 0 to uncap the render loop (default).
//
// Parameters:
//   - fps: maximum render frames per second (0 = uncapped)
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithRenderFrameLimit(fps float64) EngineBuilderOption {
	return func(e *engine) {
		if fps <= 0 {
			e.renderFrameLimit = 0
			return
		}
		e.renderFrameLimit = time.Duration(float64(time.Second) / fps)
	}
}
