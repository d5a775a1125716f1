package pass

import "github.com/Carmen-Shannon/meshtree/engine/profiler"

// FrameBuilderOption is a functional option for configuring a Frame.
type FrameBuilderOption func(f *frame)

// WithPrepWorkers sets the number of worker goroutines that evaluate world matrices
// before the passes run. Defaults to runtime.NumCPU()-1. A value of 1 or less
// evaluates them on the calling goroutine.
//
// Parameters:
//   - n: the number of prep workers
//
// Returns:
//   - FrameBuilderOption: option function to apply
func WithPrepWorkers(n int) FrameBuilderOption {
	return func(f *frame) {
		f.workers = n
	}
}

// WithProfiler reports each pass's draw count to p after every frame.
//
// Parameters:
//   - p: the profiler
//
// Returns:
//   - FrameBuilderOption: option function to apply
func WithProfiler(p *profiler.Profiler) FrameBuilderOption {
	return func(f *frame) {
		f.prof = p
	}
}
