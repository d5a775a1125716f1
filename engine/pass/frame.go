package pass

import (
	"log"
	"runtime"
	"sync"
	"time"

	"github.com/Carmen-Shannon/automation/tools/worker"
	"github.com/Carmen-Shannon/meshtree/engine/light"
	"github.com/Carmen-Shannon/meshtree/engine/profiler"
	"github.com/Carmen-Shannon/meshtree/engine/renderer"
	"github.com/Carmen-Shannon/meshtree/engine/scene"
	"github.com/pkg/errors"
)

// Stats describes the last rendered frame.
type Stats struct {
	// Meshes is the number of items drawn by each pass.
	Meshes int
	// Poses is the number of area light poses pushed to the light manager.
	Poses int
	// Draws holds the draw count of each pass by pass name.
	Draws map[string]int
}

type frame struct {
	device  renderer.Device
	scene   scene.Scene
	lights  light.Manager
	passes  []Pass
	stats   Stats
	prof    *profiler.Profiler
	workers int
	pool    worker.DynamicWorkerPool
}

// Frame renders a scene once per call, in a fixed order: area light poses are pushed
// from the scene graph, point light shadows are drawn, then area light shadows, then
// the shading pass, with a device barrier between consecutive passes so each pass sees
// the previous pass's depth output.
//
// World matrices for the frame are evaluated up front, in parallel when prep workers
// are configured. Everything else runs on the calling goroutine.
type Frame interface {
	// Render draws one frame.
	//
	// Parameters:
	//   - view: the camera state to shade from
	//
	// Returns:
	//   - error: an error if the device could not begin the frame
	Render(view View) error

	// Passes returns the passes in render order.
	Passes() []Pass

	// Stats returns the statistics of the last rendered frame.
	Stats() Stats
}

var _ Frame = &frame{}

// NewFrame builds the point shadow, area shadow and shading passes on dev for the
// given scene and lights. A pass whose program fails to compile is kept but skipped
// at render time; the first such failure is returned alongside the usable Frame.
//
// Parameters:
//   - dev: the device to draw on
//   - sc: the scene whose meshes are drawn
//   - lights: the light manager
//   - opts: variadic list of FrameBuilderOption functions to configure the frame
//
// Returns:
//   - Frame: the frame, never nil
//   - error: the first pass build failure, if any
func NewFrame(dev renderer.Device, sc scene.Scene, lights light.Manager, opts ...FrameBuilderOption) (Frame, error) {
	f := &frame{
		device:  dev,
		scene:   sc,
		lights:  lights,
		workers: max(runtime.NumCPU()-1, 1),
	}
	for _, opt := range opts {
		opt(f)
	}

	var firstErr error
	for _, build := range []func(renderer.Device, light.Manager) (Pass, error){
		NewPointShadowPass,
		NewAreaShadowPass,
		NewShadingPass,
	} {
		p, err := build(dev, lights)
		if err != nil {
			log.Printf("[Frame] %v", err)
			if firstErr == nil {
				firstErr = err
			}
		}
		f.passes = append(f.passes, p)
	}

	if f.workers > 1 {
		f.pool = worker.NewDynamicWorkerPool(f.workers, 256, 1*time.Second)
	}
	return f, firstErr
}

func (f *frame) Render(view View) error {
	if err := f.device.BeginFrame(); err != nil {
		return errors.Wrap(err, "render frame")
	}

	items := f.prepare()
	stats := Stats{
		Meshes: len(items),
		Poses:  f.scene.Graph().PushLightPoses(f.lights),
		Draws:  make(map[string]int, len(f.passes)),
	}

	for i, p := range f.passes {
		if i > 0 {
			f.device.Barrier()
		}
		n := p.Render(f.device, view, items)
		stats.Draws[p.Name()] = n
		if f.prof != nil {
			f.prof.RecordDraws(p.Name(), n)
		}
	}
	f.device.EndFrame()

	f.stats = stats
	return nil
}

func (f *frame) Passes() []Pass {
	return append([]Pass(nil), f.passes...)
}

func (f *frame) Stats() Stats {
	return f.stats
}

// prepare gathers the scene's meshes and evaluates their world matrices. Matrix
// evaluation only reads the graph, so it fans out on the worker pool; a WaitGroup
// marks the end of the batch since the pool itself only drains when idle.
func (f *frame) prepare() []Item {
	n := f.scene.NumMeshes()
	items := make([]Item, n)
	for i := range items {
		items[i].Mesh = f.scene.MeshAt(i)
		items[i].Texture = f.scene.TextureAt(i)
	}

	if f.pool == nil || n < 2 {
		for i := range items {
			items[i].Model = f.scene.ModelMatrix(i)
		}
		return items
	}

	var wg sync.WaitGroup
	for i := range items {
		wg.Add(1)
		f.pool.SubmitTask(worker.Task{
			ID: i,
			Do: func() (any, error) {
				defer wg.Done()
				items[i].Model = f.scene.ModelMatrix(i)
				return nil, nil
			},
		})
	}
	wg.Wait()
	return items
}
