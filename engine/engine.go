package engine

import (
	"log"
	"time"

	"github.com/Carmen-Shannon/meshtree/engine/camera"
	"github.com/Carmen-Shannon/meshtree/engine/config"
	"github.com/Carmen-Shannon/meshtree/engine/light"
	"github.com/Carmen-Shannon/meshtree/engine/loader"
	"github.com/Carmen-Shannon/meshtree/engine/pass"
	"github.com/Carmen-Shannon/meshtree/engine/profiler"
	"github.com/Carmen-Shannon/meshtree/engine/renderer"
	"github.com/Carmen-Shannon/meshtree/engine/scene"
	"github.com/Carmen-Shannon/meshtree/engine/window"
	"github.com/pkg/errors"
)

// DefaultMoveStep is the distance an arrow key moves the selected mesh.
const DefaultMoveStep float32 = 0.1

// engine implements the Engine interface.
// Owns the device, scene, lights, camera and frame and drives them from one goroutine.
type engine struct {
	cfg config.RenderConfig

	window window.Window
	input  camera.InputSource
	device renderer.Device
	loader loader.Loader

	lights light.Manager
	scene  scene.Scene
	camera camera.Camera
	frame  pass.Frame

	profiler         *profiler.Profiler
	profilingEnabled bool

	tickCallback     func(deltaTime float32)
	renderFrameLimit time.Duration // minimum frame duration; 0 = uncapped
	lastFrame        time.Time

	selected int
	moveStep float32
	running  bool
}

// Engine is the main entry point for the viewer.
// It builds the scene from a RenderConfig and renders it one frame per window
// message loop iteration: input, tick callback, frame, profiler.
type Engine interface {
	// Window returns the underlying window, nil when running headless.
	Window() window.Window

	// Device returns the device the engine draws on.
	Device() renderer.Device

	// Scene returns the scene.
	Scene() scene.Scene

	// Lights returns the light manager.
	Lights() light.Manager

	// Camera returns the camera.
	Camera() camera.Camera

	// Frame returns the frame driver.
	Frame() pass.Frame

	// EnableProfiler enables performance profiling output to the log.
	EnableProfiler()

	// DisableProfiler disables performance profiling output.
	DisableProfiler()

	// SetTickCallback registers the function called once per frame before rendering.
	//
	// Parameters:
	//   - callback: function receiving the delta time in seconds
	SetTickCallback(callback func(deltaTime float32))

	// SetRenderFrameLimit sets an optional frame rate cap in frames per second.
	// Pass 0 to uncap the loop (default).
	//
	// Parameters:
	//   - fps: maximum frames per second (0 = uncapped)
	SetRenderFrameLimit(fps float64)

	// Selected returns the index of the mesh the arrow keys move, or -1 without meshes.
	Selected() int

	// SelectNext selects the next mesh, wrapping around.
	SelectNext()

	// SelectPrevious selects the previous mesh, wrapping around.
	SelectPrevious()

	// MoveSelected moves the selected mesh by delta unless the move collides.
	//
	// Returns:
	//   - bool: true if the mesh moved
	MoveSelected(dx, dy, dz float32) bool

	// HandleKey applies a key press: Tab or N selects the next mesh, P the previous
	// one, arrows move the selection in the XZ plane and Page Up/Down move it vertically.
	//
	// Parameters:
	//   - key: the pressed key code
	HandleKey(key int)

	// RenderFrame runs one iteration of the loop.
	//
	// Returns:
	//   - error: an error if the frame could not be rendered
	RenderFrame() error

	// Run drives the loop from the window's message loop until the window closes.
	// Without a window it returns an error; use RunFrames.
	Run() error

	// RunFrames renders n frames back to back, for headless use.
	//
	// Parameters:
	//   - n: the number of frames
	//
	// Returns:
	//   - error: the first frame error
	RunFrames(n int) error

	// Quit stops Run after the current frame.
	Quit()

	// Release frees the scene, lights and device.
	Release()
}

var _ Engine = &engine{}

// NewEngine creates an engine drawing on dev and builds cfg's scene.
// A pass whose program fails to compile is logged and skipped; scene entries that
// fail to load are logged and left out.
//
// Parameters:
//   - dev: the device to draw on
//   - cfg: the render configuration and startup scene
//   - options: functional options for engine configuration
//
// Returns:
//   - Engine: the newly created engine
//   - error: an error if cfg is invalid
func NewEngine(dev renderer.Device, cfg config.RenderConfig, options ...EngineBuilderOption) (Engine, error) {
	if err := cfg.Validate(light.MaxPointLights, light.MaxAreaLights); err != nil {
		return nil, err
	}
	e := &engine{
		cfg:              cfg,
		device:           dev,
		profiler:         profiler.NewProfiler(),
		profilingEnabled: cfg.Profiling,
		moveStep:         DefaultMoveStep,
		selected:         -1,
	}
	for _, opt := range options {
		opt(e)
	}
	if e.loader == nil {
		e.loader = loader.NewLoader(loader.BackendTypeGLTF)
	}
	if e.window != nil && e.input == nil {
		e.input = e.window
	}

	e.lights = light.NewManager(dev,
		light.WithShadowMapSize(cfg.Shadows.MapSize),
		light.WithShadowPlanes(cfg.Shadows.Near, cfg.Shadows.Far),
		light.WithAreaShadowFOV(cfg.Shadows.AreaFOV),
		light.WithShadowBias(cfg.Shadows.Bias),
	)
	e.scene = scene.NewScene(dev, e.lights)
	if err := e.buildScene(); err != nil {
		e.scene.Release()
		e.lights.Release()
		return nil, errors.Wrap(err, "build scene")
	}
	if e.scene.NumMeshes() > 0 {
		e.selected = 0
	}

	width, height := dev.Size()
	e.camera = camera.NewCamera(
		camera.WithFov(cfg.Camera.VerticalFOV),
		camera.WithZoomedFov(cfg.Camera.ZoomedVerticalFOV),
		camera.WithAspect(aspect(width, height)),
		camera.WithPlanes(cfg.Camera.Near, cfg.Camera.Far),
		camera.WithController(camera.NewCameraController(
			camera.WithPosition(cfg.Camera.Position),
			camera.WithForward(cfg.Camera.Forward),
			camera.WithMoveSpeed(cfg.Camera.MoveSpeed),
			camera.WithLookSpeed(cfg.Camera.LookSpeed),
			camera.WithConstrainVertical(cfg.Camera.ConstrainVertical),
		)),
	)

	frameOpts := []pass.FrameBuilderOption{pass.WithProfiler(e.profiler)}
	if cfg.PrepWorkers > 0 {
		frameOpts = append(frameOpts, pass.WithPrepWorkers(cfg.PrepWorkers))
	}
	frame, err := pass.NewFrame(dev, e.scene, e.lights, frameOpts...)
	if err != nil {
		log.Printf("[Renderer] frame built with a disabled pass: %v", err)
	}
	e.frame = frame

	if e.window != nil {
		e.window.SetResizeCallback(e.resize)
		e.window.SetKeyDownCallback(e.HandleKey)
	}
	return e, nil
}

func aspect(width, height int) float32 {
	if height <= 0 {
		return 1
	}
	return float32(width) / float32(height)
}

func (e *engine) resize(width, height int) {
	if width <= 0 || height <= 0 {
		return
	}
	e.device.Resize(width, height)
	e.camera.SetAspect(aspect(width, height))
}

func (e *engine) Window() window.Window   { return e.window }
func (e *engine) Device() renderer.Device { return e.device }
func (e *engine) Scene() scene.Scene      { return e.scene }
func (e *engine) Lights() light.Manager   { return e.lights }
func (e *engine) Camera() camera.Camera   { return e.camera }
func (e *engine) Frame() pass.Frame       { return e.frame }
func (e *engine) EnableProfiler()         { e.profilingEnabled = true }
func (e *engine) DisableProfiler()        { e.profilingEnabled = false }
func (e *engine) Quit()                   { e.running = false }

// SetTickCallback registers the function called once per frame before rendering.
func (e *engine) SetTickCallback(callback func(deltaTime float32)) {
	e.tickCallback = callback
}

// SetRenderFrameLimit sets an optional render frame rate cap.
// Pass 0 to uncap the render loop.
func (e *engine) SetRenderFrameLimit(fps float64) {
	if fps <= 0 {
		e.renderFrameLimit = 0
		return
	}
	e.renderFrameLimit = time.Duration(float64(time.Second) / fps)
}

func (e *engine) RenderFrame() error {
	now := time.Now()
	if e.lastFrame.IsZero() {
		e.lastFrame = now
	}
	dt := float32(now.Sub(e.lastFrame).Seconds())
	e.lastFrame = now

	e.camera.Update(e.input)
	if e.tickCallback != nil {
		e.tickCallback(dt)
	}

	view := pass.View{
		View:       e.camera.ViewMatrix(),
		Projection: e.camera.ProjectionMatrix(),
		Position:   e.camera.Position(),
	}
	if err := e.frame.Render(view); err != nil {
		return err
	}

	if e.profilingEnabled {
		e.profiler.Tick()
	}

	// Frame rate limiting
	if e.renderFrameLimit > 0 {
		if remaining := e.renderFrameLimit - time.Since(now); remaining > 0 {
			time.Sleep(remaining)
		}
	}
	return nil
}

func (e *engine) Run() error {
	if e.window == nil {
		return errors.New("engine: Run needs a window")
	}
	e.running = true
	e.window.SetUpdateCallback(func() {
		if !e.running {
			_ = e.window.Close()
			return
		}
		if err := e.RenderFrame(); err != nil {
			log.Printf("[Renderer] %v", err)
		}
	})
	e.window.ProcessMessages()
	return nil
}

func (e *engine) RunFrames(n int) error {
	e.running = true
	for i := 0; i < n && e.running; i++ {
		if err := e.RenderFrame(); err != nil {
			return errors.Wrapf(err, "frame %d", i)
		}
	}
	return nil
}

func (e *engine) Release() {
	if e.scene != nil {
		e.scene.Release()
	}
	if e.lights != nil {
		e.lights.Release()
	}
	e.device.Release()
}
