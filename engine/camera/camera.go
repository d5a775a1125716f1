package camera

import (
	"sync"

	"github.com/Carmen-Shannon/meshtree/common"
	"github.com/go-gl/mathgl/mgl32"
)

type cameraImpl struct {
	mu *sync.Mutex

	fov       float32
	zoomedFov float32
	zoomed    bool
	aspect    float32
	near      float32
	far       float32

	viewMatrix           mgl32.Mat4
	projectionMatrix     mgl32.Mat4
	viewProjectionMatrix mgl32.Mat4

	controller CameraController
}

// Camera defines the interface for the camera system.
// The camera holds perspective settings and computes view/projection matrices
// from an attached CameraController each frame via Update().
type Camera interface {
	// Fov returns the vertical field of view in degrees currently in effect:
	// the zoomed FOV while zoomed, the base FOV otherwise.
	//
	// Returns:
	//   - float32: field of view in degrees
	Fov() float32

	// SetFov sets the base vertical field of view in degrees and recomputes matrices.
	//
	// Parameters:
	//   - fov: field of view in degrees
	SetFov(fov float32)

	// SetZoomedFov sets the vertical field of view in degrees used while zoomed.
	//
	// Parameters:
	//   - fov: field of view in degrees
	SetZoomedFov(fov float32)

	// Zoomed reports whether the zoomed field of view is in effect.
	Zoomed() bool

	// SetZoomed switches between the zoomed and base field of view.
	//
	// Parameters:
	//   - zoomed: whether to use the zoomed field of view
	SetZoomed(zoomed bool)

	// Aspect returns the aspect ratio (width / height).
	//
	// Returns:
	//   - float32: the aspect ratio
	Aspect() float32

	// SetAspect sets the aspect ratio (width / height) and recomputes matrices.
	//
	// Parameters:
	//   - aspect: the aspect ratio
	SetAspect(aspect float32)

	// Near returns the near clipping plane distance.
	Near() float32

	// Far returns the far clipping plane distance.
	Far() float32

	// Position returns the controller's position, or the origin without a controller.
	Position() mgl32.Vec3

	// ViewMatrix returns the current view matrix.
	ViewMatrix() mgl32.Mat4

	// ProjectionMatrix returns the current perspective projection.
	ProjectionMatrix() mgl32.Mat4

	// ViewProjectionMatrix returns ProjectionMatrix · ViewMatrix.
	ViewProjectionMatrix() mgl32.Mat4

	// Controller returns the attached CameraController.
	// Returns nil if no controller is attached.
	//
	// Returns:
	//   - CameraController: the attached controller or nil
	Controller() CameraController

	// SetController attaches a CameraController to the camera.
	//
	// Parameters:
	//   - ctrl: the controller to attach
	SetController(ctrl CameraController)

	// Update feeds one frame of input to the controller, applies left control as
	// the zoom key and recomputes matrices. Should be called once per frame.
	// A nil input only recomputes matrices.
	//
	// Parameters:
	//   - in: the input state to poll, may be nil
	Update(in InputSource)
}

var _ Camera = &cameraImpl{}

// NewCamera creates a new Camera with an 80° field of view, 30° while zoomed, and
// clipping planes at 0.1 and 30.
//
// Parameters:
//   - options: functional options to configure the camera
//
// Returns:
//   - Camera: the newly created camera
func NewCamera(options ...CameraBuilderOption) Camera {
	c := &cameraImpl{
		mu:                   &sync.Mutex{},
		fov:                  80,
		zoomedFov:            30,
		aspect:               1.0,
		near:                 0.1,
		far:                  30.0,
		viewMatrix:           mgl32.Ident4(),
		projectionMatrix:     mgl32.Ident4(),
		viewProjectionMatrix: mgl32.Ident4(),
	}
	for _, option := range options {
		option(c)
	}
	c.updateMatrices()
	return c
}

func (c *cameraImpl) Fov() float32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.currentFov()
}

func (c *cameraImpl) SetFov(fov float32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.fov = fov
	c.updateMatrices()
}

func (c *cameraImpl) SetZoomedFov(fov float32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.zoomedFov = fov
	c.updateMatrices()
}

func (c *cameraImpl) Zoomed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.zoomed
}

func (c *cameraImpl) SetZoomed(zoomed bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.zoomed = zoomed
	c.updateMatrices()
}

func (c *cameraImpl) Aspect() float32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.aspect
}

func (c *cameraImpl) SetAspect(aspect float32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.aspect = aspect
	c.updateMatrices()
}

func (c *cameraImpl) Near() float32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.near
}

func (c *cameraImpl) Far() float32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.far
}

func (c *cameraImpl) Position() mgl32.Vec3 {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.controller == nil {
		return mgl32.Vec3{}
	}
	return c.controller.Position()
}

func (c *cameraImpl) ViewMatrix() mgl32.Mat4 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.viewMatrix
}

func (c *cameraImpl) ProjectionMatrix() mgl32.Mat4 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.projectionMatrix
}

func (c *cameraImpl) ViewProjectionMatrix() mgl32.Mat4 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.viewProjectionMatrix
}

func (c *cameraImpl) Controller() CameraController {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.controller
}

func (c *cameraImpl) SetController(ctrl CameraController) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.controller = ctrl
	c.updateMatrices()
}

func (c *cameraImpl) Update(in InputSource) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if in != nil {
		if c.controller != nil {
			c.controller.UpdateInput(in)
		}
		c.zoomed = in.IsKeyPressed(common.KeyLeftControl)
	}
	c.updateMatrices()
}

// currentFov returns the field of view in effect. Caller must hold the mutex.
func (c *cameraImpl) currentFov() float32 {
	if c.zoomed {
		return c.zoomedFov
	}
	return c.fov
}

// updateMatrices recalculates the view, projection and view-projection matrices.
// The view matrix is only refreshed when a controller is attached.
// Caller must hold the mutex.
func (c *cameraImpl) updateMatrices() {
	if c.controller != nil {
		c.viewMatrix = c.controller.ViewMatrix()
	}
	c.projectionMatrix = common.Perspective(c.currentFov(), c.aspect, c.near, c.far)
	c.viewProjectionMatrix = c.projectionMatrix.Mul4(c.viewMatrix)
}
