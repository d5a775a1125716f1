package camera

import (
	"sync"

	"github.com/Carmen-Shannon/meshtree/common"
	"github.com/go-gl/mathgl/mgl32"
)

// maxPitchCos bounds how close Forward may get to the world Y axis so the horizontal
// axis used for pitching never degenerates.
const maxPitchCos = 0.999

var worldUp = mgl32.Vec3{0, 1, 0}

// cameraControllerImpl is the free-fly implementation of CameraController.
type cameraControllerImpl struct {
	mu *sync.Mutex

	position mgl32.Vec3
	forward  mgl32.Vec3
	up       mgl32.Vec3

	moveSpeed         float32
	lookSpeed         float32
	constrainVertical bool

	interactive bool
	prevCursor  mgl32.Vec2
	hasCursor   bool
}

// Compile-time interface compliance check
var _ CameraController = &cameraControllerImpl{}

// NewCameraController creates a free-fly controller at the origin looking down -Z,
// moving 0.03 units and turning 0.0015 radians per pixel.
//
// Parameters:
//   - options: functional options to configure the controller
//
// Returns:
//   - CameraController: the newly created controller
func NewCameraController(options ...CameraControllerOption) CameraController {
	cc := &cameraControllerImpl{
		mu:          &sync.Mutex{},
		forward:     mgl32.Vec3{0, 0, -1},
		up:          worldUp,
		moveSpeed:   0.03,
		lookSpeed:   0.0015,
		interactive: true,
	}
	for _, option := range options {
		option(cc)
	}
	cc.orthogonalize()
	return cc
}

// --- internal helpers ---

// horizontalAxis returns normalize(worldUp × forward), or false when forward is vertical.
// Caller must hold the mutex.
func (cc *cameraControllerImpl) horizontalAxis() (mgl32.Vec3, bool) {
	axis := worldUp.Cross(cc.forward)
	if axis.LenSqr() < common.AxisEpsilon {
		return mgl32.Vec3{}, false
	}
	return axis.Normalize(), true
}

// orthogonalize recomputes up from forward and the horizontal axis.
// Caller must hold the mutex.
func (cc *cameraControllerImpl) orthogonalize() {
	if axis, ok := cc.horizontalAxis(); ok {
		cc.up = cc.forward.Cross(axis).Normalize()
	}
}

// right returns the camera's local right axis.
// Caller must hold the mutex.
func (cc *cameraControllerImpl) right() mgl32.Vec3 {
	r := cc.forward.Cross(cc.up)
	if r.LenSqr() < common.AxisEpsilon {
		return mgl32.Vec3{}
	}
	return r.Normalize()
}

// Caller must hold the mutex.
func (cc *cameraControllerImpl) rotateX(angle float32) {
	axis, ok := cc.horizontalAxis()
	if !ok {
		return
	}
	f := mgl32.QuatRotate(angle, axis).Rotate(cc.forward).Normalize()
	if abs(f.Dot(worldUp)) > maxPitchCos {
		return
	}
	cc.forward = f
	cc.up = f.Cross(axis).Normalize()
}

// Caller must hold the mutex.
func (cc *cameraControllerImpl) rotateY(angle float32) {
	cc.forward = mgl32.QuatRotate(angle, worldUp).Rotate(cc.forward).Normalize()
	cc.orthogonalize()
}

func abs(v float32) float32 {
	if v < 0 {
		return -v
	}
	return v
}

// --- CameraController implementation ---

func (cc *cameraControllerImpl) Position() mgl32.Vec3 {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	return cc.position
}

func (cc *cameraControllerImpl) SetPosition(p mgl32.Vec3) {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	cc.position = p
}

func (cc *cameraControllerImpl) Forward() mgl32.Vec3 {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	return cc.forward
}

func (cc *cameraControllerImpl) Up() mgl32.Vec3 {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	return cc.up
}

func (cc *cameraControllerImpl) Right() mgl32.Vec3 {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	return cc.right()
}

func (cc *cameraControllerImpl) ViewMatrix() mgl32.Mat4 {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	return common.LookAt(cc.position, cc.position.Add(cc.forward), cc.up)
}

func (cc *cameraControllerImpl) RotateX(angle float32) {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	cc.rotateX(angle)
}

func (cc *cameraControllerImpl) RotateY(angle float32) {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	cc.rotateY(angle)
}

func (cc *cameraControllerImpl) SetUserInteraction(enabled bool) {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	cc.interactive = enabled
}

func (cc *cameraControllerImpl) UserInteraction() bool {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	return cc.interactive
}

func (cc *cameraControllerImpl) UpdateInput(in InputSource) {
	cc.mu.Lock()
	defer cc.mu.Unlock()

	x, y := in.CursorPos()
	cursor := mgl32.Vec2{float32(x), float32(y)}
	if !cc.hasCursor {
		cc.prevCursor = cursor
		cc.hasCursor = true
	}
	delta := cc.prevCursor.Sub(cursor).Mul(cc.lookSpeed)
	cc.prevCursor = cursor

	if !cc.interactive {
		return
	}

	right := cc.right()
	step := func(key int, dir mgl32.Vec3, sign float32) {
		if in.IsKeyPressed(key) {
			cc.position = cc.position.Add(dir.Mul(sign * cc.moveSpeed))
		}
	}
	step(common.KeyA, right, -1)
	step(common.KeyD, right, 1)
	step(common.KeyW, cc.forward, 1)
	step(common.KeyS, cc.forward, -1)
	if !cc.constrainVertical {
		step(common.KeySpace, cc.up, 1)
		step(common.KeyC, cc.up, -1)
	}

	if in.IsMouseButtonPressed(common.MouseButtonLeft) {
		if delta.X() != 0 {
			cc.rotateY(delta.X())
		}
		if !cc.constrainVertical && delta.Y() != 0 {
			cc.rotateX(delta.Y())
		}
	}
}

func (cc *cameraControllerImpl) MoveSpeed() float32 {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	return cc.moveSpeed
}

func (cc *cameraControllerImpl) LookSpeed() float32 {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	return cc.lookSpeed
}

func (cc *cameraControllerImpl) ConstrainVertical() bool {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	return cc.constrainVertical
}
