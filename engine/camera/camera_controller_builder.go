package camera

import "github.com/go-gl/mathgl/mgl32"

// CameraControllerOption is a functional option for configuring a CameraController.
type CameraControllerOption func(*cameraControllerImpl)

// WithPosition sets the initial camera position.
//
// Parameters:
//   - p: the world-space position
//
// Returns:
//   - CameraControllerOption: functional option to set the position
func WithPosition(p mgl32.Vec3) CameraControllerOption {
	return func(cc *cameraControllerImpl) {
		cc.position = p
	}
}

// WithForward sets the initial view direction. A zero vector is ignored.
//
// Parameters:
//   - f: the view direction, normalized by the controller
//
// Returns:
//   - CameraControllerOption: functional option to set the view direction
func WithForward(f mgl32.Vec3) CameraControllerOption {
	return func(cc *cameraControllerImpl) {
		if f.Len() > 0 {
			cc.forward = f.Normalize()
		}
	}
}

// WithMoveSpeed sets the distance moved per frame a movement key is held.
//
// Parameters:
//   - speed: world units per frame
//
// Returns:
//   - CameraControllerOption: functional option to set the move speed
func WithMoveSpeed(speed float32) CameraControllerOption {
	return func(cc *cameraControllerImpl) {
		cc.moveSpeed = speed
	}
}

// WithLookSpeed sets the radians turned per pixel of cursor movement.
//
// Parameters:
//   - speed: radians per pixel
//
// Returns:
//   - CameraControllerOption: functional option to set the look speed
func WithLookSpeed(speed float32) CameraControllerOption {
	return func(cc *cameraControllerImpl) {
		cc.lookSpeed = speed
	}
}

// WithConstrainVertical disables vertical movement and pitch.
//
// Parameters:
//   - constrain: whether to lock the camera to its horizontal plane
//
// Returns:
//   - CameraControllerOption: functional option to set the vertical constraint
func WithConstrainVertical(constrain bool) CameraControllerOption {
	return func(cc *cameraControllerImpl) {
		cc.constrainVertical = constrain
	}
}
