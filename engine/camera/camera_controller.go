package camera

import "github.com/go-gl/mathgl/mgl32"

// CameraController owns the free-fly camera pose. It moves along its local axes and
// turns around the world Y axis and its horizontal axis. The Camera reads the pose
// each frame to build the view matrix.
type CameraController interface {
	// Position returns the camera's world-space position.
	Position() mgl32.Vec3

	// SetPosition moves the camera to p without changing its orientation.
	//
	// Parameters:
	//   - p: the world-space position
	SetPosition(p mgl32.Vec3)

	// Forward returns the normalized view direction.
	Forward() mgl32.Vec3

	// Up returns the normalized up vector, orthogonal to Forward.
	Up() mgl32.Vec3

	// Right returns normalize(Forward × Up).
	Right() mgl32.Vec3

	// ViewMatrix returns the look-at matrix from Position along Forward.
	ViewMatrix() mgl32.Mat4

	// RotateX pitches the camera around its horizontal axis.
	//
	// Parameters:
	//   - angle: the pitch angle in radians
	RotateX(angle float32)

	// RotateY turns the camera around the world Y axis.
	//
	// Parameters:
	//   - angle: the yaw angle in radians
	RotateY(angle float32)

	// SetUserInteraction enables or disables input handling. While disabled the
	// cursor is still tracked so re-enabling does not produce a jump.
	//
	// Parameters:
	//   - enabled: whether UpdateInput moves the camera
	SetUserInteraction(enabled bool)

	// UserInteraction reports whether input handling is enabled.
	UserInteraction() bool

	// UpdateInput applies one frame of input: W/S move along Forward, A/D strafe,
	// space and C move along Up, and dragging with the left mouse button turns the
	// camera. Vertical movement and pitch are ignored when the controller is
	// vertically constrained.
	//
	// Parameters:
	//   - in: the input state to poll
	UpdateInput(in InputSource)

	// MoveSpeed returns the distance moved per frame a movement key is held.
	MoveSpeed() float32

	// LookSpeed returns the radians turned per pixel of cursor movement.
	LookSpeed() float32

	// ConstrainVertical reports whether vertical movement and pitch are disabled.
	ConstrainVertical() bool
}
