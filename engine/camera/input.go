package camera

// InputSource is the polled keyboard and mouse state the camera reads each frame.
// Key and button codes follow common's GLFW-compatible constants.
type InputSource interface {
	// IsKeyPressed reports whether the key is currently held.
	IsKeyPressed(key int) bool

	// IsMouseButtonPressed reports whether the mouse button is currently held.
	IsMouseButtonPressed(button int) bool

	// CursorPos returns the cursor position in window coordinates.
	CursorPos() (x, y float64)
}
