package common

// Virtual key codes for input handling.
// These values match GLFW key codes which use ASCII values for printable keys.
// Reference: https://pkg.go.dev/github.com/go-gl/glfw/v3.3/glfw#Key
const (
	KeyW     = 87 // W key (ASCII)
	KeyA     = 65 // A key (ASCII)
	KeyS     = 83 // S key (ASCII)
	KeyD     = 68 // D key (ASCII)
	KeyC     = 67 // C key (ASCII)
	KeyN     = 78 // N key (ASCII)
	KeyP     = 80 // P key (ASCII)
	KeySpace = 32 // Spacebar (ASCII)

	KeyEsc      = 256 // Escape key (GLFW)
	KeyTab      = 258 // Tab key (GLFW)
	KeyRight    = 262 // Right arrow (GLFW)
	KeyLeft     = 263 // Left arrow (GLFW)
	KeyDown     = 264 // Down arrow (GLFW)
	KeyUp       = 265 // Up arrow (GLFW)
	KeyPageUp   = 266 // Page up (GLFW)
	KeyPageDown = 267 // Page down (GLFW)
)

// Modifier keys.
const (
	KeyLeftShift   = 340 // Left Shift (GLFW)
	KeyLeftControl = 341 // Left Control (GLFW)
)

// Mouse buttons.
const (
	MouseButtonLeft  = 0 // GLFW MouseButton1
	MouseButtonRight = 1 // GLFW MouseButton2
)
