package window

import (
	"runtime"

	"github.com/Carmen-Shannon/meshtree/engine/camera"
	"github.com/cogentcore/webgpu/wgpu"
	"github.com/pkg/errors"
)

// Window defines the interface for a platform window.
// Wraps platform-specific window implementations with a common interface and
// doubles as the camera's polled input source.
type Window interface {
	camera.InputSource

	// SetUpdateCallback sets the function called each message loop iteration.
	//
	// Parameters:
	//   - callback: function to call (or nil to disable)
	SetUpdateCallback(callback func())

	// SetResizeCallback sets the function called when the window is resized.
	//
	// Parameters:
	//   - callback: function receiving new width and height in pixels
	SetResizeCallback(callback func(width, height int))

	// SetKeyDownCallback sets the function called when a key is pressed or repeats.
	//
	// Parameters:
	//   - callback: function receiving the key code
	SetKeyDownCallback(callback func(key int))

	// SetKeyUpCallback sets the function called when a key is released.
	//
	// Parameters:
	//   - callback: function receiving the key code
	SetKeyUpCallback(callback func(key int))

	// SurfaceDescriptor returns the platform surface the WGPU device presents to.
	//
	// Returns:
	//   - *wgpu.SurfaceDescriptor: the surface descriptor, nil before the window exists
	SurfaceDescriptor() *wgpu.SurfaceDescriptor

	// IsRunning reports whether the window is open.
	IsRunning() bool

	// Close destroys the window.
	Close() error

	// ProcessMessages runs the message loop until the window closes, calling the
	// update callback once per iteration.
	ProcessMessages()

	// Width returns the framebuffer width in pixels.
	Width() int

	// Height returns the framebuffer height in pixels.
	Height() int
}

// engineWindow is the implementation of the Window interface.
// Holds window configuration, GLFW state, and event callbacks.
type engineWindow struct {
	// title is the window title displayed in the title bar.
	title string

	// minWidth and minHeight bound the window during resize.
	minWidth  int
	minHeight int

	// width is the current framebuffer width in pixels.
	width int

	// height is the current framebuffer height in pixels.
	height int

	// resizable allows the user to resize the window.
	resizable bool

	// internalWindow holds the platform-specific window data (glfwWindow).
	internalWindow *glfwWindow

	onUpdate  func()
	onResize  func(width, height int)
	onKeyDown func(key int)
	onKeyUp   func(key int)
}

var _ Window = &engineWindow{}

// NewWindow creates and opens a new Window with the specified options.
// Applies default values first, then each option in order.
//
// Parameters:
//   - options: functional options to configure the window
//
// Returns:
//   - Window: the opened window
//   - error: an error if the platform window could not be created
func NewWindow(options ...WindowBuilderOption) (Window, error) {
	w := &engineWindow{
		title:     "meshtree",
		minWidth:  320,
		minHeight: 240,
		width:     1280,
		height:    720,
		resizable: true,
	}
	for _, opt := range options {
		opt(w)
	}
	if err := newPlatformWindow(w); err != nil {
		return nil, errors.Wrap(err, "create platform window")
	}
	return w, nil
}

func (w *engineWindow) SetUpdateCallback(callback func()) {
	w.onUpdate = callback
}

func (w *engineWindow) SetResizeCallback(callback func(width, height int)) {
	w.onResize = callback
}

func (w *engineWindow) SetKeyDownCallback(callback func(key int)) {
	w.onKeyDown = callback
}

func (w *engineWindow) SetKeyUpCallback(callback func(key int)) {
	w.onKeyUp = callback
}

func (w *engineWindow) SurfaceDescriptor() *wgpu.SurfaceDescriptor {
	return platformGetSurfaceDescriptor(w)
}

func (w *engineWindow) IsRunning() bool {
	return platformIsRunningCheck(w)
}

func (w *engineWindow) Close() error {
	return platformCloseWindow(w)
}

func (w *engineWindow) ProcessMessages() {
	for w.IsRunning() {
		if succ := platformProcessMessages(w); !succ {
			break
		}

		if w.onUpdate != nil {
			w.onUpdate()
		}

		runtime.Gosched()
	}
}

func (w *engineWindow) Width() int {
	return w.width
}

func (w *engineWindow) Height() int {
	return w.height
}

func (w *engineWindow) IsKeyPressed(key int) bool {
	return platformKeyPressed(w, key)
}

func (w *engineWindow) IsMouseButtonPressed(button int) bool {
	return platformMouseButtonPressed(w, button)
}

func (w *engineWindow) CursorPos() (float64, float64) {
	return platformCursorPos(w)
}
