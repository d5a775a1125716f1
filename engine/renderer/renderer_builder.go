package renderer

import (
	"github.com/cogentcore/webgpu/wgpu"
	"github.com/go-gl/mathgl/mgl32"
)

// DeviceBuilderOption is a functional option applied to a device during construction via NewDevice.
type DeviceBuilderOption func(*deviceConfig)

// WithSurfaceDescriptor sets the window surface the WGPU device presents to.
//
// Parameters:
//   - descriptor: the platform surface descriptor, usually from the window
//
// Returns:
//   - DeviceBuilderOption: a function that applies the surface option
func WithSurfaceDescriptor(descriptor *wgpu.SurfaceDescriptor) DeviceBuilderOption {
	return func(c *deviceConfig) {
		c.surfaceDescriptor = descriptor
	}
}

// WithSize sets the initial screen size in pixels.
func WithSize(width, height int) DeviceBuilderOption {
	return func(c *deviceConfig) {
		c.width = width
		c.height = height
	}
}

// WithPresentMode sets the surface present mode which controls how frames are delivered to the display.
//
// Parameters:
//   - mode: the PresentMode to use (VSync or Uncapped)
//
// Returns:
//   - DeviceBuilderOption: a function that applies the present mode option
func WithPresentMode(mode PresentMode) DeviceBuilderOption {
	return func(c *deviceConfig) {
		c.presentMode = mode
	}
}

// WithForceFallbackAdapter forces WGPU to use a CPU/software fallback adapter instead of
// hardware GPU acceleration. This requires a software Vulkan ICD to be installed on the system
// (e.g. SwiftShader or lavapipe).
//
// Parameters:
//   - force: true to force the software fallback adapter
//
// Returns:
//   - DeviceBuilderOption: a function that applies the fallback option
func WithForceFallbackAdapter(force bool) DeviceBuilderOption {
	return func(c *deviceConfig) {
		c.forceFallbackAdapter = force
	}
}

// WithClearColor sets the color the screen is cleared to at the start of each frame.
func WithClearColor(color mgl32.Vec3) DeviceBuilderOption {
	return func(c *deviceConfig) {
		c.clearColor = wgpu.Color{R: float64(color[0]), G: float64(color[1]), B: float64(color[2]), A: 1.0}
	}
}

// WithUniformRingSize sets the byte size of the per-submission uniform ring buffer.
// When a submission outgrows it the device submits early and continues.
func WithUniformRingSize(size uint64) DeviceBuilderOption {
	return func(c *deviceConfig) {
		c.uniformRingSize = size
	}
}
