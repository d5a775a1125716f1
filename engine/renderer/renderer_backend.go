package renderer

import (
	"github.com/cogentcore/webgpu/wgpu"
	"github.com/pkg/errors"
)

// RendererBackendType identifies the Device implementation returned by NewDevice.
type RendererBackendType int

const (
	// BackendTypeWGPU selects the WebGPU device drawing to a window surface.
	BackendTypeWGPU RendererBackendType = iota

	// BackendTypeRecording selects the headless device that records every call.
	BackendTypeRecording
)

// PresentMode controls how rendered frames are presented to the display surface.
type PresentMode int

const (
	// PresentModeVSync waits for the next vertical blank before presenting.
	PresentModeVSync PresentMode = iota

	// PresentModeUncapped presents frames immediately without waiting for vertical blank.
	PresentModeUncapped
)

func (m PresentMode) wgpu() wgpu.PresentMode {
	if m == PresentModeVSync {
		return wgpu.PresentModeFifo
	}
	return wgpu.PresentModeImmediate
}

// defaultUniformRingSize holds 4096 draws of a 1 KiB uniform block per submission.
const defaultUniformRingSize = 4 << 20

// deviceConfig collects the DeviceBuilderOption values shared by every backend.
type deviceConfig struct {
	surfaceDescriptor    *wgpu.SurfaceDescriptor
	width                int
	height               int
	presentMode          PresentMode
	forceFallbackAdapter bool
	clearColor           wgpu.Color
	uniformRingSize      uint64
}

// NewDevice creates a Device for the given backend.
//
// Parameters:
//   - backend: the backend implementation to create
//   - options: functional options configuring the device
//
// Returns:
//   - Device: the created device
//   - error: an error if the backend could not be initialized
func NewDevice(backend RendererBackendType, options ...DeviceBuilderOption) (Device, error) {
	cfg := &deviceConfig{
		width:           800,
		height:          600,
		presentMode:     PresentModeVSync,
		clearColor:      wgpu.Color{R: 0.1, G: 0.1, B: 0.1, A: 1.0},
		uniformRingSize: defaultUniformRingSize,
	}
	for _, opt := range options {
		opt(cfg)
	}

	switch backend {
	case BackendTypeRecording:
		return NewRecordingDevice(cfg.width, cfg.height), nil
	case BackendTypeWGPU:
		if cfg.surfaceDescriptor == nil {
			return nil, errors.New("renderer: wgpu backend requires a surface descriptor")
		}
		return newWGPUDevice(cfg)
	default:
		return nil, errors.Errorf("renderer: unknown backend type %d", backend)
	}
}
