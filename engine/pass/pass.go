// Package pass draws a scene's meshes through the three stages of a frame: point
// light cube shadows, area light planar shadows and the lit shading pass.
package pass

import (
	"github.com/Carmen-Shannon/meshtree/engine/renderer"
	"github.com/go-gl/mathgl/mgl32"
)

// Shader uniform slots shared by the passes. Shadow programs use slots 0-3, the shading
// program slots 0-7; light uniforms start at light.SlotNumPointLights.
const (
	SlotMVP            = 0
	SlotModel          = 1
	SlotLightPosition  = 2
	SlotShadowFarPlane = 3

	SlotNormalMatrix   = 2
	SlotDiffuseUnit    = 3
	SlotUseTexture     = 4
	SlotCameraPosition = 5
	SlotFarPlane       = 7

	// DiffuseUnit is the texture unit holding a mesh's diffuse texture.
	DiffuseUnit = 0
)

// Item is one mesh prepared for drawing: its GPU resources and world matrix for this frame.
type Item struct {
	Mesh    renderer.Mesh
	Texture renderer.Texture
	Model   mgl32.Mat4
}

// View is the camera state a frame is shaded from.
type View struct {
	View       mgl32.Mat4
	Projection mgl32.Mat4
	Position   mgl32.Vec3
}

// Pass is one stage of the frame. Render issues the stage's device calls for the
// prepared items and returns the number of draws issued.
type Pass interface {
	// Name returns the pass's name, used in logs and draw statistics.
	Name() string

	// Render draws items on dev.
	//
	// Parameters:
	//   - dev: the device to draw on, inside a frame
	//   - view: the camera state
	//   - items: the meshes to draw, in scene order
	//
	// Returns:
	//   - int: the number of draws issued
	Render(dev renderer.Device, view View, items []Item) int
}
