package light

import (
	"github.com/Carmen-Shannon/meshtree/common"
	"github.com/Carmen-Shannon/meshtree/engine/renderer"
	"github.com/go-gl/mathgl/mgl32"
)

const (
	// MaxPointLights is the number of point lights the shading program evaluates.
	MaxPointLights = 4

	// MaxAreaLights is the number of area lights the shading program evaluates.
	MaxAreaLights = 4
)

// PointLight emits in all directions from a position and casts omnidirectional
// shadows through a six-face cube shadow map.
type PointLight struct {
	// Position is the world-space position of the light.
	Position mgl32.Vec3

	// Color is the RGB color of the light.
	Color mgl32.Vec3

	// Shadow is the cube shadow map, created by the Manager when the light is added.
	Shadow renderer.ShadowMap
}

// FaceViews returns the view matrices of the six cube faces in +X, -X, +Y, -Y, +Z, -Z order.
//
// Returns:
//   - [6]mgl32.Mat4: one view matrix per cube face
func (l *PointLight) FaceViews() [6]mgl32.Mat4 {
	var views [6]mgl32.Mat4
	for i, face := range CubeFaces {
		views[i] = mgl32.LookAtV(l.Position, l.Position.Add(face.Direction), face.Up)
	}
	return views
}

// FaceMVPs returns proj · view_f · model for each cube face.
//
// Parameters:
//   - model: the model matrix of the mesh being drawn
//   - proj: the cube face projection, see PointShadowProjection
//
// Returns:
//   - [6]mgl32.Mat4: one MVP matrix per cube face
func (l *PointLight) FaceMVPs(model, proj mgl32.Mat4) [6]mgl32.Mat4 {
	var mvps [6]mgl32.Mat4
	for i, view := range l.FaceViews() {
		mvps[i] = proj.Mul4(view).Mul4(model)
	}
	return mvps
}

// AreaLight is a directional emitter with a position and a facing. Its position and
// forward vector follow the scene node it is attached to and are written through
// Manager.ApplyPose. It casts planar shadows through a single shadow map.
type AreaLight struct {
	// Position is the world-space position of the light.
	Position mgl32.Vec3

	// Color is the RGB color of the light.
	Color mgl32.Vec3

	// Forward is the normalized direction the light faces.
	Forward mgl32.Vec3

	// Shadow is the planar shadow map, created by the Manager when the light is added.
	Shadow renderer.ShadowMap
}

// DefaultAreaForward is the facing of an area light whose node has not been posed yet,
// the local -X axis.
var DefaultAreaForward = mgl32.Vec3{-1, 0, 0}

// Facing returns Forward, or DefaultAreaForward when Forward is zero.
func (l *AreaLight) Facing() mgl32.Vec3 {
	if l.Forward.LenSqr() < common.AxisEpsilon {
		return DefaultAreaForward
	}
	return l.Forward
}

// View returns the light's view matrix looking along Facing.
func (l *AreaLight) View() mgl32.Mat4 {
	return common.LookAt(l.Position, l.Position.Add(l.Facing()), mgl32.Vec3{0, 1, 0})
}

// Pose is the world-space placement of an area light derived from the scene node it
// is attached to.
type Pose struct {
	Light    *AreaLight
	Position mgl32.Vec3
	Forward  mgl32.Vec3
}
