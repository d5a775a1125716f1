package light

import (
	"github.com/Carmen-Shannon/meshtree/common"
	"github.com/go-gl/mathgl/mgl32"
)

// DefaultShadowMapSize is the default width and height in texels of every shadow map face.
const DefaultShadowMapSize = 1024

// DefaultShadowNear is the default near plane of the shadow projections.
const DefaultShadowNear float32 = 0.1

// DefaultShadowFar is the default far plane of the shadow projections. Point shadows store
// distance divided by this value, so the shading pass must use the same far plane.
const DefaultShadowFar float32 = 30.0

// DefaultAreaShadowFOV is the default vertical field of view in degrees of the area light projection.
const DefaultAreaShadowFOV float32 = 90.0

// DefaultShadowBias is the constant depth bias applied to shadow comparisons
// to reduce shadow acne artifacts.
const DefaultShadowBias float32 = 0.005

// CubeFace is the look direction and up vector used to render one cube shadow map face.
type CubeFace struct {
	Direction mgl32.Vec3
	Up        mgl32.Vec3
}

// CubeFaces is the cube map face table in +X, -X, +Y, -Y, +Z, -Z order.
var CubeFaces = [6]CubeFace{
	{Direction: mgl32.Vec3{1, 0, 0}, Up: mgl32.Vec3{0, -1, 0}},
	{Direction: mgl32.Vec3{-1, 0, 0}, Up: mgl32.Vec3{0, -1, 0}},
	{Direction: mgl32.Vec3{0, 1, 0}, Up: mgl32.Vec3{0, 0, 1}},
	{Direction: mgl32.Vec3{0, -1, 0}, Up: mgl32.Vec3{0, 0, -1}},
	{Direction: mgl32.Vec3{0, 0, 1}, Up: mgl32.Vec3{0, -1, 0}},
	{Direction: mgl32.Vec3{0, 0, -1}, Up: mgl32.Vec3{0, -1, 0}},
}

// PointShadowProjection is the 90° square projection covering one cube face.
//
// Parameters:
//   - near: the near plane distance
//   - far: the far plane distance
//
// Returns:
//   - mgl32.Mat4: the projection matrix
func PointShadowProjection(near, far float32) mgl32.Mat4 {
	return common.Perspective(90, 1, near, far)
}

// AreaShadowProjection is the square perspective projection of an area light.
//
// Parameters:
//   - fovDeg: vertical field of view in degrees
//   - near: the near plane distance
//   - far: the far plane distance
//
// Returns:
//   - mgl32.Mat4: the projection matrix
func AreaShadowProjection(fovDeg, near, far float32) mgl32.Mat4 {
	return common.Perspective(fovDeg, 1, near, far)
}
