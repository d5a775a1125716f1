package light

import (
	_ "embed"

	"github.com/go-gl/mathgl/mgl32"
)

// UniformSource declares the light uniform slots, the shadow map texture units and the
// point_shadow / area_shadow lookup functions. Lit programs include it as "light_uniforms".
//
//go:embed assets/light_uniforms.wgsl
var UniformSource string

// Uniform slots written by Manager.Bind. Slots below 10 belong to the program using the lights.
const (
	SlotNumPointLights  = 10
	SlotPointPositions  = 11
	SlotPointColors     = 12
	SlotNumAreaLights   = 13
	SlotAreaPositions   = 14
	SlotAreaColors      = 15
	SlotAreaForwards    = 16
	SlotAreaLightMVPs   = 17
	SlotShadowBias      = 18
	PointShadowUnitBase = 1
	AreaShadowUnitBase  = PointShadowUnitBase + MaxPointLights
)

// lightBlock is the CPU-side staging of the light uniforms for one draw.
type lightBlock struct {
	pointPositions []mgl32.Vec3
	pointColors    []mgl32.Vec3
	areaPositions  []mgl32.Vec3
	areaColors     []mgl32.Vec3
	areaForwards   []mgl32.Vec3
	areaMVPs       []mgl32.Mat4
}

// stage gathers the light uniforms for a mesh with the given model matrix. Each area
// light's MVP maps the mesh's local space into the light's clip space.
func (m *manager) stage(model mgl32.Mat4) lightBlock {
	b := lightBlock{
		pointPositions: make([]mgl32.Vec3, len(m.pointLights)),
		pointColors:    make([]mgl32.Vec3, len(m.pointLights)),
		areaPositions:  make([]mgl32.Vec3, len(m.areaLights)),
		areaColors:     make([]mgl32.Vec3, len(m.areaLights)),
		areaForwards:   make([]mgl32.Vec3, len(m.areaLights)),
		areaMVPs:       make([]mgl32.Mat4, len(m.areaLights)),
	}
	for i, l := range m.pointLights {
		b.pointPositions[i] = l.Position
		b.pointColors[i] = l.Color
	}
	proj := m.AreaShadowProjection()
	for i, l := range m.areaLights {
		b.areaPositions[i] = l.Position
		b.areaColors[i] = l.Color
		b.areaForwards[i] = l.Facing()
		b.areaMVPs[i] = proj.Mul4(l.View()).Mul4(model)
	}
	return b
}
