package light

import (
	"math"
	"testing"

	"github.com/Carmen-Shannon/meshtree/engine/loader"
	"github.com/Carmen-Shannon/meshtree/engine/renderer"
	"github.com/Carmen-Shannon/meshtree/engine/renderer/shader"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCubeFacesLookAlongAxes(t *testing.T) {
	l := &PointLight{Position: mgl32.Vec3{1, 2, 3}}
	views := l.FaceViews()
	for i, face := range CubeFaces {
		// The face direction maps to -Z in view space.
		d := views[i].Mul4x1(face.Direction.Vec4(0)).Vec3()
		assert.InDelta(t, -1, d.Z(), 1e-5, "face %d", i)
		// The light position maps to the view origin.
		p := views[i].Mul4x1(l.Position.Vec4(1)).Vec3()
		assert.InDelta(t, 0, p.Len(), 1e-5, "face %d", i)
	}
}

func TestFaceMVPsComposeProjectionViewModel(t *testing.T) {
	l := &PointLight{Position: mgl32.Vec3{0, 1, 0}}
	model := mgl32.Translate3D(0, 0, -2)
	proj := PointShadowProjection(DefaultShadowNear, DefaultShadowFar)

	mvps := l.FaceMVPs(model, proj)
	views := l.FaceViews()
	for i := range mvps {
		assert.True(t, mvps[i].ApproxEqual(proj.Mul4(views[i]).Mul4(model)))
	}
}

func TestAreaLightFacingFallsBack(t *testing.T) {
	l := &AreaLight{Position: mgl32.Vec3{0, 0, 0}}
	assert.Equal(t, DefaultAreaForward, l.Facing())

	l.Forward = mgl32.Vec3{0, -1, 0}
	v := l.View()
	for _, f := range v {
		assert.False(t, math.IsNaN(float64(f)), "view has no NaN when facing straight down")
	}
}

func newTestManager(t *testing.T, opts ...ManagerBuilderOption) (*renderer.RecordingDevice, Manager) {
	t.Helper()
	dev := renderer.NewRecordingDevice(64, 64)
	return dev, NewManager(dev, opts...)
}

func TestManagerAddAndRemove(t *testing.T) {
	_, m := newTestManager(t, WithShadowMapSize(256))

	p, err := m.AddPointLightAt(mgl32.Vec3{1, 0, 0}, mgl32.Vec3{1, 0, 0})
	require.NoError(t, err)
	require.NotNil(t, p.Shadow)
	assert.True(t, p.Shadow.Cube())
	assert.Equal(t, 256, p.Shadow.Face(0).Size())
	assert.Same(t, p, m.PointLightAt(0))

	a, err := m.AddAreaLightAt(mgl32.Vec3{0, 1, 0}, mgl32.Vec3{0, 0.5, 0})
	require.NoError(t, err)
	assert.False(t, a.Shadow.Cube())
	assert.Equal(t, DefaultAreaForward, a.Forward)

	for i := 1; i < MaxPointLights; i++ {
		_, err = m.AddPointLightAt(mgl32.Vec3{}, mgl32.Vec3{1, 1, 1})
		require.NoError(t, err)
	}
	_, err = m.AddPointLightAt(mgl32.Vec3{}, mgl32.Vec3{1, 1, 1})
	assert.Error(t, err)
	assert.Equal(t, MaxPointLights, m.NumPointLights())

	m.RemovePointLight(0)
	assert.Equal(t, MaxPointLights-1, m.NumPointLights())
	assert.NotSame(t, p, m.PointLightAt(0))

	assert.True(t, m.RemoveByReference(a))
	assert.False(t, m.RemoveByReference(a))
	assert.False(t, m.RemoveByReference(&AreaLight{}))
	assert.Equal(t, 0, m.NumAreaLights())

	assert.Panics(t, func() { m.AreaLightAt(0) })

	m.Release()
	assert.Equal(t, 0, m.NumPointLights())
}

func TestManagerApplyPose(t *testing.T) {
	_, m := newTestManager(t)
	a, err := m.AddAreaLight(AreaLight{Color: mgl32.Vec3{1, 1, 1}})
	require.NoError(t, err)

	m.ApplyPose(Pose{Light: a, Position: mgl32.Vec3{1, 0, 0}, Forward: mgl32.Vec3{0, 0, -1}})
	assert.Equal(t, mgl32.Vec3{1, 0, 0}, m.AreaLightAt(0).Position)
	assert.Equal(t, mgl32.Vec3{0, 0, -1}, m.AreaLightAt(0).Forward)

	assert.NotPanics(t, func() { m.ApplyPose(Pose{}) })
}

func TestManagerOptionsIgnoreInvalidValues(t *testing.T) {
	_, m := newTestManager(t, WithShadowPlanes(1, 0.5), WithShadowMapSize(-1), WithAreaShadowFOV(200))
	assert.Equal(t, DefaultShadowNear, m.ShadowNearPlane())
	assert.Equal(t, DefaultShadowFar, m.ShadowFarPlane())
	assert.Equal(t, DefaultShadowMapSize, m.ShadowMapSize())
	assert.True(t, m.AreaShadowProjection().ApproxEqual(AreaShadowProjection(DefaultAreaShadowFOV, DefaultShadowNear, DefaultShadowFar)))

	_, m = newTestManager(t, WithShadowPlanes(0.5, 50))
	assert.Equal(t, float32(50), m.ShadowFarPlane())
	assert.True(t, m.PointShadowProjection().ApproxEqual(PointShadowProjection(0.5, 50)))
}

func TestShadingProgramDeclaresLightSlots(t *testing.T) {
	p, err := shader.NewShadingProgram(UniformSource)
	require.NoError(t, err)

	for slot := SlotNumPointLights; slot <= SlotShadowBias; slot++ {
		_, ok := p.Uniform(slot)
		assert.True(t, ok, "slot %d", slot)
	}
	u, _ := p.Uniform(SlotAreaLightMVPs)
	assert.Equal(t, shader.UniformMat4, u.Kind)
	assert.Equal(t, MaxAreaLights, u.Count)

	units := map[int]shader.TextureKind{}
	for _, tex := range p.Textures() {
		units[tex.Unit] = tex.Kind
	}
	for i := 0; i < MaxPointLights; i++ {
		assert.Equal(t, shader.TextureDepthCube, units[PointShadowUnitBase+i])
	}
	for i := 0; i < MaxAreaLights; i++ {
		assert.Equal(t, shader.TextureDepth2D, units[AreaShadowUnitBase+i])
	}
	assert.Contains(t, p.Source(), "fn point_shadow(")
}

func TestManagerBind(t *testing.T) {
	dev, m := newTestManager(t)
	point, err := m.AddPointLightAt(mgl32.Vec3{1, 2, 3}, mgl32.Vec3{1, 0, 0})
	require.NoError(t, err)
	area, err := m.AddAreaLight(AreaLight{Position: mgl32.Vec3{0, 5, 0}, Color: mgl32.Vec3{0, 1, 0}, Forward: mgl32.Vec3{0, -1, 0}})
	require.NoError(t, err)

	layout, err := shader.NewShadingProgram(UniformSource)
	require.NoError(t, err)
	prog, err := dev.CompileProgram(layout)
	require.NoError(t, err)
	mesh, err := dev.UploadMesh("cube", loader.Cube())
	require.NoError(t, err)

	model := mgl32.Translate3D(0, 0, 1)
	require.NoError(t, dev.BeginFrame())
	dev.BindProgram(prog)
	m.Bind(dev, model)
	mesh.Draw()
	dev.EndFrame()

	draws := dev.Draws()
	require.Len(t, draws, 1)
	u := draws[0].Uniforms
	assert.Equal(t, int32(1), u[SlotNumPointLights])
	assert.Equal(t, []mgl32.Vec3{{1, 2, 3}}, u[SlotPointPositions])
	assert.Equal(t, []mgl32.Vec3{{1, 0, 0}}, u[SlotPointColors])
	assert.Equal(t, int32(1), u[SlotNumAreaLights])
	assert.Equal(t, []mgl32.Vec3{{0, -1, 0}}, u[SlotAreaForwards])
	assert.Equal(t, DefaultShadowBias, u[SlotShadowBias])

	mvps := u[SlotAreaLightMVPs].([]mgl32.Mat4)
	require.Len(t, mvps, 1)
	assert.True(t, mvps[0].ApproxEqual(m.AreaShadowProjection().Mul4(area.View()).Mul4(model)))

	assert.Equal(t, point.Shadow.Label(), draws[0].Textures[PointShadowUnitBase])
	assert.Equal(t, area.Shadow.Label(), draws[0].Textures[AreaShadowUnitBase])
	assert.NotContains(t, draws[0].Textures, PointShadowUnitBase+1)
}
