package light

import (
	"fmt"
	"slices"

	"github.com/Carmen-Shannon/meshtree/engine/renderer"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/pkg/errors"
)

// manager is the implementation of the Manager interface.
type manager struct {
	device      renderer.Device
	pointLights []*PointLight
	areaLights  []*AreaLight

	shadowMapSize int
	near          float32
	far           float32
	areaFOV       float32
	bias          float32
	nextID        int
}

// Manager owns the scene's point and area lights and their shadow maps, and binds their
// uniforms and shadow textures for lit draws.
//
// Lights are held by pointer; the pointers returned by the Add methods stay valid until
// the light is removed. Index arguments must be below the matching Num count.
type Manager interface {
	// AddPointLight adds a point light and creates its cube shadow map.
	// Any Shadow set on l is replaced.
	//
	// Parameters:
	//   - l: the light to add
	//
	// Returns:
	//   - *PointLight: the managed light
	//   - error: an error if MaxPointLights is reached or the shadow map could not be created
	AddPointLight(l PointLight) (*PointLight, error)

	// AddPointLightAt adds a point light at position with the given color.
	AddPointLightAt(position, color mgl32.Vec3) (*PointLight, error)

	// RemovePointLight removes the point light at index i and releases its shadow map.
	RemovePointLight(i int)

	// NumPointLights returns the number of point lights.
	NumPointLights() int

	// PointLightAt returns the point light at index i.
	PointLightAt(i int) *PointLight

	// AddAreaLight adds an area light and creates its planar shadow map.
	// Any Shadow set on l is replaced.
	//
	// Parameters:
	//   - l: the light to add
	//
	// Returns:
	//   - *AreaLight: the managed light
	//   - error: an error if MaxAreaLights is reached or the shadow map could not be created
	AddAreaLight(l AreaLight) (*AreaLight, error)

	// AddAreaLightAt adds an area light at position with the given color, facing DefaultAreaForward.
	AddAreaLightAt(position, color mgl32.Vec3) (*AreaLight, error)

	// RemoveAreaLight removes the area light at index i and releases its shadow map.
	RemoveAreaLight(i int)

	// NumAreaLights returns the number of area lights.
	NumAreaLights() int

	// AreaLightAt returns the area light at index i.
	AreaLightAt(i int) *AreaLight

	// RemoveByReference removes the given area light if it is managed here.
	//
	// Parameters:
	//   - l: the light to remove
	//
	// Returns:
	//   - bool: true if the light was found and removed
	RemoveByReference(l *AreaLight) bool

	// ApplyPose moves an area light to the pose derived from its scene node.
	ApplyPose(p Pose)

	// Bind sets the light uniforms and shadow map units on the device for a draw of a
	// mesh with the given model matrix. The lit program must already be bound.
	//
	// Parameters:
	//   - dev: the device to bind on
	//   - model: the model matrix of the mesh about to be drawn
	Bind(dev renderer.Device, model mgl32.Mat4)

	// ShadowMapSize returns the edge length in texels of every shadow map face.
	ShadowMapSize() int

	// ShadowNearPlane returns the near plane of the shadow projections.
	ShadowNearPlane() float32

	// ShadowFarPlane returns the far plane of the shadow projections.
	ShadowFarPlane() float32

	// PointShadowProjection returns the cube face projection.
	PointShadowProjection() mgl32.Mat4

	// AreaShadowProjection returns the area light projection.
	AreaShadowProjection() mgl32.Mat4

	// Release releases every shadow map and removes all lights.
	Release()
}

var _ Manager = &manager{}

// NewManager creates a light Manager creating shadow maps on the given device.
//
// Parameters:
//   - dev: the device shadow maps are created on
//   - opts: variadic list of ManagerBuilderOption functions to configure the manager
//
// Returns:
//   - Manager: a new Manager with no lights
func NewManager(dev renderer.Device, opts ...ManagerBuilderOption) Manager {
	m := &manager{
		device:        dev,
		shadowMapSize: DefaultShadowMapSize,
		near:          DefaultShadowNear,
		far:           DefaultShadowFar,
		areaFOV:       DefaultAreaShadowFOV,
		bias:          DefaultShadowBias,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

func (m *manager) AddPointLight(l PointLight) (*PointLight, error) {
	if len(m.pointLights) >= MaxPointLights {
		return nil, errors.Errorf("light: at most %d point lights", MaxPointLights)
	}
	shadow, err := m.device.CreateShadowMap(m.label("point"), m.shadowMapSize, true)
	if err != nil {
		return nil, errors.Wrap(err, "light: create point shadow map")
	}
	l.Shadow = shadow
	added := &l
	m.pointLights = append(m.pointLights, added)
	return added, nil
}

func (m *manager) AddPointLightAt(position, color mgl32.Vec3) (*PointLight, error) {
	return m.AddPointLight(PointLight{Position: position, Color: color})
}

func (m *manager) RemovePointLight(i int) {
	m.pointLights[i].Shadow.Release()
	m.pointLights = slices.Delete(m.pointLights, i, i+1)
}

func (m *manager) NumPointLights() int {
	return len(m.pointLights)
}

func (m *manager) PointLightAt(i int) *PointLight {
	return m.pointLights[i]
}

func (m *manager) AddAreaLight(l AreaLight) (*AreaLight, error) {
	if len(m.areaLights) >= MaxAreaLights {
		return nil, errors.Errorf("light: at most %d area lights", MaxAreaLights)
	}
	shadow, err := m.device.CreateShadowMap(m.label("area"), m.shadowMapSize, false)
	if err != nil {
		return nil, errors.Wrap(err, "light: create area shadow map")
	}
	l.Shadow = shadow
	added := &l
	m.areaLights = append(m.areaLights, added)
	return added, nil
}

func (m *manager) AddAreaLightAt(position, color mgl32.Vec3) (*AreaLight, error) {
	return m.AddAreaLight(AreaLight{Position: position, Color: color, Forward: DefaultAreaForward})
}

func (m *manager) RemoveAreaLight(i int) {
	m.areaLights[i].Shadow.Release()
	m.areaLights = slices.Delete(m.areaLights, i, i+1)
}

func (m *manager) NumAreaLights() int {
	return len(m.areaLights)
}

func (m *manager) AreaLightAt(i int) *AreaLight {
	return m.areaLights[i]
}

func (m *manager) RemoveByReference(l *AreaLight) bool {
	i := slices.Index(m.areaLights, l)
	if i < 0 {
		return false
	}
	m.RemoveAreaLight(i)
	return true
}

func (m *manager) ApplyPose(p Pose) {
	if p.Light == nil {
		return
	}
	p.Light.Position = p.Position
	p.Light.Forward = p.Forward
}

func (m *manager) Bind(dev renderer.Device, model mgl32.Mat4) {
	b := m.stage(model)

	dev.SetUniformInt(SlotNumPointLights, int32(len(m.pointLights)))
	dev.SetUniformVec3Array(SlotPointPositions, b.pointPositions)
	dev.SetUniformVec3Array(SlotPointColors, b.pointColors)
	dev.SetUniformInt(SlotNumAreaLights, int32(len(m.areaLights)))
	dev.SetUniformVec3Array(SlotAreaPositions, b.areaPositions)
	dev.SetUniformVec3Array(SlotAreaColors, b.areaColors)
	dev.SetUniformVec3Array(SlotAreaForwards, b.areaForwards)
	dev.SetUniformMat4Array(SlotAreaLightMVPs, b.areaMVPs)
	dev.SetUniformFloat(SlotShadowBias, m.bias)

	for i := 0; i < MaxPointLights; i++ {
		if i < len(m.pointLights) {
			dev.BindShadowMap(PointShadowUnitBase+i, m.pointLights[i].Shadow)
		} else {
			dev.BindShadowMap(PointShadowUnitBase+i, nil)
		}
	}
	for i := 0; i < MaxAreaLights; i++ {
		if i < len(m.areaLights) {
			dev.BindShadowMap(AreaShadowUnitBase+i, m.areaLights[i].Shadow)
		} else {
			dev.BindShadowMap(AreaShadowUnitBase+i, nil)
		}
	}
}

func (m *manager) ShadowMapSize() int {
	return m.shadowMapSize
}

func (m *manager) ShadowNearPlane() float32 {
	return m.near
}

func (m *manager) ShadowFarPlane() float32 {
	return m.far
}

func (m *manager) PointShadowProjection() mgl32.Mat4 {
	return PointShadowProjection(m.near, m.far)
}

func (m *manager) AreaShadowProjection() mgl32.Mat4 {
	return AreaShadowProjection(m.areaFOV, m.near, m.far)
}

func (m *manager) Release() {
	for _, l := range m.pointLights {
		l.Shadow.Release()
	}
	for _, l := range m.areaLights {
		l.Shadow.Release()
	}
	m.pointLights = nil
	m.areaLights = nil
}

// label names a new shadow map uniquely for the device's logs and recordings.
func (m *manager) label(kind string) string {
	m.nextID++
	return fmt.Sprintf("%s_shadow_%d", kind, m.nextID)
}
