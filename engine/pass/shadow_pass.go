package pass

import (
	"log"

	"github.com/Carmen-Shannon/meshtree/engine/light"
	"github.com/Carmen-Shannon/meshtree/engine/renderer"
	"github.com/Carmen-Shannon/meshtree/engine/renderer/shader"
	"github.com/pkg/errors"
)

// Pass names.
const (
	NamePointShadow = "point_shadow"
	NameAreaShadow  = "area_shadow"
	NameShading     = "shading"
)

// shadowClearDepth is the depth every shadow target is cleared to before drawing.
const shadowClearDepth = 1.0

type pointShadowPass struct {
	program renderer.Program
	lights  light.Manager
	warned  bool
}

var _ Pass = &pointShadowPass{}

// NewPointShadowPass compiles the cube-face shadow program on dev and returns the pass
// that fills every point light's cube shadow map.
//
// For each point light and each of its six faces the pass binds the face target, clears
// it, and draws every item with the face's light MVP. The depth written is the distance
// to the light over the far plane, which the shading pass compares against.
//
// Parameters:
//   - dev: the device to compile on
//   - lights: the manager owning the point lights
//
// Returns:
//   - Pass: the pass; a pass whose program failed to compile draws nothing
//   - error: the compile error, if any
func NewPointShadowPass(dev renderer.Device, lights light.Manager) (Pass, error) {
	p := &pointShadowPass{lights: lights}
	prog, err := compile(dev, shader.NewPointShadowProgram)
	if err != nil {
		return p, errors.Wrap(err, "point shadow pass")
	}
	p.program = prog
	return p, nil
}

func (p *pointShadowPass) Name() string {
	return NamePointShadow
}

func (p *pointShadowPass) Render(dev renderer.Device, _ View, items []Item) int {
	if !ready(p.program, p.Name(), &p.warned) {
		return 0
	}

	proj := p.lights.PointShadowProjection()
	far := p.lights.ShadowFarPlane()
	size := p.lights.ShadowMapSize()
	draws := 0

	dev.BindProgram(p.program)
	for i := 0; i < p.lights.NumPointLights(); i++ {
		l := p.lights.PointLightAt(i)
		views := l.FaceViews()
		dev.SetUniformVec3(SlotLightPosition, l.Position)
		dev.SetUniformFloat(SlotShadowFarPlane, far)

		for face := 0; face < l.Shadow.Faces(); face++ {
			dev.BindTarget(l.Shadow.Face(face))
			dev.SetViewport(size, size)
			dev.ClearDepth(shadowClearDepth)
			dev.EnableDepthTest()

			vp := proj.Mul4(views[face])
			for _, it := range items {
				dev.SetUniformMat4(SlotMVP, vp.Mul4(it.Model))
				dev.SetUniformMat4(SlotModel, it.Model)
				it.Mesh.Draw()
				draws++
			}
		}
	}
	return draws
}

type areaShadowPass struct {
	program renderer.Program
	lights  light.Manager
	warned  bool
}

var _ Pass = &areaShadowPass{}

// NewAreaShadowPass compiles the planar shadow program on dev and returns the pass that
// fills every area light's shadow map from the light's current pose.
//
// Parameters:
//   - dev: the device to compile on
//   - lights: the manager owning the area lights
//
// Returns:
//   - Pass: the pass; a pass whose program failed to compile draws nothing
//   - error: the compile error, if any
func NewAreaShadowPass(dev renderer.Device, lights light.Manager) (Pass, error) {
	p := &areaShadowPass{lights: lights}
	prog, err := compile(dev, shader.NewAreaShadowProgram)
	if err != nil {
		return p, errors.Wrap(err, "area shadow pass")
	}
	p.program = prog
	return p, nil
}

func (p *areaShadowPass) Name() string {
	return NameAreaShadow
}

func (p *areaShadowPass) Render(dev renderer.Device, _ View, items []Item) int {
	if !ready(p.program, p.Name(), &p.warned) {
		return 0
	}

	proj := p.lights.AreaShadowProjection()
	size := p.lights.ShadowMapSize()
	draws := 0

	dev.BindProgram(p.program)
	for i := 0; i < p.lights.NumAreaLights(); i++ {
		l := p.lights.AreaLightAt(i)
		dev.BindTarget(l.Shadow.Face(0))
		dev.SetViewport(size, size)
		dev.ClearDepth(shadowClearDepth)
		dev.EnableDepthTest()

		vp := proj.Mul4(l.View())
		for _, it := range items {
			dev.SetUniformMat4(SlotMVP, vp.Mul4(it.Model))
			it.Mesh.Draw()
			draws++
		}
	}
	return draws
}

// compile builds a program layout and compiles it on dev.
func compile(dev renderer.Device, build func() (shader.Program, error)) (renderer.Program, error) {
	layout, err := build()
	if err != nil {
		return nil, err
	}
	return dev.CompileProgram(layout)
}

// ready reports whether a pass can draw, logging a missing program once.
func ready(prog renderer.Program, name string, warned *bool) bool {
	if prog != nil {
		return true
	}
	if !*warned {
		log.Printf("[Frame] %s pass skipped: %v", name, renderer.ErrNoProgram)
		*warned = true
	}
	return false
}
