package pass

import (
	"github.com/Carmen-Shannon/meshtree/common"
	"github.com/Carmen-Shannon/meshtree/engine/light"
	"github.com/Carmen-Shannon/meshtree/engine/renderer"
	"github.com/Carmen-Shannon/meshtree/engine/renderer/shader"
	"github.com/pkg/errors"
)

type shadingPass struct {
	program renderer.Program
	lights  light.Manager
	warned  bool
}

var _ Pass = &shadingPass{}

// NewShadingPass compiles the lit shading program on dev and returns the pass that draws
// every item to the screen, sampling the shadow maps the shadow passes filled.
//
// Parameters:
//   - dev: the device to compile on
//   - lights: the manager whose uniforms and shadow maps are bound per draw
//
// Returns:
//   - Pass: the pass; a pass whose program failed to compile draws nothing
//   - error: the compile error, if any
func NewShadingPass(dev renderer.Device, lights light.Manager) (Pass, error) {
	p := &shadingPass{lights: lights}
	prog, err := compile(dev, func() (shader.Program, error) {
		return shader.NewShadingProgram(light.UniformSource)
	})
	if err != nil {
		return p, errors.Wrap(err, "shading pass")
	}
	p.program = prog
	return p, nil
}

func (p *shadingPass) Name() string {
	return NameShading
}

func (p *shadingPass) Render(dev renderer.Device, view View, items []Item) int {
	if !ready(p.program, p.Name(), &p.warned) {
		return 0
	}

	vp := view.Projection.Mul4(view.View)
	far := p.lights.ShadowFarPlane()

	dev.BindTarget(nil)
	dev.SetViewport(dev.Size())
	dev.EnableDepthTest()
	dev.BindProgram(p.program)
	dev.SetUniformVec3(SlotCameraPosition, view.Position)
	dev.SetUniformFloat(SlotFarPlane, far)

	for _, it := range items {
		p.lights.Bind(dev, it.Model)
		dev.SetUniformMat4(SlotMVP, vp.Mul4(it.Model))
		dev.SetUniformMat4(SlotModel, it.Model)
		dev.SetUniformMat3(SlotNormalMatrix, common.NormalMatrix(it.Model))

		if it.Texture != nil && it.Mesh.HasTextureCoords() {
			dev.BindTexture(DiffuseUnit, it.Texture)
			dev.SetUniformInt(SlotDiffuseUnit, DiffuseUnit)
			dev.SetUniformBool(SlotUseTexture, true)
		} else {
			dev.BindTexture(DiffuseUnit, nil)
			dev.SetUniformBool(SlotUseTexture, false)
		}
		it.Mesh.Draw()
	}
	return len(items)
}
