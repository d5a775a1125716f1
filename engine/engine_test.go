package engine

import (
	"testing"

	"github.com/Carmen-Shannon/meshtree/common"
	"github.com/Carmen-Shannon/meshtree/engine/config"
	"github.com/Carmen-Shannon/meshtree/engine/loader"
	"github.com/Carmen-Shannon/meshtree/engine/pass"
	"github.com/Carmen-Shannon/meshtree/engine/renderer"
	"github.com/Carmen-Shannon/meshtree/engine/renderer/shader"
	"github.com/Carmen-Shannon/meshtree/engine/transform"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeInput struct {
	keys map[int]bool
}

func (f *fakeInput) IsKeyPressed(key int) bool     { return f.keys[key] }
func (f *fakeInput) IsMouseButtonPressed(int) bool { return false }
func (f *fakeInput) CursorPos() (float64, float64) { return 0, 0 }

func newHeadless(t *testing.T, cfg config.RenderConfig, opts ...EngineBuilderOption) (Engine, *renderer.RecordingDevice) {
	t.Helper()
	dev := renderer.NewRecordingDevice(320, 240)
	e, err := NewEngine(dev, cfg, opts...)
	require.NoError(t, err)
	return e, dev
}

func TestDefaultSceneRenders(t *testing.T) {
	e, dev := newHeadless(t, config.Default())

	assert.Equal(t, 2, e.Scene().NumMeshes())
	assert.Equal(t, 2, e.Lights().NumPointLights())
	assert.Equal(t, 2, e.Lights().NumAreaLights())
	assert.Equal(t, 0, e.Selected())

	require.NoError(t, e.RunFrames(3))
	assert.Equal(t, 3, dev.Frames())

	stats := e.Frame().Stats()
	assert.Equal(t, 2*6*2, stats.Draws[pass.NamePointShadow])
	assert.Equal(t, 2*2, stats.Draws[pass.NameAreaShadow])
	assert.Equal(t, 2, stats.Draws[pass.NameShading])
	assert.Len(t, dev.DrawsByProgram(shader.ProgramShading), 3*2)

	e.Release()
	assert.True(t, dev.Released())
}

func TestInvalidConfig(t *testing.T) {
	cfg := config.Default()
	cfg.Scene.Meshes[1].Parent = "nowhere"
	_, err := NewEngine(renderer.NewRecordingDevice(64, 64), cfg)
	assert.Error(t, err)
}

func TestUnloadableMeshIsSkipped(t *testing.T) {
	cfg := config.Default()
	cfg.Scene.Meshes = append(cfg.Scene.Meshes,
		config.MeshConfig{Name: "ghost", Source: "missing.gltf", Transform: transform.Identity()},
		config.MeshConfig{Name: "ghost_child", Source: loader.BuiltinCube, Parent: "ghost", Transform: transform.Identity()},
	)
	e, _ := newHeadless(t, cfg)
	assert.Equal(t, 2, e.Scene().NumMeshes())
}

func TestSelectionCycles(t *testing.T) {
	e, _ := newHeadless(t, config.Default())

	e.HandleKey(common.KeyTab)
	assert.Equal(t, 1, e.Selected())
	e.HandleKey(common.KeyN)
	assert.Equal(t, 0, e.Selected())
	e.HandleKey(common.KeyP)
	assert.Equal(t, 1, e.Selected())
	e.SelectPrevious()
	assert.Equal(t, 0, e.Selected())
}

func TestArrowKeysMoveSelection(t *testing.T) {
	e, _ := newHeadless(t, config.Default(), WithMoveStep(0.25))
	e.SelectNext()
	cube := e.Scene().NodeAt(e.Selected())
	require.Equal(t, "cube", e.Scene().Graph().Tag(cube))
	start := e.Scene().Graph().Transform(cube).Translate

	e.HandleKey(common.KeyRight)
	e.HandleKey(common.KeyUp)
	e.HandleKey(common.KeyPageUp)
	assert.Equal(t, start.Add(mgl32.Vec3{0.25, 0.25, -0.25}), e.Scene().Graph().Transform(cube).Translate)

	// Sinking the cube into the floor brings the centres closer and is refused.
	before := e.Scene().Graph().Transform(cube).Translate
	assert.False(t, e.MoveSelected(0, -1, 0))
	assert.Equal(t, before, e.Scene().Graph().Transform(cube).Translate)
}

func TestCameraFollowsInput(t *testing.T) {
	in := &fakeInput{keys: map[int]bool{common.KeyW: true, common.KeyLeftControl: true}}
	cfg := config.Default()
	e, dev := newHeadless(t, cfg, WithInput(in))

	start := e.Camera().Position()
	require.NoError(t, e.RenderFrame())

	moved := e.Camera().Position().Sub(start)
	assert.InDelta(t, cfg.Camera.MoveSpeed, moved.Len(), 1e-5)
	assert.True(t, e.Camera().Zoomed())
	assert.Equal(t, cfg.Camera.ZoomedVerticalFOV, e.Camera().Fov())

	draws := dev.DrawsByProgram(shader.ProgramShading)
	require.NotEmpty(t, draws)
	assert.Equal(t, e.Camera().Position(), draws[0].Uniforms[pass.SlotCameraPosition])
}

func TestAreaLightFollowsMesh(t *testing.T) {
	cfg := config.Default()
	lamp := transform.Identity()
	lamp.Translate = mgl32.Vec3{0, 3, 0}
	cfg.Scene.Meshes = append(cfg.Scene.Meshes, config.MeshConfig{
		Name: "lamp", Source: loader.BuiltinCube, Parent: "cube", Transform: lamp, AreaLight: "area_red",
	})
	e, _ := newHeadless(t, cfg)
	require.NoError(t, e.RenderFrame())

	// The cube sits at (0, 0.5, 0), so the lamp ends up at (0, 3.5, 0).
	area := e.Lights().AreaLightAt(0)
	assert.InDelta(t, 3.5, area.Position.Y(), 1e-5)
	assert.Equal(t, 1, e.Frame().Stats().Poses)
}

func TestTickCallbackAndQuit(t *testing.T) {
	e, dev := newHeadless(t, config.Default())
	ticks := 0
	e.SetTickCallback(func(dt float32) {
		ticks++
		assert.GreaterOrEqual(t, dt, float32(0))
		if ticks == 2 {
			e.Quit()
		}
	})
	require.NoError(t, e.RunFrames(10))
	assert.Equal(t, 2, ticks)
	assert.Equal(t, 2, dev.Frames())
}

func TestRunNeedsWindow(t *testing.T) {
	e, _ := newHeadless(t, config.Default())
	assert.Error(t, e.Run())
}
