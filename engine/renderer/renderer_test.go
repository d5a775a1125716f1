package renderer

import (
	"encoding/binary"
	"math"
	"testing"

	"github.com/Carmen-Shannon/meshtree/common"
	"github.com/Carmen-Shannon/meshtree/engine/loader"
	"github.com/Carmen-Shannon/meshtree/engine/renderer/shader"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSource = `//@mt:uniform 0 mat4 mvp
//@mt:uniform 2 mat3 normal_matrix
//@mt:uniform 3 float far_plane
//@mt:uniform 5 vec3 positions 4
//@mt:uniform 6 bool flag
//@mt:texture 0 2d diffuse
//@mt:texture 1 depth_cube cube
//@mt:bindings
//@mt:include vertex_input

@vertex
fn vs_main(in: VertexInput) -> @builtin(position) vec4<f32> {
    return u.mvp * vec4<f32>(in.position, 1.0);
}
`

func testProgram(t *testing.T) shader.Program {
	t.Helper()
	p, err := shader.NewProgram("test", shader.WithSource(testSource), shader.WithEntryPoints("vs_main", ""))
	require.NoError(t, err)
	return p
}

func readFloat(b []byte, offset int) float32 {
	return math.Float32frombits(binary.LittleEndian.Uint32(b[offset:]))
}

func TestUniformBlockPacksDeclaredSlots(t *testing.T) {
	p := testProgram(t)
	b := newUniformBlock(p)
	require.Len(t, b.data, p.UniformSize())

	b.setMat4(0, mgl32.Translate3D(1, 2, 3))
	assert.Equal(t, float32(1), readFloat(b.data, 12*4))
	assert.Equal(t, float32(3), readFloat(b.data, 14*4))

	b.setMat3(2, mgl32.Mat3{1, 2, 3, 4, 5, 6, 7, 8, 9})
	// Columns are padded to 16 bytes.
	assert.Equal(t, float32(3), readFloat(b.data, 64+8))
	assert.Equal(t, float32(0), readFloat(b.data, 64+12))
	assert.Equal(t, float32(4), readFloat(b.data, 64+16))
	assert.Equal(t, float32(9), readFloat(b.data, 64+40))

	b.setFloat(3, 30)
	assert.Equal(t, float32(30), readFloat(b.data, 112))

	b.setVec3Array(5, []mgl32.Vec3{{1, 1, 1}, {2, 2, 2}})
	assert.Equal(t, float32(2), readFloat(b.data, 128+16))
	assert.Equal(t, float32(0), readFloat(b.data, 128+32), "unset elements are zeroed")

	b.setBool(6, true)
	assert.Equal(t, uint32(1), binary.LittleEndian.Uint32(b.data[192:]))
}

func TestUniformBlockIgnoresUndeclaredAndMismatchedSlots(t *testing.T) {
	p := testProgram(t)
	b := newUniformBlock(p)

	b.setFloat(9, 5)
	b.setVec3(3, mgl32.Vec3{1, 2, 3})
	assert.Equal(t, make([]byte, p.UniformSize()), b.data)
	assert.True(t, b.warned[3])
}

func TestUniformBlockArrayClampsToDeclaredCount(t *testing.T) {
	p := testProgram(t)
	b := newUniformBlock(p)

	values := make([]mgl32.Vec3, 6)
	for i := range values {
		values[i] = mgl32.Vec3{float32(i + 1), 0, 0}
	}
	assert.NotPanics(t, func() { b.setVec3Array(5, values) })
	assert.Equal(t, float32(4), readFloat(b.data, 128+48))
	assert.Equal(t, uint32(0), binary.LittleEndian.Uint32(b.data[192:]), "next slot untouched")
}

func newTestDevice(t *testing.T) (*RecordingDevice, Program, Mesh) {
	t.Helper()
	dev, err := NewDevice(BackendTypeRecording, WithSize(320, 240))
	require.NoError(t, err)
	rec := dev.(*RecordingDevice)

	prog, err := rec.CompileProgram(testProgram(t))
	require.NoError(t, err)
	mesh, err := rec.UploadMesh("cube", loader.Cube())
	require.NoError(t, err)
	return rec, prog, mesh
}

func TestRecordingDeviceRecordsDraws(t *testing.T) {
	dev, prog, mesh := newTestDevice(t)
	shadow, err := dev.CreateShadowMap("light0", 64, true)
	require.NoError(t, err)
	require.Equal(t, 6, shadow.Faces())
	assert.Equal(t, "light0/-Y", shadow.Face(3).Label())

	require.NoError(t, dev.BeginFrame())
	dev.BindProgram(prog)
	dev.BindTarget(shadow.Face(0))
	dev.SetViewport(64, 64)
	dev.ClearDepth(1)
	dev.EnableDepthTest()
	dev.SetUniformMat4(0, mgl32.Ident4())
	dev.SetUniformFloat(3, 30)
	dev.SetUniformFloat(42, 1)
	dev.BindShadowMap(1, shadow)
	dev.BindShadowMap(7, shadow)
	mesh.Draw()
	dev.Barrier()
	dev.BindTarget(nil)
	dev.SetUniformFloat(3, 10)
	mesh.Draw()
	dev.EndFrame()

	draws := dev.Draws()
	require.Len(t, draws, 2)
	first := draws[0]
	assert.Equal(t, "test", first.Program)
	assert.Equal(t, "light0/+X", first.Target)
	assert.Equal(t, "cube", first.Mesh)
	assert.Equal(t, [2]int{64, 64}, first.Viewport)
	assert.True(t, first.DepthTest)
	assert.Equal(t, float32(30), first.Uniforms[3])
	assert.NotContains(t, first.Uniforms, 42)
	assert.Equal(t, map[int]string{1: "light0"}, first.Textures, "only declared units are recorded")

	assert.Equal(t, "", draws[1].Target)
	assert.Equal(t, float32(10), draws[1].Uniforms[3])
	assert.Equal(t, mgl32.Ident4(), draws[1].Uniforms[0], "uniforms persist across draws")

	assert.Len(t, dev.DrawsByTarget("light0/+X"), 1)
	assert.Len(t, dev.DrawsByProgram("test"), 2)
	assert.Equal(t, []string{
		"compile test", "begin", "program test", "target light0/+X", "clear light0/+X 1",
		"draw cube", "barrier", "target ", "draw cube", "end",
	}, dev.Calls())
	assert.Equal(t, 1, dev.Frames())
}

func TestRecordingDeviceDropsInvalidDraws(t *testing.T) {
	dev, prog, mesh := newTestDevice(t)

	require.NoError(t, dev.BeginFrame())
	mesh.Draw()
	assert.Empty(t, dev.Draws(), "no program bound")
	dev.EndFrame()

	dev.BindProgram(prog)
	mesh.Draw()
	assert.Empty(t, dev.Draws(), "outside of a frame")

	require.NoError(t, dev.BeginFrame())
	assert.Error(t, dev.BeginFrame())
}

func TestRecordingDeviceArraysAreCopied(t *testing.T) {
	dev, prog, mesh := newTestDevice(t)
	require.NoError(t, dev.BeginFrame())
	dev.BindProgram(prog)

	positions := []mgl32.Vec3{{1, 2, 3}}
	dev.SetUniformVec3Array(5, positions)
	positions[0] = mgl32.Vec3{}
	mesh.Draw()

	draws := dev.Draws()
	require.Len(t, draws, 1)
	assert.Equal(t, []mgl32.Vec3{{1, 2, 3}}, draws[0].Uniforms[5])
}

func TestRecordingDeviceResources(t *testing.T) {
	dev := NewRecordingDevice(100, 50)

	_, err := dev.CreateShadowMap("bad", 0, false)
	assert.Error(t, err)
	planar, err := dev.CreateShadowMap("area0", 32, false)
	require.NoError(t, err)
	assert.Equal(t, 1, planar.Faces())
	assert.Equal(t, "area0", planar.Face(0).Label())
	assert.Equal(t, 32, planar.Face(0).Size())

	_, err = dev.UploadMesh("empty", loader.RawMesh{})
	assert.Error(t, err)

	_, err = dev.UploadTexture("tex", common.TextureStagingData{Pixels: make([]byte, 3), Width: 1, Height: 1})
	assert.Error(t, err)
	tex, err := dev.UploadTexture("tex", common.TextureStagingData{Pixels: make([]byte, 16), Width: 2, Height: 2})
	require.NoError(t, err)
	assert.Equal(t, "tex", tex.Label())

	dev.Resize(640, 480)
	w, h := dev.Size()
	assert.Equal(t, 640, w)
	assert.Equal(t, 480, h)

	dev.Release()
	assert.True(t, dev.Released())
}

func TestNewDeviceRejectsMissingSurface(t *testing.T) {
	_, err := NewDevice(BackendTypeWGPU)
	assert.Error(t, err)
	_, err = NewDevice(RendererBackendType(99))
	assert.Error(t, err)
}
