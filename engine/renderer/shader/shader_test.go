package shader

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSource = `//@mt:uniform 3 float far_plane
//@mt:uniform 0 mat4 mvp
//@mt:uniform 2 mat3 normal_matrix
//@mt:uniform 5 vec3 positions 4
//@mt:texture 1 depth_cube cube
//@mt:texture 0 2d diffuse
//@mt:bindings
//@mt:include vertex_input

@vertex
fn vs_main(in: VertexInput) -> @builtin(position) vec4<f32> {
    return u.mvp * vec4<f32>(in.position, 1.0);
}
`

func TestProcessAssignsOffsetsInSlotOrder(t *testing.T) {
	p, err := NewProgram("test", WithSource(testSource))
	require.NoError(t, err)

	uniforms := p.Uniforms()
	require.Len(t, uniforms, 4)
	assert.Equal(t, []int{0, 2, 3, 5}, []int{uniforms[0].Slot, uniforms[1].Slot, uniforms[2].Slot, uniforms[3].Slot})
	assert.Equal(t, 0, uniforms[0].Offset)
	assert.Equal(t, 64, uniforms[1].Offset)
	assert.Equal(t, 112, uniforms[2].Offset)
	assert.Equal(t, 128, uniforms[3].Offset)
	assert.Equal(t, 128+4*16, p.UniformSize())

	u, ok := p.Uniform(3)
	require.True(t, ok)
	assert.Equal(t, "far_plane", u.Name)
	_, ok = p.Uniform(1)
	assert.False(t, ok)
}

func TestProcessGeneratesBindings(t *testing.T) {
	p, err := NewProgram("test", WithSource(testSource))
	require.NoError(t, err)

	src := p.Source()
	assert.Contains(t, src, "struct Uniforms {")
	assert.Contains(t, src, "@size(16) far_plane: f32,")
	assert.Contains(t, src, "positions: array<vec3<f32>, 4>,")
	assert.Contains(t, src, "@group(0) @binding(0) var<uniform> u: Uniforms;")
	assert.Contains(t, src, "@group(1) @binding(2) var diffuse: texture_2d<f32>;")
	assert.Contains(t, src, "@group(1) @binding(3) var cube: texture_depth_cube;")
	assert.Contains(t, src, "@location(2) tex_coord: vec2<f32>,", "include expanded")
	assert.NotContains(t, src, "@mt:")

	require.Len(t, p.Textures(), 2)
	assert.Equal(t, "diffuse", p.Textures()[0].Name)
}

func TestProcessErrors(t *testing.T) {
	cases := map[string]string{
		"unknown include":   "//@mt:include nope",
		"duplicate slot":    "//@mt:uniform 0 mat4 a\n//@mt:uniform 0 mat4 b\n//@mt:bindings",
		"duplicate unit":    "//@mt:texture 0 2d a\n//@mt:texture 0 2d b\n//@mt:bindings",
		"no bindings":       "//@mt:uniform 0 mat4 a",
		"bad kind":          "//@mt:uniform 0 vec9 a\n//@mt:bindings",
		"array of scalars":  "//@mt:uniform 0 float a 4\n//@mt:bindings",
		"unknown directive": "//@mt:frobnicate",
		"bad arity":         "//@mt:texture 0 2d",
	}
	for name, src := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := NewProgram("bad", WithSource(src))
			assert.Error(t, err)
		})
	}
}

func TestSelfIncludeFails(t *testing.T) {
	_, err := NewProgram("loop", WithSource("//@mt:include me"), WithInclude("me", "//@mt:include me"))
	assert.Error(t, err)
}

func TestNoSource(t *testing.T) {
	_, err := NewProgram("empty")
	assert.Error(t, err)
}

func TestSourceFromPath(t *testing.T) {
	path := filepath.Join(t.TempDir(), "p.wgsl")
	require.NoError(t, os.WriteFile(path, []byte(AreaShadowSource), 0o644))

	p, err := NewProgram("file", WithSourceFromPath(path), WithEntryPoints("vs_main", ""))
	require.NoError(t, err)
	assert.Equal(t, "", p.FragmentEntry())
	assert.Equal(t, 64, p.UniformSize())
}

func TestBuiltinShadowPrograms(t *testing.T) {
	point, err := NewPointShadowProgram()
	require.NoError(t, err)
	assert.True(t, point.DepthOnly())
	for slot, name := range map[int]string{0: "light_mvp", 1: "model", 2: "light_position", 3: "far_plane"} {
		u, ok := point.Uniform(slot)
		require.True(t, ok, "slot %d", slot)
		assert.Equal(t, name, u.Name)
	}

	area, err := NewAreaShadowProgram()
	require.NoError(t, err)
	assert.Empty(t, area.FragmentEntry())
}

func TestShadingProgramUsesLightInclude(t *testing.T) {
	lights := "//@mt:uniform 10 int num_point_lights\n//@mt:texture 1 depth_cube point_shadow_0"
	p, err := NewShadingProgram(lights)
	require.NoError(t, err)

	for _, slot := range []int{0, 1, 2, 3, 4, 5, 7, 10} {
		_, ok := p.Uniform(slot)
		assert.True(t, ok, "slot %d", slot)
	}
	assert.True(t, strings.Contains(p.Source(), "point_shadow_0: texture_depth_cube"))
}
