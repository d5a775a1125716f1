package shader

import (
	"fmt"
	"strings"
)

// UniformKind is the value type stored in a uniform slot.
type UniformKind string

const (
	UniformMat4  UniformKind = "mat4"
	UniformMat3  UniformKind = "mat3"
	UniformVec3  UniformKind = "vec3"
	UniformFloat UniformKind = "float"
	UniformInt   UniformKind = "int"
	UniformBool  UniformKind = "bool"
)

type kindInfo struct {
	size      int
	wgsl      string
	arrayable bool
}

// Every member occupies a multiple of 16 bytes so consecutive slots stay 16-byte aligned
// in the uniform address space.
var uniformKinds = map[UniformKind]kindInfo{
	UniformMat4:  {size: 64, wgsl: "mat4x4<f32>", arrayable: true},
	UniformMat3:  {size: 48, wgsl: "mat3x3<f32>"},
	UniformVec3:  {size: 16, wgsl: "vec3<f32>", arrayable: true},
	UniformFloat: {size: 16, wgsl: "f32"},
	UniformInt:   {size: 16, wgsl: "i32"},
	UniformBool:  {size: 16, wgsl: "u32"},
}

// Uniform is one slot of a program's uniform block.
type Uniform struct {
	// Slot is the number callers address the uniform by.
	Slot int
	// Kind is the element type.
	Kind UniformKind
	// Name is the WGSL member name.
	Name string
	// Count is the array length, 0 for a plain value.
	Count int
	// Offset is the byte offset within the block, filled in by the pre-processor.
	Offset int
}

// Size returns the number of bytes the uniform occupies in the block.
func (u Uniform) Size() int {
	return uniformKinds[u.Kind].size * max(1, u.Count)
}

// ElementSize returns the size of a single element.
func (u Uniform) ElementSize() int {
	return uniformKinds[u.Kind].size
}

func (u Uniform) wgslMember() string {
	info := uniformKinds[u.Kind]
	if u.Count > 0 {
		return fmt.Sprintf("    %s: array<%s, %d>,", u.Name, info.wgsl, u.Count)
	}
	if info.size == 16 {
		return fmt.Sprintf("    @size(16) %s: %s,", u.Name, info.wgsl)
	}
	return fmt.Sprintf("    %s: %s,", u.Name, info.wgsl)
}

// TextureKind is the WGSL texture type bound to a unit.
type TextureKind string

const (
	TextureColor2D   TextureKind = "2d"
	TextureDepth2D   TextureKind = "depth_2d"
	TextureDepthCube TextureKind = "depth_cube"
)

var textureKinds = map[TextureKind]string{
	TextureColor2D:   "texture_2d<f32>",
	TextureDepth2D:   "texture_depth_2d",
	TextureDepthCube: "texture_depth_cube",
}

// TextureBinding is a texture unit declared by a program.
type TextureBinding struct {
	Unit int
	Kind TextureKind
	Name string
}

// Binding returns the binding index of the texture within the texture group.
// Bindings 0 and 1 hold the color and comparison samplers.
func (t TextureBinding) Binding() int {
	return TextureBindingBase + t.Unit
}

const (
	// UniformGroup is the bind group holding the uniform block at binding 0.
	UniformGroup = 0
	// TextureGroup is the bind group holding samplers and textures.
	TextureGroup = 1
	// TextureBindingBase is the binding index of texture unit 0.
	TextureBindingBase = 2
)

// generateBindings emits the WGSL declarations for the uniform block and texture units.
func generateBindings(uniforms []Uniform, textures []TextureBinding) string {
	var b strings.Builder
	if len(uniforms) > 0 {
		b.WriteString("struct Uniforms {\n")
		for _, u := range uniforms {
			b.WriteString(u.wgslMember())
			b.WriteString("\n")
		}
		b.WriteString("};\n")
		fmt.Fprintf(&b, "@group(%d) @binding(0) var<uniform> u: Uniforms;\n", UniformGroup)
	}
	if len(textures) > 0 {
		fmt.Fprintf(&b, "@group(%d) @binding(0) var color_sampler: sampler;\n", TextureGroup)
		fmt.Fprintf(&b, "@group(%d) @binding(1) var shadow_sampler: sampler_comparison;\n", TextureGroup)
		for _, t := range textures {
			fmt.Fprintf(&b, "@group(%d) @binding(%d) var %s: %s;\n", TextureGroup, t.Binding(), t.Name, textureKinds[t.Kind])
		}
	}
	return strings.TrimSuffix(b.String(), "\n")
}
