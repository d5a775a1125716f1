package shader

import (
	_ "embed"
)

// VertexInputSource is the WGSL VertexInput struct matching the interleaved
// position/normal/texcoord vertex layout uploaded by the device.
//
//go:embed assets/vertex_input.wgsl
var VertexInputSource string

// PointShadowSource is the cube-face shadow program.
//
//go:embed assets/point_shadow.wgsl
var PointShadowSource string

// AreaShadowSource is the planar shadow program.
//
//go:embed assets/area_shadow.wgsl
var AreaShadowSource string

// ShadingSource is the default lit shading program. It includes "light_uniforms",
// which the caller supplies through WithInclude.
//
//go:embed assets/shading.wgsl
var ShadingSource string

// Built-in program names.
const (
	ProgramPointShadow = "point_shadow"
	ProgramAreaShadow  = "area_shadow"
	ProgramShading     = "shading"
)

func builtinIncludes() map[string]string {
	return map[string]string{
		"vertex_input": VertexInputSource,
	}
}

// NewPointShadowProgram builds the built-in point-light shadow program.
func NewPointShadowProgram() (Program, error) {
	return NewProgram(ProgramPointShadow, WithSource(PointShadowSource), WithDepthOnly())
}

// NewAreaShadowProgram builds the built-in area-light shadow program.
func NewAreaShadowProgram() (Program, error) {
	return NewProgram(ProgramAreaShadow, WithSource(AreaShadowSource), WithDepthOnly(), WithEntryPoints("vs_main", ""))
}

// NewShadingProgram builds the built-in shading program with the given light uniform snippet.
//
// Parameters:
//   - lightUniforms: WGSL snippet declaring the light uniform slots, textures and lookup functions
//
// Returns:
//   - Program: the built program
//   - error: an error if pre-processing fails
func NewShadingProgram(lightUniforms string) (Program, error) {
	return NewProgram(ProgramShading, WithSource(ShadingSource), WithInclude("light_uniforms", lightUniforms))
}
