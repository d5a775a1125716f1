package renderer

import (
	"github.com/Carmen-Shannon/meshtree/common"
	"github.com/Carmen-Shannon/meshtree/engine/loader"
	"github.com/Carmen-Shannon/meshtree/engine/renderer/shader"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/pkg/errors"
)

// ErrNoProgram is returned by draws issued before a program was bound.
var ErrNoProgram = errors.New("renderer: no program bound")

// Program is a compiled shader program ready to be bound.
type Program interface {
	// Name returns the program name.
	Name() string

	// Layout returns the pre-processed program the device compiled.
	Layout() shader.Program
}

// Target is one depth attachment: a single face of a ShadowMap.
type Target interface {
	// Label identifies the target in logs and recordings.
	Label() string

	// Size returns the edge length in pixels.
	Size() int
}

// ShadowMap is a sampleable depth resource with one face (planar) or six faces (cube).
type ShadowMap interface {
	// Label identifies the shadow map.
	Label() string

	// Cube reports whether the map has six faces.
	Cube() bool

	// Faces returns the number of render targets, 6 for a cube and 1 otherwise.
	Faces() int

	// Face returns the render target of face i. Faces follow +X, -X, +Y, -Y, +Z, -Z for cubes.
	Face(i int) Target

	// Release frees the GPU resources.
	Release()
}

// Texture is a sampleable color texture.
type Texture interface {
	Label() string
	Release()
}

// Mesh is an uploaded, drawable mesh. Draw issues one draw call on the device that
// created it, with whatever program, target, uniforms and textures are bound.
type Mesh interface {
	// Label identifies the mesh.
	Label() string

	// Draw draws the mesh with the device's current state.
	Draw()

	// HasTextureCoords reports whether the mesh carries texture coordinates.
	HasTextureCoords() bool

	// IndexCount returns the number of indices drawn.
	IndexCount() int

	// Release frees the GPU buffers.
	Release()
}

// Device is an immediate-mode rendering context. Programs, targets and uniform values
// are bound as state; meshes draw with the current state. All methods must be called
// from the rendering thread.
//
// Uniform values persist per program across draws, so a pass only needs to update
// the slots that change between meshes.
type Device interface {
	// CompileProgram creates the GPU program for a pre-processed shader program.
	CompileProgram(p shader.Program) (Program, error)

	// CreateShadowMap creates a square depth map of the given edge length, with six
	// faces when cube is true.
	CreateShadowMap(label string, size int, cube bool) (ShadowMap, error)

	// UploadMesh uploads raw mesh data and returns a drawable handle.
	UploadMesh(label string, raw loader.RawMesh) (Mesh, error)

	// UploadTexture uploads RGBA pixel data.
	UploadTexture(label string, data common.TextureStagingData) (Texture, error)

	// BeginFrame starts recording a frame.
	BeginFrame() error

	// EndFrame submits the remaining work of the frame and presents it.
	EndFrame()

	// Barrier completes all work recorded so far so that later passes may sample
	// the targets it wrote.
	Barrier()

	// BindProgram selects the program used by subsequent draws.
	BindProgram(p Program)

	// BindTarget selects the depth target for subsequent draws; nil selects the screen.
	BindTarget(t Target)

	// SetViewport sets the viewport size in pixels for subsequent draws.
	SetViewport(width, height int)

	// ClearDepth clears the bound target's depth to the given value.
	ClearDepth(depth float32)

	// EnableDepthTest enables less-than depth testing with depth writes.
	EnableDepthTest()

	SetUniformMat4(slot int, m mgl32.Mat4)
	SetUniformMat3(slot int, m mgl32.Mat3)
	SetUniformVec3(slot int, v mgl32.Vec3)
	SetUniformFloat(slot int, v float32)
	SetUniformInt(slot int, v int32)
	SetUniformBool(slot int, v bool)
	SetUniformVec3Array(slot int, v []mgl32.Vec3)
	SetUniformMat4Array(slot int, v []mgl32.Mat4)

	// BindTexture binds a color texture to a texture unit; nil unbinds it.
	BindTexture(unit int, t Texture)

	// BindShadowMap binds a shadow map to a texture unit for comparison sampling; nil unbinds it.
	BindShadowMap(unit int, m ShadowMap)

	// Size returns the screen size in pixels.
	Size() (int, int)

	// Resize reconfigures the screen targets.
	Resize(width, height int)

	// Release frees every resource owned by the device.
	Release()
}
