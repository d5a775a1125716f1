package loader

import (
	"github.com/Carmen-Shannon/meshtree/common"
	"github.com/go-gl/mathgl/mgl32"
)

// Vertex is one interleaved mesh vertex. The layout (32 bytes, no padding) is the
// vertex buffer layout uploaded to the GPU.
type Vertex struct {
	Position mgl32.Vec3 // offset  0
	Normal   mgl32.Vec3 // offset 12
	TexCoord mgl32.Vec2 // offset 24
}

// VertexStride is the byte size of a Vertex.
const VertexStride = 32

// RawMesh is CPU-side mesh data as read from a model file, before GPU upload.
type RawMesh struct {
	// Name is the mesh name from the source file, or the generator name for built-ins.
	Name string

	// Vertices are the interleaved vertices.
	Vertices []Vertex

	// Indices index Vertices as a triangle list.
	Indices []uint32

	// HasTexCoords reports whether the source supplied texture coordinates.
	HasTexCoords bool

	// Texture is the mesh's diffuse texture, if the source referenced one.
	Texture *common.ImportedTexture
}

// Positions returns the vertex positions, for hit-box construction.
func (r RawMesh) Positions() []mgl32.Vec3 {
	out := make([]mgl32.Vec3, len(r.Vertices))
	for i, v := range r.Vertices {
		out[i] = v.Position
	}
	return out
}
