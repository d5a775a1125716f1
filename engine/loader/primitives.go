package loader

import "github.com/go-gl/mathgl/mgl32"

// Built-in mesh names accepted by Loader.Load in place of a file path.
const (
	BuiltinCube  = "builtin:cube"
	BuiltinPlane = "builtin:plane"
)

// Cube returns a unit cube centered on the origin with per-face normals and texture coordinates.
func Cube() RawMesh {
	faces := []struct {
		normal, u, v mgl32.Vec3
	}{
		{mgl32.Vec3{1, 0, 0}, mgl32.Vec3{0, 0, -1}, mgl32.Vec3{0, 1, 0}},
		{mgl32.Vec3{-1, 0, 0}, mgl32.Vec3{0, 0, 1}, mgl32.Vec3{0, 1, 0}},
		{mgl32.Vec3{0, 1, 0}, mgl32.Vec3{1, 0, 0}, mgl32.Vec3{0, 0, -1}},
		{mgl32.Vec3{0, -1, 0}, mgl32.Vec3{1, 0, 0}, mgl32.Vec3{0, 0, 1}},
		{mgl32.Vec3{0, 0, 1}, mgl32.Vec3{1, 0, 0}, mgl32.Vec3{0, 1, 0}},
		{mgl32.Vec3{0, 0, -1}, mgl32.Vec3{-1, 0, 0}, mgl32.Vec3{0, 1, 0}},
	}

	mesh := RawMesh{Name: BuiltinCube, HasTexCoords: true}
	for _, f := range faces {
		base := uint32(len(mesh.Vertices))
		center := f.normal.Mul(0.5)
		for _, c := range [4]mgl32.Vec2{{0, 0}, {1, 0}, {1, 1}, {0, 1}} {
			pos := center.Add(f.u.Mul(c.X() - 0.5)).Add(f.v.Mul(c.Y() - 0.5))
			mesh.Vertices = append(mesh.Vertices, Vertex{Position: pos, Normal: f.normal, TexCoord: mgl32.Vec2{c.X(), 1 - c.Y()}})
		}
		mesh.Indices = append(mesh.Indices, base, base+1, base+2, base, base+2, base+3)
	}
	return mesh
}

// Plane returns a square in the XZ plane facing +Y with the given edge length.
func Plane(size float32) RawMesh {
	h := size / 2
	up := mgl32.Vec3{0, 1, 0}
	return RawMesh{
		Name: BuiltinPlane,
		Vertices: []Vertex{
			{Position: mgl32.Vec3{-h, 0, h}, Normal: up, TexCoord: mgl32.Vec2{0, 1}},
			{Position: mgl32.Vec3{h, 0, h}, Normal: up, TexCoord: mgl32.Vec2{1, 1}},
			{Position: mgl32.Vec3{h, 0, -h}, Normal: up, TexCoord: mgl32.Vec2{1, 0}},
			{Position: mgl32.Vec3{-h, 0, -h}, Normal: up, TexCoord: mgl32.Vec2{0, 0}},
		},
		Indices:      []uint32{0, 1, 2, 0, 2, 3},
		HasTexCoords: true,
	}
}
