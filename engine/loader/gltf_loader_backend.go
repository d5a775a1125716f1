package loader

import (
	"io"
	"log"
	"path/filepath"
	"strconv"

	"github.com/Carmen-Shannon/meshtree/common"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/pkg/errors"
	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"
)

// gltfLoaderBackendImpl reads glTF/GLB documents with qmuntal/gltf.
// Each glTF mesh becomes one RawMesh; its triangle primitives are concatenated.
// Node transforms are not applied, meshes are returned in their own space.
type gltfLoaderBackendImpl struct{}

var _ loaderBackend = &gltfLoaderBackendImpl{}

// newGLTFLoaderBackend creates a new glTF loader backend.
func newGLTFLoaderBackend() loaderBackend {
	return &gltfLoaderBackendImpl{}
}

func (b *gltfLoaderBackendImpl) Load(path string) ([]RawMesh, error) {
	doc, err := gltf.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "open gltf")
	}
	return extractMeshes(doc, filepath.Dir(path))
}

func (b *gltfLoaderBackendImpl) LoadReader(r io.Reader) ([]RawMesh, error) {
	doc := new(gltf.Document)
	if err := gltf.NewDecoder(r).Decode(doc); err != nil {
		return nil, errors.Wrap(err, "decode gltf")
	}
	return extractMeshes(doc, "")
}

func extractMeshes(doc *gltf.Document, baseDir string) ([]RawMesh, error) {
	meshes := make([]RawMesh, 0, len(doc.Meshes))
	for mi, mesh := range doc.Meshes {
		raw := RawMesh{Name: mesh.Name, HasTexCoords: true}
		if raw.Name == "" {
			raw.Name = filepath.Base(baseDir) + "#" + strconv.Itoa(mi)
		}

		triangles := 0
		for _, primitive := range mesh.Primitives {
			if primitive.Mode != gltf.PrimitiveTriangles {
				log.Printf("[Loader] mesh %q: skipping non-triangle primitive", raw.Name)
				continue
			}
			hasUV, err := appendPrimitive(doc, primitive, &raw)
			if err != nil {
				return nil, errors.Wrapf(err, "mesh %q", raw.Name)
			}
			raw.HasTexCoords = raw.HasTexCoords && hasUV
			if raw.Texture == nil {
				raw.Texture = baseColorTexture(doc, primitive, baseDir)
			}
			triangles++
		}
		if triangles == 0 {
			continue
		}
		meshes = append(meshes, raw)
	}
	if len(meshes) == 0 {
		return nil, errors.New("document has no triangle meshes")
	}
	return meshes, nil
}

// appendPrimitive appends one primitive's vertices and re-based indices to raw.
// It reports whether the primitive carried TEXCOORD_0.
func appendPrimitive(doc *gltf.Document, primitive *gltf.Primitive, raw *RawMesh) (bool, error) {
	posIdx, ok := primitive.Attributes["POSITION"]
	if !ok {
		return false, errors.New("primitive has no POSITION attribute")
	}
	positions, err := modeler.ReadPosition(doc, doc.Accessors[posIdx], nil)
	if err != nil {
		return false, errors.Wrap(err, "read positions")
	}

	var normals [][3]float32
	if idx, ok := primitive.Attributes["NORMAL"]; ok {
		if normals, err = modeler.ReadNormal(doc, doc.Accessors[idx], nil); err != nil {
			return false, errors.Wrap(err, "read normals")
		}
	}

	var uvs [][2]float32
	if idx, ok := primitive.Attributes["TEXCOORD_0"]; ok {
		if uvs, err = modeler.ReadTextureCoord(doc, doc.Accessors[idx], nil); err != nil {
			return false, errors.Wrap(err, "read texture coordinates")
		}
	}

	var indices []uint32
	if primitive.Indices != nil {
		if indices, err = modeler.ReadIndices(doc, doc.Accessors[*primitive.Indices], nil); err != nil {
			return false, errors.Wrap(err, "read indices")
		}
	} else {
		indices = make([]uint32, len(positions))
		for i := range indices {
			indices[i] = uint32(i)
		}
	}

	base := uint32(len(raw.Vertices))
	for i, p := range positions {
		v := Vertex{Position: p}
		if i < len(normals) {
			v.Normal = normals[i]
		}
		if i < len(uvs) {
			v.TexCoord = uvs[i]
		}
		raw.Vertices = append(raw.Vertices, v)
	}
	for _, idx := range indices {
		if int(idx) >= len(positions) {
			return false, errors.Errorf("index %d out of range of %d vertices", idx, len(positions))
		}
		raw.Indices = append(raw.Indices, base+idx)
	}
	if len(normals) == 0 {
		computeNormals(raw.Vertices[base:], indices)
	}
	return len(uvs) > 0, nil
}

// computeNormals fills smooth vertex normals from triangle faces.
func computeNormals(vertices []Vertex, indices []uint32) {
	for i := 0; i+2 < len(indices); i += 3 {
		a, b, c := &vertices[indices[i]], &vertices[indices[i+1]], &vertices[indices[i+2]]
		n := b.Position.Sub(a.Position).Cross(c.Position.Sub(a.Position))
		a.Normal = a.Normal.Add(n)
		b.Normal = b.Normal.Add(n)
		c.Normal = c.Normal.Add(n)
	}
	for i := range vertices {
		if vertices[i].Normal.LenSqr() > 0 {
			vertices[i].Normal = vertices[i].Normal.Normalize()
		} else {
			vertices[i].Normal = mgl32.Vec3{0, 1, 0}
		}
	}
}

// baseColorTexture resolves the primitive material's base color image, if any.
func baseColorTexture(doc *gltf.Document, primitive *gltf.Primitive, baseDir string) *common.ImportedTexture {
	if primitive.Material == nil {
		return nil
	}
	mat := doc.Materials[*primitive.Material]
	if mat.PBRMetallicRoughness == nil || mat.PBRMetallicRoughness.BaseColorTexture == nil {
		return nil
	}
	tex := doc.Textures[mat.PBRMetallicRoughness.BaseColorTexture.Index]
	if tex.Source == nil {
		return nil
	}
	img := doc.Images[*tex.Source]

	out := &common.ImportedTexture{Name: img.Name, MimeType: img.MimeType}
	switch {
	case img.BufferView != nil:
		data, err := modeler.ReadBufferView(doc, doc.BufferViews[*img.BufferView])
		if err != nil {
			log.Printf("[Loader] image %q: %v", img.Name, err)
			return nil
		}
		out.Data = data
	case img.IsEmbeddedResource():
		data, err := img.MarshalData()
		if err != nil {
			log.Printf("[Loader] image %q: %v", img.Name, err)
			return nil
		}
		out.Data = data
	case img.URI != "" && baseDir != "":
		out.Path = filepath.Join(baseDir, img.URI)
	default:
		return nil
	}
	return out
}
