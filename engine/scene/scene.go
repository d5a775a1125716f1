package scene

import (
	"fmt"
	"log"
	"slices"
	"sync"

	"github.com/Carmen-Shannon/meshtree/engine/collision"
	"github.com/Carmen-Shannon/meshtree/engine/loader"
	"github.com/Carmen-Shannon/meshtree/engine/renderer"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/pkg/errors"
)

// DefaultRootTag is the tag of the node every scene mesh hangs from.
const DefaultRootTag = "root"

// sceneMesh is one drawable entry of the mesh list.
type sceneMesh struct {
	node    NodeID
	mesh    renderer.Mesh
	texture renderer.Texture
}

type scene struct {
	mu *sync.RWMutex

	graph  Graph
	root   NodeID
	device renderer.Device
	lights LightDetacher

	rootTag string
	meshes  []sceneMesh
}

// Scene is the ordered list of drawable meshes living in a node Graph under a single root.
// Each mesh owns its GPU mesh, optional diffuse texture and a node; the passes draw
// meshes in list order. Mutations must happen between frames.
type Scene interface {
	// Graph returns the node graph backing the scene.
	Graph() Graph

	// Root returns the root node.
	Root() NodeID

	// AddMesh uploads raw to the device and adds a mesh node for it. The node's hit box
	// is built from raw's vertices. An embedded texture that fails to decode or upload
	// is logged and the mesh draws untextured.
	//
	// Parameters:
	//   - tag: the node's tag, also used as the GPU resource label
	//   - raw: the mesh data
	//   - opts: mesh options (transform, parent, collision, area light)
	//
	// Returns:
	//   - NodeID: the new node
	//   - error: an error if the mesh upload failed or the parent has expired
	AddMesh(tag string, raw loader.RawMesh, opts ...MeshOption) (NodeID, error)

	// RemoveMesh cleans the mesh's node subtree, detaching attached area lights, and
	// releases the GPU resources of every mesh whose node went with it.
	// i must be below NumMeshes.
	RemoveMesh(i int)

	// NumMeshes returns the number of meshes.
	NumMeshes() int

	// MeshAt returns mesh i's GPU mesh.
	MeshAt(i int) renderer.Mesh

	// TextureAt returns mesh i's diffuse texture, or nil.
	TextureAt(i int) renderer.Texture

	// NodeAt returns mesh i's node.
	NodeAt(i int) NodeID

	// ModelMatrix returns mesh i's world matrix.
	ModelMatrix(i int) mgl32.Mat4

	// Release releases every mesh's GPU resources and the whole graph under the root.
	Release()
}

var _ Scene = &scene{}

// NewScene creates an empty scene uploading meshes to dev. lights receives area
// light detachments when meshes are removed and may be nil.
//
// Parameters:
//   - dev: the device meshes and textures are uploaded to
//   - lights: the owner of area lights attached to scene nodes
//   - options: functional options to further configure the scene
//
// Returns:
//   - Scene: the new scene
func NewScene(dev renderer.Device, lights LightDetacher, options ...SceneBuilderOption) Scene {
	s := &scene{
		mu:      &sync.RWMutex{},
		device:  dev,
		lights:  lights,
		rootTag: DefaultRootTag,
	}
	for _, option := range options {
		option(s)
	}
	if s.graph == nil {
		s.graph = NewGraph()
	}

	s.root = s.graph.NewRoot(s.rootTag)
	if err := s.graph.Register(s.root, "scene"); err != nil {
		log.Printf("[Scene] register root: %v", err)
	}
	return s
}

func (s *scene) Graph() Graph {
	return s.graph
}

func (s *scene) Root() NodeID {
	return s.root
}

func (s *scene) AddMesh(tag string, raw loader.RawMesh, opts ...MeshOption) (NodeID, error) {
	cfg := meshConfig{collide: true}
	for _, opt := range opts {
		opt(&cfg)
	}
	parent := s.root
	if !cfg.parent.IsNil() {
		parent = cfg.parent
	}
	if !s.graph.Valid(parent) {
		return Nil, errors.Wrapf(ErrExpired, "add mesh %q", tag)
	}

	mesh, err := s.device.UploadMesh(tag, raw)
	if err != nil {
		return Nil, errors.Wrapf(err, "add mesh %q", tag)
	}

	var tex renderer.Texture
	if raw.Texture != nil {
		tex, err = s.uploadTexture(tag, raw)
		if err != nil {
			log.Printf("[Scene] mesh %q draws untextured: %v", tag, err)
		}
	}

	nodeOpts := []NodeOption{
		WithMesh(mesh),
		WithHitBox(collision.NewHitBox(raw.Positions(), cfg.collide)),
	}
	if cfg.transform != nil {
		nodeOpts = append(nodeOpts, WithTransform(*cfg.transform))
	}
	if cfg.areaLight != nil {
		nodeOpts = append(nodeOpts, WithAreaLight(cfg.areaLight))
	}

	id, err := s.graph.NewChild(parent, tag, nodeOpts...)
	if err != nil {
		mesh.Release()
		if tex != nil {
			tex.Release()
		}
		return Nil, errors.Wrapf(err, "add mesh %q", tag)
	}

	s.mu.Lock()
	s.meshes = append(s.meshes, sceneMesh{node: id, mesh: mesh, texture: tex})
	s.mu.Unlock()
	return id, nil
}

func (s *scene) uploadTexture(tag string, raw loader.RawMesh) (renderer.Texture, error) {
	staging, err := raw.Texture.Decode()
	if err != nil {
		return nil, err
	}
	return s.device.UploadTexture(fmt.Sprintf("%s/diffuse", tag), staging)
}

func (s *scene) RemoveMesh(i int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.graph.Clean(s.meshes[i].node, s.lights); err != nil {
		log.Printf("[Scene] remove mesh %d: %v", i, err)
	}
	s.meshes = slices.DeleteFunc(s.meshes, func(m sceneMesh) bool {
		if s.graph.Valid(m.node) {
			return false
		}
		m.release()
		return true
	})
}

func (s *scene) NumMeshes() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.meshes)
}

func (s *scene) MeshAt(i int) renderer.Mesh {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.meshes[i].mesh
}

func (s *scene) TextureAt(i int) renderer.Texture {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.meshes[i].texture
}

func (s *scene) NodeAt(i int) NodeID {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.meshes[i].node
}

func (s *scene) ModelMatrix(i int) mgl32.Mat4 {
	return s.graph.WorldMatrixOnly(s.NodeAt(i))
}

func (s *scene) Release() {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, m := range s.meshes {
		m.release()
	}
	s.meshes = nil
	if s.graph.Valid(s.root) {
		if err := s.graph.Clean(s.root, s.lights); err != nil {
			log.Printf("[Scene] release: %v", err)
		}
	}
}

func (m sceneMesh) release() {
	m.mesh.Release()
	if m.texture != nil {
		m.texture.Release()
	}
}
