package scene

import (
	"github.com/Carmen-Shannon/meshtree/engine/light"
	"github.com/Carmen-Shannon/meshtree/engine/transform"
)

// SceneBuilderOption is a functional option for configuring a Scene.
// Use the With* functions to create options.
type SceneBuilderOption func(s *scene)

// WithGraph makes the scene build its root in an existing graph.
//
// Parameters:
//   - g: the graph to use
//
// Returns:
//   - SceneBuilderOption: option function to apply
func WithGraph(g Graph) SceneBuilderOption {
	return func(s *scene) {
		s.graph = g
	}
}

// WithRootTag sets the tag of the scene's root node.
func WithRootTag(tag string) SceneBuilderOption {
	return func(s *scene) {
		s.rootTag = tag
	}
}

// meshConfig collects the MeshOption values for one AddMesh call.
type meshConfig struct {
	transform *transform.Transform
	parent    NodeID
	collide   bool
	areaLight *light.AreaLight
}

// MeshOption is a functional option for Scene.AddMesh.
type MeshOption func(c *meshConfig)

// WithMeshTransform sets the new mesh node's local transform.
//
// Parameters:
//   - t: the local transform
//
// Returns:
//   - MeshOption: option function to apply
func WithMeshTransform(t transform.Transform) MeshOption {
	return func(c *meshConfig) {
		c.transform = &t
	}
}

// WithParent links the new mesh node under parent instead of the scene root.
//
// Parameters:
//   - parent: a live node of the scene's graph
//
// Returns:
//   - MeshOption: option function to apply
func WithParent(parent NodeID) MeshOption {
	return func(c *meshConfig) {
		c.parent = parent
	}
}

// WithCollision sets whether the mesh's hit box takes part in collision tests. Defaults to true.
func WithCollision(allow bool) MeshOption {
	return func(c *meshConfig) {
		c.collide = allow
	}
}

// WithMeshAreaLight attaches an area light that follows the mesh node.
func WithMeshAreaLight(l *light.AreaLight) MeshOption {
	return func(c *meshConfig) {
		c.areaLight = l
	}
}
