package scene

import (
	"fmt"

	"github.com/Carmen-Shannon/meshtree/engine/collision"
	"github.com/Carmen-Shannon/meshtree/engine/light"
	"github.com/Carmen-Shannon/meshtree/engine/renderer"
	"github.com/Carmen-Shannon/meshtree/engine/transform"
)

// NodeID is a generation-checked handle to a node slot in a Graph.
// A handle whose slot has been released, or reused by a later node, is expired.
type NodeID struct {
	index uint32
	gen   uint32
}

// Nil is the zero NodeID. It never refers to a node.
var Nil NodeID

// IsNil reports whether id is the zero handle.
func (id NodeID) IsNil() bool {
	return id.gen == 0
}

func (id NodeID) String() string {
	if id.IsNil() {
		return "node(nil)"
	}
	return fmt.Sprintf("node(%d#%d)", id.index, id.gen)
}

// node is one slot's payload. Relations are stored as handles and resolved through the graph.
type node struct {
	tag       string
	mesh      renderer.Mesh
	transform transform.Transform
	hitBox    *collision.HitBox
	parent    NodeID
	children  []NodeID
	areaLight *light.AreaLight
	isRoot    bool
}

// NodeOption is a function that configures a node during construction.
type NodeOption func(*node)

// WithMesh sets the node's drawable mesh.
//
// Parameters:
//   - m: the mesh drawn for this node
//
// Returns:
//   - NodeOption: option function to apply
func WithMesh(m renderer.Mesh) NodeOption {
	return func(n *node) {
		n.mesh = m
	}
}

// WithTransform sets the node's local transform. Nodes default to transform.Identity().
//
// Parameters:
//   - t: the local transform
//
// Returns:
//   - NodeOption: option function to apply
func WithTransform(t transform.Transform) NodeOption {
	return func(n *node) {
		n.transform = t
	}
}

// WithHitBox sets the node's local-space hit box.
//
// Parameters:
//   - hb: the hit box, usually built with collision.NewHitBox from the mesh's vertices
//
// Returns:
//   - NodeOption: option function to apply
func WithHitBox(hb collision.HitBox) NodeOption {
	return func(n *node) {
		n.hitBox = &hb
	}
}

// WithAreaLight attaches an area light whose pose follows the node.
//
// Parameters:
//   - l: the managed area light
//
// Returns:
//   - NodeOption: option function to apply
func WithAreaLight(l *light.AreaLight) NodeOption {
	return func(n *node) {
		n.areaLight = l
	}
}

func newNode(tag string, opts ...NodeOption) *node {
	n := &node{tag: tag, transform: transform.Identity()}
	for _, opt := range opts {
		opt(n)
	}
	return n
}
