// Package scene holds the mesh hierarchy: a generation-checked node arena with an
// ownership registry, world matrix evaluation with area light pose capture, and
// hit-box collision search over the tree.
package scene

import (
	"log"
	"sync"

	"github.com/Carmen-Shannon/meshtree/engine/collision"
	"github.com/Carmen-Shannon/meshtree/engine/light"
	"github.com/Carmen-Shannon/meshtree/engine/renderer"
	"github.com/Carmen-Shannon/meshtree/engine/transform"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/pkg/errors"
)

var (
	// ErrExpired is returned when a handle's node has been released.
	ErrExpired = errors.New("scene: node expired")

	// ErrAlreadyParented is returned by AddChild when the child already has a parent.
	ErrAlreadyParented = errors.New("scene: node already has a parent")

	// ErrRootHasParent is returned by AddChild when the child is a root.
	ErrRootHasParent = errors.New("scene: root node cannot be a child")

	// ErrCycle is returned by AddChild when the parent is a descendant of the child.
	ErrCycle = errors.New("scene: child is an ancestor of parent")

	// ErrAlreadyOwned is returned by Register when the node already has an owner.
	ErrAlreadyOwned = errors.New("scene: node already owned")
)

// DefaultSearchBudget is the number of nodes FindColliding visits before giving up.
const DefaultSearchBudget = 1 << 16

// PoseSink receives area light poses derived from node world matrices.
type PoseSink interface {
	ApplyPose(p light.Pose)
}

// LightDetacher removes an area light from whatever manages it.
type LightDetacher interface {
	RemoveByReference(l *light.AreaLight) bool
}

// slot is one arena entry. A nil node marks a free slot.
type slot struct {
	gen  uint32
	node *node
}

type graph struct {
	mu       *sync.RWMutex
	slots    []slot
	free     []uint32
	registry *Registry
	budget   int
}

// Graph is an arena of scene nodes addressed by NodeID.
//
// Topology and lifetime are separate: AddChild only links a parent and a child,
// Register records a node's owner, and Release is the only way a slot is freed.
// Releasing a node expires every outstanding handle to it; expired children are
// pruned from their parent's list lazily by FindColliding.
// Safe for concurrent readers; mutations must not overlap a frame.
type Graph interface {
	// NewRoot creates a root node. A root has no parent and its world matrix starts from identity.
	NewRoot(tag string, opts ...NodeOption) NodeID

	// NewNode creates a standalone node with no parent and no owner.
	NewNode(tag string, opts ...NodeOption) NodeID

	// NewGroup creates a standalone node with no mesh and the identity transform.
	NewGroup(tag string) NodeID

	// NewMeshNode creates a standalone mesh node with the identity transform.
	NewMeshNode(tag string, mesh renderer.Mesh, hb collision.HitBox) NodeID

	// NewMeshNodeWithTransform creates a standalone mesh node with the given transform.
	NewMeshNodeWithTransform(tag string, mesh renderer.Mesh, hb collision.HitBox, t transform.Transform) NodeID

	// NewChild creates a node, registers it as owned by the parent's tag and links it under parent.
	//
	// Parameters:
	//   - parent: the parent node
	//   - tag: the new node's tag
	//   - opts: node options
	//
	// Returns:
	//   - NodeID: the new node
	//   - error: ErrExpired if parent has been released
	NewChild(parent NodeID, tag string, opts ...NodeOption) (NodeID, error)

	// AddChild links child under parent. The link is not ownership and a parent, once
	// set, is never reassigned.
	//
	// Parameters:
	//   - parent: the parent node
	//   - child: the node to link
	//
	// Returns:
	//   - error: ErrExpired, ErrRootHasParent, ErrAlreadyParented or ErrCycle
	AddChild(parent, child NodeID) error

	// Register records owner as the strong owner of id.
	//
	// Returns:
	//   - error: ErrExpired, or ErrAlreadyOwned if the node is already registered
	Register(id NodeID, owner string) error

	// Registry returns the ownership registry.
	Registry() *Registry

	// Release frees the node's slot and expires its handles. Children and the
	// parent's child list are left alone.
	Release(id NodeID) error

	// Clean releases the node's whole subtree, children before parents, and removes
	// every attached area light from lights.
	//
	// Parameters:
	//   - id: the subtree root
	//   - lights: the light owner to detach area lights from, may be nil
	//
	// Returns:
	//   - error: ErrExpired if id has been released
	Clean(id NodeID, lights LightDetacher) error

	// Valid reports whether id refers to a live node.
	Valid(id NodeID) bool

	// Len returns the number of live nodes.
	Len() int

	// Tag returns the node's tag, or "" for an expired handle.
	Tag(id NodeID) string

	// Mesh returns the node's mesh, or nil.
	Mesh(id NodeID) renderer.Mesh

	// HitBox returns the node's local-space hit box.
	HitBox(id NodeID) (collision.HitBox, bool)

	// Transform returns the node's local transform.
	Transform(id NodeID) (transform.Transform, error)

	// SetTransform replaces the node's local transform.
	SetTransform(id NodeID, t transform.Transform) error

	// Parent returns the node's parent handle, which may be Nil or expired.
	Parent(id NodeID) NodeID

	// Children returns a copy of the node's child list, which may contain expired handles.
	Children(id NodeID) []NodeID

	// AttachAreaLight attaches an area light whose pose follows the node. A nil light detaches.
	AttachAreaLight(id NodeID, l *light.AreaLight) error

	// AreaLight returns the attached area light, or nil.
	AreaLight(id NodeID) *light.AreaLight

	// WorldMatrix composes the node's world matrix from the root down and captures the
	// pose of every area light attached to the node or one of its ancestors. Nothing is
	// cached; every call recomputes. An expired ancestor is logged and yields identity.
	//
	// Parameters:
	//   - id: the node
	//
	// Returns:
	//   - mgl32.Mat4: the world matrix
	//   - []light.Pose: the captured poses, outermost ancestor first
	WorldMatrix(id NodeID) (mgl32.Mat4, []light.Pose)

	// WorldMatrixOnly is WorldMatrix without the poses.
	WorldMatrixOnly(id NodeID) mgl32.Mat4

	// PushLightPoses applies the current pose of every attached area light to sink.
	//
	// Returns:
	//   - int: the number of poses applied
	PushLightPoses(sink PoseSink) int

	// TransformedHitBox maps the node's hit box through its world matrix.
	TransformedHitBox(id NodeID) (collision.HitBox, bool)

	// Collide reports whether two nodes' transformed hit boxes intersect. Both nodes
	// must have hit boxes and both must allow collision.
	Collide(a, b NodeID) bool

	// FindColliding searches the tree under root in pre-order for the first node that
	// collides with query. Neither query nor its descendants are tested. Expired
	// children met on the way are removed from their parent's list.
	//
	// Returns:
	//   - NodeID: the colliding node
	//   - bool: false if nothing collides or the search budget ran out
	FindColliding(root, query NodeID) (NodeID, bool)

	// TryTranslation moves the node by delta unless the move lands it in a collision
	// that brings the two hit box centres closer. A collision that increases the centre
	// distance is allowed so overlapping nodes can slide apart. This is a heuristic and
	// does not resolve overlap in general.
	//
	// Parameters:
	//   - id: the node to move
	//   - delta: the translation to add
	//   - root: the tree searched for collisions
	//
	// Returns:
	//   - bool: true if the move was kept; on false the translate is exactly as before
	TryTranslation(id NodeID, delta mgl32.Vec3, root NodeID) bool
}

var _ Graph = &graph{}

// NewGraph creates an empty Graph.
//
// Parameters:
//   - opts: variadic list of GraphBuilderOption functions to configure the graph
//
// Returns:
//   - Graph: the new graph
func NewGraph(opts ...GraphBuilderOption) Graph {
	g := &graph{
		mu:       &sync.RWMutex{},
		registry: newRegistry(),
		budget:   DefaultSearchBudget,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

func (g *graph) NewRoot(tag string, opts ...NodeOption) NodeID {
	n := newNode(tag, opts...)
	n.isRoot = true

	g.mu.Lock()
	defer g.mu.Unlock()
	return g.insert(n)
}

func (g *graph) NewNode(tag string, opts ...NodeOption) NodeID {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.insert(newNode(tag, opts...))
}

func (g *graph) NewGroup(tag string) NodeID {
	return g.NewNode(tag)
}

func (g *graph) NewMeshNode(tag string, mesh renderer.Mesh, hb collision.HitBox) NodeID {
	return g.NewNode(tag, WithMesh(mesh), WithHitBox(hb))
}

func (g *graph) NewMeshNodeWithTransform(tag string, mesh renderer.Mesh, hb collision.HitBox, t transform.Transform) NodeID {
	return g.NewNode(tag, WithMesh(mesh), WithHitBox(hb), WithTransform(t))
}

func (g *graph) NewChild(parent NodeID, tag string, opts ...NodeOption) (NodeID, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	p := g.get(parent)
	if p == nil {
		return Nil, errors.Wrapf(ErrExpired, "new child %q of %s", tag, parent)
	}
	id := g.insert(newNode(tag, opts...))
	g.registry.register(id, p.tag)
	g.link(parent, p, id, g.get(id))
	return id, nil
}

func (g *graph) AddChild(parent, child NodeID) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	p, c := g.get(parent), g.get(child)
	if p == nil {
		return errors.Wrapf(ErrExpired, "add child: parent %s", parent)
	}
	if c == nil {
		return errors.Wrapf(ErrExpired, "add child: child %s", child)
	}
	if c.isRoot {
		return errors.Wrapf(ErrRootHasParent, "add child %q", c.tag)
	}
	if !c.parent.IsNil() {
		return errors.Wrapf(ErrAlreadyParented, "add child %q", c.tag)
	}
	for cur := parent; !cur.IsNil(); {
		if cur == child {
			return errors.Wrapf(ErrCycle, "add child %q under %q", c.tag, p.tag)
		}
		n := g.get(cur)
		if n == nil {
			break
		}
		cur = n.parent
	}
	g.link(parent, p, child, c)
	return nil
}

func (g *graph) Register(id NodeID, owner string) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.get(id) == nil {
		return errors.Wrapf(ErrExpired, "register %s", id)
	}
	if !g.registry.register(id, owner) {
		return errors.Wrapf(ErrAlreadyOwned, "register %s for %q", id, owner)
	}
	return nil
}

func (g *graph) Registry() *Registry {
	return g.registry
}

func (g *graph) Release(id NodeID) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.get(id) == nil {
		return errors.Wrapf(ErrExpired, "release %s", id)
	}
	g.release(id)
	return nil
}

func (g *graph) Clean(id NodeID, lights LightDetacher) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.get(id) == nil {
		return errors.Wrapf(ErrExpired, "clean %s", id)
	}

	// Pre-order walk; releasing in reverse frees children before their parents.
	order := []NodeID{}
	stack := []NodeID{id}
	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		n := g.get(cur)
		if n == nil {
			continue
		}
		order = append(order, cur)
		for i := len(n.children) - 1; i >= 0; i-- {
			stack = append(stack, n.children[i])
		}
	}
	for i := len(order) - 1; i >= 0; i-- {
		n := g.get(order[i])
		if n.areaLight != nil && lights != nil {
			lights.RemoveByReference(n.areaLight)
		}
		g.release(order[i])
	}
	return nil
}

func (g *graph) Valid(id NodeID) bool {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.get(id) != nil
}

func (g *graph) Len() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.slots) - len(g.free)
}

func (g *graph) Tag(id NodeID) string {
	g.mu.RLock()
	defer g.mu.RUnlock()
	if n := g.get(id); n != nil {
		return n.tag
	}
	return ""
}

func (g *graph) Mesh(id NodeID) renderer.Mesh {
	g.mu.RLock()
	defer g.mu.RUnlock()
	if n := g.get(id); n != nil {
		return n.mesh
	}
	return nil
}

func (g *graph) HitBox(id NodeID) (collision.HitBox, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	n := g.get(id)
	if n == nil || n.hitBox == nil {
		return collision.HitBox{}, false
	}
	return *n.hitBox, true
}

func (g *graph) Transform(id NodeID) (transform.Transform, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	n := g.get(id)
	if n == nil {
		return transform.Transform{}, errors.Wrapf(ErrExpired, "transform of %s", id)
	}
	return n.transform, nil
}

func (g *graph) SetTransform(id NodeID, t transform.Transform) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	n := g.get(id)
	if n == nil {
		return errors.Wrapf(ErrExpired, "set transform of %s", id)
	}
	n.transform = t
	return nil
}

func (g *graph) Parent(id NodeID) NodeID {
	g.mu.RLock()
	defer g.mu.RUnlock()
	if n := g.get(id); n != nil {
		return n.parent
	}
	return Nil
}

func (g *graph) Children(id NodeID) []NodeID {
	g.mu.RLock()
	defer g.mu.RUnlock()
	if n := g.get(id); n != nil {
		return append([]NodeID(nil), n.children...)
	}
	return nil
}

func (g *graph) AttachAreaLight(id NodeID, l *light.AreaLight) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	n := g.get(id)
	if n == nil {
		return errors.Wrapf(ErrExpired, "attach area light to %s", id)
	}
	n.areaLight = l
	return nil
}

func (g *graph) AreaLight(id NodeID) *light.AreaLight {
	g.mu.RLock()
	defer g.mu.RUnlock()
	if n := g.get(id); n != nil {
		return n.areaLight
	}
	return nil
}

func (g *graph) WorldMatrix(id NodeID) (mgl32.Mat4, []light.Pose) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.worldMatrix(id, true)
}

func (g *graph) WorldMatrixOnly(id NodeID) mgl32.Mat4 {
	g.mu.RLock()
	defer g.mu.RUnlock()
	m, _ := g.worldMatrix(id, false)
	return m
}

func (g *graph) PushLightPoses(sink PoseSink) int {
	g.mu.RLock()
	defer g.mu.RUnlock()

	pushed := 0
	for i, s := range g.slots {
		if s.node == nil || s.node.areaLight == nil {
			continue
		}
		_, poses := g.worldMatrix(NodeID{index: uint32(i), gen: s.gen}, true)
		// The node's own pose is captured last.
		for j := len(poses) - 1; j >= 0; j-- {
			if poses[j].Light == s.node.areaLight {
				sink.ApplyPose(poses[j])
				pushed++
				break
			}
		}
	}
	return pushed
}

// get resolves a handle. Caller must hold g.mu.
func (g *graph) get(id NodeID) *node {
	if id.IsNil() || int(id.index) >= len(g.slots) {
		return nil
	}
	s := g.slots[id.index]
	if s.gen != id.gen {
		return nil
	}
	return s.node
}

// insert places n in a free slot, or a new one. Caller must hold g.mu write lock.
func (g *graph) insert(n *node) NodeID {
	if k := len(g.free); k > 0 {
		index := g.free[k-1]
		g.free = g.free[:k-1]
		g.slots[index].node = n
		return NodeID{index: index, gen: g.slots[index].gen}
	}
	g.slots = append(g.slots, slot{gen: 1, node: n})
	return NodeID{index: uint32(len(g.slots) - 1), gen: 1}
}

// release frees a live slot. Caller must hold g.mu write lock.
func (g *graph) release(id NodeID) {
	s := &g.slots[id.index]
	log.Printf("[Scene] destroyed node %q", s.node.tag)
	g.registry.release(id)
	s.node = nil
	s.gen++
	if s.gen == 0 {
		s.gen = 1
	}
	g.free = append(g.free, id.index)
}

func (g *graph) link(parent NodeID, p *node, child NodeID, c *node) {
	c.parent = parent
	p.children = append(p.children, child)
}

// worldMatrix walks from id up to its root, then composes each level's transform
// from the root down. Caller must hold g.mu.
func (g *graph) worldMatrix(id NodeID, withPoses bool) (mgl32.Mat4, []light.Pose) {
	n := g.get(id)
	if n == nil {
		log.Printf("[Scene] world matrix of expired node %s", id)
		return mgl32.Ident4(), nil
	}

	chain := []*node{n}
	for cur := n; !cur.isRoot; {
		if cur.parent.IsNil() {
			return mgl32.Ident4(), nil
		}
		parent := g.get(cur.parent)
		if parent == nil {
			log.Printf("[Scene] expired parent of node %q", cur.tag)
			return mgl32.Ident4(), nil
		}
		if len(chain) > len(g.slots) {
			log.Printf("[Scene] parent chain of node %q does not reach a root", n.tag)
			return mgl32.Ident4(), nil
		}
		chain = append(chain, parent)
		cur = parent
	}

	var poses []light.Pose
	m := mgl32.Ident4()
	for i := len(chain) - 1; i >= 0; i-- {
		t := chain[i].transform
		m = t.ApplyParentRotation(m)
		m = t.ApplyTranslation(m)
		if withPoses && chain[i].areaLight != nil {
			poses = append(poses, poseAt(chain[i].areaLight, m))
		}
		m = t.ApplySelfRotation(m)
		m = t.ApplyScale(m)
	}
	return m, poses
}

// poseAt places an area light at the origin of m, facing m's local -X.
func poseAt(l *light.AreaLight, m mgl32.Mat4) light.Pose {
	forward := m.Mul4x1(mgl32.Vec4{-1, 0, 0, 0}).Vec3()
	if forward.Len() < 1e-6 {
		forward = light.DefaultAreaForward
	}
	return light.Pose{
		Light:    l,
		Position: m.Col(3).Vec3(),
		Forward:  forward.Normalize(),
	}
}
