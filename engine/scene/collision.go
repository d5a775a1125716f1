package scene

import (
	"log"

	"github.com/Carmen-Shannon/meshtree/engine/collision"
	"github.com/go-gl/mathgl/mgl32"
)

func (g *graph) TransformedHitBox(id NodeID) (collision.HitBox, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.transformedHitBox(id)
}

func (g *graph) Collide(a, b NodeID) bool {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.collide(a, b)
}

func (g *graph) FindColliding(root, query NodeID) (NodeID, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.findColliding(root, query)
}

func (g *graph) TryTranslation(id NodeID, delta mgl32.Vec3, root NodeID) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	n := g.get(id)
	if n == nil {
		log.Printf("[Scene] translate expired node %s", id)
		return false
	}

	before := n.transform.Translate
	n.transform.Translate = before.Add(delta)

	other, hit := g.findColliding(root, id)
	if !hit {
		return true
	}

	newDist := g.centreDistance(id, other)
	n.transform.Translate = before
	oldDist := g.centreDistance(id, other)

	if newDist > oldDist {
		n.transform.Translate = before.Add(delta)
		return true
	}
	return false
}

// transformedHitBox requires g.mu held.
func (g *graph) transformedHitBox(id NodeID) (collision.HitBox, bool) {
	n := g.get(id)
	if n == nil || n.hitBox == nil {
		return collision.HitBox{}, false
	}
	m, _ := g.worldMatrix(id, false)
	return n.hitBox.Transformed(m), true
}

// collide requires g.mu held.
func (g *graph) collide(a, b NodeID) bool {
	ha, ok := g.transformedHitBox(a)
	if !ok || !ha.AllowCollision {
		return false
	}
	hb, ok := g.transformedHitBox(b)
	if !ok || !hb.AllowCollision {
		return false
	}
	return ha.Collides(hb)
}

// findColliding is the iterative pre-order search behind FindColliding. Each visited
// node's child list is compacted in place before its children are queued, so expired
// handles are dropped without disturbing the order of live siblings. The query's own
// subtree is not entered: descendants move with the query and never count against it.
// Caller must hold g.mu write lock.
func (g *graph) findColliding(root, query NodeID) (NodeID, bool) {
	stack := []NodeID{root}
	visited := 0
	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		n := g.get(cur)
		if n == nil {
			continue
		}
		visited++
		if visited > g.budget {
			log.Printf("[Scene] collision search under %q stopped after %d nodes", g.tagOf(root), g.budget)
			return Nil, false
		}
		if cur == query {
			continue
		}
		if g.collide(cur, query) {
			return cur, true
		}

		live := n.children[:0]
		for _, c := range n.children {
			if g.get(c) != nil {
				live = append(live, c)
			}
		}
		clear(n.children[len(live):])
		n.children = live

		for i := len(live) - 1; i >= 0; i-- {
			stack = append(stack, live[i])
		}
	}
	return Nil, false
}

// centreDistance is the distance between two nodes' transformed hit box centres.
// Caller must hold g.mu.
func (g *graph) centreDistance(a, b NodeID) float32 {
	ha, _ := g.transformedHitBox(a)
	hb, _ := g.transformedHitBox(b)
	return ha.Middle().Sub(hb.Middle()).Len()
}

// tagOf requires g.mu held.
func (g *graph) tagOf(id NodeID) string {
	if n := g.get(id); n != nil {
		return n.tag
	}
	return ""
}
