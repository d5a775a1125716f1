// Package collision implements mesh hit boxes and oriented box intersection.
package collision

import (
	"math"

	"github.com/Carmen-Shannon/meshtree/common"
	"github.com/go-gl/mathgl/mgl32"
)

// HitBox is a box computed once from a mesh's local-space vertex extents.
// Corner i selects max on X when i&1, on Y when i&2 and on Z when i&4, min otherwise.
type HitBox struct {
	AllowCollision bool
	Points         [8]mgl32.Vec3
}

// NewHitBox builds the local-space box bounding positions.
// Extents start from the first vertex; an empty slice yields a degenerate box at the origin.
//
// Parameters:
//   - positions: the mesh's local-space vertex positions
//   - allowCollision: whether the box participates in collision tests
//
// Returns:
//   - HitBox: the constructed box
func NewHitBox(positions []mgl32.Vec3, allowCollision bool) HitBox {
	var lo, hi mgl32.Vec3
	if len(positions) > 0 {
		lo, hi = positions[0], positions[0]
	}
	for _, p := range positions[min(1, len(positions)):] {
		for a := 0; a < 3; a++ {
			lo[a] = min(lo[a], p[a])
			hi[a] = max(hi[a], p[a])
		}
	}
	return fromExtents(lo, hi, allowCollision)
}

func fromExtents(lo, hi mgl32.Vec3, allowCollision bool) HitBox {
	hb := HitBox{AllowCollision: allowCollision}
	for i := range hb.Points {
		pick := func(axis int) float32 {
			if i&(1<<axis) != 0 {
				return hi[axis]
			}
			return lo[axis]
		}
		hb.Points[i] = mgl32.Vec3{pick(0), pick(1), pick(2)}
	}
	return hb
}

// Transformed returns a copy of the box with every corner mapped through m.
func (h HitBox) Transformed(m mgl32.Mat4) HitBox {
	out := HitBox{AllowCollision: h.AllowCollision}
	for i, p := range h.Points {
		out.Points[i] = common.TransformPoint(m, p)
	}
	return out
}

// Middle returns the average of the eight corners.
func (h HitBox) Middle() mgl32.Vec3 {
	var sum mgl32.Vec3
	for _, p := range h.Points {
		sum = sum.Add(p)
	}
	return sum.Mul(1.0 / 8.0)
}

// Bounds returns the axis-aligned min and max of the corner set.
func (h HitBox) Bounds() (mgl32.Vec3, mgl32.Vec3) {
	lo, hi := h.Points[0], h.Points[0]
	for _, p := range h.Points[1:] {
		for a := 0; a < 3; a++ {
			lo[a] = min(lo[a], p[a])
			hi[a] = max(hi[a], p[a])
		}
	}
	return lo, hi
}

// axes returns the three edge directions of the (possibly transformed) box.
func (h HitBox) axes() [3]mgl32.Vec3 {
	return [3]mgl32.Vec3{
		h.Points[1].Sub(h.Points[0]),
		h.Points[2].Sub(h.Points[0]),
		h.Points[4].Sub(h.Points[0]),
	}
}

// Collides reports whether the two boxes intersect geometrically, ignoring AllowCollision.
// Boxes are treated as oriented: the test separates on both boxes' face normals and
// the nine pairwise edge cross products. Touching faces count as intersecting.
func (h HitBox) Collides(other HitBox) bool {
	ea, eb := h.axes(), other.axes()

	// World axes keep degenerate (flat or point) boxes separable.
	var candidates [18]mgl32.Vec3
	candidates[0], candidates[1], candidates[2] = mgl32.Vec3{1, 0, 0}, mgl32.Vec3{0, 1, 0}, mgl32.Vec3{0, 0, 1}
	na, nb := faceNormals(ea), faceNormals(eb)
	n := 3
	n += copy(candidates[n:], na[:])
	n += copy(candidates[n:], nb[:])
	for _, a := range ea {
		for _, b := range eb {
			candidates[n] = a.Cross(b)
			n++
		}
	}

	for _, axis := range candidates[:n] {
		if axis.LenSqr() < common.AxisEpsilon {
			continue
		}
		axis = axis.Normalize()
		aMin, aMax := project(h.Points, axis)
		bMin, bMax := project(other.Points, axis)
		if aMax < bMin || bMax < aMin {
			return false
		}
	}
	return true
}

// faceNormals derives the face normals of a box from its edge vectors.
// Degenerate (flat) boxes fall back to the raw edge directions.
func faceNormals(e [3]mgl32.Vec3) [3]mgl32.Vec3 {
	n := [3]mgl32.Vec3{e[1].Cross(e[2]), e[2].Cross(e[0]), e[0].Cross(e[1])}
	for i := range n {
		if n[i].LenSqr() < common.AxisEpsilon {
			n[i] = e[i]
		}
	}
	return n
}

func project(points [8]mgl32.Vec3, axis mgl32.Vec3) (float32, float32) {
	lo, hi := float32(math.Inf(1)), float32(math.Inf(-1))
	for _, p := range points {
		d := p.Dot(axis)
		lo = min(lo, d)
		hi = max(hi, d)
	}
	return lo, hi
}
