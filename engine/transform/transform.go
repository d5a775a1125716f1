// Package transform holds the per-node rigid transform of the scene graph and the
// four composition steps that build a node's matrix on top of its parent's.
package transform

import (
	"github.com/Carmen-Shannon/meshtree/common"
	"github.com/go-gl/mathgl/mgl32"
)

// Transform is a node's transform relative to its parent.
// Rotations are (axis xyz, angle in degrees w); the axis need not be normalized.
//
// Composition onto an accumulated parent matrix P is
//
//	P * R(RotateParent) * T(Translate) * R(SelfRotate) * S(Scale)
//
// so Translate is expressed in the parent-rotated frame and SelfRotate spins the
// node about its own translated origin before scaling.
type Transform struct {
	Translate    mgl32.Vec3 `toml:"translate" yaml:"translate"`
	SelfRotate   mgl32.Vec4 `toml:"self_rotate" yaml:"self_rotate"`
	RotateParent mgl32.Vec4 `toml:"rotate_parent" yaml:"rotate_parent"`
	Scale        mgl32.Vec3 `toml:"scale" yaml:"scale"`
}

// Identity returns the default transform: no translation, zero-angle rotations about +Y, unit scale.
func Identity() Transform {
	return Transform{
		SelfRotate:   mgl32.Vec4{0, 1, 0, 0},
		RotateParent: mgl32.Vec4{0, 1, 0, 0},
		Scale:        mgl32.Vec3{1, 1, 1},
	}
}

// ApplyParentRotation returns m * R(RotateParent).
func (t Transform) ApplyParentRotation(m mgl32.Mat4) mgl32.Mat4 {
	return m.Mul4(common.AxisAngle(t.RotateParent))
}

// ApplyTranslation returns m * T(Translate).
func (t Transform) ApplyTranslation(m mgl32.Mat4) mgl32.Mat4 {
	return m.Mul4(mgl32.Translate3D(t.Translate.X(), t.Translate.Y(), t.Translate.Z()))
}

// ApplySelfRotation returns m * R(SelfRotate).
func (t Transform) ApplySelfRotation(m mgl32.Mat4) mgl32.Mat4 {
	return m.Mul4(common.AxisAngle(t.SelfRotate))
}

// ApplyScale returns m * S(Scale).
func (t Transform) ApplyScale(m mgl32.Mat4) mgl32.Mat4 {
	return m.Mul4(mgl32.Scale3D(t.Scale.X(), t.Scale.Y(), t.Scale.Z()))
}

// Local returns the full local matrix, all four steps applied to the identity.
func (t Transform) Local() mgl32.Mat4 {
	return t.ApplyScale(t.ApplySelfRotation(t.ApplyTranslation(t.ApplyParentRotation(mgl32.Ident4()))))
}

// Translated returns a copy of t moved by delta.
func (t Transform) Translated(delta mgl32.Vec3) Transform {
	t.Translate = t.Translate.Add(delta)
	return t
}
