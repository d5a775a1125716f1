package transform

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
)

func TestIdentityLocalIsIdentity(t *testing.T) {
	assert.True(t, Identity().Local().ApproxEqual(mgl32.Ident4()))
}

func TestLocalCompositionOrder(t *testing.T) {
	tr := Identity()
	tr.RotateParent = mgl32.Vec4{0, 0, 1, 90}
	tr.Translate = mgl32.Vec3{1, 0, 0}
	tr.Scale = mgl32.Vec3{2, 2, 2}

	// Translation happens in the parent-rotated frame: +X becomes +Y.
	origin := tr.Local().Mul4x1(mgl32.Vec4{0, 0, 0, 1})
	assert.InDelta(t, 0.0, origin.X(), 1e-6)
	assert.InDelta(t, 1.0, origin.Y(), 1e-6)

	// Scale is applied last, in local space.
	p := tr.Local().Mul4x1(mgl32.Vec4{1, 0, 0, 1})
	assert.InDelta(t, 0.0, p.X(), 1e-6)
	assert.InDelta(t, 3.0, p.Y(), 1e-6)
}

func TestSelfRotationSpinsAboutTranslatedOrigin(t *testing.T) {
	tr := Identity()
	tr.Translate = mgl32.Vec3{5, 0, 0}
	tr.SelfRotate = mgl32.Vec4{0, 1, 0, 180}

	origin := tr.Local().Mul4x1(mgl32.Vec4{0, 0, 0, 1})
	assert.InDelta(t, 5.0, origin.X(), 1e-5)

	p := tr.Local().Mul4x1(mgl32.Vec4{1, 0, 0, 1})
	assert.InDelta(t, 4.0, p.X(), 1e-5)
}

func TestTranslated(t *testing.T) {
	tr := Identity().Translated(mgl32.Vec3{1, 2, 3})
	assert.Equal(t, mgl32.Vec3{1, 2, 3}, tr.Translate)
	assert.Equal(t, mgl32.Vec3{1, 2, 3}, Identity().Translated(mgl32.Vec3{1, 2, 3}).Translate)
}
