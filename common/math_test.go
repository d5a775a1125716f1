package common

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
)

func TestAxisAngleZeroAxisIsIdentity(t *testing.T) {
	assert.Equal(t, mgl32.Ident4(), AxisAngle(mgl32.Vec4{0, 0, 0, 45}))
	assert.Equal(t, mgl32.Ident4(), AxisAngle(mgl32.Vec4{0, 1, 0, 0}))
}

func TestAxisAngleNormalizesAxis(t *testing.T) {
	a := AxisAngle(mgl32.Vec4{0, 5, 0, 90})
	b := mgl32.HomogRotate3DY(mgl32.DegToRad(90))
	assert.True(t, a.ApproxEqualThreshold(b, 1e-6))
}

func TestNormalMatrix(t *testing.T) {
	assert.True(t, ApproxEqualMat3(mgl32.Ident3(), NormalMatrix(mgl32.Ident4()), 1e-6))

	rot := mgl32.HomogRotate3DZ(mgl32.DegToRad(30))
	assert.True(t, ApproxEqualMat3(rot.Mat3(), NormalMatrix(rot), 1e-6), "pure rotation is its own inverse-transpose")

	nonUniform := mgl32.Scale3D(1, 2, 4)
	n := NormalMatrix(nonUniform)
	assert.InDelta(t, 1.0, n.At(0, 0), 1e-6)
	assert.InDelta(t, 0.5, n.At(1, 1), 1e-6)
	assert.InDelta(t, 0.25, n.At(2, 2), 1e-6)
}

func TestLookAtFallsBackWhenParallelToUp(t *testing.T) {
	m := LookAt(mgl32.Vec3{0, 0, 0}, mgl32.Vec3{0, 1, 0}, mgl32.Vec3{0, 1, 0})
	for _, v := range m {
		assert.False(t, v != v, "look-at produced NaN")
	}
}

func TestPerspectiveDepthRange(t *testing.T) {
	p := Perspective(90, 1, 0.1, 30)
	near := p.Mul4x1(mgl32.Vec4{0, 0, -0.1, 1})
	far := p.Mul4x1(mgl32.Vec4{0, 0, -30, 1})
	assert.InDelta(t, 0.0, near.Z()/near.W(), 1e-5)
	assert.InDelta(t, 1.0, far.Z()/far.W(), 1e-5)
}

func TestCoalesce(t *testing.T) {
	assert.Equal(t, 3, Coalesce(0, 3, 4))
	assert.Equal(t, "", Coalesce("", ""))
}
