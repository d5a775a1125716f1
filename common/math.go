package common

import (
	"math"
	"unsafe"

	"github.com/go-gl/mathgl/mgl32"
)

// AxisEpsilon is the squared length below which a rotation axis is treated as zero.
const AxisEpsilon = 1e-12

// SliceToBytes converts any slice to a byte slice for GPU buffer uploads.
// Uses unsafe pointer operations to create a view into the original data.
// WARNING: The returned slice shares memory with the input - do not modify.
//
// Parameters:
//   - data: source slice of any type
//
// Returns:
//   - []byte: byte slice view of the input data, or nil if input is empty
func SliceToBytes[T any](data []T) []byte {
	if len(data) == 0 {
		return nil
	}
	var zero T
	size := unsafe.Sizeof(zero)
	totalBytes := int(size) * len(data)
	return unsafe.Slice((*byte)(unsafe.Pointer(&data[0])), totalBytes)
}

// Perspective creates a perspective projection matrix from a vertical field of view in degrees.
// Depth is mapped to the WebGPU clip range [0, 1].
//
// Parameters:
//   - fovYDeg: vertical field of view in degrees
//   - aspect: viewport aspect ratio (width/height)
//   - near: near clipping plane distance (must be > 0)
//   - far: far clipping plane distance (must be > near)
//
// Returns:
//   - mgl32.Mat4: the projection matrix
func Perspective(fovYDeg, aspect, near, far float32) mgl32.Mat4 {
	f := 1.0 / float32(math.Tan(float64(mgl32.DegToRad(fovYDeg))/2.0))

	var out mgl32.Mat4
	out[0] = f / aspect
	out[5] = f
	out[10] = far / (near - far)
	out[11] = -1.0
	out[14] = (near * far) / (near - far)
	return out
}

// LookAt creates a view matrix looking from eye towards center.
// When the view direction is parallel to up, +X is used as the up vector instead.
//
// Parameters:
//   - eye: viewer position in world space
//   - center: target point
//   - up: preferred up vector
//
// Returns:
//   - mgl32.Mat4: the view matrix
func LookAt(eye, center, up mgl32.Vec3) mgl32.Mat4 {
	dir := center.Sub(eye)
	if dir.Cross(up).LenSqr() < AxisEpsilon {
		up = mgl32.Vec3{1, 0, 0}
	}
	return mgl32.LookAtV(eye, center, up)
}

// AxisAngle builds a rotation matrix from an (axis, angle in degrees) pair packed into a Vec4.
// A zero axis or zero angle yields the identity. The axis does not need to be normalized.
//
// Parameters:
//   - r: xyz is the rotation axis, w is the angle in degrees
//
// Returns:
//   - mgl32.Mat4: the rotation matrix
func AxisAngle(r mgl32.Vec4) mgl32.Mat4 {
	axis := r.Vec3()
	if r.W() == 0 || axis.LenSqr() < AxisEpsilon {
		return mgl32.Ident4()
	}
	return mgl32.HomogRotate3D(mgl32.DegToRad(r.W()), axis.Normalize())
}

// NormalMatrix returns the inverse-transpose of the upper 3x3 of m.
// A singular linear part yields the plain 3x3 extraction.
//
// Parameters:
//   - m: the model matrix
//
// Returns:
//   - mgl32.Mat3: the matrix used to transform normals
func NormalMatrix(m mgl32.Mat4) mgl32.Mat3 {
	linear := m.Mat3()
	if det := linear.Det(); math.Abs(float64(det)) < 1e-12 {
		return linear
	}
	return linear.Inv().Transpose()
}

// TransformPoint applies m to p with w = 1.
func TransformPoint(m mgl32.Mat4, p mgl32.Vec3) mgl32.Vec3 {
	return m.Mul4x1(p.Vec4(1)).Vec3()
}

// ApproxEqualMat3 reports whether every element of a and b differs by at most eps.
func ApproxEqualMat3(a, b mgl32.Mat3, eps float32) bool {
	for i := range a {
		if float32(math.Abs(float64(a[i]-b[i]))) > eps {
			return false
		}
	}
	return true
}
