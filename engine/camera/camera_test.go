package camera

import (
	"math"
	"testing"

	"github.com/Carmen-Shannon/meshtree/common"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeInput struct {
	keys    map[int]bool
	buttons map[int]bool
	x, y    float64
}

func newFakeInput() *fakeInput {
	return &fakeInput{keys: map[int]bool{}, buttons: map[int]bool{}}
}

func (f *fakeInput) IsKeyPressed(key int) bool            { return f.keys[key] }
func (f *fakeInput) IsMouseButtonPressed(button int) bool { return f.buttons[button] }
func (f *fakeInput) CursorPos() (float64, float64)        { return f.x, f.y }

func assertVec(t *testing.T, want, got mgl32.Vec3) {
	t.Helper()
	for i := range 3 {
		assert.InDelta(t, want[i], got[i], 1e-5, "component %d of %v", i, got)
	}
}

func TestControllerDefaults(t *testing.T) {
	cc := NewCameraController()
	assertVec(t, mgl32.Vec3{}, cc.Position())
	assertVec(t, mgl32.Vec3{0, 0, -1}, cc.Forward())
	assertVec(t, mgl32.Vec3{0, 1, 0}, cc.Up())
	assertVec(t, mgl32.Vec3{1, 0, 0}, cc.Right())
	assert.Equal(t, float32(0.03), cc.MoveSpeed())
	assert.Equal(t, float32(0.0015), cc.LookSpeed())
	assert.False(t, cc.ConstrainVertical())
	assert.True(t, cc.UserInteraction())
}

func TestControllerMovement(t *testing.T) {
	cases := []struct {
		name      string
		key       int
		constrain bool
		want      mgl32.Vec3
	}{
		{name: "forward", key: common.KeyW, want: mgl32.Vec3{0, 0, -0.03}},
		{name: "backward", key: common.KeyS, want: mgl32.Vec3{0, 0, 0.03}},
		{name: "left", key: common.KeyA, want: mgl32.Vec3{-0.03, 0, 0}},
		{name: "right", key: common.KeyD, want: mgl32.Vec3{0.03, 0, 0}},
		{name: "up", key: common.KeySpace, want: mgl32.Vec3{0, 0.03, 0}},
		{name: "down", key: common.KeyC, want: mgl32.Vec3{0, -0.03, 0}},
		{name: "up constrained", key: common.KeySpace, constrain: true, want: mgl32.Vec3{}},
		{name: "down constrained", key: common.KeyC, constrain: true, want: mgl32.Vec3{}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cc := NewCameraController(WithConstrainVertical(tc.constrain))
			in := newFakeInput()
			in.keys[tc.key] = true
			cc.UpdateInput(in)
			assertVec(t, tc.want, cc.Position())
		})
	}
}

func TestControllerMouseLook(t *testing.T) {
	cc := NewCameraController()
	in := newFakeInput()
	in.x, in.y = 100, 100
	cc.UpdateInput(in)

	// Moving without the button held turns nothing but is still tracked.
	in.x = 50
	cc.UpdateInput(in)
	assertVec(t, mgl32.Vec3{0, 0, -1}, cc.Forward())

	in.buttons[common.MouseButtonLeft] = true
	in.x = 40
	cc.UpdateInput(in)

	yaw := float64(0.0015 * 10)
	assertVec(t, mgl32.Vec3{-float32(math.Sin(yaw)), 0, -float32(math.Cos(yaw))}, cc.Forward())
	assertVec(t, mgl32.Vec3{0, 1, 0}, cc.Up())

	in.y = 90
	cc.UpdateInput(in)
	assert.Less(t, cc.Forward().Y(), float32(0), "dragging up grabs the view downward")
	assert.InDelta(t, 0, cc.Forward().Dot(cc.Up()), 1e-5)
}

func TestControllerConstrainedLookIgnoresPitch(t *testing.T) {
	cc := NewCameraController(WithConstrainVertical(true))
	in := newFakeInput()
	in.buttons[common.MouseButtonLeft] = true
	in.x, in.y = 0, 0
	cc.UpdateInput(in)
	in.y = -200
	cc.UpdateInput(in)
	assertVec(t, mgl32.Vec3{0, 0, -1}, cc.Forward())
}

func TestControllerPitchStopsAtVertical(t *testing.T) {
	cc := NewCameraController()
	for range 100 {
		cc.RotateX(0.1)
	}
	f := cc.Forward()
	assert.Less(t, abs(f.Y()), float32(maxPitchCos))
	assert.Greater(t, abs(f.Y()), float32(0.9))
	assert.InDelta(t, 1, f.Len(), 1e-5)
}

func TestControllerUserInteraction(t *testing.T) {
	cc := NewCameraController()
	in := newFakeInput()
	cc.UpdateInput(in)

	cc.SetUserInteraction(false)
	in.keys[common.KeyW] = true
	in.buttons[common.MouseButtonLeft] = true
	in.x = 300
	cc.UpdateInput(in)
	assertVec(t, mgl32.Vec3{}, cc.Position())

	// The cursor moved while disabled; re-enabling must not turn the camera.
	cc.SetUserInteraction(true)
	in.keys[common.KeyW] = false
	cc.UpdateInput(in)
	assertVec(t, mgl32.Vec3{0, 0, -1}, cc.Forward())
}

func TestCameraZoomAndMatrices(t *testing.T) {
	cc := NewCameraController(
		WithPosition(mgl32.Vec3{3, 3, 3}),
		WithForward(mgl32.Vec3{-1.2, -1.1, -0.9}),
	)
	cam := NewCamera(WithController(cc), WithAspect(16.0/9.0))
	require.NotNil(t, cam.Controller())

	assert.Equal(t, float32(80), cam.Fov())
	assertVec(t, mgl32.Vec3{3, 3, 3}, cam.Position())
	assert.True(t, cam.ViewMatrix().ApproxEqual(cc.ViewMatrix()))
	assert.True(t, cam.ProjectionMatrix().ApproxEqual(common.Perspective(80, 16.0/9.0, 0.1, 30)))

	in := newFakeInput()
	in.keys[common.KeyLeftControl] = true
	cam.Update(in)
	assert.True(t, cam.Zoomed())
	assert.Equal(t, float32(30), cam.Fov())
	assert.True(t, cam.ViewProjectionMatrix().ApproxEqual(
		common.Perspective(30, 16.0/9.0, 0.1, 30).Mul4(cc.ViewMatrix())))

	in.keys[common.KeyLeftControl] = false
	in.keys[common.KeyW] = true
	cam.Update(in)
	assert.False(t, cam.Zoomed())
	assert.NotEqual(t, mgl32.Vec3{3, 3, 3}, cam.Position())
	assert.True(t, cam.ViewMatrix().ApproxEqual(cc.ViewMatrix()))
}

func TestCameraWithoutController(t *testing.T) {
	cam := NewCamera(WithFov(60), WithPlanes(1, 10))
	cam.Update(nil)
	assert.Equal(t, mgl32.Ident4(), cam.ViewMatrix())
	assert.Equal(t, mgl32.Vec3{}, cam.Position())
	assert.Equal(t, float32(60), cam.Fov())
	assert.Equal(t, float32(1), cam.Near())
	assert.Equal(t, float32(10), cam.Far())
}
