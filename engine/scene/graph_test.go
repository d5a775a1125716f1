package scene

import (
	"bytes"
	"log"
	"os"
	"testing"

	"github.com/Carmen-Shannon/meshtree/engine/collision"
	"github.com/Carmen-Shannon/meshtree/engine/light"
	"github.com/Carmen-Shannon/meshtree/engine/loader"
	"github.com/Carmen-Shannon/meshtree/engine/renderer"
	"github.com/Carmen-Shannon/meshtree/engine/transform"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func cubeBox(allow bool) collision.HitBox {
	return collision.NewHitBox(loader.Cube().Positions(), allow)
}

func at(x, y, z float32) transform.Transform {
	t := transform.Identity()
	t.Translate = mgl32.Vec3{x, y, z}
	return t
}

// captureLog redirects the standard logger into a buffer for the rest of the test.
func captureLog(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	log.SetOutput(&buf)
	t.Cleanup(func() { log.SetOutput(os.Stderr) })
	return &buf
}

func rot(axis mgl32.Vec3, deg float32) mgl32.Mat4 {
	return mgl32.HomogRotate3D(mgl32.DegToRad(deg), axis)
}

func TestRootWithIdentityTransform(t *testing.T) {
	g := NewGraph()
	root := g.NewRoot("root")

	m, poses := g.WorldMatrix(root)
	assert.Equal(t, mgl32.Ident4(), m)
	assert.Empty(t, poses)
}

func TestWorldMatrixTwoLevelChain(t *testing.T) {
	g := NewGraph()
	root := g.NewRoot("root")

	ta := transform.Transform{
		RotateParent: mgl32.Vec4{0, 0, 1, 90},
		Translate:    mgl32.Vec3{1, 0, 0},
		SelfRotate:   mgl32.Vec4{0, 1, 0, 90},
		Scale:        mgl32.Vec3{2, 2, 2},
	}
	tb := transform.Transform{
		RotateParent: mgl32.Vec4{0, 0, 2, 90},
		Translate:    mgl32.Vec3{0, 1, 0},
		SelfRotate:   mgl32.Vec4{1, 0, 0, 180},
		Scale:        mgl32.Vec3{1, 2, 1},
	}
	a, err := g.NewChild(root, "a", WithTransform(ta))
	require.NoError(t, err)
	b, err := g.NewChild(a, "b", WithTransform(tb))
	require.NoError(t, err)

	ma := rot(mgl32.Vec3{0, 0, 1}, 90).
		Mul4(mgl32.Translate3D(1, 0, 0)).
		Mul4(rot(mgl32.Vec3{0, 1, 0}, 90)).
		Mul4(mgl32.Scale3D(2, 2, 2))
	mb := rot(mgl32.Vec3{0, 0, 1}, 90).
		Mul4(mgl32.Translate3D(0, 1, 0)).
		Mul4(rot(mgl32.Vec3{1, 0, 0}, 180)).
		Mul4(mgl32.Scale3D(1, 2, 1))

	got := g.WorldMatrixOnly(b)
	assert.True(t, got.ApproxEqualThreshold(ma.Mul4(mb), 1e-5))

	// Worked by hand: b's origin is (-1,0,0) in a's frame, scaled to (-2,0,0),
	// turned about Y to (0,0,2), moved to (1,0,2) and turned about Z to (0,1,2).
	origin := got.Col(3).Vec3()
	assert.InDelta(t, 0, origin.X(), 1e-5)
	assert.InDelta(t, 1, origin.Y(), 1e-5)
	assert.InDelta(t, 2, origin.Z(), 1e-5)
}

func TestWorldMatrixRecomputesAfterTransformChange(t *testing.T) {
	g := NewGraph()
	root := g.NewRoot("root")
	a, err := g.NewChild(root, "a", WithTransform(at(1, 0, 0)))
	require.NoError(t, err)

	assert.Equal(t, mgl32.Vec3{1, 0, 0}, g.WorldMatrixOnly(a).Col(3).Vec3())
	require.NoError(t, g.SetTransform(root, at(0, 5, 0)))
	assert.Equal(t, mgl32.Vec3{1, 5, 0}, g.WorldMatrixOnly(a).Col(3).Vec3())
}

func TestWorldMatrixExpiredParentYieldsIdentity(t *testing.T) {
	g := NewGraph()
	root := g.NewRoot("root")
	a, err := g.NewChild(root, "a", WithTransform(at(1, 0, 0)))
	require.NoError(t, err)
	b, err := g.NewChild(a, "b", WithTransform(at(0, 1, 0)))
	require.NoError(t, err)

	require.NoError(t, g.Release(a))
	logs := captureLog(t)
	assert.Equal(t, mgl32.Ident4(), g.WorldMatrixOnly(b))
	assert.Contains(t, logs.String(), `expired parent of node "b"`)
}

func TestWorldMatrixUnattachedNodeIsQuiet(t *testing.T) {
	g := NewGraph()
	logs := captureLog(t)

	group := g.NewGroup("loose")
	node := g.NewNode("free", WithTransform(at(1, 2, 3)))
	for range 3 {
		assert.Equal(t, mgl32.Ident4(), g.WorldMatrixOnly(group))
		assert.Equal(t, mgl32.Ident4(), g.WorldMatrixOnly(node))
	}
	assert.Empty(t, logs.String())
}

func TestAreaLightPoseCapture(t *testing.T) {
	g := NewGraph()
	root := g.NewRoot("root")
	l := &light.AreaLight{Color: mgl32.Vec3{1, 1, 1}}

	n, err := g.NewChild(root, "lamp", WithTransform(at(1, 0, 0)), WithAreaLight(l))
	require.NoError(t, err)

	m, poses := g.WorldMatrix(n)
	require.Len(t, poses, 1)
	assert.Same(t, l, poses[0].Light)
	assert.Equal(t, mgl32.Vec3{1, 0, 0}, poses[0].Position)

	// The backward vector goes through the same pre-self-rotation matrix, a pure translation here.
	pre := mgl32.Translate3D(1, 0, 0)
	want := pre.Mul4x1(mgl32.Vec4{-1, 0, 0, 0}).Vec3().Normalize()
	assert.Equal(t, want, poses[0].Forward)
	assert.Equal(t, mgl32.Vec3{-1, 0, 0}, poses[0].Forward)
	assert.Equal(t, mgl32.Vec3{1, 0, 0}, m.Col(3).Vec3())

	// WorldMatrix only reports; the light moves when poses are pushed.
	assert.Equal(t, mgl32.Vec3{}, l.Position)

	dev := renderer.NewRecordingDevice(64, 64)
	mgr := light.NewManager(dev)
	managed, err := mgr.AddAreaLight(light.AreaLight{Color: mgl32.Vec3{1, 1, 1}})
	require.NoError(t, err)
	require.NoError(t, g.AttachAreaLight(n, managed))

	assert.Equal(t, 1, g.PushLightPoses(mgr))
	assert.Equal(t, mgl32.Vec3{1, 0, 0}, managed.Position)
	assert.Equal(t, mgl32.Vec3{-1, 0, 0}, managed.Forward)
}

func TestAreaLightPoseIgnoresSelfRotation(t *testing.T) {
	g := NewGraph()
	root := g.NewRoot("root")
	l := &light.AreaLight{}

	tr := at(0, 2, 0)
	tr.RotateParent = mgl32.Vec4{0, 1, 0, 90}
	tr.SelfRotate = mgl32.Vec4{0, 0, 1, 45}
	n, err := g.NewChild(root, "lamp", WithTransform(tr), WithAreaLight(l))
	require.NoError(t, err)

	_, poses := g.WorldMatrix(n)
	require.Len(t, poses, 1)
	assert.InDelta(t, 2, poses[0].Position.Y(), 1e-5)
	// -X turned 90 degrees about Y lands on +Z.
	assert.InDelta(t, 0, poses[0].Forward.X(), 1e-5)
	assert.InDelta(t, 0, poses[0].Forward.Y(), 1e-5)
	assert.InDelta(t, 1, poses[0].Forward.Z(), 1e-5)
}

func TestAddChildRules(t *testing.T) {
	g := NewGraph()
	root := g.NewRoot("root")
	other := g.NewRoot("other")
	a := g.NewGroup("a")
	b := g.NewGroup("b")

	require.NoError(t, g.AddChild(root, a))
	assert.Equal(t, root, g.Parent(a))
	assert.ErrorIs(t, g.AddChild(other, a), ErrAlreadyParented)
	assert.ErrorIs(t, g.AddChild(root, other), ErrRootHasParent)

	require.NoError(t, g.AddChild(a, b))
	assert.Equal(t, []NodeID{b}, g.Children(a))

	loop := g.NewGroup("loop")
	inner, err := g.NewChild(loop, "inner")
	require.NoError(t, err)
	assert.ErrorIs(t, g.AddChild(inner, loop), ErrCycle)

	gone := g.NewGroup("gone")
	require.NoError(t, g.Release(gone))
	assert.ErrorIs(t, g.AddChild(gone, g.NewGroup("e")), ErrExpired)
	assert.ErrorIs(t, g.AddChild(root, gone), ErrExpired)
}

func TestReleaseExpiresHandles(t *testing.T) {
	g := NewGraph()
	a := g.NewGroup("a")
	require.True(t, g.Valid(a))
	require.NoError(t, g.Release(a))

	assert.False(t, g.Valid(a))
	assert.Equal(t, "", g.Tag(a))
	assert.ErrorIs(t, g.Release(a), ErrExpired)
	_, err := g.Transform(a)
	assert.ErrorIs(t, err, ErrExpired)

	// The slot is reused under a new generation.
	b := g.NewGroup("b")
	assert.NotEqual(t, a, b)
	assert.False(t, g.Valid(a))
	assert.Equal(t, "b", g.Tag(b))
	assert.Equal(t, 1, g.Len())
	assert.False(t, g.Valid(Nil))
}

func TestRegistryOwnership(t *testing.T) {
	g := NewGraph()
	root := g.NewRoot("root")
	require.NoError(t, g.Register(root, "scene"))
	assert.ErrorIs(t, g.Register(root, "someone else"), ErrAlreadyOwned)

	child, err := g.NewChild(root, "child")
	require.NoError(t, err)
	owner, ok := g.Registry().Owner(child)
	require.True(t, ok)
	assert.Equal(t, "root", owner)

	loose := g.NewGroup("loose")
	_, ok = g.Registry().Owner(loose)
	assert.False(t, ok)
	require.NoError(t, g.AddChild(root, loose))
	_, ok = g.Registry().Owner(loose)
	assert.False(t, ok, "linking does not transfer ownership")

	assert.Equal(t, 2, g.Registry().Len())
	require.NoError(t, g.Release(child))
	_, ok = g.Registry().Owner(child)
	assert.False(t, ok)
	assert.Equal(t, 1, g.Registry().Len())
}

type detachRecorder struct {
	removed []*light.AreaLight
}

func (d *detachRecorder) RemoveByReference(l *light.AreaLight) bool {
	d.removed = append(d.removed, l)
	return true
}

func TestCleanReleasesSubtreeAndDetachesLights(t *testing.T) {
	g := NewGraph()
	root := g.NewRoot("root")
	top := &light.AreaLight{Color: mgl32.Vec3{1, 0, 0}}
	deep := &light.AreaLight{Color: mgl32.Vec3{0, 1, 0}}

	a, err := g.NewChild(root, "a", WithAreaLight(top))
	require.NoError(t, err)
	b, err := g.NewChild(a, "b")
	require.NoError(t, err)
	c, err := g.NewChild(b, "c", WithAreaLight(deep))
	require.NoError(t, err)
	sibling, err := g.NewChild(root, "sibling")
	require.NoError(t, err)

	d := &detachRecorder{}
	require.NoError(t, g.Clean(a, d))

	assert.False(t, g.Valid(a))
	assert.False(t, g.Valid(b))
	assert.False(t, g.Valid(c))
	assert.True(t, g.Valid(sibling))
	assert.True(t, g.Valid(root))
	assert.Equal(t, []*light.AreaLight{deep, top}, d.removed)
	assert.ErrorIs(t, g.Clean(a, d), ErrExpired)

	// The root still lists a until a search prunes it.
	assert.Len(t, g.Children(root), 2)
	_, _ = g.FindColliding(root, sibling)
	assert.Equal(t, []NodeID{sibling}, g.Children(root))
}

func TestCleanWithManagerRemovesAreaLight(t *testing.T) {
	dev := renderer.NewRecordingDevice(64, 64)
	mgr := light.NewManager(dev)
	l, err := mgr.AddAreaLightAt(mgl32.Vec3{}, mgl32.Vec3{1, 1, 1})
	require.NoError(t, err)

	g := NewGraph()
	root := g.NewRoot("root")
	n, err := g.NewChild(root, "lamp", WithAreaLight(l))
	require.NoError(t, err)

	require.NoError(t, g.Clean(n, mgr))
	assert.Equal(t, 0, mgr.NumAreaLights())
}
