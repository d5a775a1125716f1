package scene

import (
	"bytes"
	"image"
	"image/png"
	"testing"

	"github.com/Carmen-Shannon/meshtree/common"
	"github.com/Carmen-Shannon/meshtree/engine/light"
	"github.com/Carmen-Shannon/meshtree/engine/loader"
	"github.com/Carmen-Shannon/meshtree/engine/renderer"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pngTexture(t *testing.T) *common.ImportedTexture {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 2, 2))))
	return &common.ImportedTexture{Name: "diffuse", Data: buf.Bytes(), MimeType: "image/png"}
}

func TestSceneAddMesh(t *testing.T) {
	dev := renderer.NewRecordingDevice(64, 64)
	s := NewScene(dev, nil)

	id, err := s.AddMesh("cube", loader.Cube(), WithMeshTransform(at(0, 0, -3)))
	require.NoError(t, err)
	require.Equal(t, 1, s.NumMeshes())

	assert.Equal(t, id, s.NodeAt(0))
	assert.Equal(t, "cube", s.MeshAt(0).Label())
	assert.Nil(t, s.TextureAt(0))
	assert.Equal(t, s.Root(), s.Graph().Parent(id))
	assert.Equal(t, mgl32.Vec3{0, 0, -3}, s.ModelMatrix(0).Col(3).Vec3())

	hb, ok := s.Graph().HitBox(id)
	require.True(t, ok)
	assert.True(t, hb.AllowCollision)

	owner, ok := s.Graph().Registry().Owner(id)
	require.True(t, ok)
	assert.Equal(t, DefaultRootTag, owner)
}

func TestSceneAddMeshTexture(t *testing.T) {
	dev := renderer.NewRecordingDevice(64, 64)
	s := NewScene(dev, nil)

	raw := loader.Cube()
	raw.Texture = pngTexture(t)
	_, err := s.AddMesh("crate", raw)
	require.NoError(t, err)
	require.NotNil(t, s.TextureAt(0))
	assert.Equal(t, "crate/diffuse", s.TextureAt(0).Label())

	broken := loader.Cube()
	broken.Texture = &common.ImportedTexture{Name: "broken", Data: []byte("not an image")}
	_, err = s.AddMesh("plain", broken)
	require.NoError(t, err, "a bad texture does not stop the mesh")
	assert.Nil(t, s.TextureAt(1))
}

func TestSceneAddMeshFailures(t *testing.T) {
	dev := renderer.NewRecordingDevice(64, 64)
	s := NewScene(dev, nil)

	_, err := s.AddMesh("empty", loader.RawMesh{})
	assert.Error(t, err)

	gone := s.Graph().NewGroup("gone")
	require.NoError(t, s.Graph().Release(gone))
	_, err = s.AddMesh("orphan", loader.Cube(), WithParent(gone))
	assert.ErrorIs(t, err, ErrExpired)

	assert.Equal(t, 0, s.NumMeshes())
}

func TestSceneRemoveMeshCleansSubtree(t *testing.T) {
	dev := renderer.NewRecordingDevice(64, 64)
	mgr := light.NewManager(dev)
	lamp, err := mgr.AddAreaLightAt(mgl32.Vec3{}, mgl32.Vec3{1, 1, 1})
	require.NoError(t, err)

	s := NewScene(dev, mgr)
	base, err := s.AddMesh("base", loader.Cube())
	require.NoError(t, err)
	_, err = s.AddMesh("arm", loader.Cube(), WithParent(base), WithMeshTransform(at(1, 0, 0)), WithMeshAreaLight(lamp), WithCollision(false))
	require.NoError(t, err)
	other, err := s.AddMesh("other", loader.Cube(), WithMeshTransform(at(0, 3, 0)))
	require.NoError(t, err)
	require.Equal(t, 3, s.NumMeshes())

	assert.Equal(t, mgl32.Vec3{1, 0, 0}, s.ModelMatrix(1).Col(3).Vec3())
	assert.Equal(t, 1, s.Graph().PushLightPoses(mgr))
	assert.Equal(t, mgl32.Vec3{1, 0, 0}, lamp.Position)

	s.RemoveMesh(0)
	assert.Equal(t, 1, s.NumMeshes())
	assert.Equal(t, other, s.NodeAt(0))
	assert.Equal(t, 0, mgr.NumAreaLights(), "the arm's light is detached with it")
}

func TestSceneMeshesFollowParent(t *testing.T) {
	dev := renderer.NewRecordingDevice(64, 64)
	s := NewScene(dev, nil, WithRootTag("world"))
	assert.Equal(t, "world", s.Graph().Tag(s.Root()))

	base, err := s.AddMesh("base", loader.Cube(), WithMeshTransform(at(0, 0, -5)))
	require.NoError(t, err)
	_, err = s.AddMesh("top", loader.Cube(), WithParent(base), WithMeshTransform(at(0, 2, 0)))
	require.NoError(t, err)

	assert.True(t, s.Graph().TryTranslation(base, mgl32.Vec3{2, 0, 0}, s.Root()))
	assert.Equal(t, mgl32.Vec3{2, 2, -5}, s.ModelMatrix(1).Col(3).Vec3(), "children move with their parent")
}

func TestSceneRelease(t *testing.T) {
	dev := renderer.NewRecordingDevice(64, 64)
	g := NewGraph()
	s := NewScene(dev, nil, WithGraph(g))
	_, err := s.AddMesh("cube", loader.Cube())
	require.NoError(t, err)

	s.Release()
	assert.Equal(t, 0, s.NumMeshes())
	assert.Equal(t, 0, g.Len())
	assert.False(t, g.Valid(s.Root()))
}
