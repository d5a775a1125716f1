package window

import (
	"testing"

	"github.com/Carmen-Shannon/meshtree/common"
	"github.com/stretchr/testify/assert"
)

func TestUnopenedWindowPollsNothing(t *testing.T) {
	w := &engineWindow{width: 640, height: 480}

	assert.False(t, w.IsRunning())
	assert.False(t, w.IsKeyPressed(common.KeyW))
	assert.False(t, w.IsMouseButtonPressed(common.MouseButtonLeft))
	x, y := w.CursorPos()
	assert.Zero(t, x)
	assert.Zero(t, y)
	assert.Nil(t, w.SurfaceDescriptor())
	assert.Error(t, w.Close())
}

func TestBuilderOptions(t *testing.T) {
	w := &engineWindow{}
	for _, opt := range []WindowBuilderOption{
		WithTitle("viewer"),
		WithSize(800, 600),
		WithMinSize(200, 100),
		WithResizable(false),
	} {
		opt(w)
	}
	assert.Equal(t, "viewer", w.title)
	assert.Equal(t, 800, w.Width())
	assert.Equal(t, 600, w.Height())
	assert.Equal(t, 200, w.minWidth)
	assert.Equal(t, 100, w.minHeight)
	assert.False(t, w.resizable)
}
