package profiler

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRecordDraws(t *testing.T) {
	p := NewProfiler()
	p.RecordDraws("shading", 3)
	p.RecordDraws("shading", 5)
	p.RecordDraws("point_shadow", 12)

	assert.Equal(t, 8, p.Draws("shading"))
	assert.Equal(t, 12, p.Draws("point_shadow"))
	assert.Equal(t, 0, p.Draws("area_shadow"))
}

func TestDrawSummary(t *testing.T) {
	p := NewProfiler()
	assert.Equal(t, "-", p.drawSummary())

	p.frameCount = 2
	p.RecordDraws("shading", 4)
	p.RecordDraws("area_shadow", 8)
	assert.Equal(t, "area_shadow=4 shading=2", p.drawSummary())
}

func TestTickResetsInterval(t *testing.T) {
	p := NewProfiler()
	p.updateInterval = time.Hour
	p.RecordDraws("shading", 1)
	assert.False(t, p.Tick())
	assert.Equal(t, 1, p.frameCount)

	p.updateInterval = 0
	assert.True(t, p.Tick())
	assert.Equal(t, 0, p.frameCount)
	assert.Equal(t, 0, p.Draws("shading"))
}
