package profiler

import (
	"fmt"
	"log"
	"runtime"
	"slices"
	"strings"
	"time"
)

// Profiler tracks frame rate, per-pass draw counts and memory statistics for performance
// monitoring. Outputs stats to the log at a configurable interval.
type Profiler struct {
	frameCount     int
	draws          map[string]int
	lastTime       time.Time
	updateInterval time.Duration
	memStats       runtime.MemStats
	lastGCCount    uint32
	lastTotalAlloc uint64
}

// NewProfiler creates a new Profiler with default settings.
// Update interval defaults to 1 second.
//
// Returns:
//   - *Profiler: the newly created profiler instance
func NewProfiler() *Profiler {
	return &Profiler{
		frameCount:     0,
		draws:          make(map[string]int),
		lastTime:       time.Now(),
		updateInterval: time.Second,
		memStats:       runtime.MemStats{},
	}
}

// Tick should be called once per frame to track frame timing.
// Logs performance statistics when the update interval has elapsed.
// Statistics include: FPS, heap usage, allocation rate, GC count/pause times, total memory.
//
// Returns:
//   - bool: true if stats were logged this tick, false otherwise
func (p *Profiler) Tick() bool {
	p.frameCount++
	currentTime := time.Now()
	elapsed := currentTime.Sub(p.lastTime)

	if elapsed >= p.updateInterval {
		fps := float64(p.frameCount) / elapsed.Seconds()

		runtime.ReadMemStats(&p.memStats)
		// Alloc: Bytes of allocated heap objects (live memory)
		// TotalAlloc: Cumulative bytes allocated for heap objects (increases forever, tracks churn)
		// Sys: Total bytes of memory obtained from the OS (actual process footprint)
		allocMB := float64(p.memStats.Alloc) / 1024 / 1024
		sysMB := float64(p.memStats.Sys) / 1024 / 1024

		// Calculate allocation rate (MB/sec)
		allocDelta := p.memStats.TotalAlloc - p.lastTotalAlloc
		allocRateMB := float64(allocDelta) / 1024 / 1024 / elapsed.Seconds()

		// Calculate GC pause stats (last pause and max recent pause)
		gcCount := p.memStats.NumGC
		var lastPauseUs, maxPauseUs uint64
		if gcCount > 0 {
			// PauseNs is a circular buffer of last 256 GC pauses
			lastPauseUs = p.memStats.PauseNs[(gcCount-1)%256] / 1000

			// Find max pause since last tick
			startIdx := p.lastGCCount
			if gcCount-startIdx > 256 {
				startIdx = gcCount - 256
			}
			for i := startIdx; i < gcCount; i++ {
				pause := p.memStats.PauseNs[i%256] / 1000
				if pause > maxPauseUs {
					maxPauseUs = pause
				}
			}
		}

		log.Printf("[Profiler] FPS: %.2f | Draws/frame: %s | Heap: %.2f MB | Alloc Rate: %.2f MB/s | GC: %d (last: %d µs, max: %d µs) | Sys: %.2f MB",
			fps, p.drawSummary(), allocMB, allocRateMB, gcCount, lastPauseUs, maxPauseUs, sysMB)

		p.frameCount = 0
		p.lastTime = currentTime
		p.lastGCCount = gcCount
		p.lastTotalAlloc = p.memStats.TotalAlloc
		clear(p.draws)
		return true
	}

	return false
}

// RecordDraws adds n draw calls issued by the named pass to the current interval.
//
// Parameters:
//   - pass: the pass name
//   - n: the number of draws the pass issued this frame
func (p *Profiler) RecordDraws(pass string, n int) {
	p.draws[pass] += n
}

// Draws returns the draws recorded for the named pass since the last stats line.
func (p *Profiler) Draws(pass string) int {
	return p.draws[pass]
}

// drawSummary formats the average draws per frame of each pass, sorted by pass name.
func (p *Profiler) drawSummary() string {
	if len(p.draws) == 0 || p.frameCount == 0 {
		return "-"
	}
	names := make([]string, 0, len(p.draws))
	for name := range p.draws {
		names = append(names, name)
	}
	slices.Sort(names)

	parts := make([]string, len(names))
	for i, name := range names {
		parts[i] = fmt.Sprintf("%s=%d", name, p.draws[name]/p.frameCount)
	}
	return strings.Join(parts, " ")
}
