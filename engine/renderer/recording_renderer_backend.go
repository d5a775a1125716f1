package renderer

import (
	"fmt"
	"log"
	"sync"

	"github.com/Carmen-Shannon/meshtree/common"
	"github.com/Carmen-Shannon/meshtree/engine/loader"
	"github.com/Carmen-Shannon/meshtree/engine/renderer/shader"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/pkg/errors"
)

// cubeFaceNames labels cube shadow map faces in +X, -X, +Y, -Y, +Z, -Z order.
var cubeFaceNames = [6]string{"+X", "-X", "+Y", "-Y", "+Z", "-Z"}

// DrawRecord is one draw captured by a RecordingDevice.
type DrawRecord struct {
	// Program is the name of the bound program.
	Program string
	// Target is the label of the bound target, empty for the screen.
	Target string
	// Mesh is the label of the drawn mesh.
	Mesh string
	// Viewport is the viewport size at the time of the draw.
	Viewport [2]int
	// DepthTest reports whether depth testing was enabled.
	DepthTest bool
	// Uniforms holds the program's uniform values at the time of the draw, keyed by slot.
	Uniforms map[int]any
	// Textures holds the labels bound to the program's declared texture units.
	Textures map[int]string
}

// RecordingDevice is a headless Device that records programs, targets, uniforms and draws
// instead of issuing GPU work. It follows the same binding rules as the WGPU device:
// uniform values persist per program and only declared slots of the declared kind are kept.
type RecordingDevice struct {
	mu       sync.Mutex
	width    int
	height   int
	inFrame  bool
	frames   int
	program  *recordingProgram
	target   *recordingTarget
	viewport [2]int
	depth    bool
	textures map[int]string
	calls    []string
	draws    []DrawRecord
	released bool
}

var _ Device = &RecordingDevice{}

// NewRecordingDevice creates a RecordingDevice with the given screen size.
func NewRecordingDevice(width, height int) *RecordingDevice {
	return &RecordingDevice{
		width:    width,
		height:   height,
		viewport: [2]int{width, height},
		textures: map[int]string{},
	}
}

type recordingProgram struct {
	layout shader.Program
	block  *uniformBlock
	values map[int]any
}

func (p *recordingProgram) Name() string           { return p.layout.Name() }
func (p *recordingProgram) Layout() shader.Program { return p.layout }

type recordingTarget struct {
	label string
	size  int
}

func (t *recordingTarget) Label() string { return t.label }
func (t *recordingTarget) Size() int     { return t.size }

type recordingShadowMap struct {
	label string
	cube  bool
	faces []*recordingTarget
}

func (m *recordingShadowMap) Label() string     { return m.label }
func (m *recordingShadowMap) Cube() bool        { return m.cube }
func (m *recordingShadowMap) Faces() int        { return len(m.faces) }
func (m *recordingShadowMap) Face(i int) Target { return m.faces[i] }
func (m *recordingShadowMap) Release()          {}

type recordingTexture struct {
	label string
}

func (t *recordingTexture) Label() string { return t.label }
func (t *recordingTexture) Release()      {}

type recordingMesh struct {
	device     *RecordingDevice
	label      string
	indexCount int
	hasUV      bool
}

func (m *recordingMesh) Label() string          { return m.label }
func (m *recordingMesh) Draw()                  { m.device.draw(m) }
func (m *recordingMesh) HasTextureCoords() bool { return m.hasUV }
func (m *recordingMesh) IndexCount() int        { return m.indexCount }
func (m *recordingMesh) Release()               {}

func (d *RecordingDevice) CompileProgram(p shader.Program) (Program, error) {
	if p == nil {
		return nil, errors.New("renderer: nil program")
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	d.calls = append(d.calls, "compile "+p.Name())
	return &recordingProgram{layout: p, block: newUniformBlock(p), values: map[int]any{}}, nil
}

func (d *RecordingDevice) CreateShadowMap(label string, size int, cube bool) (ShadowMap, error) {
	if size <= 0 {
		return nil, errors.Errorf("renderer: shadow map %s: invalid size %d", label, size)
	}
	m := &recordingShadowMap{label: label, cube: cube}
	if cube {
		for _, name := range cubeFaceNames {
			m.faces = append(m.faces, &recordingTarget{label: label + "/" + name, size: size})
		}
	} else {
		m.faces = []*recordingTarget{{label: label, size: size}}
	}
	return m, nil
}

func (d *RecordingDevice) UploadMesh(label string, raw loader.RawMesh) (Mesh, error) {
	if len(raw.Vertices) == 0 || len(raw.Indices) == 0 {
		return nil, errors.Errorf("renderer: mesh %s has no geometry", label)
	}
	return &recordingMesh{device: d, label: label, indexCount: len(raw.Indices), hasUV: raw.HasTexCoords}, nil
}

func (d *RecordingDevice) UploadTexture(label string, data common.TextureStagingData) (Texture, error) {
	if int(data.Width*data.Height*4) != len(data.Pixels) {
		return nil, errors.Errorf("renderer: texture %s: %d bytes for %dx%d", label, len(data.Pixels), data.Width, data.Height)
	}
	return &recordingTexture{label: label}, nil
}

func (d *RecordingDevice) BeginFrame() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.inFrame {
		return errors.New("renderer: previous frame not ended")
	}
	d.inFrame = true
	d.frames++
	d.calls = append(d.calls, "begin")
	return nil
}

func (d *RecordingDevice) EndFrame() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.inFrame = false
	d.calls = append(d.calls, "end")
}

func (d *RecordingDevice) Barrier() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.calls = append(d.calls, "barrier")
}

func (d *RecordingDevice) BindProgram(p Program) {
	d.mu.Lock()
	defer d.mu.Unlock()
	rp, ok := p.(*recordingProgram)
	if !ok {
		d.program = nil
		return
	}
	d.program = rp
	d.calls = append(d.calls, "program "+rp.Name())
}

func (d *RecordingDevice) BindTarget(t Target) {
	d.mu.Lock()
	defer d.mu.Unlock()
	rt, _ := t.(*recordingTarget)
	d.target = rt
	d.calls = append(d.calls, "target "+d.targetLabel())
}

func (d *RecordingDevice) SetViewport(width, height int) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.viewport = [2]int{width, height}
}

func (d *RecordingDevice) ClearDepth(depth float32) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.calls = append(d.calls, fmt.Sprintf("clear %s %g", d.targetLabel(), depth))
}

func (d *RecordingDevice) EnableDepthTest() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.depth = true
}

func (d *RecordingDevice) SetUniformMat4(slot int, m mgl32.Mat4) {
	d.setUniform(slot, shader.UniformMat4, m)
}

func (d *RecordingDevice) SetUniformMat3(slot int, m mgl32.Mat3) {
	d.setUniform(slot, shader.UniformMat3, m)
}

func (d *RecordingDevice) SetUniformVec3(slot int, v mgl32.Vec3) {
	d.setUniform(slot, shader.UniformVec3, v)
}

func (d *RecordingDevice) SetUniformFloat(slot int, v float32) {
	d.setUniform(slot, shader.UniformFloat, v)
}

func (d *RecordingDevice) SetUniformInt(slot int, v int32) {
	d.setUniform(slot, shader.UniformInt, v)
}

func (d *RecordingDevice) SetUniformBool(slot int, v bool) {
	d.setUniform(slot, shader.UniformBool, v)
}

func (d *RecordingDevice) SetUniformVec3Array(slot int, v []mgl32.Vec3) {
	d.setUniform(slot, shader.UniformVec3, append([]mgl32.Vec3(nil), v...))
}

func (d *RecordingDevice) SetUniformMat4Array(slot int, v []mgl32.Mat4) {
	d.setUniform(slot, shader.UniformMat4, append([]mgl32.Mat4(nil), v...))
}

func (d *RecordingDevice) setUniform(slot int, kind shader.UniformKind, v any) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.program == nil {
		log.Printf("[Renderer] uniform %d set with no program bound", slot)
		return
	}
	if _, _, ok := d.program.block.region(slot, kind); !ok {
		return
	}
	d.program.values[slot] = v
}

func (d *RecordingDevice) BindTexture(unit int, t Texture) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if t == nil {
		delete(d.textures, unit)
		return
	}
	d.textures[unit] = t.Label()
}

func (d *RecordingDevice) BindShadowMap(unit int, m ShadowMap) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if m == nil {
		delete(d.textures, unit)
		return
	}
	d.textures[unit] = m.Label()
}

func (d *RecordingDevice) Size() (int, int) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.width, d.height
}

func (d *RecordingDevice) Resize(width, height int) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.width, d.height = width, height
}

func (d *RecordingDevice) Release() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.released = true
}

func (d *RecordingDevice) draw(m *recordingMesh) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.program == nil {
		log.Printf("[Renderer] draw %s: %v", m.label, ErrNoProgram)
		return
	}
	if !d.inFrame {
		log.Printf("[Renderer] draw %s outside of a frame", m.label)
		return
	}

	rec := DrawRecord{
		Program:   d.program.Name(),
		Target:    d.targetLabel(),
		Mesh:      m.label,
		Viewport:  d.viewport,
		DepthTest: d.depth,
		Uniforms:  make(map[int]any, len(d.program.values)),
		Textures:  map[int]string{},
	}
	for slot, v := range d.program.values {
		rec.Uniforms[slot] = v
	}
	for _, t := range d.program.layout.Textures() {
		if label, ok := d.textures[t.Unit]; ok {
			rec.Textures[t.Unit] = label
		}
	}
	d.draws = append(d.draws, rec)
	d.calls = append(d.calls, "draw "+m.label)
}

func (d *RecordingDevice) targetLabel() string {
	if d.target == nil {
		return ""
	}
	return d.target.label
}

// Draws returns every draw recorded so far.
func (d *RecordingDevice) Draws() []DrawRecord {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]DrawRecord(nil), d.draws...)
}

// DrawsByTarget returns the recorded draws into the target with the given label.
// An empty label selects the screen.
func (d *RecordingDevice) DrawsByTarget(label string) []DrawRecord {
	d.mu.Lock()
	defer d.mu.Unlock()
	var out []DrawRecord
	for _, rec := range d.draws {
		if rec.Target == label {
			out = append(out, rec)
		}
	}
	return out
}

// DrawsByProgram returns the recorded draws issued with the named program.
func (d *RecordingDevice) DrawsByProgram(name string) []DrawRecord {
	d.mu.Lock()
	defer d.mu.Unlock()
	var out []DrawRecord
	for _, rec := range d.draws {
		if rec.Program == name {
			out = append(out, rec)
		}
	}
	return out
}

// Calls returns the ordered log of state changes, barriers and draws.
func (d *RecordingDevice) Calls() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]string(nil), d.calls...)
}

// Frames returns the number of frames begun.
func (d *RecordingDevice) Frames() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.frames
}

// Released reports whether Release was called.
func (d *RecordingDevice) Released() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.released
}

// Reset clears the recorded calls and draws, keeping bound state.
func (d *RecordingDevice) Reset() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.calls = nil
	d.draws = nil
}
