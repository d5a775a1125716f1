package renderer

import (
	"encoding/binary"
	"log"
	"math"

	"github.com/Carmen-Shannon/meshtree/engine/renderer/shader"
	"github.com/go-gl/mathgl/mgl32"
)

// uniformBlock is the host-side copy of a program's uniform block, laid out by the
// program's declared slots. Values persist between draws.
type uniformBlock struct {
	program shader.Program
	data    []byte
	warned  map[int]bool
}

func newUniformBlock(p shader.Program) *uniformBlock {
	return &uniformBlock{
		program: p,
		data:    make([]byte, p.UniformSize()),
		warned:  map[int]bool{},
	}
}

// region returns the bytes backing slot when the program declares it with the given kind.
// Undeclared slots are ignored; a kind mismatch is logged once per slot.
func (b *uniformBlock) region(slot int, kind shader.UniformKind) ([]byte, shader.Uniform, bool) {
	u, ok := b.program.Uniform(slot)
	if !ok {
		return nil, u, false
	}
	if u.Kind != kind {
		if !b.warned[slot] {
			log.Printf("[Renderer] %s: slot %d is %s, not %s", b.program.Name(), slot, u.Kind, kind)
			b.warned[slot] = true
		}
		return nil, u, false
	}
	return b.data[u.Offset : u.Offset+u.Size()], u, true
}

func (b *uniformBlock) setMat4(slot int, m mgl32.Mat4) {
	if r, _, ok := b.region(slot, shader.UniformMat4); ok {
		putMat4(r, m)
	}
}

func (b *uniformBlock) setMat3(slot int, m mgl32.Mat3) {
	if r, _, ok := b.region(slot, shader.UniformMat3); ok {
		putMat3(r, m)
	}
}

func (b *uniformBlock) setVec3(slot int, v mgl32.Vec3) {
	if r, _, ok := b.region(slot, shader.UniformVec3); ok {
		putVec3(r, v)
	}
}

func (b *uniformBlock) setFloat(slot int, v float32) {
	if r, _, ok := b.region(slot, shader.UniformFloat); ok {
		binary.LittleEndian.PutUint32(r, math.Float32bits(v))
	}
}

func (b *uniformBlock) setInt(slot int, v int32) {
	if r, _, ok := b.region(slot, shader.UniformInt); ok {
		binary.LittleEndian.PutUint32(r, uint32(v))
	}
}

func (b *uniformBlock) setBool(slot int, v bool) {
	if r, _, ok := b.region(slot, shader.UniformBool); ok {
		var bit uint32
		if v {
			bit = 1
		}
		binary.LittleEndian.PutUint32(r, bit)
	}
}

func (b *uniformBlock) setVec3Array(slot int, v []mgl32.Vec3) {
	r, u, ok := b.region(slot, shader.UniformVec3)
	if !ok {
		return
	}
	clear(r)
	for i := 0; i < len(v) && i < max(1, u.Count); i++ {
		putVec3(r[i*16:], v[i])
	}
}

func (b *uniformBlock) setMat4Array(slot int, v []mgl32.Mat4) {
	r, u, ok := b.region(slot, shader.UniformMat4)
	if !ok {
		return
	}
	clear(r)
	for i := 0; i < len(v) && i < max(1, u.Count); i++ {
		putMat4(r[i*64:], v[i])
	}
}

// putMat4 writes a column-major 4x4 matrix (64 bytes).
func putMat4(dst []byte, m mgl32.Mat4) {
	for i, f := range m {
		binary.LittleEndian.PutUint32(dst[i*4:], math.Float32bits(f))
	}
}

// putMat3 writes a 3x3 matrix as three columns padded to 16 bytes each (48 bytes).
func putMat3(dst []byte, m mgl32.Mat3) {
	for c := 0; c < 3; c++ {
		for r := 0; r < 3; r++ {
			binary.LittleEndian.PutUint32(dst[c*16+r*4:], math.Float32bits(m[c*3+r]))
		}
		binary.LittleEndian.PutUint32(dst[c*16+12:], 0)
	}
}

// putVec3 writes a vec3 padded to 16 bytes.
func putVec3(dst []byte, v mgl32.Vec3) {
	binary.LittleEndian.PutUint32(dst[0:], math.Float32bits(v[0]))
	binary.LittleEndian.PutUint32(dst[4:], math.Float32bits(v[1]))
	binary.LittleEndian.PutUint32(dst[8:], math.Float32bits(v[2]))
	binary.LittleEndian.PutUint32(dst[12:], 0)
}
