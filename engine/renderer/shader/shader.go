package shader

import (
	"os"

	"github.com/pkg/errors"
)

// program is the implementation of the Program interface.
type program struct {
	name          string
	rawSource     string
	sourcePath    string
	source        string
	vertexEntry   string
	fragmentEntry string
	depthOnly     bool
	includes      map[string]string
	uniforms      []Uniform
	textures      []TextureBinding
	uniformSize   int
}

// Program is a pre-processed WGSL module holding a vertex and an optional fragment
// entry point, together with the uniform slots and texture units it declares.
type Program interface {
	// Name returns the program's identifying name.
	Name() string

	// Source returns the processed WGSL source.
	Source() string

	// VertexEntry returns the vertex stage entry point.
	VertexEntry() string

	// FragmentEntry returns the fragment stage entry point.
	FragmentEntry() string

	// DepthOnly reports whether the program writes depth only, with no color output.
	// A depth-only program may still have a fragment stage writing frag_depth.
	DepthOnly() bool

	// Uniforms returns the declared uniform slots sorted by slot number.
	Uniforms() []Uniform

	// Uniform looks up a declared slot.
	//
	// Parameters:
	//   - slot: the uniform slot
	//
	// Returns:
	//   - Uniform: the declaration
	//   - bool: false if the program does not declare the slot
	Uniform(slot int) (Uniform, bool)

	// UniformSize returns the byte size of the uniform block.
	UniformSize() int

	// Textures returns the declared texture units sorted by unit.
	Textures() []TextureBinding
}

var _ Program = &program{}

// NewProgram builds a Program from WGSL source supplied through the builder options.
// The source is pre-processed immediately; any failure is returned.
//
// Parameters:
//   - name: the program name, used as the GPU label
//   - options: functional options supplying source, entry points and includes
//
// Returns:
//   - Program: the built program
//   - error: an error if no source was supplied or pre-processing fails
func NewProgram(name string, options ...ProgramBuilderOption) (Program, error) {
	p := &program{
		name:          name,
		vertexEntry:   "vs_main",
		fragmentEntry: "fs_main",
		includes:      map[string]string{},
	}
	for _, opt := range options {
		opt(p)
	}

	if p.sourcePath != "" {
		data, err := os.ReadFile(p.sourcePath)
		if err != nil {
			return nil, errors.Wrapf(err, "shader %s: read %s", name, p.sourcePath)
		}
		p.rawSource = string(data)
	}
	if p.rawSource == "" {
		return nil, errors.Errorf("shader %s: no source provided", name)
	}

	pp := NewPreProcessor(p.includes)
	src, err := pp.Process(p.rawSource)
	if err != nil {
		return nil, errors.Wrapf(err, "shader %s", name)
	}
	p.source = src
	p.uniforms = append([]Uniform(nil), pp.Uniforms()...)
	p.textures = append([]TextureBinding(nil), pp.Textures()...)
	for _, u := range p.uniforms {
		p.uniformSize = u.Offset + u.Size()
	}
	return p, nil
}

func (p *program) Name() string {
	return p.name
}

func (p *program) Source() string {
	return p.source
}

func (p *program) VertexEntry() string {
	return p.vertexEntry
}

func (p *program) FragmentEntry() string {
	return p.fragmentEntry
}

func (p *program) DepthOnly() bool {
	return p.depthOnly
}

func (p *program) Uniforms() []Uniform {
	return p.uniforms
}

func (p *program) Uniform(slot int) (Uniform, bool) {
	for _, u := range p.uniforms {
		if u.Slot == slot {
			return u, true
		}
	}
	return Uniform{}, false
}

func (p *program) UniformSize() int {
	return p.uniformSize
}

func (p *program) Textures() []TextureBinding {
	return p.textures
}
