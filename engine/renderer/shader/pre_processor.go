// pre_processor.go implements the WGSL program pre-processor. It expands @mt:include
// annotations from a snippet registry, collects the @mt:uniform and @mt:texture
// declarations, assigns uniform block offsets in slot order and replaces the
// @mt:bindings annotation with the generated WGSL declarations.
package shader

import (
	"sort"
	"strings"

	"github.com/pkg/errors"
)

// maxIncludeDepth bounds nested includes so a snippet including itself fails instead of looping.
const maxIncludeDepth = 8

// preProcessor is the implementation of the PreProcessor interface.
type preProcessor struct {
	// includes maps snippet names to WGSL source.
	includes map[string]string

	// uniforms and textures accumulate the declarations of the last Process call.
	uniforms []Uniform
	textures []TextureBinding
}

// PreProcessor processes WGSL source containing @mt: annotations.
type PreProcessor interface {
	// Process expands includes and generates the binding declarations.
	// The declarations are reset at the start of each call.
	//
	// Parameters:
	//   - source: the raw WGSL source
	//
	// Returns:
	//   - string: the processed WGSL source
	//   - error: an error if an annotation is malformed, an include is unknown or a slot is declared twice
	Process(source string) (string, error)

	// Uniforms returns the uniform declarations of the last Process call, sorted by slot, with offsets set.
	Uniforms() []Uniform

	// Textures returns the texture declarations of the last Process call, sorted by unit.
	Textures() []TextureBinding
}

var _ PreProcessor = &preProcessor{}

// NewPreProcessor creates a PreProcessor resolving includes from the given registry.
// The built-in snippets are always available; entries in includes override them.
//
// Parameters:
//   - includes: additional snippet sources keyed by include name
//
// Returns:
//   - PreProcessor: a ready-to-use pre-processor instance
func NewPreProcessor(includes map[string]string) PreProcessor {
	p := &preProcessor{includes: builtinIncludes()}
	for k, v := range includes {
		p.includes[k] = v
	}
	return p
}

func (p *preProcessor) Process(source string) (string, error) {
	p.uniforms = p.uniforms[:0]
	p.textures = p.textures[:0]

	expanded, err := p.expand(source, 0)
	if err != nil {
		return "", err
	}

	lines := strings.Split(expanded, "\n")
	out := make([]string, 0, len(lines))
	bindingsAt := -1
	slots := map[int]string{}
	units := map[int]string{}

	for i, line := range lines {
		a, err := parseAnnotation(line, i+1)
		if err != nil {
			return "", err
		}
		if a == nil {
			out = append(out, line)
			continue
		}

		switch a.Type {
		case annotationTypeUniform:
			u, err := a.uniform()
			if err != nil {
				return "", err
			}
			if u.Count > 0 && !uniformKinds[u.Kind].arrayable {
				return "", errors.Errorf("line %d: uniform kind %q cannot be an array", a.Line, u.Kind)
			}
			if prev, dup := slots[u.Slot]; dup {
				return "", errors.Errorf("line %d: uniform slot %d already declared by %q", a.Line, u.Slot, prev)
			}
			slots[u.Slot] = u.Name
			p.uniforms = append(p.uniforms, u)
		case annotationTypeTexture:
			t, err := a.texture()
			if err != nil {
				return "", err
			}
			if prev, dup := units[t.Unit]; dup {
				return "", errors.Errorf("line %d: texture unit %d already declared by %q", a.Line, t.Unit, prev)
			}
			units[t.Unit] = t.Name
			p.textures = append(p.textures, t)
		case annotationTypeBindings:
			if bindingsAt >= 0 {
				return "", errors.Errorf("line %d: bindings declared twice", a.Line)
			}
			bindingsAt = len(out)
			out = append(out, "")
		default:
			return "", errors.Errorf("line %d: unexpected annotation %q", a.Line, a.Type)
		}
	}

	sort.Slice(p.uniforms, func(i, j int) bool { return p.uniforms[i].Slot < p.uniforms[j].Slot })
	sort.Slice(p.textures, func(i, j int) bool { return p.textures[i].Unit < p.textures[j].Unit })
	offset := 0
	for i := range p.uniforms {
		p.uniforms[i].Offset = offset
		offset += p.uniforms[i].Size()
	}

	if bindingsAt < 0 {
		if len(p.uniforms) > 0 || len(p.textures) > 0 {
			return "", errors.New("uniforms or textures declared without a bindings annotation")
		}
		return strings.Join(out, "\n"), nil
	}
	out[bindingsAt] = generateBindings(p.uniforms, p.textures)
	return strings.Join(out, "\n"), nil
}

// expand replaces include annotations with their snippet, recursively.
func (p *preProcessor) expand(source string, depth int) (string, error) {
	if depth > maxIncludeDepth {
		return "", errors.New("include nesting too deep")
	}
	lines := strings.Split(source, "\n")
	out := make([]string, 0, len(lines))
	for i, line := range lines {
		a, err := parseAnnotation(line, i+1)
		if err != nil {
			return "", err
		}
		if a == nil || a.Type != annotationTypeInclude {
			out = append(out, line)
			continue
		}
		snippet, ok := p.includes[a.Args[0]]
		if !ok {
			return "", errors.Errorf("line %d: unknown include %q", a.Line, a.Args[0])
		}
		body, err := p.expand(snippet, depth+1)
		if err != nil {
			return "", errors.Wrapf(err, "include %q", a.Args[0])
		}
		out = append(out, body)
	}
	return strings.Join(out, "\n"), nil
}

func (p *preProcessor) Uniforms() []Uniform {
	return p.uniforms
}

func (p *preProcessor) Textures() []TextureBinding {
	return p.textures
}
