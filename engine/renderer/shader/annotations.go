// annotations.go defines the annotation types and parser for the WGSL program
// pre-processor. Annotations are single-line WGSL comments prefixed with @mt: that
// inject shared snippets and declare the uniform slots and texture units a program
// reads. The device packs uniform values by the declared slots, so the generated
// WGSL struct and the host-side byte layout are derived from the same declarations.
package shader

import (
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// annotationPrefix is the marker that identifies an annotation within a WGSL comment line.
const annotationPrefix = "@mt:"

// AnnotationType identifies the kind of annotation parsed from a WGSL comment line.
type AnnotationType string

const (
	// annotationTypeInclude injects a registered snippet at the annotation site.
	//
	// Syntax: //@mt:include <name>
	annotationTypeInclude AnnotationType = "include"

	// annotationTypeUniform declares one uniform slot of the program's uniform block.
	// The line itself produces no WGSL; the field is emitted by the bindings annotation.
	//
	// Syntax: //@mt:uniform <slot> <kind> <name> [count]
	annotationTypeUniform AnnotationType = "uniform"

	// annotationTypeTexture declares a texture unit.
	//
	// Syntax: //@mt:texture <unit> <kind> <name>
	annotationTypeTexture AnnotationType = "texture"

	// annotationTypeBindings is replaced by the generated uniform struct, the uniform
	// block binding, the samplers and every declared texture binding.
	//
	// Syntax: //@mt:bindings
	annotationTypeBindings AnnotationType = "bindings"
)

// annotation is a single parsed @mt: line.
type annotation struct {
	Type AnnotationType
	Args []string
	Line int
}

// parseAnnotation parses a source line. It returns nil without error when the line
// is not an annotation.
func parseAnnotation(line string, lineNo int) (*annotation, error) {
	trimmed := strings.TrimSpace(line)
	rest, ok := strings.CutPrefix(trimmed, "//")
	if !ok {
		return nil, nil
	}
	rest, ok = strings.CutPrefix(strings.TrimSpace(rest), annotationPrefix)
	if !ok {
		return nil, nil
	}

	fields := strings.Fields(rest)
	if len(fields) == 0 {
		return nil, errors.Errorf("line %d: empty annotation", lineNo)
	}
	a := &annotation{Type: AnnotationType(fields[0]), Args: fields[1:], Line: lineNo}

	switch a.Type {
	case annotationTypeInclude:
		if len(a.Args) != 1 {
			return nil, errors.Errorf("line %d: include takes exactly one name", lineNo)
		}
	case annotationTypeUniform:
		if len(a.Args) != 3 && len(a.Args) != 4 {
			return nil, errors.Errorf("line %d: uniform takes <slot> <kind> <name> [count]", lineNo)
		}
	case annotationTypeTexture:
		if len(a.Args) != 3 {
			return nil, errors.Errorf("line %d: texture takes <unit> <kind> <name>", lineNo)
		}
	case annotationTypeBindings:
		if len(a.Args) != 0 {
			return nil, errors.Errorf("line %d: bindings takes no arguments", lineNo)
		}
	default:
		return nil, errors.Errorf("line %d: unknown annotation type %q", lineNo, a.Type)
	}
	return a, nil
}

// uniform converts a uniform annotation into a Uniform declaration.
func (a *annotation) uniform() (Uniform, error) {
	slot, err := strconv.Atoi(a.Args[0])
	if err != nil || slot < 0 {
		return Uniform{}, errors.Errorf("line %d: invalid uniform slot %q", a.Line, a.Args[0])
	}
	kind := UniformKind(a.Args[1])
	if _, ok := uniformKinds[kind]; !ok {
		return Uniform{}, errors.Errorf("line %d: unknown uniform kind %q", a.Line, a.Args[1])
	}
	u := Uniform{Slot: slot, Kind: kind, Name: a.Args[2]}
	if len(a.Args) == 4 {
		n, err := strconv.Atoi(a.Args[3])
		if err != nil || n < 1 {
			return Uniform{}, errors.Errorf("line %d: invalid uniform count %q", a.Line, a.Args[3])
		}
		u.Count = n
	}
	return u, nil
}

// texture converts a texture annotation into a TextureBinding declaration.
func (a *annotation) texture() (TextureBinding, error) {
	unit, err := strconv.Atoi(a.Args[0])
	if err != nil || unit < 0 {
		return TextureBinding{}, errors.Errorf("line %d: invalid texture unit %q", a.Line, a.Args[0])
	}
	kind := TextureKind(a.Args[1])
	if _, ok := textureKinds[kind]; !ok {
		return TextureBinding{}, errors.Errorf("line %d: unknown texture kind %q", a.Line, a.Args[1])
	}
	return TextureBinding{Unit: unit, Kind: kind, Name: a.Args[2]}, nil
}
