package shader

// ProgramBuilderOption is a functional option for configuring a Program.
type ProgramBuilderOption func(*program)

// WithSource sets the raw WGSL source.
//
// Parameters:
//   - source: WGSL source, possibly containing @mt: annotations
//
// Returns:
//   - ProgramBuilderOption: option function to apply
func WithSource(source string) ProgramBuilderOption {
	return func(p *program) {
		p.rawSource = source
	}
}

// WithSourceFromPath reads the raw WGSL source from a file when the program is built.
// Takes precedence over WithSource.
//
// Parameters:
//   - path: path to the .wgsl file
//
// Returns:
//   - ProgramBuilderOption: option function to apply
func WithSourceFromPath(path string) ProgramBuilderOption {
	return func(p *program) {
		p.sourcePath = path
	}
}

// WithEntryPoints overrides the default "vs_main" / "fs_main" entry points.
// An empty fragment entry builds a vertex-only program.
func WithEntryPoints(vertex, fragment string) ProgramBuilderOption {
	return func(p *program) {
		p.vertexEntry = vertex
		p.fragmentEntry = fragment
	}
}

// WithDepthOnly marks the program as rendering into depth targets without color output.
func WithDepthOnly() ProgramBuilderOption {
	return func(p *program) {
		p.depthOnly = true
	}
}

// WithInclude registers a snippet resolvable through //@mt:include <name>.
//
// Parameters:
//   - name: the include name
//   - source: the snippet's WGSL source
//
// Returns:
//   - ProgramBuilderOption: option function to apply
func WithInclude(name, source string) ProgramBuilderOption {
	return func(p *program) {
		p.includes[name] = source
	}
}
