package loader

import "io"

// loaderBackend is the format-specific half of a Loader.
type loaderBackend interface {
	// Load imports every mesh from the given file path.
	Load(path string) ([]RawMesh, error)

	// LoadReader imports every mesh from a stream. External buffers and images
	// cannot be resolved without a base path.
	LoadReader(r io.Reader) ([]RawMesh, error)
}
