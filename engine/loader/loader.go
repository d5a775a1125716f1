package loader

import (
	"io"
	"path/filepath"
	"strings"
	"sync"

	"github.com/pkg/errors"
)

// LoaderBackendType identifies the model file format backend to use.
type LoaderBackendType int

const (
	// BackendTypeGLTF selects the glTF/GLB loader backend.
	BackendTypeGLTF LoaderBackendType = iota
)

// loader is the implementation of the Loader interface.
type loader struct {
	mu sync.RWMutex

	meshCache map[string][]RawMesh

	backend loaderBackend
}

// Loader loads raw meshes from model files and caches them by path.
// The result is CPU-side data; GPU upload is the renderer's job.
type Loader interface {
	// Load imports every mesh of a model file and caches the result.
	// If the path is already cached, the cached meshes are returned.
	// The built-in names BuiltinCube and BuiltinPlane generate meshes without touching disk.
	//
	// Parameters:
	//   - path: the file path to the model file, or a built-in name
	//
	// Returns:
	//   - []RawMesh: the loaded meshes, one per mesh in the file
	//   - error: error if the format is unsupported or loading fails
	Load(path string) ([]RawMesh, error)

	// LoadReader imports a model from a reader stream and caches it by the given name.
	//
	// Parameters:
	//   - name: the cache key for the loaded model
	//   - r: the reader providing model data (glTF JSON or GLB)
	//
	// Returns:
	//   - []RawMesh: the loaded meshes
	//   - error: error if loading fails
	LoadReader(name string, r io.Reader) ([]RawMesh, error)

	// Get retrieves cached meshes by name.
	//
	// Parameters:
	//   - name: the cache key to look up
	//
	// Returns:
	//   - []RawMesh: the cached meshes
	//   - bool: false if nothing is cached under name
	Get(name string) ([]RawMesh, bool)
}

var _ Loader = &loader{}

// NewLoader creates a new Loader instance with the specified backend type and options applied.
//
// Parameters:
//   - backendType: the model format backend
//   - options: functional options
//
// Returns:
//   - Loader: the new loader
func NewLoader(backendType LoaderBackendType, options ...LoaderBuilderOption) Loader {
	l := &loader{
		meshCache: make(map[string][]RawMesh),
	}

	switch backendType {
	case BackendTypeGLTF:
		l.backend = newGLTFLoaderBackend()
	}

	for _, option := range options {
		option(l)
	}
	return l
}

func (l *loader) Load(path string) ([]RawMesh, error) {
	if cached, ok := l.Get(path); ok {
		return cached, nil
	}

	var meshes []RawMesh
	switch path {
	case BuiltinCube:
		meshes = []RawMesh{Cube()}
	case BuiltinPlane:
		meshes = []RawMesh{Plane(10)}
	default:
		backend, err := l.resolveBackend(path)
		if err != nil {
			return nil, err
		}
		meshes, err = backend.Load(path)
		if err != nil {
			return nil, errors.Wrapf(err, "load %s", path)
		}
	}

	l.store(path, meshes)
	return meshes, nil
}

func (l *loader) LoadReader(name string, r io.Reader) ([]RawMesh, error) {
	if cached, ok := l.Get(name); ok {
		return cached, nil
	}

	meshes, err := l.backend.LoadReader(r)
	if err != nil {
		return nil, errors.Wrapf(err, "load from reader %q", name)
	}

	l.store(name, meshes)
	return meshes, nil
}

func (l *loader) Get(name string) ([]RawMesh, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	m, ok := l.meshCache[name]
	return m, ok
}

func (l *loader) store(name string, meshes []RawMesh) {
	l.mu.Lock()
	l.meshCache[name] = meshes
	l.mu.Unlock()
}

// resolveBackend selects the backend for a file path by extension.
func (l *loader) resolveBackend(path string) (loaderBackend, error) {
	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".gltf", ".glb":
		return l.backend, nil
	default:
		return nil, errors.Errorf("unsupported model format: %q", ext)
	}
}
