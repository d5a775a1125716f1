package loader

// LoaderBuilderOption is a functional option for configuring a Loader via NewLoader.
type LoaderBuilderOption func(*loader)

// WithMeshes pre-populates the cache with meshes under a key.
//
// Parameters:
//   - key: the cache key
//   - meshes: the meshes to cache
//
// Returns:
//   - LoaderBuilderOption: a function that applies the option to a loader
func WithMeshes(key string, meshes ...RawMesh) LoaderBuilderOption {
	return func(l *loader) {
		l.meshCache[key] = meshes
	}
}
