package light

// ManagerBuilderOption is a function that configures a Manager instance during construction.
type ManagerBuilderOption func(*manager)

// WithShadowMapSize is an option builder that sets the edge length in texels of every
// shadow map created afterwards.
//
// Parameters:
//   - size: the shadow map width and height
//
// Returns:
//   - ManagerBuilderOption: a function that applies the size option to a manager
func WithShadowMapSize(size int) ManagerBuilderOption {
	return func(m *manager) {
		if size > 0 {
			m.shadowMapSize = size
		}
	}
}

// WithShadowPlanes is an option builder that sets the near and far planes shared by the
// point and area shadow projections. The far plane is also the distance normalization
// used by the point shadow lookups.
//
// Parameters:
//   - near: the near plane distance
//   - far: the far plane distance, greater than near
//
// Returns:
//   - ManagerBuilderOption: a function that applies the planes option to a manager
func WithShadowPlanes(near, far float32) ManagerBuilderOption {
	return func(m *manager) {
		if near > 0 && far > near {
			m.near = near
			m.far = far
		}
	}
}

// WithAreaShadowFOV is an option builder that sets the area light field of view in degrees.
func WithAreaShadowFOV(fovDeg float32) ManagerBuilderOption {
	return func(m *manager) {
		if fovDeg > 0 && fovDeg < 180 {
			m.areaFOV = fovDeg
		}
	}
}

// WithShadowBias is an option builder that sets the depth bias subtracted before shadow comparisons.
func WithShadowBias(bias float32) ManagerBuilderOption {
	return func(m *manager) {
		m.bias = bias
	}
}
