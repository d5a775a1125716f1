// Package config holds the viewer's render settings and startup scene, loadable
// from TOML or YAML.
package config

import (
	"log"

	"github.com/Carmen-Shannon/meshtree/engine/loader"
	"github.com/Carmen-Shannon/meshtree/engine/transform"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/pkg/errors"
)

// Ranges the interactive settings are clamped to.
const (
	MinMoveSpeed float32 = 0.01
	MaxMoveSpeed float32 = 0.09
	MinLookSpeed float32 = 0.0005
	MaxLookSpeed float32 = 0.005
	MinFOV       float32 = 30
	MaxFOV       float32 = 179
	MinZoomedFOV float32 = 20
	MaxZoomedFOV float32 = 120

	MinShadowMapSize = 64
	MaxShadowMapSize = 8192
)

// RenderConfig is the full viewer configuration.
type RenderConfig struct {
	Window      WindowConfig `toml:"window" yaml:"window"`
	Camera      CameraConfig `toml:"camera" yaml:"camera"`
	Shadows     ShadowConfig `toml:"shadows" yaml:"shadows"`
	Scene       SceneConfig  `toml:"scene" yaml:"scene"`
	PrepWorkers int          `toml:"prep_workers" yaml:"prep_workers"`
	Profiling   bool         `toml:"profiling" yaml:"profiling"`
}

type WindowConfig struct {
	Title  string `toml:"title" yaml:"title"`
	Width  int    `toml:"width" yaml:"width"`
	Height int    `toml:"height" yaml:"height"`
}

// CameraConfig configures the free-fly camera. FOVs are vertical, in degrees.
type CameraConfig struct {
	VerticalFOV       float32    `toml:"vertical_fov" yaml:"vertical_fov"`
	ZoomedVerticalFOV float32    `toml:"zoomed_vertical_fov" yaml:"zoomed_vertical_fov"`
	MoveSpeed         float32    `toml:"move_speed" yaml:"move_speed"`
	LookSpeed         float32    `toml:"look_speed" yaml:"look_speed"`
	ConstrainVertical bool       `toml:"constrain_vertical" yaml:"constrain_vertical"`
	Near              float32    `toml:"near" yaml:"near"`
	Far               float32    `toml:"far" yaml:"far"`
	Position          mgl32.Vec3 `toml:"position" yaml:"position"`
	Forward           mgl32.Vec3 `toml:"forward" yaml:"forward"`
}

// ShadowConfig configures every shadow map and projection.
type ShadowConfig struct {
	MapSize int     `toml:"map_size" yaml:"map_size"`
	Near    float32 `toml:"near" yaml:"near"`
	Far     float32 `toml:"far" yaml:"far"`
	Bias    float32 `toml:"bias" yaml:"bias"`
	AreaFOV float32 `toml:"area_fov" yaml:"area_fov"`
}

// SceneConfig is the scene built at startup.
type SceneConfig struct {
	Meshes      []MeshConfig  `toml:"meshes" yaml:"meshes"`
	PointLights []LightConfig `toml:"point_lights" yaml:"point_lights"`
	AreaLights  []LightConfig `toml:"area_lights" yaml:"area_lights"`
}

// MeshConfig places one mesh. Source is a glTF path or one of the loader's built-in
// names. Parent names an earlier mesh; empty parents the mesh to the scene root.
// AreaLight names an area light that follows the mesh.
type MeshConfig struct {
	Name      string              `toml:"name" yaml:"name"`
	Source    string              `toml:"source" yaml:"source"`
	Transform transform.Transform `toml:"transform" yaml:"transform"`
	Parent    string              `toml:"parent" yaml:"parent"`
	NoCollide bool                `toml:"no_collide" yaml:"no_collide"`
	AreaLight string              `toml:"area_light" yaml:"area_light"`
}

func (s SceneConfig) empty() bool {
	return len(s.Meshes) == 0 && len(s.PointLights) == 0 && len(s.AreaLights) == 0
}

type LightConfig struct {
	Name     string     `toml:"name" yaml:"name"`
	Position mgl32.Vec3 `toml:"position" yaml:"position"`
	Color    mgl32.Vec3 `toml:"color" yaml:"color"`
}

// Default returns the configuration the viewer starts with when no file is given:
// a floor and a cube, two colored point lights and two area lights.
func Default() RenderConfig {
	floor := transform.Identity()
	floor.Translate = mgl32.Vec3{0, -0.5, 0}
	cube := transform.Identity()
	cube.Translate = mgl32.Vec3{0, 0.5, 0}

	return RenderConfig{
		Window: WindowConfig{Title: "meshtree", Width: 1280, Height: 720},
		Camera: CameraConfig{
			VerticalFOV:       80,
			ZoomedVerticalFOV: 30,
			MoveSpeed:         0.03,
			LookSpeed:         0.0015,
			Near:              0.1,
			Far:               30,
			Position:          mgl32.Vec3{3, 3, 3},
			Forward:           mgl32.Vec3{-1.2, -1.1, -0.9},
		},
		Shadows: ShadowConfig{MapSize: 1024, Near: 0.1, Far: 30, Bias: 0.005, AreaFOV: 90},
		Scene: SceneConfig{
			Meshes: []MeshConfig{
				{Name: "floor", Source: loader.BuiltinPlane, Transform: floor},
				{Name: "cube", Source: loader.BuiltinCube, Transform: cube},
			},
			PointLights: []LightConfig{
				{Name: "red", Position: mgl32.Vec3{1, 0, 0}, Color: mgl32.Vec3{1, 0, 0}},
				{Name: "green", Position: mgl32.Vec3{0, 1, 0}, Color: mgl32.Vec3{0, 1, 0}},
			},
			AreaLights: []LightConfig{
				{Name: "area_red", Position: mgl32.Vec3{1, 1, 1}, Color: mgl32.Vec3{0.5, 0, 0}},
				{Name: "area_green", Position: mgl32.Vec3{1, 1, 0}, Color: mgl32.Vec3{0, 0.5, 0}},
			},
		},
	}
}

// Normalize clamps the interactive settings to their ranges and fills defaults that
// zero values cannot mean: unit scale for meshes without one and a size for the window.
// Every clamped value is logged.
func (c *RenderConfig) Normalize() {
	def := Default()
	clampf := func(name string, v *float32, lo, hi float32) {
		if *v < lo || *v > hi {
			clamped := min(max(*v, lo), hi)
			log.Printf("[Config] %s %g out of range [%g, %g], using %g", name, *v, lo, hi, clamped)
			*v = clamped
		}
	}
	clampf("move_speed", &c.Camera.MoveSpeed, MinMoveSpeed, MaxMoveSpeed)
	clampf("look_speed", &c.Camera.LookSpeed, MinLookSpeed, MaxLookSpeed)
	clampf("vertical_fov", &c.Camera.VerticalFOV, MinFOV, MaxFOV)
	clampf("zoomed_vertical_fov", &c.Camera.ZoomedVerticalFOV, MinZoomedFOV, MaxZoomedFOV)

	if c.Shadows.MapSize < MinShadowMapSize || c.Shadows.MapSize > MaxShadowMapSize {
		clamped := min(max(c.Shadows.MapSize, MinShadowMapSize), MaxShadowMapSize)
		log.Printf("[Config] map_size %d out of range [%d, %d], using %d",
			c.Shadows.MapSize, MinShadowMapSize, MaxShadowMapSize, clamped)
		c.Shadows.MapSize = clamped
	}
	if c.Window.Width <= 0 || c.Window.Height <= 0 {
		c.Window.Width, c.Window.Height = def.Window.Width, def.Window.Height
	}
	for i := range c.Scene.Meshes {
		if c.Scene.Meshes[i].Transform.Scale == (mgl32.Vec3{}) {
			c.Scene.Meshes[i].Transform.Scale = mgl32.Vec3{1, 1, 1}
		}
	}
}

// Validate checks the scene's references: mesh names are unique and non-empty, every
// parent is declared earlier, every referenced area light exists, and the light counts
// fit the shading program.
func (c *RenderConfig) Validate(maxPointLights, maxAreaLights int) error {
	if n := len(c.Scene.PointLights); n > maxPointLights {
		return errors.Errorf("config: %d point lights, at most %d", n, maxPointLights)
	}
	if n := len(c.Scene.AreaLights); n > maxAreaLights {
		return errors.Errorf("config: %d area lights, at most %d", n, maxAreaLights)
	}
	areas := make(map[string]bool, len(c.Scene.AreaLights))
	for _, l := range c.Scene.AreaLights {
		areas[l.Name] = true
	}

	seen := make(map[string]bool, len(c.Scene.Meshes))
	for i, m := range c.Scene.Meshes {
		if m.Name == "" {
			return errors.Errorf("config: mesh %d has no name", i)
		}
		if seen[m.Name] {
			return errors.Errorf("config: duplicate mesh %q", m.Name)
		}
		if m.Source == "" {
			return errors.Errorf("config: mesh %q has no source", m.Name)
		}
		if m.Parent != "" && !seen[m.Parent] {
			return errors.Errorf("config: mesh %q: parent %q is not declared before it", m.Name, m.Parent)
		}
		if m.AreaLight != "" && !areas[m.AreaLight] {
			return errors.Errorf("config: mesh %q: unknown area light %q", m.Name, m.AreaLight)
		}
		seen[m.Name] = true
	}
	return nil
}
