package engine

import (
	"fmt"
	"log"

	"github.com/Carmen-Shannon/meshtree/engine/light"
	"github.com/Carmen-Shannon/meshtree/engine/scene"
	"github.com/pkg/errors"
)

// buildScene adds the configured lights and meshes. A light the device cannot create
// a shadow map for fails the build; a mesh that fails to load or upload is logged
// and skipped along with its descendants. Files holding several meshes add the
// first under the configured name and the rest as its children.
func (e *engine) buildScene() error {
	for _, l := range e.cfg.Scene.PointLights {
		if _, err := e.lights.AddPointLightAt(l.Position, l.Color); err != nil {
			return errors.Wrapf(err, "point light %q", l.Name)
		}
	}
	areas := make(map[string]*light.AreaLight, len(e.cfg.Scene.AreaLights))
	for _, l := range e.cfg.Scene.AreaLights {
		a, err := e.lights.AddAreaLightAt(l.Position, l.Color)
		if err != nil {
			return errors.Wrapf(err, "area light %q", l.Name)
		}
		areas[l.Name] = a
	}

	nodes := make(map[string]scene.NodeID, len(e.cfg.Scene.Meshes))
	for _, m := range e.cfg.Scene.Meshes {
		opts := []scene.MeshOption{
			scene.WithMeshTransform(m.Transform),
			scene.WithCollision(!m.NoCollide),
		}
		if m.Parent != "" {
			parent, ok := nodes[m.Parent]
			if !ok {
				log.Printf("[Loader] skipping mesh %q: parent %q was not added", m.Name, m.Parent)
				continue
			}
			opts = append(opts, scene.WithParent(parent))
		}
		if m.AreaLight != "" {
			opts = append(opts, scene.WithMeshAreaLight(areas[m.AreaLight]))
		}

		raws, err := e.loader.Load(m.Source)
		if err != nil || len(raws) == 0 {
			log.Printf("[Loader] skipping mesh %q: %v", m.Name, err)
			continue
		}
		id, err := e.scene.AddMesh(m.Name, raws[0], opts...)
		if err != nil {
			log.Printf("[Loader] skipping mesh %q: %v", m.Name, err)
			continue
		}
		nodes[m.Name] = id

		for i, raw := range raws[1:] {
			tag := fmt.Sprintf("%s/%d", m.Name, i+1)
			if _, err := e.scene.AddMesh(tag, raw, scene.WithParent(id), scene.WithCollision(!m.NoCollide)); err != nil {
				log.Printf("[Loader] skipping mesh %q: %v", tag, err)
			}
		}
	}
	return nil
}
