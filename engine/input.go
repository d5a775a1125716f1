package engine

import (
	"log"

	"github.com/Carmen-Shannon/meshtree/common"
	"github.com/go-gl/mathgl/mgl32"
)

func (e *engine) Selected() int {
	n := e.scene.NumMeshes()
	if n == 0 {
		return -1
	}
	return min(max(e.selected, 0), n-1)
}

func (e *engine) SelectNext() {
	e.cycle(1)
}

func (e *engine) SelectPrevious() {
	e.cycle(-1)
}

func (e *engine) cycle(step int) {
	n := e.scene.NumMeshes()
	if n == 0 {
		e.selected = -1
		return
	}
	e.selected = ((e.Selected()+step)%n + n) % n
	log.Printf("[Scene] selected %q", e.scene.Graph().Tag(e.scene.NodeAt(e.selected)))
}

func (e *engine) MoveSelected(dx, dy, dz float32) bool {
	i := e.Selected()
	if i < 0 {
		return false
	}
	id := e.scene.NodeAt(i)
	if !e.scene.Graph().TryTranslation(id, mgl32.Vec3{dx, dy, dz}, e.scene.Root()) {
		log.Printf("[Scene] move of %q blocked", e.scene.Graph().Tag(id))
		return false
	}
	return true
}

func (e *engine) HandleKey(key int) {
	s := e.moveStep
	switch key {
	case common.KeyTab, common.KeyN:
		e.SelectNext()
	case common.KeyP:
		e.SelectPrevious()
	case common.KeyRight:
		e.MoveSelected(s, 0, 0)
	case common.KeyLeft:
		e.MoveSelected(-s, 0, 0)
	case common.KeyUp:
		e.MoveSelected(0, 0, -s)
	case common.KeyDown:
		e.MoveSelected(0, 0, s)
	case common.KeyPageUp:
		e.MoveSelected(0, s, 0)
	case common.KeyPageDown:
		e.MoveSelected(0, -s, 0)
	}
}
