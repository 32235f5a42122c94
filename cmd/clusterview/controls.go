package main

import (
	"github.com/veandco/go-sdl2/sdl"
)

// controls is the viewer's keyboard-driven state.
type controls struct {
	quit   bool
	freeze bool // cull with the last view while the camera keeps moving
	paused bool // stop light animation
	boxes  bool // wireframe occupied clusters
	shot   bool // save a screenshot after the next draw
	fit    bool // refit the camera to the scene bounds
	mode   int32
	slice  int32 // -1 shows every depth slice
}

func newControls() controls {
	return controls{slice: -1}
}

// handleKey applies one key press. dimZ bounds slice selection.
func (c *controls) handleKey(key sdl.Keycode, dimZ int) {
	switch key {
	case sdl.K_ESCAPE, sdl.K_q:
		c.quit = true
	case sdl.K_f:
		c.freeze = !c.freeze
	case sdl.K_SPACE:
		c.paused = !c.paused
	case sdl.K_b:
		c.boxes = !c.boxes
	case sdl.K_p:
		c.shot = true
	case sdl.K_r:
		c.fit = true
	case sdl.K_m:
		c.mode = (c.mode + 1) % 2
	case sdl.K_0:
		c.slice = -1
	case sdl.K_RIGHTBRACKET:
		c.slice = min(c.slice+1, int32(dimZ)-1)
	case sdl.K_LEFTBRACKET:
		c.slice = max(c.slice-1, -1)
	}
}

// movement reads held WASD/Z/X keys as camera pan input.
func movement(keys []uint8) (forward, right, up float32) {
	held := func(sc sdl.Scancode) float32 {
		if int(sc) < len(keys) && keys[sc] != 0 {
			return 1
		}
		return 0
	}
	forward = held(sdl.SCANCODE_W) - held(sdl.SCANCODE_S)
	right = held(sdl.SCANCODE_D) - held(sdl.SCANCODE_A)
	up = held(sdl.SCANCODE_X) - held(sdl.SCANCODE_Z)
	return forward, right, up
}
