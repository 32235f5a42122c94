package window

import (
	"github.com/veandco/go-sdl2/sdl"
)

// EventType identifies a processed SDL event.
type EventType int

const (
	EventNone EventType = iota
	EventQuit
	EventResize
	EventKeyDown
	EventDrag
	EventWheel
)

// Event is a processed input event.
type Event struct {
	Type EventType
	Key  sdl.Keycode

	// Drawable size in pixels for EventResize.
	Width, Height int

	// Mouse delta for EventDrag, wheel steps in DY for EventWheel.
	DX, DY float32
}

// PollEvents drains the SDL queue. A resize reports the new drawable size.
// Mouse motion is reported only while the left button is held.
func (w *Window) PollEvents() []Event {
	w.events = w.events[:0]

	for event := sdl.PollEvent(); event != nil; event = sdl.PollEvent() {
		switch e := event.(type) {
		case *sdl.QuitEvent:
			w.events = append(w.events, Event{Type: EventQuit})

		case *sdl.WindowEvent:
			if e.Event == sdl.WINDOWEVENT_RESIZED || e.Event == sdl.WINDOWEVENT_SIZE_CHANGED {
				dw, dh := w.DrawableSize()
				w.events = append(w.events, Event{Type: EventResize, Width: dw, Height: dh})
			}

		case *sdl.KeyboardEvent:
			if e.Type == sdl.KEYDOWN && e.Repeat == 0 {
				w.events = append(w.events, Event{Type: EventKeyDown, Key: e.Keysym.Sym})
			}

		case *sdl.MouseMotionEvent:
			if e.State&sdl.ButtonLMask() != 0 {
				w.events = append(w.events, Event{
					Type: EventDrag,
					DX:   float32(e.XRel),
					DY:   float32(e.YRel),
				})
			}

		case *sdl.MouseWheelEvent:
			w.events = append(w.events, Event{Type: EventWheel, DY: float32(e.Y)})
		}
	}

	return w.events
}
