// Package keyboard tracks the logical keyboard state fed by one or more
// grabbed input devices: the active modifier mask, the ordered set of held
// non-modifier keys, and the escape sequence that shuts the bridge down.
//
// All devices feed a single State; the state is owned by whichever loop
// calls Apply and is not safe for concurrent use.
package keyboard

import (
	"time"

	evdev "github.com/holoplot/go-evdev"

	"hidbridge/internal/hid"
)

// Event is one key transition read from a grabbed device. Repeat events
// are not Events; callers filter them out before Apply.
type Event struct {
	Device  string // device node path, for logging and the keylog
	Code    evdev.EvCode
	Pressed bool
	Time    time.Time
}

// Delta describes what an applied event changed.
type Delta struct {
	// Changed means the HID-visible state moved and a report must be sent.
	Changed bool
	// Quit means the escape sequence completed on this event.
	Quit bool
	// Unsupported means the key code has no boot-report usage and was
	// dropped without touching state.
	Unsupported bool
}

// State is the merged keyboard state across all grabbed devices.
type State struct {
	mask    byte
	pressed []byte // usage codes in press order, len <= hid.MaxKeys
	matcher Matcher
}

// NewState returns an empty keyboard state.
func NewState() *State {
	return &State{pressed: make([]byte, 0, hid.MaxKeys)}
}

// Modifiers returns the current modifier mask (report byte 0).
func (s *State) Modifiers() byte { return s.mask }

// Pressed returns the held non-modifier usage codes in press order.
// The slice is valid until the next Apply.
func (s *State) Pressed() []byte { return s.pressed }

// Apply feeds one key transition into the state.
//
// Modifier keys set or clear their mask bit and always count as a change,
// since the mask is byte 0 of every subsequent report. Regular presses
// append to the held set unless the key is already down or all six slots
// are taken; the boot format simply cannot report a seventh key, so it is
// dropped without a state change. Releases remove the key if present and
// are a no-op otherwise, which absorbs keys that were already down before
// the grab. Escape matching runs on every supported non-modifier press,
// whether or not the press fit into a report slot.
func (s *State) Apply(ev Event) Delta {
	u, ok := hid.Lookup(ev.Code)
	if !ok {
		return Delta{Unsupported: true}
	}

	if u.Modifier {
		if ev.Pressed {
			s.mask |= u.Bit
		} else {
			s.mask &^= u.Bit
		}
		return Delta{Changed: true}
	}

	if !ev.Pressed {
		return Delta{Changed: s.remove(u.Code)}
	}

	quit := s.matcher.Press(u.Code, s.mask&hid.ModShift != 0)
	return Delta{Changed: s.add(u.Code), Quit: quit}
}

// add appends a usage code if absent and a slot is free.
func (s *State) add(code byte) bool {
	for _, c := range s.pressed {
		if c == code {
			return false
		}
	}
	if len(s.pressed) == hid.MaxKeys {
		return false
	}
	s.pressed = append(s.pressed, code)
	return true
}

// remove deletes a usage code, compacting the remaining keys so report
// slots never go sparse.
func (s *State) remove(code byte) bool {
	for i, c := range s.pressed {
		if c == code {
			s.pressed = append(s.pressed[:i], s.pressed[i+1:]...)
			return true
		}
	}
	return false
}
