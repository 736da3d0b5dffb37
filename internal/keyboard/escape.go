package keyboard

import "hidbridge/internal/hid"

// The escape sequence, as logical key presses:
//
//	Enter, Shift+Grave, Period, Backspace, Backspace, Backspace, Enter
//
// Typing it on any grabbed keyboard shuts the bridge down. The sequence is
// matched on press events of non-modifier keys only, so holding Shift for
// the Grave step does not disturb the match.
type step struct {
	usage byte
	shift bool // a shift key must be held when this step's key is pressed
}

var escapeSteps = [...]step{
	{usage: hid.UsageEnter},
	{usage: hid.UsageGrave, shift: true},
	{usage: hid.UsagePeriod},
	{usage: hid.UsageBackspace},
	{usage: hid.UsageBackspace},
	{usage: hid.UsageBackspace},
	{usage: hid.UsageEnter},
}

// SequenceString renders the escape sequence for the startup banner.
func SequenceString() string {
	return "Enter, Shift+`, ., Backspace, Backspace, Backspace, Enter"
}

// Matcher is the escape-sequence recognizer: a counter into escapeSteps,
// advanced or reset by each non-modifier press. The zero value is ready
// to use.
type Matcher struct {
	pos int
}

// Press feeds one non-modifier key press. shiftHeld is the shift state at
// the time of the press. It returns true exactly when the press completes
// the sequence; the matcher then rearms from the start.
//
// A non-matching press resets the matcher, but is re-tested as a possible
// first step so that Enter always re-arms the sequence.
func (m *Matcher) Press(usage byte, shiftHeld bool) bool {
	s := escapeSteps[m.pos]
	if usage == s.usage && (!s.shift || shiftHeld) {
		m.pos++
		if m.pos == len(escapeSteps) {
			m.pos = 0
			return true
		}
		return false
	}

	m.pos = 0
	first := escapeSteps[0]
	if usage == first.usage && (!first.shift || shiftHeld) {
		m.pos = 1
	}
	return false
}

// Reset returns the matcher to its initial state.
func (m *Matcher) Reset() { m.pos = 0 }
