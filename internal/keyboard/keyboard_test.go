package keyboard

import (
	"testing"

	evdev "github.com/holoplot/go-evdev"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hidbridge/internal/hid"
)

func press(code evdev.EvCode) Event   { return Event{Code: code, Pressed: true} }
func release(code evdev.EvCode) Event { return Event{Code: code, Pressed: false} }

func TestApplyRegularKeyPressAndRelease(t *testing.T) {
	s := NewState()

	d := s.Apply(press(evdev.KEY_A))
	require.True(t, d.Changed)
	assert.Equal(t, []byte{0x04}, s.Pressed())

	d = s.Apply(release(evdev.KEY_A))
	require.True(t, d.Changed)
	assert.Empty(t, s.Pressed())
}

func TestApplyModifierSetsAndClearsMask(t *testing.T) {
	s := NewState()

	d := s.Apply(press(evdev.KEY_LEFTSHIFT))
	require.True(t, d.Changed, "modifier press always changes state")
	assert.Equal(t, hid.ModLeftShift, s.Modifiers())

	d = s.Apply(press(evdev.KEY_RIGHTCTRL))
	require.True(t, d.Changed)
	assert.Equal(t, hid.ModLeftShift|hid.ModRightCtrl, s.Modifiers())

	d = s.Apply(release(evdev.KEY_LEFTSHIFT))
	require.True(t, d.Changed)
	assert.Equal(t, hid.ModRightCtrl, s.Modifiers())
}

func TestApplyNeverExceedsSixKeysOrDuplicates(t *testing.T) {
	s := NewState()

	keys := []evdev.EvCode{
		evdev.KEY_A, evdev.KEY_B, evdev.KEY_C,
		evdev.KEY_D, evdev.KEY_E, evdev.KEY_F,
	}
	for _, k := range keys {
		require.True(t, s.Apply(press(k)).Changed)
	}
	require.Len(t, s.Pressed(), 6)

	// The seventh key cannot be reported; it is dropped silently.
	d := s.Apply(press(evdev.KEY_G))
	assert.False(t, d.Changed)
	assert.Len(t, s.Pressed(), 6)

	// A repeated press of a held key never duplicates.
	d = s.Apply(press(evdev.KEY_A))
	assert.False(t, d.Changed)
	assert.Len(t, s.Pressed(), 6)
}

func TestApplyReleaseCompacts(t *testing.T) {
	s := NewState()

	s.Apply(press(evdev.KEY_A)) // 0x04
	s.Apply(press(evdev.KEY_B)) // 0x05
	s.Apply(press(evdev.KEY_C)) // 0x06
	require.Equal(t, []byte{0x04, 0x05, 0x06}, s.Pressed())

	d := s.Apply(release(evdev.KEY_A))
	require.True(t, d.Changed)
	assert.Equal(t, []byte{0x05, 0x06}, s.Pressed(), "remaining keys shift down, no sparse slots")
}

func TestApplyReleaseUnknownKeyIsNoop(t *testing.T) {
	s := NewState()

	// A key that was down before the grab gets released after it.
	d := s.Apply(release(evdev.KEY_Z))
	assert.False(t, d.Changed)
	assert.Empty(t, s.Pressed())
}

func TestApplyUnsupportedCodeIsNoop(t *testing.T) {
	s := NewState()
	s.Apply(press(evdev.KEY_A))

	d := s.Apply(press(evdev.BTN_LEFT))
	assert.True(t, d.Unsupported)
	assert.False(t, d.Changed)
	assert.Equal(t, []byte{0x04}, s.Pressed(), "state must not desynchronize")

	d = s.Apply(press(evdev.KEY_MUTE))
	assert.True(t, d.Unsupported)
}

func TestApplySeventhKeyStillFeedsEscapeMatcher(t *testing.T) {
	s := NewState()

	// Fill all six slots.
	for _, k := range []evdev.EvCode{
		evdev.KEY_A, evdev.KEY_B, evdev.KEY_C,
		evdev.KEY_D, evdev.KEY_E, evdev.KEY_F,
	} {
		s.Apply(press(k))
	}

	// Escape sequence typed while the report is full: every press is
	// dropped from the report but still advances the matcher.
	s.Apply(press(evdev.KEY_ENTER))
	s.Apply(release(evdev.KEY_ENTER))
	s.Apply(press(evdev.KEY_LEFTSHIFT))
	s.Apply(press(evdev.KEY_GRAVE))
	s.Apply(release(evdev.KEY_GRAVE))
	s.Apply(release(evdev.KEY_LEFTSHIFT))
	for _, k := range []evdev.EvCode{
		evdev.KEY_DOT, evdev.KEY_BACKSPACE, evdev.KEY_BACKSPACE, evdev.KEY_BACKSPACE,
	} {
		s.Apply(press(k))
		s.Apply(release(k))
	}

	d := s.Apply(press(evdev.KEY_ENTER))
	assert.True(t, d.Quit, "match must not depend on free report slots")
}

func TestApplyFullEscapeSequence(t *testing.T) {
	s := NewState()

	quitAt := func(ev Event) bool { return s.Apply(ev).Quit }

	require.False(t, quitAt(press(evdev.KEY_ENTER)))
	require.False(t, quitAt(release(evdev.KEY_ENTER)))
	require.False(t, quitAt(press(evdev.KEY_LEFTSHIFT)))
	require.False(t, quitAt(press(evdev.KEY_GRAVE)))
	require.False(t, quitAt(release(evdev.KEY_GRAVE)))
	require.False(t, quitAt(release(evdev.KEY_LEFTSHIFT)))
	require.False(t, quitAt(press(evdev.KEY_DOT)))
	require.False(t, quitAt(release(evdev.KEY_DOT)))
	for i := 0; i < 3; i++ {
		require.False(t, quitAt(press(evdev.KEY_BACKSPACE)))
		require.False(t, quitAt(release(evdev.KEY_BACKSPACE)))
	}
	assert.True(t, quitAt(press(evdev.KEY_ENTER)))
}

func TestApplySubstitutionResetsSequence(t *testing.T) {
	s := NewState()

	s.Apply(press(evdev.KEY_ENTER))
	s.Apply(release(evdev.KEY_ENTER))
	s.Apply(press(evdev.KEY_LEFTSHIFT))
	s.Apply(press(evdev.KEY_GRAVE))
	s.Apply(release(evdev.KEY_GRAVE))
	s.Apply(release(evdev.KEY_LEFTSHIFT))

	// Comma instead of Period: the whole sequence must reset.
	s.Apply(press(evdev.KEY_COMMA))
	s.Apply(release(evdev.KEY_COMMA))

	for i := 0; i < 3; i++ {
		s.Apply(press(evdev.KEY_BACKSPACE))
		s.Apply(release(evdev.KEY_BACKSPACE))
	}
	d := s.Apply(press(evdev.KEY_ENTER))
	assert.False(t, d.Quit)
}
