package device

import (
	"errors"
	"fmt"
	"testing"

	evdev "github.com/holoplot/go-evdev"
	"golang.org/x/sys/unix"
)

func TestIsKeyboard(t *testing.T) {
	cases := []struct {
		name  string
		codes []evdev.EvCode
		want  bool
	}{
		{
			"full keyboard",
			[]evdev.EvCode{evdev.KEY_ESC, evdev.KEY_A, evdev.KEY_ENTER, evdev.KEY_SPACE},
			true,
		},
		{
			"power button",
			[]evdev.EvCode{evdev.KEY_POWER},
			false,
		},
		{
			"mouse",
			[]evdev.EvCode{evdev.BTN_LEFT, evdev.BTN_RIGHT, evdev.BTN_MIDDLE},
			false,
		},
		{
			"keypad without letters",
			[]evdev.EvCode{evdev.KEY_KP1, evdev.KEY_KP2, evdev.KEY_KPENTER, evdev.KEY_ENTER},
			false,
		},
		{
			"no capabilities",
			nil,
			false,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := isKeyboard(tc.codes); got != tc.want {
				t.Errorf("isKeyboard(%v) = %v, want %v", tc.codes, got, tc.want)
			}
		})
	}
}

func TestClassifyGrabError(t *testing.T) {
	if got := classifyGrabError(unix.EBUSY); !errors.Is(got, ErrBusy) {
		t.Errorf("EBUSY should map to ErrBusy, got %v", got)
	}
	if got := classifyGrabError(fmt.Errorf("ioctl: %w", unix.EBUSY)); !errors.Is(got, ErrBusy) {
		t.Errorf("wrapped EBUSY should map to ErrBusy, got %v", got)
	}
	if got := classifyGrabError(unix.ENODEV); !errors.Is(got, ErrUnavailable) {
		t.Errorf("ENODEV should map to ErrUnavailable, got %v", got)
	}
	if got := classifyGrabError(unix.ENOENT); !errors.Is(got, ErrUnavailable) {
		t.Errorf("ENOENT should map to ErrUnavailable, got %v", got)
	}

	other := errors.New("some other failure")
	if got := classifyGrabError(other); !errors.Is(got, other) {
		t.Errorf("unrelated errors must pass through, got %v", got)
	}
}
