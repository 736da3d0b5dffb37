// Package hid maps Linux kernel key codes to USB HID boot-keyboard usages
// and encodes the fixed 8-byte boot-keyboard input report.
//
// The table covers the keyboard/keypad usage page as declared by the
// gadget's boot report descriptor. Codes outside it (multimedia keys,
// mouse buttons on combo devices) are reported as unsupported and are
// expected to be dropped by the caller.
package hid

import (
	evdev "github.com/holoplot/go-evdev"
)

// Modifier mask bits, byte 0 of the boot report.
const (
	ModLeftCtrl   byte = 1 << 0
	ModLeftShift  byte = 1 << 1
	ModLeftAlt    byte = 1 << 2
	ModLeftMeta   byte = 1 << 3
	ModRightCtrl  byte = 1 << 4
	ModRightShift byte = 1 << 5
	ModRightAlt   byte = 1 << 6
	ModRightMeta  byte = 1 << 7
)

// ModShift covers both shift keys.
const ModShift = ModLeftShift | ModRightShift

// Usage codes referenced outside the table (escape sequence, tests).
const (
	UsageEnter     byte = 0x28
	UsageBackspace byte = 0x2a
	UsageGrave     byte = 0x35
	UsagePeriod    byte = 0x37
)

// Usage describes how one kernel key code appears in a boot keyboard report.
// Modifier keys set a bit in report byte 0; regular keys occupy one of the
// six keycode slots.
type Usage struct {
	Code     byte // HID usage ID on the keyboard/keypad page
	Modifier bool
	Bit      byte // modifier mask bit, valid when Modifier is true
}

// Lookup resolves a kernel key code. The second return value is false for
// codes the boot report cannot carry.
func Lookup(code evdev.EvCode) (Usage, bool) {
	u, ok := usages[code]
	return u, ok
}

func key(code byte) Usage      { return Usage{Code: code} }
func mod(code, bit byte) Usage { return Usage{Code: code, Modifier: true, Bit: bit} }

var usages = map[evdev.EvCode]Usage{
	evdev.KEY_ESC:        key(0x29),
	evdev.KEY_1:          key(0x1e),
	evdev.KEY_2:          key(0x1f),
	evdev.KEY_3:          key(0x20),
	evdev.KEY_4:          key(0x21),
	evdev.KEY_5:          key(0x22),
	evdev.KEY_6:          key(0x23),
	evdev.KEY_7:          key(0x24),
	evdev.KEY_8:          key(0x25),
	evdev.KEY_9:          key(0x26),
	evdev.KEY_0:          key(0x27),
	evdev.KEY_MINUS:      key(0x2d),
	evdev.KEY_EQUAL:      key(0x2e),
	evdev.KEY_BACKSPACE:  key(UsageBackspace),
	evdev.KEY_TAB:        key(0x2b),
	evdev.KEY_Q:          key(0x14),
	evdev.KEY_W:          key(0x1a),
	evdev.KEY_E:          key(0x08),
	evdev.KEY_R:          key(0x15),
	evdev.KEY_T:          key(0x17),
	evdev.KEY_Y:          key(0x1c),
	evdev.KEY_U:          key(0x18),
	evdev.KEY_I:          key(0x0c),
	evdev.KEY_O:          key(0x12),
	evdev.KEY_P:          key(0x13),
	evdev.KEY_LEFTBRACE:  key(0x2f),
	evdev.KEY_RIGHTBRACE: key(0x30),
	evdev.KEY_ENTER:      key(UsageEnter),
	evdev.KEY_A:          key(0x04),
	evdev.KEY_S:          key(0x16),
	evdev.KEY_D:          key(0x07),
	evdev.KEY_F:          key(0x09),
	evdev.KEY_G:          key(0x0a),
	evdev.KEY_H:          key(0x0b),
	evdev.KEY_J:          key(0x0d),
	evdev.KEY_K:          key(0x0e),
	evdev.KEY_L:          key(0x0f),
	evdev.KEY_SEMICOLON:  key(0x33),
	evdev.KEY_APOSTROPHE: key(0x34),
	evdev.KEY_GRAVE:      key(UsageGrave),
	evdev.KEY_BACKSLASH:  key(0x31),
	evdev.KEY_Z:          key(0x1d),
	evdev.KEY_X:          key(0x1b),
	evdev.KEY_C:          key(0x06),
	evdev.KEY_V:          key(0x19),
	evdev.KEY_B:          key(0x05),
	evdev.KEY_N:          key(0x11),
	evdev.KEY_M:          key(0x10),
	evdev.KEY_COMMA:      key(0x36),
	evdev.KEY_DOT:        key(UsagePeriod),
	evdev.KEY_SLASH:      key(0x38),
	evdev.KEY_SPACE:      key(0x2c),
	evdev.KEY_CAPSLOCK:   key(0x39),
	evdev.KEY_F1:         key(0x3a),
	evdev.KEY_F2:         key(0x3b),
	evdev.KEY_F3:         key(0x3c),
	evdev.KEY_F4:         key(0x3d),
	evdev.KEY_F5:         key(0x3e),
	evdev.KEY_F6:         key(0x3f),
	evdev.KEY_F7:         key(0x40),
	evdev.KEY_F8:         key(0x41),
	evdev.KEY_F9:         key(0x42),
	evdev.KEY_F10:        key(0x43),
	evdev.KEY_F11:        key(0x44),
	evdev.KEY_F12:        key(0x45),
	evdev.KEY_F13:        key(0x68),
	evdev.KEY_F14:        key(0x69),
	evdev.KEY_F15:        key(0x6a),
	evdev.KEY_F16:        key(0x6b),
	evdev.KEY_F17:        key(0x6c),
	evdev.KEY_F18:        key(0x6d),
	evdev.KEY_F19:        key(0x6e),
	evdev.KEY_F20:        key(0x6f),
	evdev.KEY_F21:        key(0x70),
	evdev.KEY_F22:        key(0x71),
	evdev.KEY_F23:        key(0x72),
	evdev.KEY_F24:        key(0x73),
	evdev.KEY_SYSRQ:      key(0x46),
	evdev.KEY_SCROLLLOCK: key(0x47),
	evdev.KEY_PAUSE:      key(0x48),
	evdev.KEY_INSERT:     key(0x49),
	evdev.KEY_HOME:       key(0x4a),
	evdev.KEY_PAGEUP:     key(0x4b),
	evdev.KEY_DELETE:     key(0x4c),
	evdev.KEY_END:        key(0x4d),
	evdev.KEY_PAGEDOWN:   key(0x4e),
	evdev.KEY_RIGHT:      key(0x4f),
	evdev.KEY_LEFT:       key(0x50),
	evdev.KEY_DOWN:       key(0x51),
	evdev.KEY_UP:         key(0x52),
	evdev.KEY_NUMLOCK:    key(0x53),
	evdev.KEY_KPSLASH:    key(0x54),
	evdev.KEY_KPASTERISK: key(0x55),
	evdev.KEY_KPMINUS:    key(0x56),
	evdev.KEY_KPPLUS:     key(0x57),
	evdev.KEY_KPENTER:    key(0x58),
	evdev.KEY_KP1:        key(0x59),
	evdev.KEY_KP2:        key(0x5a),
	evdev.KEY_KP3:        key(0x5b),
	evdev.KEY_KP4:        key(0x5c),
	evdev.KEY_KP5:        key(0x5d),
	evdev.KEY_KP6:        key(0x5e),
	evdev.KEY_KP7:        key(0x5f),
	evdev.KEY_KP8:        key(0x60),
	evdev.KEY_KP9:        key(0x61),
	evdev.KEY_KP0:        key(0x62),
	evdev.KEY_KPDOT:      key(0x63),
	evdev.KEY_102ND:      key(0x64),
	evdev.KEY_COMPOSE:    key(0x65),
	evdev.KEY_KPEQUAL:    key(0x67),

	// Japanese and Korean keys; part of the keyboard page.
	evdev.KEY_RO:               key(0x87),
	evdev.KEY_KATAKANAHIRAGANA: key(0x88),
	evdev.KEY_YEN:              key(0x89),
	evdev.KEY_HENKAN:           key(0x8a),
	evdev.KEY_MUHENKAN:         key(0x8b),
	evdev.KEY_KPJPCOMMA:        key(0x8c),
	evdev.KEY_HANGEUL:          key(0x90),
	evdev.KEY_HANJA:            key(0x91),
	evdev.KEY_KATAKANA:         key(0x92),
	evdev.KEY_HIRAGANA:         key(0x93),
	evdev.KEY_ZENKAKUHANKAKU:   key(0x94),
	evdev.KEY_KPCOMMA:          key(0x85),

	evdev.KEY_LEFTCTRL:   mod(0xe0, ModLeftCtrl),
	evdev.KEY_LEFTSHIFT:  mod(0xe1, ModLeftShift),
	evdev.KEY_LEFTALT:    mod(0xe2, ModLeftAlt),
	evdev.KEY_LEFTMETA:   mod(0xe3, ModLeftMeta),
	evdev.KEY_RIGHTCTRL:  mod(0xe4, ModRightCtrl),
	evdev.KEY_RIGHTSHIFT: mod(0xe5, ModRightShift),
	evdev.KEY_RIGHTALT:   mod(0xe6, ModRightAlt),
	evdev.KEY_RIGHTMETA:  mod(0xe7, ModRightMeta),
}
