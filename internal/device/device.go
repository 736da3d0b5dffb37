// Package device discovers keyboard-class input devices under /dev/input
// and holds them under exclusive grab for the lifetime of the bridge.
//
// Discovery runs once at startup; there is no hot-plug rescan. While a
// device is grabbed, the rest of the host's input stack receives nothing
// from it - that exclusivity is the point of grabbing.
package device

import (
	"errors"
	"fmt"
	"sync"

	evdev "github.com/holoplot/go-evdev"
	"golang.org/x/sys/unix"
)

var (
	// ErrBusy means another process already holds the exclusive grab.
	ErrBusy = errors.New("device grabbed by another process")
	// ErrUnavailable means the device node vanished or cannot be opened.
	ErrUnavailable = errors.New("device unavailable")
	// ErrNoDevices means discovery found nothing grabbable.
	ErrNoDevices = errors.New("no keyboard devices found")
)

// Device is one grabbed (or grabbable) input device node.
type Device struct {
	path string
	name string
	dev  *evdev.InputDevice

	mu       sync.Mutex
	grabbed  bool
	released bool
}

// Path returns the device node path.
func (d *Device) Path() string { return d.path }

// Name returns the kernel-reported device name.
func (d *Device) Name() string { return d.name }

// Discover enumerates /dev/input and returns every device that looks like
// a keyboard. Nodes that cannot be opened (usually permissions) are
// skipped. The result is in enumeration order; ErrNoDevices if empty.
func Discover() ([]*Device, error) {
	paths, err := evdev.ListDevicePaths()
	if err != nil {
		return nil, fmt.Errorf("list input devices: %w", err)
	}

	var devices []*Device
	for _, p := range paths {
		dev, err := evdev.Open(p.Path)
		if err != nil {
			continue
		}
		if !isKeyboard(dev.CapableEvents(evdev.EV_KEY)) {
			dev.Close()
			continue
		}
		name, _ := dev.Name()
		devices = append(devices, &Device{path: p.Path, name: name, dev: dev})
	}

	if len(devices) == 0 {
		return nil, ErrNoDevices
	}
	return devices, nil
}

// OpenPaths opens an explicit list of device nodes, bypassing the
// capability filter. Used when the configuration pins devices.
func OpenPaths(paths []string) ([]*Device, error) {
	var devices []*Device
	for _, p := range paths {
		dev, err := evdev.Open(p)
		if err != nil {
			releaseAll(devices)
			return nil, fmt.Errorf("open %s: %w", p, ErrUnavailable)
		}
		name, _ := dev.Name()
		devices = append(devices, &Device{path: p, name: name, dev: dev})
	}
	if len(devices) == 0 {
		return nil, ErrNoDevices
	}
	return devices, nil
}

// isKeyboard applies the capability filter: a device counts as a keyboard
// when it can emit both a letter and Enter. Power buttons and pointer
// devices advertise EV_KEY too, but not that pair.
func isKeyboard(codes []evdev.EvCode) bool {
	var hasLetter, hasEnter bool
	for _, c := range codes {
		switch c {
		case evdev.KEY_A:
			hasLetter = true
		case evdev.KEY_ENTER:
			hasEnter = true
		}
	}
	return hasLetter && hasEnter
}

// Grab acquires exclusive access. Until Release, no other process on the
// host receives events from this device.
func (d *Device) Grab() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.released {
		return ErrUnavailable
	}
	if d.grabbed {
		return nil
	}
	if err := d.dev.Grab(); err != nil {
		return fmt.Errorf("grab %s: %w", d.path, classifyGrabError(err))
	}
	d.grabbed = true
	return nil
}

// classifyGrabError maps the raw ioctl errno onto the package taxonomy.
func classifyGrabError(err error) error {
	switch {
	case errors.Is(err, unix.EBUSY):
		return ErrBusy
	case errors.Is(err, unix.ENODEV), errors.Is(err, unix.ENOENT):
		return ErrUnavailable
	default:
		return err
	}
}

// Release ungrabs and closes the device. It is idempotent: repeated calls
// and calls on a never-grabbed device are no-ops. Closing also unblocks
// any reader parked in ReadOne.
func (d *Device) Release() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.released {
		return nil
	}
	d.released = true

	var err error
	if d.grabbed {
		err = d.dev.Ungrab()
		d.grabbed = false
	}
	if cerr := d.dev.Close(); err == nil {
		err = cerr
	}
	return err
}

// ReadOne blocks for the next raw input event. It returns an error once
// the device is released or lost.
func (d *Device) ReadOne() (*evdev.InputEvent, error) {
	return d.dev.ReadOne()
}

func releaseAll(devices []*Device) {
	for _, d := range devices {
		d.Release()
	}
}
