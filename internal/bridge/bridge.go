// Package bridge runs the main loop: it fans raw events from all grabbed
// devices into one channel, feeds them through the keyboard state machine,
// and writes the resulting boot reports to the gadget.
//
// One goroutine per device blocks in ReadOne and forwards key transitions;
// a single consumer loop owns the keyboard state and the writer, so state
// is never touched concurrently and reports reach the gadget in the order
// their states were computed.
package bridge

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	evdev "github.com/holoplot/go-evdev"

	"hidbridge/internal/hid"
	"hidbridge/internal/keyboard"
	"hidbridge/internal/keylog"
	"hidbridge/internal/logging"
)

// ErrNoSources means not a single device could be grabbed at startup.
var ErrNoSources = errors.New("no input devices could be grabbed")

// ErrAllSourcesLost means every grabbed device failed mid-run.
var ErrAllSourcesLost = errors.New("all input devices lost")

// Source is one grabbable producer of raw input events.
type Source interface {
	Path() string
	Name() string
	Grab() error
	Release() error
	ReadOne() (*evdev.InputEvent, error)
}

// ReportWriter delivers one boot report to the gadget.
type ReportWriter interface {
	Write(hid.Report) error
}

// Recorder receives the translated key stream. Optional.
type Recorder interface {
	Record(keylog.Entry) error
}

// Stats are the lifetime counters logged at shutdown.
type Stats struct {
	Events      uint64 // key transitions consumed
	Reports     uint64 // reports written
	Unsupported uint64 // key codes outside the usage table
}

// Bridge wires sources, keyboard state, and the gadget writer together.
type Bridge struct {
	log      *logging.Logger
	sources  []Source
	writer   ReportWriter
	recorder Recorder

	state *keyboard.State
	stats Stats

	grabbed     []Source
	releaseOnce sync.Once
}

// New creates a bridge. recorder may be nil.
func New(log *logging.Logger, sources []Source, writer ReportWriter, recorder Recorder) *Bridge {
	return &Bridge{
		log:      log,
		sources:  sources,
		writer:   writer,
		recorder: recorder,
		state:    keyboard.NewState(),
	}
}

// Stats returns the lifetime counters.
func (b *Bridge) Stats() Stats { return b.stats }

// Run grabs the sources and bridges until the escape sequence is typed,
// the context is cancelled, or a fatal error occurs. All grabs are
// released on every return path, exactly once. A nil return is a clean
// shutdown; the launcher maps it to exit status zero.
func (b *Bridge) Run(ctx context.Context) error {
	if err := b.grabAll(); err != nil {
		return err
	}
	defer b.releaseAll()

	// done stops readers that are blocked sending an event; releaseAll
	// unblocks readers parked in ReadOne by closing the device.
	done := make(chan struct{})
	defer close(done)

	events := make(chan keyboard.Event, 64)
	lost := make(chan string, len(b.grabbed))

	var wg sync.WaitGroup
	for _, s := range b.grabbed {
		wg.Add(1)
		go b.readLoop(s, events, lost, done, &wg)
	}

	active := len(b.grabbed)
	for {
		select {
		case <-ctx.Done():
			b.log.Info("interrupted, shutting down")
			b.writeIdle()
			return nil

		case path := <-lost:
			active--
			b.log.Warn("input device lost", "device", path, "remaining", active)
			if active == 0 {
				return ErrAllSourcesLost
			}

		case ev := <-events:
			quit, err := b.handle(ev)
			if err != nil {
				return err
			}
			if quit {
				return nil
			}
		}
	}
}

// handle applies one event. quit is true after an escape match; a non-nil
// error is a fatal gadget failure.
func (b *Bridge) handle(ev keyboard.Event) (quit bool, err error) {
	b.stats.Events++

	delta := b.state.Apply(ev)
	b.record(ev, delta.Unsupported)

	if delta.Unsupported {
		b.stats.Unsupported++
		b.log.Debug("unsupported key code dropped",
			"device", ev.Device,
			"code", evdev.CodeName(evdev.EV_KEY, ev.Code))
		return false, nil
	}

	if delta.Quit {
		// The match stands regardless of whether the final report can
		// be delivered.
		b.log.Info("escape sequence matched, shutting down")
		b.writeIdle()
		return true, nil
	}

	if delta.Changed {
		report := hid.Encode(b.state.Modifiers(), b.state.Pressed())
		if err := b.writer.Write(report); err != nil {
			return false, fmt.Errorf("deliver report: %w", err)
		}
		b.stats.Reports++
	}
	return false, nil
}

// readLoop forwards key transitions from one device until it is released
// or lost. Repeats (value 2) are skipped: the press already registered.
func (b *Bridge) readLoop(s Source, events chan<- keyboard.Event, lost chan<- string, done <-chan struct{}, wg *sync.WaitGroup) {
	defer wg.Done()
	for {
		raw, err := s.ReadOne()
		if err != nil {
			select {
			case lost <- s.Path():
			case <-done:
			}
			return
		}
		if raw.Type != evdev.EV_KEY || raw.Value == 2 {
			continue
		}
		ev := keyboard.Event{
			Device:  s.Path(),
			Code:    raw.Code,
			Pressed: raw.Value != 0,
			Time:    time.Now(),
		}
		select {
		case events <- ev:
		case <-done:
			return
		}
	}
}

// grabAll grabs every source. Per-device failures are logged and the
// device is excluded; only grabbing nothing at all is fatal.
func (b *Bridge) grabAll() error {
	for _, s := range b.sources {
		if err := s.Grab(); err != nil {
			b.log.Warn("skipping device", "device", s.Path(), "error", err)
			s.Release()
			continue
		}
		b.log.Info("grabbed device", "device", s.Path(), "name", s.Name())
		b.grabbed = append(b.grabbed, s)
	}
	if len(b.grabbed) == 0 {
		return ErrNoSources
	}
	return nil
}

// releaseAll releases every grabbed device exactly once, even when
// multiple shutdown triggers race.
func (b *Bridge) releaseAll() {
	b.releaseOnce.Do(func() {
		for _, s := range b.grabbed {
			if err := s.Release(); err != nil {
				b.log.Warn("release failed", "device", s.Path(), "error", err)
			}
		}
	})
}

// writeIdle sends the all-released report so the attached host never sees
// keys stuck down after the bridge exits. Best effort.
func (b *Bridge) writeIdle() {
	if err := b.writer.Write(hid.Encode(0, nil)); err != nil {
		b.log.Warn("final idle report not delivered", "error", err)
	} else {
		b.stats.Reports++
	}
}

// record mirrors the transition into the keylog, when enabled.
func (b *Bridge) record(ev keyboard.Event, unsupported bool) {
	if b.recorder == nil {
		return
	}
	var usage byte
	if !unsupported {
		if u, ok := hid.Lookup(ev.Code); ok {
			usage = u.Code
		}
	}
	err := b.recorder.Record(keylog.Entry{
		Time:    ev.Time,
		Device:  ev.Device,
		Code:    uint16(ev.Code),
		Usage:   usage,
		Pressed: ev.Pressed,
	})
	if err != nil {
		b.log.Warn("keylog record failed", "error", err)
	}
}
