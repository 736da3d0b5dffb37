// Package gadget writes boot keyboard reports to the USB HID gadget
// character device (/dev/hidgX).
//
// The writer is single-owner: one goroutine writes, so reports reach the
// host in exactly the order their states were computed. Writes can fail
// transiently while the attached host has not enumerated the gadget yet,
// so each report is retried a bounded number of times before the failure
// is treated as fatal.
package gadget

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"golang.org/x/sys/unix"

	"hidbridge/internal/hid"
)

// ErrWrite means a report could not be delivered within the retry budget.
var ErrWrite = errors.New("gadget write failed")

// pollTimeoutMs bounds one wait for write readiness between attempts.
const pollTimeoutMs = 250

// Writer owns the gadget device file descriptor.
type Writer struct {
	fd       int
	path     string
	attempts int

	// Retries counts write attempts beyond the first, for the shutdown
	// summary.
	Retries uint64
}

// Open waits up to wait for the gadget node to exist, then opens it
// write-only and non-blocking. attempts is the per-report retry budget.
func Open(path string, attempts int, wait time.Duration) (*Writer, error) {
	if attempts < 1 {
		attempts = 1
	}
	if err := waitForNode(path, wait); err != nil {
		return nil, err
	}

	fd, err := unix.Open(path, unix.O_WRONLY|unix.O_NONBLOCK, 0)
	if err != nil {
		return nil, fmt.Errorf("open gadget %s: %w", path, err)
	}
	return &Writer{fd: fd, path: path, attempts: attempts}, nil
}

// waitForNode returns once path exists. The hidg node appears only after
// gadget configuration settles, which may be moments after the bridge is
// launched, so absence is watched rather than treated as fatal.
func waitForNode(path string, wait time.Duration) error {
	if _, err := os.Stat(path); err == nil {
		return nil
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("watch for gadget: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(filepath.Dir(path)); err != nil {
		return fmt.Errorf("watch %s: %w", filepath.Dir(path), err)
	}

	// The node may have appeared between the stat and the watch.
	if _, err := os.Stat(path); err == nil {
		return nil
	}

	deadline := time.NewTimer(wait)
	defer deadline.Stop()

	for {
		select {
		case ev := <-watcher.Events:
			if ev.Name == path && ev.Op.Has(fsnotify.Create) {
				return nil
			}
		case err := <-watcher.Errors:
			return fmt.Errorf("watch for gadget: %w", err)
		case <-deadline.C:
			return fmt.Errorf("gadget %s did not appear within %s", path, wait)
		}
	}
}

// Write delivers exactly one 8-byte report. A short write counts as a
// failed attempt. EAGAIN waits for the endpoint to drain; other errors
// back off briefly, since hosts mid-enumeration surface transient errnos.
// After the retry budget the error wraps ErrWrite.
func (w *Writer) Write(r hid.Report) error {
	var lastErr error
	for attempt := 0; attempt < w.attempts; attempt++ {
		if attempt > 0 {
			w.Retries++
		}

		n, err := unix.Write(w.fd, r[:])
		if err == nil {
			if n == len(r) {
				return nil
			}
			lastErr = fmt.Errorf("short write: %d of %d bytes", n, len(r))
			continue
		}
		lastErr = err

		if errors.Is(err, unix.EAGAIN) {
			pfd := []unix.PollFd{{Fd: int32(w.fd), Events: unix.POLLOUT}}
			unix.Poll(pfd, pollTimeoutMs)
			continue
		}
		time.Sleep(5 * time.Millisecond)
	}
	return fmt.Errorf("%w: %s after %d attempts: %v", ErrWrite, w.path, w.attempts, lastErr)
}

// Close releases the device descriptor.
func (w *Writer) Close() error {
	if w.fd < 0 {
		return nil
	}
	err := unix.Close(w.fd)
	w.fd = -1
	return err
}
