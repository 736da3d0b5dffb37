// hidbridge - bridge physical keyboards to a USB HID gadget
//
//	hidbridge run     Grab keyboards and bridge them to the gadget
//	hidbridge list    List discovered keyboard devices (no grab)
//	hidbridge check   Verify devices and gadget without bridging
//
// The bridge captures every keyboard-class input device exclusively and
// streams 8-byte boot reports to the HID gadget node, so the attached
// computer sees a real hardware keyboard. Typing the escape sequence
// (Enter, Shift+`, ., Backspace x3, Enter) on any captured keyboard shuts
// the bridge down and releases the devices.
//
// The launcher owns terminal modes: the bridge assumes the controlling
// terminal is already raw and never touches it. Exit status is zero on a
// clean escape-sequence or signal shutdown, nonzero on fatal errors.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"hidbridge/internal/bridge"
	"hidbridge/internal/config"
	"hidbridge/internal/device"
	"hidbridge/internal/gadget"
	"hidbridge/internal/keyboard"
	"hidbridge/internal/keylog"
	"hidbridge/internal/logging"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "run":
		os.Exit(cmdRun(os.Args[2:]))
	case "list":
		os.Exit(cmdList())
	case "check":
		os.Exit(cmdCheck(os.Args[2:]))
	case "help", "-h", "--help":
		usage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", os.Args[1])
		usage()
		os.Exit(1)
	}
}

func usage() {
	fmt.Println(`hidbridge - USB HID keyboard bridge

USAGE:
    hidbridge <command> [options]

COMMANDS:
    run      Grab keyboard devices and bridge them to the HID gadget
    list     List discovered keyboard devices without grabbing them
    check    Verify that devices and the gadget node are usable
    help     Show this help message

RUN OPTIONS:
    -config <path>     TOML configuration file
    -gadget <path>     HID gadget device node (default /dev/hidg0)
    -devices <paths>   Comma-separated input device nodes (default: discover)
    -loglevel <level>  debug, info, warn or error

To exit a running bridge, type on any captured keyboard:
    ` + keyboard.SequenceString())
}

// runFlags parses the flags shared by run and check.
func runFlags(name string, args []string) (*config.Config, error) {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	configPath := fs.String("config", "", "TOML configuration file")
	gadgetPath := fs.String("gadget", "", "HID gadget device node")
	devicePaths := fs.String("devices", "", "comma-separated input device nodes")
	logLevel := fs.String("loglevel", "", "log level")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		return nil, err
	}
	if *gadgetPath != "" {
		cfg.Gadget.Path = *gadgetPath
	}
	if *devicePaths != "" {
		cfg.Devices.Paths = strings.Split(*devicePaths, ",")
	}
	if *logLevel != "" {
		cfg.Logging.Level = *logLevel
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func newLogger(cfg *config.Config) (*logging.Logger, error) {
	level, err := logging.ParseLevel(cfg.Logging.Level)
	if err != nil {
		return nil, err
	}
	format, err := logging.ParseFormat(cfg.Logging.Format)
	if err != nil {
		return nil, err
	}
	return logging.New(&logging.Config{
		Level:     level,
		Format:    format,
		Output:    cfg.Logging.Output,
		Component: "hidbridge",
	}), nil
}

func openDevices(cfg *config.Config) ([]*device.Device, error) {
	if len(cfg.Devices.Paths) > 0 {
		return device.OpenPaths(cfg.Devices.Paths)
	}
	return device.Discover()
}

func cmdRun(args []string) int {
	cfg, err := runFlags("run", args)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}

	log, err := newLogger(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}

	log.Info("starting bridge", "escape_sequence", keyboard.SequenceString())

	devices, err := openDevices(cfg)
	if err != nil {
		log.Error("device discovery failed", "error", err)
		return 1
	}

	writer, err := gadget.Open(
		cfg.Gadget.Path,
		cfg.Gadget.WriteAttempts,
		time.Duration(cfg.Gadget.WaitTimeoutSec)*time.Second,
	)
	if err != nil {
		releaseAll(devices)
		log.Error("gadget open failed", "error", err)
		return 1
	}
	defer writer.Close()

	var recorder bridge.Recorder
	if cfg.Keylog.Enabled {
		store, err := keylog.Open(cfg.Keylog.Path)
		if err != nil {
			// The keylog is a side feature; bridging proceeds without it.
			log.Warn("keylog disabled", "error", err)
		} else {
			defer store.Close()
			recorder = store
			log.Info("keylog enabled", "path", cfg.Keylog.Path)
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	b := bridge.New(log.WithComponent("bridge"), sources(devices), writer, recorder)
	err = b.Run(ctx)

	stats := b.Stats()
	log.Info("bridge stopped",
		"events", stats.Events,
		"reports", stats.Reports,
		"unsupported", stats.Unsupported,
		"write_retries", writer.Retries)

	if err != nil {
		log.Error("bridge failed", "error", err)
		return 1
	}
	return 0
}

func cmdList() int {
	devices, err := device.Discover()
	if err != nil {
		if errors.Is(err, device.ErrNoDevices) {
			fmt.Println("No keyboard devices found.")
			return 1
		}
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	defer releaseAll(devices)

	for _, d := range devices {
		fmt.Printf("%s\t%s\n", d.Path(), d.Name())
	}
	return 0
}

func cmdCheck(args []string) int {
	cfg, err := runFlags("check", args)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}

	ok := true

	devices, err := openDevices(cfg)
	if err != nil {
		fmt.Printf("devices: FAIL (%v)\n", err)
		ok = false
	} else {
		fmt.Printf("devices: ok (%d keyboard(s))\n", len(devices))
		for _, d := range devices {
			fmt.Printf("  %s\t%s\n", d.Path(), d.Name())
		}
		releaseAll(devices)
	}

	if _, err := os.Stat(cfg.Gadget.Path); err != nil {
		fmt.Printf("gadget:  FAIL (%v)\n", err)
		ok = false
	} else {
		fmt.Printf("gadget:  ok (%s)\n", cfg.Gadget.Path)
	}

	if !ok {
		return 1
	}
	return 0
}

// sources adapts the concrete devices to the bridge interface.
func sources(devices []*device.Device) []bridge.Source {
	out := make([]bridge.Source, len(devices))
	for i, d := range devices {
		out[i] = d
	}
	return out
}

func releaseAll(devices []*device.Device) {
	for _, d := range devices {
		d.Release()
	}
}
