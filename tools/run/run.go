// Package run implements the run command: bridge pads attached to the lines
// of a Linux gpiochip.
package run

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"image/color"
	"io"
	"os"
	"os/signal"

	"github.com/golang/glog"
	"go.bug.st/serial"

	"github.com/clktmr/pcebridge/bridge"
	"github.com/clktmr/pcebridge/drivers/status"
	"github.com/clktmr/pcebridge/gpio/cdev"
	"github.com/clktmr/pcebridge/machine"
)

const usageString = `Bridge NES/SNES or Mega Drive pads to a PC Engine.

Usage: %s [flags]

`

var (
	flags = flag.NewFlagSet("run", flag.ExitOnError)

	chip      = flags.String("chip", "gpiochip0", "gpiochip the pads are wired to")
	interval  = flags.Duration("interval", bridge.DefaultReadInterval, "time between two pad reads")
	telemetry = flags.String("telemetry", "", "serial port to send pad changes to")
	baud      = flags.Int("baud", 115200, "baud rate of the telemetry port")

	pins = machine.RP2040
)

func usage() {
	fmt.Fprintf(flags.Output(), usageString, "run")
	flags.PrintDefaults()
}

func Main(args []string) {
	pins.RegisterFlags(flags)
	flags.Usage = usage
	flags.Parse(args[1:])

	if flags.NArg() != 0 {
		flags.Usage()
		os.Exit(1)
	}
	defer glog.Flush()

	c, err := cdev.Open(*chip)
	if err != nil {
		glog.Fatalln(err)
	}
	defer c.Close()

	cfg := bridge.Config{
		Pins:         pins,
		ReadInterval: *interval,
		Indicator: status.IndicatorFunc(func(col color.Color) {
			glog.V(3).Infof("status %v", col)
		}),
	}
	if *telemetry != "" {
		port, err := openTelemetry(*telemetry, *baud)
		if err != nil {
			glog.Fatalln("telemetry:", err)
		}
		defer port.Close()
		cfg.Telemetry = port
	}

	b, err := bridge.New(c, cfg)
	if err != nil {
		glog.Fatalln(err)
	}
	defer b.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	err = b.Run(ctx)
	if err != nil && !errors.Is(err, context.Canceled) {
		glog.Errorln(err)
	}
	glog.Infoln("stopped")
}

func openTelemetry(name string, baud int) (io.WriteCloser, error) {
	return serial.Open(name, &serial.Mode{BaudRate: baud})
}
