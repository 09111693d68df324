// Package monitor implements the monitor command: print the pad changes a
// bridge sends over its telemetry port.
package monitor

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/golang/glog"
	"go.bug.st/serial"

	"github.com/clktmr/pcebridge/drivers/telemetry"
)

const usageString = `Print pad changes received from a bridge.

Usage: %s [flags] <port>

Use - as port to read from stdin.

`

var (
	flags = flag.NewFlagSet("monitor", flag.ExitOnError)

	baud = flags.Int("baud", 115200, "baud rate")
)

func usage() {
	fmt.Fprintf(flags.Output(), usageString, "monitor")
	flags.PrintDefaults()
}

func Main(args []string) {
	flags.Usage = usage
	flags.Parse(args[1:])

	if flags.NArg() != 1 {
		flags.Usage()
		os.Exit(1)
	}
	defer glog.Flush()

	var in io.Reader = os.Stdin
	if name := flags.Arg(0); name != "-" {
		port, err := serial.Open(name, &serial.Mode{BaudRate: *baud})
		if err != nil {
			glog.Fatalln(err)
		}
		defer port.Close()
		in = port
	}

	if err := Print(os.Stdout, in); err != nil {
		glog.Errorln(err)
	}
}

// Print decodes frames from r and prints them to w until r is exhausted.
// Corrupt frames are logged and skipped.
func Print(w io.Writer, r io.Reader) error {
	tr := telemetry.NewReader(r)
	for {
		f, err := tr.Next()
		switch {
		case err == nil:
			fmt.Fprintln(w, f)
		case errors.Is(err, telemetry.ErrSync), errors.Is(err, telemetry.ErrChecksum):
			glog.Warningln(err)
		case errors.Is(err, io.EOF):
			return nil
		default:
			return err
		}
	}
}
