package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/golang/glog"

	"github.com/clktmr/pcebridge/tools/monitor"
	"github.com/clktmr/pcebridge/tools/run"
	"github.com/clktmr/pcebridge/tools/sim"
)

const usageString = `pcebridge connects NES/SNES and Mega Drive pads to a PC Engine.

Usage:

	%s [flags] <command> [arguments]

The commands are:

	run      bridge pads wired to a gpiochip
	sim      run the bridge against simulated pads
	monitor  print pad changes sent by a bridge
`

func usage() {
	fmt.Fprintf(flag.CommandLine.Output(), usageString, os.Args[0])
	flag.PrintDefaults()
}

func main() {
	flag.Usage = usage
	flag.Parse()
	defer glog.Flush()

	if flag.NArg() < 1 {
		flag.Usage()
		os.Exit(1)
	}

	switch flag.Arg(0) {
	case "run":
		run.Main(flag.Args())
	case "sim":
		sim.Main(flag.Args())
	case "monitor":
		monitor.Main(flag.Args())
	default:
		fmt.Fprintf(flag.CommandLine.Output(), "unknown command: %s\n", flag.Arg(0))
		flag.Usage()
		os.Exit(1)
	}
}
