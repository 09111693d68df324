// Package sim implements the sim command: run the bridge against simulated
// pads and a simulated console, driven by a script.
//
// Each script line is a command, split into words like a shell would:
//
//	plug snes|nes|genesis3|genesis6 [pad]   attach a pad before start
//	start                                   select the reader
//	press <pad> <button>...                 hold buttons down
//	release <pad> <button>...               let buttons go
//	read [count]                            run reader cycles
//	poll                                    poll both ports like the console
//	idle <duration>                         let time pass
//
// Pads are numbered from 1.  Lines starting with # are ignored.
package sim

import (
	"bufio"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/golang/glog"
	"github.com/kballard/go-shellquote"

	"github.com/clktmr/pcebridge/bridge"
	"github.com/clktmr/pcebridge/drivers/genesispad"
	"github.com/clktmr/pcebridge/drivers/snespad"
	bridgetesting "github.com/clktmr/pcebridge/testing"
)

const usageString = `Run the bridge against simulated hardware.

Usage: %s [flags] [script]

Reads the script from stdin if no file is given.

`

var flags = flag.NewFlagSet("sim", flag.ExitOnError)

func usage() {
	fmt.Fprintf(flags.Output(), usageString, "sim")
	flags.PrintDefaults()
}

// data2 is the line of the second NES/SNES pad, unused on the RP2040 board.
const data2 = 5

var (
	errUsage   = errors.New("usage")
	errStarted = errors.New("bridge already started")
)

// Sim is a simulated bridge with its pads and console.
type Sim struct {
	out io.Writer
	rig *bridgetesting.Rig

	bridge  *bridge.Bridge
	host    *bridgetesting.Host
	snes    [2]*bridgetesting.SNESPad
	snesRaw [2]snespad.State
	genesis *bridgetesting.GenesisPad
	mdRaw   genesispad.State
}

func New(out io.Writer) *Sim {
	return &Sim{out: out, rig: bridgetesting.NewRig()}
}

// Exec runs one script line.
func (s *Sim) Exec(line string) error {
	words, err := shellquote.Split(line)
	if err != nil {
		return err
	}
	if len(words) == 0 || strings.HasPrefix(words[0], "#") {
		return nil
	}
	cmd, args := words[0], words[1:]

	switch cmd {
	case "plug":
		return s.plug(args)
	case "start":
		if s.bridge != nil {
			return errStarted
		}
		return s.start()
	case "press", "release":
		return s.press(args, cmd == "press")
	case "read":
		n := 1
		if len(args) > 0 {
			if n, err = strconv.Atoi(args[0]); err != nil {
				return err
			}
		}
		if err := s.start(); err != nil {
			return err
		}
		for i := 0; i < n; i++ {
			s.bridge.ReadOnce()
		}
		fmt.Fprintf(s.out, "snapshot: [%v] [%v]\n", s.bridge.Snapshot(0), s.bridge.Snapshot(1))
	case "poll":
		if err := s.start(); err != nil {
			return err
		}
		ports := s.host.Poll()
		fmt.Fprintf(s.out, "port 1: [%v] port 2: [%v]\n", ports[0], ports[1])
	case "idle":
		if len(args) != 1 {
			return fmt.Errorf("%w: idle <duration>", errUsage)
		}
		d, err := time.ParseDuration(args[0])
		if err != nil {
			return err
		}
		s.rig.Clock.Advance(d)
	default:
		return fmt.Errorf("unknown command %q", cmd)
	}
	return nil
}

func (s *Sim) start() error {
	if s.bridge != nil {
		return nil
	}
	b, err := bridge.New(s.rig.Bank, bridge.Config{Pins: s.rig.Pins, Clock: s.rig.Clock})
	if err != nil {
		return err
	}
	s.bridge = b
	s.host = s.rig.Host(b.Bus().Step)
	fmt.Fprintf(s.out, "source: %v\n", b.Source())
	return nil
}

func (s *Sim) plug(args []string) error {
	if s.bridge != nil {
		return errStarted
	}
	if len(args) < 1 || len(args) > 2 {
		return fmt.Errorf("%w: plug snes|nes|genesis3|genesis6 [pad]", errUsage)
	}
	n, err := padNumber(args[1:])
	if err != nil {
		return err
	}
	switch args[0] {
	case "snes", "nes":
		data := s.rig.Pins.NESData
		if n == 1 {
			data = data2
			s.rig.Pins.NESData2 = data2
		}
		s.snes[n] = s.rig.PlugSNES(args[0] == "nes", data)
	case "genesis3", "genesis6":
		if n != 0 {
			return errors.New("Mega Drive pads only plug into pad 1")
		}
		s.genesis = s.rig.PlugGenesis(args[0] == "genesis6")
	default:
		return fmt.Errorf("unknown pad %q", args[0])
	}
	return nil
}

func (s *Sim) press(args []string, down bool) error {
	if len(args) < 2 {
		return fmt.Errorf("%w: press|release <pad> <button>...", errUsage)
	}
	n, err := padNumber(args[:1])
	if err != nil {
		return err
	}
	switch {
	case s.snes[n] != nil:
		for _, name := range args[1:] {
			b, ok := parse[snespad.State](name)
			if !ok {
				return fmt.Errorf("no SNES button %q", name)
			}
			s.snesRaw[n] = set(s.snesRaw[n], b, down)
		}
		s.snes[n].Press(s.snesRaw[n])
	case n == 0 && s.genesis != nil:
		for _, name := range args[1:] {
			b, ok := parse[genesispad.State](name)
			if !ok {
				return fmt.Errorf("no Mega Drive button %q", name)
			}
			s.mdRaw = set(s.mdRaw, b, down)
		}
		s.genesis.Press(s.mdRaw)
	default:
		return fmt.Errorf("no pad %d", n+1)
	}
	return nil
}

// padNumber parses an optional pad number and returns it zero based.
func padNumber(args []string) (int, error) {
	if len(args) == 0 {
		return 0, nil
	}
	n, err := strconv.Atoi(args[0])
	if err != nil || n < 1 || n > 2 {
		return 0, fmt.Errorf("bad pad %q", args[0])
	}
	return n - 1, nil
}

type state interface {
	~uint16
	String() string
}

var directions = map[string]string{"up": "↑", "down": "↓", "left": "←", "right": "→"}

// parse looks up a single button by the name its String method uses.
func parse[S state](name string) (S, bool) {
	if d, ok := directions[strings.ToLower(name)]; ok {
		name = d
	}
	for i := 0; i < 12; i++ {
		if b := S(1) << i; strings.EqualFold(b.String(), name) {
			return b, true
		}
	}
	return 0, false
}

func set[S state](s, b S, down bool) S {
	if down {
		return s | b
	}
	return s &^ b
}

func Main(args []string) {
	flags.Usage = usage
	flags.Parse(args[1:])
	defer glog.Flush()

	var in io.Reader = os.Stdin
	switch flags.NArg() {
	case 0:
	case 1:
		f, err := os.Open(flags.Arg(0))
		if err != nil {
			glog.Fatalln(err)
		}
		defer f.Close()
		in = f
	default:
		flags.Usage()
		os.Exit(1)
	}

	s := New(os.Stdout)
	scanner := bufio.NewScanner(in)
	for n := 1; scanner.Scan(); n++ {
		if err := s.Exec(scanner.Text()); err != nil {
			glog.Errorf("line %d: %v", n, err)
			glog.Flush()
			os.Exit(1)
		}
	}
	if err := scanner.Err(); err != nil {
		glog.Fatalln(err)
	}
}
