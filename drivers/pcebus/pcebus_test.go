package pcebus_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/clktmr/pcebridge/drivers/pcebus"
	"github.com/clktmr/pcebridge/gpio"
	"github.com/clktmr/pcebridge/gpio/sim"
	"github.com/clktmr/pcebridge/pad"
	bridgetesting "github.com/clktmr/pcebridge/testing"
)

var (
	snap0 = pad.Up | pad.I | pad.Run
	snap1 = pad.Down | pad.Left | pad.II | pad.Select
)

type fixture struct {
	rig    *bridgetesting.Rig
	emu    *pcebus.Emulator
	host   *bridgetesting.Host
	p0, p1 pad.Cell
}

func setup(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{rig: bridgetesting.NewRig()}
	p := f.rig.Pins
	lines, err := gpio.Lines(f.rig.Bank, p.PCEEnable, p.PCESelect,
		p.PCEData[0], p.PCEData[1], p.PCEData[2], p.PCEData[3])
	if err != nil {
		t.Fatal(err)
	}
	f.host = f.rig.Host(nil)
	f.emu = pcebus.New(pcebus.Lines{
		Enable: lines[0],
		Select: lines[1],
		Data:   [4]gpio.Line{lines[2], lines[3], lines[4], lines[5]},
	}, &f.p0, &f.p1)
	if err := f.emu.Init(); err != nil {
		t.Fatal(err)
	}
	f.host.Settle = f.emu.Step
	f.p0.Store(snap0)
	f.p1.Store(snap1)
	return f
}

// expected decodes a sequence of (enable, select) states without looking
// at the emulator: count SEL changes since CLR went low, two per port.
func expected(seq [][2]gpio.Level, lastSel gpio.Level) uint8 {
	toggles := 0
	for _, s := range seq {
		enable, sel := s[0], s[1]
		if enable == gpio.High {
			toggles = 0
		} else if sel != lastSel {
			toggles++
		}
		lastSel = sel
	}
	last := seq[len(seq)-1]
	if last[0] == gpio.High {
		return 0xf
	}
	table := map[int]map[gpio.Level]uint8{
		// D0..D3 = Up, Right, Down, Left / I, II, Select, Run, low if
		// pressed.
		0: {gpio.High: 0b1110, gpio.Low: 0b0110},
		1: {gpio.High: 0b0011, gpio.Low: 0b1001},
	}
	if port := toggles / 2; port < 2 {
		return table[port][last[1]]
	}
	return 0xf
}

func TestSequences(t *testing.T) {
	states := [][2]gpio.Level{
		{gpio.High, gpio.High},
		{gpio.High, gpio.Low},
		{gpio.Low, gpio.High},
		{gpio.Low, gpio.Low},
	}

	var walk func(seq [][2]gpio.Level, depth int)
	walk = func(seq [][2]gpio.Level, depth int) {
		if len(seq) > 0 {
			f := setup(t)
			for i, s := range seq {
				f.host.Enable(s[0])
				f.host.Select(s[1])
				want := expected(seq[:i+1], gpio.High)
				if got := f.host.Nibble(); got != want {
					t.Fatalf("sequence %v, step %d: got %04b, want %04b", seq, i, got, want)
				}
			}
		}
		if depth == 0 {
			return
		}
		for _, s := range states {
			walk(append(seq[:len(seq):len(seq)], s), depth-1)
		}
	}
	walk(nil, 5)
}

func TestReset(t *testing.T) {
	f := setup(t)
	f.host.Enable(gpio.Low)
	for i := 0; i < 7; i++ {
		f.host.Select(gpio.Level(i%2 == 1))
	}
	if f.emu.Counter() != 7 {
		t.Fatalf("counter %d, want 7", f.emu.Counter())
	}

	f.host.Enable(gpio.High)
	if f.emu.Counter() != 0 || f.emu.Port() != 0 {
		t.Fatalf("counter %d port %d after idle, want 0 0", f.emu.Counter(), f.emu.Port())
	}
	if got := f.host.Nibble(); got != 0xf {
		t.Fatalf("idle data %04b, want 1111", got)
	}

	// Toggling SEL while idle doesn't count.
	f.host.Select(gpio.High)
	f.host.Select(gpio.Low)
	f.host.Enable(gpio.Low)
	if f.emu.Counter() != 0 {
		t.Fatalf("counter %d, want 0", f.emu.Counter())
	}
}

func TestPortSwitch(t *testing.T) {
	f := setup(t)
	f.host.Select(gpio.High)
	f.host.Enable(gpio.Low)
	if got := bridgetesting.Directions(f.host.Nibble()); got != snap0&(pad.Up|pad.Down|pad.Left|pad.Right) {
		t.Fatalf("port 0 directions: got %v", got)
	}

	f.host.Select(gpio.Low)
	f.host.Select(gpio.High)
	if f.emu.Port() != 1 {
		t.Fatalf("port %d, want 1", f.emu.Port())
	}
	if got := bridgetesting.Directions(f.host.Nibble()); got != pad.Down|pad.Left {
		t.Fatalf("port 1 directions: got %v", got)
	}
	f.host.Select(gpio.Low)
	if got := bridgetesting.Actions(f.host.Nibble()); got != pad.II|pad.Select {
		t.Fatalf("port 1 actions: got %v", got)
	}
}

func TestPoll(t *testing.T) {
	f := setup(t)
	ports := f.host.Poll()
	if ports[0] != snap0 || ports[1] != snap1 {
		t.Fatalf("got %v / %v, want %v / %v", ports[0], ports[1], snap0, snap1)
	}

	// Buttons beyond the two button pad aren't presented.
	f.p0.Store(pad.III | pad.IV | pad.V | pad.VI)
	if ports := f.host.Poll(); ports[0] != pad.Released {
		t.Fatalf("got %v, want released", ports[0])
	}
}

func TestSaturation(t *testing.T) {
	f := setup(t)
	f.host.Enable(gpio.Low)
	sel := gpio.High
	for i := 0; i < 600; i++ {
		sel = !sel
		f.host.Select(sel)
		if i >= 3 {
			if got := f.host.Nibble(); got != 0xf {
				t.Fatalf("edge %d: got %04b, want 1111", i+1, got)
			}
		}
	}
	if f.emu.Counter() != 255 {
		t.Fatalf("counter %d, want 255", f.emu.Counter())
	}
}

func TestIdempotence(t *testing.T) {
	f := setup(t)
	f.host.Enable(gpio.Low)
	f.host.Select(gpio.Low)
	want := f.host.Nibble()

	data := f.rig.Pin(f.rig.Pins.PCEData[0])
	writes := data.Writes()
	for i := 0; i < 100; i++ {
		f.emu.Step()
		if got := f.host.Nibble(); got != want {
			t.Fatalf("step %d: got %04b, want %04b", i, got, want)
		}
	}
	if data.Writes() != writes {
		t.Errorf("%d redundant writes", data.Writes()-writes)
	}
}

func TestNibble(t *testing.T) {
	for i := 0; i < 1<<12; i++ {
		b := pad.Buttons(i)
		if got := bridgetesting.Directions(pcebus.Nibble(b, gpio.High)); got != b&(pad.Up|pad.Down|pad.Left|pad.Right) {
			t.Fatalf("%v: directions %v", b, got)
		}
		if got := bridgetesting.Actions(pcebus.Nibble(b, gpio.Low)); got != b&(pad.I|pad.II|pad.Select|pad.Run) {
			t.Fatalf("%v: actions %v", b, got)
		}
	}
}

func TestRun(t *testing.T) {
	f := setup(t)
	var pins []*sim.Pin
	for _, off := range f.rig.Pins.PCEData {
		pins = append(pins, f.rig.Pin(off))
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error)
	go func() { done <- f.emu.Run(ctx) }()

	// The emulator runs on its own, give it time to follow each change.
	f.host.Settle = func() { time.Sleep(time.Millisecond) }
	ports := f.host.Poll()
	if ports[0] != snap0 || ports[1] != snap1 {
		t.Errorf("got %v / %v, want %v / %v", ports[0], ports[1], snap0, snap1)
	}
	cancel()
	if err := <-done; !errors.Is(err, context.Canceled) {
		t.Fatalf("got %v, want context.Canceled", err)
	}
	for i, p := range pins {
		if p.Level() != gpio.High {
			t.Errorf("D%d low after idle", i)
		}
	}
}
