package pio_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/clktmr/pcebridge/gpio"
	"github.com/clktmr/pcebridge/gpio/sim"
	"github.com/clktmr/pcebridge/pio"
	"github.com/clktmr/pcebridge/timing"
)

// strobe pulses pin 0 once per pass and samples one input per body phase.
var strobe = pio.Program{
	Name: "strobe",
	Prologue: []pio.Phase{
		{Drive: []pio.Drive{{Pin: 0, Level: gpio.High}}, Delay: 3},
		{Drive: []pio.Drive{{Pin: 0, Level: gpio.Low}}, Delay: 1},
	},
	Body: []pio.Phase{
		{Sample: 1, Delay: 2},
	},
	Repeat: 8,
}

type event struct {
	at    time.Duration
	level gpio.Level
}

func setup(t *testing.T, prog *pio.Program, threshold int) (*pio.StateMachine, *sim.Bank, *timing.Virtual) {
	t.Helper()
	bank := sim.NewBank(2)
	clk := &timing.Virtual{}
	sm, err := pio.NewBlock(1).Claim()
	if err != nil {
		t.Fatal(err)
	}
	in := bank.Pin(1)
	in.Configure(gpio.Config{Mode: gpio.Input, Pull: gpio.PullUp})
	err = sm.Init(prog, pio.Config{
		Outputs:       []gpio.Line{bank.Pin(0)},
		In:            []gpio.Line{in},
		Period:        time.Microsecond,
		Clock:         clk,
		PushThreshold: threshold,
	})
	if err != nil {
		t.Fatal(err)
	}
	return sm, bank, clk
}

func TestPassTiming(t *testing.T) {
	sm, bank, clk := setup(t, &strobe, 8)

	var events []event
	bank.Pin(0).Watch(func(l gpio.Level) {
		events = append(events, event{clk.Now(), l})
	})

	if sm.Exec() {
		t.Fatal("pass without pending TX word")
	}
	if !sm.Put(0) {
		t.Fatal("TX FIFO full")
	}
	if !sm.Exec() {
		t.Fatal("no pass with pending TX word")
	}

	want := []event{{0, gpio.High}, {3 * time.Microsecond, gpio.Low}}
	if len(events) != len(want) {
		t.Fatalf("got events %v, want %v", events, want)
	}
	for i := range want {
		if events[i] != want[i] {
			t.Errorf("event %d: got %v, want %v", i, events[i], want[i])
		}
	}
	if got := clk.Now(); got != time.Duration(strobe.Cycles())*time.Microsecond {
		t.Errorf("pass took %v, want %d cycles", got, strobe.Cycles())
	}
	if sm.Passes() != 1 {
		t.Errorf("got %d passes, want 1", sm.Passes())
	}
}

func TestShiftIn(t *testing.T) {
	sm, bank, _ := setup(t, &strobe, 8)

	for _, tc := range []struct {
		level gpio.Level
		want  uint32
	}{
		{gpio.High, 0xff},
		{gpio.Low, 0x00},
	} {
		bank.Pin(1).Drive(tc.level)
		sm.Put(0)
		sm.Exec()
		w, ok := sm.Get()
		if !ok {
			t.Fatal("no word pushed")
		}
		if w != tc.want {
			t.Errorf("input %v: got %#x, want %#x", tc.level, w, tc.want)
		}
	}
	if _, ok := sm.Get(); ok {
		t.Error("RX FIFO should be empty")
	}
}

func TestShiftOrder(t *testing.T) {
	// Every body phase drives pin 0 to the next bit of a pattern that the
	// input follows, so the first sample must end up in bit 0.
	pattern := []gpio.Level{gpio.High, gpio.Low, gpio.Low, gpio.High, gpio.High, gpio.Low, gpio.Low, gpio.Low}
	var body []pio.Phase
	for _, l := range pattern {
		body = append(body, pio.Phase{Drive: []pio.Drive{{Pin: 0, Level: l}}, Sample: 1, Delay: 1})
	}
	prog := pio.Program{Name: "pattern", Body: body, Repeat: 1}

	sm, bank, _ := setup(t, &prog, 8)
	bank.Pin(0).Watch(func(l gpio.Level) { bank.Pin(1).Drive(l) })
	bank.Pin(1).Drive(gpio.Low)

	sm.Put(0)
	sm.Exec()
	w, _ := sm.Get()
	if w != 0b00011001 {
		t.Fatalf("got %#08b, want 0b00011001", w)
	}
}

func TestFIFOs(t *testing.T) {
	sm, _, _ := setup(t, &strobe, 8)

	for i := 0; i < pio.FIFODepth; i++ {
		if !sm.Put(uint32(i)) {
			t.Fatalf("put %d failed", i)
		}
	}
	if sm.Put(0) {
		t.Fatal("put into full TX FIFO")
	}

	for i := 0; i < pio.FIFODepth; i++ {
		sm.Exec()
	}
	if sm.RxEmpty() {
		t.Fatal("RX FIFO empty after passes")
	}
	sm.Put(0)
	sm.Exec()
	if sm.Drops() != 1 {
		t.Errorf("got %d drops, want 1", sm.Drops())
	}
}

func TestClaim(t *testing.T) {
	block := pio.NewBlock(2)
	a, err := block.Claim()
	if err != nil {
		t.Fatal(err)
	}
	if _, err := block.Claim(); err != nil {
		t.Fatal(err)
	}
	if _, err := block.Claim(); !errors.Is(err, pio.ErrNoStateMachine) {
		t.Fatalf("got %v, want ErrNoStateMachine", err)
	}
	block.Unclaim(a)
	if b, err := block.Claim(); err != nil || b.Index() != a.Index() {
		t.Fatalf("expected to reclaim state machine %d", a.Index())
	}

	var none *pio.Block
	if _, err := none.Claim(); !errors.Is(err, pio.ErrNoStateMachine) {
		t.Fatal("nil block must not have state machines")
	}
}

func TestInvalidProgram(t *testing.T) {
	bank := sim.NewBank(1)
	cfg := pio.Config{
		Outputs: []gpio.Line{bank.Pin(0)},
		Period:  time.Microsecond,
		Clock:   &timing.Virtual{},
	}
	progs := []pio.Program{
		{Name: "nodelay", Body: []pio.Phase{{}}, Repeat: 1},
		{Name: "samples", Body: []pio.Phase{{Sample: 1, Delay: 1}}, Repeat: 1},
		{Name: "drives", Body: []pio.Phase{{Drive: []pio.Drive{{Pin: 1, Level: gpio.High}}, Delay: 1}}, Repeat: 1},
		{Name: "repeat", Repeat: -1},
	}
	for _, prog := range progs {
		sm, _ := pio.NewBlock(1).Claim()
		if err := sm.Init(&prog, cfg); !errors.Is(err, pio.ErrProgram) {
			t.Errorf("%s: got %v, want ErrProgram", prog.Name, err)
		}
	}

	sm, _ := pio.NewBlock(1).Claim()
	if err := sm.Init(&strobe, pio.Config{}); !errors.Is(err, pio.ErrConfig) {
		t.Errorf("got %v, want ErrConfig", err)
	}
}

func TestRun(t *testing.T) {
	sm, _, _ := setup(t, &strobe, 8)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error)
	go func() { done <- sm.Run(ctx) }()

	sm.Put(0)
	deadline := time.After(5 * time.Second)
	for sm.RxEmpty() {
		select {
		case <-deadline:
			t.Fatal("no word pushed")
		default:
		}
	}
	cancel()
	if err := <-done; !errors.Is(err, context.Canceled) {
		t.Fatalf("got %v, want context.Canceled", err)
	}
}
