// Package pcebus emulates the pad side of the PC Engine pad port.
//
// The console drives two lines: CLR (enable, active low) and SEL.  While CLR
// is high the device is idle and all data lines read high.  While CLR is low
// the console is addressing pads: every SEL edge advances a counter, every
// two edges move on to the next port.  SEL high presents the directions, SEL
// low the buttons, a pressed button pulls its data line low.
//
//	       D0  D1     D2      D3
//	SEL=1  Up  Right  Down    Left
//	SEL=0  I   II     Select  Run
//
// The console polls at its own pace and never retries, so the emulator
// must answer within microseconds of any edge.  Step never blocks or
// allocates.
package pcebus

import (
	"context"
	"math"
	"runtime"
	"sync/atomic"

	"github.com/clktmr/pcebridge/debug"
	"github.com/clktmr/pcebridge/gpio"
	"github.com/clktmr/pcebridge/pad"
)

// Ports is the number of pads presented.  Addressing a port beyond reads as
// nothing pressed.
const Ports = 2

const released = 0xf

// Lines are the port's signal lines.  Data holds D0..D3.
type Lines struct {
	Enable, Select gpio.Line
	Data           [4]gpio.Line
}

var halves = [2][4]pad.Buttons{
	{pad.I, pad.II, pad.Select, pad.Run},
	{pad.Up, pad.Right, pad.Down, pad.Left},
}

// Nibble returns the data line levels for b, D0 in bit 0.  sel is the level
// of SEL.
func Nibble(b pad.Buttons, sel gpio.Level) uint8 {
	h := &halves[0]
	if sel == gpio.High {
		h = &halves[1]
	}
	n := uint8(released)
	for i, m := range h {
		if b&m != 0 {
			n &^= 1 << i
		}
	}
	return n
}

type Emulator struct {
	lines Lines
	ports [Ports]*pad.Cell

	counter    uint8
	port       uint8
	lastSelect gpio.Level
	out        uint8

	stop atomic.Bool
}

// New returns an emulator presenting the snapshots in port0 and port1.
func New(lines Lines, port0, port1 *pad.Cell) *Emulator {
	debug.Assert(port0 != nil && port1 != nil, "missing snapshot cell")
	return &Emulator{
		lines: lines,
		ports: [Ports]*pad.Cell{port0, port1},
		out:   released,
	}
}

// Init configures the control lines as inputs and drives all data lines
// high.
func (e *Emulator) Init() error {
	err := gpio.ConfigureAll(gpio.Config{Mode: gpio.Input, Pull: gpio.PullUp}, e.lines.Enable)
	if err != nil {
		return err
	}
	err = gpio.ConfigureAll(gpio.Config{Mode: gpio.Input}, e.lines.Select)
	if err != nil {
		return err
	}
	err = gpio.ConfigureAll(gpio.Config{Mode: gpio.Output, Initial: gpio.High}, e.lines.Data[:]...)
	if err != nil {
		return err
	}
	e.counter, e.port, e.out = 0, 0, released
	e.lastSelect = e.lines.Select.Get()
	return nil
}

// Step samples CLR and SEL once and updates the data lines.
func (e *Emulator) Step() {
	sel := e.lines.Select.Get()
	if e.lines.Enable.Get() == gpio.High {
		e.counter, e.port = 0, 0
		e.lastSelect = sel
		e.drive(released)
		return
	}

	if sel != e.lastSelect {
		e.lastSelect = sel
		if e.counter != math.MaxUint8 {
			e.counter++
		}
		e.port = e.counter / 2
	}
	if e.port >= Ports {
		e.drive(released)
		return
	}
	e.drive(Nibble(e.ports[e.port].Load(), sel))
}

func (e *Emulator) drive(n uint8) {
	if n == e.out {
		return
	}
	for i, d := range e.lines.Data {
		d.Set(gpio.Level(n&(1<<i) != 0))
	}
	e.out = n
}

// Run calls Step until ctx is done.  It keeps its goroutine locked to the
// OS thread and checks for cancellation through a flag, the loop never
// blocks.
func (e *Emulator) Run(ctx context.Context) error {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	e.stop.Store(false)
	cancel := context.AfterFunc(ctx, func() { e.stop.Store(true) })
	defer cancel()

	for !e.stop.Load() {
		e.Step()
	}
	return ctx.Err()
}

// Port returns the addressed port.  Values of Ports and above mean the
// console addressed more pads than presented.  Not safe while Run is active.
func (e *Emulator) Port() int { return int(e.port) }

// Counter returns the number of SEL edges since CLR went low, saturating at
// 255.  Not safe while Run is active.
func (e *Emulator) Counter() int { return int(e.counter) }
