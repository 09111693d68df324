// Package genesispad reads Mega Drive/Genesis pads.
//
// The pad multiplexes its buttons onto six lines depending on the level of
// the select line.  Six button pads count select edges and present their
// extra buttons after the third low pulse, returning to the first state
// after about 1.5 ms without edges.  Every read clocks out the same eight
// phases whether or not the pad has extra buttons, a three button pad simply
// follows the select level.
package genesispad

import (
	"strings"
	"time"

	"github.com/clktmr/pcebridge/gpio"
	"github.com/clktmr/pcebridge/pad"
	"github.com/clktmr/pcebridge/timing"
)

// State has one bit per button, set if pressed.
type State uint16

const (
	Up State = 1 << iota
	Down
	Left
	Right
	A
	B
	C
	X
	Y
	Z
	Start
	Mode

	Mask State = 1<<12 - 1
)

var buttonNames = [...]string{
	"↑", "↓", "←", "→", "A", "B", "C", "X", "Y", "Z", "Start", "Mode",
}

func (s State) String() string {
	var sb strings.Builder
	for i, v := range buttonNames {
		if s&(1<<i) != 0 {
			if sb.Len() != 0 {
				sb.WriteString(" + ")
			}
			sb.WriteString(v)
		}
	}
	return sb.String()
}

// Buttons maps the pad to a PC Engine pad.  Mode and C both act as Select.
func (s State) Buttons() pad.Buttons {
	b := pad.Buttons(s & (Up | Down | Left | Right))
	b = b.Set(pad.I, s&B != 0)
	b = b.Set(pad.II, s&A != 0)
	b = b.Set(pad.III, s&X != 0)
	b = b.Set(pad.IV, s&Y != 0)
	b = b.Set(pad.V, s&Z != 0)
	b = b.Set(pad.VI, s&C != 0)
	b = b.Set(pad.Run, s&Start != 0)
	b = b.Set(pad.Select, s&(Mode|C) != 0)
	return b
}

// Pins are the DB9 lines, named after the buttons they carry with select
// high and low.
type Pins struct {
	Power, Select gpio.Line

	UpZ, DownY, LeftX, RightMode gpio.Line
	BA, CStart                   gpio.Line
}

const (
	// Settle is the time the pad needs to follow a select edge.
	Settle = 20 * time.Microsecond

	// PowerUp is the time between powering the pad and the presence
	// probe.
	PowerUp = time.Millisecond

	// Recover is the minimum time between two pulse trains, after which a
	// six button pad is back in its first state.
	Recover = 2 * time.Millisecond
)

// Input line indices.
const (
	inUpZ = iota
	inDownY
	inLeftX
	inRightMode
	inBA
	inCStart
)

type sample uint8

const (
	sampleNone sample = iota
	sampleHigh        // Up, Down, Left, Right, B, C
	sampleLow         // A, Start
	sampleDetect      // all directions low on six button pads
	sampleExtra       // Z, Y, X, Mode
)

// sequence is the pulse train of a read.  The phase count and settle time
// must not change, real pads depend on them.
var sequence = [8]struct {
	sel    gpio.Level
	sample sample
}{
	{gpio.High, sampleHigh},
	{gpio.Low, sampleLow},
	{gpio.High, sampleNone},
	{gpio.Low, sampleNone},
	{gpio.High, sampleNone},
	{gpio.Low, sampleDetect},
	{gpio.High, sampleExtra},
	{gpio.Low, sampleNone},
}

type Reader struct {
	pins  Pins
	in    [6]gpio.Line
	clock timing.Clock

	six  bool
	last time.Duration // end of the last pulse train
}

// Init powers the pad, drives select high and waits PowerUp.  The data lines
// are pulled down until Detect, so Present can tell an empty port from a
// pad.
func Init(pins Pins, clock timing.Clock) (*Reader, error) {
	r := &Reader{
		pins:  pins,
		in:    [6]gpio.Line{pins.UpZ, pins.DownY, pins.LeftX, pins.RightMode, pins.BA, pins.CStart},
		clock: clock,
	}
	err := gpio.ConfigureAll(gpio.Config{Mode: gpio.Output, Initial: gpio.High}, pins.Power, pins.Select)
	if err != nil {
		return nil, err
	}
	r.last = clock.Now()

	clock.Delay(PowerUp)

	err = gpio.ConfigureAll(gpio.Config{Mode: gpio.Input, Pull: gpio.PullDown}, r.in[:]...)
	if err != nil {
		return nil, err
	}
	return r, nil
}

// Present reports whether a pad is plugged in.  With select high a pad
// drives its released lines high, an empty port reads low on all lines.  Up
// and Down can't be held together, so a pad always has a line high no matter
// which buttons are held.  Call it after Init and before Detect.
func (r *Reader) Present() bool {
	for _, l := range r.in {
		if l.Get() == gpio.High {
			return true
		}
	}
	return false
}

// Detect runs one pulse train to find out whether the pad has six buttons,
// then pulls the data lines up so that a removed pad reads as released.
func (r *Reader) Detect() (sixButton bool, err error) {
	_, r.six = r.train()
	err = gpio.ConfigureAll(gpio.Config{Mode: gpio.Input, Pull: gpio.PullUp}, r.in[:]...)
	return r.six, err
}

// SixButton returns the result of the last Detect.
func (r *Reader) SixButton() bool {
	return r.six
}

// Read clocks out one pulse train and returns the pad's state.  X, Y, Z and
// Mode are only read from six button pads.  Read takes 160 µs, but waits
// for Recover first if the previous train ended less than Recover ago.
func (r *Reader) Read() State {
	s, _ := r.train()
	return s
}

func (r *Reader) train() (s State, detected bool) {
	if wait := Recover - (r.clock.Now() - r.last); wait > 0 {
		r.clock.Sleep(wait)
	}
	for _, ph := range sequence {
		r.pins.Select.Set(ph.sel)
		r.clock.Delay(Settle)

		switch ph.sample {
		case sampleHigh:
			s |= r.pressed(inUpZ, Up) | r.pressed(inDownY, Down) |
				r.pressed(inLeftX, Left) | r.pressed(inRightMode, Right) |
				r.pressed(inBA, B) | r.pressed(inCStart, C)
		case sampleLow:
			s |= r.pressed(inBA, A) | r.pressed(inCStart, Start)
		case sampleDetect:
			detected = r.low(inUpZ) && r.low(inDownY) && r.low(inLeftX) && r.low(inRightMode)
		case sampleExtra:
			if r.six {
				s |= r.pressed(inUpZ, Z) | r.pressed(inDownY, Y) |
					r.pressed(inLeftX, X) | r.pressed(inRightMode, Mode)
			}
		}
	}
	r.last = r.clock.Now()
	return s, detected
}

func (r *Reader) low(i int) bool {
	return r.in[i].Get() == gpio.Low
}

// pressed returns b if input i is low.
func (r *Reader) pressed(i int, b State) State {
	if r.low(i) {
		return b
	}
	return 0
}
