// Package snespad reads NES and SNES pads.
//
// Both pads are shift registers: a pulse on the latch line loads the button
// states, every rising edge on the clock line shifts out the next one on the
// data line, active low.  A SNES pad shifts out 12 buttons followed by 4 id
// bits, a NES pad only the first 8 buttons.  Two pads share clock and latch,
// each with its own data line.
//
// The frame is clocked by a pio state machine at 1 MHz so reading never
// stalls the caller.  The state machine samples both data lines on every
// clock and delivers one interleaved 32 bit word per frame.
package snespad

import (
	"context"
	"strings"
	"time"

	"github.com/clktmr/pcebridge/gpio"
	"github.com/clktmr/pcebridge/pad"
	"github.com/clktmr/pcebridge/pio"
	"github.com/clktmr/pcebridge/timing"
)

// State has one bit per button in shift order, set if pressed.
type State uint16

const (
	B State = 1 << iota // A on NES
	Y                   // B on NES
	Select
	Start
	Up
	Down
	Left
	Right
	A
	X
	L
	R

	Mask State = 1<<12 - 1
)

var buttonNames = [...]string{
	"B", "Y", "Select", "Start", "↑", "↓", "←", "→", "A", "X", "L", "R",
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

// Buttons maps the pad to a PC Engine pad.  The SNES-only buttons A, X, L
// and R have no counterpart, a NES pad reports them as pressed.
func (s State) Buttons() pad.Buttons {
	b := pad.Released
	b = b.Set(pad.Up, s&Up != 0)
	b = b.Set(pad.Down, s&Down != 0)
	b = b.Set(pad.Left, s&Left != 0)
	b = b.Set(pad.Right, s&Right != 0)
	b = b.Set(pad.I, s&B != 0)
	b = b.Set(pad.II, s&Y != 0)
	b = b.Set(pad.Select, s&Select != 0)
	b = b.Set(pad.Run, s&Start != 0)
	return b
}

// Pins are the lines a reader needs.  Data2 may be nil if there is no second
// pad.
type Pins struct {
	Clock, Latch, Data, Data2 gpio.Line
	Power                     gpio.Line
}

// State machine output indices.
const (
	outLatch = iota
	outClock
)

// Frame is the program clocked out for each read, one cycle per µs.  The
// latch is held for 12 cycles, then each of the 16 bits is sampled 1 cycle
// after the falling clock edge and shifted 5 cycles later.
var Frame = pio.Program{
	Name: "snespad",
	Prologue: []pio.Phase{
		{Drive: []pio.Drive{{Pin: outLatch, Level: gpio.High}, {Pin: outClock, Level: gpio.Low}}, Delay: 12},
		{Drive: []pio.Drive{{Pin: outLatch, Level: gpio.Low}}, Delay: 1},
	},
	Body: []pio.Phase{
		{Sample: 2, Delay: 5},
		{Drive: []pio.Drive{{Pin: outClock, Level: gpio.High}}, Delay: 6},
		{Drive: []pio.Drive{{Pin: outClock, Level: gpio.Low}}, Delay: 1},
	},
	Repeat: 16,
}

// Period is the sequencer's cycle time.
const Period = time.Microsecond

type Reader struct {
	block  *pio.Block
	sm     *pio.StateMachine
	states [2]State
}

// Init claims a state machine from block, powers the pads and triggers the
// first frame.  It fails with pio.ErrNoStateMachine if the block has no
// unused state machine.
func Init(block *pio.Block, pins Pins, clock timing.Clock) (*Reader, error) {
	sm, err := block.Claim()
	if err != nil {
		return nil, err
	}

	err = gpio.ConfigureAll(gpio.Config{Mode: gpio.Output, Initial: gpio.High}, pins.Power)
	if err != nil {
		block.Unclaim(sm)
		return nil, err
	}

	// Pull data high, reads as released if unplugged.
	data2 := pins.Data2
	if data2 == nil {
		data2 = gpio.Const(gpio.High)
	}
	err = gpio.ConfigureAll(gpio.Config{Mode: gpio.Input, Pull: gpio.PullUp}, pins.Data, data2)
	if err != nil {
		block.Unclaim(sm)
		return nil, err
	}

	err = sm.Init(&Frame, pio.Config{
		Outputs: []gpio.Line{pins.Latch, pins.Clock},
		In:      []gpio.Line{pins.Data, data2},
		Period:  Period,
		Clock:   clock,
	})
	if err != nil {
		block.Unclaim(sm)
		return nil, err
	}

	sm.Put(0)
	return &Reader{block: block, sm: sm}, nil
}

// Poll returns the states of both pads.  If no new frame has arrived since
// the last call, the previous states are returned and ok is false.  Poll
// never blocks.
func (r *Reader) Poll() (p1, p2 State, ok bool) {
	w, ok := r.sm.Get()
	if !ok {
		return r.states[0], r.states[1], false
	}

	// Trigger next read
	r.sm.Put(0)

	raw := ^w // active low
	r.states[0] = deinterleave(raw)
	r.states[1] = deinterleave(raw >> 1)
	return r.states[0], r.states[1], true
}

// deinterleave picks the even bits of raw.
func deinterleave(raw uint32) (s State) {
	for i := 0; i < 12; i++ {
		if raw&(1<<(2*i)) != 0 {
			s |= 1 << i
		}
	}
	return
}

// Exec clocks out a pending frame on the calling goroutine.  Use either Exec
// or Run, not both.
func (r *Reader) Exec() bool {
	return r.sm.Exec()
}

// Run clocks out frames as they are triggered until ctx is done.
func (r *Reader) Run(ctx context.Context) error {
	return r.sm.Run(ctx)
}

// Close returns the state machine to its block.  The reader must not be
// running.
func (r *Reader) Close() {
	r.block.Unclaim(r.sm)
}
