package testing

import (
	"sync"
	"time"

	"github.com/clktmr/pcebridge/drivers/genesispad"
	"github.com/clktmr/pcebridge/gpio"
	"github.com/clktmr/pcebridge/gpio/sim"
	"github.com/clktmr/pcebridge/timing"
)

// GenesisTimeout is the time after the last select edge after which a six
// button pad returns to its first state.
const GenesisTimeout = 1500 * time.Microsecond

// GenesisPins are the DB9 lines of a Mega Drive pad.  Lines are in the order
// Up/Z, Down/Y, Left/X, Right/Mode, B/A, C/Start.
type GenesisPins struct {
	Power, Select *sim.Pin
	Lines         [6]*sim.Pin
}

// GenesisPad models a three or six button Mega Drive pad.  A three button
// pad multiplexes its buttons on the select level only.  A six button pad
// counts select edges:
//
//	state 0, 2, 4 (high): Up Down Left Right B C
//	state 1, 3    (low):  Up Down 0 0 A Start
//	state 5       (low):  0 0 0 0 A Start
//	state 6       (high): Z Y X Mode B C
//	state 7       (low):  1 1 1 1 A Start
//
// The counter resets after GenesisTimeout without edges.  The pad only
// drives its lines while powered.
type GenesisPad struct {
	pins  GenesisPins
	six   bool
	clock timing.Clock

	mu       sync.Mutex
	state    genesispad.State
	th       gpio.Level
	counter  uint8
	lastEdge time.Duration
	plugged  bool
}

func NewGenesisPad(six bool, clock timing.Clock, pins GenesisPins) *GenesisPad {
	p := &GenesisPad{pins: pins, six: six, clock: clock, plugged: true}
	pins.Power.Watch(func(gpio.Level) {
		p.mu.Lock()
		defer p.mu.Unlock()
		p.reset()
		p.present()
	})
	pins.Select.Watch(p.onSelect)
	p.mu.Lock()
	p.reset()
	p.present()
	p.mu.Unlock()
	return p
}

// reset returns to state 0, or 1 if select is already low.
func (p *GenesisPad) reset() {
	p.th = p.pins.Select.Level()
	p.counter = 0
	if p.th == gpio.Low {
		p.counter = 1
	}
	p.lastEdge = p.clock.Now()
}

func (p *GenesisPad) onSelect(l gpio.Level) {
	p.mu.Lock()
	defer p.mu.Unlock()
	now := p.clock.Now()
	if now-p.lastEdge >= GenesisTimeout {
		p.th, p.counter = gpio.High, 0
	}
	if l != p.th {
		p.th = l
		p.counter = (p.counter + 1) & 7
		p.lastEdge = now
	}
	p.present()
}

// present drives the lines for the current state.  Callers hold mu.
func (p *GenesisPad) present() {
	if !p.plugged || p.pins.Power.Level() == gpio.Low {
		for _, pin := range p.pins.Lines {
			pin.Release()
		}
		return
	}

	var out [6]bool // pressed
	s := p.state
	low := p.th == gpio.Low
	counter := p.counter
	if !p.six {
		counter = 0
		if low {
			counter = 1
		}
	}
	switch counter {
	case 0, 2, 4:
		out = [6]bool{
			s&genesispad.Up != 0, s&genesispad.Down != 0,
			s&genesispad.Left != 0, s&genesispad.Right != 0,
			s&genesispad.B != 0, s&genesispad.C != 0,
		}
	case 1, 3:
		out = [6]bool{
			s&genesispad.Up != 0, s&genesispad.Down != 0,
			true, true,
			s&genesispad.A != 0, s&genesispad.Start != 0,
		}
	case 5:
		out = [6]bool{
			true, true, true, true,
			s&genesispad.A != 0, s&genesispad.Start != 0,
		}
	case 6:
		out = [6]bool{
			s&genesispad.Z != 0, s&genesispad.Y != 0,
			s&genesispad.X != 0, s&genesispad.Mode != 0,
			s&genesispad.B != 0, s&genesispad.C != 0,
		}
	case 7:
		out = [6]bool{
			false, false, false, false,
			s&genesispad.A != 0, s&genesispad.Start != 0,
		}
	}
	for i, pressed := range out {
		p.pins.Lines[i].Drive(gpio.Level(!pressed))
	}
}

// Press sets the buttons currently held down.
func (p *GenesisPad) Press(s genesispad.State) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.state = s & genesispad.Mask
	p.present()
}

func (p *GenesisPad) Unplug() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.plugged = false
	p.present()
}

// Counter returns the six button state counter.
func (p *GenesisPad) Counter() uint8 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.counter
}
