package testing

import (
	"sync"

	"github.com/clktmr/pcebridge/drivers/snespad"
	"github.com/clktmr/pcebridge/gpio"
	"github.com/clktmr/pcebridge/gpio/sim"
)

// SNESPad models the shift register in a NES or SNES pad.  A high latch
// loads the buttons and presents the first one, every rising clock edge
// presents the next one.  After its buttons a SNES pad shifts out high, a
// NES pad low.
type SNESPad struct {
	data *sim.Pin
	bits int
	tail gpio.Level

	mu      sync.Mutex
	state   snespad.State
	index   int
	latched bool
	plugged bool
}

func NewSNESPad(nes bool, latch, clock, data *sim.Pin) *SNESPad {
	p := &SNESPad{data: data, bits: 12, tail: gpio.High, plugged: true}
	if nes {
		p.bits, p.tail = 8, gpio.Low
	}
	latch.Watch(p.onLatch)
	clock.Watch(p.onClock)
	p.mu.Lock()
	p.present()
	p.mu.Unlock()
	return p
}

func (p *SNESPad) onLatch(l gpio.Level) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.latched = bool(l)
	if p.latched {
		p.index = 0
		p.present()
	}
}

func (p *SNESPad) onClock(l gpio.Level) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if l == gpio.High && !p.latched {
		p.index++
		p.present()
	}
}

// present drives the data line for the current index.  Callers hold mu.
func (p *SNESPad) present() {
	if !p.plugged {
		p.data.Release()
		return
	}
	switch {
	case p.index >= p.bits:
		p.data.Drive(p.tail)
	default:
		p.data.Drive(p.state&(1<<p.index) == 0)
	}
}

// Press sets the buttons currently held down.  For a NES pad, B and Y are
// the pad's A and B buttons.
func (p *SNESPad) Press(s snespad.State) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.state = s & snespad.Mask
	p.present()
}

func (p *SNESPad) Unplug() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.plugged = false
	p.present()
}
