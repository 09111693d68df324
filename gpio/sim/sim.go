// Package sim provides simulated GPIO lines.
//
// A Pin has two sides.  The device side is the gpio.Line interface used by
// the code under test.  The peripheral side (Drive, Release, Level, Watch)
// is used by models of the attached hardware: a pad driving its data lines,
// or a console host driving the bus control lines.
//
// Levels are kept in atomics so the two sides may live in different
// goroutines, e.g. a host model and the bus emulator loop.
package sim

import (
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/clktmr/pcebridge/gpio"
)

const (
	undriven int32 = iota
	drivenLow
	drivenHigh
)

type Pin struct {
	offset int

	mode atomic.Uint32 // gpio.Mode
	pull atomic.Uint32 // gpio.Pull
	out  atomic.Bool   // level set by the device side
	ext  atomic.Int32  // level driven by a peripheral

	mu       sync.Mutex
	watchers []func(gpio.Level)
	writes   atomic.Uint64
}

func (p *Pin) Offset() int { return p.offset }

// Configure implements gpio.Line.  Reconfiguring an output to the level it
// already has doesn't notify watchers.
func (p *Pin) Configure(cfg gpio.Config) error {
	p.pull.Store(uint32(cfg.Pull))
	p.mode.Store(uint32(cfg.Mode))
	if cfg.Mode == gpio.Output {
		p.Set(cfg.Initial)
	}
	return nil
}

// Get implements gpio.Line.  An output reads back its own level.  An input
// reads the peripheral's level, or its pull if nothing drives it.  A
// floating input reads low.
func (p *Pin) Get() gpio.Level {
	if gpio.Mode(p.mode.Load()) == gpio.Output {
		return gpio.Level(p.out.Load())
	}
	switch p.ext.Load() {
	case drivenHigh:
		return gpio.High
	case drivenLow:
		return gpio.Low
	}
	return gpio.Pull(p.pull.Load()) == gpio.PullUp
}

// Set implements gpio.Line.  Watchers are called synchronously if the level
// changed.
func (p *Pin) Set(l gpio.Level) {
	p.writes.Add(1)
	if p.out.Swap(bool(l)) == bool(l) {
		return
	}
	p.mu.Lock()
	watchers := p.watchers
	p.mu.Unlock()
	for _, fn := range watchers {
		fn(l)
	}
}

// Writes returns the number of Set calls on the device side.
func (p *Pin) Writes() uint64 { return p.writes.Load() }

// Mode returns the direction the device configured.
func (p *Pin) Mode() gpio.Mode { return gpio.Mode(p.mode.Load()) }

// Pull returns the pull the device configured.
func (p *Pin) Pull() gpio.Pull { return gpio.Pull(p.pull.Load()) }

// Drive makes a peripheral drive the line.
func (p *Pin) Drive(l gpio.Level) {
	if l {
		p.ext.Store(drivenHigh)
	} else {
		p.ext.Store(drivenLow)
	}
}

// Release stops the peripheral from driving the line.
func (p *Pin) Release() { p.ext.Store(undriven) }

// Level returns what a peripheral observes on the line, i.e. the device's
// output level.
func (p *Pin) Level() gpio.Level { return gpio.Level(p.out.Load()) }

// Watch registers fn to be called whenever the device side changes the
// line's level.
func (p *Pin) Watch(fn func(gpio.Level)) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.watchers = append(p.watchers[:len(p.watchers):len(p.watchers)], fn)
}

// Bank is a simulated gpiochip with a fixed number of pins.
type Bank struct {
	pins []*Pin
}

func NewBank(n int) *Bank {
	b := &Bank{pins: make([]*Pin, n)}
	for i := range b.pins {
		b.pins[i] = &Pin{offset: i}
	}
	return b
}

// Line implements gpio.Chip.
func (b *Bank) Line(offset int) (gpio.Line, error) {
	if offset < 0 || offset >= len(b.pins) {
		return nil, fmt.Errorf("sim: no line %d", offset)
	}
	return b.pins[offset], nil
}

// Pin returns the pin at offset for use by peripheral models.  It panics on
// out of range offsets.
func (b *Bank) Pin(offset int) *Pin {
	return b.pins[offset]
}

func (b *Bank) Len() int { return len(b.pins) }
