package pio

import (
	"fmt"

	"github.com/clktmr/pcebridge/gpio"
)

// Drive sets output Pin, an index into Config.Outputs, to Level.
type Drive struct {
	Pin   int
	Level gpio.Level
}

// Phase is one row of a program's phase table.  Outputs are driven first,
// then Sample input pins are shifted into the input shift register, then
// the state machine stalls for Delay cycles.
type Phase struct {
	Drive  []Drive
	Sample int
	Delay  uint8
}

// Program is an enumerated phase table.  Each pass pulls one word from the
// TX FIFO, runs the Prologue once and the Body Repeat times.
type Program struct {
	Name     string
	Prologue []Phase
	Body     []Phase
	Repeat   int
}

// Cycles returns the number of cycles of one pass, not counting the wait
// for the TX FIFO.
func (p *Program) Cycles() int {
	n := 0
	for _, ph := range p.Prologue {
		n += int(ph.Delay)
	}
	body := 0
	for _, ph := range p.Body {
		body += int(ph.Delay)
	}
	return n + body*p.Repeat
}

// SampledBits returns the number of bits shifted in per pass.
func (p *Program) SampledBits() int {
	n := 0
	for _, ph := range p.Prologue {
		n += ph.Sample
	}
	body := 0
	for _, ph := range p.Body {
		body += ph.Sample
	}
	return n + body*p.Repeat
}

func (p *Program) check(cfg *Config) error {
	if p.Repeat < 0 {
		return fmt.Errorf("%w: %s: negative repeat count", ErrProgram, p.Name)
	}
	for _, phases := range [][]Phase{p.Prologue, p.Body} {
		for i, ph := range phases {
			if ph.Delay == 0 {
				return fmt.Errorf("%w: %s: phase %d takes no cycles", ErrProgram, p.Name, i)
			}
			if ph.Sample < 0 || ph.Sample > len(cfg.In) {
				return fmt.Errorf("%w: %s: phase %d samples %d of %d pins", ErrProgram, p.Name, i, ph.Sample, len(cfg.In))
			}
			for _, d := range ph.Drive {
				if d.Pin < 0 || d.Pin >= len(cfg.Outputs) {
					return fmt.Errorf("%w: %s: phase %d drives pin %d", ErrProgram, p.Name, i, d.Pin)
				}
			}
		}
	}
	return nil
}
