package testing

import (
	"github.com/clktmr/pcebridge/gpio"
	"github.com/clktmr/pcebridge/gpio/sim"
	"github.com/clktmr/pcebridge/pad"
)

// Host models a PC Engine polling its pad port.  It drives CLR and SEL and
// reads D0..D3.  Settle is called after every change of CLR or SEL and must
// return once the device had the chance to respond, e.g. by stepping the bus
// emulator.
type Host struct {
	enable, sel *sim.Pin
	data        [4]*sim.Pin

	Settle func()
}

func (h *Host) settle() {
	if h.Settle != nil {
		h.Settle()
	}
}

// Enable drives CLR.  Low addresses the device.
func (h *Host) Enable(l gpio.Level) {
	h.enable.Drive(l)
	h.settle()
}

// Select drives SEL.
func (h *Host) Select(l gpio.Level) {
	h.sel.Drive(l)
	h.settle()
}

// Nibble returns the levels on D0..D3 in bits 0..3.
func (h *Host) Nibble() uint8 {
	var n uint8
	for i, d := range h.data {
		if d.Level() == gpio.High {
			n |= 1 << i
		}
	}
	return n
}

// Directions decodes the nibble presented while SEL is high.
func Directions(n uint8) pad.Buttons {
	return decode(n, pad.Up, pad.Right, pad.Down, pad.Left)
}

// Actions decodes the nibble presented while SEL is low.
func Actions(n uint8) pad.Buttons {
	return decode(n, pad.I, pad.II, pad.Select, pad.Run)
}

func decode(n uint8, d0, d1, d2, d3 pad.Buttons) (b pad.Buttons) {
	for i, v := range [4]pad.Buttons{d0, d1, d2, d3} {
		if n&(1<<i) == 0 {
			b |= v
		}
	}
	return
}

// Poll reads both ports like the console does: address the device with SEL
// high, read the directions, toggle SEL and read the actions, then repeat
// for the second port and release the device.
func (h *Host) Poll() (ports [2]pad.Buttons) {
	h.Select(gpio.High)
	h.Enable(gpio.High)
	h.Enable(gpio.Low)
	for i := range ports {
		if i > 0 {
			h.Select(gpio.High)
		}
		ports[i] = Directions(h.Nibble())
		h.Select(gpio.Low)
		ports[i] |= Actions(h.Nibble())
	}
	h.Enable(gpio.High)
	return
}
