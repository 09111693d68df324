// Package testing provides simulated hardware for testing the bridge.
//
// A Rig is a simulated gpiochip wired like machine.RP2040, with a virtual
// clock.  Pad and host models attach to its pins and react to the levels the
// code under test drives, synchronously on the writing goroutine.
package testing

import (
	"github.com/clktmr/pcebridge/gpio"
	"github.com/clktmr/pcebridge/gpio/sim"
	"github.com/clktmr/pcebridge/machine"
	"github.com/clktmr/pcebridge/timing"
)

type Rig struct {
	Bank  *sim.Bank
	Clock *timing.Virtual
	Pins  machine.Pins
}

func NewRig() *Rig {
	return &Rig{
		Bank:  sim.NewBank(machine.Lines),
		Clock: &timing.Virtual{},
		Pins:  machine.RP2040,
	}
}

func (r *Rig) Pin(offset int) *sim.Pin {
	return r.Bank.Pin(offset)
}

// PlugSNES attaches a SNES pad, or a NES pad if nes is set, to the shift
// register bus.  The pad shifts out on the line at offset data.
func (r *Rig) PlugSNES(nes bool, data int) *SNESPad {
	return NewSNESPad(nes, r.Pin(r.Pins.NESLatch), r.Pin(r.Pins.NESClock), r.Pin(data))
}

// PlugGenesis attaches a three or six button pad to the DB9 port.
func (r *Rig) PlugGenesis(six bool) *GenesisPad {
	p := r.Pins
	return NewGenesisPad(six, r.Clock, GenesisPins{
		Power:  r.Pin(p.GenesisPower),
		Select: r.Pin(p.GenesisSelect),
		Lines: [6]*sim.Pin{
			r.Pin(p.GenesisUpZ),
			r.Pin(p.GenesisDownY),
			r.Pin(p.GenesisLeftX),
			r.Pin(p.GenesisRightMode),
			r.Pin(p.GenesisBA),
			r.Pin(p.GenesisCStart),
		},
	})
}

// Host attaches a console to the PC Engine port.  The host starts idle.
func (r *Rig) Host(settle func()) *Host {
	p := r.Pins
	h := &Host{
		enable: r.Pin(p.PCEEnable),
		sel:    r.Pin(p.PCESelect),
		Settle: settle,
	}
	for i, off := range p.PCEData {
		h.data[i] = r.Pin(off)
	}
	h.enable.Drive(gpio.High)
	h.sel.Drive(gpio.High)
	return h
}
