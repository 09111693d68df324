package machine

import (
	"flag"
	"fmt"
	"strconv"
	"strings"
)

// RegisterFlags defines a flag for every line role in fs.  The flags default
// to the current values of p.
func (p *Pins) RegisterFlags(fs *flag.FlagSet) {
	fs.IntVar(&p.PCESelect, "pce-sel", p.PCESelect, "PC Engine SEL line")
	fs.IntVar(&p.PCEEnable, "pce-clr", p.PCEEnable, "PC Engine CLR line")
	fs.Var((*dataLines)(&p.PCEData), "pce-data", "PC Engine D0..D3 lines")

	fs.IntVar(&p.NESClock, "nes-clock", p.NESClock, "NES/SNES clock line")
	fs.IntVar(&p.NESLatch, "nes-latch", p.NESLatch, "NES/SNES latch line")
	fs.IntVar(&p.NESData, "nes-data", p.NESData, "NES/SNES data line of the first pad")
	fs.IntVar(&p.NESData2, "nes-data2", p.NESData2, "NES/SNES data line of the second pad, -1 if not wired")
	fs.IntVar(&p.NESPower, "nes-power", p.NESPower, "NES/SNES power line")

	fs.IntVar(&p.GenesisPower, "md-power", p.GenesisPower, "Mega Drive power line")
	fs.IntVar(&p.GenesisSelect, "md-select", p.GenesisSelect, "Mega Drive select line")
	fs.IntVar(&p.GenesisUpZ, "md-up", p.GenesisUpZ, "Mega Drive Up/Z line")
	fs.IntVar(&p.GenesisDownY, "md-down", p.GenesisDownY, "Mega Drive Down/Y line")
	fs.IntVar(&p.GenesisLeftX, "md-left", p.GenesisLeftX, "Mega Drive Left/X line")
	fs.IntVar(&p.GenesisRightMode, "md-right", p.GenesisRightMode, "Mega Drive Right/Mode line")
	fs.IntVar(&p.GenesisBA, "md-ba", p.GenesisBA, "Mega Drive B/A line")
	fs.IntVar(&p.GenesisCStart, "md-cstart", p.GenesisCStart, "Mega Drive C/Start line")
}

type dataLines [4]int

func (d *dataLines) String() string {
	s := make([]string, len(d))
	for i, v := range d {
		s[i] = strconv.Itoa(v)
	}
	return strings.Join(s, ",")
}

func (d *dataLines) Set(v string) error {
	fields := strings.Split(v, ",")
	if len(fields) != len(d) {
		return fmt.Errorf("need %d comma separated lines", len(d))
	}
	var lines dataLines
	for i, f := range fields {
		n, err := strconv.Atoi(strings.TrimSpace(f))
		if err != nil {
			return err
		}
		lines[i] = n
	}
	*d = lines
	return nil
}
