// Package machine describes how the bridge is wired on a board.
//
// Offsets are line numbers on the board's gpiochip.  A negative offset marks
// an optional line that isn't wired.
package machine

// Pins assigns a line to every role.
type Pins struct {
	// PC Engine pad port, facing the console.
	PCESelect int // SEL, pin 6
	PCEEnable int // CLR, pin 7, active low
	PCEData   [4]int

	// NES/SNES pads, wired to the DB9 port through an adapter.
	NESClock int
	NESLatch int
	NESData  int
	NESData2 int // second pad sharing clock and latch
	NESPower int

	// Mega Drive/Genesis DB9 port.
	GenesisPower     int
	GenesisSelect    int
	GenesisUpZ       int
	GenesisDownY     int
	GenesisLeftX     int
	GenesisRightMode int
	GenesisBA        int
	GenesisCStart    int
}

// RP2040 is the wiring of the original RP2040 adapter board.
//
//	DB9 | GPIO       PCE | GPIO
//	----+-----       ----+-----
//	 1  |  7          2  | 26
//	 2  |  2          3  | 27
//	 3  |  1          4  | 28
//	 4  |  0          5  | 29
//	 5  |  8          6  | 14
//	 6  |  3          7  | 15
//	 7  |  4
//	 9  |  6
var RP2040 = Pins{
	PCESelect: 14,
	PCEEnable: 15,
	PCEData:   [4]int{26, 27, 28, 29},

	NESClock: 0,
	NESLatch: 1,
	NESData:  2,
	NESData2: -1,
	NESPower: 3,

	GenesisPower:     8,
	GenesisSelect:    4,
	GenesisUpZ:       7,
	GenesisDownY:     2,
	GenesisLeftX:     1,
	GenesisRightMode: 0,
	GenesisBA:        3,
	GenesisCStart:    6,
}

// Lines is the number of lines the RP2040 exposes.
const Lines = 30
