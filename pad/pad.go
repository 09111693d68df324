// Package pad holds the controller snapshot shared between the pad readers
// and the bus emulator.
package pad

import "strings"

// Buttons is a snapshot of one controller, laid out like a PC Engine pad.  A
// set bit means pressed, so the zero value has all buttons released.
type Buttons uint16

const (
	Up Buttons = 1 << iota
	Down
	Left
	Right
	I
	II
	III
	IV
	V
	VI
	Run
	Select

	// Released is the snapshot of an absent controller.
	Released Buttons = 0

	// Mask covers all defined buttons.
	Mask Buttons = 1<<12 - 1
)

var buttonNames = [...]string{
	"↑",
	"↓",
	"←",
	"→",
	"I",
	"II",
	"III",
	"IV",
	"V",
	"VI",
	"Run",
	"Select",
}

func (b Buttons) String() string {
	var sb strings.Builder
	for i, v := range buttonNames {
		if b&(1<<i) != 0 {
			if sb.Len() != 0 {
				sb.WriteString(" + ")
			}
			sb.WriteString(v)
		}
	}
	return sb.String()
}

// Pressed reports whether all buttons in mask are pressed.
func (b Buttons) Pressed(mask Buttons) bool {
	return b&mask == mask
}

// Set returns b with the buttons in mask pressed or released.
func (b Buttons) Set(mask Buttons, pressed bool) Buttons {
	if pressed {
		return b | mask
	}
	return b &^ mask
}
