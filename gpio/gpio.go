// Package gpio abstracts the digital lines the bridge is wired to.
//
// Every protocol in this module is expressed in terms of Line, so the same
// readers and the bus emulator run on real hardware (see gpio/cdev) and on
// simulated lines (see gpio/sim).  Get and Set sit on the hot paths of the
// bus responder and must not block or allocate.
package gpio

import "fmt"

type Level bool

const (
	Low  Level = false
	High Level = true
)

func (l Level) String() string {
	if l {
		return "high"
	}
	return "low"
}

type Mode uint8

const (
	Input Mode = iota
	Output
)

type Pull uint8

const (
	PullNone Pull = iota
	PullUp
	PullDown
)

func (p Pull) String() string {
	switch p {
	case PullUp:
		return "pull-up"
	case PullDown:
		return "pull-down"
	default:
		return "no pull"
	}
}

// Config describes a line's direction.  Initial is only used for outputs,
// Pull only for inputs.
type Config struct {
	Mode    Mode
	Pull    Pull
	Initial Level
}

type Line interface {
	Configure(cfg Config) error
	Get() Level
	Set(l Level)
}

// Chip hands out lines by their offset, e.g. a gpiochip on Linux or a
// simulated bank.
type Chip interface {
	Line(offset int) (Line, error)
}

// Const returns a line that always reads l and ignores writes.  It stands in
// for optional inputs that aren't wired.
func Const(l Level) Line {
	return constLine(l)
}

type constLine Level

func (c constLine) Configure(cfg Config) error { return nil }
func (c constLine) Get() Level                 { return Level(c) }
func (c constLine) Set(l Level)                {}

// Lines resolves several offsets at once, skipping negative offsets which
// are returned as nil.
func Lines(chip Chip, offsets ...int) ([]Line, error) {
	lines := make([]Line, len(offsets))
	for i, off := range offsets {
		if off < 0 {
			continue
		}
		l, err := chip.Line(off)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", off, err)
		}
		lines[i] = l
	}
	return lines, nil
}

// ConfigureAll applies the same config to all non-nil lines.
func ConfigureAll(cfg Config, lines ...Line) error {
	for _, l := range lines {
		if l == nil {
			continue
		}
		if err := l.Configure(cfg); err != nil {
			return err
		}
	}
	return nil
}
