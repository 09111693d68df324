//go:build linux

package cdev

import (
	"fmt"

	"github.com/warthog618/go-gpiocdev"

	"github.com/clktmr/pcebridge/gpio"
)

// Chip is a gpiochip, e.g. "gpiochip0".
type Chip struct {
	name  string
	lines map[int]*Line
}

func Open(name string) (*Chip, error) {
	info, err := gpiocdev.NewChip(name)
	if err != nil {
		return nil, err
	}
	info.Close()
	return &Chip{name: name, lines: make(map[int]*Line)}, nil
}

// Line implements gpio.Chip.  The line isn't requested from the kernel
// before it's configured.  Asking twice for the same offset returns the same
// line.
func (c *Chip) Line(offset int) (gpio.Line, error) {
	if l, ok := c.lines[offset]; ok {
		return l, nil
	}
	l := &Line{chip: c.name, offset: offset}
	c.lines[offset] = l
	return l, nil
}

// Close releases all requested lines.
func (c *Chip) Close() error {
	var first error
	for _, l := range c.lines {
		if err := l.Close(); err != nil && first == nil {
			first = err
		}
	}
	clear(c.lines)
	return first
}

type Line struct {
	chip   string
	offset int
	req    *gpiocdev.Line
}

func (l *Line) Configure(cfg gpio.Config) error {
	if l.req != nil {
		switch cfg.Mode {
		case gpio.Output:
			return l.req.Reconfigure(gpiocdev.AsOutput(levelValue(cfg.Initial)))
		default:
			return l.req.Reconfigure(gpiocdev.AsInput, bias(cfg.Pull))
		}
	}

	opts := []gpiocdev.LineReqOption{gpiocdev.WithConsumer(consumer)}
	switch cfg.Mode {
	case gpio.Output:
		opts = append(opts, gpiocdev.AsOutput(levelValue(cfg.Initial)))
	default:
		opts = append(opts, gpiocdev.AsInput, bias(cfg.Pull))
	}
	req, err := gpiocdev.RequestLine(l.chip, l.offset, opts...)
	if err != nil {
		return fmt.Errorf("request %s:%d: %w", l.chip, l.offset, err)
	}
	l.req = req
	return nil
}

func bias(p gpio.Pull) gpiocdev.LineBias {
	switch p {
	case gpio.PullUp:
		return gpiocdev.WithPullUp
	case gpio.PullDown:
		return gpiocdev.WithPullDown
	}
	return gpiocdev.WithBiasDisabled
}

func levelValue(l gpio.Level) int {
	if l {
		return 1
	}
	return 0
}

// Get implements gpio.Line.  Read errors report high, the released level of
// every line in this module.
func (l *Line) Get() gpio.Level {
	if l.req == nil {
		return gpio.High
	}
	v, err := l.req.Value()
	if err != nil {
		return gpio.High
	}
	return v != 0
}

// Set implements gpio.Line.  Write errors are ignored, the bus loop cannot
// report them.
func (l *Line) Set(level gpio.Level) {
	if l.req == nil {
		return
	}
	l.req.SetValue(levelValue(level))
}

func (l *Line) Close() error {
	if l.req == nil {
		return nil
	}
	err := l.req.Close()
	l.req = nil
	return err
}
