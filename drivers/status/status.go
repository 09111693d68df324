// Package status animates the bridge's status LED.
//
// The LED shows which kind of pad was found, breathing from half to quarter
// brightness once per 64 reader cycles.
package status

import (
	"image/color"

	"golang.org/x/image/colornames"
)

type Scheme uint8

const (
	None Scheme = iota
	ShiftRegister
	ThreeButton
	SixButton
)

var schemeColors = [...]color.RGBA{
	None:          colornames.Black,
	ShiftRegister: colornames.Yellow,
	ThreeButton:   colornames.Cyan,
	SixButton:     colornames.Purple,
}

var schemeNames = [...]string{
	None:          "none",
	ShiftRegister: "shift register",
	ThreeButton:   "three button",
	SixButton:     "six button",
}

func (s Scheme) String() string {
	if int(s) < len(schemeNames) {
		return schemeNames[s]
	}
	return "unknown"
}

// Color returns the scheme's color at full brightness.
func (s Scheme) Color() color.RGBA {
	if int(s) < len(schemeColors) {
		return schemeColors[s]
	}
	return colornames.Black
}

// Indicator is an RGB LED, e.g. a WS2812.
type Indicator interface {
	Set(c color.Color)
}

// IndicatorFunc adapts a function to an Indicator.
type IndicatorFunc func(c color.Color)

func (f IndicatorFunc) Set(c color.Color) { f(c) }

const (
	maxBrightness = 127
	minBrightness = 64
)

type Animation struct {
	ind        Indicator
	scheme     Scheme
	brightness uint8
}

func NewAnimation(ind Indicator, scheme Scheme) *Animation {
	return &Animation{ind: ind, scheme: scheme, brightness: maxBrightness}
}

// Tick shows the next animation step.
func (a *Animation) Tick() {
	if a.ind != nil {
		a.ind.Set(a.Color())
	}
	a.brightness--
	if a.brightness < minBrightness {
		a.brightness = maxBrightness
	}
}

// Brightness returns the brightness of the next step out of 255.
func (a *Animation) Brightness() uint8 {
	return a.brightness
}

// Color returns the color of the next step.
func (a *Animation) Color() color.RGBA {
	c := a.scheme.Color()
	scale := func(v uint8) uint8 {
		return uint8(uint16(v) * uint16(a.brightness) / 255)
	}
	return color.RGBA{scale(c.R), scale(c.G), scale(c.B), c.A}
}
