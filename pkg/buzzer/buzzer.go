// Package buzzer drives the alarm buzzer on a digital output.
package buzzer

import (
	"errors"

	"periph.io/x/conn/v3/gpio"
)

// DefaultThreshold is the heart rate (BPM) at or above which the buzzer
// sounds.
const DefaultThreshold float32 = 120

var errPWM = errors.New("buzzer: PWM not supported")

// Source tells who decided the current level.
type Source int

// Sources.
const (
	SourceThreshold Source = iota
	SourceDashboard
	SourceCommand
)

func (s Source) String() string {
	switch s {
	case SourceThreshold:
		return "threshold"
	case SourceDashboard:
		return "dashboard"
	case SourceCommand:
		return "command"
	}
	return "unknown"
}

// Buzzer is an active buzzer on a GPIO pin.
type Buzzer struct {
	Threshold float32

	pin    gpio.PinOut
	on     bool
	source Source
}

// New creates a Buzzer on pin.
func New(pin gpio.PinOut) *Buzzer {
	return &Buzzer{Threshold: DefaultThreshold, pin: pin}
}

func (b *Buzzer) String() string {
	return "buzzer@" + b.pin.Name()
}

// Begin configures the pin as output, initially low.
func (b *Buzzer) Begin() error {
	return b.Set(false, SourceThreshold)
}

// Set drives the pin.
func (b *Buzzer) Set(on bool, src Source) error {
	level := gpio.Low
	if on {
		level = gpio.High
	}
	if err := b.pin.Out(level); err != nil {
		return err
	}
	b.on, b.source = on, src
	return nil
}

// ApplyThreshold turns on the buzzer iff bpm reaches Threshold,
// replacing any override.
func (b *Buzzer) ApplyThreshold(bpm float32) error {
	return b.Set(bpm >= b.Threshold, SourceThreshold)
}

// On returns the last level set.
func (b *Buzzer) On() bool {
	return b.on
}

// Source returns who set the current level.
func (b *Buzzer) Source() Source {
	return b.source
}
