package buzzer

import (
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/physic"
)

// NullPin is an output pin connected to nothing. It remembers the last
// level so a device without a buzzer still reports one.
type NullPin struct {
	L gpio.Level
}

func (p *NullPin) String() string   { return "none" }
func (p *NullPin) Name() string     { return "none" }
func (p *NullPin) Number() int      { return -1 }
func (p *NullPin) Function() string { return "Out/" + p.L.String() }

// Halt implements conn.Resource.
func (p *NullPin) Halt() error { return nil }

// Out implements gpio.PinOut.
func (p *NullPin) Out(l gpio.Level) error {
	p.L = l
	return nil
}

// PWM implements gpio.PinOut, only full on or off duties are accepted.
func (p *NullPin) PWM(duty gpio.Duty, f physic.Frequency) error {
	switch duty {
	case 0:
		return p.Out(gpio.Low)
	case gpio.DutyMax:
		return p.Out(gpio.High)
	}
	return errPWM
}
