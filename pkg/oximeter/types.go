// Package oximeter defines the pulse oximeter sensor abstraction and
// the MAX30100 driver.
package oximeter

import (
	"errors"
	"time"

	"periph.io/x/conn/v3/physic"
)

// Sensor is a pulse oximeter which must be polled frequently.
type Sensor interface {
	// Begin initializes the sensor, error means the sensor is not usable.
	Begin() error
	// Update drains pending samples, it should be called as often as possible.
	Update() error
	// HeartRate returns the latest heart rate in BPM, 0 when unknown.
	HeartRate() float32
	// SpO2 returns the latest oxygen saturation in percent, 0 when unknown.
	SpO2() float32
	// OnBeat registers the callback invoked from Update on each beat.
	OnBeat(func())
	Close() error
}

// Thermometer is implemented by sensors measuring their die temperature.
type Thermometer interface {
	ReadTemperature() (physic.Temperature, error)
}

// PowerSaver is implemented by sensors with a low power standby.
type PowerSaver interface {
	Shutdown() error
	Resume() error
}

// Resetter is implemented by sensors with a software reset. Begin must
// be called again after Reset.
type Resetter interface {
	Reset() error
}

// Simulated is implemented by sensors whose readings are made up.
type Simulated interface {
	// SetBPM changes the heart rate, 0 means no finger.
	SetBPM(bpm float32)
	SetSpO2(spO2 float32)
}

// Estimator converts raw IR/red samples into heart rate and SpO2.
type Estimator interface {
	// Add feeds a sample taken at t and returns true if a beat is detected.
	Add(ir, red uint16, t time.Time) bool
	HeartRate() float32
	SpO2() float32
	Reset()
}

// Reading is a snapshot of sensor output.
type Reading struct {
	HeartRate float32
	SpO2      float32
	Time      time.Time
}

// ReadingOf takes a snapshot from a sensor.
func ReadingOf(s Sensor, t time.Time) Reading {
	return Reading{HeartRate: s.HeartRate(), SpO2: s.SpO2(), Time: t}
}

var (
	// ErrPartID indicates the device on the bus is not a MAX30100.
	ErrPartID = errors.New("unexpected part id")
	// ErrTimeout indicates the device didn't finish an operation in time.
	ErrTimeout = errors.New("device timeout")
)
