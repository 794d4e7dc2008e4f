// Package sim provides a simulated pulse oximeter for running without
// hardware.
package sim

import (
	"errors"
	"math/rand"
	"sync"
	"time"

	"periph.io/x/conn/v3/physic"

	"github.com/robotalks/pulseox/pkg/oximeter"
)

// ErrNotStarted is returned by Update before a successful Begin.
var ErrNotStarted = errors.New("sensor not started")

// Oximeter simulates a finger on the sensor with a steady heart rate.
type Oximeter struct {
	Clock func() time.Time
	Rand  *rand.Rand
	// FailBegin makes Begin fail as if the sensor is not connected.
	FailBegin bool
	// Jitter is the maximum deviation applied to each beat's readings.
	Jitter float32
	// Temperature is the die temperature reported.
	Temperature physic.Temperature

	lock     sync.Mutex
	bpm      float32
	spO2     float32
	started  bool
	standby  bool
	nextBeat time.Time
	hr       float32
	curSpO2  float32
	onBeat   func()
}

var (
	_ oximeter.Sensor      = &Oximeter{}
	_ oximeter.Thermometer = &Oximeter{}
	_ oximeter.PowerSaver  = &Oximeter{}
	_ oximeter.Resetter    = &Oximeter{}
	_ oximeter.Simulated   = &Oximeter{}
)

// NewOximeter creates a simulated sensor.
func NewOximeter(bpm, spO2 float32) *Oximeter {
	return &Oximeter{
		Clock:       time.Now,
		Rand:        rand.New(rand.NewSource(time.Now().UnixNano())),
		Temperature: physic.ZeroCelsius + 33*physic.Celsius,
		bpm:         bpm,
		spO2:        spO2,
	}
}

// SetBPM implements oximeter.Simulated.
func (s *Oximeter) SetBPM(bpm float32) {
	s.lock.Lock()
	s.bpm = bpm
	s.lock.Unlock()
}

// SetSpO2 implements oximeter.Simulated.
func (s *Oximeter) SetSpO2(spO2 float32) {
	s.lock.Lock()
	s.spO2 = spO2
	s.lock.Unlock()
}

// Begin implements oximeter.Sensor.
func (s *Oximeter) Begin() error {
	if s.FailBegin {
		return oximeter.ErrPartID
	}
	now := s.Clock()
	s.lock.Lock()
	s.started, s.standby = true, false
	s.nextBeat = time.Time{}
	if s.bpm > 0 {
		s.nextBeat = now.Add(s.period())
	}
	s.hr, s.curSpO2 = 0, 0
	s.lock.Unlock()
	return nil
}

func (s *Oximeter) period() time.Duration {
	return time.Duration(float64(time.Minute) / float64(s.bpm))
}

// Update implements oximeter.Sensor.
func (s *Oximeter) Update() error {
	now := s.Clock()
	var beats int
	s.lock.Lock()
	if !s.started {
		s.lock.Unlock()
		return ErrNotStarted
	}
	if s.bpm <= 0 || s.standby {
		s.hr, s.curSpO2, s.nextBeat = 0, 0, time.Time{}
	} else {
		period := s.period()
		// the finger is put back after a pause
		if s.nextBeat.IsZero() {
			s.nextBeat = now.Add(period)
		}
		for !now.Before(s.nextBeat) {
			s.hr = s.bpm + s.jitter()
			s.curSpO2 = s.spO2 + s.jitter()/4
			if s.curSpO2 > 100 {
				s.curSpO2 = 100
			}
			s.nextBeat = s.nextBeat.Add(period)
			beats++
		}
	}
	onBeat := s.onBeat
	s.lock.Unlock()
	if onBeat != nil {
		for ; beats > 0; beats-- {
			onBeat()
		}
	}
	return nil
}

func (s *Oximeter) jitter() float32 {
	if s.Jitter <= 0 || s.Rand == nil {
		return 0
	}
	return s.Jitter * (2*s.Rand.Float32() - 1)
}

// HeartRate implements oximeter.Sensor.
func (s *Oximeter) HeartRate() float32 {
	s.lock.Lock()
	defer s.lock.Unlock()
	return s.hr
}

// SpO2 implements oximeter.Sensor.
func (s *Oximeter) SpO2() float32 {
	s.lock.Lock()
	defer s.lock.Unlock()
	return s.curSpO2
}

// OnBeat implements oximeter.Sensor.
func (s *Oximeter) OnBeat(fn func()) {
	s.lock.Lock()
	s.onBeat = fn
	s.lock.Unlock()
}

// Close implements oximeter.Sensor.
func (s *Oximeter) Close() error {
	s.lock.Lock()
	s.started = false
	s.lock.Unlock()
	return nil
}

// ReadTemperature implements oximeter.Thermometer.
func (s *Oximeter) ReadTemperature() (physic.Temperature, error) {
	s.lock.Lock()
	defer s.lock.Unlock()
	if !s.started {
		return 0, ErrNotStarted
	}
	return s.Temperature, nil
}

// Shutdown implements oximeter.PowerSaver.
func (s *Oximeter) Shutdown() error {
	s.lock.Lock()
	s.standby = true
	s.lock.Unlock()
	return nil
}

// Resume implements oximeter.PowerSaver.
func (s *Oximeter) Resume() error {
	s.lock.Lock()
	s.standby = false
	s.lock.Unlock()
	return nil
}

// Reset implements oximeter.Resetter.
func (s *Oximeter) Reset() error {
	s.lock.Lock()
	s.started, s.standby = false, false
	s.hr, s.curSpO2, s.nextBeat = 0, 0, time.Time{}
	s.lock.Unlock()
	return nil
}
