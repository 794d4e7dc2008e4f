// Package pulse turns raw IR/red samples of a reflective pulse
// oximeter into heart rate and SpO2.
package pulse

import (
	"time"
)

// DefaultSamplePeriod matches a 100Hz sampling rate.
const DefaultSamplePeriod = 10 * time.Millisecond

// Estimator implements oximeter.Estimator.
type Estimator struct {
	irDC, redDC dcRemover
	irLP        lowPass
	beats       *beatDetector
	spO2        spO2Calculator
}

// New creates an Estimator for samples spaced by samplePeriod.
func New(samplePeriod time.Duration) *Estimator {
	if samplePeriod <= 0 {
		samplePeriod = DefaultSamplePeriod
	}
	return &Estimator{
		irDC:  dcRemover{alpha: 0.95},
		redDC: dcRemover{alpha: 0.95},
		beats: newBeatDetector(samplePeriod),
	}
}

// Add feeds one sample and reports whether it completes a beat.
func (e *Estimator) Add(ir, red uint16, t time.Time) bool {
	irAC := e.irDC.step(float64(ir))
	redAC := e.redDC.step(float64(red))
	filtered := e.irLP.step(-irAC)
	beat := e.beats.add(filtered, t)
	if e.beats.rate() == 0 {
		e.spO2.reset()
	} else {
		e.spO2.update(irAC, redAC, beat)
	}
	return beat
}

// HeartRate returns BPM, 0 when no valid beats.
func (e *Estimator) HeartRate() float32 {
	return float32(e.beats.rate())
}

// SpO2 returns the saturation percentage, 0 when not available.
func (e *Estimator) SpO2() float32 {
	if e.beats.rate() == 0 {
		return 0
	}
	return e.spO2.spO2
}

// Reset clears all state.
func (e *Estimator) Reset() {
	e.irDC.dcw, e.redDC.dcw = 0, 0
	e.irLP = lowPass{}
	e.beats.reset()
	e.spO2.reset()
}
