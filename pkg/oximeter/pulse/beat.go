package pulse

import (
	"math"
	"time"
)

// Beat detector tuning.
const (
	InitHoldoff            = 2 * time.Second
	MaskingHoldoff         = 200 * time.Millisecond
	InvalidReadoutDelay    = 2 * time.Second
	bpFilterAlpha          = 0.6
	minThreshold           = 20
	maxThreshold           = 800
	stepResiliency         = 30
	thresholdFalloffTarget = 0.3
	thresholdDecayFactor   = 0.99
)

type beatState int

const (
	beatInit beatState = iota
	beatWaiting
	beatFollowingSlope
	beatMaybeDetected
	beatMasking
)

// beatDetector finds peaks on the filtered, inverted IR signal with an
// adaptive threshold.
type beatDetector struct {
	samplePeriod time.Duration

	state        beatState
	started      time.Time
	threshold    float64
	beatPeriod   float64 // milliseconds
	lastMaxValue float64
	lastBeat     time.Time
}

func newBeatDetector(samplePeriod time.Duration) *beatDetector {
	return &beatDetector{samplePeriod: samplePeriod, threshold: minThreshold}
}

func (d *beatDetector) reset() {
	*d = beatDetector{samplePeriod: d.samplePeriod, threshold: minThreshold}
}

// rate returns the heart rate in BPM, 0 when unknown.
func (d *beatDetector) rate() float64 {
	if d.beatPeriod == 0 {
		return 0
	}
	return 60000 / d.beatPeriod
}

func (d *beatDetector) add(sample float64, t time.Time) bool {
	if d.started.IsZero() {
		d.started, d.lastBeat = t, t
	}
	switch d.state {
	case beatInit:
		if t.Sub(d.started) > InitHoldoff {
			d.state = beatWaiting
		}
	case beatWaiting:
		if sample > d.threshold {
			d.threshold = math.Min(sample, maxThreshold)
			d.state = beatFollowingSlope
		}
		if t.Sub(d.lastBeat) > InvalidReadoutDelay {
			d.beatPeriod, d.lastMaxValue = 0, 0
		}
		d.decreaseThreshold()
	case beatFollowingSlope:
		if sample < d.threshold {
			d.state = beatMaybeDetected
		} else {
			d.threshold = math.Min(sample, maxThreshold)
		}
	case beatMaybeDetected:
		if sample+stepResiliency < d.threshold {
			d.lastMaxValue = sample
			d.state = beatMasking
			if delta := float64(t.Sub(d.lastBeat)) / float64(time.Millisecond); delta > 0 {
				d.beatPeriod = bpFilterAlpha*delta + (1-bpFilterAlpha)*d.beatPeriod
			}
			d.lastBeat = t
			return true
		}
		d.state = beatFollowingSlope
	case beatMasking:
		if t.Sub(d.lastBeat) > MaskingHoldoff {
			d.state = beatWaiting
		}
		d.decreaseThreshold()
	}
	return false
}

func (d *beatDetector) decreaseThreshold() {
	if d.lastMaxValue > 0 && d.beatPeriod > 0 {
		samplesPerBeat := d.beatPeriod / (float64(d.samplePeriod) / float64(time.Millisecond))
		d.threshold -= d.lastMaxValue * (1 - thresholdFalloffTarget) / samplesPerBeat
	} else {
		d.threshold *= thresholdDecayFactor
	}
	if d.threshold < minThreshold {
		d.threshold = minThreshold
	}
}
