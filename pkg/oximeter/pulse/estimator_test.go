package pulse

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func feedSine(e *Estimator, start time.Time, bpm float64, irAmp, redAmp float64, dur time.Duration) (beats int) {
	n := int(dur / DefaultSamplePeriod)
	freq := bpm / 60
	for i := 0; i < n; i++ {
		t := start.Add(time.Duration(i) * DefaultSamplePeriod)
		phase := 2 * math.Pi * freq * float64(i) * DefaultSamplePeriod.Seconds()
		ir := uint16(30000 + irAmp*math.Sin(phase))
		red := uint16(20000 + redAmp*math.Sin(phase))
		if e.Add(ir, red, t) {
			beats++
		}
	}
	return
}

func TestEstimatorHeartRate(t *testing.T) {
	e := New(DefaultSamplePeriod)
	beats := feedSine(e, time.Unix(1000, 0), 75, 300, 100, 20*time.Second)
	assert.True(t, beats >= 15, "beats=%d", beats)
	assert.InDelta(t, 75, e.HeartRate(), 6)
	spo2 := e.SpO2()
	assert.True(t, spo2 >= 93 && spo2 <= 100, "spo2=%v", spo2)
	assert.InDelta(t, 30000, e.irDC.dc(), 500)
	assert.InDelta(t, 20000, e.redDC.dc(), 500)
}

func TestEstimatorNoSignal(t *testing.T) {
	e := New(0)
	start := time.Unix(1000, 0)
	for i := 0; i < 1000; i++ {
		require.False(t, e.Add(30000, 20000, start.Add(time.Duration(i)*DefaultSamplePeriod)))
	}
	assert.Zero(t, e.HeartRate())
	assert.Zero(t, e.SpO2())
}

func TestEstimatorReset(t *testing.T) {
	e := New(DefaultSamplePeriod)
	feedSine(e, time.Unix(1000, 0), 75, 300, 100, 10*time.Second)
	require.NotZero(t, e.HeartRate())
	e.Reset()
	assert.Zero(t, e.HeartRate())
	assert.Zero(t, e.SpO2())
	assert.Zero(t, e.irDC.dc())
}

func TestEstimatorInvalidatesAfterSilence(t *testing.T) {
	e := New(DefaultSamplePeriod)
	start := time.Unix(1000, 0)
	feedSine(e, start, 75, 300, 100, 10*time.Second)
	require.NotZero(t, e.HeartRate())
	after := start.Add(10 * time.Second)
	for i := 0; i < 500; i++ {
		e.Add(30000, 20000, after.Add(time.Duration(i)*DefaultSamplePeriod))
	}
	assert.Zero(t, e.HeartRate())
	assert.Zero(t, e.SpO2())
}

func TestLookupSpO2(t *testing.T) {
	assert.Equal(t, float32(100), lookupSpO2(10))
	assert.Equal(t, float32(100), lookupSpO2(51))
	assert.Equal(t, float32(99), lookupSpO2(55))
	assert.Equal(t, float32(98), lookupSpO2(78))
	assert.Equal(t, float32(93), lookupSpO2(200))
	assert.Zero(t, lookupSpO2(math.NaN()))
	assert.Zero(t, lookupSpO2(math.Inf(1)))
}
