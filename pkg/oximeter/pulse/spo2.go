package pulse

import "math"

// CalculateEveryNBeats is how many beats are accumulated per SpO2 update.
const CalculateEveryNBeats = 3

var spO2LUT = [43]float32{
	100, 100, 100, 100, 99, 99, 99, 99, 99, 99, 98, 98, 98, 98,
	98, 97, 97, 97, 97, 97, 97, 96, 96, 96, 96, 96, 96, 95, 95,
	95, 95, 95, 95, 94, 94, 94, 94, 94, 93, 93, 93, 93, 93,
}

// spO2Calculator derives SpO2 from the ratio of AC energies of the
// red and IR signals between beats.
type spO2Calculator struct {
	irACSqSum  float64
	redACSqSum float64
	samples    int
	beats      int
	spO2       float32
}

func (c *spO2Calculator) update(irAC, redAC float64, beat bool) {
	c.irACSqSum += irAC * irAC
	c.redACSqSum += redAC * redAC
	c.samples++
	if !beat {
		return
	}
	c.beats++
	if c.beats < CalculateEveryNBeats {
		return
	}
	n := float64(c.samples)
	c.spO2 = lookupSpO2(100 * math.Log(c.redACSqSum/n) / math.Log(c.irACSqSum/n))
	c.irACSqSum, c.redACSqSum, c.samples, c.beats = 0, 0, 0, 0
}

func (c *spO2Calculator) reset() {
	*c = spO2Calculator{}
}

func lookupSpO2(ratio float64) float32 {
	if math.IsNaN(ratio) || math.IsInf(ratio, 0) {
		return 0
	}
	var index int
	if ratio > 66 {
		index = int(ratio) - 66
	} else if ratio > 50 {
		index = int(ratio) - 50
	}
	if index >= len(spO2LUT) {
		index = len(spO2LUT) - 1
	}
	return spO2LUT[index]
}
