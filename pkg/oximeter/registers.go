package oximeter

import (
	"fmt"

	"periph.io/x/conn/v3/physic"
)

// DefaultAddress is the fixed I²C address of MAX30100.
const DefaultAddress = 0x57

// PartID is the expected content of regPartID.
const PartID = 0x11

// FIFODepth is the number of samples the FIFO holds.
const FIFODepth = 16

const (
	regIntStatus      = 0x00
	regIntEnable      = 0x01
	regFIFOWritePtr   = 0x02
	regFIFOOverflow   = 0x03
	regFIFOReadPtr    = 0x04
	regFIFOData       = 0x05
	regModeConfig     = 0x06
	regSpO2Config     = 0x07
	regLEDConfig      = 0x09
	regTempInteger    = 0x16
	regTempFraction   = 0x17
	regRevisionID     = 0xfe
	regPartID         = 0xff
	bytesPerFIFOEntry = 4
)

// interrupt bits of regIntStatus/regIntEnable.
const (
	intAlmostFull = 1 << 7
	intTempReady  = 1 << 6
	intHRReady    = 1 << 5
	intSpO2Ready  = 1 << 4
	intPowerReady = 1 << 0
)

// bits of regModeConfig.
const (
	modeShutdown   = 1 << 7
	modeReset      = 1 << 6
	modeTempEnable = 1 << 3
	modeMask       = 0x07
)

// bits of regSpO2Config.
const (
	spO2HighRes         = 1 << 6
	spO2SampleRateShift = 2
)

// Mode is the operating mode.
type Mode byte

// Operating modes.
const (
	ModeHROnly Mode = 0x02
	ModeSpO2   Mode = 0x03
)

// SampleRate selects the ADC sampling rate.
type SampleRate byte

// Available sampling rates.
const (
	SampleRate50Hz SampleRate = iota
	SampleRate100Hz
	SampleRate167Hz
	SampleRate200Hz
	SampleRate400Hz
	SampleRate600Hz
	SampleRate800Hz
	SampleRate1000Hz
)

var sampleRates = [...]physic.Frequency{
	50 * physic.Hertz,
	100 * physic.Hertz,
	167 * physic.Hertz,
	200 * physic.Hertz,
	400 * physic.Hertz,
	600 * physic.Hertz,
	800 * physic.Hertz,
	1000 * physic.Hertz,
}

// Frequency returns the sampling frequency.
func (r SampleRate) Frequency() physic.Frequency {
	if int(r) >= len(sampleRates) {
		return 0
	}
	return sampleRates[r]
}

func (r SampleRate) String() string {
	return r.Frequency().String()
}

// PulseWidth selects the LED pulse width, which also determines ADC
// resolution.
type PulseWidth byte

// Available pulse widths.
const (
	PulseWidth200us PulseWidth = iota
	PulseWidth400us
	PulseWidth800us
	PulseWidth1600us
)

// LEDCurrent is the encoded LED drive current.
type LEDCurrent byte

// Available LED currents.
const (
	LEDCurrent0mA LEDCurrent = iota
	LEDCurrent4_4mA
	LEDCurrent7_6mA
	LEDCurrent11mA
	LEDCurrent14_2mA
	LEDCurrent17_4mA
	LEDCurrent20_8mA
	LEDCurrent24mA
	LEDCurrent27_1mA
	LEDCurrent30_6mA
	LEDCurrent33_8mA
	LEDCurrent37mA
	LEDCurrent40_2mA
	LEDCurrent43_6mA
	LEDCurrent46_8mA
	LEDCurrent50mA
)

var ledCurrents = [...]physic.ElectricCurrent{
	0, 4400, 7600, 11000, 14200, 17400, 20800, 24000,
	27100, 30600, 33800, 37000, 40200, 43600, 46800, 50000,
}

// Current returns the drive current.
func (c LEDCurrent) Current() physic.ElectricCurrent {
	if int(c) >= len(ledCurrents) {
		return 0
	}
	return ledCurrents[c] * physic.MicroAmpere
}

func (c LEDCurrent) String() string {
	return c.Current().String()
}

// ParseLEDCurrent finds the setting matching the current in mA.
func ParseLEDCurrent(mA float64) (LEDCurrent, error) {
	uA := physic.ElectricCurrent(mA*1000+0.5) * physic.MicroAmpere
	for n := range ledCurrents {
		if LEDCurrent(n).Current() == uA {
			return LEDCurrent(n), nil
		}
	}
	return 0, fmt.Errorf("unsupported LED current %vmA", mA)
}
