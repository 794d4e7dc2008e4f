package oximeter

import (
	"fmt"
	"time"

	"github.com/golang/glog"
	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/physic"
)

// Opts configures the MAX30100.
type Opts struct {
	Mode       Mode
	SampleRate SampleRate
	PulseWidth PulseWidth
	HighRes    bool
	IRCurrent  LEDCurrent
	RedCurrent LEDCurrent
}

// DefaultOpts is SpO2 mode, 100Hz sampling, 1600us pulse width, IR 50mA
// and red 27.1mA.
var DefaultOpts = Opts{
	Mode:       ModeSpO2,
	SampleRate: SampleRate100Hz,
	PulseWidth: PulseWidth1600us,
	HighRes:    true,
	IRCurrent:  LEDCurrent50mA,
	RedCurrent: LEDCurrent27_1mA,
}

// pollAttempts bounds waiting on self-clearing mode bits.
const pollAttempts = 20

// MAX30100 is a pulse oximeter on I²C.
type MAX30100 struct {
	Clock func() time.Time

	dev       i2c.Dev
	opts      Opts
	estimator Estimator
	onBeat    func()
	buf       [FIFODepth * bytesPerFIFOEntry]byte
}

// NewMAX30100 creates the driver, the device is not touched until Begin.
func NewMAX30100(bus i2c.Bus, addr uint16, opts *Opts, estimator Estimator) *MAX30100 {
	if opts == nil {
		opts = &DefaultOpts
	}
	return &MAX30100{
		Clock:     time.Now,
		dev:       i2c.Dev{Bus: bus, Addr: addr},
		opts:      *opts,
		estimator: estimator,
	}
}

var (
	_ Sensor      = &MAX30100{}
	_ Thermometer = &MAX30100{}
	_ PowerSaver  = &MAX30100{}
	_ Resetter    = &MAX30100{}
)

func (d *MAX30100) String() string {
	return fmt.Sprintf("MAX30100{%s}", d.dev.String())
}

// Begin implements Sensor.
func (d *MAX30100) Begin() error {
	id, err := d.readReg(regPartID)
	if err != nil {
		return err
	}
	if id != PartID {
		glog.Errorf("MAX30100 part id 0x%02x, expect 0x%02x", id, PartID)
		return ErrPartID
	}
	if rev, err := d.readReg(regRevisionID); err == nil {
		glog.V(2).Infof("MAX30100 revision %d", rev)
	}
	if err := d.configure(); err != nil {
		return fmt.Errorf("configure MAX30100 error: %v", err)
	}
	d.estimator.Reset()
	return nil
}

func (d *MAX30100) configure() error {
	spo2 := byte(d.opts.SampleRate)<<spO2SampleRateShift | byte(d.opts.PulseWidth)&0x03
	if d.opts.HighRes {
		spo2 |= spO2HighRes
	}
	led := byte(d.opts.RedCurrent)<<4 | byte(d.opts.IRCurrent)&0x0f
	if err := d.writeRegs(regModeConfig, byte(d.opts.Mode)&modeMask, spo2); err != nil {
		return err
	}
	if err := d.writeRegs(regLEDConfig, led); err != nil {
		return err
	}
	if err := d.writeRegs(regIntEnable, 0); err != nil {
		return err
	}
	// interrupt status is cleared on read.
	if _, err := d.readReg(regIntStatus); err != nil {
		return err
	}
	return d.ClearFIFO()
}

// ClearFIFO resets FIFO pointers.
func (d *MAX30100) ClearFIFO() error {
	return d.writeRegs(regFIFOWritePtr, 0, 0, 0)
}

// Update implements Sensor.
func (d *MAX30100) Update() error {
	var ptrs [3]byte
	if err := d.dev.Tx([]byte{regFIFOWritePtr}, ptrs[:]); err != nil {
		return err
	}
	wr, ovf, rd := ptrs[0], ptrs[1], ptrs[2]
	n := int((wr - rd) & (FIFODepth - 1))
	if n == 0 && ovf > 0 {
		n = FIFODepth
	}
	if ovf > 0 {
		glog.V(3).Infof("MAX30100 FIFO overflow %d", ovf)
	}
	if n == 0 {
		return nil
	}
	data := d.buf[:n*bytesPerFIFOEntry]
	if err := d.dev.Tx([]byte{regFIFOData}, data); err != nil {
		return err
	}
	now := d.Clock()
	period := d.samplePeriod()
	for i := 0; i < n; i++ {
		entry := data[i*bytesPerFIFOEntry:]
		ir := uint16(entry[0])<<8 | uint16(entry[1])
		red := uint16(entry[2])<<8 | uint16(entry[3])
		t := now.Add(-time.Duration(n-1-i) * period)
		if d.estimator.Add(ir, red, t) && d.onBeat != nil {
			d.onBeat()
		}
	}
	return nil
}

func (d *MAX30100) samplePeriod() time.Duration {
	if f := d.opts.SampleRate.Frequency(); f > 0 {
		return f.Period()
	}
	return 10 * time.Millisecond
}

// HeartRate implements Sensor.
func (d *MAX30100) HeartRate() float32 {
	return d.estimator.HeartRate()
}

// SpO2 implements Sensor.
func (d *MAX30100) SpO2() float32 {
	return d.estimator.SpO2()
}

// OnBeat implements Sensor.
func (d *MAX30100) OnBeat(fn func()) {
	d.onBeat = fn
}

// Close implements Sensor.
func (d *MAX30100) Close() error {
	return d.Shutdown()
}

// Reset performs a software reset and waits for its completion.
// Configuration is lost, call Begin again.
func (d *MAX30100) Reset() error {
	if err := d.writeRegs(regModeConfig, modeReset); err != nil {
		return err
	}
	return d.waitModeCleared(modeReset)
}

// Shutdown puts the device into power-save mode.
func (d *MAX30100) Shutdown() error {
	return d.updateMode(modeShutdown, 0)
}

// Resume wakes up the device from Shutdown.
func (d *MAX30100) Resume() error {
	return d.updateMode(0, modeShutdown)
}

// ReadTemperature triggers a die temperature conversion and reads the result.
func (d *MAX30100) ReadTemperature() (physic.Temperature, error) {
	if err := d.updateMode(modeTempEnable, 0); err != nil {
		return 0, err
	}
	if err := d.waitModeCleared(modeTempEnable); err != nil {
		return 0, err
	}
	var raw [2]byte
	if err := d.dev.Tx([]byte{regTempInteger}, raw[:]); err != nil {
		return 0, err
	}
	t := physic.ZeroCelsius + physic.Temperature(int8(raw[0]))*physic.Celsius
	t += physic.Temperature(raw[1]&0x0f) * 62500 * physic.MicroKelvin
	return t, nil
}

func (d *MAX30100) updateMode(set, clear byte) error {
	mode, err := d.readReg(regModeConfig)
	if err != nil {
		return err
	}
	return d.writeRegs(regModeConfig, mode&^clear|set)
}

func (d *MAX30100) waitModeCleared(bit byte) error {
	for i := 0; i < pollAttempts; i++ {
		mode, err := d.readReg(regModeConfig)
		if err != nil {
			return err
		}
		if mode&bit == 0 {
			return nil
		}
		time.Sleep(time.Millisecond)
	}
	return ErrTimeout
}

func (d *MAX30100) readReg(reg byte) (byte, error) {
	var b [1]byte
	if err := d.dev.Tx([]byte{reg}, b[:]); err != nil {
		return 0, fmt.Errorf("read reg 0x%02x error: %v", reg, err)
	}
	return b[0], nil
}

func (d *MAX30100) writeRegs(reg byte, vals ...byte) error {
	if err := d.dev.Tx(append([]byte{reg}, vals...), nil); err != nil {
		return fmt.Errorf("write reg 0x%02x error: %v", reg, err)
	}
	return nil
}
