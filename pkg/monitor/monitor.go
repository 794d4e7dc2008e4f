// Package monitor is the control program of the pulse oximeter device:
// it initializes peripherals in a fixed order, then polls the sensor and
// reports readings from the control loop.
package monitor

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang/glog"

	"github.com/robotalks/pulseox/pkg/buzzer"
	"github.com/robotalks/pulseox/pkg/dashboard"
	"github.com/robotalks/pulseox/pkg/display"
	fx "github.com/robotalks/pulseox/pkg/framework"
	"github.com/robotalks/pulseox/pkg/oximeter"
	"github.com/robotalks/pulseox/pkg/remote"
	"github.com/robotalks/pulseox/pkg/remote/msgs"
)

// DefaultReportPeriod is the minimum interval between two reports.
const DefaultReportPeriod = time.Second

// Dashboard virtual pins.
const (
	PinHeartRate = dashboard.V1
	PinSpO2      = dashboard.V2
	PinBuzzer    = dashboard.V3
)

var (
	// ErrSensorInit indicates the sensor failed to initialize.
	ErrSensorInit = errors.New("sensor initialization failed")
	// ErrNotSupported is replied to commands the sensor can't perform.
	ErrNotSupported = errors.New("not supported by sensor")
)

// Console is where status lines are printed.
type Console interface {
	Print(string)
	Println(string)
}

// Dashboard is the cloud dashboard.
type Dashboard interface {
	Begin(context.Context) error
	VirtualWrite(pin dashboard.Pin, value interface{}) error
	OnWrite(pin dashboard.Pin, handler dashboard.WriteHandler)
}

// Sensor states reported in Status.
const (
	SensorStateInit   = "init"
	SensorStateReady   = "ready"
	SensorStateStandby = "standby"
	SensorStateFailed  = "failed"
)

// BuzzerOverride is posted to the loop when the buzzer is set from the
// dashboard.
type BuzzerOverride struct {
	On     bool
	Source buzzer.Source
}

// NewMessage implements Message.
func (m *BuzzerOverride) NewMessage() fx.Message { return &BuzzerOverride{} }

// Monitor wires the sensor to the outputs.
type Monitor struct {
	Sensor    oximeter.Sensor
	Panel     display.Panel
	Console   Console
	Dashboard Dashboard
	Buzzer    *buzzer.Buzzer
	// Registrar receives remote events, optional.
	Registrar remote.Registrar

	ReportPeriod time.Duration
	Clock        fx.Clock

	sensorState  string
	reading      oximeter.Reading
	temperature  float32
	lastReport   time.Time
	pendingBeats int
	beats        uint64
	reports      uint64
	override     *BuzzerOverride
	lastStatus   msgs.Status
}

// New creates a Monitor.
func New(sensor oximeter.Sensor, panel display.Panel, console Console, dash Dashboard, bz *buzzer.Buzzer) *Monitor {
	return &Monitor{
		Sensor:       sensor,
		Panel:        panel,
		Console:      console,
		Dashboard:    dash,
		Buzzer:       bz,
		ReportPeriod: DefaultReportPeriod,
		Clock:        fx.SystemClock,
		sensorState:  SensorStateInit,
	}
}

// Setup runs the initialization sequence. It returns ErrSensorInit
// after showing FAILED if the sensor can't be initialized.
func (m *Monitor) Setup(ctx context.Context) error {
	m.Panel.Clear()
	m.Panel.SetCursor(0, 0)
	m.Panel.Println("Initializing pulse oximeter..")
	m.display()

	if err := m.Buzzer.Begin(); err != nil {
		return fmt.Errorf("buzzer init error: %v", err)
	}

	if err := m.Dashboard.Begin(ctx); err != nil {
		return fmt.Errorf("dashboard init error: %v", err)
	}

	m.Console.Print("Initializing Pulse Oximeter..")
	if err := m.Sensor.Begin(); err != nil {
		glog.Errorf("sensor begin error: %v", err)
		m.sensorState = SensorStateFailed
		m.Console.Println("FAILED")
		m.Panel.Clear()
		m.Panel.SetCursor(0, 0)
		m.Panel.Println("FAILED")
		m.display()
		return ErrSensorInit
	}
	m.sensorState = SensorStateReady
	m.Console.Println("SUCCESS")
	m.Panel.Clear()
	m.Panel.Println("SUCCESS")
	m.display()
	m.Sensor.OnBeat(func() { m.pendingBeats++ })
	m.lastReport = m.Clock.Now()
	return nil
}

// Run performs Setup and runs the loop. When the sensor fails, the loop
// is never started and Run blocks until ctx is done.
func (m *Monitor) Run(ctx context.Context, loop *fx.Loop) error {
	if err := m.Setup(ctx); err != nil {
		if err == ErrSensorInit {
			glog.Error("halted")
			<-ctx.Done()
		}
		return err
	}
	loop.Add(m)
	return loop.Run(ctx)
}

// AddToLoop implements LoopAdder.
func (m *Monitor) AddToLoop(l *fx.Loop) {
	m.Dashboard.OnWrite(PinBuzzer, func(pin dashboard.Pin, p dashboard.Param) {
		l.PostMessage(&BuzzerOverride{On: p.AsBool(), Source: buzzer.SourceDashboard})
		l.TriggerNext()
	})
	l.AddController(fx.PrLvSense, fx.ControlFunc(m.sense))
	l.AddController(fx.PrLvControl, fx.ControlFunc(m.handleCommands))
	// overrides go first, a report re-applies the threshold.
	l.AddController(fx.PrLvActuate, fx.ControlFunc(m.actuate), fx.ControlFunc(m.report))
	l.AddController(fx.PrLvPostProc, fx.ControlFunc(m.notifyStatus))
}

// Reading returns the latest latched reading.
func (m *Monitor) Reading() oximeter.Reading {
	return m.reading
}

// Status returns the current status.
func (m *Monitor) Status() *msgs.Status {
	return &msgs.Status{
		Sensor:       m.sensorState,
		HeartRate:    m.reading.HeartRate,
		Spo2:         m.reading.SpO2,
		Buzzer:       m.Buzzer.On(),
		BuzzerSource: m.Buzzer.Source().String(),
		Beats:        m.beats,
		Reports:      m.reports,
		Temperature:  m.temperature,
	}
}

func (m *Monitor) sense(cc fx.ControlContext) error {
	if m.sensorState != SensorStateReady {
		m.reading = oximeter.Reading{Time: cc.Time()}
		return nil
	}
	err := m.Sensor.Update()
	for ; m.pendingBeats > 0; m.pendingBeats-- {
		m.beat(cc)
	}
	m.reading = oximeter.ReadingOf(m.Sensor, cc.Time())
	if err != nil {
		return fmt.Errorf("sensor update error: %v", err)
	}
	return nil
}

func (m *Monitor) beat(cc fx.ControlContext) {
	m.beats++
	m.Console.Println("Beat Detected!")
	display.DrawHeart(m.Panel)
	m.display()
	m.sendEvent(cc, &msgs.Beat{Count: m.beats, Timestamp: unixMillis(cc.Time())})
}

func (m *Monitor) report(cc fx.ControlContext) error {
	now := cc.Time()
	if now.Sub(m.lastReport) <= m.ReportPeriod {
		return nil
	}
	bpm, spo2 := m.reading.HeartRate, m.reading.SpO2
	m.Console.Println(fmt.Sprintf("Heart rate:%.2f bpm / SpO2:%.2f %%", bpm, spo2))

	var errs fx.AggregatedError
	errs.Add(m.Buzzer.ApplyThreshold(bpm))
	m.readTemperature()

	if err := m.Dashboard.VirtualWrite(PinHeartRate, bpm); err != nil {
		glog.Warningf("dashboard write %s error: %v", PinHeartRate, err)
	}
	if err := m.Dashboard.VirtualWrite(PinSpO2, spo2); err != nil {
		glog.Warningf("dashboard write %s error: %v", PinSpO2, err)
	}

	m.Panel.Clear()
	m.Panel.SetCursor(0, 0)
	m.Panel.Println("Heart BPM")
	m.Panel.Println(fmt.Sprintf("%.2f", bpm))
	m.Panel.Println("Spo2")
	m.Panel.Println(fmt.Sprintf("%.2f", spo2))
	m.display()

	m.lastReport = now
	m.reports++
	m.sendEvent(cc, &msgs.Reading{HeartRate: bpm, Spo2: spo2, Timestamp: unixMillis(now)})
	return errs.Aggregate()
}

func (m *Monitor) handleCommands(cc fx.ControlContext) error {
	var errs fx.AggregatedError
	cc.Messages().ProcessMessages(fx.ProcessMessageFunc(func(mctx fx.MessageProcessingContext) {
		switch msg := mctx.CurrentMessage().(type) {
		case *BuzzerOverride:
			mctx.MessageTaken()
			m.override = msg
		case *remote.CommandMsg:
			switch cmd := msg.Command.Msg().(type) {
			case *msgs.StatusQuery:
				mctx.MessageTaken()
				errs.Add(msg.Command.Done(&msgs.StatusReply{Status: m.Status()}))
			case *msgs.BuzzerSet:
				mctx.MessageTaken()
				m.override = &BuzzerOverride{On: cmd.On, Source: buzzer.SourceCommand}
				errs.Add(msg.Command.Done(msgs.NewCommandOK()))
			case *msgs.SensorPower:
				mctx.MessageTaken()
				errs.Add(msg.Command.Done(replyOf(m.setSensorPower(cmd.On))))
			case *msgs.SensorReset:
				mctx.MessageTaken()
				errs.Add(msg.Command.Done(replyOf(m.resetSensor())))
			case *msgs.SimulateSet:
				mctx.MessageTaken()
				errs.Add(msg.Command.Done(replyOf(m.simulate(cmd.Bpm, cmd.Spo2))))
			}
		}
	}))
	return errs.Aggregate()
}

func (m *Monitor) setSensorPower(on bool) error {
	ps, ok := m.Sensor.(oximeter.PowerSaver)
	if !ok {
		return ErrNotSupported
	}
	switch {
	case m.sensorState == SensorStateFailed:
		return ErrSensorInit
	case on:
		if err := ps.Resume(); err != nil {
			return err
		}
		m.sensorState = SensorStateReady
	default:
		if err := ps.Shutdown(); err != nil {
			return err
		}
		m.sensorState = SensorStateStandby
	}
	return nil
}

// resetSensor leaves the sensor failed if it can't be initialized again.
func (m *Monitor) resetSensor() error {
	r, ok := m.Sensor.(oximeter.Resetter)
	if !ok {
		return ErrNotSupported
	}
	if err := r.Reset(); err != nil {
		return err
	}
	m.pendingBeats = 0
	if err := m.Sensor.Begin(); err != nil {
		glog.Errorf("sensor begin after reset error: %v", err)
		m.sensorState = SensorStateFailed
		return ErrSensorInit
	}
	m.sensorState = SensorStateReady
	return nil
}

func (m *Monitor) simulate(bpm, spo2 float32) error {
	sim, ok := m.Sensor.(oximeter.Simulated)
	if !ok {
		return ErrNotSupported
	}
	if bpm < 0 || spo2 < 0 || spo2 > 100 {
		return fmt.Errorf("invalid simulated reading %v bpm, %v%%", bpm, spo2)
	}
	sim.SetBPM(bpm)
	if spo2 > 0 {
		sim.SetSpO2(spo2)
	}
	return nil
}

func (m *Monitor) readTemperature() {
	th, ok := m.Sensor.(oximeter.Thermometer)
	if !ok || m.sensorState != SensorStateReady {
		return
	}
	t, err := th.ReadTemperature()
	if err != nil {
		glog.Warningf("read temperature error: %v", err)
		return
	}
	m.temperature = float32(t.Celsius())
}

func replyOf(err error) fx.Message {
	if err != nil {
		return msgs.NewCommandErr(err)
	}
	return msgs.NewCommandOK()
}

func (m *Monitor) actuate(cc fx.ControlContext) error {
	o := m.override
	if o == nil {
		return nil
	}
	m.override = nil
	glog.V(1).Infof("buzzer override on=%v by %s", o.On, o.Source)
	return m.Buzzer.Set(o.On, o.Source)
}

func (m *Monitor) notifyStatus(cc fx.ControlContext) error {
	status := m.Status()
	if *status == m.lastStatus {
		return nil
	}
	m.lastStatus = *status
	m.sendEvent(cc, status)
	return nil
}

func (m *Monitor) sendEvent(cc fx.ControlContext, msg fx.Message) {
	if m.Registrar == nil {
		return
	}
	if err := m.Registrar.SendEvent(cc.Context(), msg); err != nil {
		glog.Warningf("send event error: %v", err)
	}
}

func (m *Monitor) display() {
	if err := m.Panel.Display(); err != nil {
		glog.Warningf("display error: %v", err)
	}
}

func unixMillis(t time.Time) int64 {
	return t.UnixNano() / int64(time.Millisecond)
}
