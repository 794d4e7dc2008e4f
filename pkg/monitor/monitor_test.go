package monitor

import (
	"bytes"
	"context"
	"errors"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpiotest"

	"github.com/robotalks/pulseox/pkg/buzzer"
	"github.com/robotalks/pulseox/pkg/console"
	"github.com/robotalks/pulseox/pkg/dashboard"
	"github.com/robotalks/pulseox/pkg/display"
	fx "github.com/robotalks/pulseox/pkg/framework"
	"github.com/robotalks/pulseox/pkg/remote"
	"github.com/robotalks/pulseox/pkg/remote/msgs"
	"github.com/robotalks/pulseox/pkg/sim"
)

type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time { return c.now }

func (c *fakeClock) advance(d time.Duration) { c.now = c.now.Add(d) }

type fakeSensor struct {
	beginErr  error
	hr, spo2  float32
	beatsNext int
	updates   int
	onBeat    func()
}

func (s *fakeSensor) Begin() error { return s.beginErr }

func (s *fakeSensor) Update() error {
	s.updates++
	for ; s.beatsNext > 0; s.beatsNext-- {
		if s.onBeat != nil {
			s.onBeat()
		}
	}
	return nil
}

func (s *fakeSensor) HeartRate() float32 { return s.hr }
func (s *fakeSensor) SpO2() float32      { return s.spo2 }
func (s *fakeSensor) OnBeat(fn func())   { s.onBeat = fn }
func (s *fakeSensor) Close() error       { return nil }

type bitmapCall struct {
	x, y, w, h int
}

type recordingPanel struct {
	*display.Memory
	lines   []string
	bitmaps []bitmapCall
}

func (p *recordingPanel) Clear() {
	p.Memory.Clear()
	p.lines = nil
	p.bitmaps = nil
}

func (p *recordingPanel) Println(s string) {
	p.Memory.Println(s)
	p.lines = append(p.lines, s)
}

func (p *recordingPanel) DrawBitmap(x, y int, bmp []byte, w, h int) {
	p.Memory.DrawBitmap(x, y, bmp, w, h)
	p.bitmaps = append(p.bitmaps, bitmapCall{x: x, y: y, w: w, h: h})
}

type recordingRegistrar struct {
	events []fx.Message
}

func (r *recordingRegistrar) SendEvent(ctx context.Context, msg fx.Message) error {
	r.events = append(r.events, msg)
	return nil
}

func (r *recordingRegistrar) last(typ fx.Message) fx.Message {
	for n := len(r.events) - 1; n >= 0; n-- {
		if sameType(r.events[n], typ) {
			return r.events[n]
		}
	}
	return nil
}

func (r *recordingRegistrar) count(typ fx.Message) int {
	n := 0
	for _, ev := range r.events {
		if sameType(ev, typ) {
			n++
		}
	}
	return n
}

func sameType(a, b fx.Message) bool {
	return reflect.TypeOf(a) == reflect.TypeOf(b)
}

type testCommand struct {
	msg   fx.Message
	reply fx.Message
}

func (c *testCommand) Msg() fx.Message { return c.msg }

func (c *testCommand) Done(msg fx.Message) error {
	c.reply = msg
	return nil
}

type testEnv struct {
	clock  *fakeClock
	sensor *fakeSensor
	panel  *recordingPanel
	out    *bytes.Buffer
	dash   *dashboard.Offline
	pin    *gpiotest.Pin
	reg    *recordingRegistrar
	mon    *Monitor
	loop   *fx.Loop
}

func newTestEnv() *testEnv {
	e := &testEnv{
		clock:  &fakeClock{now: time.Unix(1000, 0)},
		sensor: &fakeSensor{},
		panel:  &recordingPanel{Memory: display.NewMemory(128, 64)},
		out:    &bytes.Buffer{},
		dash:   dashboard.NewOffline(),
		pin:    &gpiotest.Pin{N: "buzzer"},
		reg:    &recordingRegistrar{},
		loop:   fx.NewLoop(),
	}
	e.mon = New(e.sensor, e.panel, console.New(e.out), e.dash, buzzer.New(e.pin))
	e.mon.Clock = e.clock
	e.mon.Registrar = e.reg
	e.loop.Clock = e.clock
	return e
}

func (e *testEnv) setup(t *testing.T) {
	require.NoError(t, e.mon.Setup(context.Background()))
	e.loop.Add(e.mon)
}

func (e *testEnv) iterate(d time.Duration) {
	e.clock.advance(d)
	e.loop.Iterate(context.Background())
}

func TestSetup(t *testing.T) {
	e := newTestEnv()
	e.pin.L = gpio.High
	e.setup(t)
	assert.Equal(t, "Initializing Pulse Oximeter..SUCCESS\r\n", e.out.String())
	assert.Equal(t, []string{"SUCCESS"}, e.panel.lines)
	assert.Equal(t, 2, e.panel.Frames)
	assert.Equal(t, gpio.Low, e.pin.Read())
	assert.Equal(t, SensorStateReady, e.mon.Status().Sensor)
	assert.NotNil(t, e.sensor.onBeat)
}

func TestSetupSensorFailure(t *testing.T) {
	e := newTestEnv()
	e.sensor.beginErr = errors.New("no device")
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	start := time.Now()
	err := e.mon.Run(ctx, e.loop)
	assert.Equal(t, ErrSensorInit, err)
	assert.True(t, time.Since(start) >= 50*time.Millisecond)

	assert.Equal(t, "Initializing Pulse Oximeter..FAILED\r\n", e.out.String())
	assert.Equal(t, []string{"FAILED"}, e.panel.lines)
	assert.Equal(t, SensorStateFailed, e.mon.Status().Sensor)
	assert.Zero(t, e.sensor.updates)
	_, reported := e.dash.Value(PinHeartRate)
	assert.False(t, reported)
	assert.Nil(t, e.sensor.onBeat)
}

func TestReportPeriod(t *testing.T) {
	e := newTestEnv()
	e.setup(t)
	e.sensor.hr, e.sensor.spo2 = 72, 97

	e.iterate(time.Second)
	assert.Zero(t, e.mon.reports, "exactly one period is not enough")
	e.iterate(time.Millisecond)
	assert.Equal(t, uint64(1), e.mon.reports)
	e.iterate(500 * time.Millisecond)
	assert.Equal(t, uint64(1), e.mon.reports)
	e.iterate(500 * time.Millisecond)
	assert.Equal(t, uint64(1), e.mon.reports)
	e.iterate(time.Millisecond)
	assert.Equal(t, uint64(2), e.mon.reports)
	assert.Equal(t, 5, e.sensor.updates)

	assert.Equal(t, 2, strings.Count(e.out.String(), "Heart rate:72.00 bpm / SpO2:97.00 %\r\n"))
	assert.Equal(t, []string{"Heart BPM", "72.00", "Spo2", "97.00"}, e.panel.lines)
	val, _ := e.dash.Value(PinHeartRate)
	assert.Equal(t, "72", val)
	val, _ = e.dash.Value(PinSpO2)
	assert.Equal(t, "97", val)

	reading := e.reg.last(&msgs.Reading{}).(*msgs.Reading)
	assert.Equal(t, float32(72), reading.HeartRate)
	assert.Equal(t, float32(97), reading.Spo2)
	assert.Equal(t, e.clock.now.UnixNano()/int64(time.Millisecond), reading.Timestamp)
}

func TestBuzzerThreshold(t *testing.T) {
	e := newTestEnv()
	e.setup(t)
	cases := []struct {
		hr float32
		on bool
	}{
		{72, false},
		{120, true},
		{119.5, false},
		{180, true},
		{0, false},
	}
	for _, c := range cases {
		e.sensor.hr = c.hr
		e.iterate(1100 * time.Millisecond)
		assert.Equal(t, gpio.Level(c.on), e.pin.Read(), "hr %v", c.hr)
		assert.Equal(t, buzzer.SourceThreshold, e.mon.Buzzer.Source())
	}
}

func TestBeat(t *testing.T) {
	e := newTestEnv()
	e.setup(t)
	e.sensor.hr = 75
	e.sensor.beatsNext = 2
	e.iterate(10 * time.Millisecond)

	assert.Equal(t, 2, strings.Count(e.out.String(), "Beat Detected!\r\n"))
	require.Len(t, e.panel.bitmaps, 2)
	assert.Equal(t, bitmapCall{x: 60, y: 20, w: 28, h: 28}, e.panel.bitmaps[0])
	assert.True(t, e.panel.Pixel(67, 21))
	assert.Equal(t, 2, e.reg.count(&msgs.Beat{}))
	beat := e.reg.last(&msgs.Beat{}).(*msgs.Beat)
	assert.Equal(t, uint64(2), beat.Count)
	assert.Equal(t, uint64(2), e.mon.Status().Beats)

	// a report clears the panel and the heart.
	e.iterate(time.Second)
	assert.Empty(t, e.panel.bitmaps)
	assert.False(t, e.panel.Pixel(67, 21))
}

func TestDashboardOverride(t *testing.T) {
	e := newTestEnv()
	e.setup(t)
	e.sensor.hr = 80

	e.dash.Inject(PinBuzzer, "1")
	e.iterate(10 * time.Millisecond)
	assert.Equal(t, gpio.High, e.pin.Read())
	assert.Equal(t, buzzer.SourceDashboard, e.mon.Buzzer.Source())

	e.iterate(500 * time.Millisecond)
	assert.Equal(t, gpio.High, e.pin.Read(), "override holds until next report")

	e.iterate(600 * time.Millisecond)
	assert.Equal(t, gpio.Low, e.pin.Read())
	assert.Equal(t, buzzer.SourceThreshold, e.mon.Buzzer.Source())

	e.sensor.hr = 130
	e.iterate(1100 * time.Millisecond)
	require.Equal(t, gpio.High, e.pin.Read())
	e.dash.Inject(PinBuzzer, "0")
	e.iterate(10 * time.Millisecond)
	assert.Equal(t, gpio.Low, e.pin.Read())
}

func TestDashboardOverrideOnReport(t *testing.T) {
	e := newTestEnv()
	e.setup(t)
	e.sensor.hr = 80
	e.iterate(900 * time.Millisecond)
	require.Zero(t, e.mon.reports)

	e.dash.Inject(PinBuzzer, "1")
	e.iterate(200 * time.Millisecond)
	assert.Equal(t, uint64(1), e.mon.reports)
	assert.Equal(t, gpio.Low, e.pin.Read())
	assert.Equal(t, buzzer.SourceThreshold, e.mon.Buzzer.Source())
}

func TestRemoteCommands(t *testing.T) {
	e := newTestEnv()
	e.setup(t)
	e.sensor.hr, e.sensor.spo2 = 90, 98
	e.iterate(1100 * time.Millisecond)

	query := &testCommand{msg: &msgs.StatusQuery{}}
	set := &testCommand{msg: &msgs.BuzzerSet{On: true}}
	unknown := &testCommand{msg: &msgs.Beat{}}
	e.loop.PostMessage(&remote.CommandMsg{Command: query})
	e.loop.PostMessage(&remote.CommandMsg{Command: set})
	e.loop.PostMessage(&remote.CommandMsg{Command: unknown})
	e.iterate(10 * time.Millisecond)

	reply, ok := query.reply.(*msgs.StatusReply)
	require.True(t, ok)
	assert.Equal(t, SensorStateReady, reply.Status.Sensor)
	assert.Equal(t, float32(90), reply.Status.HeartRate)
	assert.Equal(t, float32(98), reply.Status.Spo2)
	assert.Equal(t, uint64(1), reply.Status.Reports)
	assert.False(t, reply.Status.Buzzer)

	assert.IsType(t, &msgs.CommandOK{}, set.reply)
	assert.Equal(t, gpio.High, e.pin.Read())
	assert.Equal(t, buzzer.SourceCommand, e.mon.Buzzer.Source())
	assert.Nil(t, unknown.reply)

	status := e.reg.last(&msgs.Status{}).(*msgs.Status)
	assert.True(t, status.Buzzer)
	assert.Equal(t, "command", status.BuzzerSource)
}

func TestStatusOnChange(t *testing.T) {
	e := newTestEnv()
	e.setup(t)
	e.sensor.hr = 70
	e.iterate(10 * time.Millisecond)
	assert.Equal(t, 1, e.reg.count(&msgs.Status{}))
	e.iterate(10 * time.Millisecond)
	assert.Equal(t, 1, e.reg.count(&msgs.Status{}))
	e.sensor.hr = 71
	e.iterate(10 * time.Millisecond)
	assert.Equal(t, 2, e.reg.count(&msgs.Status{}))
}

func TestConfigApply(t *testing.T) {
	conf := NewConfig()
	conf.ReportPeriod = 2 * time.Second
	m := conf.Apply(New(nil, nil, nil, nil, nil))
	assert.Equal(t, 2*time.Second, m.ReportPeriod)
}

func (e *testEnv) command(msg fx.Message) fx.Message {
	cmd := &testCommand{msg: msg}
	e.loop.PostMessage(&remote.CommandMsg{Command: cmd})
	e.iterate(10 * time.Millisecond)
	return cmd.reply
}

func TestSensorCommandsNotSupported(t *testing.T) {
	e := newTestEnv()
	e.setup(t)
	for _, msg := range []fx.Message{
		&msgs.SensorPower{},
		&msgs.SensorReset{},
		&msgs.SimulateSet{Bpm: 60},
	} {
		reply, ok := e.command(msg).(*msgs.CommandErr)
		require.True(t, ok, "%T", msg)
		assert.Equal(t, ErrNotSupported.Error(), reply.Message)
	}
}

func TestSensorCommands(t *testing.T) {
	e := newTestEnv()
	oxi := sim.NewOximeter(60, 97)
	oxi.Clock = e.clock.Now
	e.mon.Sensor = oxi
	e.setup(t)

	e.iterate(1100 * time.Millisecond)
	status := e.mon.Status()
	assert.Equal(t, float32(60), status.HeartRate)
	assert.InDelta(t, 33, status.Temperature, 0.01)

	assert.IsType(t, &msgs.CommandOK{}, e.command(&msgs.SimulateSet{Bpm: 130, Spo2: 95}))
	e.iterate(time.Second)
	assert.Equal(t, float32(130), e.mon.Reading().HeartRate)
	assert.Equal(t, float32(95), e.mon.Reading().SpO2)
	assert.Equal(t, gpio.High, e.pin.Read())
	assert.IsType(t, &msgs.CommandErr{}, e.command(&msgs.SimulateSet{Bpm: -1}))

	assert.IsType(t, &msgs.CommandOK{}, e.command(&msgs.SensorPower{On: false}))
	assert.Equal(t, SensorStateStandby, e.mon.Status().Sensor)
	e.iterate(time.Second)
	assert.Zero(t, e.mon.Reading().HeartRate)
	assert.Equal(t, gpio.Low, e.pin.Read())

	assert.IsType(t, &msgs.CommandOK{}, e.command(&msgs.SensorPower{On: true}))
	assert.Equal(t, SensorStateReady, e.mon.Status().Sensor)
	e.iterate(time.Second)
	assert.Equal(t, float32(130), e.mon.Reading().HeartRate)

	assert.IsType(t, &msgs.CommandOK{}, e.command(&msgs.SensorReset{}))
	assert.Equal(t, SensorStateReady, e.mon.Status().Sensor)

	oxi.FailBegin = true
	reply, ok := e.command(&msgs.SensorReset{}).(*msgs.CommandErr)
	require.True(t, ok)
	assert.Equal(t, ErrSensorInit.Error(), reply.Message)
	assert.Equal(t, SensorStateFailed, e.mon.Status().Sensor)
	assert.IsType(t, &msgs.CommandErr{}, e.command(&msgs.SensorPower{On: true}))
	status = e.reg.last(&msgs.Status{}).(*msgs.Status)
	assert.Equal(t, SensorStateFailed, status.Sensor)
}
