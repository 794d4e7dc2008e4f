package sh

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	fx "github.com/robotalks/pulseox/pkg/framework"
	"github.com/robotalks/pulseox/pkg/remote"
	"github.com/robotalks/pulseox/pkg/remote/msgs"
)

type fakeFuture chan remote.Result

func (f fakeFuture) ResultChan() <-chan remote.Result { return f }

type fakeConn struct {
	events  chan fx.Message
	replies map[string]remote.Result
}

func (c *fakeConn) DoCommand(msg fx.Message) remote.CommandFuture {
	f := make(fakeFuture, 1)
	if res, ok := c.replies[FormatMessage(msg)]; ok {
		f <- res
	}
	return f
}

func (c *fakeConn) Events() <-chan fx.Message { return c.events }

var testRef = remote.DeviceRef{Type: "pulseox", ID: "dev1"}

func newTestSession() (*Session, *fakeConn) {
	conn := &fakeConn{
		events:  make(chan fx.Message, 4),
		replies: make(map[string]remote.Result),
	}
	ctx, cancel := context.WithCancel(context.Background())
	return newSession(ctx, cancel, testRef, conn), conn
}

func TestSessionEvents(t *testing.T) {
	s, conn := newTestSession()
	defer s.Close()

	statusCh := make(chan msgs.Status, 4)
	s.OnStatus(func(st msgs.Status) { statusCh <- st })
	assert.Nil(t, s.Status())

	// events arriving before watch are consumed, not replayed.
	conn.events <- &msgs.Beat{Count: 1}
	conn.events <- &msgs.Status{Sensor: "ready", HeartRate: 72}
	select {
	case st := <-statusCh:
		assert.Equal(t, float32(72), st.HeartRate)
	case <-time.After(time.Second):
		t.Fatal("status not received")
	}
	require.NotNil(t, s.Status())
	assert.Equal(t, "ready", s.Status().Sensor)

	watched := make(chan fx.Message, 4)
	stop := s.Watch(watched)
	conn.events <- &msgs.Reading{HeartRate: 75, Spo2: 97}
	select {
	case msg := <-watched:
		reading, ok := msg.(*msgs.Reading)
		require.True(t, ok)
		assert.Equal(t, float32(75), reading.HeartRate)
	case <-time.After(time.Second):
		t.Fatal("reading not forwarded")
	}
	assert.Equal(t, float32(97), s.LastReading().Spo2)

	stop()
	conn.events <- &msgs.Beat{Count: 2}
	conn.events <- &msgs.Status{Sensor: "standby"}
	<-statusCh
	select {
	case msg := <-watched:
		t.Fatalf("unexpected event %v", msg)
	default:
	}
}

func TestSessionDo(t *testing.T) {
	s, conn := newTestSession()
	defer s.Close()
	query := &msgs.StatusQuery{}
	conn.replies[FormatMessage(query)] = remote.Result{
		Msg: &msgs.StatusReply{Status: &msgs.Status{Sensor: "ready", Buzzer: true}},
	}
	reply, err := s.Do(query)
	require.NoError(t, err)
	assert.IsType(t, &msgs.StatusReply{}, reply)
	require.NotNil(t, s.Status())
	assert.True(t, s.Status().Buzzer)

	set := &msgs.BuzzerSet{On: true}
	conn.replies[FormatMessage(set)] = remote.Result{Err: msgs.NewCommandErrFromMsg("unsupported command")}
	_, err = s.Do(set)
	assert.EqualError(t, err, "unsupported command")

	_, err = s.Do(&msgs.SensorReset{})
	assert.Equal(t, context.DeadlineExceeded, err)
}

func TestSessionClose(t *testing.T) {
	s, _ := newTestSession()
	s.Close()
	select {
	case <-s.Done():
	default:
		t.Fatal("session not done")
	}
	_, err := s.Do(&msgs.StatusQuery{})
	assert.Equal(t, context.Canceled, err)
}

func TestPrompt(t *testing.T) {
	assert.Equal(t, "dev1 > ", Prompt(testRef, nil))
	assert.Equal(t, "dev1 [failed] > ", Prompt(testRef, &msgs.Status{Sensor: "failed"}))
	assert.Equal(t, "dev1 [72 bpm 97%] > ",
		Prompt(testRef, &msgs.Status{Sensor: "ready", HeartRate: 72.4, Spo2: 97.2}))
	assert.Equal(t, "dev1 [130 bpm 95% !] > ",
		Prompt(testRef, &msgs.Status{Sensor: "ready", HeartRate: 130, Spo2: 95, Buzzer: true}))
}

func TestFormatMessage(t *testing.T) {
	assert.Equal(t, "OK", FormatMessage(msgs.NewCommandOK()))
	assert.Equal(t,
		"sensor ready, 72.00 bpm, SpO2 97.50 %, 33.0°C, buzzer on (command), 3 beats, 1 reports",
		FormatMessage(&msgs.StatusReply{Status: &msgs.Status{
			Sensor: "ready", HeartRate: 72, Spo2: 97.5, Temperature: 33,
			Buzzer: true, BuzzerSource: "command", Beats: 3, Reports: 1,
		}}))
	assert.Contains(t, FormatMessage(&msgs.Beat{Count: 7}), "beat #7")
	simulate := FormatMessage(&msgs.SimulateSet{Bpm: 60})
	assert.Contains(t, simulate, "SimulateSet")
	assert.Contains(t, simulate, "bpm:60")
	assert.Equal(t, "dev1: Pulse oximeter", FormatInfo(remote.DeviceInfo{
		Ref:  testRef,
		Meta: remote.DeviceMeta{Description: "Pulse oximeter"},
	}))
}
