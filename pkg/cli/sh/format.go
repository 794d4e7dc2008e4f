package sh

import (
	"bytes"
	"fmt"
	"reflect"
	"time"

	fx "github.com/robotalks/pulseox/pkg/framework"
	"github.com/robotalks/pulseox/pkg/remote"
	"github.com/robotalks/pulseox/pkg/remote/msgs"
)

// sensorReady is the sensor state of a measuring device.
const sensorReady = "ready"

// FormatInfo prints DeviceInfo into friendly string for display.
func FormatInfo(info remote.DeviceInfo) string {
	var w bytes.Buffer
	fmt.Fprintf(&w, "%s", info.Ref.ID)
	if info.Meta.Description != "" {
		fmt.Fprintf(&w, ": %s", info.Meta.Description)
	}
	return w.String()
}

// FormatStatus prints the status in one line.
func FormatStatus(st *msgs.Status) string {
	var w bytes.Buffer
	fmt.Fprintf(&w, "sensor %s, %.2f bpm, SpO2 %.2f %%", st.Sensor, st.HeartRate, st.Spo2)
	if st.Temperature != 0 {
		fmt.Fprintf(&w, ", %.1f°C", st.Temperature)
	}
	buzzer := "off"
	if st.Buzzer {
		buzzer = "on"
	}
	fmt.Fprintf(&w, ", buzzer %s (%s), %d beats, %d reports",
		buzzer, st.BuzzerSource, st.Beats, st.Reports)
	return w.String()
}

// FormatMessage prints replies and events for display.
func FormatMessage(msg fx.Message) string {
	switch m := msg.(type) {
	case *msgs.CommandOK:
		return "OK"
	case *msgs.StatusReply:
		if m.Status == nil {
			return "no status"
		}
		return FormatStatus(m.Status)
	case *msgs.Status:
		return "status: " + FormatStatus(m)
	case *msgs.Reading:
		return fmt.Sprintf("%s reading: %.2f bpm, SpO2 %.2f %%",
			millisTime(m.Timestamp), m.HeartRate, m.Spo2)
	case *msgs.Beat:
		return fmt.Sprintf("%s beat #%d", millisTime(m.Timestamp), m.Count)
	case msgs.SerializableMessage:
		return fmt.Sprintf("%s %s",
			reflect.Indirect(reflect.ValueOf(msg)).Type().Name(),
			m.Serializable().String())
	}
	return fmt.Sprintf("%T", msg)
}

// Prompt reflects the device status, st can be nil before it's known.
func Prompt(ref remote.DeviceRef, st *msgs.Status) string {
	if st == nil {
		return ref.ID + " > "
	}
	if st.Sensor != sensorReady {
		return fmt.Sprintf("%s [%s] > ", ref.ID, st.Sensor)
	}
	alarm := ""
	if st.Buzzer {
		alarm = " !"
	}
	return fmt.Sprintf("%s [%.0f bpm %.0f%%%s] > ", ref.ID, st.HeartRate, st.Spo2, alarm)
}

func millisTime(ms int64) string {
	return time.Unix(0, ms*int64(time.Millisecond)).Format("15:04:05.000")
}
