package msgs

import (
	"github.com/golang/protobuf/proto"

	fx "github.com/robotalks/pulseox/pkg/framework"
)

// TypeID Groups
const (
	GroupCommand  uint32 = 0x00000000
	GroupOximeter uint32 = 0x00030000
)

// TypeIDs
const (
	CommandOKTypeID   uint32 = GroupCommand | TypeIDMaskReply | 0x0000
	CommandErrTypeID  uint32 = GroupCommand | TypeIDMaskReply | 0x0001
	StatusQueryTypeID uint32 = GroupOximeter | 0x0000
	StatusReplyTypeID uint32 = StatusQueryTypeID | TypeIDMaskReply
	BuzzerSetTypeID   uint32 = GroupOximeter | 0x0001
	SensorPowerTypeID uint32 = GroupOximeter | 0x0002
	SensorResetTypeID uint32 = GroupOximeter | 0x0003
	SimulateSetTypeID uint32 = GroupOximeter | 0x0004
	StatusTypeID      uint32 = GroupOximeter | TypeIDKindEvent | 0x0000
	ReadingTypeID     uint32 = GroupOximeter | TypeIDKindEvent | 0x0001
	BeatTypeID        uint32 = GroupOximeter | TypeIDKindEvent | 0x0002
)

func init() {
	Register(
		(*CommandOK)(nil),
		(*CommandErr)(nil),
		(*StatusQuery)(nil),
		(*StatusReply)(nil),
		(*BuzzerSet)(nil),
		(*SensorPower)(nil),
		(*SensorReset)(nil),
		(*SimulateSet)(nil),
		(*Status)(nil),
		(*Reading)(nil),
		(*Beat)(nil),
	)
}

// CommandOK is the generic reply indicating success for commands.
type CommandOK struct {
}

// NewCommandOK creates a CommandOK.
func NewCommandOK() *CommandOK {
	return &CommandOK{}
}

// NewMessage implements Message.
func (m *CommandOK) NewMessage() fx.Message { return &CommandOK{} }

// TypeID implements SerializableMessage.
func (m *CommandOK) TypeID() uint32 { return CommandOKTypeID }

// Serializable implements SerializableMessage.
func (m *CommandOK) Serializable() proto.Message { return m }

// ProtoMessage implements proto.Message.
func (m *CommandOK) ProtoMessage() {}

// Reset implements proto.Message.
func (m *CommandOK) Reset() { *m = CommandOK{} }

// String implements proto.Message.
func (m *CommandOK) String() string { return proto.CompactTextString(m) }

// CommandErr is the generic reply representing command error.
type CommandErr struct {
	Message string `protobuf:"bytes,1,opt,name=message,proto3" json:"message,omitempty"`
}

// NewCommandErr creates a CommandErr from an error.
func NewCommandErr(err error) *CommandErr {
	return NewCommandErrFromMsg(err.Error())
}

// NewCommandErrFromMsg creates a CommandErr.
func NewCommandErrFromMsg(message string) *CommandErr {
	return &CommandErr{Message: message}
}

// NewMessage implements Message.
func (m *CommandErr) NewMessage() fx.Message { return &CommandErr{} }

// TypeID implements SerializableMessage.
func (m *CommandErr) TypeID() uint32 { return CommandErrTypeID }

// Serializable implements SerializableMessage.
func (m *CommandErr) Serializable() proto.Message { return m }

// ProtoMessage implements proto.Message.
func (m *CommandErr) ProtoMessage() {}

// Reset implements proto.Message.
func (m *CommandErr) Reset() { *m = CommandErr{} }

// String implements proto.Message.
func (m *CommandErr) String() string { return proto.CompactTextString(m) }

// Error implements error.
func (m *CommandErr) Error() string { return m.Message }

// StatusQuery asks the device for its current Status.
type StatusQuery struct {
}

// NewMessage implements Message.
func (m *StatusQuery) NewMessage() fx.Message { return &StatusQuery{} }

// TypeID implements SerializableMessage.
func (m *StatusQuery) TypeID() uint32 { return StatusQueryTypeID }

// Serializable implements SerializableMessage.
func (m *StatusQuery) Serializable() proto.Message { return m }

// ProtoMessage implements proto.Message.
func (m *StatusQuery) ProtoMessage() {}

// Reset implements proto.Message.
func (m *StatusQuery) Reset() { *m = StatusQuery{} }

// String implements proto.Message.
func (m *StatusQuery) String() string { return proto.CompactTextString(m) }

// StatusReply is the response for StatusQuery.
type StatusReply struct {
	Status *Status `protobuf:"bytes,1,opt,name=status,proto3" json:"status,omitempty"`
}

// NewMessage implements Message.
func (m *StatusReply) NewMessage() fx.Message { return &StatusReply{} }

// TypeID implements SerializableMessage.
func (m *StatusReply) TypeID() uint32 { return StatusReplyTypeID }

// Serializable implements SerializableMessage.
func (m *StatusReply) Serializable() proto.Message { return m }

// ProtoMessage implements proto.Message.
func (m *StatusReply) ProtoMessage() {}

// Reset implements proto.Message.
func (m *StatusReply) Reset() { *m = StatusReply{} }

// String implements proto.Message.
func (m *StatusReply) String() string { return proto.CompactTextString(m) }

// BuzzerSet overrides the buzzer until the next report.
type BuzzerSet struct {
	On bool `protobuf:"varint,1,opt,name=on,proto3" json:"on,omitempty"`
}

// NewMessage implements Message.
func (m *BuzzerSet) NewMessage() fx.Message { return &BuzzerSet{} }

// TypeID implements SerializableMessage.
func (m *BuzzerSet) TypeID() uint32 { return BuzzerSetTypeID }

// Serializable implements SerializableMessage.
func (m *BuzzerSet) Serializable() proto.Message { return m }

// ProtoMessage implements proto.Message.
func (m *BuzzerSet) ProtoMessage() {}

// Reset implements proto.Message.
func (m *BuzzerSet) Reset() { *m = BuzzerSet{} }

// String implements proto.Message.
func (m *BuzzerSet) String() string { return proto.CompactTextString(m) }

// SensorPower puts the sensor into standby or wakes it up.
type SensorPower struct {
	On bool `protobuf:"varint,1,opt,name=on,proto3" json:"on,omitempty"`
}

// NewMessage implements Message.
func (m *SensorPower) NewMessage() fx.Message { return &SensorPower{} }

// TypeID implements SerializableMessage.
func (m *SensorPower) TypeID() uint32 { return SensorPowerTypeID }

// Serializable implements SerializableMessage.
func (m *SensorPower) Serializable() proto.Message { return m }

// ProtoMessage implements proto.Message.
func (m *SensorPower) ProtoMessage() {}

// Reset implements proto.Message.
func (m *SensorPower) Reset() { *m = SensorPower{} }

// String implements proto.Message.
func (m *SensorPower) String() string { return proto.CompactTextString(m) }

// SensorReset performs a software reset of the sensor and initializes
// it again.
type SensorReset struct {
}

// NewMessage implements Message.
func (m *SensorReset) NewMessage() fx.Message { return &SensorReset{} }

// TypeID implements SerializableMessage.
func (m *SensorReset) TypeID() uint32 { return SensorResetTypeID }

// Serializable implements SerializableMessage.
func (m *SensorReset) Serializable() proto.Message { return m }

// ProtoMessage implements proto.Message.
func (m *SensorReset) ProtoMessage() {}

// Reset implements proto.Message.
func (m *SensorReset) Reset() { *m = SensorReset{} }

// String implements proto.Message.
func (m *SensorReset) String() string { return proto.CompactTextString(m) }

// SimulateSet changes the readings of a simulated sensor. Spo2 is
// left unchanged when 0.
type SimulateSet struct {
	Bpm  float32 `protobuf:"fixed32,1,opt,name=bpm,proto3" json:"bpm,omitempty"`
	Spo2 float32 `protobuf:"fixed32,2,opt,name=spo2,proto3" json:"spo2,omitempty"`
}

// NewMessage implements Message.
func (m *SimulateSet) NewMessage() fx.Message { return &SimulateSet{} }

// TypeID implements SerializableMessage.
func (m *SimulateSet) TypeID() uint32 { return SimulateSetTypeID }

// Serializable implements SerializableMessage.
func (m *SimulateSet) Serializable() proto.Message { return m }

// ProtoMessage implements proto.Message.
func (m *SimulateSet) ProtoMessage() {}

// Reset implements proto.Message.
func (m *SimulateSet) Reset() { *m = SimulateSet{} }

// String implements proto.Message.
func (m *SimulateSet) String() string { return proto.CompactTextString(m) }

// Status is an event reflecting the device status.
type Status struct {
	Sensor       string  `protobuf:"bytes,1,opt,name=sensor,proto3" json:"sensor,omitempty"`
	HeartRate    float32 `protobuf:"fixed32,2,opt,name=heart_rate,json=heartRate,proto3" json:"heart_rate,omitempty"`
	Spo2         float32 `protobuf:"fixed32,3,opt,name=spo2,proto3" json:"spo2,omitempty"`
	Buzzer       bool    `protobuf:"varint,4,opt,name=buzzer,proto3" json:"buzzer,omitempty"`
	BuzzerSource string  `protobuf:"bytes,5,opt,name=buzzer_source,json=buzzerSource,proto3" json:"buzzer_source,omitempty"`
	Beats        uint64  `protobuf:"varint,6,opt,name=beats,proto3" json:"beats,omitempty"`
	Reports      uint64  `protobuf:"varint,7,opt,name=reports,proto3" json:"reports,omitempty"`
	// Temperature is the sensor die temperature in Celsius, 0 if unknown.
	Temperature float32 `protobuf:"fixed32,8,opt,name=temperature,proto3" json:"temperature,omitempty"`
}

// NewMessage implements Message.
func (m *Status) NewMessage() fx.Message { return &Status{} }

// TypeID implements SerializableMessage.
func (m *Status) TypeID() uint32 { return StatusTypeID }

// Serializable implements SerializableMessage.
func (m *Status) Serializable() proto.Message { return m }

// ProtoMessage implements proto.Message.
func (m *Status) ProtoMessage() {}

// Reset implements proto.Message.
func (m *Status) Reset() { *m = Status{} }

// String implements proto.Message.
func (m *Status) String() string { return proto.CompactTextString(m) }

// Reading is published after every report.
type Reading struct {
	HeartRate float32 `protobuf:"fixed32,1,opt,name=heart_rate,json=heartRate,proto3" json:"heart_rate,omitempty"`
	Spo2      float32 `protobuf:"fixed32,2,opt,name=spo2,proto3" json:"spo2,omitempty"`
	// Timestamp in unix milliseconds.
	Timestamp int64 `protobuf:"varint,3,opt,name=timestamp,proto3" json:"timestamp,omitempty"`
}

// NewMessage implements Message.
func (m *Reading) NewMessage() fx.Message { return &Reading{} }

// TypeID implements SerializableMessage.
func (m *Reading) TypeID() uint32 { return ReadingTypeID }

// Serializable implements SerializableMessage.
func (m *Reading) Serializable() proto.Message { return m }

// ProtoMessage implements proto.Message.
func (m *Reading) ProtoMessage() {}

// Reset implements proto.Message.
func (m *Reading) Reset() { *m = Reading{} }

// String implements proto.Message.
func (m *Reading) String() string { return proto.CompactTextString(m) }

// Beat is published on every detected heart beat.
type Beat struct {
	Count     uint64 `protobuf:"varint,1,opt,name=count,proto3" json:"count,omitempty"`
	Timestamp int64  `protobuf:"varint,2,opt,name=timestamp,proto3" json:"timestamp,omitempty"`
}

// NewMessage implements Message.
func (m *Beat) NewMessage() fx.Message { return &Beat{} }

// TypeID implements SerializableMessage.
func (m *Beat) TypeID() uint32 { return BeatTypeID }

// Serializable implements SerializableMessage.
func (m *Beat) Serializable() proto.Message { return m }

// ProtoMessage implements proto.Message.
func (m *Beat) ProtoMessage() {}

// Reset implements proto.Message.
func (m *Beat) Reset() { *m = Beat{} }

// String implements proto.Message.
func (m *Beat) String() string { return proto.CompactTextString(m) }
