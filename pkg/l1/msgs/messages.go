package msgs

import (
	"errors"

	"github.com/golang/protobuf/proto"

	fx "github.com/robotalks/dshot.go/pkg/framework"
	"github.com/robotalks/dshot.go/pkg/l0/dshot"
	"github.com/robotalks/dshot.go/pkg/l1/telemetry"
)

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

// CommandErr is the generic message representing command error.
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

// MotorCommand sends a single command to a motor.
// Kind is one of the dshot.Kind* names.
type MotorCommand struct {
	Motor   string `protobuf:"bytes,1,opt,name=motor,proto3" json:"motor,omitempty"`
	Kind    string `protobuf:"bytes,2,opt,name=kind,proto3" json:"kind,omitempty"`
	Value   int32  `protobuf:"varint,3,opt,name=value,proto3" json:"value,omitempty"`
	Enabled bool   `protobuf:"varint,4,opt,name=enabled,proto3" json:"enabled,omitempty"`
}

// NewMotorCommand creates a MotorCommand from a dshot command.
func NewMotorCommand(motor string, cmd dshot.Command) *MotorCommand {
	kind, value, enabled := dshot.KindOf(cmd)
	return &MotorCommand{Motor: motor, Kind: kind, Value: int32(value), Enabled: enabled}
}

// Command converts the message into a validated dshot command.
func (m *MotorCommand) Command() (dshot.Command, error) {
	return dshot.ParseCommand(m.Kind, int(m.Value), m.Enabled)
}

// NewMessage implements Message.
func (m *MotorCommand) NewMessage() fx.Message { return &MotorCommand{} }

// TypeID implements SerializableMessage.
func (m *MotorCommand) TypeID() uint32 { return MotorCommandTypeID }

// Serializable implements SerializableMessage.
func (m *MotorCommand) Serializable() proto.Message { return m }

// ProtoMessage implements proto.Message.
func (m *MotorCommand) ProtoMessage() {}

// Reset implements proto.Message.
func (m *MotorCommand) Reset() { *m = MotorCommand{} }

// String implements proto.Message.
func (m *MotorCommand) String() string { return proto.CompactTextString(m) }

// CommandReply is the response for MotorCommand.
type CommandReply struct {
	Motor     string           `protobuf:"bytes,1,opt,name=motor,proto3" json:"motor,omitempty"`
	State     string           `protobuf:"bytes,2,opt,name=state,proto3" json:"state,omitempty"`
	Telemetry *TelemetryReport `protobuf:"bytes,3,opt,name=telemetry,proto3" json:"telemetry,omitempty"`
}

// NewMessage implements Message.
func (m *CommandReply) NewMessage() fx.Message { return &CommandReply{} }

// TypeID implements SerializableMessage.
func (m *CommandReply) TypeID() uint32 { return CommandReplyTypeID }

// Serializable implements SerializableMessage.
func (m *CommandReply) Serializable() proto.Message { return m }

// ProtoMessage implements proto.Message.
func (m *CommandReply) ProtoMessage() {}

// Reset implements proto.Message.
func (m *CommandReply) Reset() { *m = CommandReply{} }

// String implements proto.Message.
func (m *CommandReply) String() string { return proto.CompactTextString(m) }

// MotorArm restarts the arming sequence of a motor.
type MotorArm struct {
	Motor string `protobuf:"bytes,1,opt,name=motor,proto3" json:"motor,omitempty"`
}

// NewMessage implements Message.
func (m *MotorArm) NewMessage() fx.Message { return &MotorArm{} }

// TypeID implements SerializableMessage.
func (m *MotorArm) TypeID() uint32 { return MotorArmTypeID }

// Serializable implements SerializableMessage.
func (m *MotorArm) Serializable() proto.Message { return m }

// ProtoMessage implements proto.Message.
func (m *MotorArm) ProtoMessage() {}

// Reset implements proto.Message.
func (m *MotorArm) Reset() { *m = MotorArm{} }

// String implements proto.Message.
func (m *MotorArm) String() string { return proto.CompactTextString(m) }

// MotorSweep starts a throttle sweep, Max of 0 stops it.
type MotorSweep struct {
	Motor    string `protobuf:"bytes,1,opt,name=motor,proto3" json:"motor,omitempty"`
	Min      int32  `protobuf:"varint,2,opt,name=min,proto3" json:"min,omitempty"`
	Max      int32  `protobuf:"varint,3,opt,name=max,proto3" json:"max,omitempty"`
	Step     int32  `protobuf:"varint,4,opt,name=step,proto3" json:"step,omitempty"`
	PeriodMs uint32 `protobuf:"varint,5,opt,name=period_ms,json=periodMs,proto3" json:"period_ms,omitempty"`
}

// NewMessage implements Message.
func (m *MotorSweep) NewMessage() fx.Message { return &MotorSweep{} }

// TypeID implements SerializableMessage.
func (m *MotorSweep) TypeID() uint32 { return MotorSweepTypeID }

// Serializable implements SerializableMessage.
func (m *MotorSweep) Serializable() proto.Message { return m }

// ProtoMessage implements proto.Message.
func (m *MotorSweep) ProtoMessage() {}

// Reset implements proto.Message.
func (m *MotorSweep) Reset() { *m = MotorSweep{} }

// String implements proto.Message.
func (m *MotorSweep) String() string { return proto.CompactTextString(m) }

// MotorStatusQuery queries status of one motor, or all if Motor is empty.
type MotorStatusQuery struct {
	Motor string `protobuf:"bytes,1,opt,name=motor,proto3" json:"motor,omitempty"`
}

// NewMessage implements Message.
func (m *MotorStatusQuery) NewMessage() fx.Message { return &MotorStatusQuery{} }

// TypeID implements SerializableMessage.
func (m *MotorStatusQuery) TypeID() uint32 { return MotorStatusQueryTypeID }

// Serializable implements SerializableMessage.
func (m *MotorStatusQuery) Serializable() proto.Message { return m }

// ProtoMessage implements proto.Message.
func (m *MotorStatusQuery) ProtoMessage() {}

// Reset implements proto.Message.
func (m *MotorStatusQuery) Reset() { *m = MotorStatusQuery{} }

// String implements proto.Message.
func (m *MotorStatusQuery) String() string { return proto.CompactTextString(m) }

// MotorStatus describes a single link.
type MotorStatus struct {
	Motor    string `protobuf:"bytes,1,opt,name=motor,proto3" json:"motor,omitempty"`
	State    string `protobuf:"bytes,2,opt,name=state,proto3" json:"state,omitempty"`
	Steady   string `protobuf:"bytes,3,opt,name=steady,proto3" json:"steady,omitempty"`
	Frames   uint64 `protobuf:"varint,4,opt,name=frames,proto3" json:"frames,omitempty"`
	Stalls   uint64 `protobuf:"varint,5,opt,name=stalls,proto3" json:"stalls,omitempty"`
	Received uint64 `protobuf:"varint,6,opt,name=received,proto3" json:"received,omitempty"`
	Absent   uint64 `protobuf:"varint,7,opt,name=absent,proto3" json:"absent,omitempty"`
	Partial  uint64 `protobuf:"varint,8,opt,name=partial,proto3" json:"partial,omitempty"`
}

// ProtoMessage implements proto.Message.
func (m *MotorStatus) ProtoMessage() {}

// Reset implements proto.Message.
func (m *MotorStatus) Reset() { *m = MotorStatus{} }

// String implements proto.Message.
func (m *MotorStatus) String() string { return proto.CompactTextString(m) }

// MotorStatusList is the response for MotorStatusQuery.
type MotorStatusList struct {
	Motors []*MotorStatus `protobuf:"bytes,1,rep,name=motors,proto3" json:"motors,omitempty"`
}

// NewMessage implements Message.
func (m *MotorStatusList) NewMessage() fx.Message { return &MotorStatusList{} }

// TypeID implements SerializableMessage.
func (m *MotorStatusList) TypeID() uint32 { return MotorStatusListTypeID }

// Serializable implements SerializableMessage.
func (m *MotorStatusList) Serializable() proto.Message { return m }

// ProtoMessage implements proto.Message.
func (m *MotorStatusList) ProtoMessage() {}

// Reset implements proto.Message.
func (m *MotorStatusList) Reset() { *m = MotorStatusList{} }

// String implements proto.Message.
func (m *MotorStatusList) String() string { return proto.CompactTextString(m) }

// TelemetryReport is an Event message carrying one telemetry slot.
// Words is empty when no reply was received.
type TelemetryReport struct {
	Motor   string   `protobuf:"bytes,1,opt,name=motor,proto3" json:"motor,omitempty"`
	Seq     uint64   `protobuf:"varint,2,opt,name=seq,proto3" json:"seq,omitempty"`
	Present bool     `protobuf:"varint,3,opt,name=present,proto3" json:"present,omitempty"`
	Words   []uint32 `protobuf:"varint,4,rep,packed,name=words,proto3" json:"words,omitempty"`
	State   string   `protobuf:"bytes,5,opt,name=state,proto3" json:"state,omitempty"`
}

// NewTelemetryReport converts a telemetry.Report.
func NewTelemetryReport(r telemetry.Report) *TelemetryReport {
	m := &TelemetryReport{
		Motor:   r.Motor,
		Seq:     r.Seq,
		Present: r.Present,
		State:   r.State,
	}
	if r.Present {
		m.Words = append([]uint32(nil), r.Frame[:]...)
	}
	return m
}

// Report converts back to telemetry.Report.
func (m *TelemetryReport) Report() telemetry.Report {
	r := telemetry.Report{
		Motor:   m.Motor,
		Seq:     m.Seq,
		Present: m.Present,
		State:   m.State,
	}
	copy(r.Frame[:], m.Words)
	return r
}

// NewMessage implements Message.
func (m *TelemetryReport) NewMessage() fx.Message { return &TelemetryReport{} }

// TypeID implements SerializableMessage.
func (m *TelemetryReport) TypeID() uint32 { return TelemetryReportTypeID }

// Serializable implements SerializableMessage.
func (m *TelemetryReport) Serializable() proto.Message { return m }

// ProtoMessage implements proto.Message.
func (m *TelemetryReport) ProtoMessage() {}

// Reset implements proto.Message.
func (m *TelemetryReport) Reset() { *m = TelemetryReport{} }

// String implements proto.Message.
func (m *TelemetryReport) String() string { return proto.CompactTextString(m) }

// TypeID Groups
const (
	GroupCommand uint32 = 0x00000000
	GroupMotor   uint32 = 0x00030000
	GroupCustom  uint32 = 0x7f000000 // base group id for custom messages.
)

// TypeIDs
const (
	CommandOKTypeID        uint32 = GroupCommand | TypeIDMaskReply | 0x0000
	CommandErrTypeID       uint32 = GroupCommand | TypeIDMaskReply | 0x0001
	MotorCommandTypeID     uint32 = GroupMotor | 0x0000
	CommandReplyTypeID     uint32 = MotorCommandTypeID | TypeIDMaskReply
	MotorArmTypeID         uint32 = GroupMotor | 0x0001
	MotorStatusQueryTypeID uint32 = GroupMotor | 0x0002
	MotorStatusListTypeID  uint32 = MotorStatusQueryTypeID | TypeIDMaskReply
	MotorSweepTypeID       uint32 = GroupMotor | 0x0003
	TelemetryReportTypeID  uint32 = TypeIDKindEvent | GroupMotor | 0x0000
)

var (
	// ErrUnknownCommand indicates the command is unknown.
	ErrUnknownCommand = errors.New("unknown command")
	// ErrUnknownMotor indicates the motor name matches no link.
	ErrUnknownMotor = errors.New("unknown motor")
)
