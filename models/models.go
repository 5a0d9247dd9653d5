package models

import (
	"math"
	"time"
)

// JointCount - число осей манипулятора.
const JointCount = 6

// JointPositions содержит углы осей 1..6 в радианах.
// Массив фиксированной длины: частичная запись невозможна, копия заменяет значение целиком.
type JointPositions [JointCount]float64

// Degrees возвращает углы, переведенные в градусы.
func (j JointPositions) Degrees() JointPositions {
	var out JointPositions
	for i, rad := range j {
		out[i] = RadToDeg(rad)
	}
	return out
}

// RadToDeg переводит радианы в градусы.
func RadToDeg(rad float64) float64 {
	return rad * 180 / math.Pi
}

// ToolPose содержит положение и ориентацию TCP.
type ToolPose struct {
	X  float64 `json:"x"`
	Y  float64 `json:"y"`
	Z  float64 `json:"z"`
	RX float64 `json:"rx"`
	RY float64 `json:"ry"`
	RZ float64 `json:"rz"`
}

// RobotStatus содержит флаги состояния робота
type RobotStatus struct {
	PoweredOn   bool `json:"powered_on"`
	Enabled     bool `json:"enabled"`
	InError     bool `json:"in_error"`
	IsMoving    bool `json:"is_moving"`
	InCollision bool `json:"in_collision"`
	ErrorCode   int  `json:"error_code"`
}

// ConnectionState - состояние подключения к роботу.
type ConnectionState int

const (
	Disconnected ConnectionState = iota
	Connected
	Enabled
)

func (s ConnectionState) String() string {
	switch s {
	case Disconnected:
		return "disconnected"
	case Connected:
		return "connected"
	case Enabled:
		return "enabled"
	default:
		return "unknown"
	}
}

// JogMode определяет, как интерпретируется целевая позиция в команде jog.
type JogMode int

const (
	JogAbsolute JogMode = iota
	JogIncremental
)

func (m JogMode) String() string {
	if m == JogIncremental {
		return "incremental"
	}
	return "absolute"
}

// Frame - система координат команды jog.
type Frame int

const (
	FrameBase Frame = iota
	FrameJoint
	FrameTool
)

func (f Frame) String() string {
	switch f {
	case FrameBase:
		return "base"
	case FrameJoint:
		return "joint"
	case FrameTool:
		return "tool"
	default:
		return "unknown"
	}
}

// Snapshot - последнее известное состояние телеметрии.
type Snapshot struct {
	Joints    JointPositions `json:"joints"`
	Pose      ToolPose       `json:"pose"`
	Status    RobotStatus    `json:"status"`
	UpdatedAt time.Time      `json:"updated_at"`
	Version   uint64         `json:"version"` // число записей в хранилище
}

// SessionInfo описывает активное подключение.
type SessionInfo struct {
	SessionID   string    `json:"session_id"`
	IP          string    `json:"ip"`
	Handle      int       `json:"handle"`
	ConnectedAt time.Time `json:"connected_at"`
}

// TelemetryMessage - сообщение телеметрии для Kafka.
type TelemetryMessage struct {
	RobotIP       string         `json:"robot_ip"`
	SessionID     string         `json:"session_id"`
	Timestamp     time.Time      `json:"timestamp"`
	State         string         `json:"state"`
	JointsRadians JointPositions `json:"joints_rad"`
	JointsDegrees JointPositions `json:"joints_deg"`
	Pose          ToolPose       `json:"pose"`
	Status        RobotStatus    `json:"status"`
	Version       uint64         `json:"version"`
}

// LifecycleMessage - сообщение о подключении/отключении для Kafka.
type LifecycleMessage struct {
	RobotIP   string    `json:"robot_ip"`
	SessionID string    `json:"session_id"`
	Event     string    `json:"event"` // connected / disconnected
	Timestamp time.Time `json:"timestamp"`
}
