package interfaces

import (
	"github.com/iwtcode/robotAdapter/internal/events"
	"github.com/iwtcode/robotAdapter/models"
)

// RobotService определяет контракт управления подключением к роботу
type RobotService interface {
	Connect(ip string) error
	Disconnect() error
	PowerOn() error
	PowerOff() error
	EnableRobot() error
	DisableRobot() error
	JogJoint(index int, velocity, position float64) error
	Jog(axis int, mode models.JogMode, frame models.Frame, velocity, target float64) error
	StopJog(index int) error
	RefreshStatus() error

	State() models.ConnectionState
	Session() (models.SessionInfo, bool)
	Telemetry() TelemetryReader
	Events() EventSource

	Close() error
}

// TelemetryReader дает доступ на чтение к последнему снимку телеметрии
type TelemetryReader interface {
	Joints() models.JointPositions
	JointsDegrees() models.JointPositions
	Pose() models.ToolPose
	Status() models.RobotStatus
	Snapshot() models.Snapshot
}

// EventSource позволяет подписаться на подключение и отключение
type EventSource interface {
	Subscribe(fn events.Handler) events.SubscriberID
	SubscribeTypes(fn events.Handler, types ...events.Type) events.SubscriberID
	Unsubscribe(id events.SubscriberID) bool
}

// TelemetrySource - источник данных для экспорта телеметрии
type TelemetrySource interface {
	State() models.ConnectionState
	Session() (models.SessionInfo, bool)
	CurrentSnapshot() models.Snapshot
	Subscribe(fn func(events.Event)) events.SubscriberID
	Unsubscribe(id events.SubscriberID) bool
}
