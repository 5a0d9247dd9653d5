package robot_service

import (
	"github.com/iwtcode/robotAdapter/driver"
	"github.com/iwtcode/robotAdapter/internal/events"
	"github.com/iwtcode/robotAdapter/internal/interfaces"
	"github.com/iwtcode/robotAdapter/internal/middleware/logging"
	"github.com/iwtcode/robotAdapter/internal/telemetry"
	"github.com/iwtcode/robotAdapter/models"
)

type robotService struct {
	connMgr *ConnectionManager
	store   *telemetry.Store
	bus     *events.Bus
}

func NewRobotService(drv driver.Driver, cfg Config, logger *logging.Logger) interfaces.RobotService {
	store := telemetry.NewStore()
	bus := events.NewBus(logger)

	return &robotService{
		connMgr: NewConnectionManager(drv, store, bus, cfg, logger),
		store:   store,
		bus:     bus,
	}
}

// --- Реализация методов интерфейса RobotService ---

func (s *robotService) Connect(ip string) error { return s.connMgr.Connect(ip) }
func (s *robotService) Disconnect() error       { return s.connMgr.Disconnect() }
func (s *robotService) PowerOn() error          { return s.connMgr.PowerOn() }
func (s *robotService) PowerOff() error         { return s.connMgr.PowerOff() }
func (s *robotService) EnableRobot() error      { return s.connMgr.EnableRobot() }
func (s *robotService) DisableRobot() error     { return s.connMgr.DisableRobot() }
func (s *robotService) RefreshStatus() error    { return s.connMgr.RefreshStatus() }
func (s *robotService) StopJog(index int) error { return s.connMgr.StopJog(index) }

func (s *robotService) JogJoint(index int, velocity, position float64) error {
	return s.connMgr.JogJoint(index, velocity, position)
}

func (s *robotService) Jog(axis int, mode models.JogMode, frame models.Frame, velocity, target float64) error {
	return s.connMgr.Jog(axis, mode, frame, velocity, target)
}

func (s *robotService) State() models.ConnectionState { return s.connMgr.State() }

func (s *robotService) Session() (models.SessionInfo, bool) { return s.connMgr.Session() }

func (s *robotService) Telemetry() interfaces.TelemetryReader { return s.store }

func (s *robotService) Events() interfaces.EventSource { return s.bus }

func (s *robotService) Close() error { return s.connMgr.Close() }
