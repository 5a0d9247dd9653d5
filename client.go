// Package robot управляет подключением к 6-осевому роботу и отдает непрерывно
// обновляемую телеметрию: углы осей, позу инструмента и флаги состояния.
package robot

import (
	"errors"
	"io"
	"os"

	"github.com/sirupsen/logrus"

	"github.com/iwtcode/robotAdapter/driver"
	"github.com/iwtcode/robotAdapter/internal/events"
	"github.com/iwtcode/robotAdapter/internal/interfaces"
	"github.com/iwtcode/robotAdapter/internal/middleware/logging"
	"github.com/iwtcode/robotAdapter/internal/services/robot_service"
	"github.com/iwtcode/robotAdapter/models"
)

// Типы событий подключения.
type (
	Event        = events.Event
	EventType    = events.Type
	SubscriberID = events.SubscriberID
)

const (
	EventConnected    = events.Connected
	EventDisconnected = events.Disconnected
)

// Client является основной точкой входа для взаимодействия с библиотекой.
type Client struct {
	svc    interfaces.RobotService
	config *Config
	logger *logrus.Logger
}

// New создает клиент поверх драйвера. Подключение выполняется отдельно через Connect.
// Без cfg настройки читаются из окружения.
func New(drv driver.Driver, cfg *Config) (*Client, error) {
	if cfg == nil {
		cfg = Load()
	}
	logger := logrus.New()

	if cfg.LogLevel == "off" || cfg.LogLevel == "none" {
		logger.SetOutput(io.Discard)
	} else {
		level, err := logrus.ParseLevel(cfg.LogLevel)
		if err != nil {
			level = logrus.InfoLevel
		}
		logger.SetLevel(level)
		logger.SetOutput(os.Stdout)
	}

	logger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		ForceColors:     true,
		TimestampFormat: "2006-01-02 15:04:05",
	})

	c, err := newClient(drv, cfg, logging.FromLogrus(logger, "robot"))
	if err != nil {
		return nil, err
	}
	c.logger = logger
	return c, nil
}

// NewWithLogger создает клиент, пишущий в уже настроенный логгер сервиса.
func NewWithLogger(drv driver.Driver, cfg *Config, logger *logging.Logger) (*Client, error) {
	c, err := newClient(drv, cfg, logger)
	if err != nil {
		return nil, err
	}
	c.logger = logger.Logrus()
	return c, nil
}

func newClient(drv driver.Driver, cfg *Config, logger *logging.Logger) (*Client, error) {
	if drv == nil {
		return nil, errors.New("robot driver is required")
	}
	if cfg == nil {
		cfg = Load()
	}

	svc := robot_service.NewRobotService(drv, robot_service.Config{
		PollHz:      cfg.PollHz,
		PollStatus:  cfg.PollStatus,
		StopTimeout: cfg.StopTimeout,
	}, logger)

	return &Client{svc: svc, config: cfg}, nil
}

// Close отключается от робота. После Close клиент нельзя подключить снова.
func (c *Client) Close() error {
	return c.svc.Close()
}

// GetLogger возвращает используемый логгер.
func (c *Client) GetLogger() *logrus.Logger {
	return c.logger
}

// Config возвращает конфигурацию клиента.
func (c *Client) Config() *Config {
	return c.config
}

// Connect подключается к роботу по адресу ip. Пустой ip берется из конфигурации.
func (c *Client) Connect(ip string) error {
	if ip == "" {
		ip = c.config.IP
	}
	return c.svc.Connect(ip)
}

// Disconnect останавливает опрос и освобождает подключение.
func (c *Client) Disconnect() error { return c.svc.Disconnect() }

// PowerOn включает питание робота.
func (c *Client) PowerOn() error { return c.svc.PowerOn() }

// PowerOff выключает питание робота.
func (c *Client) PowerOff() error { return c.svc.PowerOff() }

// EnableRobot разрешает движение.
func (c *Client) EnableRobot() error { return c.svc.EnableRobot() }

// DisableRobot запрещает движение.
func (c *Client) DisableRobot() error { return c.svc.DisableRobot() }

// JogJoint перемещает ось index (0..5) в позицию position со скоростью velocity.
func (c *Client) JogJoint(index int, velocity, position float64) error {
	return c.svc.JogJoint(index, velocity, position)
}

// Jog отправляет команду движения с явным режимом и системой координат.
func (c *Client) Jog(axis int, mode models.JogMode, frame models.Frame, velocity, target float64) error {
	return c.svc.Jog(axis, mode, frame, velocity, target)
}

// StopJog останавливает движение оси.
func (c *Client) StopJog(index int) error { return c.svc.StopJog(index) }

// RefreshStatus перечитывает флаги состояния робота.
func (c *Client) RefreshStatus() error { return c.svc.RefreshStatus() }

// CurrentJointPositionsRadians возвращает последние прочитанные углы в радианах.
func (c *Client) CurrentJointPositionsRadians() models.JointPositions {
	return c.svc.Telemetry().Joints()
}

// CurrentJointPositionsDegrees возвращает последние прочитанные углы в градусах.
func (c *Client) CurrentJointPositionsDegrees() models.JointPositions {
	return c.svc.Telemetry().JointsDegrees()
}

// CurrentToolPose возвращает последнюю прочитанную позу инструмента.
func (c *Client) CurrentToolPose() models.ToolPose {
	return c.svc.Telemetry().Pose()
}

// CurrentStatus возвращает последний прочитанный статус.
func (c *Client) CurrentStatus() models.RobotStatus {
	return c.svc.Telemetry().Status()
}

// CurrentSnapshot возвращает согласованный снимок всей телеметрии.
func (c *Client) CurrentSnapshot() models.Snapshot {
	return c.svc.Telemetry().Snapshot()
}

func (c *Client) State() models.ConnectionState { return c.svc.State() }

func (c *Client) IsConnected() bool { return c.svc.State() != models.Disconnected }

func (c *Client) IsEnabled() bool { return c.svc.State() == models.Enabled }

// Session возвращает данные активного подключения.
func (c *Client) Session() (models.SessionInfo, bool) { return c.svc.Session() }

// OnConnected подписывает fn на события подключения.
func (c *Client) OnConnected(fn func(Event)) SubscriberID {
	return c.svc.Events().SubscribeTypes(fn, events.Connected)
}

// OnDisconnected подписывает fn на события отключения.
func (c *Client) OnDisconnected(fn func(Event)) SubscriberID {
	return c.svc.Events().SubscribeTypes(fn, events.Disconnected)
}

// Subscribe подписывает fn на все события.
func (c *Client) Subscribe(fn func(Event)) SubscriberID {
	return c.svc.Events().Subscribe(fn)
}

// Unsubscribe отменяет подписку.
func (c *Client) Unsubscribe(id SubscriberID) bool {
	return c.svc.Events().Unsubscribe(id)
}
