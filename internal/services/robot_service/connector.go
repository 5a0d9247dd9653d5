package robot_service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/iwtcode/robotAdapter/driver"
	"github.com/iwtcode/robotAdapter/internal/events"
	"github.com/iwtcode/robotAdapter/internal/middleware/logging"
	"github.com/iwtcode/robotAdapter/internal/telemetry"
	"github.com/iwtcode/robotAdapter/models"
	apperrors "github.com/iwtcode/robotAdapter/pkg/errors"
)

// Границы и значения по умолчанию для частоты опроса.
const (
	DefaultPollHz      = 60
	MinPollHz          = 10
	MaxPollHz          = 125
	DefaultStopTimeout = time.Second
)

// Config задает параметры опроса.
type Config struct {
	PollHz      int
	PollStatus  bool // читать статус в каждом цикле опроса
	StopTimeout time.Duration
}

// ClampPollHz приводит частоту к допустимому диапазону. Второе значение true, если частота изменена.
func ClampPollHz(hz int) (int, bool) {
	switch {
	case hz == 0:
		return DefaultPollHz, false
	case hz < MinPollHz:
		return MinPollHz, true
	case hz > MaxPollHz:
		return MaxPollHz, true
	default:
		return hz, false
	}
}

// ConnectionManager владеет хендлом драйвера, машиной состояний подключения и воркером опроса.
type ConnectionManager struct {
	drv    driver.Driver
	store  *telemetry.Store
	bus    *events.Bus
	logger *logging.Logger
	cfg    Config
	period time.Duration

	ctx    context.Context
	cancel context.CancelFunc

	opMu sync.Mutex // сериализует операции жизненного цикла и управления

	emitMu      sync.Mutex // защищает pending и dispatching
	pending     []events.Event
	dispatching bool

	stateMu sync.RWMutex
	state   models.ConnectionState
	handle  driver.Handle
	session models.SessionInfo
	closed  bool

	callMu sync.Mutex // вызовы драйвера по одному хендлу не пересекаются
	worker *PollingWorker
}

func NewConnectionManager(drv driver.Driver, store *telemetry.Store, bus *events.Bus, cfg Config, logger *logging.Logger) *ConnectionManager {
	logger = logger.WithPrefix("CONNECTOR")

	hz, clamped := ClampPollHz(cfg.PollHz)
	if clamped {
		logger.Warn("Poll frequency out of range, clamped", "requested", cfg.PollHz, "used", hz, "min", MinPollHz, "max", MaxPollHz)
	}
	cfg.PollHz = hz
	if cfg.StopTimeout <= 0 {
		cfg.StopTimeout = DefaultStopTimeout
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &ConnectionManager{
		drv:    drv,
		store:  store,
		bus:    bus,
		logger: logger,
		cfg:    cfg,
		period: time.Second / time.Duration(hz),
		ctx:    ctx,
		cancel: cancel,
	}
}

// Period возвращает период опроса.
func (cm *ConnectionManager) Period() time.Duration {
	return cm.period
}

func (cm *ConnectionManager) State() models.ConnectionState {
	cm.stateMu.RLock()
	defer cm.stateMu.RUnlock()
	return cm.state
}

// Session возвращает данные текущего подключения.
func (cm *ConnectionManager) Session() (models.SessionInfo, bool) {
	cm.stateMu.RLock()
	defer cm.stateMu.RUnlock()
	return cm.session, cm.state != models.Disconnected
}

// Worker возвращает воркер текущей сессии или nil.
func (cm *ConnectionManager) Worker() *PollingWorker {
	cm.stateMu.RLock()
	defer cm.stateMu.RUnlock()
	return cm.worker
}

func (cm *ConnectionManager) currentHandle() (driver.Handle, bool) {
	cm.stateMu.RLock()
	defer cm.stateMu.RUnlock()
	return cm.handle, cm.state != models.Disconnected
}

func (cm *ConnectionManager) setState(s models.ConnectionState) {
	cm.stateMu.Lock()
	defer cm.stateMu.Unlock()
	if cm.state != s {
		cm.logger.Debug("Connection state changed", "from", cm.state, "to", s)
	}
	cm.state = s
}

// Connect запрашивает хендл для ip, обновляет статус и запускает опрос.
// Повторный вызов при активном подключении ничего не делает.
func (cm *ConnectionManager) Connect(ip string) error {
	cm.opMu.Lock()
	evt, err := cm.connect(ip)
	cm.emitAfterUnlock(evt)
	return err
}

// emitAfterUnlock ставит событие в очередь под opMu, освобождает opMu и доставляет очередь.
// Очередь заполняется в порядке переходов, доставляет ее один вызывающий за раз.
// Если доставка уже идет (другой горутиной или из обработчика, вызвавшего менеджер),
// событие будет доставлено ею после текущего.
func (cm *ConnectionManager) emitAfterUnlock(evt *events.Event) {
	if evt != nil {
		cm.emitMu.Lock()
		cm.pending = append(cm.pending, *evt)
		cm.emitMu.Unlock()
	}
	cm.opMu.Unlock()

	if evt != nil {
		cm.dispatch()
	}
}

func (cm *ConnectionManager) dispatch() {
	cm.emitMu.Lock()
	if cm.dispatching {
		cm.emitMu.Unlock()
		return
	}
	cm.dispatching = true
	for len(cm.pending) > 0 {
		evt := cm.pending[0]
		cm.pending = cm.pending[1:]
		cm.emitMu.Unlock()
		cm.bus.Emit(evt)
		cm.emitMu.Lock()
	}
	cm.dispatching = false
	cm.emitMu.Unlock()
}

func (cm *ConnectionManager) connect(ip string) (*events.Event, error) {
	cm.stateMu.RLock()
	state, closed, current := cm.state, cm.closed, cm.session
	cm.stateMu.RUnlock()

	if closed {
		return nil, apperrors.Precondition("connect", "connection manager is closed")
	}
	if state != models.Disconnected {
		cm.logger.Warn("Connect called while already connected", "ip", ip, "currentIP", current.IP, "state", state)
		return nil, nil
	}

	cm.logger.Info("Connecting to robot", "ip", ip)
	cm.callMu.Lock()
	rc, h := cm.drv.CreateHandle(ip)
	cm.callMu.Unlock()

	if rc != driver.OK {
		cm.logger.Error("Failed to create driver handle", "ip", ip, "rc", rc, "reason", driver.Describe(rc))
		return nil, apperrors.Connection("connect", rc, driver.Describe(rc), driver.Check("create_handle", rc))
	}

	session := models.SessionInfo{
		SessionID:   uuid.New().String(),
		IP:          ip,
		Handle:      int(h),
		ConnectedAt: time.Now(),
	}

	cm.stateMu.Lock()
	cm.state = models.Connected
	cm.handle = h
	cm.session = session
	cm.stateMu.Unlock()

	if err := cm.refreshStatus(h); err != nil {
		cm.logger.Warn("Initial status refresh failed", "sessionID", session.SessionID, "error", err)
	}

	worker := newPollingWorker(pollerParams{
		drv:        cm.drv,
		store:      cm.store,
		calls:      &cm.callMu,
		handle:     h,
		period:     cm.period,
		pollStatus: cm.cfg.PollStatus,
		active:     func() bool { return cm.State() != models.Disconnected },
		logger:     cm.logger,
	})
	if err := worker.Start(cm.ctx); err != nil {
		cm.logger.Error("Failed to start polling", "sessionID", session.SessionID, "error", err)
	}

	cm.stateMu.Lock()
	cm.worker = worker
	cm.stateMu.Unlock()

	cm.logger.Info("Connection created successfully", "sessionID", session.SessionID, "ip", ip, "handle", h)
	return &events.Event{
		Type:      events.Connected,
		IP:        ip,
		SessionID: session.SessionID,
		Handle:    session.Handle,
		Timestamp: session.ConnectedAt,
	}, nil
}

// Disconnect останавливает опрос и освобождает хендл. Без подключения ничего не делает.
func (cm *ConnectionManager) Disconnect() error {
	cm.opMu.Lock()
	evt := cm.disconnect()
	cm.emitAfterUnlock(evt)
	return nil
}

func (cm *ConnectionManager) disconnect() *events.Event {
	cm.stateMu.RLock()
	state, h, session, worker := cm.state, cm.handle, cm.session, cm.worker
	cm.stateMu.RUnlock()

	if state == models.Disconnected {
		cm.logger.Debug("Disconnect called while not connected")
		return nil
	}

	if state == models.Enabled {
		cm.callMu.Lock()
		rc := cm.drv.Disable(h)
		cm.callMu.Unlock()
		if rc != driver.OK {
			cm.logger.Warn("Disable before disconnect failed", "sessionID", session.SessionID, "rc", rc, "reason", driver.Describe(rc))
		}
		cm.store.UpdateStatus(func(st *models.RobotStatus) { st.Enabled = false })
	}

	if worker != nil && !worker.Stop(cm.cfg.StopTimeout) {
		cm.logger.Warn("Polling worker did not stop in time", "sessionID", session.SessionID, "timeout", cm.cfg.StopTimeout)
	}

	// Воркер уже не пишет в хранилище; ждем только его текущий вызов драйвера.
	cm.callMu.Lock()
	rc := cm.drv.DestroyHandle(h)
	cm.callMu.Unlock()
	if rc != driver.OK {
		cm.logger.Warn("Failed to release driver handle", "sessionID", session.SessionID, "handle", h, "rc", rc, "reason", driver.Describe(rc))
	}

	cm.stateMu.Lock()
	cm.state = models.Disconnected
	cm.handle = 0
	cm.session = models.SessionInfo{}
	cm.worker = nil
	cm.stateMu.Unlock()

	cm.logger.Info("Session disconnected", "sessionID", session.SessionID, "ip", session.IP)
	return &events.Event{
		Type:      events.Disconnected,
		IP:        session.IP,
		SessionID: session.SessionID,
		Handle:    session.Handle,
	}
}

// Close отключает робота и запрещает новые подключения.
func (cm *ConnectionManager) Close() error {
	cm.opMu.Lock()
	evt := cm.disconnect()
	cm.stateMu.Lock()
	cm.closed = true
	cm.stateMu.Unlock()
	cm.cancel()
	cm.emitAfterUnlock(evt)
	return nil
}

// requireHandle возвращает хендл или ошибку предусловия. Драйвер при этом не вызывается.
func (cm *ConnectionManager) requireHandle(op string) (driver.Handle, error) {
	h, ok := cm.currentHandle()
	if !ok {
		return 0, apperrors.Precondition(op, "robot is not connected")
	}
	return h, nil
}

// command выполняет управляющий вызов драйвера и переводит код результата в ошибку.
func (cm *ConnectionManager) command(op string, call func() int) error {
	cm.callMu.Lock()
	rc := call()
	cm.callMu.Unlock()

	if rc != driver.OK {
		cm.logger.Error("Robot command failed", "op", op, "rc", rc, "reason", driver.Describe(rc))
		return apperrors.Command(op, rc, driver.Describe(rc), driver.Check(op, rc))
	}
	return nil
}

func (cm *ConnectionManager) refreshStatus(h driver.Handle) error {
	cm.callMu.Lock()
	rc, status := cm.drv.ReadStatus(h)
	cm.callMu.Unlock()

	if rc != driver.OK {
		return apperrors.Command("refresh_status", rc, driver.Describe(rc), driver.Check("read_status", rc))
	}
	cm.store.SetStatus(status)
	return nil
}

// afterCommand обновляет статус после успешной команды. Ошибка чтения только логируется.
func (cm *ConnectionManager) afterCommand(op string, h driver.Handle) {
	if err := cm.refreshStatus(h); err != nil {
		cm.logger.Warn("Status refresh after command failed", "op", op, "error", err)
	}
}

// RefreshStatus явно перечитывает статус робота.
func (cm *ConnectionManager) RefreshStatus() error {
	cm.opMu.Lock()
	defer cm.opMu.Unlock()

	h, err := cm.requireHandle("refresh_status")
	if err != nil {
		return err
	}
	if err := cm.refreshStatus(h); err != nil {
		cm.logger.Error("Status refresh failed", "error", err)
		return err
	}
	return nil
}

func (cm *ConnectionManager) PowerOn() error {
	cm.opMu.Lock()
	defer cm.opMu.Unlock()

	h, err := cm.requireHandle("power_on")
	if err != nil {
		cm.logger.Warn("Power on rejected", "error", err)
		return err
	}
	if err := cm.command("power_on", func() int { return cm.drv.PowerOn(h) }); err != nil {
		return err
	}
	cm.logger.Info("Robot powered on", "handle", h)
	cm.afterCommand("power_on", h)
	return nil
}

// PowerOff выключает питание. Включенный робот переходит в состояние Connected.
func (cm *ConnectionManager) PowerOff() error {
	cm.opMu.Lock()
	defer cm.opMu.Unlock()

	h, err := cm.requireHandle("power_off")
	if err != nil {
		cm.logger.Warn("Power off rejected", "error", err)
		return err
	}
	if err := cm.command("power_off", func() int { return cm.drv.PowerOff(h) }); err != nil {
		return err
	}
	if cm.State() == models.Enabled {
		cm.setState(models.Connected)
	}
	cm.logger.Info("Robot powered off", "handle", h)
	cm.afterCommand("power_off", h)
	return nil
}

func (cm *ConnectionManager) EnableRobot() error {
	cm.opMu.Lock()
	defer cm.opMu.Unlock()

	h, err := cm.requireHandle("enable")
	if err != nil {
		cm.logger.Warn("Enable rejected", "error", err)
		return err
	}
	if err := cm.command("enable", func() int { return cm.drv.Enable(h) }); err != nil {
		return err
	}
	cm.setState(models.Enabled)
	cm.logger.Info("Robot enabled", "handle", h)
	cm.afterCommand("enable", h)
	return nil
}

// DisableRobot снимает разрешение движения. Без хендла молча возвращает ошибку.
func (cm *ConnectionManager) DisableRobot() error {
	cm.opMu.Lock()
	defer cm.opMu.Unlock()

	h, err := cm.requireHandle("disable")
	if err != nil {
		cm.logger.Debug("Disable ignored without connection")
		return err
	}
	if err := cm.command("disable", func() int { return cm.drv.Disable(h) }); err != nil {
		return err
	}
	if cm.State() == models.Enabled {
		cm.setState(models.Connected)
	}
	cm.store.UpdateStatus(func(st *models.RobotStatus) { st.Enabled = false })
	cm.logger.Info("Robot disabled", "handle", h)
	cm.afterCommand("disable", h)
	return nil
}

// Jog отправляет команду движения оси. Допустима только в состоянии Enabled.
func (cm *ConnectionManager) Jog(axis int, mode models.JogMode, frame models.Frame, velocity, target float64) error {
	cm.opMu.Lock()
	defer cm.opMu.Unlock()

	cm.stateMu.RLock()
	state, h := cm.state, cm.handle
	cm.stateMu.RUnlock()

	if state != models.Enabled {
		err := apperrors.Precondition("jog", "robot is not enabled")
		cm.logger.Warn("Jog rejected", "axis", axis, "state", state)
		return err
	}
	if err := checkAxis("jog", axis); err != nil {
		cm.logger.Warn("Jog rejected", "axis", axis, "error", err)
		return err
	}

	err := cm.command("jog", func() int { return cm.drv.Jog(h, axis, mode, frame, velocity, target) })
	if err != nil {
		return err
	}
	cm.logger.Debug("Jog sent", "axis", axis, "mode", mode, "frame", frame, "velocity", velocity, "target", target)
	return nil
}

// JogJoint перемещает ось index в абсолютную позицию в системе осей.
func (cm *ConnectionManager) JogJoint(index int, velocity, position float64) error {
	return cm.Jog(index, models.JogAbsolute, models.FrameJoint, velocity, position)
}

func (cm *ConnectionManager) StopJog(index int) error {
	cm.opMu.Lock()
	defer cm.opMu.Unlock()

	h, err := cm.requireHandle("stop_jog")
	if err != nil {
		cm.logger.Warn("Stop jog rejected", "axis", index, "error", err)
		return err
	}
	if err := checkAxis("stop_jog", index); err != nil {
		cm.logger.Warn("Stop jog rejected", "axis", index, "error", err)
		return err
	}
	return cm.command("stop_jog", func() int { return cm.drv.StopJog(h, index) })
}

func checkAxis(op string, axis int) error {
	if axis < 0 || axis >= models.JointCount {
		return apperrors.Precondition(op, fmt.Sprintf("invalid joint index %d", axis))
	}
	return nil
}
