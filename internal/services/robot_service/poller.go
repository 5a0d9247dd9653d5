package robot_service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/iwtcode/robotAdapter/driver"
	"github.com/iwtcode/robotAdapter/internal/middleware/logging"
	"github.com/iwtcode/robotAdapter/internal/telemetry"
)

// PollingWorker периодически читает углы и позу и обновляет хранилище.
// Один воркер живет ровно одну сессию подключения.
type PollingWorker struct {
	drv        driver.Driver
	store      *telemetry.Store
	calls      *sync.Mutex // общий с ConnectionManager: вызовы драйвера по хендлу не пересекаются
	handle     driver.Handle
	period     time.Duration
	pollStatus bool
	active     func() bool
	logger     *logging.Logger

	started  atomic.Bool
	running  atomic.Bool
	stopping atomic.Bool
	stopOnce sync.Once
	stop     chan struct{}
	done     chan struct{}
	cycles   atomic.Uint64
}

type pollerParams struct {
	drv        driver.Driver
	store      *telemetry.Store
	calls      *sync.Mutex
	handle     driver.Handle
	period     time.Duration
	pollStatus bool
	active     func() bool
	logger     *logging.Logger
}

func newPollingWorker(p pollerParams) *PollingWorker {
	active := p.active
	if active == nil {
		active = func() bool { return true }
	}
	return &PollingWorker{
		drv:        p.drv,
		store:      p.store,
		calls:      p.calls,
		handle:     p.handle,
		period:     p.period,
		pollStatus: p.pollStatus,
		active:     active,
		logger:     p.logger.WithPrefix("POLLER"),
		stop:       make(chan struct{}),
		done:       make(chan struct{}),
	}
}

// Start запускает горутину опроса. Повторный запуск возвращает ошибку.
func (w *PollingWorker) Start(ctx context.Context) error {
	if !w.started.CompareAndSwap(false, true) {
		return errors.New("polling worker already started")
	}
	w.running.Store(true)
	go w.run(ctx)
	return nil
}

// Stop просит цикл завершиться и ждет его не дольше timeout.
// Возвращает false, если цикл не успел завершиться.
func (w *PollingWorker) Stop(timeout time.Duration) bool {
	w.stopOnce.Do(func() {
		w.stopping.Store(true)
		close(w.stop)
	})
	if !w.started.Load() {
		return true
	}

	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case <-w.done:
		return true
	case <-timer.C:
		return false
	}
}

// IsRunning сообщает, выполняется ли цикл опроса.
func (w *PollingWorker) IsRunning() bool {
	return w.running.Load()
}

// Cycles возвращает число завершенных циклов опроса.
func (w *PollingWorker) Cycles() uint64 {
	return w.cycles.Load()
}

// run выполняет первый цикл сразу после старта, следующие по тикеру с периодом 1/PollHz.
// Если цикл дольше периода, тик уже ждет в канале и следующий цикл начинается без паузы;
// пропущенные тики не накапливаются.
func (w *PollingWorker) run(ctx context.Context) {
	w.logger.Info("Starting polling goroutine", "handle", w.handle, "period", w.period, "status", w.pollStatus)

	ticker := time.NewTicker(w.period)
	defer func() {
		ticker.Stop()
		w.running.Store(false)
		close(w.done)
		w.logger.Info("Polling goroutine stopped", "handle", w.handle, "cycles", w.cycles.Load())
	}()

	for {
		if w.stopping.Load() || !w.active() {
			return
		}
		if err := w.cycle(); err != nil {
			w.logger.Error("Polling cycle failed", "handle", w.handle, "error", err)
		}
		w.cycles.Add(1)

		select {
		case <-w.stop:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// cycle выполняет одно чтение всех полей. Паника перехватывается и возвращается как ошибка.
func (w *PollingWorker) cycle() (err error) {
	defer func() {
		if r := recover(); r != nil {
			if e, ok := r.(error); ok {
				err = &cycleError{cause: e}
				return
			}
			err = &cycleError{value: r}
		}
	}()

	w.readJoints()
	w.readPose()
	if w.pollStatus {
		w.readStatus()
	}
	return nil
}

// Каждое чтение фиксируется под тем же мьютексом, под которым выполнялся вызов.
// После Stop запись в хранилище не происходит.
func (w *PollingWorker) readJoints() {
	w.calls.Lock()
	defer w.calls.Unlock()
	if w.stopping.Load() {
		return
	}
	rc, joints := w.drv.ReadJointPositions(w.handle)
	if rc != driver.OK {
		w.logger.Debug("Joint read skipped", "handle", w.handle, "rc", rc, "reason", driver.Describe(rc))
		return
	}
	if w.stopping.Load() {
		return
	}
	w.store.SetJoints(joints)
}

func (w *PollingWorker) readPose() {
	w.calls.Lock()
	defer w.calls.Unlock()
	if w.stopping.Load() {
		return
	}
	rc, pose := w.drv.ReadToolPose(w.handle)
	if rc != driver.OK {
		w.logger.Debug("Pose read skipped", "handle", w.handle, "rc", rc, "reason", driver.Describe(rc))
		return
	}
	if w.stopping.Load() {
		return
	}
	w.store.SetPose(pose)
}

func (w *PollingWorker) readStatus() {
	w.calls.Lock()
	defer w.calls.Unlock()
	if w.stopping.Load() {
		return
	}
	rc, status := w.drv.ReadStatus(w.handle)
	if rc != driver.OK {
		w.logger.Debug("Status read skipped", "handle", w.handle, "rc", rc, "reason", driver.Describe(rc))
		return
	}
	if w.stopping.Load() {
		return
	}
	w.store.SetStatus(status)
}

type cycleError struct {
	cause error
	value interface{}
}

func (e *cycleError) Error() string {
	if e.cause != nil {
		return "panic in polling cycle: " + e.cause.Error()
	}
	return fmt.Sprintf("panic in polling cycle: %v", e.value)
}

func (e *cycleError) Unwrap() error { return e.cause }
