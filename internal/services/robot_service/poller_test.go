package robot_service

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iwtcode/robotAdapter/driver"
	"github.com/iwtcode/robotAdapter/driver/sim"
	"github.com/iwtcode/robotAdapter/internal/middleware/logging"
	"github.com/iwtcode/robotAdapter/internal/telemetry"
	"github.com/iwtcode/robotAdapter/models"
)

// faultyDriver паникует на первых panics чтениях углов.
type faultyDriver struct {
	*sim.Robot
	panics atomic.Int32
}

func (d *faultyDriver) ReadJointPositions(h driver.Handle) (int, models.JointPositions) {
	if d.panics.Add(-1) >= 0 {
		panic("driver fault")
	}
	return d.Robot.ReadJointPositions(h)
}

func newTestWorker(t *testing.T, drv driver.Driver, store *telemetry.Store, calls *sync.Mutex) *PollingWorker {
	t.Helper()
	return newPollingWorker(pollerParams{
		drv:    drv,
		store:  store,
		calls:  calls,
		handle: 1,
		period: 5 * time.Millisecond,
		logger: logging.Discard(),
	})
}

func connectedSim(t *testing.T) *sim.Robot {
	t.Helper()
	r := sim.New(1)
	rc, _ := r.CreateHandle("10.0.0.5")
	require.Equal(t, driver.OK, rc)
	return r
}

func TestCycleKeepsStaleValueOnReadFailure(t *testing.T) {
	r := connectedSim(t)
	store := telemetry.NewStore()
	w := newTestWorker(t, r, store, &sync.Mutex{})

	a := models.JointPositions{0.1, 0.2, 0.3, 0.4, 0.5, 0.6}
	b := models.JointPositions{1, 1, 1, 1, 1, 1}

	r.SetJoints(a)
	r.SetPose(models.ToolPose{X: 1})
	require.NoError(t, w.cycle())
	assert.Equal(t, a, store.Joints())

	r.FailJointReads(driver.RCNotPowered)
	r.SetJoints(b)
	r.SetPose(models.ToolPose{X: 2})
	require.NoError(t, w.cycle())
	assert.Equal(t, a, store.Joints(), "после ошибки чтения остается прежнее значение")
	assert.Equal(t, 2.0, store.Pose().X, "поза читается независимо от углов")

	r.FailPoseReads(driver.RCInError)
	r.SetPose(models.ToolPose{X: 3})
	require.NoError(t, w.cycle())
	assert.Equal(t, b, store.Joints())
	assert.Equal(t, 2.0, store.Pose().X)
}

func TestCycleReadsStatusOnlyWhenConfigured(t *testing.T) {
	r := connectedSim(t)
	r.SetStatus(models.RobotStatus{InError: true})
	store := telemetry.NewStore()

	w := newTestWorker(t, r, store, &sync.Mutex{})
	require.NoError(t, w.cycle())
	assert.Zero(t, r.Calls(sim.OpReadStatus))
	assert.False(t, store.Status().InError)

	w.pollStatus = true
	require.NoError(t, w.cycle())
	assert.True(t, store.Status().InError)
}

func TestCycleRecoversPanic(t *testing.T) {
	d := &faultyDriver{Robot: connectedSim(t)}
	d.panics.Store(1)
	calls := &sync.Mutex{}
	w := newTestWorker(t, d, telemetry.NewStore(), calls)

	err := w.cycle()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "driver fault")

	// мьютекс вызовов освобожден несмотря на панику
	assert.True(t, calls.TryLock())
	calls.Unlock()
}

func TestLoopSurvivesPanics(t *testing.T) {
	d := &faultyDriver{Robot: connectedSim(t)}
	d.panics.Store(3)
	d.SetJoints(models.JointPositions{0.7})
	store := telemetry.NewStore()
	w := newTestWorker(t, d, store, &sync.Mutex{})

	require.NoError(t, w.Start(context.Background()))
	defer w.Stop(time.Second)

	require.Eventually(t, func() bool { return store.Joints()[0] == 0.7 }, 2*time.Second, 5*time.Millisecond)
	assert.True(t, w.IsRunning())
	assert.GreaterOrEqual(t, w.Cycles(), uint64(3))
}

func TestFirstCycleRunsImmediately(t *testing.T) {
	r := connectedSim(t)
	w := newPollingWorker(pollerParams{
		drv:    r,
		store:  telemetry.NewStore(),
		calls:  &sync.Mutex{},
		handle: 1,
		period: time.Hour,
		logger: logging.Discard(),
	})
	require.NoError(t, w.Start(context.Background()))
	defer w.Stop(time.Second)

	require.Eventually(t, func() bool { return w.Cycles() == 1 }, time.Second, time.Millisecond)
}

func TestSlowReadsStartNextCycleWithoutPause(t *testing.T) {
	r := connectedSim(t)
	r.SetReadDelay(15 * time.Millisecond)
	w := newTestWorker(t, r, telemetry.NewStore(), &sync.Mutex{})

	require.NoError(t, w.Start(context.Background()))
	defer w.Stop(time.Second)

	require.Eventually(t, func() bool { return w.Cycles() >= 3 }, 2*time.Second, time.Millisecond)
	assert.GreaterOrEqual(t, r.Calls(sim.OpReadPose), 3)
}

func TestStartTwice(t *testing.T) {
	w := newTestWorker(t, connectedSim(t), telemetry.NewStore(), &sync.Mutex{})
	require.NoError(t, w.Start(context.Background()))
	defer w.Stop(time.Second)

	assert.Error(t, w.Start(context.Background()))
}

func TestStopEndsLoopWithinPeriod(t *testing.T) {
	w := newTestWorker(t, connectedSim(t), telemetry.NewStore(), &sync.Mutex{})
	require.NoError(t, w.Start(context.Background()))
	require.Eventually(t, func() bool { return w.Cycles() > 0 }, time.Second, time.Millisecond)

	assert.True(t, w.Stop(time.Second))
	assert.False(t, w.IsRunning())
	assert.True(t, w.Stop(time.Second), "повторная остановка безопасна")
}

func TestStopBeforeStart(t *testing.T) {
	w := newTestWorker(t, connectedSim(t), telemetry.NewStore(), &sync.Mutex{})
	assert.True(t, w.Stop(10*time.Millisecond))
}

func TestContextCancelStopsLoop(t *testing.T) {
	w := newTestWorker(t, connectedSim(t), telemetry.NewStore(), &sync.Mutex{})
	ctx, cancel := context.WithCancel(context.Background())
	require.NoError(t, w.Start(ctx))

	cancel()
	require.Eventually(t, func() bool { return !w.IsRunning() }, time.Second, time.Millisecond)
}

func TestInactiveManagerStopsLoop(t *testing.T) {
	var active atomic.Bool
	active.Store(true)
	w := newPollingWorker(pollerParams{
		drv:    connectedSim(t),
		store:  telemetry.NewStore(),
		calls:  &sync.Mutex{},
		handle: 1,
		period: time.Millisecond,
		active: active.Load,
		logger: logging.Discard(),
	})
	require.NoError(t, w.Start(context.Background()))

	active.Store(false)
	require.Eventually(t, func() bool { return !w.IsRunning() }, time.Second, time.Millisecond)
}

func TestStopTimesOutOnSlowRead(t *testing.T) {
	r := connectedSim(t)
	r.SetReadDelay(200 * time.Millisecond)
	store := telemetry.NewStore()
	w := newTestWorker(t, r, store, &sync.Mutex{})
	require.NoError(t, w.Start(context.Background()))
	require.Eventually(t, func() bool { return r.Calls(sim.OpReadJoints) > 0 }, time.Second, time.Millisecond)

	assert.False(t, w.Stop(10*time.Millisecond))
	require.Eventually(t, func() bool { return !w.IsRunning() }, time.Second, 5*time.Millisecond)
	assert.Zero(t, store.Version(), "чтение, завершившееся после остановки, не попадает в хранилище")
}
