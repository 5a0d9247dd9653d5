package app

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/fx"
	"go.uber.org/fx/fxtest"

	robot "github.com/iwtcode/robotAdapter"
	"github.com/iwtcode/robotAdapter/driver"
	"github.com/iwtcode/robotAdapter/internal/config"
	"github.com/iwtcode/robotAdapter/internal/interfaces"
	"github.com/iwtcode/robotAdapter/internal/services/kafka"
)

func setupEnv(t *testing.T) {
	t.Helper()
	t.Chdir(t.TempDir())
	t.Setenv("ROBOT_CONFIG_FILE", "")
	t.Setenv("ROBOT_IP", "10.0.0.5")
	t.Setenv("ROBOT_POLL_HZ", "125")
	t.Setenv("KAFKA_ENABLED", "false")
	t.Setenv("LOGGER_ENABLE", "false")
}

func TestAppConnectsAndClosesRobot(t *testing.T) {
	setupEnv(t)
	t.Setenv("ROBOT_AUTO_ENABLE", "true")

	var client *robot.Client
	var producer interfaces.KafkaService
	app := fxtest.New(t, Options(), fx.Populate(&client, &producer))

	app.RequireStart()
	assert.True(t, client.IsEnabled())
	session, ok := client.Session()
	require.True(t, ok)
	assert.Equal(t, "10.0.0.5", session.IP)
	assert.IsType(t, kafka.NoopProducer{}, producer)

	app.RequireStop()
	assert.False(t, client.IsConnected())
}

func TestAppSurvivesConnectFailure(t *testing.T) {
	setupEnv(t)

	var client *robot.Client
	app := fxtest.New(t,
		Options(),
		fx.Decorate(func(cfg *config.AppConfig) *config.AppConfig {
			cfg.Driver.ConnectResult = driver.RCConnection
			return cfg
		}),
		fx.Populate(&client),
	)

	app.RequireStart()
	assert.False(t, client.IsConnected())
	app.RequireStop()
}

func TestProvideDriver(t *testing.T) {
	cfg := config.Defaults()
	cfg.Driver.FirstHandle = 42
	cfg.Driver.Joints = []float64{0.1, 0.2}

	drv := ProvideDriver(cfg)
	rc, h := drv.CreateHandle("10.0.0.5")
	require.Equal(t, driver.OK, rc)
	assert.Equal(t, driver.Handle(42), h)

	rc, joints := drv.ReadJointPositions(h)
	require.Equal(t, driver.OK, rc)
	assert.Equal(t, 0.2, joints[1])
	assert.Zero(t, joints[2])

	rc, status := drv.ReadStatus(h)
	require.Equal(t, driver.OK, rc)
	assert.True(t, status.PoweredOn)
}
