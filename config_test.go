package robot

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{"ROBOT_IP", "ROBOT_POLL_HZ", "ROBOT_POLL_STATUS", "ROBOT_STOP_TIMEOUT_MS", "LOG_LEVEL"} {
		t.Setenv(key, "")
	}

	cfg := Load()
	assert.Equal(t, "192.168.1.10", cfg.IP)
	assert.Equal(t, 60, cfg.PollHz)
	assert.False(t, cfg.PollStatus)
	assert.Equal(t, time.Second, cfg.StopTimeout)
	assert.Equal(t, "info", cfg.LogLevel)
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("ROBOT_IP", "10.0.0.5")
	t.Setenv("ROBOT_POLL_HZ", "100")
	t.Setenv("ROBOT_POLL_STATUS", "true")
	t.Setenv("ROBOT_STOP_TIMEOUT_MS", "250")
	t.Setenv("LOG_LEVEL", "debug")

	cfg := Load()
	assert.Equal(t, "10.0.0.5", cfg.IP)
	assert.Equal(t, 100, cfg.PollHz)
	assert.True(t, cfg.PollStatus)
	assert.Equal(t, 250*time.Millisecond, cfg.StopTimeout)
	assert.Equal(t, "debug", cfg.LogLevel)
}

func TestLoadIgnoresGarbage(t *testing.T) {
	t.Setenv("ROBOT_POLL_HZ", "fast")
	t.Setenv("ROBOT_STOP_TIMEOUT_MS", "-5")

	cfg := Load()
	assert.Equal(t, 60, cfg.PollHz)
	assert.Equal(t, time.Second, cfg.StopTimeout)
}
