package robot

import (
	"os"
	"strconv"
	"time"
)

// Config хранит модель конфигурации клиента
type Config struct {
	IP          string
	PollHz      int
	PollStatus  bool
	StopTimeout time.Duration
	LogLevel    string
}

// Load загружает конфигурацию из переменных окружения
func Load() *Config {
	ip := os.Getenv("ROBOT_IP")
	if ip == "" {
		ip = "192.168.1.10"
	}

	hz, err := strconv.Atoi(os.Getenv("ROBOT_POLL_HZ"))
	if err != nil || hz == 0 {
		hz = 60
	}

	pollStatus, _ := strconv.ParseBool(os.Getenv("ROBOT_POLL_STATUS"))

	timeoutMs, err := strconv.Atoi(os.Getenv("ROBOT_STOP_TIMEOUT_MS"))
	if err != nil || timeoutMs <= 0 {
		timeoutMs = 1000
	}

	logLevel := os.Getenv("LOG_LEVEL")
	if logLevel == "" {
		logLevel = "info"
	}

	return &Config{
		IP:          ip,
		PollHz:      hz,
		PollStatus:  pollStatus,
		StopTimeout: time.Duration(timeoutMs) * time.Millisecond,
		LogLevel:    logLevel,
	}
}
