package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// AppConfig содержит конфигурацию приложения
type AppConfig struct {
	Robot   RobotConfig  `yaml:"robot"`
	Driver  DriverConfig `yaml:"driver"`
	Kafka   KafkaConfig  `yaml:"kafka"`
	Logging LoggerConfig `yaml:"logging"`
}

// RobotConfig содержит параметры подключения и опроса
type RobotConfig struct {
	IP          string        `yaml:"ip"`
	PollHz      int           `yaml:"poll_hz"`
	PollStatus  bool          `yaml:"poll_status"`
	StopTimeout time.Duration `yaml:"stop_timeout"`
	AutoEnable  bool          `yaml:"auto_enable"` // включить питание и разрешить движение после подключения
}

// DriverConfig описывает драйвер. Поддерживается только симулятор.
type DriverConfig struct {
	Kind          string        `yaml:"kind"`
	FirstHandle   int           `yaml:"first_handle"`
	ConnectResult int           `yaml:"connect_result"`
	ReadDelay     time.Duration `yaml:"read_delay"`
	PoweredOn     bool          `yaml:"powered_on"`
	Joints        []float64     `yaml:"joints"` // начальные углы в радианах
}

// KafkaConfig содержит настройки экспорта телеметрии
type KafkaConfig struct {
	Enabled        bool          `yaml:"enabled"`
	Broker         string        `yaml:"broker"`
	Topic          string        `yaml:"topic"`
	LifecycleTopic string        `yaml:"lifecycle_topic"`
	Interval       time.Duration `yaml:"interval"`
}

// LoggerConfig содержит настройки логгера
type LoggerConfig struct {
	Enable     bool   `yaml:"enable"`
	LogsDir    string `yaml:"logs_dir"`
	Level      string `yaml:"level"`
	SavingDays int    `yaml:"saving_days"`
}

// Defaults возвращает конфигурацию по умолчанию.
func Defaults() *AppConfig {
	return &AppConfig{
		Robot: RobotConfig{
			IP:          "192.168.1.10",
			PollHz:      60,
			StopTimeout: time.Second,
		},
		Driver: DriverConfig{
			Kind:        "sim",
			FirstHandle: 1,
			PoweredOn:   true,
		},
		Kafka: KafkaConfig{
			Enabled:        false,
			Broker:         "localhost:9092",
			Topic:          "robot_telemetry",
			LifecycleTopic: "robot_lifecycle",
			Interval:       time.Second,
		},
		Logging: LoggerConfig{
			Enable:     true,
			LogsDir:    "./logs",
			Level:      "INFO",
			SavingDays: 7,
		},
	}
}

// LoadConfiguration загружает конфигурацию: .env, затем YAML-файл из ROBOT_CONFIG_FILE,
// затем переменные окружения поверх файла.
func LoadConfiguration() (*AppConfig, error) {
	_ = godotenv.Load()

	cfg := Defaults()
	if path := getEnv("ROBOT_CONFIG_FILE", ""); path != "" {
		if err := loadFile(path, cfg); err != nil {
			return nil, err
		}
	}
	applyEnv(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func loadFile(path string, cfg *AppConfig) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("read config file %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}
	return nil
}

func applyEnv(cfg *AppConfig) {
	cfg.Robot.IP = getEnv("ROBOT_IP", cfg.Robot.IP)
	cfg.Robot.PollHz = getEnvAsInt("ROBOT_POLL_HZ", cfg.Robot.PollHz)
	cfg.Robot.PollStatus = getEnvAsBool("ROBOT_POLL_STATUS", cfg.Robot.PollStatus)
	cfg.Robot.StopTimeout = getEnvAsDuration("ROBOT_STOP_TIMEOUT", cfg.Robot.StopTimeout)
	cfg.Robot.AutoEnable = getEnvAsBool("ROBOT_AUTO_ENABLE", cfg.Robot.AutoEnable)

	cfg.Driver.Kind = getEnv("ROBOT_DRIVER", cfg.Driver.Kind)
	cfg.Driver.ReadDelay = getEnvAsDuration("SIM_READ_DELAY", cfg.Driver.ReadDelay)
	cfg.Driver.PoweredOn = getEnvAsBool("SIM_POWERED_ON", cfg.Driver.PoweredOn)

	cfg.Kafka.Enabled = getEnvAsBool("KAFKA_ENABLED", cfg.Kafka.Enabled)
	cfg.Kafka.Broker = getEnv("KAFKA_BROKER", cfg.Kafka.Broker)
	cfg.Kafka.Topic = getEnv("KAFKA_TOPIC", cfg.Kafka.Topic)
	cfg.Kafka.LifecycleTopic = getEnv("KAFKA_LIFECYCLE_TOPIC", cfg.Kafka.LifecycleTopic)
	cfg.Kafka.Interval = getEnvAsDuration("KAFKA_INTERVAL", cfg.Kafka.Interval)

	cfg.Logging.Enable = getEnvAsBool("LOGGER_ENABLE", cfg.Logging.Enable)
	cfg.Logging.LogsDir = getEnv("LOGGER_LOGS_DIR", cfg.Logging.LogsDir)
	cfg.Logging.Level = getEnv("LOGGER_LOG_LEVEL", cfg.Logging.Level)
	cfg.Logging.SavingDays = getEnvAsInt("LOGGER_SAVING_DAYS", cfg.Logging.SavingDays)
}

// Validate проверяет согласованность конфигурации.
func (c *AppConfig) Validate() error {
	var errs []error
	if c.Robot.IP == "" {
		errs = append(errs, errors.New("robot.ip is required"))
	}
	if c.Robot.StopTimeout <= 0 {
		errs = append(errs, errors.New("robot.stop_timeout must be positive"))
	}
	if c.Driver.Kind != "sim" {
		errs = append(errs, fmt.Errorf("unsupported driver kind %q", c.Driver.Kind))
	}
	if len(c.Driver.Joints) > 6 {
		errs = append(errs, fmt.Errorf("driver.joints has %d values, at most 6 allowed", len(c.Driver.Joints)))
	}
	if c.Kafka.Enabled {
		if c.Kafka.Broker == "" {
			errs = append(errs, errors.New("kafka.broker is required"))
		}
		if c.Kafka.Topic == "" {
			errs = append(errs, errors.New("kafka.topic is required"))
		}
	}
	if c.Kafka.Interval <= 0 {
		errs = append(errs, errors.New("kafka.interval must be positive"))
	}
	return errors.Join(errs...)
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvAsInt(name string, defaultValue int) int {
	valueStr := getEnv(name, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	val, err := strconv.ParseBool(value)
	if err != nil {
		return defaultValue
	}
	return val
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return defaultValue
	}
	return d
}
