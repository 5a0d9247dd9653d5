package app

import (
	"context"

	robot "github.com/iwtcode/robotAdapter"
	"github.com/iwtcode/robotAdapter/driver"
	"github.com/iwtcode/robotAdapter/driver/sim"
	"github.com/iwtcode/robotAdapter/internal/config"
	"github.com/iwtcode/robotAdapter/internal/interfaces"
	"github.com/iwtcode/robotAdapter/internal/middleware/logging"
	"github.com/iwtcode/robotAdapter/internal/services/exporter"
	"github.com/iwtcode/robotAdapter/internal/services/kafka"
	"github.com/iwtcode/robotAdapter/models"

	"go.uber.org/fx"
)

// New создает новый экземпляр fx.App
func New() *fx.App {
	return fx.New(Options())
}

// Options собирает граф зависимостей приложения
func Options() fx.Option {
	return fx.Options(
		ConfigModule,
		LoggingModule,
		DriverModule,
		ClientModule,
		ProducerModule,
		ExporterModule,
		// Invoke-функции для хуков жизненного цикла
		fx.Invoke(InvokeConnectRobot),
		fx.Invoke(InvokeExporter),
	)
}

// --- Модули FX ---

var ConfigModule = fx.Module("config_module",
	fx.Provide(config.LoadConfiguration),
)

func ProvideLogger(lc fx.Lifecycle, cfg *config.AppConfig) *logging.Logger {
	loggerCfg := &logging.Config{
		Enabled:    cfg.Logging.Enable,
		Level:      cfg.Logging.Level,
		LogsDir:    cfg.Logging.LogsDir,
		SavingDays: uint(cfg.Logging.SavingDays),
	}
	logger := logging.NewLogger(loggerCfg, "RobotAdapterApp")
	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			return logger.Close()
		},
	})
	return logger
}

var LoggingModule = fx.Module("logging_module",
	fx.Provide(ProvideLogger),
)

// ProvideDriver создает симулятор робота по настройкам конфигурации.
func ProvideDriver(cfg *config.AppConfig) driver.Driver {
	r := sim.New(cfg.Driver.FirstHandle)
	r.SetConnectResult(cfg.Driver.ConnectResult)
	r.SetReadDelay(cfg.Driver.ReadDelay)
	r.SetStatus(models.RobotStatus{PoweredOn: cfg.Driver.PoweredOn})

	var joints models.JointPositions
	copy(joints[:], cfg.Driver.Joints)
	r.SetJoints(joints)
	return r
}

var DriverModule = fx.Module("driver_module",
	fx.Provide(ProvideDriver),
)

func ProvideClient(lc fx.Lifecycle, drv driver.Driver, cfg *config.AppConfig, logger *logging.Logger) (*robot.Client, error) {
	client, err := robot.NewWithLogger(drv, &robot.Config{
		IP:          cfg.Robot.IP,
		PollHz:      cfg.Robot.PollHz,
		PollStatus:  cfg.Robot.PollStatus,
		StopTimeout: cfg.Robot.StopTimeout,
		LogLevel:    cfg.Logging.Level,
	}, logger)
	if err != nil {
		return nil, err
	}
	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			logger.Info("Closing robot connection...")
			return client.Close()
		},
	})
	return client, nil
}

var ClientModule = fx.Module("client_module",
	fx.Provide(
		ProvideClient,
		func(c *robot.Client) interfaces.TelemetrySource { return c },
	),
)

func ProvideProducer(lc fx.Lifecycle, cfg *config.AppConfig, logger *logging.Logger) (interfaces.KafkaService, error) {
	producer, err := kafka.NewKafkaProducer(cfg, logger)
	if err != nil {
		return nil, err
	}
	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			return producer.Close()
		},
	})
	return producer, nil
}

var ProducerModule = fx.Module("producer_module",
	fx.Provide(ProvideProducer),
)

var ExporterModule = fx.Module("exporter_module",
	fx.Provide(exporter.NewExporter),
)

// InvokeConnectRobot подключается к роботу при старте.
func InvokeConnectRobot(lc fx.Lifecycle, client *robot.Client, cfg *config.AppConfig, logger *logging.Logger) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			logger.Info("Connecting to robot...", "ip", cfg.Robot.IP)
			if err := client.Connect(cfg.Robot.IP); err != nil {
				logger.Error("Failed to connect to robot", "ip", cfg.Robot.IP, "error", err)
				return nil // Не фатально, подключение можно повторить
			}

			if !cfg.Robot.AutoEnable {
				return nil
			}
			if err := client.PowerOn(); err != nil {
				logger.Warn("Auto power on failed", "error", err)
				return nil
			}
			if err := client.EnableRobot(); err != nil {
				logger.Warn("Auto enable failed", "error", err)
			}
			return nil
		},
	})
}

// InvokeExporter запускает экспорт телеметрии. Цикл живет дольше контекста старта.
func InvokeExporter(lc fx.Lifecycle, exp *exporter.Exporter, logger *logging.Logger) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			return exp.Start(context.Background())
		},
		OnStop: func(ctx context.Context) error {
			logger.Info("Stopping telemetry exporter...")
			return exp.Stop(ctx)
		},
	})
}
