package main

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"time"

	robot "github.com/iwtcode/robotAdapter"
	"github.com/iwtcode/robotAdapter/driver/sim"
	"github.com/iwtcode/robotAdapter/models"
	"github.com/jessevdk/go-flags"
	"github.com/joho/godotenv"
)

// Options - параметры командной строки. Незаданные значения берутся из окружения.
type Options struct {
	IP       string  `long:"ip" description:"Robot IP address (overrides ROBOT_IP)"`
	Hz       int     `long:"hz" description:"Polling frequency, 10-125 Hz (overrides ROBOT_POLL_HZ)"`
	Joint    int     `long:"joint" default:"0" description:"Joint index to jog (0-5)"`
	Target   float64 `long:"target" default:"0.5236" description:"Target joint position, radians"`
	Velocity float64 `long:"velocity" default:"0.2" description:"Jog velocity"`
}

// runStep выполняет один шаг сценария и останавливает программу при ошибке.
func runStep(name string, fn func() error) {
	log.Printf("--- Запуск шага: %s ---", name)
	if err := fn(); err != nil {
		log.Fatalf("Ошибка выполнения на шаге %s: %v", name, err)
	}
	log.Printf("--- Шаг %s выполнен успешно ---", name)
	fmt.Println("==================================================")
}

func main() {
	var opts Options
	if _, err := flags.Parse(&opts); err != nil {
		if flagsErr, ok := err.(*flags.Error); ok && flagsErr.Type == flags.ErrHelp {
			os.Exit(0)
		}
		os.Exit(1)
	}

	// 1) Загрузка конфигурации
	err := godotenv.Load("./.env")
	if err != nil {
		log.Printf("Warning: Could not load .env file. Using default values or environment variables: %v", err)
	}

	cfg := robot.Load()
	if opts.IP != "" {
		cfg.IP = opts.IP
	}
	if opts.Hz != 0 {
		cfg.PollHz = opts.Hz
	}
	log.Printf("Конфигурация загружена: IP=%s, PollHz=%d", cfg.IP, cfg.PollHz)

	// 2) Симулятор вместо нативного драйвера
	arm := sim.New(1)
	arm.SetPose(models.ToolPose{X: 450, Y: 0, Z: 320, RX: 180})

	client, err := robot.New(arm, cfg)
	if err != nil {
		log.Fatalf("Не удалось создать клиент: %v", err)
	}
	defer client.Close()

	client.OnConnected(func(e robot.Event) {
		log.Printf("Подключено: ip=%s session=%s handle=%d", e.IP, e.SessionID, e.Handle)
	})
	client.OnDisconnected(func(e robot.Event) {
		log.Printf("Отключено: ip=%s session=%s", e.IP, e.SessionID)
	})

	runStep("Connect", func() error { return client.Connect(cfg.IP) })
	runStep("PowerOn", client.PowerOn)
	runStep("EnableRobot", client.EnableRobot)

	// 3) Перемещение оси и чтение телеметрии
	runStep("JogJoint", func() error {
		return client.JogJoint(opts.Joint, opts.Velocity, opts.Target)
	})
	runStep("StopJog", func() error { return client.StopJog(opts.Joint) })

	runStep("ReadTelemetry", func() error {
		time.Sleep(100 * time.Millisecond)
		printAsJSON("JointsDegrees", client.CurrentJointPositionsDegrees())
		printAsJSON("ToolPose", client.CurrentToolPose())
		printAsJSON("Status", client.CurrentStatus())
		return nil
	})

	runStep("Disconnect", client.Disconnect)
	log.Println("Сценарий завершен.")
}

// printAsJSON форматирует данные в JSON и выводит в лог
func printAsJSON(name string, data interface{}) {
	jsonData, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		log.Printf("Ошибка маршалинга JSON для %s: %v", name, err)
		return
	}
	fmt.Printf("--- %s ---\n%s\n", name, string(jsonData))
}
