// Package exporter публикует телеметрию и события подключения в Kafka.
package exporter

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/iwtcode/robotAdapter/internal/config"
	"github.com/iwtcode/robotAdapter/internal/events"
	"github.com/iwtcode/robotAdapter/internal/interfaces"
	"github.com/iwtcode/robotAdapter/internal/middleware/logging"
	"github.com/iwtcode/robotAdapter/models"
)

const (
	lifecycleBuffer = 16
	publishTimeout  = 5 * time.Second
)

// Exporter периодически отправляет снимок телеметрии, пока робот подключен,
// и по сообщению на каждое подключение и отключение.
// Отправка идет из собственной горутины: обработчик события только ставит сообщение в очередь.
type Exporter struct {
	src      interfaces.TelemetrySource
	producer interfaces.KafkaService
	cfg      config.KafkaConfig
	logger   *logging.Logger

	lifecycle chan models.LifecycleMessage

	mu      sync.Mutex
	subID   events.SubscriberID
	stop    chan struct{}
	done    chan struct{}
	started bool
}

func NewExporter(src interfaces.TelemetrySource, producer interfaces.KafkaService, cfg *config.AppConfig, logger *logging.Logger) *Exporter {
	return &Exporter{
		src:       src,
		producer:  producer,
		cfg:       cfg.Kafka,
		logger:    logger.WithPrefix("EXPORTER"),
		lifecycle: make(chan models.LifecycleMessage, lifecycleBuffer),
	}
}

// Start подписывается на события и запускает цикл отправки.
func (e *Exporter) Start(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.started {
		return errors.New("exporter already started")
	}
	e.started = true
	e.stop = make(chan struct{})
	e.done = make(chan struct{})
	e.subID = e.src.Subscribe(e.onEvent)

	go e.run(ctx)
	e.logger.Info("Exporter started", "topic", e.cfg.Topic, "lifecycleTopic", e.cfg.LifecycleTopic, "interval", e.cfg.Interval)
	return nil
}

// Stop отписывается от событий и ждет завершения цикла не дольше, чем позволяет ctx.
func (e *Exporter) Stop(ctx context.Context) error {
	e.mu.Lock()
	if !e.started {
		e.mu.Unlock()
		return nil
	}
	e.started = false
	e.src.Unsubscribe(e.subID)
	close(e.stop)
	done := e.done
	e.mu.Unlock()

	select {
	case <-done:
		e.logger.Info("Exporter stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (e *Exporter) onEvent(evt events.Event) {
	msg := models.LifecycleMessage{
		RobotIP:   evt.IP,
		SessionID: evt.SessionID,
		Event:     evt.Type.String(),
		Timestamp: evt.Timestamp,
	}
	select {
	case e.lifecycle <- msg:
	default:
		e.logger.Warn("Lifecycle queue is full, event dropped", "event", msg.Event, "sessionID", msg.SessionID)
	}
}

// run публикует события жизненного цикла по мере поступления и снимок телеметрии
// каждые Interval. При Interval <= 0 снимки не отправляются.
func (e *Exporter) run(ctx context.Context) {
	var tick <-chan time.Time
	if e.cfg.Interval > 0 {
		ticker := time.NewTicker(e.cfg.Interval)
		defer ticker.Stop()
		tick = ticker.C
	} else {
		e.logger.Warn("Telemetry interval is not positive, periodic export disabled", "interval", e.cfg.Interval)
	}
	defer close(e.done)

	for {
		select {
		case <-e.stop:
			e.drainLifecycle(ctx)
			return
		case <-ctx.Done():
			return
		case msg := <-e.lifecycle:
			e.publishLifecycle(ctx, msg)
		case <-tick:
			if err := e.PublishTelemetry(ctx); err != nil {
				e.logger.Error("Failed to send telemetry to Kafka", "error", err)
			}
		}
	}
}

func (e *Exporter) drainLifecycle(ctx context.Context) {
	for {
		select {
		case msg := <-e.lifecycle:
			e.publishLifecycle(ctx, msg)
		default:
			return
		}
	}
}

func (e *Exporter) publishLifecycle(ctx context.Context, msg models.LifecycleMessage) {
	jsonData, err := json.Marshal(msg)
	if err != nil {
		e.logger.Error("Failed to serialize lifecycle event", "sessionID", msg.SessionID, "error", err)
		return
	}

	ctx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()
	if err := e.producer.Produce(ctx, e.cfg.LifecycleTopic, []byte(msg.SessionID), jsonData); err != nil {
		e.logger.Error("Failed to send lifecycle event to Kafka", "event", msg.Event, "sessionID", msg.SessionID, "error", err)
		return
	}
	e.logger.Debug("Lifecycle event sent", "event", msg.Event, "sessionID", msg.SessionID)
}

// BuildTelemetry собирает сообщение из текущего снимка. false, если робот не подключен.
func BuildTelemetry(src interfaces.TelemetrySource) (models.TelemetryMessage, bool) {
	session, ok := src.Session()
	if !ok {
		return models.TelemetryMessage{}, false
	}
	snap := src.CurrentSnapshot()
	return models.TelemetryMessage{
		RobotIP:       session.IP,
		SessionID:     session.SessionID,
		Timestamp:     time.Now(),
		State:         src.State().String(),
		JointsRadians: snap.Joints,
		JointsDegrees: snap.Joints.Degrees(),
		Pose:          snap.Pose,
		Status:        snap.Status,
		Version:       snap.Version,
	}, true
}

// PublishTelemetry отправляет один снимок. Без подключения ничего не отправляет.
func (e *Exporter) PublishTelemetry(ctx context.Context) error {
	msg, ok := BuildTelemetry(e.src)
	if !ok {
		return nil
	}

	jsonData, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("serialize telemetry: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()
	if err := e.producer.Produce(ctx, e.cfg.Topic, []byte(msg.SessionID), jsonData); err != nil {
		return fmt.Errorf("produce telemetry for session %s: %w", msg.SessionID, err)
	}
	return nil
}
