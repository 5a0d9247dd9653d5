package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

type Config struct {
	Enabled    bool   // Включено ли логирование
	Level      string // debug, info, warn, error; off/none отключает вывод
	LogsDir    string // Директория для логов
	SavingDays uint   // Сколько дней хранить логи
}

// Logger - логгер с префиксом компонента поверх logrus.
type Logger struct {
	config *Config
	base   *logrus.Logger
	file   *os.File
	prefix string
	stop   chan struct{}
}

func NewLogger(cfg *Config, prefix string) *Logger {
	base := logrus.New()
	base.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05",
	})

	l := &Logger{
		config: cfg,
		base:   base,
		prefix: prefix,
	}

	if !cfg.Enabled || isOff(cfg.Level) {
		base.SetOutput(io.Discard)
		return l
	}
	base.SetLevel(parseLevel(cfg.Level))

	var output io.Writer = os.Stdout
	if cfg.LogsDir != "" {
		if err := os.MkdirAll(cfg.LogsDir, 0755); err == nil {
			logFile := filepath.Join(cfg.LogsDir, time.Now().Format("2006-01-02")+".log")
			if file, err := os.OpenFile(logFile, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644); err == nil {
				l.file = file
				output = io.MultiWriter(os.Stdout, file)
			}
		}
	}
	base.SetOutput(output)

	if cfg.SavingDays > 0 && cfg.LogsDir != "" {
		l.stop = make(chan struct{})
		go l.cleanLoop()
	}

	return l
}

// FromLogrus оборачивает уже настроенный logrus.Logger.
func FromLogrus(base *logrus.Logger, prefix string) *Logger {
	return &Logger{
		config: &Config{Enabled: true, Level: base.GetLevel().String()},
		base:   base,
		prefix: prefix,
	}
}

// Discard возвращает логгер без вывода. Удобен в тестах.
func Discard() *Logger {
	return NewLogger(&Config{Enabled: false}, "")
}

// WithPrefix возвращает логгер компонента с общим выводом. Close у него ничего не закрывает.
func (l *Logger) WithPrefix(prefix string) *Logger {
	newPrefix := l.prefix
	if newPrefix != "" {
		newPrefix += " "
	}
	newPrefix += "[" + prefix + "]"

	return &Logger{
		config: l.config,
		base:   l.base,
		prefix: newPrefix,
	}
}

// Logrus возвращает нижележащий логгер.
func (l *Logger) Logrus() *logrus.Logger {
	return l.base
}

func (l *Logger) cleanLoop() {
	ticker := time.NewTicker(24 * time.Hour)
	defer ticker.Stop()

	l.CleanOldLogs(time.Now())
	for {
		select {
		case <-l.stop:
			return
		case now := <-ticker.C:
			l.CleanOldLogs(now)
		}
	}
}

// CleanOldLogs удаляет файлы логов старше SavingDays относительно now.
func (l *Logger) CleanOldLogs(now time.Time) {
	files, err := os.ReadDir(l.config.LogsDir)
	if err != nil {
		l.Error("Failed to read logs directory", "error", err)
		return
	}

	cutoff := now.AddDate(0, 0, -int(l.config.SavingDays))
	for _, file := range files {
		if info, err := file.Info(); err == nil && !file.IsDir() && info.ModTime().Before(cutoff) {
			if err := os.Remove(filepath.Join(l.config.LogsDir, file.Name())); err != nil {
				l.Error("Failed to delete old log file", "file", file.Name(), "error", err)
			}
		}
	}
}

func (l *Logger) log(level logrus.Level, msg string, fields ...interface{}) {
	if !l.base.IsLevelEnabled(level) {
		return
	}

	entry := logrus.NewEntry(l.base)
	if l.prefix != "" {
		entry = entry.WithField("component", l.prefix)
	}
	if len(fields) > 0 {
		f := make(logrus.Fields, len(fields)/2+1)
		for i := 0; i < len(fields); i += 2 {
			key := fmt.Sprint(fields[i])
			var val interface{} = "?"
			if i+1 < len(fields) {
				val = fields[i+1]
			}
			f[key] = val
		}
		entry = entry.WithFields(f)
	}
	entry.Log(level, msg)
}

// ShouldLog сообщает, попадет ли запись уровня level в вывод.
func (l *Logger) ShouldLog(level string) bool {
	if !l.config.Enabled || isOff(l.config.Level) {
		return false
	}
	return l.base.IsLevelEnabled(parseLevel(level))
}

func (l *Logger) Debug(msg string, fields ...interface{}) { l.log(logrus.DebugLevel, msg, fields...) }
func (l *Logger) Info(msg string, fields ...interface{})  { l.log(logrus.InfoLevel, msg, fields...) }
func (l *Logger) Warn(msg string, fields ...interface{})  { l.log(logrus.WarnLevel, msg, fields...) }
func (l *Logger) Error(msg string, fields ...interface{}) { l.log(logrus.ErrorLevel, msg, fields...) }

// Close останавливает очистку и закрывает файл логов. Действует только на логгер из NewLogger.
func (l *Logger) Close() error {
	if l.stop != nil {
		close(l.stop)
		l.stop = nil
	}
	if l.file != nil {
		err := l.file.Close()
		l.file = nil
		return err
	}
	return nil
}

func isOff(level string) bool {
	lv := strings.ToLower(level)
	return lv == "off" || lv == "none"
}

func parseLevel(level string) logrus.Level {
	lv, err := logrus.ParseLevel(strings.ToLower(level))
	if err != nil {
		return logrus.InfoLevel // INFO по умолчанию
	}
	return lv
}
