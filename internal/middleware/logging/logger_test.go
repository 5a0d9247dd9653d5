package logging

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestShouldLog(t *testing.T) {
	l := NewLogger(&Config{Enabled: true, Level: "WARN"}, "test")
	defer l.Close()

	assert.False(t, l.ShouldLog("DEBUG"))
	assert.False(t, l.ShouldLog("INFO"))
	assert.True(t, l.ShouldLog("WARN"))
	assert.True(t, l.ShouldLog("ERROR"))
}

func TestUnknownLevelFallsBackToInfo(t *testing.T) {
	l := NewLogger(&Config{Enabled: true, Level: "loud"}, "")
	defer l.Close()

	assert.True(t, l.ShouldLog("INFO"))
	assert.False(t, l.ShouldLog("DEBUG"))
}

func TestOffDisablesOutput(t *testing.T) {
	for _, lv := range []string{"off", "none", "OFF"} {
		l := NewLogger(&Config{Enabled: true, Level: lv}, "")
		assert.False(t, l.ShouldLog("ERROR"), lv)
	}
	assert.False(t, Discard().ShouldLog("ERROR"))
}

func TestPrefixAndFields(t *testing.T) {
	var buf bytes.Buffer
	base := logrus.New()
	base.SetOutput(&buf)
	base.SetFormatter(&logrus.TextFormatter{DisableTimestamp: true, DisableColors: true})

	l := FromLogrus(base, "robot").WithPrefix("POLLER")
	l.Info("Joint read failed", "rc", -3, "dangling")

	out := buf.String()
	assert.Contains(t, out, `msg="Joint read failed"`)
	assert.Contains(t, out, `component="robot [POLLER]"`)
	assert.Contains(t, out, "rc=-3")
	assert.Contains(t, out, `dangling="?"`)
}

func TestCleanOldLogs(t *testing.T) {
	dir := t.TempDir()
	oldFile := filepath.Join(dir, "old.log")
	newFile := filepath.Join(dir, "new.log")
	require.NoError(t, os.WriteFile(oldFile, []byte("x"), 0644))
	require.NoError(t, os.WriteFile(newFile, []byte("x"), 0644))

	past := time.Now().AddDate(0, 0, -10)
	require.NoError(t, os.Chtimes(oldFile, past, past))

	l := &Logger{config: &Config{LogsDir: dir, SavingDays: 7}, base: logrus.New()}
	l.CleanOldLogs(time.Now())

	_, err := os.Stat(oldFile)
	assert.True(t, os.IsNotExist(err))
	_, err = os.Stat(newFile)
	assert.NoError(t, err)
}

func TestFileOutput(t *testing.T) {
	dir := t.TempDir()
	l := NewLogger(&Config{Enabled: true, Level: "debug", LogsDir: dir}, "file")
	l.Debug("hello", "k", "v")
	require.NoError(t, l.Close())

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)

	data, err := os.ReadFile(filepath.Join(dir, entries[0].Name()))
	require.NoError(t, err)
	assert.Contains(t, string(data), "hello")
}

func TestDerivedLoggerCloseKeepsFileOpen(t *testing.T) {
	dir := t.TempDir()
	root := NewLogger(&Config{Enabled: true, Level: "info", LogsDir: dir}, "svc")
	component := root.WithPrefix("CONNECTOR")

	require.NoError(t, component.Close())
	component.Info("after component close")
	root.Info("root still writes")
	require.NoError(t, root.Close())
	require.NoError(t, root.Close(), "повторное закрытие безопасно")

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	data, err := os.ReadFile(filepath.Join(dir, entries[0].Name()))
	require.NoError(t, err)
	assert.Contains(t, string(data), "after component close")
	assert.Contains(t, string(data), "root still writes")
}
