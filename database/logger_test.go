package database

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func bufferedLogger(level logger.LogLevel) (*slogLogger, *bytes.Buffer) {
	var buf bytes.Buffer
	return &slogLogger{
		log:           slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})),
		level:         level,
		slowThreshold: slowQueryThreshold,
	}, &buf
}

func sqlFunc() (string, int64) { return "INSERT INTO quizzes", 0 }

func TestTraceFailedQueryLogsAtError(t *testing.T) {
	l, buf := bufferedLogger(logger.Warn)

	l.Trace(context.Background(), time.Now(), sqlFunc, errors.New("FOREIGN KEY constraint failed"))

	assert.Contains(t, buf.String(), "level=ERROR")
	assert.Contains(t, buf.String(), "FOREIGN KEY constraint failed")
	assert.Contains(t, buf.String(), "INSERT INTO quizzes")
}

func TestTraceSlowQueryLogsAtWarn(t *testing.T) {
	l, buf := bufferedLogger(logger.Warn)

	l.Trace(context.Background(), time.Now().Add(-time.Second), sqlFunc, nil)

	assert.Contains(t, buf.String(), "level=WARN")
	assert.Contains(t, buf.String(), "slow query")
}

func TestTraceEchoOnlyAtInfo(t *testing.T) {
	quiet, quietBuf := bufferedLogger(logger.Warn)
	quiet.Trace(context.Background(), time.Now(), sqlFunc, nil)
	assert.Empty(t, quietBuf.String())

	echo, echoBuf := bufferedLogger(logger.Info)
	echo.Trace(context.Background(), time.Now(), sqlFunc, nil)
	assert.Contains(t, echoBuf.String(), "level=INFO")
}

func TestTraceSkipsRecordNotFound(t *testing.T) {
	l, buf := bufferedLogger(logger.Warn)

	l.Trace(context.Background(), time.Now(), sqlFunc, gorm.ErrRecordNotFound)

	assert.Empty(t, buf.String())
}

func TestLogModeAndLevelMethods(t *testing.T) {
	l, buf := bufferedLogger(logger.Info)
	silent := l.LogMode(logger.Silent)

	silent.Error(context.Background(), "hidden %d", 1)
	assert.Empty(t, buf.String())

	l.Warn(context.Background(), "pool %s", "low")
	l.Error(context.Background(), "broken %s", "pipe")
	assert.Contains(t, buf.String(), `level=WARN msg="pool low"`)
	assert.Contains(t, buf.String(), `level=ERROR msg="broken pipe"`)
}
