package log

import (
	"context"
	"fmt"
	"time"

	"github.com/docpipe/docpipe/pkg/requestid"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// LoggerBuilder collects the fields shared by every event of one operation.
type LoggerBuilder struct {
	name      string
	level     zapcore.Level
	ctx       context.Context
	operation string
	fields    []zap.Field
}

// NewDebugLogger starts a builder whose step and success events are logged at debug level.
// Errors are always logged at error level.
func NewDebugLogger(name string) *LoggerBuilder {
	return &LoggerBuilder{name: name, level: zapcore.DebugLevel}
}

// NewInfoLogger is like NewDebugLogger but logs steps at info level.
func NewInfoLogger(name string) *LoggerBuilder {
	return &LoggerBuilder{name: name, level: zapcore.InfoLevel}
}

func (b *LoggerBuilder) WithContext(ctx context.Context) *LoggerBuilder {
	b.ctx = ctx
	return b
}

func (b *LoggerBuilder) Operation(op string) *LoggerBuilder {
	b.operation = op
	return b
}

func (b *LoggerBuilder) WithString(key, value string) *LoggerBuilder {
	b.fields = append(b.fields, zap.String(key, value))
	return b
}

func (b *LoggerBuilder) WithInt(key string, value int) *LoggerBuilder {
	b.fields = append(b.fields, zap.Int(key, value))
	return b
}

func (b *LoggerBuilder) WithInt64(key string, value int64) *LoggerBuilder {
	b.fields = append(b.fields, zap.Int64(key, value))
	return b
}

func (b *LoggerBuilder) WithParam(key string, value any) *LoggerBuilder {
	b.fields = append(b.fields, zap.Any(key, value))
	return b
}

func (b *LoggerBuilder) Build() *StructuredLogger {
	fields := make([]zap.Field, 0, len(b.fields)+2)
	if b.operation != "" {
		fields = append(fields, zap.String("operation", b.operation))
	}
	if b.ctx != nil {
		if id := requestid.FromContext(b.ctx); id != "" {
			fields = append(fields, zap.String("request_id", id))
		}
	}
	fields = append(fields, b.fields...)

	return &StructuredLogger{
		logger: zap.L().Named(b.name).WithOptions(zap.AddCallerSkip(1)).With(fields...),
		level:  b.level,
		start:  time.Now(),
	}
}

// StructuredLogger traces a single operation as a sequence of events.
type StructuredLogger struct {
	logger *zap.Logger
	level  zapcore.Level
	start  time.Time
}

func (l *StructuredLogger) Step(name string) *Event {
	return l.newEvent(l.level, fmt.Sprintf("step: %s", name), zap.String("step", name))
}

func (l *StructuredLogger) Success() *Event {
	return l.newEvent(l.level, "operation succeeded", zap.Duration("duration", time.Since(l.start)))
}

func (l *StructuredLogger) Error(err error) *Event {
	return l.newEvent(zapcore.ErrorLevel, "operation failed", zap.Error(err), zap.Duration("duration", time.Since(l.start)))
}

func (l *StructuredLogger) newEvent(level zapcore.Level, msg string, fields ...zap.Field) *Event {
	return &Event{logger: l.logger, level: level, msg: msg, fields: fields}
}

// Event is a single log line; nothing is written until Log is called.
type Event struct {
	logger *zap.Logger
	level  zapcore.Level
	msg    string
	fields []zap.Field
}

func (e *Event) WithString(key, value string) *Event {
	e.fields = append(e.fields, zap.String(key, value))
	return e
}

func (e *Event) WithInt(key string, value int) *Event {
	e.fields = append(e.fields, zap.Int(key, value))
	return e
}

func (e *Event) WithInt64(key string, value int64) *Event {
	e.fields = append(e.fields, zap.Int64(key, value))
	return e
}

func (e *Event) WithParam(key string, value any) *Event {
	e.fields = append(e.fields, zap.Any(key, value))
	return e
}

func (e *Event) Log() {
	if ce := e.logger.Check(e.level, e.msg); ce != nil {
		ce.Write(e.fields...)
	}
}
