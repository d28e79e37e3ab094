package audience

import (
	"context"

	"github.com/rs/zerolog"
)

// Telemetry records builder events for observability.
type Telemetry interface {
	Record(ctx context.Context, event string, payload map[string]any)
}

type noopTelemetry struct{}

func (noopTelemetry) Record(context.Context, string, map[string]any) {}

func normalizeTelemetry(t Telemetry) Telemetry {
	if t == nil {
		return noopTelemetry{}
	}
	return t
}

// LoggerTelemetry writes telemetry events as structured zerolog entries.
type LoggerTelemetry struct {
	logger zerolog.Logger
	level  zerolog.Level
}

// NewLoggerTelemetry logs events at debug level on logger.
func NewLoggerTelemetry(logger zerolog.Logger) *LoggerTelemetry {
	return &LoggerTelemetry{logger: logger, level: zerolog.DebugLevel}
}

// WithLevel returns a copy logging at level.
func (t *LoggerTelemetry) WithLevel(level zerolog.Level) *LoggerTelemetry {
	out := *t
	out.level = level
	return &out
}

// Record emits one log line carrying the payload as fields.
func (t *LoggerTelemetry) Record(_ context.Context, event string, payload map[string]any) {
	t.logger.WithLevel(t.level).
		Str("event", event).
		Fields(payload).
		Msg("audience telemetry")
}
