package observability

import (
	"context"

	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"vip-relay/internal/common/logger"
)

// FailedSpanLogger is a span processor that logs every span ending with an
// error status. Successful spans are dropped.
type FailedSpanLogger struct {
	logger logger.Logger
}

func NewFailedSpanLogger(log logger.Logger) *FailedSpanLogger {
	if log == nil {
		log = logger.NewNoOpLogger()
	}
	return &FailedSpanLogger{logger: log}
}

func (p *FailedSpanLogger) OnStart(context.Context, sdktrace.ReadWriteSpan) {}

func (p *FailedSpanLogger) OnEnd(s sdktrace.ReadOnlySpan) {
	if s.Status().Code != codes.Error {
		return
	}

	fields := map[string]interface{}{
		"span":     s.Name(),
		"traceId":  s.SpanContext().TraceID().String(),
		"status":   s.Status().Description,
		"duration": s.EndTime().Sub(s.StartTime()),
	}
	for _, kv := range s.Attributes() {
		fields[string(kv.Key)] = kv.Value.Emit()
	}
	for _, ev := range s.Events() {
		if ev.Name != "exception" {
			continue
		}
		for _, kv := range ev.Attributes {
			if kv.Key == "exception.message" {
				fields["error"] = kv.Value.AsString()
			}
		}
	}

	p.logger.Warn("Span failed", fields)
}

func (p *FailedSpanLogger) Shutdown(context.Context) error { return nil }

func (p *FailedSpanLogger) ForceFlush(context.Context) error { return nil }
