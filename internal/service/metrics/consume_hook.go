package metrics

import (
	"context"
	"time"

	"github.com/segmentio/kafka-go"

	drepo "RSIPulse/internal/domain/repository"
	pkgkafka "RSIPulse/pkg/kafka"
)

// ConsumeHook records handling latency and failures for consumed messages.
type ConsumeHook struct {
	metrics drepo.Metrics
}

func NewConsumeHook(m drepo.Metrics) *ConsumeHook {
	return &ConsumeHook{metrics: m}
}

func (h *ConsumeHook) BeforeHandle(ctx context.Context, topic string, km kafka.Message, data []byte) (context.Context, kafka.Message, []byte, error) {
	return pkgkafka.WithStartTime(ctx, time.Now()), km, data, nil
}

func (h *ConsumeHook) AfterHandle(ctx context.Context, topic string, km kafka.Message, data []byte, err error) {
	if start, ok := pkgkafka.StartTime(ctx); ok {
		h.metrics.RecordLatency("consume", time.Since(start).Seconds())
	}
}

func (h *ConsumeHook) OnError(ctx context.Context, topic string, km kafka.Message, data []byte, err error) {
	h.metrics.RecordError("consume")
}
