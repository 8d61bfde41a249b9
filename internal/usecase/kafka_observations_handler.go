package usecase

import (
	"context"
	"encoding/json"
	"time"

	"RSIPulse/internal/domain/models"
	drepo "RSIPulse/internal/domain/repository"
	pkgkafka "RSIPulse/pkg/kafka"
)

// KafkaObservationsHandler consumes closed-bar messages from Kafka and feeds
// them into the engine. Observations arriving over Kafka go through the same
// processing as the WebSocket stream.
type KafkaObservationsHandler struct {
	topic   string
	proc    *ObservationProcessor
	metrics drepo.Metrics
}

func NewKafkaObservationsHandler(topic string, proc *ObservationProcessor, metrics drepo.Metrics) *KafkaObservationsHandler {
	return &KafkaObservationsHandler{topic: topic, proc: proc, metrics: metrics}
}

func (h *KafkaObservationsHandler) Topic() string { return h.topic }

// incoming message schema: {symbol, tf, t, c}
func (h *KafkaObservationsHandler) Handle(ctx context.Context, b []byte) error {
	var m struct {
		Symbol string  `json:"symbol"`
		TF     string  `json:"tf"`
		T      int64   `json:"t"`
		C      float64 `json:"c"`
	}
	if err := json.Unmarshal(b, &m); err != nil {
		h.metrics.RecordError("consumer_unmarshal")
		return err
	}
	if m.T > 1e11 { // ms
		m.T = m.T / 1000
	}
	ts := time.Unix(m.T, 0)
	h.metrics.RecordLatency("ingest_e2e_seconds", time.Since(ts).Seconds())

	return h.proc.Process(ctx, &models.Observation{
		Symbol:    m.Symbol,
		Timeframe: models.NormalizeTimeframe(m.TF),
		Timestamp: ts,
		Close:     m.C,
	})
}

var _ pkgkafka.MessageHandler = (*KafkaObservationsHandler)(nil)
