package repository

import (
	"context"

	"RSIPulse/internal/domain/models"
	domrepo "RSIPulse/internal/domain/repository"
	pkgkafka "RSIPulse/pkg/kafka"
)

// KafkaEventSink implements EventSink for Kafka. Alerts and divergences go
// to separate topics, keyed by symbol so per-symbol ordering is preserved.
type KafkaEventSink struct {
	producer        *pkgkafka.Producer
	alertTopic      string
	divergenceTopic string
}

// NewKafkaEventSink creates a Kafka event sink.
func NewKafkaEventSink(producer *pkgkafka.Producer, alertTopic, divergenceTopic string) domrepo.EventSink {
	return &KafkaEventSink{producer: producer, alertTopic: alertTopic, divergenceTopic: divergenceTopic}
}

func (s *KafkaEventSink) PublishAlert(ctx context.Context, e *models.AlertEvent) error {
	return s.producer.Publish(ctx, s.alertTopic, []byte(e.Symbol), map[string]interface{}{
		"symbol":    e.Symbol,
		"timeframe": string(e.Timeframe),
		"from":      string(e.From),
		"to":        string(e.To),
		"rsi":       e.RSI,
		"t":         e.Timestamp.Unix(),
	})
}

func (s *KafkaEventSink) PublishDivergence(ctx context.Context, sig *models.DivergenceSignal) error {
	return s.producer.Publish(ctx, s.divergenceTopic, []byte(sig.Symbol), map[string]interface{}{
		"symbol":    sig.Symbol,
		"timeframe": string(sig.Timeframe),
		"kind":      string(sig.Kind),
		"price": []map[string]interface{}{
			{"t": sig.PricePair[0].Timestamp.Unix(), "v": sig.PricePair[0].Value},
			{"t": sig.PricePair[1].Timestamp.Unix(), "v": sig.PricePair[1].Value},
		},
		"rsi": []map[string]interface{}{
			{"t": sig.RSIPair[0].Timestamp.Unix(), "v": sig.RSIPair[0].Value},
			{"t": sig.RSIPair[1].Timestamp.Unix(), "v": sig.RSIPair[1].Value},
		},
		"detected_at": sig.DetectedAt.Unix(),
	})
}

func (s *KafkaEventSink) Close() error {
	if s.producer != nil {
		return s.producer.Close()
	}
	return nil
}
