package usecase

import (
	"context"

	"RSIPulse/internal/domain/models"
	drepo "RSIPulse/internal/domain/repository"
	mid "RSIPulse/internal/middleware"
)

// ObservationCollector collects observations from the market stream and
// processes them.
type ObservationCollector struct {
	stream  drepo.MarketStream
	proc    *ObservationProcessor
	metrics drepo.Metrics
	pipe    *mid.RealtimePipeline
}

// NewObservationCollector creates a new ObservationCollector instance.
func NewObservationCollector(stream drepo.MarketStream, proc *ObservationProcessor, metrics drepo.Metrics, pipe *mid.RealtimePipeline) *ObservationCollector {
	return &ObservationCollector{stream: stream, proc: proc, metrics: metrics, pipe: pipe}
}

// IsConnected returns true if the market stream is connected.
func (c *ObservationCollector) IsConnected() bool {
	return c.stream.IsConnected()
}

func (c *ObservationCollector) Start(ctx context.Context) error {
	if err := c.stream.Connect(ctx); err != nil {
		return err
	}
	if err := c.stream.Subscribe(ctx); err != nil {
		return err
	}
	if c.pipe != nil {
		c.pipe.Start(ctx)
	}
	obCh, errCh := c.stream.Read(ctx)
	go c.consume(ctx, obCh, errCh)
	return nil
}

func (c *ObservationCollector) consume(ctx context.Context, obCh <-chan *models.Observation, errCh <-chan error) {
	for {
		select {
		case <-ctx.Done():
			return
		case err, ok := <-errCh:
			if !ok || err != nil {
				if err != nil {
					c.metrics.RecordError("stream")
				}
				obCh, errCh = c.reconnect(ctx, obCh, errCh)
			}
		case o, ok := <-obCh:
			if !ok {
				obCh, errCh = c.reconnect(ctx, obCh, errCh)
				continue
			}
			if o == nil {
				continue
			}
			if c.pipe != nil {
				_ = c.pipe.Process(ctx, o)
			} else {
				_ = c.proc.Process(ctx, o)
			}
		}
	}
}

// reconnect re-establishes the stream and returns fresh read channels. The
// closed channels from the dead connection are kept on failure; the stream's
// reconnect delay paces the retries.
func (c *ObservationCollector) reconnect(ctx context.Context, obCh <-chan *models.Observation, errCh <-chan error) (<-chan *models.Observation, <-chan error) {
	if err := c.stream.Reconnect(ctx); err != nil {
		return obCh, errCh
	}
	return c.stream.Read(ctx)
}

func (c *ObservationCollector) Stop() error { return c.stream.Close() }

// Processor returns the underlying ObservationProcessor for lifecycle management.
func (c *ObservationCollector) Processor() *ObservationProcessor { return c.proc }

// Shutdown stops the pipeline and closes the stream.
func (c *ObservationCollector) Shutdown(ctx context.Context) error {
	if c.pipe != nil {
		c.pipe.Stop()
	}
	return c.stream.Close()
}
