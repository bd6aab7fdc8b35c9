package usecase

import (
	"context"

	"TradePulse/internal/domain/models"
	drepo "TradePulse/internal/domain/repository"
	mid "TradePulse/internal/middleware"
)

// PriceCollector consumes the exchange stream and feeds the price book
// through the tick pipeline.
type PriceCollector struct {
	stream  drepo.PriceStream
	book    *PriceBook
	metrics drepo.Metrics
	pipe    *mid.TickPipeline
}

// NewPriceCollector creates a new PriceCollector instance.
func NewPriceCollector(stream drepo.PriceStream, book *PriceBook, metrics drepo.Metrics, pipe *mid.TickPipeline) *PriceCollector {
	return &PriceCollector{stream: stream, book: book, metrics: metrics, pipe: pipe}
}

// IsConnected returns true if the exchange stream is connected.
func (c *PriceCollector) IsConnected() bool {
	return c.stream.IsConnected()
}

// Book exposes the collected price window.
func (c *PriceCollector) Book() *PriceBook { return c.book }

func (c *PriceCollector) Start(ctx context.Context) error {
	if err := c.stream.Connect(ctx); err != nil {
		return err
	}
	if err := c.stream.Subscribe(ctx); err != nil {
		return err
	}
	if c.pipe != nil {
		c.pipe.Start(ctx)
	}
	tickCh, errCh := c.stream.Read(ctx)
	go c.consume(ctx, tickCh, errCh)
	return nil
}

func (c *PriceCollector) consume(ctx context.Context, tickCh <-chan *models.PriceSnapshot, errCh <-chan error) {
	for {
		select {
		case <-ctx.Done():
			return
		case err := <-errCh:
			if err != nil {
				c.metrics.RecordError("stream")
				_ = c.stream.Reconnect(ctx)
			}
		case snap := <-tickCh:
			if snap == nil {
				continue
			}
			if c.pipe != nil {
				_ = c.pipe.Process(ctx, snap)
			} else {
				_ = c.book.Process(ctx, snap)
			}
			c.metrics.RecordLastPrice(snap.Symbol, snap.Price)
		}
	}
}

// Shutdown stops the pipeline and closes the stream.
func (c *PriceCollector) Shutdown(ctx context.Context) error {
	if c.pipe != nil {
		c.pipe.Stop()
	}
	return c.stream.Close()
}
