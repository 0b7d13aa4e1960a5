package async

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/bookkeeper-io/bookkeeper/internal/core"
)

// Poller drives the extraction pipeline: it processes queued records
// back-to-back while any exist, then idles on a fixed interval. A cancelled
// context stops the loop after the in-flight record finishes, so shutdown
// never abandons a claimed record mid-pipeline.
type Poller struct {
	processor *core.Processor
	interval  time.Duration
	logger    *slog.Logger

	processed atomic.Int64
	errors    atomic.Int64
}

func NewPoller(processor *core.Processor, interval time.Duration, logger *slog.Logger) *Poller {
	if interval <= 0 {
		interval = 5 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Poller{processor: processor, interval: interval, logger: logger}
}

// Run blocks until ctx is cancelled.
func (p *Poller) Run(ctx context.Context) {
	p.logger.Info("poller.start", "interval", p.interval.String())
	for {
		if ctx.Err() != nil {
			break
		}

		ok, err := p.processor.ProcessNext(ctx)
		if err != nil {
			p.errors.Add(1)
			p.logger.Error("poller.dequeue_error", "error", err)
		} else if ok {
			p.processed.Add(1)
			continue // drain the queue before idling
		}

		select {
		case <-ctx.Done():
		case <-time.After(p.interval):
		}
	}
	p.logger.Info("poller.stop", "processed", p.processed.Load(), "errors", p.errors.Load())
}

// Processed reports how many records this poller has run to a terminal status.
func (p *Poller) Processed() int64 { return p.processed.Load() }

// Errors reports how many dequeue attempts failed.
func (p *Poller) Errors() int64 { return p.errors.Load() }
