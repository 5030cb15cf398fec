package events

import (
	"context"
	"log/slog"
	"sync"
)

// Bus delivers events to registered sinks from a single background worker.
// Publishing never blocks the write path; when the buffer is full the event
// is dropped and the drop is logged, since every consumer can rebuild its
// state from the store.
type Bus struct {
	eventCh  chan Event
	sinks    []Sink
	logger   *slog.Logger
	wg       sync.WaitGroup
	ctx      context.Context
	cancel   context.CancelFunc
	shutdown sync.Once
}

// NewBus creates a bus with the given buffer size. Register sinks before
// calling Start.
func NewBus(logger *slog.Logger, bufferSize int) *Bus {
	ctx, cancel := context.WithCancel(context.Background())
	return &Bus{
		eventCh: make(chan Event, bufferSize),
		logger:  logger,
		ctx:     ctx,
		cancel:  cancel,
	}
}

// Subscribe registers a sink. Not safe to call after Start.
func (b *Bus) Subscribe(sink Sink) {
	b.sinks = append(b.sinks, sink)
}

// Start launches the delivery worker.
func (b *Bus) Start() {
	b.wg.Add(1)
	go func() {
		defer b.wg.Done()
		for {
			select {
			case <-b.ctx.Done():
				b.logger.Info("draining events before shutdown", "remaining_events", len(b.eventCh))
				for len(b.eventCh) > 0 {
					b.deliver(context.Background(), <-b.eventCh)
				}
				return
			case event := <-b.eventCh:
				b.deliver(b.ctx, event)
			}
		}
	}()
}

func (b *Bus) deliver(ctx context.Context, event Event) {
	for _, sink := range b.sinks {
		if err := sink.Handle(ctx, event); err != nil {
			b.logger.Error("failed to deliver event",
				"error", err, "event_type", event.Type, "source_id", event.SourceID)
		}
	}
}

// Publish enqueues an event for delivery.
func (b *Bus) Publish(event Event) {
	select {
	case b.eventCh <- event:
	default:
		b.logger.Warn("event channel full, dropping event",
			"event_type", event.Type, "source_id", event.SourceID)
	}
}

// Shutdown stops the worker after draining buffered events. Safe to call
// more than once.
func (b *Bus) Shutdown() {
	b.shutdown.Do(func() {
		b.cancel()
		b.wg.Wait()
		close(b.eventCh)
	})
}
