package events

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"time"

	cloudevents "github.com/cloudevents/sdk-go/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Writer is the interface to be implemented by the underlying writer.
type Writer interface {
	Write(ctx context.Context, topic string, e cloudevents.Event) error
	Close(ctx context.Context) error
}

// Emitter is what the services and workers depend on.
type Emitter interface {
	Write(ctx context.Context, kind string, body io.Reader) error
}

// EventProducer buffers events so callers never wait on the writer.
type EventProducer struct {
	queue   *queue
	wakeCh  chan struct{}
	doneCh  chan struct{}
	stopped chan struct{}
	writer  Writer
	topic   string
	source  string
}

func NewEventProducer(w Writer, opts ...ProducerOptions) *EventProducer {
	ep := &EventProducer{
		queue:   &queue{},
		wakeCh:  make(chan struct{}, 1),
		doneCh:  make(chan struct{}),
		stopped: make(chan struct{}),
		writer:  w,
		topic:   defaultTopic,
		source:  defaultSource,
	}

	for _, o := range opts {
		o(ep)
	}

	go ep.run()
	return ep
}

func (ep *EventProducer) Write(ctx context.Context, kind string, body io.Reader) error {
	d, err := io.ReadAll(body)
	if err != nil {
		return err
	}

	ep.queue.push(pending{kind: kind, data: d, at: time.Now()})

	select {
	case ep.wakeCh <- struct{}{}:
	default:
	}

	return nil
}

// Close drains the queue and closes the writer.
func (ep *EventProducer) Close() error {
	closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	g, ctx := errgroup.WithContext(closeCtx)
	g.Go(func() error {
		close(ep.doneCh)
		select {
		case <-ep.stopped:
		case <-ctx.Done():
			return ctx.Err()
		}
		return ep.writer.Close(ctx)
	})
	if err := g.Wait(); err != nil {
		zap.S().Named("event_producer").Errorf("event producer closed with error: %s", err)
		return err
	}

	zap.S().Named("event_producer").Info("event producer closed")

	return nil
}

func (ep *EventProducer) run() {
	defer close(ep.stopped)

	for {
		batch := ep.queue.take()
		if len(batch) == 0 {
			select {
			case <-ep.wakeCh:
				continue
			case <-ep.doneCh:
				return
			}
		}

		for _, p := range batch {
			ep.send(p)
		}
	}
}

// send wraps p in a cloud event stamped with the time Write accepted it.
func (ep *EventProducer) send(p pending) {
	e := cloudevents.NewEvent()
	e.SetID(uuid.NewString())
	e.SetSource(ep.source)
	e.SetType(p.kind)
	e.SetTime(p.at)
	_ = e.SetData(*cloudevents.StringOfApplicationJSON(), p.data)

	if err := ep.writer.Write(context.TODO(), ep.topic, e); err != nil {
		zap.S().Named("event_producer").Errorw("failed to send event", "error", err, "type", p.kind, "id", e.ID())
	}
}

// Emit marshals the event and hands it to the emitter. A nil emitter is a no-op
// and failures are only logged: events never fail the operation that raised them.
func Emit(ctx context.Context, emitter Emitter, kind string, event DocumentEvent) {
	if emitter == nil {
		return
	}

	data, err := json.Marshal(event)
	if err != nil {
		zap.S().Named("event_producer").Errorw("failed to marshal event", "error", err, "kind", kind)
		return
	}

	if err := emitter.Write(ctx, kind, bytes.NewReader(data)); err != nil {
		zap.S().Named("event_producer").Errorw("failed to emit event", "error", err, "kind", kind)
	}
}
