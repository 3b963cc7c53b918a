package client

import (
	"context"
	"sync"
	"time"

	"github.com/lthibault/jitterbug/v2"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const (
	DefaultPollInterval        = 2 * time.Second
	DefaultStatusMaxAttempts   = 30
	DefaultMetadataMaxAttempts = 10
	defaultJitter              = 30 * time.Millisecond
)

type ConversionOutcome int

const (
	ConversionPolling ConversionOutcome = iota
	ConversionReady
	ConversionFailed
	// ConversionPollingStopped means the attempts ran out while the document was still pending.
	ConversionPollingStopped
	ConversionCanceled
)

func (o ConversionOutcome) String() string {
	switch o {
	case ConversionReady:
		return "ready"
	case ConversionFailed:
		return "failed"
	case ConversionPollingStopped:
		return "still processing, polling stopped"
	case ConversionCanceled:
		return "canceled"
	default:
		return "polling"
	}
}

type MetadataOutcome int

const (
	MetadataPolling MetadataOutcome = iota
	MetadataAvailable
	MetadataUnavailable
	MetadataCanceled
)

func (o MetadataOutcome) String() string {
	switch o {
	case MetadataAvailable:
		return "available"
	case MetadataUnavailable:
		return "no metadata available"
	case MetadataCanceled:
		return "canceled"
	default:
		return "polling"
	}
}

type ConversionResult struct {
	Outcome  ConversionOutcome
	Status   *Status
	Attempts int
	// LastErr is the error of the most recent failed poll, if any.
	LastErr error
}

type MetadataResult struct {
	Outcome    MetadataOutcome
	Properties map[string]string
	Attempts   int
	LastErr    error
}

// State is the combined view of both polling axes for one document.
type State struct {
	Conversion ConversionResult
	Metadata   MetadataResult
}

// DownloadOffered is true as soon as one axis settled or gave up.
func (s State) DownloadOffered() bool {
	return settledConversion(s.Conversion.Outcome) || settledMetadata(s.Metadata.Outcome)
}

// DownloadEnabled is true only once the conversion completed.
func (s State) DownloadEnabled() bool {
	return s.Conversion.Outcome == ConversionReady
}

func settledConversion(o ConversionOutcome) bool {
	return o == ConversionReady || o == ConversionFailed || o == ConversionPollingStopped
}

func settledMetadata(o MetadataOutcome) bool {
	return o == MetadataAvailable || o == MetadataUnavailable
}

// StatusReader is the part of Client the poller depends on.
type StatusReader interface {
	GetStatus(ctx context.Context, id string) (*Status, error)
	GetMetadata(ctx context.Context, id string) (map[string]string, error)
}

type Poller struct {
	reader              StatusReader
	interval            time.Duration
	jitter              time.Duration
	statusMaxAttempts   int
	metadataMaxAttempts int
}

type PollerOption func(*Poller)

func WithInterval(d time.Duration) PollerOption {
	return func(p *Poller) {
		p.interval = d
	}
}

// WithJitter sets the standard deviation of the normal jitter added to every tick.
func WithJitter(d time.Duration) PollerOption {
	return func(p *Poller) {
		p.jitter = d
	}
}

func WithStatusMaxAttempts(n int) PollerOption {
	return func(p *Poller) {
		p.statusMaxAttempts = n
	}
}

func WithMetadataMaxAttempts(n int) PollerOption {
	return func(p *Poller) {
		p.metadataMaxAttempts = n
	}
}

func NewPoller(reader StatusReader, opts ...PollerOption) *Poller {
	p := &Poller{
		reader:              reader,
		interval:            DefaultPollInterval,
		jitter:              defaultJitter,
		statusMaxAttempts:   DefaultStatusMaxAttempts,
		metadataMaxAttempts: DefaultMetadataMaxAttempts,
	}
	for _, o := range opts {
		o(p)
	}
	return p
}

// WatchConversion polls the status endpoint until the document leaves pending,
// the attempts run out or ctx is canceled. A failed poll consumes an attempt.
func (p *Poller) WatchConversion(ctx context.Context, id string) ConversionResult {
	result := ConversionResult{Outcome: ConversionPolling}

	p.poll(ctx, p.statusMaxAttempts, func() bool {
		result.Attempts++
		status, err := p.reader.GetStatus(ctx, id)
		if err != nil {
			result.LastErr = err
			zap.S().Named("poller").Debugw("status poll failed", "document_id", id, "attempt", result.Attempts, "error", err)
			return false
		}
		result.Status = status
		switch status.Status {
		case StatusCompleted:
			result.Outcome = ConversionReady
			return true
		case StatusFailed:
			result.Outcome = ConversionFailed
			return true
		}
		return false
	})

	if result.Outcome == ConversionPolling {
		if ctx.Err() != nil {
			result.Outcome = ConversionCanceled
		} else {
			result.Outcome = ConversionPollingStopped
		}
	}
	return result
}

// WatchMetadata polls until properties are present. Absence and failed polls look the same.
func (p *Poller) WatchMetadata(ctx context.Context, id string) MetadataResult {
	result := MetadataResult{Outcome: MetadataPolling}

	p.poll(ctx, p.metadataMaxAttempts, func() bool {
		result.Attempts++
		props, err := p.reader.GetMetadata(ctx, id)
		if err != nil {
			if !IsNotFound(err) {
				result.LastErr = err
			}
			return false
		}
		result.Outcome = MetadataAvailable
		result.Properties = props
		return true
	})

	if result.Outcome == MetadataPolling {
		if ctx.Err() != nil {
			result.Outcome = MetadataCanceled
		} else {
			result.Outcome = MetadataUnavailable
		}
	}
	return result
}

// Watch runs both axes concurrently and calls onChange with the combined state
// every time one of them settles. onChange is never called concurrently.
func (p *Poller) Watch(ctx context.Context, id string, onChange func(State)) State {
	var (
		mu    sync.Mutex
		state State
	)
	update := func(apply func(*State)) {
		mu.Lock()
		defer mu.Unlock()
		apply(&state)
		if onChange != nil {
			onChange(state)
		}
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		r := p.WatchConversion(gctx, id)
		update(func(s *State) { s.Conversion = r })
		return nil
	})
	g.Go(func() error {
		r := p.WatchMetadata(gctx, id)
		update(func(s *State) { s.Metadata = r })
		return nil
	})
	_ = g.Wait()

	mu.Lock()
	defer mu.Unlock()
	return state
}

// poll calls attempt once per tick until it reports done, maxAttempts is
// reached or ctx is canceled. The first attempt waits for the first tick.
func (p *Poller) poll(ctx context.Context, maxAttempts int, attempt func() (done bool)) {
	if maxAttempts <= 0 {
		return
	}

	ticker := jitterbug.New(p.interval, &jitterbug.Norm{Stdev: p.jitter, Mean: 0})
	defer ticker.Stop()

	for i := 0; i < maxAttempts; i++ {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
		if ctx.Err() != nil {
			return
		}
		if attempt() {
			return
		}
	}
}
