package channel

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/yndnr/chgrid-go/internal/telemetry/logger"
	"github.com/yndnr/chgrid-go/pkg/grid"
)

// PollerConfig configures the channel poller.
type PollerConfig struct {
	// Interval is the minimum time between passes of one task.
	Interval time.Duration `koanf:"interval"`
	// Burst is the number of passes a task may run back to back.
	Burst int `koanf:"burst"`
	// Timeout bounds every record acquisition. A timed out acquisition
	// aborts the pass.
	Timeout time.Duration `koanf:"timeout"`
}

// DefaultPollerConfig returns the default poller configuration.
func DefaultPollerConfig() PollerConfig {
	return PollerConfig{
		Interval: 100 * time.Millisecond,
		Burst:    1,
		Timeout:  50 * time.Millisecond,
	}
}

// Sampler updates a channel state during a poll.
type Sampler func(row, column int, s *State)

// PassRecorder counts completed and aborted passes per channel class.
type PassRecorder interface {
	RecordPass(class string, aborted bool)
}

// PollStats is a snapshot of poller counters.
type PollStats struct {
	Passes  uint64
	Aborted uint64
	Updates uint64
}

// Poller runs one polling task per partition key. Each task only touches the
// rows guarded by its key, so tasks never contend with each other.
type Poller struct {
	table  *grid.Table[State]
	layout Layout
	cfg    PollerConfig
	sample Sampler
	logger logger.Logger
	record PassRecorder

	passes  atomic.Uint64
	aborted atomic.Uint64
	updates atomic.Uint64
}

// NewPoller creates a poller. A nil sampler uses SimulatedSampler.
func NewPoller(table *grid.Table[State], layout Layout, cfg PollerConfig, sample Sampler, log logger.Logger) (*Poller, error) {
	if table == nil {
		return nil, grid.ErrInvalidReference
	}
	if cfg.Interval <= 0 {
		return nil, fmt.Errorf("poller interval must be positive, got %s", cfg.Interval)
	}
	if cfg.Burst < 1 {
		cfg.Burst = 1
	}
	if sample == nil {
		sample = SimulatedSampler
	}
	if log == nil {
		log = logger.Default()
	}
	return &Poller{
		table:  table,
		layout: layout,
		cfg:    cfg,
		sample: sample,
		logger: log.With("component", "poller"),
	}, nil
}

// WithRecorder sets the pass recorder and returns p for chaining.
func (p *Poller) WithRecorder(r PassRecorder) *Poller {
	p.record = r
	return p
}

// Run starts one task per key and blocks until ctx is cancelled or a task
// fails with an error other than a timeout.
func (p *Poller) Run(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)
	keys := int(p.table.Grid().Keys())
	for key := 0; key < keys; key++ {
		g.Go(func() error {
			return p.task(gctx, key)
		})
	}
	return g.Wait()
}

func (p *Poller) task(ctx context.Context, key int) error {
	class := KeyClass(key, p.table.Grid().Keys())
	log := p.logger.With("key", key, "class", string(class))
	limiter := rate.NewLimiter(rate.Every(p.cfg.Interval), p.cfg.Burst)

	log.Info("poll task started")
	defer log.Info("poll task stopped")

	for {
		if err := limiter.Wait(ctx); err != nil {
			return nil
		}
		err := p.Pass(ctx, key)
		switch {
		case err == nil:
		case ctx.Err() != nil:
			return nil
		case errors.Is(err, grid.ErrTimeout):
			log.Warn("poll pass aborted", "error", err)
		default:
			return err
		}
	}
}

// Pass polls every record guarded by key once. It stops at the first failed
// acquisition and returns its error.
func (p *Poller) Pass(ctx context.Context, key int) error {
	keys := p.table.Grid().Keys()
	ctx = grid.WithTask(ctx, "poll-"+string(KeyClass(key, keys)))

	for _, row := range p.layout.RowsForKey(key, keys) {
		for column := 0; column < p.layout.Devices; column++ {
			err := p.table.Modify(ctx, row, column, p.cfg.Timeout, func(s *State) error {
				p.sample(row, column, s)
				s.Seq++
				s.Polls++
				return nil
			})
			if err != nil {
				p.aborted.Add(1)
				p.recordPass(key, true)
				return fmt.Errorf("poll row %d column %d: %w", row, column, err)
			}
			p.updates.Add(1)
		}
	}
	p.passes.Add(1)
	p.recordPass(key, false)
	return nil
}

func (p *Poller) recordPass(key int, aborted bool) {
	if p.record != nil {
		p.record.RecordPass(string(KeyClass(key, p.table.Grid().Keys())), aborted)
	}
}

// Stats returns the current counters.
func (p *Poller) Stats() PollStats {
	return PollStats{
		Passes:  p.passes.Load(),
		Aborted: p.aborted.Load(),
		Updates: p.updates.Load(),
	}
}

// SimulatedSampler advances traffic counters deterministically from the
// record's own sequence number.
func SimulatedSampler(row, column int, s *State) {
	if !s.Open() {
		return
	}
	step := uint64(s.Seq%16) + uint64(row+column) + 1
	s.RxBytes += step * 8
	s.TxBytes += step * 4
	s.Flags |= FlagRxActive | FlagTxActive
	if s.Seq%251 == 250 {
		s.Errors++
	}
}

// OpenSeed returns a seed that opens every channel at baud.
func OpenSeed(baud uint32) func(row, column int) State {
	return func(row, column int) State {
		return State{Baud: baud, Flags: FlagOpen}
	}
}
