package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/couchcryptid/ris-station-index/internal/adapter/artifacts"
	"github.com/couchcryptid/ris-station-index/internal/adapter/ris"
	"github.com/couchcryptid/ris-station-index/internal/domain"
	"github.com/couchcryptid/ris-station-index/internal/observability"
)

// Fetcher reads the full station directory.
type Fetcher interface {
	FetchAll(ctx context.Context, pageSize int) (ris.FetchResult, error)
}

// ArtifactWriter persists the raw directory and the derived index.
type ArtifactWriter interface {
	WriteAll(raw []json.RawMessage, idx domain.Index) (artifacts.Paths, error)
}

// IndexPublisher ships index entries to a downstream consumer.
type IndexPublisher interface {
	PublishIndex(ctx context.Context, idx domain.Index) (int, error)
}

// Summary describes a completed run.
type Summary struct {
	Fetched   int
	Pages     int
	Indexed   int
	Missed    int
	Skipped   int
	Published int
	Truncated bool
	Paths     artifacts.Paths
	Duration  time.Duration
}

// Pipeline runs fetch, index, write and the optional publish once.
type Pipeline struct {
	fetcher   Fetcher
	writer    ArtifactWriter
	publisher IndexPublisher
	pageSize  int
	clock     clockwork.Clock
	logger    *slog.Logger
	metrics   *observability.Metrics
	last      atomic.Pointer[Summary]
}

// New creates a Pipeline. publisher may be nil to skip publishing.
func New(f Fetcher, w ArtifactWriter, publisher IndexPublisher, pageSize int, logger *slog.Logger, metrics *observability.Metrics) *Pipeline {
	return &Pipeline{
		fetcher:   f,
		writer:    w,
		publisher: publisher,
		pageSize:  pageSize,
		clock:     clockwork.NewRealClock(),
		logger:    logger,
		metrics:   metrics,
	}
}

// CheckReadiness returns nil once a run has completed successfully.
func (p *Pipeline) CheckReadiness(_ context.Context) error {
	if p.last.Load() == nil {
		return errors.New("station index has not been built yet")
	}
	return nil
}

// LastRun returns the summary of the most recent successful run.
func (p *Pipeline) LastRun() (Summary, bool) {
	s := p.last.Load()
	if s == nil {
		return Summary{}, false
	}
	return *s, true
}

// Run fetches the directory, builds the index and writes the artifacts.
// A fetch failure aborts before anything is written.
func (p *Pipeline) Run(ctx context.Context) (Summary, error) {
	start := p.clock.Now()
	p.metrics.RunRunning.Set(1)
	defer p.metrics.RunRunning.Set(0)

	p.logger.Info("fetching stations from RIS-Stations", "page_size", p.pageSize)
	fetched, err := p.fetcher.FetchAll(ctx, p.pageSize)
	if err != nil {
		return Summary{}, fmt.Errorf("fetch station directory: %w", err)
	}

	p.logger.Info("building station index", "stations", len(fetched.Stations))
	idx := domain.BuildIndex(fetched.Stations, func(done, total int) {
		p.logger.Debug("indexing stations", "processed", done, "total", total)
	})
	p.metrics.IndexEntries.Set(float64(len(idx.Entries)))
	p.metrics.IndexMisses.Set(float64(len(idx.Misses)))
	p.metrics.StationsSkipped.Set(float64(idx.Skipped))

	paths, err := p.writer.WriteAll(fetched.Stations, idx)
	if err != nil {
		return Summary{}, fmt.Errorf("write artifacts: %w", err)
	}
	if len(idx.Misses) > 0 {
		p.logger.Warn("stations without coordinates", "count", len(idx.Misses), "path", paths.Misses)
	}

	sum := Summary{
		Fetched:   len(fetched.Stations),
		Pages:     fetched.Pages,
		Indexed:   len(idx.Entries),
		Missed:    len(idx.Misses),
		Skipped:   idx.Skipped,
		Truncated: fetched.Truncated,
		Paths:     paths,
	}

	if p.publisher != nil {
		n, err := p.publisher.PublishIndex(ctx, idx)
		if err != nil {
			return sum, fmt.Errorf("publish index: %w", err)
		}
		sum.Published = n
		p.metrics.StationsPublished.Add(float64(n))
	}

	sum.Duration = p.clock.Since(start)
	p.metrics.RunDuration.Observe(sum.Duration.Seconds())
	p.metrics.LastSuccessSeconds.Set(float64(p.clock.Now().Unix()))
	p.last.Store(&sum)
	return sum, nil
}
