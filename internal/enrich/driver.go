// Package enrich visits stations lacking a genre and fills them in through
// the discovery provider, under an explicit daily budget. Each station's
// genre write is atomic and the visit order is id-ascending, so interrupted
// runs resume without a checkpoint.
package enrich

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/dialscan/stationdb/internal/genre"
	"github.com/dialscan/stationdb/internal/model"
)

// Store is the slice of the station store the driver needs.
type Store interface {
	MissingGenre(ctx context.Context, limit int) ([]model.Station, error)
	UpdateGenre(ctx context.Context, id int64, genre string) error
	QuotaUsed(ctx context.Context, day string) (int, error)
	AddQuotaUsed(ctx context.Context, day string, n int) error
}

// Options configures one enrichment run.
type Options struct {
	// DailyQuota caps discovery calls per calendar day across all runs.
	DailyQuota int
	// Limit caps stations visited in this invocation. 0 means no cap
	// beyond the quota.
	Limit int
	// Concurrency is the discovery worker pool size.
	Concurrency int
	// Location fixes the quota day boundary. The provider resets at
	// midnight Pacific.
	Location *time.Location
	// Now is a clock hook for tests.
	Now func() time.Time
}

// Summary reports one enrichment run.
type Summary struct {
	Visited        int  `json:"visited"`
	Enriched       int  `json:"enriched"`
	Failed         int  `json:"failed"`
	QuotaExhausted bool `json:"quota_exhausted"`
	QuotaUsedToday int  `json:"quota_used_today"`
}

// Driver runs the enrichment loop.
type Driver struct {
	store    Store
	detector genre.Detector
	opts     Options
}

// New creates an enrichment driver.
func New(store Store, detector genre.Detector, opts Options) *Driver {
	if opts.DailyQuota <= 0 {
		opts.DailyQuota = 500
	}
	if opts.Concurrency <= 0 {
		opts.Concurrency = 1
	}
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Driver{store: store, detector: detector, opts: opts}
}

// errQuotaStop aborts the worker group without marking the run failed.
var errQuotaStop = errors.New("quota exhausted")

// Run visits unenriched stations in id order until the batch limit or the
// day's quota is reached. Per-station discovery failures are logged and
// skipped; the station stays unenriched and is retried on the next run.
func (d *Driver) Run(ctx context.Context) (*Summary, error) {
	log := zap.L().With(zap.String("component", "enrich"))

	day := DayKey(d.opts.Now(), d.opts.Location)
	used, err := d.store.QuotaUsed(ctx, day)
	if err != nil {
		return nil, eris.Wrap(err, "enrich: load quota state")
	}

	q := &quota{store: d.store, day: day, limit: d.opts.DailyQuota, used: used}
	summary := &Summary{QuotaUsedToday: used}

	if used >= d.opts.DailyQuota {
		summary.QuotaExhausted = true
		log.Info("daily quota already spent", zap.String("day", day), zap.Int("used", used))
		return summary, nil
	}

	stations, err := d.store.MissingGenre(ctx, d.opts.Limit)
	if err != nil {
		return nil, eris.Wrap(err, "enrich: list unenriched stations")
	}
	if len(stations) == 0 {
		log.Info("no stations awaiting enrichment")
		return summary, nil
	}

	var mu sync.Mutex
	jobs := make(chan model.Station)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		defer close(jobs)
		for _, st := range stations {
			select {
			case jobs <- st:
			case <-gctx.Done():
				return nil
			}
		}
		return nil
	})

	for range d.opts.Concurrency {
		g.Go(func() error {
			for st := range jobs {
				ok, err := q.reserve(gctx)
				if err != nil {
					return eris.Wrap(err, "enrich: persist quota reservation")
				}
				if !ok {
					return errQuotaStop
				}

				mu.Lock()
				summary.Visited++
				mu.Unlock()

				label, err := d.detector.DiscoverGenre(gctx, genre.FromStation(st))
				if err != nil {
					if gctx.Err() != nil {
						return nil
					}
					if errors.Is(err, genre.ErrQuotaExceeded) {
						log.Warn("provider quota exhausted, stopping run",
							zap.String("call_sign", st.CallSign),
						)
						return errQuotaStop
					}
					// Skip; the station stays unenriched and is retried
					// on the next scheduled run.
					mu.Lock()
					summary.Failed++
					mu.Unlock()
					log.Warn("genre discovery failed",
						zap.String("call_sign", st.CallSign),
						zap.Error(err),
					)
					continue
				}

				if err := d.store.UpdateGenre(gctx, st.ID, label); err != nil {
					mu.Lock()
					summary.Failed++
					mu.Unlock()
					log.Warn("genre write failed",
						zap.String("call_sign", st.CallSign),
						zap.Error(err),
					)
					continue
				}

				mu.Lock()
				summary.Enriched++
				mu.Unlock()
				log.Info("station enriched",
					zap.String("call_sign", st.CallSign),
					zap.String("genre", label),
				)
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		if errors.Is(err, errQuotaStop) {
			summary.QuotaExhausted = true
		} else {
			return nil, err
		}
	}

	summary.QuotaUsedToday = q.usedCount()
	log.Info("enrichment run complete",
		zap.Int("visited", summary.Visited),
		zap.Int("enriched", summary.Enriched),
		zap.Int("failed", summary.Failed),
		zap.Bool("quota_exhausted", summary.QuotaExhausted),
		zap.Int("quota_used_today", summary.QuotaUsedToday),
	)
	return summary, nil
}
