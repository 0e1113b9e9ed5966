// Package ingest drives the fetch → parse → normalize → dedupe → upsert
// pipeline for one feed. A malformed record never aborts the batch; the run
// completes with a summary of skipped and conflicting counts.
package ingest

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/dialscan/stationdb/internal/dedup"
	"github.com/dialscan/stationdb/internal/fcc"
	"github.com/dialscan/stationdb/internal/fetcher"
	"github.com/dialscan/stationdb/internal/model"
	"github.com/dialscan/stationdb/internal/store"
)

// Conflict is one reported facility-id conflict from a batch.
type Conflict struct {
	CallSign   string `json:"call_sign"`
	FacilityID int64  `json:"facility_id"`
	ClaimedBy  string `json:"claimed_by"`
}

// Summary reports the outcome of one ingest batch.
type Summary struct {
	RunID       string            `json:"run_id"`
	Service     model.ServiceType `json:"service"`
	Source      string            `json:"source"`
	Lines       int               `json:"lines"`
	Parsed      int               `json:"parsed"`
	ParseErrors int               `json:"parse_errors"`
	Invalid     int               `json:"invalid"`
	Inserted    int               `json:"inserted"`
	Updated     int               `json:"updated"`
	StoreErrors int               `json:"store_errors"`
	Conflicts   []Conflict        `json:"conflicts,omitempty"`
	StartedAt   time.Time         `json:"started_at"`
	FinishedAt  time.Time         `json:"finished_at"`
}

// Skipped returns the total records the batch dropped.
func (s *Summary) Skipped() int {
	return s.ParseErrors + s.Invalid + s.StoreErrors
}

// Pipeline wires a fetcher and a store into an ingest run.
type Pipeline struct {
	store store.Store
	fetch fetcher.Fetcher
}

// New creates an ingest pipeline.
func New(st store.Store, f fetcher.Fetcher) *Pipeline {
	return &Pipeline{store: st, fetch: f}
}

// Run downloads the feed for the service and ingests every record. An empty
// sourceURL uses the service's default FCC feed. limit > 0 caps how many
// normalized records are written.
func (p *Pipeline) Run(ctx context.Context, service model.ServiceType, sourceURL string, limit int) (*Summary, error) {
	if sourceURL == "" {
		sourceURL = fcc.FeedURL(service)
	}

	body, err := p.fetch.Download(ctx, sourceURL)
	if err != nil {
		return nil, eris.Wrapf(err, "ingest: fetch %s feed", service)
	}
	defer body.Close() //nolint:errcheck

	lines, err := fcc.ReadLines(body)
	if err != nil {
		return nil, eris.Wrapf(err, "ingest: read %s feed", service)
	}

	return p.IngestLines(ctx, service, sourceURL, lines, limit)
}

// IngestLines runs the parse → normalize → dedupe → upsert loop over
// already-fetched feed lines.
func (p *Pipeline) IngestLines(ctx context.Context, service model.ServiceType, source string, lines []string, limit int) (*Summary, error) {
	log := zap.L().With(
		zap.String("service", string(service)),
		zap.String("source", source),
	)

	parser, err := fcc.NewParser(service)
	if err != nil {
		return nil, eris.Wrap(err, "ingest: build parser")
	}

	summary := &Summary{
		RunID:     uuid.New().String(),
		Service:   service,
		Source:    source,
		Lines:     len(lines),
		StartedAt: time.Now().UTC(),
	}
	dataSource := fcc.SourceID(service)

	for i, line := range lines {
		select {
		case <-ctx.Done():
			return nil, eris.Wrap(ctx.Err(), "ingest: canceled")
		default:
		}

		if limit > 0 && summary.Parsed >= limit {
			break
		}

		rec, err := parser.Parse(line, i+1)
		if err != nil {
			summary.ParseErrors++
			var perr *fcc.ParseError
			if errors.As(err, &perr) {
				log.Debug("skipping unparseable line",
					zap.Int("line", perr.Line),
					zap.String("reason", perr.Reason),
				)
			}
			continue
		}

		draft, err := fcc.Normalize(rec, dataSource)
		if err != nil {
			summary.Invalid++
			var verr *fcc.ValidationError
			if errors.As(err, &verr) {
				log.Debug("skipping invalid record",
					zap.String("call_sign", verr.CallSign),
					zap.String("field", verr.Field),
					zap.String("reason", verr.Reason),
				)
			}
			continue
		}
		summary.Parsed++

		_, inserted, err := p.store.UpsertStation(ctx, *draft)
		if err != nil {
			var conflict *dedup.ConflictError
			if errors.As(err, &conflict) {
				summary.Conflicts = append(summary.Conflicts, Conflict{
					CallSign:   conflict.CallSign,
					FacilityID: conflict.FacilityID,
					ClaimedBy:  conflict.ClaimedBy,
				})
				log.Warn("facility id conflict",
					zap.String("call_sign", conflict.CallSign),
					zap.Int64("facility_id", conflict.FacilityID),
					zap.String("claimed_by", conflict.ClaimedBy),
				)
				continue
			}
			summary.StoreErrors++
			log.Warn("upsert failed",
				zap.String("call_sign", draft.CallSign),
				zap.Error(err),
			)
			continue
		}
		if inserted {
			summary.Inserted++
		} else {
			summary.Updated++
		}
	}

	summary.FinishedAt = time.Now().UTC()

	if err := p.store.RecordIngestRun(ctx, model.IngestRun{
		ID:         summary.RunID,
		Service:    service,
		Source:     source,
		Lines:      summary.Lines,
		Parsed:     summary.Parsed,
		Skipped:    summary.Skipped(),
		Inserted:   summary.Inserted,
		Updated:    summary.Updated,
		Conflicts:  len(summary.Conflicts),
		StartedAt:  summary.StartedAt,
		FinishedAt: summary.FinishedAt,
	}); err != nil {
		log.Warn("failed to record ingest run", zap.Error(err))
	}

	log.Info("ingest complete",
		zap.Int("lines", summary.Lines),
		zap.Int("parsed", summary.Parsed),
		zap.Int("inserted", summary.Inserted),
		zap.Int("updated", summary.Updated),
		zap.Int("skipped", summary.Skipped()),
		zap.Int("conflicts", len(summary.Conflicts)),
	)

	return summary, nil
}
