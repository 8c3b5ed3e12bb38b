package aggregate

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/jobhound/jobhound/internal/listing"
	"github.com/jobhound/jobhound/internal/logger"
	"github.com/jobhound/jobhound/internal/sources"
)

const DefaultTimeout = 30 * time.Second

// Kind classifies why a source contributed nothing.
type Kind string

const (
	KindSkipped Kind = "skipped"
	KindFailed  Kind = "failed"
)

// Diagnostic records a source that was skipped or failed during a run.
type Diagnostic struct {
	Source listing.Source
	Kind   Kind
	Err    error
}

func (d Diagnostic) String() string {
	return string(d.Source) + " " + string(d.Kind) + ": " + d.Err.Error()
}

// Result is the outcome of one aggregation run.
type Result struct {
	RunID       string
	Listings    *listing.Listings
	Counts      map[listing.Source]int
	Diagnostics []Diagnostic
}

// Empty reports that no source produced a listing.
func (r *Result) Empty() bool {
	return r == nil || r.Listings.Len() == 0
}

// Aggregator queries every adapter and concatenates their listings.
type Aggregator struct {
	// Timeout bounds each adapter call. Zero means DefaultTimeout.
	Timeout time.Duration
	// Parallel runs adapters concurrently. The merge order stays the adapter order.
	Parallel bool
	Logger   *zap.Logger
}

type outcome struct {
	items []*listing.Listing
	err   error
}

// Run never fails: adapter errors become diagnostics and the adapter contributes nothing.
func (a *Aggregator) Run(ctx context.Context, q sources.Query, adapters []sources.Adapter) *Result {
	runID := uuid.NewString()
	log := logger.WithFields(a.Logger, zap.String(logger.FieldRunID, runID))

	outcomes := make([]outcome, len(adapters))
	if a.Parallel {
		var g errgroup.Group
		for i, adapter := range adapters {
			g.Go(func() error {
				outcomes[i] = a.fetch(ctx, log, q, adapter)
				return nil
			})
		}
		_ = g.Wait()
	} else {
		for i, adapter := range adapters {
			outcomes[i] = a.fetch(ctx, log, q, adapter)
		}
	}

	result := &Result{
		RunID:    runID,
		Listings: listing.New(),
		Counts:   make(map[listing.Source]int, len(adapters)),
	}

	for i, adapter := range adapters {
		name := adapter.Name()
		out := outcomes[i]
		srcLog := logger.WithSource(log, string(name))
		if out.err != nil {
			d := Diagnostic{Source: name, Kind: KindFailed, Err: out.err}
			if errors.Is(out.err, sources.ErrMissingCredentials) {
				d.Kind = KindSkipped
				srcLog.Info("source skipped", zap.Error(out.err))
			} else {
				srcLog.Warn("source failed", zap.Error(out.err))
			}
			result.Diagnostics = append(result.Diagnostics, d)
			result.Counts[name] = 0
			continue
		}

		result.Listings.Append(out.items...)
		result.Counts[name] = len(out.items)
		srcLog.Info("source fetched", zap.Int("count", len(out.items)))
	}

	if result.Empty() {
		log.Info("no results", zap.Int("sources", len(adapters)), zap.Int("diagnostics", len(result.Diagnostics)))
	} else {
		log.Info("aggregated listings", zap.Int("total", result.Listings.Len()))
	}

	return result
}

func (a *Aggregator) fetch(ctx context.Context, log *zap.Logger, q sources.Query, adapter sources.Adapter) (out outcome) {
	timeout := a.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	fctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	defer func() {
		if r := recover(); r != nil {
			out = outcome{err: fmt.Errorf("adapter panicked: %v", r)}
		}
	}()

	log = logger.WithSource(log, string(adapter.Name()))
	log.Debug("fetching", zap.Duration("timeout", timeout))
	items, err := adapter.Fetch(fctx, q)
	if err != nil {
		return outcome{err: err}
	}

	kept := items[:0:0]
	for _, item := range items {
		if item != nil {
			kept = append(kept, item)
		}
	}
	return outcome{items: kept}
}
