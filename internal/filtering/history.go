package filtering

import (
	"context"
	"fmt"
	"strconv"

	"go.uber.org/zap"

	"github.com/jobhound/jobhound/internal/listing"
)

const (
	// HistoryName is the name of the applied/excluded history filter.
	HistoryName = "history"

	IncludeSeenReason = "include-seen flag is set"
	NoStoreReason     = "database is disabled"
)

type historyFilter struct {
	disabled bool
	reason   string
}

// NewHistory creates a filter that removes listings the tenant applied to or excluded.
func NewHistory() Filter {
	return &historyFilter{}
}

func (f *historyFilter) Name() string { return HistoryName }

func (f *historyFilter) Disable(reason string) {
	f.disabled = true
	f.reason = reason
}

func (f *historyFilter) IsEnabled() bool { return !f.disabled }

func (f *historyFilter) Validate(*Config) error { return nil }

func (f *historyFilter) Apply(ctx context.Context, deps Deps, l *listing.Listings) (*listing.Listings, Step, error) {
	initial := l.Len()
	if deps.History == nil {
		return l, Step{}, fmt.Errorf("history store is required")
	}

	hidden, err := deps.History.Hidden(ctx, deps.Tenant)
	if err != nil {
		return l, Step{}, fmt.Errorf("get seen listings: %w", err)
	}

	excluded := l.Exclude(func(item *listing.Listing) bool {
		_, seen := hidden[item.Key()]
		return seen
	})
	if len(excluded) > 0 {
		deps.Logger.Info("excluding listings already applied to or excluded",
			zap.Strings("excluded_listings", excluded),
			zap.Int("listings_left", l.Len()),
		)
	}

	return l, Step{Initial: initial, Dropped: len(excluded), Left: l.Len()}, nil
}

func (f *historyFilter) Status() Status {
	details := map[string]string{
		"exclude_seen": strconv.FormatBool(!f.disabled),
	}
	return Status{Name: f.Name(), Enabled: f.IsEnabled(), Reason: f.reason, Details: details}
}
