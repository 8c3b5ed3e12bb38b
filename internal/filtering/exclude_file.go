package filtering

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/jobhound/jobhound/internal/listing"
	"github.com/jobhound/jobhound/internal/results"
)

type excludeFileFilter struct {
	path string
}

// NewExcludeFile creates a filter that removes listings contained in a previous
// results file.
func NewExcludeFile() Filter {
	return &excludeFileFilter{}
}

func (f *excludeFileFilter) Name() string { return "exclude_file" }

func (f *excludeFileFilter) Disable(string) {}

func (f *excludeFileFilter) IsEnabled() bool { return true }

func (f *excludeFileFilter) Validate(cfg *Config) error {
	f.path = ""
	if cfg != nil {
		f.path = strings.TrimSpace(cfg.ExcludeFile)
	}
	return nil
}

func (f *excludeFileFilter) Apply(_ context.Context, deps Deps, l *listing.Listings) (*listing.Listings, Step, error) {
	initial := l.Len()
	if f.path == "" {
		return l, Step{Initial: initial, Dropped: 0, Left: l.Len()}, nil
	}

	previous, err := results.Read(f.path)
	if err != nil {
		return l, Step{}, fmt.Errorf("getting excluded listings from file: %w", err)
	}

	keys := make(map[listing.Key]struct{}, previous.Len())
	for _, item := range previous.Items {
		if item != nil {
			keys[item.Key()] = struct{}{}
		}
	}

	removed := l.Exclude(func(item *listing.Listing) bool {
		_, ok := keys[item.Key()]
		return ok
	})
	if len(removed) > 0 {
		deps.Logger.Info("excluding listings based on exclude file",
			zap.String("path", f.path),
			zap.Strings("excluded_listings", removed),
			zap.Int("listings_left", l.Len()),
		)
	}

	return l, Step{Initial: initial, Dropped: len(removed), Left: l.Len()}, nil
}

func (f *excludeFileFilter) Status() Status {
	details := map[string]string{}
	if f.path != "" {
		details["path"] = f.path
	}
	return Status{Name: f.Name(), Enabled: true, Details: details}
}
