package sources

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/mitchellh/mapstructure"
	"go.uber.org/zap"

	"github.com/jobhound/jobhound/internal/listing"
	"github.com/jobhound/jobhound/internal/logger"
)

// DefaultMaxDescriptionLength bounds stored descriptions, in runes.
const DefaultMaxDescriptionLength = 500

// ErrMissingCredentials is returned by adapters that cannot run without configuration.
var ErrMissingCredentials = errors.New("skipped: missing credentials")

// Adapter fetches and normalizes postings from one external job source.
type Adapter interface {
	Name() listing.Source
	Fetch(ctx context.Context, q Query) ([]*listing.Listing, error)
}

// Query describes one search across all sources.
type Query struct {
	Keywords string
	// Days is the lookback window. Non-positive values disable recency filtering.
	Days int
	// Now is the reference time of the window; zero means time.Now.
	Now time.Time
}

// Window returns the lookback window as a duration.
func (q Query) Window() time.Duration {
	if q.Days <= 0 {
		return 0
	}
	return time.Duration(q.Days) * 24 * time.Hour
}

func (q Query) now() time.Time {
	if q.Now.IsZero() {
		return time.Now()
	}
	return q.Now
}

// Terms returns the lower-cased search keywords.
func (q Query) Terms() []string {
	return strings.Fields(strings.ToLower(q.Keywords))
}

// RawRecord is one posting as returned by a source API.
type RawRecord map[string]any

type normalizer func(RawRecord) (*listing.Listing, error)

// decodeRecord decodes a raw record into target using json tags. Weak typing is
// enabled because sources disagree on types (numeric vs string ids and salaries).
func decodeRecord(raw RawRecord, target any) error {
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           target,
		TagName:          "json",
		WeaklyTypedInput: true,
	})
	if err != nil {
		return err
	}
	return decoder.Decode(map[string]any(raw))
}

// collect normalizes records, keeps those inside the lookback window that pass keep
// and truncates their descriptions to limit runes.
func collect(log *zap.Logger, source listing.Source, q Query, limit int, records []RawRecord, normalize normalizer, keep func(*listing.Listing) bool) []*listing.Listing {
	out := make([]*listing.Listing, 0, len(records))
	stale := 0
	for _, record := range records {
		item, err := normalize(record)
		if err != nil {
			log.Debug("skipping malformed record", zap.Error(err))
			continue
		}
		if keep != nil && !keep(item) {
			continue
		}
		if !WithinWindow(item.PostedDate, q) {
			stale++
			continue
		}
		item.Description = Truncate(item.Description, limit)
		out = append(out, item)
	}

	log.Debug("normalized records",
		zap.String(logger.FieldSource, string(source)),
		zap.Int("records", len(records)),
		zap.Int("kept", len(out)),
		zap.Int("outside_window", stale),
	)

	return out
}

// matchesAny reports whether any term occurs in the title or the description.
// Without terms every listing matches.
func matchesAny(terms []string, l *listing.Listing) bool {
	if len(terms) == 0 {
		return true
	}
	title := strings.ToLower(l.Title)
	desc := strings.ToLower(l.Description)
	for _, term := range terms {
		if strings.Contains(title, term) || strings.Contains(desc, term) {
			return true
		}
	}
	return false
}

func optionalString(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return &v
}

func missingCredentials(source listing.Source, what string) error {
	return fmt.Errorf("%s %s: %w", source, what, ErrMissingCredentials)
}
