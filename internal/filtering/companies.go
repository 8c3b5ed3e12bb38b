package filtering

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/jobhound/jobhound/internal/listing"
)

type companiesFilter struct {
	blocked map[string]struct{}
	names   []string
}

// NewCompanies creates a filter that removes listings of blocked companies.
func NewCompanies() Filter {
	return &companiesFilter{}
}

func (f *companiesFilter) Name() string { return "companies" }

func (f *companiesFilter) Disable(string) {}

func (f *companiesFilter) IsEnabled() bool { return true }

func (f *companiesFilter) Validate(cfg *Config) error {
	f.blocked = make(map[string]struct{})
	f.names = nil
	if cfg == nil {
		return nil
	}
	for _, name := range cfg.Companies {
		key := normalizeCompany(name)
		if key == "" {
			continue
		}
		if _, seen := f.blocked[key]; !seen {
			f.names = append(f.names, strings.TrimSpace(name))
		}
		f.blocked[key] = struct{}{}
	}
	return nil
}

func (f *companiesFilter) Apply(_ context.Context, deps Deps, l *listing.Listings) (*listing.Listings, Step, error) {
	initial := l.Len()
	if len(f.blocked) == 0 {
		return l, Step{Initial: initial, Dropped: 0, Left: l.Len()}, nil
	}

	excluded := l.Exclude(func(item *listing.Listing) bool {
		_, blocked := f.blocked[normalizeCompany(item.Company)]
		return blocked
	})
	if len(excluded) > 0 {
		deps.Logger.Info("excluding listings by company",
			zap.Strings("excluded_companies", f.names),
			zap.Strings("excluded_listings", excluded),
			zap.Int("listings_left", l.Len()),
		)
	}

	return l, Step{Initial: initial, Dropped: len(excluded), Left: l.Len()}, nil
}

func (f *companiesFilter) Status() Status {
	details := map[string]string{}
	if len(f.names) > 0 {
		details["companies"] = strings.Join(f.names, ",")
	}
	return Status{Name: f.Name(), Enabled: true, Details: details}
}

func normalizeCompany(name string) string {
	return strings.ToLower(strings.Join(strings.Fields(name), " "))
}
