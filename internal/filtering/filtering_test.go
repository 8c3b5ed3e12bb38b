package filtering

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/jobhound/jobhound/internal/listing"
	"github.com/jobhound/jobhound/internal/results"
	"github.com/jobhound/jobhound/internal/store"
)

type fakeHistory struct {
	hidden map[listing.Key]struct{}
	err    error
	tenant store.Tenant
}

func (f *fakeHistory) Hidden(_ context.Context, tenant store.Tenant) (map[listing.Key]struct{}, error) {
	f.tenant = tenant
	return f.hidden, f.err
}

func sample() *listing.Listings {
	return listing.New(
		&listing.Listing{Title: "SRE", Company: "Acme Corp", Source: listing.SourceRemotive, ExternalID: "1"},
		&listing.Listing{Title: "DevOps", Company: "Globex", Source: listing.SourceRemotive, ExternalID: "2"},
		&listing.Listing{Title: "Architect", Company: "  acme   corp ", Source: listing.SourceAdzuna, ExternalID: "3"},
		&listing.Listing{Title: "Platform", Company: "Initech", Source: listing.SourceArbeitnow, ExternalID: "4"},
	)
}

func titles(l *listing.Listings) string {
	out := make([]string, 0, l.Len())
	for _, item := range l.Items {
		out = append(out, item.Title)
	}
	return fmt.Sprint(out)
}

func TestCompaniesFilter(t *testing.T) {
	core, observed := observer.New(zapcore.InfoLevel)
	deps := Deps{Logger: zap.New(core)}

	f := NewCompanies()
	if err := f.Validate(&Config{Companies: []string{"ACME CORP", "", "acme corp"}}); err != nil {
		t.Fatalf("validate: %v", err)
	}

	got, step, err := f.Apply(context.Background(), deps, sample())
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	if titles(got) != "[DevOps Platform]" {
		t.Fatalf("unexpected listings: %s", titles(got))
	}
	if step != (Step{Initial: 4, Dropped: 2, Left: 2}) {
		t.Fatalf("unexpected step: %+v", step)
	}
	if observed.FilterMessage("excluding listings by company").Len() != 1 {
		t.Fatalf("expected exclusion log entry")
	}

	status := f.(statusProvider).Status()
	if status.Details["companies"] != "ACME CORP" {
		t.Fatalf("unexpected status: %+v", status)
	}
}

func TestHistoryFilter(t *testing.T) {
	history := &fakeHistory{hidden: map[listing.Key]struct{}{
		{Source: listing.SourceRemotive, ExternalID: "2"}: {},
		{Source: listing.SourceAdzuna, ExternalID: "1"}:   {},
	}}
	tenant := store.Tenant{UserID: 7}

	got, step, err := NewHistory().Apply(context.Background(), Deps{History: history, Tenant: tenant, Logger: zap.NewNop()}, sample())
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	if titles(got) != "[SRE Architect Platform]" {
		t.Fatalf("unexpected listings: %s", titles(got))
	}
	if step.Dropped != 1 || step.Left != 3 {
		t.Fatalf("unexpected step: %+v", step)
	}
	if history.tenant != tenant {
		t.Fatalf("expected tenant to be passed through, got %+v", history.tenant)
	}
}

func TestHistoryFilterErrors(t *testing.T) {
	_, _, err := NewHistory().Apply(context.Background(), Deps{Logger: zap.NewNop()}, sample())
	if err == nil {
		t.Fatal("expected error without store")
	}

	boom := errors.New("database is locked")
	_, _, err = NewHistory().Apply(context.Background(), Deps{History: &fakeHistory{err: boom}, Logger: zap.NewNop()}, sample())
	if !errors.Is(err, boom) {
		t.Fatalf("expected wrapped store error, got %v", err)
	}
}

func TestExcludeFileFilter(t *testing.T) {
	dir := t.TempDir()
	w := &results.Writer{Dir: dir, Now: func() time.Time { return time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC) }}
	paths, err := w.Write(listing.New(
		&listing.Listing{Title: "seen", Source: listing.SourceArbeitnow, ExternalID: "4"},
	))
	if err != nil {
		t.Fatalf("write previous results: %v", err)
	}

	f := NewExcludeFile()
	if err := f.Validate(&Config{ExcludeFile: paths.JSON}); err != nil {
		t.Fatal(err)
	}

	got, step, err := f.Apply(context.Background(), Deps{Logger: zap.NewNop()}, sample())
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	if titles(got) != "[SRE DevOps Architect]" || step.Dropped != 1 {
		t.Fatalf("unexpected result: %s %+v", titles(got), step)
	}

	if err := f.Validate(&Config{ExcludeFile: filepath.Join(dir, "missing.json")}); err != nil {
		t.Fatal(err)
	}
	if _, _, err := f.Apply(context.Background(), Deps{Logger: zap.NewNop()}, sample()); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestRunSkipsDisabledFilters(t *testing.T) {
	core, observed := observer.New(zapcore.InfoLevel)
	steps := Default()
	DisableByName(steps, "history", IncludeSeenReason)

	got, err := Run(context.Background(), &Config{Companies: []string{"Globex"}}, Deps{Logger: zap.New(core)}, steps, sample())
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if titles(got) != "[SRE Architect Platform]" {
		t.Fatalf("unexpected listings: %s", titles(got))
	}
	if observed.FilterMessage("filter disabled").Len() != 1 {
		t.Fatalf("expected disabled filter log")
	}
	if observed.FilterMessage("filter step").Len() != 2 {
		t.Fatalf("expected two executed steps")
	}

	statuses := Describe(steps)
	if len(statuses) != 3 {
		t.Fatalf("expected 3 statuses, got %d", len(statuses))
	}
	history := statuses[2]
	if history.Name != "history" || history.Enabled || history.Reason != IncludeSeenReason || history.Details["exclude_seen"] != "false" {
		t.Fatalf("unexpected history status: %+v", history)
	}
}

func TestRunPropagatesErrors(t *testing.T) {
	steps := []Filter{NewHistory()}
	if _, err := Run(context.Background(), nil, Deps{}, steps, sample()); err == nil {
		t.Fatal("expected error from history filter without store")
	}
}
