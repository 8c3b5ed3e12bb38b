package results

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gofrs/flock"
	"go.uber.org/zap"

	"github.com/jobhound/jobhound/internal/listing"
)

const (
	DefaultDir = "job_results"
	// MaxSummary caps the number of entries of the text summary.
	MaxSummary = 20

	lockFile        = ".jobhound.lock"
	timestampLayout = "20060102_150405"
)

// Paths are the artifacts written by one run.
type Paths struct {
	JSON    string
	Summary string
}

// Writer persists ranked listings as a JSON array and a human readable summary.
type Writer struct {
	Dir string
	// Top is the number of summary entries, clamped to MaxSummary.
	Top    int
	Now    func() time.Time
	Logger *zap.Logger
}

func (w *Writer) Write(items *listing.Listings) (Paths, error) {
	log := w.Logger
	if log == nil {
		log = zap.NewNop()
	}

	dir := w.Dir
	if dir == "" {
		dir = DefaultDir
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return Paths{}, fmt.Errorf("create results dir: %w", err)
	}

	lock := flock.New(filepath.Join(dir, lockFile))
	if err := lock.Lock(); err != nil {
		return Paths{}, fmt.Errorf("lock results dir: %w", err)
	}
	defer func() {
		if err := lock.Unlock(); err != nil {
			log.Warn("unlock results dir", zap.Error(err))
		}
	}()

	now := w.now()
	paths, err := freePaths(dir, now.Format(timestampLayout))
	if err != nil {
		return Paths{}, err
	}

	all := []*listing.Listing{}
	if items != nil && items.Items != nil {
		all = items.Items
	}

	data, err := json.MarshalIndent(all, "", "  ")
	if err != nil {
		return Paths{}, fmt.Errorf("marshal listings: %w", err)
	}
	if err := os.WriteFile(paths.JSON, data, 0o644); err != nil {
		return Paths{}, fmt.Errorf("write %s: %w", paths.JSON, err)
	}

	if err := os.WriteFile(paths.Summary, []byte(Summary(all, w.top(), now)), 0o644); err != nil {
		return Paths{}, fmt.Errorf("write %s: %w", paths.Summary, err)
	}

	log.Info("results saved", zap.String("json", paths.JSON), zap.String("summary", paths.Summary), zap.Int("count", len(all)))

	return paths, nil
}

// freePaths returns the artifact names for stamp, adding a numeric suffix when
// an earlier run in the same second already used them. Callers hold the lock.
func freePaths(dir, stamp string) (Paths, error) {
	for n := 1; ; n++ {
		base := "jobs_" + stamp
		if n > 1 {
			base = fmt.Sprintf("%s_%d", base, n)
		}
		paths := Paths{
			JSON:    filepath.Join(dir, base+".json"),
			Summary: filepath.Join(dir, base+".txt"),
		}

		taken := false
		for _, p := range []string{paths.JSON, paths.Summary} {
			_, err := os.Stat(p)
			switch {
			case err == nil:
				taken = true
			case !errors.Is(err, fs.ErrNotExist):
				return Paths{}, fmt.Errorf("check %s: %w", p, err)
			}
		}
		if !taken {
			return paths, nil
		}
	}
}

func (w *Writer) now() time.Time {
	if w.Now != nil {
		return w.Now()
	}
	return time.Now()
}

func (w *Writer) top() int {
	if w.Top <= 0 || w.Top > MaxSummary {
		return MaxSummary
	}
	return w.Top
}

// Summary renders the first top listings as plain text.
func Summary(items []*listing.Listing, top int, at time.Time) string {
	if top > len(items) {
		top = len(items)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Job Search Results - %s\n", at.Format("2006-01-02 15:04"))
	b.WriteString(strings.Repeat("=", 80))
	b.WriteString("\n\n")

	for i, item := range items[:top] {
		fmt.Fprintf(&b, "%d. %s\n", i+1, item.Title)
		fmt.Fprintf(&b, "   Company: %s\n", item.Company)
		fmt.Fprintf(&b, "   Location: %s\n", item.Location)
		fmt.Fprintf(&b, "   Match Score: %.1f%%\n", item.Score())
		fmt.Fprintf(&b, "   Source: %s\n", item.Source)
		if salary := item.SalaryText(); salary != "" {
			fmt.Fprintf(&b, "   Salary: %s\n", salary)
		}
		fmt.Fprintf(&b, "   URL: %s\n", item.URL)
		fmt.Fprintf(&b, "   Posted: %s\n", item.PostedDate)
		b.WriteString(strings.Repeat("-", 80))
		b.WriteString("\n")
	}

	return b.String()
}

// Read decodes a JSON artifact written by Writer.
func Read(path string) (*listing.Listings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var items []*listing.Listing
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}

	return listing.New(items...), nil
}
