package sources

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"
	"go.uber.org/zap"

	"github.com/jobhound/jobhound/internal/listing"
)

const (
	weWorkRemotelyFeed     = "https://weworkremotely.com/remote-jobs.rss"
	weWorkRemotelyLocation = "Remote"
)

type WeWorkRemotelyConfig struct {
	Feeds                []string
	MaxDescriptionLength int
}

// WeWorkRemotely reads the RSS feeds of weworkremotely.com. Feed items carry
// "Company: Title" titles and are matched against the query keywords locally.
type WeWorkRemotely struct {
	cfg    WeWorkRemotelyConfig
	client *Client
	logger *zap.Logger
	parser *gofeed.Parser
}

func NewWeWorkRemotely(cfg WeWorkRemotelyConfig, client *Client, logger *zap.Logger) *WeWorkRemotely {
	if len(cfg.Feeds) == 0 {
		cfg.Feeds = []string{weWorkRemotelyFeed}
	}
	return &WeWorkRemotely{cfg: cfg, client: client, logger: orNop(logger), parser: gofeed.NewParser()}
}

func (w *WeWorkRemotely) Name() listing.Source { return listing.SourceWeWorkRemotely }

func (w *WeWorkRemotely) Fetch(ctx context.Context, q Query) ([]*listing.Listing, error) {
	var records []RawRecord
	for _, feedURL := range w.cfg.Feeds {
		items, err := w.fetchFeed(ctx, feedURL)
		if err != nil {
			return nil, err
		}
		records = append(records, items...)
	}

	terms := q.Terms()
	keep := func(l *listing.Listing) bool { return matchesAny(terms, l) }

	return collect(w.logger, w.Name(), q, w.cfg.MaxDescriptionLength, records, w.normalize, keep), nil
}

func (w *WeWorkRemotely) fetchFeed(ctx context.Context, feedURL string) ([]RawRecord, error) {
	body, err := w.client.Get(ctx, feedURL, nil, "application/rss+xml")
	if err != nil {
		return nil, fmt.Errorf("weworkremotely feed %s: %w", feedURL, err)
	}

	feed, err := w.parser.Parse(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parse weworkremotely feed %s: %w", feedURL, err)
	}

	records := make([]RawRecord, 0, len(feed.Items))
	for _, item := range feed.Items {
		if item == nil {
			continue
		}
		published := item.Published
		if item.PublishedParsed != nil {
			published = item.PublishedParsed.UTC().Format(time.RFC3339)
		}
		records = append(records, RawRecord{
			"guid":        item.GUID,
			"title":       item.Title,
			"link":        item.Link,
			"description": item.Description,
			"published":   published,
			"region":      item.Custom["region"],
		})
	}

	return records, nil
}

type weWorkRemotelyRecord struct {
	GUID        string `json:"guid"`
	Title       string `json:"title"`
	Link        string `json:"link"`
	Description string `json:"description"`
	Published   string `json:"published"`
	Region      string `json:"region"`
}

func (w *WeWorkRemotely) normalize(raw RawRecord) (*listing.Listing, error) {
	var rec weWorkRemotelyRecord
	if err := decodeRecord(raw, &rec); err != nil {
		return nil, fmt.Errorf("decode weworkremotely item: %w", err)
	}

	company, title := splitFeedTitle(CleanText(rec.Title))
	location := CleanText(rec.Region)
	if location == "" {
		location = weWorkRemotelyLocation
	}

	return &listing.Listing{
		Title:       title,
		Company:     company,
		Location:    location,
		Description: StripHTML(rec.Description),
		URL:         strings.TrimSpace(rec.Link),
		PostedDate:  strings.TrimSpace(rec.Published),
		Source:      w.Name(),
		ExternalID:  strings.TrimSpace(rec.GUID),
	}, nil
}

func splitFeedTitle(raw string) (company, title string) {
	company, title, ok := strings.Cut(raw, ": ")
	if !ok {
		return "", raw
	}
	return strings.TrimSpace(company), strings.TrimSpace(title)
}
