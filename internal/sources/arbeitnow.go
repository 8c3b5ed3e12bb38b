package sources

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/jobhound/jobhound/internal/listing"
)

const (
	arbeitnowBaseURL = "https://www.arbeitnow.com"
	arbeitnowPath    = "/api/job-board-api"
)

type ArbeitnowConfig struct {
	MaxDescriptionLength int
	BaseURL              string
}

// Arbeitnow reads the public Arbeitnow job board. The API has no search, so
// postings are matched against the query keywords locally.
type Arbeitnow struct {
	cfg    ArbeitnowConfig
	client *Client
	logger *zap.Logger
}

type arbeitnowResponse struct {
	Data []RawRecord `json:"data"`
}

type arbeitnowRecord struct {
	Slug        string `json:"slug"`
	Title       string `json:"title"`
	CompanyName string `json:"company_name"`
	Location    string `json:"location"`
	Description string `json:"description"`
	URL         string `json:"url"`
	CreatedAt   string `json:"created_at"`
}

func NewArbeitnow(cfg ArbeitnowConfig, client *Client, logger *zap.Logger) *Arbeitnow {
	if cfg.BaseURL == "" {
		cfg.BaseURL = arbeitnowBaseURL
	}
	return &Arbeitnow{cfg: cfg, client: client, logger: orNop(logger)}
}

func (a *Arbeitnow) Name() listing.Source { return listing.SourceArbeitnow }

func (a *Arbeitnow) Fetch(ctx context.Context, q Query) ([]*listing.Listing, error) {
	var response arbeitnowResponse
	if err := a.client.GetJSON(ctx, a.cfg.BaseURL+arbeitnowPath, nil, &response); err != nil {
		return nil, fmt.Errorf("arbeitnow board: %w", err)
	}

	terms := q.Terms()
	keep := func(l *listing.Listing) bool { return matchesAny(terms, l) }

	return collect(a.logger, a.Name(), q, a.cfg.MaxDescriptionLength, response.Data, a.normalize, keep), nil
}

func (a *Arbeitnow) normalize(raw RawRecord) (*listing.Listing, error) {
	var rec arbeitnowRecord
	if err := decodeRecord(raw, &rec); err != nil {
		return nil, fmt.Errorf("decode arbeitnow record: %w", err)
	}

	return &listing.Listing{
		Title:       CleanText(rec.Title),
		Company:     CleanText(rec.CompanyName),
		Location:    CleanText(rec.Location),
		Description: StripHTML(rec.Description),
		URL:         strings.TrimSpace(rec.URL),
		PostedDate:  strings.TrimSpace(rec.CreatedAt),
		Source:      a.Name(),
		ExternalID:  strings.TrimSpace(rec.Slug),
	}, nil
}
