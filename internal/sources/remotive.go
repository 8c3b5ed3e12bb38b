package sources

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"go.uber.org/zap"

	"github.com/jobhound/jobhound/internal/listing"
)

const (
	remotiveBaseURL  = "https://remotive.com"
	remotiveJobsPath = "/api/remote-jobs"
	remotiveLocation = "Remote"
)

type RemotiveConfig struct {
	MaxDescriptionLength int
	BaseURL              string
}

// Remotive searches remote jobs on remotive.com. No credentials are needed.
type Remotive struct {
	cfg    RemotiveConfig
	client *Client
	logger *zap.Logger
}

type remotiveResponse struct {
	Jobs []RawRecord `json:"jobs"`
}

type remotiveRecord struct {
	ID              string  `json:"id"`
	Title           string  `json:"title"`
	CompanyName     string  `json:"company_name"`
	Description     string  `json:"description"`
	URL             string  `json:"url"`
	PublicationDate string  `json:"publication_date"`
	Salary          *string `json:"salary"`
}

func NewRemotive(cfg RemotiveConfig, client *Client, logger *zap.Logger) *Remotive {
	if cfg.BaseURL == "" {
		cfg.BaseURL = remotiveBaseURL
	}
	return &Remotive{cfg: cfg, client: client, logger: orNop(logger)}
}

func (r *Remotive) Name() listing.Source { return listing.SourceRemotive }

func (r *Remotive) Fetch(ctx context.Context, q Query) ([]*listing.Listing, error) {
	params := url.Values{}
	params.Set("search", q.Keywords)

	var response remotiveResponse
	if err := r.client.GetJSON(ctx, r.cfg.BaseURL+remotiveJobsPath, params, &response); err != nil {
		return nil, fmt.Errorf("remotive search: %w", err)
	}

	return collect(r.logger, r.Name(), q, r.cfg.MaxDescriptionLength, response.Jobs, r.normalize, nil), nil
}

func (r *Remotive) normalize(raw RawRecord) (*listing.Listing, error) {
	var rec remotiveRecord
	if err := decodeRecord(raw, &rec); err != nil {
		return nil, fmt.Errorf("decode remotive record: %w", err)
	}

	return &listing.Listing{
		Title:       CleanText(rec.Title),
		Company:     CleanText(rec.CompanyName),
		Location:    remotiveLocation,
		Description: StripHTML(rec.Description),
		URL:         strings.TrimSpace(rec.URL),
		PostedDate:  strings.TrimSpace(rec.PublicationDate),
		Source:      r.Name(),
		ExternalID:  strings.TrimSpace(rec.ID),
		Salary:      optionalString(rec.Salary),
	}, nil
}
