package sources

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/jobhound/jobhound/internal/listing"
)

const (
	adzunaBaseURL        = "https://api.adzuna.com"
	adzunaSearchPath     = "/v1/api/jobs/%s/search/1"
	adzunaDefaultCountry = "us"
	adzunaResultsPerPage = 50
)

// AdzunaCredentials are the application id and key issued by Adzuna.
type AdzunaCredentials struct {
	AppID  string
	AppKey string
}

func (c AdzunaCredentials) Complete() bool {
	return strings.TrimSpace(c.AppID) != "" && strings.TrimSpace(c.AppKey) != ""
}

type AdzunaConfig struct {
	Credentials          AdzunaCredentials
	Country              string
	ResultsPerPage       int
	MaxDescriptionLength int
	BaseURL              string
}

// Adzuna searches the Adzuna jobs API. It requires credentials.
type Adzuna struct {
	cfg    AdzunaConfig
	client *Client
	logger *zap.Logger
}

type adzunaResponse struct {
	Results []RawRecord `json:"results"`
}

type adzunaRecord struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	RedirectURL string `json:"redirect_url"`
	Created     string `json:"created"`
	Company     struct {
		DisplayName string `json:"display_name"`
	} `json:"company"`
	Location struct {
		DisplayName string `json:"display_name"`
	} `json:"location"`
	SalaryMax *string `json:"salary_max"`
}

func NewAdzuna(cfg AdzunaConfig, client *Client, logger *zap.Logger) *Adzuna {
	if cfg.BaseURL == "" {
		cfg.BaseURL = adzunaBaseURL
	}
	if cfg.Country == "" {
		cfg.Country = adzunaDefaultCountry
	}
	if cfg.ResultsPerPage <= 0 {
		cfg.ResultsPerPage = adzunaResultsPerPage
	}
	return &Adzuna{cfg: cfg, client: client, logger: orNop(logger)}
}

func (a *Adzuna) Name() listing.Source { return listing.SourceAdzuna }

func (a *Adzuna) Fetch(ctx context.Context, q Query) ([]*listing.Listing, error) {
	if !a.cfg.Credentials.Complete() {
		return nil, missingCredentials(a.Name(), "app id and app key")
	}

	records, err := a.fetch(ctx, q)
	if err != nil {
		return nil, err
	}

	return collect(a.logger, a.Name(), q, a.cfg.MaxDescriptionLength, records, a.normalize, nil), nil
}

func (a *Adzuna) fetch(ctx context.Context, q Query) ([]RawRecord, error) {
	params := url.Values{}
	params.Set("app_id", a.cfg.Credentials.AppID)
	params.Set("app_key", a.cfg.Credentials.AppKey)
	params.Set("what", q.Keywords)
	params.Set("results_per_page", strconv.Itoa(a.cfg.ResultsPerPage))
	params.Set("sort_by", "date")
	if q.Days > 0 {
		params.Set("max_days_old", strconv.Itoa(q.Days))
	}

	endpoint := a.cfg.BaseURL + fmt.Sprintf(adzunaSearchPath, url.PathEscape(a.cfg.Country))

	var response adzunaResponse
	if err := a.client.GetJSON(ctx, endpoint, params, &response); err != nil {
		return nil, fmt.Errorf("adzuna search: %w", err)
	}

	return response.Results, nil
}

func (a *Adzuna) normalize(raw RawRecord) (*listing.Listing, error) {
	var r adzunaRecord
	if err := decodeRecord(raw, &r); err != nil {
		return nil, fmt.Errorf("decode adzuna record: %w", err)
	}

	return &listing.Listing{
		Title:       CleanText(r.Title),
		Company:     CleanText(r.Company.DisplayName),
		Location:    CleanText(r.Location.DisplayName),
		Description: StripHTML(r.Description),
		URL:         strings.TrimSpace(r.RedirectURL),
		PostedDate:  strings.TrimSpace(r.Created),
		Source:      a.Name(),
		ExternalID:  strings.TrimSpace(r.ID),
		Salary:      optionalString(r.SalaryMax),
	}, nil
}

func orNop(logger *zap.Logger) *zap.Logger {
	if logger == nil {
		return zap.NewNop()
	}
	return logger
}
