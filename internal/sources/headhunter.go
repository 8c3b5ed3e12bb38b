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
	headHunterBaseURL  = "https://api.hh.ru"
	headHunterPath     = "/vacancies"
	headHunterPerPage  = 100
	headHunterMaxPages = 5
)

type HeadHunterConfig struct {
	// Areas are hh.ru region ids. Empty means every region.
	Areas                []int
	Schedules            []string
	Experience           string
	PerPage              int
	MaxPages             int
	MaxDescriptionLength int
	BaseURL              string
}

// HeadHunter searches public vacancies on hh.ru. The search API needs no token.
type HeadHunter struct {
	cfg    HeadHunterConfig
	client *Client
	logger *zap.Logger
}

type headHunterPage struct {
	Items   []RawRecord `json:"items"`
	Found   int         `json:"found"`
	Pages   int         `json:"pages"`
	Page    int         `json:"page"`
	PerPage int         `json:"per_page"`
}

type headHunterRecord struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Area struct {
		Name string `json:"name"`
	} `json:"area"`
	Salary *struct {
		From     *int   `json:"from"`
		To       *int   `json:"to"`
		Currency string `json:"currency"`
	} `json:"salary"`
	Employer struct {
		Name string `json:"name"`
	} `json:"employer"`
	Snippet struct {
		Requirement    string `json:"requirement"`
		Responsibility string `json:"responsibility"`
	} `json:"snippet"`
	AlternateURL string `json:"alternate_url"`
	PublishedAt  string `json:"published_at"`
}

func NewHeadHunter(cfg HeadHunterConfig, client *Client, logger *zap.Logger) *HeadHunter {
	if cfg.BaseURL == "" {
		cfg.BaseURL = headHunterBaseURL
	}
	if cfg.PerPage <= 0 {
		cfg.PerPage = headHunterPerPage
	}
	if cfg.MaxPages <= 0 {
		cfg.MaxPages = headHunterMaxPages
	}
	return &HeadHunter{cfg: cfg, client: client, logger: orNop(logger)}
}

func (h *HeadHunter) Name() listing.Source { return listing.SourceHeadHunter }

func (h *HeadHunter) Fetch(ctx context.Context, q Query) ([]*listing.Listing, error) {
	records, err := h.fetch(ctx, q)
	if err != nil {
		return nil, err
	}

	return collect(h.logger, h.Name(), q, h.cfg.MaxDescriptionLength, records, h.normalize, nil), nil
}

// fetch walks the result pages until the last one or MaxPages.
func (h *HeadHunter) fetch(ctx context.Context, q Query) ([]RawRecord, error) {
	params := h.params(q)
	endpoint := h.cfg.BaseURL + headHunterPath

	var records []RawRecord
	for page := 0; page < h.cfg.MaxPages; page++ {
		params.Set("page", strconv.Itoa(page))

		var response headHunterPage
		if err := h.client.GetJSON(ctx, endpoint, params, &response); err != nil {
			return nil, fmt.Errorf("headhunter search page %d: %w", page, err)
		}

		records = append(records, response.Items...)

		if response.Page >= response.Pages-1 {
			break
		}

		h.logger.Debug("additional request needed",
			zap.Int("page", response.Page+1),
			zap.Int("pages", response.Pages),
			zap.Int("found", response.Found),
		)
	}

	return records, nil
}

func (h *HeadHunter) params(q Query) url.Values {
	params := url.Values{}
	params.Set("text", q.Keywords)
	params.Set("per_page", strconv.Itoa(h.cfg.PerPage))
	params.Set("order_by", "publication_time")
	if q.Days > 0 {
		params.Set("period", strconv.Itoa(q.Days))
	}
	if h.cfg.Experience != "" {
		params.Set("experience", h.cfg.Experience)
	}
	for _, area := range h.cfg.Areas {
		params.Add("area", strconv.Itoa(area))
	}
	for _, schedule := range h.cfg.Schedules {
		params.Add("schedule", schedule)
	}
	return params
}

func (h *HeadHunter) normalize(raw RawRecord) (*listing.Listing, error) {
	var rec headHunterRecord
	if err := decodeRecord(raw, &rec); err != nil {
		return nil, fmt.Errorf("decode headhunter vacancy: %w", err)
	}

	description := strings.TrimSpace(StripHTML(rec.Snippet.Responsibility) + " " + StripHTML(rec.Snippet.Requirement))

	return &listing.Listing{
		Title:       CleanText(rec.Name),
		Company:     CleanText(rec.Employer.Name),
		Location:    CleanText(rec.Area.Name),
		Description: description,
		URL:         strings.TrimSpace(rec.AlternateURL),
		PostedDate:  strings.TrimSpace(rec.PublishedAt),
		Source:      h.Name(),
		ExternalID:  strings.TrimSpace(rec.ID),
		Salary:      headHunterSalary(rec),
	}, nil
}

// headHunterSalary renders "from-to currency", "from N currency" or "up to N currency".
func headHunterSalary(rec headHunterRecord) *string {
	s := rec.Salary
	if s == nil || (s.From == nil && s.To == nil) {
		return nil
	}

	var text string
	switch {
	case s.From != nil && s.To != nil:
		text = fmt.Sprintf("%d-%d", *s.From, *s.To)
	case s.From != nil:
		text = fmt.Sprintf("from %d", *s.From)
	default:
		text = fmt.Sprintf("up to %d", *s.To)
	}
	if s.Currency != "" {
		text += " " + s.Currency
	}
	return &text
}
