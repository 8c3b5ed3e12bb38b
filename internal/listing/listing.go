package listing

import (
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"strings"
)

// Source names the adapter a listing was fetched from.
type Source string

const (
	SourceAdzuna         Source = "Adzuna"
	SourceRemotive       Source = "Remotive"
	SourceArbeitnow      Source = "Arbeitnow"
	SourceWeWorkRemotely Source = "WeWorkRemotely"
	SourceHeadHunter     Source = "HeadHunter"
)

// Listing is one normalized job posting.
type Listing struct {
	Title       string   `json:"title"`
	Company     string   `json:"company"`
	Location    string   `json:"location"`
	Description string   `json:"description"`
	URL         string   `json:"url"`
	PostedDate  string   `json:"posted_date"`
	Source      Source   `json:"source"`
	ExternalID  string   `json:"external_id,omitempty"`
	Salary      *string  `json:"salary"`
	MatchScore  *float64 `json:"match_score"`
}

// Key identifies a listing across runs.
type Key struct {
	Source     Source
	ExternalID string
}

func (k Key) String() string {
	return fmt.Sprintf("%s:%s", k.Source, k.ExternalID)
}

// Key returns the persistence identity of the listing. Sources without their own
// identifiers get one derived from the posting URL.
func (l *Listing) Key() Key {
	id := strings.TrimSpace(l.ExternalID)
	if id == "" {
		sum := sha1.Sum([]byte("url:" + strings.TrimSpace(l.URL)))
		id = hex.EncodeToString(sum[:])
	}
	return Key{Source: l.Source, ExternalID: id}
}

// SetScore caches the match score on the listing.
func (l *Listing) SetScore(score float64) {
	l.MatchScore = &score
}

// Score returns the cached match score or zero when the listing was never scored.
func (l *Listing) Score() float64 {
	if l.MatchScore == nil {
		return 0
	}
	return *l.MatchScore
}

// SalaryText returns the salary or an empty string.
func (l *Listing) SalaryText() string {
	if l.Salary == nil {
		return ""
	}
	return *l.Salary
}

// ParseKey parses the "Source:id" form produced by Key.String.
func ParseKey(s string) (Key, error) {
	source, id, ok := strings.Cut(strings.TrimSpace(s), ":")
	source = strings.TrimSpace(source)
	id = strings.TrimSpace(id)
	if !ok || source == "" || id == "" {
		return Key{}, fmt.Errorf("invalid listing key %q: want Source:id", s)
	}
	return Key{Source: Source(source), ExternalID: id}, nil
}
