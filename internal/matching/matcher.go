package matching

import (
	"cmp"
	"math"
	"slices"
	"strings"
	"unicode/utf8"

	"github.com/jobhound/jobhound/internal/listing"
	"github.com/jobhound/jobhound/internal/profile"
)

// TitleBoostTerms are searched in listing titles only. Every hit adds titleBoost
// matches to the score.
var TitleBoostTerms = []string{
	"architect", "director", "manager", "lead", "senior", "principal",
	"cloud", "platform", "sre", "devops", "infrastructure", "ai", "ml",
}

const (
	titleBoost = 2
	// Keywords of this many characters or fewer never count as a match.
	minKeywordLength = 2
	maxScore         = 100
)

// Matcher scores listings against the keyword set of a single profile.
type Matcher struct {
	keywords profile.KeywordSet
}

// NewMatcher extracts the keyword set of p once.
func NewMatcher(p *profile.Profile) *Matcher {
	return &Matcher{keywords: profile.Extract(p)}
}

func (m *Matcher) Keywords() profile.KeywordSet {
	return m.keywords
}

func (m *Matcher) Score(l *listing.Listing) float64 {
	return Score(l, m.keywords)
}

func (m *Matcher) Rank(items []*listing.Listing) []*listing.Listing {
	return Rank(items, m.keywords)
}

// Score returns a 0-100 relevance value rounded to one decimal.
func Score(l *listing.Listing, keywords profile.KeywordSet) float64 {
	if l == nil {
		return 0
	}

	text := strings.ToLower(l.Title + " " + l.Description)

	matches := 0
	for kw := range keywords {
		if utf8.RuneCountInString(kw) > minKeywordLength && strings.Contains(text, kw) {
			matches++
		}
	}

	title := strings.ToLower(l.Title)
	titleMatches := 0
	for _, term := range TitleBoostTerms {
		if strings.Contains(title, term) {
			titleMatches += titleBoost
		}
	}

	maxPossible := keywords.Len() + titleBoost*len(TitleBoostTerms)
	if maxPossible == 0 {
		return 0
	}

	score := float64(matches+titleMatches) / float64(maxPossible) * 100 * 2
	score = math.Min(maxScore, score)

	// Ties round to even.
	return math.RoundToEven(score*10) / 10
}

// Rank scores every listing, caching the score on it, and returns a new slice ordered
// by descending score. Listings with equal scores keep their input order.
func Rank(items []*listing.Listing, keywords profile.KeywordSet) []*listing.Listing {
	ranked := make([]*listing.Listing, 0, len(items))
	for _, item := range items {
		if item == nil {
			continue
		}
		item.SetScore(Score(item, keywords))
		ranked = append(ranked, item)
	}

	slices.SortStableFunc(ranked, func(a, b *listing.Listing) int {
		return cmp.Compare(b.Score(), a.Score())
	})

	return ranked
}
