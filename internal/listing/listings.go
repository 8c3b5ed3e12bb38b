package listing

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
)

type Listings struct {
	Items []*Listing
}

func New(items ...*Listing) *Listings {
	return &Listings{Items: items}
}

func (l *Listings) Len() int {
	if l == nil {
		return 0
	}
	return len(l.Items)
}

func (l *Listings) Append(items ...*Listing) {
	l.Items = append(l.Items, items...)
}

// Top returns at most n first listings.
func (l *Listings) Top(n int) []*Listing {
	if n < 0 || n > len(l.Items) {
		n = len(l.Items)
	}
	return l.Items[:n]
}

// FindByKey returns the listing with the given key or nil.
func (l *Listings) FindByKey(key Key) *Listing {
	for _, item := range l.Items {
		if item.Key() == key {
			return item
		}
	}
	return nil
}

// Exclude removes listings matching drop and returns the keys of the removed ones.
// The relative order of the remaining listings is preserved.
func (l *Listings) Exclude(drop func(*Listing) bool) []string {
	var excluded []string
	kept := l.Items[:0]
	for _, item := range l.Items {
		if drop(item) {
			excluded = append(excluded, item.Key().String())
			continue
		}
		kept = append(kept, item)
	}
	for i := len(kept); i < len(l.Items); i++ {
		l.Items[i] = nil
	}
	l.Items = kept
	return excluded
}

// CountBySource returns the number of listings per source. Sources without
// listings are absent.
func (l *Listings) CountBySource() map[Source]int {
	counts := make(map[Source]int)
	for _, item := range l.Items {
		counts[item.Source]++
	}
	return counts
}

// ReportByCompany groups a short description of every listing by company.
func (l *Listings) ReportByCompany() map[string][]map[string]string {
	report := make(map[string][]map[string]string)
	for _, item := range l.Items {
		key := strings.TrimSpace(item.Company)
		if key == "" {
			key = "unknown"
		}
		entry := map[string]string{
			"title":    item.Title,
			"url":      item.URL,
			"location": item.Location,
			"source":   string(item.Source),
		}
		if item.MatchScore != nil {
			entry["match_score"] = fmt.Sprintf("%.1f", *item.MatchScore)
		}
		if salary := item.SalaryText(); salary != "" {
			entry["salary"] = salary
		}
		report[key] = append(report[key], entry)
	}
	return report
}

func (l *Listings) DumpToTmpFile() (string, error) {
	file, err := os.CreateTemp("", "listings_*.json")
	if err != nil {
		return "", err
	}
	defer file.Close()

	enc := json.NewEncoder(file)
	enc.SetIndent("", "  ")
	if err := enc.Encode(l.Items); err != nil {
		return "", err
	}
	return file.Name(), nil
}
