package documents

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/jobhound/jobhound/internal/listing"
)

// ApplicationsDir is the sub directory of the output directory holding documents.
const ApplicationsDir = "applications"

const companyNameLimit = 20

// FileName returns the file name of a document for the listing at the 1-based rank.
func FileName(rank int, l *listing.Listing, kind Kind) string {
	return fmt.Sprintf("%02d_%s_%s.txt", rank, kind, companySlug(l.Company))
}

// Save writes doc into dir and returns the file path.
func Save(dir string, rank int, l *listing.Listing, doc Document) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create documents dir: %w", err)
	}

	path := filepath.Join(dir, FileName(rank, l, doc.Kind))
	if err := os.WriteFile(path, []byte(doc.Content), 0o644); err != nil {
		return "", fmt.Errorf("write %s: %w", path, err)
	}

	return path, nil
}

func companySlug(company string) string {
	runes := []rune(company)
	if len(runes) > companyNameLimit {
		runes = runes[:companyNameLimit]
	}
	slug := strings.ReplaceAll(string(runes), " ", "_")
	return strings.NewReplacer("/", "_", `\`, "_").Replace(slug)
}
