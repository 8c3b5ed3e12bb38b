package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/manifoldco/promptui"
	"go.uber.org/zap"

	"github.com/jobhound/jobhound/internal/ai"
	"github.com/jobhound/jobhound/internal/documents"
	"github.com/jobhound/jobhound/internal/listing"
	"github.com/jobhound/jobhound/internal/logger"
	"github.com/jobhound/jobhound/internal/profile"
	"github.com/jobhound/jobhound/internal/store"
)

const (
	PromptGenerate        = "Generate documents for the top matches"
	PromptReportByCompany = "Report by company"
	PromptExclude         = "Exclude a listing"
	PromptApplied         = "Mark a listing as applied"
	PromptDumpToFile      = "Dump listings to file"
	PromptExit            = "Exit"
	PromptBack            = "back"

	excludeReason = "excluded from search results"
)

var errExit = errors.New("exit requested")

// session is the interactive part of a search, working on the ranked listings.
type session struct {
	cfg     *Config
	logger  *zap.Logger
	store   *store.Store
	profile *profile.Profile
	ranked  *listing.Listings

	// selectListing and selectAction are replaced in tests.
	selectAction  func(items []string) (string, error)
	selectListing func(items []*listing.Listing) (*listing.Listing, error)
	generator     *documents.Generator
}

func (s *session) actions() []string {
	items := []string{PromptGenerate, PromptReportByCompany}
	if s.store != nil {
		items = append(items, PromptExclude, PromptApplied)
	}
	return append(items, PromptDumpToFile, PromptExit)
}

// loop asks for actions until the user exits. With autoApprove documents are
// generated once without asking.
func (s *session) loop(ctx context.Context, autoApprove bool) error {
	if autoApprove {
		if err := s.handle(ctx, PromptGenerate); err != nil {
			return err
		}
		return errExit
	}

	for {
		action, err := s.chooseAction()
		if err != nil {
			return err
		}

		s.logger.Info("current list of listings", zap.Int("count", s.ranked.Len()))

		if err := s.handle(ctx, action); err != nil {
			return err
		}
	}
}

func (s *session) handle(ctx context.Context, action string) error {
	switch action {
	case PromptGenerate:
		return s.generate(ctx)
	case PromptReportByCompany:
		pretty, _ := json.MarshalIndent(s.ranked.ReportByCompany(), "", "  ")
		s.logger.Info(string(pretty), zap.Int("listings count", s.ranked.Len()))
		return nil
	case PromptExclude:
		return s.markListing(func(l *listing.Listing) error {
			return s.store.Exclude(ctx, store.DefaultTenant, l, excludeReason)
		}, "excluded listing")
	case PromptApplied:
		return s.markListing(func(l *listing.Listing) error {
			return s.store.RecordApplication(ctx, store.DefaultTenant, l, "")
		}, "recorded application")
	case PromptDumpToFile:
		filename, err := s.ranked.DumpToTmpFile()
		if err != nil {
			return fmt.Errorf("dump listings to file: %w", err)
		}
		s.logger.Info("dumping listings to file", zap.String("filename", filename))
		return nil
	case PromptExit:
		s.logger.Info("exiting", zap.String("reason", "got exit from prompt"))
		return errExit
	default:
		return fmt.Errorf("invalid action: %s", action)
	}
}

// markListing applies mark to a chosen listing and drops it from the session.
func (s *session) markListing(mark func(*listing.Listing) error, msg string) error {
	l, err := s.chooseListing()
	if err != nil {
		return err
	}
	if l == nil {
		return nil
	}

	if err := mark(l); err != nil {
		return err
	}

	key := l.Key()
	s.ranked.Exclude(func(item *listing.Listing) bool { return item.Key() == key })
	s.logger.Info(msg, zap.String(logger.FieldListing, key.String()), zap.String("title", l.Title))

	return nil
}

// generate writes a cover letter and a tailored resume for every top match.
func (s *session) generate(ctx context.Context) error {
	n := s.cfg.Search.Generate
	if n <= 0 {
		s.logger.Info("document generation is disabled", zap.Int("generate", n))
		return nil
	}

	gen := s.documentGenerator(ctx)
	dir := filepath.Join(s.cfg.Output, documents.ApplicationsDir)

	top := s.ranked.Top(n)
	for i, l := range top {
		for _, create := range []func(context.Context, *listing.Listing) (documents.Document, error){gen.CoverLetter, gen.TailoredResume} {
			doc, err := create(ctx, l)
			if err != nil {
				return err
			}

			path, err := documents.Save(dir, i+1, l, doc)
			if err != nil {
				return err
			}

			if s.store != nil {
				record := store.DocumentRecord{Kind: string(doc.Kind), Content: doc.Content, Model: doc.Model}
				if err := s.store.SaveDocument(ctx, store.DefaultTenant, l, record); err != nil {
					return err
				}
			}

			s.logger.Info("document saved",
				zap.String(logger.FieldListing, l.Key().String()),
				zap.String("kind", string(doc.Kind)),
				zap.String("model", doc.Model),
				zap.Bool("fallback", doc.Fallback),
				zap.String("path", path),
			)
		}
	}

	s.logger.Info("documents generated", zap.Int("listings", len(top)), zap.String("dir", dir))

	return nil
}

func (s *session) documentGenerator(ctx context.Context) *documents.Generator {
	if s.generator == nil {
		s.generator = &documents.Generator{
			Text:         ai.Select(ctx, providerFactories(s.cfg, s.logger), s.logger),
			Profile:      s.profile,
			Logger:       s.logger,
			MaxLogLength: s.cfg.AI.Gemini.MaxLogLength,
		}
	}
	return s.generator
}

func (s *session) chooseAction() (string, error) {
	if s.selectAction != nil {
		return s.selectAction(s.actions())
	}

	prompt := promptui.Select{
		Label: "Proceed?",
		Items: s.actions(),
	}
	_, action, err := prompt.Run()
	return action, err
}

// chooseListing returns nil when the user went back.
func (s *session) chooseListing() (*listing.Listing, error) {
	if s.selectListing != nil {
		return s.selectListing(s.ranked.Items)
	}

	items := make([]string, 0, s.ranked.Len()+1)
	for _, l := range s.ranked.Items {
		items = append(items, fmt.Sprintf("%5.1f%% %s / %s / %s", l.Score(), l.Title, l.Company, l.URL))
	}

	prompt := promptui.Select{
		Label: "Choose a listing and press ENTER",
		Items: append(items, PromptBack),
		Size:  10,
	}

	idx, _, err := prompt.Run()
	if err != nil {
		return nil, err
	}
	if idx >= s.ranked.Len() {
		return nil, nil
	}

	return s.ranked.Items[idx], nil
}
