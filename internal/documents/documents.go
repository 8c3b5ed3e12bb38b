package documents

import (
	"bytes"
	"context"
	"embed"
	"errors"
	"fmt"
	"strings"
	"text/template"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/jobhound/jobhound/internal/ai"
	"github.com/jobhound/jobhound/internal/listing"
	"github.com/jobhound/jobhound/internal/logger"
	"github.com/jobhound/jobhound/internal/profile"
	"github.com/jobhound/jobhound/internal/sources"
	"github.com/jobhound/jobhound/internal/utils"
)

// Kind names a generated document type.
type Kind string

const (
	KindCoverLetter Kind = "cover_letter"
	KindResume      Kind = "resume"

	// TemplateModel is recorded as the model of template documents.
	TemplateModel = "template"

	// promptDescriptionLimit bounds the job description sent to the generator, in runes.
	promptDescriptionLimit = 1500
	defaultMaxLogLength    = 200
)

//go:embed templates/*.tmpl
var templateFS embed.FS

var templates = template.Must(
	template.New("documents").
		Funcs(template.FuncMap{"join": strings.Join}).
		ParseFS(templateFS, "templates/*.tmpl"),
)

// Document is one generated text.
type Document struct {
	Kind    Kind
	Content string
	// Model is the generator model, or TemplateModel.
	Model string
	// Fallback is set when the template replaced a failed or missing generator.
	Fallback bool
}

// Generator writes cover letters and tailored resume sections for listings.
// Without a TextGenerator every document comes from the built-in templates.
type Generator struct {
	Text    ai.TextGenerator
	Profile *profile.Profile
	Logger  *zap.Logger
	// MaxLogLength bounds prompt and response previews in debug logs.
	MaxLogLength int
}

type templateData struct {
	Profile     *profile.Profile
	Listing     *listing.Listing
	Company     string
	Description string
	// KeySkills go into the cover letter prompt.
	KeySkills    []string
	CoverSkills  []string
	ResumeSkills []string
	Highlights   []string
}

type recipe struct {
	kind     Kind
	prompt   string
	fallback string
}

var (
	coverLetterRecipe = recipe{kind: KindCoverLetter, prompt: "cover_letter_prompt.tmpl", fallback: "cover_letter.tmpl"}
	resumeRecipe      = recipe{kind: KindResume, prompt: "resume_prompt.tmpl", fallback: "resume.tmpl"}
)

// CoverLetter generates a cover letter for l.
func (g *Generator) CoverLetter(ctx context.Context, l *listing.Listing) (Document, error) {
	return g.generate(ctx, coverLetterRecipe, l)
}

// TailoredResume generates a professional summary and skills section tailored to l.
func (g *Generator) TailoredResume(ctx context.Context, l *listing.Listing) (Document, error) {
	return g.generate(ctx, resumeRecipe, l)
}

func (g *Generator) generate(ctx context.Context, s recipe, l *listing.Listing) (Document, error) {
	if l == nil {
		return Document{}, fmt.Errorf("%s: listing is required", s.kind)
	}

	data := g.data(l)
	log := g.baseLogger().With(zap.String(logger.FieldListing, l.Key().String()), zap.String("kind", string(s.kind)))

	if g.Text == nil {
		return g.fromTemplate(s, data, false)
	}

	prompt, err := render(s.prompt, data)
	if err != nil {
		return Document{}, err
	}

	log = logger.WithFields(log, logger.CommonFields(g.Text.Name(), g.Text.Model())...)
	log.Debug("generate document",
		zap.Int("prompt_length", utf8.RuneCountInString(prompt)),
		zap.String("prompt_preview", utils.TruncateForLog(prompt, g.maxLogLength())),
	)

	content, err := g.Text.GenerateContent(ctx, prompt)
	if err == nil {
		content = strings.TrimSpace(content)
	}
	if err != nil || content == "" {
		if err == nil {
			err = errors.New("empty response")
		}
		log.Warn("AI generation failed, using template", zap.Error(err))
		return g.fromTemplate(s, data, true)
	}

	log.Debug("document generated",
		zap.Int("response_length", utf8.RuneCountInString(content)),
		zap.String("response_preview", utils.TruncateForLog(content, g.maxLogLength())),
	)

	return Document{Kind: s.kind, Content: content, Model: g.Text.Model()}, nil
}

func (g *Generator) fromTemplate(s recipe, data templateData, fallback bool) (Document, error) {
	content, err := render(s.fallback, data)
	if err != nil {
		return Document{}, err
	}
	return Document{Kind: s.kind, Content: content, Model: TemplateModel, Fallback: fallback}, nil
}

func (g *Generator) data(l *listing.Listing) templateData {
	p := g.Profile
	if p == nil {
		p = profile.Default()
	}

	highlights := p.Highlights()
	if len(highlights) > 3 {
		highlights = highlights[:3]
	}

	company := strings.TrimSpace(l.Company)
	if company == "" {
		company = "your company"
	}

	return templateData{
		Profile:      p,
		Listing:      l,
		Company:      company,
		Description:  sources.Truncate(l.Description, promptDescriptionLimit),
		KeySkills:    p.TopSkills(8),
		CoverSkills:  p.TopSkills(4),
		ResumeSkills: p.TopSkills(10),
		Highlights:   highlights,
	}
}

func (g *Generator) baseLogger() *zap.Logger {
	if g.Logger == nil {
		return zap.NewNop()
	}
	return g.Logger
}

func (g *Generator) maxLogLength() int {
	if g.MaxLogLength <= 0 {
		return defaultMaxLogLength
	}
	return g.MaxLogLength
}

func render(name string, data templateData) (string, error) {
	var buf bytes.Buffer
	if err := templates.ExecuteTemplate(&buf, name, data); err != nil {
		return "", fmt.Errorf("render %s: %w", name, err)
	}
	return strings.TrimSpace(buf.String()) + "\n", nil
}
