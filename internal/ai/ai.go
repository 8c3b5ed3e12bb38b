package ai

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/jobhound/jobhound/internal/logger"
	"github.com/jobhound/jobhound/internal/secrets"
)

const (
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
	ProviderGemini    = "gemini"
)

// DefaultPriority is the provider order used when the configuration names none.
var DefaultPriority = []string{ProviderOpenAI, ProviderAnthropic, ProviderGemini}

//go:generate mockgen -destination=mocks/mock_generator.go -package=mocks github.com/jobhound/jobhound/internal/ai TextGenerator

// TextGenerator produces free text for a prompt.
type TextGenerator interface {
	Name() string
	Model() string
	GenerateContent(ctx context.Context, prompt string) (string, error)
}

// Factory builds one provider once its API key is known.
type Factory struct {
	Name string
	Key  secrets.Source
	New  func(ctx context.Context, apiKey string) (TextGenerator, error)
}

// Select returns the first provider whose key resolves and whose client can be
// built, or nil when none can. Callers then fall back to templates.
func Select(ctx context.Context, factories []Factory, log *zap.Logger) TextGenerator {
	if log == nil {
		log = zap.NewNop()
	}

	var errs []error
	for _, f := range factories {
		key, err := secrets.Load(f.Key)
		if err != nil {
			if !errors.Is(err, secrets.ErrNotConfigured) {
				errs = append(errs, fmt.Errorf("%s: %w", f.Name, err))
				log.Warn("provider key unavailable", zap.String(logger.FieldProvider, f.Name), zap.Error(err))
			}
			continue
		}

		gen, err := f.New(ctx, key)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", f.Name, err))
			log.Warn("provider init failed", zap.String(logger.FieldProvider, f.Name), zap.Error(err))
			continue
		}

		log.Info("using text generator", logger.CommonFields(gen.Name(), gen.Model())...)
		return gen
	}

	if len(errs) > 0 {
		log.Info("no text generator available, falling back to templates", zap.Error(errors.Join(errs...)))
	} else {
		log.Info("no AI API key found, falling back to templates")
	}

	return nil
}

// Order sorts factories by the configured provider names. Unknown names are
// ignored and factories not named keep their relative order at the end.
func Order(factories []Factory, priority []string) []Factory {
	byName := make(map[string]Factory, len(factories))
	for _, f := range factories {
		byName[f.Name] = f
	}

	out := make([]Factory, 0, len(factories))
	used := make(map[string]bool, len(factories))
	for _, name := range priority {
		if f, ok := byName[name]; ok && !used[name] {
			out = append(out, f)
			used[name] = true
		}
	}
	for _, f := range factories {
		if !used[f.Name] {
			out = append(out, f)
		}
	}

	return out
}
