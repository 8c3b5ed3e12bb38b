package cmd

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"

	"go.uber.org/zap"

	"github.com/jobhound/jobhound/internal/ai"
	"github.com/jobhound/jobhound/internal/ai/anthropic"
	"github.com/jobhound/jobhound/internal/ai/gemini"
	"github.com/jobhound/jobhound/internal/ai/openai"
	"github.com/jobhound/jobhound/internal/listing"
	"github.com/jobhound/jobhound/internal/secrets"
	"github.com/jobhound/jobhound/internal/sources"
	"github.com/jobhound/jobhound/internal/store"
)

// Keyring accounts of the configurable secrets.
const (
	accountAdzunaAppID     = "adzuna-app-id"
	accountAdzunaAppKey    = "adzuna-app-key"
	accountOpenAIKey       = "openai-api-key"
	accountAnthropicKey    = "anthropic-api-key"
	accountGeminiKey       = "gemini-api-key"
	defaultRequestsPerHost = 2
)

// secretSources lists every secret the application can use, keyed by keyring account.
func secretSources(cfg *Config) []secrets.Source {
	adzuna := cfg.Sources.Adzuna
	return []secrets.Source{
		{Name: "adzuna app id", Value: adzuna.AppID, File: adzuna.AppIDFile, KeyringAccount: accountAdzunaAppID},
		{Name: "adzuna app key", Value: adzuna.AppKey, File: adzuna.AppKeyFile, KeyringAccount: accountAdzunaAppKey},
		providerSecret(ai.ProviderOpenAI, cfg.AI.OpenAI, accountOpenAIKey),
		providerSecret(ai.ProviderAnthropic, cfg.AI.Anthropic, accountAnthropicKey),
		providerSecret(ai.ProviderGemini, &cfg.AI.Gemini.ProviderConfig, accountGeminiKey),
	}
}

func providerSecret(name string, p *ProviderConfig, account string) secrets.Source {
	return secrets.Source{Name: name + " api key", Value: p.APIKey, File: p.APIKeyFile, KeyringAccount: account}
}

func findSecret(cfg *Config, account string) (secrets.Source, bool) {
	for _, src := range secretSources(cfg) {
		if src.KeyringAccount == account {
			return src, true
		}
	}
	return secrets.Source{}, false
}

// optionalSecret resolves the secret of account. A secret that is not configured
// or cannot be read is empty, so only the source needing it is skipped.
func optionalSecret(cfg *Config, account string, log *zap.Logger) string {
	src, ok := findSecret(cfg, account)
	if !ok {
		return ""
	}
	value, err := secrets.Load(src)
	if err != nil {
		if !errors.Is(err, secrets.ErrNotConfigured) {
			log.Warn("secret unavailable", zap.String("account", account), zap.Error(err))
		}
		return ""
	}
	return value
}

// buildAdapters returns the enabled adapters in their fixed order.
func buildAdapters(cfg *Config, log *zap.Logger) []sources.Adapter {
	appID := optionalSecret(cfg, accountAdzunaAppID, log)
	appKey := optionalSecret(cfg, accountAdzunaAppKey, log)

	rps := cfg.Sources.RequestsPerSecond
	if rps <= 0 {
		rps = defaultRequestsPerHost
	}

	client := sources.NewClient(log, sources.NewHostLimiter(rps, 1), cfg.Timeout)
	if cfg.UserAgent != "" {
		client.UserAgent = cfg.UserAgent
	}

	limit := cfg.Search.MaxDescriptionLength
	if limit <= 0 {
		limit = sources.DefaultMaxDescriptionLength
	}

	all := []sources.Adapter{
		sources.NewAdzuna(sources.AdzunaConfig{
			Credentials:          sources.AdzunaCredentials{AppID: appID, AppKey: appKey},
			Country:              cfg.Sources.Adzuna.Country,
			MaxDescriptionLength: limit,
		}, client, log),
		sources.NewRemotive(sources.RemotiveConfig{MaxDescriptionLength: limit}, client, log),
		sources.NewArbeitnow(sources.ArbeitnowConfig{MaxDescriptionLength: limit}, client, log),
		sources.NewWeWorkRemotely(sources.WeWorkRemotelyConfig{
			Feeds:                cfg.Sources.WeWorkRemotely.Feeds,
			MaxDescriptionLength: limit,
		}, client, log),
	}

	if hh := cfg.Sources.HeadHunter; hh.Enabled {
		all = append(all, sources.NewHeadHunter(sources.HeadHunterConfig{
			Areas:                hh.Areas,
			Schedules:            hh.Schedules,
			Experience:           hh.Experience,
			MaxPages:             hh.MaxPages,
			MaxDescriptionLength: limit,
		}, client, log))
	}

	return enabledAdapters(all, cfg.Sources.Disabled)
}

func enabledAdapters(all []sources.Adapter, disabled []string) []sources.Adapter {
	out := make([]sources.Adapter, 0, len(all))
	for _, a := range all {
		if slices.ContainsFunc(disabled, func(name string) bool {
			return strings.EqualFold(strings.TrimSpace(name), string(a.Name()))
		}) {
			continue
		}
		out = append(out, a)
	}
	return out
}

// providerFactories returns the text generation providers in configured priority.
func providerFactories(cfg *Config, log *zap.Logger) []ai.Factory {
	factories := []ai.Factory{
		{
			Name: ai.ProviderOpenAI,
			Key:  providerSecret(ai.ProviderOpenAI, cfg.AI.OpenAI, accountOpenAIKey),
			New: func(_ context.Context, apiKey string) (ai.TextGenerator, error) {
				return openai.New(openai.Config{
					APIKey:    apiKey,
					Model:     cfg.AI.OpenAI.Model,
					BaseURL:   cfg.AI.OpenAI.BaseURL,
					MaxTokens: cfg.AI.OpenAI.MaxTokens,
				})
			},
		},
		{
			Name: ai.ProviderAnthropic,
			Key:  providerSecret(ai.ProviderAnthropic, cfg.AI.Anthropic, accountAnthropicKey),
			New: func(_ context.Context, apiKey string) (ai.TextGenerator, error) {
				return anthropic.New(anthropic.Config{
					APIKey:    apiKey,
					Model:     cfg.AI.Anthropic.Model,
					BaseURL:   cfg.AI.Anthropic.BaseURL,
					MaxTokens: cfg.AI.Anthropic.MaxTokens,
				})
			},
		},
		{
			Name: ai.ProviderGemini,
			Key:  providerSecret(ai.ProviderGemini, &cfg.AI.Gemini.ProviderConfig, accountGeminiKey),
			New: func(ctx context.Context, apiKey string) (ai.TextGenerator, error) {
				return gemini.NewGenerator(ctx, gemini.Config{
					APIKey:       apiKey,
					Model:        cfg.AI.Gemini.Model,
					MaxRetries:   cfg.AI.Gemini.MaxRetries,
					MaxTokens:    cfg.AI.Gemini.MaxTokens,
					MaxLogLength: cfg.AI.Gemini.MaxLogLength,
				}, log)
			},
		},
	}

	priority := cfg.AI.Priority
	if len(priority) == 0 {
		priority = ai.DefaultPriority
	}

	return ai.Order(factories, priority)
}

func openStore(ctx context.Context, cfg *Config) (*store.Store, error) {
	path := strings.TrimSpace(cfg.Database)
	if path == "" {
		path = defaultDatabasePath()
	}
	s, err := store.Open(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	return s, nil
}

// lookupListing resolves a "Source:id" key against the database.
func lookupListing(ctx context.Context, s *store.Store, raw string) (*listing.Listing, error) {
	key, err := listing.ParseKey(raw)
	if err != nil {
		return nil, err
	}
	l, err := s.Job(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("listing %s: %w", key, err)
	}
	return l, nil
}
