package cmd

import (
	"errors"
	"log"
	"path/filepath"
	"time"

	"github.com/adrg/xdg"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/jobhound/jobhound/internal/aggregate"
	"github.com/jobhound/jobhound/internal/logger"
	"github.com/jobhound/jobhound/internal/results"
	"github.com/jobhound/jobhound/internal/sources"
)

const (
	app = "jobhound"

	defaultKeywords = "Cloud Architect DevOps Platform Engineering"
	defaultDays     = 7
	defaultGenerate = 5
	defaultTop      = 10
)

type Config struct {
	Profile     string         `mapstructure:"profile"`
	Output      string         `mapstructure:"output"`
	Database    string         `mapstructure:"database"`
	ExcludeFile string         `mapstructure:"exclude-file"`
	UserAgent   string         `mapstructure:"user-agent"`
	Timeout     time.Duration  `mapstructure:"timeout"`
	Search      *SearchConfig  `mapstructure:"search"`
	Exclude     *ExcludeConfig `mapstructure:"exclude"`
	Sources     *SourcesConfig `mapstructure:"sources"`
	AI          *AIConfig      `mapstructure:"ai"`
}

type SearchConfig struct {
	Keywords             string `mapstructure:"keywords"`
	Days                 int    `mapstructure:"days"`
	Generate             int    `mapstructure:"generate"`
	Top                  int    `mapstructure:"top"`
	Summary              int    `mapstructure:"summary"`
	MaxDescriptionLength int    `mapstructure:"max-description-length"`
	Sequential           bool   `mapstructure:"sequential"`
}

type ExcludeConfig struct {
	Companies []string `mapstructure:"companies"`
}

type SourcesConfig struct {
	RequestsPerSecond float64               `mapstructure:"requests-per-second"`
	Disabled          []string              `mapstructure:"disabled"`
	Adzuna            *AdzunaConfig         `mapstructure:"adzuna"`
	WeWorkRemotely    *WeWorkRemotelyConfig `mapstructure:"weworkremotely"`
	HeadHunter        *HeadHunterConfig     `mapstructure:"headhunter"`
}

type AdzunaConfig struct {
	AppID      string `mapstructure:"app-id"`
	AppIDFile  string `mapstructure:"app-id-file"`
	AppKey     string `mapstructure:"app-key"`
	AppKeyFile string `mapstructure:"app-key-file"`
	Country    string `mapstructure:"country"`
}

type WeWorkRemotelyConfig struct {
	Feeds []string `mapstructure:"feeds"`
}

// HeadHunterConfig enables the hh.ru source, which is off by default.
type HeadHunterConfig struct {
	Enabled    bool     `mapstructure:"enabled"`
	Areas      []int    `mapstructure:"areas"`
	Schedules  []string `mapstructure:"schedules"`
	Experience string   `mapstructure:"experience"`
	MaxPages   int      `mapstructure:"max-pages"`
}

type AIConfig struct {
	Priority  []string        `mapstructure:"priority"`
	OpenAI    *ProviderConfig `mapstructure:"openai"`
	Anthropic *ProviderConfig `mapstructure:"anthropic"`
	Gemini    *GeminiConfig   `mapstructure:"gemini"`
}

type ProviderConfig struct {
	APIKey     string `mapstructure:"api-key"`
	APIKeyFile string `mapstructure:"api-key-file"`
	Model      string `mapstructure:"model"`
	BaseURL    string `mapstructure:"base-url"`
	MaxTokens  int    `mapstructure:"max-tokens"`
}

type GeminiConfig struct {
	ProviderConfig `mapstructure:",squash"`
	MaxRetries     int `mapstructure:"max-retries"`
	MaxLogLength   int `mapstructure:"max-log-length"`
}

var (
	// Used for flags.
	cfgFile string

	rootCmd = &cobra.Command{
		Use:   app,
		Short: "jobhound searches several job boards, ranks postings against your profile and drafts applications",
	}
)

// Execute executes the root command.
func Execute() error {
	return rootCmd.Execute()
}

var envBindings = map[string]string{
	"sources.adzuna.app-id":  "ADZUNA_APP_ID",
	"sources.adzuna.app-key": "ADZUNA_APP_KEY",
	"ai.openai.api-key":      "OPENAI_API_KEY",
	"ai.anthropic.api-key":   "ANTHROPIC_API_KEY",
	"ai.gemini.api-key":      "GEMINI_API_KEY",
	"database":               "JOBHOUND_DB",
	"profile":                "JOBHOUND_PROFILE",
}

func init() {
	for key, env := range envBindings {
		if err := viper.BindEnv(key, env); err != nil {
			log.Fatalf("binding %s environment variable: %v", env, err)
		}
	}

	setDefaults(viper.GetViper())

	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "a config file (default is jobhound.yaml in current directory)")
	rootCmd.PersistentFlags().BoolP("debug", "D", false, "verbose/debug output")
	rootCmd.PersistentFlags().BoolP("json", "j", false, "json format for logging")
	rootCmd.PersistentFlags().String("db", "", "path to the sqlite database (default is in the XDG data directory)")
	rootCmd.PersistentFlags().String("log-file", "", "write logs to this file instead of stderr")

	viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug"))
	viper.BindPFlag("json", rootCmd.PersistentFlags().Lookup("json"))
	viper.BindPFlag("database", rootCmd.PersistentFlags().Lookup("db"))
	viper.BindPFlag("log-file", rootCmd.PersistentFlags().Lookup("log-file"))
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("output", results.DefaultDir)
	v.SetDefault("database", defaultDatabasePath())
	v.SetDefault("timeout", aggregate.DefaultTimeout)
	v.SetDefault("search.keywords", defaultKeywords)
	v.SetDefault("search.days", defaultDays)
	v.SetDefault("search.generate", defaultGenerate)
	v.SetDefault("search.top", defaultTop)
	v.SetDefault("search.summary", results.MaxSummary)
	v.SetDefault("search.max-description-length", sources.DefaultMaxDescriptionLength)
	v.SetDefault("sources.requests-per-second", 2.0)
}

func defaultDatabasePath() string {
	return filepath.Join(xdg.DataHome, app, app+".db")
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigName(app)
		viper.SetConfigType("yaml")
	}

	// The config file is optional, but a broken one is not.
	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile != "" || !errors.As(err, &notFound) {
			log.Fatal(err)
		}
	}
}

func getConfig() (*Config, error) {
	return decodeConfig(viper.GetViper())
}

func decodeConfig(v *viper.Viper) (*Config, error) {
	var config *Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, err
	}

	if config == nil {
		config = &Config{}
	}
	if config.Search == nil {
		config.Search = &SearchConfig{}
	}
	if config.Exclude == nil {
		config.Exclude = &ExcludeConfig{}
	}
	if config.Sources == nil {
		config.Sources = &SourcesConfig{}
	}
	if config.Sources.Adzuna == nil {
		config.Sources.Adzuna = &AdzunaConfig{}
	}
	if config.Sources.WeWorkRemotely == nil {
		config.Sources.WeWorkRemotely = &WeWorkRemotelyConfig{}
	}
	if config.Sources.HeadHunter == nil {
		config.Sources.HeadHunter = &HeadHunterConfig{}
	}
	if config.AI == nil {
		config.AI = &AIConfig{}
	}
	if config.AI.OpenAI == nil {
		config.AI.OpenAI = &ProviderConfig{}
	}
	if config.AI.Anthropic == nil {
		config.AI.Anthropic = &ProviderConfig{}
	}
	if config.AI.Gemini == nil {
		config.AI.Gemini = &GeminiConfig{}
	}

	return config, nil
}

func newLogger() *zap.Logger {
	l, err := logger.New(logger.Options{
		JSON:   viper.GetBool("json"),
		Debug:  viper.GetBool("debug"),
		Output: viper.GetString("log-file"),
	})
	if err != nil {
		log.Fatalf("creating a logger: %s", err)
	}
	return l
}

// mustConfig returns the decoded configuration or stops the command.
func mustConfig(l *zap.Logger) *Config {
	config, err := getConfig()
	if err != nil {
		l.Fatal("getting a config", zap.Error(err))
	}
	return config
}
