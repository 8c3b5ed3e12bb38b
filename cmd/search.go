package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/jobhound/jobhound/internal/aggregate"
	"github.com/jobhound/jobhound/internal/filtering"
	"github.com/jobhound/jobhound/internal/listing"
	"github.com/jobhound/jobhound/internal/matching"
	"github.com/jobhound/jobhound/internal/profile"
	"github.com/jobhound/jobhound/internal/results"
	"github.com/jobhound/jobhound/internal/sources"
	"github.com/jobhound/jobhound/internal/store"
)

var searchCmd = &cobra.Command{
	Use:   "search",
	Short: "Search all job sources, rank the postings and write the results",
	Run: func(cmd *cobra.Command, _ []string) {
		runSearch(cmd)
	},
}

func init() {
	rootCmd.AddCommand(searchCmd)

	searchCmd.Flags().StringP("keywords", "k", defaultKeywords, "search keywords")
	searchCmd.Flags().IntP("days", "d", defaultDays, "only keep postings from the last N days")
	searchCmd.Flags().IntP("generate", "g", defaultGenerate, "generate documents for the top N matches")
	searchCmd.Flags().IntP("top", "t", defaultTop, "print the top N matches")
	searchCmd.Flags().StringP("output", "o", "", "output directory (default is job_results)")
	searchCmd.Flags().StringP("exclude-file", "e", "", "results file of a previous run whose listings are skipped")
	searchCmd.Flags().StringP("profile", "p", "", "profile YAML file (default is the built-in profile)")
	searchCmd.Flags().BoolP("auto-approve", "y", false, "do not ask for confirmation, generate documents and exit")
	searchCmd.Flags().Bool("include-seen", false, "do not hide listings already applied to or excluded")
	searchCmd.Flags().Bool("no-store", false, "do not read or write the database")
	searchCmd.Flags().Bool("sequential", false, "query the sources one after another")

	viper.BindPFlag("search.keywords", searchCmd.Flags().Lookup("keywords"))
	viper.BindPFlag("search.days", searchCmd.Flags().Lookup("days"))
	viper.BindPFlag("search.generate", searchCmd.Flags().Lookup("generate"))
	viper.BindPFlag("search.top", searchCmd.Flags().Lookup("top"))
	viper.BindPFlag("search.sequential", searchCmd.Flags().Lookup("sequential"))
	viper.BindPFlag("output", searchCmd.Flags().Lookup("output"))
	viper.BindPFlag("exclude-file", searchCmd.Flags().Lookup("exclude-file"))
	viper.BindPFlag("profile", searchCmd.Flags().Lookup("profile"))
}

// searchDeps are the collaborators of one search.
type searchDeps struct {
	Logger   *zap.Logger
	Adapters []sources.Adapter
	Profile  *profile.Profile
	// Store is nil when the database is disabled.
	Store *store.Store
	Now   func() time.Time
}

type searchOptions struct {
	IncludeSeen bool
}

type searchOutcome struct {
	Aggregate *aggregate.Result
	Ranked    *listing.Listings
	Paths     results.Paths
	Stats     store.UpsertStats
}

// search runs fetch, filter, rank, write and persist. An empty aggregate
// returns early with nothing written.
func search(ctx context.Context, cfg *Config, opts searchOptions, deps searchDeps) (*searchOutcome, error) {
	log := deps.Logger
	now := deps.Now
	if now == nil {
		now = time.Now
	}

	q := sources.Query{Keywords: cfg.Search.Keywords, Days: cfg.Search.Days, Now: now()}

	log.Info("starting the search",
		zap.String("keywords", q.Keywords),
		zap.Int("days", q.Days),
		zap.Int("sources", len(deps.Adapters)),
	)

	agg := &aggregate.Aggregator{Timeout: cfg.Timeout, Parallel: !cfg.Search.Sequential, Logger: log}
	res := agg.Run(ctx, q, deps.Adapters)

	outcome := &searchOutcome{Aggregate: res, Ranked: listing.New()}
	if res.Empty() {
		return outcome, nil
	}

	steps := filtering.Default()
	fdeps := filtering.Deps{Tenant: store.DefaultTenant, Logger: log}
	switch {
	case deps.Store == nil:
		filtering.DisableByName(steps, filtering.HistoryName, filtering.NoStoreReason)
	case opts.IncludeSeen:
		filtering.DisableByName(steps, filtering.HistoryName, filtering.IncludeSeenReason)
		fdeps.History = deps.Store
	default:
		fdeps.History = deps.Store
	}

	fcfg := &filtering.Config{Companies: cfg.Exclude.Companies, ExcludeFile: cfg.ExcludeFile}

	filtered, err := filtering.Run(ctx, fcfg, fdeps, steps, res.Listings)
	if err != nil {
		return nil, fmt.Errorf("filtering: %w", err)
	}

	matcher := matching.NewMatcher(deps.Profile)
	outcome.Ranked = listing.New(matcher.Rank(filtered.Items)...)
	log.Info("ranked listings",
		zap.Int("total", outcome.Ranked.Len()),
		zap.Any("by_source", outcome.Ranked.CountBySource()),
	)

	writer := &results.Writer{Dir: cfg.Output, Top: cfg.Search.Summary, Now: now, Logger: log}
	paths, err := writer.Write(outcome.Ranked)
	if err != nil {
		return nil, fmt.Errorf("writing results: %w", err)
	}
	outcome.Paths = paths

	if deps.Store != nil && outcome.Ranked.Len() > 0 {
		stats, err := deps.Store.UpsertListings(ctx, outcome.Ranked.Items)
		if err != nil {
			return nil, fmt.Errorf("saving listings: %w", err)
		}
		outcome.Stats = stats
		log.Info("saved listings", zap.Int("inserted", stats.Inserted), zap.Int("updated", stats.Updated))
	}

	return outcome, nil
}

func runSearch(cmd *cobra.Command) {
	ctx := context.Background()

	logger := newLogger()
	config := mustConfig(logger)

	logger.Info("starting the jobhound", zap.String("version", version))

	p, err := profile.Load(config.Profile)
	if err != nil {
		logger.Fatal("loading the profile", zap.Error(err))
	}

	deps := searchDeps{Logger: logger, Adapters: buildAdapters(config, logger), Profile: p}

	noStore, _ := cmd.Flags().GetBool("no-store")
	if !noStore {
		s, err := openStore(ctx, config)
		if err != nil {
			logger.Fatal("opening the database", zap.Error(err),
				zap.String("hint", "set JOBHOUND_DB or use --no-store"),
			)
		}
		defer s.Close()
		deps.Store = s
	}

	includeSeen, _ := cmd.Flags().GetBool("include-seen")

	outcome, err := search(ctx, config, searchOptions{IncludeSeen: includeSeen}, deps)
	if err != nil {
		logger.Fatal("search failed", zap.Error(err))
	}

	if outcome.Aggregate.Empty() {
		logger.Info("exiting", zap.String("reason", "no results"))
		return
	}

	if outcome.Ranked.Len() == 0 {
		logger.Info("exiting", zap.String("reason", "no listings left after filters"))
		return
	}

	printTop(os.Stdout, outcome.Ranked.Items, config.Search.Top)

	session := &session{
		cfg:     config,
		logger:  logger,
		store:   deps.Store,
		profile: p,
		ranked:  outcome.Ranked,
	}

	autoApprove, _ := cmd.Flags().GetBool("auto-approve")
	if err := session.loop(ctx, autoApprove); err != nil && !errors.Is(err, errExit) {
		logger.Fatal("exiting", zap.Error(err))
	}
}

func printTop(w io.Writer, items []*listing.Listing, n int) {
	if n <= 0 || n > len(items) {
		n = len(items)
	}

	fmt.Fprintf(w, "\nTop %d matches:\n\n", n)
	for i, item := range items[:n] {
		fmt.Fprintf(w, "%2d. [%5.1f%%] %s - %s (%s)\n", i+1, item.Score(), item.Title, item.Company, item.Source)
		fmt.Fprintf(w, "    %s\n", item.Location)
		fmt.Fprintf(w, "    %s\n", item.URL)
		fmt.Fprintf(w, "    key: %s\n\n", item.Key())
	}
}
