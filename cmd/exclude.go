package cmd

import (
	"context"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jobhound/jobhound/internal/logger"
	"github.com/jobhound/jobhound/internal/store"
)

var excludeCmd = &cobra.Command{
	Use:   "exclude Source:id",
	Short: "Hide a stored listing from future searches",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()

		log := newLogger()
		config := mustConfig(log)

		s, err := openStore(ctx, config)
		if err != nil {
			log.Fatal("opening the database", zap.Error(err))
		}
		defer s.Close()

		reason, _ := cmd.Flags().GetString("reason")

		l, err := lookupListing(ctx, s, args[0])
		if err != nil {
			log.Fatal("finding the listing", zap.Error(err))
		}

		if err := s.Exclude(ctx, store.DefaultTenant, l, reason); err != nil {
			log.Fatal("excluding the listing", zap.Error(err))
		}

		log.Info("excluded listing", zap.String(logger.FieldListing, l.Key().String()), zap.String("title", l.Title))
	},
}

func init() {
	rootCmd.AddCommand(excludeCmd)

	excludeCmd.Flags().StringP("reason", "r", "", "why the listing is excluded")
}
