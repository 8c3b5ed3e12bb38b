package cmd

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jobhound/jobhound/internal/logger"
	"github.com/jobhound/jobhound/internal/store"
)

var applyCmd = &cobra.Command{
	Use:   "apply [Source:id]",
	Short: "Record an application for a stored listing, or list the recorded applications",
	Args:  cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		runApply(cmd, args)
	},
}

func init() {
	rootCmd.AddCommand(applyCmd)

	applyCmd.Flags().StringP("notes", "n", "", "notes stored with the application")
}

func runApply(cmd *cobra.Command, args []string) {
	ctx := context.Background()

	log := newLogger()
	config := mustConfig(log)

	s, err := openStore(ctx, config)
	if err != nil {
		log.Fatal("opening the database", zap.Error(err))
	}
	defer s.Close()

	if len(args) == 0 {
		if err := listApplications(ctx, os.Stdout, s); err != nil {
			log.Fatal("listing applications", zap.Error(err))
		}
		return
	}

	notes, _ := cmd.Flags().GetString("notes")

	l, err := lookupListing(ctx, s, args[0])
	if err != nil {
		log.Fatal("finding the listing", zap.Error(err),
			zap.String("hint", "keys are printed by the search command"),
		)
	}

	if err := s.RecordApplication(ctx, store.DefaultTenant, l, notes); err != nil {
		log.Fatal("recording the application", zap.Error(err))
	}

	log.Info("recorded application",
		zap.String(logger.FieldListing, l.Key().String()),
		zap.String("title", l.Title),
		zap.String("company", l.Company),
	)
}

func listApplications(ctx context.Context, w io.Writer, s *store.Store) error {
	apps, err := s.Applications(ctx, store.DefaultTenant)
	if err != nil {
		return err
	}

	if len(apps) == 0 {
		fmt.Fprintln(w, "No applications recorded.")
		return nil
	}

	for _, a := range apps {
		fmt.Fprintf(w, "%s  %-8s %s - %s (%s)\n", a.AppliedAt, a.Status, a.Title, a.Company, a.Key)
		if a.Notes != "" {
			fmt.Fprintf(w, "    %s\n", a.Notes)
		}
	}

	return nil
}
