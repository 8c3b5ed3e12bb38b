package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jobhound/jobhound/internal/secrets"
)

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Show which credentials are configured",
	Run: func(_ *cobra.Command, _ []string) {
		log := newLogger()
		printSettings(os.Stdout, mustConfig(log))
	},
}

var setKeyCmd = &cobra.Command{
	Use:   "set-key account",
	Short: "Store a credential in the OS keyring",
	Args:  cobra.ExactArgs(1),
	Run: func(_ *cobra.Command, args []string) {
		log := newLogger()
		config := mustConfig(log)

		src, ok := findSecret(config, args[0])
		if !ok {
			log.Fatal("unknown account", zap.String("account", args[0]), zap.Strings("accounts", accounts(config)))
		}

		prompt := promptui.Prompt{Label: src.Name, Mask: '*'}
		value, err := prompt.Run()
		if err != nil {
			log.Fatal("reading the secret", zap.Error(err))
		}

		if err := secrets.SetKeyring(src.KeyringAccount, value); err != nil {
			log.Fatal("saving the secret", zap.Error(err))
		}

		log.Info("secret saved to keyring", zap.String("account", src.KeyringAccount))
	},
}

var deleteKeyCmd = &cobra.Command{
	Use:   "delete-key account",
	Short: "Remove a credential from the OS keyring",
	Args:  cobra.ExactArgs(1),
	Run: func(_ *cobra.Command, args []string) {
		log := newLogger()
		config := mustConfig(log)

		src, ok := findSecret(config, args[0])
		if !ok {
			log.Fatal("unknown account", zap.String("account", args[0]), zap.Strings("accounts", accounts(config)))
		}

		if err := secrets.DeleteKeyring(src.KeyringAccount); err != nil {
			log.Fatal("deleting the secret", zap.Error(err))
		}

		log.Info("secret removed from keyring", zap.String("account", src.KeyringAccount))
	},
}

func init() {
	rootCmd.AddCommand(settingsCmd)
	settingsCmd.AddCommand(setKeyCmd, deleteKeyCmd)
}

// printSettings reports whether every secret resolves. Values are never printed.
func printSettings(w io.Writer, cfg *Config) {
	fmt.Fprintf(w, "%-20s %s\n", "ACCOUNT", "CONFIGURED")
	for _, src := range secretSources(cfg) {
		configured := "no"
		if secrets.Present(src) {
			configured = "yes"
		}
		fmt.Fprintf(w, "%-20s %s\n", src.KeyringAccount, configured)
	}
	fmt.Fprintf(w, "\n%-20s %s\n", "database", cfg.Database)
	fmt.Fprintf(w, "%-20s %s\n", "output", cfg.Output)
}

func accounts(cfg *Config) []string {
	srcs := secretSources(cfg)
	out := make([]string, 0, len(srcs))
	for _, src := range srcs {
		out = append(out, src.KeyringAccount)
	}
	return out
}
