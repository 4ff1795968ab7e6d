package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/linphone2000/lpmz-portfolio-v2/internal/config"
	"github.com/linphone2000/lpmz-portfolio-v2/internal/knowledge"
	"github.com/linphone2000/lpmz-portfolio-v2/internal/logging"
	"github.com/linphone2000/lpmz-portfolio-v2/internal/observability"
)

var (
	passageFacts string
	passageStats bool
)

var passageCmd = &cobra.Command{
	Use:   "passage",
	Short: "Print the knowledge passage compiled from the Fact Set",
	RunE:  runPassage,
}

func init() {
	passageCmd.Flags().StringVarP(&passageFacts, "facts", "f", "", "Path to a facts file (overrides config)")
	passageCmd.Flags().BoolVar(&passageStats, "stats", false, "Print a section summary instead of the passage")
	rootCmd.AddCommand(passageCmd)
}

func runPassage(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(os.Getenv, withFactsFile(passageFacts))
	if err != nil {
		return err
	}

	logger, err := logging.NewCLI(cfg.Verbose)
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}

	facts, err := loadFacts(cmd.Context(), cfg, logger)
	if err != nil {
		return fmt.Errorf("failed to load facts: %w", err)
	}

	passage := knowledge.Compile(facts)
	if passageStats {
		observability.NewPrinter(cmd.OutOrStdout()).PrintPassage(passage)
		return nil
	}
	_, err = fmt.Fprintln(cmd.OutOrStdout(), passage)
	return err
}

// withFactsFile points the config at path instead of any configured source.
func withFactsFile(path string) func(*config.Config) {
	return func(cfg *config.Config) {
		if path != "" {
			cfg.FactsFile, cfg.Owner = path, ""
		}
	}
}
