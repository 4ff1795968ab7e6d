package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/linphone2000/lpmz-portfolio-v2/internal/config"
	"github.com/linphone2000/lpmz-portfolio-v2/internal/db"
	"github.com/linphone2000/lpmz-portfolio-v2/internal/logging"
	"github.com/linphone2000/lpmz-portfolio-v2/internal/portfolio"
)

var publishOwner string

var validateFactsCmd = &cobra.Command{
	Use:   "validate-facts <file>",
	Short: "Validate a facts file and optionally publish it to the database",
	Long: `Decode and validate a YAML or JSON facts file. With --publish the Fact Set
is stored in PostgreSQL under the given owner slug (requires DATABASE_URL).`,
	Args: cobra.ExactArgs(1),
	RunE: runValidateFacts,
}

func init() {
	validateFactsCmd.Flags().StringVar(&publishOwner, "publish", "", "Store the Fact Set under this owner slug")
	rootCmd.AddCommand(validateFactsCmd)
}

func runValidateFacts(cmd *cobra.Command, args []string) error {
	facts, err := portfolio.LoadFile(args[0])
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	_, _ = fmt.Fprintf(out, "OK: %s (%d skill groups, %d roles, %d projects)\n",
		args[0], len(facts.Skills), len(facts.Experience), len(facts.Projects))

	if publishOwner == "" {
		return nil
	}
	if err := db.ValidateOwner(publishOwner); err != nil {
		return err
	}

	cfg, err := loadConfig(os.Getenv, func(cfg *config.Config) {
		cfg.FactsFile, cfg.Owner = "", publishOwner
	})
	if err != nil {
		return err
	}
	logger, err := logging.NewCLI(cfg.Verbose)
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}

	ctx := cmd.Context()
	database, err := db.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer database.Close()

	if err := database.Migrate(ctx); err != nil {
		return err
	}
	updatedAt, err := database.SavePortfolio(ctx, publishOwner, facts)
	if err != nil {
		return err
	}
	logger.Debug("published facts", zap.String("owner", publishOwner), zap.Time("updated_at", updatedAt))
	_, _ = fmt.Fprintf(out, "Published facts for %s at %s\n", publishOwner, updatedAt.Format("2006-01-02 15:04:05"))
	return nil
}
