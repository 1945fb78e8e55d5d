package cmd

import (
	"fmt"
	"os"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/jon4hz/logicsweep/internal/config"
)

var resetCmdFlags struct {
	Yes bool
}

var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Delete all stored scan data",
	Long:  `This command removes the database file, deleting all scan runs, findings, users and history.`,
	RunE:  reset,
}

func init() {
	resetCmd.Flags().BoolVarP(&resetCmdFlags.Yes, "yes", "y", false, "Skip the confirmation prompt")

	rootCmd.AddCommand(resetCmd)
}

func reset(_ *cobra.Command, _ []string) error {
	cfg, err := config.Load(rootCmdPersistentFlags.ConfigFile)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	dbPath := cfg.Database.Path
	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		log.Info("No database file found, nothing to reset", "path", dbPath)
		return nil
	}

	if !resetCmdFlags.Yes {
		fmt.Printf("This will delete all scan data in %s. Continue? [y/N] ", dbPath)
		var answer string
		if _, err := fmt.Scanln(&answer); err != nil || (answer != "y" && answer != "Y") {
			log.Info("Aborted")
			return nil
		}
	}

	if err := os.Remove(dbPath); err != nil {
		return fmt.Errorf("failed to remove database file: %w", err)
	}

	log.Info("Successfully deleted all scan data", "path", dbPath)
	return nil
}
