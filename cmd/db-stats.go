package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/jon4hz/logicsweep/internal/config"
	"github.com/jon4hz/logicsweep/internal/database"
)

var dbStatsCmd = &cobra.Command{
	Use:   "db-stats",
	Short: "Show database statistics",
	Long:  `Display statistics about scan runs and findings.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := config.Load(rootCmdPersistentFlags.ConfigFile)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}

		db, err := database.New(cfg.Database.Path)
		if err != nil {
			return fmt.Errorf("failed to initialize database: %w", err)
		}
		defer db.Close() //nolint:errcheck

		stats, err := db.GetScanStats(cmd.Context())
		if err != nil {
			return fmt.Errorf("failed to get database stats: %w", err)
		}

		fmt.Println("Database Statistics:")
		fmt.Printf("Total Scan Runs: %d\n", stats.TotalRuns)
		fmt.Printf("Successful Runs: %d\n", stats.SuccessfulRuns)
		fmt.Printf("Failed Runs: %d\n", stats.FailedRuns)
		fmt.Printf("Total Findings: %d\n", stats.TotalFindings)
		fmt.Printf("Open Findings: %d\n", stats.OpenFindings)

		if info, err := os.Stat(cfg.Database.Path); err == nil {
			fmt.Printf("Database Size: %s\n", humanize.IBytes(uint64(info.Size())))
		}

		if stats.LastSuccessful != nil {
			fmt.Printf("Last Successful Run: %s\n", stats.LastSuccessful.Format(time.RFC3339))
		}

		// Get recent scan history
		history, _, err := db.GetScanRunHistory(cmd.Context(), 1, 5)
		if err == nil && len(history) > 0 {
			fmt.Println("\nRecent Scan Runs:")
			for _, run := range history {
				fmt.Printf("  ID: %d, Target: %s, Started: %s, Status: %s, Findings: %d\n",
					run.ID, run.Target, run.StartedAt.Format("2006-01-02 15:04:05"), run.Status, run.FindingCount)
			}
		}

		return nil
	},
}

func init() {
	rootCmd.AddCommand(dbStatsCmd)
}
