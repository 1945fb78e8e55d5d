package cmd

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"

	"github.com/spf13/cobra"
)

var generateAPIKeyCmd = &cobra.Command{
	Use:   "generate-api-key",
	Short: "Generate an API key for headless access",
	Long: `Generate a random API key for CI integrations.

Clients authenticate by sending the key in the X-API-Key header.
Add the generated key to your configuration file.`,
	RunE: generateAPIKey,
}

func init() {
	rootCmd.AddCommand(generateAPIKeyCmd)
}

func generateAPIKey(_ *cobra.Command, _ []string) error {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return fmt.Errorf("failed to generate API key: %w", err)
	}
	key := hex.EncodeToString(buf)

	fmt.Println("Generated API key:")
	fmt.Println()
	fmt.Printf("  %s\n", key)
	fmt.Println()
	fmt.Println("Add it to your configuration file:")
	fmt.Println()
	fmt.Printf("api_key: \"%s\"\n", key)

	return nil
}
