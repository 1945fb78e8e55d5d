// Package gravatar builds avatar URLs for dashboard users.
package gravatar

import (
	"crypto/sha256"
	"fmt"
	"net/url"
	"strings"

	"github.com/jon4hz/logicsweep/internal/config"
)

var validDefaultImages = map[string]bool{
	"404":       true,
	"mp":        true,
	"identicon": true,
	"monsterid": true,
	"wavatar":   true,
	"retro":     true,
	"robohash":  true,
	"blank":     true,
}

var validRatings = map[string]bool{
	"g":  true,
	"pg": true,
	"r":  true,
	"x":  true,
}

// GenerateURL generates a Gravatar URL for the given email address.
// Returns an empty string if Gravatar is disabled or the email is empty.
func GenerateURL(email string, cfg *config.GravatarConfig) string {
	if cfg == nil || !cfg.Enabled || email == "" {
		return ""
	}

	// Gravatar hashes the trimmed, lowercased address
	email = strings.TrimSpace(strings.ToLower(email))
	hash := sha256.Sum256([]byte(email))

	baseURL := fmt.Sprintf("https://www.gravatar.com/avatar/%x", hash)

	params := url.Values{}
	if cfg.DefaultImage != "" {
		params.Add("d", cfg.DefaultImage)
	}
	if cfg.Rating != "" {
		params.Add("r", cfg.Rating)
	}
	if cfg.Size > 0 {
		params.Add("s", fmt.Sprintf("%d", cfg.Size))
	}

	if len(params) > 0 {
		baseURL = baseURL + "?" + params.Encode()
	}
	return baseURL
}

// Validate checks the Gravatar configuration for invalid values.
func Validate(cfg *config.GravatarConfig) error {
	if cfg == nil || !cfg.Enabled {
		return nil
	}
	if cfg.DefaultImage != "" && !validDefaultImages[cfg.DefaultImage] {
		return fmt.Errorf("invalid gravatar default image: %s", cfg.DefaultImage)
	}
	if cfg.Rating != "" && !validRatings[cfg.Rating] {
		return fmt.Errorf("invalid gravatar rating: %s", cfg.Rating)
	}
	if cfg.Size != 0 && (cfg.Size < 1 || cfg.Size > 2048) {
		return fmt.Errorf("invalid gravatar size: %d", cfg.Size)
	}
	return nil
}
