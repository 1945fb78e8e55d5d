package config

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/spf13/viper"
)

type CacheType string

const (
	CacheTypeMemory CacheType = "memory"
	CacheTypeRedis  CacheType = "redis"
)

// Severity levels used across rule configuration and the severity gate.
const (
	SeverityCritical = "critical"
	SeverityHigh     = "high"
	SeverityMedium   = "medium"
	SeverityLow      = "low"
	SeverityInfo     = "info"
)

// Config holds the configuration for the Logicsweep server and its dependencies.
type Config struct {
	// Listen is the address the Logicsweep server will listen on.
	Listen string `yaml:"listen" mapstructure:"listen"`
	// ServerURL is the base URL of the Logicsweep server.
	ServerURL string `yaml:"server_url" mapstructure:"server_url"`
	// ScanSchedule is the cron schedule for the scan job (e.g., "0 */6 * * *" for every 6 hours).
	ScanSchedule string `yaml:"scan_schedule" mapstructure:"scan_schedule"`
	// ScanOnStartup indicates whether a scan should run immediately after the server starts.
	ScanOnStartup bool `yaml:"scan_on_startup" mapstructure:"scan_on_startup"`
	// Targets is the list of source trees to scan.
	Targets []*TargetConfig `yaml:"targets" mapstructure:"targets"`
	// Gate holds the severity gate configuration.
	Gate *GateConfig `yaml:"gate" mapstructure:"gate"`
	// AI holds the configuration for the LLM analysis pass.
	AI *AIConfig `yaml:"ai" mapstructure:"ai"`
	// Auth holds the authentication configuration for the Logicsweep server.
	Auth *AuthConfig `yaml:"auth" mapstructure:"auth"`
	// Database holds the database configuration.
	Database *DatabaseConfig `yaml:"database" mapstructure:"database"`
	// Cache holds the cache engine configuration.
	Cache *CacheConfig `yaml:"cache" mapstructure:"cache"`
	// APIKey is the API key for the Logicsweep server (used by CI integrations).
	APIKey string `yaml:"api_key" mapstructure:"api_key"`
	// SessionKey is the key used to encrypt session data.
	SessionKey string `yaml:"session_key" mapstructure:"session_key"`
	// SessionMaxAge is the maximum age of a session in seconds.
	SessionMaxAge int `yaml:"session_max_age" mapstructure:"session_max_age"`
	// Email holds the email notification configuration.
	Email *EmailConfig `yaml:"email" mapstructure:"email"`
	// Ntfy holds the ntfy notification configuration.
	Ntfy *NtfyConfig `yaml:"ntfy" mapstructure:"ntfy"`
	// WebPush holds the webpush notification configuration.
	WebPush *WebPushConfig `yaml:"webpush" mapstructure:"webpush"`
	// Gravatar holds the configuration for Gravatar profile pictures.
	Gravatar *GravatarConfig `yaml:"gravatar" mapstructure:"gravatar"`
}

// TargetConfig describes a single source tree to scan.
type TargetConfig struct {
	// Name is the display name of the target.
	Name string `yaml:"name" mapstructure:"name"`
	// Path is the root directory of the source tree.
	Path string `yaml:"path" mapstructure:"path"`
	// Languages restricts scanning to the given languages ("go", "python", "javascript", "typescript").
	// Empty means all supported languages.
	Languages []string `yaml:"languages" mapstructure:"languages"`
	// ExcludeDirs is a list of additional directory names to skip during the walk.
	ExcludeDirs []string `yaml:"exclude_dirs" mapstructure:"exclude_dirs"`
	// Rules holds the per-target rule configuration.
	Rules RulesConfig `yaml:"rules" mapstructure:"rules"`
}

// RulesConfig holds the per-target rule configuration.
type RulesConfig struct {
	// Disabled is a list of rule IDs (e.g. "LOGIC-001") that are skipped for this target.
	Disabled []string `yaml:"disabled" mapstructure:"disabled"`
	// MinSeverity drops findings below the given severity ("critical", "high", "medium", "low", "info").
	MinSeverity string `yaml:"min_severity" mapstructure:"min_severity"`
}

// GateConfig holds the severity gate configuration. The gate decides whether a scan
// passes or fails, which drives the CLI exit code and the run verdict.
type GateConfig struct {
	// FailSeverity is the minimum severity at which any finding fails the scan.
	FailSeverity string `yaml:"fail_severity" mapstructure:"fail_severity"`
	// MaxFindings fails the scan when the total finding count exceeds it. Zero means no limit.
	MaxFindings int `yaml:"max_findings" mapstructure:"max_findings"`
	// MinDiskFreePercent skips scheduled scans when the free disk space of the data
	// directory drops below this percentage. Zero disables the guard.
	MinDiskFreePercent float64 `yaml:"min_disk_free_percent" mapstructure:"min_disk_free_percent"`
}

// AIConfig holds the configuration for the LLM analysis pass.
type AIConfig struct {
	// Enabled indicates whether the LLM analysis pass is enabled.
	Enabled bool `yaml:"enabled" mapstructure:"enabled"`
	// APIKey is the Gemini API key.
	APIKey string `yaml:"api_key" mapstructure:"api_key"`
	// Model is the Gemini model used for analysis.
	Model string `yaml:"model" mapstructure:"model"`
	// Temperature is the sampling temperature for the analysis request.
	Temperature float32 `yaml:"temperature" mapstructure:"temperature"`
	// MaxEndpoints caps how many endpoints are sent in a single analysis request.
	MaxEndpoints int `yaml:"max_endpoints" mapstructure:"max_endpoints"`
}

// AuthConfig holds the authentication configuration for the Logicsweep server.
type AuthConfig struct {
	// OIDC holds the OpenID Connect configuration.
	OIDC *OIDCConfig `yaml:"oidc" mapstructure:"oidc"`
}

// OIDCConfig holds the OpenID Connect configuration for the Logicsweep server.
type OIDCConfig struct {
	// Enabled indicates whether OIDC authentication is enabled.
	Enabled bool `yaml:"enabled" mapstructure:"enabled"`
	// Name is the display name for the OIDC provider.
	Name string `yaml:"name" mapstructure:"name"`
	// Issuer is the OIDC issuer URL.
	Issuer string `yaml:"issuer" mapstructure:"issuer"`
	// ClientID is the OIDC client ID.
	ClientID string `yaml:"client_id" mapstructure:"client_id"`
	// ClientSecret is the OIDC client secret.
	ClientSecret string `yaml:"client_secret" mapstructure:"client_secret"`
	// RedirectURL is the redirect URL for the oidc flow.
	RedirectURL string `yaml:"redirect_url" mapstructure:"redirect_url"`
	// AdminGroup is the group that has admin privileges.
	AdminGroup string `yaml:"admin_group" mapstructure:"admin_group"`
	// TriggerGroup is the group whose members may trigger scans manually.
	// This setting overrides the database value for the trigger permission on each login.
	TriggerGroup string `yaml:"trigger_group" mapstructure:"trigger_group"`
	// UsePKCE enables PKCE (Proof Key for Code Exchange) for the OAuth 2.0 flow.
	UsePKCE bool `yaml:"use_pkce" mapstructure:"use_pkce"`
}

// DatabaseConfig holds the database configuration.
type DatabaseConfig struct {
	// Path is the path to the database file.
	Path string `yaml:"path" mapstructure:"path"`
}

// CacheConfig holds the configuration for the cache engine.
type CacheConfig struct {
	// Type is the type of cache engine to use (e.g., "memory", "redis").
	Type CacheType `yaml:"type" mapstructure:"type"`
	// RedisURL is the URL for the Redis cache if using Redis.
	RedisURL string `yaml:"redis_url" mapstructure:"redis_url"`
}

// EmailConfig holds the email notification configuration.
type EmailConfig struct {
	// Enabled indicates whether email notifications are enabled.
	Enabled bool `yaml:"enabled" mapstructure:"enabled"`
	// SMTPHost is the SMTP server host.
	SMTPHost string `yaml:"smtp_host" mapstructure:"smtp_host"`
	// SMTPPort is the SMTP server port.
	SMTPPort int `yaml:"smtp_port" mapstructure:"smtp_port"`
	// Username is the SMTP username.
	Username string `yaml:"username" mapstructure:"username"`
	// Password is the SMTP password.
	Password string `yaml:"password" mapstructure:"password"`
	// FromEmail is the email address from which notifications are sent.
	FromEmail string `yaml:"from_email" mapstructure:"from_email"`
	// FromName is the name from which notifications are sent.
	FromName string `yaml:"from_name" mapstructure:"from_name"`
	// Recipients are the addresses that receive scan reports.
	Recipients []string `yaml:"recipients" mapstructure:"recipients"`
	// UseTLS indicates whether to use TLS for the SMTP connection.
	UseTLS bool `yaml:"use_tls" mapstructure:"use_tls"`
	// UseSSL indicates whether to use SSL for the SMTP connection.
	UseSSL bool `yaml:"use_ssl" mapstructure:"use_ssl"`
	// InsecureSkipVerify indicates whether to skip TLS certificate verification.
	InsecureSkipVerify bool `yaml:"insecure_skip_verify" mapstructure:"insecure_skip_verify"`
}

// NtfyConfig holds the ntfy notification configuration.
type NtfyConfig struct {
	// Enabled indicates whether ntfy notifications are enabled.
	Enabled bool `yaml:"enabled" mapstructure:"enabled"`
	// ServerURL is the URL of the ntfy server.
	ServerURL string `yaml:"server_url" mapstructure:"server_url"`
	// Topic is the ntfy topic to publish notifications to.
	Topic string `yaml:"topic" mapstructure:"topic"`
	// Username is the ntfy username for authentication.
	Username string `yaml:"username" mapstructure:"username"`
	// Password is the ntfy password for authentication.
	Password string `yaml:"password" mapstructure:"password"`
	// Token is the ntfy token for authentication.
	Token string `yaml:"token" mapstructure:"token"`
}

// WebPushConfig holds the webpush notification configuration.
type WebPushConfig struct {
	// Enabled indicates whether webpush notifications are enabled.
	Enabled bool `yaml:"enabled" mapstructure:"enabled"`
	// VAPIDEmail is the email associated with the VAPID keys.
	VAPIDEmail string `yaml:"vapid_email" mapstructure:"vapid_email"`
	// PublicKey is the VAPID public key.
	PublicKey string `yaml:"public_key" mapstructure:"public_key"`
	// PrivateKey is the VAPID private key.
	PrivateKey string `yaml:"private_key" mapstructure:"private_key"`
}

// GravatarConfig holds the configuration for Gravatar profile pictures.
type GravatarConfig struct {
	// Enabled indicates whether Gravatar support is enabled.
	Enabled bool `yaml:"enabled" mapstructure:"enabled"`
	// DefaultImage is the default image to use when no Gravatar is found.
	// Valid values: "404", "mp", "identicon", "monsterid", "wavatar", "retro", "robohash", "blank"
	DefaultImage string `yaml:"default_image" mapstructure:"default_image"`
	// Rating is the maximum rating for Gravatar images.
	// Valid values: "g", "pg", "r", "x"
	Rating string `yaml:"rating" mapstructure:"rating"`
	// Size is the size of the Gravatar image in pixels (1-2048).
	Size int `yaml:"size" mapstructure:"size"`
}

// Load reads the configuration from the specified path and returns a Config struct.
// If path is empty, it will use default search paths for config files.
func Load(path string) (*Config, error) {
	v := viper.New()

	// bind some weirdly unsupported nested env vars
	bindNestedEnv(v)

	// Set default values
	setDefaults(v)

	// Configure Viper
	v.SetConfigType("yaml")
	v.SetEnvPrefix("LOGICSWEEP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var configFileFound bool
	if path != "" {
		// Use specific config file
		v.SetConfigFile(path)
	} else {
		// Search for config in common locations
		v.SetConfigName("config")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.logicsweep")
		v.AddConfigPath("/etc/logicsweep")
	}

	// Read the config file
	if err := v.ReadInConfig(); err != nil {
		// If no config file is found, use defaults
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	} else {
		configFileFound = true
	}

	if configFileFound {
		log.Debug("Using config file", "file", v.ConfigFileUsed())
		log.Debug("Some environment variables can be set with the LOGICSWEEP_ prefix to override config file values")
	}

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	// Sanitize config values
	sanitizeConfig(&c)

	// Validate required configs
	if err := validateConfig(&c); err != nil {
		return nil, err
	}

	return &c, nil
}

// setDefaults sets default values for the configuration.
func setDefaults(v *viper.Viper) {
	// Logicsweep defaults
	v.SetDefault("listen", "0.0.0.0:3009")
	v.SetDefault("server_url", "http://localhost:3009")
	v.SetDefault("scan_schedule", "0 */6 * * *") // Every 6 hours
	v.SetDefault("scan_on_startup", false)
	v.SetDefault("session_max_age", 172800) // 48 hours
	v.SetDefault("session_key", "")
	v.SetDefault("api_key", "")

	// Gate defaults
	v.SetDefault("gate.fail_severity", SeverityHigh)
	v.SetDefault("gate.max_findings", 0)
	v.SetDefault("gate.min_disk_free_percent", 0)

	// AI defaults
	v.SetDefault("ai.enabled", false)
	v.SetDefault("ai.api_key", "")
	v.SetDefault("ai.model", "gemini-2.5-flash")
	v.SetDefault("ai.temperature", 0.3)
	v.SetDefault("ai.max_endpoints", 50)

	// Auth defaults
	v.SetDefault("auth.oidc.enabled", false)
	v.SetDefault("auth.oidc.name", "OIDC")
	v.SetDefault("auth.oidc.issuer", "")
	v.SetDefault("auth.oidc.client_id", "")
	v.SetDefault("auth.oidc.client_secret", "")
	v.SetDefault("auth.oidc.redirect_url", "")
	v.SetDefault("auth.oidc.use_pkce", false)
	v.SetDefault("auth.oidc.admin_group", "")
	v.SetDefault("auth.oidc.trigger_group", "")

	// Database defaults
	v.SetDefault("database.path", "./data/logicsweep.db")

	// Cache defaults
	v.SetDefault("cache.type", CacheTypeMemory) // Default to in-memory
	v.SetDefault("cache.redis_url", "")

	// Email defaults
	v.SetDefault("email.enabled", false)
	v.SetDefault("email.smtp_host", "")
	v.SetDefault("email.smtp_port", 587)
	v.SetDefault("email.username", "")
	v.SetDefault("email.password", "")
	v.SetDefault("email.from_name", "Logicsweep")
	v.SetDefault("email.use_tls", true)
	v.SetDefault("email.use_ssl", false)
	v.SetDefault("email.insecure_skip_verify", false)

	// Ntfy defaults
	v.SetDefault("ntfy.enabled", false)
	v.SetDefault("ntfy.server_url", "https://ntfy.sh")
	v.SetDefault("ntfy.topic", "logicsweep")
	v.SetDefault("ntfy.username", "")
	v.SetDefault("ntfy.password", "")
	v.SetDefault("ntfy.token", "")

	// WebPush defaults
	v.SetDefault("webpush.enabled", false)
	v.SetDefault("webpush.vapid_email", "")
	v.SetDefault("webpush.public_key", "")
	v.SetDefault("webpush.private_key", "")

	// Gravatar defaults
	v.SetDefault("gravatar.enabled", false)
	v.SetDefault("gravatar.default_image", "robohash")
	v.SetDefault("gravatar.rating", "g")
	v.SetDefault("gravatar.size", 80)
}

// the auto env function from viper only works for nested structs, if the struct to which a value binds isn't nil.
// If we explicitly don't want a default value (e.g. because a struct value should be nil on purpose)
// we have to bind the env var manually.
func bindNestedEnv(v *viper.Viper) {
	// AI
	v.MustBindEnv("ai.api_key", "LOGICSWEEP_AI_API_KEY")
	v.MustBindEnv("ai.model", "LOGICSWEEP_AI_MODEL")

	// Database
	v.MustBindEnv("database.path", "LOGICSWEEP_DATABASE_PATH")

	// Cache
	v.MustBindEnv("cache.redis_url", "LOGICSWEEP_CACHE_REDIS_URL")
}

// validateConfig validates the configuration.
func validateConfig(c *Config) error {
	if len(c.Targets) == 0 {
		return fmt.Errorf("at least one scan target must be configured")
	}
	seen := make(map[string]struct{}, len(c.Targets))
	for i, t := range c.Targets {
		if t.Name == "" {
			return fmt.Errorf("target %d is missing a name", i)
		}
		if t.Path == "" {
			return fmt.Errorf("target %q is missing a path", t.Name)
		}
		if _, ok := seen[t.Name]; ok {
			return fmt.Errorf("duplicate target name %q", t.Name)
		}
		seen[t.Name] = struct{}{}
		if t.Rules.MinSeverity != "" && !validSeverity(t.Rules.MinSeverity) {
			return fmt.Errorf("target %q has invalid min_severity %q", t.Name, t.Rules.MinSeverity)
		}
	}

	if c.Gate != nil && c.Gate.FailSeverity != "" && !validSeverity(c.Gate.FailSeverity) {
		return fmt.Errorf("invalid gate fail_severity %q", c.Gate.FailSeverity)
	}

	if c.AI != nil && c.AI.Enabled && c.AI.APIKey == "" {
		return fmt.Errorf("ai.api_key is required when the AI pass is enabled")
	}

	if c.Auth != nil && c.Auth.OIDC != nil && c.Auth.OIDC.Enabled {
		oidc := c.Auth.OIDC
		if oidc.Issuer == "" || oidc.ClientID == "" || oidc.ClientSecret == "" || oidc.RedirectURL == "" {
			return fmt.Errorf("oidc requires issuer, client_id, client_secret and redirect_url")
		}
	}

	if c.Cache != nil && c.Cache.Type == CacheTypeRedis && c.Cache.RedisURL == "" {
		return fmt.Errorf("cache.redis_url is required when cache type is redis")
	}

	if c.Email != nil && c.Email.Enabled {
		if c.Email.SMTPHost == "" || c.Email.FromEmail == "" {
			return fmt.Errorf("email notifications require smtp_host and from_email")
		}
	}

	if c.WebPush != nil && c.WebPush.Enabled {
		if c.WebPush.PublicKey == "" || c.WebPush.PrivateKey == "" || c.WebPush.VAPIDEmail == "" {
			return fmt.Errorf("webpush requires vapid_email, public_key and private_key (run `logicsweep generate-vapid-keys`)")
		}
	}

	return nil
}

func validSeverity(s string) bool {
	switch strings.ToLower(s) {
	case SeverityCritical, SeverityHigh, SeverityMedium, SeverityLow, SeverityInfo:
		return true
	}
	return false
}

// sanitizeConfig normalizes config values.
func sanitizeConfig(c *Config) {
	c.ServerURL = urlSanitize(c.ServerURL)
	if c.Ntfy != nil {
		c.Ntfy.ServerURL = urlSanitize(c.Ntfy.ServerURL)
	}
	for _, t := range c.Targets {
		t.Rules.MinSeverity = strings.ToLower(t.Rules.MinSeverity)
		for i, lang := range t.Languages {
			t.Languages[i] = strings.ToLower(lang)
		}
	}
	if c.Gate != nil {
		c.Gate.FailSeverity = strings.ToLower(c.Gate.FailSeverity)
	}
}

func urlSanitize(url string) string {
	return strings.TrimRight(url, "/")
}

// GetTarget returns the target configuration for the given name, or nil if unknown.
func (c *Config) GetTarget(name string) *TargetConfig {
	for _, t := range c.Targets {
		if t.Name == name {
			return t
		}
	}
	return nil
}

// RuleDisabled reports whether the given rule ID is disabled for this target.
func (t *TargetConfig) RuleDisabled(ruleID string) bool {
	for _, id := range t.Rules.Disabled {
		if strings.EqualFold(id, ruleID) {
			return true
		}
	}
	return false
}

// ScansLanguage reports whether the target scans the given language.
func (t *TargetConfig) ScansLanguage(lang string) bool {
	if len(t.Languages) == 0 {
		return true
	}
	for _, l := range t.Languages {
		if l == lang {
			return true
		}
	}
	return false
}

// SeverityRank maps a severity string to a comparable rank, higher is more severe.
// Unknown severities rank below info.
func SeverityRank(s string) int {
	switch strings.ToLower(s) {
	case SeverityCritical:
		return 5
	case SeverityHigh:
		return 4
	case SeverityMedium:
		return 3
	case SeverityLow:
		return 2
	case SeverityInfo:
		return 1
	}
	return 0
}
