package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	// Default values
	DefaultPort          = 8080
	DefaultHost          = "127.0.0.1"
	DefaultLogLevel      = "info"
	DefaultMaxUploadSize = 25 * 1024 * 1024 // 25MB
	DefaultDatabasePath  = "pensign.db"
	DefaultSMTPPort      = 587
)

// Config holds all configuration for the signing service.
type Config struct {
	// Server configuration
	Host string
	Port int

	// Storage configuration
	DatabasePath string

	// Upload configuration
	MaxUploadSize int64 // Maximum PDF upload size in bytes

	// Mail configuration. SMTPHost empty disables outbound mail.
	SMTPHost         string
	SMTPPort         int
	SMTPUsername     string
	SMTPPassword     string
	MailFrom         string
	NotifyRecipients []string

	// Application configuration
	Version     string
	ServiceName string
	LogLevel    string
}

// DefaultConfig returns a configuration with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Host:          DefaultHost,
		Port:          DefaultPort,
		DatabasePath:  DefaultDatabasePath,
		MaxUploadSize: DefaultMaxUploadSize,
		SMTPPort:      DefaultSMTPPort,
		Version:       "1.0.0",
		ServiceName:   "pensign",
		LogLevel:      DefaultLogLevel,
	}
}

// LoadFromFlags parses command line flags and environment variables
// and returns a validated configuration.
func LoadFromFlags() (*Config, error) {
	cfg := DefaultConfig()

	setupViperEnvironment(cfg)
	defineCommandLineFlags(cfg)
	bindFlagsToViper()
	setupUsageMessage()

	pflag.Parse()

	populateConfigFromViper(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// setupViperEnvironment configures viper with environment variables and defaults.
func setupViperEnvironment(cfg *Config) {
	viper.SetEnvPrefix("PENSIGN")
	viper.AutomaticEnv()

	viper.SetDefault("host", cfg.Host)
	viper.SetDefault("port", cfg.Port)
	viper.SetDefault("db", cfg.DatabasePath)
	viper.SetDefault("maxupload", cfg.MaxUploadSize)
	viper.SetDefault("smtphost", cfg.SMTPHost)
	viper.SetDefault("smtpport", cfg.SMTPPort)
	viper.SetDefault("smtpuser", cfg.SMTPUsername)
	viper.SetDefault("smtppass", cfg.SMTPPassword)
	viper.SetDefault("mailfrom", cfg.MailFrom)
	viper.SetDefault("notify", "")
	viper.SetDefault("loglevel", cfg.LogLevel)
}

// defineCommandLineFlags sets up all command line flags.
func defineCommandLineFlags(cfg *Config) {
	pflag.String("host", cfg.Host, "Server host address")
	pflag.Int("port", cfg.Port, "Server port")
	pflag.String("db", cfg.DatabasePath, "Path to the SQLite database file")
	pflag.Int64("maxupload", cfg.MaxUploadSize, "Maximum PDF upload size in bytes")
	pflag.String("smtphost", cfg.SMTPHost, "SMTP host (empty disables outbound mail)")
	pflag.Int("smtpport", cfg.SMTPPort, "SMTP port")
	pflag.String("smtpuser", cfg.SMTPUsername, "SMTP username")
	pflag.String("smtppass", cfg.SMTPPassword, "SMTP password")
	pflag.String("mailfrom", cfg.MailFrom, "From address for notification mail")
	pflag.String("notify", "", "Comma-separated internal notification recipients")
	pflag.String("loglevel", cfg.LogLevel, "Log level (debug, info, warn, error)")
}

// bindFlagsToViper binds command line flags to viper configuration.
func bindFlagsToViper() {
	for _, name := range []string{
		"host", "port", "db", "maxupload",
		"smtphost", "smtpport", "smtpuser", "smtppass", "mailfrom", "notify",
		"loglevel",
	} {
		_ = viper.BindPFlag(name, pflag.Lookup(name))
	}
}

// setupUsageMessage configures the custom usage message.
func setupUsageMessage() {
	pflag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage of %s:\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "\npensign - PDF e-signature session service\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		pflag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  %s                                  # defaults, local SQLite, mail disabled\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s --port=9090 --db=/var/lib/pensign/pensign.db\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s --smtphost=smtp.example.com --mailfrom=sign@example.com --notify=ops@example.com\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "\nEnvironment Variables:\n")
		fmt.Fprintf(os.Stderr, "  PENSIGN_HOST       Server host\n")
		fmt.Fprintf(os.Stderr, "  PENSIGN_PORT       Server port\n")
		fmt.Fprintf(os.Stderr, "  PENSIGN_DB         SQLite database path\n")
		fmt.Fprintf(os.Stderr, "  PENSIGN_MAXUPLOAD  Maximum upload size\n")
		fmt.Fprintf(os.Stderr, "  PENSIGN_SMTPHOST   SMTP host\n")
		fmt.Fprintf(os.Stderr, "  PENSIGN_SMTPPORT   SMTP port\n")
		fmt.Fprintf(os.Stderr, "  PENSIGN_SMTPUSER   SMTP username\n")
		fmt.Fprintf(os.Stderr, "  PENSIGN_SMTPPASS   SMTP password\n")
		fmt.Fprintf(os.Stderr, "  PENSIGN_MAILFROM   From address\n")
		fmt.Fprintf(os.Stderr, "  PENSIGN_NOTIFY     Internal recipients (comma-separated)\n")
		fmt.Fprintf(os.Stderr, "  PENSIGN_LOGLEVEL   Log level\n")
	}
}

// populateConfigFromViper fills the config struct with values from viper.
func populateConfigFromViper(cfg *Config) {
	cfg.Host = viper.GetString("host")
	cfg.Port = viper.GetInt("port")
	cfg.DatabasePath = viper.GetString("db")
	cfg.MaxUploadSize = viper.GetInt64("maxupload")
	cfg.SMTPHost = viper.GetString("smtphost")
	cfg.SMTPPort = viper.GetInt("smtpport")
	cfg.SMTPUsername = viper.GetString("smtpuser")
	cfg.SMTPPassword = viper.GetString("smtppass")
	cfg.MailFrom = viper.GetString("mailfrom")
	cfg.NotifyRecipients = splitRecipients(viper.GetString("notify"))
	cfg.LogLevel = viper.GetString("loglevel")
}

func splitRecipients(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if addr := strings.TrimSpace(part); addr != "" {
			out = append(out, addr)
		}
	}
	return out
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Port < 1 || c.Port > 65535 {
		return errors.New("port must be between 1 and 65535")
	}

	if c.DatabasePath == "" {
		return errors.New("database path cannot be empty")
	}

	if c.MaxUploadSize <= 0 {
		return errors.New("maximum upload size must be positive")
	}

	if c.MailEnabled() {
		if c.MailFrom == "" {
			return errors.New("mailfrom is required when SMTP is configured")
		}
		if c.SMTPPort < 1 || c.SMTPPort > 65535 {
			return errors.New("SMTP port must be between 1 and 65535")
		}
	}

	validLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLogLevels[c.LogLevel] {
		return fmt.Errorf("invalid log level: %s (must be one of: debug, info, warn, error)", c.LogLevel)
	}

	return nil
}

// Address returns the server address as host:port.
func (c *Config) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// MailEnabled reports whether outbound mail is configured.
func (c *Config) MailEnabled() bool {
	return c.SMTPHost != ""
}

// IsDebug returns true if debug logging is enabled.
func (c *Config) IsDebug() bool {
	return c.LogLevel == "debug"
}

// String returns a string representation of the configuration without
// credentials.
func (c *Config) String() string {
	return fmt.Sprintf("Config{Host: %s, Port: %d, DatabasePath: %s, MaxUploadSize: %d, SMTPHost: %s, LogLevel: %s}",
		c.Host, c.Port, c.DatabasePath, c.MaxUploadSize, c.SMTPHost, c.LogLevel)
}
