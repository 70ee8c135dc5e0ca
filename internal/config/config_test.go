package config

import (
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Host != "127.0.0.1" {
		t.Errorf("Expected default host to be '127.0.0.1', got '%s'", cfg.Host)
	}

	if cfg.Port != 8080 {
		t.Errorf("Expected default port to be 8080, got %d", cfg.Port)
	}

	if cfg.DatabasePath != "pensign.db" {
		t.Errorf("Expected default database path to be 'pensign.db', got '%s'", cfg.DatabasePath)
	}

	if cfg.MaxUploadSize != 25*1024*1024 {
		t.Errorf("Expected default max upload size to be 25MB, got %d", cfg.MaxUploadSize)
	}

	if cfg.SMTPPort != 587 {
		t.Errorf("Expected default SMTP port to be 587, got %d", cfg.SMTPPort)
	}

	if cfg.ServiceName != "pensign" {
		t.Errorf("Expected default service name to be 'pensign', got '%s'", cfg.ServiceName)
	}

	if cfg.LogLevel != "info" {
		t.Errorf("Expected default log level to be 'info', got '%s'", cfg.LogLevel)
	}

	if cfg.MailEnabled() {
		t.Error("Expected mail to be disabled by default")
	}
}

func TestConfigValidate(t *testing.T) {
	valid := func() *Config {
		cfg := DefaultConfig()
		return cfg
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{
			name:    "valid default config",
			mutate:  func(_ *Config) {},
			wantErr: false,
		},
		{
			name:    "invalid port - zero",
			mutate:  func(c *Config) { c.Port = 0 },
			wantErr: true,
		},
		{
			name:    "invalid port - too large",
			mutate:  func(c *Config) { c.Port = 70000 },
			wantErr: true,
		},
		{
			name:    "empty database path",
			mutate:  func(c *Config) { c.DatabasePath = "" },
			wantErr: true,
		},
		{
			name:    "non-positive upload size",
			mutate:  func(c *Config) { c.MaxUploadSize = 0 },
			wantErr: true,
		},
		{
			name:    "invalid log level",
			mutate:  func(c *Config) { c.LogLevel = "verbose" },
			wantErr: true,
		},
		{
			name: "smtp configured without from address",
			mutate: func(c *Config) {
				c.SMTPHost = "smtp.example.com"
				c.MailFrom = ""
			},
			wantErr: true,
		},
		{
			name: "smtp configured with bad port",
			mutate: func(c *Config) {
				c.SMTPHost = "smtp.example.com"
				c.MailFrom = "sign@example.com"
				c.SMTPPort = 0
			},
			wantErr: true,
		},
		{
			name: "smtp fully configured",
			mutate: func(c *Config) {
				c.SMTPHost = "smtp.example.com"
				c.MailFrom = "sign@example.com"
			},
			wantErr: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestConfigAddress(t *testing.T) {
	cfg := &Config{Host: "0.0.0.0", Port: 9090}
	if got := cfg.Address(); got != "0.0.0.0:9090" {
		t.Errorf("Expected address '0.0.0.0:9090', got '%s'", got)
	}
}

func TestSplitRecipients(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want int
	}{
		{name: "empty", in: "", want: 0},
		{name: "single", in: "ops@example.com", want: 1},
		{name: "multiple with spaces", in: "ops@example.com, legal@example.com ,", want: 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := splitRecipients(tt.in); len(got) != tt.want {
				t.Errorf("Expected %d recipients, got %d (%v)", tt.want, len(got), got)
			}
		})
	}
}
