package config

import (
	"errors"
	"testing"
)

// validTestConfig returns a config that passes validation with the ollama
// provider (no API key needed, keeps tests hermetic).
func validTestConfig() *Config {
	return &Config{
		Provider:      ProviderOllama,
		ModelName:     "llama3.3",
		Temperature:   0.7,
		EmbedderModel: "nomic-embed-text",
		OllamaHost:    "http://localhost:11434",
		TopK:          4,
		Crawler: CrawlerConfig{
			StepBudget:      25,
			NewsRegion:      "in-en",
			SearchTimeoutMs: 15000,
		},
		PostgresHost:     "localhost",
		PostgresPort:     5432,
		PostgresUser:     "docuquery",
		PostgresPassword: "secret-password",
		PostgresDBName:   "docuquery",
		PostgresSSLMode:  "disable",
	}
}

func TestValidateAccepts(t *testing.T) {
	cfg := validTestConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate() error = %v, want nil", err)
	}
}

func TestValidateRejects(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr error
	}{
		{
			name:    "unknown provider",
			mutate:  func(c *Config) { c.Provider = "acme" },
			wantErr: ErrInvalidProvider,
		},
		{
			name:    "empty model name",
			mutate:  func(c *Config) { c.ModelName = "" },
			wantErr: ErrInvalidModelName,
		},
		{
			name:    "temperature too high",
			mutate:  func(c *Config) { c.Temperature = 2.5 },
			wantErr: ErrInvalidTemperature,
		},
		{
			name:    "negative temperature",
			mutate:  func(c *Config) { c.Temperature = -0.1 },
			wantErr: ErrInvalidTemperature,
		},
		{
			name:    "empty embedder",
			mutate:  func(c *Config) { c.EmbedderModel = "" },
			wantErr: ErrInvalidEmbedderModel,
		},
		{
			name:    "top_k zero",
			mutate:  func(c *Config) { c.TopK = 0 },
			wantErr: ErrInvalidTopK,
		},
		{
			name:    "step budget zero",
			mutate:  func(c *Config) { c.Crawler.StepBudget = 0 },
			wantErr: ErrInvalidStepBudget,
		},
		{
			name:    "step budget absurd",
			mutate:  func(c *Config) { c.Crawler.StepBudget = 1000 },
			wantErr: ErrInvalidStepBudget,
		},
		{
			name:    "empty postgres host",
			mutate:  func(c *Config) { c.PostgresHost = "" },
			wantErr: ErrInvalidPostgresHost,
		},
		{
			name:    "postgres port out of range",
			mutate:  func(c *Config) { c.PostgresPort = 70000 },
			wantErr: ErrInvalidPostgresPort,
		},
		{
			name:    "empty db name",
			mutate:  func(c *Config) { c.PostgresDBName = "" },
			wantErr: ErrInvalidPostgresDBName,
		},
		{
			name:    "empty password",
			mutate:  func(c *Config) { c.PostgresPassword = "" },
			wantErr: ErrInvalidPostgresPassword,
		},
		{
			name:    "bad sslmode",
			mutate:  func(c *Config) { c.PostgresSSLMode = "yes-please" },
			wantErr: ErrInvalidPostgresSSLMode,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validTestConfig()
			tt.mutate(cfg)

			err := cfg.Validate()
			if err == nil {
				t.Fatal("Validate() = nil, want error")
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Validate() error = %v, want errors.Is(%v)", err, tt.wantErr)
			}
		})
	}
}

func TestValidateNilConfig(t *testing.T) {
	var cfg *Config
	if err := cfg.Validate(); !errors.Is(err, ErrConfigNil) {
		t.Errorf("Validate() on nil = %v, want ErrConfigNil", err)
	}
}
