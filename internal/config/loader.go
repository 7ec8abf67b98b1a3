package config

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
)

// Load builds config from defaults and environment variables only.
func Load() *Config {
	cfg := DefaultConfig()
	applyEnvOverrides(cfg)
	return cfg
}

// LoadFromFile loads config from a JSON file, then applies env overrides.
func LoadFromFile(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open config file %s: %w", path, err)
	}
	defer f.Close()
	return LoadFromReader(f)
}

// LoadFromReader loads config from an io.Reader, applying defaults and env overrides.
func LoadFromReader(r io.Reader) (*Config, error) {
	cfg := DefaultConfig()

	if err := json.NewDecoder(r).Decode(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	applyEnvOverrides(cfg)
	return cfg, nil
}

// applyEnvOverrides applies AGRIMITRA_-prefixed environment variable overrides.
// The channel credentials also honor the provider's conventional env names so
// deployments keep working unchanged.
func applyEnvOverrides(cfg *Config) {
	// Legacy provider names first, so AGRIMITRA_ variables win when both are set.
	if val := os.Getenv("TWILIO_ACCOUNT_SID"); val != "" {
		cfg.Channel.AccountID = val
	}
	if val := os.Getenv("TWILIO_AUTH_TOKEN"); val != "" {
		cfg.Channel.AuthToken = val
	}

	envMap := map[string]*string{
		"AGRIMITRA_CHANNEL_ACCOUNT_ID":     &cfg.Channel.AccountID,
		"AGRIMITRA_CHANNEL_AUTH_TOKEN":     &cfg.Channel.AuthToken,
		"AGRIMITRA_REASONING_MODEL":        &cfg.Reasoning.Model,
		"AGRIMITRA_REASONING_APIKEY":       &cfg.Reasoning.APIKey,
		"AGRIMITRA_REASONING_BASEURL":      &cfg.Reasoning.BaseURL,
		"AGRIMITRA_IMAGE_MODEL":            &cfg.Media.ImageModel,
		"AGRIMITRA_AUDIO_MODEL":            &cfg.Media.AudioModel,
		"AGRIMITRA_MEDIA_APIKEY":           &cfg.Media.APIKey,
		"AGRIMITRA_STORAGE_BUCKET":         &cfg.Storage.Bucket,
		"AGRIMITRA_REDIS_ADDR":             &cfg.Sessions.RedisAddr,
		"AGRIMITRA_REDIS_PASSWORD":         &cfg.Sessions.RedisPassword,
		"AGRIMITRA_WEATHER_APIKEY":         &cfg.Upstreams.WeatherAPIKey,
		"AGRIMITRA_MARKETPLACE_APIKEY":     &cfg.Upstreams.MarketplaceAPIKey,
		"AGRIMITRA_RETRIEVAL_BASEURL":      &cfg.Upstreams.RetrievalBaseURL,
		"AGRIMITRA_SESSIONS_CLEANUP_CRON":  &cfg.Sessions.CleanupSchedule,
	}

	for env, ptr := range envMap {
		if val := os.Getenv(env); val != "" {
			*ptr = val
		}
	}
}
