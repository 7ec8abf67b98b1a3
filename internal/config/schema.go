package config

// Config is the top-level configuration
type Config struct {
	Channel   ChannelConfig   `json:"channel"`
	Reasoning ReasoningConfig `json:"reasoning"`
	Media     MediaConfig     `json:"media"`
	Storage   StorageConfig   `json:"storage"`
	Sessions  SessionsConfig  `json:"sessions"`
	Upstreams UpstreamsConfig `json:"upstreams"`
	Gateway   GatewayConfig   `json:"gateway"`
	Limits    LimitsConfig    `json:"limits"`
}

// ChannelConfig holds the messaging-channel provider credentials, used to
// authenticate media downloads for inbound voice notes and photos.
type ChannelConfig struct {
	AccountID string `json:"accountId"`
	AuthToken string `json:"authToken"`
}

// ReasoningConfig selects the LLM used for intent decomposition and the
// LLM-backed capability handlers.
type ReasoningConfig struct {
	Model     string `json:"model"`
	APIKey    string `json:"apiKey"`
	BaseURL   string `json:"baseUrl"`
	MaxTokens int    `json:"maxTokens"`
}

// MediaConfig names the multimodal models for voice and photo analysis and
// the speech-synthesis model for voice replies.
type MediaConfig struct {
	ImageModel string `json:"imageModel"`
	AudioModel string `json:"audioModel"`
	APIKey     string `json:"apiKey"`
	VoiceModel string `json:"voiceModel"`
}

// StorageConfig names the durable bucket for synthesized voice notes.
type StorageConfig struct {
	Bucket string `json:"bucket"`
}

// SessionsConfig controls the session store and the idle-session janitor.
type SessionsConfig struct {
	RedisAddr       string `json:"redisAddr"` // empty = in-memory store
	RedisPassword   string `json:"redisPassword"`
	IdleTTLMinutes  int    `json:"idleTtlMinutes"`
	CleanupSchedule string `json:"cleanupSchedule"` // cron expression
}

// UpstreamsConfig holds endpoints and keys for the capability handlers'
// external services.
type UpstreamsConfig struct {
	WeatherAPIKey      string `json:"weatherApiKey"`
	WeatherBaseURL     string `json:"weatherBaseUrl"`
	MarketplaceAPIKey  string `json:"marketplaceApiKey"`
	MarketplaceBaseURL string `json:"marketplaceBaseUrl"`
	RetrievalBaseURL   string `json:"retrievalBaseUrl"`
}

type GatewayConfig struct {
	Host string `json:"host"`
	Port int    `json:"port"`
}

// LimitsConfig bounds concurrency and latency per external dependency.
type LimitsConfig struct {
	MediaConcurrency     int `json:"mediaConcurrency"`
	HandlerConcurrency   int `json:"handlerConcurrency"`
	SynthesisConcurrency int `json:"synthesisConcurrency"`
	CallTimeoutSeconds   int `json:"callTimeoutSeconds"`
}

// DefaultConfig returns a Config with sensible defaults applied.
func DefaultConfig() *Config {
	return &Config{
		Reasoning: ReasoningConfig{
			Model:     "gpt-4o",
			MaxTokens: 2048,
		},
		Media: MediaConfig{
			ImageModel: "gemini-2.5-flash-lite",
			AudioModel: "gemini-2.5-flash-lite",
			VoiceModel: "tts-1",
		},
		Sessions: SessionsConfig{
			IdleTTLMinutes:  240,
			CleanupSchedule: "@every 30m",
		},
		Upstreams: UpstreamsConfig{
			WeatherBaseURL:     "http://api.weatherapi.com/v1",
			MarketplaceBaseURL: "https://api.scrapingdog.com/amazon/search",
		},
		Gateway: GatewayConfig{
			Host: "0.0.0.0",
			Port: 8080,
		},
		Limits: LimitsConfig{
			MediaConcurrency:     4,
			HandlerConcurrency:   8,
			SynthesisConcurrency: 2,
			CallTimeoutSeconds:   30,
		},
	}
}
