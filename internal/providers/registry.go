package providers

import "strings"

type ProviderSpec struct {
	Name           string
	Keywords       []string // model name keywords for matching
	DefaultAPIBase string   // default base URL
}

// Specs is the registry of known reasoning providers.
var Specs = []ProviderSpec{
	{Name: "anthropic", Keywords: []string{"claude", "anthropic"}},
	{Name: "openai", Keywords: []string{"gpt", "o1", "o3", "chatgpt"}},
	{Name: "deepseek", Keywords: []string{"deepseek"}, DefaultAPIBase: "https://api.deepseek.com/v1"},
	{Name: "groq", Keywords: []string{"groq", "llama"}, DefaultAPIBase: "https://api.groq.com/openai/v1"},
	{Name: "mistral", Keywords: []string{"mistral", "mixtral"}, DefaultAPIBase: "https://api.mistral.ai/v1"},
}

// FindByModel matches model name against Keywords, returns first match.
func FindByModel(model string) *ProviderSpec {
	lower := strings.ToLower(model)
	for i := range Specs {
		for _, kw := range Specs[i].Keywords {
			if strings.Contains(lower, kw) {
				return &Specs[i]
			}
		}
	}
	return nil
}

// NewForModel builds a reasoning provider for the configured model. Anthropic
// models get the native SDK; everything else goes through the
// OpenAI-compatible client, with baseURL overriding the registry default.
func NewForModel(model, apiKey, baseURL string) Provider {
	spec := FindByModel(model)
	if spec != nil && spec.Name == "anthropic" {
		return NewAnthropicProvider(apiKey)
	}
	base := baseURL
	if base == "" && spec != nil {
		base = spec.DefaultAPIBase
	}
	return NewOpenAICompatProvider(apiKey, base, model)
}
