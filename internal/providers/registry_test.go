package providers

import "testing"

func TestFindByModel(t *testing.T) {
	tests := []struct {
		model string
		want  string
	}{
		{"gpt-4o", "openai"},
		{"claude-sonnet-4-20250514", "anthropic"},
		{"deepseek-chat", "deepseek"},
		{"mixtral-8x7b", "mistral"},
		{"unknown-model", ""},
	}
	for _, tt := range tests {
		spec := FindByModel(tt.model)
		got := ""
		if spec != nil {
			got = spec.Name
		}
		if got != tt.want {
			t.Errorf("FindByModel(%q) = %q, want %q", tt.model, got, tt.want)
		}
	}
}

func TestNewForModel(t *testing.T) {
	if _, ok := NewForModel("claude-sonnet-4-20250514", "key", "").(*AnthropicProvider); !ok {
		t.Error("claude model should use the anthropic provider")
	}
	if _, ok := NewForModel("gpt-4o", "key", "").(*OpenAICompatProvider); !ok {
		t.Error("gpt model should use the openai-compatible provider")
	}
	if _, ok := NewForModel("some-custom-model", "key", "http://localhost:8000/v1").(*OpenAICompatProvider); !ok {
		t.Error("unknown model should fall back to the openai-compatible provider")
	}
}
