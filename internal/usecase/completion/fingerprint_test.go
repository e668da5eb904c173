package completion

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"ai-notebook/internal/domain/entity"
)

func floatPtr(v float64) *float64 { return &v }
func intPtr(v int) *int           { return &v }

func TestFingerprint_KnownDigests(t *testing.T) {
	tests := []struct {
		name string
		req  entity.CompletionRequest
		want string
	}{
		{
			name: "defaults",
			req:  entity.CompletionRequest{Prompt: "hello", Provider: entity.ProviderDeepSeek},
			want: "03712e0efb552b050202b8f1c65ef406",
		},
		{
			name: "max tokens",
			req:  entity.CompletionRequest{Prompt: "hello", Provider: entity.ProviderDeepSeek, MaxTokens: intPtr(4096)},
			want: "865acafeadedcd06deadd0125b69279e",
		},
		{
			name: "fractional temperature",
			req:  entity.CompletionRequest{Prompt: "hello", Provider: entity.ProviderDeepSeek, Temperature: floatPtr(0.7)},
			want: "212a371155fc44a98513a8682d60db7a",
		},
		{
			name: "integral temperature",
			req:  entity.CompletionRequest{Prompt: "hello", Provider: entity.ProviderDeepSeek, Temperature: floatPtr(1)},
			want: "be34a5c71e295b32f9185c5e7017a9ed",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Fingerprint(tt.req))
		})
	}
}

func TestFingerprint_Deterministic(t *testing.T) {
	req := entity.CompletionRequest{Prompt: "長い文章", Provider: entity.ProviderClaude, MaxTokens: intPtr(512)}
	first := Fingerprint(req)

	for i := 0; i < 10; i++ {
		assert.Equal(t, first, Fingerprint(req))
	}
	assert.NoError(t, entity.ValidateFingerprint(first))
	assert.Len(t, first, 32)
}

func TestFingerprint_DistinguishesEveryField(t *testing.T) {
	base := entity.CompletionRequest{Prompt: "p", Provider: entity.ProviderDeepSeek}
	variants := []entity.CompletionRequest{
		{Prompt: "q", Provider: entity.ProviderDeepSeek},
		{Prompt: "p", Provider: entity.ProviderOpenAI},
		{Prompt: "p", Provider: entity.ProviderDeepSeek, MaxTokens: intPtr(100)},
		{Prompt: "p", Provider: entity.ProviderDeepSeek, Temperature: floatPtr(0.5)},
	}

	seen := map[string]bool{Fingerprint(base): true}
	for _, v := range variants {
		fp := Fingerprint(v)
		assert.False(t, seen[fp], "collision for %+v", v)
		seen[fp] = true
	}
}

func TestFormatFloat(t *testing.T) {
	tests := map[float64]string{
		1:       "1.0",
		0.7:     "0.7",
		0:       "0.0",
		1.25:    "1.25",
		0.00001: "1e-05",
	}
	for in, want := range tests {
		assert.Equal(t, want, formatFloat(in), "formatFloat(%v)", in)
	}
}
