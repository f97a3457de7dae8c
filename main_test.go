package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"complaintsync/internal/config"
	"complaintsync/internal/interpret"
)

func TestNewModel(t *testing.T) {
	tests := []struct {
		provider string
		want     any
		wantErr  bool
	}{
		{config.ProviderGemini, &interpret.GeminiModel{}, false},
		{config.ProviderAnthropic, &interpret.AnthropicModel{}, false},
		{"openai", nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.provider, func(t *testing.T) {
			m, err := newModel(&config.Config{
				InterpretProvider: tt.provider,
				GeminiAPIKey:      "g",
				GeminiModel:       "gemini-2.5-flash",
				AnthropicAPIKey:   "a",
				AnthropicModel:    "claude-haiku-4-5-20251001",
			})
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.IsType(t, tt.want, m)
		})
	}
}

func TestRootFlags(t *testing.T) {
	for _, name := range []string{"outlets", "dry-run", "env-file"} {
		assert.NotNil(t, rootCmd.PersistentFlags().Lookup(name), name)
	}
}

func TestOutletList(t *testing.T) {
	assert.Equal(t, "19595894,57750", outletList([]string{"19595894", "57750"}))
	assert.Empty(t, outletList(nil))
}
