package cmd

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/teemow/clickup-mcp/internal/config"
)

func TestWriteConfigYAML(t *testing.T) {
	cfg := &config.Config{
		APIKey:             "pk_12345678_ABCDEFGHIJKLMNOP",
		DefaultWorkspaceID: "9001",
		CacheTTL:           300,
		IDPatterns:         map[string]string{"gh": "GitHub Issues"},
		RateLimit:          100,
		Timeout:            30 * time.Second,
	}

	var sb strings.Builder
	require.NoError(t, writeConfigYAML(&sb, cfg))

	out := sb.String()
	assert.NotContains(t, out, cfg.APIKey)

	var decoded map[string]any
	require.NoError(t, yaml.Unmarshal([]byte(out), &decoded))
	assert.Equal(t, "pk_123...MNOP", decoded["api_key"])
	assert.Equal(t, "9001", decoded["default_workspace_id"])
	assert.Equal(t, map[string]any{"gh": "GitHub Issues"}, decoded["id_patterns"])
	assert.NotContains(t, decoded, "default_team_id")

	// The original is left untouched.
	assert.Equal(t, "pk_12345678_ABCDEFGHIJKLMNOP", cfg.APIKey)
}

func TestSortedPatterns(t *testing.T) {
	tests := []struct {
		name     string
		patterns map[string]string
		expected []string
	}{
		{
			name:     "empty",
			patterns: nil,
			expected: []string{},
		},
		{
			name:     "ordered by prefix",
			patterns: map[string]string{"gh": "GitHub Issues", "cs": "Support", "ops": ""},
			expected: []string{"cs (Support)", "gh (GitHub Issues)", "ops"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, sortedPatterns(tt.patterns))
		})
	}
}

func TestPrintConfigSummary(t *testing.T) {
	cfg := &config.Config{
		APIKey:        "pk_12345678_ABCDEFGHIJKLMNOP",
		DefaultTeamID: "77",
		CacheTTL:      60,
		IDPatterns:    map[string]string{"gh": "GitHub Issues"},
		RateLimit:     50,
		Timeout:       10 * time.Second,
	}

	var sb strings.Builder
	printConfigSummary(&sb, cfg)
	out := sb.String()

	assert.Contains(t, out, "none (environment only)")
	assert.Contains(t, out, "pk_123...MNOP")
	assert.NotContains(t, out, cfg.APIKey)
	assert.Contains(t, out, "Default workspace:    (none)")
	assert.Contains(t, out, "Custom ID scope:      77")
	assert.Contains(t, out, "ID patterns:          gh (GitHub Issues)")
	assert.Contains(t, out, "Cache TTL:            1m0s")
	assert.Contains(t, out, "Rate limit:           50 requests/minute")
	assert.NotContains(t, out, "Base URL")
}
