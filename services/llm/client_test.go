package llm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractJSON(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		wantKey string
		wantErr bool
	}{
		{
			name:    "plain object",
			raw:     `{"coach_reflection": "That sounds hard."}`,
			wantKey: "coach_reflection",
		},
		{
			name:    "fenced with language tag",
			raw:     "```json\n{\"goal_statement\": \"delegate\"}\n```",
			wantKey: "goal_statement",
		},
		{
			name:    "fenced without language tag",
			raw:     "```\n{\"goal_statement\": \"delegate\"}\n```",
			wantKey: "goal_statement",
		},
		{
			name:    "surrounding whitespace",
			raw:     "  \n {\"a\": 1} \n",
			wantKey: "a",
		},
		{
			name:    "prose instead of JSON",
			raw:     "I think the client should delegate.",
			wantErr: true,
		},
		{
			name:    "JSON array not object",
			raw:     `[1,2,3]`,
			wantErr: true,
		},
		{
			name:    "empty",
			raw:     "",
			wantErr: true,
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			payload, err := ExtractJSON(tc.raw)
			if tc.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Contains(t, payload, tc.wantKey)
		})
	}
}
