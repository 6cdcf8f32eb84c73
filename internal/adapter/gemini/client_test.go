package gemini

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"google.golang.org/genai"
)

func TestResponseText(t *testing.T) {
	tests := []struct {
		name string
		resp *genai.GenerateContentResponse
		want string
	}{
		{"nil", nil, ""},
		{"no candidates", &genai.GenerateContentResponse{}, ""},
		{"nil content", &genai.GenerateContentResponse{Candidates: []*genai.Candidate{{}}}, ""},
		{
			"joins parts and skips thoughts",
			&genai.GenerateContentResponse{Candidates: []*genai.Candidate{{
				Content: &genai.Content{Parts: []*genai.Part{
					{Text: "thinking...", Thought: true},
					{Text: "Day 1: "},
					{Text: "Montmartre"},
				}},
			}}},
			"Day 1: Montmartre",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, responseText(tt.resp))
		})
	}
}
