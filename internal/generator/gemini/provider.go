package gemini

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/Rrens/trip-planner/internal/config"
	"github.com/Rrens/trip-planner/internal/domain"
	"github.com/Rrens/trip-planner/internal/generator"
	"github.com/google/generative-ai-go/genai"
	"github.com/rs/zerolog/log"
	"google.golang.org/api/option"
)

type Provider struct {
	apiKey string
	model  string
}

func NewProvider(cfg config.GeminiConfig) *Provider {
	return &Provider{
		apiKey: cfg.APIKey,
		model:  cfg.Model,
	}
}

func (p *Provider) Name() string {
	return "gemini"
}

func (p *Provider) DefaultModel() string {
	if p.model != "" {
		return p.model
	}
	return "gemini-2.5-flash"
}

func (p *Provider) IsConfigured() bool {
	return p.apiKey != ""
}

func (p *Provider) Suggest(ctx context.Context, prefs domain.Preferences) (*generator.Suggestions, error) {
	if !p.IsConfigured() {
		return nil, fmt.Errorf("gemini provider is not configured (missing API key)")
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(p.apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}
	defer client.Close()

	model := client.GenerativeModel(p.DefaultModel())
	var temperature float32 = 0.7
	model.Temperature = &temperature
	model.ResponseMIMEType = "application/json"

	start := time.Now()
	resp, err := model.GenerateContent(ctx, genai.Text(generator.BuildPrompt(prefs)))
	if err != nil {
		return nil, fmt.Errorf("gemini generation error: %w", err)
	}

	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
		return nil, fmt.Errorf("empty response from gemini")
	}

	var output string
	for _, part := range resp.Candidates[0].Content.Parts {
		if text, ok := part.(genai.Text); ok {
			output += string(text)
		}
	}

	tokensUsed := 0
	if resp.UsageMetadata != nil {
		tokensUsed = int(resp.UsageMetadata.TotalTokenCount)
	}
	log.Debug().
		Str("model", p.DefaultModel()).
		Int("tokens", tokensUsed).
		Int64("latency_ms", time.Since(start).Milliseconds()).
		Msg("Gemini suggestions generated")

	return ParseSuggestions(output)
}

// ParseSuggestions decodes the model output into suggestions
func ParseSuggestions(output string) (*generator.Suggestions, error) {
	var s generator.Suggestions
	if err := json.Unmarshal([]byte(generator.ExtractJSON(output)), &s); err != nil {
		return nil, fmt.Errorf("failed to parse gemini output: %w", err)
	}
	if len(s.Activities) == 0 {
		return nil, fmt.Errorf("gemini returned no activities")
	}
	return &s, nil
}
