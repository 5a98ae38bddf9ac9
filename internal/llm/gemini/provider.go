package gemini

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"

	"github.com/paperdeck/paperdeck/internal/config"
	"github.com/paperdeck/paperdeck/internal/llm"
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

// Stream generates a completion for one system+user exchange and forwards
// each output increment to onChunk.
func (p *Provider) Stream(ctx context.Context, req llm.StreamRequest, onChunk func(string)) (string, error) {
	if !p.IsConfigured() {
		return "", fmt.Errorf("gemini provider is not configured (missing API key)")
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(p.apiKey))
	if err != nil {
		return "", fmt.Errorf("failed to create gemini client: %w", err)
	}
	defer client.Close()

	model := client.GenerativeModel(p.DefaultModel())
	temperature := float32(req.Temperature)
	model.Temperature = &temperature
	if req.System != "" {
		model.SystemInstruction = &genai.Content{Parts: []genai.Part{genai.Text(req.System)}}
	}

	var full strings.Builder
	iter := model.GenerateContentStream(ctx, genai.Text(req.User))
	for {
		resp, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return "", fmt.Errorf("gemini generation error: %w", err)
		}
		chunk := responseText(resp)
		if chunk == "" {
			continue
		}
		full.WriteString(chunk)
		if onChunk != nil {
			onChunk(chunk)
		}
	}
	return full.String(), nil
}

// Invoke generates a completion for a multi-turn conversation. The history
// minus the final user turn seeds a chat session; the final turn is sent as
// the message.
func (p *Provider) Invoke(ctx context.Context, turns []llm.Turn, temperature float64) (string, error) {
	if !p.IsConfigured() {
		return "", fmt.Errorf("gemini provider is not configured (missing API key)")
	}
	if len(turns) == 0 {
		return "", fmt.Errorf("no conversation turns")
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(p.apiKey))
	if err != nil {
		return "", fmt.Errorf("failed to create gemini client: %w", err)
	}
	defer client.Close()

	model := client.GenerativeModel(p.DefaultModel())
	temp := float32(temperature)
	model.Temperature = &temp

	var system []string
	var history []*genai.Content
	for _, t := range turns[:len(turns)-1] {
		if t.Role == "system" {
			system = append(system, turnText(t))
			continue
		}
		history = append(history, &genai.Content{
			Role:  geminiRole(t.Role),
			Parts: []genai.Part{genai.Text(turnText(t))},
		})
	}
	if len(system) > 0 {
		model.SystemInstruction = &genai.Content{Parts: []genai.Part{genai.Text(strings.Join(system, "\n\n"))}}
	}

	session := model.StartChat()
	session.History = history

	resp, err := session.SendMessage(ctx, genai.Text(turnText(turns[len(turns)-1])))
	if err != nil {
		return "", fmt.Errorf("gemini generation error: %w", err)
	}
	return responseText(resp), nil
}

// geminiRole maps chat roles onto the two roles the API accepts.
func geminiRole(role string) string {
	if role == "assistant" {
		return "model"
	}
	return "user"
}

// turnText flattens a turn into text. Image references travel as URLs in the
// message body; the API does not fetch remote URLs itself.
func turnText(t llm.Turn) string {
	if t.ImageURL == "" {
		return t.Content
	}
	return t.Content + "\n[image] " + t.ImageURL
}

func responseText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return ""
	}
	var sb strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if text, ok := part.(genai.Text); ok {
			sb.WriteString(string(text))
		}
	}
	return sb.String()
}
