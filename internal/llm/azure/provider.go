package azure

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/paperdeck/paperdeck/internal/llm"
)

// Provider implements llm.Provider for Azure OpenAI deployments.
type Provider struct {
	endpoint   string
	apiKey     string
	deployment string
	apiVersion string
	client     *http.Client
}

// NewProvider creates a new Azure OpenAI provider
func NewProvider(endpoint, apiKey, deployment, apiVersion string) *Provider {
	if apiVersion == "" {
		apiVersion = "2024-06-01"
	}
	return &Provider{
		endpoint:   strings.TrimRight(endpoint, "/"),
		apiKey:     apiKey,
		deployment: deployment,
		apiVersion: apiVersion,
		client:     &http.Client{Timeout: 10 * time.Minute},
	}
}

// Name returns the provider identifier
func (p *Provider) Name() string {
	return "azure"
}

// DefaultModel returns the deployment name; Azure routes by deployment.
func (p *Provider) DefaultModel() string {
	return p.deployment
}

// IsConfigured checks if provider has valid credentials
func (p *Provider) IsConfigured() bool {
	return p.endpoint != "" && p.apiKey != "" && p.deployment != ""
}

type chatRequest struct {
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	Stream      bool          `json:"stream,omitempty"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content any    `json:"content"`
}

type contentPart struct {
	Type     string    `json:"type"`
	Text     string    `json:"text,omitempty"`
	ImageURL *imageURL `json:"image_url,omitempty"`
}

type imageURL struct {
	URL string `json:"url"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

type streamChunk struct {
	Choices []struct {
		Delta struct {
			Content string `json:"content"`
		} `json:"delta"`
	} `json:"choices"`
}

func buildMessages(turns []llm.Turn) []chatMessage {
	msgs := make([]chatMessage, 0, len(turns))
	for _, t := range turns {
		if t.ImageURL == "" {
			msgs = append(msgs, chatMessage{Role: t.Role, Content: t.Content})
			continue
		}
		msgs = append(msgs, chatMessage{
			Role: t.Role,
			Content: []contentPart{
				{Type: "text", Text: t.Content},
				{Type: "image_url", ImageURL: &imageURL{URL: t.ImageURL}},
			},
		})
	}
	return msgs
}

// Stream generates a completion for one system+user exchange and forwards
// each output increment to onChunk.
func (p *Provider) Stream(ctx context.Context, req llm.StreamRequest, onChunk func(string)) (string, error) {
	msgs := []chatMessage{
		{Role: "system", Content: req.System},
		{Role: "user", Content: req.User},
	}

	body, err := json.Marshal(chatRequest{Messages: msgs, Temperature: req.Temperature, Stream: true})
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	resp, err := p.post(ctx, body)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("azure openai returned status %d: %s", resp.StatusCode, string(msg))
	}

	var full strings.Builder
	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Text()
		if !strings.HasPrefix(line, "data: ") {
			continue
		}
		data := strings.TrimPrefix(line, "data: ")
		if data == "[DONE]" {
			break
		}

		var chunk streamChunk
		if err := json.Unmarshal([]byte(data), &chunk); err != nil {
			continue
		}
		if len(chunk.Choices) == 0 {
			continue
		}
		delta := chunk.Choices[0].Delta.Content
		if delta == "" {
			continue
		}
		full.WriteString(delta)
		if onChunk != nil {
			onChunk(delta)
		}
	}
	if err := scanner.Err(); err != nil {
		return "", fmt.Errorf("failed to read stream: %w", err)
	}
	return full.String(), nil
}

// Invoke generates a completion for a multi-turn conversation.
func (p *Provider) Invoke(ctx context.Context, turns []llm.Turn, temperature float64) (string, error) {
	body, err := json.Marshal(chatRequest{Messages: buildMessages(turns), Temperature: temperature})
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	resp, err := p.post(ctx, body)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("azure openai returned status %d: %s", resp.StatusCode, string(msg))
	}

	var chatResp chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&chatResp); err != nil {
		return "", fmt.Errorf("failed to decode response: %w", err)
	}
	if len(chatResp.Choices) == 0 {
		return "", fmt.Errorf("no response from Azure OpenAI")
	}
	return chatResp.Choices[0].Message.Content, nil
}

func (p *Provider) post(ctx context.Context, body []byte) (*http.Response, error) {
	url := fmt.Sprintf("%s/openai/deployments/%s/chat/completions?api-version=%s", p.endpoint, p.deployment, p.apiVersion)

	httpReq, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("api-key", p.apiKey)

	resp, err := p.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	return resp, nil
}
