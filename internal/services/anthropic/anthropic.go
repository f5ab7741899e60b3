// Package anthropic implements llm.Completer on the Anthropic Messages API.
package anthropic

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"cdfinder/internal/services/llm"
)

const defaultMaxTokens = 512

// Config captures the connection settings for the Anthropic API.
type Config struct {
	APIKey  string
	BaseURL string
	Model   string
	Timeout time.Duration
}

// Provider sends completions through the Messages API.
type Provider struct {
	client *anthropic.Client
	model  anthropic.Model
}

var _ llm.Completer = (*Provider)(nil)

// New builds a provider. Extra request options are appended after the defaults.
func New(cfg Config, extra ...option.RequestOption) *Provider {
	opts := []option.RequestOption{
		option.WithAPIKey(strings.TrimSpace(cfg.APIKey)),
		option.WithMaxRetries(2),
	}
	if base := strings.TrimSpace(cfg.BaseURL); base != "" {
		opts = append(opts, option.WithBaseURL(base))
	}
	if cfg.Timeout > 0 {
		opts = append(opts, option.WithRequestTimeout(cfg.Timeout))
	}
	opts = append(opts, extra...)
	client := anthropic.NewClient(opts...)

	model := anthropic.Model(strings.TrimSpace(cfg.Model))
	if model == "" {
		model = anthropic.ModelClaude3_5HaikuLatest
	}
	return &Provider{client: &client, model: model}
}

// Complete implements llm.Completer. The Messages API has no JSON response
// mode, so JSON requests carry the expected keys in the system prompt.
func (p *Provider) Complete(ctx context.Context, req llm.Request) (string, error) {
	prompt := strings.TrimSpace(req.Prompt)
	if prompt == "" {
		return "", errors.New("anthropic complete: prompt required")
	}

	var blocks []anthropic.ContentBlockParamUnion
	if req.Image != nil {
		blocks = append(blocks, anthropic.NewImageBlockBase64(req.Image.MIME, req.Image.Base64()))
	}
	blocks = append(blocks, anthropic.NewTextBlock(prompt))

	maxTokens := int64(defaultMaxTokens)
	if req.MaxTokens > 0 {
		maxTokens = int64(req.MaxTokens)
	}
	params := anthropic.MessageNewParams{
		Model:       p.model,
		MaxTokens:   maxTokens,
		Messages:    []anthropic.MessageParam{anthropic.NewUserMessage(blocks...)},
		Temperature: anthropic.Float(0),
	}
	if system := systemPrompt(req); system != "" {
		params.System = []anthropic.TextBlockParam{{Text: system}}
	}

	resp, err := p.client.Messages.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("anthropic api error: %w", err)
	}
	var out strings.Builder
	for _, block := range resp.Content {
		if block.Type == "text" {
			out.WriteString(block.AsText().Text)
		}
	}
	content := strings.TrimSpace(out.String())
	if content == "" {
		return "", fmt.Errorf("anthropic complete: empty content (stop_reason=%q)", resp.StopReason)
	}
	return content, nil
}

func systemPrompt(req llm.Request) string {
	system := strings.TrimSpace(req.System)
	if !req.WantsJSON() {
		return system
	}
	instruction := "Respond with a single JSON object and nothing else."
	if req.Schema != nil && len(req.Schema.Properties) > 0 {
		keys := make([]string, 0, len(req.Schema.Properties))
		for name := range req.Schema.Properties {
			keys = append(keys, fmt.Sprintf("%q (%s)", name, req.Schema.Properties[name]))
		}
		sort.Strings(keys)
		instruction += " Required keys: " + strings.Join(keys, ", ") + "."
	}
	if system == "" {
		return instruction
	}
	return system + "\n\n" + instruction
}
