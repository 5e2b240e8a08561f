package analyzer

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

// AnthropicOptions configures the Claude vision model
type AnthropicOptions struct {
	APIKey  string
	BaseURL string
	Model   string
}

// Claude asks an Anthropic model through the messages API
type Claude struct {
	client *anthropic.Client
	model  string
	err    error
}

func NewClaude(opts AnthropicOptions) *Claude {
	if opts.Model == "" {
		opts.Model = "claude-sonnet-4-20250514"
	}
	if opts.APIKey == "" {
		opts.APIKey = os.Getenv("ANTHROPIC_API_KEY")
	}
	if opts.APIKey == "" {
		return &Claude{err: errors.New("anthropic api key not configured")}
	}

	reqOpts := []option.RequestOption{option.WithAPIKey(opts.APIKey)}
	if opts.BaseURL != "" {
		reqOpts = append(reqOpts, option.WithBaseURL(opts.BaseURL))
	}
	client := anthropic.NewClient(reqOpts...)
	return &Claude{client: &client, model: opts.Model}
}

func (c *Claude) Ask(ctx context.Context, prompt, imagePath string) (string, error) {
	if c.err != nil {
		return "", c.err
	}

	data, err := os.ReadFile(imagePath)
	if err != nil {
		return "", err
	}

	mime := "image/png"
	switch strings.ToLower(filepath.Ext(imagePath)) {
	case ".jpg", ".jpeg":
		mime = "image/jpeg"
	}

	msg, err := c.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(c.model),
		MaxTokens: 50,
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(
				anthropic.NewImageBlockBase64(mime, base64.StdEncoding.EncodeToString(data)),
				anthropic.NewTextBlock(prompt),
			),
		},
	})
	if err != nil {
		return "", fmt.Errorf("create message: %w", err)
	}

	for _, block := range msg.Content {
		if block.Type == "text" {
			return block.Text, nil
		}
	}
	return "", errors.New("no text content returned")
}
