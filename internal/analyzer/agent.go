package analyzer

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/agent-api/core"
	"github.com/agent-api/core/agent"
	"github.com/agent-api/core/agent/bootstrap"
	"github.com/agent-api/ollama"
	"github.com/go-logr/logr"
)

const classifierSystemPrompt = "You are a visual analysis assistant that sorts video frames into content categories. Answer with a single category word."

// OllamaOptions locates a local Ollama server and vision model
type OllamaOptions struct {
	BaseURL string
	Port    int
	Model   string
}

// Ollama asks a local vision model through an agent
type Ollama struct {
	agent *agent.Agent
	err   error
}

// NewOllama connects to the local Ollama server. When it cannot be reached the
// returned model fails every request so frames degrade instead of aborting.
func NewOllama(ctx context.Context, opts OllamaOptions, logger *slog.Logger) *Ollama {
	if opts.BaseURL == "" {
		opts.BaseURL = "http://localhost"
	}
	if opts.Port == 0 {
		opts.Port = 11434
	}
	if opts.Model == "" {
		opts.Model = "llama3.2-vision:11b"
	}

	// Check if Ollama is running
	if err := probeOllama(ctx, opts); err != nil {
		logger.Warn("ollama is not reachable", "base_url", opts.BaseURL, "port", opts.Port, "error", err)
		return &Ollama{err: fmt.Errorf("ollama unavailable: %w", err)}
	}

	l := logr.FromSlogHandler(logger.Handler())
	provider := ollama.NewProvider(&ollama.ProviderOpts{
		Logger:  &l,
		BaseURL: opts.BaseURL,
		Port:    opts.Port,
	})
	if err := provider.UseModel(ctx, &core.Model{ID: opts.Model}); err != nil {
		return &Ollama{err: fmt.Errorf("select model %s: %w", opts.Model, err)}
	}

	a, err := agent.NewAgent(
		bootstrap.WithProvider(provider),
		bootstrap.WithLogger(&l),
		bootstrap.WithSystemPrompt(classifierSystemPrompt),
	)
	if err != nil {
		return &Ollama{err: fmt.Errorf("create agent: %w", err)}
	}
	return &Ollama{agent: a}
}

func probeOllama(ctx context.Context, opts OllamaOptions) error {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	url := fmt.Sprintf("%s:%d/api/tags", opts.BaseURL, opts.Port)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %s", resp.Status)
	}
	return nil
}

func (o *Ollama) Ask(ctx context.Context, prompt, imagePath string) (string, error) {
	if o.err != nil {
		return "", o.err
	}

	response, err := o.agent.Run(
		ctx,
		agent.WithInput(prompt),
		agent.WithImagePath(imagePath),
	)
	if err != nil {
		return "", err
	}

	if len(response.Messages) == 0 {
		return "", fmt.Errorf("no response messages received from model")
	}

	// The last message is the model's reply
	return response.Messages[len(response.Messages)-1].Content, nil
}
