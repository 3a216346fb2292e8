// Package ollama provides a model.Backend backed by a local Ollama
// server, for running chains against locally hosted models.
package ollama

import (
	"context"
	"net/http"
	"net/url"
	"strings"

	"github.com/hupe1980/agentchain/model"
	"github.com/ollama/ollama/api"
)

// Options configures the Ollama backend.
type Options struct {
	// BaseURL of the Ollama server, default http://localhost:11434.
	BaseURL string
	// Model name, default llama3.1:latest.
	Model string
}

// Backend wraps the Ollama chat API behind model.Backend.
type Backend struct {
	client *api.Client
	opts   Options
}

// New creates an Ollama backend. It fails only on an unparsable base URL;
// server availability surfaces per-call as a BackendError.
func New(optFns ...func(o *Options)) (*Backend, error) {
	opts := Options{
		BaseURL: "http://localhost:11434",
		Model:   "llama3.1:latest",
	}
	for _, fn := range optFns {
		fn(&opts)
	}

	parsed, err := url.Parse(opts.BaseURL)
	if err != nil {
		return nil, &model.BackendError{Provider: "ollama", Err: err}
	}

	return &Backend{
		client: api.NewClient(parsed, http.DefaultClient),
		opts:   opts,
	}, nil
}

// Generate implements model.Backend. The chat stream is accumulated into
// a single completion string.
func (b *Backend) Generate(ctx context.Context, prompt string) (string, error) {
	req := &api.ChatRequest{
		Model: b.opts.Model,
		Messages: []api.Message{
			{Role: "user", Content: prompt},
		},
	}

	var sb strings.Builder
	err := b.client.Chat(ctx, req, func(resp api.ChatResponse) error {
		sb.WriteString(resp.Message.Content)
		return nil
	})
	if err != nil {
		return "", &model.BackendError{Provider: "ollama", Err: err}
	}
	return sb.String(), nil
}

// Info implements model.Backend.
func (b *Backend) Info() model.Info {
	return model.Info{Name: b.opts.Model, Provider: "ollama"}
}
