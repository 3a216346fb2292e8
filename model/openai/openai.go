// Package openai provides a model.Backend backed by the OpenAI Chat
// Completions API.
package openai

import (
	"context"
	"fmt"

	"github.com/hupe1980/agentchain/model"
	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

// Options configure the OpenAI backend. Fields mirror a subset of Chat
// Completion parameters intentionally kept minimal; extend via
// functional options without breaking callers.
type Options struct {
	Model               string
	Temperature         float64
	MaxCompletionTokens int64
	// APIKey falls back to OPENAI_API_KEY when empty.
	APIKey string
}

// Backend wraps the OpenAI Chat Completions API behind model.Backend.
type Backend struct {
	client *openai.Client
	opts   Options
}

// New creates an OpenAI backend using the official client.
func New(optFns ...func(o *Options)) *Backend {
	opts := Options{}
	for _, fn := range optFns {
		fn(&opts)
	}

	var clientOpts []option.RequestOption
	if opts.APIKey != "" {
		clientOpts = append(clientOpts, option.WithAPIKey(opts.APIKey))
	}

	client := openai.NewClient(clientOpts...)
	return NewFromClient(&client, optFns...)
}

// NewFromClient creates an OpenAI backend from an existing client.
func NewFromClient(client *openai.Client, optFns ...func(o *Options)) *Backend {
	opts := Options{
		Model:               openai.ChatModelGPT4oMini,
		Temperature:         0.7,
		MaxCompletionTokens: 4096,
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Backend{client: client, opts: opts}
}

// Generate implements model.Backend with a single non-streaming chat
// completion.
func (b *Backend) Generate(ctx context.Context, prompt string) (string, error) {
	params := openai.ChatCompletionNewParams{
		Model:               b.opts.Model,
		Temperature:         openai.Float(b.opts.Temperature),
		MaxCompletionTokens: openai.Int(b.opts.MaxCompletionTokens),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.UserMessage(prompt),
		},
	}

	resp, err := b.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return "", &model.BackendError{Provider: "openai", Err: err}
	}
	if len(resp.Choices) == 0 {
		return "", &model.BackendError{Provider: "openai", Err: fmt.Errorf("no choices returned")}
	}
	return resp.Choices[0].Message.Content, nil
}

// Info implements model.Backend.
func (b *Backend) Info() model.Info {
	return model.Info{Name: b.opts.Model, Provider: "openai"}
}
