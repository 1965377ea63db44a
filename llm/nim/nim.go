package nim

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	openai "github.com/sashabaranov/go-openai"
	"github.com/tmc/langchaingo/llms"

	"github.com/smallnest/ragroute"
)

var ErrEmptyResponse = errors.New("no response")

// LLM is a client for NVIDIA NIM chat and embedding models.
type LLM struct {
	client     *openai.Client
	chatModel  string
	embedModel string
}

var (
	_ llms.Model        = (*LLM)(nil)
	_ ragroute.Embedder = (*LLM)(nil)
)

// New returns a new NIM client.
//
// Authentication options:
// 1. WithAPIKey(apiKey) - pass API key directly
// 2. Set NVIDIA_API_KEY environment variable
//
// Example:
//
//	llm, err := nim.New(
//		nim.WithAPIKey("your-api-key"),
//		nim.WithChatModel("meta/llama-3.1-70b-instruct"),
//	)
func New(opts ...Option) (*LLM, error) {
	options := &options{
		apiKey:     getEnvOrDefault("NVIDIA_API_KEY", ""),
		baseURL:    defaultBaseURL,
		chatModel:  defaultChatModel,
		embedModel: defaultEmbedModel,
	}
	for _, opt := range opts {
		opt(options)
	}

	if options.apiKey == "" {
		return nil, fmt.Errorf(`missing API key
You can pass auth info by using nim.New(nim.WithAPIKey("{API Key}"))
or
export NVIDIA_API_KEY={API Key}`)
	}

	config := openai.DefaultConfig(options.apiKey)
	config.BaseURL = options.baseURL
	if options.httpClient != nil {
		config.HTTPClient = options.httpClient
	}

	return &LLM{
		client:     openai.NewClientWithConfig(config),
		chatModel:  options.chatModel,
		embedModel: options.embedModel,
	}, nil
}

// Call generates a response from the LLM for the given prompt.
func (o *LLM) Call(ctx context.Context, prompt string, options ...llms.CallOption) (string, error) {
	return llms.GenerateFromSinglePrompt(ctx, o, prompt, options...)
}

// GenerateContent implements the Model interface.
func (o *LLM) GenerateContent(ctx context.Context, messages []llms.MessageContent, options ...llms.CallOption) (*llms.ContentResponse, error) {
	opts := &llms.CallOptions{}
	for _, opt := range options {
		opt(opts)
	}

	req := openai.ChatCompletionRequest{
		Model:       o.getModelString(*opts),
		Messages:    toOpenAIMessages(messages),
		Temperature: float32(opts.Temperature),
		MaxTokens:   opts.MaxTokens,
	}

	if opts.StreamingFunc != nil {
		return o.generateStreaming(ctx, req, opts.StreamingFunc)
	}

	resp, err := o.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("chat completion failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, ErrEmptyResponse
	}

	return &llms.ContentResponse{
		Choices: []*llms.ContentChoice{
			{
				Content:    resp.Choices[0].Message.Content,
				StopReason: string(resp.Choices[0].FinishReason),
				GenerationInfo: map[string]any{
					"prompt_tokens":     resp.Usage.PromptTokens,
					"completion_tokens": resp.Usage.CompletionTokens,
					"total_tokens":      resp.Usage.TotalTokens,
				},
			},
		},
	}, nil
}

func (o *LLM) generateStreaming(ctx context.Context, req openai.ChatCompletionRequest, streamingFunc func(ctx context.Context, chunk []byte) error) (*llms.ContentResponse, error) {
	req.Stream = true
	stream, err := o.client.CreateChatCompletionStream(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("chat completion stream failed: %w", err)
	}
	defer stream.Close()

	var full strings.Builder
	var stopReason string
	for {
		response, err := stream.Recv()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("stream receive failed: %w", err)
		}
		if len(response.Choices) == 0 {
			continue
		}

		choice := response.Choices[0]
		if choice.FinishReason != "" {
			stopReason = string(choice.FinishReason)
		}
		if choice.Delta.Content == "" {
			continue
		}
		full.WriteString(choice.Delta.Content)
		if err := streamingFunc(ctx, []byte(choice.Delta.Content)); err != nil {
			return nil, err
		}
	}

	return &llms.ContentResponse{
		Choices: []*llms.ContentChoice{
			{Content: full.String(), StopReason: stopReason},
		},
	}, nil
}

// EmbedDocument embeds a single text.
func (o *LLM) EmbedDocument(ctx context.Context, text string) ([]float32, error) {
	embeddings, err := o.EmbedDocuments(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return embeddings[0], nil
}

// EmbedDocuments embeds a batch of texts, preserving order.
func (o *LLM) EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return [][]float32{}, nil
	}

	resp, err := o.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Input: texts,
		Model: openai.EmbeddingModel(o.embedModel),
	})
	if err != nil {
		return nil, fmt.Errorf("embedding request failed: %w", err)
	}
	if len(resp.Data) != len(texts) {
		return nil, fmt.Errorf("expected %d embeddings, got %d", len(texts), len(resp.Data))
	}

	embeddings := make([][]float32, len(resp.Data))
	for _, item := range resp.Data {
		embeddings[item.Index] = item.Embedding
	}
	return embeddings, nil
}

func (o *LLM) getModelString(opts llms.CallOptions) string {
	if opts.Model != "" {
		return opts.Model
	}
	return o.chatModel
}

// toOpenAIMessages converts langchaingo messages to the OpenAI wire format.
func toOpenAIMessages(messages []llms.MessageContent) []openai.ChatCompletionMessage {
	out := make([]openai.ChatCompletionMessage, 0, len(messages))
	for _, msg := range messages {
		var role string
		switch msg.Role {
		case llms.ChatMessageTypeSystem:
			role = openai.ChatMessageRoleSystem
		case llms.ChatMessageTypeAI:
			role = openai.ChatMessageRoleAssistant
		default:
			role = openai.ChatMessageRoleUser
		}

		var content strings.Builder
		for _, part := range msg.Parts {
			if text, ok := part.(llms.TextContent); ok {
				content.WriteString(text.Text)
			}
		}

		out = append(out, openai.ChatCompletionMessage{
			Role:    role,
			Content: content.String(),
		})
	}
	return out
}
