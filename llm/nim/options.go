package nim

import (
	"net/http"
	"os"
)

const (
	defaultBaseURL    = "https://integrate.api.nvidia.com/v1"
	defaultChatModel  = "mistralai/mistral-large-2-instruct"
	defaultEmbedModel = "nvidia/nv-embedqa-e5-v5"
)

type options struct {
	apiKey     string
	baseURL    string
	chatModel  string
	embedModel string
	httpClient *http.Client
}

// Option is a function that configures an LLM.
type Option func(*options)

// WithAPIKey sets the API key. Defaults to the NVIDIA_API_KEY environment
// variable.
func WithAPIKey(apiKey string) Option {
	return func(opts *options) {
		opts.apiKey = apiKey
	}
}

// WithBaseURL sets the API base URL. Default is the NVIDIA cloud endpoint;
// point it at a self-hosted NIM container to run locally.
func WithBaseURL(baseURL string) Option {
	return func(opts *options) {
		opts.baseURL = baseURL
	}
}

// WithChatModel sets the chat completion model.
func WithChatModel(model string) Option {
	return func(opts *options) {
		opts.chatModel = model
	}
}

// WithEmbedModel sets the embedding model.
func WithEmbedModel(model string) Option {
	return func(opts *options) {
		opts.embedModel = model
	}
}

// WithHTTPClient sets the HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(opts *options) {
		opts.httpClient = client
	}
}

// getEnvOrDefault retrieves an environment variable or returns the default value.
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
