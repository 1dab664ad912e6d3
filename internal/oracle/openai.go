package oracle

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
)

// OpenAIProvider implements the OpenAI chat completions API.
type OpenAIProvider struct{}

// OllamaProvider implements the OpenAI-compatible API served by Ollama and
// similar local runtimes. It backs the "local" AI mode.
type OllamaProvider struct{}

func init() {
	RegisterProvider(&OpenAIProvider{})
	RegisterProvider(&OllamaProvider{})
}

type openAIRequest struct {
	Model       string          `json:"model"`
	Messages    []openAIMessage `json:"messages"`
	Temperature float64         `json:"temperature,omitempty"`
	MaxTokens   *int            `json:"max_tokens,omitempty"`
}

type openAIMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type openAIResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
	Usage struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
	} `json:"usage"`
}

func buildOpenAIBody(model, systemPrompt, userPrompt string, temperature float64, maxTokens int) ([]byte, error) {
	req := openAIRequest{
		Model: model,
		Messages: []openAIMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: userPrompt},
		},
		Temperature: temperature,
	}
	if maxTokens > 0 {
		req.MaxTokens = &maxTokens
	}
	return json.Marshal(req)
}

func parseOpenAIBody(body []byte, provider string) (*Completion, error) {
	var resp openAIResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("decode %s response: %w", provider, err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("%s response contains no choices", provider)
	}
	return &Completion{
		Content:   resp.Choices[0].Message.Content,
		TokensIn:  resp.Usage.PromptTokens,
		TokensOut: resp.Usage.CompletionTokens,
	}, nil
}

func (o *OpenAIProvider) Name() string {
	return "openai"
}

func (o *OpenAIProvider) BuildURL(baseURL string) string {
	if baseURL == "" {
		baseURL = "https://api.openai.com/v1"
	}
	return strings.TrimSuffix(baseURL, "/") + "/chat/completions"
}

func (o *OpenAIProvider) SetHeaders(req *http.Request, apiKey string) {
	if apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+apiKey)
	}
}

func (o *OpenAIProvider) BuildRequestBody(model, systemPrompt, userPrompt string, temperature float64, maxTokens int) ([]byte, error) {
	return buildOpenAIBody(model, systemPrompt, userPrompt, temperature, maxTokens)
}

func (o *OpenAIProvider) ParseResponse(body []byte) (*Completion, error) {
	return parseOpenAIBody(body, o.Name())
}

func (o *OllamaProvider) Name() string {
	return "ollama"
}

func (o *OllamaProvider) BuildURL(baseURL string) string {
	if baseURL == "" {
		baseURL = "http://localhost:11434/v1"
	}
	baseURL = strings.TrimSuffix(baseURL, "/")
	if strings.HasSuffix(baseURL, "/chat/completions") {
		return baseURL
	}
	return baseURL + "/chat/completions"
}

func (o *OllamaProvider) SetHeaders(req *http.Request, apiKey string) {
	if apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+apiKey)
	}
}

func (o *OllamaProvider) BuildRequestBody(model, systemPrompt, userPrompt string, temperature float64, maxTokens int) ([]byte, error) {
	return buildOpenAIBody(model, systemPrompt, userPrompt, temperature, maxTokens)
}

func (o *OllamaProvider) ParseResponse(body []byte) (*Completion, error) {
	return parseOpenAIBody(body, o.Name())
}
