package oracle

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/specl/specl/internal/issues"
)

const translateSystemPrompt = `You are a professional technical translator specializing in product requirements documents.

Your task is to translate a Chinese PRD context JSON to English while:
1. Preserving the exact JSON structure
2. Maintaining technical accuracy
3. Using professional product management terminology
4. Keeping field names and schema unchanged
5. Only translating string values, not keys

Return ONLY the translated JSON, no explanations or markdown.`

const taskSystemPrompt = `You are a PRD authoring assistant. You receive a JSON task payload and respond with a single JSON object matching the requested shape. Return ONLY JSON, no explanations or markdown.`

// Config describes how the client reaches its provider.
type Config struct {
	Provider string
	Model    string
	BaseURL  string
	APIKey   string
	Mode     issues.AIMode
	Retry    RetryConfig
}

// Client calls the oracle through a registered provider.
type Client struct {
	cfg      Config
	provider Provider
	http     *http.Client
	logger   *slog.Logger
}

// Option customizes a Client.
type Option func(*Client)

// WithHTTPClient overrides the underlying HTTP client, mainly for tests.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithLogger sets the client logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) { c.logger = logger }
}

// NewClient validates the configuration and builds a client. Construction
// fails fast on missing credentials so that export pipelines do not
// discover a bad setup halfway through.
func NewClient(cfg Config, opts ...Option) (*Client, error) {
	if !cfg.Mode.Enabled() {
		return nil, newError(ErrMisconfigured, false, fmt.Errorf("ai mode %q is disabled", cfg.Mode))
	}
	provider := GetProvider(cfg.Provider)
	if provider == nil {
		return nil, newError(ErrMisconfigured, false,
			fmt.Errorf("unknown provider %q, registered: %v", cfg.Provider, ListProviders()))
	}
	if cfg.Model == "" {
		return nil, newError(ErrMisconfigured, false, fmt.Errorf("provider %s requires a model", cfg.Provider))
	}
	// Local runtimes accept unauthenticated requests; cloud providers do not.
	if cfg.APIKey == "" && cfg.Mode != issues.AILocal {
		return nil, newError(ErrMisconfigured, false, fmt.Errorf("provider %s requires an API key", cfg.Provider))
	}
	if cfg.Retry.MaxAttempts == 0 {
		cfg.Retry = DefaultRetryConfig()
	}

	c := &Client{
		cfg:      cfg,
		provider: provider,
		http:     &http.Client{Timeout: 120 * time.Second},
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// complete runs one prompt through the provider with retry.
func (c *Client) complete(ctx context.Context, systemPrompt, userPrompt string, temperature float64, maxTokens int) (*Completion, error) {
	var completion *Completion
	err := withRetry(ctx, c.cfg.Retry, c.logger, func() error {
		result, err := c.doRequest(ctx, systemPrompt, userPrompt, temperature, maxTokens)
		if err != nil {
			return err
		}
		completion = result
		return nil
	})
	if err != nil {
		return nil, err
	}
	return completion, nil
}

func (c *Client) doRequest(ctx context.Context, systemPrompt, userPrompt string, temperature float64, maxTokens int) (*Completion, error) {
	body, err := c.provider.BuildRequestBody(c.cfg.Model, systemPrompt, userPrompt, temperature, maxTokens)
	if err != nil {
		return nil, newError(ErrMisconfigured, false, fmt.Errorf("build request: %w", err))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.provider.BuildURL(c.cfg.BaseURL), bytes.NewReader(body))
	if err != nil {
		return nil, newError(ErrMisconfigured, false, err)
	}
	req.Header.Set("Content-Type", "application/json")
	c.provider.SetHeaders(req, c.cfg.APIKey)

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, classifyTransport(err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, classifyTransport(err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, classifyHTTP(resp.StatusCode, c.provider.Name())
	}

	completion, err := c.provider.ParseResponse(respBody)
	if err != nil {
		return nil, newError(ErrMalformedResponse, false, err)
	}

	c.logger.Debug("oracle completion",
		"provider", c.provider.Name(),
		"model", c.cfg.Model,
		"tokens_in", completion.TokensIn,
		"tokens_out", completion.TokensOut,
		"duration", time.Since(start))
	return completion, nil
}

// Translation is a translated export context plus token usage.
type Translation struct {
	Context   map[string]any
	TokensIn  int
	TokensOut int
}

// Translate renders a Chinese export context into English. The translated
// context keeps the source structure; meta.language and meta.source are
// forced to reflect the machine translation.
func (c *Client) Translate(ctx context.Context, zhContext map[string]any) (*Translation, error) {
	source, err := json.MarshalIndent(zhContext, "", "  ")
	if err != nil {
		return nil, newError(ErrMisconfigured, false, fmt.Errorf("encode source context: %w", err))
	}

	userPrompt := fmt.Sprintf("Translate this PRD context from Chinese to English:\n\n%s\n\nReturn the translated JSON with the same structure.", source)

	completion, err := c.complete(ctx, translateSystemPrompt, userPrompt, 0.3, 8192)
	if err != nil {
		return nil, err
	}

	var translated map[string]any
	if err := json.Unmarshal([]byte(ExtractJSON(completion.Content)), &translated); err != nil {
		return nil, newError(ErrMalformedResponse, false, fmt.Errorf("parse translated context: %w", err))
	}

	if meta, ok := translated["meta"].(map[string]any); ok {
		meta["language"] = "en"
		meta["source"] = "ai_assisted"
	}

	return &Translation{
		Context:   translated,
		TokensIn:  completion.TokensIn,
		TokensOut: completion.TokensOut,
	}, nil
}

// FieldPatchRequest asks the oracle to draft content for one field.
type FieldPatchRequest struct {
	TargetFieldPath string         `json:"targetFieldPath"`
	CurrentValue    any            `json:"currentValue"`
	DocumentSummary map[string]any `json:"documentSummary"`
	Constraints     map[string]any `json:"constraints"`
}

// PatchOp is one JSON-merge-style operation against a document field.
type PatchOp struct {
	Op    string `json:"op"`
	Path  string `json:"path"`
	Value any    `json:"value"`
}

// FieldPatchResult carries the proposed patch and optional preview.
type FieldPatchResult struct {
	Patch     []PatchOp      `json:"patch"`
	Preview   map[string]any `json:"preview,omitempty"`
	TokensIn  int            `json:"-"`
	TokensOut int            `json:"-"`
}

// FieldPatch asks the oracle to fill or repair a single document field.
func (c *Client) FieldPatch(ctx context.Context, req FieldPatchRequest) (*FieldPatchResult, error) {
	payload, err := json.Marshal(map[string]any{
		"task":            string(issues.TaskFieldPatch),
		"targetFieldPath": req.TargetFieldPath,
		"currentValue":    req.CurrentValue,
		"documentSummary": req.DocumentSummary,
		"constraints":     req.Constraints,
	})
	if err != nil {
		return nil, newError(ErrMisconfigured, false, fmt.Errorf("encode field patch request: %w", err))
	}

	completion, err := c.complete(ctx, taskSystemPrompt, string(payload), 0.2, 1200)
	if err != nil {
		return nil, err
	}

	var result FieldPatchResult
	if err := json.Unmarshal([]byte(ExtractJSON(completion.Content)), &result); err != nil {
		return nil, newError(ErrMalformedResponse, false, fmt.Errorf("parse field patch: %w", err))
	}
	if len(result.Patch) == 0 {
		return nil, newError(ErrMalformedResponse, false, fmt.Errorf("field patch response contains no operations"))
	}
	result.TokensIn = completion.TokensIn
	result.TokensOut = completion.TokensOut
	return &result, nil
}

// SuggestedFlowsRequest asks the oracle to draft flows for a requirement.
type SuggestedFlowsRequest struct {
	Requirement  map[string]any   `json:"requirement"`
	FlowSkeleton []map[string]any `json:"ruleFlowSkeleton"`
	Constraints  map[string]any   `json:"constraints"`
}

// FlowStep is one numbered step in a user flow.
type FlowStep struct {
	Step   int    `json:"step"`
	Action string `json:"action"`
	System string `json:"system"`
}

// SuggestedFlowsResult is a proposed flows block for one requirement.
type SuggestedFlowsResult struct {
	RequirementID string `json:"requirementId,omitempty"`
	Flows         struct {
		Main         []FlowStep `json:"main"`
		Alternatives []FlowStep `json:"alternatives,omitempty"`
	} `json:"flows"`
	TokensIn  int `json:"-"`
	TokensOut int `json:"-"`
}

// SuggestedFlows asks the oracle to propose main and alternative flows.
func (c *Client) SuggestedFlows(ctx context.Context, req SuggestedFlowsRequest) (*SuggestedFlowsResult, error) {
	skeleton := req.FlowSkeleton
	if skeleton == nil {
		skeleton = []map[string]any{}
	}
	constraints := req.Constraints
	if constraints == nil {
		constraints = map[string]any{}
	}
	payload, err := json.Marshal(map[string]any{
		"task":             string(issues.TaskSuggestedFlows),
		"requirement":      req.Requirement,
		"ruleFlowSkeleton": skeleton,
		"constraints":      constraints,
	})
	if err != nil {
		return nil, newError(ErrMisconfigured, false, fmt.Errorf("encode suggested flows request: %w", err))
	}

	completion, err := c.complete(ctx, taskSystemPrompt, string(payload), 0.2, 1200)
	if err != nil {
		return nil, err
	}

	var result SuggestedFlowsResult
	if err := json.Unmarshal([]byte(ExtractJSON(completion.Content)), &result); err != nil {
		return nil, newError(ErrMalformedResponse, false, fmt.Errorf("parse suggested flows: %w", err))
	}
	if len(result.Flows.Main) == 0 {
		return nil, newError(ErrMalformedResponse, false, fmt.Errorf("suggested flows response contains no main flow"))
	}
	result.TokensIn = completion.TokensIn
	result.TokensOut = completion.TokensOut
	return &result, nil
}
