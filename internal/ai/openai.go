package ai

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"
	"github.com/sashabaranov/go-openai/jsonschema"

	"github.com/opsintel/backend/internal/models"
)

const (
	defaultModel     = "gpt-4o-mini"
	defaultMaxTokens = 8192

	analysisFallbackMessage  = "Analysis failed."
	synthesisFallbackMessage = "Global Synthesis failed."
)

type OpenAIConfig struct {
	APIKey    string
	BaseURL   string
	Model     string
	MaxTokens int
	Timeout   time.Duration
}

// OpenAIAnalyzer talks to any OpenAI-compatible chat completion endpoint and
// pins the reply to a JSON schema.
type OpenAIAnalyzer struct {
	client    *openai.Client
	model     string
	maxTokens int
}

func NewOpenAIAnalyzer(cfg OpenAIConfig) *OpenAIAnalyzer {
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if strings.TrimSpace(cfg.BaseURL) != "" {
		clientCfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	}
	if cfg.Timeout > 0 {
		clientCfg.HTTPClient = &http.Client{Timeout: cfg.Timeout}
	}
	model := cfg.Model
	if model == "" {
		model = defaultModel
	}
	maxTokens := cfg.MaxTokens
	if maxTokens <= 0 {
		maxTokens = defaultMaxTokens
	}
	return &OpenAIAnalyzer{
		client:    openai.NewClientWithConfig(clientCfg),
		model:     model,
		maxTokens: maxTokens,
	}
}

func (a *OpenAIAnalyzer) Analyze(ctx context.Context, content string) (models.AnalysisResult, error) {
	if strings.TrimSpace(content) == "" {
		return models.AnalysisResult{}, ErrEmptyContent
	}
	raw, err := a.complete(ctx, "analyze", "workflow_analysis", &AnalysisSchema,
		analysisSystemPrompt, analysisUserPrompt(content), analysisFallbackMessage)
	if err != nil {
		return models.AnalysisResult{}, err
	}
	return ParseAnalysis(raw)
}

func (a *OpenAIAnalyzer) Synthesize(ctx context.Context, periods []Period) (models.GlobalSynthesisResult, error) {
	if len(periods) < 2 {
		return models.GlobalSynthesisResult{}, ErrTooFewPeriods
	}
	raw, err := a.complete(ctx, "synthesize", "global_synthesis", &SynthesisSchema,
		synthesisSystemPrompt, synthesisUserPrompt(periods), synthesisFallbackMessage)
	if err != nil {
		return models.GlobalSynthesisResult{}, err
	}
	return ParseSynthesis(raw)
}

func (a *OpenAIAnalyzer) complete(ctx context.Context, op, name string, schema *jsonschema.Definition, system, user, fallback string) (string, error) {
	req := openai.ChatCompletionRequest{
		Model: a.model,
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONSchema,
			JSONSchema: &openai.ChatCompletionResponseFormatJSONSchema{
				Name:   name,
				Schema: schema,
				Strict: true,
			},
		},
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: system},
			{Role: openai.ChatMessageRoleUser, Content: user},
		},
	}
	// reasoning models reject max_tokens
	if isReasoningModel(a.model) {
		req.MaxCompletionTokens = a.maxTokens
	} else {
		req.MaxTokens = a.maxTokens
	}

	resp, err := a.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", serviceError(op, err, fallback)
	}
	if len(resp.Choices) == 0 {
		return "", &ServiceError{Op: op, Message: fallback, Err: ErrInvalidResponse}
	}
	return resp.Choices[0].Message.Content, nil
}

func serviceError(op string, err error, fallback string) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		msg := strings.TrimSpace(apiErr.Message)
		if msg == "" {
			msg = fallback
		}
		if apiErr.HTTPStatusCode == http.StatusTooManyRequests {
			return &ServiceError{Op: op, Message: msg, Err: ErrQuotaExceeded}
		}
		return &ServiceError{Op: op, Message: msg, Err: err}
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) && reqErr.HTTPStatusCode == http.StatusTooManyRequests {
		return &ServiceError{Op: op, Message: fallback, Err: ErrQuotaExceeded}
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return &ServiceError{Op: op, Message: "ai request timed out", Err: err}
	}
	return &ServiceError{Op: op, Message: fallback, Err: err}
}

func isReasoningModel(model string) bool {
	for _, p := range []string{"o1", "o3", "o4", "gpt-5"} {
		if strings.HasPrefix(model, p) {
			return true
		}
	}
	return false
}
