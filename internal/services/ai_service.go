package services

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/generative-ai-go/genai"
	"github.com/sashabaranov/go-openai"
	"google.golang.org/api/option"

	apperrors "github.com/vladimiradmaev/macro-diary/internal/errors"
	"github.com/vladimiradmaev/macro-diary/internal/logger"
)

// ErrMissingCredentials is returned by every call of an unconfigured collaborator
var ErrMissingCredentials = errors.New("missing AI credentials")

// ErrEmptyResponse is returned when the collaborator answers with no text
var ErrEmptyResponse = errors.New("empty response from AI service")

// providerError classifies a failed provider call
func providerError(api string, err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return apperrors.NewTimeoutError(err, api)
	}
	return apperrors.NewExternalAPIError(err, api)
}

// Prompt is one request to the AI collaborator
type Prompt struct {
	Text  string
	Image []byte
	// Schema constrains structured responses where the provider supports it
	Schema *genai.Schema
}

// Generator is the narrow boundary to the external language model
type Generator interface {
	// GenerateJSON returns the raw JSON document answering p
	GenerateJSON(ctx context.Context, p Prompt) (string, error)
	// GenerateText returns a free-text answer
	GenerateText(ctx context.Context, p Prompt) (string, error)
	Name() string
}

// NewGenerator wires the configured providers. Gemini is primary and OpenAI the
// fallback; without any key the returned generator fails every call.
func NewGenerator(ctx context.Context, geminiAPIKey, geminiModel, openaiAPIKey, openaiModel string) (Generator, error) {
	var providers []Generator
	if geminiAPIKey != "" {
		g, err := NewGeminiGenerator(ctx, geminiAPIKey, geminiModel)
		if err != nil {
			return nil, err
		}
		providers = append(providers, g)
	}
	if openaiAPIKey != "" {
		providers = append(providers, NewOpenAIGenerator(openaiAPIKey, openaiModel))
	}

	switch len(providers) {
	case 0:
		logger.Warn("No AI credentials configured, AI features will fail")
		return UnavailableGenerator{}, nil
	case 1:
		return providers[0], nil
	default:
		return &FallbackGenerator{Primary: providers[0], Secondary: providers[1]}, nil
	}
}

// GeminiGenerator talks to Google Gemini
type GeminiGenerator struct {
	client *genai.Client
	model  string
}

func NewGeminiGenerator(ctx context.Context, apiKey, model string) (*GeminiGenerator, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}
	return &GeminiGenerator{client: client, model: model}, nil
}

func (g *GeminiGenerator) Name() string { return "gemini" }

// Close releases the underlying client
func (g *GeminiGenerator) Close() error {
	return g.client.Close()
}

func (g *GeminiGenerator) GenerateJSON(ctx context.Context, p Prompt) (string, error) {
	model := g.client.GenerativeModel(g.model)
	model.SetTemperature(0.2)
	model.ResponseMIMEType = "application/json"
	if p.Schema != nil {
		model.ResponseSchema = p.Schema
	}
	return g.generate(ctx, model, p)
}

func (g *GeminiGenerator) GenerateText(ctx context.Context, p Prompt) (string, error) {
	model := g.client.GenerativeModel(g.model)
	model.SetTemperature(0.7)
	return g.generate(ctx, model, p)
}

func (g *GeminiGenerator) generate(ctx context.Context, model *genai.GenerativeModel, p Prompt) (string, error) {
	parts := []genai.Part{}
	if len(p.Image) > 0 {
		parts = append(parts, genai.Blob{MIMEType: mimetype.Detect(p.Image).String(), Data: p.Image})
	}
	parts = append(parts, genai.Text(p.Text))

	resp, err := model.GenerateContent(ctx, parts...)
	if err != nil {
		return "", providerError(g.Name(), err)
	}

	var sb strings.Builder
	for _, cand := range resp.Candidates {
		if cand.Content == nil {
			continue
		}
		for _, part := range cand.Content.Parts {
			if text, ok := part.(genai.Text); ok {
				sb.WriteString(string(text))
			}
		}
		break
	}
	if strings.TrimSpace(sb.String()) == "" {
		return "", ErrEmptyResponse
	}
	return sb.String(), nil
}

// OpenAIGenerator talks to the OpenAI chat completion API
type OpenAIGenerator struct {
	client *openai.Client
	model  string
}

func NewOpenAIGenerator(apiKey, model string) *OpenAIGenerator {
	return &OpenAIGenerator{client: openai.NewClient(apiKey), model: model}
}

func (g *OpenAIGenerator) Name() string { return "openai" }

func (g *OpenAIGenerator) GenerateJSON(ctx context.Context, p Prompt) (string, error) {
	req := g.request(p)
	req.Temperature = 0.2
	req.ResponseFormat = &openai.ChatCompletionResponseFormat{
		Type: openai.ChatCompletionResponseFormatTypeJSONObject,
	}
	return g.complete(ctx, req)
}

func (g *OpenAIGenerator) GenerateText(ctx context.Context, p Prompt) (string, error) {
	req := g.request(p)
	req.Temperature = 0.7
	return g.complete(ctx, req)
}

func (g *OpenAIGenerator) request(p Prompt) openai.ChatCompletionRequest {
	msg := openai.ChatCompletionMessage{Role: openai.ChatMessageRoleUser}
	if len(p.Image) > 0 {
		dataURL := fmt.Sprintf("data:%s;base64,%s",
			mimetype.Detect(p.Image).String(), base64.StdEncoding.EncodeToString(p.Image))
		msg.MultiContent = []openai.ChatMessagePart{
			{
				Type: openai.ChatMessagePartTypeText,
				Text: p.Text,
			},
			{
				Type: openai.ChatMessagePartTypeImageURL,
				ImageURL: &openai.ChatMessageImageURL{
					URL:    dataURL,
					Detail: openai.ImageURLDetailAuto,
				},
			},
		}
	} else {
		msg.Content = p.Text
	}
	return openai.ChatCompletionRequest{
		Model:    g.model,
		Messages: []openai.ChatCompletionMessage{msg},
	}
}

func (g *OpenAIGenerator) complete(ctx context.Context, req openai.ChatCompletionRequest) (string, error) {
	resp, err := g.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", providerError(g.Name(), err)
	}
	if len(resp.Choices) == 0 || strings.TrimSpace(resp.Choices[0].Message.Content) == "" {
		return "", ErrEmptyResponse
	}
	return resp.Choices[0].Message.Content, nil
}

// FallbackGenerator retries a failed call once on the secondary provider
type FallbackGenerator struct {
	Primary   Generator
	Secondary Generator
}

func (g *FallbackGenerator) Name() string {
	return g.Primary.Name() + "+" + g.Secondary.Name()
}

func (g *FallbackGenerator) GenerateJSON(ctx context.Context, p Prompt) (string, error) {
	out, err := g.Primary.GenerateJSON(ctx, p)
	if err == nil {
		return out, nil
	}
	logger.Warn("Primary AI provider failed, trying fallback",
		"primary", g.Primary.Name(), "fallback", g.Secondary.Name(), "error", err)
	return g.Secondary.GenerateJSON(ctx, p)
}

func (g *FallbackGenerator) GenerateText(ctx context.Context, p Prompt) (string, error) {
	out, err := g.Primary.GenerateText(ctx, p)
	if err == nil {
		return out, nil
	}
	logger.Warn("Primary AI provider failed, trying fallback",
		"primary", g.Primary.Name(), "fallback", g.Secondary.Name(), "error", err)
	return g.Secondary.GenerateText(ctx, p)
}

// UnavailableGenerator stands in when no credentials are configured
type UnavailableGenerator struct{}

func (UnavailableGenerator) Name() string { return "unavailable" }

func (UnavailableGenerator) GenerateJSON(context.Context, Prompt) (string, error) {
	return "", ErrMissingCredentials
}

func (UnavailableGenerator) GenerateText(context.Context, Prompt) (string, error) {
	return "", ErrMissingCredentials
}

// extractJSON attempts to extract a valid JSON object from the given string.
// It handles cases where the JSON is wrapped in code blocks (```json ... ```) or other text.
func extractJSON(s string) string {
	start := strings.Index(s, "{")
	if start == -1 {
		return ""
	}
	end := strings.LastIndex(s, "}")
	if end == -1 || end <= start {
		return ""
	}
	return s[start : end+1]
}
