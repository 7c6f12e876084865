package llm

import (
	"context"
	"fmt"
	"strings"

	"maitred/internal/models"

	"github.com/tmc/langchaingo/llms"
	lcschema "github.com/tmc/langchaingo/schema"
)

// LangChainProvider implements Provider on top of any langchaingo model.
type LangChainProvider struct {
	model       llms.Model
	temperature float64
	maxTokens   int
}

// NewLangChainProvider wraps model with sampling defaults.
func NewLangChainProvider(model llms.Model, temperature float64, maxTokens int) *LangChainProvider {
	return &LangChainProvider{model: model, temperature: temperature, maxTokens: maxTokens}
}

// Complete generates a chat completion from a system prompt, prior turns and the user prompt
func (p *LangChainProvider) Complete(ctx context.Context, systemPrompt, userPrompt string, history []models.Message) (string, error) {
	messages := make([]llms.MessageContent, 0, len(history)+2)
	if systemPrompt != "" {
		messages = append(messages, llms.TextParts(lcschema.ChatMessageTypeSystem, systemPrompt))
	}
	for _, msg := range history {
		messages = append(messages, llms.TextParts(chatMessageType(msg.Role), msg.Content))
	}
	messages = append(messages, llms.TextParts(lcschema.ChatMessageTypeHuman, userPrompt))

	return p.generate(ctx, messages, p.callOptions()...)
}

// CompleteStructured asks for a JSON object and validates it against schema
func (p *LangChainProvider) CompleteStructured(ctx context.Context, systemPrompt, prompt string, schema Schema) (Fields, error) {
	messages := []llms.MessageContent{
		llms.TextParts(lcschema.ChatMessageTypeSystem, systemPrompt),
		llms.TextParts(lcschema.ChatMessageTypeHuman, prompt+"\n\n"+schema.Instructions()),
	}

	opts := append(p.callOptions(), llms.WithJSONMode())
	text, err := p.generate(ctx, messages, opts...)
	if err != nil {
		return Fields{}, err
	}
	return ParseFields(text, schema)
}

func (p *LangChainProvider) callOptions() []llms.CallOption {
	opts := []llms.CallOption{llms.WithTemperature(p.temperature)}
	if p.maxTokens > 0 {
		opts = append(opts, llms.WithMaxTokens(p.maxTokens))
	}
	return opts
}

func (p *LangChainProvider) generate(ctx context.Context, messages []llms.MessageContent, opts ...llms.CallOption) (string, error) {
	response, err := p.model.GenerateContent(ctx, messages, opts...)
	if err != nil {
		return "", fmt.Errorf("failed to generate content: %w", err)
	}
	if response == nil || len(response.Choices) == 0 {
		return "", fmt.Errorf("%w: empty response from model", models.ErrMalformedOutput)
	}

	text := strings.TrimSpace(response.Choices[0].Content)
	if text == "" {
		return "", fmt.Errorf("%w: blank completion", models.ErrMalformedOutput)
	}
	return text, nil
}

func chatMessageType(role models.Role) lcschema.ChatMessageType {
	switch role {
	case models.RoleAssistant:
		return lcschema.ChatMessageTypeAI
	case "system":
		return lcschema.ChatMessageTypeSystem
	default:
		return lcschema.ChatMessageTypeHuman
	}
}
