// Package llmtest provides a testify mock of the language-model collaborator.
package llmtest

import (
	"context"

	"maitred/internal/llm"
	"maitred/internal/models"

	"github.com/stretchr/testify/mock"
)

// MockProvider implements llm.Provider for tests
type MockProvider struct {
	mock.Mock
}

// Complete returns the configured string, or calls a configured
// func(ctx, system, prompt, history) string to compute it.
func (m *MockProvider) Complete(ctx context.Context, systemPrompt, userPrompt string, history []models.Message) (string, error) {
	args := m.Called(ctx, systemPrompt, userPrompt, history)
	if fn, ok := args.Get(0).(func(context.Context, string, string, []models.Message) string); ok {
		return fn(ctx, systemPrompt, userPrompt, history), args.Error(1)
	}
	return args.String(0), args.Error(1)
}

func (m *MockProvider) CompleteStructured(ctx context.Context, systemPrompt, prompt string, schema llm.Schema) (llm.Fields, error) {
	args := m.Called(ctx, systemPrompt, prompt, schema)
	fields, _ := args.Get(0).(llm.Fields)
	return fields, args.Error(1)
}
