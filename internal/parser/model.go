package parser

import (
	"context"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"jobassist-backend/internal/llm"
	"jobassist-backend/internal/record"
	"jobassist-backend/internal/shared/apperr"
)

const (
	modelSystemPrompt = "You are a helpful assistant that structures resume information into YAML format."
	modelMaxTokens    = 1500
)

// ModelBuilder asks a language model to fill the template and validates the
// answer against the template's schema.
type ModelBuilder struct {
	LLM      llm.Client
	Template *record.Template
}

func NewModelBuilder(client llm.Client, tpl *record.Template) *ModelBuilder {
	return &ModelBuilder{LLM: client, Template: tpl}
}

// Build sends one prompt at temperature zero. Transport failures surface as
// apperr.ErrModelCallFailure; payloads that do not decode into the template
// shape surface as *SchemaViolationError with the raw answer attached.
func (b *ModelBuilder) Build(ctx context.Context, text string) (*record.Record, error) {
	if b == nil || b.LLM == nil || b.Template == nil {
		return nil, fmt.Errorf("%w: model builder not configured", apperr.ErrConfiguration)
	}
	if strings.TrimSpace(text) == "" {
		return nil, apperr.ErrEmptyDocument
	}

	prompt, err := llm.RenderPrompt(llm.PromptParseResume, map[string]string{
		"ResumeText": text,
		"Template":   b.Template.Text,
	})
	if err != nil {
		return nil, err
	}

	raw, err := b.LLM.Complete(ctx, llm.Request{
		System:      modelSystemPrompt,
		Prompt:      prompt,
		Temperature: 0,
		MaxTokens:   modelMaxTokens,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", apperr.ErrModelCallFailure, err)
	}
	return b.Decode(raw)
}

// Decode strips any code fence from a model answer, parses the YAML inside
// and coerces it onto the template.
func (b *ModelBuilder) Decode(raw string) (*record.Record, error) {
	body, err := StripCodeFence(raw)
	if err != nil {
		return nil, violation(raw, "strip code fence", err)
	}
	if body == "" {
		return nil, violation(raw, "empty payload", nil)
	}

	var payload any
	if err := yaml.Unmarshal([]byte(body), &payload); err != nil {
		return nil, violation(raw, "parse yaml", err)
	}
	rec, err := b.Template.Schema.Coerce(payload)
	if err != nil {
		return nil, violation(raw, "validate shape", err)
	}
	return rec, nil
}
