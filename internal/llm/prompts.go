package llm

import (
	"bytes"
	_ "embed"
	"fmt"
	"strings"
	"text/template"
)

var (
	//go:embed prompts/parse_resume.txt
	parseResumePrompt string
	//go:embed prompts/tailor_resume.txt
	tailorResumePrompt string
	//go:embed prompts/cover_letter.txt
	coverLetterPrompt string
)

// Prompt names accepted by RenderPrompt.
const (
	PromptParseResume  = "parse_resume"
	PromptTailorResume = "tailor_resume"
	PromptCoverLetter  = "cover_letter"
)

var prompts = map[string]*template.Template{
	PromptParseResume:  template.Must(template.New(PromptParseResume).Parse(parseResumePrompt)),
	PromptTailorResume: template.Must(template.New(PromptTailorResume).Parse(tailorResumePrompt)),
	PromptCoverLetter:  template.Must(template.New(PromptCoverLetter).Parse(coverLetterPrompt)),
}

// RenderPrompt fills the named prompt template with data.
func RenderPrompt(name string, data any) (string, error) {
	tpl, ok := prompts[name]
	if !ok {
		return "", fmt.Errorf("unknown prompt %q", name)
	}
	var buf bytes.Buffer
	if err := tpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("render prompt %s: %w", name, err)
	}
	return strings.TrimSpace(buf.String()), nil
}
