package parser

import (
	"context"
	"regexp"
	"strings"

	"jobassist-backend/internal/record"
)

var (
	namePattern  = regexp.MustCompile(`^([A-Z][a-z]+(?:[-'][A-Za-z]+)*) ([A-Z][a-z]+(?:[-'][A-Za-z]+)*)`)
	emailPattern = regexp.MustCompile(`[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}`)
	phonePattern = regexp.MustCompile(`(?:\+?\d{1,3}[-. ]?)?\(?\d{3}\)?[-. ]?\d{3}[-. ]?\d{4}`)

	skillsHeadings     = []string{"skills", "technical skills", "key skills", "core skills"}
	experienceHeadings = []string{"experience", "work experience", "professional experience", "employment history"}
)

// HeuristicBuilder extracts a partial record with regular expressions. It
// never fails on missing fields.
type HeuristicBuilder struct{}

func (HeuristicBuilder) Build(ctx context.Context, text string) (*record.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return Heuristic(text), nil
}

// Heuristic is a pure function of text. The record always carries name,
// email, phone, skills and experience, in that order; unmatched fields are
// empty.
func Heuristic(text string) *record.Record {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	lines := strings.Split(text, "\n")

	rec := record.New()
	rec.Set("name", record.String(findName(lines)))
	rec.Set("email", record.String(emailPattern.FindString(text)))
	rec.Set("phone", record.String(strings.TrimSpace(phonePattern.FindString(text))))
	rec.Set("skills", record.Strings(sectionBlock(lines, skillsHeadings)...))
	rec.Set("experience", record.String(strings.Join(sectionBlock(lines, experienceHeadings), "\n")))
	return rec
}

func findName(lines []string) string {
	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if isHeading(trimmed, skillsHeadings) || isHeading(trimmed, experienceHeadings) {
			continue
		}
		if m := namePattern.FindString(trimmed); m != "" {
			return m
		}
	}
	return ""
}

// sectionBlock returns the non-blank lines after the first matching heading,
// up to the next blank line.
func sectionBlock(lines []string, headings []string) []string {
	for i, line := range lines {
		if !isHeading(line, headings) {
			continue
		}
		block := []string{}
		for _, next := range lines[i+1:] {
			next = strings.TrimSpace(next)
			if next == "" {
				break
			}
			block = append(block, next)
		}
		return block
	}
	return []string{}
}

func isHeading(line string, headings []string) bool {
	t := strings.TrimSuffix(strings.TrimSpace(line), ":")
	t = strings.TrimSpace(t)
	for _, h := range headings {
		if strings.EqualFold(t, h) {
			return true
		}
	}
	return false
}
