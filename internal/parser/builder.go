// Package parser turns extracted résumé text into a structured record,
// either through a language model or through pattern matching.
package parser

import (
	"context"

	"jobassist-backend/internal/record"
)

// Builder fills a structured record from plain résumé text.
type Builder interface {
	Build(ctx context.Context, text string) (*record.Record, error)
}

// Mode names the strategy a Builder uses.
type Mode string

const (
	ModeModel     Mode = "model"
	ModeHeuristic Mode = "heuristic"
)
