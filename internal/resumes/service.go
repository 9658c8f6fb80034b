package resumes

import (
	"context"
	"fmt"
	"strings"
	"time"

	"jobassist-backend/internal/extract"
	"jobassist-backend/internal/parser"
	"jobassist-backend/internal/record"
	"jobassist-backend/internal/shared/apperr"
	"jobassist-backend/internal/shared/metrics"
	"jobassist-backend/internal/shared/telemetry"
)

// Service wires the extractor, a record builder and the record store into
// one synchronous pipeline.
type Service struct {
	Builder parser.Builder
	Mode    parser.Mode
	Records *RecordStore
	// Extract defaults to extract.Extract.
	Extract func(ctx context.Context, up extract.Upload) (string, error)
}

// ParseResult is the outcome of one pipeline run.
type ParseResult struct {
	Record *record.Record
	Saved  bool
	Mode   parser.Mode
}

func NewService(builder parser.Builder, mode parser.Mode, records *RecordStore) *Service {
	return &Service{Builder: builder, Mode: mode, Records: records, Extract: extract.Extract}
}

// Parse extracts text from the upload, builds a record and, when save is
// set, persists it for userID. Each stage either succeeds or stops the
// pipeline with its error.
func (s *Service) Parse(ctx context.Context, userID string, up extract.Upload, save bool) (ParseResult, error) {
	start := time.Now()
	metrics.IncParseStarted()
	fields := map[string]any{
		"user_id":    userID,
		"file_name":  up.FileName,
		"media_type": up.MediaType,
		"size_bytes": len(up.Data),
		"mode":       string(s.Mode),
		"save":       save,
	}
	telemetry.Info("parse.started", fields)

	result, stage, err := s.run(ctx, userID, up, save)
	duration := float64(time.Since(start).Microseconds()) / 1000.0
	metrics.ObserveParseDurationMs(duration)
	fields["duration_ms"] = duration
	if err != nil {
		metrics.IncParseFailed()
		fields["stage"] = stage
		fields["error"] = err.Error()
		telemetry.Warn("parse.failed", fields)
		return ParseResult{}, err
	}
	metrics.IncParseCompleted()
	fields["fields"] = result.Record.Len()
	telemetry.Info("parse.completed", fields)
	return result, nil
}

func (s *Service) run(ctx context.Context, userID string, up extract.Upload, save bool) (ParseResult, string, error) {
	if s.Builder == nil {
		return ParseResult{}, "build", fmt.Errorf("resume service has no builder")
	}
	if save && strings.TrimSpace(userID) == "" {
		return ParseResult{}, "persist", apperr.ErrNotAuthenticated
	}
	extractFn := s.Extract
	if extractFn == nil {
		extractFn = extract.Extract
	}

	text, err := extractFn(ctx, up)
	if err != nil {
		return ParseResult{}, "extract", err
	}
	rec, err := s.Builder.Build(ctx, text)
	if err != nil {
		return ParseResult{}, "build", err
	}
	result := ParseResult{Record: rec, Mode: s.Mode}
	if !save {
		return result, "", nil
	}
	if err := s.Records.Save(ctx, userID, rec); err != nil {
		return ParseResult{}, "persist", err
	}
	result.Saved = true
	return result, "", nil
}

// Save stores a record supplied directly by the client.
func (s *Service) Save(ctx context.Context, userID string, rec *record.Record) error {
	return s.Records.Save(ctx, userID, rec)
}

// Current returns the stored record for userID.
func (s *Service) Current(ctx context.Context, userID string) (*record.Record, error) {
	return s.Records.Load(ctx, userID)
}
