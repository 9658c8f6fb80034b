// Package generation writes a tailored résumé and a cover letter for a job
// description from the user's stored résumé.
package generation

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"jobassist-backend/internal/applications"
	"jobassist-backend/internal/llm"
	"jobassist-backend/internal/record"
	"jobassist-backend/internal/shared/apperr"
	"jobassist-backend/internal/shared/metrics"
	"jobassist-backend/internal/shared/storage/docstore"
	"jobassist-backend/internal/shared/telemetry"
)

const (
	usersCollection = "users"
	fieldGenerated  = "generated_documents"

	generationTemperature = 0.7
	generationMaxTokens   = 2000
	generationSystem      = "You are an expert career coach who writes tailored resumes and cover letters."
)

// ErrResumeMissing means the user has not stored a parsed résumé yet.
var ErrResumeMissing = fmt.Errorf("%w: upload a resume first", apperr.ErrNotFound)

// ResumeLoader returns the user's stored résumé. resumes.RecordStore
// implements it.
type ResumeLoader interface {
	Load(ctx context.Context, userID string) (*record.Record, error)
}

// ApplicationAdder records a submitted application. applications.Service
// implements it.
type ApplicationAdder interface {
	CanAdd(ctx context.Context, userID string) error
	Add(ctx context.Context, userID string, in applications.NewApplication) (applications.Application, error)
}

// Documents is one generated pair.
type Documents struct {
	Resume         string    `json:"resume"`
	CoverLetter    string    `json:"coverLetter"`
	JobDescription string    `json:"jobDescription,omitempty"`
	GeneratedAt    time.Time `json:"generatedAt"`
}

// JobPosting is what the browser extension scrapes from a listing.
type JobPosting struct {
	Title       string `json:"title"`
	Company     string `json:"company"`
	Location    string `json:"location"`
	Description string `json:"description"`
}

// ApplyResult is the outcome of ApplyWithAI.
type ApplyResult struct {
	Documents   Documents                `json:"documents"`
	Application applications.Application `json:"application"`
}

// Service runs the two generation calls and stores their output.
type Service struct {
	LLM          llm.Client
	Resumes      ResumeLoader
	Store        docstore.Store
	Applications ApplicationAdder
	now          func() time.Time
}

func NewService(client llm.Client, resumes ResumeLoader, store docstore.Store, apps ApplicationAdder) *Service {
	return &Service{LLM: client, Resumes: resumes, Store: store, Applications: apps, now: time.Now}
}

// Generate makes two model calls, the tailored résumé first and then the
// cover letter. Nothing is stored.
func (s *Service) Generate(ctx context.Context, userID, jobDescription string) (Documents, error) {
	if strings.TrimSpace(userID) == "" {
		return Documents{}, apperr.ErrNotAuthenticated
	}
	jobDescription = strings.TrimSpace(jobDescription)
	if jobDescription == "" {
		return Documents{}, fmt.Errorf("%w: job description is required", apperr.ErrInvalidInput)
	}
	if s.LLM == nil {
		return Documents{}, fmt.Errorf("%w: no language model configured", apperr.ErrModelCallFailure)
	}

	rec, err := s.Resumes.Load(ctx, userID)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return Documents{}, ErrResumeMissing
		}
		return Documents{}, err
	}
	resumeYAML, err := rec.YAML()
	if err != nil {
		return Documents{}, fmt.Errorf("encode resume: %w", err)
	}

	data := map[string]string{"ResumeData": resumeYAML, "JobDescription": jobDescription}
	tailored, err := s.complete(ctx, llm.PromptTailorResume, data)
	if err != nil {
		return Documents{}, err
	}
	cover, err := s.complete(ctx, llm.PromptCoverLetter, data)
	if err != nil {
		return Documents{}, err
	}

	metrics.IncGeneration()
	telemetry.Info("generation.completed", map[string]any{
		"user_id":        userID,
		"resume_chars":   len(tailored),
		"cover_chars":    len(cover),
		"job_desc_chars": len(jobDescription),
	})
	return Documents{
		Resume:         tailored,
		CoverLetter:    cover,
		JobDescription: jobDescription,
		GeneratedAt:    s.now().UTC(),
	}, nil
}

func (s *Service) complete(ctx context.Context, prompt string, data map[string]string) (string, error) {
	text, err := llm.RenderPrompt(prompt, data)
	if err != nil {
		return "", err
	}
	out, err := s.LLM.Complete(ctx, llm.Request{
		System:      generationSystem,
		Prompt:      text,
		Temperature: generationTemperature,
		MaxTokens:   generationMaxTokens,
	})
	if err != nil {
		return "", fmt.Errorf("%w: %s: %w", apperr.ErrModelCallFailure, prompt, err)
	}
	out = strings.TrimSpace(out)
	if out == "" {
		return "", fmt.Errorf("%w: %s: empty response", apperr.ErrModelCallFailure, prompt)
	}
	return out, nil
}

// Save merge-writes docs into generated_documents on the user document.
func (s *Service) Save(ctx context.Context, userID string, docs Documents) error {
	if strings.TrimSpace(userID) == "" {
		return apperr.ErrNotAuthenticated
	}
	if strings.TrimSpace(docs.Resume) == "" && strings.TrimSpace(docs.CoverLetter) == "" {
		return fmt.Errorf("%w: nothing to save", apperr.ErrInvalidInput)
	}
	if s.Store == nil {
		return apperr.ErrStoreUnavailable
	}
	if docs.GeneratedAt.IsZero() {
		docs.GeneratedAt = s.now().UTC()
	}
	err := s.Store.MergeSet(ctx, usersCollection, userID, map[string]any{
		fieldGenerated: map[string]any{
			"resume":          docs.Resume,
			"cover_letter":    docs.CoverLetter,
			"job_description": docs.JobDescription,
			"generated_at":    docs.GeneratedAt.UTC().Format(time.RFC3339),
		},
	})
	if err != nil {
		return fmt.Errorf("%w: %w", apperr.ErrStoreUnavailable, err)
	}
	return nil
}

// Latest returns the saved documents, or apperr.ErrNotFound.
func (s *Service) Latest(ctx context.Context, userID string) (Documents, error) {
	if strings.TrimSpace(userID) == "" {
		return Documents{}, apperr.ErrNotAuthenticated
	}
	if s.Store == nil {
		return Documents{}, apperr.ErrStoreUnavailable
	}
	doc, err := s.Store.Get(ctx, usersCollection, userID)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return Documents{}, fmt.Errorf("%w: no generated documents", apperr.ErrNotFound)
		}
		return Documents{}, fmt.Errorf("%w: %w", apperr.ErrStoreUnavailable, err)
	}
	raw, ok := doc[fieldGenerated].(map[string]any)
	if !ok {
		return Documents{}, fmt.Errorf("%w: no generated documents", apperr.ErrNotFound)
	}
	out := Documents{
		Resume:         docstore.String(raw["resume"]),
		CoverLetter:    docstore.String(raw["cover_letter"]),
		JobDescription: docstore.String(raw["job_description"]),
	}
	out.GeneratedAt, _ = time.Parse(time.RFC3339, docstore.String(raw["generated_at"]))
	return out, nil
}

// ApplyWithAI generates documents for a scraped posting, saves them and
// records an Applied entry in the tracker. A user at their plan limit is
// rejected before any model call or write.
func (s *Service) ApplyWithAI(ctx context.Context, userID string, job JobPosting) (ApplyResult, error) {
	job.Title = strings.TrimSpace(job.Title)
	job.Company = strings.TrimSpace(job.Company)
	if job.Title == "" || job.Company == "" {
		return ApplyResult{}, fmt.Errorf("%w: title and company are required", apperr.ErrInvalidInput)
	}
	if s.Applications != nil {
		if err := s.Applications.CanAdd(ctx, userID); err != nil {
			return ApplyResult{}, err
		}
	}
	docs, err := s.Generate(ctx, userID, postingDescription(job))
	if err != nil {
		return ApplyResult{}, err
	}
	if err := s.Save(ctx, userID, docs); err != nil {
		return ApplyResult{}, err
	}
	if s.Applications == nil {
		return ApplyResult{Documents: docs}, nil
	}
	app, err := s.Applications.Add(ctx, userID, applications.NewApplication{
		Company:  job.Company,
		Position: job.Title,
		Status:   applications.StatusApplied,
	})
	if err != nil {
		return ApplyResult{}, err
	}
	telemetry.Info("generation.applied", map[string]any{"user_id": userID, "application_id": app.ID, "company": job.Company})
	return ApplyResult{Documents: docs, Application: app}, nil
}

func postingDescription(job JobPosting) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Title: %s\nCompany: %s\n", job.Title, job.Company)
	if loc := strings.TrimSpace(job.Location); loc != "" {
		fmt.Fprintf(&b, "Location: %s\n", loc)
	}
	if desc := strings.TrimSpace(job.Description); desc != "" {
		b.WriteString("\n")
		b.WriteString(desc)
	}
	return b.String()
}
