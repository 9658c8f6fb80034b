package applications

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"jobassist-backend/internal/shared/apperr"
	"jobassist-backend/internal/shared/storage/docstore"
	"jobassist-backend/internal/shared/telemetry"
)

// PlanLimiter counts applications against the user's plan. billing.Service
// implements it.
type PlanLimiter interface {
	CanAddApplication(ctx context.Context, userID string) error
	RecordApplication(ctx context.Context, userID string) (int64, error)
	ReleaseApplication(ctx context.Context, userID string) error
}

// Service stores applications under users/{uid}/applications.
type Service struct {
	Store    docstore.Store
	Limiter  PlanLimiter
	validate *validator.Validate
	now      func() time.Time
	newID    func() string
}

func NewService(store docstore.Store, limiter PlanLimiter) *Service {
	return &Service{
		Store:    store,
		Limiter:  limiter,
		validate: newValidator(),
		now:      time.Now,
		newID:    uuid.NewString,
	}
}

func collection(userID string) string {
	return docstore.Path("users", userID, "applications")
}

func (s *Service) ready(userID string) error {
	if strings.TrimSpace(userID) == "" {
		return apperr.ErrNotAuthenticated
	}
	if s == nil || s.Store == nil {
		return apperr.ErrStoreUnavailable
	}
	return nil
}

// CanAdd reports whether userID may record another application under their
// plan without writing anything. Add still enforces the limit itself.
func (s *Service) CanAdd(ctx context.Context, userID string) error {
	if err := s.ready(userID); err != nil {
		return err
	}
	if s.Limiter == nil {
		return nil
	}
	return s.Limiter.CanAddApplication(ctx, userID)
}

// Add validates and stores a new application. Status defaults to Applied
// and date to today (UTC). The plan limit is checked before anything is
// written.
func (s *Service) Add(ctx context.Context, userID string, in NewApplication) (Application, error) {
	if err := s.ready(userID); err != nil {
		return Application{}, err
	}
	in.Company = strings.TrimSpace(in.Company)
	in.Position = strings.TrimSpace(in.Position)
	in.Status = strings.TrimSpace(in.Status)
	in.Date = strings.TrimSpace(in.Date)
	now := s.now().UTC()
	if in.Status == "" {
		in.Status = StatusApplied
	}
	if in.Date == "" {
		in.Date = now.Format(dateLayout)
	}
	if err := s.validate.Struct(in); err != nil {
		return Application{}, validationError(err)
	}

	if s.Limiter != nil {
		if err := s.Limiter.CanAddApplication(ctx, userID); err != nil {
			return Application{}, err
		}
		if _, err := s.Limiter.RecordApplication(ctx, userID); err != nil {
			return Application{}, err
		}
	}

	app := Application{
		ID:        s.newID(),
		Company:   in.Company,
		Position:  in.Position,
		Status:    in.Status,
		Date:      in.Date,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.Store.MergeSet(ctx, collection(userID), app.ID, app.fields()); err != nil {
		if s.Limiter != nil {
			if relErr := s.Limiter.ReleaseApplication(ctx, userID); relErr != nil {
				telemetry.Error("applications.release_failed", map[string]any{"user_id": userID, "error": relErr.Error()})
			}
		}
		return Application{}, fmt.Errorf("%w: %w", apperr.ErrStoreUnavailable, err)
	}
	telemetry.Info("applications.added", map[string]any{"user_id": userID, "application_id": app.ID, "status": app.Status})
	return app, nil
}

// UpdateStatus moves an application to another status.
func (s *Service) UpdateStatus(ctx context.Context, userID, id, status string) (Application, error) {
	if err := s.ready(userID); err != nil {
		return Application{}, err
	}
	status = strings.TrimSpace(status)
	if err := s.validate.Var(status, "required,application_status"); err != nil {
		return Application{}, fmt.Errorf("%w: status must be one of %s", apperr.ErrInvalidInput, strings.Join(Statuses, ", "))
	}
	err := s.Store.Update(ctx, collection(userID), id, map[string]any{
		"status":     status,
		"updated_at": s.now().UTC().Format(time.RFC3339Nano),
	})
	if err != nil {
		return Application{}, storeErr(err)
	}
	return s.Get(ctx, userID, id)
}

// Delete removes an application. The plan counter is not decremented: it
// counts submissions, not tracked rows.
func (s *Service) Delete(ctx context.Context, userID, id string) error {
	if err := s.ready(userID); err != nil {
		return err
	}
	if err := s.Store.Delete(ctx, collection(userID), id); err != nil {
		return storeErr(err)
	}
	return nil
}

func (s *Service) Get(ctx context.Context, userID, id string) (Application, error) {
	if err := s.ready(userID); err != nil {
		return Application{}, err
	}
	data, err := s.Store.Get(ctx, collection(userID), id)
	if err != nil {
		return Application{}, storeErr(err)
	}
	return applicationFromDoc(id, data), nil
}

// List returns applications newest date first, ties broken by id.
func (s *Service) List(ctx context.Context, userID string) ([]Application, error) {
	if err := s.ready(userID); err != nil {
		return nil, err
	}
	docs, err := s.Store.List(ctx, collection(userID))
	if err != nil {
		return nil, storeErr(err)
	}
	out := make([]Application, 0, len(docs))
	for _, d := range docs {
		out = append(out, applicationFromDoc(d.ID, d.Data))
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Date != out[j].Date {
			return out[i].Date > out[j].Date
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

// Stats counts applications per status.
func (s *Service) Stats(ctx context.Context, userID string) (Stats, error) {
	apps, err := s.List(ctx, userID)
	if err != nil {
		return Stats{}, err
	}
	return computeStats(apps), nil
}

func computeStats(apps []Application) Stats {
	counts := make(map[string]int, len(Statuses))
	for _, a := range apps {
		counts[a.Status]++
	}
	st := Stats{Total: len(apps), ByStatus: make([]StatusCount, 0, len(Statuses))}
	for _, status := range Statuses {
		st.ByStatus = append(st.ByStatus, StatusCount{Status: status, Count: counts[status]})
	}
	return st
}

func storeErr(err error) error {
	if errors.Is(err, apperr.ErrNotFound) {
		return fmt.Errorf("%w: application not found", apperr.ErrNotFound)
	}
	return fmt.Errorf("%w: %w", apperr.ErrStoreUnavailable, err)
}
