// Package applications tracks the job applications a user has submitted.
package applications

import "time"

const (
	StatusApplied            = "Applied"
	StatusInterviewScheduled = "Interview Scheduled"
	StatusOfferReceived      = "Offer Received"
	StatusRejected           = "Rejected"

	dateLayout = "2006-01-02"
)

// Statuses lists every application status in pipeline order.
var Statuses = []string{StatusApplied, StatusInterviewScheduled, StatusOfferReceived, StatusRejected}

// Application is one tracked submission, stored at users/{uid}/applications/{id}.
type Application struct {
	ID        string    `json:"id"`
	Company   string    `json:"company"`
	Position  string    `json:"position"`
	Status    string    `json:"status"`
	Date      string    `json:"date"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// NewApplication is the input to Add.
type NewApplication struct {
	Company  string `json:"company" validate:"required,max=200"`
	Position string `json:"position" validate:"required,max=200"`
	Status   string `json:"status" validate:"omitempty,application_status"`
	Date     string `json:"date" validate:"omitempty,isodate"`
}

// StatusCount pairs a status with its number of applications.
type StatusCount struct {
	Status string `json:"status"`
	Count  int    `json:"count"`
}

// Stats summarizes a user's applications. ByStatus always carries every
// status, in pipeline order.
type Stats struct {
	Total    int           `json:"total"`
	ByStatus []StatusCount `json:"byStatus"`
}

func (a Application) fields() map[string]any {
	return map[string]any{
		"company":    a.Company,
		"position":   a.Position,
		"status":     a.Status,
		"date":       a.Date,
		"created_at": a.CreatedAt.UTC().Format(time.RFC3339Nano),
		"updated_at": a.UpdatedAt.UTC().Format(time.RFC3339Nano),
	}
}

func applicationFromDoc(id string, data map[string]any) Application {
	app := Application{
		ID:       id,
		Company:  stringField(data, "company"),
		Position: stringField(data, "position"),
		Status:   stringField(data, "status"),
		Date:     stringField(data, "date"),
	}
	app.CreatedAt, _ = time.Parse(time.RFC3339Nano, stringField(data, "created_at"))
	app.UpdatedAt, _ = time.Parse(time.RFC3339Nano, stringField(data, "updated_at"))
	return app
}

func stringField(data map[string]any, key string) string {
	s, _ := data[key].(string)
	return s
}
