package repository

import (
	"time"

	"github.com/jackc/pgx/v5/pgtype"
)

// Course is one class scraped from the dashboard. Identity key is Code, the
// numeric segment of the class link; rows are upserted and never deleted by
// the scrape pipeline.
type Course struct {
	ID         string      `json:"id"`
	Code       string      `json:"code"`
	Name       string      `json:"name"`
	Term       string      `json:"term"`
	ClassCode  pgtype.Text `json:"class_code"`
	Program    pgtype.Text `json:"program"`
	Instructor pgtype.Text `json:"instructor"`
	Schedule   pgtype.Text `json:"schedule"`
	CreatedAt  time.Time   `json:"created_at"`
	UpdatedAt  time.Time   `json:"updated_at"`
}

// Group belongs to exactly one course; identity key is (course_id, name).
type Group struct {
	ID        string    `json:"id"`
	CourseID  string    `json:"course_id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Member is owned by its group; the member set of a group is replaced in full
// on every re-scrape.
type Member struct {
	ID        string    `json:"id"`
	GroupID   string    `json:"group_id"`
	Name      string    `json:"name"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"created_at"`
}

// ScrapeLog is a persisted log event written by the zerolog database hook.
type ScrapeLog struct {
	ID        string      `json:"id"`
	SessionID pgtype.Text `json:"session_id"`
	EventType string      `json:"event_type"`
	Message   pgtype.Text `json:"message"`
	CreatedAt time.Time   `json:"created_at"`
}
