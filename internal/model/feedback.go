package model

import "time"

// Feedback categories accepted from the submission form.
const (
	FeedbackCategoryFaculty   = "faculty"
	FeedbackCategoryResources = "resources"
	FeedbackCategoryCanteen   = "canteen"
	FeedbackCategoryEvents    = "events"
	FeedbackCategoryGeneral   = "general"
)

// Feedback is a student submission about some aspect of campus life.
// Anonymous submissions carry no student reference at all; the client's
// identity is discarded before the row is written.
type Feedback struct {
	ID          uint64    `json:"id"`                   // feedback.id
	StudentID   *uint64   `json:"student_id,omitempty"` // feedback.student_id (nil when anonymous)
	Category    string    `json:"category"`             // feedback.category
	Subject     string    `json:"subject"`              // feedback.subject, e.g. "Main Library"
	Rating      *uint8    `json:"rating"`               // feedback.rating 1..5 (nullable)
	Comment     string    `json:"comment"`              // feedback.comment
	IsAnonymous bool      `json:"is_anonymous"`         // feedback.is_anonymous
	CreatedAt   time.Time `json:"created_at"`           // feedback.created_at
}
