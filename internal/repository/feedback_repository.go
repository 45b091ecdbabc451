package repository

import (
	"context"
	"database/sql"

	"github.com/ssaraswat/campus-services/internal/model"
)

// FeedbackRepo provides data access to the feedback table.
type FeedbackRepo struct{ DB *sql.DB }

func NewFeedbackRepo(db *sql.DB) *FeedbackRepo { return &FeedbackRepo{DB: db} }

// Create inserts a feedback row.  For anonymous submissions the caller
// passes a nil StudentID; nothing ties the row back to the submitter.
func (r *FeedbackRepo) Create(ctx context.Context, f *model.Feedback) error {
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO feedback (student_id, category, subject, rating, comment, is_anonymous) VALUES (?,?,?,?,?,?)",
		f.StudentID, f.Category, f.Subject, f.Rating, f.Comment, f.IsAnonymous)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	f.ID = uint64(id)
	return nil
}

// List returns feedback newest first, optionally filtered by category and
// subject.  Admin review endpoint only.
func (r *FeedbackRepo) List(ctx context.Context, category, subject string, limit, offset int) ([]model.Feedback, error) {
	q := "SELECT id, student_id, category, subject, rating, comment, is_anonymous, created_at FROM feedback"
	args := []interface{}{}
	where := ""
	if category != "" {
		where = " WHERE category = ?"
		args = append(args, category)
	}
	if subject != "" {
		if where == "" {
			where = " WHERE subject = ?"
		} else {
			where += " AND subject = ?"
		}
		args = append(args, subject)
	}
	q += where + " ORDER BY created_at DESC LIMIT ? OFFSET ?"
	args = append(args, limit, offset)

	rows, err := r.DB.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.Feedback
	for rows.Next() {
		var f model.Feedback
		if err := rows.Scan(&f.ID, &f.StudentID, &f.Category, &f.Subject,
			&f.Rating, &f.Comment, &f.IsAnonymous, &f.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, f)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// SubjectAverage is the mean rating of one feedback subject within a
// category.
type SubjectAverage struct {
	Subject   string  `json:"subject"`
	AvgRating float64 `json:"avg_rating"`
	Count     uint32  `json:"count"`
}

// Averages aggregates rated feedback per subject for a category.
func (r *FeedbackRepo) Averages(ctx context.Context, category string) ([]SubjectAverage, error) {
	rows, err := r.DB.QueryContext(ctx,
		`SELECT subject, AVG(rating), COUNT(*)
		 FROM feedback
		 WHERE category = ? AND rating IS NOT NULL
		 GROUP BY subject ORDER BY subject ASC`, category)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []SubjectAverage
	for rows.Next() {
		var a SubjectAverage
		if err := rows.Scan(&a.Subject, &a.AvgRating, &a.Count); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
