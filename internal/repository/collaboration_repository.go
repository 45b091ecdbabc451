package repository

import (
	"context"
	"database/sql"

	"github.com/ssaraswat/campus-services/internal/model"
)

// CollaborationRepo provides data access to the collaboration_posts table.
type CollaborationRepo struct{ DB *sql.DB }

func NewCollaborationRepo(db *sql.DB) *CollaborationRepo {
	return &CollaborationRepo{DB: db}
}

const collabColumns = "id, creator_id, post_type, title, description, tags, status, created_at, updated_at"

// Create inserts a post in the open state and fills in the generated ID.
func (r *CollaborationRepo) Create(ctx context.Context, p *model.CollaborationPost) error {
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO collaboration_posts (creator_id, post_type, title, description, tags, status) VALUES (?,?,?,?,?,?)",
		p.CreatorID, p.PostType, p.Title, p.Description, p.Tags, p.Status)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	p.ID = uint64(id)
	return nil
}

// PostView is a post joined with its creator's name.
type PostView struct {
	model.CollaborationPost
	CreatorName string `json:"creator_name"`
}

// List returns posts newest first.  postType, status and tag filters are
// disabled when empty; the tags column holds comma-separated tags, so the
// tag filter matches with FIND_IN_SET.
func (r *CollaborationRepo) List(ctx context.Context, postType, status, tag string, limit, offset int) ([]PostView, error) {
	q := `SELECT p.id, p.creator_id, p.post_type, p.title, p.description, p.tags, p.status,
	             p.created_at, p.updated_at, u.full_name
	      FROM collaboration_posts p JOIN users u ON u.id = p.creator_id`
	args := []interface{}{}
	where := ""
	appendCond := func(cond string, arg interface{}) {
		if where == "" {
			where = " WHERE " + cond
		} else {
			where += " AND " + cond
		}
		args = append(args, arg)
	}
	if postType != "" {
		appendCond("p.post_type = ?", postType)
	}
	if status != "" {
		appendCond("p.status = ?", status)
	}
	if tag != "" {
		appendCond("FIND_IN_SET(?, p.tags)", tag)
	}
	q += where + " ORDER BY p.created_at DESC LIMIT ? OFFSET ?"
	args = append(args, limit, offset)

	rows, err := r.DB.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []PostView
	for rows.Next() {
		var v PostView
		if err := rows.Scan(&v.ID, &v.CreatorID, &v.PostType, &v.Title, &v.Description,
			&v.Tags, &v.Status, &v.CreatedAt, &v.UpdatedAt, &v.CreatorName); err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// GetByID fetches one post.  Returns (nil, nil) when absent.
func (r *CollaborationRepo) GetByID(ctx context.Context, id uint64) (*model.CollaborationPost, error) {
	var p model.CollaborationPost
	err := r.DB.QueryRowContext(ctx,
		"SELECT "+collabColumns+" FROM collaboration_posts WHERE id=?", id).
		Scan(&p.ID, &p.CreatorID, &p.PostType, &p.Title, &p.Description,
			&p.Tags, &p.Status, &p.CreatedAt, &p.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// UpdateStatus moves a post between states.  Only the creator may do so;
// the ownership guard lives in the WHERE clause and a miss reports
// ErrForbidden when the post exists but belongs to someone else.
func (r *CollaborationRepo) UpdateStatus(ctx context.Context, id, creatorID uint64, status string) error {
	res, err := r.DB.ExecContext(ctx,
		"UPDATE collaboration_posts SET status=?, updated_at=UTC_TIMESTAMP() WHERE id=? AND creator_id=?",
		status, id, creatorID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n > 0 {
		return nil
	}
	p, err := r.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if p == nil {
		return ErrNotFound
	}
	return ErrForbidden
}

// Delete removes a post.  Same ownership rule as UpdateStatus.
func (r *CollaborationRepo) Delete(ctx context.Context, id, creatorID uint64) error {
	res, err := r.DB.ExecContext(ctx,
		"DELETE FROM collaboration_posts WHERE id=? AND creator_id=?", id, creatorID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n > 0 {
		return nil
	}
	p, err := r.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if p == nil {
		return ErrNotFound
	}
	return ErrForbidden
}
