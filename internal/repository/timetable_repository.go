package repository

import (
	"context"
	"database/sql"

	"github.com/ssaraswat/campus-services/internal/model"
)

// TimetableRepo provides data access to the timetable_slots table.
type TimetableRepo struct{ DB *sql.DB }

func NewTimetableRepo(db *sql.DB) *TimetableRepo { return &TimetableRepo{DB: db} }

const slotColumns = "id, course_name, course_code, faculty_id, room, day_of_week, start_min, end_min, branch, year, created_at, updated_at"

// Create inserts a slot and fills in the generated ID.
func (r *TimetableRepo) Create(ctx context.Context, s *model.TimetableSlot) error {
	res, err := r.DB.ExecContext(ctx,
		`INSERT INTO timetable_slots (course_name, course_code, faculty_id, room, day_of_week, start_min, end_min, branch, year)
		 VALUES (?,?,?,?,?,?,?,?,?)`,
		s.CourseName, s.CourseCode, s.FacultyID, s.Room, s.DayOfWeek, s.StartMin, s.EndMin, s.Branch, s.Year)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	s.ID = uint64(id)
	return nil
}

// WeekForGroup returns the full weekly schedule of one student group,
// ordered by day then start time.
func (r *TimetableRepo) WeekForGroup(ctx context.Context, branch string, year uint8) ([]model.TimetableSlot, error) {
	rows, err := r.DB.QueryContext(ctx,
		`SELECT `+slotColumns+` FROM timetable_slots
		 WHERE branch = ? AND year = ?
		 ORDER BY day_of_week ASC, start_min ASC`, branch, year)
	if err != nil {
		return nil, err
	}
	return scanSlots(rows)
}

// DayForFaculty returns one faculty member's slots on a given weekday.
func (r *TimetableRepo) DayForFaculty(ctx context.Context, facultyID uint64, day uint8) ([]model.TimetableSlot, error) {
	rows, err := r.DB.QueryContext(ctx,
		`SELECT `+slotColumns+` FROM timetable_slots
		 WHERE faculty_id = ? AND day_of_week = ?
		 ORDER BY start_min ASC`, facultyID, day)
	if err != nil {
		return nil, err
	}
	return scanSlots(rows)
}

// Delete removes a slot, reporting ErrNotFound for unknown IDs.
func (r *TimetableRepo) Delete(ctx context.Context, id uint64) error {
	res, err := r.DB.ExecContext(ctx, "DELETE FROM timetable_slots WHERE id=?", id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// ConflictExists reports whether a proposed slot overlaps an existing one
// in the same room or for the same group on the same day.
func (r *TimetableRepo) ConflictExists(ctx context.Context, s *model.TimetableSlot) (bool, error) {
	var n int
	err := r.DB.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM timetable_slots
		 WHERE day_of_week = ? AND start_min < ? AND end_min > ?
		   AND (room = ? OR (branch = ? AND year = ?))`,
		s.DayOfWeek, s.EndMin, s.StartMin, s.Room, s.Branch, s.Year).Scan(&n)
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func scanSlots(rows *sql.Rows) ([]model.TimetableSlot, error) {
	defer rows.Close()
	var out []model.TimetableSlot
	for rows.Next() {
		var s model.TimetableSlot
		if err := rows.Scan(&s.ID, &s.CourseName, &s.CourseCode, &s.FacultyID, &s.Room,
			&s.DayOfWeek, &s.StartMin, &s.EndMin, &s.Branch, &s.Year, &s.CreatedAt, &s.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
