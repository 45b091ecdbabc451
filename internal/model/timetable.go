package model

import "time"

// TimetableSlot is one recurring lecture in the weekly schedule of a
// student group (branch + year).  Times are minutes since midnight so the
// row is timezone-free; DayOfWeek is 1=Monday .. 7=Sunday.
type TimetableSlot struct {
	ID         uint64    `json:"id"`          // timetable_slots.id
	CourseName string    `json:"course_name"` // timetable_slots.course_name
	CourseCode string    `json:"course_code"` // timetable_slots.course_code
	FacultyID  uint64    `json:"faculty_id"`  // timetable_slots.faculty_id
	Room       string    `json:"room"`        // timetable_slots.room
	DayOfWeek  uint8     `json:"day_of_week"` // timetable_slots.day_of_week (1=Mon..7=Sun)
	StartMin   uint16    `json:"start_min"`   // timetable_slots.start_min, minutes since midnight
	EndMin     uint16    `json:"end_min"`     // timetable_slots.end_min
	Branch     string    `json:"branch"`      // timetable_slots.branch
	Year       uint8     `json:"year"`        // timetable_slots.year
	CreatedAt  time.Time `json:"created_at"`  // timetable_slots.created_at
	UpdatedAt  time.Time `json:"updated_at"`  // timetable_slots.updated_at
}
