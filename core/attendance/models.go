package attendance

import (
	"time"

	"github.com/volatiletech/null/v8"
)

// Status is a closed attendance outcome.
type Status string

const (
	StatusHadirPenuh      Status = "HADIR_PENUH"      // fully present
	StatusHadirParsial    Status = "HADIR_PARSIAL"    // partially present
	StatusPerluVerifikasi Status = "PERLU_VERIFIKASI" // needs manual verification
)

var Statuses = []Status{StatusHadirPenuh, StatusHadirParsial, StatusPerluVerifikasi}

func (s Status) Valid() bool {
	switch s {
	case StatusHadirPenuh, StatusHadirParsial, StatusPerluVerifikasi:
		return true
	}
	return false
}

// Record is the per-user per-day attendance state. Raw coordinates are never
// stored on it; only derived statuses survive the classification step.
type Record struct {
	ID     string    `json:"id" db:"id"`
	UserID string    `json:"user_id" db:"user_id"`
	Date   time.Time `json:"date" db:"date"` // calendar day, server-local

	CheckInTime    null.Time   `json:"check_in_time" db:"check_in_time"`
	CheckInStatus  null.String `json:"check_in_status" db:"check_in_status"`
	CheckOutTime   null.Time   `json:"check_out_time" db:"check_out_time"`
	CheckOutStatus null.String `json:"check_out_status" db:"check_out_status"`

	FinalStatus null.String `json:"final_status" db:"final_status"`

	TeacherValidated bool        `json:"teacher_validated" db:"teacher_validated"`
	TeacherNote      null.String `json:"teacher_note" db:"teacher_note"`
	ValidatedAt      null.Time   `json:"validated_at" db:"validated_at"`

	CreatedAt time.Time `json:"created_at" db:"created_at"` // UTC
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"` // UTC
}

func (r Record) CheckedIn() bool  { return r.CheckInTime.Valid }
func (r Record) CheckedOut() bool { return r.CheckOutTime.Valid }

// DayEntry is one roster row for a teacher's daily overview: a student and
// their attendance record for the day, if any.
type DayEntry struct {
	UserID string  `json:"user_id"`
	Name   string  `json:"name"`
	Email  string  `json:"email"`
	Record *Record `json:"attendance"`
}

// DateOf truncates t to its calendar day in t's location.
func DateOf(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// SameDay reports whether a and b fall on the same calendar day, regardless
// of their locations. Instant equality is too strict here: a day parsed as
// UTC midnight must still match records stamped with server-local midnight.
func SameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}
