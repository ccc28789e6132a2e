package sqlxrepos

import (
	"context"
	"database/sql"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/chekinout/core/attendance"
	"github.com/trezcool/chekinout/core/user"
)

const attendanceColumns = `id, user_id, date, check_in_time, check_in_status, check_out_time, check_out_status,
	final_status, teacher_validated, teacher_note, validated_at, created_at, updated_at`

type attendanceRepository struct {
	db *sqlx.DB
}

var _ attendance.Repository = (*attendanceRepository)(nil) // interface compliance check

func NewAttendanceRepository(db *sqlx.DB) attendance.Repository {
	return &attendanceRepository{db: db}
}

// CreateRecord relies on the table's (user_id, date) unique constraint to
// arbitrate concurrent first check-ins; the loser sees ErrRecordExists.
func (repo *attendanceRepository) CreateRecord(ctx context.Context, rec attendance.Record) (attendance.Record, error) {
	const query = `
		INSERT INTO attendance (id, user_id, date, check_in_time, check_in_status, check_out_time, check_out_status,
			final_status, teacher_validated, teacher_note, validated_at, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		ON CONFLICT (user_id, date) DO NOTHING`
	res, err := repo.db.ExecContext(ctx, query,
		rec.ID, rec.UserID, rec.Date, rec.CheckInTime, rec.CheckInStatus, rec.CheckOutTime, rec.CheckOutStatus,
		rec.FinalStatus, rec.TeacherValidated, rec.TeacherNote, rec.ValidatedAt, rec.CreatedAt, rec.UpdatedAt,
	)
	if err != nil {
		return attendance.Record{}, errors.Wrap(err, "inserting record")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return attendance.Record{}, attendance.ErrRecordExists
	}
	return rec, nil
}

func (repo *attendanceRepository) GetRecord(ctx context.Context, userID string, date time.Time) (attendance.Record, error) {
	var rec attendance.Record
	const query = `SELECT ` + attendanceColumns + ` FROM attendance WHERE user_id = $1 AND date = $2`
	if err := repo.db.GetContext(ctx, &rec, query, userID, date); err != nil {
		if err == sql.ErrNoRows {
			return attendance.Record{}, attendance.ErrNotFound
		}
		return attendance.Record{}, errors.Wrap(err, "getting record")
	}
	return rec, nil
}

func (repo *attendanceRepository) GetRecordByID(ctx context.Context, id string) (attendance.Record, error) {
	var rec attendance.Record
	if err := repo.db.GetContext(ctx, &rec, `SELECT `+attendanceColumns+` FROM attendance WHERE id = $1`, id); err != nil {
		if err == sql.ErrNoRows {
			return attendance.Record{}, attendance.ErrNotFound
		}
		return attendance.Record{}, errors.Wrap(err, "getting record")
	}
	return rec, nil
}

func (repo *attendanceRepository) UpdateRecord(ctx context.Context, rec attendance.Record) (attendance.Record, error) {
	const query = `
		UPDATE attendance
		SET check_in_time = $1, check_in_status = $2, check_out_time = $3, check_out_status = $4,
			final_status = $5, teacher_validated = $6, teacher_note = $7, validated_at = $8, updated_at = $9
		WHERE id = $10`
	res, err := repo.db.ExecContext(ctx, query,
		rec.CheckInTime, rec.CheckInStatus, rec.CheckOutTime, rec.CheckOutStatus,
		rec.FinalStatus, rec.TeacherValidated, rec.TeacherNote, rec.ValidatedAt, rec.UpdatedAt, rec.ID,
	)
	if err != nil {
		return attendance.Record{}, errors.Wrap(err, "updating record")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return attendance.Record{}, attendance.ErrNotFound
	}
	return rec, nil
}

// QueryDayEntries returns the full student roster for a day; students without
// a record that day come back with a nil Record.
func (repo *attendanceRepository) QueryDayEntries(ctx context.Context, date time.Time) ([]attendance.DayEntry, error) {
	type entryRow struct {
		UserID string `db:"user_id"`
		Name   string `db:"name"`
		Email  string `db:"email"`

		RecordID         null.String `db:"record_id"`
		Date             null.Time   `db:"date"`
		CheckInTime      null.Time   `db:"check_in_time"`
		CheckInStatus    null.String `db:"check_in_status"`
		CheckOutTime     null.Time   `db:"check_out_time"`
		CheckOutStatus   null.String `db:"check_out_status"`
		FinalStatus      null.String `db:"final_status"`
		TeacherValidated null.Bool   `db:"teacher_validated"`
		TeacherNote      null.String `db:"teacher_note"`
		ValidatedAt      null.Time   `db:"validated_at"`
		CreatedAt        null.Time   `db:"created_at"`
		UpdatedAt        null.Time   `db:"updated_at"`
	}

	const query = `
		SELECT u.id AS user_id, u.name, u.email,
			a.id AS record_id, a.date, a.check_in_time, a.check_in_status, a.check_out_time, a.check_out_status,
			a.final_status, a.teacher_validated, a.teacher_note, a.validated_at, a.created_at, a.updated_at
		FROM "user" u
		LEFT JOIN attendance a ON a.user_id = u.id AND a.date = $1
		WHERE EXISTS (SELECT 1 FROM unnest(u.roles) r WHERE r LIKE $2)
		ORDER BY u.name`
	var rows []entryRow
	if err := repo.db.SelectContext(ctx, &rows, query, date, user.RoleStudent+"%"); err != nil {
		return nil, errors.Wrap(err, "querying day entries")
	}

	entries := make([]attendance.DayEntry, 0, len(rows))
	for _, row := range rows {
		entry := attendance.DayEntry{
			UserID: row.UserID,
			Name:   row.Name,
			Email:  row.Email,
		}
		if row.RecordID.Valid {
			entry.Record = &attendance.Record{
				ID:               row.RecordID.String,
				UserID:           row.UserID,
				Date:             row.Date.Time,
				CheckInTime:      row.CheckInTime,
				CheckInStatus:    row.CheckInStatus,
				CheckOutTime:     row.CheckOutTime,
				CheckOutStatus:   row.CheckOutStatus,
				FinalStatus:      row.FinalStatus,
				TeacherValidated: row.TeacherValidated.Bool,
				TeacherNote:      row.TeacherNote,
				ValidatedAt:      row.ValidatedAt,
				CreatedAt:        row.CreatedAt.Time,
				UpdatedAt:        row.UpdatedAt.Time,
			}
		}
		entries = append(entries, entry)
	}
	return entries, nil
}
