package dummydb

import (
	"context"
	"sort"
	"time"

	"github.com/trezcool/chekinout/core/attendance"
	"github.com/trezcool/chekinout/core/user"
)

type attendanceRepository struct {
	db     *attendanceTable
	userDB *userTable
}

var _ attendance.Repository = (*attendanceRepository)(nil) // interface compliance check

func NewAttendanceRepository(db *DB) attendance.Repository {
	return &attendanceRepository{db: db.attendance, userDB: db.user}
}

func (repo *attendanceRepository) CreateRecord(ctx context.Context, rec attendance.Record) (attendance.Record, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	for _, r := range repo.db.table {
		if r.UserID == rec.UserID && attendance.SameDay(r.Date, rec.Date) {
			return attendance.Record{}, attendance.ErrRecordExists
		}
	}
	repo.db.table[rec.ID] = &rec
	return rec, nil
}

func (repo *attendanceRepository) GetRecord(ctx context.Context, userID string, date time.Time) (attendance.Record, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	for _, rec := range repo.db.table {
		if rec.UserID == userID && attendance.SameDay(rec.Date, date) {
			return *rec, nil
		}
	}
	return attendance.Record{}, attendance.ErrNotFound
}

func (repo *attendanceRepository) GetRecordByID(ctx context.Context, id string) (attendance.Record, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if rec, ok := repo.db.table[id]; ok {
		return *rec, nil
	}
	return attendance.Record{}, attendance.ErrNotFound
}

func (repo *attendanceRepository) UpdateRecord(ctx context.Context, rec attendance.Record) (attendance.Record, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, ok := repo.db.table[rec.ID]; !ok {
		return attendance.Record{}, attendance.ErrNotFound
	}
	repo.db.table[rec.ID] = &rec
	return rec, nil
}

func (repo *attendanceRepository) QueryDayEntries(ctx context.Context, date time.Time) ([]attendance.DayEntry, error) {
	repo.userDB.RLock()
	repo.db.RLock()
	defer repo.db.RUnlock()
	defer repo.userDB.RUnlock()

	var entries []attendance.DayEntry
	for _, usr := range repo.userDB.table {
		if !usr.RoleStartsWith(user.RoleStudent) {
			continue
		}
		entry := attendance.DayEntry{
			UserID: usr.ID,
			Name:   usr.Name,
			Email:  usr.Email,
		}
		for _, rec := range repo.db.table {
			if rec.UserID == usr.ID && attendance.SameDay(rec.Date, date) {
				r := *rec
				entry.Record = &r
				break
			}
		}
		entries = append(entries, entry)
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name < entries[j].Name })
	return entries, nil
}
