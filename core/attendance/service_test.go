package attendance_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/chekinout/core"
	"github.com/trezcool/chekinout/core/attendance"
	"github.com/trezcool/chekinout/core/geoloc"
	"github.com/trezcool/chekinout/core/user"
	dummydb "github.com/trezcool/chekinout/storage/database/dummy"
)

var testConf = func() *core.Config {
	conf := new(core.Config)
	conf.School.Name = "SMA Negeri Test"
	conf.School.Latitude = -6.2
	conf.School.Longitude = 106.816666
	conf.School.GeofenceRadiusM = 200
	conf.School.AcceptableAccuracyM = 500
	return conf
}()

func newTestService(t *testing.T) (attendance.Service, attendance.Repository, user.Repository) {
	t.Helper()
	db, err := dummydb.Open()
	if err != nil {
		t.Fatalf("opening db: %v", err)
	}
	repo := dummydb.NewAttendanceRepository(db)
	return attendance.NewService(repo, testConf), repo, dummydb.NewUserRepository(db)
}

func createStudent(t *testing.T, repo user.Repository, name string) user.User {
	t.Helper()
	usr := user.User{
		Name:  name,
		Email: name + "@smantest.sch.id",
		Roles: user.StudentRoles,
	}
	usr.SetActive(true)
	usr, err := repo.CreateUser(context.Background(), usr)
	if err != nil {
		t.Fatalf("creating user: %v", err)
	}
	return usr
}

func onCampus() geoloc.Sample {
	return geoloc.Sample{Latitude: testConf.School.Latitude, Longitude: testConf.School.Longitude, Accuracy: 30}
}

func offCampus() geoloc.Sample {
	// ~1.1km north of the school
	return geoloc.Sample{Latitude: testConf.School.Latitude + 0.01, Longitude: testConf.School.Longitude, Accuracy: 30}
}

func weakSignal() geoloc.Sample {
	return geoloc.Sample{Latitude: testConf.School.Latitude, Longitude: testConf.School.Longitude, Accuracy: 800}
}

func TestService_fullDay(t *testing.T) {
	svc, _, usrRepo := newTestService(t)
	ctx := context.Background()
	std := createStudent(t, usrRepo, "budi")

	rec, verdict, err := svc.CheckIn(ctx, std.ID, onCampus())
	if err != nil {
		t.Fatalf("CheckIn() error = %v", err)
	}
	if verdict.Status != attendance.StatusHadirPenuh {
		t.Errorf("CheckIn() verdict = %v, want %v", verdict.Status, attendance.StatusHadirPenuh)
	}
	if !rec.CheckedIn() || rec.CheckedOut() {
		t.Errorf("record state after check-in: in=%v out=%v", rec.CheckedIn(), rec.CheckedOut())
	}
	// partial until the day is closed with a check-out
	if rec.FinalStatus.String != string(attendance.StatusHadirParsial) {
		t.Errorf("FinalStatus = %v, want %v", rec.FinalStatus.String, attendance.StatusHadirParsial)
	}

	rec, verdict, err = svc.CheckOut(ctx, std.ID, onCampus())
	if err != nil {
		t.Fatalf("CheckOut() error = %v", err)
	}
	if verdict.Status != attendance.StatusHadirPenuh {
		t.Errorf("CheckOut() verdict = %v, want %v", verdict.Status, attendance.StatusHadirPenuh)
	}
	if !rec.CheckedOut() {
		t.Error("record not checked out")
	}
	if rec.FinalStatus.String != string(attendance.StatusHadirPenuh) {
		t.Errorf("FinalStatus = %v, want %v", rec.FinalStatus.String, attendance.StatusHadirPenuh)
	}

	today, err := svc.Today(ctx, std.ID)
	if err != nil {
		t.Fatalf("Today() error = %v", err)
	}
	if today.ID != rec.ID {
		t.Errorf("Today() ID = %v, want %v", today.ID, rec.ID)
	}
}

func TestService_partialPresence(t *testing.T) {
	svc, _, usrRepo := newTestService(t)
	ctx := context.Background()
	std := createStudent(t, usrRepo, "siti")

	if _, _, err := svc.CheckIn(ctx, std.ID, onCampus()); err != nil {
		t.Fatalf("CheckIn() error = %v", err)
	}
	rec, verdict, err := svc.CheckOut(ctx, std.ID, offCampus())
	if err != nil {
		t.Fatalf("CheckOut() error = %v", err)
	}
	if verdict.Status != attendance.StatusPerluVerifikasi {
		t.Errorf("CheckOut() verdict = %v, want %v", verdict.Status, attendance.StatusPerluVerifikasi)
	}
	if rec.FinalStatus.String != string(attendance.StatusPerluVerifikasi) {
		t.Errorf("FinalStatus = %v, want %v", rec.FinalStatus.String, attendance.StatusPerluVerifikasi)
	}
}

func TestService_weakSignalNeedsVerification(t *testing.T) {
	svc, _, usrRepo := newTestService(t)
	ctx := context.Background()
	std := createStudent(t, usrRepo, "agus")

	rec, verdict, err := svc.CheckIn(ctx, std.ID, weakSignal())
	if err != nil {
		t.Fatalf("CheckIn() error = %v", err)
	}
	if verdict.Status != attendance.StatusPerluVerifikasi {
		t.Errorf("CheckIn() verdict = %v, want %v", verdict.Status, attendance.StatusPerluVerifikasi)
	}
	if rec.FinalStatus.String != string(attendance.StatusPerluVerifikasi) {
		t.Errorf("FinalStatus = %v, want %v", rec.FinalStatus.String, attendance.StatusPerluVerifikasi)
	}
}

func TestService_doubleCheckIn(t *testing.T) {
	svc, _, usrRepo := newTestService(t)
	ctx := context.Background()
	std := createStudent(t, usrRepo, "dewi")

	if _, _, err := svc.CheckIn(ctx, std.ID, onCampus()); err != nil {
		t.Fatalf("CheckIn() error = %v", err)
	}
	if _, _, err := svc.CheckIn(ctx, std.ID, onCampus()); errors.Cause(err) != attendance.ErrAlreadyCheckedIn {
		t.Errorf("CheckIn() error = %v, want %v", err, attendance.ErrAlreadyCheckedIn)
	}
}

func TestService_checkOutGuards(t *testing.T) {
	svc, _, usrRepo := newTestService(t)
	ctx := context.Background()
	std := createStudent(t, usrRepo, "rina")

	if _, _, err := svc.CheckOut(ctx, std.ID, onCampus()); errors.Cause(err) != attendance.ErrNotCheckedIn {
		t.Errorf("CheckOut() error = %v, want %v", err, attendance.ErrNotCheckedIn)
	}

	if _, _, err := svc.CheckIn(ctx, std.ID, onCampus()); err != nil {
		t.Fatalf("CheckIn() error = %v", err)
	}
	if _, _, err := svc.CheckOut(ctx, std.ID, onCampus()); err != nil {
		t.Fatalf("CheckOut() error = %v", err)
	}
	if _, _, err := svc.CheckOut(ctx, std.ID, onCampus()); errors.Cause(err) != attendance.ErrAlreadyCheckedOut {
		t.Errorf("CheckOut() error = %v, want %v", err, attendance.ErrAlreadyCheckedOut)
	}
}

func TestService_todayNotFound(t *testing.T) {
	svc, _, usrRepo := newTestService(t)
	std := createStudent(t, usrRepo, "yusuf")

	if _, err := svc.Today(context.Background(), std.ID); errors.Cause(err) != attendance.ErrNotFound {
		t.Errorf("Today() error = %v, want %v", err, attendance.ErrNotFound)
	}
}

func TestService_teacherValidation(t *testing.T) {
	svc, _, usrRepo := newTestService(t)
	ctx := context.Background()
	std := createStudent(t, usrRepo, "putri")

	rec, _, err := svc.CheckIn(ctx, std.ID, weakSignal())
	if err != nil {
		t.Fatalf("CheckIn() error = %v", err)
	}

	rec, err = svc.Validate(ctx, rec.ID, attendance.StatusHadirParsial, "Izin dispensasi lomba")
	if err != nil {
		t.Fatalf("Validate() error = %v", err)
	}
	if rec.FinalStatus.String != string(attendance.StatusHadirParsial) {
		t.Errorf("FinalStatus = %v, want %v", rec.FinalStatus.String, attendance.StatusHadirParsial)
	}
	if !rec.TeacherValidated {
		t.Error("TeacherValidated = false")
	}
	if rec.TeacherNote.String != "Izin dispensasi lomba" {
		t.Errorf("TeacherNote = %v", rec.TeacherNote.String)
	}
	if !rec.ValidatedAt.Valid {
		t.Error("ValidatedAt not set")
	}

	// teacher input survives the subsequent check-out
	rec, _, err = svc.CheckOut(ctx, std.ID, weakSignal())
	if err != nil {
		t.Fatalf("CheckOut() error = %v", err)
	}
	if rec.FinalStatus.String != string(attendance.StatusHadirParsial) {
		t.Errorf("FinalStatus after check-out = %v, want %v", rec.FinalStatus.String, attendance.StatusHadirParsial)
	}
}

func TestService_validateGuards(t *testing.T) {
	svc, _, usrRepo := newTestService(t)
	ctx := context.Background()
	std := createStudent(t, usrRepo, "andi")

	rec, _, err := svc.CheckIn(ctx, std.ID, onCampus())
	if err != nil {
		t.Fatalf("CheckIn() error = %v", err)
	}

	if _, err := svc.Validate(ctx, rec.ID, attendance.Status("BOLOS"), ""); err != nil {
		var vErr *core.ValidationError
		if !errors.As(err, &vErr) {
			t.Errorf("Validate() error = %v, want ValidationError", err)
		}
	} else {
		t.Error("Validate() accepted an unknown status")
	}

	if _, err := svc.Validate(ctx, "4242", attendance.StatusHadirPenuh, ""); errors.Cause(err) != attendance.ErrNotFound {
		t.Errorf("Validate() error = %v, want %v", err, attendance.ErrNotFound)
	}
}

func TestService_day(t *testing.T) {
	svc, _, usrRepo := newTestService(t)
	ctx := context.Background()
	std1 := createStudent(t, usrRepo, "ayu")
	std2 := createStudent(t, usrRepo, "bima")

	if _, _, err := svc.CheckIn(ctx, std2.ID, onCampus()); err != nil {
		t.Fatalf("CheckIn() error = %v", err)
	}

	entries, err := svc.Day(ctx, time.Now())
	if err != nil {
		t.Fatalf("Day() error = %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("Day() len = %d, want 2", len(entries))
	}
	// sorted by name
	if entries[0].UserID != std1.ID || entries[0].Record != nil {
		t.Errorf("entry[0] = %+v, want %s without record", entries[0], std1.ID)
	}
	if entries[1].UserID != std2.ID || entries[1].Record == nil {
		t.Errorf("entry[1] = %+v, want %s with record", entries[1], std2.ID)
	}
}

// A record carries its day as server-local midnight while a `?date=` query may
// arrive as the UTC midnight of the same calendar day; the roster must still
// match the two.
func TestService_dayMatchesAcrossZones(t *testing.T) {
	svc, attRepo, usrRepo := newTestService(t)
	ctx := context.Background()
	std := createStudent(t, usrRepo, "citra")

	wib := time.FixedZone("WIB", 7*60*60)
	day := time.Date(2026, time.September, 1, 0, 0, 0, 0, wib)
	rec := attendance.Record{
		ID:            uuid.New().String(),
		UserID:        std.ID,
		Date:          day,
		CheckInTime:   null.TimeFrom(day.Add(7 * time.Hour)),
		CheckInStatus: null.StringFrom(string(attendance.StatusHadirPenuh)),
		FinalStatus:   null.StringFrom(string(attendance.StatusHadirPenuh)),
	}
	if _, err := attRepo.CreateRecord(ctx, rec); err != nil {
		t.Fatalf("CreateRecord() error = %v", err)
	}

	entries, err := svc.Day(ctx, time.Date(2026, time.September, 1, 0, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("Day() error = %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("Day() len = %d, want 1", len(entries))
	}
	if entries[0].Record == nil {
		t.Errorf("entry = %+v, want %s with record", entries[0], std.ID)
	}
}
