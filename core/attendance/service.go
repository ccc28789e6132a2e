package attendance

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/chekinout/core"
	"github.com/trezcool/chekinout/core/geoloc"
)

var (
	// errors
	ErrNotFound          = errors.New("attendance record not found")
	ErrRecordExists      = errors.New("attendance record already exists")
	ErrAlreadyCheckedIn  = errors.New("Anda sudah melakukan check-in hari ini")
	ErrNotCheckedIn      = errors.New("Anda belum melakukan check-in hari ini")
	ErrAlreadyCheckedOut = errors.New("Anda sudah melakukan check-out hari ini")
	ErrInvalidStatus     = errors.New("invalid final status")

	nowFunc = time.Now // mockable
)

type (
	Repository interface {
		// CreateRecord inserts a record if none exists for its (user, date);
		// it returns ErrRecordExists otherwise. The insert must be atomic so
		// two concurrent first check-ins cannot both create a record.
		CreateRecord(ctx context.Context, rec Record) (Record, error)
		GetRecord(ctx context.Context, userID string, date time.Time) (Record, error)
		GetRecordByID(ctx context.Context, id string) (Record, error)
		UpdateRecord(ctx context.Context, rec Record) (Record, error)
		// QueryDayEntries lists every student with their record for the day, if any.
		QueryDayEntries(ctx context.Context, date time.Time) ([]DayEntry, error)
	}

	Service interface {
		CheckIn(ctx context.Context, userID string, sample geoloc.Sample) (Record, Verdict, error)
		CheckOut(ctx context.Context, userID string, sample geoloc.Sample) (Record, Verdict, error)
		Today(ctx context.Context, userID string) (Record, error)
		Day(ctx context.Context, date time.Time) ([]DayEntry, error)
		Validate(ctx context.Context, recordID string, status Status, note string) (Record, error)
	}

	service struct {
		repo  Repository
		fence Geofence
	}
)

var _ Service = (*service)(nil)

func NewService(repo Repository, conf *core.Config) Service {
	return &service{
		repo: repo,
		fence: Geofence{
			Latitude:            conf.School.Latitude,
			Longitude:           conf.School.Longitude,
			RadiusM:             conf.School.GeofenceRadiusM,
			AcceptableAccuracyM: conf.School.AcceptableAccuracyM,
		},
	}
}

// CheckIn classifies the sample and creates today's record. The sample never
// leaves this function; only the derived status is stored.
func (svc *service) CheckIn(ctx context.Context, userID string, sample geoloc.Sample) (Record, Verdict, error) {
	now := nowFunc()
	day := DateOf(now)

	if rec, err := svc.repo.GetRecord(ctx, userID, day); err == nil {
		if rec.CheckedIn() {
			return Record{}, Verdict{}, ErrAlreadyCheckedIn
		}
	} else if errors.Cause(err) != ErrNotFound {
		return Record{}, Verdict{}, errors.Wrap(err, "getting today's record")
	}

	verdict := svc.fence.Classify(sample)
	rec := Record{
		ID:            uuid.New().String(),
		UserID:        userID,
		Date:          day,
		CheckInTime:   null.TimeFrom(now),
		CheckInStatus: null.StringFrom(string(verdict.Status)),
		CreatedAt:     now.UTC(),
		UpdatedAt:     now.UTC(),
	}
	rec.FinalStatus = CombineStatus(rec.CheckInStatus, rec.CheckOutStatus)

	rec, err := svc.repo.CreateRecord(ctx, rec)
	if err != nil {
		if errors.Cause(err) == ErrRecordExists {
			// lost the race against a concurrent check-in
			return Record{}, Verdict{}, ErrAlreadyCheckedIn
		}
		return Record{}, Verdict{}, errors.Wrap(err, "creating record")
	}
	return rec, verdict, nil
}

// CheckOut requires a prior check-in on today's record.
func (svc *service) CheckOut(ctx context.Context, userID string, sample geoloc.Sample) (Record, Verdict, error) {
	now := nowFunc()

	rec, err := svc.repo.GetRecord(ctx, userID, DateOf(now))
	if err != nil {
		if errors.Cause(err) == ErrNotFound {
			return Record{}, Verdict{}, ErrNotCheckedIn
		}
		return Record{}, Verdict{}, errors.Wrap(err, "getting today's record")
	}
	if !rec.CheckedIn() {
		return Record{}, Verdict{}, ErrNotCheckedIn
	}
	if rec.CheckedOut() {
		return Record{}, Verdict{}, ErrAlreadyCheckedOut
	}

	verdict := svc.fence.Classify(sample)
	rec.CheckOutTime = null.TimeFrom(now)
	rec.CheckOutStatus = null.StringFrom(string(verdict.Status))
	if !rec.TeacherValidated { // teacher input always wins
		rec.FinalStatus = CombineStatus(rec.CheckInStatus, rec.CheckOutStatus)
	}
	rec.UpdatedAt = now.UTC()

	rec, err = svc.repo.UpdateRecord(ctx, rec)
	if err != nil {
		return Record{}, Verdict{}, errors.Wrap(err, "updating record")
	}
	return rec, verdict, nil
}

func (svc *service) Today(ctx context.Context, userID string) (Record, error) {
	return svc.repo.GetRecord(ctx, userID, DateOf(nowFunc()))
}

func (svc *service) Day(ctx context.Context, date time.Time) ([]DayEntry, error) {
	return svc.repo.QueryDayEntries(ctx, DateOf(date))
}

// Validate is the teacher override: it supersedes the derived status and is
// sticky for the day. Repeated calls simply overwrite status/note/timestamp.
func (svc *service) Validate(ctx context.Context, recordID string, status Status, note string) (Record, error) {
	if !status.Valid() {
		return Record{}, core.NewValidationError(ErrInvalidStatus, core.FieldError{Field: "final_status", Error: ErrInvalidStatus.Error()})
	}

	rec, err := svc.repo.GetRecordByID(ctx, recordID)
	if err != nil {
		return Record{}, err
	}
	if !rec.CheckedIn() {
		return Record{}, ErrNotCheckedIn
	}

	now := nowFunc()
	rec.FinalStatus = null.StringFrom(string(status))
	rec.TeacherValidated = true
	rec.TeacherNote = null.NewString(note, note != "")
	rec.ValidatedAt = null.TimeFrom(now)
	rec.UpdatedAt = now.UTC()

	rec, err = svc.repo.UpdateRecord(ctx, rec)
	if err != nil {
		return Record{}, errors.Wrap(err, "updating record")
	}
	return rec, nil
}
