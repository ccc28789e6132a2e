package class

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/chekinout/core"
	"github.com/trezcool/chekinout/core/user"
)

var (
	// errors
	ErrNotFound        = errors.New("class not found")
	ErrNameExists      = errors.New("a class with this name already exists")
	ErrStudentHasClass = errors.New("student already belongs to a class")
	ErrNotStudent      = errors.New("user is not a student")
	ErrNotTeacher      = errors.New("user is not a teacher")
)

type (
	Repository interface {
		CheckNameUniqueness(ctx context.Context, name string, excludedClasses ...Class) error
		CreateClass(ctx context.Context, cls Class) (Class, error)
		GetClassByID(ctx context.Context, id string) (Class, error)
		QueryAllClasses(ctx context.Context) ([]Class, error)
		UpdateClass(ctx context.Context, cls Class) (Class, error)
		DeleteClassesByID(ctx context.Context, ids ...string) error
	}

	Service interface {
		CheckNameUniqueness(name string, exclClasses ...Class) error
		Create(ctx context.Context, nc NewClass) (Class, error)
		GetByID(ctx context.Context, id string) (Class, error)
		QueryAll(ctx context.Context) ([]Info, error)
		AssignTeacher(ctx context.Context, classID, teacherID string) (Class, error)
		AddStudent(ctx context.Context, classID, studentID string) error
		RemoveStudent(ctx context.Context, studentID string) error
		Students(ctx context.Context, classID string) ([]user.User, error)
		Delete(ctx context.Context, ids ...string) error
	}

	service struct {
		repo    Repository
		usrRepo user.Repository
	}
)

var _ Service = (*service)(nil) // interface compliance check

func NewService(repo Repository, usrRepo user.Repository) Service {
	return &service{
		repo:    repo,
		usrRepo: usrRepo,
	}
}

func (svc *service) CheckNameUniqueness(name string, exclClasses ...Class) error {
	if err := svc.repo.CheckNameUniqueness(context.Background(), name, exclClasses...); err != nil {
		if errors.Cause(err) == ErrNameExists {
			return core.NewValidationError(err, core.FieldError{Field: "name", Error: err.Error()})
		}
		return err
	}
	return nil
}

func (svc *service) Create(ctx context.Context, nc NewClass) (Class, error) {
	now := time.Now().UTC()
	cls := Class{
		ID:         uuid.New().String(),
		Name:       nc.Name,
		GradeLevel: nc.GradeLevel,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	return svc.repo.CreateClass(ctx, cls)
}

func (svc *service) GetByID(ctx context.Context, id string) (Class, error) {
	return svc.repo.GetClassByID(ctx, id)
}

func (svc *service) QueryAll(ctx context.Context) ([]Info, error) {
	classes, err := svc.repo.QueryAllClasses(ctx)
	if err != nil {
		return nil, err
	}

	infos := make([]Info, 0, len(classes))
	for _, cls := range classes {
		info := Info{Class: cls}
		if cls.TeacherID.Valid {
			if tchr, err := svc.usrRepo.GetUserByID(ctx, cls.TeacherID.String); err == nil {
				info.TeacherName = tchr.Name
			}
		}
		students, err := svc.usrRepo.FilterUsers(ctx, user.QueryFilter{ClassID: cls.ID})
		if err != nil {
			return nil, errors.Wrap(err, "counting students")
		}
		info.StudentCount = len(students)
		infos = append(infos, info)
	}
	return infos, nil
}

// AssignTeacher sets the homeroom teacher of a class.
func (svc *service) AssignTeacher(ctx context.Context, classID, teacherID string) (Class, error) {
	cls, err := svc.repo.GetClassByID(ctx, classID)
	if err != nil {
		return Class{}, err
	}
	tchr, err := svc.usrRepo.GetUserByID(ctx, teacherID)
	if err != nil {
		return Class{}, err
	}
	if !tchr.IsTeacher() {
		return Class{}, ErrNotTeacher
	}

	cls.TeacherID = null.StringFrom(tchr.ID)
	cls.UpdatedAt = time.Now().UTC()
	return svc.repo.UpdateClass(ctx, cls)
}

// AddStudent enrolls a student in a class. A student belongs to at most
// one class; enrolling an already enrolled student fails.
func (svc *service) AddStudent(ctx context.Context, classID, studentID string) error {
	cls, err := svc.repo.GetClassByID(ctx, classID)
	if err != nil {
		return err
	}
	std, err := svc.usrRepo.GetUserByID(ctx, studentID)
	if err != nil {
		return err
	}
	if !std.IsStudent() {
		return ErrNotStudent
	}
	if std.ClassID.Valid {
		return ErrStudentHasClass
	}
	return svc.usrRepo.UpdateUserClass(ctx, std.ID, null.StringFrom(cls.ID))
}

func (svc *service) RemoveStudent(ctx context.Context, studentID string) error {
	std, err := svc.usrRepo.GetUserByID(ctx, studentID)
	if err != nil {
		return err
	}
	return svc.usrRepo.UpdateUserClass(ctx, std.ID, null.String{})
}

func (svc *service) Students(ctx context.Context, classID string) ([]user.User, error) {
	if _, err := svc.repo.GetClassByID(ctx, classID); err != nil {
		return nil, err
	}
	return svc.usrRepo.FilterUsers(ctx, user.QueryFilter{ClassID: classID})
}

func (svc *service) Delete(ctx context.Context, ids ...string) error {
	return svc.repo.DeleteClassesByID(ctx, ids...)
}
