package class_test

import (
	"context"
	"testing"

	"github.com/pkg/errors"
	"github.com/trezcool/chekinout/core/class"
	"github.com/trezcool/chekinout/core/user"
	dummydb "github.com/trezcool/chekinout/storage/database/dummy"
)

func newTestService(t *testing.T) (class.Service, user.Repository) {
	t.Helper()
	db, err := dummydb.Open()
	if err != nil {
		t.Fatalf("opening db: %v", err)
	}
	usrRepo := dummydb.NewUserRepository(db)
	return class.NewService(dummydb.NewClassRepository(db), usrRepo), usrRepo
}

func createUser(t *testing.T, repo user.Repository, name string, roles []string) user.User {
	t.Helper()
	usr := user.User{
		Name:  name,
		Email: name + "@smantest.sch.id",
		Roles: roles,
	}
	usr.SetActive(true)
	usr, err := repo.CreateUser(context.Background(), usr)
	if err != nil {
		t.Fatalf("creating user: %v", err)
	}
	return usr
}

func TestService_enrollment(t *testing.T) {
	svc, usrRepo := newTestService(t)
	ctx := context.Background()

	cls, err := svc.Create(ctx, class.NewClass{Name: "X IPA 1", GradeLevel: 10})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	other, err := svc.Create(ctx, class.NewClass{Name: "X IPA 2", GradeLevel: 10})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	std := createUser(t, usrRepo, "budi", user.StudentRoles)
	tchr := createUser(t, usrRepo, "pak.dodi", user.TeacherRoles)

	if err := svc.AddStudent(ctx, cls.ID, std.ID); err != nil {
		t.Fatalf("AddStudent() error = %v", err)
	}
	// a student belongs to at most one class
	if err := svc.AddStudent(ctx, other.ID, std.ID); errors.Cause(err) != class.ErrStudentHasClass {
		t.Errorf("AddStudent() error = %v, want %v", err, class.ErrStudentHasClass)
	}
	if err := svc.AddStudent(ctx, cls.ID, tchr.ID); errors.Cause(err) != class.ErrNotStudent {
		t.Errorf("AddStudent() error = %v, want %v", err, class.ErrNotStudent)
	}

	students, err := svc.Students(ctx, cls.ID)
	if err != nil {
		t.Fatalf("Students() error = %v", err)
	}
	if len(students) != 1 || students[0].ID != std.ID {
		t.Errorf("Students() = %+v, want [%s]", students, std.ID)
	}

	if err := svc.RemoveStudent(ctx, std.ID); err != nil {
		t.Fatalf("RemoveStudent() error = %v", err)
	}
	if err := svc.AddStudent(ctx, other.ID, std.ID); err != nil {
		t.Errorf("AddStudent() after removal error = %v", err)
	}
}

func TestService_assignTeacher(t *testing.T) {
	svc, usrRepo := newTestService(t)
	ctx := context.Background()

	cls, err := svc.Create(ctx, class.NewClass{Name: "XI IPS 1", GradeLevel: 11})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	std := createUser(t, usrRepo, "siti", user.StudentRoles)
	tchr := createUser(t, usrRepo, "bu.rina", user.TeacherRoles)

	if _, err := svc.AssignTeacher(ctx, cls.ID, std.ID); errors.Cause(err) != class.ErrNotTeacher {
		t.Errorf("AssignTeacher() error = %v, want %v", err, class.ErrNotTeacher)
	}

	cls, err = svc.AssignTeacher(ctx, cls.ID, tchr.ID)
	if err != nil {
		t.Fatalf("AssignTeacher() error = %v", err)
	}
	if !cls.TeacherID.Valid || cls.TeacherID.String != tchr.ID {
		t.Errorf("TeacherID = %v, want %v", cls.TeacherID, tchr.ID)
	}

	infos, err := svc.QueryAll(ctx)
	if err != nil {
		t.Fatalf("QueryAll() error = %v", err)
	}
	if len(infos) != 1 {
		t.Fatalf("QueryAll() len = %d, want 1", len(infos))
	}
	if infos[0].TeacherName != tchr.Name {
		t.Errorf("TeacherName = %q, want %q", infos[0].TeacherName, tchr.Name)
	}
}
