package class

import (
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/chekinout/core"
)

type Class struct {
	ID         string      `json:"id" db:"id"`
	Name       string      `json:"name" db:"name"`
	GradeLevel int         `json:"grade_level" db:"grade_level"`
	TeacherID  null.String `json:"teacher_id" db:"teacher_id"`
	CreatedAt  time.Time   `json:"created_at" db:"created_at"` // UTC
	UpdatedAt  time.Time   `json:"updated_at" db:"updated_at"` // UTC
}

// Info is a Class decorated with membership details for listings.
type Info struct {
	Class
	TeacherName  string `json:"teacher_name,omitempty"`
	StudentCount int    `json:"student_count"`
}

// NewClass contains information needed to create a new Class.
type NewClass struct {
	Name       string `json:"name" validate:"required"`
	GradeLevel int    `json:"grade_level" validate:"required,gt=0"`
}

func (nc *NewClass) Validate(validate *validator.Validate, svc Service) error {
	nc.Name = core.CleanString(nc.Name)
	if err := validate.Struct(nc); err != nil {
		return err
	}
	return svc.CheckNameUniqueness(nc.Name)
}
