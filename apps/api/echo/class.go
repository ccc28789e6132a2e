package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/chekinout/core/class"
	"github.com/trezcool/chekinout/core/user"
)

type classApi struct {
	svc      class.Service
	validate *validator.Validate
}

func registerClassAPI(
	g *echo.Group,
	jwt echo.MiddlewareFunc,
	svc class.Service,
	validate *validator.Validate,
) {
	api := classApi{
		svc:      svc,
		validate: validate,
	}

	cg := g.Group("/classes", jwt)
	cg.GET("", api.query)
	cg.POST("", api.create, adminMiddleware())
	cg.DELETE("", api.destroyMultiple, adminMiddleware())

	// student endpoints
	cg.GET("/available", api.query, studentMiddleware())
	cg.POST("/join", api.join, studentMiddleware())

	dg := cg.Group("/:id")
	dg.GET("", api.retrieve)
	dg.GET("/students", api.students, teacherMiddleware())
	dg.PUT("/teacher", api.assignTeacher, adminMiddleware())
	dg.POST("/students", api.addStudent, adminMiddleware())
	dg.DELETE("/students/:studentID", api.removeStudent, adminMiddleware())
}

// Handlers

func (api *classApi) create(ctx echo.Context) error {
	var data class.NewClass
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewClass")
	}
	if err := data.Validate(api.validate, api.svc); err != nil {
		return err
	}

	cls, err := api.svc.Create(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating class")
	}
	return ctx.JSON(http.StatusCreated, cls)
}

func (api *classApi) query(ctx echo.Context) error {
	infos, err := api.svc.QueryAll(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "querying classes")
	}
	if infos == nil {
		infos = []class.Info{}
	}
	return ctx.JSON(http.StatusOK, infos)
}

func (api *classApi) retrieve(ctx echo.Context) error {
	cls, err := api.svc.GetByID(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		if errors.Cause(err) == class.ErrNotFound {
			return errHttpNotFound
		}
		return errors.Wrap(err, "finding class by ID")
	}
	return ctx.JSON(http.StatusOK, cls)
}

func (api *classApi) students(ctx echo.Context) error {
	students, err := api.svc.Students(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		if errors.Cause(err) == class.ErrNotFound {
			return errHttpNotFound
		}
		return errors.Wrap(err, "querying class students")
	}
	if students == nil {
		students = []user.User{}
	}
	return ctx.JSON(http.StatusOK, students)
}

// join enrolls the authenticated student in a class of their choosing.
func (api *classApi) join(ctx echo.Context) error {
	var data JoinClassRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to JoinClassRequest")
	}
	if err := api.validate.Struct(&data); err != nil {
		return err
	}

	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	if err := api.svc.AddStudent(ctx.Request().Context(), data.ClassID, claims.Subject); err != nil {
		switch errors.Cause(err) {
		case class.ErrNotFound, user.ErrNotFound:
			return errHttpNotFound
		case class.ErrNotStudent, class.ErrStudentHasClass:
			return echo.NewHTTPError(http.StatusConflict, errors.Cause(err).Error())
		}
		return errors.Wrap(err, "joining class")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *classApi) assignTeacher(ctx echo.Context) error {
	var data AssignTeacherRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to AssignTeacherRequest")
	}
	if err := api.validate.Struct(&data); err != nil {
		return err
	}

	cls, err := api.svc.AssignTeacher(ctx.Request().Context(), ctx.Param("id"), data.TeacherID)
	if err != nil {
		switch errors.Cause(err) {
		case class.ErrNotFound, user.ErrNotFound:
			return errHttpNotFound
		case class.ErrNotTeacher:
			return echo.NewHTTPError(http.StatusConflict, class.ErrNotTeacher.Error())
		}
		return errors.Wrap(err, "assigning teacher")
	}
	return ctx.JSON(http.StatusOK, cls)
}

func (api *classApi) addStudent(ctx echo.Context) error {
	var data AddStudentRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to AddStudentRequest")
	}
	if err := api.validate.Struct(&data); err != nil {
		return err
	}

	if err := api.svc.AddStudent(ctx.Request().Context(), ctx.Param("id"), data.StudentID); err != nil {
		switch errors.Cause(err) {
		case class.ErrNotFound, user.ErrNotFound:
			return errHttpNotFound
		case class.ErrNotStudent, class.ErrStudentHasClass:
			return echo.NewHTTPError(http.StatusConflict, errors.Cause(err).Error())
		}
		return errors.Wrap(err, "adding student to class")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *classApi) removeStudent(ctx echo.Context) error {
	if err := api.svc.RemoveStudent(ctx.Request().Context(), ctx.Param("studentID")); err != nil {
		if errors.Cause(err) == user.ErrNotFound {
			return errHttpNotFound
		}
		return errors.Wrap(err, "removing student from class")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *classApi) destroyMultiple(ctx echo.Context) error {
	var query DestroyMultipleRequest
	if err := ctx.Bind(&query); err != nil {
		return errors.Wrap(err, "binding to DestroyMultipleRequest")
	}
	if query.IDs == nil {
		return ctx.NoContent(http.StatusNoContent)
	}

	if err := api.svc.Delete(ctx.Request().Context(), query.IDs...); err != nil {
		return errors.Wrap(err, "deleting classes")
	}
	return ctx.NoContent(http.StatusNoContent)
}

type (
	JoinClassRequest struct {
		ClassID string `json:"class_id" validate:"required"`
	}

	AssignTeacherRequest struct {
		TeacherID string `json:"teacher_id" validate:"required"`
	}

	AddStudentRequest struct {
		StudentID string `json:"student_id" validate:"required"`
	}
)
