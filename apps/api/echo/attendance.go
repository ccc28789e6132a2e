package echoapi

import (
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/chekinout/core"
	"github.com/trezcool/chekinout/core/attendance"
	"github.com/trezcool/chekinout/core/geoloc"
)

type attendanceApi struct {
	svc      attendance.Service
	conf     *core.Config
	validate *validator.Validate
}

func registerAttendanceAPI(
	g *echo.Group,
	jwt echo.MiddlewareFunc,
	svc attendance.Service,
	conf *core.Config,
	validate *validator.Validate,
) {
	api := attendanceApi{
		svc:      svc,
		conf:     conf,
		validate: validate,
	}

	ag := g.Group("/attendance", jwt)
	ag.GET("/config", api.config)

	// student endpoints
	ag.POST("/check-in", api.checkIn, studentMiddleware())
	ag.POST("/check-out", api.checkOut, studentMiddleware())
	ag.GET("/today", api.today, studentMiddleware())

	// teacher endpoints
	ag.GET("/day", api.day, teacherMiddleware())
	ag.POST("/:id/validate", api.validateRecord, teacherMiddleware())
}

// Handlers

// config hands clients the acquisition budgets and the geofence so the mobile
// app can sample positions and render the school area without hardcoding them.
func (api *attendanceApi) config(ctx echo.Context) error {
	return ctx.JSON(http.StatusOK, AttendanceConfigResponse{
		SchoolName:          api.conf.School.Name,
		Latitude:            api.conf.School.Latitude,
		Longitude:           api.conf.School.Longitude,
		GeofenceRadiusM:     api.conf.School.GeofenceRadiusM,
		AcceptableAccuracyM: api.conf.School.AcceptableAccuracyM,
		AccuracyGoalM:       api.conf.Geoloc.AccuracyGoalM,
		MaxAttempts:         api.conf.Geoloc.MaxAttempts,
		TimeoutMs:           api.conf.Geoloc.TimeoutMs,
	})
}

func (api *attendanceApi) checkIn(ctx echo.Context) error {
	sample, err := api.bindSample(ctx)
	if err != nil {
		return err
	}

	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	rec, verdict, err := api.svc.CheckIn(ctx.Request().Context(), claims.Subject, sample)
	if err != nil {
		return wrapAttendanceError(err, "checking in")
	}
	return ctx.JSON(http.StatusCreated, CheckResponse{Attendance: rec, Status: verdict.Status, Message: verdict.Message})
}

func (api *attendanceApi) checkOut(ctx echo.Context) error {
	sample, err := api.bindSample(ctx)
	if err != nil {
		return err
	}

	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	rec, verdict, err := api.svc.CheckOut(ctx.Request().Context(), claims.Subject, sample)
	if err != nil {
		return wrapAttendanceError(err, "checking out")
	}
	return ctx.JSON(http.StatusOK, CheckResponse{Attendance: rec, Status: verdict.Status, Message: verdict.Message})
}

// today returns the student's record for the current day; null when they have
// not checked in yet.
func (api *attendanceApi) today(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	rec, err := api.svc.Today(ctx.Request().Context(), claims.Subject)
	if err != nil {
		if errors.Cause(err) == attendance.ErrNotFound {
			return ctx.JSON(http.StatusOK, TodayResponse{})
		}
		return errors.Wrap(err, "getting today's record")
	}
	return ctx.JSON(http.StatusOK, TodayResponse{Attendance: &rec})
}

// day returns the roster for a given date (`?date=2006-01-02`, default today).
func (api *attendanceApi) day(ctx echo.Context) error {
	date := time.Now()
	if raw := ctx.QueryParam("date"); raw != "" {
		var err error
		// parse in the server's zone; records carry server-local days
		if date, err = time.ParseInLocation("2006-01-02", raw, time.Local); err != nil {
			return core.NewValidationError(nil, core.FieldError{Field: "date", Error: "invalid date, expected YYYY-MM-DD"})
		}
	}

	entries, err := api.svc.Day(ctx.Request().Context(), date)
	if err != nil {
		return errors.Wrap(err, "querying day entries")
	}
	if entries == nil {
		entries = []attendance.DayEntry{}
	}
	return ctx.JSON(http.StatusOK, entries)
}

func (api *attendanceApi) validateRecord(ctx echo.Context) error {
	var data ValidateRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to ValidateRequest")
	}
	if err := api.validate.Struct(&data); err != nil {
		return err
	}

	rec, err := api.svc.Validate(ctx.Request().Context(), ctx.Param("id"), attendance.Status(data.FinalStatus), data.Note)
	if err != nil {
		switch errors.Cause(err) {
		case attendance.ErrNotFound:
			return errHttpNotFound
		case attendance.ErrNotCheckedIn:
			return echo.NewHTTPError(http.StatusConflict, attendance.ErrNotCheckedIn.Error())
		}
		return errors.Wrap(err, "validating record")
	}
	return ctx.JSON(http.StatusOK, rec)
}

func (api *attendanceApi) bindSample(ctx echo.Context) (geoloc.Sample, error) {
	var sample geoloc.Sample
	if err := ctx.Bind(&sample); err != nil {
		return geoloc.Sample{}, errors.Wrap(err, "binding to Sample")
	}
	if err := api.validate.Struct(&sample); err != nil {
		return geoloc.Sample{}, err
	}
	return sample, nil
}

// wrapAttendanceError maps state machine violations to 409s so clients can
// tell a stale UI from a real failure.
func wrapAttendanceError(err error, msg string) error {
	switch errors.Cause(err) {
	case attendance.ErrAlreadyCheckedIn, attendance.ErrNotCheckedIn, attendance.ErrAlreadyCheckedOut:
		return echo.NewHTTPError(http.StatusConflict, errors.Cause(err).Error())
	}
	return errors.Wrap(err, msg)
}

type (
	CheckResponse struct {
		Attendance attendance.Record `json:"attendance"`
		Status     attendance.Status `json:"status"`
		Message    string            `json:"message"`
	}

	TodayResponse struct {
		Attendance *attendance.Record `json:"attendance"`
	}

	ValidateRequest struct {
		FinalStatus string `json:"final_status" validate:"required"`
		Note        string `json:"note"`
	}

	AttendanceConfigResponse struct {
		SchoolName          string  `json:"school_name"`
		Latitude            float64 `json:"latitude"`
		Longitude           float64 `json:"longitude"`
		GeofenceRadiusM     float64 `json:"geofence_radius_m"`
		AcceptableAccuracyM float64 `json:"acceptable_accuracy_m"`
		AccuracyGoalM       float64 `json:"accuracy_goal_m"`
		MaxAttempts         int     `json:"max_attempts"`
		TimeoutMs           int     `json:"timeout_ms"`
	}
)
