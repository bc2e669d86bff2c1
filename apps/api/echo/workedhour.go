package echoapi

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/lunedance/lune/core"
	"github.com/lunedance/lune/core/workedhour"
)

type CountResponse struct {
	Count int `json:"count"`
}

func (h handler) registerWorkedHourAPI(v1 *echo.Group, jwt echo.MiddlewareFunc, staff *echo.Group) {
	wg := staff.Group("/worked-hours")
	wg.GET("", h.monthlyPayroll)
	wg.GET("/by-teacher", h.payrollByTeacher)
	wg.GET("/pending-count", h.pendingWorkedHours)
	wg.GET("/teacher/:id", h.teacherMonth)
	wg.POST("", h.createWorkedHour)
	wg.POST("/batch", h.createWorkedHourBatch)
	wg.PATCH("/:id", h.updateWorkedHour)
	wg.PATCH("/:id/teacher", h.updateWorkedHourTeacher)
	wg.DELETE("/:id", h.destroyWorkedHour)

	v1.PATCH("/worked-hours/:id/status", h.updateWorkedHourStatus,
		jwt, requireKind(core.PrincipalStaff, core.PrincipalTeacher))
}

func (h handler) monthlyPayroll(ctx echo.Context) error {
	var q workedhour.MonthQuery
	if err := h.bind(ctx, &q, "MonthQuery"); err != nil {
		return err
	}
	r, err := h.opts.WorkedHours.MonthlyReport(ctx.Request().Context(), q.Year, time.Month(q.Month))
	if err != nil {
		return errors.Wrap(err, "building payroll report")
	}
	r.WorkedHours = emptyIfNil(r.WorkedHours)
	return ctx.JSON(http.StatusOK, r)
}

func (h handler) payrollByTeacher(ctx echo.Context) error {
	var q workedhour.MonthQuery
	if err := h.bind(ctx, &q, "MonthQuery"); err != nil {
		return err
	}
	payroll, err := h.opts.WorkedHours.ByTeacher(ctx.Request().Context(), q.Year, time.Month(q.Month))
	if err != nil {
		return errors.Wrap(err, "building payroll by teacher")
	}
	return ctx.JSON(http.StatusOK, emptyIfNil(payroll))
}

func (h handler) pendingWorkedHours(ctx echo.Context) error {
	n, err := h.opts.WorkedHours.PendingCount(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "counting pending worked hours")
	}
	return ctx.JSON(http.StatusOK, CountResponse{Count: n})
}

func (h handler) teacherMonth(ctx echo.Context) error {
	year, month, err := queryYearMonth(ctx, h.opts.Now())
	if err != nil {
		return err
	}
	tm, err := h.opts.WorkedHours.TeacherMonth(ctx.Request().Context(), ctx.Param("id"), year, month)
	if err != nil {
		return errors.Wrap(err, "building teacher month")
	}
	tm.WorkedDetails = emptyIfNil(tm.WorkedDetails)
	return ctx.JSON(http.StatusOK, tm)
}

func (h handler) createWorkedHour(ctx echo.Context) error {
	var data workedhour.NewWorkedHour
	if err := h.bind(ctx, &data, "NewWorkedHour"); err != nil {
		return err
	}
	wh, err := h.opts.WorkedHours.Create(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating worked hour")
	}
	return ctx.JSON(http.StatusCreated, wh)
}

// createWorkedHourBatch runs the daily batch on demand.
func (h handler) createWorkedHourBatch(ctx echo.Context) error {
	n, err := h.opts.WorkedHours.CreateBatch(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "creating worked hours batch")
	}
	return ctx.JSON(http.StatusCreated, CountResponse{Count: n})
}

func (h handler) updateWorkedHour(ctx echo.Context) error {
	var data workedhour.UpdateWorkedHour
	if err := h.bind(ctx, &data, "UpdateWorkedHour"); err != nil {
		return err
	}
	wh, err := h.opts.WorkedHours.Update(ctx.Request().Context(), ctx.Param("id"), data)
	if err != nil {
		return errors.Wrap(err, "updating worked hour")
	}
	return ctx.JSON(http.StatusOK, wh)
}

func (h handler) updateWorkedHourTeacher(ctx echo.Context) error {
	var data workedhour.UpdateTeacher
	if err := h.bind(ctx, &data, "workedhour.UpdateTeacher"); err != nil {
		return err
	}
	wh, err := h.opts.WorkedHours.UpdateTeacher(ctx.Request().Context(), ctx.Param("id"), data.TeacherID)
	if err != nil {
		return errors.Wrap(err, "updating worked hour teacher")
	}
	return ctx.JSON(http.StatusOK, wh)
}

func (h handler) updateWorkedHourStatus(ctx echo.Context) error {
	p, err := contextPrincipal(ctx)
	if err != nil {
		return err
	}
	var data workedhour.UpdateStatus
	if err := h.bind(ctx, &data, "UpdateStatus"); err != nil {
		return err
	}
	wh, err := h.opts.WorkedHours.UpdateStatus(ctx.Request().Context(), ctx.Param("id"), data.Status, p)
	if err != nil {
		return errors.Wrap(err, "updating worked hour status")
	}
	return ctx.JSON(http.StatusOK, wh)
}

func (h handler) destroyWorkedHour(ctx echo.Context) error {
	if err := h.opts.WorkedHours.Remove(ctx.Request().Context(), ctx.Param("id")); err != nil {
		return errors.Wrap(err, "deleting worked hour")
	}
	return noContent(ctx)
}
