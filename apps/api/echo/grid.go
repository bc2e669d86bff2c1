package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/lunedance/lune/core"
	"github.com/lunedance/lune/core/class"
	"github.com/lunedance/lune/core/grid"
)

// ScheduleResponse is a class along with its weekly slots.
type ScheduleResponse struct {
	Class class.Class `json:"class"`
	Items []grid.Item `json:"items"`
}

func (h handler) registerGridAPI(v1 *echo.Group, jwt echo.MiddlewareFunc, staff *echo.Group) {
	staff.GET("/grid-items", h.weeklySchedule)
	staff.GET("/grid-items/list", h.queryGridItems)
	staff.POST("/grid-items", h.createSchedule)
	staff.GET("/grid-items/:id", h.retrieveGridItem)
	staff.DELETE("/grid-items/:id", h.destroyGridItem)
	staff.PATCH("/grid-items/class/:classId", h.updateSchedule)
	staff.PATCH("/grid-items/item/:id", h.updateGridItem)

	v1.GET("/grid-items/teacher/today", h.teacherAgenda, jwt, requireKind(core.PrincipalTeacher))
}

func (h handler) weeklySchedule(ctx echo.Context) error {
	var filter grid.ScheduleFilter
	if err := ctx.Bind(&filter); err != nil {
		return errors.Wrap(err, "binding to ScheduleFilter")
	}
	s, err := h.opts.Grid.Schedule(ctx.Request().Context(), filter)
	if err != nil {
		return errors.Wrap(err, "building schedule")
	}
	s.Blocks = emptyIfNil(s.Blocks)
	return ctx.JSON(http.StatusOK, s)
}

func (h handler) queryGridItems(ctx echo.Context) error {
	items, err := h.opts.Grid.ListItems(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "listing grid items")
	}
	return ctx.JSON(http.StatusOK, emptyIfNil(items))
}

func (h handler) createSchedule(ctx echo.Context) error {
	var data grid.NewSchedule
	if err := h.bind(ctx, &data, "NewSchedule"); err != nil {
		return err
	}
	c, items, err := h.opts.Grid.Create(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating schedule")
	}
	return ctx.JSON(http.StatusCreated, ScheduleResponse{Class: c, Items: emptyIfNil(items)})
}

func (h handler) retrieveGridItem(ctx echo.Context) error {
	it, err := h.opts.Grid.Get(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "getting grid item")
	}
	return ctx.JSON(http.StatusOK, it)
}

func (h handler) destroyGridItem(ctx echo.Context) error {
	if err := h.opts.Grid.Remove(ctx.Request().Context(), ctx.Param("id")); err != nil {
		return errors.Wrap(err, "deleting grid item")
	}
	return noContent(ctx)
}

func (h handler) updateSchedule(ctx echo.Context) error {
	var data grid.UpdateSchedule
	if err := h.bind(ctx, &data, "UpdateSchedule"); err != nil {
		return err
	}
	c, items, err := h.opts.Grid.Update(ctx.Request().Context(), ctx.Param("classId"), data)
	if err != nil {
		return errors.Wrap(err, "updating schedule")
	}
	return ctx.JSON(http.StatusOK, ScheduleResponse{Class: c, Items: emptyIfNil(items)})
}

func (h handler) updateGridItem(ctx echo.Context) error {
	var data grid.Slot
	if err := h.bind(ctx, &data, "Slot"); err != nil {
		return err
	}
	it, err := h.opts.Grid.UpdateItem(ctx.Request().Context(), ctx.Param("id"), data)
	if err != nil {
		return errors.Wrap(err, "updating grid item")
	}
	return ctx.JSON(http.StatusOK, it)
}

// teacherAgenda lists today's classes of the authenticated teacher.
func (h handler) teacherAgenda(ctx echo.Context) error {
	p, err := contextPrincipal(ctx)
	if err != nil {
		return err
	}
	entries, err := h.opts.Grid.TeacherAgenda(ctx.Request().Context(), p.ID)
	if err != nil {
		return errors.Wrap(err, "building teacher agenda")
	}
	return ctx.JSON(http.StatusOK, emptyIfNil(entries))
}
