package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/lunedance/lune/core/enrollment"
)

func (h handler) registerEnrollmentAPI(g *echo.Group) {
	eg := g.Group("/enrollment")
	eg.POST("", h.createEnrollment)
	eg.GET("/:id", h.retrieveEnrollment)
	eg.PATCH("/:id", h.updateEnrollment)
	eg.DELETE("/:id", h.destroyEnrollment)
	eg.POST("/renew/:id", h.renewEnrollment)
	eg.POST("/cancel/:id", h.cancelEnrollment)
}

func (h handler) createEnrollment(ctx echo.Context) error {
	var data enrollment.NewEnrollment
	if err := h.bind(ctx, &data, "NewEnrollment"); err != nil {
		return err
	}
	d, err := h.opts.Enrollments.Create(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating enrollment")
	}
	return ctx.JSON(http.StatusCreated, d)
}

func (h handler) retrieveEnrollment(ctx echo.Context) error {
	d, err := h.opts.Enrollments.Get(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "getting enrollment")
	}
	return ctx.JSON(http.StatusOK, d)
}

func (h handler) updateEnrollment(ctx echo.Context) error {
	var data enrollment.UpdateEnrollment
	if err := h.bind(ctx, &data, "UpdateEnrollment"); err != nil {
		return err
	}
	d, err := h.opts.Enrollments.Update(ctx.Request().Context(), ctx.Param("id"), data)
	if err != nil {
		return errors.Wrap(err, "updating enrollment")
	}
	return ctx.JSON(http.StatusOK, d)
}

func (h handler) destroyEnrollment(ctx echo.Context) error {
	if err := h.opts.Enrollments.Remove(ctx.Request().Context(), ctx.Param("id")); err != nil {
		return errors.Wrap(err, "deleting enrollment")
	}
	return noContent(ctx)
}

func (h handler) renewEnrollment(ctx echo.Context) error {
	var data enrollment.Renewal
	if err := h.bind(ctx, &data, "Renewal"); err != nil {
		return err
	}
	d, err := h.opts.Enrollments.Renew(ctx.Request().Context(), ctx.Param("id"), data)
	if err != nil {
		return errors.Wrap(err, "renewing enrollment")
	}
	return ctx.JSON(http.StatusCreated, d)
}

func (h handler) cancelEnrollment(ctx echo.Context) error {
	e, err := h.opts.Enrollments.Cancel(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "canceling enrollment")
	}
	return ctx.JSON(http.StatusOK, e)
}
