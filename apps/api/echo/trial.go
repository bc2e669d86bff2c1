package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/lunedance/lune/core/trial"
)

func (h handler) registerTrialAPI(g *echo.Group) {
	tg := g.Group("/trial-students")
	tg.GET("", h.queryTrials)
	tg.POST("", h.createTrial)
	tg.GET("/:id", h.retrieveTrial)
	tg.PATCH("/:id", h.updateTrial)
	tg.DELETE("/:id", h.destroyTrial)
}

func (h handler) queryTrials(ctx echo.Context) error {
	listing, err := h.opts.Trials.List(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "listing trial students")
	}
	listing.List = emptyIfNil(listing.List)
	return ctx.JSON(http.StatusOK, listing)
}

func (h handler) createTrial(ctx echo.Context) error {
	var data trial.NewTrial
	if err := h.bind(ctx, &data, "NewTrial"); err != nil {
		return err
	}
	d, err := h.opts.Trials.Create(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating trial student")
	}
	return ctx.JSON(http.StatusCreated, d)
}

func (h handler) retrieveTrial(ctx echo.Context) error {
	d, err := h.opts.Trials.Get(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "getting trial student")
	}
	return ctx.JSON(http.StatusOK, d)
}

func (h handler) updateTrial(ctx echo.Context) error {
	var data trial.UpdateTrial
	if err := h.bind(ctx, &data, "UpdateTrial"); err != nil {
		return err
	}
	d, err := h.opts.Trials.Update(ctx.Request().Context(), ctx.Param("id"), data)
	if err != nil {
		return errors.Wrap(err, "updating trial student")
	}
	return ctx.JSON(http.StatusOK, d)
}

func (h handler) destroyTrial(ctx echo.Context) error {
	if err := h.opts.Trials.Remove(ctx.Request().Context(), ctx.Param("id")); err != nil {
		return errors.Wrap(err, "deleting trial student")
	}
	return noContent(ctx)
}
