package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/lunedance/lune/core/lead"
)

func (h handler) registerLeadAPI(g *echo.Group) {
	lg := g.Group("/leads")
	lg.GET("", h.queryLeads)
	lg.POST("", h.createLead)
	lg.GET("/:id", h.retrieveLead)
	lg.PATCH("/:id", h.updateLead)
	lg.DELETE("/:id", h.destroyLead)
}

func (h handler) queryLeads(ctx echo.Context) error {
	var q lead.Query
	if err := h.bind(ctx, &q, "lead.Query"); err != nil {
		return err
	}
	listing, err := h.opts.Leads.List(ctx.Request().Context(), q)
	if err != nil {
		return errors.Wrap(err, "listing leads")
	}
	listing.Value = emptyIfNil(listing.Value)
	return ctx.JSON(http.StatusOK, listing)
}

func (h handler) createLead(ctx echo.Context) error {
	var data lead.NewLead
	if err := h.bind(ctx, &data, "NewLead"); err != nil {
		return err
	}
	l, err := h.opts.Leads.Create(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating lead")
	}
	return ctx.JSON(http.StatusCreated, l)
}

func (h handler) retrieveLead(ctx echo.Context) error {
	l, err := h.opts.Leads.Get(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "getting lead")
	}
	return ctx.JSON(http.StatusOK, l)
}

func (h handler) updateLead(ctx echo.Context) error {
	var data lead.UpdateLead
	if err := h.bind(ctx, &data, "UpdateLead"); err != nil {
		return err
	}
	l, err := h.opts.Leads.Update(ctx.Request().Context(), ctx.Param("id"), data)
	if err != nil {
		return errors.Wrap(err, "updating lead")
	}
	return ctx.JSON(http.StatusOK, l)
}

func (h handler) destroyLead(ctx echo.Context) error {
	if err := h.opts.Leads.Remove(ctx.Request().Context(), ctx.Param("id")); err != nil {
		return errors.Wrap(err, "deleting lead")
	}
	return noContent(ctx)
}
