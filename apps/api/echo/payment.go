package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/lunedance/lune/core/dashboard"
	"github.com/lunedance/lune/core/payment"
)

func (h handler) registerPaymentAPI(g *echo.Group) {
	pg := g.Group("/payments")
	pg.GET("", h.queryPayments)
	pg.GET("/dashboard", h.financialDashboard)
	pg.PATCH("/toggle/:id", h.togglePayment)
	pg.PATCH("/:id", h.updatePayment)
	pg.DELETE("/:id", h.destroyPayment)
}

func (h handler) queryPayments(ctx echo.Context) error {
	var qf payment.QueryFilter
	if err := h.bind(ctx, &qf, "payment.QueryFilter"); err != nil {
		return err
	}
	views, err := h.opts.Payments.List(ctx.Request().Context(), qf)
	if err != nil {
		return errors.Wrap(err, "listing payments")
	}
	return ctx.JSON(http.StatusOK, emptyIfNil(views))
}

func (h handler) financialDashboard(ctx echo.Context) error {
	var q dashboard.Query
	if err := h.bind(ctx, &q, "dashboard.Query"); err != nil {
		return err
	}
	f, err := h.opts.Dashboard.Financial(ctx.Request().Context(), q)
	if err != nil {
		return errors.Wrap(err, "computing financial dashboard")
	}
	return ctx.JSON(http.StatusOK, f)
}

func (h handler) togglePayment(ctx echo.Context) error {
	p, err := h.opts.Payments.Toggle(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "toggling payment")
	}
	return ctx.JSON(http.StatusOK, p)
}

func (h handler) updatePayment(ctx echo.Context) error {
	var data payment.UpdatePayment
	if err := h.bind(ctx, &data, "UpdatePayment"); err != nil {
		return err
	}
	p, err := h.opts.Payments.Update(ctx.Request().Context(), ctx.Param("id"), data)
	if err != nil {
		return errors.Wrap(err, "updating payment")
	}
	return ctx.JSON(http.StatusOK, p)
}

func (h handler) destroyPayment(ctx echo.Context) error {
	if err := h.opts.Payments.Delete(ctx.Request().Context(), ctx.Param("id")); err != nil {
		return errors.Wrap(err, "deleting payment")
	}
	return noContent(ctx)
}
