package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/lunedance/lune/core/expense"
)

func (h handler) registerExpenseAPI(g *echo.Group) {
	eg := g.Group("/expenses")
	eg.GET("", h.queryExpenses)
	eg.POST("", h.createExpense)
	eg.GET("/pending-count", h.pendingExpenses)
	eg.GET("/:id", h.retrieveExpense)
	eg.PATCH("/:id", h.updateExpense)
	eg.PATCH("/:id/pay", h.payExpense)
	eg.PATCH("/:id/unpay", h.unpayExpense)
	eg.DELETE("/:id", h.destroyExpense)
}

func (h handler) queryExpenses(ctx echo.Context) error {
	expenses, err := h.opts.Expenses.List(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "listing expenses")
	}
	return ctx.JSON(http.StatusOK, emptyIfNil(expenses))
}

func (h handler) createExpense(ctx echo.Context) error {
	var data expense.NewExpense
	if err := h.bind(ctx, &data, "NewExpense"); err != nil {
		return err
	}
	e, err := h.opts.Expenses.Create(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating expense")
	}
	return ctx.JSON(http.StatusCreated, e)
}

func (h handler) pendingExpenses(ctx echo.Context) error {
	n, err := h.opts.Expenses.PendingCount(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "counting pending expenses")
	}
	return ctx.JSON(http.StatusOK, CountResponse{Count: n})
}

func (h handler) retrieveExpense(ctx echo.Context) error {
	e, err := h.opts.Expenses.Get(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "getting expense")
	}
	return ctx.JSON(http.StatusOK, e)
}

func (h handler) updateExpense(ctx echo.Context) error {
	var data expense.UpdateExpense
	if err := h.bind(ctx, &data, "UpdateExpense"); err != nil {
		return err
	}
	e, err := h.opts.Expenses.Update(ctx.Request().Context(), ctx.Param("id"), data)
	if err != nil {
		return errors.Wrap(err, "updating expense")
	}
	return ctx.JSON(http.StatusOK, e)
}

func (h handler) payExpense(ctx echo.Context) error {
	e, err := h.opts.Expenses.Pay(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "paying expense")
	}
	return ctx.JSON(http.StatusOK, e)
}

func (h handler) unpayExpense(ctx echo.Context) error {
	e, err := h.opts.Expenses.Unpay(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "unpaying expense")
	}
	return ctx.JSON(http.StatusOK, e)
}

func (h handler) destroyExpense(ctx echo.Context) error {
	if err := h.opts.Expenses.Remove(ctx.Request().Context(), ctx.Param("id")); err != nil {
		return errors.Wrap(err, "deleting expense")
	}
	return noContent(ctx)
}
