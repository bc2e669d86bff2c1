package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/lunedance/lune/core/settings"
)

func (h handler) registerSettingsAPI(g *echo.Group) {
	g.GET("/settings", h.retrieveSettings)
	g.PATCH("/settings", h.updateSettings)
	g.GET("/notifications", h.pendingNotifications)
}

func (h handler) retrieveSettings(ctx echo.Context) error {
	s, err := h.opts.Settings.Get(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "getting settings")
	}
	return ctx.JSON(http.StatusOK, s)
}

func (h handler) updateSettings(ctx echo.Context) error {
	var data settings.UpdateSettings
	if err := h.bind(ctx, &data, "UpdateSettings"); err != nil {
		return err
	}
	s, err := h.opts.Settings.Update(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "updating settings")
	}
	return ctx.JSON(http.StatusOK, s)
}

func (h handler) pendingNotifications(ctx echo.Context) error {
	p, err := h.opts.Notifications.Pending(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "counting notifications")
	}
	return ctx.JSON(http.StatusOK, p)
}
