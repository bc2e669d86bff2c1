package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/lunedance/lune/core/user"
)

func (h handler) registerUserAPI(g *echo.Group) {
	ug := g.Group("/users")
	ug.GET("", h.queryUsers)
	ug.POST("", h.createUser)
	ug.GET("/:id", h.retrieveUser)
	ug.PATCH("/:id", h.updateUser)
	ug.DELETE("/:id", h.destroyUser)
}

func (h handler) createUser(ctx echo.Context) error {
	var data user.NewUser
	if err := h.bind(ctx, &data, "NewUser"); err != nil {
		return err
	}

	usr, err := h.opts.Users.Create(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating user")
	}
	return ctx.JSON(http.StatusCreated, usr)
}

func (h handler) queryUsers(ctx echo.Context) error {
	filter := user.QueryFilter{Search: ctx.QueryParam("search")}
	var err error
	if filter.IsActive, err = queryBool(ctx, "is_active"); err != nil {
		return err
	}
	if filter.CreatedFrom, err = queryTime(ctx, "created_from"); err != nil {
		return err
	}
	if filter.CreatedTo, err = queryTime(ctx, "created_to"); err != nil {
		return err
	}
	ordering := new(Ordering)
	ordering.Bind(ctx)

	users, err := h.opts.Users.List(ctx.Request().Context(), filter, ordering.Orderings...)
	if err != nil {
		return errors.Wrap(err, "querying users")
	}
	return ctx.JSON(http.StatusOK, emptyIfNil(users))
}

func (h handler) retrieveUser(ctx echo.Context) error {
	usr, err := h.opts.Users.Get(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "getting user")
	}
	return ctx.JSON(http.StatusOK, usr)
}

func (h handler) updateUser(ctx echo.Context) error {
	usr, err := h.opts.Users.Get(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "getting user")
	}

	var data user.UpdateUser
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateUser")
	}

	// staff cannot deactivate themselves
	p, err := contextPrincipal(ctx)
	if err != nil {
		return err
	}
	if usr.ID == p.ID && data.IsActive != nil && !*data.IsActive {
		return errHttpForbidden
	}

	if err := data.Validate(usr, h.validate()); err != nil {
		return err
	}

	usr, err = h.opts.Users.Update(ctx.Request().Context(), usr.ID, data)
	if err != nil {
		return errors.Wrap(err, "updating user")
	}
	return ctx.JSON(http.StatusOK, usr)
}

func (h handler) destroyUser(ctx echo.Context) error {
	usr, err := h.opts.Users.Get(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "getting user")
	}

	// Say No to Suicide! staff cannot delete themselves
	p, err := contextPrincipal(ctx)
	if err != nil {
		return err
	}
	if usr.ID == p.ID {
		return errHttpForbidden
	}

	if err := h.opts.Users.Delete(ctx.Request().Context(), usr.ID); err != nil {
		return errors.Wrap(err, "deleting user")
	}
	return noContent(ctx)
}
