package echoapi

import (
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/lunedance/lune/core"
)

// requireKind only lets through sessions of the given principal kinds.
func requireKind(kinds ...core.PrincipalKind) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			claims, err := getContextClaims(ctx)
			if err != nil {
				return errors.Wrap(err, "getting context claims")
			}
			for _, k := range kinds {
				if claims.Kind == k {
					return next(ctx)
				}
			}
			return errHttpForbidden
		}
	}
}
