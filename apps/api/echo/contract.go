package echoapi

import (
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/lunedance/lune/core/contract"
)

func (h handler) registerContractAPI(v1 *echo.Group, staff *echo.Group) {
	staff.POST("/contracts/:enrollmentId/link", h.contractLink)
	staff.GET("/contracts/:enrollmentId/download", h.downloadContract)

	// the signing page is opened by students, who have no account
	v1.GET("/contracts/token/:token", h.pendingContract)
	v1.POST("/contracts/sign/:token", h.signContract)
}

func (h handler) contractLink(ctx echo.Context) error {
	link, err := h.opts.Contracts.GenerateSignatureLink(ctx.Request().Context(), ctx.Param("enrollmentId"))
	if err != nil {
		return errors.Wrap(err, "generating signature link")
	}
	return ctx.JSON(http.StatusCreated, link)
}

func (h handler) downloadContract(ctx echo.Context) error {
	doc, err := h.opts.Contracts.Generate(ctx.Request().Context(), ctx.Param("enrollmentId"))
	if err != nil {
		return errors.Wrap(err, "generating contract")
	}
	ctx.Response().Header().Set(echo.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", doc.Filename))
	return ctx.Blob(http.StatusOK, doc.ContentType, doc.Content)
}

func (h handler) pendingContract(ctx echo.Context) error {
	p, err := h.opts.Contracts.GetByToken(ctx.Request().Context(), ctx.Param("token"))
	if err != nil {
		return errors.Wrap(err, "getting contract by token")
	}
	return ctx.JSON(http.StatusOK, p)
}

func (h handler) signContract(ctx echo.Context) error {
	var data contract.Signature
	if err := h.bind(ctx, &data, "Signature"); err != nil {
		return err
	}
	enr, err := h.opts.Contracts.Sign(ctx.Request().Context(), ctx.Param("token"), data)
	if err != nil {
		return errors.Wrap(err, "signing contract")
	}
	return ctx.JSON(http.StatusOK, SuccessResponse{Success: fmt.Sprintf("Contract of enrollment %s signed.", enr.ID)})
}
