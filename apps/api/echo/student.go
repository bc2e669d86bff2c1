package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/lunedance/lune/core/enrollment"
	"github.com/lunedance/lune/core/student"
)

func (h handler) registerStudentAPI(g *echo.Group) {
	sg := g.Group("/students")
	sg.GET("", h.queryRoster)
	sg.GET("/search", h.searchStudents)
	sg.GET("/:id", h.retrieveStudent)
	sg.PATCH("/:id", h.updateStudent)
	sg.DELETE("/:id", h.destroyStudent)
	sg.PUT("/:id/address", h.saveStudentAddress)
	sg.PUT("/:id/emergency-contact", h.saveEmergencyContact)
}

// queryRoster lists the students with their enrollments and payment status.
func (h handler) queryRoster(ctx echo.Context) error {
	var rf enrollment.RosterFilter
	if err := ctx.Bind(&rf); err != nil {
		return errors.Wrap(err, "binding to RosterFilter")
	}
	roster, err := h.opts.Enrollments.Roster(ctx.Request().Context(), rf)
	if err != nil {
		return errors.Wrap(err, "listing students")
	}
	return ctx.JSON(http.StatusOK, emptyIfNil(roster))
}

func (h handler) searchStudents(ctx echo.Context) error {
	students, err := h.opts.Students.Search(ctx.Request().Context(), ctx.QueryParam("name"))
	if err != nil {
		return errors.Wrap(err, "searching students")
	}
	return ctx.JSON(http.StatusOK, emptyIfNil(students))
}

func (h handler) retrieveStudent(ctx echo.Context) error {
	p, err := h.opts.Students.Get(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "getting student")
	}
	p.EmergencyContacts = emptyIfNil(p.EmergencyContacts)
	return ctx.JSON(http.StatusOK, p)
}

func (h handler) updateStudent(ctx echo.Context) error {
	var data student.UpdateStudent
	if err := h.bind(ctx, &data, "UpdateStudent"); err != nil {
		return err
	}
	s, err := h.opts.Students.Update(ctx.Request().Context(), ctx.Param("id"), data)
	if err != nil {
		return errors.Wrap(err, "updating student")
	}
	return ctx.JSON(http.StatusOK, s)
}

func (h handler) destroyStudent(ctx echo.Context) error {
	if err := h.opts.Students.Remove(ctx.Request().Context(), ctx.Param("id")); err != nil {
		return errors.Wrap(err, "deleting student")
	}
	return noContent(ctx)
}

func (h handler) saveStudentAddress(ctx echo.Context) error {
	var data student.NewAddress
	if err := h.bind(ctx, &data, "NewAddress"); err != nil {
		return err
	}
	addr, err := h.opts.Students.SaveAddress(ctx.Request().Context(), ctx.Param("id"), data)
	if err != nil {
		return errors.Wrap(err, "saving address")
	}
	return ctx.JSON(http.StatusOK, addr)
}

func (h handler) saveEmergencyContact(ctx echo.Context) error {
	var data student.NewEmergencyContact
	if err := h.bind(ctx, &data, "NewEmergencyContact"); err != nil {
		return err
	}
	contact, err := h.opts.Students.SaveEmergencyContact(ctx.Request().Context(), ctx.Param("id"), data)
	if err != nil {
		return errors.Wrap(err, "saving emergency contact")
	}
	if contact == nil {
		return noContent(ctx)
	}
	return ctx.JSON(http.StatusOK, contact)
}
