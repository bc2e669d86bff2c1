package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/lunedance/lune/core/class"
	"github.com/lunedance/lune/core/plan"
	"github.com/lunedance/lune/core/teacher"
)

// registerCatalogAPI registers what classes are made of: plans, modalities, levels, classes and teachers.
func (h handler) registerCatalogAPI(g *echo.Group) {
	pg := g.Group("/plans")
	pg.GET("", h.queryPlans)
	pg.POST("", h.createPlan)
	pg.GET("/:id", h.retrievePlan)
	pg.PATCH("/:id", h.updatePlan)
	pg.DELETE("/:id", h.destroyPlan)

	mg := g.Group("/modalities")
	mg.GET("", h.queryModalities)
	mg.POST("", h.createModality)
	mg.GET("/:id", h.retrieveModality)
	mg.PATCH("/:id", h.updateModality)
	mg.DELETE("/:id", h.destroyModality)

	lg := g.Group("/class-levels")
	lg.GET("", h.queryClassLevels)
	lg.POST("", h.createClassLevel)
	lg.GET("/:id", h.retrieveClassLevel)
	lg.PATCH("/:id", h.updateClassLevel)
	lg.DELETE("/:id", h.destroyClassLevel)

	cg := g.Group("/classes")
	cg.GET("", h.queryClasses)
	cg.POST("", h.createClass)
	cg.GET("/:id", h.retrieveClass)
	cg.PATCH("/:id", h.updateClass)
	cg.DELETE("/:id", h.destroyClass)

	tg := g.Group("/teachers")
	tg.GET("", h.queryTeachers)
	tg.POST("", h.createTeacher)
	tg.GET("/:id", h.retrieveTeacher)
	tg.PATCH("/:id", h.updateTeacher)
	tg.DELETE("/:id", h.destroyTeacher)
}

// Plans

func (h handler) queryPlans(ctx echo.Context) error {
	filter := plan.Filter{Name: ctx.QueryParam("name")}
	var err error
	if filter.IsActive, err = queryBool(ctx, "is_active"); err != nil {
		return err
	}
	plans, err := h.opts.Plans.List(ctx.Request().Context(), filter)
	if err != nil {
		return errors.Wrap(err, "listing plans")
	}
	return ctx.JSON(http.StatusOK, emptyIfNil(plans))
}

func (h handler) createPlan(ctx echo.Context) error {
	var data plan.NewPlan
	if err := h.bind(ctx, &data, "NewPlan"); err != nil {
		return err
	}
	p, err := h.opts.Plans.Create(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating plan")
	}
	return ctx.JSON(http.StatusCreated, p)
}

func (h handler) retrievePlan(ctx echo.Context) error {
	p, err := h.opts.Plans.Get(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "getting plan")
	}
	return ctx.JSON(http.StatusOK, p)
}

func (h handler) updatePlan(ctx echo.Context) error {
	var data plan.UpdatePlan
	if err := h.bind(ctx, &data, "UpdatePlan"); err != nil {
		return err
	}
	p, err := h.opts.Plans.Update(ctx.Request().Context(), ctx.Param("id"), data)
	if err != nil {
		return errors.Wrap(err, "updating plan")
	}
	return ctx.JSON(http.StatusOK, p)
}

func (h handler) destroyPlan(ctx echo.Context) error {
	if err := h.opts.Plans.Delete(ctx.Request().Context(), ctx.Param("id")); err != nil {
		return errors.Wrap(err, "deleting plan")
	}
	return noContent(ctx)
}

// Modalities

func (h handler) queryModalities(ctx echo.Context) error {
	mods, err := h.opts.Classes.ListModalities(ctx.Request().Context(), class.NameFilter{Name: ctx.QueryParam("name")})
	if err != nil {
		return errors.Wrap(err, "listing modalities")
	}
	return ctx.JSON(http.StatusOK, emptyIfNil(mods))
}

func (h handler) createModality(ctx echo.Context) error {
	var data class.NewName
	if err := h.bind(ctx, &data, "NewName"); err != nil {
		return err
	}
	m, err := h.opts.Classes.CreateModality(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating modality")
	}
	return ctx.JSON(http.StatusCreated, m)
}

func (h handler) retrieveModality(ctx echo.Context) error {
	m, err := h.opts.Classes.GetModality(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "getting modality")
	}
	return ctx.JSON(http.StatusOK, m)
}

func (h handler) updateModality(ctx echo.Context) error {
	var data class.NewName
	if err := h.bind(ctx, &data, "NewName"); err != nil {
		return err
	}
	m, err := h.opts.Classes.UpdateModality(ctx.Request().Context(), ctx.Param("id"), data)
	if err != nil {
		return errors.Wrap(err, "updating modality")
	}
	return ctx.JSON(http.StatusOK, m)
}

func (h handler) destroyModality(ctx echo.Context) error {
	if err := h.opts.Classes.DeleteModality(ctx.Request().Context(), ctx.Param("id")); err != nil {
		return errors.Wrap(err, "deleting modality")
	}
	return noContent(ctx)
}

// Class levels

func (h handler) queryClassLevels(ctx echo.Context) error {
	levels, err := h.opts.Classes.ListClassLevels(ctx.Request().Context(), class.NameFilter{Name: ctx.QueryParam("name")})
	if err != nil {
		return errors.Wrap(err, "listing class levels")
	}
	return ctx.JSON(http.StatusOK, emptyIfNil(levels))
}

func (h handler) createClassLevel(ctx echo.Context) error {
	var data class.NewName
	if err := h.bind(ctx, &data, "NewName"); err != nil {
		return err
	}
	l, err := h.opts.Classes.CreateClassLevel(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating class level")
	}
	return ctx.JSON(http.StatusCreated, l)
}

func (h handler) retrieveClassLevel(ctx echo.Context) error {
	l, err := h.opts.Classes.GetClassLevel(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "getting class level")
	}
	return ctx.JSON(http.StatusOK, l)
}

func (h handler) updateClassLevel(ctx echo.Context) error {
	var data class.NewName
	if err := h.bind(ctx, &data, "NewName"); err != nil {
		return err
	}
	l, err := h.opts.Classes.UpdateClassLevel(ctx.Request().Context(), ctx.Param("id"), data)
	if err != nil {
		return errors.Wrap(err, "updating class level")
	}
	return ctx.JSON(http.StatusOK, l)
}

func (h handler) destroyClassLevel(ctx echo.Context) error {
	if err := h.opts.Classes.DeleteClassLevel(ctx.Request().Context(), ctx.Param("id")); err != nil {
		return errors.Wrap(err, "deleting class level")
	}
	return noContent(ctx)
}

// Classes

func (h handler) queryClasses(ctx echo.Context) error {
	var filter class.Filter
	if err := ctx.Bind(&filter); err != nil {
		return errors.Wrap(err, "binding to class.Filter")
	}
	infos, err := h.opts.Classes.List(ctx.Request().Context(), filter)
	if err != nil {
		return errors.Wrap(err, "listing classes")
	}
	return ctx.JSON(http.StatusOK, emptyIfNil(infos))
}

func (h handler) createClass(ctx echo.Context) error {
	var data class.NewClass
	if err := h.bind(ctx, &data, "NewClass"); err != nil {
		return err
	}
	c, err := h.opts.Classes.Create(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating class")
	}
	return ctx.JSON(http.StatusCreated, c)
}

func (h handler) retrieveClass(ctx echo.Context) error {
	c, err := h.opts.Classes.Get(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "getting class")
	}
	return ctx.JSON(http.StatusOK, c)
}

func (h handler) updateClass(ctx echo.Context) error {
	var data class.UpdateClass
	if err := h.bind(ctx, &data, "UpdateClass"); err != nil {
		return err
	}
	c, err := h.opts.Classes.Update(ctx.Request().Context(), ctx.Param("id"), data)
	if err != nil {
		return errors.Wrap(err, "updating class")
	}
	return ctx.JSON(http.StatusOK, c)
}

func (h handler) destroyClass(ctx echo.Context) error {
	if err := h.opts.Classes.Delete(ctx.Request().Context(), ctx.Param("id")); err != nil {
		return errors.Wrap(err, "deleting class")
	}
	return noContent(ctx)
}

// Teachers

func (h handler) queryTeachers(ctx echo.Context) error {
	filter := teacher.Filter{Name: ctx.QueryParam("name")}
	var err error
	if filter.IsActive, err = queryBool(ctx, "is_active"); err != nil {
		return err
	}
	ordering := new(Ordering)
	ordering.Bind(ctx)

	teachers, err := h.opts.Teachers.List(ctx.Request().Context(), filter, ordering.Orderings...)
	if err != nil {
		return errors.Wrap(err, "listing teachers")
	}
	return ctx.JSON(http.StatusOK, emptyIfNil(teachers))
}

func (h handler) createTeacher(ctx echo.Context) error {
	var data teacher.NewTeacher
	if err := h.bind(ctx, &data, "NewTeacher"); err != nil {
		return err
	}
	t, err := h.opts.Teachers.Create(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating teacher")
	}
	return ctx.JSON(http.StatusCreated, t)
}

// TeacherDetail is a teacher along with the modalities they teach.
type TeacherDetail struct {
	teacher.Teacher
	Modalities []class.Modality `json:"modalities"`
}

func (h handler) retrieveTeacher(ctx echo.Context) error {
	t, err := h.opts.Teachers.Get(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "getting teacher")
	}
	mods, err := h.opts.Classes.TeacherModalities(ctx.Request().Context(), t.ID)
	if err != nil {
		return errors.Wrap(err, "listing teacher modalities")
	}
	return ctx.JSON(http.StatusOK, TeacherDetail{Teacher: t, Modalities: emptyIfNil(mods)})
}

func (h handler) updateTeacher(ctx echo.Context) error {
	var data teacher.UpdateTeacher
	if err := h.bind(ctx, &data, "UpdateTeacher"); err != nil {
		return err
	}
	t, err := h.opts.Teachers.Update(ctx.Request().Context(), ctx.Param("id"), data)
	if err != nil {
		return errors.Wrap(err, "updating teacher")
	}
	return ctx.JSON(http.StatusOK, t)
}

func (h handler) destroyTeacher(ctx echo.Context) error {
	if err := h.opts.Teachers.Delete(ctx.Request().Context(), ctx.Param("id")); err != nil {
		return errors.Wrap(err, "deleting teacher")
	}
	return noContent(ctx)
}
