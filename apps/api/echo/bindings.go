package echoapi

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/lunedance/lune/core"
	"github.com/lunedance/lune/core/calendar"
)

var orderingParam = "ordering"

type Ordering struct {
	Orderings []core.DBOrdering
}

// Bind reads "?ordering=name,-created_at": a leading "-" sorts descending.
func (ord *Ordering) Bind(ctx echo.Context) {
	val := ctx.QueryParam(orderingParam)
	if val == "" {
		return
	}

	for _, field := range strings.Split(val, ",") {
		field = strings.TrimSpace(field)
		descending := strings.HasPrefix(field, "-")
		if descending {
			field = field[1:] // drop "-"
		}
		if field == "" {
			continue
		}
		ord.Orderings = append(ord.Orderings, core.DBOrdering{Field: field, Ascending: !descending})
	}
}

type validatable interface {
	Validate(validate *validator.Validate) error
}

// bind decodes the request into data then validates it.
func (h handler) bind(ctx echo.Context, data validatable, what string) error {
	if err := ctx.Bind(data); err != nil {
		return errors.Wrapf(err, "binding to %s", what)
	}
	return data.Validate(h.validate())
}

func fieldError(field, msg string) error {
	return core.NewValidationError(errors.New(msg), core.FieldError{Field: field, Error: msg})
}

// queryBool reads an optional boolean query parameter.
func queryBool(ctx echo.Context, name string) (*bool, error) {
	val := ctx.QueryParam(name)
	if val == "" {
		return nil, nil
	}
	b, err := strconv.ParseBool(val)
	if err != nil {
		return nil, fieldError(name, "must be true or false")
	}
	return &b, nil
}

// queryTime reads an optional RFC 3339 instant or YYYY-MM-DD local day.
func queryTime(ctx echo.Context, name string) (time.Time, error) {
	val := ctx.QueryParam(name)
	if val == "" {
		return time.Time{}, nil
	}
	if t, err := time.Parse(time.RFC3339, val); err == nil {
		return t, nil
	}
	if t, err := time.ParseInLocation("2006-01-02", val, calendar.Location); err == nil {
		return t, nil
	}
	return time.Time{}, fieldError(name, "must be a date (YYYY-MM-DD) or an RFC 3339 time")
}

// queryYearMonth reads "?month=YYYY-MM", defaulting to the current month.
func queryYearMonth(ctx echo.Context, now time.Time) (int, time.Month, error) {
	val := ctx.QueryParam("month")
	if val == "" {
		now = calendar.Local(now)
		return now.Year(), now.Month(), nil
	}
	t, err := time.Parse("2006-01", val)
	if err != nil {
		return 0, 0, fieldError("month", "must be formatted as YYYY-MM")
	}
	return t.Year(), t.Month(), nil
}

// queryIDs reads a repeated or comma separated "?id=" parameter.
func queryIDs(ctx echo.Context, name string) []string {
	var ids []string
	for _, val := range ctx.QueryParams()[name] {
		for _, id := range strings.Split(val, ",") {
			if id = strings.TrimSpace(id); id != "" {
				ids = append(ids, id)
			}
		}
	}
	return ids
}

func emptyIfNil[T any](items []T) []T {
	if items == nil {
		return []T{}
	}
	return items
}

func noContent(ctx echo.Context) error {
	return ctx.NoContent(http.StatusNoContent)
}
