package calendar

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/pkg/errors"
)

// Weekday is the english lowercase name of a day of the week, as stored on grid items.
type Weekday string

const (
	Sunday    Weekday = "sunday"
	Monday    Weekday = "monday"
	Tuesday   Weekday = "tuesday"
	Wednesday Weekday = "wednesday"
	Thursday  Weekday = "thursday"
	Friday    Weekday = "friday"
	Saturday  Weekday = "saturday"
)

// Weekdays lists the days in calendar order, Sunday first.
var Weekdays = []Weekday{Sunday, Monday, Tuesday, Wednesday, Thursday, Friday, Saturday}

var (
	weekdayLabels = map[time.Weekday]string{
		time.Sunday:    "domingo",
		time.Monday:    "segunda-feira",
		time.Tuesday:   "terça-feira",
		time.Wednesday: "quarta-feira",
		time.Thursday:  "quinta-feira",
		time.Friday:    "sexta-feira",
		time.Saturday:  "sábado",
	}
	monthLabels = [...]string{
		"janeiro", "fevereiro", "março", "abril", "maio", "junho",
		"julho", "agosto", "setembro", "outubro", "novembro", "dezembro",
	}
)

// WeekdayOf returns the local weekday of t.
func WeekdayOf(t time.Time) Weekday {
	return Weekdays[Local(t).Weekday()]
}

func ParseWeekday(s string) (Weekday, error) {
	d := Weekday(strings.ToLower(strings.TrimSpace(s)))
	for _, wd := range Weekdays {
		if wd == d {
			return d, nil
		}
	}
	return "", errors.Errorf("invalid weekday %q", s)
}

// Index returns the position of the day in the week, Sunday being 0 (-1 when unknown).
func (d Weekday) Index() int {
	for i, wd := range Weekdays {
		if wd == d {
			return i
		}
	}
	return -1
}

// Label returns the pt-BR name of the day.
func (d Weekday) Label() string {
	if i := d.Index(); i >= 0 {
		return weekdayLabels[time.Weekday(i)]
	}
	return ""
}

// DayLabel returns "Hoje" when date is today, otherwise its pt-BR weekday name.
func DayLabel(date, now time.Time) string {
	if SameDay(date, now) {
		return "Hoje"
	}
	return weekdayLabels[Local(date).Weekday()]
}

// FormatDate renders a local calendar day as dd/mm/yyyy.
func FormatDate(t time.Time) string {
	return Local(t).Format("02/01/2006")
}

// MonthLabel renders t's month as "março de 2024".
func MonthLabel(t time.Time) string {
	t = Local(t)
	return fmt.Sprintf("%s de %d", monthLabels[t.Month()-1], t.Year())
}

// MonthName returns the pt-BR month name.
func MonthName(m time.Month) string {
	return monthLabels[m-1]
}

// TimeUntil renders the time left until target: days under a week, weeks under a month, months beyond.
func TimeUntil(target, now time.Time) string {
	days := int(math.Ceil(target.Sub(now).Hours() / 24))
	switch {
	case days < 7:
		return plural(days, "dia", "dias")
	case days < 30:
		return plural(days/7, "semana", "semanas")
	default:
		return plural(days/30, "mês", "meses")
	}
}

// TimeToExpire renders how long until end, in months and days; "Expirado" once end is past.
func TimeToExpire(end, now time.Time) string {
	end, now = StartOfDay(end), StartOfDay(now)
	if end.Before(now) {
		return "Expirado"
	}

	months := (end.Year()-now.Year())*12 + int(end.Month()-now.Month())
	if now.AddDate(0, months, 0).After(end) {
		months--
	}
	days := DaysBetween(now.AddDate(0, months, 0), end)

	switch {
	case months > 0 && days > 0:
		return plural(months, "mês", "meses") + " e " + plural(days, "dia", "dias")
	case months > 0:
		return plural(months, "mês", "meses")
	case days > 0:
		return plural(days, "dia", "dias")
	default:
		return "Expira hoje"
	}
}

func plural(n int, one, many string) string {
	if n == 1 {
		return fmt.Sprintf("%d %s", n, one)
	}
	return fmt.Sprintf("%d %s", n, many)
}
