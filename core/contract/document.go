package contract

import (
	"bytes"
	"html/template"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/pkg/errors"

	"github.com/lunedance/lune/core"
	"github.com/lunedance/lune/core/calendar"
	"github.com/lunedance/lune/core/class"
	"github.com/lunedance/lune/core/enrollment"
	"github.com/lunedance/lune/core/plan"
	"github.com/lunedance/lune/core/student"
	appfs "github.com/lunedance/lune/fs"
)

var (
	contractTmpl     *template.Template
	contractTmplErr  error
	contractTmplOnce sync.Once

	paymentDayOptions    = []int{5, 10, 15}
	durationOptions      = []int{30, 90, 180}
	weeklyClassesOptions = []int{1, 2}
)

func loadTemplate() (*template.Template, error) {
	contractTmplOnce.Do(func() {
		contractTmpl, contractTmplErr = template.New("enrollment.gohtml").
			Funcs(template.FuncMap{"date": dateOrEmpty}).
			ParseFS(appfs.FS, appfs.ContractTemplate)
	})
	return contractTmpl, contractTmplErr
}

func dateOrEmpty(t *time.Time) string {
	if t == nil {
		return ""
	}
	return calendar.FormatDate(*t)
}

// Option is a box of the contract form, ticked when it matches the enrollment.
type Option struct {
	Label   string
	Checked bool
}

// Fields is what the contract template is filled with.
type Fields struct {
	Student          student.Student
	EmergencyContact student.EmergencyContact
	Address          student.Address
	PaymentDays      []Option
	Modalities       []Option
	Durations        []Option
	WeeklyClasses    []Option
	StartDate        string
	EndDate          string
	Day              int
	Month            string
	Year             int
	Signature        template.URL
}

type documentData struct {
	enrollment enrollment.Enrollment
	student    student.Profile
	plan       plan.Plan
	modality   string
	modalities []class.Modality
}

func intOptions(values []int, selected int, label func(int) string) []Option {
	opts := make([]Option, 0, len(values))
	for _, v := range values {
		opts = append(opts, Option{Label: label(v), Checked: v == selected})
	}
	return opts
}

func buildFields(d documentData) Fields {
	f := Fields{
		Student:   d.student.Student,
		StartDate: calendar.FormatDate(d.enrollment.StartDate),
		EndDate:   calendar.FormatDate(d.enrollment.EndDate),
		Signature: template.URL(d.enrollment.Signature),
	}
	if len(d.student.EmergencyContacts) > 0 {
		f.EmergencyContact = d.student.EmergencyContacts[0]
	}
	if d.student.Address != nil {
		f.Address = *d.student.Address
	}

	signedOn := calendar.Local(d.enrollment.CreatedAt)
	f.Day, f.Year = signedOn.Day(), signedOn.Year()
	month := calendar.MonthName(signedOn.Month())
	f.Month = strings.ToUpper(month[:1]) + month[1:]

	f.PaymentDays = intOptions(paymentDayOptions, d.enrollment.PaymentDay, func(v int) string {
		return "Dia " + strconv.Itoa(v)
	})
	f.Durations = intOptions(durationOptions, d.plan.DurationInDays, func(v int) string {
		c, _ := plan.ParseCycle(v)
		return c.Name()
	})
	f.WeeklyClasses = intOptions(weeklyClassesOptions, d.plan.WeeklyClasses, func(v int) string {
		return strconv.Itoa(v) + "x por semana"
	})

	names := make([]string, 0, len(d.modalities))
	for _, m := range d.modalities {
		names = append(names, m.Name)
	}
	sort.Strings(names)
	for _, n := range names {
		f.Modalities = append(f.Modalities, Option{Label: n, Checked: strings.EqualFold(n, d.modality)})
	}
	return f
}

func render(f Fields) ([]byte, error) {
	tmpl, err := loadTemplate()
	if err != nil {
		return nil, errors.Wrap(err, "parsing contract template")
	}
	var buf bytes.Buffer
	if err = tmpl.Execute(&buf, f); err != nil {
		return nil, errors.Wrap(err, "rendering contract")
	}
	return buf.Bytes(), nil
}

func filename(s student.Student) string {
	name := core.CleanString(s.FirstName + " " + s.LastName)
	return strings.ReplaceAll(name, " ", "_") + ".html"
}
