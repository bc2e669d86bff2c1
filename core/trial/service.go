package trial

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/pkg/errors"
	"github.com/samber/lo"

	"github.com/lunedance/lune/core"
	"github.com/lunedance/lune/core/calendar"
	"github.com/lunedance/lune/core/class"
	"github.com/lunedance/lune/core/grid"
	"github.com/lunedance/lune/core/lead"
	"github.com/lunedance/lune/core/teacher"
)

var ErrNotFound = core.NewNotFoundError("trial student")

type (
	Repository interface {
		core.Transactor

		CreateTrial(ctx context.Context, t Trial) (Trial, error)
		GetTrial(ctx context.Context, id string) (Trial, error)
		// ListTrials returns the trials matching filter by date.
		ListTrials(ctx context.Context, filter Filter) ([]Trial, error)
		CountTrials(ctx context.Context, filter Filter) (int, error)
		UpdateTrial(ctx context.Context, t Trial) (Trial, error)
		// SetTrialStatus moves the trials matching filter to status and returns how many moved.
		SetTrialStatus(ctx context.Context, filter Filter, status Status, at time.Time) (int, error)
		DeleteTrial(ctx context.Context, id string) error

		ListLeads(ctx context.Context, filter lead.Filter, orderings ...core.DBOrdering) ([]lead.Lead, error)
		GetGridItem(ctx context.Context, id string) (grid.Item, error)
		ListGridItems(ctx context.Context, filter grid.Filter) ([]grid.Item, error)
		GetClass(ctx context.Context, id string) (class.Class, error)
		ListClasses(ctx context.Context, filter class.Filter) ([]class.Class, error)
		GetModality(ctx context.Context, id string) (class.Modality, error)
		ListModalities(ctx context.Context, filter class.NameFilter) ([]class.Modality, error)
		ListClassLevels(ctx context.Context, filter class.NameFilter) ([]class.ClassLevel, error)
		ListTeachers(ctx context.Context, filter teacher.Filter, orderings ...core.DBOrdering) ([]teacher.Teacher, error)
	}

	Service struct {
		repo  Repository
		leads *lead.Service
		now   calendar.Clock
	}
)

func NewService(repo Repository, leads *lead.Service, now calendar.Clock) *Service {
	return &Service{repo: repo, leads: leads, now: now}
}

// Create books a trial class. The lead is created as a new lead scored for a trial class,
// interested in the slot's modality at the slot's period of the day.
func (svc *Service) Create(ctx context.Context, nt NewTrial) (Detail, error) {
	var id string
	err := svc.repo.WithTx(ctx, func(ctx context.Context) error {
		it, err := svc.repo.GetGridItem(ctx, nt.GridItemID)
		if err != nil {
			return err
		}
		c, err := svc.repo.GetClass(ctx, it.ClassID)
		if err != nil {
			return errors.Wrap(err, "getting class")
		}
		m, err := svc.repo.GetModality(ctx, c.ModalityID)
		if err != nil {
			return errors.Wrap(err, "getting modality")
		}

		nl := nt.Lead
		nl.ModalityOfInterest = m.Name
		nl.PreferencePeriod = calendar.TimePeriod(it.StartTime)
		nl.Score = lead.ScoreTrialClass
		nl.Status = lead.StatusNewLead
		l, err := svc.leads.Create(ctx, nl)
		if err != nil {
			return errors.Wrap(err, "creating lead")
		}

		now := svc.now()
		t, err := svc.repo.CreateTrial(ctx, Trial{
			ID:         core.NewID(),
			LeadID:     l.ID,
			GridItemID: it.ID,
			Date:       calendar.StartOfDay(nt.Date),
			Status:     StatusScheduled,
			CreatedAt:  now,
			UpdatedAt:  now,
		})
		if err != nil {
			return errors.Wrap(err, "creating trial")
		}
		id = t.ID
		return nil
	})
	if err != nil {
		return Detail{}, err
	}
	return svc.Get(ctx, id)
}

func (svc *Service) Get(ctx context.Context, id string) (Detail, error) {
	t, err := svc.repo.GetTrial(ctx, id)
	if err != nil {
		return Detail{}, err
	}
	details, err := svc.describe(ctx, []Trial{t})
	if err != nil {
		return Detail{}, err
	}
	return details[0], nil
}

// Update edits the lead and the booking of a trial in one transaction.
func (svc *Service) Update(ctx context.Context, id string, ut UpdateTrial) (Detail, error) {
	err := svc.repo.WithTx(ctx, func(ctx context.Context) error {
		t, err := svc.repo.GetTrial(ctx, id)
		if err != nil {
			return err
		}
		if ut.Lead != nil {
			if _, err = svc.leads.Update(ctx, t.LeadID, *ut.Lead); err != nil {
				return errors.Wrap(err, "updating lead")
			}
		}
		if ut.GridItemID != nil {
			it, err := svc.repo.GetGridItem(ctx, *ut.GridItemID)
			if err != nil {
				return err
			}
			t.GridItemID = it.ID
		}
		if ut.Date != nil {
			t.Date = calendar.StartOfDay(*ut.Date)
		}
		if ut.Status != nil {
			t.Status = *ut.Status
		}
		t.UpdatedAt = svc.now()
		_, err = svc.repo.UpdateTrial(ctx, t)
		return err
	})
	if err != nil {
		return Detail{}, err
	}
	return svc.Get(ctx, id)
}

func (svc *Service) Remove(ctx context.Context, id string) error {
	if _, err := svc.repo.GetTrial(ctx, id); err != nil {
		return err
	}
	return svc.repo.DeleteTrial(ctx, id)
}

// PromotePastDue moves the SCHEDULED trials of past days to PENDING_STATUS.
func (svc *Service) PromotePastDue(ctx context.Context) (int, error) {
	now := svc.now()
	return svc.repo.SetTrialStatus(ctx, Filter{
		Statuses: []Status{StatusScheduled},
		To:       calendar.StartOfDay(now).Add(-time.Nanosecond),
	}, StatusPendingStatus, now)
}

func (svc *Service) PendingCount(ctx context.Context) (int, error) {
	return svc.repo.CountTrials(ctx, Filter{Statuses: []Status{StatusPendingStatus}})
}

// List returns every trial, the classes of the nearest day with trials from today on,
// and a week resume of trials by weekday and slot.
func (svc *Service) List(ctx context.Context) (Listing, error) {
	trials, err := svc.repo.ListTrials(ctx, Filter{})
	if err != nil {
		return Listing{}, errors.Wrap(err, "listing trials")
	}
	details, err := svc.describe(ctx, trials)
	if err != nil {
		return Listing{}, err
	}

	listing := Listing{List: details, WeekResume: make(map[calendar.Weekday]map[string][]Detail)}
	for _, wd := range calendar.Weekdays {
		listing.WeekResume[wd] = make(map[string][]Detail)
	}
	for _, d := range details {
		label := fmt.Sprintf("%s@%s %s | %s - %s",
			d.ModalityName, d.ClassLevelName, d.ClassDescription, d.Slot.StartTime, d.Slot.EndTime)
		if day, ok := listing.WeekResume[d.Slot.DayOfWeek]; ok {
			day[label] = append(day[label], d)
		}
	}

	today := calendar.StartOfDay(svc.now())
	upcoming := lo.Filter(details, func(d Detail, _ int) bool { return !d.Date.Before(today) })
	if len(upcoming) == 0 {
		return listing, nil
	}
	nearest := upcoming[0].Date
	sameDay := lo.Filter(upcoming, func(d Detail, _ int) bool { return calendar.SameDay(d.Date, nearest) })

	groups := make(map[string]*ClassGroup)
	var order []string
	for _, d := range sameDay {
		g, ok := groups[d.GridItemID]
		if !ok {
			g = &ClassGroup{
				Modality:   d.ModalityName,
				ClassLevel: d.ClassLevelName,
				StartTime:  d.Slot.StartTime,
				EndTime:    d.Slot.EndTime,
			}
			groups[d.GridItemID] = g
			order = append(order, d.GridItemID)
		}
		g.TrialStudents = append(g.TrialStudents, d)
	}
	classes := lo.Map(order, func(id string, _ int) ClassGroup { return *groups[id] })
	sort.SliceStable(classes, func(i, j int) bool { return classes[i].StartTime < classes[j].StartTime })

	listing.NearestTrialClasses = &Nearest{
		Date:               dateLabel(nearest),
		TotalTrialStudents: len(sameDay),
		TrialClasses:       classes,
	}
	return listing, nil
}

// dateLabel renders a day as "Segunda-feira, 11 de março".
func dateLabel(t time.Time) string {
	t = calendar.Local(t)
	s := fmt.Sprintf("%s, %02d de %s", calendar.WeekdayOf(t).Label(), t.Day(), calendar.MonthName(t.Month()))
	r, size := utf8.DecodeRuneInString(s)
	return string(unicode.ToUpper(r)) + s[size:]
}

func (svc *Service) describe(ctx context.Context, trials []Trial) ([]Detail, error) {
	if len(trials) == 0 {
		return []Detail{}, nil
	}
	leads, err := svc.repo.ListLeads(ctx, lead.Filter{
		IDs: lo.Uniq(lo.Map(trials, func(t Trial, _ int) string { return t.LeadID })),
	})
	if err != nil {
		return nil, errors.Wrap(err, "listing leads")
	}
	items, err := svc.repo.ListGridItems(ctx, grid.Filter{
		IDs: lo.Uniq(lo.Map(trials, func(t Trial, _ int) string { return t.GridItemID })),
	})
	if err != nil {
		return nil, errors.Wrap(err, "listing grid items")
	}
	classes, err := svc.repo.ListClasses(ctx, class.Filter{
		IDs: lo.Uniq(lo.Map(items, func(it grid.Item, _ int) string { return it.ClassID })),
	})
	if err != nil {
		return nil, errors.Wrap(err, "listing classes")
	}
	mods, err := svc.repo.ListModalities(ctx, class.NameFilter{})
	if err != nil {
		return nil, errors.Wrap(err, "listing modalities")
	}
	levels, err := svc.repo.ListClassLevels(ctx, class.NameFilter{})
	if err != nil {
		return nil, errors.Wrap(err, "listing class levels")
	}
	teachers, err := svc.repo.ListTeachers(ctx, teacher.Filter{})
	if err != nil {
		return nil, errors.Wrap(err, "listing teachers")
	}

	leadsByID := lo.KeyBy(leads, func(l lead.Lead) string { return l.ID })
	itemsByID := lo.KeyBy(items, func(it grid.Item) string { return it.ID })
	classesByID := lo.KeyBy(classes, func(c class.Class) string { return c.ID })
	modNames := lo.SliceToMap(mods, func(m class.Modality) (string, string) { return m.ID, m.Name })
	levelNames := lo.SliceToMap(levels, func(l class.ClassLevel) (string, string) { return l.ID, l.Name })
	teacherNames := lo.SliceToMap(teachers, func(t teacher.Teacher) (string, string) { return t.ID, t.FullName() })

	return lo.Map(trials, func(t Trial, _ int) Detail {
		d := Detail{Trial: t, Lead: leadsByID[t.LeadID], Slot: itemsByID[t.GridItemID]}
		if c, ok := classesByID[d.Slot.ClassID]; ok {
			d.ClassName = c.Name
			d.ClassDescription = strings.TrimSpace(c.Description)
			d.ModalityName = modNames[c.ModalityID]
			d.ClassLevelName = levelNames[c.ClassLevelID]
			d.TeacherName = teacherNames[lo.FromPtr(c.TeacherID)]
		}
		return d
	}), nil
}
