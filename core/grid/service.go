package grid

import (
	"context"
	"sort"
	"time"

	"github.com/pkg/errors"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"

	"github.com/lunedance/lune/core"
	"github.com/lunedance/lune/core/calendar"
	"github.com/lunedance/lune/core/class"
	"github.com/lunedance/lune/core/plan"
	"github.com/lunedance/lune/core/teacher"
)

var ErrNotFound = core.NewNotFoundError("grid item")

var weeksPerMonth = decimal.NewFromInt(4)

type (
	Repository interface {
		core.Transactor

		// LockGrid serializes grid writers until the surrounding transaction ends.
		LockGrid(ctx context.Context) error
		CreateGridItem(ctx context.Context, it Item) (Item, error)
		GetGridItem(ctx context.Context, id string) (Item, error)
		ListGridItems(ctx context.Context, filter Filter) ([]Item, error)
		UpdateGridItem(ctx context.Context, it Item) (Item, error)
		DeleteGridItems(ctx context.Context, ids ...string) error

		GetClass(ctx context.Context, id string) (class.Class, error)
		ListClasses(ctx context.Context, filter class.Filter) ([]class.Class, error)
		ListModalities(ctx context.Context, filter class.NameFilter) ([]class.Modality, error)
		ListClassLevels(ctx context.Context, filter class.NameFilter) ([]class.ClassLevel, error)
		ListTeachers(ctx context.Context, filter teacher.Filter, orderings ...core.DBOrdering) ([]teacher.Teacher, error)
		ListPlans(ctx context.Context, filter plan.Filter) ([]plan.Plan, error)

		// CountEnrollmentsByClass returns {classID: enrollments}, whatever their status.
		CountEnrollmentsByClass(ctx context.Context) (map[string]int, error)
		// ListClassAttendees returns {classID: students with an active enrollment}.
		ListClassAttendees(ctx context.Context) (map[string][]Attendee, error)
		// ListSlotTrials returns {gridItemID: leads booked for a trial class between from and to}.
		ListSlotTrials(ctx context.Context, from, to time.Time) (map[string][]Attendee, error)
	}

	Service struct {
		repo      Repository
		classes   *class.Service
		now       calendar.Clock
		serialize bool
	}
)

// NewService returns the grid service. With serialize set, every grid write takes the grid
// lock before checking for conflicts, so two concurrent writers cannot both pass the check.
func NewService(repo Repository, classes *class.Service, now calendar.Clock, serialize bool) *Service {
	return &Service{repo: repo, classes: classes, now: now, serialize: serialize}
}

func (svc *Service) lock(ctx context.Context) error {
	if !svc.serialize {
		return nil
	}
	return errors.Wrap(svc.repo.LockGrid(ctx), "locking grid")
}

// checkSlot makes sure s is a valid interval that overlaps no item of its day, skipped ones apart.
func (svc *Service) checkSlot(ctx context.Context, s Slot, skip func(Item) bool) error {
	if _, _, err := s.Minutes(); err != nil {
		return core.NewValidationError(err, core.FieldError{Field: "end_time", Error: err.Error()})
	}
	existing, err := svc.repo.ListGridItems(ctx, Filter{Days: []calendar.Weekday{s.DayOfWeek}})
	if err != nil {
		return errors.Wrap(err, "listing grid items")
	}
	it, found, err := FindConflict(s, existing, skip)
	if err != nil {
		return err
	}
	if found {
		name := it.ClassID
		if c, err := svc.repo.GetClass(ctx, it.ClassID); err == nil {
			name = c.Name
		}
		return core.NewConflictError("time slot conflicts with %s on %s %s-%s",
			name, it.DayOfWeek.Label(), it.StartTime, it.EndTime)
	}
	return nil
}

// checkAmong rejects slots of the same batch overlapping each other.
func checkAmong(slots []Slot) error {
	for i, s := range slots {
		others := make([]Item, 0, i)
		for j := 0; j < i; j++ {
			others = append(others, Item{ID: slots[j].Key(), DayOfWeek: slots[j].DayOfWeek, StartTime: slots[j].StartTime, EndTime: slots[j].EndTime})
		}
		if it, found, err := FindConflict(s, others, nil); err != nil {
			return core.NewValidationError(err, core.FieldError{Field: "end_time", Error: err.Error()})
		} else if found {
			return core.NewConflictError("time slots %s and %s overlap", it.ID, s.Key())
		}
	}
	return nil
}

// Create stores a new class and its weekly slots. Each slot is checked against the grid and
// written within the same transaction.
func (svc *Service) Create(ctx context.Context, ns NewSchedule) (class.Class, []Item, error) {
	var (
		c     class.Class
		items []Item
	)
	err := svc.repo.WithTx(ctx, func(ctx context.Context) error {
		if err := svc.lock(ctx); err != nil {
			return err
		}
		var err error
		if c, err = svc.classes.Create(ctx, ns.Class); err != nil {
			return err
		}
		now := svc.now()
		for _, s := range ns.Items {
			if err := svc.checkSlot(ctx, s, nil); err != nil {
				return err
			}
			it, err := svc.repo.CreateGridItem(ctx, Item{
				ID:        core.NewID(),
				ClassID:   c.ID,
				DayOfWeek: s.DayOfWeek,
				StartTime: s.StartTime,
				EndTime:   s.EndTime,
				CreatedAt: now,
				UpdatedAt: now,
			})
			if err != nil {
				return errors.Wrap(err, "creating grid item")
			}
			items = append(items, it)
		}
		return nil
	})
	return c, items, err
}

// Update applies us to a class and replaces its slots: slots missing from us.Items are
// deleted, new ones created, identical ones (same day-start-end) left untouched.
func (svc *Service) Update(ctx context.Context, classID string, us UpdateSchedule) (class.Class, []Item, error) {
	var (
		c     class.Class
		items []Item
	)
	err := svc.repo.WithTx(ctx, func(ctx context.Context) error {
		if err := svc.lock(ctx); err != nil {
			return err
		}
		var err error
		if c, err = svc.classes.Update(ctx, classID, us.Class); err != nil {
			return err
		}

		wanted := lo.UniqBy(us.Items, func(s Slot) string { return s.Key() })
		if err := checkAmong(wanted); err != nil {
			return err
		}
		sameClass := func(it Item) bool { return it.ClassID == classID }
		for _, s := range wanted {
			if err := svc.checkSlot(ctx, s, sameClass); err != nil {
				return err
			}
		}

		current, err := svc.repo.ListGridItems(ctx, Filter{ClassIDs: []string{classID}})
		if err != nil {
			return errors.Wrap(err, "listing class grid items")
		}
		currentByKey := lo.KeyBy(current, func(it Item) string { return it.Slot().Key() })
		wantedKeys := lo.SliceToMap(wanted, func(s Slot) (string, bool) { return s.Key(), true })

		stale := lo.FilterMap(current, func(it Item, _ int) (string, bool) {
			return it.ID, !wantedKeys[it.Slot().Key()]
		})
		if len(stale) > 0 {
			if err := svc.repo.DeleteGridItems(ctx, stale...); err != nil {
				return errors.Wrap(err, "deleting grid items")
			}
		}

		now := svc.now()
		for _, s := range wanted {
			if it, ok := currentByKey[s.Key()]; ok {
				items = append(items, it)
				continue
			}
			it, err := svc.repo.CreateGridItem(ctx, Item{
				ID:        core.NewID(),
				ClassID:   classID,
				DayOfWeek: s.DayOfWeek,
				StartTime: s.StartTime,
				EndTime:   s.EndTime,
				CreatedAt: now,
				UpdatedAt: now,
			})
			if err != nil {
				return errors.Wrap(err, "creating grid item")
			}
			items = append(items, it)
		}
		return nil
	})
	return c, items, err
}

// UpdateItem moves a single slot, checking it against every other item of the grid.
func (svc *Service) UpdateItem(ctx context.Context, id string, s Slot) (Item, error) {
	var it Item
	err := svc.repo.WithTx(ctx, func(ctx context.Context) error {
		if err := svc.lock(ctx); err != nil {
			return err
		}
		var err error
		if it, err = svc.repo.GetGridItem(ctx, id); err != nil {
			return err
		}
		if err := svc.checkSlot(ctx, s, func(other Item) bool { return other.ID == id }); err != nil {
			return err
		}
		it.DayOfWeek, it.StartTime, it.EndTime = s.DayOfWeek, s.StartTime, s.EndTime
		it.UpdatedAt = svc.now()
		it, err = svc.repo.UpdateGridItem(ctx, it)
		return err
	})
	return it, err
}

func (svc *Service) Get(ctx context.Context, id string) (Item, error) {
	return svc.repo.GetGridItem(ctx, id)
}

func (svc *Service) ListItems(ctx context.Context) ([]Item, error) {
	items, err := svc.repo.ListGridItems(ctx, Filter{})
	if err != nil {
		return nil, err
	}
	sortItems(items)
	return items, nil
}

// Remove deletes a slot, unless its class has enrollments.
func (svc *Service) Remove(ctx context.Context, id string) error {
	return svc.repo.WithTx(ctx, func(ctx context.Context) error {
		it, err := svc.repo.GetGridItem(ctx, id)
		if err != nil {
			return err
		}
		counts, err := svc.repo.CountEnrollmentsByClass(ctx)
		if err != nil {
			return errors.Wrap(err, "counting enrollments")
		}
		if counts[it.ClassID] > 0 {
			c, err := svc.repo.GetClass(ctx, it.ClassID)
			if err != nil {
				return err
			}
			return core.NewIntegrityError("class has enrollments", c.Name)
		}
		return svc.repo.DeleteGridItems(ctx, id)
	})
}

func sortItems(items []Item) {
	sort.SliceStable(items, func(i, j int) bool {
		if di, dj := items[i].DayOfWeek.Index(), items[j].DayOfWeek.Index(); di != dj {
			return di < dj
		}
		return items[i].StartTime < items[j].StartTime
	})
}

// cellBuilder resolves the names and attendees shown on schedule cells.
type cellBuilder struct {
	classes    map[string]class.Class
	modalities map[string]string
	levels     map[string]string
	teachers   map[string]teacher.Teacher
	attendees  map[string][]Attendee
	trials     map[string][]Attendee
}

func (svc *Service) newCellBuilder(ctx context.Context, trialsFrom, trialsTo time.Time) (*cellBuilder, error) {
	classes, err := svc.repo.ListClasses(ctx, class.Filter{})
	if err != nil {
		return nil, errors.Wrap(err, "listing classes")
	}
	modalities, err := svc.repo.ListModalities(ctx, class.NameFilter{})
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
	attendees, err := svc.repo.ListClassAttendees(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "listing attendees")
	}
	trials, err := svc.repo.ListSlotTrials(ctx, trialsFrom, trialsTo)
	if err != nil {
		return nil, errors.Wrap(err, "listing trial students")
	}
	return &cellBuilder{
		classes:    lo.KeyBy(classes, func(c class.Class) string { return c.ID }),
		modalities: lo.SliceToMap(modalities, func(m class.Modality) (string, string) { return m.ID, m.Name }),
		levels:     lo.SliceToMap(levels, func(l class.ClassLevel) (string, string) { return l.ID, l.Name }),
		teachers:   lo.KeyBy(teachers, func(t teacher.Teacher) string { return t.ID }),
		attendees:  attendees,
		trials:     trials,
	}, nil
}

func (b *cellBuilder) teacherOf(c class.Class) (teacher.Teacher, bool) {
	if !c.HasTeacher() {
		return teacher.Teacher{}, false
	}
	t, ok := b.teachers[*c.TeacherID]
	return t, ok
}

func (b *cellBuilder) cell(it Item) Cell {
	c := b.classes[it.ClassID]
	cell := Cell{
		ItemID:         it.ID,
		ClassID:        it.ClassID,
		ClassName:      c.Name,
		ModalityName:   b.modalities[c.ModalityID],
		ClassLevelName: b.levels[c.ClassLevelID],
		Description:    c.Description,
		DayOfWeek:      string(it.DayOfWeek),
		StartTime:      it.StartTime,
		EndTime:        it.EndTime,
		MaxStudents:    c.MaxStudents,
		Students:       lo.Ternary(b.attendees[it.ClassID] != nil, b.attendees[it.ClassID], []Attendee{}),
		TrialStudents:  lo.Ternary(b.trials[it.ID] != nil, b.trials[it.ID], []Attendee{}),
	}
	if t, ok := b.teacherOf(c); ok {
		cell.TeacherID = t.ID
		cell.TeacherName = t.FullName()
	}
	return cell
}

func (f ScheduleFilter) matches(c class.Class) bool {
	if f.TeacherID != "" && (!c.HasTeacher() || *c.TeacherID != f.TeacherID) {
		return false
	}
	if f.ModalityID != "" && c.ModalityID != f.ModalityID {
		return false
	}
	if f.ClassLevelID != "" && c.ClassLevelID != f.ClassLevelID {
		return false
	}
	return true
}

// Schedule returns the weekly schedule (rows by start time, columns by weekday) with this
// week's trial bookings and the revenue and cost figures of the slots shown.
func (svc *Service) Schedule(ctx context.Context, filter ScheduleFilter) (Schedule, error) {
	now := svc.now()
	weekStart := calendar.StartOfDay(now).AddDate(0, 0, -calendar.WeekdayOf(now).Index())
	b, err := svc.newCellBuilder(ctx, weekStart, weekStart.AddDate(0, 0, 7).Add(-time.Nanosecond))
	if err != nil {
		return Schedule{}, err
	}
	items, err := svc.repo.ListGridItems(ctx, Filter{})
	if err != nil {
		return Schedule{}, errors.Wrap(err, "listing grid items")
	}
	items = lo.Filter(items, func(it Item, _ int) bool {
		c, ok := b.classes[it.ClassID]
		return ok && filter.matches(c)
	})
	sortItems(items)

	blocks := make([]Block, 0)
	index := make(map[string]int)
	for _, it := range items {
		i, ok := index[it.StartTime]
		if !ok {
			days := make(map[calendar.Weekday][]Cell, len(calendar.Weekdays))
			for _, d := range calendar.Weekdays {
				days[d] = []Cell{}
			}
			blocks = append(blocks, Block{StartTime: it.StartTime, Days: days})
			i = len(blocks) - 1
			index[it.StartTime] = i
		}
		blocks[i].Days[it.DayOfWeek] = append(blocks[i].Days[it.DayOfWeek], b.cell(it))
	}
	sort.SliceStable(blocks, func(i, j int) bool { return blocks[i].StartTime < blocks[j].StartTime })

	dash, err := svc.dashboard(ctx, b, items)
	if err != nil {
		return Schedule{}, err
	}
	return Schedule{Blocks: blocks, Dashboard: dash}, nil
}

// dashboard prices the slots: revenue is the monthly share of the plans of the students
// enrolled in the shown classes, cost is the teacher's hourly rate for every slot of a class
// with at least one student.
func (svc *Service) dashboard(ctx context.Context, b *cellBuilder, items []Item) (Dashboard, error) {
	plans, err := svc.repo.ListPlans(ctx, plan.Filter{})
	if err != nil {
		return Dashboard{}, errors.Wrap(err, "listing plans")
	}
	plansByID := lo.KeyBy(plans, func(p plan.Plan) string { return p.ID })

	dash := Dashboard{TotalSlots: len(items)}
	classIDs := lo.Uniq(lo.Map(items, func(it Item, _ int) string { return it.ClassID }))
	dash.TotalClasses = len(classIDs)

	students := make(map[string]bool)
	monthlyRevenue := decimal.Zero
	for _, id := range classIDs {
		for _, a := range b.attendees[id] {
			students[a.ID] = true
			if p, ok := plansByID[a.PlanID]; ok {
				monthlyRevenue = monthlyRevenue.Add(p.MonthlyPrice())
			}
		}
	}
	dash.TotalStudents = len(students)

	weeklyCost := decimal.Zero
	for _, it := range items {
		c := b.classes[it.ClassID]
		t, ok := b.teacherOf(c)
		if !ok || len(b.attendees[c.ID]) == 0 {
			continue
		}
		minutes, err := calendar.DurationMinutes(it.StartTime, it.EndTime)
		if err != nil {
			return Dashboard{}, errors.Wrapf(err, "grid item %s", it.ID)
		}
		hours := decimal.NewFromInt(int64(minutes)).Div(decimal.NewFromInt(60))
		weeklyCost = weeklyCost.Add(hours.Mul(t.PriceHour))
	}

	dash.MonthlyRevenue = monthlyRevenue.Round(2)
	dash.WeeklyRevenue = monthlyRevenue.Div(weeksPerMonth).Round(2)
	dash.WeeklyCost = weeklyCost.Round(2)
	dash.MonthlyCost = weeklyCost.Mul(weeksPerMonth).Round(2)
	dash.WeeklyProfit = dash.WeeklyRevenue.Sub(dash.WeeklyCost)
	dash.MonthlyProfit = dash.MonthlyRevenue.Sub(dash.MonthlyCost)
	return dash, nil
}

// TeacherAgenda returns the classes of a teacher on the first day, from today on, where they
// have any, each marked done, now, next or pending.
func (svc *Service) TeacherAgenda(ctx context.Context, teacherID string) ([]AgendaEntry, error) {
	now := svc.now()
	items, err := svc.repo.ListGridItems(ctx, Filter{})
	if err != nil {
		return nil, errors.Wrap(err, "listing grid items")
	}
	classes, err := svc.repo.ListClasses(ctx, class.Filter{TeacherID: teacherID})
	if err != nil {
		return nil, errors.Wrap(err, "listing classes")
	}
	taught := lo.SliceToMap(classes, func(c class.Class) (string, bool) { return c.ID, true })
	items = lo.Filter(items, func(it Item, _ int) bool { return taught[it.ClassID] })

	for offset := 0; offset < 7; offset++ {
		day := calendar.StartOfDay(now).AddDate(0, 0, offset)
		dayItems := lo.Filter(items, func(it Item, _ int) bool { return it.DayOfWeek == calendar.WeekdayOf(day) })
		if len(dayItems) == 0 {
			continue
		}
		b, err := svc.newCellBuilder(ctx, day, calendar.EndOfDay(day))
		if err != nil {
			return nil, err
		}
		return buildAgenda(b, dayItems, day, now, offset > 0)
	}
	return []AgendaEntry{}, nil
}

func buildAgenda(b *cellBuilder, items []Item, day, now time.Time, firstAsNext bool) ([]AgendaEntry, error) {
	entries := make([]AgendaEntry, 0, len(items))
	for _, it := range items {
		start, err := calendar.At(day, it.StartTime)
		if err != nil {
			return nil, err
		}
		end, err := calendar.At(day, it.EndTime)
		if err != nil {
			return nil, err
		}
		status := AgendaPending
		switch {
		case !now.Before(end):
			status = AgendaDone
		case !now.Before(start):
			status = AgendaNow
		}
		entries = append(entries, AgendaEntry{
			Cell:     b.cell(it),
			Status:   status,
			DayLabel: calendar.DayLabel(day, now),
			StartsAt: start,
		})
	}
	sort.SliceStable(entries, func(i, j int) bool { return entries[i].StartsAt.Before(entries[j].StartsAt) })

	next := -1
	if _, i, ok := lo.FindIndexOf(entries, func(e AgendaEntry) bool { return e.Status == AgendaNow }); ok {
		next = i + 1
	} else if _, last, ok := lo.FindLastIndexOf(entries, func(e AgendaEntry) bool { return e.Status == AgendaDone }); ok {
		next = last + 1
	} else if firstAsNext {
		next = 0
	}
	if next >= 0 && next < len(entries) {
		entries[next].Status = AgendaNext
	}
	return entries, nil
}
