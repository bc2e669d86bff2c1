package workedhour

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
	"github.com/lunedance/lune/core/grid"
	"github.com/lunedance/lune/core/settings"
	"github.com/lunedance/lune/core/stats"
	"github.com/lunedance/lune/core/teacher"
)

var (
	ErrNotFound = core.NewNotFoundError("worked hour")
	ErrNoSlot   = errors.New("the class has no slot in the grid")
)

type (
	Repository interface {
		core.Transactor

		CreateWorkedHours(ctx context.Context, whs ...WorkedHour) error
		GetWorkedHour(ctx context.Context, id string) (WorkedHour, error)
		// ListWorkedHours returns the records matching filter, latest first.
		ListWorkedHours(ctx context.Context, filter Filter) ([]WorkedHour, error)
		CountWorkedHours(ctx context.Context, filter Filter) (int, error)
		UpdateWorkedHour(ctx context.Context, wh WorkedHour) (WorkedHour, error)
		DeleteWorkedHour(ctx context.Context, id string) error

		GetTeacher(ctx context.Context, id string) (teacher.Teacher, error)
		ListTeachers(ctx context.Context, filter teacher.Filter, orderings ...core.DBOrdering) ([]teacher.Teacher, error)
		GetClass(ctx context.Context, id string) (class.Class, error)
		ListClasses(ctx context.Context, filter class.Filter) ([]class.Class, error)
		ListModalities(ctx context.Context, filter class.NameFilter) ([]class.Modality, error)
		ListClassLevels(ctx context.Context, filter class.NameFilter) ([]class.ClassLevel, error)
		ListGridItems(ctx context.Context, filter grid.Filter) ([]grid.Item, error)
		ListClassAttendees(ctx context.Context) (map[string][]grid.Attendee, error)
		ListSlotTrials(ctx context.Context, from, to time.Time) (map[string][]grid.Attendee, error)
	}

	Service struct {
		repo     Repository
		settings *settings.Service
		now      calendar.Clock
	}
)

func NewService(repo Repository, settings *settings.Service, now calendar.Clock) *Service {
	return &Service{repo: repo, settings: settings, now: now}
}

// references resolves what snapshots are built from.
type references struct {
	teachers   map[string]teacher.Teacher
	modalities map[string]string
	levels     map[string]string
	attendees  map[string][]grid.Attendee
	trials     map[string][]grid.Attendee
}

func (svc *Service) loadReferences(ctx context.Context, day time.Time) (references, error) {
	var refs references
	teachers, err := svc.repo.ListTeachers(ctx, teacher.Filter{})
	if err != nil {
		return refs, errors.Wrap(err, "listing teachers")
	}
	mods, err := svc.repo.ListModalities(ctx, class.NameFilter{})
	if err != nil {
		return refs, errors.Wrap(err, "listing modalities")
	}
	levels, err := svc.repo.ListClassLevels(ctx, class.NameFilter{})
	if err != nil {
		return refs, errors.Wrap(err, "listing class levels")
	}
	if refs.attendees, err = svc.repo.ListClassAttendees(ctx); err != nil {
		return refs, errors.Wrap(err, "listing attendees")
	}
	if refs.trials, err = svc.repo.ListSlotTrials(ctx, calendar.StartOfDay(day), calendar.EndOfDay(day)); err != nil {
		return refs, errors.Wrap(err, "listing trials")
	}
	refs.teachers = lo.KeyBy(teachers, func(t teacher.Teacher) string { return t.ID })
	refs.modalities = lo.SliceToMap(mods, func(m class.Modality) (string, string) { return m.ID, m.Name })
	refs.levels = lo.SliceToMap(levels, func(l class.ClassLevel) (string, string) { return l.ID, l.Name })
	return refs, nil
}

func (refs references) classSnapshot(c class.Class, slotID string) Snapshot {
	enrolled, trials := len(refs.attendees[c.ID]), len(refs.trials[slotID])
	return Snapshot{
		ModalityName:     refs.modalities[c.ModalityID],
		ClassLevel:       refs.levels[c.ClassLevelID],
		ClassDescription: c.Description,
		EnrolledStudents: enrolled,
		TrialStudents:    trials,
		TotalStudents:    enrolled + trials,
	}
}

// session places a slot on a day. An end at or before the start rolls to the next day.
func session(day time.Time, it grid.Item) (time.Time, time.Time, int, error) {
	startedAt, err := calendar.At(day, it.StartTime)
	if err != nil {
		return time.Time{}, time.Time{}, 0, err
	}
	duration, err := calendar.DurationMinutes(it.StartTime, it.EndTime)
	if err != nil {
		return time.Time{}, time.Time{}, 0, err
	}
	return startedAt, startedAt.Add(time.Duration(duration) * time.Minute), duration, nil
}

// CreateBatch records today's classes as PENDING worked hours. It does nothing when today's
// records already exist, and skips classes without teacher or without students.
func (svc *Service) CreateBatch(ctx context.Context) (int, error) {
	now := svc.now()
	today := calendar.StartOfDay(now)
	existing, err := svc.repo.CountWorkedHours(ctx, Filter{From: today, To: calendar.EndOfDay(now)})
	if err != nil {
		return 0, errors.Wrap(err, "counting today's worked hours")
	}
	if existing > 0 {
		return 0, nil
	}

	items, err := svc.repo.ListGridItems(ctx, grid.Filter{Days: []calendar.Weekday{calendar.WeekdayOf(now)}})
	if err != nil {
		return 0, errors.Wrap(err, "listing grid items")
	}
	if len(items) == 0 {
		return 0, nil
	}
	classes, err := svc.repo.ListClasses(ctx, class.Filter{
		IDs: lo.Uniq(lo.Map(items, func(it grid.Item, _ int) string { return it.ClassID })),
	})
	if err != nil {
		return 0, errors.Wrap(err, "listing classes")
	}
	byID := lo.KeyBy(classes, func(c class.Class) string { return c.ID })
	refs, err := svc.loadReferences(ctx, now)
	if err != nil {
		return 0, err
	}

	var batch []WorkedHour
	for _, it := range items {
		c, ok := byID[it.ClassID]
		if !ok || !c.HasTeacher() {
			continue
		}
		t, ok := refs.teachers[*c.TeacherID]
		if !ok {
			continue
		}
		snap := refs.classSnapshot(c, it.ID)
		if snap.TotalStudents == 0 {
			continue
		}
		snap.TeacherName = t.FullName()
		startedAt, endedAt, duration, err := session(today, it)
		if err != nil {
			return 0, errors.Wrapf(err, "grid item %s", it.ID)
		}
		batch = append(batch, WorkedHour{
			ID:            core.NewID(),
			TeacherID:     t.ID,
			ClassID:       c.ID,
			WorkedAt:      today,
			StartedAt:     startedAt,
			EndedAt:       endedAt,
			Duration:      duration,
			PriceSnapshot: t.PriceHour,
			Status:        StatusPending,
			Snapshot:      snap,
			CreatedAt:     now,
			UpdatedAt:     now,
		})
	}
	if len(batch) == 0 {
		return 0, nil
	}
	if err = svc.repo.CreateWorkedHours(ctx, batch...); err != nil {
		return 0, errors.Wrap(err, "creating worked hours")
	}
	return len(batch), nil
}

// slotOn picks the grid item of a class falling on day's weekday, or its first one.
func (svc *Service) slotOn(ctx context.Context, classID string, day time.Time) (grid.Item, error) {
	items, err := svc.repo.ListGridItems(ctx, grid.Filter{ClassIDs: []string{classID}})
	if err != nil {
		return grid.Item{}, errors.Wrap(err, "listing grid items")
	}
	if len(items) == 0 {
		return grid.Item{}, core.NewValidationError(ErrNoSlot,
			core.FieldError{Field: "class_id", Error: ErrNoSlot.Error()})
	}
	wd := calendar.WeekdayOf(day)
	if it, ok := lo.Find(items, func(it grid.Item) bool { return it.DayOfWeek == wd }); ok {
		return it, nil
	}
	return items[0], nil
}

// bindClass points wh at class c on wh.WorkedAt and refreshes the class part of its snapshot.
func (svc *Service) bindClass(ctx context.Context, wh *WorkedHour, c class.Class) error {
	it, err := svc.slotOn(ctx, c.ID, wh.WorkedAt)
	if err != nil {
		return err
	}
	refs, err := svc.loadReferences(ctx, wh.WorkedAt)
	if err != nil {
		return err
	}
	if wh.StartedAt, wh.EndedAt, wh.Duration, err = session(wh.WorkedAt, it); err != nil {
		return errors.Wrapf(err, "grid item %s", it.ID)
	}
	teacherName := wh.Snapshot.TeacherName
	wh.ClassID = c.ID
	wh.Snapshot = refs.classSnapshot(c, it.ID)
	wh.Snapshot.TeacherName = teacherName
	return nil
}

func bindTeacher(wh *WorkedHour, t teacher.Teacher) {
	wh.TeacherID = t.ID
	wh.Snapshot.TeacherName = t.FullName()
	wh.PriceSnapshot = t.PriceHour
}

// Create records a worked hour by hand, DONE unless told otherwise.
func (svc *Service) Create(ctx context.Context, nw NewWorkedHour) (WorkedHour, error) {
	c, err := svc.repo.GetClass(ctx, nw.ClassID)
	if err != nil {
		return WorkedHour{}, err
	}
	t, err := svc.repo.GetTeacher(ctx, nw.TeacherID)
	if err != nil {
		return WorkedHour{}, err
	}

	now := svc.now()
	wh := WorkedHour{
		ID:             core.NewID(),
		WorkedAt:       calendar.StartOfDay(nw.WorkedAt),
		Status:         lo.Ternary(nw.Status == "", StatusDone, nw.Status),
		NewEnrollments: nw.NewEnrollments,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err = svc.bindClass(ctx, &wh, c); err != nil {
		return WorkedHour{}, err
	}
	bindTeacher(&wh, t)
	if err = svc.repo.CreateWorkedHours(ctx, wh); err != nil {
		return WorkedHour{}, err
	}
	return wh, nil
}

func (svc *Service) Get(ctx context.Context, id string) (WorkedHour, error) {
	return svc.repo.GetWorkedHour(ctx, id)
}

// Update edits a worked hour. A new teacher or class refreshes the matching snapshot fields.
func (svc *Service) Update(ctx context.Context, id string, uw UpdateWorkedHour) (WorkedHour, error) {
	wh, err := svc.repo.GetWorkedHour(ctx, id)
	if err != nil {
		return WorkedHour{}, err
	}

	if uw.TeacherID != nil && *uw.TeacherID != wh.TeacherID {
		t, err := svc.repo.GetTeacher(ctx, *uw.TeacherID)
		if err != nil {
			return WorkedHour{}, err
		}
		bindTeacher(&wh, t)
	}
	if uw.WorkedAt != nil {
		wh.WorkedAt = calendar.StartOfDay(*uw.WorkedAt)
	}
	if (uw.ClassID != nil && *uw.ClassID != wh.ClassID) || uw.WorkedAt != nil {
		c, err := svc.repo.GetClass(ctx, lo.FromPtrOr(uw.ClassID, wh.ClassID))
		if err != nil {
			return WorkedHour{}, err
		}
		if err = svc.bindClass(ctx, &wh, c); err != nil {
			return WorkedHour{}, err
		}
	}
	if uw.NewEnrollments != nil {
		wh.NewEnrollments = *uw.NewEnrollments
	}
	if uw.Status != nil {
		wh.Status = *uw.Status
	}
	if uw.PriceSnapshot != nil {
		wh.PriceSnapshot = *uw.PriceSnapshot
	}
	wh.UpdatedAt = svc.now()
	return svc.repo.UpdateWorkedHour(ctx, wh)
}

// UpdateTeacher hands a worked hour over to another teacher, at that teacher's rate.
func (svc *Service) UpdateTeacher(ctx context.Context, id string, teacherID string) (WorkedHour, error) {
	wh, err := svc.repo.GetWorkedHour(ctx, id)
	if err != nil {
		return WorkedHour{}, err
	}
	t, err := svc.repo.GetTeacher(ctx, teacherID)
	if err != nil {
		return WorkedHour{}, err
	}
	bindTeacher(&wh, t)
	wh.UpdatedAt = svc.now()
	return svc.repo.UpdateWorkedHour(ctx, wh)
}

// UpdateStatus changes the status of a worked hour. Teachers may only change their own.
func (svc *Service) UpdateStatus(ctx context.Context, id string, status Status, by core.Principal) (WorkedHour, error) {
	wh, err := svc.repo.GetWorkedHour(ctx, id)
	if err != nil {
		return WorkedHour{}, err
	}
	if !by.IsStaff() && !(by.IsTeacher() && by.ID == wh.TeacherID) {
		return WorkedHour{}, core.NewForbiddenError("not authorized to update this worked hour")
	}
	wh.Status = status
	wh.UpdatedAt = svc.now()
	return svc.repo.UpdateWorkedHour(ctx, wh)
}

func (svc *Service) Remove(ctx context.Context, id string) error {
	if _, err := svc.repo.GetWorkedHour(ctx, id); err != nil {
		return err
	}
	return svc.repo.DeleteWorkedHour(ctx, id)
}

func (svc *Service) PendingCount(ctx context.Context) (int, error) {
	return svc.repo.CountWorkedHours(ctx, Filter{Statuses: []Status{StatusPending}})
}

func (svc *Service) commission(ctx context.Context) (decimal.Decimal, error) {
	s, err := svc.settings.Get(ctx)
	if err != nil {
		return decimal.Zero, errors.Wrap(err, "getting settings")
	}
	return s.TeacherCommissionPerEnrollment, nil
}

// monthOf resolves a month query, defaulting to the current month.
func (svc *Service) monthOf(year int, month time.Month) (time.Time, time.Time) {
	now := calendar.Local(svc.now())
	if year == 0 {
		year = now.Year()
	}
	if month == 0 {
		month = now.Month()
	}
	return calendar.MonthRange(year, month)
}

// ListDone returns the DONE worked hours between from and to.
func (svc *Service) ListDone(ctx context.Context, from, to time.Time) ([]WorkedHour, error) {
	return svc.repo.ListWorkedHours(ctx, Filter{Statuses: []Status{StatusDone}, From: from, To: to})
}

// MonthlyReport summarizes the payroll of a month against the previous one. Only DONE records
// are paid, the listing shows them all.
func (svc *Service) MonthlyReport(ctx context.Context, year int, month time.Month) (Report, error) {
	from, to := svc.monthOf(year, month)
	prevFrom, prevTo := calendar.MonthRange(from.AddDate(0, -1, 0).Year(), from.AddDate(0, -1, 0).Month())

	commission, err := svc.commission(ctx)
	if err != nil {
		return Report{}, err
	}
	all, err := svc.repo.ListWorkedHours(ctx, Filter{From: from, To: to})
	if err != nil {
		return Report{}, errors.Wrap(err, "listing worked hours")
	}
	previous, err := svc.ListDone(ctx, prevFrom, prevTo)
	if err != nil {
		return Report{}, errors.Wrap(err, "listing previous worked hours")
	}
	attendees, err := svc.repo.ListClassAttendees(ctx)
	if err != nil {
		return Report{}, errors.Wrap(err, "listing attendees")
	}

	done := lo.Filter(all, func(wh WorkedHour, _ int) bool { return wh.Status == StatusDone })
	salary := SumSalaries(done, commission)
	prevSalary := SumSalaries(previous, commission)
	newEnrollments := lo.SumBy(done, func(wh WorkedHour) int { return wh.NewEnrollments })
	prevNewEnrollments := lo.SumBy(previous, func(wh WorkedHour) int { return wh.NewEnrollments })

	perTeacher := teacherStats(done, attendees, commission)
	report := Report{
		Cards: Cards{
			TotalToPay: PayrollCard{
				Value:           salary.Total,
				FromHours:       salary.FromHours,
				FromEnrollments: salary.FromCommissions,
				Trend:           stats.CalcTrend(salary.Total, prevSalary.Total).Inverted(),
			},
			NewEnrollments: EnrollmentsCard{
				Value: newEnrollments,
				Trend: stats.CalcTrend(decimal.NewFromInt(int64(newEnrollments)), decimal.NewFromInt(int64(prevNewEnrollments))),
			},
			BestTeacher: bestTeacher(perTeacher),
		},
		TeacherStats: perTeacher,
		WorkedHours: lo.Map(all, func(wh WorkedHour, _ int) Entry {
			return Entry{WorkedHour: wh, Students: lo.Ternary(attendees[wh.ClassID] == nil, []grid.Attendee{}, attendees[wh.ClassID])}
		}),
	}
	return report, nil
}

func teacherStats(done []WorkedHour, attendees map[string][]grid.Attendee, commission decimal.Decimal) map[string]TeacherStats {
	result := make(map[string]TeacherStats)
	students := make(map[string]map[string]struct{})
	for _, wh := range done {
		ts, ok := result[wh.TeacherID]
		if !ok {
			ts = TeacherStats{TeacherID: wh.TeacherID, TeacherName: wh.Snapshot.TeacherName, TotalCost: decimal.Zero}
			students[wh.TeacherID] = make(map[string]struct{})
		}
		ts.TotalCost = ts.TotalCost.Add(earned(wh, commission).Total)
		ts.TotalClasses++
		ts.TotalStudents += wh.Snapshot.TrialStudents
		ts.NewEnrollments += wh.NewEnrollments
		for _, a := range attendees[wh.ClassID] {
			students[wh.TeacherID][a.ID] = struct{}{}
		}
		result[wh.TeacherID] = ts
	}
	for id, ts := range result {
		ts.TotalStudents += len(students[id])
		ts.TotalCost = ts.TotalCost.Round(2)
		result[id] = ts
	}
	return result
}

// bestTeacher picks the teacher reaching the most students per unit of cost.
func bestTeacher(perTeacher map[string]TeacherStats) TeacherStats {
	best := TeacherStats{TeacherName: "N/A", TotalCost: decimal.Zero}
	bestScore := decimal.Zero
	ids := lo.Keys(perTeacher)
	sort.Strings(ids)
	for _, id := range ids {
		ts := perTeacher[id]
		cost := ts.TotalCost
		if !cost.IsPositive() {
			cost = decimal.NewFromInt(1)
		}
		score := decimal.NewFromInt(int64(ts.TotalStudents)).Div(cost)
		if score.GreaterThan(bestScore) {
			best, bestScore = ts, score
		}
	}
	return best
}

// ByTeacher returns what each teacher is owed for a month, highest first.
func (svc *Service) ByTeacher(ctx context.Context, year int, month time.Month) ([]TeacherPayroll, error) {
	from, to := svc.monthOf(year, month)
	commission, err := svc.commission(ctx)
	if err != nil {
		return nil, err
	}
	done, err := svc.ListDone(ctx, from, to)
	if err != nil {
		return nil, errors.Wrap(err, "listing worked hours")
	}
	teachers, err := svc.repo.ListTeachers(ctx, teacher.Filter{
		IDs: lo.Uniq(lo.Map(done, func(wh WorkedHour, _ int) string { return wh.TeacherID })),
	})
	if err != nil {
		return nil, errors.Wrap(err, "listing teachers")
	}
	pixKeys := lo.SliceToMap(teachers, func(t teacher.Teacher) (string, string) { return t.ID, t.PixKey })

	byTeacher := make(map[string]*TeacherPayroll)
	var order []string
	for _, wh := range done {
		tp, ok := byTeacher[wh.TeacherID]
		if !ok {
			tp = &TeacherPayroll{
				TeacherID:   wh.TeacherID,
				TeacherName: wh.Snapshot.TeacherName,
				TotalHours:  decimal.Zero,
				PriceHour:   wh.PriceSnapshot,
				TotalToPay:  decimal.Zero,
				Modalities:  []string{},
				PixKey:      pixKeys[wh.TeacherID],
			}
			byTeacher[wh.TeacherID] = tp
			order = append(order, wh.TeacherID)
		}
		tp.TotalClasses++
		tp.TotalHours = tp.TotalHours.Add(decimal.NewFromInt(int64(wh.Duration)).Div(sixty))
		tp.NewEnrollments += wh.NewEnrollments
		tp.TotalToPay = tp.TotalToPay.Add(earned(wh, commission).Total)
		if !lo.Contains(tp.Modalities, wh.Snapshot.ModalityName) {
			tp.Modalities = append(tp.Modalities, wh.Snapshot.ModalityName)
		}
	}

	payroll := lo.Map(order, func(id string, _ int) TeacherPayroll {
		tp := *byTeacher[id]
		tp.TotalHours = tp.TotalHours.Round(2)
		tp.TotalToPay = tp.TotalToPay.Round(2)
		return tp
	})
	sort.SliceStable(payroll, func(i, j int) bool {
		return payroll[i].TotalToPay.GreaterThan(payroll[j].TotalToPay)
	})
	return payroll, nil
}

// TeacherMonth returns the worked hours of a teacher in a month, whatever their status.
func (svc *Service) TeacherMonth(ctx context.Context, teacherID string, year int, month time.Month) (TeacherMonth, error) {
	t, err := svc.repo.GetTeacher(ctx, teacherID)
	if err != nil {
		return TeacherMonth{}, err
	}
	from, to := svc.monthOf(year, month)
	whs, err := svc.repo.ListWorkedHours(ctx, Filter{TeacherIDs: []string{teacherID}, From: from, To: to})
	if err != nil {
		return TeacherMonth{}, errors.Wrap(err, "listing worked hours")
	}
	minutes := lo.SumBy(whs, func(wh WorkedHour) int { return wh.Duration })
	return TeacherMonth{
		TeacherID:     t.ID,
		TeacherName:   t.FullName(),
		TotalHours:    decimal.NewFromInt(int64(minutes)).Div(sixty).Round(2),
		WorkedDetails: whs,
	}, nil
}
