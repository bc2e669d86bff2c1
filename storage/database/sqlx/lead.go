package sqlxdb

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/lunedance/lune/core"
	"github.com/lunedance/lune/core/lead"
)

var leadColumns = []string{
	"id", "first_name", "last_name", "phone", "email", "find_us_by", "obs", "modality_of_interest",
	"preference_period", "age", "city", "score", "status", "created_at", "updated_at",
}

var leadOrderings = map[string]string{
	"first_name": "first_name",
	"last_name":  "last_name",
	"age":        "age",
	"score":      "score",
	"status":     "status",
	"created_at": "created_at",
	"updated_at": "updated_at",
}

type leadRow struct {
	ID                 string      `db:"id"`
	FirstName          string      `db:"first_name"`
	LastName           string      `db:"last_name"`
	Phone              string      `db:"phone"`
	Email              string      `db:"email"`
	FindUsBy           string      `db:"find_us_by"`
	Obs                string      `db:"obs"`
	ModalityOfInterest string      `db:"modality_of_interest"`
	PreferencePeriod   string      `db:"preference_period"`
	Age                int         `db:"age"`
	City               string      `db:"city"`
	Score              lead.Score  `db:"score"`
	Status             lead.Status `db:"status"`
	CreatedAt          time.Time   `db:"created_at"`
	UpdatedAt          time.Time   `db:"updated_at"`
}

func (s *Store) CreateLead(ctx context.Context, l lead.Lead) (lead.Lead, error) {
	if l.ID == "" {
		l.ID = core.NewID()
	}
	if err := s.insert(ctx, "leads", leadColumns, leadRow(l)); err != nil {
		return lead.Lead{}, errors.Wrap(err, "inserting lead")
	}
	return l, nil
}

func (s *Store) GetLead(ctx context.Context, id string) (lead.Lead, error) {
	if !validID(id) {
		return lead.Lead{}, lead.ErrNotFound
	}
	var row leadRow
	if err := s.get(ctx, &row, selectList(leadColumns, "leads")+" WHERE id = ?", id); err != nil {
		return lead.Lead{}, trapNoRows(err, lead.ErrNotFound, "selecting lead")
	}
	return lead.Lead(row), nil
}

// ListLeads matches Name against first name, last name and phone. Other text fields must be equal.
func (s *Store) ListLeads(ctx context.Context, filter lead.Filter, orderings ...core.DBOrdering) ([]lead.Lead, error) {
	var w where
	w.ids("id", filter.IDs)
	w.contains(filter.Name, "first_name", "last_name", "phone")
	w.contains(filter.Phone, "phone")
	if filter.FindUsBy != "" {
		w.eq("find_us_by", filter.FindUsBy)
	}
	if filter.Age != nil {
		w.eq("age", *filter.Age)
	}
	if filter.Score != nil {
		w.eq("score", int(*filter.Score))
	}
	if filter.Status != nil {
		w.eq("status", int(*filter.Status))
	}
	if filter.Modality != "" {
		w.eq("modality_of_interest", filter.Modality)
	}
	if filter.PreferencePeriod != "" {
		w.eq("preference_period", filter.PreferencePeriod)
	}

	q := selectList(leadColumns, "leads") + w.String() +
		" ORDER BY " + core.OrderBy(orderings, leadOrderings, "updated_at DESC")
	var rows []leadRow
	if err := s.selectAll(ctx, &rows, q, w.args...); err != nil {
		return nil, errors.Wrap(err, "selecting leads")
	}
	leads := make([]lead.Lead, 0, len(rows))
	for _, r := range rows {
		leads = append(leads, lead.Lead(r))
	}
	return leads, nil
}

func (s *Store) UpdateLead(ctx context.Context, l lead.Lead) (lead.Lead, error) {
	if !validID(l.ID) {
		return lead.Lead{}, lead.ErrNotFound
	}
	if err := s.update(ctx, "leads", leadColumns, leadRow(l), lead.ErrNotFound); err != nil {
		return lead.Lead{}, err
	}
	return l, nil
}

// DeleteLead removes a lead. Their trial classes go along through cascades.
func (s *Store) DeleteLead(ctx context.Context, id string) error {
	return s.deleteByID(ctx, "leads", id, lead.ErrNotFound)
}
