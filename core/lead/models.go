package lead

import (
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"github.com/lunedance/lune/core"
)

// Score rates how likely a lead is to enroll.
type Score int

const (
	ScoreUndefined Score = iota
	ScoreNoInterest
	ScoreLowInterest
	ScoreModerateInterest
	ScoreInterested
	ScoreVeryInterested
	ScoreReadyToClose
	ScoreWorkshopSubscriber
	ScoreTrialClass
)

type Status int

const (
	StatusUndefined Status = iota
	StatusNewLead
	StatusContacted
	StatusEnrolled
)

type Lead struct {
	ID                 string    `json:"id"`
	FirstName          string    `json:"first_name"`
	LastName           string    `json:"last_name"`
	Phone              string    `json:"phone"`
	Email              string    `json:"email"`
	FindUsBy           string    `json:"find_us_by"`
	Obs                string    `json:"obs"`
	ModalityOfInterest string    `json:"modality_of_interest"`
	PreferencePeriod   string    `json:"preference_period"`
	Age                int       `json:"age"`
	City               string    `json:"city"`
	Score              Score     `json:"score"`
	Status             Status    `json:"status"`
	CreatedAt          time.Time `json:"created_at"`
	UpdatedAt          time.Time `json:"updated_at"`
}

func (l Lead) FullName() string {
	return core.CleanString(l.FirstName + " " + l.LastName)
}

type NewLead struct {
	FirstName          string `json:"first_name" validate:"required"`
	LastName           string `json:"last_name"`
	Phone              string `json:"phone" validate:"required,min=8"`
	Email              string `json:"email" validate:"omitempty,email"`
	FindUsBy           string `json:"find_us_by"`
	Obs                string `json:"obs"`
	ModalityOfInterest string `json:"modality_of_interest"`
	PreferencePeriod   string `json:"preference_period"`
	Age                int    `json:"age" validate:"gte=0,lte=120"`
	City               string `json:"city"`
	Score              Score  `json:"score" validate:"gte=0,lte=8"`
	Status             Status `json:"status" validate:"gte=0,lte=3"`
}

func (nl *NewLead) Clean() {
	nl.FirstName = core.CleanString(nl.FirstName)
	nl.LastName = core.CleanString(nl.LastName)
	nl.Phone = core.OnlyDigits(nl.Phone)
	nl.Email = core.CleanString(nl.Email)
	nl.FindUsBy = core.CleanString(nl.FindUsBy)
	nl.City = core.CleanString(nl.City)
}

func (nl *NewLead) Validate(validate *validator.Validate) error {
	nl.Clean()
	return validate.Struct(nl)
}

type UpdateLead struct {
	FirstName          *string `json:"first_name" validate:"omitempty,min=1"`
	LastName           *string `json:"last_name"`
	Phone              *string `json:"phone" validate:"omitempty,min=8"`
	Email              *string `json:"email" validate:"omitempty,email"`
	FindUsBy           *string `json:"find_us_by"`
	Obs                *string `json:"obs"`
	ModalityOfInterest *string `json:"modality_of_interest"`
	PreferencePeriod   *string `json:"preference_period"`
	Age                *int    `json:"age" validate:"omitempty,gte=0,lte=120"`
	City               *string `json:"city"`
	Score              *Score  `json:"score" validate:"omitempty,gte=0,lte=8"`
	Status             *Status `json:"status" validate:"omitempty,gte=0,lte=3"`
}

func (ul *UpdateLead) Validate(validate *validator.Validate) error {
	if ul.Phone != nil {
		p := core.OnlyDigits(*ul.Phone)
		ul.Phone = &p
	}
	return validate.Struct(ul)
}

// Apply copies the fields set on ul to l.
func (ul UpdateLead) Apply(l *Lead) {
	str := func(dst *string, src *string) {
		if src != nil {
			*dst = core.CleanString(*src)
		}
	}
	str(&l.FirstName, ul.FirstName)
	str(&l.LastName, ul.LastName)
	str(&l.Phone, ul.Phone)
	str(&l.Email, ul.Email)
	str(&l.FindUsBy, ul.FindUsBy)
	str(&l.Obs, ul.Obs)
	str(&l.ModalityOfInterest, ul.ModalityOfInterest)
	str(&l.PreferencePeriod, ul.PreferencePeriod)
	str(&l.City, ul.City)
	if ul.Age != nil {
		l.Age = *ul.Age
	}
	if ul.Score != nil {
		l.Score = *ul.Score
	}
	if ul.Status != nil {
		l.Status = *ul.Status
	}
}

// Filter narrows a lead listing. Name matches first name, last name or phone.
type Filter struct {
	IDs              []string
	Name             string
	Phone            string
	FindUsBy         string
	Age              *int
	Score            *Score
	Status           *Status
	Modality         string
	PreferencePeriod string
}

// Query is a lead listing as requested over HTTP.
type Query struct {
	Name             string `query:"name"`
	Phone            string `query:"phone"`
	FindUsBy         string `query:"find_us_by"`
	Age              string `query:"age" validate:"omitempty,numeric"`
	Score            string `query:"score" validate:"omitempty,numeric"`
	Status           string `query:"status" validate:"omitempty,numeric"`
	Modality         string `query:"modality"`
	PreferencePeriod string `query:"preference_period"`
	SortBy           string `query:"sort_by" validate:"omitempty,oneof=first_name last_name age score status created_at updated_at"`
	SortOrder        string `query:"sort_order" validate:"omitempty,oneof=asc desc"`
}

func (q *Query) Validate(validate *validator.Validate) error {
	return validate.Struct(q)
}

// Filter converts q, which must have been validated.
func (q Query) Filter() Filter {
	atoi := func(s string) *int {
		if n, err := strconv.Atoi(s); err == nil {
			return &n
		}
		return nil
	}
	f := Filter{
		Name:             core.CleanString(q.Name),
		Phone:            core.OnlyDigits(q.Phone),
		FindUsBy:         q.FindUsBy,
		Age:              atoi(q.Age),
		Modality:         q.Modality,
		PreferencePeriod: q.PreferencePeriod,
	}
	if n := atoi(q.Score); n != nil {
		s := Score(*n)
		f.Score = &s
	}
	if n := atoi(q.Status); n != nil {
		s := Status(*n)
		f.Status = &s
	}
	return f
}

// Ordering returns the requested ordering, latest update first by default.
func (q Query) Ordering() core.DBOrdering {
	ord := core.DBOrdering{Field: "updated_at"}
	if q.SortBy != "" {
		ord.Field = q.SortBy
	}
	ord.Ascending = q.SortOrder == "asc"
	return ord
}

type (
	Count struct {
		Key   string `json:"key"`
		Count int    `json:"count"`
	}

	Dashboard struct {
		TotalLeads        int             `json:"total_leads"`
		LeadsByStatus     []Count         `json:"leads_by_status"`
		LeadsByModality   []Count         `json:"leads_by_modality"`
		LeadsByFindUsBy   []Count         `json:"leads_by_find_us_by"`
		AverageScore      decimal.Decimal `json:"average_score"`
		NewLeadsLast7Days int             `json:"new_leads_last_7_days"`
	}

	Listing struct {
		Value     []Lead    `json:"value"`
		Dashboard Dashboard `json:"dashboard"`
	}
)
