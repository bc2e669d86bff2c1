package sqlxdb

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/lunedance/lune/core"
	"github.com/lunedance/lune/core/student"
)

var studentColumns = []string{
	"id", "first_name", "last_name", "birth_date", "cpf", "rg", "phone", "email", "instagram", "obs", "created_at", "updated_at",
}

type studentRow struct {
	ID        string    `db:"id"`
	FirstName string    `db:"first_name"`
	LastName  string    `db:"last_name"`
	BirthDate null.Time `db:"birth_date"`
	CPF       string    `db:"cpf"`
	RG        string    `db:"rg"`
	Phone     string    `db:"phone"`
	Email     string    `db:"email"`
	Instagram string    `db:"instagram"`
	Obs       string    `db:"obs"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

func studentToRow(st student.Student) studentRow {
	return studentRow{
		ID:        st.ID,
		FirstName: st.FirstName,
		LastName:  st.LastName,
		BirthDate: null.TimeFromPtr(st.BirthDate),
		CPF:       st.CPF,
		RG:        st.RG,
		Phone:     st.Phone,
		Email:     st.Email,
		Instagram: st.Instagram,
		Obs:       st.Obs,
		CreatedAt: st.CreatedAt,
		UpdatedAt: st.UpdatedAt,
	}
}

func (r studentRow) toStudent() student.Student {
	return student.Student{
		ID:        r.ID,
		FirstName: r.FirstName,
		LastName:  r.LastName,
		BirthDate: r.BirthDate.Ptr(),
		CPF:       r.CPF,
		RG:        r.RG,
		Phone:     r.Phone,
		Email:     r.Email,
		Instagram: r.Instagram,
		Obs:       r.Obs,
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}
}

func (s *Store) CreateStudent(ctx context.Context, st student.Student) (student.Student, error) {
	if st.ID == "" {
		st.ID = core.NewID()
	}
	if err := s.insert(ctx, "students", studentColumns, studentToRow(st)); err != nil {
		return student.Student{}, errors.Wrap(err, "inserting student")
	}
	return st, nil
}

func (s *Store) GetStudent(ctx context.Context, id string) (student.Student, error) {
	if !validID(id) {
		return student.Student{}, student.ErrNotFound
	}
	var row studentRow
	if err := s.get(ctx, &row, selectList(studentColumns, "students")+" WHERE id = ?", id); err != nil {
		return student.Student{}, trapNoRows(err, student.ErrNotFound, "selecting student")
	}
	return row.toStudent(), nil
}

func (s *Store) ListStudents(ctx context.Context, filter student.Filter) ([]student.Student, error) {
	var w where
	w.ids("id", filter.IDs)
	w.contains(filter.Name, "first_name", "last_name")

	var rows []studentRow
	q := selectList(studentColumns, "students") + w.String() + " ORDER BY first_name, last_name"
	if err := s.selectAll(ctx, &rows, q, w.args...); err != nil {
		return nil, errors.Wrap(err, "selecting students")
	}
	students := make([]student.Student, 0, len(rows))
	for _, r := range rows {
		students = append(students, r.toStudent())
	}
	return students, nil
}

func (s *Store) UpdateStudent(ctx context.Context, st student.Student) (student.Student, error) {
	if !validID(st.ID) {
		return student.Student{}, student.ErrNotFound
	}
	if err := s.update(ctx, "students", studentColumns, studentToRow(st), student.ErrNotFound); err != nil {
		return student.Student{}, err
	}
	return st, nil
}

// DeleteStudent removes a student. Contacts, address, enrollments, payments and contract tokens
// go along through cascades.
func (s *Store) DeleteStudent(ctx context.Context, id string) error {
	return s.deleteByID(ctx, "students", id, student.ErrNotFound)
}

// Emergency contacts

var contactColumns = []string{"id", "student_id", "name", "phone", "relationship", "created_at", "updated_at"}

type contactRow struct {
	ID           string    `db:"id"`
	StudentID    string    `db:"student_id"`
	Name         string    `db:"name"`
	Phone        string    `db:"phone"`
	Relationship string    `db:"relationship"`
	CreatedAt    time.Time `db:"created_at"`
	UpdatedAt    time.Time `db:"updated_at"`
}

func (s *Store) CreateEmergencyContact(ctx context.Context, c student.EmergencyContact) (student.EmergencyContact, error) {
	if c.ID == "" {
		c.ID = core.NewID()
	}
	if err := s.insert(ctx, "emergency_contacts", contactColumns, contactRow(c)); err != nil {
		return student.EmergencyContact{}, errors.Wrap(err, "inserting emergency contact")
	}
	return c, nil
}

func (s *Store) ListEmergencyContacts(ctx context.Context, studentID string) ([]student.EmergencyContact, error) {
	if !validID(studentID) {
		return []student.EmergencyContact{}, nil
	}
	var rows []contactRow
	q := selectList(contactColumns, "emergency_contacts") + " WHERE student_id = ? ORDER BY created_at"
	if err := s.selectAll(ctx, &rows, q, studentID); err != nil {
		return nil, errors.Wrap(err, "selecting emergency contacts")
	}
	contacts := make([]student.EmergencyContact, 0, len(rows))
	for _, r := range rows {
		contacts = append(contacts, student.EmergencyContact(r))
	}
	return contacts, nil
}

func (s *Store) UpdateEmergencyContact(ctx context.Context, c student.EmergencyContact) (student.EmergencyContact, error) {
	notFound := core.NewNotFoundError("emergency contact")
	if !validID(c.ID) {
		return student.EmergencyContact{}, notFound
	}
	if err := s.update(ctx, "emergency_contacts", contactColumns, contactRow(c), notFound); err != nil {
		return student.EmergencyContact{}, err
	}
	return c, nil
}

// Addresses

var addressColumns = []string{
	"id", "student_id", "zip_code", "state", "city", "neighborhood", "street", "number", "complement", "created_at", "updated_at",
}

type addressRow struct {
	ID           string    `db:"id"`
	StudentID    string    `db:"student_id"`
	ZipCode      string    `db:"zip_code"`
	State        string    `db:"state"`
	City         string    `db:"city"`
	Neighborhood string    `db:"neighborhood"`
	Street       string    `db:"street"`
	Number       string    `db:"number"`
	Complement   string    `db:"complement"`
	CreatedAt    time.Time `db:"created_at"`
	UpdatedAt    time.Time `db:"updated_at"`
}

func (s *Store) CreateAddress(ctx context.Context, a student.Address) (student.Address, error) {
	if a.ID == "" {
		a.ID = core.NewID()
	}
	if err := s.insert(ctx, "addresses", addressColumns, addressRow(a)); err != nil {
		return student.Address{}, errors.Wrap(err, "inserting address")
	}
	return a, nil
}

func (s *Store) GetStudentAddress(ctx context.Context, studentID string) (student.Address, error) {
	if !validID(studentID) {
		return student.Address{}, student.ErrAddressNotFound
	}
	var row addressRow
	if err := s.get(ctx, &row, selectList(addressColumns, "addresses")+" WHERE student_id = ?", studentID); err != nil {
		return student.Address{}, trapNoRows(err, student.ErrAddressNotFound, "selecting address")
	}
	return student.Address(row), nil
}

func (s *Store) UpdateAddress(ctx context.Context, a student.Address) (student.Address, error) {
	if !validID(a.ID) {
		return student.Address{}, student.ErrAddressNotFound
	}
	if err := s.update(ctx, "addresses", addressColumns, addressRow(a), student.ErrAddressNotFound); err != nil {
		return student.Address{}, err
	}
	return a, nil
}
