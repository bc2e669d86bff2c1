package class

import (
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/lunedance/lune/core"
)

type (
	Modality struct {
		ID        string    `json:"id"`
		Name      string    `json:"name"`
		CreatedAt time.Time `json:"created_at"`
		UpdatedAt time.Time `json:"updated_at"`
	}

	ClassLevel struct {
		ID        string    `json:"id"`
		Name      string    `json:"name"`
		CreatedAt time.Time `json:"created_at"`
		UpdatedAt time.Time `json:"updated_at"`
	}

	Class struct {
		ID           string    `json:"id"`
		Name         string    `json:"name"`
		Description  string    `json:"description"` // usually the age range
		MaxStudents  int       `json:"max_students"`
		ModalityID   string    `json:"modality_id"`
		ClassLevelID string    `json:"class_level_id"`
		TeacherID    *string   `json:"teacher_id"`
		CreatedAt    time.Time `json:"created_at"`
		UpdatedAt    time.Time `json:"updated_at"`
	}

	// Info is a Class listed with its related names and usage.
	Info struct {
		Class
		ModalityName      string `json:"modality_name"`
		ClassLevelName    string `json:"class_level_name"`
		TeacherName       string `json:"teacher_name"`
		ClassesPerWeek    int    `json:"classes_per_week"`
		ActiveEnrollments int    `json:"active_enrollments"`
	}
)

func (c Class) HasTeacher() bool {
	return c.TeacherID != nil && *c.TeacherID != ""
}

// ComposeName builds the display name of a class: "<modality> <description> - <level>".
func ComposeName(modality, description, level string) string {
	head := strings.Join(strings.Fields(modality+" "+description), " ")
	if level == "" {
		return head
	}
	return head + " - " + level
}

// NewName holds the name of a new modality or class level.
type NewName struct {
	Name string `json:"name" validate:"required"`
}

func (nn *NewName) Validate(validate *validator.Validate) error {
	nn.Name = core.CleanString(nn.Name)
	return validate.Struct(nn)
}

type NameFilter struct {
	IDs  []string
	Name string `query:"name"`
}

type NewClass struct {
	Description  string  `json:"description"`
	MaxStudents  int     `json:"max_students" validate:"min=0"`
	ModalityID   string  `json:"modality_id" validate:"required"`
	ClassLevelID string  `json:"class_level_id" validate:"required"`
	TeacherID    *string `json:"teacher_id"`
}

func (nc *NewClass) Validate(validate *validator.Validate) error {
	nc.Description = core.CleanString(nc.Description)
	if nc.TeacherID != nil && core.CleanString(*nc.TeacherID) == "" {
		nc.TeacherID = nil
	}
	return validate.Struct(nc)
}

type UpdateClass struct {
	Description  *string `json:"description"`
	MaxStudents  *int    `json:"max_students" validate:"omitempty,min=0"`
	ModalityID   *string `json:"modality_id" validate:"omitempty,min=1"`
	ClassLevelID *string `json:"class_level_id" validate:"omitempty,min=1"`
	TeacherID    *string `json:"teacher_id"` // "" unassigns the teacher
}

func (uc *UpdateClass) Validate(validate *validator.Validate) error {
	if uc.Description != nil {
		d := core.CleanString(*uc.Description)
		uc.Description = &d
	}
	return validate.Struct(uc)
}

type Filter struct {
	IDs          []string
	Name         string `query:"name"`
	Description  string `query:"age_range"`
	TeacherID    string `query:"teacher_id"`
	ModalityID   string `query:"modality_id"`
	ClassLevelID string `query:"class_level_id"`
}
