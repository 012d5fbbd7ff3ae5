package models

import "jobportal/backend/internal/apperrors"

// FieldInput is one item of a desired field set. A nil ID inserts a new field.
type FieldInput struct {
	ID          *uint     `json:"id"`
	Name        string    `json:"field_name"`
	Description *string   `json:"field_description"`
	Type        FieldType `json:"field_type"`
	IsRequired  *bool     `json:"is_required"`
	Status      *bool     `json:"status"`
	Order       *int      `json:"order"`
	Options     []string  `json:"options"`
}

type JobPostInput struct {
	Title          string       `json:"title"`
	Description    string       `json:"description"`
	CategoryID     uint         `json:"category_id"`
	TypeID         uint         `json:"type_id"`
	LocationID     uint         `json:"location_id"`
	LocationTypeID *uint        `json:"location_type_id"`
	Status         *bool        `json:"status"`
	Fields         []FieldInput `json:"fields"`
}

// JobPostUpdate carries a partial update. Fields, when non-nil, replaces the
// whole field set.
type JobPostUpdate struct {
	Title          *string       `json:"title"`
	Description    *string       `json:"description"`
	CategoryID     *uint         `json:"category_id"`
	TypeID         *uint         `json:"type_id"`
	LocationID     *uint         `json:"location_id"`
	LocationTypeID *uint         `json:"location_type_id"`
	Status         *bool         `json:"status"`
	Fields         *[]FieldInput `json:"fields"`
}

type JobSearchFilter struct {
	Keyword        string
	CategoryID     *uint
	TypeID         *uint
	LocationID     *uint
	LocationTypeID *uint
}

type ContactFields struct {
	FirstName   string  `form:"first_name" validate:"required,max=100"`
	LastName    string  `form:"last_name" validate:"required,max=100"`
	Email       string  `form:"email" validate:"required,email"`
	Phone       string  `form:"phone" validate:"required,max=20"`
	CoverLetter *string `form:"cover_letter"`
}

// AnswerInput is one submitted answer. File is set when the value arrived in
// an uploaded-file slot.
type AnswerInput struct {
	FieldID uint
	Value   *string
	File    *Upload
}

// Submission is an application as received. Malformed holds answer entries
// that could not be parsed; they are reported with the other answer errors.
type Submission struct {
	JobPostID uint
	Contact   ContactFields
	Resume    *Upload
	Answers   []AnswerInput
	Malformed apperrors.Violations
}
