package models

import "time"

type Application struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	CandidateID uint      `gorm:"not null;uniqueIndex:idx_applications_candidate_job" json:"candidate_id"`
	JobPostID   uint      `gorm:"not null;uniqueIndex:idx_applications_candidate_job;index" json:"job_post_id"`
	FirstName   string    `gorm:"size:100;not null" json:"first_name"`
	LastName    string    `gorm:"size:100;not null" json:"last_name"`
	Email       string    `gorm:"size:255;not null" json:"email"`
	Phone       string    `gorm:"size:20;not null" json:"phone"`
	ResumePath  string    `gorm:"type:text;not null" json:"resume_path"`
	CoverLetter *string   `gorm:"type:text" json:"cover_letter"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`

	ResumeURL string `gorm:"-" json:"resume_url,omitempty"`

	// Relations
	Candidate *User          `gorm:"foreignKey:CandidateID" json:"candidate,omitempty"`
	JobPost   *JobPost       `gorm:"foreignKey:JobPostID;constraint:OnDelete:CASCADE" json:"job_post,omitempty"`
	Answers   []AnswerRecord `gorm:"foreignKey:ApplicationID;constraint:OnDelete:CASCADE" json:"answers"`
}

func (Application) TableName() string {
	return "applications"
}

type AnswerRecord struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	ApplicationID uint      `gorm:"not null;uniqueIndex:idx_answers_application_field" json:"application_id"`
	FieldID       uint      `gorm:"column:job_application_field_id;not null;uniqueIndex:idx_answers_application_field;index" json:"field_id"`
	Value         *string   `gorm:"type:text" json:"value"`
	CreatedAt     time.Time `json:"created_at"`

	FileURL string `gorm:"-" json:"file_url,omitempty"`

	Field *FieldDefinition `gorm:"foreignKey:FieldID;constraint:OnDelete:CASCADE" json:"field,omitempty"`
}

func (AnswerRecord) TableName() string {
	return "application_field_answers"
}
