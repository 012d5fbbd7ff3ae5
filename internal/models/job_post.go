package models

import "time"

type JobPost struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	EmployerID     uint      `gorm:"not null;index" json:"employer_id"`
	Title          string    `gorm:"size:100;not null" json:"title"`
	Description    string    `gorm:"type:text;not null" json:"description"`
	CategoryID     uint      `gorm:"not null;index" json:"category_id"`
	TypeID         uint      `gorm:"not null;index" json:"type_id"`
	LocationID     uint      `gorm:"not null;index" json:"location_id"`
	LocationTypeID *uint     `gorm:"index" json:"location_type_id"`
	Status         bool      `gorm:"not null" json:"status"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`

	// Relations
	Employer     *User             `gorm:"foreignKey:EmployerID" json:"employer,omitempty"`
	Category     *JobCategory      `gorm:"foreignKey:CategoryID" json:"category,omitempty"`
	Type         *JobType          `gorm:"foreignKey:TypeID" json:"type,omitempty"`
	Location     *JobLocation      `gorm:"foreignKey:LocationID" json:"location,omitempty"`
	LocationType *JobLocationType  `gorm:"foreignKey:LocationTypeID" json:"location_type,omitempty"`
	Fields       []FieldDefinition `gorm:"foreignKey:JobPostID;constraint:OnDelete:CASCADE" json:"fields,omitempty"`
}

func (JobPost) TableName() string {
	return "job_posts"
}

func (j *JobPost) OwnedBy(actor Actor) bool {
	return actor.IsEmployer() && j.EmployerID == actor.UserID
}
