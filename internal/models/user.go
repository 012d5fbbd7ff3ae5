package models

import "time"

type Role string

const (
	RoleEmployer  Role = "employer"
	RoleCandidate Role = "candidate"
)

func (r Role) Valid() bool {
	return r == RoleEmployer || r == RoleCandidate
}

type User struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	Name        string    `gorm:"size:100;not null" json:"name"`
	Email       string    `gorm:"size:255;not null;uniqueIndex" json:"email"`
	Role        Role      `gorm:"size:20;not null" json:"role"`
	CompanyName *string   `gorm:"size:255" json:"company_name,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func (User) TableName() string {
	return "users"
}

// Actor is the authenticated caller of an operation.
type Actor struct {
	UserID uint
	Role   Role
}

func (a Actor) IsEmployer() bool  { return a.Role == RoleEmployer }
func (a Actor) IsCandidate() bool { return a.Role == RoleCandidate }
