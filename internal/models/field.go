package models

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/schema"
)

type FieldType string

const (
	FieldTypeText     FieldType = "text"
	FieldTypeTextarea FieldType = "textarea"
	FieldTypeNumber   FieldType = "number"
	FieldTypeDate     FieldType = "date"
	FieldTypeFile     FieldType = "file"
	FieldTypeSelect   FieldType = "select"
)

var FieldTypes = []FieldType{
	FieldTypeText,
	FieldTypeTextarea,
	FieldTypeNumber,
	FieldTypeDate,
	FieldTypeFile,
	FieldTypeSelect,
}

func (t FieldType) Valid() bool {
	for _, known := range FieldTypes {
		if t == known {
			return true
		}
	}
	return false
}

var (
	ErrOptionsRequired  = errors.New("options must be a non-empty list for select fields")
	ErrOptionsForbidden = errors.New("options are only allowed for select fields")
	ErrBlankOption      = errors.New("options must not contain blank values")
)

// CheckOptions enforces that options are present and non-empty exactly when
// the field type is select.
func CheckOptions(t FieldType, options []string) error {
	if t != FieldTypeSelect {
		if options != nil {
			return ErrOptionsForbidden
		}
		return nil
	}
	if len(options) == 0 {
		return ErrOptionsRequired
	}
	for _, o := range options {
		if strings.TrimSpace(o) == "" {
			return ErrBlankOption
		}
	}
	return nil
}

// FieldOptions is stored as a JSON array, or NULL when absent.
type FieldOptions []string

func (o FieldOptions) Value() (driver.Value, error) {
	if o == nil {
		return nil, nil
	}
	data, err := json.Marshal([]string(o))
	if err != nil {
		return nil, err
	}
	return string(data), nil
}

func (o *FieldOptions) Scan(value interface{}) error {
	var data []byte
	switch v := value.(type) {
	case nil:
		*o = nil
		return nil
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("unsupported options value %T", value)
	}
	var out []string
	if err := json.Unmarshal(data, &out); err != nil {
		return fmt.Errorf("failed to decode options: %w", err)
	}
	*o = out
	return nil
}

func (FieldOptions) GormDataType() string {
	return "json"
}

func (FieldOptions) GormDBDataType(db *gorm.DB, _ *schema.Field) string {
	if db.Dialector.Name() == "postgres" {
		return "jsonb"
	}
	return "text"
}

func (o FieldOptions) Contains(value string) bool {
	for _, opt := range o {
		if opt == value {
			return true
		}
	}
	return false
}

type FieldDefinition struct {
	ID          uint         `gorm:"primaryKey" json:"id"`
	JobPostID   uint         `gorm:"not null;index" json:"job_post_id"`
	Name        string       `gorm:"column:field_name;size:255;not null" json:"field_name"`
	Description *string      `gorm:"column:field_description;type:text" json:"field_description"`
	Type        FieldType    `gorm:"column:field_type;size:20;not null" json:"field_type"`
	IsRequired  bool         `gorm:"not null" json:"is_required"`
	Status      bool         `gorm:"not null" json:"status"`
	Order       int          `gorm:"column:display_order;not null" json:"order"`
	Options     FieldOptions `json:"options"`
	CreatedAt   time.Time    `json:"created_at"`
	UpdatedAt   time.Time    `json:"updated_at"`
}

func (FieldDefinition) TableName() string {
	return "job_application_fields"
}
