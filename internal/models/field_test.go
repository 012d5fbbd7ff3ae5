package models

import (
	"errors"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"
	"gorm.io/gorm/schema"
)

func TestCheckOptions(t *testing.T) {
	tests := []struct {
		name    string
		typ     FieldType
		options []string
		want    error
	}{
		{"select with options", FieldTypeSelect, []string{"Yes", "No"}, nil},
		{"select without options", FieldTypeSelect, nil, ErrOptionsRequired},
		{"select with empty list", FieldTypeSelect, []string{}, ErrOptionsRequired},
		{"select with blank option", FieldTypeSelect, []string{"Yes", "  "}, ErrBlankOption},
		{"text without options", FieldTypeText, nil, nil},
		{"text with options", FieldTypeText, []string{"a"}, ErrOptionsForbidden},
		{"number with empty list", FieldTypeNumber, []string{}, ErrOptionsForbidden},
		{"file without options", FieldTypeFile, nil, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CheckOptions(tt.typ, tt.options); !errors.Is(got, tt.want) {
				t.Errorf("CheckOptions(%q, %v) = %v, want %v", tt.typ, tt.options, got, tt.want)
			}
		})
	}
}

func TestFieldTypeValid(t *testing.T) {
	for _, ft := range FieldTypes {
		if !ft.Valid() {
			t.Errorf("%q should be valid", ft)
		}
	}
	if FieldType("checkbox").Valid() {
		t.Errorf("checkbox should not be a recognized field type")
	}
}

func TestFieldOptionsStorage(t *testing.T) {
	v, err := FieldOptions(nil).Value()
	if err != nil || v != nil {
		t.Fatalf("nil options should store NULL, got %v, %v", v, err)
	}

	v, err = FieldOptions{"Yes", "No"}.Value()
	if err != nil {
		t.Fatalf("Value: %v", err)
	}
	if v != `["Yes","No"]` {
		t.Fatalf("unexpected encoding %v", v)
	}

	var scanned FieldOptions
	if err := scanned.Scan([]byte(`["Yes","No"]`)); err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if diff := cmp.Diff(FieldOptions{"Yes", "No"}, scanned); diff != "" {
		t.Errorf("scan mismatch (-want +got):\n%s", diff)
	}
	if !scanned.Contains("No") || scanned.Contains("Maybe") {
		t.Errorf("Contains gave wrong membership for %v", scanned)
	}

	if err := scanned.Scan(nil); err != nil || scanned != nil {
		t.Fatalf("NULL should scan to nil, got %v, %v", scanned, err)
	}
}

func TestModelsParseAsGormSchemas(t *testing.T) {
	cache := &sync.Map{}
	for _, model := range []interface{}{
		&User{}, &JobCategory{}, &JobType{}, &JobLocation{}, &JobLocationType{},
		&JobPost{}, &FieldDefinition{}, &Application{}, &AnswerRecord{},
	} {
		if _, err := schema.Parse(model, cache, schema.NamingStrategy{}); err != nil {
			t.Fatalf("parse %T: %v", model, err)
		}
	}

	s, err := schema.Parse(&FieldDefinition{}, cache, schema.NamingStrategy{})
	if err != nil {
		t.Fatalf("parse FieldDefinition: %v", err)
	}
	options := s.LookUpField("Options")
	if options == nil {
		t.Fatal("Options field not found")
	}
	if options.DataType != "json" {
		t.Errorf("Options data type = %q, want json", options.DataType)
	}
}
