package services

import (
	"context"
	"testing"

	"github.com/google/go-cmp/cmp"

	"jobportal/backend/internal/apperrors"
	"jobportal/backend/internal/models"
)

type fieldSummary struct {
	Name     string
	Type     models.FieldType
	Required bool
	Enabled  bool
	Order    int
	Options  []string
}

func summarize(fields []models.FieldDefinition) []fieldSummary {
	out := make([]fieldSummary, len(fields))
	for i, f := range fields {
		out[i] = fieldSummary{f.Name, f.Type, f.IsRequired, f.Status, f.Order, []string(f.Options)}
	}
	return out
}

func asInputs(fields []models.FieldDefinition) []models.FieldInput {
	out := make([]models.FieldInput, len(fields))
	for i, f := range fields {
		out[i] = models.FieldInput{
			ID:          ptr(f.ID),
			Name:        f.Name,
			Description: f.Description,
			Type:        f.Type,
			IsRequired:  ptr(f.IsRequired),
			Status:      ptr(f.Status),
			Order:       ptr(f.Order),
		}
		if f.Options != nil {
			out[i].Options = []string(f.Options)
		}
	}
	return out
}

func TestApplyFieldSetReconciles(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	job := env.fixture.CreateJob(t, env.store.DB(), "Backend Engineer",
		models.FieldDefinition{Name: "A", Type: models.FieldTypeText, Status: true, Order: 0},
		models.FieldDefinition{Name: "B", Type: models.FieldTypeText, Status: true, Order: 1},
	)
	a, b := job.Fields[0], job.Fields[1]

	// An answer recorded against B must go away with it.
	app := &models.Application{
		CandidateID: env.fixture.Candidate.ID, JobPostID: job.ID,
		FirstName: "Jane", LastName: "Doe", Email: "jane@example.test", Phone: "1", ResumePath: "resumes/x.pdf",
	}
	if err := env.store.DB().Create(app).Error; err != nil {
		t.Fatalf("create application: %v", err)
	}
	if err := env.store.DB().Create(&models.AnswerRecord{ApplicationID: app.ID, FieldID: b.ID, Value: ptr("old")}).Error; err != nil {
		t.Fatalf("create answer: %v", err)
	}

	fields, err := env.schema.ApplyFieldSet(ctx, env.fixture.EmployerActor(), job.ID, []models.FieldInput{
		{ID: ptr(a.ID), Name: "X", Type: models.FieldTypeText},
		{Name: "C", Type: models.FieldTypeSelect, IsRequired: ptr(true), Options: []string{"Yes", "No"}},
	})
	if err != nil {
		t.Fatalf("ApplyFieldSet: %v", err)
	}

	want := []fieldSummary{
		{Name: "X", Type: models.FieldTypeText, Enabled: true, Order: 0},
		{Name: "C", Type: models.FieldTypeSelect, Required: true, Enabled: true, Order: 1, Options: []string{"Yes", "No"}},
	}
	if diff := cmp.Diff(want, summarize(fields)); diff != "" {
		t.Errorf("fields mismatch (-want +got):\n%s", diff)
	}
	if fields[0].ID != a.ID {
		t.Errorf("renamed field id = %d, want %d", fields[0].ID, a.ID)
	}
	if _, err := env.schema.GetField(ctx, b.ID); !apperrors.Is(err, apperrors.ErrTypeNotFound) {
		t.Errorf("GetField(B) error = %v, want not found", err)
	}
	if n := countRows(t, env.store, &models.AnswerRecord{}); n != 0 {
		t.Errorf("answers left = %d, want 0", n)
	}
}

func TestApplyFieldSetIsIdempotent(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	job := env.fixture.CreateJob(t, env.store.DB(), "Designer")

	first, err := env.schema.ApplyFieldSet(ctx, env.fixture.EmployerActor(), job.ID, []models.FieldInput{
		{Name: "Portfolio", Type: models.FieldTypeFile, IsRequired: ptr(true)},
		{Name: "Start date", Type: models.FieldTypeDate, Order: ptr(5)},
		{Name: "Seniority", Type: models.FieldTypeSelect, Options: []string{"Junior", "Senior"}, Status: ptr(false)},
	})
	if err != nil {
		t.Fatalf("first ApplyFieldSet: %v", err)
	}

	second, err := env.schema.ApplyFieldSet(ctx, env.fixture.EmployerActor(), job.ID, asInputs(first))
	if err != nil {
		t.Fatalf("second ApplyFieldSet: %v", err)
	}

	ids := func(fs []models.FieldDefinition) []uint {
		out := make([]uint, len(fs))
		for i, f := range fs {
			out[i] = f.ID
		}
		return out
	}
	if diff := cmp.Diff(ids(first), ids(second)); diff != "" {
		t.Errorf("ids changed (-first +second):\n%s", diff)
	}
	if diff := cmp.Diff(summarize(first), summarize(second)); diff != "" {
		t.Errorf("fields changed (-first +second):\n%s", diff)
	}
}

func TestApplyFieldSetEmptyRemovesAll(t *testing.T) {
	env := newTestEnv(t)
	job := env.fixture.CreateJob(t, env.store.DB(), "Analyst",
		models.FieldDefinition{Name: "A", Type: models.FieldTypeText, Status: true},
	)

	fields, err := env.schema.ApplyFieldSet(context.Background(), env.fixture.EmployerActor(), job.ID, nil)
	if err != nil {
		t.Fatalf("ApplyFieldSet: %v", err)
	}
	if len(fields) != 0 {
		t.Errorf("got %d fields, want 0", len(fields))
	}
}

func TestApplyFieldSetRejectsInvalidSetAtomically(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	job := env.fixture.CreateJob(t, env.store.DB(), "Analyst",
		models.FieldDefinition{Name: "A", Type: models.FieldTypeText, Status: true},
	)

	_, err := env.schema.ApplyFieldSet(ctx, env.fixture.EmployerActor(), job.ID, []models.FieldInput{
		{Name: "B", Type: models.FieldTypeText},
		{Name: "Level", Type: models.FieldTypeSelect},
	})
	de := requireErrorType(t, err, apperrors.ErrTypeValidation)
	if _, ok := de.FieldErrors()["fields.1.options"]; !ok {
		t.Errorf("expected fields.1.options violation, got %v", de.FieldErrors())
	}

	fields, err := env.schema.ListFields(ctx, job.ID)
	if err != nil {
		t.Fatalf("ListFields: %v", err)
	}
	if len(fields) != 1 || fields[0].Name != "A" {
		t.Errorf("field set changed after rejected update: %+v", summarize(fields))
	}
}

func TestApplyFieldSetAccess(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	job := env.fixture.CreateJob(t, env.store.DB(), "Analyst")
	set := []models.FieldInput{{Name: "A", Type: models.FieldTypeText}}

	_, err := env.schema.ApplyFieldSet(ctx, env.fixture.CandidateActor(), job.ID, set)
	requireErrorType(t, err, apperrors.ErrTypeForbidden)

	_, err = env.schema.ApplyFieldSet(ctx, env.fixture.CandidateActor(), 9999, set)
	requireErrorType(t, err, apperrors.ErrTypeForbidden)

	_, err = env.schema.ApplyFieldSet(ctx, env.fixture.EmployerActor(), 9999, set)
	requireErrorType(t, err, apperrors.ErrTypeNotFound)

	_, err = env.schema.ApplyFieldSet(ctx, env.fixture.OtherEmployerActor(), job.ID, set)
	requireErrorType(t, err, apperrors.ErrTypeForbidden)
}

func TestListFieldsMissingJob(t *testing.T) {
	env := newTestEnv(t)
	_, err := env.schema.ListFields(context.Background(), 4242)
	requireErrorType(t, err, apperrors.ErrTypeNotFound)
}

func TestValidateFieldSet(t *testing.T) {
	existing := map[uint]bool{1: true, 2: true}

	tests := []struct {
		name    string
		desired []models.FieldInput
		want    []string
	}{
		{
			name: "valid",
			desired: []models.FieldInput{
				{ID: ptr(uint(1)), Name: "Why us", Type: models.FieldTypeTextarea},
				{Name: "Level", Type: models.FieldTypeSelect, Options: []string{"A"}},
			},
		},
		{
			name:    "blank name",
			desired: []models.FieldInput{{Name: "  ", Type: models.FieldTypeText}},
			want:    []string{"fields.0.field_name"},
		},
		{
			name:    "unknown type",
			desired: []models.FieldInput{{Name: "Age", Type: "checkbox"}},
			want:    []string{"fields.0.field_type"},
		},
		{
			name:    "options on text",
			desired: []models.FieldInput{{Name: "Age", Type: models.FieldTypeNumber, Options: []string{"1"}}},
			want:    []string{"fields.0.options"},
		},
		{
			name:    "blank option",
			desired: []models.FieldInput{{Name: "Level", Type: models.FieldTypeSelect, Options: []string{"A", " "}}},
			want:    []string{"fields.0.options"},
		},
		{
			name:    "foreign id",
			desired: []models.FieldInput{{ID: ptr(uint(7)), Name: "A", Type: models.FieldTypeText}},
			want:    []string{"fields.0.id"},
		},
		{
			name: "repeated id",
			desired: []models.FieldInput{
				{ID: ptr(uint(2)), Name: "A", Type: models.FieldTypeText},
				{ID: ptr(uint(2)), Name: "B", Type: models.FieldTypeText},
			},
			want: []string{"fields.1.id"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got []string
			for _, v := range ValidateFieldSet(tt.desired, existing) {
				got = append(got, v.Field)
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("violations mismatch (-want +got):\n%s", diff)
			}
		})
	}
}
