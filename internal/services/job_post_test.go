package services

import (
	"context"
	"testing"

	"github.com/google/go-cmp/cmp"

	"jobportal/backend/internal/apperrors"
	"jobportal/backend/internal/models"
)

func validJobInput(env *testEnv) models.JobPostInput {
	return models.JobPostInput{
		Title:       "Platform Engineer",
		Description: "Keep the lights on.",
		CategoryID:  env.fixture.CategoryID,
		TypeID:      env.fixture.TypeID,
		LocationID:  env.fixture.LocationID,
		Status:      ptr(true),
	}
}

func TestCreateJobWithFields(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	in := validJobInput(env)
	in.LocationTypeID = ptr(env.fixture.LocationTypeID)
	in.Fields = []models.FieldInput{
		{Name: "GitHub profile", Type: models.FieldTypeText},
		{Name: "Shift", Type: models.FieldTypeSelect, IsRequired: ptr(true), Options: []string{"Day", "Night"}},
	}

	job, err := env.jobs.Create(ctx, env.fixture.EmployerActor(), in)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if job.EmployerID != env.fixture.Employer.ID || !job.Status {
		t.Errorf("job = %+v", job)
	}
	if job.Category == nil || job.Category.Name != "Engineering" {
		t.Errorf("category not loaded: %+v", job.Category)
	}
	if job.LocationType == nil || job.LocationType.Name != "Remote" {
		t.Errorf("location type not loaded: %+v", job.LocationType)
	}
	want := []fieldSummary{
		{Name: "GitHub profile", Type: models.FieldTypeText, Enabled: true, Order: 0},
		{Name: "Shift", Type: models.FieldTypeSelect, Required: true, Enabled: true, Order: 1, Options: []string{"Day", "Night"}},
	}
	if diff := cmp.Diff(want, summarize(job.Fields)); diff != "" {
		t.Errorf("fields mismatch (-want +got):\n%s", diff)
	}
}

func TestCreateJobValidation(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.jobs.Create(ctx, env.fixture.CandidateActor(), validJobInput(env))
	requireErrorType(t, err, apperrors.ErrTypeForbidden)

	in := validJobInput(env)
	in.Title = ""
	in.CategoryID = 9999
	in.Fields = []models.FieldInput{{Name: "Level", Type: models.FieldTypeSelect}}

	_, err = env.jobs.Create(ctx, env.fixture.EmployerActor(), in)
	de := requireErrorType(t, err, apperrors.ErrTypeValidation)
	got := de.FieldErrors()
	for _, key := range []string{"title", "category_id", "fields.0.options"} {
		if len(got[key]) == 0 {
			t.Errorf("missing %s violation; got %v", key, got)
		}
	}
	if n := countRows(t, env.store, &models.JobPost{}); n != 0 {
		t.Errorf("job posts = %d, want 0", n)
	}
}

func TestUpdateJob(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	job := env.fixture.CreateJob(t, env.store.DB(), "Analyst",
		models.FieldDefinition{Name: "A", Type: models.FieldTypeText, Status: true},
	)

	updated, err := env.jobs.Update(ctx, env.fixture.EmployerActor(), job.ID, models.JobPostUpdate{
		Title:  ptr("Senior Analyst"),
		Status: ptr(false),
	})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if updated.Title != "Senior Analyst" || updated.Status {
		t.Errorf("updated = %+v", updated)
	}
	if updated.Description != "Analyst description" {
		t.Errorf("description changed to %q", updated.Description)
	}
	if len(updated.Fields) != 1 {
		t.Errorf("fields touched without a field set: %+v", summarize(updated.Fields))
	}

	fields := []models.FieldInput{{Name: "B", Type: models.FieldTypeDate}}
	updated, err = env.jobs.Update(ctx, env.fixture.EmployerActor(), job.ID, models.JobPostUpdate{Fields: &fields})
	if err != nil {
		t.Fatalf("Update fields: %v", err)
	}
	if len(updated.Fields) != 1 || updated.Fields[0].Name != "B" {
		t.Errorf("fields = %+v", summarize(updated.Fields))
	}

	_, err = env.jobs.Update(ctx, env.fixture.OtherEmployerActor(), job.ID, models.JobPostUpdate{Title: ptr("x")})
	requireErrorType(t, err, apperrors.ErrTypeForbidden)
}

func TestUpdateStatusAndSearch(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	job := env.fixture.CreateJob(t, env.store.DB(), "Data Engineer")

	if _, err := env.jobs.UpdateStatus(ctx, env.fixture.EmployerActor(), job.ID, false); err != nil {
		t.Fatalf("UpdateStatus: %v", err)
	}
	found, err := env.jobs.Search(ctx, models.JobSearchFilter{Keyword: "data"})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(found) != 0 {
		t.Errorf("closed job returned by search: %d results", len(found))
	}

	if _, err := env.jobs.UpdateStatus(ctx, env.fixture.EmployerActor(), job.ID, true); err != nil {
		t.Fatalf("UpdateStatus: %v", err)
	}
	found, err = env.jobs.Search(ctx, models.JobSearchFilter{Keyword: "DATA"})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(found) != 1 {
		t.Errorf("search results = %d, want 1", len(found))
	}

	mine, err := env.jobs.ListMine(ctx, env.fixture.EmployerActor())
	if err != nil {
		t.Fatalf("ListMine: %v", err)
	}
	if len(mine) != 1 {
		t.Errorf("ListMine = %d jobs, want 1", len(mine))
	}
	_, err = env.jobs.ListMine(ctx, env.fixture.CandidateActor())
	requireErrorType(t, err, apperrors.ErrTypeForbidden)
}

func TestDeleteJob(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	job := env.fixture.CreateJob(t, env.store.DB(), "Analyst",
		models.FieldDefinition{Name: "A", Type: models.FieldTypeText, Status: true},
	)
	if _, err := env.apps.Apply(ctx, env.fixture.CandidateActor(), submission(job.ID, text(job.Fields[0].ID, "hi"))); err != nil {
		t.Fatalf("Apply: %v", err)
	}

	err := env.jobs.Delete(ctx, env.fixture.OtherEmployerActor(), job.ID)
	requireErrorType(t, err, apperrors.ErrTypeForbidden)

	if err := env.jobs.Delete(ctx, env.fixture.EmployerActor(), job.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	_, err = env.jobs.Get(ctx, job.ID)
	requireErrorType(t, err, apperrors.ErrTypeNotFound)

	for _, model := range []interface{}{&models.Application{}, &models.AnswerRecord{}, &models.FieldDefinition{}} {
		if n := countRows(t, env.store, model); n != 0 {
			t.Errorf("%T rows left = %d", model, n)
		}
	}
}
