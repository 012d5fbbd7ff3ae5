// Package dbtest opens throwaway SQLite databases for package tests.
package dbtest

import (
	"path/filepath"
	"testing"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"jobportal/backend/internal/config"
	"jobportal/backend/internal/models"
)

func Open(t testing.TB) *gorm.DB {
	t.Helper()

	path := filepath.Join(t.TempDir(), "test.db")
	db, err := gorm.Open(sqlite.Open(config.SQLiteDSN(path)), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := config.Migrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return db
}

// Fixture holds the rows most tests need: two employers, two candidates and
// one entry of every meta-reference kind.
type Fixture struct {
	Employer       models.User
	OtherEmployer  models.User
	Candidate      models.User
	OtherCandidate models.User
	CategoryID     uint
	TypeID         uint
	LocationID     uint
	LocationTypeID uint
}

func (f *Fixture) EmployerActor() models.Actor {
	return models.Actor{UserID: f.Employer.ID, Role: models.RoleEmployer}
}

func (f *Fixture) OtherEmployerActor() models.Actor {
	return models.Actor{UserID: f.OtherEmployer.ID, Role: models.RoleEmployer}
}

func (f *Fixture) CandidateActor() models.Actor {
	return models.Actor{UserID: f.Candidate.ID, Role: models.RoleCandidate}
}

func (f *Fixture) OtherCandidateActor() models.Actor {
	return models.Actor{UserID: f.OtherCandidate.ID, Role: models.RoleCandidate}
}

func Seed(t testing.TB, db *gorm.DB) *Fixture {
	t.Helper()

	f := &Fixture{
		Employer:       models.User{Name: "Acme HR", Email: "hr@acme.test", Role: models.RoleEmployer},
		OtherEmployer:  models.User{Name: "Globex HR", Email: "hr@globex.test", Role: models.RoleEmployer},
		Candidate:      models.User{Name: "Jane Doe", Email: "jane@example.test", Role: models.RoleCandidate},
		OtherCandidate: models.User{Name: "John Roe", Email: "john@example.test", Role: models.RoleCandidate},
	}
	for _, u := range []*models.User{&f.Employer, &f.OtherEmployer, &f.Candidate, &f.OtherCandidate} {
		mustCreate(t, db, u)
	}

	category := models.JobCategory{Name: "Engineering"}
	jobType := models.JobType{Name: "Full Time"}
	location := models.JobLocation{Name: "Berlin"}
	locationType := models.JobLocationType{Name: "Remote"}
	mustCreate(t, db, &category)
	mustCreate(t, db, &jobType)
	mustCreate(t, db, &location)
	mustCreate(t, db, &locationType)

	f.CategoryID = category.ID
	f.TypeID = jobType.ID
	f.LocationID = location.ID
	f.LocationTypeID = locationType.ID
	return f
}

// CreateJob inserts an open job post owned by the fixture's employer.
func (f *Fixture) CreateJob(t testing.TB, db *gorm.DB, title string, fields ...models.FieldDefinition) *models.JobPost {
	t.Helper()

	job := &models.JobPost{
		EmployerID:  f.Employer.ID,
		Title:       title,
		Description: title + " description",
		CategoryID:  f.CategoryID,
		TypeID:      f.TypeID,
		LocationID:  f.LocationID,
		Status:      true,
	}
	if err := db.Omit("Fields").Create(job).Error; err != nil {
		t.Fatalf("create job: %v", err)
	}
	for i := range fields {
		fields[i].JobPostID = job.ID
		mustCreate(t, db, &fields[i])
	}
	job.Fields = fields
	return job
}

func mustCreate(t testing.TB, db *gorm.DB, value interface{}) {
	t.Helper()
	if err := db.Create(value).Error; err != nil {
		t.Fatalf("create %T: %v", value, err)
	}
}
