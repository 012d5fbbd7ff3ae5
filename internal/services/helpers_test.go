package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"testing"

	"go.uber.org/zap"

	"jobportal/backend/internal/apperrors"
	"jobportal/backend/internal/dbtest"
	"jobportal/backend/internal/models"
	"jobportal/backend/internal/repositories"
)

// memoryBlobs keeps stored uploads in memory.
type memoryBlobs struct {
	mu      sync.Mutex
	objects map[string][]byte
	fail    error
}

func newMemoryBlobs() *memoryBlobs {
	return &memoryBlobs{objects: make(map[string][]byte)}
}

func (b *memoryBlobs) Store(_ context.Context, upload *models.Upload, prefix string) (string, error) {
	if b.fail != nil {
		return "", b.fail
	}
	r, err := upload.Open()
	if err != nil {
		return "", err
	}
	defer r.Close()
	data, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	ref := fmt.Sprintf("%s/%d%s", prefix, len(b.objects)+1, upload.Ext())
	b.objects[ref] = data
	return ref, nil
}

func (b *memoryBlobs) Resolve(_ context.Context, ref string) (string, error) {
	return "mem://" + ref, nil
}

type recordingNotifier struct {
	calls []uint
	err   error
}

func (n *recordingNotifier) NotifyApplicationSubmitted(_ context.Context, app *models.Application, _ *models.JobPost) error {
	n.calls = append(n.calls, app.ID)
	return n.err
}

type rejectingInspector struct{}

func (rejectingInspector) Inspect(*models.Upload) error { return errors.New("unreadable") }

type testEnv struct {
	store    *repositories.Store
	fixture  *dbtest.Fixture
	blobs    *memoryBlobs
	notifier *recordingNotifier
	schema   *SchemaService
	jobs     *JobPostService
	apps     *ApplicationService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db := dbtest.Open(t)
	fixture := dbtest.Seed(t, db)
	store := repositories.NewStore(db)
	logger := zap.NewNop()

	env := &testEnv{
		store:    store,
		fixture:  fixture,
		blobs:    newMemoryBlobs(),
		notifier: &recordingNotifier{},
	}
	env.schema = NewSchemaService(store, logger)
	env.jobs = NewJobPostService(store, env.schema, logger)

	validator := NewApplicationValidator(store, nil, ValidationLimits{
		ResumeMaxSize:    5120 * 1024,
		AnswerMaxSize:    5120 * 1024,
		ResumeExtensions: []string{".pdf", ".doc", ".docx"},
		AnswerExtensions: []string{".pdf", ".txt", ".zip"},
	})
	persister := NewAnswerPersister(store, env.blobs, logger)
	env.apps = NewApplicationService(store, validator, persister, env.notifier, env.blobs, logger)
	return env
}

func resume() *models.Upload {
	return models.UploadFromBytes("cv.docx", "application/vnd.openxmlformats-officedocument.wordprocessingml.document", []byte("resume"))
}

func submission(jobID uint, answers ...models.AnswerInput) models.Submission {
	return models.Submission{
		JobPostID: jobID,
		Contact: models.ContactFields{
			FirstName: "Jane",
			LastName:  "Doe",
			Email:     "jane@example.test",
			Phone:     "+49 30 1234",
		},
		Resume:  resume(),
		Answers: answers,
	}
}

func text(fieldID uint, value string) models.AnswerInput {
	return models.AnswerInput{FieldID: fieldID, Value: &value}
}

func ptr[T any](v T) *T { return &v }

func requireErrorType(t *testing.T, err error, want apperrors.ErrorType) *apperrors.DomainError {
	t.Helper()
	if err == nil {
		t.Fatalf("expected %s error, got nil", want)
	}
	var de *apperrors.DomainError
	if !errors.As(err, &de) {
		t.Fatalf("expected DomainError, got %T: %v", err, err)
	}
	if de.Type != want {
		t.Fatalf("error type = %s, want %s (%v)", de.Type, want, err)
	}
	return de
}

func countRows(t *testing.T, store *repositories.Store, model interface{}) int64 {
	t.Helper()
	var n int64
	if err := store.DB().Model(model).Count(&n).Error; err != nil {
		t.Fatalf("count %T: %v", model, err)
	}
	return n
}
