package handlers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/go-cmp/cmp"
	"go.uber.org/zap"

	"jobportal/backend/internal/cache"
	"jobportal/backend/internal/dbtest"
	"jobportal/backend/internal/models"
	"jobportal/backend/internal/repositories"
	"jobportal/backend/internal/services"
)

type testServer struct {
	app     *fiber.App
	fixture *dbtest.Fixture
	store   *repositories.Store
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	db := dbtest.Open(t)
	fixture := dbtest.Seed(t, db)
	store := repositories.NewStore(db)
	logger := zap.NewNop()

	blobs := services.NewLocalStorage(t.TempDir(), "/uploads")
	if err := blobs.EnsureUploadDir(); err != nil {
		t.Fatalf("EnsureUploadDir: %v", err)
	}

	schema := services.NewSchemaService(store, logger)
	jobs := services.NewJobPostService(store, schema, logger)
	validator := services.NewApplicationValidator(store, services.NewPDFInspector(), services.ValidationLimits{
		ResumeMaxSize:    5120 * 1024,
		AnswerMaxSize:    5120 * 1024,
		ResumeExtensions: []string{".pdf", ".doc", ".docx"},
		AnswerExtensions: []string{".pdf", ".txt", ".zip"},
	})
	persister := services.NewAnswerPersister(store, blobs, logger)
	apps := services.NewApplicationService(store, validator, persister, services.NewLogNotifier(logger), blobs, logger)
	meta := services.NewMetaService(store, cache.NewMemory(), time.Minute, logger)

	app := fiber.New(fiber.Config{ErrorHandler: ErrorHandler(logger)})
	RegisterRoutes(app.Group("/api/v1"),
		NewJobPostHandler(jobs, schema),
		NewApplicationHandler(apps),
		NewMetaHandler(meta),
	)
	return &testServer{app: app, fixture: fixture, store: store}
}

type response struct {
	Data    json.RawMessage `json:"data"`
	Message string          `json:"message"`
	Code    int             `json:"code"`
}

func (s *testServer) do(t *testing.T, req *http.Request, actor *models.Actor) (int, response) {
	t.Helper()
	if actor != nil {
		req.Header.Set(HeaderUserID, strconv.FormatUint(uint64(actor.UserID), 10))
		req.Header.Set(HeaderUserRole, string(actor.Role))
	}
	resp, err := s.app.Test(req, -1)
	if err != nil {
		t.Fatalf("%s %s: %v", req.Method, req.URL.Path, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	var out response
	if err := json.Unmarshal(body, &out); err != nil {
		t.Fatalf("decode %s: %v", body, err)
	}
	return resp.StatusCode, out
}

func jsonRequest(method, path string, body interface{}) *http.Request {
	data, _ := json.Marshal(body)
	req := httptest.NewRequest(method, path, bytes.NewReader(data))
	req.Header.Set("Content-Type", "application/json")
	return req
}

type part struct {
	name     string
	value    string
	filename string
}

func multipartRequest(t *testing.T, path string, parts ...part) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for _, p := range parts {
		if p.filename == "" {
			if err := w.WriteField(p.name, p.value); err != nil {
				t.Fatalf("write field: %v", err)
			}
			continue
		}
		fw, err := w.CreateFormFile(p.name, p.filename)
		if err != nil {
			t.Fatalf("create file part: %v", err)
		}
		fw.Write([]byte(p.value))
	}
	if err := w.Close(); err != nil {
		t.Fatalf("close multipart: %v", err)
	}
	req := httptest.NewRequest(http.MethodPost, path, &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())
	return req
}

func contactParts() []part {
	return []part{
		{name: "first_name", value: "Jane"},
		{name: "last_name", value: "Doe"},
		{name: "email", value: "jane@example.test"},
		{name: "phone", value: "+49 30 1234"},
		{name: "resume", value: "resume body", filename: "cv.docx"},
	}
}

func actor(a models.Actor) *models.Actor { return &a }

func TestApplyOverHTTP(t *testing.T) {
	s := newTestServer(t)
	job := s.fixture.CreateJob(t, s.store.DB(), "Backend Engineer",
		models.FieldDefinition{Name: "Years", Type: models.FieldTypeNumber, IsRequired: true, Status: true},
		models.FieldDefinition{Name: "Portfolio", Type: models.FieldTypeFile, Status: true},
	)
	years, portfolio := job.Fields[0], job.Fields[1]

	parts := append(contactParts(),
		part{name: "fields[0][field_id]", value: fmt.Sprint(years.ID)},
		part{name: "fields[0][value]", value: "5"},
		part{name: "fields[1][field_id]", value: fmt.Sprint(portfolio.ID)},
		part{name: "fields[1][value]", value: "zip", filename: "work.zip"},
	)
	status, resp := s.do(t, multipartRequest(t, fmt.Sprintf("/api/v1/jobs/%d/apply", job.ID), parts...), actor(s.fixture.CandidateActor()))
	if status != fiber.StatusCreated {
		t.Fatalf("status = %d, body = %+v", status, resp)
	}

	var app models.Application
	if err := json.Unmarshal(resp.Data, &app); err != nil {
		t.Fatalf("decode application: %v", err)
	}
	if !strings.HasPrefix(app.ResumeURL, "/uploads/resumes/") {
		t.Errorf("resume_url = %q", app.ResumeURL)
	}
	got := map[uint]string{}
	for _, a := range app.Answers {
		switch {
		case a.FileURL != "":
			got[a.FieldID] = "file"
		case a.Value != nil:
			got[a.FieldID] = *a.Value
		}
	}
	if diff := cmp.Diff(map[uint]string{years.ID: "5", portfolio.ID: "file"}, got); diff != "" {
		t.Errorf("answers mismatch (-want +got):\n%s", diff)
	}

	status, resp = s.do(t, multipartRequest(t, fmt.Sprintf("/api/v1/jobs/%d/apply", job.ID), parts...), actor(s.fixture.CandidateActor()))
	if status != fiber.StatusConflict || resp.Message != "You have already applied to this job." {
		t.Errorf("second apply = %d %q", status, resp.Message)
	}
}

func TestApplyValidationEnvelope(t *testing.T) {
	s := newTestServer(t)
	job := s.fixture.CreateJob(t, s.store.DB(), "Backend Engineer",
		models.FieldDefinition{Name: "Relocate", Type: models.FieldTypeSelect, Status: true, Options: models.FieldOptions{"Yes", "No"}},
	)
	path := fmt.Sprintf("/api/v1/jobs/%d/apply", job.ID)

	parts := append(contactParts(),
		part{name: "fields[0][field_id]", value: fmt.Sprint(job.Fields[0].ID)},
		part{name: "fields[0][value]", value: "Maybe"},
	)
	status, resp := s.do(t, multipartRequest(t, path, parts...), actor(s.fixture.CandidateActor()))
	if status != fiber.StatusUnprocessableEntity {
		t.Fatalf("status = %d", status)
	}
	var data struct {
		Errors map[string][]string `json:"errors"`
	}
	if err := json.Unmarshal(resp.Data, &data); err != nil {
		t.Fatalf("decode errors: %v", err)
	}
	if len(data.Errors[fmt.Sprintf("fields.%d", job.Fields[0].ID)]) == 0 {
		t.Errorf("errors = %v", data.Errors)
	}

	parts = append(contactParts(), part{name: "fields[3][value]", value: "orphan"})
	status, resp = s.do(t, multipartRequest(t, path, parts...), actor(s.fixture.CandidateActor()))
	if status != fiber.StatusUnprocessableEntity {
		t.Fatalf("status = %d", status)
	}
	data.Errors = nil
	if err := json.Unmarshal(resp.Data, &data); err != nil {
		t.Fatalf("decode errors: %v", err)
	}
	if diff := cmp.Diff(map[string][]string{"fields.3.field_id": {"is required"}}, data.Errors); diff != "" {
		t.Errorf("errors mismatch (-want +got):\n%s", diff)
	}
}

func TestApplyAccessChecksPrecedeMalformedAnswers(t *testing.T) {
	s := newTestServer(t)
	job := s.fixture.CreateJob(t, s.store.DB(), "Backend Engineer")
	parts := append(contactParts(), part{name: "fields[0][value]", value: "x"})

	status, resp := s.do(t, multipartRequest(t, fmt.Sprintf("/api/v1/jobs/%d/apply", job.ID), parts...), actor(s.fixture.EmployerActor()))
	if status != fiber.StatusForbidden {
		t.Errorf("employer status = %d, body = %+v", status, resp)
	}

	status, resp = s.do(t, multipartRequest(t, "/api/v1/jobs/99999/apply", parts...), actor(s.fixture.CandidateActor()))
	if status != fiber.StatusNotFound {
		t.Errorf("missing job status = %d, body = %+v", status, resp)
	}
}

func TestIdentityRequired(t *testing.T) {
	s := newTestServer(t)

	status, resp := s.do(t, jsonRequest(http.MethodPost, "/api/v1/jobs", fiber.Map{}), nil)
	if status != fiber.StatusUnauthorized || resp.Code != fiber.StatusUnauthorized {
		t.Errorf("status = %d, body = %+v", status, resp)
	}

	status, _ = s.do(t, jsonRequest(http.MethodPost, "/api/v1/jobs", fiber.Map{}), &models.Actor{UserID: 1, Role: "admin"})
	if status != fiber.StatusUnauthorized {
		t.Errorf("unknown role status = %d", status)
	}
}

func TestJobLifecycleOverHTTP(t *testing.T) {
	s := newTestServer(t)
	employer := actor(s.fixture.EmployerActor())

	status, resp := s.do(t, jsonRequest(http.MethodPost, "/api/v1/jobs", fiber.Map{
		"title":       "SRE",
		"description": "Pager duty",
		"category_id": s.fixture.CategoryID,
		"type_id":     s.fixture.TypeID,
		"location_id": s.fixture.LocationID,
		"status":      true,
		"fields": []fiber.Map{
			{"field_name": "On-call ok", "field_type": "select", "options": []string{"Yes", "No"}, "is_required": true},
		},
	}), employer)
	if status != fiber.StatusCreated {
		t.Fatalf("create status = %d, body = %+v", status, resp)
	}
	var job models.JobPost
	if err := json.Unmarshal(resp.Data, &job); err != nil {
		t.Fatalf("decode job: %v", err)
	}
	if len(job.Fields) != 1 {
		t.Fatalf("fields = %+v", job.Fields)
	}

	status, resp = s.do(t, jsonRequest(http.MethodPatch, fmt.Sprintf("/api/v1/jobs/%d/status", job.ID), fiber.Map{"status": 0}), employer)
	if status != fiber.StatusOK {
		t.Fatalf("status update = %d, body = %+v", status, resp)
	}
	if err := json.Unmarshal(resp.Data, &job); err != nil {
		t.Fatalf("decode job: %v", err)
	}
	if job.Status {
		t.Error("expected job to be closed")
	}

	status, _ = s.do(t, jsonRequest(http.MethodPatch, fmt.Sprintf("/api/v1/jobs/%d/status", job.ID), fiber.Map{"status": "maybe"}), employer)
	if status != fiber.StatusUnprocessableEntity {
		t.Errorf("bad status value = %d", status)
	}

	status, resp = s.do(t, jsonRequest(http.MethodPut, fmt.Sprintf("/api/v1/jobs/%d/fields", job.ID), fiber.Map{
		"fields": []fiber.Map{
			{"id": job.Fields[0].ID, "field_name": "On-call", "field_type": "select", "options": []string{"Yes", "No"}},
			{"field_name": "Notes", "field_type": "textarea"},
		},
	}), employer)
	if status != fiber.StatusOK {
		t.Fatalf("replace fields = %d, body = %+v", status, resp)
	}
	var fields []models.FieldDefinition
	if err := json.Unmarshal(resp.Data, &fields); err != nil {
		t.Fatalf("decode fields: %v", err)
	}
	if len(fields) != 2 || fields[0].ID != job.Fields[0].ID || fields[0].Name != "On-call" {
		t.Errorf("fields = %+v", fields)
	}

	status, _ = s.do(t, jsonRequest(http.MethodDelete, fmt.Sprintf("/api/v1/jobs/%d", job.ID), nil), actor(s.fixture.OtherEmployerActor()))
	if status != fiber.StatusForbidden {
		t.Errorf("foreign delete = %d", status)
	}
	status, _ = s.do(t, jsonRequest(http.MethodDelete, fmt.Sprintf("/api/v1/jobs/%d", job.ID), nil), employer)
	if status != fiber.StatusOK {
		t.Errorf("delete = %d", status)
	}
	status, _ = s.do(t, httptest.NewRequest(http.MethodGet, fmt.Sprintf("/api/v1/jobs/%d", job.ID), nil), nil)
	if status != fiber.StatusNotFound {
		t.Errorf("get deleted = %d", status)
	}
}

func TestSearchAndMeta(t *testing.T) {
	s := newTestServer(t)
	s.fixture.CreateJob(t, s.store.DB(), "Go Developer")

	status, resp := s.do(t, httptest.NewRequest(http.MethodGet, "/api/v1/jobs/search?keyword=go&category_id="+fmt.Sprint(s.fixture.CategoryID), nil), nil)
	if status != fiber.StatusOK {
		t.Fatalf("search = %d", status)
	}
	var jobs []models.JobPost
	if err := json.Unmarshal(resp.Data, &jobs); err != nil {
		t.Fatalf("decode jobs: %v", err)
	}
	if len(jobs) != 1 {
		t.Errorf("search results = %d, want 1", len(jobs))
	}

	status, _ = s.do(t, httptest.NewRequest(http.MethodGet, "/api/v1/jobs/search?category_id=abc", nil), nil)
	if status != fiber.StatusUnprocessableEntity {
		t.Errorf("bad filter = %d", status)
	}

	status, resp = s.do(t, httptest.NewRequest(http.MethodGet, "/api/v1/meta/location-types", nil), nil)
	if status != fiber.StatusOK {
		t.Fatalf("meta list = %d", status)
	}
	var items []models.MetaItem
	if err := json.Unmarshal(resp.Data, &items); err != nil {
		t.Fatalf("decode meta: %v", err)
	}
	if len(items) != 1 || items[0].Name != "Remote" {
		t.Errorf("items = %+v", items)
	}

	status, _ = s.do(t, httptest.NewRequest(http.MethodGet, "/api/v1/meta/salaries", nil), nil)
	if status != fiber.StatusNotFound {
		t.Errorf("unknown kind = %d", status)
	}

	status, _ = s.do(t, jsonRequest(http.MethodPost, "/api/v1/meta/location-types", fiber.Map{"name": "Hybrid"}), actor(s.fixture.CandidateActor()))
	if status != fiber.StatusCreated {
		t.Errorf("meta create = %d", status)
	}
}
