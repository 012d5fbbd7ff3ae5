package handlers

import (
	"fmt"
	"mime/multipart"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"

	"jobportal/backend/internal/apperrors"
	"jobportal/backend/internal/models"
	"jobportal/backend/internal/services"
)

var answerKey = regexp.MustCompile(`^fields\[(\d+)\]\[(field_id|value)\]$`)

type ApplicationHandler struct {
	apps *services.ApplicationService
}

func NewApplicationHandler(apps *services.ApplicationService) *ApplicationHandler {
	return &ApplicationHandler{apps: apps}
}

// HandleApply handles POST /jobs/:id/apply
func (h *ApplicationHandler) HandleApply(c *fiber.Ctx) error {
	jobID, err := paramID(c, "id", "job post")
	if err != nil {
		return err
	}
	form, err := c.MultipartForm()
	if err != nil {
		return apperrors.New(apperrors.ErrTypeValidation, "expected a multipart form", err)
	}

	answers, malformed := parseAnswers(form)
	sub := models.Submission{
		JobPostID: jobID,
		Contact: models.ContactFields{
			FirstName:   formValue(form, "first_name"),
			LastName:    formValue(form, "last_name"),
			Email:       formValue(form, "email"),
			Phone:       formValue(form, "phone"),
			CoverLetter: optionalFormValue(form, "cover_letter"),
		},
		Answers:   answers,
		Malformed: malformed,
	}
	if files := form.File["resume"]; len(files) > 0 {
		sub.Resume = models.UploadFromFileHeader(files[0])
	}

	app, err := h.apps.Apply(c.UserContext(), actorFrom(c), sub)
	if err != nil {
		return err
	}
	return respond(c, fiber.StatusCreated, "application submitted", app)
}

// HandleListByJob handles GET /jobs/:id/applications
func (h *ApplicationHandler) HandleListByJob(c *fiber.Ctx) error {
	jobID, err := paramID(c, "id", "job post")
	if err != nil {
		return err
	}
	apps, err := h.apps.ListByJob(c.UserContext(), actorFrom(c), jobID)
	if err != nil {
		return err
	}
	return respond(c, fiber.StatusOK, "applications retrieved", apps)
}

// HandleListMine handles GET /candidate/applications
func (h *ApplicationHandler) HandleListMine(c *fiber.Ctx) error {
	apps, err := h.apps.ListMine(c.UserContext(), actorFrom(c))
	if err != nil {
		return err
	}
	return respond(c, fiber.StatusOK, "applications retrieved", apps)
}

// HandleGet handles GET /applications/:id
func (h *ApplicationHandler) HandleGet(c *fiber.Ctx) error {
	id, err := paramID(c, "id", "application")
	if err != nil {
		return err
	}
	app, err := h.apps.Get(c.UserContext(), actorFrom(c), id)
	if err != nil {
		return err
	}
	return respond(c, fiber.StatusOK, "application retrieved", app)
}

type rawAnswer struct {
	fieldID *string
	value   *string
	file    *multipart.FileHeader
}

// parseAnswers collects fields[i][field_id] and fields[i][value] pairs from
// both the text and the file parts of the form, ordered by index.
func parseAnswers(form *multipart.Form) ([]models.AnswerInput, apperrors.Violations) {
	entries := make(map[int]*rawAnswer)
	entry := func(key string) (*rawAnswer, string, bool) {
		m := answerKey.FindStringSubmatch(key)
		if m == nil {
			return nil, "", false
		}
		i, err := strconv.Atoi(m[1])
		if err != nil {
			return nil, "", false
		}
		if entries[i] == nil {
			entries[i] = &rawAnswer{}
		}
		return entries[i], m[2], true
	}

	for key, values := range form.Value {
		e, part, ok := entry(key)
		if !ok || len(values) == 0 {
			continue
		}
		v := values[0]
		if part == "field_id" {
			e.fieldID = &v
		} else {
			e.value = &v
		}
	}
	for key, files := range form.File {
		e, part, ok := entry(key)
		if !ok || part != "value" || len(files) == 0 {
			continue
		}
		e.file = files[0]
	}

	indexes := make([]int, 0, len(entries))
	for i := range entries {
		indexes = append(indexes, i)
	}
	sort.Ints(indexes)

	var v apperrors.Violations
	answers := make([]models.AnswerInput, 0, len(indexes))
	for _, i := range indexes {
		e := entries[i]
		key := fmt.Sprintf("fields.%d.field_id", i)
		if e.fieldID == nil {
			v.Add(key, "is required")
			continue
		}
		id, err := strconv.ParseUint(strings.TrimSpace(*e.fieldID), 10, 64)
		if err != nil || id == 0 {
			v.Add(key, "must be a positive integer")
			continue
		}
		answer := models.AnswerInput{FieldID: uint(id), Value: e.value}
		if e.file != nil {
			answer.File = models.UploadFromFileHeader(e.file)
		}
		answers = append(answers, answer)
	}
	return answers, v
}

func formValue(form *multipart.Form, key string) string {
	if values := form.Value[key]; len(values) > 0 {
		return values[0]
	}
	return ""
}

func optionalFormValue(form *multipart.Form, key string) *string {
	if values := form.Value[key]; len(values) > 0 {
		v := values[0]
		return &v
	}
	return nil
}
