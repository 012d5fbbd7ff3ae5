package handlers

import (
	"encoding/json"
	"strings"

	"github.com/gofiber/fiber/v2"

	"jobportal/backend/internal/apperrors"
	"jobportal/backend/internal/models"
	"jobportal/backend/internal/services"
)

type JobPostHandler struct {
	jobs   *services.JobPostService
	schema *services.SchemaService
}

func NewJobPostHandler(jobs *services.JobPostService, schema *services.SchemaService) *JobPostHandler {
	return &JobPostHandler{jobs: jobs, schema: schema}
}

// HandleList handles GET /jobs
func (h *JobPostHandler) HandleList(c *fiber.Ctx) error {
	jobs, err := h.jobs.List(c.UserContext())
	if err != nil {
		return err
	}
	return respond(c, fiber.StatusOK, "job posts retrieved", jobs)
}

// HandleSearch handles GET /jobs/search
func (h *JobPostHandler) HandleSearch(c *fiber.Ctx) error {
	var v apperrors.Violations
	filter := models.JobSearchFilter{
		Keyword:        strings.TrimSpace(c.Query("keyword")),
		CategoryID:     queryID(c, "category_id", &v),
		TypeID:         queryID(c, "type_id", &v),
		LocationID:     queryID(c, "location_id", &v),
		LocationTypeID: queryID(c, "location_type_id", &v),
	}
	if err := v.Err("invalid search filter"); err != nil {
		return err
	}

	jobs, err := h.jobs.Search(c.UserContext(), filter)
	if err != nil {
		return err
	}
	return respond(c, fiber.StatusOK, "job posts retrieved", jobs)
}

// HandleGet handles GET /jobs/:id
func (h *JobPostHandler) HandleGet(c *fiber.Ctx) error {
	id, err := paramID(c, "id", "job post")
	if err != nil {
		return err
	}
	job, err := h.jobs.Get(c.UserContext(), id)
	if err != nil {
		return err
	}
	return respond(c, fiber.StatusOK, "job post retrieved", job)
}

// HandleListFields handles GET /jobs/:id/fields
func (h *JobPostHandler) HandleListFields(c *fiber.Ctx) error {
	id, err := paramID(c, "id", "job post")
	if err != nil {
		return err
	}
	fields, err := h.schema.ListFields(c.UserContext(), id)
	if err != nil {
		return err
	}
	return respond(c, fiber.StatusOK, "fields retrieved", fields)
}

// HandleGetField handles GET /fields/:id
func (h *JobPostHandler) HandleGetField(c *fiber.Ctx) error {
	id, err := paramID(c, "id", "field")
	if err != nil {
		return err
	}
	field, err := h.schema.GetField(c.UserContext(), id)
	if err != nil {
		return err
	}
	return respond(c, fiber.StatusOK, "field retrieved", field)
}

// HandleListMine handles GET /employer/jobs
func (h *JobPostHandler) HandleListMine(c *fiber.Ctx) error {
	jobs, err := h.jobs.ListMine(c.UserContext(), actorFrom(c))
	if err != nil {
		return err
	}
	return respond(c, fiber.StatusOK, "job posts retrieved", jobs)
}

// HandleCreate handles POST /jobs
func (h *JobPostHandler) HandleCreate(c *fiber.Ctx) error {
	var req models.JobPostInput
	if err := c.BodyParser(&req); err != nil {
		return invalidBody(err)
	}
	job, err := h.jobs.Create(c.UserContext(), actorFrom(c), req)
	if err != nil {
		return err
	}
	return respond(c, fiber.StatusCreated, "job post created", job)
}

// HandleUpdate handles PUT /jobs/:id
func (h *JobPostHandler) HandleUpdate(c *fiber.Ctx) error {
	id, err := paramID(c, "id", "job post")
	if err != nil {
		return err
	}
	var req models.JobPostUpdate
	if err := c.BodyParser(&req); err != nil {
		return invalidBody(err)
	}
	job, err := h.jobs.Update(c.UserContext(), actorFrom(c), id, req)
	if err != nil {
		return err
	}
	return respond(c, fiber.StatusOK, "job post updated", job)
}

// HandleUpdateStatus handles PATCH /jobs/:id/status. The status may be sent
// as a boolean or as 0/1.
func (h *JobPostHandler) HandleUpdateStatus(c *fiber.Ctx) error {
	id, err := paramID(c, "id", "job post")
	if err != nil {
		return err
	}
	var req struct {
		Status json.RawMessage `json:"status"`
	}
	if err := c.BodyParser(&req); err != nil {
		return invalidBody(err)
	}
	status, ok := parseStatus(req.Status)
	if !ok {
		var v apperrors.Violations
		v.Add("status", "must be true, false, 1 or 0")
		return v.Err("invalid status")
	}

	job, err := h.jobs.UpdateStatus(c.UserContext(), actorFrom(c), id, status)
	if err != nil {
		return err
	}
	return respond(c, fiber.StatusOK, "job post status updated", job)
}

// HandleReplaceFields handles PUT /jobs/:id/fields
func (h *JobPostHandler) HandleReplaceFields(c *fiber.Ctx) error {
	id, err := paramID(c, "id", "job post")
	if err != nil {
		return err
	}
	var req struct {
		Fields []models.FieldInput `json:"fields"`
	}
	if err := c.BodyParser(&req); err != nil {
		return invalidBody(err)
	}
	fields, err := h.schema.ApplyFieldSet(c.UserContext(), actorFrom(c), id, req.Fields)
	if err != nil {
		return err
	}
	return respond(c, fiber.StatusOK, "fields saved", fields)
}

// HandleDelete handles DELETE /jobs/:id
func (h *JobPostHandler) HandleDelete(c *fiber.Ctx) error {
	id, err := paramID(c, "id", "job post")
	if err != nil {
		return err
	}
	if err := h.jobs.Delete(c.UserContext(), actorFrom(c), id); err != nil {
		return err
	}
	return respond(c, fiber.StatusOK, "job post deleted", nil)
}

func parseStatus(raw json.RawMessage) (bool, bool) {
	switch strings.Trim(strings.TrimSpace(string(raw)), `"`) {
	case "true", "1":
		return true, true
	case "false", "0":
		return false, true
	default:
		return false, false
	}
}
