package handlers

import (
	"github.com/gofiber/fiber/v2"

	"jobportal/backend/internal/services"
)

type MetaHandler struct {
	meta *services.MetaService
}

func NewMetaHandler(meta *services.MetaService) *MetaHandler {
	return &MetaHandler{meta: meta}
}

// HandleList handles GET /meta/:kind
func (h *MetaHandler) HandleList(c *fiber.Ctx) error {
	items, err := h.meta.List(c.UserContext(), c.Params("kind"))
	if err != nil {
		return err
	}
	return respond(c, fiber.StatusOK, c.Params("kind")+" retrieved", items)
}

// HandleCreate handles POST /meta/:kind
func (h *MetaHandler) HandleCreate(c *fiber.Ctx) error {
	var req struct {
		Name string `json:"name" form:"name"`
	}
	if err := c.BodyParser(&req); err != nil {
		return invalidBody(err)
	}
	item, err := h.meta.Create(c.UserContext(), actorFrom(c), c.Params("kind"), req.Name)
	if err != nil {
		return err
	}
	return respond(c, fiber.StatusCreated, "entry created", item)
}

// HandleDelete handles DELETE /meta/:kind/:id
func (h *MetaHandler) HandleDelete(c *fiber.Ctx) error {
	id, err := paramID(c, "id", "entry")
	if err != nil {
		return err
	}
	if err := h.meta.Delete(c.UserContext(), actorFrom(c), c.Params("kind"), id); err != nil {
		return err
	}
	return respond(c, fiber.StatusOK, "entry deleted", nil)
}
