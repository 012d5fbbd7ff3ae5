package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"
)

// RegisterRoutes mounts the API on router, normally the /api/v1 group.
func RegisterRoutes(router fiber.Router, jobs *JobPostHandler, apps *ApplicationHandler, meta *MetaHandler) {
	auth := RequireActor()

	router.Get("/health", func(c *fiber.Ctx) error {
		return respond(c, fiber.StatusOK, "healthy", fiber.Map{"time": time.Now()})
	})

	router.Get("/meta/:kind", meta.HandleList)
	router.Post("/meta/:kind", auth, meta.HandleCreate)
	router.Delete("/meta/:kind/:id", auth, meta.HandleDelete)

	router.Get("/jobs", jobs.HandleList)
	router.Get("/jobs/search", jobs.HandleSearch)
	router.Get("/jobs/:id", jobs.HandleGet)
	router.Get("/jobs/:id/fields", jobs.HandleListFields)
	router.Get("/fields/:id", jobs.HandleGetField)

	router.Get("/employer/jobs", auth, jobs.HandleListMine)
	router.Post("/jobs", auth, jobs.HandleCreate)
	router.Put("/jobs/:id", auth, jobs.HandleUpdate)
	router.Patch("/jobs/:id/status", auth, jobs.HandleUpdateStatus)
	router.Put("/jobs/:id/fields", auth, jobs.HandleReplaceFields)
	router.Delete("/jobs/:id", auth, jobs.HandleDelete)

	router.Post("/jobs/:id/apply", auth, apps.HandleApply)
	router.Get("/jobs/:id/applications", auth, apps.HandleListByJob)
	router.Get("/candidate/applications", auth, apps.HandleListMine)
	router.Get("/applications/:id", auth, apps.HandleGet)
}
