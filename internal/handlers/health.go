package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/medismart/medismart-backend/internal/storage"
)

// HealthHandler handles health check requests
type HealthHandler struct {
	Version     string
	StorageType string
	store       storage.Store
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(version, storageType string, store storage.Store) *HealthHandler {
	return &HealthHandler{
		Version:     version,
		StorageType: storageType,
		store:       store,
	}
}

// Check returns the health status of the service
func (h *HealthHandler) Check(c *fiber.Ctx) error {
	status := "healthy"
	statusCode := fiber.StatusOK

	if err := h.store.Ping(c.UserContext()); err != nil {
		status = "unhealthy"
		statusCode = fiber.StatusServiceUnavailable
	}

	return c.Status(statusCode).JSON(fiber.Map{
		"status":  status,
		"service": "MediSmart Backend",
		"version": h.Version,
		"storage": h.StorageType,
	})
}
