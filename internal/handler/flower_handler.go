package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"orchard-service/internal/store"
	"orchard-service/pkg/logger"
	"orchard-service/prometheus"
)

// FlowerHandler exposes the flower ledger over HTTP.
type FlowerHandler struct {
	flowers *store.FlowerStore
}

func NewFlowerHandler(flowers *store.FlowerStore) *FlowerHandler {
	return &FlowerHandler{flowers: flowers}
}

// List handles retrieving flowers, optionally scoped to one tree
func (h *FlowerHandler) List(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordEntityOperation("flower", "list")

	var q store.ListFlowersQuery
	if err := c.Bind(&q); err != nil {
		log.Warn("Invalid flower list query", zap.Error(err))
		return badRequest(c, "Invalid query parameters")
	}

	defer prometheus.TrackDBOperation("select")(time.Now())
	flowers, err := h.flowers.List(q)
	if err != nil {
		return writeError(c, log, err, "Flower not found", "Failed to retrieve flowers")
	}
	return c.JSON(http.StatusOK, echo.Map{
		"success": true,
		"data":    flowers,
	})
}

// Create handles storing a flower bound to an existing tree
func (h *FlowerHandler) Create(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordEntityOperation("flower", "create")

	var cmd store.CreateFlower
	if err := c.Bind(&cmd); err != nil {
		log.Warn("Invalid flower payload", zap.Error(err))
		return badRequest(c, "Invalid request data")
	}

	defer prometheus.TrackDBOperation("insert")(time.Now())
	flower, err := h.flowers.Create(cmd)
	if err != nil {
		return writeError(c, log, err, "Flower not found", "Failed to create flower")
	}

	log.Info("Flower created",
		zap.String("flower_id", flower.ID),
		zap.String("tree_id", flower.TreeID))
	return c.JSON(http.StatusCreated, echo.Map{
		"success": true,
		"message": "Flower created successfully",
		"data":    flower,
	})
}

// Get handles retrieving a single flower by ID
func (h *FlowerHandler) Get(c echo.Context) error {
	log := logger.FromContext(c)
	id := c.Param("id")

	flower, err := h.flowers.Get(id)
	if err != nil {
		return writeError(c, log, err, "Flower not found", "Failed to retrieve flower")
	}
	return c.JSON(http.StatusOK, echo.Map{
		"success": true,
		"data":    flower,
	})
}

// Update handles a partial update of a flower
func (h *FlowerHandler) Update(c echo.Context) error {
	log := logger.FromContext(c)
	id := c.Param("id")
	prometheus.RecordEntityOperation("flower", "update")

	var cmd store.UpdateFlower
	if err := c.Bind(&cmd); err != nil {
		log.Warn("Invalid flower payload", zap.String("flower_id", id), zap.Error(err))
		return badRequest(c, "Invalid request data")
	}

	defer prometheus.TrackDBOperation("update")(time.Now())
	flower, err := h.flowers.Update(id, cmd)
	if err != nil {
		return writeError(c, log, err, "Flower not found", "Failed to update flower")
	}

	log.Info("Flower updated", zap.String("flower_id", id))
	return c.JSON(http.StatusOK, echo.Map{
		"success": true,
		"message": "Flower updated successfully",
		"data":    flower,
	})
}

// Delete handles permanent removal of a flower and its fruits
func (h *FlowerHandler) Delete(c echo.Context) error {
	log := logger.FromContext(c)
	id := c.Param("id")
	prometheus.RecordEntityOperation("flower", "delete")

	defer prometheus.TrackDBOperation("delete")(time.Now())
	if err := h.flowers.Delete(id); err != nil {
		return writeError(c, log, err, "Flower not found", "Failed to delete flower")
	}

	log.Info("Flower deleted", zap.String("flower_id", id))
	return c.JSON(http.StatusOK, echo.Map{
		"success": true,
		"message": "Flower permanently deleted",
	})
}
