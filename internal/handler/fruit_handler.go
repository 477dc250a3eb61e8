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

// FruitHandler exposes the fruit ledger over HTTP.
type FruitHandler struct {
	fruits *store.FruitStore
}

func NewFruitHandler(fruits *store.FruitStore) *FruitHandler {
	return &FruitHandler{fruits: fruits}
}

// List handles retrieving fruits with optional parent filters and
// optional parent preloads
func (h *FruitHandler) List(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordEntityOperation("fruit", "list")

	var q store.ListFruitsQuery
	if err := c.Bind(&q); err != nil {
		log.Warn("Invalid fruit list query", zap.Error(err))
		return badRequest(c, "Invalid query parameters")
	}

	defer prometheus.TrackDBOperation("select")(time.Now())
	fruits, err := h.fruits.List(q)
	if err != nil {
		return writeError(c, log, err, "Fruit not found", "Failed to fetch fruits")
	}
	return c.JSON(http.StatusOK, echo.Map{
		"success": true,
		"data":    fruits,
	})
}

// Create handles storing a fruit bound to an existing flower and tree
func (h *FruitHandler) Create(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordEntityOperation("fruit", "create")

	var cmd store.CreateFruit
	if err := c.Bind(&cmd); err != nil {
		log.Warn("Invalid fruit payload", zap.Error(err))
		return badRequest(c, "Invalid request data")
	}

	defer prometheus.TrackDBOperation("insert")(time.Now())
	fruit, err := h.fruits.Create(cmd)
	if err != nil {
		return writeError(c, log, err, "Fruit not found", "Failed to create fruit")
	}

	log.Info("Fruit created",
		zap.String("fruit_id", fruit.ID),
		zap.String("flower_id", fruit.FlowerID),
		zap.String("tree_id", fruit.TreeID))
	return c.JSON(http.StatusCreated, echo.Map{
		"success": true,
		"message": "Fruit created successfully",
		"data":    fruit,
	})
}

// Get handles retrieving a single fruit with its flower and tree
func (h *FruitHandler) Get(c echo.Context) error {
	log := logger.FromContext(c)
	id := c.Param("id")

	fruit, err := h.fruits.Get(id)
	if err != nil {
		return writeError(c, log, err, "Fruit not found", "Failed to fetch fruit")
	}
	return c.JSON(http.StatusOK, echo.Map{
		"success": true,
		"data":    fruit,
	})
}

// Update handles a field-by-field partial update of a fruit
func (h *FruitHandler) Update(c echo.Context) error {
	log := logger.FromContext(c)
	id := c.Param("id")
	prometheus.RecordEntityOperation("fruit", "update")

	var cmd store.UpdateFruit
	if err := c.Bind(&cmd); err != nil {
		log.Warn("Invalid fruit payload", zap.String("fruit_id", id), zap.Error(err))
		return badRequest(c, "Invalid request data")
	}

	defer prometheus.TrackDBOperation("update")(time.Now())
	fruit, err := h.fruits.Update(id, cmd)
	if err != nil {
		return writeError(c, log, err, "Fruit not found", "Failed to update fruit")
	}

	log.Info("Fruit updated", zap.String("fruit_id", id))
	return c.JSON(http.StatusOK, echo.Map{
		"success": true,
		"message": "Fruit updated successfully",
		"data":    fruit,
	})
}

// Delete handles permanent removal of a fruit and its harvests
func (h *FruitHandler) Delete(c echo.Context) error {
	log := logger.FromContext(c)
	id := c.Param("id")
	prometheus.RecordEntityOperation("fruit", "delete")

	defer prometheus.TrackDBOperation("delete")(time.Now())
	if err := h.fruits.Delete(id); err != nil {
		return writeError(c, log, err, "Fruit not found", "Failed to delete fruit")
	}

	log.Info("Fruit deleted", zap.String("fruit_id", id))
	return c.JSON(http.StatusOK, echo.Map{
		"success": true,
		"message": "Fruit deleted successfully",
	})
}

// ListByFlower handles retrieving the fruits of one flower
func (h *FruitHandler) ListByFlower(c echo.Context) error {
	log := logger.FromContext(c)
	flowerID := c.Param("id")

	defer prometheus.TrackDBOperation("select")(time.Now())
	fruits, err := h.fruits.ListByFlower(flowerID)
	if err != nil {
		return writeError(c, log, err, "Fruit not found", "Failed to fetch fruits for flower")
	}
	return c.JSON(http.StatusOK, echo.Map{
		"success": true,
		"data":    fruits,
	})
}

// ListByTree handles retrieving the fruits recorded against one tree
func (h *FruitHandler) ListByTree(c echo.Context) error {
	log := logger.FromContext(c)
	treeID := c.Param("id")

	defer prometheus.TrackDBOperation("select")(time.Now())
	fruits, err := h.fruits.ListByTree(treeID)
	if err != nil {
		return writeError(c, log, err, "Fruit not found", "Failed to fetch fruits for tree")
	}
	return c.JSON(http.StatusOK, echo.Map{
		"success": true,
		"data":    fruits,
	})
}

// Sync handles the idempotent fruit upsert batch from the mobile client
func (h *FruitHandler) Sync(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordEntityOperation("fruit", "sync")

	var req struct {
		Fruits []store.FruitSyncRecord `json:"fruits"`
	}
	if err := c.Bind(&req); err != nil {
		log.Warn("Invalid fruit sync payload", zap.Error(err))
		return badRequest(c, "Invalid request data")
	}
	prometheus.ObserveSyncBatch("fruit", len(req.Fruits))

	defer prometheus.TrackDBOperation("upsert")(time.Now())
	synced, err := h.fruits.Sync(req.Fruits)
	if err != nil {
		prometheus.RecordSyncFailure("fruit")
		return writeError(c, log, err, "Fruit not found", "Failed to sync fruits")
	}

	log.Info("Fruits synced", zap.Int("count", len(synced)))
	return c.JSON(http.StatusOK, echo.Map{
		"success": true,
		"message": "Fruits synced successfully",
		"data":    synced,
	})
}
