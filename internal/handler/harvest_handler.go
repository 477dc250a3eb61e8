package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"orchard-service/internal/store"
	"orchard-service/pkg/logger"
	"orchard-service/prometheus"
)

// HarvestHandler exposes the harvest ledger and its summaries over HTTP.
type HarvestHandler struct {
	harvests *store.HarvestStore
}

func NewHarvestHandler(harvests *store.HarvestStore) *HarvestHandler {
	return &HarvestHandler{harvests: harvests}
}

// List handles retrieving harvests with fruit and date-range filters
func (h *HarvestHandler) List(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordEntityOperation("harvest", "list")

	var q store.ListHarvestsQuery
	if err := c.Bind(&q); err != nil {
		log.Warn("Invalid harvest list query", zap.Error(err))
		return badRequest(c, "Invalid query parameters")
	}

	defer prometheus.TrackDBOperation("select")(time.Now())
	harvests, meta, err := h.harvests.List(q)
	if err != nil {
		return writeError(c, log, err, "Harvest record not found", "Failed to retrieve harvests")
	}
	return c.JSON(http.StatusOK, echo.Map{
		"success": true,
		"data":    harvests,
		"meta":    meta,
	})
}

// Create handles recording a harvest event for an existing fruit
func (h *HarvestHandler) Create(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordEntityOperation("harvest", "create")

	var cmd store.CreateHarvest
	if err := c.Bind(&cmd); err != nil {
		log.Warn("Invalid harvest payload", zap.Error(err))
		return badRequest(c, "Invalid request data")
	}

	defer prometheus.TrackDBOperation("insert")(time.Now())
	harvest, err := h.harvests.Create(cmd)
	if err != nil {
		return writeError(c, log, err, "Harvest record not found", "Failed to record harvest")
	}

	log.Info("Harvest recorded",
		zap.String("harvest_id", harvest.ID),
		zap.String("fruit_id", harvest.FruitID),
		zap.Int("ripe_quantity", harvest.RipeQuantity))
	return c.JSON(http.StatusCreated, echo.Map{
		"success": true,
		"message": "Harvest recorded successfully",
		"data":    harvest,
	})
}

// Get handles retrieving a single harvest with its fruit-and-tree chain
func (h *HarvestHandler) Get(c echo.Context) error {
	log := logger.FromContext(c)
	id := c.Param("id")

	harvest, err := h.harvests.Get(id)
	if err != nil {
		return writeError(c, log, err, "Harvest record not found", "Failed to retrieve harvest")
	}
	return c.JSON(http.StatusOK, echo.Map{
		"success": true,
		"data":    harvest,
	})
}

// Update handles a partial update of a harvest record
func (h *HarvestHandler) Update(c echo.Context) error {
	log := logger.FromContext(c)
	id := c.Param("id")
	prometheus.RecordEntityOperation("harvest", "update")

	var cmd store.UpdateHarvest
	if err := c.Bind(&cmd); err != nil {
		log.Warn("Invalid harvest payload", zap.String("harvest_id", id), zap.Error(err))
		return badRequest(c, "Invalid request data")
	}

	defer prometheus.TrackDBOperation("update")(time.Now())
	harvest, err := h.harvests.Update(id, cmd)
	if err != nil {
		return writeError(c, log, err, "Harvest record not found", "Failed to update harvest")
	}

	log.Info("Harvest updated", zap.String("harvest_id", id))
	return c.JSON(http.StatusOK, echo.Map{
		"success": true,
		"message": "Harvest updated successfully",
		"data":    harvest,
	})
}

// Delete handles permanent removal of a harvest record
func (h *HarvestHandler) Delete(c echo.Context) error {
	log := logger.FromContext(c)
	id := c.Param("id")
	prometheus.RecordEntityOperation("harvest", "delete")

	defer prometheus.TrackDBOperation("delete")(time.Now())
	if err := h.harvests.Delete(id); err != nil {
		return writeError(c, log, err, "Harvest record not found", "Failed to delete harvest")
	}

	log.Info("Harvest deleted", zap.String("harvest_id", id))
	return c.JSON(http.StatusOK, echo.Map{
		"success": true,
		"message": "Harvest record deleted successfully",
	})
}

// ListByFruit handles retrieving every harvest of one fruit
func (h *HarvestHandler) ListByFruit(c echo.Context) error {
	log := logger.FromContext(c)
	fruitID := c.Param("id")

	defer prometheus.TrackDBOperation("select")(time.Now())
	harvests, err := h.harvests.ListByFruit(fruitID)
	if err != nil {
		return writeError(c, log, err, "Harvest record not found", "Failed to retrieve harvests for fruit")
	}
	return c.JSON(http.StatusOK, echo.Map{
		"success": true,
		"data":    harvests,
	})
}

// SummaryByFruit handles the per-fruit harvest aggregation
func (h *HarvestHandler) SummaryByFruit(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordEntityOperation("harvest", "summary_by_fruit")

	var q store.SummaryQuery
	if err := c.Bind(&q); err != nil {
		log.Warn("Invalid summary query", zap.Error(err))
		return badRequest(c, "Invalid query parameters")
	}

	defer prometheus.TrackDBOperation("select")(time.Now())
	summary, err := h.harvests.SummaryByFruit(q)
	if err != nil {
		return writeError(c, log, err, "Harvest record not found", "Failed to summarize harvests")
	}
	return c.JSON(http.StatusOK, echo.Map{
		"success": true,
		"data":    summary,
	})
}

// MonthlySummary handles the per-month harvest aggregation for one year
func (h *HarvestHandler) MonthlySummary(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordEntityOperation("harvest", "monthly_summary")

	year := 0
	if raw := c.QueryParam("year"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			return c.JSON(http.StatusUnprocessableEntity, echo.Map{
				"success": false,
				"errors":  store.FieldErrors{"year": {"year must be an integer"}},
			})
		}
		year = parsed
	}

	defer prometheus.TrackDBOperation("select")(time.Now())
	summary, resolvedYear, err := h.harvests.MonthlySummary(year)
	if err != nil {
		return writeError(c, log, err, "Harvest record not found", "Failed to summarize harvests")
	}
	return c.JSON(http.StatusOK, echo.Map{
		"success": true,
		"year":    resolvedYear,
		"data":    summary,
	})
}
