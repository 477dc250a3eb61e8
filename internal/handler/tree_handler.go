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

// TreeHandler exposes the tree registry over HTTP.
type TreeHandler struct {
	trees *store.TreeStore
}

func NewTreeHandler(trees *store.TreeStore) *TreeHandler {
	return &TreeHandler{trees: trees}
}

// List handles retrieving trees with filtering, ordering and pagination
func (h *TreeHandler) List(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordEntityOperation("tree", "list")

	var q store.ListTreesQuery
	if err := c.Bind(&q); err != nil {
		log.Warn("Invalid tree list query", zap.Error(err))
		return badRequest(c, "Invalid query parameters")
	}

	defer prometheus.TrackDBOperation("select")(time.Now())
	trees, meta, err := h.trees.List(q)
	if err != nil {
		return writeError(c, log, err, "Tree not found", "Failed to retrieve trees")
	}

	log.Info("Trees retrieved", zap.Int("count", len(trees)), zap.Int64("total", meta.Total))
	return c.JSON(http.StatusOK, echo.Map{
		"success": true,
		"data":    trees,
		"meta":    meta,
	})
}

// Create handles storing a single tree with a client-supplied ID
func (h *TreeHandler) Create(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordEntityOperation("tree", "create")

	var cmd store.CreateTree
	if err := c.Bind(&cmd); err != nil {
		log.Warn("Invalid tree payload", zap.Error(err))
		return badRequest(c, "Invalid request data")
	}

	defer prometheus.TrackDBOperation("insert")(time.Now())
	tree, err := h.trees.Create(cmd)
	if err != nil {
		return writeError(c, log, err, "Tree not found", "Failed to save tree")
	}

	log.Info("Tree created",
		zap.String("tree_id", tree.ID),
		zap.String("type", tree.Type),
		zap.Bool("is_synced", tree.IsSynced))
	return c.JSON(http.StatusCreated, echo.Map{
		"success": true,
		"message": "Tree saved successfully",
		"data":    tree,
	})
}

// Get handles retrieving a single tree by ID
func (h *TreeHandler) Get(c echo.Context) error {
	log := logger.FromContext(c)
	id := c.Param("id")

	tree, err := h.trees.Get(id)
	if err != nil {
		return writeError(c, log, err, "Tree not found", "Failed to retrieve tree")
	}
	return c.JSON(http.StatusOK, echo.Map{
		"success": true,
		"data":    tree,
	})
}

// Update handles a partial update of a tree
func (h *TreeHandler) Update(c echo.Context) error {
	log := logger.FromContext(c)
	id := c.Param("id")
	prometheus.RecordEntityOperation("tree", "update")

	var cmd store.UpdateTree
	if err := c.Bind(&cmd); err != nil {
		log.Warn("Invalid tree payload", zap.String("tree_id", id), zap.Error(err))
		return badRequest(c, "Invalid request data")
	}

	defer prometheus.TrackDBOperation("update")(time.Now())
	tree, err := h.trees.Update(id, cmd)
	if err != nil {
		return writeError(c, log, err, "Tree not found", "Failed to update tree")
	}

	log.Info("Tree updated", zap.String("tree_id", id))
	return c.JSON(http.StatusOK, echo.Map{
		"success": true,
		"message": "Tree updated successfully",
		"data":    tree,
	})
}

// Delete handles permanent removal of a tree and its whole subtree
func (h *TreeHandler) Delete(c echo.Context) error {
	log := logger.FromContext(c)
	id := c.Param("id")
	prometheus.RecordEntityOperation("tree", "delete")

	defer prometheus.TrackDBOperation("delete")(time.Now())
	if err := h.trees.Delete(id); err != nil {
		return writeError(c, log, err, "Tree not found", "Failed to delete tree")
	}

	log.Info("Tree deleted", zap.String("tree_id", id))
	return c.JSON(http.StatusOK, echo.Map{
		"success": true,
		"message": "Tree deleted successfully",
	})
}

// BulkSync handles the all-or-nothing batch push from the mobile client
func (h *TreeHandler) BulkSync(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordEntityOperation("tree", "bulk_sync")

	var req struct {
		Trees []store.TreeSyncRecord `json:"trees"`
	}
	if err := c.Bind(&req); err != nil {
		log.Warn("Invalid bulk sync payload", zap.Error(err))
		return badRequest(c, "Invalid request data")
	}
	prometheus.ObserveSyncBatch("tree", len(req.Trees))

	defer prometheus.TrackDBOperation("insert")(time.Now())
	saved, err := h.trees.BulkSync(req.Trees)
	if err != nil {
		prometheus.RecordSyncFailure("tree")
		return writeError(c, log, err, "Tree not found", "Bulk sync failed")
	}

	log.Info("Trees synced", zap.Int("count", len(saved)))
	return c.JSON(http.StatusCreated, echo.Map{
		"success": true,
		"message": fmtCount(len(saved), "trees synced successfully"),
		"data":    saved,
	})
}

// CheckExisting returns the subset of pushed identifiers already stored
func (h *TreeHandler) CheckExisting(c echo.Context) error {
	log := logger.FromContext(c)

	var req struct {
		IDs []string `json:"ids"`
	}
	if err := c.Bind(&req); err != nil {
		log.Warn("Invalid check-existing payload", zap.Error(err))
		return badRequest(c, "Invalid request data")
	}
	if len(req.IDs) == 0 {
		return c.JSON(http.StatusUnprocessableEntity, echo.Map{
			"success": false,
			"errors":  store.FieldErrors{"ids": {"ids are required"}},
		})
	}

	existing, err := h.trees.CheckExisting(req.IDs)
	if err != nil {
		return writeError(c, log, err, "Tree not found", "Failed to check existing trees")
	}
	return c.JSON(http.StatusOK, echo.Map{
		"existing_ids": existing,
		"count":        len(existing),
	})
}

// Statistics returns the registry-wide counts and top tree types
func (h *TreeHandler) Statistics(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordEntityOperation("tree", "statistics")

	defer prometheus.TrackDBOperation("select")(time.Now())
	stats, err := h.trees.Statistics()
	if err != nil {
		return writeError(c, log, err, "Tree not found", "Failed to compute statistics")
	}
	return c.JSON(http.StatusOK, echo.Map{
		"success": true,
		"data":    stats,
	})
}
