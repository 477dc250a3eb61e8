package store

import (
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"orchard-service/internal/model"
)

// TreeStore is the registry for tree records, the root of the hierarchy.
type TreeStore struct {
	db *gorm.DB
}

func NewTreeStore(db *gorm.DB) *TreeStore {
	return &TreeStore{db: db}
}

// CreateTree carries a fully-formed create request. IsSynced defaults to
// false for direct API creates; the bulk sync path forces it to true.
type CreateTree struct {
	ID          string  `json:"id"`
	Description string  `json:"description"`
	Latitude    float64 `json:"latitude"`
	Longitude   float64 `json:"longitude"`
	Status      string  `json:"status"`
	Type        string  `json:"type"`
	ImageURL    string  `json:"image_url"`
	IsSynced    *bool   `json:"is_synced"`
}

// UpdateTree carries a partial update; nil fields are left untouched.
type UpdateTree struct {
	Description *string  `json:"description"`
	Latitude    *float64 `json:"latitude"`
	Longitude   *float64 `json:"longitude"`
	Status      *string  `json:"status"`
	Type        *string  `json:"type"`
	ImageURL    *string  `json:"image_url"`
	IsSynced    *bool    `json:"is_synced"`
}

// ListTreesQuery filters and pages the registry listing. The proximity
// filter is applied only when latitude, longitude and radius are all set.
type ListTreesQuery struct {
	Type      string   `query:"type"`
	Status    string   `query:"status"`
	IsSynced  *bool    `query:"is_synced"`
	Latitude  *float64 `query:"latitude"`
	Longitude *float64 `query:"longitude"`
	RadiusKm  *float64 `query:"radius"`
	OrderBy   string   `query:"order_by"`
	OrderDir  string   `query:"order_dir"`
	Page      int      `query:"page"`
	PerPage   int      `query:"per_page"`
}

// TreeSyncRecord is one offline-created tree pushed by the mobile client.
type TreeSyncRecord struct {
	ID          string  `json:"id"`
	Description string  `json:"description"`
	Latitude    float64 `json:"latitude"`
	Longitude   float64 `json:"longitude"`
	Type        string  `json:"type"`
	ImageURL    string  `json:"image_url"`
	Status      string  `json:"status"`
}

// TypeCount is one row of the most-frequent-types breakdown.
type TypeCount struct {
	Type  string `json:"type"`
	Count int64  `json:"count"`
}

// TreeStatistics is the registry-wide summary.
type TreeStatistics struct {
	TotalTrees    int64       `json:"total_trees"`
	ActiveTrees   int64       `json:"active_trees"`
	InactiveTrees int64       `json:"inactive_trees"`
	RemovedTrees  int64       `json:"removed_trees"`
	SyncedTrees   int64       `json:"synced_trees"`
	UniqueTypes   int64       `json:"unique_types"`
	CommonTypes   []TypeCount `json:"common_types"`
}

var treeStatuses = map[string]bool{
	model.TreeStatusActive:   true,
	model.TreeStatusInactive: true,
	model.TreeStatusRemoved:  true,
}

// Columns the caller may order the listing by. Anything else falls back
// to created_at so raw input never reaches the ORDER BY clause.
var orderableTreeColumns = map[string]bool{
	"created_at": true,
	"updated_at": true,
	"type":       true,
	"status":     true,
	"latitude":   true,
	"longitude":  true,
}

func validateTreeFields(errs FieldErrors, prefix, id, description string, latitude, longitude float64, treeType, imageURL string) {
	if id == "" {
		errs.Add(prefix+"id", "id is required")
	} else if len(id) > 255 {
		errs.Add(prefix+"id", "id must not exceed 255 characters")
	}
	if description == "" {
		errs.Add(prefix+"description", "description is required")
	} else if len(description) > 2000 {
		errs.Add(prefix+"description", "description must not exceed 2000 characters")
	}
	if latitude < -90 || latitude > 90 {
		errs.Add(prefix+"latitude", "latitude must be between -90 and 90")
	}
	if longitude < -180 || longitude > 180 {
		errs.Add(prefix+"longitude", "longitude must be between -180 and 180")
	}
	if treeType == "" {
		errs.Add(prefix+"type", "type is required")
	} else if len(treeType) > 100 {
		errs.Add(prefix+"type", "type must not exceed 100 characters")
	}
	if imageURL == "" {
		errs.Add(prefix+"image_url", "image_url is required")
	} else if len(imageURL) > 500 {
		errs.Add(prefix+"image_url", "image_url must not exceed 500 characters")
	}
}

// Create validates and persists a single tree. A colliding identifier is
// a DuplicateIDError; nothing is written on any failure.
func (s *TreeStore) Create(cmd CreateTree) (*model.Tree, error) {
	errs := FieldErrors{}
	validateTreeFields(errs, "", cmd.ID, cmd.Description, cmd.Latitude, cmd.Longitude, cmd.Type, cmd.ImageURL)
	if cmd.Status == "" {
		errs.Add("status", "status is required")
	} else if !treeStatuses[cmd.Status] {
		errs.Add("status", "status must be one of: active, inactive, removed")
	}
	if err := errs.OrNil(); err != nil {
		return nil, err
	}

	exists, err := recordExists(s.db, &model.Tree{}, cmd.ID)
	if err != nil {
		return nil, storageError("check tree id", err)
	}
	if exists {
		return nil, &DuplicateIDError{ID: cmd.ID}
	}

	tree := model.Tree{
		ID:          cmd.ID,
		Description: cmd.Description,
		Latitude:    cmd.Latitude,
		Longitude:   cmd.Longitude,
		Status:      cmd.Status,
		IsSynced:    cmd.IsSynced != nil && *cmd.IsSynced,
		Type:        cmd.Type,
		ImageURL:    cmd.ImageURL,
	}
	if err := s.db.Create(&tree).Error; err != nil {
		return nil, storageError("create tree", err)
	}
	return &tree, nil
}

// Get returns a single tree or ErrNotFound.
func (s *TreeStore) Get(id string) (*model.Tree, error) {
	var tree model.Tree
	if err := s.db.First(&tree, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, storageError("get tree", err)
	}
	return &tree, nil
}

// Update mutates only the fields present in the command. Provided fields
// are re-validated; absent fields keep their stored values.
func (s *TreeStore) Update(id string, cmd UpdateTree) (*model.Tree, error) {
	tree, err := s.Get(id)
	if err != nil {
		return nil, err
	}

	errs := FieldErrors{}
	updates := map[string]interface{}{}
	if cmd.Description != nil {
		if *cmd.Description == "" {
			errs.Add("description", "description must not be empty")
		}
		updates["description"] = *cmd.Description
	}
	if cmd.Latitude != nil {
		if *cmd.Latitude < -90 || *cmd.Latitude > 90 {
			errs.Add("latitude", "latitude must be between -90 and 90")
		}
		updates["latitude"] = *cmd.Latitude
	}
	if cmd.Longitude != nil {
		if *cmd.Longitude < -180 || *cmd.Longitude > 180 {
			errs.Add("longitude", "longitude must be between -180 and 180")
		}
		updates["longitude"] = *cmd.Longitude
	}
	if cmd.Status != nil {
		if !treeStatuses[*cmd.Status] {
			errs.Add("status", "status must be one of: active, inactive, removed")
		}
		updates["status"] = *cmd.Status
	}
	if cmd.Type != nil {
		if *cmd.Type == "" {
			errs.Add("type", "type must not be empty")
		}
		updates["type"] = *cmd.Type
	}
	if cmd.ImageURL != nil {
		if *cmd.ImageURL == "" {
			errs.Add("image_url", "image_url must not be empty")
		}
		updates["image_url"] = *cmd.ImageURL
	}
	if cmd.IsSynced != nil {
		updates["is_synced"] = *cmd.IsSynced
	}
	if err := errs.OrNil(); err != nil {
		return nil, err
	}
	if len(updates) == 0 {
		return tree, nil
	}

	if err := s.db.Model(tree).Updates(updates).Error; err != nil {
		return nil, storageError("update tree", err)
	}
	return s.Get(id)
}

// Delete removes the tree permanently. The flowers, fruits and harvests
// beneath it go with it via the cascading foreign keys, atomically.
func (s *TreeStore) Delete(id string) error {
	res := s.db.Delete(&model.Tree{}, "id = ?", id)
	if res.Error != nil {
		return storageError("delete tree", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// List applies the registry filters, ordering and pagination.
//
// The proximity filter is a crude bounding box: one degree is taken as
// roughly 111 km on both axes, so the box over-selects away from the
// equator. The client treats it as a hint, not a geodesic circle.
func (s *TreeStore) List(q ListTreesQuery) ([]model.Tree, PageMeta, error) {
	query := s.db.Model(&model.Tree{})
	if q.Type != "" {
		query = query.Where("type = ?", q.Type)
	}
	if q.Status != "" {
		query = query.Where("status = ?", q.Status)
	}
	if q.IsSynced != nil {
		query = query.Where("is_synced = ?", *q.IsSynced)
	}
	if q.Latitude != nil && q.Longitude != nil && q.RadiusKm != nil {
		delta := *q.RadiusKm / 111
		query = query.
			Where("latitude BETWEEN ? AND ?", *q.Latitude-delta, *q.Latitude+delta).
			Where("longitude BETWEEN ? AND ?", *q.Longitude-delta, *q.Longitude+delta)
	}

	orderBy := q.OrderBy
	if !orderableTreeColumns[orderBy] {
		orderBy = "created_at"
	}
	dir := "DESC"
	if strings.EqualFold(q.OrderDir, "asc") {
		dir = "ASC"
	}
	page, perPage := normalizePage(q.Page, q.PerPage)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, PageMeta{}, storageError("count trees", err)
	}

	var trees []model.Tree
	err := query.
		Order(orderBy + " " + dir).
		Offset((page - 1) * perPage).
		Limit(perPage).
		Find(&trees).Error
	if err != nil {
		return nil, PageMeta{}, storageError("list trees", err)
	}
	return trees, pageMeta(page, perPage, total), nil
}

// BulkSync applies a batch of offline-created trees in one transaction.
// The contract is strict: any colliding identifier, in the batch or in
// the table, fails the whole batch and zero rows are persisted. Every
// accepted record is marked synced and defaults to active status.
func (s *TreeStore) BulkSync(records []TreeSyncRecord) ([]model.Tree, error) {
	errs := FieldErrors{}
	if len(records) == 0 {
		errs.Add("trees", "trees are required")
		return nil, errs
	}

	ids := make([]string, 0, len(records))
	seen := make(map[string]bool, len(records))
	for i, r := range records {
		prefix := fmt.Sprintf("trees.%d.", i)
		validateTreeFields(errs, prefix, r.ID, r.Description, r.Latitude, r.Longitude, r.Type, r.ImageURL)
		if r.Status != "" && !treeStatuses[r.Status] {
			errs.Add(prefix+"status", "status must be one of: active, inactive, removed")
		}
		if seen[r.ID] {
			errs.Add(prefix+"id", "duplicate id within batch")
		}
		seen[r.ID] = true
		ids = append(ids, r.ID)
	}
	if err := errs.OrNil(); err != nil {
		return nil, err
	}

	tx := s.db.Begin()
	if tx.Error != nil {
		return nil, storageError("begin bulk sync", tx.Error)
	}

	var existing []string
	if err := tx.Model(&model.Tree{}).Where("id IN ?", ids).Pluck("id", &existing).Error; err != nil {
		tx.Rollback()
		return nil, storageError("check existing trees", err)
	}
	if len(existing) > 0 {
		tx.Rollback()
		return nil, FieldErrors{
			"trees": {"identifiers already exist: " + strings.Join(existing, ", ")},
		}
	}

	saved := make([]model.Tree, 0, len(records))
	for _, r := range records {
		status := r.Status
		if status == "" {
			status = model.TreeStatusActive
		}
		tree := model.Tree{
			ID:          r.ID,
			Description: r.Description,
			Latitude:    r.Latitude,
			Longitude:   r.Longitude,
			Status:      status,
			IsSynced:    true,
			Type:        r.Type,
			ImageURL:    r.ImageURL,
		}
		if err := tx.Create(&tree).Error; err != nil {
			tx.Rollback()
			return nil, storageError("create tree in bulk sync", err)
		}
		saved = append(saved, tree)
	}

	if err := tx.Commit().Error; err != nil {
		return nil, storageError("commit bulk sync", err)
	}
	return saved, nil
}

// CheckExisting returns the subset of the given identifiers already in
// the registry. The client uses it to skip records that would collide.
func (s *TreeStore) CheckExisting(ids []string) ([]string, error) {
	existing := make([]string, 0, len(ids))
	if len(ids) == 0 {
		return existing, nil
	}
	err := s.db.Model(&model.Tree{}).
		Where("id IN ?", ids).
		Order("id").
		Pluck("id", &existing).Error
	if err != nil {
		return nil, storageError("check existing trees", err)
	}
	return existing, nil
}

// Statistics computes the registry-wide counts and the five most common
// tree types.
func (s *TreeStore) Statistics() (*TreeStatistics, error) {
	stats := TreeStatistics{}

	counts := []struct {
		dest  *int64
		query *gorm.DB
	}{
		{&stats.TotalTrees, s.db.Model(&model.Tree{})},
		{&stats.ActiveTrees, s.db.Model(&model.Tree{}).Where("status = ?", model.TreeStatusActive)},
		{&stats.InactiveTrees, s.db.Model(&model.Tree{}).Where("status = ?", model.TreeStatusInactive)},
		{&stats.RemovedTrees, s.db.Model(&model.Tree{}).Where("status = ?", model.TreeStatusRemoved)},
		{&stats.SyncedTrees, s.db.Model(&model.Tree{}).Where("is_synced = ?", true)},
	}
	for _, c := range counts {
		if err := c.query.Count(c.dest).Error; err != nil {
			return nil, storageError("count trees", err)
		}
	}

	if err := s.db.Model(&model.Tree{}).Distinct("type").Count(&stats.UniqueTypes).Error; err != nil {
		return nil, storageError("count tree types", err)
	}

	err := s.db.Model(&model.Tree{}).
		Select("type, COUNT(*) AS count").
		Group("type").
		Order("count DESC, type ASC").
		Limit(5).
		Scan(&stats.CommonTypes).Error
	if err != nil {
		return nil, storageError("rank tree types", err)
	}
	return &stats, nil
}
