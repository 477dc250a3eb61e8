package store

import (
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"orchard-service/internal/model"
)

// FruitStore is the ledger for fruit records. A fruit references both
// its flower and, denormalized, a tree; the two are accepted as sent and
// never cross-checked against each other.
type FruitStore struct {
	db *gorm.DB
}

func NewFruitStore(db *gorm.DB) *FruitStore {
	return &FruitStore{db: db}
}

type CreateFruit struct {
	ID         string     `json:"id"`
	FlowerID   string     `json:"flower_id"`
	TreeID     string     `json:"tree_id"`
	Quantity   int        `json:"quantity"`
	WrapptedAt *time.Time `json:"wrappted_at"`
	ImageURL   string     `json:"image_url"`
}

// UpdateFruit carries a partial update. Reference fields are re-checked
// against their tables only when present in the command.
type UpdateFruit struct {
	FlowerID   *string    `json:"flower_id"`
	TreeID     *string    `json:"tree_id"`
	Quantity   *int       `json:"quantity"`
	WrapptedAt *time.Time `json:"wrappted_at"`
	ImageURL   *string    `json:"image_url"`
}

type ListFruitsQuery struct {
	FlowerID   string `query:"flower_id"`
	TreeID     string `query:"tree_id"`
	WithFlower bool   `query:"with_flower"`
	WithTree   bool   `query:"with_tree"`
}

// FruitSyncRecord is one fruit in an idempotent sync batch.
type FruitSyncRecord struct {
	ID         string     `json:"id"`
	FlowerID   string     `json:"flower_id"`
	TreeID     string     `json:"tree_id"`
	Quantity   int        `json:"quantity"`
	WrapptedAt *time.Time `json:"wrappted_at"`
	ImageURL   string     `json:"image_url"`
}

func validateFruitFields(errs FieldErrors, prefix, id, flowerID, treeID string, quantity int) {
	if id == "" {
		errs.Add(prefix+"id", "id is required")
	}
	if flowerID == "" {
		errs.Add(prefix+"flower_id", "flower_id is required")
	}
	if treeID == "" {
		errs.Add(prefix+"tree_id", "tree_id is required")
	}
	if quantity < 1 {
		errs.Add(prefix+"quantity", "quantity must be a positive integer")
	}
}

func (s *FruitStore) checkParents(db *gorm.DB, flowerID, treeID string) error {
	flowerExists, err := recordExists(db, &model.Flower{}, flowerID)
	if err != nil {
		return storageError("check flower reference", err)
	}
	if !flowerExists {
		return &ReferenceError{Field: "flower_id", ID: flowerID}
	}
	treeExists, err := recordExists(db, &model.Tree{}, treeID)
	if err != nil {
		return storageError("check tree reference", err)
	}
	if !treeExists {
		return &ReferenceError{Field: "tree_id", ID: treeID}
	}
	return nil
}

// Create validates and persists a fruit. The wrap timestamp defaults to
// now and the image reference to the empty string, matching what the
// mobile client sends when the user skips those fields.
func (s *FruitStore) Create(cmd CreateFruit) (*model.Fruit, error) {
	errs := FieldErrors{}
	validateFruitFields(errs, "", cmd.ID, cmd.FlowerID, cmd.TreeID, cmd.Quantity)
	if err := errs.OrNil(); err != nil {
		return nil, err
	}

	exists, err := recordExists(s.db, &model.Fruit{}, cmd.ID)
	if err != nil {
		return nil, storageError("check fruit id", err)
	}
	if exists {
		return nil, &DuplicateIDError{ID: cmd.ID}
	}
	if err := s.checkParents(s.db, cmd.FlowerID, cmd.TreeID); err != nil {
		return nil, err
	}

	wrappted := cmd.WrapptedAt
	if wrappted == nil {
		now := time.Now()
		wrappted = &now
	}
	fruit := model.Fruit{
		ID:         cmd.ID,
		FlowerID:   cmd.FlowerID,
		TreeID:     cmd.TreeID,
		Quantity:   cmd.Quantity,
		WrapptedAt: wrappted,
		ImageURL:   cmd.ImageURL,
	}
	if err := s.db.Create(&fruit).Error; err != nil {
		return nil, storageError("create fruit", err)
	}
	return s.Get(fruit.ID)
}

// Get returns the fruit with its flower and tree preloaded.
func (s *FruitStore) Get(id string) (*model.Fruit, error) {
	var fruit model.Fruit
	err := s.db.Preload("Flower").Preload("Tree").First(&fruit, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, storageError("get fruit", err)
	}
	return &fruit, nil
}

// Update mutates only the fields present in the command. Changing
// flower_id or tree_id re-checks that the new parent exists; unchanged
// references are not re-validated.
func (s *FruitStore) Update(id string, cmd UpdateFruit) (*model.Fruit, error) {
	fruit, err := s.Get(id)
	if err != nil {
		return nil, err
	}

	errs := FieldErrors{}
	updates := map[string]interface{}{}
	if cmd.FlowerID != nil {
		if *cmd.FlowerID == "" {
			errs.Add("flower_id", "flower_id must not be empty")
		}
		updates["flower_id"] = *cmd.FlowerID
	}
	if cmd.TreeID != nil {
		if *cmd.TreeID == "" {
			errs.Add("tree_id", "tree_id must not be empty")
		}
		updates["tree_id"] = *cmd.TreeID
	}
	if cmd.Quantity != nil {
		if *cmd.Quantity < 1 {
			errs.Add("quantity", "quantity must be a positive integer")
		}
		updates["quantity"] = *cmd.Quantity
	}
	if cmd.WrapptedAt != nil {
		updates["wrappted_at"] = *cmd.WrapptedAt
	}
	if cmd.ImageURL != nil {
		updates["image_url"] = *cmd.ImageURL
	}
	if err := errs.OrNil(); err != nil {
		return nil, err
	}

	if cmd.FlowerID != nil {
		exists, err := recordExists(s.db, &model.Flower{}, *cmd.FlowerID)
		if err != nil {
			return nil, storageError("check flower reference", err)
		}
		if !exists {
			return nil, &ReferenceError{Field: "flower_id", ID: *cmd.FlowerID}
		}
	}
	if cmd.TreeID != nil {
		exists, err := recordExists(s.db, &model.Tree{}, *cmd.TreeID)
		if err != nil {
			return nil, storageError("check tree reference", err)
		}
		if !exists {
			return nil, &ReferenceError{Field: "tree_id", ID: *cmd.TreeID}
		}
	}
	if len(updates) == 0 {
		return fruit, nil
	}

	if err := s.db.Model(&model.Fruit{ID: id}).Updates(updates).Error; err != nil {
		return nil, storageError("update fruit", err)
	}
	return s.Get(id)
}

// Delete removes the fruit permanently; its harvests cascade with it.
func (s *FruitStore) Delete(id string) error {
	res := s.db.Delete(&model.Fruit{}, "id = ?", id)
	if res.Error != nil {
		return storageError("delete fruit", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// List returns fruits newest first with optional parent filters and
// optional parent preloads.
func (s *FruitStore) List(q ListFruitsQuery) ([]model.Fruit, error) {
	query := s.db.Model(&model.Fruit{})
	if q.FlowerID != "" {
		query = query.Where("flower_id = ?", q.FlowerID)
	}
	if q.TreeID != "" {
		query = query.Where("tree_id = ?", q.TreeID)
	}
	if q.WithFlower {
		query = query.Preload("Flower")
	}
	if q.WithTree {
		query = query.Preload("Tree")
	}

	var fruits []model.Fruit
	if err := query.Order("created_at DESC").Find(&fruits).Error; err != nil {
		return nil, storageError("list fruits", err)
	}
	return fruits, nil
}

// ListByFlower returns the fruits of one flower with both parents
// preloaded, newest first.
func (s *FruitStore) ListByFlower(flowerID string) ([]model.Fruit, error) {
	return s.List(ListFruitsQuery{FlowerID: flowerID, WithFlower: true, WithTree: true})
}

// ListByTree returns the fruits recorded against one tree with both
// parents preloaded, newest first.
func (s *FruitStore) ListByTree(treeID string) ([]model.Fruit, error) {
	return s.List(ListFruitsQuery{TreeID: treeID, WithFlower: true, WithTree: true})
}

// Sync upserts a batch of fruits in one transaction, keyed by id: an
// existing id has its references, quantity, wrap timestamp and image
// overwritten; a new id is inserted. Retransmitting the same batch after
// a dropped acknowledgment therefore never creates duplicates. Parents
// are validated per record before anything is written.
func (s *FruitStore) Sync(records []FruitSyncRecord) ([]model.Fruit, error) {
	errs := FieldErrors{}
	if len(records) == 0 {
		errs.Add("fruits", "fruits are required")
		return nil, errs
	}
	for i, r := range records {
		validateFruitFields(errs, fmt.Sprintf("fruits.%d.", i), r.ID, r.FlowerID, r.TreeID, r.Quantity)
	}
	if err := errs.OrNil(); err != nil {
		return nil, err
	}

	tx := s.db.Begin()
	if tx.Error != nil {
		return nil, storageError("begin fruit sync", tx.Error)
	}

	for i, r := range records {
		if err := s.checkParents(tx, r.FlowerID, r.TreeID); err != nil {
			tx.Rollback()
			var refErr *ReferenceError
			if errors.As(err, &refErr) {
				return nil, FieldErrors{
					fmt.Sprintf("fruits.%d.%s", i, refErr.Field): {refErr.Error()},
				}
			}
			return nil, err
		}
	}

	synced := make([]model.Fruit, 0, len(records))
	for _, r := range records {
		wrappted := r.WrapptedAt
		if wrappted == nil {
			now := time.Now()
			wrappted = &now
		}

		var existing model.Fruit
		err := tx.First(&existing, "id = ?", r.ID).Error
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			fruit := model.Fruit{
				ID:         r.ID,
				FlowerID:   r.FlowerID,
				TreeID:     r.TreeID,
				Quantity:   r.Quantity,
				WrapptedAt: wrappted,
				ImageURL:   r.ImageURL,
			}
			if err := tx.Create(&fruit).Error; err != nil {
				tx.Rollback()
				return nil, storageError("create fruit in sync", err)
			}
			synced = append(synced, fruit)
		case err != nil:
			tx.Rollback()
			return nil, storageError("look up fruit in sync", err)
		default:
			updates := map[string]interface{}{
				"flower_id":   r.FlowerID,
				"tree_id":     r.TreeID,
				"quantity":    r.Quantity,
				"wrappted_at": *wrappted,
				"image_url":   r.ImageURL,
			}
			if err := tx.Model(&existing).Updates(updates).Error; err != nil {
				tx.Rollback()
				return nil, storageError("update fruit in sync", err)
			}
			existing.FlowerID = r.FlowerID
			existing.TreeID = r.TreeID
			existing.Quantity = r.Quantity
			existing.WrapptedAt = wrappted
			existing.ImageURL = r.ImageURL
			synced = append(synced, existing)
		}
	}

	if err := tx.Commit().Error; err != nil {
		return nil, storageError("commit fruit sync", err)
	}
	return synced, nil
}
