package store

import (
	"errors"
	"time"

	"gorm.io/gorm"

	"orchard-service/internal/model"
)

// FlowerStore is the ledger for flower records, each bound to one tree.
type FlowerStore struct {
	db *gorm.DB
}

func NewFlowerStore(db *gorm.DB) *FlowerStore {
	return &FlowerStore{db: db}
}

type CreateFlower struct {
	ID        string     `json:"id"`
	TreeID    string     `json:"tree_id"`
	Quantity  int        `json:"quantity"`
	WrappedAt *time.Time `json:"wrapped_at"`
	ImageURL  string     `json:"image_url"`
}

// UpdateFlower carries a partial update; nil fields are left untouched.
type UpdateFlower struct {
	Quantity  *int       `json:"quantity"`
	WrappedAt *time.Time `json:"wrapped_at"`
	ImageURL  *string    `json:"image_url"`
}

type ListFlowersQuery struct {
	TreeID   string `query:"tree_id"`
	WithTree bool   `query:"with_tree"`
}

// Create validates the flower and its owning tree before writing. A
// missing tree is a ReferenceError and nothing is persisted.
func (s *FlowerStore) Create(cmd CreateFlower) (*model.Flower, error) {
	errs := FieldErrors{}
	if cmd.ID == "" {
		errs.Add("id", "id is required")
	}
	if cmd.TreeID == "" {
		errs.Add("tree_id", "tree_id is required")
	}
	if cmd.Quantity < 1 {
		errs.Add("quantity", "quantity must be a positive integer")
	}
	if cmd.ImageURL == "" {
		errs.Add("image_url", "image_url is required")
	}
	if err := errs.OrNil(); err != nil {
		return nil, err
	}

	exists, err := recordExists(s.db, &model.Flower{}, cmd.ID)
	if err != nil {
		return nil, storageError("check flower id", err)
	}
	if exists {
		return nil, &DuplicateIDError{ID: cmd.ID}
	}

	treeExists, err := recordExists(s.db, &model.Tree{}, cmd.TreeID)
	if err != nil {
		return nil, storageError("check tree reference", err)
	}
	if !treeExists {
		return nil, &ReferenceError{Field: "tree_id", ID: cmd.TreeID}
	}

	flower := model.Flower{
		ID:        cmd.ID,
		TreeID:    cmd.TreeID,
		Quantity:  cmd.Quantity,
		WrappedAt: cmd.WrappedAt,
		ImageURL:  cmd.ImageURL,
	}
	if err := s.db.Create(&flower).Error; err != nil {
		return nil, storageError("create flower", err)
	}
	return &flower, nil
}

// Get returns a single flower or ErrNotFound.
func (s *FlowerStore) Get(id string) (*model.Flower, error) {
	var flower model.Flower
	if err := s.db.First(&flower, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, storageError("get flower", err)
	}
	return &flower, nil
}

// Update mutates only the fields present in the command.
func (s *FlowerStore) Update(id string, cmd UpdateFlower) (*model.Flower, error) {
	flower, err := s.Get(id)
	if err != nil {
		return nil, err
	}

	errs := FieldErrors{}
	updates := map[string]interface{}{}
	if cmd.Quantity != nil {
		if *cmd.Quantity < 1 {
			errs.Add("quantity", "quantity must be a positive integer")
		}
		updates["quantity"] = *cmd.Quantity
	}
	if cmd.WrappedAt != nil {
		updates["wrapped_at"] = *cmd.WrappedAt
	}
	if cmd.ImageURL != nil {
		if *cmd.ImageURL == "" {
			errs.Add("image_url", "image_url must not be empty")
		}
		updates["image_url"] = *cmd.ImageURL
	}
	if err := errs.OrNil(); err != nil {
		return nil, err
	}
	if len(updates) == 0 {
		return flower, nil
	}

	if err := s.db.Model(flower).Updates(updates).Error; err != nil {
		return nil, storageError("update flower", err)
	}
	return s.Get(id)
}

// Delete removes the flower permanently; its fruits and their harvests
// cascade with it.
func (s *FlowerStore) Delete(id string) error {
	res := s.db.Delete(&model.Flower{}, "id = ?", id)
	if res.Error != nil {
		return storageError("delete flower", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// List returns flowers newest first, optionally scoped to one tree and
// optionally with the owning tree preloaded.
func (s *FlowerStore) List(q ListFlowersQuery) ([]model.Flower, error) {
	query := s.db.Model(&model.Flower{})
	if q.TreeID != "" {
		query = query.Where("tree_id = ?", q.TreeID)
	}
	if q.WithTree {
		query = query.Preload("Tree")
	}

	var flowers []model.Flower
	if err := query.Order("created_at DESC").Find(&flowers).Error; err != nil {
		return nil, storageError("list flowers", err)
	}
	return flowers, nil
}
