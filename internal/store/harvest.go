package store

import (
	"errors"
	"time"

	"gorm.io/gorm"

	"orchard-service/internal/model"
)

// Harvest dates travel as calendar dates, not timestamps.
const dateLayout = "2006-01-02"

// HarvestStore is the append-mostly ledger of yield events plus the
// read-only aggregation queries over it.
type HarvestStore struct {
	db *gorm.DB
}

func NewHarvestStore(db *gorm.DB) *HarvestStore {
	return &HarvestStore{db: db}
}

type CreateHarvest struct {
	ID           string `json:"id"`
	FruitID      string `json:"fruit_id"`
	RipeQuantity int    `json:"ripe_quantity"`
	HarvestDate  string `json:"harvest_date"`
}

// UpdateHarvest carries a partial update. A provided harvest_date is
// re-validated against the server clock; a provided fruit_id against the
// fruit ledger.
type UpdateHarvest struct {
	FruitID      *string `json:"fruit_id"`
	RipeQuantity *int    `json:"ripe_quantity"`
	HarvestDate  *string `json:"harvest_date"`
}

type ListHarvestsQuery struct {
	FruitID   string `query:"fruit_id"`
	StartDate string `query:"start_date"`
	EndDate   string `query:"end_date"`
	Page      int    `query:"page"`
	PerPage   int    `query:"per_page"`
}

// parseHarvestDate parses a calendar date and rejects dates after today
// by the server clock. The boundary is inclusive: today is a valid
// harvest date, tomorrow is not.
func parseHarvestDate(errs FieldErrors, field, value string) (time.Time, bool) {
	d, err := time.ParseInLocation(dateLayout, value, time.UTC)
	if err != nil {
		errs.Add(field, "must be a date in YYYY-MM-DD format")
		return time.Time{}, false
	}
	now := time.Now().UTC()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	if d.After(today) {
		errs.Add(field, "must not be in the future")
		return time.Time{}, false
	}
	return d, true
}

// Create validates and persists a harvest event.
func (s *HarvestStore) Create(cmd CreateHarvest) (*model.Harvest, error) {
	errs := FieldErrors{}
	if cmd.ID == "" {
		errs.Add("id", "id is required")
	}
	if cmd.FruitID == "" {
		errs.Add("fruit_id", "fruit_id is required")
	}
	if cmd.RipeQuantity < 1 {
		errs.Add("ripe_quantity", "ripe_quantity must be a positive integer")
	}
	var harvestDate time.Time
	if cmd.HarvestDate == "" {
		errs.Add("harvest_date", "harvest_date is required")
	} else {
		harvestDate, _ = parseHarvestDate(errs, "harvest_date", cmd.HarvestDate)
	}
	if err := errs.OrNil(); err != nil {
		return nil, err
	}

	exists, err := recordExists(s.db, &model.Harvest{}, cmd.ID)
	if err != nil {
		return nil, storageError("check harvest id", err)
	}
	if exists {
		return nil, &DuplicateIDError{ID: cmd.ID}
	}

	fruitExists, err := recordExists(s.db, &model.Fruit{}, cmd.FruitID)
	if err != nil {
		return nil, storageError("check fruit reference", err)
	}
	if !fruitExists {
		return nil, &ReferenceError{Field: "fruit_id", ID: cmd.FruitID}
	}

	harvest := model.Harvest{
		ID:           cmd.ID,
		FruitID:      cmd.FruitID,
		RipeQuantity: cmd.RipeQuantity,
		HarvestDate:  harvestDate,
	}
	if err := s.db.Create(&harvest).Error; err != nil {
		return nil, storageError("create harvest", err)
	}
	return s.Get(harvest.ID)
}

// Get returns the harvest with its fruit-and-tree chain preloaded.
func (s *HarvestStore) Get(id string) (*model.Harvest, error) {
	var harvest model.Harvest
	err := s.db.Preload("Fruit").Preload("Fruit.Tree").First(&harvest, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, storageError("get harvest", err)
	}
	return &harvest, nil
}

// Update mutates only the fields present in the command. Any validation
// failure leaves the stored row untouched.
func (s *HarvestStore) Update(id string, cmd UpdateHarvest) (*model.Harvest, error) {
	harvest, err := s.Get(id)
	if err != nil {
		return nil, err
	}

	errs := FieldErrors{}
	updates := map[string]interface{}{}
	if cmd.FruitID != nil {
		if *cmd.FruitID == "" {
			errs.Add("fruit_id", "fruit_id must not be empty")
		}
		updates["fruit_id"] = *cmd.FruitID
	}
	if cmd.RipeQuantity != nil {
		if *cmd.RipeQuantity < 1 {
			errs.Add("ripe_quantity", "ripe_quantity must be a positive integer")
		}
		updates["ripe_quantity"] = *cmd.RipeQuantity
	}
	if cmd.HarvestDate != nil {
		if d, ok := parseHarvestDate(errs, "harvest_date", *cmd.HarvestDate); ok {
			updates["harvest_date"] = d
		}
	}
	if err := errs.OrNil(); err != nil {
		return nil, err
	}

	if cmd.FruitID != nil {
		exists, err := recordExists(s.db, &model.Fruit{}, *cmd.FruitID)
		if err != nil {
			return nil, storageError("check fruit reference", err)
		}
		if !exists {
			return nil, &ReferenceError{Field: "fruit_id", ID: *cmd.FruitID}
		}
	}
	if len(updates) == 0 {
		return harvest, nil
	}

	if err := s.db.Model(&model.Harvest{ID: id}).Updates(updates).Error; err != nil {
		return nil, storageError("update harvest", err)
	}
	return s.Get(id)
}

// Delete removes the harvest record permanently.
func (s *HarvestStore) Delete(id string) error {
	res := s.db.Delete(&model.Harvest{}, "id = ?", id)
	if res.Error != nil {
		return storageError("delete harvest", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// List returns harvests newest first by harvest date, optionally scoped
// to one fruit and to an inclusive [start_date, end_date] range (applied
// only when both bounds are present), paginated.
func (s *HarvestStore) List(q ListHarvestsQuery) ([]model.Harvest, PageMeta, error) {
	errs := FieldErrors{}
	query := s.db.Model(&model.Harvest{}).Preload("Fruit").Preload("Fruit.Tree")
	if q.FruitID != "" {
		query = query.Where("fruit_id = ?", q.FruitID)
	}
	if q.StartDate != "" && q.EndDate != "" {
		start, err := time.ParseInLocation(dateLayout, q.StartDate, time.UTC)
		if err != nil {
			errs.Add("start_date", "must be a date in YYYY-MM-DD format")
		}
		end, err := time.ParseInLocation(dateLayout, q.EndDate, time.UTC)
		if err != nil {
			errs.Add("end_date", "must be a date in YYYY-MM-DD format")
		}
		if err := errs.OrNil(); err != nil {
			return nil, PageMeta{}, err
		}
		query = query.Where("harvest_date BETWEEN ? AND ?", start, end)
	}

	page, perPage := normalizePage(q.Page, q.PerPage)
	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, PageMeta{}, storageError("count harvests", err)
	}

	var harvests []model.Harvest
	err := query.
		Order("harvest_date DESC").
		Offset((page - 1) * perPage).
		Limit(perPage).
		Find(&harvests).Error
	if err != nil {
		return nil, PageMeta{}, storageError("list harvests", err)
	}
	return harvests, pageMeta(page, perPage, total), nil
}

// ListByFruit returns all harvests of one fruit, newest first, with the
// fruit-and-tree chain preloaded.
func (s *HarvestStore) ListByFruit(fruitID string) ([]model.Harvest, error) {
	var harvests []model.Harvest
	err := s.db.
		Preload("Fruit").Preload("Fruit.Tree").
		Where("fruit_id = ?", fruitID).
		Order("harvest_date DESC").
		Find(&harvests).Error
	if err != nil {
		return nil, storageError("list harvests by fruit", err)
	}
	return harvests, nil
}
