package store

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"orchard-service/internal/model"
)

func TestFruitCreateDefaults(t *testing.T) {
	db := newTestDB(t)
	s := NewFruitStore(db)
	tree := seedTree(t, db, "tree-1")
	flower := seedFlower(t, db, "flower-1", tree.ID)

	before := time.Now().Add(-time.Second)
	created, err := s.Create(CreateFruit{
		ID:       "fruit-1",
		FlowerID: flower.ID,
		TreeID:   tree.ID,
		Quantity: 7,
	})
	require.NoError(t, err)

	require.NotNil(t, created.WrapptedAt, "omitted wrap timestamp defaults to now")
	assert.True(t, created.WrapptedAt.After(before))
	assert.Empty(t, created.ImageURL)

	// Create returns the record with both parents attached.
	require.NotNil(t, created.Flower)
	require.NotNil(t, created.Tree)
	assert.Equal(t, flower.ID, created.Flower.ID)
	assert.Equal(t, tree.ID, created.Tree.ID)
}

func TestFruitCreateMissingParents(t *testing.T) {
	db := newTestDB(t)
	s := NewFruitStore(db)
	tree := seedTree(t, db, "tree-1")
	flower := seedFlower(t, db, "flower-1", tree.ID)

	_, err := s.Create(CreateFruit{
		ID:       "fruit-1",
		FlowerID: "no-such-flower",
		TreeID:   tree.ID,
		Quantity: 1,
	})
	var ref *ReferenceError
	require.ErrorAs(t, err, &ref)
	assert.Equal(t, "flower_id", ref.Field)

	_, err = s.Create(CreateFruit{
		ID:       "fruit-1",
		FlowerID: flower.ID,
		TreeID:   "no-such-tree",
		Quantity: 1,
	})
	require.ErrorAs(t, err, &ref)
	assert.Equal(t, "tree_id", ref.Field)

	var count int64
	require.NoError(t, db.Model(&model.Fruit{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestFruitCreateDuplicateID(t *testing.T) {
	db := newTestDB(t)
	s := NewFruitStore(db)
	tree := seedTree(t, db, "tree-1")
	flower := seedFlower(t, db, "flower-1", tree.ID)
	seedFruit(t, db, "fruit-1", flower.ID, tree.ID)

	_, err := s.Create(CreateFruit{
		ID:       "fruit-1",
		FlowerID: flower.ID,
		TreeID:   tree.ID,
		Quantity: 1,
	})
	var dup *DuplicateIDError
	require.ErrorAs(t, err, &dup)
	assert.Equal(t, "fruit-1", dup.ID)
}

func TestFruitUpdatePartial(t *testing.T) {
	db := newTestDB(t)
	s := NewFruitStore(db)
	tree := seedTree(t, db, "tree-1")
	flower := seedFlower(t, db, "flower-1", tree.ID)
	seedFruit(t, db, "fruit-1", flower.ID, tree.ID)

	updated, err := s.Update("fruit-1", UpdateFruit{Quantity: intPtr(12)})
	require.NoError(t, err)
	assert.Equal(t, 12, updated.Quantity)
	assert.Equal(t, flower.ID, updated.FlowerID)
	assert.Equal(t, "https://img.example.com/fruit-1.jpg", updated.ImageURL)
}

func TestFruitUpdateMissingReferenceLeavesRowUnchanged(t *testing.T) {
	db := newTestDB(t)
	s := NewFruitStore(db)
	tree := seedTree(t, db, "tree-1")
	flower := seedFlower(t, db, "flower-1", tree.ID)
	seedFruit(t, db, "fruit-1", flower.ID, tree.ID)

	_, err := s.Update("fruit-1", UpdateFruit{
		FlowerID: strPtr("no-such-flower"),
		Quantity: intPtr(99),
	})
	var ref *ReferenceError
	require.ErrorAs(t, err, &ref)
	assert.Equal(t, "flower_id", ref.Field)

	got, err := s.Get("fruit-1")
	require.NoError(t, err)
	assert.Equal(t, flower.ID, got.FlowerID)
	assert.Equal(t, 5, got.Quantity)
}

func TestFruitListFilters(t *testing.T) {
	db := newTestDB(t)
	s := NewFruitStore(db)
	t1 := seedTree(t, db, "tree-1")
	t2 := seedTree(t, db, "tree-2")
	f1 := seedFlower(t, db, "flower-1", t1.ID)
	f2 := seedFlower(t, db, "flower-2", t2.ID)
	seedFruit(t, db, "a", f1.ID, t1.ID)
	seedFruit(t, db, "b", f1.ID, t1.ID)
	seedFruit(t, db, "c", f2.ID, t2.ID)

	byFlower, err := s.List(ListFruitsQuery{FlowerID: f1.ID})
	require.NoError(t, err)
	assert.Len(t, byFlower, 2)

	byTree, err := s.ListByTree(t2.ID)
	require.NoError(t, err)
	require.Len(t, byTree, 1)
	assert.Equal(t, "c", byTree[0].ID)
	require.NotNil(t, byTree[0].Flower)
	require.NotNil(t, byTree[0].Tree)

	viaFlower, err := s.ListByFlower(f1.ID)
	require.NoError(t, err)
	assert.Len(t, viaFlower, 2)
}

func TestFruitSyncInsertsAndIsIdempotent(t *testing.T) {
	db := newTestDB(t)
	s := NewFruitStore(db)
	tree := seedTree(t, db, "tree-1")
	flower := seedFlower(t, db, "flower-1", tree.ID)

	batch := []FruitSyncRecord{
		{ID: "f1", FlowerID: flower.ID, TreeID: tree.ID, Quantity: 3, WrapptedAt: datePtr(2025, time.March, 5), ImageURL: "u1"},
		{ID: "f2", FlowerID: flower.ID, TreeID: tree.ID, Quantity: 8, WrapptedAt: datePtr(2025, time.March, 6), ImageURL: "u2"},
	}

	first, err := s.Sync(batch)
	require.NoError(t, err)
	assert.Len(t, first, 2)

	// Retransmitting the identical batch must not create duplicates.
	second, err := s.Sync(batch)
	require.NoError(t, err)
	assert.Len(t, second, 2)

	var count int64
	require.NoError(t, db.Model(&model.Fruit{}).Count(&count).Error)
	assert.EqualValues(t, 2, count)
}

func TestFruitSyncOverwritesExisting(t *testing.T) {
	db := newTestDB(t)
	s := NewFruitStore(db)
	tree := seedTree(t, db, "tree-1")
	flower := seedFlower(t, db, "flower-1", tree.ID)
	seedFruit(t, db, "f1", flower.ID, tree.ID)

	synced, err := s.Sync([]FruitSyncRecord{
		{ID: "f1", FlowerID: flower.ID, TreeID: tree.ID, Quantity: 42, WrapptedAt: datePtr(2025, time.April, 1), ImageURL: "new-url"},
	})
	require.NoError(t, err)
	require.Len(t, synced, 1)
	assert.Equal(t, 42, synced[0].Quantity)
	assert.Equal(t, "new-url", synced[0].ImageURL)

	got, err := s.Get("f1")
	require.NoError(t, err)
	assert.Equal(t, 42, got.Quantity)
	assert.Equal(t, "new-url", got.ImageURL)
	require.NotNil(t, got.WrapptedAt)
	assert.Equal(t, time.April, got.WrapptedAt.UTC().Month())
}

func TestFruitSyncMissingParentFailsWholeBatch(t *testing.T) {
	db := newTestDB(t)
	s := NewFruitStore(db)
	tree := seedTree(t, db, "tree-1")
	flower := seedFlower(t, db, "flower-1", tree.ID)

	_, err := s.Sync([]FruitSyncRecord{
		{ID: "ok", FlowerID: flower.ID, TreeID: tree.ID, Quantity: 1, ImageURL: "u"},
		{ID: "bad", FlowerID: "no-such-flower", TreeID: tree.ID, Quantity: 1, ImageURL: "u"},
	})
	var errs FieldErrors
	require.ErrorAs(t, err, &errs)
	assert.Contains(t, errs, "fruits.1.flower_id")

	var count int64
	require.NoError(t, db.Model(&model.Fruit{}).Count(&count).Error)
	assert.Zero(t, count, "a bad record must leave zero rows behind")
}

func TestFruitSyncValidation(t *testing.T) {
	db := newTestDB(t)
	s := NewFruitStore(db)

	_, err := s.Sync(nil)
	var errs FieldErrors
	require.ErrorAs(t, err, &errs)
	assert.Contains(t, errs, "fruits")

	_, err = s.Sync([]FruitSyncRecord{{ID: "", FlowerID: "", TreeID: "", Quantity: 0}})
	require.ErrorAs(t, err, &errs)
	assert.Contains(t, errs, "fruits.0.id")
	assert.Contains(t, errs, "fruits.0.flower_id")
	assert.Contains(t, errs, "fruits.0.tree_id")
	assert.Contains(t, errs, "fruits.0.quantity")
}

func TestFruitDeleteCascadesHarvests(t *testing.T) {
	db := newTestDB(t)
	s := NewFruitStore(db)
	tree := seedTree(t, db, "tree-1")
	flower := seedFlower(t, db, "flower-1", tree.ID)
	fruit := seedFruit(t, db, "fruit-1", flower.ID, tree.ID)
	seedHarvest(t, db, "h1", fruit.ID, 2, time.Date(2025, time.June, 3, 0, 0, 0, 0, time.UTC))
	seedHarvest(t, db, "h2", fruit.ID, 4, time.Date(2025, time.June, 9, 0, 0, 0, 0, time.UTC))

	require.NoError(t, s.Delete("fruit-1"))

	harvests := NewHarvestStore(db)
	_, err := harvests.Get("h1")
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = harvests.Get("h2")
	assert.ErrorIs(t, err, ErrNotFound)

	// The parents stay.
	_, err = NewFlowerStore(db).Get("flower-1")
	assert.NoError(t, err)
}
