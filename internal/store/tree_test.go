package store

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"orchard-service/internal/model"
)

func TestTreeCreateAndGet(t *testing.T) {
	db := newTestDB(t)
	s := NewTreeStore(db)

	created, err := s.Create(CreateTree{
		ID:          "tree-1",
		Description: "mango tree by the gate",
		Latitude:    14.5995,
		Longitude:   120.9842,
		Status:      model.TreeStatusActive,
		Type:        "mango",
		ImageURL:    "https://img.example.com/tree-1.jpg",
	})
	require.NoError(t, err)
	assert.False(t, created.IsSynced, "direct creates default to unsynced")

	got, err := s.Get("tree-1")
	require.NoError(t, err)
	assert.Equal(t, created.ID, got.ID)
	assert.Equal(t, "mango tree by the gate", got.Description)
	assert.Equal(t, 14.5995, got.Latitude)
	assert.Equal(t, 120.9842, got.Longitude)
	assert.Equal(t, model.TreeStatusActive, got.Status)
	assert.Equal(t, "mango", got.Type)
	assert.Equal(t, "https://img.example.com/tree-1.jpg", got.ImageURL)
}

func TestTreeCreateHonorsSyncedFlag(t *testing.T) {
	db := newTestDB(t)
	s := NewTreeStore(db)

	created, err := s.Create(CreateTree{
		ID:          "tree-1",
		Description: "synced from phone",
		Latitude:    1,
		Longitude:   1,
		Status:      model.TreeStatusActive,
		Type:        "mango",
		ImageURL:    "https://img.example.com/t.jpg",
		IsSynced:    boolPtr(true),
	})
	require.NoError(t, err)
	assert.True(t, created.IsSynced)
}

func TestTreeCreateDuplicateID(t *testing.T) {
	db := newTestDB(t)
	s := NewTreeStore(db)
	seedTree(t, db, "tree-1")

	_, err := s.Create(CreateTree{
		ID:          "tree-1",
		Description: "second tree with same id",
		Latitude:    0,
		Longitude:   0,
		Status:      model.TreeStatusActive,
		Type:        "guava",
		ImageURL:    "https://img.example.com/dup.jpg",
	})
	var dup *DuplicateIDError
	require.ErrorAs(t, err, &dup)
	assert.Equal(t, "tree-1", dup.ID)

	var count int64
	require.NoError(t, db.Model(&model.Tree{}).Count(&count).Error)
	assert.EqualValues(t, 1, count)
}

func TestTreeCreateValidation(t *testing.T) {
	db := newTestDB(t)
	s := NewTreeStore(db)

	_, err := s.Create(CreateTree{
		ID:        "tree-1",
		Latitude:  91,
		Longitude: -181,
		Status:    "flourishing",
		Type:      "mango",
		ImageURL:  "https://img.example.com/t.jpg",
	})
	var errs FieldErrors
	require.ErrorAs(t, err, &errs)
	assert.Contains(t, errs, "description")
	assert.Contains(t, errs, "latitude")
	assert.Contains(t, errs, "longitude")
	assert.Contains(t, errs, "status")

	var count int64
	require.NoError(t, db.Model(&model.Tree{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestTreeUpdatePartial(t *testing.T) {
	db := newTestDB(t)
	s := NewTreeStore(db)
	seedTree(t, db, "tree-1")

	updated, err := s.Update("tree-1", UpdateTree{Status: strPtr(model.TreeStatusInactive)})
	require.NoError(t, err)
	assert.Equal(t, model.TreeStatusInactive, updated.Status)
	assert.Equal(t, "seeded tree tree-1", updated.Description, "absent fields stay untouched")
	assert.Equal(t, "mango", updated.Type)
}

func TestTreeUpdateValidationLeavesRowUnchanged(t *testing.T) {
	db := newTestDB(t)
	s := NewTreeStore(db)
	seedTree(t, db, "tree-1")

	_, err := s.Update("tree-1", UpdateTree{Latitude: floatPtr(123)})
	var errs FieldErrors
	require.ErrorAs(t, err, &errs)
	assert.Contains(t, errs, "latitude")

	got, err := s.Get("tree-1")
	require.NoError(t, err)
	assert.Equal(t, 14.5995, got.Latitude)
}

func TestTreeUpdateNotFound(t *testing.T) {
	db := newTestDB(t)
	s := NewTreeStore(db)

	_, err := s.Update("nope", UpdateTree{Status: strPtr(model.TreeStatusActive)})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestTreeListFilters(t *testing.T) {
	db := newTestDB(t)
	s := NewTreeStore(db)

	require.NoError(t, db.Create(&model.Tree{
		ID: "t1", Description: "d", Latitude: 1, Longitude: 1,
		Status: model.TreeStatusActive, Type: "mango", ImageURL: "u", IsSynced: true,
	}).Error)
	require.NoError(t, db.Create(&model.Tree{
		ID: "t2", Description: "d", Latitude: 2, Longitude: 2,
		Status: model.TreeStatusInactive, Type: "guava", ImageURL: "u",
	}).Error)
	require.NoError(t, db.Create(&model.Tree{
		ID: "t3", Description: "d", Latitude: 3, Longitude: 3,
		Status: model.TreeStatusActive, Type: "mango", ImageURL: "u",
	}).Error)

	byType, meta, err := s.List(ListTreesQuery{Type: "mango"})
	require.NoError(t, err)
	assert.Len(t, byType, 2)
	assert.EqualValues(t, 2, meta.Total)

	byStatus, _, err := s.List(ListTreesQuery{Status: model.TreeStatusInactive})
	require.NoError(t, err)
	require.Len(t, byStatus, 1)
	assert.Equal(t, "t2", byStatus[0].ID)

	synced, _, err := s.List(ListTreesQuery{IsSynced: boolPtr(true)})
	require.NoError(t, err)
	require.Len(t, synced, 1)
	assert.Equal(t, "t1", synced[0].ID)
}

func TestTreeListBoundingBox(t *testing.T) {
	db := newTestDB(t)
	s := NewTreeStore(db)

	require.NoError(t, db.Create(&model.Tree{
		ID: "center", Description: "d", Latitude: 10, Longitude: 20,
		Status: model.TreeStatusActive, Type: "mango", ImageURL: "u",
	}).Error)
	require.NoError(t, db.Create(&model.Tree{
		ID: "near", Description: "d", Latitude: 10.005, Longitude: 20.005,
		Status: model.TreeStatusActive, Type: "mango", ImageURL: "u",
	}).Error)
	require.NoError(t, db.Create(&model.Tree{
		ID: "far", Description: "d", Latitude: 11, Longitude: 21,
		Status: model.TreeStatusActive, Type: "mango", ImageURL: "u",
	}).Error)

	// Radius zero still includes the tree sitting exactly at the center.
	exact, _, err := s.List(ListTreesQuery{
		Latitude: floatPtr(10), Longitude: floatPtr(20), RadiusKm: floatPtr(0),
	})
	require.NoError(t, err)
	require.Len(t, exact, 1)
	assert.Equal(t, "center", exact[0].ID)

	nearby, _, err := s.List(ListTreesQuery{
		Latitude: floatPtr(10), Longitude: floatPtr(20), RadiusKm: floatPtr(2),
	})
	require.NoError(t, err)
	assert.Len(t, nearby, 2)
}

func TestTreeListOrderAndPagination(t *testing.T) {
	db := newTestDB(t)
	s := NewTreeStore(db)

	base := time.Date(2025, time.June, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 25; i++ {
		require.NoError(t, db.Create(&model.Tree{
			ID: string(rune('a'+i%26)) + "-tree", Description: "d",
			Latitude: 1, Longitude: 1, Status: model.TreeStatusActive,
			Type: "mango", ImageURL: "u",
			CreatedAt: base.Add(time.Duration(i) * time.Hour),
		}).Error)
	}

	first, meta, err := s.List(ListTreesQuery{})
	require.NoError(t, err)
	assert.Len(t, first, 20, "default page size is 20")
	assert.Equal(t, 1, meta.CurrentPage)
	assert.Equal(t, 20, meta.PerPage)
	assert.EqualValues(t, 25, meta.Total)
	assert.Equal(t, 2, meta.LastPage)

	second, meta, err := s.List(ListTreesQuery{Page: 2})
	require.NoError(t, err)
	assert.Len(t, second, 5)
	assert.Equal(t, 2, meta.CurrentPage)

	// Default ordering is newest first.
	newest := first[0]
	assert.True(t, newest.CreatedAt.After(first[1].CreatedAt))

	asc, _, err := s.List(ListTreesQuery{OrderBy: "created_at", OrderDir: "asc", PerPage: 5})
	require.NoError(t, err)
	require.Len(t, asc, 5)
	assert.True(t, asc[0].CreatedAt.Before(asc[1].CreatedAt))
}

func TestTreeBulkSyncAllOrNothing(t *testing.T) {
	db := newTestDB(t)
	s := NewTreeStore(db)
	seedTree(t, db, "existing")

	_, err := s.BulkSync([]TreeSyncRecord{
		{ID: "new-1", Description: "d", Latitude: 1, Longitude: 1, Type: "mango", ImageURL: "u"},
		{ID: "existing", Description: "d", Latitude: 2, Longitude: 2, Type: "mango", ImageURL: "u"},
		{ID: "new-2", Description: "d", Latitude: 3, Longitude: 3, Type: "mango", ImageURL: "u"},
	})
	var errs FieldErrors
	require.ErrorAs(t, err, &errs)

	var count int64
	require.NoError(t, db.Model(&model.Tree{}).Count(&count).Error)
	assert.EqualValues(t, 1, count, "a colliding id must leave zero new rows behind")
}

func TestTreeBulkSyncDefaults(t *testing.T) {
	db := newTestDB(t)
	s := NewTreeStore(db)

	saved, err := s.BulkSync([]TreeSyncRecord{
		{ID: "s1", Description: "d", Latitude: 1, Longitude: 1, Type: "mango", ImageURL: "u"},
		{ID: "s2", Description: "d", Latitude: 2, Longitude: 2, Type: "guava", ImageURL: "u", Status: model.TreeStatusInactive},
	})
	require.NoError(t, err)
	require.Len(t, saved, 2)
	assert.True(t, saved[0].IsSynced)
	assert.True(t, saved[1].IsSynced)
	assert.Equal(t, model.TreeStatusActive, saved[0].Status, "omitted status defaults to active")
	assert.Equal(t, model.TreeStatusInactive, saved[1].Status)
}

func TestTreeBulkSyncRejectsDuplicateWithinBatch(t *testing.T) {
	db := newTestDB(t)
	s := NewTreeStore(db)

	_, err := s.BulkSync([]TreeSyncRecord{
		{ID: "same", Description: "d", Latitude: 1, Longitude: 1, Type: "mango", ImageURL: "u"},
		{ID: "same", Description: "d", Latitude: 2, Longitude: 2, Type: "mango", ImageURL: "u"},
	})
	var errs FieldErrors
	require.ErrorAs(t, err, &errs)
	assert.Contains(t, errs, "trees.1.id")

	var count int64
	require.NoError(t, db.Model(&model.Tree{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestTreeCheckExisting(t *testing.T) {
	db := newTestDB(t)
	s := NewTreeStore(db)
	seedTree(t, db, "a")
	seedTree(t, db, "c")

	existing, err := s.CheckExisting([]string{"a", "b", "c", "d"})
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "c"}, existing)

	none, err := s.CheckExisting(nil)
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestTreeDeleteCascadesWholeSubtree(t *testing.T) {
	db := newTestDB(t)
	trees := NewTreeStore(db)

	tree := seedTree(t, db, "tree-1")
	flower := seedFlower(t, db, "flower-1", tree.ID)
	fruit := seedFruit(t, db, "fruit-1", flower.ID, tree.ID)
	seedHarvest(t, db, "harvest-1", fruit.ID, 3, time.Date(2025, time.May, 1, 0, 0, 0, 0, time.UTC))

	require.NoError(t, trees.Delete("tree-1"))

	_, err := trees.Get("tree-1")
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = NewFlowerStore(db).Get("flower-1")
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = NewFruitStore(db).Get("fruit-1")
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = NewHarvestStore(db).Get("harvest-1")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestTreeDeleteNotFound(t *testing.T) {
	db := newTestDB(t)
	s := NewTreeStore(db)
	assert.ErrorIs(t, s.Delete("ghost"), ErrNotFound)
}

func TestTreeStatistics(t *testing.T) {
	db := newTestDB(t)
	s := NewTreeStore(db)

	for i, tc := range []struct {
		status string
		typ    string
		synced bool
	}{
		{model.TreeStatusActive, "mango", true},
		{model.TreeStatusActive, "mango", true},
		{model.TreeStatusActive, "guava", false},
		{model.TreeStatusInactive, "guava", true},
		{model.TreeStatusRemoved, "santol", false},
	} {
		require.NoError(t, db.Create(&model.Tree{
			ID: string(rune('a' + i)), Description: "d", Latitude: 1, Longitude: 1,
			Status: tc.status, Type: tc.typ, ImageURL: "u", IsSynced: tc.synced,
		}).Error)
	}

	stats, err := s.Statistics()
	require.NoError(t, err)
	assert.EqualValues(t, 5, stats.TotalTrees)
	assert.EqualValues(t, 3, stats.ActiveTrees)
	assert.EqualValues(t, 1, stats.InactiveTrees)
	assert.EqualValues(t, 1, stats.RemovedTrees)
	assert.EqualValues(t, 3, stats.SyncedTrees)
	assert.EqualValues(t, 3, stats.UniqueTypes)
	require.NotEmpty(t, stats.CommonTypes)
	assert.Equal(t, "guava", stats.CommonTypes[0].Type)
	assert.EqualValues(t, 2, stats.CommonTypes[0].Count)
}
