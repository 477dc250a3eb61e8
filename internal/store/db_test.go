package store

import (
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"orchard-service/internal/model"
)

// newTestDB opens an in-memory sqlite database with foreign keys
// enabled so cascade deletes behave like the production schema. A single
// connection keeps the pool from opening a second, empty :memory: db.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:?_pragma=foreign_keys(1)"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(
		&model.Tree{},
		&model.Flower{},
		&model.Fruit{},
		&model.Harvest{},
	))
	return db
}

func seedTree(t *testing.T, db *gorm.DB, id string) *model.Tree {
	t.Helper()
	tree := &model.Tree{
		ID:          id,
		Description: "seeded tree " + id,
		Latitude:    14.5995,
		Longitude:   120.9842,
		Status:      model.TreeStatusActive,
		Type:        "mango",
		ImageURL:    "https://img.example.com/" + id + ".jpg",
	}
	require.NoError(t, db.Create(tree).Error)
	return tree
}

func seedFlower(t *testing.T, db *gorm.DB, id, treeID string) *model.Flower {
	t.Helper()
	flower := &model.Flower{
		ID:       id,
		TreeID:   treeID,
		Quantity: 3,
		ImageURL: "https://img.example.com/" + id + ".jpg",
	}
	require.NoError(t, db.Create(flower).Error)
	return flower
}

func seedFruit(t *testing.T, db *gorm.DB, id, flowerID, treeID string) *model.Fruit {
	t.Helper()
	wrappted := time.Date(2025, time.March, 1, 8, 0, 0, 0, time.UTC)
	fruit := &model.Fruit{
		ID:         id,
		FlowerID:   flowerID,
		TreeID:     treeID,
		Quantity:   5,
		WrapptedAt: &wrappted,
		ImageURL:   "https://img.example.com/" + id + ".jpg",
	}
	require.NoError(t, db.Create(fruit).Error)
	return fruit
}

func seedHarvest(t *testing.T, db *gorm.DB, id, fruitID string, qty int, date time.Time) *model.Harvest {
	t.Helper()
	harvest := &model.Harvest{
		ID:           id,
		FruitID:      fruitID,
		RipeQuantity: qty,
		HarvestDate:  date,
	}
	require.NoError(t, db.Create(harvest).Error)
	return harvest
}

func strPtr(s string) *string { return &s }

func intPtr(n int) *int { return &n }

func floatPtr(f float64) *float64 { return &f }

func boolPtr(b bool) *bool { return &b }

func datePtr(y int, m time.Month, d int) *time.Time {
	t := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	return &t
}
