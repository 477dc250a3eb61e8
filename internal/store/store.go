// Package store holds the entity ledgers for the orchard hierarchy
// (Tree -> Flower -> Fruit -> Harvest), the bulk sync coordinators and
// the harvest aggregation queries. Each store is constructed with its
// *gorm.DB; nothing in this package reaches for global state.
//
// Parent-exists checks followed by an insert are not atomic against a
// concurrent delete of that parent: the window is narrow and accepted,
// and the foreign key constraint turns a lost race into a storage error
// rather than an orphaned row.
package store

import "gorm.io/gorm"

// PageMeta mirrors the pagination block the mobile client already parses.
type PageMeta struct {
	CurrentPage int   `json:"current_page"`
	PerPage     int   `json:"per_page"`
	Total       int64 `json:"total"`
	LastPage    int   `json:"last_page"`
}

const defaultPerPage = 20

func normalizePage(page, perPage int) (int, int) {
	if page < 1 {
		page = 1
	}
	if perPage < 1 {
		perPage = defaultPerPage
	}
	return page, perPage
}

func pageMeta(page, perPage int, total int64) PageMeta {
	last := int((total + int64(perPage) - 1) / int64(perPage))
	if last < 1 {
		last = 1
	}
	return PageMeta{
		CurrentPage: page,
		PerPage:     perPage,
		Total:       total,
		LastPage:    last,
	}
}

// recordExists reports whether a row with the given id exists for the
// model. Used for duplicate-id and parent-reference checks.
func recordExists(db *gorm.DB, m interface{}, id string) (bool, error) {
	var count int64
	if err := db.Model(m).Where("id = ?", id).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}
