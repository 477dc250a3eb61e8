package model

import "time"

// Tree statuses are set by the caller; the server never transitions them.
const (
	TreeStatusActive   = "active"
	TreeStatusInactive = "inactive"
	TreeStatusRemoved  = "removed"
)

// Tree is the root of the orchard hierarchy. Identifiers are generated by
// the mobile client (UUID strings), not by the server, so every table in
// the hierarchy keys on a string primary key.
type Tree struct {
	ID          string    `json:"id" gorm:"primarykey;type:varchar(255)"`
	Description string    `json:"description" gorm:"type:text;not null"`
	Latitude    float64   `json:"latitude" gorm:"not null;index:idx_trees_position,priority:1"`
	Longitude   float64   `json:"longitude" gorm:"not null;index:idx_trees_position,priority:2"`
	Status      string    `json:"status" gorm:"type:varchar(20);not null;default:'active';index"`
	IsSynced    bool      `json:"is_synced" gorm:"not null;default:false"`
	Type        string    `json:"type" gorm:"type:varchar(100);not null;index"`
	ImageURL    string    `json:"image_url" gorm:"type:text;not null"`
	CreatedAt   time.Time `json:"created_at" gorm:"index"`
	UpdatedAt   time.Time `json:"updated_at"`
}
