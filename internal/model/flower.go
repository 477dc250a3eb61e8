package model

import "time"

// Flower belongs to exactly one tree. Deleting the tree deletes the
// flower and everything beneath it (ON DELETE CASCADE).
type Flower struct {
	ID        string     `json:"id" gorm:"primarykey;type:varchar(255)"`
	TreeID    string     `json:"tree_id" gorm:"type:varchar(255);not null;index"`
	Quantity  int        `json:"quantity" gorm:"not null"`
	WrappedAt *time.Time `json:"wrapped_at"`
	ImageURL  string     `json:"image_url" gorm:"type:text;not null"`
	CreatedAt time.Time  `json:"created_at" gorm:"index"`
	UpdatedAt time.Time  `json:"updated_at"`

	Tree *Tree `json:"tree,omitempty" gorm:"foreignKey:TreeID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}
