package model

import "time"

// Fruit belongs to a flower and, denormalized, to a tree. The tree_id is
// stored as sent by the client and is not checked against the flower's
// own tree_id; both references cascade on delete.
//
// WrapptedAt keeps the misspelled column name the mobile client has
// always sent; it is the wire contract, do not "fix" it.
type Fruit struct {
	ID         string     `json:"id" gorm:"primarykey;type:varchar(255)"`
	FlowerID   string     `json:"flower_id" gorm:"type:varchar(255);not null;index"`
	TreeID     string     `json:"tree_id" gorm:"type:varchar(255);not null;index"`
	Quantity   int        `json:"quantity" gorm:"not null"`
	WrapptedAt *time.Time `json:"wrappted_at"`
	ImageURL   string     `json:"image_url" gorm:"type:text;not null"`
	CreatedAt  time.Time  `json:"created_at" gorm:"index"`
	UpdatedAt  time.Time  `json:"updated_at"`

	Flower *Flower `json:"flower,omitempty" gorm:"foreignKey:FlowerID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
	Tree   *Tree   `json:"tree,omitempty" gorm:"foreignKey:TreeID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}
