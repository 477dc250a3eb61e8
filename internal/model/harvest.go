package model

import "time"

// Harvest is an append-mostly yield record for a single fruit. It is the
// leaf of the hierarchy; nothing cascades from it.
type Harvest struct {
	ID           string    `json:"id" gorm:"primarykey;type:varchar(255)"`
	FruitID      string    `json:"fruit_id" gorm:"type:varchar(255);not null;index"`
	RipeQuantity int       `json:"ripe_quantity" gorm:"not null"`
	HarvestDate  time.Time `json:"harvest_date" gorm:"not null;index"`
	CreatedAt    time.Time `json:"created_at" gorm:"index"`
	UpdatedAt    time.Time `json:"updated_at"`

	Fruit *Fruit `json:"fruit,omitempty" gorm:"foreignKey:FruitID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}
