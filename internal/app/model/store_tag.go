package model

// StoreTag is one tag of one store. Tag reports group on Name.
type StoreTag struct {
	ID      uint   `gorm:"primarykey" json:"-"`
	StoreID uint   `gorm:"not null;index" json:"-"`
	Name    string `gorm:"type:varchar(50);not null;index" json:"name"`
}

func (StoreTag) TableName() string {
	return "store_tags"
}
