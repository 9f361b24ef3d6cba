package card

import "time"

type ProximityCard struct {
	ID             int64      `gorm:"primaryKey"`
	SerialNo       string     `gorm:"column:serial_no;size:64;uniqueIndex;not null"`
	Description    *string    `gorm:"column:description;type:text"`
	Enabled        bool       `gorm:"column:is_active;not null"`
	CreatedAt      time.Time  `gorm:"column:created_at;autoCreateTime:false;not null"`
	LastModifiedAt *time.Time `gorm:"column:modified_at"`
}

func (ProximityCard) TableName() string {
	return "proximity_cards"
}
