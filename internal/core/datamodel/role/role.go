package role

import "time"

type Role struct {
	ID             int64      `gorm:"primaryKey"`
	Name           string     `gorm:"column:name;size:64;uniqueIndex;not null"`
	Description    *string    `gorm:"column:description;type:text"`
	Enabled        bool       `gorm:"column:is_active;not null"`
	CreatedAt      time.Time  `gorm:"column:created_at;autoCreateTime:false;not null"`
	LastModifiedAt *time.Time `gorm:"column:modified_at"`
}

func (Role) TableName() string {
	return "roles"
}
