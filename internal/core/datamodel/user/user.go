package user

import "time"

type User struct {
	ID                 int64      `gorm:"primaryKey"`
	Username           string     `gorm:"column:name;size:32;uniqueIndex;not null"`
	Password           string     `gorm:"column:secret;size:512;not null"`
	MustChangePassword bool       `gorm:"column:must_change_secret;not null"`
	Enabled            bool       `gorm:"column:is_active;not null"`
	CreatedAt          time.Time  `gorm:"column:created_at;autoCreateTime:false;not null"`
	LastModifiedAt     *time.Time `gorm:"column:modified_at"`
}

func (User) TableName() string {
	return "users"
}

// UserRole is a row of the user to role association.
type UserRole struct {
	UserID int64 `gorm:"column:user_id;primaryKey;autoIncrement:false"`
	RoleID int64 `gorm:"column:role_id;primaryKey;autoIncrement:false"`
}

func (UserRole) TableName() string {
	return "related_users_roles"
}

// UserProximityCard is a row of the user to card association. A card
// belongs to at most one user.
type UserProximityCard struct {
	UserID int64 `gorm:"column:user_id;not null;index"`
	CardID int64 `gorm:"column:card_id;primaryKey;autoIncrement:false"`
}

func (UserProximityCard) TableName() string {
	return "related_users_proximity_cards"
}
