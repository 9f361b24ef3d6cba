package attendance

import "time"

// Attendance rows are written through sqlx; the gorm tags drive AutoMigrate
// on drivers without SQL migrations.
type Attendance struct {
	ID        int64     `gorm:"primaryKey" db:"id"`
	UserID    *int64    `gorm:"column:user_id;uniqueIndex:uq_attendance_user_card_logged" db:"user_id"`
	CardID    int64     `gorm:"column:card_id;not null;index;uniqueIndex:uq_attendance_user_card_logged" db:"card_id"`
	LoggedAt  time.Time `gorm:"column:logged_at;not null;uniqueIndex:uq_attendance_user_card_logged" db:"logged_at"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime:false;not null" db:"created_at"`
}

func (Attendance) TableName() string {
	return "attendance_records"
}
