package attendance

import "time"

type CreateAttendanceDTO struct {
	UserID          *int64    `json:"user_id"`
	ProximityCardID int64     `json:"proximity_card_id"`
	LoggedAt        time.Time `json:"logged_at"`
}

// SwipeRequest is what a card reader posts. A missing LoggedAt means the
// swipe happened when the request arrived.
type SwipeRequest struct {
	SerialNo string     `json:"serial_no"`
	LoggedAt *time.Time `json:"logged_at"`
}
