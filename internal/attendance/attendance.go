package attendance

import (
	"time"

	attendanceDatamodel "github.com/frahmantamala/opentna/internal/core/datamodel/attendance"
)

// Attendance is one recorded swipe. Only the user reference can change
// after creation.
type Attendance struct {
	ID              int64     `json:"id"`
	UserID          *int64    `json:"user_id"`
	ProximityCardID int64     `json:"proximity_card_id"`
	LoggedAt        time.Time `json:"logged_at"`
	CreatedAt       time.Time `json:"created_at"`
}

func (a *Attendance) HasUser() bool {
	return a.UserID != nil
}

func ToDataModel(a *Attendance) *attendanceDatamodel.Attendance {
	return &attendanceDatamodel.Attendance{
		ID:        a.ID,
		UserID:    a.UserID,
		CardID:    a.ProximityCardID,
		LoggedAt:  a.LoggedAt,
		CreatedAt: a.CreatedAt,
	}
}

func FromDataModel(a *attendanceDatamodel.Attendance) *Attendance {
	return &Attendance{
		ID:              a.ID,
		UserID:          a.UserID,
		ProximityCardID: a.CardID,
		LoggedAt:        a.LoggedAt.UTC(),
		CreatedAt:       a.CreatedAt.UTC(),
	}
}

func FromDataModels(rows []*attendanceDatamodel.Attendance) []*Attendance {
	records := make([]*Attendance, 0, len(rows))
	for _, row := range rows {
		records = append(records, FromDataModel(row))
	}
	return records
}
