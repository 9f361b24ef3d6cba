package card

import (
	"time"

	cardDatamodel "github.com/frahmantamala/opentna/internal/core/datamodel/card"
)

type ProximityCard struct {
	ID             int64      `json:"id"`
	SerialNo       string     `json:"serial_no"`
	Description    *string    `json:"description"`
	Enabled        bool       `json:"enabled"`
	CreatedAt      time.Time  `json:"created_at"`
	LastModifiedAt *time.Time `json:"last_modified_at,omitempty"`
}

func ToDataModel(c *ProximityCard) *cardDatamodel.ProximityCard {
	return &cardDatamodel.ProximityCard{
		ID:             c.ID,
		SerialNo:       c.SerialNo,
		Description:    c.Description,
		Enabled:        c.Enabled,
		CreatedAt:      c.CreatedAt,
		LastModifiedAt: c.LastModifiedAt,
	}
}

func FromDataModel(c *cardDatamodel.ProximityCard) *ProximityCard {
	return &ProximityCard{
		ID:             c.ID,
		SerialNo:       c.SerialNo,
		Description:    c.Description,
		Enabled:        c.Enabled,
		CreatedAt:      c.CreatedAt,
		LastModifiedAt: c.LastModifiedAt,
	}
}

func FromDataModels(rows []*cardDatamodel.ProximityCard) []*ProximityCard {
	cards := make([]*ProximityCard, 0, len(rows))
	for _, row := range rows {
		cards = append(cards, FromDataModel(row))
	}
	return cards
}
