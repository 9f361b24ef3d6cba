package card

type CreateCardDTO struct {
	SerialNo    string  `json:"serial_no"`
	Description *string `json:"description"`
	Enabled     bool    `json:"enabled"`
}

// UpdateCardDTO is a card snapshot; SerialNo is ignored on update.
type UpdateCardDTO struct {
	ID          int64   `json:"id"`
	SerialNo    string  `json:"serial_no"`
	Description *string `json:"description"`
	Enabled     bool    `json:"enabled"`
}
