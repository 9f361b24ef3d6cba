package user

// CreateUserDTO carries a new user. Password is base64 encoded.
type CreateUserDTO struct {
	Username           string  `json:"username"`
	Password           string  `json:"password"`
	MustChangePassword bool    `json:"must_change_password"`
	Enabled            bool    `json:"enabled"`
	RoleIDs            []int64 `json:"role_ids"`
	ProximityCardIDs   []int64 `json:"proximity_card_ids"`
}

// UpdateUserDTO is a partial update; nil fields are not part of the patch.
// Password is base64 encoded.
type UpdateUserDTO struct {
	ID                 int64    `json:"-"`
	Username           *string  `json:"username"`
	Password           *string  `json:"password"`
	MustChangePassword *bool    `json:"must_change_password"`
	Enabled            *bool    `json:"enabled"`
	RoleIDs            *[]int64 `json:"role_ids"`
	ProximityCardIDs   *[]int64 `json:"proximity_card_ids"`
}

type UsernameRequest struct {
	Username string `json:"username"`
}

// PasswordRequest carries both credentials base64 encoded.
type PasswordRequest struct {
	OriginalPassword string `json:"original_password"`
	CurrentPassword  string `json:"current_password"`
}

type ProfileRequest struct {
	MustChangePassword bool `json:"must_change_password"`
	Enabled            bool `json:"enabled"`
}
