package role

// CreateRoleDTO carries the caller-supplied fields of a new role.
type CreateRoleDTO struct {
	Name        string  `json:"name"`
	Description *string `json:"description"`
	Enabled     bool    `json:"enabled"`
}

// UpdateRoleDTO is a role snapshot. Name is accepted but never applied;
// a nil Description clears the stored one.
type UpdateRoleDTO struct {
	ID          int64   `json:"id"`
	Name        string  `json:"name"`
	Description *string `json:"description"`
	Enabled     bool    `json:"enabled"`
}
