package role

import (
	"time"

	roleDatamodel "github.com/frahmantamala/opentna/internal/core/datamodel/role"
)

type Role struct {
	ID             int64      `json:"id"`
	Name           string     `json:"name"`
	Description    *string    `json:"description"`
	Enabled        bool       `json:"enabled"`
	CreatedAt      time.Time  `json:"created_at"`
	LastModifiedAt *time.Time `json:"last_modified_at,omitempty"`
}

func ToDataModel(r *Role) *roleDatamodel.Role {
	return &roleDatamodel.Role{
		ID:             r.ID,
		Name:           r.Name,
		Description:    r.Description,
		Enabled:        r.Enabled,
		CreatedAt:      r.CreatedAt,
		LastModifiedAt: r.LastModifiedAt,
	}
}

func FromDataModel(r *roleDatamodel.Role) *Role {
	return &Role{
		ID:             r.ID,
		Name:           r.Name,
		Description:    r.Description,
		Enabled:        r.Enabled,
		CreatedAt:      r.CreatedAt,
		LastModifiedAt: r.LastModifiedAt,
	}
}

func FromDataModels(rows []*roleDatamodel.Role) []*Role {
	roles := make([]*Role, 0, len(rows))
	for _, row := range rows {
		roles = append(roles, FromDataModel(row))
	}
	return roles
}
