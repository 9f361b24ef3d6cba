package user

import (
	"time"

	"github.com/frahmantamala/opentna/internal/card"
	cardDatamodel "github.com/frahmantamala/opentna/internal/core/datamodel/card"
	roleDatamodel "github.com/frahmantamala/opentna/internal/core/datamodel/role"
	userDatamodel "github.com/frahmantamala/opentna/internal/core/datamodel/user"
	"github.com/frahmantamala/opentna/internal/role"
)

type User struct {
	ID                 int64                 `json:"id"`
	Username           string                `json:"username"`
	Password           string                `json:"-"`
	MustChangePassword bool                  `json:"must_change_password"`
	Enabled            bool                  `json:"enabled"`
	Roles              []*role.Role          `json:"roles"`
	ProximityCards     []*card.ProximityCard `json:"proximity_cards"`
	CreatedAt          time.Time             `json:"created_at"`
	LastModifiedAt     *time.Time            `json:"last_modified_at,omitempty"`
}

// RoleIDs returns the identities of the user's roles.
func (u *User) RoleIDs() []int64 {
	ids := make([]int64, 0, len(u.Roles))
	for _, r := range u.Roles {
		ids = append(ids, r.ID)
	}
	return ids
}

// ProximityCardIDs returns the identities of the user's cards.
func (u *User) ProximityCardIDs() []int64 {
	ids := make([]int64, 0, len(u.ProximityCards))
	for _, c := range u.ProximityCards {
		ids = append(ids, c.ID)
	}
	return ids
}

func ToDataModel(u *User) *userDatamodel.User {
	return &userDatamodel.User{
		ID:                 u.ID,
		Username:           u.Username,
		Password:           u.Password,
		MustChangePassword: u.MustChangePassword,
		Enabled:            u.Enabled,
		CreatedAt:          u.CreatedAt,
		LastModifiedAt:     u.LastModifiedAt,
	}
}

func FromDataModel(u *userDatamodel.User) *User {
	return &User{
		ID:                 u.ID,
		Username:           u.Username,
		Password:           u.Password,
		MustChangePassword: u.MustChangePassword,
		Enabled:            u.Enabled,
		Roles:              []*role.Role{},
		ProximityCards:     []*card.ProximityCard{},
		CreatedAt:          u.CreatedAt,
		LastModifiedAt:     u.LastModifiedAt,
	}
}

func FromDataModelWithAssociations(u *userDatamodel.User, roles []*roleDatamodel.Role, cards []*cardDatamodel.ProximityCard) *User {
	domainUser := FromDataModel(u)
	domainUser.Roles = role.FromDataModels(roles)
	domainUser.ProximityCards = card.FromDataModels(cards)
	return domainUser
}
