package postgres

import (
	"context"
	"errors"

	cardDatamodel "github.com/frahmantamala/opentna/internal/core/datamodel/card"
	roleDatamodel "github.com/frahmantamala/opentna/internal/core/datamodel/role"
	userDatamodel "github.com/frahmantamala/opentna/internal/core/datamodel/user"
	"github.com/frahmantamala/opentna/internal/user"
	"gorm.io/gorm"
)

type UserRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) user.RepositoryAPI {
	return &UserRepository{db: db}
}

func (r *UserRepository) WithTx(ctx context.Context, fn func(tx user.RepositoryAPI) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&UserRepository{db: tx})
	})
}

func (r *UserRepository) GetByID(ctx context.Context, id int64) (*userDatamodel.User, error) {
	var row userDatamodel.User
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &row, nil
}

func (r *UserRepository) GetByUsername(ctx context.Context, username string) (*userDatamodel.User, error) {
	var row userDatamodel.User
	if err := r.db.WithContext(ctx).Where("name = ?", username).First(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &row, nil
}

func (r *UserRepository) List(ctx context.Context, limit, offset int) ([]*userDatamodel.User, int64, error) {
	var total int64
	if err := r.db.WithContext(ctx).Model(&userDatamodel.User{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var rows []*userDatamodel.User
	err := r.db.WithContext(ctx).Order("id ASC").Limit(limit).Offset(offset).Find(&rows).Error
	return rows, total, err
}

func (r *UserRepository) Create(ctx context.Context, row *userDatamodel.User) error {
	return r.db.WithContext(ctx).Create(row).Error
}

func (r *UserRepository) Update(ctx context.Context, row *userDatamodel.User) error {
	return r.db.WithContext(ctx).Save(row).Error
}

func (r *UserRepository) GetRoles(ctx context.Context, userID int64) ([]*roleDatamodel.Role, error) {
	var rows []*roleDatamodel.Role
	err := r.db.WithContext(ctx).
		Select("roles.*").
		Joins("JOIN related_users_roles ur ON ur.role_id = roles.id").
		Where("ur.user_id = ?", userID).
		Order("roles.id ASC").
		Find(&rows).Error
	return rows, err
}

func (r *UserRepository) GetProximityCards(ctx context.Context, userID int64) ([]*cardDatamodel.ProximityCard, error) {
	var rows []*cardDatamodel.ProximityCard
	err := r.db.WithContext(ctx).
		Select("proximity_cards.*").
		Joins("JOIN related_users_proximity_cards uc ON uc.card_id = proximity_cards.id").
		Where("uc.user_id = ?", userID).
		Order("proximity_cards.id ASC").
		Find(&rows).Error
	return rows, err
}

func (r *UserRepository) GetRoleByID(ctx context.Context, id int64) (*roleDatamodel.Role, error) {
	var row roleDatamodel.Role
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &row, nil
}

func (r *UserRepository) GetProximityCardByID(ctx context.Context, id int64) (*cardDatamodel.ProximityCard, error) {
	var row cardDatamodel.ProximityCard
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &row, nil
}

func (r *UserRepository) GetProximityCardOwner(ctx context.Context, cardID int64) (*userDatamodel.User, error) {
	var row userDatamodel.User
	err := r.db.WithContext(ctx).
		Select("users.*").
		Joins("JOIN related_users_proximity_cards uc ON uc.user_id = users.id").
		Where("uc.card_id = ?", cardID).
		First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &row, nil
}

// ReplaceRoles deletes the current association rows and inserts roleIDs.
// Callers run it inside WithTx.
func (r *UserRepository) ReplaceRoles(ctx context.Context, userID int64, roleIDs []int64) error {
	db := r.db.WithContext(ctx)
	if err := db.Where("user_id = ?", userID).Delete(&userDatamodel.UserRole{}).Error; err != nil {
		return err
	}
	if len(roleIDs) == 0 {
		return nil
	}

	rows := make([]userDatamodel.UserRole, 0, len(roleIDs))
	for _, id := range roleIDs {
		rows = append(rows, userDatamodel.UserRole{UserID: userID, RoleID: id})
	}
	return db.Create(&rows).Error
}

func (r *UserRepository) ReplaceProximityCards(ctx context.Context, userID int64, cardIDs []int64) error {
	db := r.db.WithContext(ctx)
	if err := db.Where("user_id = ?", userID).Delete(&userDatamodel.UserProximityCard{}).Error; err != nil {
		return err
	}
	if len(cardIDs) == 0 {
		return nil
	}

	rows := make([]userDatamodel.UserProximityCard, 0, len(cardIDs))
	for _, id := range cardIDs {
		rows = append(rows, userDatamodel.UserProximityCard{UserID: userID, CardID: id})
	}
	return db.Create(&rows).Error
}
