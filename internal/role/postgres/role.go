package postgres

import (
	"context"
	"errors"

	roleDatamodel "github.com/frahmantamala/opentna/internal/core/datamodel/role"
	"github.com/frahmantamala/opentna/internal/role"
	"gorm.io/gorm"
)

type RoleRepository struct {
	db *gorm.DB
}

func NewRoleRepository(db *gorm.DB) role.RepositoryAPI {
	return &RoleRepository{db: db}
}

func (r *RoleRepository) GetByID(ctx context.Context, id int64) (*roleDatamodel.Role, error) {
	var row roleDatamodel.Role
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &row, nil
}

func (r *RoleRepository) GetByName(ctx context.Context, name string) (*roleDatamodel.Role, error) {
	var row roleDatamodel.Role
	err := r.db.WithContext(ctx).Where("name = ?", name).First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &row, nil
}

func (r *RoleRepository) List(ctx context.Context, limit, offset int) ([]*roleDatamodel.Role, int64, error) {
	var total int64
	if err := r.db.WithContext(ctx).Model(&roleDatamodel.Role{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var rows []*roleDatamodel.Role
	err := r.db.WithContext(ctx).Order("id ASC").Limit(limit).Offset(offset).Find(&rows).Error
	return rows, total, err
}

func (r *RoleRepository) Create(ctx context.Context, row *roleDatamodel.Role) error {
	return r.db.WithContext(ctx).Create(row).Error
}

func (r *RoleRepository) Update(ctx context.Context, row *roleDatamodel.Role) error {
	return r.db.WithContext(ctx).Save(row).Error
}
