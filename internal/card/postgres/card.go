package postgres

import (
	"context"
	"errors"

	"github.com/frahmantamala/opentna/internal/card"
	cardDatamodel "github.com/frahmantamala/opentna/internal/core/datamodel/card"
	"gorm.io/gorm"
)

type CardRepository struct {
	db *gorm.DB
}

func NewCardRepository(db *gorm.DB) card.RepositoryAPI {
	return &CardRepository{db: db}
}

func (r *CardRepository) GetByID(ctx context.Context, id int64) (*cardDatamodel.ProximityCard, error) {
	return r.first(ctx, "id = ?", id)
}

func (r *CardRepository) GetBySerialNo(ctx context.Context, serialNo string) (*cardDatamodel.ProximityCard, error) {
	return r.first(ctx, "serial_no = ?", serialNo)
}

func (r *CardRepository) first(ctx context.Context, query string, arg interface{}) (*cardDatamodel.ProximityCard, error) {
	var row cardDatamodel.ProximityCard
	err := r.db.WithContext(ctx).Where(query, arg).First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &row, nil
}

func (r *CardRepository) List(ctx context.Context, limit, offset int) ([]*cardDatamodel.ProximityCard, int64, error) {
	var total int64
	if err := r.db.WithContext(ctx).Model(&cardDatamodel.ProximityCard{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var rows []*cardDatamodel.ProximityCard
	err := r.db.WithContext(ctx).Order("id ASC").Limit(limit).Offset(offset).Find(&rows).Error
	return rows, total, err
}

func (r *CardRepository) Create(ctx context.Context, row *cardDatamodel.ProximityCard) error {
	return r.db.WithContext(ctx).Create(row).Error
}

func (r *CardRepository) Update(ctx context.Context, row *cardDatamodel.ProximityCard) error {
	return r.db.WithContext(ctx).Save(row).Error
}
