package card

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/frahmantamala/opentna/internal"
	"github.com/frahmantamala/opentna/internal/core/common/mutation"
	"github.com/frahmantamala/opentna/internal/core/common/validation"
	cardDatamodel "github.com/frahmantamala/opentna/internal/core/datamodel/card"
	"github.com/frahmantamala/opentna/internal/storage"
)

const (
	SerialNoMinLength = 1
	SerialNoMaxLength = 64
)

type RepositoryAPI interface {
	GetByID(ctx context.Context, id int64) (*cardDatamodel.ProximityCard, error)
	GetBySerialNo(ctx context.Context, serialNo string) (*cardDatamodel.ProximityCard, error)
	List(ctx context.Context, limit, offset int) ([]*cardDatamodel.ProximityCard, int64, error)
	Create(ctx context.Context, card *cardDatamodel.ProximityCard) error
	Update(ctx context.Context, card *cardDatamodel.ProximityCard) error
}

type Service struct {
	repo   RepositoryAPI
	logger *slog.Logger
	now    func() time.Time
}

func NewService(repo RepositoryAPI, logger *slog.Logger) *Service {
	return &Service{
		repo:   repo,
		logger: logger,
		now:    func() time.Time { return time.Now().UTC().Truncate(time.Microsecond) },
	}
}

func (s *Service) CreateProximityCard(ctx context.Context, dto CreateCardDTO) (*ProximityCard, error) {
	v := validation.NewValidator()
	v.Field("serial_no", dto.SerialNo).
		Required().
		MinLength(SerialNoMinLength).
		MaxLength(SerialNoMaxLength)
	if err := v.Err(); err != nil {
		return nil, err
	}

	entity := &cardDatamodel.ProximityCard{
		SerialNo:    dto.SerialNo,
		Description: dto.Description,
		Enabled:     dto.Enabled,
		CreatedAt:   s.now(),
	}
	if err := s.repo.Create(ctx, entity); err != nil {
		if storage.IsUniqueViolation(err) {
			return nil, internal.NewDuplicateKeyError(internal.EntityProximityCard, "serial_no", dto.SerialNo).WithCause(err)
		}
		s.logger.Error("failed to create proximity card", "serial_no", dto.SerialNo, "error", err)
		return nil, fmt.Errorf("create proximity card: %w", err)
	}

	s.logger.Info("proximity card created", "card_id", entity.ID, "serial_no", entity.SerialNo)
	return FromDataModel(entity), nil
}

func (s *Service) LoadProximityCardByID(ctx context.Context, id int64) (*ProximityCard, error) {
	row, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("load proximity card %d: %w", id, err)
	}
	if row == nil {
		return nil, internal.NewNotFoundError(internal.EntityProximityCard, id)
	}
	return FromDataModel(row), nil
}

func (s *Service) LoadProximityCardBySerialNo(ctx context.Context, serialNo string) (*ProximityCard, error) {
	row, err := s.repo.GetBySerialNo(ctx, serialNo)
	if err != nil {
		return nil, fmt.Errorf("load proximity card %q: %w", serialNo, err)
	}
	if row == nil {
		return nil, internal.NewNotFoundError(internal.EntityProximityCard, serialNo)
	}
	return FromDataModel(row), nil
}

func (s *Service) ListProximityCards(ctx context.Context, limit, offset int) ([]*ProximityCard, int64, error) {
	rows, total, err := s.repo.List(ctx, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list proximity cards: %w", err)
	}
	return FromDataModels(rows), total, nil
}

// Update applies description and enabled; the serial number is immutable
// through this path.
func (s *Service) Update(ctx context.Context, dto UpdateCardDTO) (*ProximityCard, bool, error) {
	if dto.ID < 1 {
		return nil, false, internal.NewInvalidArgumentError("Invalid proximity card ID")
	}

	row, err := s.repo.GetByID(ctx, dto.ID)
	if err != nil {
		return nil, false, fmt.Errorf("load proximity card %d: %w", dto.ID, err)
	}
	if row == nil {
		return nil, false, internal.NewNotFoundError(internal.EntityProximityCard, dto.ID)
	}

	var tracker mutation.Tracker
	mutation.SetNullable(&tracker, "description", &row.Description, dto.Description)
	mutation.Set(&tracker, "enabled", &row.Enabled, dto.Enabled)

	if !tracker.Changed() {
		s.logger.Debug("proximity card update is a no-op", "card_id", row.ID)
		return FromDataModel(row), false, nil
	}

	now := s.now()
	row.LastModifiedAt = &now
	if err := s.repo.Update(ctx, row); err != nil {
		s.logger.Error("failed to update proximity card", "card_id", row.ID, "error", err)
		return nil, false, fmt.Errorf("update proximity card %d: %w", row.ID, err)
	}

	s.logger.Info("proximity card updated", "card_id", row.ID, "fields", tracker.Fields())
	return FromDataModel(row), true, nil
}
