package role

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/frahmantamala/opentna/internal"
	"github.com/frahmantamala/opentna/internal/core/common/mutation"
	"github.com/frahmantamala/opentna/internal/core/common/validation"
	roleDatamodel "github.com/frahmantamala/opentna/internal/core/datamodel/role"
	"github.com/frahmantamala/opentna/internal/storage"
)

const (
	NameMinLength = 2
	NameMaxLength = 64
)

type RepositoryAPI interface {
	GetByID(ctx context.Context, id int64) (*roleDatamodel.Role, error)
	GetByName(ctx context.Context, name string) (*roleDatamodel.Role, error)
	List(ctx context.Context, limit, offset int) ([]*roleDatamodel.Role, int64, error)
	Create(ctx context.Context, role *roleDatamodel.Role) error
	Update(ctx context.Context, role *roleDatamodel.Role) error
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

func (s *Service) CreateRole(ctx context.Context, dto CreateRoleDTO) (*Role, error) {
	if err := validateName(dto.Name); err != nil {
		return nil, err
	}

	entity := &roleDatamodel.Role{
		Name:        dto.Name,
		Description: dto.Description,
		Enabled:     dto.Enabled,
		CreatedAt:   s.now(),
	}
	if err := s.repo.Create(ctx, entity); err != nil {
		if storage.IsUniqueViolation(err) {
			return nil, internal.NewDuplicateKeyError(internal.EntityRole, "name", dto.Name).WithCause(err)
		}
		s.logger.Error("failed to create role", "name", dto.Name, "error", err)
		return nil, fmt.Errorf("create role: %w", err)
	}

	s.logger.Info("role created", "role_id", entity.ID, "name", entity.Name)
	return FromDataModel(entity), nil
}

func (s *Service) LoadRoleByID(ctx context.Context, id int64) (*Role, error) {
	row, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("load role %d: %w", id, err)
	}
	if row == nil {
		return nil, internal.NewNotFoundError(internal.EntityRole, id)
	}
	return FromDataModel(row), nil
}

func (s *Service) LoadRoleByName(ctx context.Context, name string) (*Role, error) {
	row, err := s.repo.GetByName(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("load role %q: %w", name, err)
	}
	if row == nil {
		return nil, internal.NewNotFoundError(internal.EntityRole, name)
	}
	return FromDataModel(row), nil
}

// ListRoles returns one page of roles ordered by id together with the
// total number of roles.
func (s *Service) ListRoles(ctx context.Context, limit, offset int) ([]*Role, int64, error) {
	rows, total, err := s.repo.List(ctx, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list roles: %w", err)
	}
	return FromDataModels(rows), total, nil
}

// Update applies the description and enabled flag of dto to the stored
// role. The name is never changed here. The returned flag is false when
// nothing differed, in which case nothing was written.
func (s *Service) Update(ctx context.Context, dto UpdateRoleDTO) (*Role, bool, error) {
	if dto.ID < 1 {
		return nil, false, internal.NewInvalidArgumentError("Invalid role ID")
	}

	row, err := s.repo.GetByID(ctx, dto.ID)
	if err != nil {
		return nil, false, fmt.Errorf("load role %d: %w", dto.ID, err)
	}
	if row == nil {
		return nil, false, internal.NewNotFoundError(internal.EntityRole, dto.ID)
	}

	var tracker mutation.Tracker
	mutation.SetNullable(&tracker, "description", &row.Description, dto.Description)
	mutation.Set(&tracker, "enabled", &row.Enabled, dto.Enabled)

	if !tracker.Changed() {
		s.logger.Debug("role update is a no-op", "role_id", row.ID)
		return FromDataModel(row), false, nil
	}

	now := s.now()
	row.LastModifiedAt = &now
	if err := s.repo.Update(ctx, row); err != nil {
		s.logger.Error("failed to update role", "role_id", row.ID, "error", err)
		return nil, false, fmt.Errorf("update role %d: %w", row.ID, err)
	}

	s.logger.Info("role updated", "role_id", row.ID, "fields", tracker.Fields())
	return FromDataModel(row), true, nil
}

func validateName(name string) error {
	v := validation.NewValidator()
	v.Field("name", name).
		Required().
		MinLength(NameMinLength).
		MaxLength(NameMaxLength)
	return v.Err()
}
