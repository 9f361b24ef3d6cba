package user

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/frahmantamala/opentna/internal"
	"github.com/frahmantamala/opentna/internal/core/common/mutation"
	"github.com/frahmantamala/opentna/internal/core/common/validation"
	cardDatamodel "github.com/frahmantamala/opentna/internal/core/datamodel/card"
	roleDatamodel "github.com/frahmantamala/opentna/internal/core/datamodel/role"
	userDatamodel "github.com/frahmantamala/opentna/internal/core/datamodel/user"
	"github.com/frahmantamala/opentna/internal/storage"
	"github.com/frahmantamala/opentna/pkg/credential"
)

const (
	UsernameMinLength = 2
	UsernameMaxLength = 32
	PasswordMaxLength = 512
)

type RepositoryAPI interface {
	GetByID(ctx context.Context, id int64) (*userDatamodel.User, error)
	GetByUsername(ctx context.Context, username string) (*userDatamodel.User, error)
	List(ctx context.Context, limit, offset int) ([]*userDatamodel.User, int64, error)
	Create(ctx context.Context, user *userDatamodel.User) error
	Update(ctx context.Context, user *userDatamodel.User) error

	GetRoles(ctx context.Context, userID int64) ([]*roleDatamodel.Role, error)
	GetProximityCards(ctx context.Context, userID int64) ([]*cardDatamodel.ProximityCard, error)
	GetRoleByID(ctx context.Context, id int64) (*roleDatamodel.Role, error)
	GetProximityCardByID(ctx context.Context, id int64) (*cardDatamodel.ProximityCard, error)
	GetProximityCardOwner(ctx context.Context, cardID int64) (*userDatamodel.User, error)
	ReplaceRoles(ctx context.Context, userID int64, roleIDs []int64) error
	ReplaceProximityCards(ctx context.Context, userID int64, cardIDs []int64) error

	// WithTx runs fn inside one transaction; fn must only use tx.
	WithTx(ctx context.Context, fn func(tx RepositoryAPI) error) error
}

type Service struct {
	repo    RepositoryAPI
	encoder credential.Encoder
	logger  *slog.Logger
	now     func() time.Time
}

func NewService(repo RepositoryAPI, encoder credential.Encoder, logger *slog.Logger) *Service {
	if encoder == nil {
		encoder = credential.PlainEncoder{}
	}
	return &Service{
		repo:    repo,
		encoder: encoder,
		logger:  logger,
		now:     func() time.Time { return time.Now().UTC().Truncate(time.Microsecond) },
	}
}

func (s *Service) CreateUser(ctx context.Context, dto CreateUserDTO) (*User, error) {
	v := validation.NewValidator()
	v.Field("username", dto.Username).
		Required().
		MinLength(UsernameMinLength).
		MaxLength(UsernameMaxLength)
	v.Field("password", dto.Password).
		Required().
		Custom(encodedCredential("password"))
	if err := v.Err(); err != nil {
		return nil, err
	}

	raw, err := decodeCredential("password", dto.Password)
	if err != nil {
		return nil, err
	}
	stored, err := s.encoder.Encode(raw)
	if err != nil {
		return nil, internal.NewInternalError("failed to encode credential", err)
	}

	var created *User
	err = s.repo.WithTx(ctx, func(tx RepositoryAPI) error {
		roleIDs, err := resolveRoles(ctx, tx, dto.RoleIDs)
		if err != nil {
			return err
		}
		cardIDs, err := resolveProximityCards(ctx, tx, dto.ProximityCardIDs)
		if err != nil {
			return err
		}

		row := &userDatamodel.User{
			Username:           dto.Username,
			Password:           stored,
			MustChangePassword: dto.MustChangePassword,
			Enabled:            dto.Enabled,
			CreatedAt:          s.now(),
		}
		if err := tx.Create(ctx, row); err != nil {
			return usernameConflict(err, dto.Username)
		}
		if len(roleIDs) > 0 {
			if err := tx.ReplaceRoles(ctx, row.ID, roleIDs); err != nil {
				return fmt.Errorf("assign roles: %w", err)
			}
		}
		if len(cardIDs) > 0 {
			if err := tx.ReplaceProximityCards(ctx, row.ID, cardIDs); err != nil {
				return cardConflict(err, cardIDs)
			}
		}

		created, err = withAssociations(ctx, tx, row)
		return err
	})
	if err != nil {
		s.logFailure("failed to create user", err, "username", dto.Username)
		return nil, err
	}

	s.logger.Info("user created", "user_id", created.ID, "username", created.Username)
	return created, nil
}

func (s *Service) LoadUserByID(ctx context.Context, id int64) (*User, error) {
	row, err := mustLoad(ctx, s.repo, id)
	if err != nil {
		return nil, err
	}
	return withAssociations(ctx, s.repo, row)
}

func (s *Service) LoadUserByUsername(ctx context.Context, username string) (*User, error) {
	row, err := s.repo.GetByUsername(ctx, username)
	if err != nil {
		return nil, fmt.Errorf("load user %q: %w", username, err)
	}
	if row == nil {
		return nil, internal.NewNotFoundError(internal.EntityUser, username)
	}
	return withAssociations(ctx, s.repo, row)
}

// LoadProximityCardOwner returns the user holding the card, or nil when the
// card is unassigned.
func (s *Service) LoadProximityCardOwner(ctx context.Context, cardID int64) (*User, error) {
	row, err := s.repo.GetProximityCardOwner(ctx, cardID)
	if err != nil {
		return nil, fmt.Errorf("load owner of proximity card %d: %w", cardID, err)
	}
	if row == nil {
		return nil, nil
	}
	return FromDataModel(row), nil
}

func (s *Service) ListUsers(ctx context.Context, limit, offset int) ([]*User, int64, error) {
	rows, total, err := s.repo.List(ctx, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list users: %w", err)
	}

	users := make([]*User, 0, len(rows))
	for _, row := range rows {
		u, err := withAssociations(ctx, s.repo, row)
		if err != nil {
			return nil, 0, err
		}
		users = append(users, u)
	}
	return users, total, nil
}

// Update applies every present field of dto that differs from the stored
// user. A new username goes through the same availability check as Rename.
// Nothing is written when no field differs.
func (s *Service) Update(ctx context.Context, dto UpdateUserDTO) (*User, bool, error) {
	if dto.ID < 1 {
		return nil, false, internal.NewInvalidArgumentError("Invalid user ID")
	}

	v := validation.NewValidator()
	if dto.Username != nil {
		v.Field("username", *dto.Username).
			Required().
			MinLength(UsernameMinLength).
			MaxLength(UsernameMaxLength)
	}
	if dto.Password != nil {
		v.Field("password", *dto.Password).
			Required().
			Custom(encodedCredential("password"))
	}
	if err := v.Err(); err != nil {
		return nil, false, err
	}

	var raw *string
	if dto.Password != nil {
		decoded, err := decodeCredential("password", *dto.Password)
		if err != nil {
			return nil, false, err
		}
		raw = &decoded
	}

	var (
		result  *User
		changed bool
	)
	err := s.repo.WithTx(ctx, func(tx RepositoryAPI) error {
		row, err := mustLoad(ctx, tx, dto.ID)
		if err != nil {
			return err
		}

		var roleIDs, cardIDs []int64
		if dto.RoleIDs != nil {
			if roleIDs, err = resolveRoles(ctx, tx, *dto.RoleIDs); err != nil {
				return err
			}
		}
		if dto.ProximityCardIDs != nil {
			if cardIDs, err = resolveProximityCards(ctx, tx, *dto.ProximityCardIDs); err != nil {
				return err
			}
		}

		var tracker mutation.Tracker

		if dto.Username != nil && *dto.Username != row.Username {
			if err := checkUsernameAvailable(ctx, tx, row.ID, *dto.Username); err != nil {
				return err
			}
			mutation.Set(&tracker, "username", &row.Username, *dto.Username)
		}

		if raw != nil && !s.encoder.Matches(*raw, row.Password) {
			stored, err := s.encoder.Encode(*raw)
			if err != nil {
				return internal.NewInternalError("failed to encode credential", err)
			}
			row.Password = stored
			tracker.Mark("password")
		}

		mutation.SetIfPresent(&tracker, "must_change_password", &row.MustChangePassword, dto.MustChangePassword)
		mutation.SetIfPresent(&tracker, "enabled", &row.Enabled, dto.Enabled)

		if dto.RoleIDs != nil {
			current, err := tx.GetRoles(ctx, row.ID)
			if err != nil {
				return fmt.Errorf("load roles of user %d: %w", row.ID, err)
			}
			if !mutation.SameSet(roleIDs, roleIDsOf(current)) {
				if err := tx.ReplaceRoles(ctx, row.ID, roleIDs); err != nil {
					return fmt.Errorf("replace roles of user %d: %w", row.ID, err)
				}
				tracker.Mark("roles")
			}
		}

		if dto.ProximityCardIDs != nil {
			current, err := tx.GetProximityCards(ctx, row.ID)
			if err != nil {
				return fmt.Errorf("load proximity cards of user %d: %w", row.ID, err)
			}
			if !mutation.SameSet(cardIDs, cardIDsOf(current)) {
				if err := tx.ReplaceProximityCards(ctx, row.ID, cardIDs); err != nil {
					return cardConflict(err, cardIDs)
				}
				tracker.Mark("proximity_cards")
			}
		}

		if tracker.Changed() {
			now := s.now()
			row.LastModifiedAt = &now
			if err := tx.Update(ctx, row); err != nil {
				return usernameConflict(err, row.Username)
			}
			changed = true
			s.logger.Info("user updated", "user_id", row.ID, "fields", tracker.Fields())
		}

		result, err = withAssociations(ctx, tx, row)
		return err
	})
	if err != nil {
		s.logFailure("failed to update user", err, "user_id", dto.ID)
		return nil, false, err
	}
	return result, changed, nil
}

// Rename changes the username. Renaming to the current username is a no-op;
// a username held by another user fails with a DuplicateKey error before
// anything is written.
func (s *Service) Rename(ctx context.Context, id int64, username string) (*User, bool, error) {
	if id < 1 {
		return nil, false, internal.NewInvalidArgumentError("Invalid user ID")
	}
	if err := validateUsername(username); err != nil {
		return nil, false, err
	}

	var (
		result  *User
		changed bool
	)
	err := s.repo.WithTx(ctx, func(tx RepositoryAPI) error {
		row, err := mustLoad(ctx, tx, id)
		if err != nil {
			return err
		}

		if row.Username != username {
			if err := checkUsernameAvailable(ctx, tx, row.ID, username); err != nil {
				return err
			}
			row.Username = username
			now := s.now()
			row.LastModifiedAt = &now
			if err := tx.Update(ctx, row); err != nil {
				return usernameConflict(err, username)
			}
			changed = true
		}

		result, err = withAssociations(ctx, tx, row)
		return err
	})
	if err != nil {
		s.logFailure("failed to rename user", err, "user_id", id)
		return nil, false, err
	}
	if !changed {
		s.logger.Debug("rename is a no-op", "user_id", id)
	}
	return result, changed, nil
}

// ChangeCredential replaces the stored credential after verifying the
// claimed original. Both arguments are base64 encoded.
func (s *Service) ChangeCredential(ctx context.Context, id int64, encodedOriginal, encodedNew string) (*User, bool, error) {
	if id < 1 {
		return nil, false, internal.NewInvalidArgumentError("Invalid user ID")
	}

	v := validation.NewValidator()
	v.Field("original_password", encodedOriginal).
		Required().
		Custom(encodedCredential("original_password"))
	v.Field("current_password", encodedNew).
		Required().
		Custom(encodedCredential("current_password"))
	if err := v.Err(); err != nil {
		return nil, false, err
	}

	original, err := decodeCredential("original_password", encodedOriginal)
	if err != nil {
		return nil, false, err
	}
	next, err := decodeCredential("current_password", encodedNew)
	if err != nil {
		return nil, false, err
	}

	var (
		result  *User
		changed bool
	)
	err = s.repo.WithTx(ctx, func(tx RepositoryAPI) error {
		row, err := mustLoad(ctx, tx, id)
		if err != nil {
			return err
		}
		if !s.encoder.Matches(original, row.Password) {
			return internal.NewInvalidCredentialError("Invalid original password")
		}

		if !s.encoder.Matches(next, row.Password) {
			stored, err := s.encoder.Encode(next)
			if err != nil {
				return internal.NewInternalError("failed to encode credential", err)
			}
			row.Password = stored
			now := s.now()
			row.LastModifiedAt = &now
			if err := tx.Update(ctx, row); err != nil {
				return fmt.Errorf("update user %d: %w", row.ID, err)
			}
			changed = true
		}

		result, err = withAssociations(ctx, tx, row)
		return err
	})
	if err != nil {
		s.logFailure("failed to change credential", err, "user_id", id)
		return nil, false, err
	}
	return result, changed, nil
}

// UpdateProfile diffs the two profile flags against the stored user.
func (s *Service) UpdateProfile(ctx context.Context, id int64, req ProfileRequest) (*User, bool, error) {
	if id < 1 {
		return nil, false, internal.NewInvalidArgumentError("Invalid user ID")
	}

	var (
		result  *User
		changed bool
	)
	err := s.repo.WithTx(ctx, func(tx RepositoryAPI) error {
		row, err := mustLoad(ctx, tx, id)
		if err != nil {
			return err
		}

		var tracker mutation.Tracker
		mutation.Set(&tracker, "must_change_password", &row.MustChangePassword, req.MustChangePassword)
		mutation.Set(&tracker, "enabled", &row.Enabled, req.Enabled)

		if tracker.Changed() {
			now := s.now()
			row.LastModifiedAt = &now
			if err := tx.Update(ctx, row); err != nil {
				return fmt.Errorf("update user %d: %w", row.ID, err)
			}
			changed = true
		}

		result, err = withAssociations(ctx, tx, row)
		return err
	})
	if err != nil {
		s.logFailure("failed to update user profile", err, "user_id", id)
		return nil, false, err
	}
	return result, changed, nil
}

// ReplaceRoles swaps the user's whole role set. Every id must resolve or
// nothing changes.
func (s *Service) ReplaceRoles(ctx context.Context, id int64, roleIDs []int64) (*User, error) {
	return s.replaceAssociation(ctx, id, "roles", func(tx RepositoryAPI, row *userDatamodel.User) error {
		ids, err := resolveRoles(ctx, tx, roleIDs)
		if err != nil {
			return err
		}
		if err := tx.ReplaceRoles(ctx, row.ID, ids); err != nil {
			return fmt.Errorf("replace roles of user %d: %w", row.ID, err)
		}
		return nil
	})
}

// ReplaceProximityCards swaps the user's whole card set. A card held by
// another user fails with a DuplicateKey error.
func (s *Service) ReplaceProximityCards(ctx context.Context, id int64, cardIDs []int64) (*User, error) {
	return s.replaceAssociation(ctx, id, "proximity_cards", func(tx RepositoryAPI, row *userDatamodel.User) error {
		ids, err := resolveProximityCards(ctx, tx, cardIDs)
		if err != nil {
			return err
		}
		if err := tx.ReplaceProximityCards(ctx, row.ID, ids); err != nil {
			return cardConflict(err, ids)
		}
		return nil
	})
}

func (s *Service) replaceAssociation(ctx context.Context, id int64, field string, replace func(tx RepositoryAPI, row *userDatamodel.User) error) (*User, error) {
	if id < 1 {
		return nil, internal.NewInvalidArgumentError("Invalid user ID")
	}

	var result *User
	err := s.repo.WithTx(ctx, func(tx RepositoryAPI) error {
		row, err := mustLoad(ctx, tx, id)
		if err != nil {
			return err
		}
		if err := replace(tx, row); err != nil {
			return err
		}

		now := s.now()
		row.LastModifiedAt = &now
		if err := tx.Update(ctx, row); err != nil {
			return fmt.Errorf("update user %d: %w", row.ID, err)
		}

		result, err = withAssociations(ctx, tx, row)
		return err
	})
	if err != nil {
		s.logFailure("failed to replace user associations", err, "user_id", id, "association", field)
		return nil, err
	}

	s.logger.Info("user associations replaced", "user_id", id, "association", field)
	return result, nil
}

// ChangePassword stores raw (already decoded) as the new credential. It
// always writes, even when the value is unchanged.
func (s *Service) ChangePassword(ctx context.Context, id int64, raw string) (*User, error) {
	return s.set(ctx, id, "password", func(row *userDatamodel.User) error {
		stored, err := s.encoder.Encode(raw)
		if err != nil {
			return internal.NewInternalError("failed to encode credential", err)
		}
		row.Password = stored
		return nil
	})
}

// UpdateMustChangePassword always writes.
func (s *Service) UpdateMustChangePassword(ctx context.Context, id int64, state bool) (*User, error) {
	return s.set(ctx, id, "must_change_password", func(row *userDatamodel.User) error {
		row.MustChangePassword = state
		return nil
	})
}

// UpdateEnabled always writes.
func (s *Service) UpdateEnabled(ctx context.Context, id int64, state bool) (*User, error) {
	return s.set(ctx, id, "enabled", func(row *userDatamodel.User) error {
		row.Enabled = state
		return nil
	})
}

func (s *Service) set(ctx context.Context, id int64, field string, apply func(row *userDatamodel.User) error) (*User, error) {
	if id < 1 {
		return nil, internal.NewInvalidArgumentError("Invalid user ID")
	}

	var result *User
	err := s.repo.WithTx(ctx, func(tx RepositoryAPI) error {
		row, err := mustLoad(ctx, tx, id)
		if err != nil {
			return err
		}
		if err := apply(row); err != nil {
			return err
		}

		now := s.now()
		row.LastModifiedAt = &now
		if err := tx.Update(ctx, row); err != nil {
			return fmt.Errorf("update user %d: %w", row.ID, err)
		}

		result, err = withAssociations(ctx, tx, row)
		return err
	})
	if err != nil {
		s.logFailure("failed to set user field", err, "user_id", id, "field", field)
		return nil, err
	}
	return result, nil
}

// logFailure logs unexpected errors at error level and domain errors at debug.
func (s *Service) logFailure(msg string, err error, args ...any) {
	args = append(args, "error", err)
	if appErr, ok := internal.IsAppError(err); ok && appErr.Type != internal.ErrorTypeInternal {
		s.logger.Debug(msg, args...)
		return
	}
	s.logger.Error(msg, args...)
}

func mustLoad(ctx context.Context, repo RepositoryAPI, id int64) (*userDatamodel.User, error) {
	row, err := repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("load user %d: %w", id, err)
	}
	if row == nil {
		return nil, internal.NewNotFoundError(internal.EntityUser, id)
	}
	return row, nil
}

func withAssociations(ctx context.Context, repo RepositoryAPI, row *userDatamodel.User) (*User, error) {
	roles, err := repo.GetRoles(ctx, row.ID)
	if err != nil {
		return nil, fmt.Errorf("load roles of user %d: %w", row.ID, err)
	}
	cards, err := repo.GetProximityCards(ctx, row.ID)
	if err != nil {
		return nil, fmt.Errorf("load proximity cards of user %d: %w", row.ID, err)
	}
	return FromDataModelWithAssociations(row, roles, cards), nil
}

func checkUsernameAvailable(ctx context.Context, repo RepositoryAPI, selfID int64, username string) error {
	other, err := repo.GetByUsername(ctx, username)
	if err != nil {
		return fmt.Errorf("load user %q: %w", username, err)
	}
	if other != nil && other.ID != selfID {
		return internal.NewDuplicateKeyError(internal.EntityUser, "username", username)
	}
	return nil
}

// resolveRoles checks that every id names a stored role and returns the
// ids without duplicates, in first-seen order.
func resolveRoles(ctx context.Context, repo RepositoryAPI, ids []int64) ([]int64, error) {
	return resolve(ids, func(id int64) (bool, error) {
		row, err := repo.GetRoleByID(ctx, id)
		return row != nil, err
	}, internal.EntityRole)
}

func resolveProximityCards(ctx context.Context, repo RepositoryAPI, ids []int64) ([]int64, error) {
	return resolve(ids, func(id int64) (bool, error) {
		row, err := repo.GetProximityCardByID(ctx, id)
		return row != nil, err
	}, internal.EntityProximityCard)
}

func resolve(ids []int64, exists func(id int64) (bool, error), entity string) ([]int64, error) {
	seen := make(map[int64]struct{}, len(ids))
	out := make([]int64, 0, len(ids))
	for _, id := range ids {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}

		if id < 1 {
			return nil, internal.NewNotFoundError(entity, id)
		}
		ok, err := exists(id)
		if err != nil {
			return nil, fmt.Errorf("resolve %s %d: %w", entity, id, err)
		}
		if !ok {
			return nil, internal.NewNotFoundError(entity, id)
		}
		out = append(out, id)
	}
	return out, nil
}

func roleIDsOf(rows []*roleDatamodel.Role) []int64 {
	ids := make([]int64, 0, len(rows))
	for _, row := range rows {
		ids = append(ids, row.ID)
	}
	return ids
}

func cardIDsOf(rows []*cardDatamodel.ProximityCard) []int64 {
	ids := make([]int64, 0, len(rows))
	for _, row := range rows {
		ids = append(ids, row.ID)
	}
	return ids
}

func usernameConflict(err error, username string) error {
	if storage.IsUniqueViolation(err) {
		return internal.NewDuplicateKeyError(internal.EntityUser, "username", username).WithCause(err)
	}
	return fmt.Errorf("persist user %q: %w", username, err)
}

func cardConflict(err error, cardIDs []int64) error {
	if storage.IsUniqueViolation(err) {
		return internal.NewDuplicateKeyError(internal.EntityProximityCard, "card_id", cardIDs).WithCause(err)
	}
	return fmt.Errorf("replace proximity cards: %w", err)
}

func validateUsername(username string) error {
	v := validation.NewValidator()
	v.Field("username", username).
		Required().
		MinLength(UsernameMinLength).
		MaxLength(UsernameMaxLength)
	return v.Err()
}

// encodedCredential rejects values that are not valid base64 or that decode
// to an over-long credential.
func encodedCredential(field string) validation.ValidatorFunc {
	return func(value interface{}) *internal.AppError {
		encoded, _ := value.(string)
		if encoded == "" {
			return nil
		}
		raw, err := credential.Decode(encoded)
		if err != nil {
			return internal.NewValidationFieldError(field, fmt.Sprintf("%s must be base64 encoded", field), internal.ErrCodeInvalidEncoding)
		}
		if len(raw) > PasswordMaxLength {
			return internal.NewValidationFieldError(field, fmt.Sprintf("%s must not exceed %d characters", field, PasswordMaxLength), internal.ErrCodeTooLong)
		}
		return nil
	}
}

func decodeCredential(field, encoded string) (string, error) {
	raw, err := credential.Decode(encoded)
	if err != nil {
		if errors.Is(err, credential.ErrInvalidEncoding) {
			return "", internal.NewValidationFieldError(field, fmt.Sprintf("%s must be base64 encoded", field), internal.ErrCodeInvalidEncoding)
		}
		return "", err
	}
	return raw, nil
}
