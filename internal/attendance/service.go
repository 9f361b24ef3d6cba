package attendance

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/frahmantamala/opentna/internal"
	"github.com/frahmantamala/opentna/internal/card"
	"github.com/frahmantamala/opentna/internal/core/common/validation"
	attendanceDatamodel "github.com/frahmantamala/opentna/internal/core/datamodel/attendance"
	"github.com/frahmantamala/opentna/internal/storage"
	"github.com/frahmantamala/opentna/internal/user"
)

type RepositoryAPI interface {
	GetByID(ctx context.Context, id int64) (*attendanceDatamodel.Attendance, error)
	ListByUser(ctx context.Context, userID int64) ([]*attendanceDatamodel.Attendance, error)
	ListByProximityCard(ctx context.Context, cardID int64) ([]*attendanceDatamodel.Attendance, error)
	Create(ctx context.Context, record *attendanceDatamodel.Attendance) error
	ClearUser(ctx context.Context, id int64) error
}

// CardLookup resolves the card a swipe refers to.
type CardLookup interface {
	LoadProximityCardByID(ctx context.Context, id int64) (*card.ProximityCard, error)
	LoadProximityCardBySerialNo(ctx context.Context, serialNo string) (*card.ProximityCard, error)
}

// UserLookup resolves the user a swipe refers to.
type UserLookup interface {
	LoadUserByID(ctx context.Context, id int64) (*user.User, error)
	LoadProximityCardOwner(ctx context.Context, cardID int64) (*user.User, error)
}

type Service struct {
	repo   RepositoryAPI
	cards  CardLookup
	users  UserLookup
	logger *slog.Logger
	now    func() time.Time
}

func NewService(repo RepositoryAPI, cards CardLookup, users UserLookup, logger *slog.Logger) *Service {
	return &Service{
		repo:   repo,
		cards:  cards,
		users:  users,
		logger: logger,
		now:    func() time.Time { return time.Now().UTC().Truncate(time.Microsecond) },
	}
}

// CreateAttendance records a swipe. The card must exist; the user is
// optional but must exist when given.
func (s *Service) CreateAttendance(ctx context.Context, dto CreateAttendanceDTO) (*Attendance, error) {
	v := validation.NewValidator()
	v.Field("proximity_card_id", dto.ProximityCardID).
		Required().
		MinInt(1, internal.ErrCodeInvalidID)
	v.Field("logged_at", dto.LoggedAt).
		Required()
	if err := v.Err(); err != nil {
		return nil, err
	}

	if _, err := s.cards.LoadProximityCardByID(ctx, dto.ProximityCardID); err != nil {
		return nil, err
	}
	if dto.UserID != nil {
		if _, err := s.users.LoadUserByID(ctx, *dto.UserID); err != nil {
			return nil, err
		}
	}

	return s.create(ctx, dto.UserID, dto.ProximityCardID, dto.LoggedAt)
}

// RecordSwipe records a swipe reported by serial number, attributing it to
// the card's current holder when there is one.
func (s *Service) RecordSwipe(ctx context.Context, req SwipeRequest) (*Attendance, error) {
	v := validation.NewValidator()
	v.Field("serial_no", req.SerialNo).
		Required().
		MaxLength(card.SerialNoMaxLength)
	if err := v.Err(); err != nil {
		return nil, err
	}

	loggedAt := s.now()
	if req.LoggedAt != nil && !req.LoggedAt.IsZero() {
		loggedAt = *req.LoggedAt
	}

	c, err := s.cards.LoadProximityCardBySerialNo(ctx, req.SerialNo)
	if err != nil {
		return nil, err
	}
	owner, err := s.users.LoadProximityCardOwner(ctx, c.ID)
	if err != nil {
		return nil, err
	}

	var userID *int64
	if owner != nil {
		id := owner.ID
		userID = &id
	}
	return s.create(ctx, userID, c.ID, loggedAt)
}

func (s *Service) create(ctx context.Context, userID *int64, cardID int64, loggedAt time.Time) (*Attendance, error) {
	row := &attendanceDatamodel.Attendance{
		UserID:    userID,
		CardID:    cardID,
		LoggedAt:  loggedAt.UTC(),
		CreatedAt: s.now(),
	}
	if err := s.repo.Create(ctx, row); err != nil {
		if storage.IsUniqueViolation(err) {
			key := fmt.Sprintf("%s/%d/%s", formatUserID(userID), cardID, row.LoggedAt.Format(time.RFC3339Nano))
			return nil, internal.NewDuplicateKeyError(internal.EntityAttendance, "user_id,card_id,logged_at", key).WithCause(err)
		}
		s.logger.Error("failed to record attendance", "card_id", cardID, "error", err)
		return nil, fmt.Errorf("create attendance: %w", err)
	}

	s.logger.Info("attendance recorded", "attendance_id", row.ID, "card_id", cardID, "user_id", formatUserID(userID))
	return FromDataModel(row), nil
}

func (s *Service) LoadAttendanceByID(ctx context.Context, id int64) (*Attendance, error) {
	row, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("load attendance %d: %w", id, err)
	}
	if row == nil {
		return nil, internal.NewNotFoundError(internal.EntityAttendance, id)
	}
	return FromDataModel(row), nil
}

// LoadAttendanceByUser returns the user's records in storage order.
func (s *Service) LoadAttendanceByUser(ctx context.Context, userID int64) ([]*Attendance, error) {
	if userID < 1 {
		return nil, internal.NewInvalidArgumentError("Invalid user ID")
	}
	rows, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list attendance of user %d: %w", userID, err)
	}
	return FromDataModels(rows), nil
}

// LoadAttendanceByProximityCard returns the card's records in storage order.
func (s *Service) LoadAttendanceByProximityCard(ctx context.Context, cardID int64) ([]*Attendance, error) {
	if cardID < 1 {
		return nil, internal.NewInvalidArgumentError("Invalid proximity card ID")
	}
	rows, err := s.repo.ListByProximityCard(ctx, cardID)
	if err != nil {
		return nil, fmt.Errorf("list attendance of proximity card %d: %w", cardID, err)
	}
	return FromDataModels(rows), nil
}

// DetachUser clears the user reference of a record. The flag is false when
// the record had no user.
func (s *Service) DetachUser(ctx context.Context, id int64) (*Attendance, bool, error) {
	if id < 1 {
		return nil, false, internal.NewInvalidArgumentError("Invalid attendance ID")
	}

	record, err := s.LoadAttendanceByID(ctx, id)
	if err != nil {
		return nil, false, err
	}
	if !record.HasUser() {
		return record, false, nil
	}

	if err := s.repo.ClearUser(ctx, id); err != nil {
		s.logger.Error("failed to detach user from attendance", "attendance_id", id, "error", err)
		return nil, false, fmt.Errorf("detach user from attendance %d: %w", id, err)
	}
	record.UserID = nil

	s.logger.Info("user detached from attendance", "attendance_id", id)
	return record, true, nil
}

func formatUserID(userID *int64) string {
	if userID == nil {
		return "-"
	}
	return fmt.Sprintf("%d", *userID)
}
