package postgres

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"

	"github.com/frahmantamala/opentna/internal/attendance"
	attendanceDatamodel "github.com/frahmantamala/opentna/internal/core/datamodel/attendance"
)

const selectColumns = `SELECT id, user_id, card_id, logged_at, created_at FROM attendance_records`

// AttendanceRepository keeps the append-only swipe log with plain SQL.
type AttendanceRepository struct {
	db *sqlx.DB
}

func NewAttendanceRepository(db *sqlx.DB) attendance.RepositoryAPI {
	return &AttendanceRepository{db: db}
}

func (r *AttendanceRepository) GetByID(ctx context.Context, id int64) (*attendanceDatamodel.Attendance, error) {
	var row attendanceDatamodel.Attendance
	query := r.db.Rebind(selectColumns + ` WHERE id = ?`)
	if err := r.db.GetContext(ctx, &row, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &row, nil
}

func (r *AttendanceRepository) ListByUser(ctx context.Context, userID int64) ([]*attendanceDatamodel.Attendance, error) {
	rows := []*attendanceDatamodel.Attendance{}
	query := r.db.Rebind(selectColumns + ` WHERE user_id = ? ORDER BY id`)
	err := r.db.SelectContext(ctx, &rows, query, userID)
	return rows, err
}

func (r *AttendanceRepository) ListByProximityCard(ctx context.Context, cardID int64) ([]*attendanceDatamodel.Attendance, error) {
	rows := []*attendanceDatamodel.Attendance{}
	query := r.db.Rebind(selectColumns + ` WHERE card_id = ? ORDER BY id`)
	err := r.db.SelectContext(ctx, &rows, query, cardID)
	return rows, err
}

// Create inserts record and sets its ID. MySQL has no RETURNING clause, so
// the id comes from LastInsertId there.
func (r *AttendanceRepository) Create(ctx context.Context, record *attendanceDatamodel.Attendance) error {
	const insert = `INSERT INTO attendance_records (user_id, card_id, logged_at, created_at) VALUES (?, ?, ?, ?)`
	args := []interface{}{record.UserID, record.CardID, record.LoggedAt, record.CreatedAt}

	if r.db.DriverName() == "mysql" {
		res, err := r.db.ExecContext(ctx, r.db.Rebind(insert), args...)
		if err != nil {
			return err
		}
		id, err := res.LastInsertId()
		if err != nil {
			return err
		}
		record.ID = id
		return nil
	}

	return r.db.QueryRowxContext(ctx, r.db.Rebind(insert+` RETURNING id`), args...).Scan(&record.ID)
}

func (r *AttendanceRepository) ClearUser(ctx context.Context, id int64) error {
	query := r.db.Rebind(`UPDATE attendance_records SET user_id = NULL WHERE id = ?`)
	_, err := r.db.ExecContext(ctx, query, id)
	return err
}
