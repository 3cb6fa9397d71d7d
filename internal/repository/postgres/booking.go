package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"carrental-backend/internal/domain"
	"carrental-backend/internal/repository"
)

const bookingColumns = `id, vehicle_id, requester_id, agency_id, start_ts, end_ts, unit_price, total_cost, currency, status, created_on, updated_on`

type bookingRepository struct {
	db *sql.DB
}

func NewBookingRepository(db *sql.DB) repository.BookingRepository {
	return &bookingRepository{db: db}
}

func (r *bookingRepository) HasOverlap(ctx context.Context, q repository.Querier, vehicleID uuid.UUID, start, end time.Time, exclude *uuid.UUID) (bool, error) {
	// Open-interval test on [start_ts, end_ts): two bookings overlap iff
	// each starts before the other ends. CANCELLED released the interval,
	// COMPLETED is history; neither blocks.
	query := `SELECT EXISTS (
	            SELECT 1 FROM bookings
	            WHERE vehicle_id = $1
	              AND status IN ('PENDING', 'CONFIRMED')
	              AND start_ts < $3 AND end_ts > $2
	              AND ($4::uuid IS NULL OR id <> $4)
	          )`
	var excludeID any
	if exclude != nil {
		excludeID = *exclude
	}
	var overlaps bool
	err := q.QueryRowContext(ctx, query, vehicleID, start, end, excludeID).Scan(&overlaps)
	return overlaps, err
}

func (r *bookingRepository) Create(ctx context.Context, tx *sql.Tx, b *domain.Booking) error {
	query := `INSERT INTO bookings (id, vehicle_id, requester_id, agency_id, start_ts, end_ts, unit_price, total_cost, currency, status, created_on, updated_on)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`
	_, err := tx.ExecContext(ctx, query, b.ID, b.VehicleID, b.RequesterID, b.AgencyID,
		b.StartTS, b.EndTS, b.UnitPrice, b.TotalCost, b.Currency, b.Status, b.CreatedOn, b.UpdatedOn)
	return err
}

func scanBooking(row *sql.Row) (*domain.Booking, error) {
	b := &domain.Booking{}
	err := row.Scan(&b.ID, &b.VehicleID, &b.RequesterID, &b.AgencyID, &b.StartTS, &b.EndTS,
		&b.UnitPrice, &b.TotalCost, &b.Currency, &b.Status, &b.CreatedOn, &b.UpdatedOn)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: booking", domain.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return b, nil
}

func (r *bookingRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE id = $1`
	return scanBooking(r.db.QueryRowContext(ctx, query, id))
}

func (r *bookingRepository) GetForUpdate(ctx context.Context, tx *sql.Tx, id uuid.UUID) (*domain.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE id = $1 FOR UPDATE`
	return scanBooking(tx.QueryRowContext(ctx, query, id))
}

func (r *bookingRepository) UpdateStatus(ctx context.Context, q repository.Querier, id uuid.UUID, status domain.BookingStatus, updatedOn time.Time) error {
	query := `UPDATE bookings SET status = $1, updated_on = $2 WHERE id = $3`
	res, err := q.ExecContext(ctx, query, status, updatedOn, id)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("%w: booking", domain.ErrNotFound)
	}
	return nil
}

func (r *bookingRepository) list(ctx context.Context, column string, ownerID uuid.UUID, status string, page, pageSize int32) ([]domain.Booking, int32, error) {
	offset := (page - 1) * pageSize
	where := ` FROM bookings WHERE ` + column + ` = $1`
	args := []any{ownerID}
	if status != "" {
		where += ` AND status = $2`
		args = append(args, status)
	}

	var count int32
	if err := r.db.QueryRowContext(ctx, `SELECT count(*)`+where, args...).Scan(&count); err != nil {
		return nil, 0, err
	}

	query := fmt.Sprintf(`SELECT %s%s ORDER BY start_ts DESC LIMIT $%d OFFSET $%d`,
		bookingColumns, where, len(args)+1, len(args)+2)
	args = append(args, pageSize, offset)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var bookings []domain.Booking
	for rows.Next() {
		var b domain.Booking
		if err := rows.Scan(&b.ID, &b.VehicleID, &b.RequesterID, &b.AgencyID, &b.StartTS, &b.EndTS,
			&b.UnitPrice, &b.TotalCost, &b.Currency, &b.Status, &b.CreatedOn, &b.UpdatedOn); err != nil {
			return nil, 0, err
		}
		bookings = append(bookings, b)
	}
	return bookings, count, rows.Err()
}

func (r *bookingRepository) ListByRequester(ctx context.Context, requesterID uuid.UUID, status string, page, pageSize int32) ([]domain.Booking, int32, error) {
	return r.list(ctx, "requester_id", requesterID, status, page, pageSize)
}

func (r *bookingRepository) ListByAgency(ctx context.Context, agencyID uuid.UUID, status string, page, pageSize int32) ([]domain.Booking, int32, error) {
	return r.list(ctx, "agency_id", agencyID, status, page, pageSize)
}

func (r *bookingRepository) ListExpiredPending(ctx context.Context, cutoff time.Time, limit int32) ([]uuid.UUID, error) {
	query := `SELECT id FROM bookings WHERE status = 'PENDING' AND created_on <= $1 ORDER BY created_on LIMIT $2`
	rows, err := r.db.QueryContext(ctx, query, cutoff, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
