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

const paymentColumns = `id, booking_id, leg, amount, currency, provider, COALESCE(provider_transaction_id, ''), status, gateway_response_raw, created_on, updated_on`

type paymentRepository struct {
	db *sql.DB
}

func NewPaymentRepository(db *sql.DB) repository.PaymentRepository {
	return &paymentRepository{db: db}
}

func (r *paymentRepository) Create(ctx context.Context, tx *sql.Tx, p *domain.Payment) error {
	query := `INSERT INTO payments (id, booking_id, leg, amount, currency, provider, provider_transaction_id, status, gateway_response_raw, created_on, updated_on)
	          VALUES ($1, $2, $3, $4, $5, $6, NULLIF($7, ''), $8, $9, $10, $11)`
	_, err := tx.ExecContext(ctx, query, p.ID, p.BookingID, p.Leg, p.Amount, p.Currency,
		p.Provider, p.ProviderTransactionID, p.Status, []byte(p.GatewayResponseRaw), p.CreatedOn, p.UpdatedOn)
	return err
}

func scanPayment(row *sql.Row) (*domain.Payment, error) {
	p := &domain.Payment{}
	var raw []byte
	err := row.Scan(&p.ID, &p.BookingID, &p.Leg, &p.Amount, &p.Currency, &p.Provider,
		&p.ProviderTransactionID, &p.Status, &raw, &p.CreatedOn, &p.UpdatedOn)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: payment", domain.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	p.GatewayResponseRaw = raw
	return p, nil
}

func (r *paymentRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Payment, error) {
	query := `SELECT ` + paymentColumns + ` FROM payments WHERE id = $1`
	return scanPayment(r.db.QueryRowContext(ctx, query, id))
}

func (r *paymentRepository) ListByBooking(ctx context.Context, q repository.Querier, bookingID uuid.UUID) ([]domain.Payment, error) {
	query := `SELECT ` + paymentColumns + ` FROM payments WHERE booking_id = $1 ORDER BY created_on`
	rows, err := q.QueryContext(ctx, query, bookingID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var payments []domain.Payment
	for rows.Next() {
		var p domain.Payment
		var raw []byte
		if err := rows.Scan(&p.ID, &p.BookingID, &p.Leg, &p.Amount, &p.Currency, &p.Provider,
			&p.ProviderTransactionID, &p.Status, &raw, &p.CreatedOn, &p.UpdatedOn); err != nil {
			return nil, err
		}
		p.GatewayResponseRaw = raw
		payments = append(payments, p)
	}
	return payments, rows.Err()
}

func (r *paymentRepository) GetForUpdateByProviderTxID(ctx context.Context, tx *sql.Tx, providerTxID string) (*domain.Payment, error) {
	query := `SELECT ` + paymentColumns + ` FROM payments WHERE provider_transaction_id = $1 FOR UPDATE`
	return scanPayment(tx.QueryRowContext(ctx, query, providerTxID))
}

func (r *paymentRepository) UpdateStatus(ctx context.Context, q repository.Querier, id uuid.UUID, status domain.PaymentStatus, raw []byte, updatedOn time.Time) error {
	// Raw gateway payload is kept verbatim for audit; never overwritten
	// with nothing.
	query := `UPDATE payments SET status = $1, gateway_response_raw = COALESCE($2, gateway_response_raw), updated_on = $3 WHERE id = $4`
	res, err := q.ExecContext(ctx, query, status, raw, updatedOn, id)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("%w: payment", domain.ErrNotFound)
	}
	return nil
}

func (r *paymentRepository) SetProviderTransactionID(ctx context.Context, id uuid.UUID, providerTxID string) error {
	// The predicate only lets the first checkout attach its correlation id.
	// A later checkout for the same leg matches zero rows and conflicts
	// instead of silently orphaning the recorded session.
	query := `UPDATE payments SET provider_transaction_id = $1, updated_on = $2
		WHERE id = $3 AND status = 'PENDING' AND provider_transaction_id IS NULL`
	res, err := r.db.ExecContext(ctx, query, providerTxID, time.Now().UTC(), id)
	if err != nil {
		return err
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return fmt.Errorf("%w: checkout already started for payment %s", domain.ErrConflict, id)
	}
	return nil
}
