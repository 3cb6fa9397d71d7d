package postgres

import (
	"context"
	"database/sql"

	"carrental-backend/internal/domain"
	"carrental-backend/internal/repository"
)

type gatewayEventRepository struct {
	db *sql.DB
}

func NewGatewayEventRepository(db *sql.DB) repository.GatewayEventRepository {
	return &gatewayEventRepository{db: db}
}

// Record inserts the event into the processed-log. The primary key on
// event_id makes this the idempotency gate: a replay surfaces as
// ErrDuplicateEvent and must roll the surrounding transaction back.
func (r *gatewayEventRepository) Record(ctx context.Context, tx *sql.Tx, ev *domain.GatewayEvent, outcome string) error {
	query := `INSERT INTO gateway_events (event_id, event_type, correlation_id, outcome, payload, received_on)
	          VALUES ($1, $2, $3, $4, $5, $6)`
	_, err := tx.ExecContext(ctx, query, ev.EventID, ev.Type, ev.CorrelationID, outcome, []byte(ev.Raw), ev.ReceivedOn)
	if IsUniqueViolation(err) {
		return ErrDuplicateEvent
	}
	return err
}

// ListUnmatched returns events retained for manual reconciliation.
func (r *gatewayEventRepository) ListUnmatched(ctx context.Context, limit int32) ([]domain.GatewayEvent, error) {
	query := `SELECT event_id, event_type, correlation_id, payload, received_on
	          FROM gateway_events WHERE outcome = 'UNMATCHED' ORDER BY received_on LIMIT $1`
	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []domain.GatewayEvent
	for rows.Next() {
		var ev domain.GatewayEvent
		var raw []byte
		if err := rows.Scan(&ev.EventID, &ev.Type, &ev.CorrelationID, &raw, &ev.ReceivedOn); err != nil {
			return nil, err
		}
		ev.Raw = raw
		events = append(events, ev)
	}
	return events, rows.Err()
}
