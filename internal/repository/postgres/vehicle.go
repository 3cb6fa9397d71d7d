package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"carrental-backend/internal/domain"
	"carrental-backend/internal/repository"
)

const vehicleColumns = `id, agency_id, make, model, vehicle_type, licence_plate, daily_rate, security_deposit, status, created_on, updated_on`

type vehicleRepository struct {
	db *sql.DB
}

func NewVehicleRepository(db *sql.DB) repository.VehicleRepository {
	return &vehicleRepository{db: db}
}

func scanVehicle(row *sql.Row) (*domain.Vehicle, error) {
	v := &domain.Vehicle{}
	err := row.Scan(&v.ID, &v.AgencyID, &v.Make, &v.Model, &v.VehicleType, &v.LicencePlate,
		&v.DailyRate, &v.SecurityDeposit, &v.Status, &v.CreatedOn, &v.UpdatedOn)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: vehicle", domain.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return v, nil
}

func (r *vehicleRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Vehicle, error) {
	query := `SELECT ` + vehicleColumns + ` FROM vehicles WHERE id = $1`
	return scanVehicle(r.db.QueryRowContext(ctx, query, id))
}

func (r *vehicleRepository) GetForUpdate(ctx context.Context, tx *sql.Tx, id uuid.UUID) (*domain.Vehicle, error) {
	query := `SELECT ` + vehicleColumns + ` FROM vehicles WHERE id = $1 FOR UPDATE`
	return scanVehicle(tx.QueryRowContext(ctx, query, id))
}

func (r *vehicleRepository) ListByAgency(ctx context.Context, agencyID uuid.UUID, page, pageSize int32) ([]domain.Vehicle, int32, error) {
	offset := (page - 1) * pageSize

	var count int32
	err := r.db.QueryRowContext(ctx, `SELECT count(*) FROM vehicles WHERE agency_id = $1`, agencyID).Scan(&count)
	if err != nil {
		return nil, 0, err
	}

	query := `SELECT ` + vehicleColumns + ` FROM vehicles WHERE agency_id = $1 ORDER BY created_on DESC LIMIT $2 OFFSET $3`
	rows, err := r.db.QueryContext(ctx, query, agencyID, pageSize, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var vehicles []domain.Vehicle
	for rows.Next() {
		var v domain.Vehicle
		if err := rows.Scan(&v.ID, &v.AgencyID, &v.Make, &v.Model, &v.VehicleType, &v.LicencePlate,
			&v.DailyRate, &v.SecurityDeposit, &v.Status, &v.CreatedOn, &v.UpdatedOn); err != nil {
			return nil, 0, err
		}
		vehicles = append(vehicles, v)
	}
	return vehicles, count, rows.Err()
}
