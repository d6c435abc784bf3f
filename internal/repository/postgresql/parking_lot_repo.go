package postgresql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
	"vehicle_parking/internal/domain"
	"vehicle_parking/internal/repository"
)

type pgParkingLotRepository struct {
	q queryer
}

func (r *pgParkingLotRepository) Create(ctx context.Context, lot *domain.ParkingLot) (*domain.ParkingLot, error) {
	query := `INSERT INTO parking_lots (name, price, address, pincode, max_spots, created_at, updated_at)
	           VALUES ($1, $2, $3, $4, $5, CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)
	           RETURNING id, created_at, updated_at`
	err := r.q.QueryRowContext(ctx, query, lot.Name, lot.Price,
		sql.NullString{String: lot.Address, Valid: lot.Address != ""},
		sql.NullString{String: lot.Pincode, Valid: lot.Pincode != ""},
		lot.MaxSpots,
	).Scan(&lot.ID, &lot.CreatedAt, &lot.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("ParkingLotRepository.Create: %w", err)
	}
	lot.CreatedAt = lot.CreatedAt.In(time.UTC)
	lot.UpdatedAt = lot.UpdatedAt.In(time.UTC)
	return lot, nil
}

func (r *pgParkingLotRepository) FindByID(ctx context.Context, id int) (*domain.ParkingLot, error) {
	lot := &domain.ParkingLot{}
	var address, pincode sql.NullString
	query := `SELECT id, name, price, address, pincode, max_spots, created_at, updated_at
	           FROM parking_lots WHERE id = $1`
	err := r.q.QueryRowContext(ctx, query, id).Scan(
		&lot.ID, &lot.Name, &lot.Price, &address, &pincode, &lot.MaxSpots, &lot.CreatedAt, &lot.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("ParkingLotRepository.FindByID: %w", err)
	}
	lot.Address = address.String
	lot.Pincode = pincode.String
	lot.CreatedAt = lot.CreatedAt.In(time.UTC)
	lot.UpdatedAt = lot.UpdatedAt.In(time.UTC)
	return lot, nil
}

func (r *pgParkingLotRepository) FindAll(ctx context.Context) ([]domain.ParkingLot, error) {
	query := `SELECT id, name, price, address, pincode, max_spots, created_at, updated_at
	           FROM parking_lots ORDER BY id`
	rows, err := r.q.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("ParkingLotRepository.FindAll: %w", err)
	}
	defer rows.Close()

	var lots []domain.ParkingLot
	for rows.Next() {
		var lot domain.ParkingLot
		var address, pincode sql.NullString
		if err := rows.Scan(&lot.ID, &lot.Name, &lot.Price, &address, &pincode,
			&lot.MaxSpots, &lot.CreatedAt, &lot.UpdatedAt); err != nil {
			return nil, fmt.Errorf("ParkingLotRepository.FindAll (scanning row): %w", err)
		}
		lot.Address = address.String
		lot.Pincode = pincode.String
		lot.CreatedAt = lot.CreatedAt.In(time.UTC)
		lot.UpdatedAt = lot.UpdatedAt.In(time.UTC)
		lots = append(lots, lot)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ParkingLotRepository.FindAll (rows error): %w", err)
	}
	return lots, nil
}

func (r *pgParkingLotRepository) Update(ctx context.Context, lot *domain.ParkingLot) (*domain.ParkingLot, error) {
	query := `UPDATE parking_lots
	           SET name = $1, price = $2, address = $3, pincode = $4, max_spots = $5, updated_at = CURRENT_TIMESTAMP
	           WHERE id = $6
	           RETURNING updated_at`
	err := r.q.QueryRowContext(ctx, query, lot.Name, lot.Price,
		sql.NullString{String: lot.Address, Valid: lot.Address != ""},
		sql.NullString{String: lot.Pincode, Valid: lot.Pincode != ""},
		lot.MaxSpots, lot.ID,
	).Scan(&lot.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("ParkingLotRepository.Update: %w", err)
	}
	lot.UpdatedAt = lot.UpdatedAt.In(time.UTC)
	return lot, nil
}

func (r *pgParkingLotRepository) Delete(ctx context.Context, id int) error {
	result, err := r.q.ExecContext(ctx, `DELETE FROM parking_lots WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("ParkingLotRepository.Delete: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("ParkingLotRepository.Delete (checking rows affected): %w", err)
	}
	if rowsAffected == 0 {
		return repository.ErrNotFound
	}
	return nil
}
