package postgresql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"vehicle_parking/internal/domain"
	"vehicle_parking/internal/repository"
)

type pgParkingSpotRepository struct {
	q queryer
}

func (r *pgParkingSpotRepository) Create(ctx context.Context, spot *domain.ParkingSpot) (*domain.ParkingSpot, error) {
	query := `INSERT INTO parking_spots (lot_id, status) VALUES ($1, $2) RETURNING id`
	if err := r.q.QueryRowContext(ctx, query, spot.LotID, spot.Status).Scan(&spot.ID); err != nil {
		return nil, fmt.Errorf("ParkingSpotRepository.Create: %w", err)
	}
	return spot, nil
}

func (r *pgParkingSpotRepository) FindByID(ctx context.Context, id int) (*domain.ParkingSpot, error) {
	spot := &domain.ParkingSpot{}
	query := `SELECT id, lot_id, status FROM parking_spots WHERE id = $1`
	err := r.q.QueryRowContext(ctx, query, id).Scan(&spot.ID, &spot.LotID, &spot.Status)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("ParkingSpotRepository.FindByID: %w", err)
	}
	return spot, nil
}

func (r *pgParkingSpotRepository) FindByLotID(ctx context.Context, lotID int) ([]domain.ParkingSpot, error) {
	query := `SELECT id, lot_id, status FROM parking_spots WHERE lot_id = $1 ORDER BY id`
	rows, err := r.q.QueryContext(ctx, query, lotID)
	if err != nil {
		return nil, fmt.Errorf("ParkingSpotRepository.FindByLotID: %w", err)
	}
	defer rows.Close()

	var spots []domain.ParkingSpot
	for rows.Next() {
		var spot domain.ParkingSpot
		if err := rows.Scan(&spot.ID, &spot.LotID, &spot.Status); err != nil {
			return nil, fmt.Errorf("ParkingSpotRepository.FindByLotID (scanning row): %w", err)
		}
		spots = append(spots, spot)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ParkingSpotRepository.FindByLotID (rows error): %w", err)
	}
	return spots, nil
}

// FirstAvailableByLotID locks the returned row so two transactions racing for
// the same lot cannot both claim it.
func (r *pgParkingSpotRepository) FirstAvailableByLotID(ctx context.Context, lotID int) (*domain.ParkingSpot, error) {
	spot := &domain.ParkingSpot{}
	query := `SELECT id, lot_id, status FROM parking_spots
	           WHERE lot_id = $1 AND status = $2
	           ORDER BY id ASC LIMIT 1
	           FOR UPDATE`
	err := r.q.QueryRowContext(ctx, query, lotID, domain.StatusAvailable).
		Scan(&spot.ID, &spot.LotID, &spot.Status)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("ParkingSpotRepository.FirstAvailableByLotID: %w", err)
	}
	return spot, nil
}

// LockByLotID takes FOR UPDATE locks on all of the lot's spot rows. Under READ
// COMMITTED the occupancy checks that follow would otherwise race a booking
// committing between check and cascade; holding the row locks serializes the
// two transactions so exactly one of them fails cleanly.
func (r *pgParkingSpotRepository) LockByLotID(ctx context.Context, lotID int) error {
	rows, err := r.q.QueryContext(ctx, `SELECT id FROM parking_spots WHERE lot_id = $1 FOR UPDATE`, lotID)
	if err != nil {
		return fmt.Errorf("ParkingSpotRepository.LockByLotID: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("ParkingSpotRepository.LockByLotID (rows error): %w", err)
	}
	return nil
}

func (r *pgParkingSpotRepository) UpdateStatus(ctx context.Context, id int, status domain.SpotStatus) error {
	result, err := r.q.ExecContext(ctx, `UPDATE parking_spots SET status = $1 WHERE id = $2`, status, id)
	if err != nil {
		return fmt.Errorf("ParkingSpotRepository.UpdateStatus: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("ParkingSpotRepository.UpdateStatus (checking rows affected): %w", err)
	}
	if rowsAffected == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *pgParkingSpotRepository) CountByLotIDAndStatus(ctx context.Context, lotID int, status domain.SpotStatus) (int, error) {
	var count int
	query := `SELECT COUNT(*) FROM parking_spots WHERE lot_id = $1 AND status = $2`
	if err := r.q.QueryRowContext(ctx, query, lotID, status).Scan(&count); err != nil {
		return 0, fmt.Errorf("ParkingSpotRepository.CountByLotIDAndStatus: %w", err)
	}
	return count, nil
}

func (r *pgParkingSpotRepository) CountByStatus(ctx context.Context, status domain.SpotStatus) (int, error) {
	var count int
	if err := r.q.QueryRowContext(ctx, `SELECT COUNT(*) FROM parking_spots WHERE status = $1`, status).Scan(&count); err != nil {
		return 0, fmt.Errorf("ParkingSpotRepository.CountByStatus: %w", err)
	}
	return count, nil
}

func (r *pgParkingSpotRepository) Count(ctx context.Context) (int, error) {
	var count int
	if err := r.q.QueryRowContext(ctx, `SELECT COUNT(*) FROM parking_spots`).Scan(&count); err != nil {
		return 0, fmt.Errorf("ParkingSpotRepository.Count: %w", err)
	}
	return count, nil
}

func (r *pgParkingSpotRepository) Delete(ctx context.Context, id int) error {
	result, err := r.q.ExecContext(ctx, `DELETE FROM parking_spots WHERE id = $1`, id)
	if err != nil {
		if isForeignKeyViolation(err) {
			return fmt.Errorf("%w: spot %d has reservations", repository.ErrConflict, id)
		}
		return fmt.Errorf("ParkingSpotRepository.Delete: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("ParkingSpotRepository.Delete (checking rows affected): %w", err)
	}
	if rowsAffected == 0 {
		return repository.ErrNotFound
	}
	return nil
}
