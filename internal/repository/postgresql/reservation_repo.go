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

type pgReservationRepository struct {
	q queryer
}

func (r *pgReservationRepository) Create(ctx context.Context, res *domain.Reservation) (*domain.Reservation, error) {
	query := `INSERT INTO reservations (spot_id, user_id, parking_timestamp, leaving_timestamp, cost)
	           VALUES ($1, $2, $3, $4, $5)
	           RETURNING id`
	err := r.q.QueryRowContext(ctx, query,
		res.SpotID, res.UserID, res.ParkingTimestamp, res.LeavingTimestamp, res.Cost,
	).Scan(&res.ID)
	if err != nil {
		return nil, fmt.Errorf("ReservationRepository.Create: %w", err)
	}
	return res, nil
}

func (r *pgReservationRepository) FindByID(ctx context.Context, id int) (*domain.Reservation, error) {
	res := &domain.Reservation{}
	query := `SELECT id, spot_id, user_id, parking_timestamp, leaving_timestamp, cost
	           FROM reservations WHERE id = $1`
	err := r.q.QueryRowContext(ctx, query, id).Scan(
		&res.ID, &res.SpotID, &res.UserID, &res.ParkingTimestamp, &res.LeavingTimestamp, &res.Cost,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("ReservationRepository.FindByID: %w", err)
	}
	res.ParkingTimestamp = res.ParkingTimestamp.In(time.UTC)
	return res, nil
}

func (r *pgReservationRepository) Update(ctx context.Context, res *domain.Reservation) (*domain.Reservation, error) {
	query := `UPDATE reservations
	           SET spot_id = $1, user_id = $2, parking_timestamp = $3, leaving_timestamp = $4, cost = $5
	           WHERE id = $6`
	result, err := r.q.ExecContext(ctx, query,
		res.SpotID, res.UserID, res.ParkingTimestamp, res.LeavingTimestamp, res.Cost, res.ID,
	)
	if err != nil {
		return nil, fmt.Errorf("ReservationRepository.Update: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("ReservationRepository.Update (checking rows affected): %w", err)
	}
	if rowsAffected == 0 {
		return nil, repository.ErrNotFound
	}
	return res, nil
}

func (r *pgReservationRepository) ListByUserID(ctx context.Context, userID int, activeOnly bool) ([]domain.ReservationDetail, error) {
	query := `SELECT r.id, r.spot_id, r.user_id, r.parking_timestamp, r.leaving_timestamp, r.cost,
	                  l.id, l.name
	           FROM reservations r
	           JOIN parking_spots s ON s.id = r.spot_id
	           JOIN parking_lots l ON l.id = s.lot_id
	           WHERE r.user_id = $1`
	if activeOnly {
		query += ` AND r.leaving_timestamp IS NULL`
	}
	query += ` ORDER BY r.parking_timestamp DESC`

	rows, err := r.q.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("ReservationRepository.ListByUserID: %w", err)
	}
	defer rows.Close()

	var details []domain.ReservationDetail
	for rows.Next() {
		var d domain.ReservationDetail
		if err := rows.Scan(&d.ID, &d.SpotID, &d.UserID, &d.ParkingTimestamp,
			&d.LeavingTimestamp, &d.Cost, &d.LotID, &d.LotName); err != nil {
			return nil, fmt.Errorf("ReservationRepository.ListByUserID (scanning row): %w", err)
		}
		d.ParkingTimestamp = d.ParkingTimestamp.In(time.UTC)
		details = append(details, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ReservationRepository.ListByUserID (rows error): %w", err)
	}
	return details, nil
}

func (r *pgReservationRepository) CountBySpotID(ctx context.Context, spotID int) (int, error) {
	var count int
	if err := r.q.QueryRowContext(ctx, `SELECT COUNT(*) FROM reservations WHERE spot_id = $1`, spotID).Scan(&count); err != nil {
		return 0, fmt.Errorf("ReservationRepository.CountBySpotID: %w", err)
	}
	return count, nil
}

func (r *pgReservationRepository) ExistsActiveByLotID(ctx context.Context, lotID int) (bool, error) {
	var exists bool
	query := `SELECT EXISTS (
	             SELECT 1 FROM reservations r
	             JOIN parking_spots s ON s.id = r.spot_id
	             WHERE s.lot_id = $1 AND r.leaving_timestamp IS NULL
	           )`
	if err := r.q.QueryRowContext(ctx, query, lotID).Scan(&exists); err != nil {
		return false, fmt.Errorf("ReservationRepository.ExistsActiveByLotID: %w", err)
	}
	return exists, nil
}

func (r *pgReservationRepository) DeleteBySpotID(ctx context.Context, spotID int) error {
	if _, err := r.q.ExecContext(ctx, `DELETE FROM reservations WHERE spot_id = $1`, spotID); err != nil {
		return fmt.Errorf("ReservationRepository.DeleteBySpotID: %w", err)
	}
	return nil
}

func (r *pgReservationRepository) FindAll(ctx context.Context) ([]domain.Reservation, error) {
	query := `SELECT id, spot_id, user_id, parking_timestamp, leaving_timestamp, cost FROM reservations ORDER BY id`
	rows, err := r.q.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("ReservationRepository.FindAll: %w", err)
	}
	defer rows.Close()

	var reservations []domain.Reservation
	for rows.Next() {
		var res domain.Reservation
		if err := rows.Scan(&res.ID, &res.SpotID, &res.UserID, &res.ParkingTimestamp,
			&res.LeavingTimestamp, &res.Cost); err != nil {
			return nil, fmt.Errorf("ReservationRepository.FindAll (scanning row): %w", err)
		}
		res.ParkingTimestamp = res.ParkingTimestamp.In(time.UTC)
		reservations = append(reservations, res)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ReservationRepository.FindAll (rows error): %w", err)
	}
	return reservations, nil
}
