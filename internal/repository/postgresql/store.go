package postgresql

import (
	"context"
	"database/sql"
	"fmt"
	"vehicle_parking/internal/repository"
)

// queryer is satisfied by both *sql.DB and *sql.Tx so the repositories can
// run against either.
type queryer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type pgStore struct {
	db *sql.DB
	q  queryer
}

func NewStore(db *sql.DB) repository.Store {
	return &pgStore{db: db, q: db}
}

func (s *pgStore) Users() repository.UserRepository {
	return &pgUserRepository{q: s.q}
}

func (s *pgStore) Lots() repository.ParkingLotRepository {
	return &pgParkingLotRepository{q: s.q}
}

func (s *pgStore) Spots() repository.ParkingSpotRepository {
	return &pgParkingSpotRepository{q: s.q}
}

func (s *pgStore) Reservations() repository.ReservationRepository {
	return &pgReservationRepository{q: s.q}
}

func (s *pgStore) InTx(ctx context.Context, fn func(repository.Store) error) error {
	if _, ok := s.q.(*sql.Tx); ok {
		// Already inside a transaction, reuse it.
		return fn(s)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}

	if err := fn(&pgStore{db: s.db, q: tx}); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("rolling back after %w: %v", err, rbErr)
		}
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}
