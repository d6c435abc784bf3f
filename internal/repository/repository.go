package repository

import (
	"context"
	"errors"
	"vehicle_parking/internal/domain"
)

var ErrNotFound = errors.New("record not found")
var ErrDuplicateEntry = errors.New("record already exists")
var ErrConflict = errors.New("conflicting concurrent update")

// Store aggregates the entity repositories and provides the atomic
// read-modify-write primitive every multi-step state transition runs through.
// Repositories obtained from the Store passed to InTx operate inside the same
// transaction; if fn returns an error nothing is persisted.
type Store interface {
	Users() UserRepository
	Lots() ParkingLotRepository
	Spots() ParkingSpotRepository
	Reservations() ReservationRepository
	InTx(ctx context.Context, fn func(Store) error) error
}

type UserRepository interface {
	Create(ctx context.Context, user *domain.User) (*domain.User, error)
	FindByUsername(ctx context.Context, username string) (*domain.User, error)
	FindByID(ctx context.Context, id int) (*domain.User, error)
	FindFirstByRole(ctx context.Context, role string) (*domain.User, error)
}

type ParkingLotRepository interface {
	Create(ctx context.Context, lot *domain.ParkingLot) (*domain.ParkingLot, error)
	FindByID(ctx context.Context, id int) (*domain.ParkingLot, error)
	FindAll(ctx context.Context) ([]domain.ParkingLot, error)
	Update(ctx context.Context, lot *domain.ParkingLot) (*domain.ParkingLot, error)
	Delete(ctx context.Context, id int) error
}

type ParkingSpotRepository interface {
	Create(ctx context.Context, spot *domain.ParkingSpot) (*domain.ParkingSpot, error)
	FindByID(ctx context.Context, id int) (*domain.ParkingSpot, error)
	FindByLotID(ctx context.Context, lotID int) ([]domain.ParkingSpot, error)
	// FirstAvailableByLotID returns the available spot with the lowest id in
	// the lot, locking it against concurrent bookings when run inside InTx.
	FirstAvailableByLotID(ctx context.Context, lotID int) (*domain.ParkingSpot, error)
	// LockByLotID claims every spot row of the lot for the duration of the
	// surrounding transaction, so reads that follow see a state no concurrent
	// booking can change underneath them.
	LockByLotID(ctx context.Context, lotID int) error
	UpdateStatus(ctx context.Context, id int, status domain.SpotStatus) error
	CountByLotIDAndStatus(ctx context.Context, lotID int, status domain.SpotStatus) (int, error)
	CountByStatus(ctx context.Context, status domain.SpotStatus) (int, error)
	Count(ctx context.Context) (int, error)
	Delete(ctx context.Context, id int) error
}

type ReservationRepository interface {
	Create(ctx context.Context, res *domain.Reservation) (*domain.Reservation, error)
	FindByID(ctx context.Context, id int) (*domain.Reservation, error)
	Update(ctx context.Context, res *domain.Reservation) (*domain.Reservation, error)
	// ListByUserID returns the user's reservations newest first, joined with
	// lot information. activeOnly restricts to unreleased reservations.
	ListByUserID(ctx context.Context, userID int, activeOnly bool) ([]domain.ReservationDetail, error)
	CountBySpotID(ctx context.Context, spotID int) (int, error)
	ExistsActiveByLotID(ctx context.Context, lotID int) (bool, error)
	DeleteBySpotID(ctx context.Context, spotID int) error
	FindAll(ctx context.Context) ([]domain.Reservation, error)
}
