package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"vehicle_parking/internal/domain"
	"vehicle_parking/internal/repository"

	"gopkg.in/guregu/null.v4"
)

var ErrNoAvailableSpot = errors.New("no spots available in this lot")
var ErrNotReservationOwner = errors.New("reservation belongs to another user")
var ErrAlreadyReleased = errors.New("reservation has already been released")

type ReservationService struct {
	store repository.Store
}

func NewReservationService(store repository.Store) *ReservationService {
	return &ReservationService{store: store}
}

// BookSpot assigns the available spot with the lowest id in the lot to the
// user. Selection and occupation run in one transaction so two concurrent
// bookings can never claim the same spot.
func (s *ReservationService) BookSpot(ctx context.Context, lotID, userID int) (*domain.Reservation, error) {
	var reservation *domain.Reservation
	err := s.store.InTx(ctx, func(tx repository.Store) error {
		spot, err := tx.Spots().FirstAvailableByLotID(ctx, lotID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return ErrNoAvailableSpot
			}
			return fmt.Errorf("selecting spot: %w", err)
		}

		if err := tx.Spots().UpdateStatus(ctx, spot.ID, domain.StatusOccupied); err != nil {
			return fmt.Errorf("occupying spot %d: %w", spot.ID, err)
		}

		reservation, err = tx.Reservations().Create(ctx, &domain.Reservation{
			SpotID:           spot.ID,
			UserID:           userID,
			ParkingTimestamp: timeNow().UTC(),
		})
		if err != nil {
			return fmt.Errorf("creating reservation: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return reservation, nil
}

// ReleaseSpot frees the reserved spot and settles the cost at the lot's flat
// rate. Releasing a reservation twice is rejected with ErrAlreadyReleased.
func (s *ReservationService) ReleaseSpot(ctx context.Context, reservationID, userID int) (*domain.Reservation, error) {
	var released *domain.Reservation
	err := s.store.InTx(ctx, func(tx repository.Store) error {
		reservation, err := tx.Reservations().FindByID(ctx, reservationID)
		if err != nil {
			return err
		}
		if reservation.UserID != userID {
			return ErrNotReservationOwner
		}
		if !reservation.Active() {
			return ErrAlreadyReleased
		}

		spot, err := tx.Spots().FindByID(ctx, reservation.SpotID)
		if err != nil {
			return fmt.Errorf("loading spot %d: %w", reservation.SpotID, err)
		}
		lot, err := tx.Lots().FindByID(ctx, spot.LotID)
		if err != nil {
			return fmt.Errorf("loading lot %d: %w", spot.LotID, err)
		}

		if err := tx.Spots().UpdateStatus(ctx, spot.ID, domain.StatusAvailable); err != nil {
			return fmt.Errorf("freeing spot %d: %w", spot.ID, err)
		}

		reservation.LeavingTimestamp = null.TimeFrom(timeNow().UTC())
		reservation.Cost = lot.Price
		released, err = tx.Reservations().Update(ctx, reservation)
		if err != nil {
			return fmt.Errorf("updating reservation: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return released, nil
}

func (s *ReservationService) ActiveReservations(ctx context.Context, userID int) ([]domain.ReservationDetail, error) {
	return s.store.Reservations().ListByUserID(ctx, userID, true)
}

func (s *ReservationService) History(ctx context.Context, userID int) ([]domain.ReservationDetail, error) {
	return s.store.Reservations().ListByUserID(ctx, userID, false)
}

// UserReservations lists every reservation of the given user, for the
// admin/self API view.
func (s *ReservationService) UserReservations(ctx context.Context, userID int) ([]domain.ReservationDetail, error) {
	return s.store.Reservations().ListByUserID(ctx, userID, false)
}

// Dashboard summarizes a user's parking activity: counts, total spend and
// booked hours per day for released reservations.
func (s *ReservationService) Dashboard(ctx context.Context, userID int) (*domain.UserDashboard, error) {
	all, err := s.store.Reservations().ListByUserID(ctx, userID, false)
	if err != nil {
		return nil, err
	}

	dash := &domain.UserDashboard{}
	dayHours := make(map[string]float64)
	for _, res := range all {
		if res.Active() {
			dash.ActiveCount++
			continue
		}
		dash.HistoryCount++
		dash.TotalCost += res.Cost
		hours := res.LeavingTimestamp.Time.Sub(res.ParkingTimestamp).Hours()
		dayHours[res.ParkingTimestamp.Format("2006-01-02")] += hours
	}

	if len(all) > 5 {
		dash.Recent = all[:5]
	} else {
		dash.Recent = all
	}

	for day := range dayHours {
		dash.ChartLabels = append(dash.ChartLabels, day)
	}
	sort.Strings(dash.ChartLabels)
	for _, day := range dash.ChartLabels {
		dash.ChartData = append(dash.ChartData, math.Round(dayHours[day]*100)/100)
	}
	return dash, nil
}
