package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"vehicle_parking/internal/domain"
	"vehicle_parking/internal/repository"
)

var ErrInvalidLotSpec = errors.New("name and max_spots are required")
var ErrLotInUse = errors.New("lot has occupied spots or active reservations")

// InsufficientRemovableSpotsError reports a shrink that would need to delete
// spots that are occupied or carry reservation history.
type InsufficientRemovableSpotsError struct {
	Available int
	Needed    int
}

func (e *InsufficientRemovableSpotsError) Error() string {
	return fmt.Sprintf("cannot reduce spots: only %d spots can be removed (need to remove %d); some spots are occupied or have reservations", e.Available, e.Needed)
}

type LotService struct {
	store repository.Store
}

func NewLotService(store repository.Store) *LotService {
	return &LotService{store: store}
}

// CreateLot creates the lot and exactly MaxSpots available spots in one
// transaction.
func (s *LotService) CreateLot(ctx context.Context, dto domain.ParkingLotDTO) (*domain.ParkingLot, error) {
	if dto.Name == "" || dto.MaxSpots <= 0 {
		return nil, ErrInvalidLotSpec
	}

	var created *domain.ParkingLot
	err := s.store.InTx(ctx, func(tx repository.Store) error {
		lot := &domain.ParkingLot{
			Name:     dto.Name,
			Price:    dto.Price,
			Address:  dto.Address,
			Pincode:  dto.Pincode,
			MaxSpots: dto.MaxSpots,
		}
		var err error
		created, err = tx.Lots().Create(ctx, lot)
		if err != nil {
			return fmt.Errorf("creating lot: %w", err)
		}
		for i := 0; i < dto.MaxSpots; i++ {
			if _, err := tx.Spots().Create(ctx, &domain.ParkingSpot{
				LotID:  created.ID,
				Status: domain.StatusAvailable,
			}); err != nil {
				return fmt.Errorf("creating spot: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

// UpdateLot applies the field updates unconditionally and resizes the spot
// set. Shrinking only ever removes spots that are available and have no
// reservation history; if too few qualify nothing is changed.
func (s *LotService) UpdateLot(ctx context.Context, id int, dto domain.ParkingLotDTO) (*domain.ParkingLot, error) {
	if dto.Name == "" || dto.MaxSpots <= 0 {
		return nil, ErrInvalidLotSpec
	}

	var updated *domain.ParkingLot
	err := s.store.InTx(ctx, func(tx repository.Store) error {
		lot, err := tx.Lots().FindByID(ctx, id)
		if err != nil {
			return err
		}

		lot.Name = dto.Name
		lot.Price = dto.Price
		lot.Address = dto.Address
		lot.Pincode = dto.Pincode

		switch {
		case dto.MaxSpots > lot.MaxSpots:
			for i := 0; i < dto.MaxSpots-lot.MaxSpots; i++ {
				if _, err := tx.Spots().Create(ctx, &domain.ParkingSpot{
					LotID:  lot.ID,
					Status: domain.StatusAvailable,
				}); err != nil {
					return fmt.Errorf("creating spot: %w", err)
				}
			}
		case dto.MaxSpots < lot.MaxSpots:
			removable, err := s.removableSpots(ctx, tx, lot.ID, lot.MaxSpots-dto.MaxSpots)
			if err != nil {
				return err
			}
			for _, spotID := range removable {
				if err := tx.Spots().Delete(ctx, spotID); err != nil {
					return fmt.Errorf("deleting spot %d: %w", spotID, err)
				}
			}
		}

		lot.MaxSpots = dto.MaxSpots
		updated, err = tx.Lots().Update(ctx, lot)
		if err != nil {
			return fmt.Errorf("updating lot: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// removableSpots picks up to needed spots that are available and were never
// reserved. Returns InsufficientRemovableSpotsError when fewer qualify.
func (s *LotService) removableSpots(ctx context.Context, tx repository.Store, lotID, needed int) ([]int, error) {
	// Claim the spot rows first so a booking committing mid-shrink cannot
	// slip a reservation under a spot already judged removable.
	if err := tx.Spots().LockByLotID(ctx, lotID); err != nil {
		return nil, err
	}
	spots, err := tx.Spots().FindByLotID(ctx, lotID)
	if err != nil {
		return nil, fmt.Errorf("listing spots: %w", err)
	}

	var removable []int
	for _, spot := range spots {
		if spot.Status != domain.StatusAvailable {
			continue
		}
		count, err := tx.Reservations().CountBySpotID(ctx, spot.ID)
		if err != nil {
			return nil, fmt.Errorf("counting reservations for spot %d: %w", spot.ID, err)
		}
		if count > 0 {
			continue
		}
		removable = append(removable, spot.ID)
		if len(removable) == needed {
			return removable, nil
		}
	}
	return nil, &InsufficientRemovableSpotsError{Available: len(removable), Needed: needed}
}

// DeleteLot removes the lot, its spots and their historical reservations. The
// occupancy check and the cascading deletes share one transaction so a booking
// racing the delete makes exactly one of the two fail.
func (s *LotService) DeleteLot(ctx context.Context, id int) error {
	return s.store.InTx(ctx, func(tx repository.Store) error {
		if _, err := tx.Lots().FindByID(ctx, id); err != nil {
			return err
		}

		// Claim the spot rows before checking them; a concurrent booking
		// holds its claimed row until commit, so the checks below cannot run
		// against a state the booking is about to invalidate.
		if err := tx.Spots().LockByLotID(ctx, id); err != nil {
			return err
		}

		occupied, err := tx.Spots().CountByLotIDAndStatus(ctx, id, domain.StatusOccupied)
		if err != nil {
			return fmt.Errorf("counting occupied spots: %w", err)
		}
		if occupied > 0 {
			return fmt.Errorf("%w: %d spots are occupied", ErrLotInUse, occupied)
		}
		active, err := tx.Reservations().ExistsActiveByLotID(ctx, id)
		if err != nil {
			return fmt.Errorf("checking active reservations: %w", err)
		}
		if active {
			return fmt.Errorf("%w: some spots have active reservations", ErrLotInUse)
		}

		// Two-phase cascade: reservations, then spots, then the lot.
		spots, err := tx.Spots().FindByLotID(ctx, id)
		if err != nil {
			return fmt.Errorf("listing spots: %w", err)
		}
		for _, spot := range spots {
			if err := tx.Reservations().DeleteBySpotID(ctx, spot.ID); err != nil {
				return err
			}
			if err := tx.Spots().Delete(ctx, spot.ID); err != nil {
				return fmt.Errorf("deleting spot %d: %w", spot.ID, err)
			}
		}
		return tx.Lots().Delete(ctx, id)
	})
}

func (s *LotService) GetLot(ctx context.Context, id int) (*domain.ParkingLot, error) {
	return s.store.Lots().FindByID(ctx, id)
}

// ListLots returns every lot with its occupancy counts.
func (s *LotService) ListLots(ctx context.Context) ([]domain.LotSummary, error) {
	lots, err := s.store.Lots().FindAll(ctx)
	if err != nil {
		return nil, err
	}

	summaries := make([]domain.LotSummary, 0, len(lots))
	for _, lot := range lots {
		occupied, err := s.store.Spots().CountByLotIDAndStatus(ctx, lot.ID, domain.StatusOccupied)
		if err != nil {
			return nil, err
		}
		summaries = append(summaries, domain.LotSummary{
			ID:         lot.ID,
			Name:       lot.Name,
			Price:      lot.Price,
			Address:    lot.Address,
			Pincode:    lot.Pincode,
			TotalSpots: lot.MaxSpots,
			Occupied:   occupied,
			Available:  lot.MaxSpots - occupied,
		})
	}
	return summaries, nil
}

func (s *LotService) LotDetail(ctx context.Context, id int) (*domain.LotDetail, error) {
	lot, err := s.store.Lots().FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	spots, err := s.store.Spots().FindByLotID(ctx, id)
	if err != nil {
		return nil, err
	}

	detail := &domain.LotDetail{
		ID:         lot.ID,
		Name:       lot.Name,
		Price:      lot.Price,
		Address:    lot.Address,
		Pincode:    lot.Pincode,
		TotalSpots: lot.MaxSpots,
		Spots:      make([]domain.SpotStatusView, 0, len(spots)),
	}
	for _, spot := range spots {
		detail.Spots = append(detail.Spots, domain.SpotStatusView{ID: spot.ID, Status: spot.Status})
	}
	return detail, nil
}

func (s *LotService) GetSpot(ctx context.Context, id int) (*domain.ParkingSpot, error) {
	return s.store.Spots().FindByID(ctx, id)
}

// AdminDashboard aggregates fleet-wide occupancy and bookings per day.
func (s *LotService) AdminDashboard(ctx context.Context) (*domain.AdminDashboard, error) {
	total, err := s.store.Spots().Count(ctx)
	if err != nil {
		return nil, err
	}
	occupied, err := s.store.Spots().CountByStatus(ctx, domain.StatusOccupied)
	if err != nil {
		return nil, err
	}
	available, err := s.store.Spots().CountByStatus(ctx, domain.StatusAvailable)
	if err != nil {
		return nil, err
	}

	reservations, err := s.store.Reservations().FindAll(ctx)
	if err != nil {
		return nil, err
	}
	dayCounts := make(map[string]int)
	for _, res := range reservations {
		dayCounts[res.ParkingTimestamp.Format("2006-01-02")]++
	}

	dash := &domain.AdminDashboard{
		TotalSpots: total,
		Occupied:   occupied,
		Available:  available,
	}
	for day := range dayCounts {
		dash.BookingLabels = append(dash.BookingLabels, day)
	}
	sort.Strings(dash.BookingLabels)
	for _, day := range dash.BookingLabels {
		dash.BookingCounts = append(dash.BookingCounts, dayCounts[day])
	}
	return dash, nil
}
