package service

import (
	"context"
	"sync"
	"testing"
	"vehicle_parking/internal/domain"
	"vehicle_parking/internal/repository"

	"github.com/stretchr/testify/require"
)

func TestCreateLotValidation(t *testing.T) {
	ctx := context.Background()
	svc := NewLotService(newTestStore(t))

	_, err := svc.CreateLot(ctx, domain.ParkingLotDTO{Name: "", MaxSpots: 3})
	require.ErrorIs(t, err, ErrInvalidLotSpec)

	_, err = svc.CreateLot(ctx, domain.ParkingLotDTO{Name: "Central", MaxSpots: 0})
	require.ErrorIs(t, err, ErrInvalidLotSpec)
}

func TestCreateLotCreatesSpots(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	svc := NewLotService(store)

	lot, err := svc.CreateLot(ctx, domain.ParkingLotDTO{Name: "Central", Price: 20, MaxSpots: 3})
	require.NoError(t, err)

	spots, err := store.Spots().FindByLotID(ctx, lot.ID)
	require.NoError(t, err)
	require.Len(t, spots, 3)
	for _, spot := range spots {
		require.Equal(t, domain.StatusAvailable, spot.Status)
	}
}

func TestUpdateLotFieldsAppliedWithoutResize(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	svc := NewLotService(store)

	lot, err := svc.CreateLot(ctx, domain.ParkingLotDTO{Name: "Central", Price: 20, MaxSpots: 2})
	require.NoError(t, err)

	updated, err := svc.UpdateLot(ctx, lot.ID, domain.ParkingLotDTO{
		Name: "Central East", Price: 25, Address: "1 Main St", Pincode: "560001", MaxSpots: 2,
	})
	require.NoError(t, err)
	require.Equal(t, "Central East", updated.Name)
	require.Equal(t, 25.0, updated.Price)
	require.Equal(t, "1 Main St", updated.Address)

	spots, err := store.Spots().FindByLotID(ctx, lot.ID)
	require.NoError(t, err)
	require.Len(t, spots, 2)
}

func TestUpdateLotGrow(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	svc := NewLotService(store)

	lot, err := svc.CreateLot(ctx, domain.ParkingLotDTO{Name: "Central", Price: 20, MaxSpots: 2})
	require.NoError(t, err)

	updated, err := svc.UpdateLot(ctx, lot.ID, domain.ParkingLotDTO{Name: "Central", Price: 20, MaxSpots: 5})
	require.NoError(t, err)
	require.Equal(t, 5, updated.MaxSpots)

	spots, err := store.Spots().FindByLotID(ctx, lot.ID)
	require.NoError(t, err)
	require.Len(t, spots, 5)
}

// Walks a lot through bookings, shrinks and a release, checking that shrinking
// never touches a spot that is occupied or was ever reserved.
func TestResizeLifecycle(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	lots := NewLotService(store)
	reservations := NewReservationService(store)

	user1 := createTestUser(t, store, "alice", domain.RoleUser)
	user2 := createTestUser(t, store, "bob", domain.RoleUser)

	lot, err := lots.CreateLot(ctx, domain.ParkingLotDTO{Name: "Central", Price: 20, MaxSpots: 3})
	require.NoError(t, err)

	res1, err := reservations.BookSpot(ctx, lot.ID, user1.ID)
	require.NoError(t, err)
	_, err = reservations.BookSpot(ctx, lot.ID, user2.ID)
	require.NoError(t, err)

	// Only the untouched third spot qualifies for removal.
	updated, err := lots.UpdateLot(ctx, lot.ID, domain.ParkingLotDTO{Name: "Central", Price: 20, MaxSpots: 2})
	require.NoError(t, err)
	require.Equal(t, 2, updated.MaxSpots)
	spots, err := store.Spots().FindByLotID(ctx, lot.ID)
	require.NoError(t, err)
	require.Len(t, spots, 2)

	// Both remaining spots are occupied: the shrink must fail untouched.
	_, err = lots.UpdateLot(ctx, lot.ID, domain.ParkingLotDTO{Name: "Central", Price: 20, MaxSpots: 1})
	var capErr *InsufficientRemovableSpotsError
	require.ErrorAs(t, err, &capErr)
	require.Equal(t, 0, capErr.Available)
	require.Equal(t, 1, capErr.Needed)

	after, err := store.Lots().FindByID(ctx, lot.ID)
	require.NoError(t, err)
	require.Equal(t, 2, after.MaxSpots)
	spots, err = store.Spots().FindByLotID(ctx, lot.ID)
	require.NoError(t, err)
	require.Len(t, spots, 2)

	released, err := reservations.ReleaseSpot(ctx, res1.ID, user1.ID)
	require.NoError(t, err)
	require.Equal(t, 20.0, released.Cost)

	// The released spot is available again but carries reservation history,
	// so it still cannot be removed.
	_, err = lots.UpdateLot(ctx, lot.ID, domain.ParkingLotDTO{Name: "Central", Price: 20, MaxSpots: 1})
	capErr = nil
	require.ErrorAs(t, err, &capErr)
	require.Equal(t, 0, capErr.Available)
	require.Equal(t, 1, capErr.Needed)
}

func TestDeleteLotGuards(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	lots := NewLotService(store)
	reservations := NewReservationService(store)
	user := createTestUser(t, store, "alice", domain.RoleUser)

	lot, err := lots.CreateLot(ctx, domain.ParkingLotDTO{Name: "Central", Price: 20, MaxSpots: 2})
	require.NoError(t, err)

	res, err := reservations.BookSpot(ctx, lot.ID, user.ID)
	require.NoError(t, err)

	err = lots.DeleteLot(ctx, lot.ID)
	require.ErrorIs(t, err, ErrLotInUse)

	_, err = reservations.ReleaseSpot(ctx, res.ID, user.ID)
	require.NoError(t, err)

	require.NoError(t, lots.DeleteLot(ctx, lot.ID))

	_, err = store.Lots().FindByID(ctx, lot.ID)
	require.ErrorIs(t, err, repository.ErrNotFound)
	spots, err := store.Spots().FindByLotID(ctx, lot.ID)
	require.NoError(t, err)
	require.Empty(t, spots)
	count, err := store.Reservations().CountBySpotID(ctx, res.SpotID)
	require.NoError(t, err)
	require.Zero(t, count)
}

func TestDeleteLotBlockedByActiveReservation(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	lots := NewLotService(store)
	user := createTestUser(t, store, "alice", domain.RoleUser)

	lot, err := lots.CreateLot(ctx, domain.ParkingLotDTO{Name: "Central", Price: 20, MaxSpots: 1})
	require.NoError(t, err)
	spots, err := store.Spots().FindByLotID(ctx, lot.ID)
	require.NoError(t, err)

	// An active reservation on an available spot must still block deletion.
	_, err = store.Reservations().Create(ctx, &domain.Reservation{
		SpotID: spots[0].ID,
		UserID: user.ID,
	})
	require.NoError(t, err)

	err = lots.DeleteLot(ctx, lot.ID)
	require.ErrorIs(t, err, ErrLotInUse)
}

func TestDeleteLotRacingBookingNeverBothSucceed(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	lots := NewLotService(store)
	reservations := NewReservationService(store)
	user := createTestUser(t, store, "alice", domain.RoleUser)

	for i := 0; i < 20; i++ {
		lot, err := lots.CreateLot(ctx, domain.ParkingLotDTO{Name: "Central", Price: 10, MaxSpots: 1})
		require.NoError(t, err)

		var bookErr, deleteErr error
		var wg sync.WaitGroup
		wg.Add(2)
		go func() {
			defer wg.Done()
			_, bookErr = reservations.BookSpot(ctx, lot.ID, user.ID)
		}()
		go func() {
			defer wg.Done()
			deleteErr = lots.DeleteLot(ctx, lot.ID)
		}()
		wg.Wait()

		// Exactly one side wins; the loser fails with its mapped error.
		switch {
		case bookErr == nil && deleteErr == nil:
			t.Fatalf("iteration %d: booking and lot delete both succeeded", i)
		case bookErr == nil:
			require.ErrorIs(t, deleteErr, ErrLotInUse)
			released, err := reservations.ActiveReservations(ctx, user.ID)
			require.NoError(t, err)
			require.NotEmpty(t, released)
			_, err = reservations.ReleaseSpot(ctx, released[0].ID, user.ID)
			require.NoError(t, err)
			require.NoError(t, lots.DeleteLot(ctx, lot.ID))
		default:
			require.ErrorIs(t, bookErr, ErrNoAvailableSpot)
			require.NoError(t, deleteErr)
		}
	}
}

func TestDeleteLotNotFound(t *testing.T) {
	ctx := context.Background()
	svc := NewLotService(newTestStore(t))
	require.ErrorIs(t, svc.DeleteLot(ctx, 404), repository.ErrNotFound)
}

func TestListLotsOccupancy(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	lots := NewLotService(store)
	reservations := NewReservationService(store)
	user := createTestUser(t, store, "alice", domain.RoleUser)

	lot, err := lots.CreateLot(ctx, domain.ParkingLotDTO{Name: "Central", Price: 20, MaxSpots: 3})
	require.NoError(t, err)
	_, err = reservations.BookSpot(ctx, lot.ID, user.ID)
	require.NoError(t, err)

	summaries, err := lots.ListLots(ctx)
	require.NoError(t, err)
	require.Len(t, summaries, 1)
	require.Equal(t, 3, summaries[0].TotalSpots)
	require.Equal(t, 1, summaries[0].Occupied)
	require.Equal(t, 2, summaries[0].Available)
}

func TestAdminDashboard(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	lots := NewLotService(store)
	reservations := NewReservationService(store)
	user := createTestUser(t, store, "alice", domain.RoleUser)

	lot, err := lots.CreateLot(ctx, domain.ParkingLotDTO{Name: "Central", Price: 20, MaxSpots: 2})
	require.NoError(t, err)
	_, err = reservations.BookSpot(ctx, lot.ID, user.ID)
	require.NoError(t, err)

	dash, err := lots.AdminDashboard(ctx)
	require.NoError(t, err)
	require.Equal(t, 2, dash.TotalSpots)
	require.Equal(t, 1, dash.Occupied)
	require.Equal(t, 1, dash.Available)
	require.Len(t, dash.BookingLabels, 1)
	require.Equal(t, []int{1}, dash.BookingCounts)
}
