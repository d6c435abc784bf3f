// Package memory implements repository.Store over process-local maps. It backs
// the unit tests and mirrors the transactional semantics of the postgresql
// store: InTx serializes writers and rolls every change back when fn fails.
package memory

import (
	"context"
	"fmt"
	"maps"
	"sort"
	"sync"
	"time"
	"vehicle_parking/internal/domain"
	"vehicle_parking/internal/repository"
)

type data struct {
	users        map[int]domain.User
	lots         map[int]domain.ParkingLot
	spots        map[int]domain.ParkingSpot
	reservations map[int]domain.Reservation

	nextUserID        int
	nextLotID         int
	nextSpotID        int
	nextReservationID int
}

func (d *data) clone() *data {
	return &data{
		users:             maps.Clone(d.users),
		lots:              maps.Clone(d.lots),
		spots:             maps.Clone(d.spots),
		reservations:      maps.Clone(d.reservations),
		nextUserID:        d.nextUserID,
		nextLotID:         d.nextLotID,
		nextSpotID:        d.nextSpotID,
		nextReservationID: d.nextReservationID,
	}
}

type Store struct {
	mu   sync.Mutex
	d    *data
	inTx bool
}

func NewStore() *Store {
	return &Store{d: &data{
		users:             make(map[int]domain.User),
		lots:              make(map[int]domain.ParkingLot),
		spots:             make(map[int]domain.ParkingSpot),
		reservations:      make(map[int]domain.Reservation),
		nextUserID:        1,
		nextLotID:         1,
		nextSpotID:        1,
		nextReservationID: 1,
	}}
}

func (s *Store) Users() repository.UserRepository               { return &userRepo{s} }
func (s *Store) Lots() repository.ParkingLotRepository          { return &lotRepo{s} }
func (s *Store) Spots() repository.ParkingSpotRepository        { return &spotRepo{s} }
func (s *Store) Reservations() repository.ReservationRepository { return &reservationRepo{s} }

func (s *Store) InTx(_ context.Context, fn func(repository.Store) error) error {
	if s.inTx {
		return fn(s)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	snapshot := s.d.clone()
	tx := &Store{d: s.d, inTx: true}
	if err := fn(tx); err != nil {
		*s.d = *snapshot
		return err
	}
	return nil
}

// lock guards single operations issued outside a transaction. Inside InTx the
// store mutex is already held.
func (s *Store) lock() func() {
	if s.inTx {
		return func() {}
	}
	s.mu.Lock()
	return s.mu.Unlock
}

type userRepo struct{ s *Store }

func (r *userRepo) Create(_ context.Context, user *domain.User) (*domain.User, error) {
	defer r.s.lock()()
	d := r.s.d
	for _, u := range d.users {
		if u.Username == user.Username {
			return nil, fmt.Errorf("%w: username '%s' is taken", repository.ErrDuplicateEntry, user.Username)
		}
	}
	user.ID = d.nextUserID
	d.nextUserID++
	now := time.Now().UTC()
	user.CreatedAt = now
	user.UpdatedAt = now
	d.users[user.ID] = *user
	return user, nil
}

func (r *userRepo) FindByUsername(_ context.Context, username string) (*domain.User, error) {
	defer r.s.lock()()
	for _, u := range r.s.d.users {
		if u.Username == username {
			found := u
			return &found, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *userRepo) FindByID(_ context.Context, id int) (*domain.User, error) {
	defer r.s.lock()()
	u, ok := r.s.d.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &u, nil
}

func (r *userRepo) FindFirstByRole(_ context.Context, role string) (*domain.User, error) {
	defer r.s.lock()()
	for _, id := range sortedIDs(r.s.d.users) {
		if u := r.s.d.users[id]; u.Role == role {
			return &u, nil
		}
	}
	return nil, repository.ErrNotFound
}

type lotRepo struct{ s *Store }

func (r *lotRepo) Create(_ context.Context, lot *domain.ParkingLot) (*domain.ParkingLot, error) {
	defer r.s.lock()()
	d := r.s.d
	lot.ID = d.nextLotID
	d.nextLotID++
	now := time.Now().UTC()
	lot.CreatedAt = now
	lot.UpdatedAt = now
	d.lots[lot.ID] = *lot
	return lot, nil
}

func (r *lotRepo) FindByID(_ context.Context, id int) (*domain.ParkingLot, error) {
	defer r.s.lock()()
	lot, ok := r.s.d.lots[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &lot, nil
}

func (r *lotRepo) FindAll(_ context.Context) ([]domain.ParkingLot, error) {
	defer r.s.lock()()
	var lots []domain.ParkingLot
	for _, id := range sortedIDs(r.s.d.lots) {
		lots = append(lots, r.s.d.lots[id])
	}
	return lots, nil
}

func (r *lotRepo) Update(_ context.Context, lot *domain.ParkingLot) (*domain.ParkingLot, error) {
	defer r.s.lock()()
	if _, ok := r.s.d.lots[lot.ID]; !ok {
		return nil, repository.ErrNotFound
	}
	lot.UpdatedAt = time.Now().UTC()
	r.s.d.lots[lot.ID] = *lot
	return lot, nil
}

func (r *lotRepo) Delete(_ context.Context, id int) error {
	defer r.s.lock()()
	if _, ok := r.s.d.lots[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.s.d.lots, id)
	return nil
}

type spotRepo struct{ s *Store }

func (r *spotRepo) Create(_ context.Context, spot *domain.ParkingSpot) (*domain.ParkingSpot, error) {
	defer r.s.lock()()
	d := r.s.d
	spot.ID = d.nextSpotID
	d.nextSpotID++
	d.spots[spot.ID] = *spot
	return spot, nil
}

func (r *spotRepo) FindByID(_ context.Context, id int) (*domain.ParkingSpot, error) {
	defer r.s.lock()()
	spot, ok := r.s.d.spots[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &spot, nil
}

func (r *spotRepo) FindByLotID(_ context.Context, lotID int) ([]domain.ParkingSpot, error) {
	defer r.s.lock()()
	var spots []domain.ParkingSpot
	for _, id := range sortedIDs(r.s.d.spots) {
		if spot := r.s.d.spots[id]; spot.LotID == lotID {
			spots = append(spots, spot)
		}
	}
	return spots, nil
}

func (r *spotRepo) FirstAvailableByLotID(_ context.Context, lotID int) (*domain.ParkingSpot, error) {
	defer r.s.lock()()
	for _, id := range sortedIDs(r.s.d.spots) {
		spot := r.s.d.spots[id]
		if spot.LotID == lotID && spot.Status == domain.StatusAvailable {
			return &spot, nil
		}
	}
	return nil, repository.ErrNotFound
}

// LockByLotID is a no-op here: the store mutex already serializes whole
// transactions, which also means the cross-transaction races the postgresql
// implementation guards against cannot be reproduced on this store.
func (r *spotRepo) LockByLotID(_ context.Context, _ int) error {
	return nil
}

func (r *spotRepo) UpdateStatus(_ context.Context, id int, status domain.SpotStatus) error {
	defer r.s.lock()()
	spot, ok := r.s.d.spots[id]
	if !ok {
		return repository.ErrNotFound
	}
	spot.Status = status
	r.s.d.spots[id] = spot
	return nil
}

func (r *spotRepo) CountByLotIDAndStatus(_ context.Context, lotID int, status domain.SpotStatus) (int, error) {
	defer r.s.lock()()
	count := 0
	for _, spot := range r.s.d.spots {
		if spot.LotID == lotID && spot.Status == status {
			count++
		}
	}
	return count, nil
}

func (r *spotRepo) CountByStatus(_ context.Context, status domain.SpotStatus) (int, error) {
	defer r.s.lock()()
	count := 0
	for _, spot := range r.s.d.spots {
		if spot.Status == status {
			count++
		}
	}
	return count, nil
}

func (r *spotRepo) Count(_ context.Context) (int, error) {
	defer r.s.lock()()
	return len(r.s.d.spots), nil
}

func (r *spotRepo) Delete(_ context.Context, id int) error {
	defer r.s.lock()()
	if _, ok := r.s.d.spots[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.s.d.spots, id)
	return nil
}

type reservationRepo struct{ s *Store }

func (r *reservationRepo) Create(_ context.Context, res *domain.Reservation) (*domain.Reservation, error) {
	defer r.s.lock()()
	d := r.s.d
	res.ID = d.nextReservationID
	d.nextReservationID++
	d.reservations[res.ID] = *res
	return res, nil
}

func (r *reservationRepo) FindByID(_ context.Context, id int) (*domain.Reservation, error) {
	defer r.s.lock()()
	res, ok := r.s.d.reservations[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &res, nil
}

func (r *reservationRepo) Update(_ context.Context, res *domain.Reservation) (*domain.Reservation, error) {
	defer r.s.lock()()
	if _, ok := r.s.d.reservations[res.ID]; !ok {
		return nil, repository.ErrNotFound
	}
	r.s.d.reservations[res.ID] = *res
	return res, nil
}

func (r *reservationRepo) ListByUserID(_ context.Context, userID int, activeOnly bool) ([]domain.ReservationDetail, error) {
	defer r.s.lock()()
	d := r.s.d
	var details []domain.ReservationDetail
	for _, res := range d.reservations {
		if res.UserID != userID {
			continue
		}
		if activeOnly && !res.Active() {
			continue
		}
		detail := domain.ReservationDetail{Reservation: res}
		if spot, ok := d.spots[res.SpotID]; ok {
			if lot, ok := d.lots[spot.LotID]; ok {
				detail.LotID = lot.ID
				detail.LotName = lot.Name
			}
		}
		details = append(details, detail)
	}
	sort.Slice(details, func(i, j int) bool {
		if details[i].ParkingTimestamp.Equal(details[j].ParkingTimestamp) {
			return details[i].ID > details[j].ID
		}
		return details[i].ParkingTimestamp.After(details[j].ParkingTimestamp)
	})
	return details, nil
}

func (r *reservationRepo) CountBySpotID(_ context.Context, spotID int) (int, error) {
	defer r.s.lock()()
	count := 0
	for _, res := range r.s.d.reservations {
		if res.SpotID == spotID {
			count++
		}
	}
	return count, nil
}

func (r *reservationRepo) ExistsActiveByLotID(_ context.Context, lotID int) (bool, error) {
	defer r.s.lock()()
	d := r.s.d
	for _, res := range d.reservations {
		if !res.Active() {
			continue
		}
		if spot, ok := d.spots[res.SpotID]; ok && spot.LotID == lotID {
			return true, nil
		}
	}
	return false, nil
}

func (r *reservationRepo) DeleteBySpotID(_ context.Context, spotID int) error {
	defer r.s.lock()()
	for id, res := range r.s.d.reservations {
		if res.SpotID == spotID {
			delete(r.s.d.reservations, id)
		}
	}
	return nil
}

func (r *reservationRepo) FindAll(_ context.Context) ([]domain.Reservation, error) {
	defer r.s.lock()()
	var reservations []domain.Reservation
	for _, id := range sortedIDs(r.s.d.reservations) {
		reservations = append(reservations, r.s.d.reservations[id])
	}
	return reservations, nil
}

func sortedIDs[V any](m map[int]V) []int {
	ids := make([]int, 0, len(m))
	for id := range m {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}
