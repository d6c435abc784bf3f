package domain

import (
	"time"

	"gopkg.in/guregu/null.v4"
)

type Reservation struct {
	ID               int       `json:"id"`
	SpotID           int       `json:"spot_id"`
	UserID           int       `json:"user_id"`
	ParkingTimestamp time.Time `json:"parking_timestamp"`
	LeavingTimestamp null.Time `json:"leaving_timestamp"`
	Cost             float64   `json:"cost"`
}

// Active reports whether the reservation has not been released yet.
func (r Reservation) Active() bool {
	return !r.LeavingTimestamp.Valid
}

// ReservationDetail joins a reservation with the lot its spot belongs to.
type ReservationDetail struct {
	Reservation
	LotID   int    `json:"lot_id"`
	LotName string `json:"lot_name"`
}

type UserDashboard struct {
	ActiveCount  int                 `json:"active_count"`
	HistoryCount int                 `json:"history_count"`
	TotalCost    float64             `json:"total_cost"`
	Recent       []ReservationDetail `json:"recent_reservations"`
	ChartLabels  []string            `json:"chart_labels"`
	ChartData    []float64           `json:"chart_data"`
}
