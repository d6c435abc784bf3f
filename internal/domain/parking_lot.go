package domain

import "time"

type ParkingLot struct {
	ID        int       `json:"id"`
	Name      string    `json:"name"`
	Price     float64   `json:"price"`
	Address   string    `json:"address,omitempty"`
	Pincode   string    `json:"pincode,omitempty"`
	MaxSpots  int       `json:"max_spots"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type ParkingLotDTO struct {
	Name     string  `json:"name" binding:"required"`
	Price    float64 `json:"price" binding:"gte=0"`
	Address  string  `json:"address"`
	Pincode  string  `json:"pincode"`
	MaxSpots int     `json:"max_spots" binding:"required"`
}

// LotSummary is the occupancy view returned by the lot listing APIs.
type LotSummary struct {
	ID         int     `json:"id"`
	Name       string  `json:"name"`
	Price      float64 `json:"price"`
	Address    string  `json:"address"`
	Pincode    string  `json:"pincode"`
	TotalSpots int     `json:"total_spots"`
	Occupied   int     `json:"occupied"`
	Available  int     `json:"available"`
}

type LotDetail struct {
	ID         int              `json:"id"`
	Name       string           `json:"name"`
	Price      float64          `json:"price"`
	Address    string           `json:"address"`
	Pincode    string           `json:"pincode"`
	TotalSpots int              `json:"total_spots"`
	Spots      []SpotStatusView `json:"spots"`
}

type SpotStatusView struct {
	ID     int        `json:"id"`
	Status SpotStatus `json:"status"`
}

type AdminDashboard struct {
	TotalSpots    int      `json:"total_spots"`
	Occupied      int      `json:"occupied"`
	Available     int      `json:"available"`
	BookingLabels []string `json:"booking_labels"`
	BookingCounts []int    `json:"booking_counts"`
}
