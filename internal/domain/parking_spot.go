package domain

type SpotStatus string

const (
	StatusAvailable SpotStatus = "available"
	StatusOccupied  SpotStatus = "occupied"
)

type ParkingSpot struct {
	ID     int        `json:"id"`
	LotID  int        `json:"lot_id"`
	Status SpotStatus `json:"status"`
}
