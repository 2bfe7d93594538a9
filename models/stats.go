package models

// WorkstationStats summarizes workstation occupancy
type WorkstationStats struct {
	TotalWorkstations     int    `json:"totalWorkstations"`
	BoundWorkstations     int    `json:"boundWorkstations"`
	AvailableWorkstations int    `json:"availableWorkstations"`
	OccupancyRate         string `json:"occupancyRate"`
	UniqueUsers           int    `json:"uniqueUsers"`
	TotalCost             int64  `json:"totalCost"`
}

// BindingTotals is the raw aggregate read from storage
type BindingTotals struct {
	Bound       int
	UniqueUsers int
	TotalCost   int64
}
