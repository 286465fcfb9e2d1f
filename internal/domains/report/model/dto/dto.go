package dto

type OccupancyDay struct {
	Date     string  `json:"date"`
	Occupied int     `json:"occupied"`
	Total    int     `json:"total"`
	Rate     float64 `json:"rate"`
}

type OccupancyReportResponse struct {
	StartDate string         `json:"start_date"`
	Days      int            `json:"days"`
	Rows      []OccupancyDay `json:"rows"`
}

// RoomPerformanceRow aggregates one room. AvgOccupancyRate is the share of
// nights the room was occupied within the window spanned by the scanned
// bookings, counting each night once however many records cover it.
type RoomPerformanceRow struct {
	RoomID           string  `json:"room_id"`
	Number           string  `json:"number"`
	Bookings         int     `json:"bookings"`
	Revenue          float64 `json:"revenue"`
	TotalNights      int     `json:"total_nights"`
	AvgStayNights    float64 `json:"avg_stay_nights"`
	AvgOccupancyRate float64 `json:"avg_occupancy_rate"`
}

type RoomPerformanceResponse struct {
	Rows []RoomPerformanceRow `json:"rows"`
}

type MonthRevenue struct {
	Month    string  `json:"month"`
	Bookings int     `json:"bookings"`
	Revenue  float64 `json:"revenue"`
}

type FinancialSummaryResponse struct {
	FromDate     string         `json:"from_date"`
	ToDate       string         `json:"to_date"`
	TotalRevenue float64        `json:"total_revenue"`
	Months       []MonthRevenue `json:"months"`
}

type ExportResponse struct {
	URL string `json:"url"`
}
