package database

import "time"

type Product struct {
	Id        int
	Title     string
	Artist    string
	Genre     string
	Price     float64
	Stock     int
	ImageUrl  string
	CreatedAt time.Time
	UpdatedAt time.Time
}

type CreateProductParams struct {
	Title    string
	Artist   string
	Genre    string
	Price    float64
	Stock    int
	ImageUrl string
}

// AnalyticsSnapshot is the point-in-time metrics structure pushed to
// dashboard subscribers. Field names are the wire names.
type AnalyticsSnapshot struct {
	TotalProducts int     `json:"totalProducts"`
	TotalStock    int     `json:"totalStock"`
	TotalAccounts int     `json:"totalAccounts"`
	OrdersToday   int     `json:"ordersToday"`
	RevenueToday  float64 `json:"revenueToday"`
}
