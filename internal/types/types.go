package types

import (
	"time"
)

type User struct {
	Id       int    `json:"id"`
	Username string `json:"username"`
}

type Product struct {
	Id        int       `json:"id"`
	Title     string    `json:"title"`
	Artist    string    `json:"artist"`
	Genre     string    `json:"genre"`
	Price     float64   `json:"price"`
	Stock     int       `json:"stock"`
	ImageUrl  string    `json:"imageUrl,omitempty"`
	CreatedAt time.Time `json:"createdAt,omitempty"`
	UpdatedAt time.Time `json:"updatedAt,omitempty"`
}
