package domain

import "time"

// Item is a stored inventory row.
type Item struct {
	ID          string
	Name        string
	Category    string
	Quantity    int64
	Price       float64
	Description string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
