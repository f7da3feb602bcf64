// Package store holds the store and rating domain model and its SQLite
// persistence. Rating aggregates (average, count) are maintained
// transactionally alongside each submitted rating so reads never pay for
// an aggregation scan.
package store

import (
	"errors"
	"time"
)

// Store represents a rateable store listing.
type Store struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Address     string    `json:"address"`
	OwnerID     string    `json:"owner_id,omitempty"`
	AvgRating   float64   `json:"avg_rating"`
	RatingCount int       `json:"rating_count"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Rating is one user's rating of one store. A user holds at most one
// rating per store; re-submitting replaces the previous value.
type Rating struct {
	UserID    string    `json:"user_id"`
	StoreID   string    `json:"store_id"`
	Value     int       `json:"value"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Rating value bounds.
const (
	MinRating = 1
	MaxRating = 5
)

// IsValidRating returns true if the value is within the accepted range.
func IsValidRating(value int) bool {
	return value >= MinRating && value <= MaxRating
}

// Sentinel errors for store operations.
var (
	ErrStoreNotFound  = errors.New("store not found")
	ErrRatingNotFound = errors.New("rating not found")
	ErrInvalidRating  = errors.New("rating value out of range")
)
