package domain

import (
	"math"
	"time"
)

// Rating bounds.
const (
	MinRating = 1
	MaxRating = 5
)

// Review rates one or more products at once.
type Review struct {
	ID          string    `json:"id"`
	ProductIDs  []string  `json:"product_ids"`
	Rating      int       `json:"rating"`
	AuthorEmail string    `json:"author_email"`
	AuthorName  string    `json:"author_name,omitempty"`
	Comment     string    `json:"comment,omitempty"`
	CreatedAt   time.Time `json:"date"`
}

// RatingSummary is the denormalized rating state stored on a product.
type RatingSummary struct {
	ProductID string  `json:"product_id"`
	Count     int     `json:"rating_count"`
	Average   float64 `json:"average_rating"`
}

// SummarizeRatings computes the count and one-decimal mean of ratings. An
// empty input yields a zero summary.
func SummarizeRatings(productID string, ratings []int) RatingSummary {
	s := RatingSummary{ProductID: productID, Count: len(ratings)}
	if len(ratings) == 0 {
		return s
	}
	var sum int
	for _, r := range ratings {
		sum += r
	}
	s.Average = RoundRating(float64(sum) / float64(len(ratings)))
	return s
}

// RoundRating rounds to one decimal, halves away from zero.
func RoundRating(v float64) float64 {
	return math.Round(v*10) / 10
}
