package domain

import "time"

// Product moderation statuses.
const (
	ProductStatusPending = "Pending"
	ProductStatusApprove = "Approve"
	ProductStatusReject  = "Reject"
)

// Product is a catalog entry owned by a seller.
type Product struct {
	ID            string    `json:"id"`
	OwnerEmail    string    `json:"owner_email"`
	OwnerName     string    `json:"owner_name,omitempty"`
	Name          string    `json:"name"`
	Category      string    `json:"category"`
	Description   string    `json:"description,omitempty"`
	Image         string    `json:"image,omitempty"`
	Price         float64   `json:"price"`
	Quantity      int       `json:"quantity"`
	Status        string    `json:"status"`
	RatingCount   int       `json:"rating_count"`
	AverageRating float64   `json:"average_rating"`
	CreatedAt     time.Time `json:"date"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// ValidProductStatuses returns all product statuses.
func ValidProductStatuses() []string {
	return []string{ProductStatusPending, ProductStatusApprove, ProductStatusReject}
}

// IsValidProductStatus checks if status is a known product status.
func IsValidProductStatus(status string) bool {
	for _, s := range ValidProductStatuses() {
		if s == status {
			return true
		}
	}
	return false
}

// CanTransitionTo reports whether moderation may move p to target.
// Only Pending products can be decided, and both decisions are final.
func (p *Product) CanTransitionTo(target string) bool {
	return p.Status == ProductStatusPending &&
		(target == ProductStatusApprove || target == ProductStatusReject)
}

// OwnedBy reports whether email owns p.
func (p *Product) OwnedBy(email string) bool {
	return p.OwnerEmail == email
}
