package domain

import "time"

// CartItem is one product in a customer's cart. It is removed when a payment
// lists it or when the owner deletes it.
type CartItem struct {
	ID         string    `json:"id"`
	OwnerEmail string    `json:"owner_email"`
	ProductID  string    `json:"product_id"`
	Quantity   int       `json:"quantity"`
	CreatedAt  time.Time `json:"created_at"`
}

// WishlistItem is a product a customer saved for later.
type WishlistItem struct {
	ID         string    `json:"id"`
	OwnerEmail string    `json:"owner_email"`
	ProductID  string    `json:"product_id"`
	CreatedAt  time.Time `json:"created_at"`
}
