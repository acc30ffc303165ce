package domain

import "time"

// Order statuses in fulfilment order.
const (
	OrderStatusPlaced     = "Placed"
	OrderStatusProcessing = "Processing"
	OrderStatusShipped    = "Shipped"
	OrderStatusDelivered  = "Delivered"
)

var orderStatusRank = map[string]int{
	OrderStatusPlaced:     0,
	OrderStatusProcessing: 1,
	OrderStatusShipped:    2,
	OrderStatusDelivered:  3,
}

// Payment is a recorded purchase. It doubles as the order sellers fulfil.
type Payment struct {
	ID            string       `json:"id"`
	Email         string       `json:"email"`
	ProductIDs    []string     `json:"product_ids"`
	CartIDs       []string     `json:"cart_ids"`
	Price         float64      `json:"price"`
	Currency      string       `json:"currency"`
	TransactionID string       `json:"transaction_id"`
	Status        string       `json:"status"`
	Delivery      DeliveryInfo `json:"delivery"`
	CreatedAt     time.Time    `json:"date"`
}

// DeliveryInfo is where the order ships to.
type DeliveryInfo struct {
	Name    string `json:"name"`
	Phone   string `json:"phone,omitempty"`
	Address string `json:"address"`
	City    string `json:"city,omitempty"`
	Country string `json:"country,omitempty"`
}

// ValidOrderStatuses returns all order statuses in fulfilment order.
func ValidOrderStatuses() []string {
	return []string{OrderStatusPlaced, OrderStatusProcessing, OrderStatusShipped, OrderStatusDelivered}
}

// IsValidOrderStatus checks if status is a known order status.
func IsValidOrderStatus(status string) bool {
	_, ok := orderStatusRank[status]
	return ok
}

// CanTransitionTo reports whether the order may move to target. Status only
// moves forward, may skip steps, and Delivered is terminal.
func (p *Payment) CanTransitionTo(target string) bool {
	from, ok := orderStatusRank[p.Status]
	if !ok {
		return false
	}
	to, ok := orderStatusRank[target]
	return ok && to > from
}

// IsDelivered reports whether the order reached its terminal status.
func (p *Payment) IsDelivered() bool {
	return p.Status == OrderStatusDelivered
}

// References reports whether the payment lists productID.
func (p *Payment) References(productID string) bool {
	for _, id := range p.ProductIDs {
		if id == productID {
			return true
		}
	}
	return false
}

// MinorUnits converts a major-unit amount to the smallest currency unit.
func MinorUnits(amount float64) int64 {
	if amount < 0 {
		return -int64(-amount*100 + 0.5)
	}
	return int64(amount*100 + 0.5)
}
