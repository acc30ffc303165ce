package repository

import "github.com/utafrali/shopper/internal/domain"

// OrderState selects seller orders by fulfilment.
type OrderState string

const (
	OrderStateAll     OrderState = ""
	OrderStateNew     OrderState = "new"
	OrderStateHistory OrderState = "history"
)

// ParseOrderState accepts "", "new" and "history".
func ParseOrderState(s string) (OrderState, bool) {
	switch OrderState(s) {
	case OrderStateAll, OrderStateNew, OrderStateHistory:
		return OrderState(s), true
	}
	return "", false
}

// SellerOrderPlan is the storage-neutral join behind seller orders and
// statistics: payments, unwound by product reference, joined to products
// owned by SellerEmail, optionally filtered on delivery.
type SellerOrderPlan struct {
	SellerEmail string
	State       OrderState
}

// NewSellerOrderPlan builds a plan for seller.
func NewSellerOrderPlan(seller string, state OrderState) SellerOrderPlan {
	return SellerOrderPlan{SellerEmail: seller, State: state}
}

// Keeps reports whether a payment in status passes the state filter.
func (p SellerOrderPlan) Keeps(status string) bool {
	switch p.State {
	case OrderStateNew:
		return status != domain.OrderStatusDelivered
	case OrderStateHistory:
		return status == domain.OrderStatusDelivered
	default:
		return true
	}
}
