package domain

import (
	"sort"
	"time"
)

// Counting bases for seller statistics. A payment holding two products of the
// same seller is two line items but one order.
const (
	BasisLine  = "line"
	BasisOrder = "order"
)

// SellerLine is one payment joined to one seller-owned product it references.
// A payment listing the same seller's products twice yields two lines.
type SellerLine struct {
	Payment     Payment
	ProductID   string
	ProductName string
}

// ProductRef names a product inside a seller order.
type ProductRef struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// SellerOrder is a payment with the seller's products it contains.
type SellerOrder struct {
	Payment
	Products []ProductRef `json:"products"`
}

// GroupSellerOrders folds lines into one order per payment, keeping the order
// in which payments first appear.
func GroupSellerOrders(lines []SellerLine) []SellerOrder {
	orders := make([]SellerOrder, 0)
	index := make(map[string]int)
	for _, l := range lines {
		i, ok := index[l.Payment.ID]
		if !ok {
			i = len(orders)
			index[l.Payment.ID] = i
			orders = append(orders, SellerOrder{Payment: l.Payment})
		}
		orders[i].Products = append(orders[i].Products, ProductRef{ID: l.ProductID, Name: l.ProductName})
	}
	return orders
}

// ActivityTotals are the counters for one basis.
type ActivityTotals struct {
	TotalOrders int     `json:"totalOrders"`
	TotalSales  int     `json:"totalSales"`
	TotalProfit float64 `json:"totalProfit"`
}

// SellerActivity is the seller dashboard summary on both bases.
type SellerActivity struct {
	TotalProducts int            `json:"totalProducts"`
	PerLineItem   ActivityTotals `json:"per_line_item"`
	PerOrder      ActivityTotals `json:"per_order"`
}

// ComputeSellerActivity totals lines. Orders count every row, sales count
// delivered rows and profit sums the payment price of every row.
func ComputeSellerActivity(totalProducts int, lines []SellerLine) SellerActivity {
	a := SellerActivity{TotalProducts: totalProducts}
	seen := make(map[string]bool)
	for _, l := range lines {
		addLine(&a.PerLineItem, l.Payment)
		if seen[l.Payment.ID] {
			continue
		}
		seen[l.Payment.ID] = true
		addLine(&a.PerOrder, l.Payment)
	}
	return a
}

func addLine(t *ActivityTotals, p Payment) {
	t.TotalOrders++
	if p.IsDelivered() {
		t.TotalSales++
	}
	t.TotalProfit += p.Price
}

// MonthlyStat is one point of the seller chart.
type MonthlyStat struct {
	Label  string `json:"month"`
	Year   int    `json:"year"`
	Month  int    `json:"month_number"`
	Sales  int    `json:"sales"`
	Orders int    `json:"orders"`
}

// MonthlyChart groups lines by the UTC calendar month of the payment date.
// Sales are delivered payments, orders the rest. On BasisOrder each payment
// counts once.
func MonthlyChart(lines []SellerLine, basis string) []MonthlyStat {
	type key struct {
		year  int
		month time.Month
	}
	buckets := make(map[key]*MonthlyStat)
	seen := make(map[string]bool)

	for _, l := range lines {
		if basis == BasisOrder {
			if seen[l.Payment.ID] {
				continue
			}
			seen[l.Payment.ID] = true
		}
		d := l.Payment.CreatedAt.UTC()
		k := key{d.Year(), d.Month()}
		b, ok := buckets[k]
		if !ok {
			b = &MonthlyStat{
				Label: d.Format("Jan 2006"),
				Year:  d.Year(),
				Month: int(d.Month()),
			}
			buckets[k] = b
		}
		if l.Payment.IsDelivered() {
			b.Sales++
		} else {
			b.Orders++
		}
	}

	out := make([]MonthlyStat, 0, len(buckets))
	for _, b := range buckets {
		out = append(out, *b)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Year != out[j].Year {
			return out[i].Year < out[j].Year
		}
		return out[i].Month < out[j].Month
	})
	return out
}

// ProductCount is how many times payments referenced a product.
type ProductCount struct {
	ProductID string `json:"product_id"`
	Count     int    `json:"count"`
}

// TopSellingProduct is a product with its sale count.
type TopSellingProduct struct {
	Product
	Sold int `json:"sold"`
}

// TopSelling tallies product references across payments, given in date
// order, and returns the limit most referenced. Equal counts keep the order
// in which products were first seen.
func TopSelling(refs [][]string, limit int) []ProductCount {
	counts := make([]ProductCount, 0)
	index := make(map[string]int)
	for _, ids := range refs {
		for _, id := range ids {
			i, ok := index[id]
			if !ok {
				i = len(counts)
				index[id] = i
				counts = append(counts, ProductCount{ProductID: id})
			}
			counts[i].Count++
		}
	}

	sort.SliceStable(counts, func(i, j int) bool {
		return counts[i].Count > counts[j].Count
	})
	if limit >= 0 && len(counts) > limit {
		counts = counts[:limit]
	}
	return counts
}
