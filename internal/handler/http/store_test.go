package http

import (
	"context"
	"sort"
	"sync"

	"github.com/utafrali/shopper/internal/domain"
	"github.com/utafrali/shopper/internal/repository"
	apperrors "github.com/utafrali/shopper/pkg/errors"
)

// memStore is an in-memory backend implementing every repository so router
// tests can exercise whole request flows.
type memStore struct {
	mu        sync.Mutex
	users     map[string]domain.User
	products  map[string]domain.Product
	carts     map[string]domain.CartItem
	wishlists map[string]domain.WishlistItem
	payments  []domain.Payment
	reviews   []domain.Review
	blogs     map[string]domain.BlogPost
}

func newMemStore() *memStore {
	return &memStore{
		users:     map[string]domain.User{},
		products:  map[string]domain.Product{},
		carts:     map[string]domain.CartItem{},
		wishlists: map[string]domain.WishlistItem{},
		blogs:     map[string]domain.BlogPost{},
	}
}

func (s *memStore) store() *repository.Store {
	return &repository.Store{
		Users:         memUsers{s},
		Products:      memProducts{s},
		Carts:         memCarts{s},
		Wishlists:     memWishlists{s},
		Payments:      memPayments{s},
		Reviews:       memReviews{s},
		Blogs:         memBlogs{s},
		Transactional: true,
	}
}

type memUsers struct{ s *memStore }

func (r memUsers) CreateIfAbsent(_ context.Context, u *domain.User) (*domain.User, bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if existing, ok := r.s.users[u.Email]; ok {
		return &existing, false, nil
	}
	r.s.users[u.Email] = *u
	return u, true, nil
}

func (r memUsers) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	u, ok := r.s.users[email]
	if !ok {
		return nil, apperrors.NotFound("user", email)
	}
	return &u, nil
}

func (r memUsers) List(context.Context) ([]domain.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := []domain.User{}
	for _, u := range r.s.users {
		out = append(out, u)
	}
	return out, nil
}

func (r memUsers) UpdateRole(_ context.Context, email, role string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	u, ok := r.s.users[email]
	if !ok {
		return apperrors.NotFound("user", email)
	}
	u.Role = role
	r.s.users[email] = u
	return nil
}

type memProducts struct{ s *memStore }

func (r memProducts) Create(_ context.Context, p *domain.Product) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.products[p.ID] = *p
	return nil
}

func (r memProducts) GetByID(_ context.Context, id string) (*domain.Product, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	p, ok := r.s.products[id]
	if !ok {
		return nil, apperrors.NotFound("product", id)
	}
	return &p, nil
}

func (r memProducts) GetByIDs(_ context.Context, ids []string) ([]domain.Product, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := []domain.Product{}
	for _, id := range ids {
		if p, ok := r.s.products[id]; ok {
			out = append(out, p)
		}
	}
	return out, nil
}

func (r memProducts) Update(_ context.Context, p *domain.Product) error {
	return r.Create(context.Background(), p)
}

func (r memProducts) Delete(_ context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	delete(r.s.products, id)
	return nil
}

func (r memProducts) all(keep func(domain.Product) bool) []domain.Product {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := []domain.Product{}
	for _, p := range r.s.products {
		if keep(p) {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out
}

func (r memProducts) List(_ context.Context, f domain.ProductFilter) ([]domain.Product, int, error) {
	out := r.all(func(p domain.Product) bool { return f.Matches(&p) })
	switch f.Sort {
	case domain.SortPriceLow:
		sort.SliceStable(out, func(i, j int) bool { return out[i].Price < out[j].Price })
	case domain.SortPriceHigh:
		sort.SliceStable(out, func(i, j int) bool { return out[i].Price > out[j].Price })
	}
	total := len(out)
	if f.Paginated() {
		start := min(f.Offset(), total)
		end := min(start+f.PerPage, total)
		out = out[start:end]
	}
	return out, total, nil
}

func (r memProducts) Latest(_ context.Context, limit int) ([]domain.Product, error) {
	out := r.all(func(p domain.Product) bool { return p.Status == domain.ProductStatusApprove })
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r memProducts) ListByOwner(_ context.Context, email string) ([]domain.Product, error) {
	return r.all(func(p domain.Product) bool { return p.OwnerEmail == email }), nil
}

func (r memProducts) CountByOwner(ctx context.Context, email string) (int, error) {
	out, _ := r.ListByOwner(ctx, email)
	return len(out), nil
}

func (r memProducts) ListByStatus(_ context.Context, status string) ([]domain.Product, error) {
	return r.all(func(p domain.Product) bool { return status == "" || p.Status == status }), nil
}

func (r memProducts) UpdateStatus(_ context.Context, id, from, to string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	p, ok := r.s.products[id]
	if !ok {
		return apperrors.NotFound("product", id)
	}
	if p.Status != from {
		return apperrors.Conflict("status changed")
	}
	p.Status = to
	r.s.products[id] = p
	return nil
}

type memCarts struct{ s *memStore }

func (r memCarts) Create(_ context.Context, item *domain.CartItem) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.carts[item.ID] = *item
	return nil
}

func (r memCarts) GetByID(_ context.Context, id string) (*domain.CartItem, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	c, ok := r.s.carts[id]
	if !ok {
		return nil, apperrors.NotFound("cart item", id)
	}
	return &c, nil
}

func (r memCarts) ListByOwner(_ context.Context, email string) ([]domain.CartItem, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := []domain.CartItem{}
	for _, c := range r.s.carts {
		if c.OwnerEmail == email {
			out = append(out, c)
		}
	}
	return out, nil
}

func (r memCarts) UpdateQuantity(_ context.Context, id string, quantity int) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	c := r.s.carts[id]
	c.Quantity = quantity
	r.s.carts[id] = c
	return nil
}

func (r memCarts) Delete(_ context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	delete(r.s.carts, id)
	return nil
}

func (r memCarts) DeleteByIDs(_ context.Context, owner string, ids []string) (int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return r.s.deleteCarts(owner, ids), nil
}

func (s *memStore) deleteCarts(owner string, ids []string) int {
	n := 0
	for _, id := range ids {
		if c, ok := s.carts[id]; ok && c.OwnerEmail == owner {
			delete(s.carts, id)
			n++
		}
	}
	return n
}

type memWishlists struct{ s *memStore }

func (r memWishlists) Create(_ context.Context, item *domain.WishlistItem) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, w := range r.s.wishlists {
		if w.OwnerEmail == item.OwnerEmail && w.ProductID == item.ProductID {
			return apperrors.AlreadyExists("wishlist item", "product_id", item.ProductID)
		}
	}
	r.s.wishlists[item.ID] = *item
	return nil
}

func (r memWishlists) GetByID(_ context.Context, id string) (*domain.WishlistItem, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	w, ok := r.s.wishlists[id]
	if !ok {
		return nil, apperrors.NotFound("wishlist item", id)
	}
	return &w, nil
}

func (r memWishlists) ListByOwner(_ context.Context, email string) ([]domain.WishlistItem, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := []domain.WishlistItem{}
	for _, w := range r.s.wishlists {
		if w.OwnerEmail == email {
			out = append(out, w)
		}
	}
	return out, nil
}

func (r memWishlists) Delete(_ context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	delete(r.s.wishlists, id)
	return nil
}

type memPayments struct{ s *memStore }

func (r memPayments) Record(_ context.Context, p *domain.Payment) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, existing := range r.s.payments {
		if existing.TransactionID == p.TransactionID {
			return apperrors.AlreadyExists("payment", "transaction_id", p.TransactionID)
		}
	}
	r.s.payments = append(r.s.payments, *p)
	r.s.deleteCarts(p.Email, p.CartIDs)
	return nil
}

func (r memPayments) GetByID(_ context.Context, id string) (*domain.Payment, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, p := range r.s.payments {
		if p.ID == id {
			return &p, nil
		}
	}
	return nil, apperrors.NotFound("payment", id)
}

func (r memPayments) GetByTransactionID(_ context.Context, txID string) (*domain.Payment, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, p := range r.s.payments {
		if p.TransactionID == txID {
			return &p, nil
		}
	}
	return nil, apperrors.NotFound("payment", txID)
}

func (r memPayments) ListByEmail(_ context.Context, email string) ([]domain.Payment, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := []domain.Payment{}
	for _, p := range r.s.payments {
		if p.Email == email {
			out = append(out, p)
		}
	}
	return out, nil
}

func (r memPayments) UpdateStatus(_ context.Context, id, status string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for i := range r.s.payments {
		if r.s.payments[i].ID == id {
			r.s.payments[i].Status = status
			return nil
		}
	}
	return apperrors.NotFound("payment", id)
}

func (r memPayments) ProductRefs(context.Context) ([][]string, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := [][]string{}
	for _, p := range r.s.payments {
		out = append(out, p.ProductIDs)
	}
	return out, nil
}

func (r memPayments) SellerLines(_ context.Context, plan repository.SellerOrderPlan) ([]domain.SellerLine, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	lines := []domain.SellerLine{}
	for i := len(r.s.payments) - 1; i >= 0; i-- {
		p := r.s.payments[i]
		if !plan.Keeps(p.Status) {
			continue
		}
		for _, id := range p.ProductIDs {
			if pr, ok := r.s.products[id]; ok && pr.OwnerEmail == plan.SellerEmail {
				lines = append(lines, domain.SellerLine{Payment: p, ProductID: id, ProductName: pr.Name})
			}
		}
	}
	return lines, nil
}

type memReviews struct{ s *memStore }

func (r memReviews) Ingest(ctx context.Context, rv *domain.Review) ([]domain.RatingSummary, error) {
	r.s.mu.Lock()
	r.s.reviews = append(r.s.reviews, *rv)
	r.s.mu.Unlock()

	out := []domain.RatingSummary{}
	for _, id := range rv.ProductIDs {
		s, err := r.Recompute(ctx, id)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, nil
}

func (r memReviews) Recompute(_ context.Context, productID string) (domain.RatingSummary, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var ratings []int
	for _, rv := range r.s.reviews {
		for _, id := range rv.ProductIDs {
			if id == productID {
				ratings = append(ratings, rv.Rating)
			}
		}
	}
	s := domain.SummarizeRatings(productID, ratings)
	if p, ok := r.s.products[productID]; ok {
		p.RatingCount, p.AverageRating = s.Count, s.Average
		r.s.products[productID] = p
	}
	return s, nil
}

func (r memReviews) ListByProduct(_ context.Context, productID string) ([]domain.Review, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := []domain.Review{}
	for _, rv := range r.s.reviews {
		for _, id := range rv.ProductIDs {
			if id == productID {
				out = append(out, rv)
				break
			}
		}
	}
	return out, nil
}

type memBlogs struct{ s *memStore }

func (r memBlogs) Create(_ context.Context, b *domain.BlogPost) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.blogs[b.ID] = *b
	return nil
}

func (r memBlogs) GetByID(_ context.Context, id string) (*domain.BlogPost, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	b, ok := r.s.blogs[id]
	if !ok {
		return nil, apperrors.NotFound("blog", id)
	}
	return &b, nil
}

func (r memBlogs) List(context.Context) ([]domain.BlogPost, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := []domain.BlogPost{}
	for _, b := range r.s.blogs {
		out = append(out, b)
	}
	return out, nil
}

func (r memBlogs) Delete(_ context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.blogs[id]; !ok {
		return apperrors.NotFound("blog", id)
	}
	delete(r.s.blogs, id)
	return nil
}

// memKeys is an in-memory payment idempotency store.
type memKeys struct {
	mu   sync.Mutex
	keys map[string]string
}

func (k *memKeys) Reserve(_ context.Context, key string) (string, bool, error) {
	k.mu.Lock()
	defer k.mu.Unlock()
	v, ok := k.keys[key]
	switch {
	case !ok:
		k.keys[key] = ""
		return "", true, nil
	case v == "":
		return "", false, apperrors.Conflict("payment submission in progress")
	default:
		return v, false, nil
	}
}

func (k *memKeys) Complete(_ context.Context, key, paymentID string) error {
	k.mu.Lock()
	defer k.mu.Unlock()
	k.keys[key] = paymentID
	return nil
}

func (k *memKeys) Release(_ context.Context, key string) error {
	k.mu.Lock()
	defer k.mu.Unlock()
	delete(k.keys, key)
	return nil
}
