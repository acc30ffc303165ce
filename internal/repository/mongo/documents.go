package mongo

import (
	"time"

	"github.com/utafrali/shopper/internal/domain"
)

// Documents mirror the domain types with bson field names. Ids are the
// service-generated UUID strings stored in _id.

type userDoc struct {
	Email     string    `bson:"_id"`
	Name      string    `bson:"name"`
	Role      string    `bson:"role"`
	CreatedAt time.Time `bson:"created_at"`
}

func (d userDoc) toDomain() domain.User {
	return domain.User{Email: d.Email, Name: d.Name, Role: d.Role, CreatedAt: d.CreatedAt.UTC()}
}

type productDoc struct {
	ID            string    `bson:"_id"`
	OwnerEmail    string    `bson:"owner_email"`
	OwnerName     string    `bson:"owner_name"`
	Name          string    `bson:"name"`
	Category      string    `bson:"category"`
	Description   string    `bson:"description"`
	Image         string    `bson:"image"`
	Price         float64   `bson:"price"`
	Quantity      int       `bson:"quantity"`
	Status        string    `bson:"status"`
	RatingCount   int       `bson:"rating_count"`
	AverageRating float64   `bson:"average_rating"`
	CreatedAt     time.Time `bson:"created_at"`
	UpdatedAt     time.Time `bson:"updated_at"`
}

func newProductDoc(p *domain.Product) productDoc {
	return productDoc{
		ID:            p.ID,
		OwnerEmail:    p.OwnerEmail,
		OwnerName:     p.OwnerName,
		Name:          p.Name,
		Category:      p.Category,
		Description:   p.Description,
		Image:         p.Image,
		Price:         p.Price,
		Quantity:      p.Quantity,
		Status:        p.Status,
		RatingCount:   p.RatingCount,
		AverageRating: p.AverageRating,
		CreatedAt:     p.CreatedAt,
		UpdatedAt:     p.UpdatedAt,
	}
}

func (d productDoc) toDomain() domain.Product {
	return domain.Product{
		ID:            d.ID,
		OwnerEmail:    d.OwnerEmail,
		OwnerName:     d.OwnerName,
		Name:          d.Name,
		Category:      d.Category,
		Description:   d.Description,
		Image:         d.Image,
		Price:         d.Price,
		Quantity:      d.Quantity,
		Status:        d.Status,
		RatingCount:   d.RatingCount,
		AverageRating: d.AverageRating,
		CreatedAt:     d.CreatedAt.UTC(),
		UpdatedAt:     d.UpdatedAt.UTC(),
	}
}

func productsFromDocs(docs []productDoc) []domain.Product {
	products := make([]domain.Product, 0, len(docs))
	for _, d := range docs {
		products = append(products, d.toDomain())
	}
	return products
}

type cartDoc struct {
	ID         string    `bson:"_id"`
	OwnerEmail string    `bson:"owner_email"`
	ProductID  string    `bson:"product_id"`
	Quantity   int       `bson:"quantity"`
	CreatedAt  time.Time `bson:"created_at"`
}

func (d cartDoc) toDomain() domain.CartItem {
	return domain.CartItem{
		ID: d.ID, OwnerEmail: d.OwnerEmail, ProductID: d.ProductID, Quantity: d.Quantity,
		CreatedAt: d.CreatedAt.UTC(),
	}
}

type wishlistDoc struct {
	ID         string    `bson:"_id"`
	OwnerEmail string    `bson:"owner_email"`
	ProductID  string    `bson:"product_id"`
	CreatedAt  time.Time `bson:"created_at"`
}

func (d wishlistDoc) toDomain() domain.WishlistItem {
	return domain.WishlistItem{ID: d.ID, OwnerEmail: d.OwnerEmail, ProductID: d.ProductID, CreatedAt: d.CreatedAt.UTC()}
}

type deliveryDoc struct {
	Name    string `bson:"name"`
	Phone   string `bson:"phone,omitempty"`
	Address string `bson:"address"`
	City    string `bson:"city,omitempty"`
	Country string `bson:"country,omitempty"`
}

type paymentDoc struct {
	ID            string      `bson:"_id"`
	Email         string      `bson:"email"`
	ProductIDs    []string    `bson:"product_ids"`
	CartIDs       []string    `bson:"cart_ids"`
	Price         float64     `bson:"price"`
	Currency      string      `bson:"currency"`
	TransactionID string      `bson:"transaction_id"`
	Status        string      `bson:"status"`
	Delivery      deliveryDoc `bson:"delivery"`
	CreatedAt     time.Time   `bson:"created_at"`
}

func newPaymentDoc(p *domain.Payment) paymentDoc {
	return paymentDoc{
		ID:            p.ID,
		Email:         p.Email,
		ProductIDs:    nonNil(p.ProductIDs),
		CartIDs:       nonNil(p.CartIDs),
		Price:         p.Price,
		Currency:      p.Currency,
		TransactionID: p.TransactionID,
		Status:        p.Status,
		Delivery:      deliveryDoc(p.Delivery),
		CreatedAt:     p.CreatedAt,
	}
}

func (d paymentDoc) toDomain() domain.Payment {
	return domain.Payment{
		ID:            d.ID,
		Email:         d.Email,
		ProductIDs:    nonNil(d.ProductIDs),
		CartIDs:       nonNil(d.CartIDs),
		Price:         d.Price,
		Currency:      d.Currency,
		TransactionID: d.TransactionID,
		Status:        d.Status,
		Delivery:      domain.DeliveryInfo(d.Delivery),
		CreatedAt:     d.CreatedAt.UTC(),
	}
}

// sellerLineDoc is one output document of the seller lines pipeline.
type sellerLineDoc struct {
	paymentDoc `bson:",inline"`
	Ref         string `bson:"ref"`
	ProductName string `bson:"product_name"`
}

func (d sellerLineDoc) toDomain() domain.SellerLine {
	return domain.SellerLine{
		Payment:     d.paymentDoc.toDomain(),
		ProductID:   d.Ref,
		ProductName: d.ProductName,
	}
}

type reviewDoc struct {
	ID          string    `bson:"_id"`
	ProductIDs  []string  `bson:"product_ids"`
	Rating      int       `bson:"rating"`
	AuthorEmail string    `bson:"author_email"`
	AuthorName  string    `bson:"author_name"`
	Comment     string    `bson:"comment"`
	CreatedAt   time.Time `bson:"created_at"`
}

func (d reviewDoc) toDomain() domain.Review {
	return domain.Review{
		ID: d.ID, ProductIDs: nonNil(d.ProductIDs), Rating: d.Rating, AuthorEmail: d.AuthorEmail,
		AuthorName: d.AuthorName, Comment: d.Comment, CreatedAt: d.CreatedAt.UTC(),
	}
}

type blogDoc struct {
	ID          string    `bson:"_id"`
	Title       string    `bson:"title"`
	Slug        string    `bson:"slug"`
	Content     string    `bson:"content"`
	Image       string    `bson:"image"`
	AuthorEmail string    `bson:"author_email"`
	CreatedAt   time.Time `bson:"created_at"`
}

func (d blogDoc) toDomain() domain.BlogPost {
	return domain.BlogPost{
		ID: d.ID, Title: d.Title, Slug: d.Slug, Content: d.Content, Image: d.Image,
		AuthorEmail: d.AuthorEmail, CreatedAt: d.CreatedAt.UTC(),
	}
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
